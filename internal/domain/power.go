package domain

import "math"

// MaxPower returns the maximum power density in W/m² an evaporation engine can draw
// from the humidity gradient between a near-saturated surface and ambient air:
//
//	P = c_e · E · R · T · ln(RH_wet / RH_air)
//
// Ambient humidity at or above the wet-surface humidity leaves no gradient, and
// non-positive humidity is not a physical state; both yield 0.
func MaxPower(evapRate, tempC, rhAir float64) float64 {
	if rhAir >= WetSurfaceHumidity || rhAir <= 0 {
		return 0
	}
	tempK := tempC + kelvinOffset
	power := UnitConversionE * evapRate * GasConstant * tempK * math.Log(WetSurfaceHumidity/rhAir)
	if !(power > 0) {
		return 0
	}
	return power
}
