package domain

import "math"

// SaturationVaporPressure returns the saturation vapour pressure of water in kPa at
// the given air temperature, using the Buck form of the Tetens curve.
func SaturationVaporPressure(tempC float64) float64 {
	e := (18.678 - tempC/234.5) * (tempC / (257.14 + tempC))
	return 0.61121 * math.Exp(e)
}

// SlopeSaturationCurve returns the slope of the saturation vapour pressure curve
// (kPa/K) at the given temperature.
func SlopeSaturationCurve(tempC float64) float64 {
	tempK := tempC + kelvinOffset
	return (LatentHeat * SaturationVaporPressure(tempC)) / (GasConstantWater * tempK * tempK)
}

// VaporPressureDeficit returns the gap between saturation and actual vapour pressure
// in kPa for a relative humidity given as a fraction.
func VaporPressureDeficit(tempC, rh float64) float64 {
	return (1 - rh) * SaturationVaporPressure(tempC)
}
