package domain

// EvaporationRate estimates open-surface evaporation in mm/day with the Penman
// combination equation:
//
//	E = (Δ·Rn + 2.6·c_t·L_v·ρ_w·γ·(1 + 0.54·u)·D) / (Δ + γ)
//
// netRadiation is in MJ/(m²·day), rh is a fraction and windSpeed is in m/s. The raw
// equation can go negative for strongly negative radiation; the result is clamped to 0,
// and so is NaN.
func EvaporationRate(netRadiation, tempC, rh, windSpeed float64) float64 {
	delta := SlopeSaturationCurve(tempC)
	deficit := VaporPressureDeficit(tempC, rh)

	aero := 2.6 * UnitConversionT * LatentHeat * WaterDensity * Psychrometric * (1 + 0.54*windSpeed) * deficit
	rate := (delta*netRadiation + aero) / (delta + Psychrometric)

	if !(rate > 0) {
		return 0
	}
	return rate
}
