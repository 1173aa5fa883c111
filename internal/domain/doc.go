// Package domain estimates the power an evaporation engine can harvest at a site.
//
// # Model
//
// Evaporation from an open water surface follows the Penman combination equation.
// The slope of the saturation curve and the vapour pressure deficit are evaluated
// at the air temperature:
//
//	e_s(T) = 0.61121 · exp((18.678 − T/234.5) · T/(257.14 + T))   kPa
//	Δ(T)   = L_v · e_s / (R_v · T_K²)                              kPa/K
//	D      = (1 − RH) · e_s                                        kPa
//	E      = (Δ·Rn + 2.6·c_t·L_v·ρ_w·γ·(1 + 0.54·u)·D) / (Δ + γ)   mm/day, ≥ 0
//
// The engine's maximum power is the chemical-potential difference of water vapour
// between a surface at 97.5 % humidity and ambient air, carried by the evaporative
// flux:
//
//	P = c_e · E · R · T_K · ln(0.975 / RH)   W/m², 0 when RH ≥ 0.975 or RH ≤ 0
//
// # Units
//
// Temperatures are °C, humidity is a fraction in [0, 1] (never percent), wind is m/s.
// Daily radiation is MJ/(m²·day); gross shortwave radiation is converted to net
// radiation with a fixed factor of 0.65. Climate averages carry solar radiation in
// W/m², and the single-point estimate scales it by the same factor.
//
// # Climate heuristic
//
// Without observations, [ClimateEstimator] derives temperature, humidity, wind and
// solar radiation from latitude baselines plus additive regional rules and a coastal
// adjustment, then clamps each field to the range the model was validated on.
// Estimates are memoized per coordinate pair rounded to two decimals.
//
// # Edge cases
//
// Degenerate physics returns zero (no humidity gradient, negative evaporation).
// Aggregating an empty series returns [ErrEmptySeries]; sizing a site with zero
// achievable power returns [ErrInfeasibleSite].
package domain
