package domain

// Physical constants of the evaporation and power models. The empirical values are
// fixed for compatibility with the existing calibration.
const (
	// UnitConversionT converts MJ/(m²·day) and mm to W (W·m·day/(MJ·mm)).
	UnitConversionT = 0.01157
	// UnitConversionE converts an evaporation rate to a molar flux (mol·day/(mm·m²)).
	UnitConversionE = 6.42465e-4
	// LatentHeat is the latent heat of vaporization in MJ/Mg.
	LatentHeat = 2448.0
	// WaterDensity in Mg/m³.
	WaterDensity = 1.0
	// Psychrometric is the psychrometric constant gamma in kPa/K.
	Psychrometric = 0.067
	// GasConstantWater is the specific gas constant of water vapour in J/(kg·K).
	GasConstantWater = 461.5
	// GasConstant is the ideal gas constant in J/(mol·K).
	GasConstant = 8.314
	// WetSurfaceHumidity is the relative humidity assumed at the evaporating surface.
	WetSurfaceHumidity = 0.975
	// NetRadiationFactor converts gross shortwave radiation to net radiation.
	NetRadiationFactor = 0.65

	kelvinOffset = 273.15
)
