package domain

// PowerLevel is a qualitative power tier.
type PowerLevel string

const (
	LevelExcellent PowerLevel = "excellent"
	LevelVeryGood  PowerLevel = "very-good"
	LevelGood      PowerLevel = "good"
	LevelModerate  PowerLevel = "moderate"
	LevelLow       PowerLevel = "low"
)

// Rank orders levels from 0 (low) to 4 (excellent).
func (l PowerLevel) Rank() int {
	switch l {
	case LevelExcellent:
		return 4
	case LevelVeryGood:
		return 3
	case LevelGood:
		return 2
	case LevelModerate:
		return 1
	default:
		return 0
	}
}

// PowerCategory describes a power tier for display.
type PowerCategory struct {
	Level       PowerLevel `json:"level"`
	Color       string     `json:"color"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
}

// powerTiers is ordered from the highest threshold down. A power belongs to the
// first tier whose threshold it strictly exceeds.
var powerTiers = []struct {
	threshold float64
	category  PowerCategory
}{
	{200, PowerCategory{LevelExcellent, "#d73027", "Excellent", "Ideal conditions for evaporation engine deployment"}},
	{150, PowerCategory{LevelVeryGood, "#fc8d59", "Very Good", "Favorable conditions with high potential"}},
	{100, PowerCategory{LevelGood, "#fee090", "Good", "Moderate potential for implementation"}},
	{50, PowerCategory{LevelModerate, "#91bfdb", "Moderate", "Limited but viable potential"}},
}

var lowCategory = PowerCategory{LevelLow, "#4575b4", "Low", "Challenging conditions for deployment"}

// ClassifyPower maps a power density in W/m² to its category:
//
//	>200 excellent | >150 very-good | >100 good | >50 moderate | else low
func ClassifyPower(power float64) PowerCategory {
	for _, tier := range powerTiers {
		if power > tier.threshold {
			return tier.category
		}
	}
	return lowCategory
}
