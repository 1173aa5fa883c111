package domain

import (
	"cmp"
	"slices"
)

// RankSites returns assessments sorted by power, highest first. Ties keep name
// order so rankings are reproducible.
func RankSites(assessments []SiteAssessment) []SiteAssessment {
	ranked := slices.Clone(assessments)
	slices.SortStableFunc(ranked, func(a, b SiteAssessment) int {
		if c := cmp.Compare(b.Power, a.Power); c != 0 {
			return c
		}
		return cmp.Compare(a.Site.Name, b.Site.Name)
	})
	return ranked
}

// TopSites returns the n highest-power assessments.
func TopSites(assessments []SiteAssessment, n int) []SiteAssessment {
	ranked := RankSites(assessments)
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// RankingSummary aggregates a set of assessments.
type RankingSummary struct {
	Count    int                `json:"count"`
	AvgPower float64            `json:"avg_power"`
	Best     *SiteAssessment    `json:"best,omitempty"`
	ByLevel  map[PowerLevel]int `json:"by_level"`
}

// SummarizeRanking returns count, mean power, the best site, and per-level counts.
// Mean and best are absent for an empty set.
func SummarizeRanking(assessments []SiteAssessment) RankingSummary {
	summary := RankingSummary{
		Count:   len(assessments),
		ByLevel: make(map[PowerLevel]int),
	}
	if len(assessments) == 0 {
		return summary
	}

	sum := 0.0
	for _, a := range assessments {
		sum += a.Power
		summary.ByLevel[a.Category.Level]++
	}
	summary.AvgPower = sum / float64(len(assessments))

	best := RankSites(assessments)[0]
	summary.Best = &best
	return summary
}
