// Package status maps sustainability scores to status tiers and map marker colors.
package status

import "math"

// Tier is a discrete classification of a score.
type Tier string

const (
	TierGood     Tier = "good"
	TierModerate Tier = "moderate"
	TierCritical Tier = "critical"
)

// Tier lower bounds, inclusive.
const (
	GoodThreshold     = 70.0
	ModerateThreshold = 40.0
)

// Tiers lists every tier from best to worst.
var Tiers = []Tier{TierGood, TierModerate, TierCritical}

// Classification is the display encoding of a tier.
type Classification struct {
	Tier      Tier   `json:"tier"`
	Label     string `json:"label"`
	ClassName string `json:"class_name"`
	Color     string `json:"color"`
}

var classifications = map[Tier]Classification{
	TierGood:     {Tier: TierGood, Label: "Good", ClassName: "good", Color: "#10b981"},
	TierModerate: {Tier: TierModerate, Label: "Moderate", ClassName: "moderate", Color: "#fbbf24"},
	TierCritical: {Tier: TierCritical, Label: "Critical", ClassName: "critical", Color: "#f87171"},
}

// TierOf returns the tier for score. Scores are not clamped; NaN is Critical.
func TierOf(score float64) Tier {
	switch {
	case score >= GoodThreshold:
		return TierGood
	case score >= ModerateThreshold:
		return TierModerate
	default:
		return TierCritical
	}
}

// Classify returns the label, CSS class, and color for score.
func Classify(score float64) Classification {
	return classifications[TierOf(score)]
}

// ForTier returns the classification of a tier.
func ForTier(t Tier) Classification {
	return classifications[t]
}

// palettes holds four marker stops per tier, lightest first.
var palettes = map[Tier][4]string{
	TierGood:     {"#10b981", "#059669", "#047857", "#065f46"},
	TierModerate: {"#fbbf24", "#f59e0b", "#d97706", "#b45309"},
	TierCritical: {"#ef4444", "#dc2626", "#991b1b", "#7f1d1d"},
}

// Palette returns the marker stops for a tier.
func Palette(t Tier) [4]string {
	return palettes[t]
}

// MarkerStop returns the gradient band and stop index (0-3) for score. The
// score is clamped to [0,100] and normalized to [0,1]; the intensity within
// the band picks one of four stops.
func MarkerStop(score float64) (Tier, int) {
	if math.IsNaN(score) {
		score = 0
	}
	n := math.Max(0, math.Min(100, score)) / 100

	var tier Tier
	var intensity float64
	switch {
	case n >= GoodThreshold/100:
		tier, intensity = TierGood, (n-0.7)/0.3
	case n >= ModerateThreshold/100:
		tier, intensity = TierModerate, (n-0.4)/0.3
	default:
		tier, intensity = TierCritical, n/0.4
	}

	idx := int(math.Floor(intensity * 3))
	if idx < 0 {
		idx = 0
	}
	if idx > 3 {
		idx = 3
	}
	return tier, idx
}

// MarkerColor returns the discrete marker color for score.
func MarkerColor(score float64) string {
	tier, idx := MarkerStop(score)
	return palettes[tier][idx]
}

// LegendEntry describes one tier in the map legend.
type LegendEntry struct {
	Classification
	Range string `json:"range"`
	Count int    `json:"count"`
}

// Legend returns the legend in display order with per-tier counts taken
// from counts (which may be nil).
func Legend(counts map[Tier]int) []LegendEntry {
	ranges := map[Tier]string{
		TierGood:     "70+",
		TierModerate: "40-69",
		TierCritical: "< 40",
	}
	out := make([]LegendEntry, 0, len(Tiers))
	for _, t := range Tiers {
		out = append(out, LegendEntry{
			Classification: classifications[t],
			Range:          ranges[t],
			Count:          counts[t],
		})
	}
	return out
}
