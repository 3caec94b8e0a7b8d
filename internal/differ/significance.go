package differ

import (
	"math"
	"strings"
)

// Keyword weights for clause significance. A clause's score is the sum of
// the weights of every keyword it contains, capped at 1.0.
var significanceKeywords = map[string]float64{
	// High significance
	"sell":             0.35,
	"selling":          0.35,
	"sold":             0.35,
	"third party":      0.30,
	"third-party":      0.30,
	"third parties":    0.30,
	"arbitration":      0.35,
	"class action":     0.30,
	"waive":            0.30,
	"waiver":           0.30,
	"ai training":      0.35,
	"train our models": 0.35,
	"machine learning": 0.25,
	"law enforcement":  0.30,
	"government":       0.25,
	"subpoena":         0.25,
	// Medium significance
	"opt-out":            0.25,
	"opt out":            0.25,
	"consent":            0.20,
	"withdraw consent":   0.25,
	"data sharing":       0.20,
	"share your":         0.20,
	"retention":          0.20,
	"retain":             0.15,
	"delete":             0.15,
	"deletion":           0.15,
	"advertising":        0.20,
	"profiling":          0.25,
	"automated decision": 0.25,
	"biometric":          0.25,
	"geolocation":        0.20,
	"tracking":           0.20,
	"cookie":             0.15,
	"transfer":           0.15,
	"cross-border":       0.20,
	"encrypt":            0.15,
	"security":           0.15,
	"breach":             0.25,
	"children":           0.20,
	"minor":              0.20,
	"sensitive":          0.20,
}

// Significance scores a clause between 0.0 and 1.0 by summing the weights
// of matched keywords. The sum is rounded to two decimals before the cap
// so borderline sums stay stable across platforms.
func Significance(text string) float64 {
	if text == "" {
		return 0.0
	}
	lower := strings.ToLower(text)
	score := 0.0
	for keyword, weight := range significanceKeywords {
		if strings.Contains(lower, keyword) {
			score += weight
		}
	}
	return math.Min(1.0, math.Round(score*100)/100)
}
