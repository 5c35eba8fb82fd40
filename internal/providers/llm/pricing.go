package llm

import "strings"

// costPer1K is the blended USD price per thousand tokens.
var costPer1K = map[string]float64{
	"gpt-4-turbo":      0.01,
	"gpt-4":            0.03,
	"gpt-4o":           0.005,
	"gpt-4o-mini":      0.0006,
	"gpt-3.5-turbo":    0.002,
	"gemini-1.5-flash": 0.0004,
	"gemini-1.5-pro":   0.0035,
}

const defaultCostPer1K = 0.01

// EstimateCost prices tokens for model. Dated model snapshots resolve to their
// family price.
func EstimateCost(model string, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1000 * pricePer1K(model)
}

func pricePer1K(model string) float64 {
	m := strings.ToLower(strings.TrimSpace(model))
	if p, ok := costPer1K[m]; ok {
		return p
	}
	best := ""
	for name := range costPer1K {
		if strings.HasPrefix(m, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return costPer1K[best]
	}
	return defaultCostPer1K
}
