package normalizer

import "strings"

// validationRule bounds the plausible range of a metric and the minimum
// extraction confidence below which a field is flagged for review.
type validationRule struct {
	Min           float64
	Max           float64
	MinConfidence float64
}

// Review reason strings attached to KpiRecords. Stable identifiers, not
// display text.
const (
	ReasonNonFinite     = "non_finite_value"
	ReasonBelowMinimum  = "value_below_minimum"
	ReasonAboveMaximum  = "value_above_maximum"
	ReasonLowConfidence = "low_extraction_confidence"
)

// Per-metric plausibility bounds. Revenue is capped at one trillion USD,
// EPS at the widest range seen in practice, margins are ratios.
var metricRules = map[string]validationRule{
	"revenue":          {Min: 0, Max: 1e12, MinConfidence: 0.80},
	"eps":              {Min: -10, Max: 50, MinConfidence: 0.85},
	"gross_margin":     {Min: -1, Max: 1, MinConfidence: 0.80},
	"operating_margin": {Min: -1, Max: 1, MinConfidence: 0.80},
	"net_margin":       {Min: -1, Max: 1, MinConfidence: 0.80},
}

var defaultRule = validationRule{Min: -1e15, Max: 1e15, MinConfidence: 0.80}

func ruleFor(metric string) validationRule {
	if r, ok := metricRules[metric]; ok {
		return r
	}
	return defaultRule
}

// canonicalMetric lowercases and snake_cases a provider metric name.
func canonicalMetric(metric string) string {
	m := strings.ToLower(strings.TrimSpace(metric))
	m = strings.ReplaceAll(m, " ", "_")
	m = strings.ReplaceAll(m, "-", "_")
	return m
}
