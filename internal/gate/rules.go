package gate

import (
	"time"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
)

// ActiveRule selects the compliance rule in effect at the given time.
// Candidates are rules with effective_date <= now; the latest effective
// date wins, ties broken by most recent ingestion. ok is false when no
// rule is currently effective.
func ActiveRule(rules []models.ComplianceRule, now time.Time) (models.ComplianceRule, bool) {
	var best models.ComplianceRule
	found := false
	for _, r := range rules {
		if r.EffectiveDate.After(now) {
			continue
		}
		if !found {
			best, found = r, true
			continue
		}
		if r.EffectiveDate.After(best.EffectiveDate) {
			best = r
			continue
		}
		if r.EffectiveDate.Equal(best.EffectiveDate) && r.Seq > best.Seq {
			best = r
		}
	}
	return best, found
}
