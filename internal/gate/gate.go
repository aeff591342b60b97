package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
)

const defaultGuidanceTemplate = "reduce exposure by %.0f%%"

// Outcome is the result of gating one signal. A blocked signal is a valid
// business result, not an error.
type Outcome struct {
	Signal models.SignalRecord

	// Alert is non-nil when the signal was compliance-blocked and a
	// COMPLIANCE_ALERT event must accompany the signal event.
	Alert *models.ComplianceAlertPayload
}

// Gate vetoes or downgrades signals against confidence, data quality and
// compliance rules. It only ever moves an action toward HOLD; score,
// confidence and citations pass through untouched.
type Gate struct {
	rules          repository.RuleStore
	metrics        repository.Metrics
	logger         *logger.Logger
	minConfidence  float64
	maxReviewRatio float64
	now            func() time.Time
}

func New(rules repository.RuleStore, metrics repository.Metrics, lgr *logger.Logger, minConfidence, maxReviewRatio float64) *Gate {
	return &Gate{
		rules:          rules,
		metrics:        metrics,
		logger:         lgr,
		minConfidence:  minConfidence,
		maxReviewRatio: maxReviewRatio,
		now:            time.Now,
	}
}

// Evaluate gates the signal. dataQuality is the needs-review ratio of the
// document that produced it.
func (g *Gate) Evaluate(ctx context.Context, sig models.SignalRecord, dataQuality float64) (Outcome, error) {
	out := Outcome{Signal: sig}
	priorAction := sig.Action

	tickerRules, err := g.rules.ForTicker(ctx, sig.Ticker)
	if err != nil {
		return Outcome{}, fmt.Errorf("load compliance rules: %w", err)
	}

	if rule, ok := ActiveRule(tickerRules, g.now()); ok && rule.Margin.Restricted {
		out.Signal.Action = models.ActionHold
		out.Signal.BlockedReason = models.BlockCompliance
		out.Alert = &models.ComplianceAlertPayload{
			Ticker:           sig.Ticker,
			RuleID:           rule.RuleID,
			Message:          fmt.Sprintf("trading restricted for %s", sig.Ticker),
			EffectiveDate:    rule.EffectiveDate,
			ExposureGuidance: exposureGuidance(rule, priorAction),
		}
	} else if sig.Confidence < g.minConfidence {
		out.Signal.Action = models.ActionHold
		out.Signal.BlockedReason = models.BlockConfidence
	} else if dataQuality > g.maxReviewRatio {
		out.Signal.Action = models.ActionHold
		out.Signal.BlockedReason = models.BlockDataQuality
	}

	outcome := "published"
	if out.Signal.Blocked() {
		outcome = out.Signal.BlockedReason
		g.logger.Info("signal blocked",
			logger.String("ticker", sig.Ticker),
			logger.String("period", sig.Period),
			logger.String("reason", out.Signal.BlockedReason),
			logger.Float64("confidence", sig.Confidence))
	}
	g.metrics.RecordGateOutcome(outcome)

	return out, nil
}

// exposureGuidance renders the rule's guidance template with a reduction
// percentage scaled by how aggressive the blocked action was. A blocked
// BUY gets the full reduction, HOLD half, SELL none.
func exposureGuidance(rule models.ComplianceRule, priorAction models.Action) string {
	scale := 0.0
	switch priorAction {
	case models.ActionBuy:
		scale = 1.0
	case models.ActionHold:
		scale = 0.5
	}

	base := rule.Margin.Initial
	if base <= 0 || base > 1 {
		base = 0.5
	}
	tmpl := rule.GuidanceTemplate
	if tmpl == "" {
		tmpl = defaultGuidanceTemplate
	}
	return fmt.Sprintf(tmpl, base*scale*100)
}
