package normalizer

import (
	"context"
	"math"
	"time"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/util"
)

// Result is the outcome of normalizing one document's extracted fields.
type Result struct {
	Records []models.KpiRecord

	// DataQuality is the needs-review ratio for the document
	// (flagged fields / total fields). Consumed by the gate.
	DataQuality float64
}

// Normalizer validates extracted fields and enriches them with deltas and
// consensus surprise. It reads prior records from the KPI store but never
// writes; the caller commits the returned records atomically.
type Normalizer struct {
	kpis      repository.KpiStore
	consensus repository.ConsensusSource
	logger    *logger.Logger
	now       func() time.Time
}

func New(kpis repository.KpiStore, consensus repository.ConsensusSource, lgr *logger.Logger) *Normalizer {
	return &Normalizer{
		kpis:      kpis,
		consensus: consensus,
		logger:    lgr,
		now:       time.Now,
	}
}

// Normalize turns a document's extracted fields into validated KpiRecords.
// Fields failing validation are marked needs_review, not dropped; the
// document is rejected only when every field fails.
func (n *Normalizer) Normalize(ctx context.Context, doc repository.Document, fields []repository.ExtractedField) (Result, error) {
	if len(fields) == 0 {
		return Result{}, models.ErrNoValidFields
	}

	records := make([]models.KpiRecord, 0, len(fields))
	flagged := 0

	for _, f := range fields {
		rec := n.buildRecord(ctx, doc, f)
		if rec.NeedsReview {
			flagged++
		}
		records = append(records, rec)
	}

	if flagged == len(records) {
		return Result{}, models.ErrNoValidFields
	}

	return Result{
		Records:     records,
		DataQuality: float64(flagged) / float64(len(records)),
	}, nil
}

func (n *Normalizer) buildRecord(ctx context.Context, doc repository.Document, f repository.ExtractedField) models.KpiRecord {
	metric := canonicalMetric(f.Metric)
	prov := f.Provenance
	prov.DocID = doc.DocID

	rec := models.KpiRecord{
		Ticker:               doc.Ticker,
		Period:               doc.Period,
		Metric:               metric,
		RawValue:             f.Value,
		Unit:                 f.Unit,
		Provenance:           prov,
		ExtractionConfidence: f.Confidence,
		ExtractedAt:          n.now(),
	}

	n.validate(&rec)
	if !rec.NeedsReview {
		n.enrich(ctx, &rec)
	}
	return rec
}

func (n *Normalizer) validate(rec *models.KpiRecord) {
	flag := func(reason string) {
		rec.NeedsReview = true
		rec.ReviewReasons = append(rec.ReviewReasons, reason)
	}

	if math.IsNaN(rec.RawValue) || math.IsInf(rec.RawValue, 0) {
		flag(ReasonNonFinite)
		return
	}

	rule := ruleFor(rec.Metric)
	if rec.RawValue < rule.Min {
		flag(ReasonBelowMinimum)
	}
	if rec.RawValue > rule.Max {
		flag(ReasonAboveMaximum)
	}
	if rec.ExtractionConfidence < rule.MinConfidence {
		flag(ReasonLowConfidence)
	}
}

// enrich fills deltas against prior periods and consensus surprise.
// A missing or zero-valued prior leaves the delta undefined, never zero.
func (n *Normalizer) enrich(ctx context.Context, rec *models.KpiRecord) {
	if prev, ok := util.PrevQuarterPeriod(rec.Period); ok {
		if prior, found := n.kpis.MetricAt(ctx, rec.Ticker, rec.Metric, prev); found && prior.RawValue != 0 {
			d := (rec.RawValue - prior.RawValue) / math.Abs(prior.RawValue)
			rec.QoQChange = &d
		}
	}
	if prev, ok := util.PrevYearPeriod(rec.Period); ok {
		if prior, found := n.kpis.MetricAt(ctx, rec.Ticker, rec.Metric, prev); found && prior.RawValue != 0 {
			d := (rec.RawValue - prior.RawValue) / math.Abs(prior.RawValue)
			rec.YoYChange = &d
		}
	}
	if n.consensus != nil {
		if est, ok := n.consensus.Consensus(rec.Ticker, rec.Period, rec.Metric); ok {
			rec.Consensus = &est
			if est != 0 {
				s := (rec.RawValue - est) / math.Abs(est)
				rec.Surprise = &s
			}
		}
	}
}
