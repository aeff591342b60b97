package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	drepo "github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/gate"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/normalizer"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/signal"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
)

type fakeExtractor struct {
	fields []drepo.ExtractedField
	rules  []models.ComplianceRule
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractFields(_ context.Context, _ drepo.Document) ([]drepo.ExtractedField, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

func (f *fakeExtractor) ExtractRules(_ context.Context, _ drepo.Document) ([]models.ComplianceRule, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rules, nil
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (d *fakeDispatcher) Dispatch(_ context.Context, ev models.NotificationEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *fakeDispatcher) kinds() []models.EventKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.EventKind, 0, len(d.events))
	for _, ev := range d.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fakeConsensus map[string]float64

func (f fakeConsensus) Consensus(ticker, period, metric string) (float64, bool) {
	v, ok := f[ticker+"|"+period+"|"+metric]
	return v, ok
}

type nopMetrics struct{}

func (nopMetrics) RecordEvent(string, string)    {}
func (nopMetrics) RecordGateOutcome(string)      {}
func (nopMetrics) RecordDelivery(string, string) {}
func (nopMetrics) RecordDrop(string)             {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}

type env struct {
	pipeline   *Pipeline
	kpis       *repository.MemoryKpiStore
	signals    *repository.MemorySignalStore
	rules      *repository.MemoryRuleStore
	docs       *repository.MemoryDocStore
	extractor  *fakeExtractor
	dispatcher *fakeDispatcher
}

func newEnv(t *testing.T, extractor *fakeExtractor, consensus fakeConsensus) *env {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	kpis := repository.NewMemoryKpiStore()
	signals := repository.NewMemorySignalStore()
	rules := repository.NewMemoryRuleStore()
	docs := repository.NewMemoryDocStore()
	dispatcher := &fakeDispatcher{}

	p := NewPipeline(PipelineDeps{
		Docs:       docs,
		Kpis:       kpis,
		Signals:    signals,
		Rules:      rules,
		Prints:     repository.NewMemoryFingerprintStore(),
		Extractor:  extractor,
		Archive:    repository.NoopArchive{},
		Normalizer: normalizer.New(kpis, consensus, lgr),
		Agent:      signal.NewAgent(),
		Gate:       gate.New(rules, nopMetrics{}, lgr, 0.70, 0.20),
		Dispatcher: dispatcher,
		Metrics:    nopMetrics{},
		Logger:     lgr,
	})
	return &env{
		pipeline:   p,
		kpis:       kpis,
		signals:    signals,
		rules:      rules,
		docs:       docs,
		extractor:  extractor,
		dispatcher: dispatcher,
	}
}

func earningsFields() []drepo.ExtractedField {
	return []drepo.ExtractedField{
		{Metric: "eps", Value: 1.50, Unit: "USD", Confidence: 0.95, Provenance: models.Provenance{Page: 3, Table: "income", Row: 1, Col: 2}},
		{Metric: "revenue", Value: 99.91e9, Unit: "USD", Confidence: 0.95, Provenance: models.Provenance{Page: 3, Table: "income", Row: 2, Col: 2}},
		{Metric: "gross_margin", Value: 0.44, Unit: "ratio", Confidence: 0.95, Provenance: models.Provenance{Page: 4, Table: "margins", Row: 1, Col: 2}},
	}
}

func aaplConsensus() fakeConsensus {
	return fakeConsensus{
		"AAPL|2025-Q3|eps":     1.40,   // surprise ~ +0.071
		"AAPL|2025-Q3|revenue": 97e9,   // ~3% beat
	}
}

func aaplInput() IngestInput {
	return IngestInput{
		Ticker:  "AAPL",
		Period:  "2025-Q3",
		DocType: models.DocTypeEarnings,
		Content: []byte("q3 earnings"),
	}
}

func TestIngestEndToEndBuySignal(t *testing.T) {
	e := newEnv(t, &fakeExtractor{fields: earningsFields()}, aaplConsensus())

	receipt, err := e.pipeline.Ingest(context.Background(), aaplInput())
	require.NoError(t, err)

	assert.Equal(t, StatusProcessed, receipt.Status)
	require.NotNil(t, receipt.Signal)
	sig := *receipt.Signal

	assert.Equal(t, models.ActionBuy, sig.Action)
	assert.Greater(t, sig.RawScore, 0.30)
	assert.GreaterOrEqual(t, sig.Confidence, 0.70)
	assert.Empty(t, sig.BlockedReason)
	assert.NotEmpty(t, sig.Citations)

	stored, ok := e.signals.Current(context.Background(), "AAPL", "2025-Q3")
	require.True(t, ok)
	assert.Equal(t, sig.Action, stored.Action)

	assert.Equal(t, []models.EventKind{models.EventDocIngested, models.EventSignalReady}, e.dispatcher.kinds())
}

func TestIngestIdempotentUnderIdenticalContent(t *testing.T) {
	e := newEnv(t, &fakeExtractor{fields: earningsFields()}, aaplConsensus())
	ctx := context.Background()

	first, err := e.pipeline.Ingest(ctx, aaplInput())
	require.NoError(t, err)
	countAfterFirst := e.kpis.Count(ctx)

	second, err := e.pipeline.Ingest(ctx, aaplInput())
	require.NoError(t, err)

	assert.Equal(t, first.DocID, second.DocID)
	assert.Equal(t, StatusProcessed, first.Status)
	assert.Equal(t, StatusDuplicate, second.Status)
	require.NotNil(t, second.Signal)
	assert.Equal(t, first.Signal.RawScore, second.Signal.RawScore)
	assert.Equal(t, first.Signal.Confidence, second.Signal.Confidence)
	assert.Equal(t, countAfterFirst, e.kpis.Count(ctx), "duplicate ingestion must not create records")

	// Only the first pass dispatched events.
	assert.Len(t, e.dispatcher.kinds(), 2)
}

func TestIngestExtractionFailureLeavesNoState(t *testing.T) {
	boom := &models.ExtractionError{DocID: "x", Err: errors.New("provider down")}
	e := newEnv(t, &fakeExtractor{err: boom}, fakeConsensus{})
	ctx := context.Background()

	_, err := e.pipeline.Ingest(ctx, aaplInput())
	var exErr *models.ExtractionError
	require.ErrorAs(t, err, &exErr)

	assert.Zero(t, e.kpis.Count(ctx))
	_, ok := e.signals.Current(ctx, "AAPL", "2025-Q3")
	assert.False(t, ok)
	assert.Empty(t, e.dispatcher.kinds())
}

func TestIngestCancelledLeavesNoState(t *testing.T) {
	e := newEnv(t, &fakeExtractor{fields: earningsFields()}, aaplConsensus())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.pipeline.Ingest(ctx, aaplInput())
	require.ErrorIs(t, err, context.Canceled)

	assert.Zero(t, e.kpis.Count(context.Background()))
	_, ok := e.signals.Current(context.Background(), "AAPL", "2025-Q3")
	assert.False(t, ok, "cancelled ingestion must be all-or-nothing")
}

func TestIngestRejectsInvalidInput(t *testing.T) {
	e := newEnv(t, &fakeExtractor{fields: earningsFields()}, fakeConsensus{})

	in := aaplInput()
	in.Ticker = "not-a-ticker!"
	_, err := e.pipeline.Ingest(context.Background(), in)
	assert.Error(t, err)

	in = aaplInput()
	in.DocType = "memo"
	_, err = e.pipeline.Ingest(context.Background(), in)
	assert.Error(t, err)
}

func TestIngestRejectsWhenAllFieldsFail(t *testing.T) {
	e := newEnv(t, &fakeExtractor{fields: []drepo.ExtractedField{
		{Metric: "eps", Value: 500, Confidence: 0.95}, // out of range
	}}, fakeConsensus{})

	_, err := e.pipeline.Ingest(context.Background(), aaplInput())
	assert.ErrorIs(t, err, models.ErrNoValidFields)
	assert.Zero(t, e.kpis.Count(context.Background()))
}

func TestIngestNormalizesTickerAndPeriod(t *testing.T) {
	e := newEnv(t, &fakeExtractor{fields: earningsFields()}, aaplConsensus())

	in := aaplInput()
	in.Ticker = "aapl.us"
	in.Period = "Q3 2025"
	receipt, err := e.pipeline.Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", receipt.Signal.Ticker)
	assert.Equal(t, "2025-Q3", receipt.Signal.Period)
}

func TestComplianceIngestRestrictsExistingSignal(t *testing.T) {
	e := newEnv(t, &fakeExtractor{fields: earningsFields()}, aaplConsensus())
	ctx := context.Background()

	_, err := e.pipeline.Ingest(ctx, aaplInput())
	require.NoError(t, err)

	e.extractor.rules = []models.ComplianceRule{{
		EffectiveDate: time.Now().Add(-24 * time.Hour),
		Margin:        models.MarginRequirement{Initial: 0.5, Restricted: true},
	}}
	receipt, err := e.pipeline.Ingest(ctx, IngestInput{
		Ticker:  "AAPL",
		DocType: models.DocTypeCompliance,
		Content: []byte("margin notice"),
	})
	require.NoError(t, err)
	require.NotNil(t, receipt.Signal)
	assert.Equal(t, models.ActionHold, receipt.Signal.Action)
	assert.Equal(t, models.BlockCompliance, receipt.Signal.BlockedReason)

	current, ok := e.signals.Current(ctx, "AAPL", "2025-Q3")
	require.True(t, ok)
	assert.Equal(t, models.BlockCompliance, current.BlockedReason)

	kinds := e.dispatcher.kinds()
	assert.Contains(t, kinds, models.EventComplianceAlert)
}

func TestComplianceIngestWithoutPriorSignal(t *testing.T) {
	extractor := &fakeExtractor{rules: []models.ComplianceRule{{
		EffectiveDate: time.Now().Add(-time.Hour),
		Margin:        models.MarginRequirement{Restricted: true},
	}}}
	e := newEnv(t, extractor, fakeConsensus{})

	receipt, err := e.pipeline.Ingest(context.Background(), IngestInput{
		Ticker:  "TSLA",
		DocType: models.DocTypeCompliance,
		Content: []byte("notice"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, receipt.Status)
	assert.Nil(t, receipt.Signal)

	rules, err := e.rules.ForTicker(context.Background(), "TSLA")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.NotEmpty(t, rules[0].RuleID, "missing rule IDs are assigned")
}

func TestGetSignal(t *testing.T) {
	e := newEnv(t, &fakeExtractor{fields: earningsFields()}, aaplConsensus())
	ctx := context.Background()

	_, err := e.pipeline.Ingest(ctx, aaplInput())
	require.NoError(t, err)

	sig, err := e.pipeline.GetSignal(ctx, "AAPL", "2025-Q3")
	require.NoError(t, err)
	assert.Equal(t, models.ActionBuy, sig.Action)

	// Empty period resolves to the latest signal.
	sig, err = e.pipeline.GetSignal(ctx, "aapl", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-Q3", sig.Period)

	_, err = e.pipeline.GetSignal(ctx, "MSFT", "")
	assert.ErrorIs(t, err, models.ErrSignalNotFound)
}

func TestCorrectiveReingestionSupersedes(t *testing.T) {
	e := newEnv(t, &fakeExtractor{fields: earningsFields()}, aaplConsensus())
	ctx := context.Background()

	first, err := e.pipeline.Ingest(ctx, aaplInput())
	require.NoError(t, err)

	// Corrected document: eps misses consensus badly.
	corrected := earningsFields()
	corrected[0].Value = 1.10
	e.extractor.fields = corrected

	second, err := e.pipeline.Ingest(ctx, aaplInput())
	require.NoError(t, err)
	assert.NotEqual(t, first.DocID, second.DocID)

	current, ok := e.signals.Current(ctx, "AAPL", "2025-Q3")
	require.True(t, ok)
	assert.Equal(t, second.Signal.Action, current.Action)
	assert.NotEqual(t, first.Signal.RawScore, current.RawScore)
}
