package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	drepo "github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
)

func kpi(ticker, period, metric, docID string, value float64) models.KpiRecord {
	return models.KpiRecord{
		Ticker:      ticker,
		Period:      period,
		Metric:      metric,
		RawValue:    value,
		Provenance:  models.Provenance{DocID: docID},
		ExtractedAt: time.Now(),
	}
}

func TestKpiStoreUpsertOverwritesSameKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKpiStore()

	require.NoError(t, s.Upsert(ctx, []models.KpiRecord{kpi("AAPL", "2025-Q3", "eps", "doc-1", 1.50)}))
	require.NoError(t, s.Upsert(ctx, []models.KpiRecord{kpi("AAPL", "2025-Q3", "eps", "doc-1", 1.55)}))

	assert.Equal(t, 1, s.Count(ctx))
	rec, ok := s.Get(ctx, models.KpiKey{Ticker: "AAPL", Period: "2025-Q3", Metric: "eps", DocID: "doc-1"})
	require.True(t, ok)
	assert.Equal(t, 1.55, rec.RawValue)
}

func TestKpiStoreDistinctDocsAreDistinctRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKpiStore()

	require.NoError(t, s.Upsert(ctx, []models.KpiRecord{
		kpi("AAPL", "2025-Q3", "eps", "doc-1", 1.50),
		kpi("AAPL", "2025-Q3", "eps", "doc-2", 1.52),
	}))
	assert.Equal(t, 2, s.Count(ctx))

	records, err := s.ForTickerPeriod(ctx, "AAPL", "2025-Q3")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestKpiStoreMetricAtPrefersNewestExtraction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKpiStore()

	old := kpi("AAPL", "2024-Q3", "revenue", "doc-1", 90e9)
	old.ExtractedAt = time.Now().Add(-time.Hour)
	newer := kpi("AAPL", "2024-Q3", "revenue", "doc-2", 91e9)
	require.NoError(t, s.Upsert(ctx, []models.KpiRecord{old, newer}))

	rec, ok := s.MetricAt(ctx, "AAPL", "revenue", "2024-Q3")
	require.True(t, ok)
	assert.Equal(t, 91e9, rec.RawValue)

	_, ok = s.MetricAt(ctx, "AAPL", "revenue", "2023-Q3")
	assert.False(t, ok)
}

func TestSignalStoreSupersession(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore()

	first := models.SignalRecord{Ticker: "AAPL", Period: "2025-Q3", Action: models.ActionBuy, GeneratedAt: time.Now()}
	require.NoError(t, s.SetCurrent(ctx, first))
	second := models.SignalRecord{Ticker: "AAPL", Period: "2025-Q3", Action: models.ActionHold, GeneratedAt: time.Now().Add(time.Second)}
	require.NoError(t, s.SetCurrent(ctx, second))

	cur, ok := s.Current(ctx, "AAPL", "2025-Q3")
	require.True(t, ok)
	assert.Equal(t, models.ActionHold, cur.Action)

	// Superseded record retained for audit.
	hist := s.History("AAPL", "2025-Q3")
	require.Len(t, hist, 1)
	assert.Equal(t, models.ActionBuy, hist[0].Action)
}

func TestSignalStoreLatestAcrossPeriods(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore()

	older := models.SignalRecord{Ticker: "AAPL", Period: "2025-Q2", GeneratedAt: time.Now().Add(-time.Hour)}
	newer := models.SignalRecord{Ticker: "AAPL", Period: "2025-Q3", GeneratedAt: time.Now()}
	require.NoError(t, s.SetCurrent(ctx, newer))
	require.NoError(t, s.SetCurrent(ctx, older))

	latest, ok := s.Latest(ctx, "AAPL")
	require.True(t, ok)
	assert.Equal(t, "2025-Q3", latest.Period)

	_, ok = s.Latest(ctx, "MSFT")
	assert.False(t, ok)
}

func TestRuleStoreAssignsMonotonicSeq(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRuleStore()

	a, err := s.Add(ctx, models.ComplianceRule{RuleID: "a", Ticker: "AAPL"})
	require.NoError(t, err)
	b, err := s.Add(ctx, models.ComplianceRule{RuleID: "b", Ticker: "AAPL"})
	require.NoError(t, err)
	assert.Greater(t, b.Seq, a.Seq)

	rules, err := s.ForTicker(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	rules, err = s.ForTicker(ctx, "MSFT")
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestFingerprintStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFingerprintStore()

	_, ok := s.Lookup(ctx, "fp-1")
	assert.False(t, ok)

	receipt := drepo.IngestReceipt{DocID: "doc-1", Status: "processed"}
	require.NoError(t, s.Record(ctx, "fp-1", receipt))

	got, ok := s.Lookup(ctx, "fp-1")
	require.True(t, ok)
	assert.Equal(t, receipt, got)
}
