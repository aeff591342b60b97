package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
)

func ptr(v float64) *float64 { return &v }

func surpriseRecord(metric string, surprise, conf float64) models.KpiRecord {
	return models.KpiRecord{
		Ticker:               "AAPL",
		Period:               "2025-Q3",
		Metric:               metric,
		Surprise:             ptr(surprise),
		ExtractionConfidence: conf,
		Provenance:           models.Provenance{DocID: "doc-1", Page: 1, Table: metric},
	}
}

func deltaRecord(metric string, yoy, conf float64) models.KpiRecord {
	return models.KpiRecord{
		Ticker:               "AAPL",
		Period:               "2025-Q3",
		Metric:               metric,
		YoYChange:            ptr(yoy),
		ExtractionConfidence: conf,
		Provenance:           models.Provenance{DocID: "doc-1", Page: 2, Table: metric},
	}
}

func TestScoreBuySignalFromStrongBeats(t *testing.T) {
	agent := NewAgent()
	records := []models.KpiRecord{
		surpriseRecord("eps", 0.0714, 0.95),    // 1.50 vs 1.40 consensus
		surpriseRecord("revenue", 0.03, 0.95),  // 3% beat
		deltaRecord("gross_margin", 0.0, 0.95), // flat
	}

	sig, err := agent.Score(records, 0)
	require.NoError(t, err)

	assert.Equal(t, models.ActionBuy, sig.Action)
	assert.Greater(t, sig.RawScore, 0.30)
	assert.GreaterOrEqual(t, sig.Confidence, 0.70)
	assert.Empty(t, sig.BlockedReason)
	assert.Len(t, sig.Reasons, 3)
	assert.NotEmpty(t, sig.Citations)
}

func TestScoreDeterministic(t *testing.T) {
	agent := NewAgent()
	records := []models.KpiRecord{
		surpriseRecord("eps", 0.02, 0.9),
		surpriseRecord("revenue", -0.01, 0.85),
		deltaRecord("inventory", 0.05, 0.8),
	}

	a, err := agent.Score(records, 0.1)
	require.NoError(t, err)
	b, err := agent.Score(records, 0.1)
	require.NoError(t, err)

	assert.Equal(t, a.RawScore, b.RawScore)
	assert.Equal(t, a.Confidence, b.Confidence)
	assert.Equal(t, a.Reasons, b.Reasons)
	assert.Equal(t, a.Citations, b.Citations)
}

func TestActionBoundariesInclusive(t *testing.T) {
	cases := []struct {
		score float64
		want  models.Action
	}{
		{0.30, models.ActionBuy},
		{-0.30, models.ActionSell},
		{0.29999, models.ActionHold},
		{-0.29999, models.ActionHold},
		{0, models.ActionHold},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ActionFor(tc.score), "score %v", tc.score)
	}
}

func TestWeightRedistribution(t *testing.T) {
	agent := NewAgent()
	two := []models.KpiRecord{
		surpriseRecord("eps", 0.05, 0.95),     // norm 1.0
		surpriseRecord("revenue", 0.03, 0.95), // norm 1.0
	}
	sig, err := agent.Score(two, 0)
	require.NoError(t, err)
	// 0.40/0.70 + 0.30/0.70 = 1.0 with both factors saturated.
	assert.InDelta(t, 1.0, sig.RawScore, 1e-9)

	four := append(two,
		deltaRecord("gross_margin", 0.02, 0.95), // norm 1.0
		deltaRecord("inventory", 0.10, 0.95),    // norm 1.0
	)
	full, err := agent.Score(four, 0)
	require.NoError(t, err)

	assert.Less(t, sig.Confidence, full.Confidence,
		"missing factors must strictly reduce confidence")
}

func TestAbsentFactorIsNotZero(t *testing.T) {
	agent := NewAgent()
	// Revenue only, saturated positive. If absent factors were treated as
	// zeros the score would be 0.30*1.0; with redistribution it is 1.0.
	sig, err := agent.Score([]models.KpiRecord{surpriseRecord("revenue", 0.10, 0.9)}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sig.RawScore, 1e-9)
}

func TestScoreClipsExtremeFactors(t *testing.T) {
	agent := NewAgent()
	sig, err := agent.Score([]models.KpiRecord{
		surpriseRecord("eps", 5.0, 0.95), // far beyond scale, clips to 1.0
	}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sig.RawScore, 1e-9)
}

func TestScoreSellSignal(t *testing.T) {
	agent := NewAgent()
	sig, err := agent.Score([]models.KpiRecord{
		surpriseRecord("eps", -0.06, 0.9),
		surpriseRecord("revenue", -0.04, 0.9),
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ActionSell, sig.Action)
	assert.LessOrEqual(t, sig.RawScore, -0.30)
}

func TestScoreNoUsableFactors(t *testing.T) {
	agent := NewAgent()
	// Records without surprises or deltas produce no factors.
	_, err := agent.Score([]models.KpiRecord{
		{Ticker: "AAPL", Period: "2025-Q3", Metric: "revenue", RawValue: 100e9},
	}, 0)
	assert.ErrorIs(t, err, models.ErrNoValidFields)

	_, err = agent.Score(nil, 0)
	assert.ErrorIs(t, err, models.ErrNoValidFields)
}

func TestReasonsOrderedByNominalWeight(t *testing.T) {
	agent := NewAgent()
	sig, err := agent.Score([]models.KpiRecord{
		deltaRecord("inventory", 0.05, 0.9),
		deltaRecord("gross_margin", 0.01, 0.9),
		surpriseRecord("revenue", 0.01, 0.9),
		surpriseRecord("eps", 0.01, 0.9),
	}, 0)
	require.NoError(t, err)

	require.Len(t, sig.Reasons, 4)
	assert.Contains(t, sig.Reasons[0], "EPS")
	assert.Contains(t, sig.Reasons[1], "REVENUE")
	assert.Contains(t, sig.Reasons[2], "Gross margin")
	assert.Contains(t, sig.Reasons[3], "Inventory")
}

func TestReasonsUseBeatMissRegister(t *testing.T) {
	agent := NewAgent()
	sig, err := agent.Score([]models.KpiRecord{
		surpriseRecord("eps", 0.0714, 0.95), // 1.50 vs 1.40 consensus
		surpriseRecord("revenue", -0.02, 0.9),
		deltaRecord("gross_margin", -0.03, 0.9),
	}, 0)
	require.NoError(t, err)

	require.Len(t, sig.Reasons, 3)
	assert.Equal(t, "EPS strong beat vs consensus (+7.1%)", sig.Reasons[0])
	assert.Equal(t, "REVENUE miss vs consensus (-2.0%)", sig.Reasons[1])
	assert.Equal(t, "Gross margin declined by -3.0%", sig.Reasons[2])
}

func TestReasonsInLineAndStable(t *testing.T) {
	agent := NewAgent()
	sig, err := agent.Score([]models.KpiRecord{
		surpriseRecord("eps", 0.005, 0.9),
		deltaRecord("net_margin", 0.001, 0.9),
	}, 0)
	require.NoError(t, err)

	require.Len(t, sig.Reasons, 2)
	assert.Equal(t, "EPS in line with consensus", sig.Reasons[0])
	assert.Equal(t, "Net margin stable", sig.Reasons[1])
}

func TestReasonsAndCitationsCapped(t *testing.T) {
	agent := NewAgent()
	records := []models.KpiRecord{
		surpriseRecord("eps", 0.06, 0.9),
		surpriseRecord("revenue", 0.04, 0.9),
		deltaRecord("gross_margin", 0.03, 0.9),
		deltaRecord("operating_margin", 0.03, 0.9),
		deltaRecord("inventory", 0.05, 0.9),
		deltaRecord("headcount", 0.05, 0.9),
		deltaRecord("capex", 0.05, 0.9),
	}
	sig, err := agent.Score(records, 0)
	require.NoError(t, err)

	assert.Len(t, sig.Reasons, 5)
	require.Len(t, sig.Citations, 3)
	// Top contributors keep their slots: eps, then revenue, then margins.
	assert.Equal(t, "eps", sig.Citations[0].Table)
	assert.Equal(t, "revenue", sig.Citations[1].Table)
	assert.Equal(t, "gross_margin", sig.Citations[2].Table)
}

func TestDataQualityLowersConfidence(t *testing.T) {
	agent := NewAgent()
	records := []models.KpiRecord{surpriseRecord("eps", 0.05, 0.95)}

	clean, err := agent.Score(records, 0)
	require.NoError(t, err)
	dirty, err := agent.Score(records, 0.5)
	require.NoError(t, err)

	assert.Less(t, dirty.Confidence, clean.Confidence)
}
