package signal

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
)

// Factor names, in nominal weight order.
const (
	FactorEPS     = "eps_surprise"
	FactorRevenue = "revenue_surprise"
	FactorMargin  = "margin_change"
	FactorOther   = "other_deltas"
)

// Nominal factor weights. Absent factors have their weight redistributed
// proportionally over the present ones.
var nominalWeights = map[string]float64{
	FactorEPS:     0.40,
	FactorRevenue: 0.30,
	FactorMargin:  0.20,
	FactorOther:   0.10,
}

var factorOrder = []string{FactorEPS, FactorRevenue, FactorMargin, FactorOther}

// Normalization scales: a surprise or delta at the scale is a full-strength
// signal; larger values clip to +/-1.
const (
	epsScale    = 0.05
	revScale    = 0.03
	marginScale = 0.02
	otherScale  = 0.10
)

// Action thresholds, boundaries inclusive.
const (
	buyThreshold  = 0.30
	sellThreshold = -0.30
)

// Beat/miss tiers for reason phrasing, per surprise metric.
var surpriseTiers = map[string]struct {
	strongBeat, beat, miss, strongMiss float64
}{
	"eps":     {0.05, 0.02, -0.02, -0.05},
	"revenue": {0.03, 0.01, -0.01, -0.03},
}

// Delta tiers for margin and other metrics.
const (
	deltaImprovement   = 0.02
	deltaDeterioration = -0.02
)

// Caps on the reason and citation lists: top contributors only.
const (
	maxReasons   = 5
	maxCitations = 3
)

// Confidence sub-weights: factor-sign agreement, extraction-confidence
// average, data quality (inverted review ratio), factor completeness.
const (
	wAgreement    = 0.35
	wExtraction   = 0.30
	wDataQuality  = 0.20
	wCompleteness = 0.15
)

type factor struct {
	name    string
	value   float64 // normalized to [-1, 1]
	weight  float64 // redistributed weight
	sources []models.KpiRecord
}

// Agent converts the KPI records of one (ticker, period) into a scored
// directional signal. Pure: identical inputs produce identical output
// apart from the generation timestamp.
type Agent struct {
	now func() time.Time
}

func NewAgent() *Agent {
	return &Agent{now: time.Now}
}

// Score computes the raw weighted score, action and confidence for the
// given records. dataQuality is the document's needs-review ratio.
func (a *Agent) Score(records []models.KpiRecord, dataQuality float64) (models.SignalRecord, error) {
	if len(records) == 0 {
		return models.SignalRecord{}, models.ErrNoValidFields
	}

	factors := extractFactors(records)
	if len(factors) == 0 {
		return models.SignalRecord{}, models.ErrNoValidFields
	}
	redistributeWeights(factors)

	var rawScore float64
	for _, f := range factors {
		rawScore += f.weight * f.value
	}
	rawScore = clamp(rawScore, -1, 1)

	action := ActionFor(rawScore)

	sig := models.SignalRecord{
		Ticker:      records[0].Ticker,
		Period:      records[0].Period,
		Action:      action,
		RawScore:    rawScore,
		Confidence:  confidence(factors, action, rawScore, dataQuality),
		Reasons:     reasons(factors),
		Citations:   citations(factors),
		GeneratedAt: a.now(),
	}
	return sig, nil
}

// ActionFor applies the threshold rule, boundaries inclusive.
func ActionFor(rawScore float64) models.Action {
	switch {
	case rawScore >= buyThreshold:
		return models.ActionBuy
	case rawScore <= sellThreshold:
		return models.ActionSell
	default:
		return models.ActionHold
	}
}

// extractFactors maps records to the four factor inputs. A factor with no
// underlying data is absent, not zero.
func extractFactors(records []models.KpiRecord) []*factor {
	var eps, rev, margin *factor
	var otherSum float64
	var otherSources []models.KpiRecord
	otherCount := 0

	for i := range records {
		rec := records[i]
		switch {
		case rec.Metric == "eps" && rec.Surprise != nil:
			eps = &factor{
				name:    FactorEPS,
				value:   clamp(*rec.Surprise/epsScale, -1, 1),
				sources: []models.KpiRecord{rec},
			}
		case rec.Metric == "revenue" && rec.Surprise != nil:
			rev = &factor{
				name:    FactorRevenue,
				value:   clamp(*rec.Surprise/revScale, -1, 1),
				sources: []models.KpiRecord{rec},
			}
		case isMargin(rec.Metric):
			if d, ok := delta(rec); ok {
				if margin == nil {
					margin = &factor{name: FactorMargin}
				}
				margin.value += clamp(d/marginScale, -1, 1)
				margin.sources = append(margin.sources, rec)
			}
		default:
			if d, ok := delta(rec); ok {
				otherSum += clamp(d/otherScale, -1, 1)
				otherSources = append(otherSources, rec)
				otherCount++
			}
		}
	}
	if margin != nil && len(margin.sources) > 1 {
		margin.value = clamp(margin.value/float64(len(margin.sources)), -1, 1)
	}

	byName := map[string]*factor{}
	if eps != nil {
		byName[FactorEPS] = eps
	}
	if rev != nil {
		byName[FactorRevenue] = rev
	}
	if margin != nil {
		byName[FactorMargin] = margin
	}
	if otherCount > 0 {
		byName[FactorOther] = &factor{
			name:    FactorOther,
			value:   clamp(otherSum/float64(otherCount), -1, 1),
			sources: otherSources,
		}
	}

	out := make([]*factor, 0, len(byName))
	for _, name := range factorOrder {
		if f, ok := byName[name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// delta prefers the year-over-year change, falling back to
// quarter-over-quarter.
func delta(rec models.KpiRecord) (float64, bool) {
	if rec.YoYChange != nil {
		return *rec.YoYChange, true
	}
	if rec.QoQChange != nil {
		return *rec.QoQChange, true
	}
	return 0, false
}

func isMargin(metric string) bool {
	return metric == "margin" || len(metric) > 7 && metric[len(metric)-7:] == "_margin"
}

func redistributeWeights(factors []*factor) {
	var presentNominal float64
	for _, f := range factors {
		presentNominal += nominalWeights[f.name]
	}
	for _, f := range factors {
		f.weight = nominalWeights[f.name] / presentNominal
	}
}

// confidence is a weighted average of factor-sign agreement, extraction
// confidence, data quality and completeness, each clamped to [0,1].
func confidence(factors []*factor, action models.Action, rawScore, dataQuality float64) float64 {
	actionSign := 0.0
	switch action {
	case models.ActionBuy:
		actionSign = 1
	case models.ActionSell:
		actionSign = -1
	default:
		if rawScore > 0 {
			actionSign = 1
		} else if rawScore < 0 {
			actionSign = -1
		}
	}

	agree := 0
	var extractionSum float64
	fieldCount := 0
	var missingWeight float64 = 1.0
	for _, f := range factors {
		if f.value == 0 || actionSign == 0 || math.Signbit(f.value) == math.Signbit(actionSign) {
			agree++
		}
		for _, src := range f.sources {
			extractionSum += src.ExtractionConfidence
			fieldCount++
		}
		missingWeight -= nominalWeights[f.name]
	}

	agreement := float64(agree) / float64(len(factors))
	extractionAvg := 0.0
	if fieldCount > 0 {
		extractionAvg = extractionSum / float64(fieldCount)
	}

	c := wAgreement*clamp(agreement, 0, 1) +
		wExtraction*clamp(extractionAvg, 0, 1) +
		wDataQuality*clamp(1-dataQuality, 0, 1) +
		wCompleteness*clamp(1-missingWeight, 0, 1)
	return clamp(c, 0, 1)
}

// reasons renders one human-readable line per contributing record,
// strongest nominal weight first, capped at maxReasons.
func reasons(factors []*factor) []string {
	var out []string
	for _, f := range factors {
		for _, src := range f.sources {
			out = append(out, reasonFor(f.name, src))
			if len(out) == maxReasons {
				return out
			}
		}
	}
	return out
}

func reasonFor(name string, rec models.KpiRecord) string {
	switch name {
	case FactorEPS, FactorRevenue:
		label := strings.ToUpper(rec.Metric)
		if rec.Surprise == nil {
			return label + " data incomplete"
		}
		s := *rec.Surprise
		tiers := surpriseTiers[rec.Metric]
		switch {
		case s >= tiers.strongBeat:
			return fmt.Sprintf("%s strong beat vs consensus (%+.1f%%)", label, s*100)
		case s >= tiers.beat:
			return fmt.Sprintf("%s beat vs consensus (%+.1f%%)", label, s*100)
		case s <= tiers.strongMiss:
			return fmt.Sprintf("%s strong miss vs consensus (%+.1f%%)", label, s*100)
		case s <= tiers.miss:
			return fmt.Sprintf("%s miss vs consensus (%+.1f%%)", label, s*100)
		default:
			return label + " in line with consensus"
		}
	default:
		label := metricLabel(rec.Metric)
		d, ok := delta(rec)
		if !ok {
			return label + " delta not available"
		}
		switch {
		case d >= deltaImprovement:
			return fmt.Sprintf("%s improved by %+.1f%%", label, d*100)
		case d <= deltaDeterioration:
			return fmt.Sprintf("%s declined by %+.1f%%", label, d*100)
		default:
			return label + " stable"
		}
	}
}

// metricLabel renders a metric key for humans: "gross_margin" -> "Gross margin".
func metricLabel(metric string) string {
	label := strings.ReplaceAll(metric, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// citations collects provenance from the records behind present factors in
// contribution order, deduplicated, capped at the top maxCitations.
func citations(factors []*factor) []models.Provenance {
	seen := map[models.Provenance]struct{}{}
	var out []models.Provenance
	for _, f := range factors {
		for _, src := range f.sources {
			if _, dup := seen[src.Provenance]; dup {
				continue
			}
			seen[src.Provenance] = struct{}{}
			out = append(out, src.Provenance)
			if len(out) == maxCitations {
				return out
			}
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
