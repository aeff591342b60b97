package models

import "time"

// Action is the directional recommendation of a signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Block reasons attached by the gate. Gating outcomes are data, not errors.
const (
	BlockConfidence  = "confidence_below_threshold"
	BlockDataQuality = "data_quality_below_threshold"
	BlockCompliance  = "compliance_restricted"
)

// SignalRecord is a gated trading recommendation for one (ticker, period).
// At most one current record exists per key; generating a new one supersedes
// the prior, which is retained for audit only.
type SignalRecord struct {
	Ticker        string       `json:"ticker"`
	Period        string       `json:"period"`
	Action        Action       `json:"action"`
	RawScore      float64      `json:"raw_score"`
	Confidence    float64      `json:"confidence"`
	Reasons       []string     `json:"reasons"`
	Citations     []Provenance `json:"citations"`
	BlockedReason string       `json:"blocked_reason,omitempty"`
	GeneratedAt   time.Time    `json:"generated_at"`
}

// Blocked reports whether the gate downgraded this signal.
func (s *SignalRecord) Blocked() bool { return s.BlockedReason != "" }
