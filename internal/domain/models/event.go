package models

import "time"

// EventKind is the closed set of notification event kinds.
type EventKind string

const (
	EventDocIngested     EventKind = "NEW_DOC_INGESTED"
	EventSignalReady     EventKind = "NEW_SIGNAL_READY"
	EventComplianceAlert EventKind = "COMPLIANCE_ALERT"
	EventHeartbeat       EventKind = "HEARTBEAT"
)

// AppliesTo reports whether the event kind is deliverable over the channel.
// Heartbeats are stream control frames and never leave the stream.
func (k EventKind) AppliesTo(c Channel) bool {
	switch k {
	case EventDocIngested, EventSignalReady, EventComplianceAlert:
		return true
	case EventHeartbeat:
		return c == ChannelStream
	}
	return false
}

// NotificationEvent is an ephemeral fan-out unit. It exists only for the
// duration of dispatch and is never persisted by the dispatcher.
type NotificationEvent struct {
	Kind      EventKind   `json:"kind"`
	Ticker    string      `json:"ticker"`
	Payload   interface{} `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}

// DocIngestedPayload announces a newly ingested document.
type DocIngestedPayload struct {
	DocID      string    `json:"doc_id"`
	Ticker     string    `json:"ticker"`
	Period     string    `json:"period,omitempty"`
	DocType    DocType   `json:"doc_type"`
	ReceivedAt time.Time `json:"received_at"`
}

// SignalReadyPayload announces a gated signal.
type SignalReadyPayload struct {
	Ticker        string       `json:"ticker"`
	Period        string       `json:"period"`
	Action        Action       `json:"action"`
	Confidence    float64      `json:"confidence"`
	BlockedReason string       `json:"blocked_reason,omitempty"`
	Citations     []Provenance `json:"citations,omitempty"`
}

// ComplianceAlertPayload announces a compliance restriction.
type ComplianceAlertPayload struct {
	Ticker           string    `json:"ticker"`
	RuleID           string    `json:"rule_id"`
	Message          string    `json:"message"`
	EffectiveDate    time.Time `json:"effective_date"`
	ExposureGuidance string    `json:"exposure_guidance,omitempty"`
}

// HeartbeatPayload is the periodic stream keep-alive.
type HeartbeatPayload struct {
	At time.Time `json:"at"`
}
