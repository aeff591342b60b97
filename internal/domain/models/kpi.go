package models

import "time"

// Provenance points back to the exact cell a value was extracted from.
type Provenance struct {
	DocID string `json:"doc_id"`
	Page  int    `json:"page"`
	Table string `json:"table"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

// KpiRecord is a single validated, enriched financial metric.
// Immutable once stored; a corrective re-ingestion with the same Key
// overwrites rather than duplicates.
type KpiRecord struct {
	Ticker               string     `json:"ticker"`
	Period               string     `json:"period"`
	Metric               string     `json:"metric"`
	RawValue             float64    `json:"raw_value"`
	Unit                 string     `json:"unit"`
	Provenance           Provenance `json:"provenance"`
	ExtractionConfidence float64    `json:"extraction_confidence"`

	// Deltas are nil when no comparable prior exists (never zero-filled).
	YoYChange *float64 `json:"yoy_change,omitempty"`
	QoQChange *float64 `json:"qoq_change,omitempty"`
	Consensus *float64 `json:"consensus,omitempty"`
	Surprise  *float64 `json:"surprise,omitempty"`

	NeedsReview   bool      `json:"needs_review"`
	ReviewReasons []string  `json:"review_reasons,omitempty"`
	ExtractedAt   time.Time `json:"extracted_at"`
}

// KpiKey is the identity of a KpiRecord.
type KpiKey struct {
	Ticker string
	Period string
	Metric string
	DocID  string
}

// Key returns the record's identity key.
func (r *KpiRecord) Key() KpiKey {
	return KpiKey{Ticker: r.Ticker, Period: r.Period, Metric: r.Metric, DocID: r.Provenance.DocID}
}

// DocumentRecord tracks an ingested document.
type DocumentRecord struct {
	DocID      string    `json:"doc_id"`
	Ticker     string    `json:"ticker"`
	Period     string    `json:"period,omitempty"`
	DocType    DocType   `json:"doc_type"`
	Uploader   string    `json:"uploader"`
	ReceivedAt time.Time `json:"received_at"`
}

// DocType classifies an uploaded document.
type DocType string

const (
	DocTypeEarnings     DocType = "earnings"
	DocTypeCompliance   DocType = "compliance"
	DocTypeFiling       DocType = "filing"
	DocTypePressRelease DocType = "press_release"
)

// Valid reports whether the doc type is one of the closed set.
func (d DocType) Valid() bool {
	switch d {
	case DocTypeEarnings, DocTypeCompliance, DocTypeFiling, DocTypePressRelease:
		return true
	}
	return false
}
