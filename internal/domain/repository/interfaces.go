package repository

import (
	"context"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
)

// Document is the raw upload handed to the extraction provider.
type Document struct {
	DocID    string
	Ticker   string
	Period   string
	DocType  models.DocType
	Filename string
	Content  []byte
}

// ExtractedField is one structured value returned by the provider.
type ExtractedField struct {
	Metric     string
	Value      float64
	Unit       string
	Provenance models.Provenance
	Confidence float64
}

// Extractor is the external extraction provider. Possibly slow, possibly
// failing; callers must treat it as opaque and pass a cancellable context.
type Extractor interface {
	ExtractFields(ctx context.Context, doc Document) ([]ExtractedField, error)
	ExtractRules(ctx context.Context, doc Document) ([]models.ComplianceRule, error)
}

// SearchHit is one ranked result from the index service.
type SearchHit struct {
	Ticker  string  `json:"ticker"`
	Period  string  `json:"period"`
	Metric  string  `json:"metric"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Indexer is the external search/index service. Indexing is a side channel:
// failures must never abort signal generation.
type Indexer interface {
	Index(ctx context.Context, records []models.KpiRecord) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// ConsensusSource supplies analyst expectations for surprise computation.
type ConsensusSource interface {
	Consensus(ticker, period, metric string) (float64, bool)
}

// KpiStore is the key-addressable store for KPI records. The normalizer is
// its sole writer. Read-after-write consistency for single records.
type KpiStore interface {
	Upsert(ctx context.Context, records []models.KpiRecord) error
	Get(ctx context.Context, key models.KpiKey) (models.KpiRecord, bool)
	ForTickerPeriod(ctx context.Context, ticker, period string) ([]models.KpiRecord, error)
	// MetricAt returns the record for (ticker, metric) at exactly the given
	// period, regardless of source document.
	MetricAt(ctx context.Context, ticker, metric, period string) (models.KpiRecord, bool)
	Count(ctx context.Context) int
}

// SignalStore holds the current signal per (ticker, period). The signal agent
// path is its sole writer; SetCurrent supersedes any prior record.
type SignalStore interface {
	SetCurrent(ctx context.Context, sig models.SignalRecord) error
	Current(ctx context.Context, ticker, period string) (models.SignalRecord, bool)
	// Latest returns the most recently generated signal for the ticker
	// across periods.
	Latest(ctx context.Context, ticker string) (models.SignalRecord, bool)
}

// RuleStore holds compliance rules and assigns ingestion sequence numbers.
type RuleStore interface {
	Add(ctx context.Context, rule models.ComplianceRule) (models.ComplianceRule, error)
	ForTicker(ctx context.Context, ticker string) ([]models.ComplianceRule, error)
}

// DocStore registers ingested documents.
type DocStore interface {
	Add(ctx context.Context, doc models.DocumentRecord) error
	Get(ctx context.Context, docID string) (models.DocumentRecord, bool)
}

// IngestReceipt is the cached outcome of a completed ingestion, returned
// as-is on duplicate ingestion of identical content.
type IngestReceipt struct {
	DocID   string
	Status  string
	Message string
	Signal  *models.SignalRecord
}

// FingerprintStore maps content fingerprints to prior ingest receipts.
type FingerprintStore interface {
	Lookup(ctx context.Context, fingerprint string) (IngestReceipt, bool)
	Record(ctx context.Context, fingerprint string, receipt IngestReceipt) error
}

// Archive receives audit copies off the critical path. Implementations must
// tolerate being a no-op.
type Archive interface {
	ArchiveKpis(ctx context.Context, records []models.KpiRecord) error
	ArchiveSignal(ctx context.Context, sig models.SignalRecord) error
}

// EventSink mirrors dispatched events to an out-of-process consumer.
// At-most-once; publish failures are logged, never propagated.
type EventSink interface {
	Publish(ctx context.Context, ev models.NotificationEvent) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordEvent(kind, ticker string)
	RecordGateOutcome(outcome string)
	RecordDelivery(channel, result string)
	RecordDrop(reason string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
