package repository

import (
	"context"
	"sync"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	drepo "github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
)

// MemoryKpiStore is the in-process KPI store. Upserts by identity key, so a
// corrective re-ingestion overwrites rather than duplicates.
type MemoryKpiStore struct {
	mu      sync.RWMutex
	records map[models.KpiKey]models.KpiRecord
}

func NewMemoryKpiStore() *MemoryKpiStore {
	return &MemoryKpiStore{records: make(map[models.KpiKey]models.KpiRecord)}
}

func (s *MemoryKpiStore) Upsert(_ context.Context, records []models.KpiRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.Key()] = r
	}
	return nil
}

func (s *MemoryKpiStore) Get(_ context.Context, key models.KpiKey) (models.KpiRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[key]
	return r, ok
}

func (s *MemoryKpiStore) ForTickerPeriod(_ context.Context, ticker, period string) ([]models.KpiRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.KpiRecord
	for _, r := range s.records {
		if r.Ticker == ticker && r.Period == period {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryKpiStore) MetricAt(_ context.Context, ticker, metric, period string) (models.KpiRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best models.KpiRecord
	found := false
	for _, r := range s.records {
		if r.Ticker != ticker || r.Metric != metric || r.Period != period {
			continue
		}
		if !found || r.ExtractedAt.After(best.ExtractedAt) {
			best, found = r, true
		}
	}
	return best, found
}

func (s *MemoryKpiStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// MemorySignalStore keeps the current signal per (ticker, period) plus an
// audit trail of superseded records.
type MemorySignalStore struct {
	mu       sync.RWMutex
	current  map[string]models.SignalRecord
	history  map[string][]models.SignalRecord
	byTicker map[string]models.SignalRecord
}

func NewMemorySignalStore() *MemorySignalStore {
	return &MemorySignalStore{
		current:  make(map[string]models.SignalRecord),
		history:  make(map[string][]models.SignalRecord),
		byTicker: make(map[string]models.SignalRecord),
	}
}

func signalKey(ticker, period string) string { return ticker + "|" + period }

func (s *MemorySignalStore) SetCurrent(_ context.Context, sig models.SignalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := signalKey(sig.Ticker, sig.Period)
	if prior, ok := s.current[key]; ok {
		s.history[key] = append(s.history[key], prior)
	}
	s.current[key] = sig

	latest, ok := s.byTicker[sig.Ticker]
	if !ok || !sig.GeneratedAt.Before(latest.GeneratedAt) {
		s.byTicker[sig.Ticker] = sig
	}
	return nil
}

func (s *MemorySignalStore) Current(_ context.Context, ticker, period string) (models.SignalRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.current[signalKey(ticker, period)]
	return sig, ok
}

func (s *MemorySignalStore) Latest(_ context.Context, ticker string) (models.SignalRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.byTicker[ticker]
	return sig, ok
}

// History returns superseded signals for a key, oldest first.
func (s *MemorySignalStore) History(ticker, period string) []models.SignalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.history[signalKey(ticker, period)]
	out := make([]models.SignalRecord, len(h))
	copy(out, h)
	return out
}

// MemoryRuleStore holds compliance rules and assigns monotonically
// increasing ingestion sequence numbers for tie-breaking.
type MemoryRuleStore struct {
	mu    sync.RWMutex
	rules map[string][]models.ComplianceRule
	seq   uint64
}

func NewMemoryRuleStore() *MemoryRuleStore {
	return &MemoryRuleStore{rules: make(map[string][]models.ComplianceRule)}
}

func (s *MemoryRuleStore) Add(_ context.Context, rule models.ComplianceRule) (models.ComplianceRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	rule.Seq = s.seq
	s.rules[rule.Ticker] = append(s.rules[rule.Ticker], rule)
	return rule, nil
}

func (s *MemoryRuleStore) ForTicker(_ context.Context, ticker string) ([]models.ComplianceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.rules[ticker]
	out := make([]models.ComplianceRule, len(src))
	copy(out, src)
	return out, nil
}

// MemoryDocStore registers ingested documents.
type MemoryDocStore struct {
	mu   sync.RWMutex
	docs map[string]models.DocumentRecord
}

func NewMemoryDocStore() *MemoryDocStore {
	return &MemoryDocStore{docs: make(map[string]models.DocumentRecord)}
}

func (s *MemoryDocStore) Add(_ context.Context, doc models.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.DocID] = doc
	return nil
}

func (s *MemoryDocStore) Get(_ context.Context, docID string) (models.DocumentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	return doc, ok
}

// MemoryFingerprintStore caches ingest receipts by content fingerprint.
type MemoryFingerprintStore struct {
	mu       sync.RWMutex
	receipts map[string]drepo.IngestReceipt
}

func NewMemoryFingerprintStore() *MemoryFingerprintStore {
	return &MemoryFingerprintStore{receipts: make(map[string]drepo.IngestReceipt)}
}

func (s *MemoryFingerprintStore) Lookup(_ context.Context, fingerprint string) (drepo.IngestReceipt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[fingerprint]
	return r, ok
}

func (s *MemoryFingerprintStore) Record(_ context.Context, fingerprint string, receipt drepo.IngestReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[fingerprint] = receipt
	return nil
}
