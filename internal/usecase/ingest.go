package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	drepo "github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/repository"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/gate"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/normalizer"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/signal"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/util"
)

// Ingest receipt statuses.
const (
	StatusProcessed = "processed"
	StatusDuplicate = "duplicate"
)

// Publisher is the dispatcher surface the pipeline needs: fire-and-forget
// event routing.
type Publisher interface {
	Dispatch(ctx context.Context, ev models.NotificationEvent)
}

// IngestInput is one document upload.
type IngestInput struct {
	Ticker   string
	Period   string
	DocType  models.DocType
	Filename string
	Uploader string
	Content  []byte

	// EffectiveDate is the fallback effective date for compliance rules
	// that carry none. Zero means effective immediately.
	EffectiveDate time.Time
}

// Pipeline runs the ingestion-to-signal flow: extract, normalize, score,
// gate, commit, fan out. One invocation runs to completion within the
// caller's context; only dispatch is asynchronous.
type Pipeline struct {
	docs       drepo.DocStore
	kpis       drepo.KpiStore
	signals    drepo.SignalStore
	rules      drepo.RuleStore
	prints     drepo.FingerprintStore
	extractor  drepo.Extractor
	indexer    drepo.Indexer
	archive    drepo.Archive
	normalizer *normalizer.Normalizer
	agent      *signal.Agent
	gate       *gate.Gate
	dispatcher Publisher
	metrics    drepo.Metrics
	logger     *logger.Logger
	locks      *KeyLock
	now        func() time.Time
}

// PipelineDeps bundles the pipeline's collaborators.
type PipelineDeps struct {
	Docs       drepo.DocStore
	Kpis       drepo.KpiStore
	Signals    drepo.SignalStore
	Rules      drepo.RuleStore
	Prints     drepo.FingerprintStore
	Extractor  drepo.Extractor
	Indexer    drepo.Indexer
	Archive    drepo.Archive
	Normalizer *normalizer.Normalizer
	Agent      *signal.Agent
	Gate       *gate.Gate
	Dispatcher Publisher
	Metrics    drepo.Metrics
	Logger     *logger.Logger
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		docs:       deps.Docs,
		kpis:       deps.Kpis,
		signals:    deps.Signals,
		rules:      deps.Rules,
		prints:     deps.Prints,
		extractor:  deps.Extractor,
		indexer:    deps.Indexer,
		archive:    deps.Archive,
		normalizer: deps.Normalizer,
		agent:      deps.Agent,
		gate:       deps.Gate,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		locks:      NewKeyLock(),
		now:        time.Now,
	}
}

// Ingest runs one document through the pipeline. Idempotent under an
// identical content fingerprint: the prior receipt is returned unchanged.
func (p *Pipeline) Ingest(ctx context.Context, in IngestInput) (drepo.IngestReceipt, error) {
	start := p.now()
	defer func() {
		p.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	}()

	in.Ticker = util.NormalizeTicker(in.Ticker)
	if !util.ValidTicker(in.Ticker) {
		return drepo.IngestReceipt{}, fmt.Errorf("%w: ticker %q", models.ErrInvalidInput, in.Ticker)
	}
	if !in.DocType.Valid() {
		return drepo.IngestReceipt{}, fmt.Errorf("%w: doc_type %q", models.ErrInvalidInput, in.DocType)
	}
	in.Period = util.NormalizePeriod(in.Period)

	doc := drepo.Document{
		DocID:    uuid.NewString(),
		Ticker:   in.Ticker,
		Period:   in.Period,
		DocType:  in.DocType,
		Filename: in.Filename,
		Content:  in.Content,
	}

	if in.DocType == models.DocTypeCompliance {
		return p.ingestCompliance(ctx, doc, in.Uploader, in.EffectiveDate)
	}
	return p.ingestEarnings(ctx, doc, in.Uploader)
}

// ingestEarnings is the normalize-score-gate path for earnings-bearing
// documents.
func (p *Pipeline) ingestEarnings(ctx context.Context, doc drepo.Document, uploader string) (drepo.IngestReceipt, error) {
	fields, err := p.extractor.ExtractFields(ctx, doc)
	if err != nil {
		p.metrics.RecordError("extraction")
		return drepo.IngestReceipt{}, err
	}

	// Delta and fingerprint computation read-then-write shared state:
	// serialize per (ticker, period).
	unlock := p.locks.Lock(doc.Ticker + "|" + doc.Period)
	defer unlock()

	fingerprint := normalizer.Fingerprint(doc.Ticker, doc.Period, doc.DocType, fields)
	if prior, ok := p.prints.Lookup(ctx, fingerprint); ok {
		p.logger.Info("duplicate ingestion",
			logger.String("ticker", doc.Ticker),
			logger.String("period", doc.Period),
			logger.String("prior_doc", prior.DocID))
		prior.Status = StatusDuplicate
		return prior, nil
	}

	res, err := p.normalizer.Normalize(ctx, doc, fields)
	if err != nil {
		return drepo.IngestReceipt{}, err
	}

	rawSig, err := p.agent.Score(res.Records, res.DataQuality)
	if err != nil {
		return drepo.IngestReceipt{}, err
	}

	out, err := p.gate.Evaluate(ctx, rawSig, res.DataQuality)
	if err != nil {
		return drepo.IngestReceipt{}, err
	}

	// All-or-nothing: a cancelled ingestion leaves no partial state.
	if err := ctx.Err(); err != nil {
		return drepo.IngestReceipt{}, err
	}

	record := models.DocumentRecord{
		DocID:      doc.DocID,
		Ticker:     doc.Ticker,
		Period:     doc.Period,
		DocType:    doc.DocType,
		Uploader:   uploader,
		ReceivedAt: p.now(),
	}
	if err := p.docs.Add(ctx, record); err != nil {
		return drepo.IngestReceipt{}, fmt.Errorf("register document: %w", err)
	}
	if err := p.kpis.Upsert(ctx, res.Records); err != nil {
		return drepo.IngestReceipt{}, fmt.Errorf("store kpi records: %w", err)
	}
	if err := p.signals.SetCurrent(ctx, out.Signal); err != nil {
		return drepo.IngestReceipt{}, fmt.Errorf("store signal: %w", err)
	}

	receipt := drepo.IngestReceipt{
		DocID:   doc.DocID,
		Status:  StatusProcessed,
		Message: fmt.Sprintf("%d fields normalized", len(res.Records)),
		Signal:  &out.Signal,
	}
	if err := p.prints.Record(ctx, fingerprint, receipt); err != nil {
		return drepo.IngestReceipt{}, fmt.Errorf("record fingerprint: %w", err)
	}

	p.sideChannels(ctx, res.Records, out.Signal)
	p.emitEvents(ctx, record, &out)

	return receipt, nil
}

// ingestCompliance extracts rules and re-gates the ticker's latest signal
// under the new rule set.
func (p *Pipeline) ingestCompliance(ctx context.Context, doc drepo.Document, uploader string, effective time.Time) (drepo.IngestReceipt, error) {
	rules, err := p.extractor.ExtractRules(ctx, doc)
	if err != nil {
		p.metrics.RecordError("extraction")
		return drepo.IngestReceipt{}, err
	}
	if len(rules) == 0 {
		return drepo.IngestReceipt{}, &models.ExtractionError{
			DocID: doc.DocID,
			Err:   fmt.Errorf("no compliance rules found"),
		}
	}

	if err := ctx.Err(); err != nil {
		return drepo.IngestReceipt{}, err
	}

	for i := range rules {
		if rules[i].RuleID == "" {
			rules[i].RuleID = uuid.NewString()
		}
		if rules[i].Ticker == "" {
			rules[i].Ticker = doc.Ticker
		}
		if rules[i].EffectiveDate.IsZero() {
			if !effective.IsZero() {
				rules[i].EffectiveDate = effective
			} else {
				rules[i].EffectiveDate = p.now()
			}
		}
		if _, err := p.rules.Add(ctx, rules[i]); err != nil {
			return drepo.IngestReceipt{}, fmt.Errorf("store compliance rule: %w", err)
		}
	}

	record := models.DocumentRecord{
		DocID:      doc.DocID,
		Ticker:     doc.Ticker,
		DocType:    doc.DocType,
		Uploader:   uploader,
		ReceivedAt: p.now(),
	}
	if err := p.docs.Add(ctx, record); err != nil {
		return drepo.IngestReceipt{}, fmt.Errorf("register document: %w", err)
	}

	p.dispatcher.Dispatch(ctx, models.NotificationEvent{
		Kind:   models.EventDocIngested,
		Ticker: doc.Ticker,
		Payload: models.DocIngestedPayload{
			DocID:      doc.DocID,
			Ticker:     doc.Ticker,
			DocType:    doc.DocType,
			ReceivedAt: record.ReceivedAt,
		},
	})

	receipt := drepo.IngestReceipt{
		DocID:   doc.DocID,
		Status:  StatusProcessed,
		Message: fmt.Sprintf("%d compliance rules ingested", len(rules)),
	}

	// Re-gate the latest signal so a newly restricted ticker downgrades
	// immediately instead of waiting for the next earnings document.
	latest, ok := p.signals.Latest(ctx, doc.Ticker)
	if !ok {
		return receipt, nil
	}
	unlock := p.locks.Lock(latest.Ticker + "|" + latest.Period)
	defer unlock()

	// A data-quality block belongs to the source document and survives
	// re-gating; confidence and compliance blocks are re-derived.
	dataQuality := 0.0
	if latest.BlockedReason == models.BlockDataQuality {
		dataQuality = 1.0
	}
	latest.Action = ungated(latest)
	latest.BlockedReason = ""
	out, err := p.gate.Evaluate(ctx, latest, dataQuality)
	if err != nil {
		return drepo.IngestReceipt{}, err
	}
	out.Signal.GeneratedAt = p.now()
	if err := p.signals.SetCurrent(ctx, out.Signal); err != nil {
		return drepo.IngestReceipt{}, fmt.Errorf("store regated signal: %w", err)
	}
	receipt.Signal = &out.Signal

	p.emitSignalEvents(ctx, &out)
	return receipt, nil
}

// ungated recovers the agent's action from a possibly blocked record so the
// gate can re-derive the downgrade from current rules.
func ungated(sig models.SignalRecord) models.Action {
	if !sig.Blocked() {
		return sig.Action
	}
	return signal.ActionFor(sig.RawScore)
}

// sideChannels pushes to the index and archive. Failures here never abort
// the pipeline.
func (p *Pipeline) sideChannels(ctx context.Context, records []models.KpiRecord, sig models.SignalRecord) {
	if p.indexer != nil {
		if err := p.indexer.Index(ctx, records); err != nil {
			p.logger.Warn("index push failed", logger.Error(err))
			p.metrics.RecordError("index")
		}
	}
	if p.archive != nil {
		if err := p.archive.ArchiveKpis(ctx, records); err != nil {
			p.logger.Warn("kpi archive failed", logger.Error(err))
			p.metrics.RecordError("archive")
		}
		if err := p.archive.ArchiveSignal(ctx, sig); err != nil {
			p.logger.Warn("signal archive failed", logger.Error(err))
			p.metrics.RecordError("archive")
		}
	}
}

func (p *Pipeline) emitEvents(ctx context.Context, doc models.DocumentRecord, out *gate.Outcome) {
	p.dispatcher.Dispatch(ctx, models.NotificationEvent{
		Kind:   models.EventDocIngested,
		Ticker: doc.Ticker,
		Payload: models.DocIngestedPayload{
			DocID:      doc.DocID,
			Ticker:     doc.Ticker,
			Period:     doc.Period,
			DocType:    doc.DocType,
			ReceivedAt: doc.ReceivedAt,
		},
	})
	p.emitSignalEvents(ctx, out)
}

// emitSignalEvents sends exactly one NEW_SIGNAL_READY per gate pass, plus
// one COMPLIANCE_ALERT when compliance-blocked.
func (p *Pipeline) emitSignalEvents(ctx context.Context, out *gate.Outcome) {
	sig := out.Signal
	p.dispatcher.Dispatch(ctx, models.NotificationEvent{
		Kind:   models.EventSignalReady,
		Ticker: sig.Ticker,
		Payload: models.SignalReadyPayload{
			Ticker:        sig.Ticker,
			Period:        sig.Period,
			Action:        sig.Action,
			Confidence:    sig.Confidence,
			BlockedReason: sig.BlockedReason,
			Citations:     sig.Citations,
		},
	})
	if out.Alert != nil {
		p.dispatcher.Dispatch(ctx, models.NotificationEvent{
			Kind:    models.EventComplianceAlert,
			Ticker:  sig.Ticker,
			Payload: *out.Alert,
		})
	}
}

// GetSignal returns the current signal for (ticker, period), or the
// latest across periods when period is empty.
func (p *Pipeline) GetSignal(ctx context.Context, ticker, period string) (models.SignalRecord, error) {
	ticker = util.NormalizeTicker(ticker)
	if period == "" {
		sig, ok := p.signals.Latest(ctx, ticker)
		if !ok {
			return models.SignalRecord{}, models.ErrSignalNotFound
		}
		return sig, nil
	}
	sig, ok := p.signals.Current(ctx, ticker, util.NormalizePeriod(period))
	if !ok {
		return models.SignalRecord{}, models.ErrSignalNotFound
	}
	return sig, nil
}
