package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	pkgch "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/clickhouse"
	applogger "github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
)

// CHArchive writes audit copies of KPI records and signals to ClickHouse.
// Off the critical path: callers log failures and move on.
type CHArchive struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHArchive(ch *pkgch.Client, l *applogger.Logger) *CHArchive {
	return &CHArchive{db: ch.DB(), l: l}
}

func (a *CHArchive) ArchiveKpis(ctx context.Context, records []models.KpiRecord) error {
	if len(records) == 0 {
		return nil
	}

	const q = `
        INSERT INTO copilot.kpi_records
        (ticker, period, metric, raw_value, unit, doc_id, page, tbl, row, col,
         extraction_confidence, yoy_change, qoq_change, consensus, surprise,
         needs_review, review_reasons, extracted_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive kpis begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive kpis prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.Ticker, r.Period, r.Metric, r.RawValue, r.Unit,
			r.Provenance.DocID, r.Provenance.Page, r.Provenance.Table, r.Provenance.Row, r.Provenance.Col,
			r.ExtractionConfidence,
			floatOrNil(r.YoYChange), floatOrNil(r.QoQChange), floatOrNil(r.Consensus), floatOrNil(r.Surprise),
			r.NeedsReview, strings.Join(r.ReviewReasons, ","), r.ExtractedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			a.l.Error("clickhouse archive kpi error",
				applogger.String("ticker", r.Ticker),
				applogger.String("metric", r.Metric),
				applogger.Error(err))
			return fmt.Errorf("archive kpi: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive kpis commit: %w", err)
	}
	return nil
}

func (a *CHArchive) ArchiveSignal(ctx context.Context, sig models.SignalRecord) error {
	const q = `
        INSERT INTO copilot.signals
        (ticker, period, action, raw_score, confidence, reasons, blocked_reason, generated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := a.db.ExecContext(ctx, q,
		sig.Ticker, sig.Period, string(sig.Action), sig.RawScore, sig.Confidence,
		strings.Join(sig.Reasons, ";"), sig.BlockedReason, sig.GeneratedAt,
	)
	if err != nil {
		a.l.Error("clickhouse archive signal error",
			applogger.String("ticker", sig.Ticker),
			applogger.String("period", sig.Period),
			applogger.Error(err))
		return fmt.Errorf("archive signal: %w", err)
	}
	return nil
}

func floatOrNil(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
