package repository

import (
	"context"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
)

// NoopArchive satisfies Archive when audit archiving is disabled.
type NoopArchive struct{}

func (NoopArchive) ArchiveKpis(context.Context, []models.KpiRecord) error    { return nil }
func (NoopArchive) ArchiveSignal(context.Context, models.SignalRecord) error { return nil }

// NoopEventSink satisfies EventSink when no event mirror is configured.
type NoopEventSink struct{}

func (NoopEventSink) Publish(context.Context, models.NotificationEvent) error { return nil }
func (NoopEventSink) Close() error                                            { return nil }
