// Package worker consumes ledger mutation events and maintains the audit
// journal and session table in the background.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/storage"
)

// AuditWorker appends consumed ledger events to the audit journal.
type AuditWorker struct {
	storage *storage.SQLiteRepository
}

func NewAuditWorker(storage *storage.SQLiteRepository) *AuditWorker {
	return &AuditWorker{storage: storage}
}

// HandleEvent processes a single ledger event from AMQP. Errors propagate to
// the consumer, which nacks the delivery for redelivery.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"action", event.Action,
		"transaction_id", event.TransactionID,
		"user_id", event.UserID)

	if err := w.storage.AppendAudit(ctx, event.Action, event.TransactionID, event.UserID); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}

	return nil
}

// SweepSessions removes expired sessions. Called periodically by the worker
// binary so stale tokens don't accumulate.
func (w *AuditWorker) SweepSessions(ctx context.Context) error {
	if err := w.storage.DeleteExpiredSessions(ctx); err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}
	return nil
}

// StartupReport logs a snapshot of the journal so restarts are visible in
// the worker's log stream.
func (w *AuditWorker) StartupReport(ctx context.Context) error {
	records, err := w.storage.ListAudit(ctx, 100)
	if err != nil {
		return fmt.Errorf("read audit journal: %w", err)
	}

	if len(records) == 0 {
		slog.InfoContext(ctx, "Audit journal is empty")
		return nil
	}

	last := records[len(records)-1]
	slog.InfoContext(ctx, "Audit journal loaded",
		"records", len(records),
		"last_action", last.Action,
		"last_recorded_at", last.RecordedAt)
	return nil
}
