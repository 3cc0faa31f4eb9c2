// Package ledger orchestrates transaction operations: boundary validation,
// the store call, and best-effort audit event publication.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
)

// Store is the ledger store contract from the storage layer.
type Store interface {
	ListForUser(ctx context.Context, userID int64) ([]core.Transaction, error)
	Add(ctx context.Context, userID int64, e core.Entry) (core.Transaction, error)
	Update(ctx context.Context, id int64, e core.Entry) error
	Delete(ctx context.Context, id int64) error
}

// EventPublisher publishes ledger mutation events for the audit worker.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

type Service struct {
	store     Store
	publisher EventPublisher
}

// NewService creates a ledger service. publisher may be nil when no broker is
// configured; mutations then skip event publication.
func NewService(store Store, publisher EventPublisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// List returns the user's ledger snapshot, most recent first.
func (s *Service) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListForUser(ctx, userID)
}

// Summary fetches the current snapshot and runs the summary engine over it.
// It is recomputed from scratch on every call; nothing is cached between
// mutations.
func (s *Service) Summary(ctx context.Context, userID int64) (core.Totals, core.Breakdown, error) {
	txs, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return core.Totals{}, core.Breakdown{}, fmt.Errorf("list for summary: %w", err)
	}
	return core.ComputeTotals(txs), core.ComputeBreakdown(txs), nil
}

// Add validates the raw form input and inserts the resulting entry.
func (s *Service) Add(ctx context.Context, userID int64, in core.FormInput) (core.Transaction, error) {
	entry, err := core.ParseEntry(in)
	if err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.store.Add(ctx, userID, entry)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	s.publish(ctx, amqp.ActionCreated, tx.ID, userID)
	return tx, nil
}

// Update validates the raw form input and replaces all mutable fields of the
// transaction with the given id. Unknown ids fail with storage.ErrNotFound.
func (s *Service) Update(ctx context.Context, id, userID int64, in core.FormInput) error {
	entry, err := core.ParseEntry(in)
	if err != nil {
		return err
	}

	if err := s.store.Update(ctx, id, entry); err != nil {
		return err
	}

	s.publish(ctx, amqp.ActionUpdated, id, userID)
	return nil
}

// Delete removes the transaction with the given id; absent ids are a no-op.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, amqp.ActionDeleted, id, userID)
	return nil
}

// publish emits an audit event. The ledger write already succeeded, so
// failures are logged and never surfaced to the user.
func (s *Service) publish(ctx context.Context, action string, transactionID, userID int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping ledger event",
			"action", action, "transaction_id", transactionID)
		return
	}

	event := amqp.NewLedgerEvent(action, transactionID, userID)
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"action", action,
			"transaction_id", transactionID,
			"error", err)
	}
}
