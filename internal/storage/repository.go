// Package storage implements the ledger store over SQLite. Every operation
// goes straight to the database; there is no authoritative in-memory copy.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row the caller named does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListForUser returns the user's ledger, most recent date first, insertion
// order breaking ties. Calling it twice without a mutation in between yields
// identical sequences.
func (r *SQLiteRepository) ListForUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, t_date, description, category, t_type, amount
		FROM transactions
		WHERE user_id = ?
		ORDER BY t_date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return txs, nil
}

// Add inserts a new transaction and returns it with the assigned id. Field
// validation is the caller's job; the store persists what it is given.
func (r *SQLiteRepository) Add(ctx context.Context, userID int64, e core.Entry) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, t_date, description, category, t_type, amount)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, e.Date.String(), e.Description, e.Category, string(e.Type), e.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"user_id", userID,
		"type", e.Type,
		"amount", e.Amount.String())

	return core.Transaction{
		ID:          id,
		UserID:      userID,
		Date:        e.Date,
		Description: e.Description,
		Category:    e.Category,
		Type:        e.Type,
		Amount:      e.Amount,
	}, nil
}

// Update replaces all mutable fields of the transaction with the given id.
// Unknown ids surface ErrNotFound rather than silently updating nothing.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, e core.Entry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET t_date = ?, description = ?, category = ?, t_type = ?, amount = ?
		WHERE id = ?`,
		e.Date.String(), e.Description, e.Category, string(e.Type), e.Amount.String(), id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update transaction %d: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	return nil
}

// Delete removes the transaction with the given id. Absent ids are a no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// GetTransaction retrieves a single transaction by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, t_date, description, category, t_type, amount
		FROM transactions
		WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		dateStr   string
		typeStr   string
		amountStr string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &dateStr, &tx.Description, &tx.Category, &typeStr, &amountStr); err != nil {
		return core.Transaction{}, err
	}

	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
	}

	tx.Date = date
	tx.Type = core.TxType(typeStr)
	tx.Amount = amount
	return tx, nil
}

// CreateUser inserts a new account and returns it with the assigned id.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", username)
	return core.User{ID: id, Username: username}, nil
}

// GetUserByUsername returns the account and its password hash, or ErrNotFound.
func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, string, error) {
	var (
		u    core.User
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, "", fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("get user: %w", err)
	}
	return u, hash, nil
}

// UsernameExists reports whether an account with the given name exists.
func (r *SQLiteRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE username = ? LIMIT 1`, username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return true, nil
}

// CreateSession stores a session token for a user.
func (r *SQLiteRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// LookupSession resolves a token to its user. Expired sessions are removed on
// sight and reported as ErrNotFound.
func (r *SQLiteRepository) LookupSession(ctx context.Context, token string) (core.User, error) {
	var (
		u         core.User
		expiresAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ?`, token).Scan(&u.ID, &u.Username, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("lookup session: %w", err)
	}

	if time.Now().After(expiresAt) {
		_ = r.DeleteSession(ctx, token)
		return core.User{}, fmt.Errorf("session expired: %w", ErrNotFound)
	}
	return u, nil
}

// DeleteSession removes a session by token. Absent tokens are a no-op.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions clears out sessions past their expiry.
func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}

// AuditRecord is one row of the append-only mutation journal.
type AuditRecord struct {
	ID            int64
	Action        string
	TransactionID int64
	UserID        int64
	RecordedAt    time.Time
}

// AppendAudit appends a mutation record to the journal.
func (r *SQLiteRepository) AppendAudit(ctx context.Context, action string, transactionID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledger_audit (action, transaction_id, user_id) VALUES (?, ?, ?)`,
		action, transactionID, userID)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}

	slog.InfoContext(ctx, "Audit record appended",
		"action", action,
		"transaction_id", transactionID,
		"user_id", userID)
	return nil
}

// ListAudit returns the journal oldest first.
func (r *SQLiteRepository) ListAudit(ctx context.Context, limit int) ([]AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, transaction_id, user_id, recorded_at
		FROM ledger_audit
		ORDER BY id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.TransactionID, &rec.UserID, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
