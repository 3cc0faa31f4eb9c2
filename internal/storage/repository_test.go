package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"tally/internal/core"
)

type RepositorySuite struct {
	suite.Suite
	ctx  context.Context
	repo *SQLiteRepository
	user core.User
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()

	repo, err := NewSQLiteRepository(filepath.Join(s.T().TempDir(), "tally.db"))
	s.Require().NoError(err)
	s.repo = repo

	user, err := repo.CreateUser(s.ctx, "alice", "$2a$10$fakehashfakehashfakehash")
	s.Require().NoError(err)
	s.user = user
}

func (s *RepositorySuite) TearDownTest() {
	s.Require().NoError(s.repo.Close())
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func entry(date, desc, category string, txType core.TxType, amount string) core.Entry {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Entry{
		Date:        d,
		Description: desc,
		Category:    category,
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
	}
}

func (s *RepositorySuite) TestListEmptyLedger() {
	txs, err := s.repo.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.NotNil(txs)
	s.Empty(txs)
}

func (s *RepositorySuite) TestAddAssignsIDAndPersists() {
	tx, err := s.repo.Add(s.ctx, s.user.ID, entry("2026-03-01", "salary", core.CategorySalary, core.Income, "1500.50"))
	s.Require().NoError(err)
	s.NotZero(tx.ID)
	s.Equal(s.user.ID, tx.UserID)

	got, err := s.repo.GetTransaction(s.ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal("salary", got.Description)
	s.Equal(core.Income, got.Type)
	s.True(got.Amount.Equal(decimal.RequireFromString("1500.50")))
	s.Equal("2026-03-01", got.Date.String())
}

func (s *RepositorySuite) TestListOrdering() {
	// Two dates, plus two entries sharing a date to exercise the tiebreak.
	first, err := s.repo.Add(s.ctx, s.user.ID, entry("2026-03-05", "groceries", core.CategoryFood, core.Expense, "-40"))
	s.Require().NoError(err)
	second, err := s.repo.Add(s.ctx, s.user.ID, entry("2026-03-10", "salary", core.CategorySalary, core.Income, "1500"))
	s.Require().NoError(err)
	third, err := s.repo.Add(s.ctx, s.user.ID, entry("2026-03-05", "bus", core.CategoryTransport, core.Expense, "-2.50"))
	s.Require().NoError(err)

	txs, err := s.repo.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(txs, 3)

	// Most recent date first; same-date entries newest insertion first.
	s.Equal(second.ID, txs[0].ID)
	s.Equal(third.ID, txs[1].ID)
	s.Equal(first.ID, txs[2].ID)

	again, err := s.repo.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(txs, again)
}

func (s *RepositorySuite) TestListIsScopedToUser() {
	other, err := s.repo.CreateUser(s.ctx, "bob", "$2a$10$otherhashotherhashother")
	s.Require().NoError(err)

	_, err = s.repo.Add(s.ctx, s.user.ID, entry("2026-03-01", "salary", core.CategorySalary, core.Income, "1500"))
	s.Require().NoError(err)
	_, err = s.repo.Add(s.ctx, other.ID, entry("2026-03-01", "rent", core.CategoryRent, core.Expense, "-800"))
	s.Require().NoError(err)

	txs, err := s.repo.ListForUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(txs, 1)
	s.Equal("salary", txs[0].Description)
}

func (s *RepositorySuite) TestUpdateReplacesAllFields() {
	tx, err := s.repo.Add(s.ctx, s.user.ID, entry("2026-03-01", "salary", core.CategorySalary, core.Income, "1500"))
	s.Require().NoError(err)

	err = s.repo.Update(s.ctx, tx.ID, entry("2026-03-02", "freelance gig", core.CategoryFreelance, core.Income, "300"))
	s.Require().NoError(err)

	got, err := s.repo.GetTransaction(s.ctx, tx.ID)
	s.Require().NoError(err)
	s.Equal("freelance gig", got.Description)
	s.Equal(core.CategoryFreelance, got.Category)
	s.Equal("2026-03-02", got.Date.String())
	s.True(got.Amount.Equal(decimal.NewFromInt(300)))
}

func (s *RepositorySuite) TestUpdateMissingID() {
	err := s.repo.Update(s.ctx, 9999, entry("2026-03-02", "ghost", core.CategoryOther, core.Income, "1"))
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestDeleteRemovesRow() {
	tx, err := s.repo.Add(s.ctx, s.user.ID, entry("2026-03-01", "salary", core.CategorySalary, core.Income, "1500"))
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Delete(s.ctx, tx.ID))

	_, err = s.repo.GetTransaction(s.ctx, tx.ID)
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestDeleteMissingIDIsNoOp() {
	s.Require().NoError(s.repo.Delete(s.ctx, 9999))
}

func (s *RepositorySuite) TestUsernameExists() {
	taken, err := s.repo.UsernameExists(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(taken)

	free, err := s.repo.UsernameExists(s.ctx, "carol")
	s.Require().NoError(err)
	s.False(free)
}

func (s *RepositorySuite) TestGetUserByUsername() {
	user, hash, err := s.repo.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(s.user.ID, user.ID)
	s.Equal("alice", user.Username)
	s.NotEmpty(hash)

	_, _, err = s.repo.GetUserByUsername(s.ctx, "nobody")
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestSessionLifecycle() {
	token := "deadbeefdeadbeefdeadbeefdeadbeef"
	s.Require().NoError(s.repo.CreateSession(s.ctx, token, s.user.ID, time.Now().Add(time.Hour)))

	user, err := s.repo.LookupSession(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(s.user.ID, user.ID)

	s.Require().NoError(s.repo.DeleteSession(s.ctx, token))

	_, err = s.repo.LookupSession(s.ctx, token)
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestExpiredSessionIsRejected() {
	token := "cafebabecafebabecafebabecafebabe"
	s.Require().NoError(s.repo.CreateSession(s.ctx, token, s.user.ID, time.Now().Add(-time.Minute)))

	_, err := s.repo.LookupSession(s.ctx, token)
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestDeleteExpiredSessions() {
	live := "1111111111111111111111111111111*"
	stale := "2222222222222222222222222222222*"
	s.Require().NoError(s.repo.CreateSession(s.ctx, live, s.user.ID, time.Now().Add(time.Hour)))
	s.Require().NoError(s.repo.CreateSession(s.ctx, stale, s.user.ID, time.Now().Add(-time.Hour)))

	s.Require().NoError(s.repo.DeleteExpiredSessions(s.ctx))

	_, err := s.repo.LookupSession(s.ctx, live)
	s.Require().NoError(err)
	_, err = s.repo.LookupSession(s.ctx, stale)
	s.Require().ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestAuditJournal() {
	s.Require().NoError(s.repo.AppendAudit(s.ctx, "created", 1, s.user.ID))
	s.Require().NoError(s.repo.AppendAudit(s.ctx, "updated", 1, s.user.ID))
	s.Require().NoError(s.repo.AppendAudit(s.ctx, "deleted", 1, s.user.ID))

	records, err := s.repo.ListAudit(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(records, 3)

	// Journal is append-only and replays oldest first.
	s.Equal("created", records[0].Action)
	s.Equal("updated", records[1].Action)
	s.Equal("deleted", records[2].Action)
	s.Equal(int64(1), records[0].TransactionID)
}
