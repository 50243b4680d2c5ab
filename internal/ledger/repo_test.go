package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sessions := `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'created',
  total_pot NUMERIC NOT NULL DEFAULT 0,
  player_count INTEGER NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	players := `
CREATE TABLE IF NOT EXISTS players (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  name TEXT NOT NULL,
  profile_id TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  current_balance NUMERIC NOT NULL DEFAULT 0,
  total_buy_ins NUMERIC NOT NULL DEFAULT 0,
  total_cash_outs NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  player_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  method TEXT NOT NULL DEFAULT 'manual',
  created_by TEXT NOT NULL,
  note TEXT,
  is_voided INTEGER NOT NULL DEFAULT 0,
  void_reason TEXT,
  voided_at DATETIME,
  created_at DATETIME
);`

	for _, ddl := range []string{sessions, players, transactions} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedLedgerSession(t *testing.T, db *gorm.DB) (*models.Session, *models.Player) {
	t.Helper()

	session := &models.Session{
		ID:        uuid.New(),
		Name:      "friday game",
		Status:    enums.SessionStatusActive,
		TotalPot:  decimal.Zero,
		CreatedBy: "sam",
	}
	require.NoError(t, db.Create(session).Error)

	player := &models.Player{
		ID:             uuid.New(),
		SessionID:      session.ID,
		Name:           "alice",
		Status:         enums.PlayerStatusActive,
		CurrentBalance: decimal.Zero,
		TotalBuyIns:    decimal.Zero,
		TotalCashOuts:  decimal.Zero,
	}
	require.NoError(t, db.Create(player).Error)

	return session, player
}

func TestRepositoryTransactionRoundTrip(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session, player := seedLedgerSession(t, db)

	txn := &models.Transaction{
		ID:        uuid.New(),
		SessionID: session.ID,
		PlayerID:  player.ID,
		Type:      enums.TransactionTypeBuyIn,
		Amount:    decimal.NewFromInt(50),
		Method:    enums.TransactionMethodManual,
		CreatedBy: "sam",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateTransaction(ctx, txn))

	found, err := repo.FindTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, found.ID)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(50)))
	assert.False(t, found.IsVoided)

	now := time.Now().UTC()
	reason := "fat finger"
	found.IsVoided = true
	found.VoidedAt = &now
	found.VoidReason = &reason
	require.NoError(t, repo.UpdateTransaction(ctx, found))

	again, err := repo.FindTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, again.IsVoided)
	assert.Equal(t, &reason, again.VoidReason)
}

func TestRepositoryCountActivePlayers(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session, _ := seedLedgerSession(t, db)

	bob := &models.Player{
		ID:        uuid.New(),
		SessionID: session.ID,
		Name:      "bob",
		Status:    enums.PlayerStatusCashedOut,
	}
	require.NoError(t, db.Create(bob).Error)

	count, err := repo.CountActivePlayers(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryHasRecentDuplicate(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session, player := seedLedgerSession(t, db)
	now := time.Now().UTC()

	txn := &models.Transaction{
		ID:        uuid.New(),
		SessionID: session.ID,
		PlayerID:  player.ID,
		Type:      enums.TransactionTypeBuyIn,
		Amount:    decimal.NewFromInt(50),
		Method:    enums.TransactionMethodManual,
		CreatedBy: "sam",
		CreatedAt: now,
	}
	require.NoError(t, repo.CreateTransaction(ctx, txn))

	dup, err := repo.HasRecentDuplicate(ctx, session.ID, player.ID, enums.TransactionTypeBuyIn, decimal.NewFromInt(50), now.Add(-5*time.Second))
	require.NoError(t, err)
	assert.True(t, dup)

	// Different amount is not a duplicate.
	dup, err = repo.HasRecentDuplicate(ctx, session.ID, player.ID, enums.TransactionTypeBuyIn, decimal.NewFromInt(25), now.Add(-5*time.Second))
	require.NoError(t, err)
	assert.False(t, dup)

	// Outside the window the match no longer counts.
	dup, err = repo.HasRecentDuplicate(ctx, session.ID, player.ID, enums.TransactionTypeBuyIn, decimal.NewFromInt(50), now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, dup)

	// Voided rows are ignored.
	require.NoError(t, db.Model(&models.Transaction{}).Where("id = ?", txn.ID).Update("is_voided", true).Error)
	dup, err = repo.HasRecentDuplicate(ctx, session.ID, player.ID, enums.TransactionTypeBuyIn, decimal.NewFromInt(50), now.Add(-5*time.Second))
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestRepositoryListBySessionIDOrdersOldestFirst(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session, player := seedLedgerSession(t, db)
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	ids := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		txn := &models.Transaction{
			ID:        uuid.New(),
			SessionID: session.ID,
			PlayerID:  player.ID,
			Type:      enums.TransactionTypeBuyIn,
			Amount:    decimal.NewFromInt(int64(10 * (i + 1))),
			Method:    enums.TransactionMethodManual,
			CreatedBy: "sam",
			CreatedAt: base.Add(time.Duration(2-i) * time.Minute),
		}
		require.NoError(t, repo.CreateTransaction(ctx, txn))
		ids = append(ids, txn.ID)
	}

	txns, err := repo.ListBySessionID(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	// Inserted newest first; listed oldest first.
	assert.Equal(t, ids[2], txns[0].ID)
	assert.Equal(t, ids[0], txns[2].ID)
}

func TestRepositoryPlayerAndSessionUpdates(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session, player := seedLedgerSession(t, db)

	player.CurrentBalance = decimal.NewFromInt(50)
	player.TotalBuyIns = decimal.NewFromInt(50)
	require.NoError(t, repo.UpdatePlayer(ctx, player))

	session.TotalPot = decimal.NewFromInt(50)
	require.NoError(t, repo.UpdateSession(ctx, session))

	foundPlayer, err := repo.FindPlayer(ctx, player.ID)
	require.NoError(t, err)
	assert.True(t, foundPlayer.CurrentBalance.Equal(decimal.NewFromInt(50)))

	foundSession, err := repo.FindSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, foundSession.TotalPot.Equal(decimal.NewFromInt(50)))
}
