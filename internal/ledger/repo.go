package ledger

import (
	"context"
	"time"

	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository manages persistence for the transaction ledger. All mutating
// calls are expected to run inside the caller's transaction via WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	FindPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	UpdateTransaction(ctx context.Context, txn *models.Transaction) error
	UpdatePlayer(ctx context.Context, player *models.Player) error
	UpdateSession(ctx context.Context, session *models.Session) error
	CountActivePlayers(ctx context.Context, sessionID uuid.UUID) (int64, error)
	HasRecentDuplicate(ctx context.Context, sessionID, playerID uuid.UUID, txType enums.TransactionType, amount decimal.Decimal, since time.Time) (bool, error)
	ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var player models.Player
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *repository) FindTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *repository) UpdatePlayer(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).Save(player).Error
}

func (r *repository) UpdateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *repository) CountActivePlayers(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("session_id = ? AND status = ?", sessionID, enums.PlayerStatusActive).
		Count(&count).Error
	return count, err
}

func (r *repository) HasRecentDuplicate(ctx context.Context, sessionID, playerID uuid.UUID, txType enums.TransactionType, amount decimal.Decimal, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("session_id = ? AND player_id = ? AND type = ? AND amount = ? AND is_voided = ? AND created_at > ?",
			sessionID, playerID, txType, amount, false, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
