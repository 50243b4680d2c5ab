package registry

import (
	"context"
	"strings"

	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for sessions and their players.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSession(ctx context.Context, session *models.Session) error
	FindSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	CreatePlayer(ctx context.Context, player *models.Player) error
	FindPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	FindPlayerByName(ctx context.Context, sessionID uuid.UUID, name string) (*models.Player, error)
	ListPlayers(ctx context.Context, sessionID uuid.UUID) ([]models.Player, error)
	CountActivePlayers(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a registry repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) FindSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) UpdateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *repository) CreatePlayer(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).Create(player).Error
}

func (r *repository) FindPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var player models.Player
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *repository) FindPlayerByName(ctx context.Context, sessionID uuid.UUID, name string) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND lower(name) = ?", sessionID, strings.ToLower(name)).
		First(&player).Error
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *repository) ListPlayers(ctx context.Context, sessionID uuid.UUID) ([]models.Player, error) {
	var players []models.Player
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (r *repository) CountActivePlayers(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("session_id = ? AND status = ?", sessionID, enums.PlayerStatusActive).
		Count(&count).Error
	return count, err
}
