package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/chipledger-backend/internal/settlement"
	"github.com/angelmondragon/chipledger-backend/pkg/config"
	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines session and player lifecycle operations the ledger relies on.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	AddPlayer(ctx context.Context, input AddPlayerInput) (*models.Player, error)
	ListPlayers(ctx context.Context, sessionID uuid.UUID) ([]models.Player, error)
	ResolvePlayerByName(ctx context.Context, sessionID uuid.UUID, name string) (*models.Player, error)
	CompleteSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	Summary(ctx context.Context, sessionID uuid.UUID) (*SessionSummary, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	maxPlayers int
}

// CreateSessionInput captures the data a new session requires.
type CreateSessionInput struct {
	Name      string
	CreatedBy string
}

// AddPlayerInput captures the data a new seat requires.
type AddPlayerInput struct {
	SessionID uuid.UUID
	Name      string
	ProfileID *uuid.UUID
}

// PlayerSummary is one row of the balance display.
type PlayerSummary struct {
	Player      models.Player   `json:"player"`
	NetPosition decimal.Decimal `json:"net_position"`
}

// SessionSummary aggregates per-player totals for the balance screen. Once
// every player has cashed out and the pot is drained it also carries the
// settlement plan.
type SessionSummary struct {
	Session     models.Session        `json:"session"`
	Players     []PlayerSummary       `json:"players"`
	Completable bool                  `json:"completable"`
	Settlement  []settlement.Transfer `json:"settlement,omitempty"`
}

// NewService wires a registry service with the provided dependencies.
func NewService(repo Repository, tx txRunner, cfg config.LedgerConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cfg.MaxPlayers < 2 {
		return nil, fmt.Errorf("max players must allow at least two seats")
	}
	return &service{repo: repo, tx: tx, maxPlayers: cfg.MaxPlayers}, nil
}

func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 80 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session name must be 1-80 characters")
	}
	createdBy := strings.TrimSpace(input.CreatedBy)
	if createdBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session creator is required")
	}

	session := &models.Session{
		ID:        uuid.New(),
		Name:      name,
		Status:    enums.SessionStatusActive,
		TotalPot:  decimal.Zero,
		CreatedBy: createdBy,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return session, nil
}

func (s *service) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := s.repo.FindSession(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return session, nil
}

func (s *service) AddPlayer(ctx context.Context, input AddPlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 80 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "player name must be 1-80 characters")
	}
	if input.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	var created *models.Player
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		session, err := repo.FindSession(ctx, input.SessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
		}
		if session.Status != enums.SessionStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "session is not active")
		}
		if session.PlayerCount >= s.maxPlayers {
			return pkgerrors.New(pkgerrors.CodeValidation, "session is full").
				WithDetails(map[string]any{"max_players": s.maxPlayers})
		}

		if _, err := repo.FindPlayerByName(ctx, input.SessionID, name); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "player name already taken in this session")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check player name")
		}

		player := &models.Player{
			ID:             uuid.New(),
			SessionID:      input.SessionID,
			Name:           name,
			ProfileID:      input.ProfileID,
			Status:         enums.PlayerStatusActive,
			CurrentBalance: decimal.Zero,
			TotalBuyIns:    decimal.Zero,
			TotalCashOuts:  decimal.Zero,
		}
		if err := repo.CreatePlayer(ctx, player); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create player")
		}

		session.PlayerCount++
		if err := repo.UpdateSession(ctx, session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update session player count")
		}

		created = player
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) ListPlayers(ctx context.Context, sessionID uuid.UUID) ([]models.Player, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	players, err := s.repo.ListPlayers(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list players")
	}
	return players, nil
}

func (s *service) ResolvePlayerByName(ctx context.Context, sessionID uuid.UUID, name string) (*models.Player, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "player name required")
	}
	player, err := s.repo.FindPlayerByName(ctx, sessionID, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			details := map[string]any{"name": trimmed}
			if players, listErr := s.repo.ListPlayers(ctx, sessionID); listErr == nil {
				candidates := make([]string, 0, len(players))
				for _, p := range players {
					candidates = append(candidates, p.Name)
				}
				details["candidates"] = candidates
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no player with that name").
				WithDetails(details)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve player name")
	}
	return player, nil
}

func (s *service) CompleteSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	var completed *models.Session
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		session, err := repo.FindSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
		}
		if session.Status != enums.SessionStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "session is not active")
		}

		activeCount, err := repo.CountActivePlayers(ctx, sessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active players")
		}
		if activeCount > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "players still active").
				WithDetails(map[string]any{"active_players": activeCount})
		}
		if !types.IsZeroAmount(session.TotalPot) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pot has not been fully cashed out").
				WithDetails(map[string]any{"total_pot": session.TotalPot.StringFixed(2)})
		}

		now := time.Now().UTC()
		session.Status = enums.SessionStatusCompleted
		session.CompletedAt = &now
		if err := repo.UpdateSession(ctx, session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete session")
		}
		completed = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *service) Summary(ctx context.Context, sessionID uuid.UUID) (*SessionSummary, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	players, err := s.repo.ListPlayers(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list players")
	}

	summary := &SessionSummary{Session: *session}
	completable := session.Status == enums.SessionStatusActive && types.IsZeroAmount(session.TotalPot)
	for _, player := range players {
		summary.Players = append(summary.Players, PlayerSummary{
			Player:      player,
			NetPosition: player.NetPosition(),
		})
		if player.Status != enums.PlayerStatusCashedOut {
			completable = false
		}
	}
	summary.Completable = completable

	if completable {
		transfers, settleErr := settlement.Settle(settlement.NetPositions(players))
		if settleErr != nil {
			return nil, settleErr
		}
		summary.Settlement = transfers
	}
	return summary, nil
}
