package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/chipledger-backend/pkg/config"
	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/metrics"
	"github.com/angelmondragon/chipledger-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// undoIndex is the reversibility window the ledger registers transactions
// with. The ledger stays the authority on whether a row is actually voided.
type undoIndex interface {
	Add(txn *models.Transaction)
	CanUndo(id uuid.UUID) bool
	Remove(id uuid.UUID)
}

// Service is the sole authority for mutating money state.
type Service interface {
	RecordBuyIn(ctx context.Context, input RecordBuyInInput) (*models.Transaction, error)
	RecordCashOut(ctx context.Context, input RecordCashOutInput) (*models.Transaction, error)
	UndoTransaction(ctx context.Context, transactionID uuid.UUID, reason *string) error
	ListTransactions(ctx context.Context, sessionID uuid.UUID) ([]models.Transaction, error)
}

type service struct {
	repo         Repository
	tx           txRunner
	undo         undoIndex
	metrics      *metrics.LedgerMetrics
	minBuyIn     decimal.Decimal
	maxBuyIn     decimal.Decimal
	dedupeWindow time.Duration
	now          func() time.Time
}

// RecordBuyInInput captures one chip purchase.
type RecordBuyInInput struct {
	SessionID uuid.UUID
	PlayerID  uuid.UUID
	Amount    decimal.Decimal
	Method    enums.TransactionMethod
	Actor     string
	Note      *string
}

// RecordCashOutInput captures one full exit from the game.
type RecordCashOutInput struct {
	SessionID          uuid.UUID
	PlayerID           uuid.UUID
	Amount             decimal.Decimal
	Method             enums.TransactionMethod
	Actor              string
	OrganizerConfirmed bool
}

// NewService wires the transaction ledger with its dependencies.
func NewService(repo Repository, tx txRunner, undo undoIndex, ledgerMetrics *metrics.LedgerMetrics, cfg config.LedgerConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if undo == nil {
		return nil, fmt.Errorf("undo index required")
	}
	minBuyIn, err := decimal.NewFromString(cfg.MinBuyIn)
	if err != nil {
		return nil, fmt.Errorf("invalid min buy-in %q: %w", cfg.MinBuyIn, err)
	}
	maxBuyIn, err := decimal.NewFromString(cfg.MaxBuyIn)
	if err != nil {
		return nil, fmt.Errorf("invalid max buy-in %q: %w", cfg.MaxBuyIn, err)
	}
	if maxBuyIn.LessThan(minBuyIn) {
		return nil, fmt.Errorf("max buy-in %s below min buy-in %s", maxBuyIn, minBuyIn)
	}
	return &service{
		repo:         repo,
		tx:           tx,
		undo:         undo,
		metrics:      ledgerMetrics,
		minBuyIn:     minBuyIn,
		maxBuyIn:     maxBuyIn,
		dedupeWindow: cfg.DedupeWindow,
		now:          time.Now,
	}, nil
}

func (s *service) RecordBuyIn(ctx context.Context, input RecordBuyInInput) (*models.Transaction, error) {
	if err := validateCommon(input.SessionID, input.PlayerID, input.Amount, input.Method, input.Actor); err != nil {
		return nil, err
	}
	amount := types.Round2(input.Amount)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if amount.LessThan(s.minBuyIn) || amount.GreaterThan(s.maxBuyIn) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buy-in amount out of bounds").
			WithDetails(map[string]any{
				"amount": amount.StringFixed(2),
				"min":    s.minBuyIn.StringFixed(2),
				"max":    s.maxBuyIn.StringFixed(2),
			})
	}

	var created *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		session, player, err := s.loadActivePair(ctx, repo, input.SessionID, input.PlayerID)
		if err != nil {
			return err
		}

		since := s.now().Add(-s.dedupeWindow)
		dup, err := repo.HasRecentDuplicate(ctx, session.ID, player.ID, enums.TransactionTypeBuyIn, amount, since)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check duplicate buy-in")
		}
		if dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "identical buy-in submitted moments ago").
				WithDetails(map[string]any{"dedupe_window_seconds": s.dedupeWindow.Seconds()})
		}

		txn := &models.Transaction{
			ID:        uuid.New(),
			SessionID: session.ID,
			PlayerID:  player.ID,
			Type:      enums.TransactionTypeBuyIn,
			Amount:    amount,
			Method:    input.Method,
			CreatedBy: input.Actor,
			Note:      input.Note,
			CreatedAt: s.now().UTC(),
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert buy-in")
		}

		player.CurrentBalance = player.CurrentBalance.Add(amount)
		player.TotalBuyIns = player.TotalBuyIns.Add(amount)
		if err := repo.UpdatePlayer(ctx, player); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update player balance")
		}

		session.TotalPot = session.TotalPot.Add(amount)
		if err := repo.UpdateSession(ctx, session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update session pot")
		}

		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.undo.Add(created)
	s.metrics.IncTransaction(created.Type.String(), created.Method.String())
	return created, nil
}

func (s *service) RecordCashOut(ctx context.Context, input RecordCashOutInput) (*models.Transaction, error) {
	if err := validateCommon(input.SessionID, input.PlayerID, input.Amount, input.Method, input.Actor); err != nil {
		return nil, err
	}
	amount := types.Round2(input.Amount)
	// Sub-cent inputs round to zero; catch them here rather than at the
	// amount > 0 database check.
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var created *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		session, player, err := s.loadActivePair(ctx, repo, input.SessionID, input.PlayerID)
		if err != nil {
			return err
		}

		activeCount, err := repo.CountActivePlayers(ctx, session.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active players")
		}
		lastPlayer := activeCount == 1

		// The last player out must drain the pot exactly, so the session
		// always nets to zero with no orphaned money.
		if lastPlayer && !types.WithinEpsilon(amount, session.TotalPot) {
			return pkgerrors.New(pkgerrors.CodeConstraintViolation, "last player must cash out the remaining pot").
				WithDetails(map[string]any{
					"required_amount": session.TotalPot.StringFixed(2),
					"amount":          amount.StringFixed(2),
				})
		}

		if amount.GreaterThan(player.TotalBuyIns) && !input.OrganizerConfirmed {
			return pkgerrors.New(pkgerrors.CodeConfirmationRequired, "cash-out exceeds player buy-ins").
				WithDetails(map[string]any{
					"cash_out_amount": amount.StringFixed(2),
					"total_buy_ins":   player.TotalBuyIns.StringFixed(2),
				})
		}

		if !lastPlayer && amount.GreaterThan(session.TotalPot) {
			return pkgerrors.New(pkgerrors.CodeInsufficientPot, "cash-out exceeds remaining pot").
				WithDetails(map[string]any{
					"amount":    amount.StringFixed(2),
					"total_pot": session.TotalPot.StringFixed(2),
				})
		}

		txn := &models.Transaction{
			ID:        uuid.New(),
			SessionID: session.ID,
			PlayerID:  player.ID,
			Type:      enums.TransactionTypeCashOut,
			Amount:    amount,
			Method:    input.Method,
			CreatedBy: input.Actor,
			CreatedAt: s.now().UTC(),
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cash-out")
		}

		// Cash-out is a full exit: the player leaves regardless of whether
		// the amount consumes their balance.
		player.CurrentBalance = player.CurrentBalance.Sub(amount)
		player.TotalCashOuts = player.TotalCashOuts.Add(amount)
		player.Status = enums.PlayerStatusCashedOut
		if err := repo.UpdatePlayer(ctx, player); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update player balance")
		}

		session.TotalPot = session.TotalPot.Sub(amount)
		if lastPlayer && types.IsZeroAmount(session.TotalPot) {
			session.TotalPot = decimal.Zero
		}
		if err := repo.UpdateSession(ctx, session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update session pot")
		}

		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.undo.Add(created)
	s.metrics.IncTransaction(created.Type.String(), created.Method.String())
	return created, nil
}

func (s *service) UndoTransaction(ctx context.Context, transactionID uuid.UUID, reason *string) error {
	if transactionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}

	// Window check happens before the write; the voided flag inside the
	// transaction guards against a repeat racing past it.
	if !s.undo.CanUndo(transactionID) {
		s.metrics.IncUndo("expired")
		return pkgerrors.New(pkgerrors.CodeUndoExpired, "transaction can no longer be undone")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		txn, err := repo.FindTransaction(ctx, transactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		if txn.IsVoided {
			return pkgerrors.New(pkgerrors.CodeUndoExpired, "transaction already reversed")
		}

		session, err := repo.FindSession(ctx, txn.SessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
		}
		// A completed session's books are closed; reversing a movement now
		// would leave it with a non-zero pot.
		if session.Status != enums.SessionStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "session is no longer active").
				WithDetails(map[string]any{"session_status": session.Status.String()})
		}
		player, err := repo.FindPlayer(ctx, txn.PlayerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load player")
		}

		switch txn.Type {
		case enums.TransactionTypeBuyIn:
			player.CurrentBalance = player.CurrentBalance.Sub(txn.Amount)
			player.TotalBuyIns = player.TotalBuyIns.Sub(txn.Amount)
			session.TotalPot = session.TotalPot.Sub(txn.Amount)
		case enums.TransactionTypeCashOut:
			player.CurrentBalance = player.CurrentBalance.Add(txn.Amount)
			player.TotalCashOuts = player.TotalCashOuts.Sub(txn.Amount)
			player.Status = enums.PlayerStatusActive
			session.TotalPot = session.TotalPot.Add(txn.Amount)
		default:
			return pkgerrors.New(pkgerrors.CodeInternal, "unknown transaction type")
		}

		now := s.now().UTC()
		txn.IsVoided = true
		txn.VoidedAt = &now
		txn.VoidReason = reason
		if err := repo.UpdateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void transaction")
		}
		if err := repo.UpdatePlayer(ctx, player); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore player balance")
		}
		if err := repo.UpdateSession(ctx, session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore session pot")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUndoExpired) {
			s.metrics.IncUndo("expired")
		} else {
			s.metrics.IncUndo("failed")
		}
		return err
	}

	s.undo.Remove(transactionID)
	s.metrics.IncUndo("success")
	return nil
}

func (s *service) ListTransactions(ctx context.Context, sessionID uuid.UUID) ([]models.Transaction, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	txns, err := s.repo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return txns, nil
}

// loadActivePair fetches the session and player and enforces the shared
// active-status preconditions.
func (s *service) loadActivePair(ctx context.Context, repo Repository, sessionID, playerID uuid.UUID) (*models.Session, *models.Player, error) {
	session, err := repo.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if session.Status != enums.SessionStatusActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is not active")
	}

	player, err := repo.FindPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "player not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load player")
	}
	if player.SessionID != session.ID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "player does not belong to session")
	}
	if player.Status != enums.PlayerStatusActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "player already cashed out")
	}
	return session, player, nil
}

func validateCommon(sessionID, playerID uuid.UUID, amount decimal.Decimal, method enums.TransactionMethod, actor string) error {
	if sessionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if playerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "player id required")
	}
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction method %q", method))
	}
	if actor == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	return nil
}
