package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chipledger-backend/api/middleware"
	"github.com/angelmondragon/chipledger-backend/api/responses"
	"github.com/angelmondragon/chipledger-backend/api/validators"
	"github.com/angelmondragon/chipledger-backend/internal/ledger"
	"github.com/angelmondragon/chipledger-backend/pkg/config"
	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/logger"
)

type buyInRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
	Note     string `json:"note,omitempty" validate:"max=240"`
}

type cashOutRequest struct {
	PlayerID           string `json:"player_id" validate:"required"`
	Amount             string `json:"amount" validate:"required"`
	OrganizerConfirmed bool   `json:"organizer_confirmed,omitempty"`
}

type undoRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=240"`
}

type transactionResponse struct {
	ID            uuid.UUID               `json:"id"`
	SessionID     uuid.UUID               `json:"session_id"`
	PlayerID      uuid.UUID               `json:"player_id"`
	Type          enums.TransactionType   `json:"type"`
	Amount        string                  `json:"amount"`
	Method        enums.TransactionMethod `json:"method"`
	CreatedBy     string                  `json:"created_by"`
	Note          *string                 `json:"note,omitempty"`
	IsVoided      bool                    `json:"is_voided"`
	VoidReason    *string                 `json:"void_reason,omitempty"`
	VoidedAt      *time.Time              `json:"voided_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UndoableUntil *time.Time              `json:"undoable_until,omitempty"`
}

func transactionResponseFromModel(m *models.Transaction, undoWindow time.Duration) transactionResponse {
	resp := transactionResponse{
		ID:         m.ID,
		SessionID:  m.SessionID,
		PlayerID:   m.PlayerID,
		Type:       m.Type,
		Amount:     m.Amount.StringFixed(2),
		Method:     m.Method,
		CreatedBy:  m.CreatedBy,
		Note:       m.Note,
		IsVoided:   m.IsVoided,
		VoidReason: m.VoidReason,
		VoidedAt:   m.VoidedAt,
		CreatedAt:  m.CreatedAt,
	}
	if undoWindow > 0 && !m.IsVoided {
		deadline := m.CreatedAt.Add(undoWindow)
		resp.UndoableUntil = &deadline
	}
	return resp
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}
	return amount, nil
}

func actorFromContext(r *http.Request) string {
	if claims := middleware.OrganizerFromContext(r.Context()); claims != nil {
		return claims.Organizer
	}
	return "organizer"
}

// BuyInCreate records a chip purchase for a seated player.
func BuyInCreate(svc ledger.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload buyInRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		playerID, err := uuid.Parse(strings.TrimSpace(payload.PlayerID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid player_id"))
			return
		}
		amount, err := parseAmount(payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var note *string
		if trimmed := strings.TrimSpace(payload.Note); trimmed != "" {
			note = &trimmed
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPlayerID(ctx, playerID.String())
		}
		txn, err := svc.RecordBuyIn(ctx, ledger.RecordBuyInInput{
			SessionID: sessionID,
			PlayerID:  playerID,
			Amount:    amount,
			Method:    enums.TransactionMethodManual,
			Actor:     actorFromContext(r),
			Note:      note,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transactionResponseFromModel(txn, cfg.Ledger.UndoWindow))
	}
}

// CashOutCreate records a player's full exit from the game.
func CashOutCreate(svc ledger.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cashOutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		playerID, err := uuid.Parse(strings.TrimSpace(payload.PlayerID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid player_id"))
			return
		}
		amount, err := parseAmount(payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPlayerID(ctx, playerID.String())
		}
		txn, err := svc.RecordCashOut(ctx, ledger.RecordCashOutInput{
			SessionID:          sessionID,
			PlayerID:           playerID,
			Amount:             amount,
			Method:             enums.TransactionMethodManual,
			Actor:              actorFromContext(r),
			OrganizerConfirmed: payload.OrganizerConfirmed,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transactionResponseFromModel(txn, cfg.Ledger.UndoWindow))
	}
}

// TransactionUndo reverses a transaction still inside its undo window.
func TransactionUndo(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transactionID, err := validators.ParseUUIDParam(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithTransactionID(ctx, transactionID.String())
		}

		var reason *string
		if r.ContentLength > 0 {
			var payload undoRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if trimmed := strings.TrimSpace(payload.Reason); trimmed != "" {
				reason = &trimmed
			}
		}

		if err := svc.UndoTransaction(ctx, transactionID, reason); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"transaction_id": transactionID, "voided": true})
	}
}

// TransactionList returns the session's full audit trail, voided rows
// included, oldest first.
func TransactionList(svc ledger.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, err := svc.ListTransactions(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]transactionResponse, 0, len(txns))
		for i := range txns {
			out = append(out, transactionResponseFromModel(&txns[i], cfg.Ledger.UndoWindow))
		}
		responses.WriteSuccess(w, out)
	}
}
