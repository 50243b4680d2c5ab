package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/chipledger-backend/api/responses"
	"github.com/angelmondragon/chipledger-backend/api/validators"
	"github.com/angelmondragon/chipledger-backend/internal/registry"
	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/logger"
)

type playerAddRequest struct {
	Name      string `json:"name" validate:"required,max=80"`
	ProfileID string `json:"profile_id,omitempty"`
}

type playerResponse struct {
	ID             uuid.UUID          `json:"id"`
	SessionID      uuid.UUID          `json:"session_id"`
	Name           string             `json:"name"`
	ProfileID      *uuid.UUID         `json:"profile_id,omitempty"`
	Status         enums.PlayerStatus `json:"status"`
	CurrentBalance string             `json:"current_balance"`
	TotalBuyIns    string             `json:"total_buy_ins"`
	TotalCashOuts  string             `json:"total_cash_outs"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func playerResponseFromModel(m *models.Player) playerResponse {
	return playerResponse{
		ID:             m.ID,
		SessionID:      m.SessionID,
		Name:           m.Name,
		ProfileID:      m.ProfileID,
		Status:         m.Status,
		CurrentBalance: m.CurrentBalance.StringFixed(2),
		TotalBuyIns:    m.TotalBuyIns.StringFixed(2),
		TotalCashOuts:  m.TotalCashOuts.StringFixed(2),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// PlayerAdd seats a new player in an active session.
func PlayerAdd(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload playerAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var profileID *uuid.UUID
		if raw := strings.TrimSpace(payload.ProfileID); raw != "" {
			parsed, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid profile_id"))
				return
			}
			profileID = &parsed
		}

		player, err := svc.AddPlayer(r.Context(), registry.AddPlayerInput{
			SessionID: sessionID,
			Name:      payload.Name,
			ProfileID: profileID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, playerResponseFromModel(player))
	}
}

// PlayerList returns every seat in the session, active or cashed out.
func PlayerList(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		players, err := svc.ListPlayers(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]playerResponse, 0, len(players))
		for i := range players {
			out = append(out, playerResponseFromModel(&players[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
