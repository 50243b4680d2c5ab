package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/chipledger-backend/api/responses"
	"github.com/angelmondragon/chipledger-backend/api/validators"
	"github.com/angelmondragon/chipledger-backend/internal/registry"
	pkgAuth "github.com/angelmondragon/chipledger-backend/pkg/auth"
	"github.com/angelmondragon/chipledger-backend/pkg/config"
	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/logger"
)

type sessionCreateRequest struct {
	Name      string `json:"name" validate:"required,max=80"`
	Organizer string `json:"organizer" validate:"required,max=80"`
}

type sessionResponse struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Status      enums.SessionStatus `json:"status"`
	TotalPot    string              `json:"total_pot"`
	PlayerCount int                 `json:"player_count"`
	CreatedBy   string              `json:"created_by"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func sessionResponseFromModel(m *models.Session) sessionResponse {
	return sessionResponse{
		ID:          m.ID,
		Name:        m.Name,
		Status:      m.Status,
		TotalPot:    m.TotalPot.StringFixed(2),
		PlayerCount: m.PlayerCount,
		CreatedBy:   m.CreatedBy,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// SessionCreate opens a new session and hands back the organizer token that
// authorizes every later call against it.
func SessionCreate(svc registry.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		var payload sessionCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CreateSession(r.Context(), registry.CreateSessionInput{
			Name:      payload.Name,
			CreatedBy: payload.Organizer,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := pkgAuth.MintOrganizerToken(cfg.JWT, time.Now(), pkgAuth.OrganizerTokenPayload{
			SessionID: session.ID,
			Organizer: payload.Organizer,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint organizer token"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"session":         sessionResponseFromModel(session),
			"organizer_token": token,
		})
	}
}

// SessionDetail returns the current state of one session.
func SessionDetail(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.GetSession(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponseFromModel(session))
	}
}

type playerSummaryResponse struct {
	Player      playerResponse `json:"player"`
	NetPosition string         `json:"net_position"`
}

// SessionSummary returns the balance screen: per-player totals, net
// positions, whether the session can be completed, and once it can, the
// settlement plan.
func SessionSummary(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		players := make([]playerSummaryResponse, 0, len(summary.Players))
		for _, p := range summary.Players {
			players = append(players, playerSummaryResponse{
				Player:      playerResponseFromModel(&p.Player),
				NetPosition: p.NetPosition.StringFixed(2),
			})
		}

		out := map[string]any{
			"session":     sessionResponseFromModel(&summary.Session),
			"players":     players,
			"completable": summary.Completable,
		}
		if len(summary.Settlement) > 0 {
			transfers := make([]transferResponse, 0, len(summary.Settlement))
			for _, t := range summary.Settlement {
				transfers = append(transfers, transferResponse{
					From:   t.FromPlayerName,
					FromID: t.FromPlayerID,
					To:     t.ToPlayerName,
					ToID:   t.ToPlayerID,
					Amount: t.Amount.StringFixed(2),
				})
			}
			out["settlement"] = transfers
		}
		responses.WriteSuccess(w, out)
	}
}

// SessionComplete closes a drained session.
func SessionComplete(svc registry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.CompleteSession(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponseFromModel(session))
	}
}
