package controllers

import (
	"net/http"

	"github.com/angelmondragon/chipledger-backend/api/responses"
	"github.com/angelmondragon/chipledger-backend/api/validators"
	"github.com/angelmondragon/chipledger-backend/internal/ledger"
	"github.com/angelmondragon/chipledger-backend/internal/registry"
	"github.com/angelmondragon/chipledger-backend/internal/voice"
	"github.com/angelmondragon/chipledger-backend/pkg/config"
	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/logger"
)

type voiceCommandRequest struct {
	Utterance          string `json:"utterance" validate:"required,max=240"`
	OrganizerConfirmed bool   `json:"organizer_confirmed,omitempty"`
}

// VoiceCommand interprets a transcribed utterance and applies the resulting
// buy-in or cash-out to the ledger.
func VoiceCommand(registrySvc registry.Service, ledgerSvc ledger.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload voiceCommandRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cmd, err := voice.Parse(payload.Utterance)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		player, err := registrySvc.ResolvePlayerByName(r.Context(), sessionID, cmd.PlayerName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"voice_intent": string(cmd.Intent),
				"voice_player": cmd.PlayerName,
			})
			logg.Info(ctx, "voice.command")
		}

		var txn *models.Transaction
		switch cmd.Intent {
		case voice.IntentBuyIn:
			txn, err = ledgerSvc.RecordBuyIn(r.Context(), ledger.RecordBuyInInput{
				SessionID: sessionID,
				PlayerID:  player.ID,
				Amount:    cmd.Amount,
				Method:    enums.TransactionMethodVoice,
				Actor:     actorFromContext(r),
				Note:      &cmd.Raw,
			})
		case voice.IntentCashOut:
			txn, err = ledgerSvc.RecordCashOut(r.Context(), ledger.RecordCashOutInput{
				SessionID:          sessionID,
				PlayerID:           player.ID,
				Amount:             cmd.Amount,
				Method:             enums.TransactionMethodVoice,
				Actor:              actorFromContext(r),
				OrganizerConfirmed: payload.OrganizerConfirmed,
			})
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "unsupported voice intent")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"command":     cmd,
			"transaction": transactionResponseFromModel(txn, cfg.Ledger.UndoWindow),
		})
	}
}
