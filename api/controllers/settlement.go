package controllers

import (
	"net/http"

	"github.com/angelmondragon/chipledger-backend/api/responses"
	"github.com/angelmondragon/chipledger-backend/api/validators"
	"github.com/angelmondragon/chipledger-backend/internal/registry"
	"github.com/angelmondragon/chipledger-backend/internal/settlement"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/logger"
	"github.com/angelmondragon/chipledger-backend/pkg/metrics"
)

type transferResponse struct {
	From   string `json:"from"`
	FromID string `json:"from_id"`
	To     string `json:"to"`
	ToID   string `json:"to_id"`
	Amount string `json:"amount"`
}

type netPositionResponse struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Net        string `json:"net"`
}

// SettlementCompute resolves who pays whom once everyone has cashed out.
func SettlementCompute(svc registry.Service, ledgerMetrics *metrics.LedgerMetrics, logg *logger.Logger) http.HandlerFunc {
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
		for _, p := range players {
			if p.Status == enums.PlayerStatusActive {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "settlement requires every player to cash out first"))
				return
			}
		}

		positions := settlement.NetPositions(players)
		transfers, err := settlement.Settle(positions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ledgerMetrics.ObserveTransfers(len(transfers))

		nets := make([]netPositionResponse, 0, len(positions))
		for _, p := range positions {
			nets = append(nets, netPositionResponse{
				PlayerID:   p.PlayerID,
				PlayerName: p.PlayerName,
				Net:        p.Net.StringFixed(2),
			})
		}
		out := make([]transferResponse, 0, len(transfers))
		for _, t := range transfers {
			out = append(out, transferResponse{
				From:   t.FromPlayerName,
				FromID: t.FromPlayerID,
				To:     t.ToPlayerName,
				ToID:   t.ToPlayerID,
				Amount: t.Amount.StringFixed(2),
			})
		}

		responses.WriteSuccess(w, map[string]any{
			"net_positions": nets,
			"transfers":     out,
		})
	}
}
