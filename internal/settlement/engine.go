package settlement

import (
	"sort"

	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// NetPosition is one player's final result for the night.
type NetPosition struct {
	PlayerID   string          `json:"player_id"`
	PlayerName string          `json:"player_name"`
	Net        decimal.Decimal `json:"net"`
}

// Transfer is one payment instruction: debtor pays creditor.
type Transfer struct {
	FromPlayerID   string          `json:"from_player_id"`
	FromPlayerName string          `json:"from_player_name"`
	ToPlayerID     string          `json:"to_player_id"`
	ToPlayerName   string          `json:"to_player_name"`
	Amount         decimal.Decimal `json:"amount"`
}

// NetPositions derives each player's net result from their ledger totals.
func NetPositions(players []models.Player) []NetPosition {
	out := make([]NetPosition, 0, len(players))
	for _, p := range players {
		out = append(out, NetPosition{
			PlayerID:   p.ID.String(),
			PlayerName: p.Name,
			Net:        types.Round2(p.NetPosition()),
		})
	}
	return out
}

// Settle converts net positions into a minimal set of transfers by pairing
// the largest creditor with the largest debtor until both sides drain. For
// N players with nonzero nets it emits at most N-1 transfers.
func Settle(positions []NetPosition) ([]Transfer, error) {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.Net)
	}
	if !types.IsZeroAmount(total) {
		return nil, pkgerrors.New(pkgerrors.CodeInvariantViolation, "net positions do not sum to zero").
			WithDetails(map[string]any{"net_total": total.StringFixed(2)})
	}

	var creditors, debtors []NetPosition
	for _, p := range positions {
		switch {
		case types.IsZeroAmount(p.Net):
			continue
		case p.Net.IsPositive():
			creditors = append(creditors, p)
		default:
			debtors = append(debtors, NetPosition{
				PlayerID:   p.PlayerID,
				PlayerName: p.PlayerName,
				Net:        p.Net.Neg(),
			})
		}
	}

	// Largest first; the stable sort keeps equal magnitudes in input order.
	byMagnitude := func(list []NetPosition) func(i, j int) bool {
		return func(i, j int) bool {
			return list[i].Net.GreaterThan(list[j].Net)
		}
	}
	sort.SliceStable(creditors, byMagnitude(creditors))
	sort.SliceStable(debtors, byMagnitude(debtors))

	transfers := make([]Transfer, 0, len(creditors)+len(debtors))
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		c, d := &creditors[ci], &debtors[di]
		amount := decimal.Min(c.Net, d.Net)
		transfers = append(transfers, Transfer{
			FromPlayerID:   d.PlayerID,
			FromPlayerName: d.PlayerName,
			ToPlayerID:     c.PlayerID,
			ToPlayerName:   c.PlayerName,
			Amount:         types.Round2(amount),
		})
		c.Net = c.Net.Sub(amount)
		d.Net = d.Net.Sub(amount)
		if types.IsZeroAmount(c.Net) {
			ci++
		}
		if types.IsZeroAmount(d.Net) {
			di++
		}
	}
	return transfers, nil
}
