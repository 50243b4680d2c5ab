package settlement

import (
	"testing"

	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(name string, net float64) NetPosition {
	return NetPosition{
		PlayerID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(),
		PlayerName: name,
		Net:        decimal.NewFromFloat(net),
	}
}

func TestSettleBalancedTable(t *testing.T) {
	transfers, err := Settle([]NetPosition{
		pos("alice", 12),
		pos("bob", -2),
		pos("carol", -5),
		pos("dana", -5),
	})
	require.NoError(t, err)
	require.Len(t, transfers, 3)

	// Largest debtor pays the lone winner first; ties on magnitude keep
	// their input order.
	assert.Equal(t, "carol", transfers[0].FromPlayerName)
	assert.Equal(t, "alice", transfers[0].ToPlayerName)
	assert.True(t, transfers[0].Amount.Equal(decimal.NewFromInt(5)))

	assert.Equal(t, "dana", transfers[1].FromPlayerName)
	assert.True(t, transfers[1].Amount.Equal(decimal.NewFromInt(5)))

	assert.Equal(t, "bob", transfers[2].FromPlayerName)
	assert.True(t, transfers[2].Amount.Equal(decimal.NewFromInt(2)))

	paid := decimal.Zero
	for _, tr := range transfers {
		paid = paid.Add(tr.Amount)
	}
	assert.True(t, paid.Equal(decimal.NewFromInt(12)))
}

func TestSettleTransferBound(t *testing.T) {
	positions := []NetPosition{
		pos("a", 40),
		pos("b", 15),
		pos("c", -20),
		pos("d", -20),
		pos("e", -15),
	}
	transfers, err := Settle(positions)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(transfers), len(positions)-1)
}

func TestSettleAllEven(t *testing.T) {
	transfers, err := Settle([]NetPosition{pos("a", 0), pos("b", 0)})
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestSettleEmptyInput(t *testing.T) {
	transfers, err := Settle(nil)
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestSettleUnbalancedNetsRejected(t *testing.T) {
	_, err := Settle([]NetPosition{pos("a", 10), pos("b", -9)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvariantViolation))
}

func TestSettleToleratesCentDrift(t *testing.T) {
	// One cent of rounding drift stays within the money tolerance.
	transfers, err := Settle([]NetPosition{pos("a", 10.00), pos("b", -9.99)})
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "b", transfers[0].FromPlayerName)
	assert.True(t, transfers[0].Amount.Equal(decimal.NewFromFloat(9.99)))
}

func TestSettleDeterministicOrder(t *testing.T) {
	build := func() []NetPosition {
		return []NetPosition{
			pos("zoe", -10),
			pos("amy", 10),
			pos("max", -10),
			pos("ivy", 10),
		}
	}
	first, err := Settle(build())
	require.NoError(t, err)
	second, err := Settle(build())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Equal magnitudes keep their input order: zoe seated before max,
	// amy before ivy.
	require.Len(t, first, 2)
	assert.Equal(t, "zoe", first[0].FromPlayerName)
	assert.Equal(t, "amy", first[0].ToPlayerName)
	assert.Equal(t, "max", first[1].FromPlayerName)
	assert.Equal(t, "ivy", first[1].ToPlayerName)
}

func TestNetPositions(t *testing.T) {
	players := []models.Player{
		{
			ID:             uuid.New(),
			Name:           "alice",
			TotalBuyIns:    decimal.NewFromInt(10),
			TotalCashOuts:  decimal.NewFromInt(22),
			CurrentBalance: decimal.Zero,
		},
		{
			ID:             uuid.New(),
			Name:           "bob",
			TotalBuyIns:    decimal.NewFromInt(10),
			TotalCashOuts:  decimal.NewFromInt(8),
			CurrentBalance: decimal.Zero,
		},
	}
	nets := NetPositions(players)
	require.Len(t, nets, 2)
	assert.True(t, nets[0].Net.Equal(decimal.NewFromInt(12)))
	assert.True(t, nets[1].Net.Equal(decimal.NewFromInt(-2)))
}
