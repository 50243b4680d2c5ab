package voice

import (
	"testing"

	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuyIn(t *testing.T) {
	tests := []struct {
		utterance string
		name      string
		amount    string
	}{
		{"Dana buys in for 50", "dana", "50"},
		{"tom buys in 25.50", "tom", "25.5"},
		{"Mary Ann rebuys for $100", "mary ann", "100"},
		{"add 20 for tom", "tom", "20"},
		{"  Buy in $75 for dana  ", "dana", "75"},
	}
	for _, tc := range tests {
		t.Run(tc.utterance, func(t *testing.T) {
			cmd, err := Parse(tc.utterance)
			require.NoError(t, err)
			assert.Equal(t, IntentBuyIn, cmd.Intent)
			assert.Equal(t, tc.name, cmd.PlayerName)
			want, _ := decimal.NewFromString(tc.amount)
			assert.True(t, cmd.Amount.Equal(want))
			assert.Equal(t, tc.utterance, cmd.Raw)
		})
	}
}

func TestParseCashOut(t *testing.T) {
	tests := []struct {
		utterance string
		name      string
		amount    string
	}{
		{"cash out tom 20", "tom", "20"},
		{"Tom cashes out 20", "tom", "20"},
		{"dana cashes out for $32.75", "dana", "32.75"},
	}
	for _, tc := range tests {
		t.Run(tc.utterance, func(t *testing.T) {
			cmd, err := Parse(tc.utterance)
			require.NoError(t, err)
			assert.Equal(t, IntentCashOut, cmd.Intent)
			assert.Equal(t, tc.name, cmd.PlayerName)
			want, _ := decimal.NewFromString(tc.amount)
			assert.True(t, cmd.Amount.Equal(want))
		})
	}
}

func TestParseRejectsUnparseable(t *testing.T) {
	for _, utterance := range []string{
		"",
		"   ",
		"deal the cards",
		"tom buys in for zero",
		"buys in for 50",
	} {
		t.Run(utterance, func(t *testing.T) {
			_, err := Parse(utterance)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}
