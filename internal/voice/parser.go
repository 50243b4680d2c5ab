package voice

import (
	"regexp"
	"strings"

	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Intent is the action a spoken command resolves to.
type Intent string

const (
	IntentBuyIn   Intent = "buy_in"
	IntentCashOut Intent = "cash_out"
)

// Command is the structured form of a recognized utterance.
type Command struct {
	Intent     Intent          `json:"intent"`
	PlayerName string          `json:"player_name"`
	Amount     decimal.Decimal `json:"amount"`
	Raw        string          `json:"raw"`
}

// Utterance shapes the table actually produces. Recognition engines hand
// back lowercase text with no punctuation, so the patterns assume that
// after normalization.
var (
	// "dana buys in for 50", "add 20 for tom", "tom rebuys 100"
	buyInPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(?P<name>[a-z][a-z ]*?) (?:buys? in|rebuys?)(?: for)? \$?(?P<amount>\d+(?:\.\d{1,2})?)$`),
		regexp.MustCompile(`^(?:add|buy in) \$?(?P<amount>\d+(?:\.\d{1,2})?) for (?P<name>[a-z][a-z ]*)$`),
	}
	// "cash out tom 20", "tom cashes out 20", "tom cashes out for 20"
	cashOutPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^cash out (?P<name>[a-z][a-z ]*?) \$?(?P<amount>\d+(?:\.\d{1,2})?)$`),
		regexp.MustCompile(`^(?P<name>[a-z][a-z ]*?) cashes? out(?: for)? \$?(?P<amount>\d+(?:\.\d{1,2})?)$`),
	}
)

// Parse turns a raw utterance into a Command. It fails with a validation
// error when no pattern matches or the amount does not parse.
func Parse(utterance string) (*Command, error) {
	raw := utterance
	text := normalize(utterance)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty voice command")
	}

	if cmd := match(cashOutPatterns, IntentCashOut, text, raw); cmd != nil {
		return cmd, nil
	}
	if cmd := match(buyInPatterns, IntentBuyIn, text, raw); cmd != nil {
		return cmd, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "could not understand voice command").
		WithDetails(map[string]any{"utterance": raw})
}

func match(patterns []*regexp.Regexp, intent Intent, text, raw string) *Command {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var name, amountStr string
		for i, group := range re.SubexpNames() {
			switch group {
			case "name":
				name = strings.TrimSpace(m[i])
			case "amount":
				amountStr = m[i]
			}
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil || !amount.IsPositive() {
			continue
		}
		return &Command{
			Intent:     intent,
			PlayerName: name,
			Amount:     types.Round2(amount),
			Raw:        raw,
		}
	}
	return nil
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".!?")
	return strings.Join(strings.Fields(s), " ")
}
