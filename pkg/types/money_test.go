package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestWithinEpsilon(t *testing.T) {
	a := decimal.NewFromFloat(5.00)
	b := decimal.NewFromFloat(5.01)
	if !WithinEpsilon(a, b) {
		t.Fatalf("expected %s and %s to be within tolerance", a, b)
	}
	c := decimal.NewFromFloat(5.02)
	if WithinEpsilon(a, c) {
		t.Fatalf("expected %s and %s to differ", a, c)
	}
}

func TestIsZeroAmount(t *testing.T) {
	if !IsZeroAmount(decimal.NewFromFloat(0.005)) {
		t.Fatalf("half a cent should net to zero")
	}
	if IsZeroAmount(decimal.NewFromFloat(0.02)) {
		t.Fatalf("two cents is not zero")
	}
}

func TestRound2(t *testing.T) {
	got := Round2(decimal.NewFromFloat(7.456))
	if !got.Equal(decimal.NewFromFloat(7.46)) {
		t.Fatalf("unexpected rounding result %s", got)
	}
}
