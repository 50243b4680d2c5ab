package undo

import (
	"testing"
	"time"

	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestManager(window time.Duration, at time.Time) (*Manager, *time.Time) {
	clock := at
	m := NewManager(window)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestManagerWindow(t *testing.T) {
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	m, clock := newTestManager(30*time.Second, base)

	txn := &models.Transaction{ID: uuid.New(), CreatedAt: base}
	m.Add(txn)

	assert.True(t, m.CanUndo(txn.ID))
	assert.Equal(t, 30*time.Second, m.Remaining(txn.ID))

	*clock = base.Add(29 * time.Second)
	assert.True(t, m.CanUndo(txn.ID))
	assert.Equal(t, time.Second, m.Remaining(txn.ID))

	*clock = base.Add(31 * time.Second)
	assert.False(t, m.CanUndo(txn.ID))
	assert.Equal(t, time.Duration(0), m.Remaining(txn.ID))

	// Lazy expiry removed the entry entirely.
	*clock = base
	assert.False(t, m.CanUndo(txn.ID))
}

func TestManagerUnknownTransaction(t *testing.T) {
	m, _ := newTestManager(30*time.Second, time.Now())
	assert.False(t, m.CanUndo(uuid.New()))
	assert.Equal(t, time.Duration(0), m.Remaining(uuid.New()))
}

func TestManagerRemove(t *testing.T) {
	base := time.Now()
	m, _ := newTestManager(30*time.Second, base)
	txn := &models.Transaction{ID: uuid.New(), CreatedAt: base}
	m.Add(txn)
	m.Remove(txn.ID)
	assert.False(t, m.CanUndo(txn.ID))
}

func TestManagerWindowStartsAtTransactionTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	m, clock := newTestManager(30*time.Second, base.Add(10*time.Second))

	// Registered ten seconds after the write; the window still keys off the
	// transaction timestamp.
	txn := &models.Transaction{ID: uuid.New(), CreatedAt: base}
	m.Add(txn)
	assert.Equal(t, 20*time.Second, m.Remaining(txn.ID))

	*clock = base.Add(35 * time.Second)
	assert.False(t, m.CanUndo(txn.ID))
}

func TestManagerNilTransaction(t *testing.T) {
	m, _ := newTestManager(30*time.Second, time.Now())
	m.Add(nil)
	assert.False(t, m.CanUndo(uuid.Nil))
}
