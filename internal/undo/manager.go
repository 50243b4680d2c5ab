package undo

import (
	"sync"
	"time"

	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Manager tracks which transactions are still inside their reversal window.
// Entries expire lazily on read; nothing runs in the background.
type Manager struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[uuid.UUID]time.Time
	now     func() time.Time
}

// NewManager builds a window index with the given undo duration.
func NewManager(window time.Duration) *Manager {
	return &Manager{
		window:  window,
		entries: make(map[uuid.UUID]time.Time),
		now:     time.Now,
	}
}

// Add registers a freshly committed transaction. The window starts at the
// transaction's recorded time, not at the call.
func (m *Manager) Add(txn *models.Transaction) {
	if txn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[txn.ID] = txn.CreatedAt.Add(m.window)
}

// CanUndo reports whether the transaction is still reversible. Expired
// entries are dropped on the way out.
func (m *Manager) CanUndo(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	deadline, ok := m.entries[id]
	if !ok {
		return false
	}
	if m.now().After(deadline) {
		delete(m.entries, id)
		return false
	}
	return true
}

// Remaining returns how much of the window is left, clamped to zero.
func (m *Manager) Remaining(id uuid.UUID) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	deadline, ok := m.entries[id]
	if !ok {
		return 0
	}
	left := deadline.Sub(m.now())
	if left < 0 {
		delete(m.entries, id)
		return 0
	}
	return left
}

// Remove drops a transaction from the index, whether undone or expired.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}
