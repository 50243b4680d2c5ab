package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/chipledger-backend/internal/ledger"
	"github.com/angelmondragon/chipledger-backend/internal/registry"
	pkgAuth "github.com/angelmondragon/chipledger-backend/pkg/auth"
	"github.com/angelmondragon/chipledger-backend/pkg/config"
	"github.com/angelmondragon/chipledger-backend/pkg/db/models"
	"github.com/angelmondragon/chipledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubRegistryService struct {
	session *models.Session
}

func (s *stubRegistryService) CreateSession(_ context.Context, input registry.CreateSessionInput) (*models.Session, error) {
	s.session = &models.Session{
		ID:        uuid.New(),
		Name:      input.Name,
		Status:    enums.SessionStatusActive,
		TotalPot:  decimal.Zero,
		CreatedBy: input.CreatedBy,
	}
	return s.session, nil
}

func (s *stubRegistryService) GetSession(_ context.Context, id uuid.UUID) (*models.Session, error) {
	if s.session == nil || s.session.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return s.session, nil
}

func (s *stubRegistryService) AddPlayer(_ context.Context, input registry.AddPlayerInput) (*models.Player, error) {
	return &models.Player{
		ID:        uuid.New(),
		SessionID: input.SessionID,
		Name:      input.Name,
		Status:    enums.PlayerStatusActive,
	}, nil
}

func (s *stubRegistryService) ListPlayers(context.Context, uuid.UUID) ([]models.Player, error) {
	return nil, nil
}

func (s *stubRegistryService) ResolvePlayerByName(context.Context, uuid.UUID, string) (*models.Player, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "player not found")
}

func (s *stubRegistryService) CompleteSession(context.Context, uuid.UUID) (*models.Session, error) {
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session pot is not empty")
}

func (s *stubRegistryService) Summary(context.Context, uuid.UUID) (*registry.SessionSummary, error) {
	return &registry.SessionSummary{}, nil
}

type stubLedgerService struct{}

func (stubLedgerService) RecordBuyIn(_ context.Context, input ledger.RecordBuyInInput) (*models.Transaction, error) {
	return &models.Transaction{
		ID:        uuid.New(),
		SessionID: input.SessionID,
		PlayerID:  input.PlayerID,
		Type:      enums.TransactionTypeBuyIn,
		Amount:    input.Amount,
		Method:    input.Method,
		CreatedBy: input.Actor,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (stubLedgerService) RecordCashOut(context.Context, ledger.RecordCashOutInput) (*models.Transaction, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInsufficientPot, "cash-out exceeds remaining pot")
}

func (stubLedgerService) UndoTransaction(context.Context, uuid.UUID, *string) error {
	return pkgerrors.New(pkgerrors.CodeUndoExpired, "transaction can no longer be undone")
}

func (stubLedgerService) ListTransactions(context.Context, uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "chipledger",
			ExpirationMinutes: 60,
		},
		Ledger: config.LedgerConfig{
			MinBuyIn:     "1",
			MaxBuyIn:     "500",
			UndoWindow:   30 * time.Second,
			DedupeWindow: 5 * time.Second,
			MaxPlayers:   23,
		},
	}
}

func newTestRouter(reg *stubRegistryService) (http.Handler, *config.Config) {
	cfg := testConfig()
	return NewRouter(cfg, nil, stubPinger{}, nil, reg, stubLedgerService{}, nil, nil), cfg
}

func TestHealthLive(t *testing.T) {
	router, _ := newTestRouter(&stubRegistryService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionCreateReturnsOrganizerToken(t *testing.T) {
	router, _ := newTestRouter(&stubRegistryService{})
	body := bytes.NewBufferString(`{"name":"friday game","organizer":"sam"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data struct {
			OrganizerToken string `json:"organizer_token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.NotEmpty(t, envelope.Data.OrganizerToken)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(&stubRegistryService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+uuid.NewString()+"/summary", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionTokenScopedToSession(t *testing.T) {
	reg := &stubRegistryService{}
	router, cfg := newTestRouter(reg)

	sessionID := uuid.New()
	token, err := pkgAuth.MintOrganizerToken(cfg.JWT, time.Now(), pkgAuth.OrganizerTokenPayload{
		SessionID: sessionID,
		Organizer: "sam",
	})
	require.NoError(t, err)

	// Token minted for one session rejected against another.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+uuid.NewString()+"/summary", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Matching session passes through to the handler.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sessionID.String()+"/summary", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuyInRouteWired(t *testing.T) {
	reg := &stubRegistryService{}
	router, cfg := newTestRouter(reg)

	sessionID := uuid.New()
	token, err := pkgAuth.MintOrganizerToken(cfg.JWT, time.Now(), pkgAuth.OrganizerTokenPayload{
		SessionID: sessionID,
		Organizer: "sam",
	})
	require.NoError(t, err)

	body := bytes.NewBufferString(`{"player_id":"` + uuid.NewString() + `","amount":"50"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/buy-ins", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data struct {
			Amount        string     `json:"amount"`
			UndoableUntil *time.Time `json:"undoable_until"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, "50.00", envelope.Data.Amount)
	assert.NotNil(t, envelope.Data.UndoableUntil)
}

func TestUndoRouteMapsExpiredToGone(t *testing.T) {
	router, cfg := newTestRouter(&stubRegistryService{})

	token, err := pkgAuth.MintOrganizerToken(cfg.JWT, time.Now(), pkgAuth.OrganizerTokenPayload{
		SessionID: uuid.New(),
		Organizer: "sam",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+uuid.NewString()+"/undo", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusGone, w.Code)
}
