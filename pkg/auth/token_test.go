package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/chipledger-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "chipledger",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseOrganizerToken(t *testing.T) {
	cfg := testJWTConfig()
	sessionID := uuid.New()
	now := time.Now()

	signed, err := MintOrganizerToken(cfg, now, OrganizerTokenPayload{
		SessionID: sessionID,
		Organizer: "dana",
	})
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := ParseOrganizerToken(cfg, signed)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, "dana", claims.Organizer)
	assert.Equal(t, "chipledger", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestMintOrganizerTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	_, err := MintOrganizerToken(cfg, now, OrganizerTokenPayload{Organizer: "dana"})
	assert.Error(t, err, "missing session id")

	_, err = MintOrganizerToken(cfg, now, OrganizerTokenPayload{SessionID: uuid.New()})
	assert.Error(t, err, "missing organizer")

	noSecret := cfg
	noSecret.Secret = ""
	_, err = MintOrganizerToken(noSecret, now, OrganizerTokenPayload{SessionID: uuid.New(), Organizer: "dana"})
	assert.Error(t, err, "missing secret")
}

func TestParseOrganizerTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintOrganizerToken(cfg, time.Now().Add(-2*time.Hour), OrganizerTokenPayload{
		SessionID: uuid.New(),
		Organizer: "dana",
	})
	require.NoError(t, err)

	_, err = ParseOrganizerToken(cfg, signed)
	assert.Error(t, err)
}

func TestParseOrganizerTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintOrganizerToken(cfg, time.Now(), OrganizerTokenPayload{
		SessionID: uuid.New(),
		Organizer: "dana",
	})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different"
	_, err = ParseOrganizerToken(other, signed)
	assert.Error(t, err)
}
