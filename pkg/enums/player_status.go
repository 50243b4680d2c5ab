package enums

import "fmt"

// PlayerStatus maps to the player_status enum in Postgres.
type PlayerStatus string

const (
	PlayerStatusActive    PlayerStatus = "active"
	PlayerStatusCashedOut PlayerStatus = "cashed_out"
)

var validPlayerStatuses = []PlayerStatus{
	PlayerStatusActive,
	PlayerStatusCashedOut,
}

// String implements fmt.Stringer.
func (p PlayerStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlayerStatus.
func (p PlayerStatus) IsValid() bool {
	for _, candidate := range validPlayerStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlayerStatus converts raw input into a PlayerStatus.
func ParsePlayerStatus(value string) (PlayerStatus, error) {
	for _, candidate := range validPlayerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid player status %q", value)
}
