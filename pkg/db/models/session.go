package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chipledger-backend/pkg/enums"
)

// Session is the money boundary of one cash game. While active its pot must
// equal the sum of its players' balances.
type Session struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string              `gorm:"column:name;not null"`
	Status       enums.SessionStatus `gorm:"column:status;type:session_status;not null;default:'active'"`
	TotalPot     decimal.Decimal     `gorm:"column:total_pot;type:numeric(12,2);not null"`
	PlayerCount  int                 `gorm:"column:player_count;not null;default:0"`
	CreatedBy    string              `gorm:"column:created_by;not null"`
	Players      []Player            `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Transactions []Transaction       `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	CompletedAt  *time.Time          `gorm:"column:completed_at"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
