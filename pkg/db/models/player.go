package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chipledger-backend/pkg/enums"
)

// Player is a seat in a session. While active, CurrentBalance equals
// TotalBuyIns minus TotalCashOuts.
type Player struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID      uuid.UUID          `gorm:"column:session_id;type:uuid;not null"`
	Name           string             `gorm:"column:name;not null"`
	ProfileID      *uuid.UUID         `gorm:"column:profile_id;type:uuid"`
	Status         enums.PlayerStatus `gorm:"column:status;type:player_status;not null;default:'active'"`
	CurrentBalance decimal.Decimal    `gorm:"column:current_balance;type:numeric(12,2);not null"`
	TotalBuyIns    decimal.Decimal    `gorm:"column:total_buy_ins;type:numeric(12,2);not null"`
	TotalCashOuts  decimal.Decimal    `gorm:"column:total_cash_outs;type:numeric(12,2);not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// NetPosition is the player's settlement input: cash-outs plus whatever is
// still in front of them, minus what they paid in.
func (p Player) NetPosition() decimal.Decimal {
	return p.TotalCashOuts.Add(p.CurrentBalance).Sub(p.TotalBuyIns)
}
