package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chipledger-backend/pkg/enums"
)

// Transaction is an immutable money movement. Rows are never deleted; a
// reversed transaction is flagged voided and keeps its original amounts for
// the audit trail.
type Transaction struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID  uuid.UUID               `gorm:"column:session_id;type:uuid;not null"`
	PlayerID   uuid.UUID               `gorm:"column:player_id;type:uuid;not null"`
	Type       enums.TransactionType   `gorm:"column:type;type:transaction_type;not null"`
	Amount     decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Method     enums.TransactionMethod `gorm:"column:method;type:transaction_method;not null;default:'manual'"`
	CreatedBy  string                  `gorm:"column:created_by;not null"`
	Note       *string                 `gorm:"column:note"`
	IsVoided   bool                    `gorm:"column:is_voided;not null;default:false"`
	VoidReason *string                 `gorm:"column:void_reason"`
	VoidedAt   *time.Time              `gorm:"column:voided_at"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
}
