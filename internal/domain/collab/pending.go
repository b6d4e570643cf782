package collab

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingEntry is the denormalized per-invitee row behind "my pending
// requests" lookups. Its Action mirrors the invitee's action inside the
// parent request and both are written in the same transaction.
type PendingEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RequestID   uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	RequestedTo uuid.UUID `gorm:"type:uuid;not null;index" json:"requested_to"`
	Action      string    `gorm:"column:action;not null;default:'pending'" json:"action"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PendingEntry) TableName() string { return "pending_collaboration" }
