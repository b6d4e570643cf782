package collab

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Per-invitee actions and the request-level statuses derived from them.
// Accepted and rejected are terminal for an invitee.
const (
	ActionPending  = "pending"
	ActionAccepted = "accepted"
	ActionRejected = "rejected"

	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Invitee is one entry of a request's invitation list, stored embedded on
// the request row.
type Invitee struct {
	AuthorID uuid.UUID `json:"author_id"`
	Action   string    `json:"action"`
}

// Request is a single invitation event: one material, one requester,
// N invitees. Status is always re-derived from the invitee actions.
type Request struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MaterialID  uuid.UUID `gorm:"type:uuid;not null;index" json:"material_id"`
	RequestedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"requested_by"`

	RequestedTo datatypes.JSON `gorm:"column:requested_to;type:jsonb;not null" json:"requested_to"`
	Status      string         `gorm:"column:status;not null;default:'pending'" json:"status"`

	DateRequested time.Time      `gorm:"column:date_requested;not null;default:now()" json:"date_requested"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Request) TableName() string { return "collaboration_request" }

func (r *Request) Invitees() []Invitee {
	var list []Invitee
	if len(r.RequestedTo) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.RequestedTo, &list); err != nil {
		return nil
	}
	return list
}

func (r *Request) SetInvitees(list []Invitee) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	r.RequestedTo = raw
	r.Status = DeriveStatus(list)
	return nil
}

// NewInvitees builds a pending invitation list for the given author ids.
func NewInvitees(authorIDs []uuid.UUID) []Invitee {
	list := make([]Invitee, 0, len(authorIDs))
	for _, id := range authorIDs {
		list = append(list, Invitee{AuthorID: id, Action: ActionPending})
	}
	return list
}

// DeriveStatus computes the aggregate request status: rejected if any
// invitee rejected, accepted only if all accepted, pending otherwise.
// Rejection wins over remaining pending entries.
func DeriveStatus(invitees []Invitee) string {
	if len(invitees) == 0 {
		return StatusPending
	}
	allAccepted := true
	for _, inv := range invitees {
		switch inv.Action {
		case ActionRejected:
			return StatusRejected
		case ActionAccepted:
		default:
			allAccepted = false
		}
	}
	if allAccepted {
		return StatusAccepted
	}
	return StatusPending
}
