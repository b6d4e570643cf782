package collab

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RosterMember is one accepted contributor with the time of acceptance.
type RosterMember struct {
	AuthorID     uuid.UUID `json:"author_id"`
	DateAccepted time.Time `json:"date_accepted"`
}

// Roster is the durable record of who actually joined a material, created
// lazily on the first acceptance. Membership updates run in lockstep with
// the material's contributor list: both change or neither does.
type Roster struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"material_id"`

	Contributors datatypes.JSON `gorm:"column:contributors;type:jsonb;not null" json:"contributors"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Roster) TableName() string { return "collaboration_roster" }

func (r *Roster) Members() []RosterMember {
	var members []RosterMember
	if len(r.Contributors) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Contributors, &members); err != nil {
		return nil
	}
	return members
}

// AddMember appends authorID with the given acceptance time unless already
// present. Reports whether the roster changed.
func (r *Roster) AddMember(authorID uuid.UUID, acceptedAt time.Time) bool {
	members := r.Members()
	for _, m := range members {
		if m.AuthorID == authorID {
			return false
		}
	}
	members = append(members, RosterMember{AuthorID: authorID, DateAccepted: acceptedAt})
	raw, err := json.Marshal(members)
	if err != nil {
		return false
	}
	r.Contributors = raw
	return true
}
