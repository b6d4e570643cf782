package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Roles a profile may carry. An empty role means the profile is incomplete;
// the access gate reports that as its own outcome instead of admit/deny.
const (
	RoleStudent = "Student"
	RoleFaculty = "Faculty"
)

type Profile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	FirstName string `gorm:"column:first_name" json:"first_name"`
	LastName  string `gorm:"column:last_name" json:"last_name"`
	Role      string `gorm:"column:role" json:"role"`

	Occupation         string         `gorm:"column:occupation" json:"occupation"`
	PrimaryInstitution string         `gorm:"column:primary_institution" json:"primary_institution"`
	Description        string         `gorm:"column:description" json:"description"`
	Disciplines        datatypes.JSON `gorm:"column:disciplines;type:jsonb" json:"disciplines"`
	Image              []byte         `gorm:"column:image" json:"-"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Profile) TableName() string { return "user_profile" }

func (p *Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return "Unknown User"
	}
	return name
}

func (p *Profile) HasRole() bool {
	return strings.TrimSpace(p.Role) != ""
}
