package engagement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Rating struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;index:idx_rating_material_user,priority:1" json:"material_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_rating_material_user,priority:2" json:"user_id"`
	Value      int       `gorm:"column:value;not null" json:"value"`
	RatedAt    time.Time `gorm:"column:rated_at;not null;default:now()" json:"rated_at"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Rating) TableName() string { return "material_rating" }

type Comment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;index" json:"material_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Body       string    `gorm:"column:body;not null" json:"body"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Comment) TableName() string { return "material_comment" }

// ReadingListEntry records one user's access to one material plus their
// personal read/download counters.
type ReadingListEntry struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_reading_user_material,priority:1" json:"user_id"`
	MaterialID    uuid.UUID `gorm:"type:uuid;not null;index:idx_reading_user_material,priority:2" json:"material_id"`
	DateAccessed  time.Time `gorm:"column:date_accessed;not null;default:now()" json:"date_accessed"`
	ReadCount     int64     `gorm:"column:read_count;not null;default:0" json:"read_count"`
	DownloadCount int64     `gorm:"column:download_count;not null;default:0" json:"download_count"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReadingListEntry) TableName() string { return "reading_list" }
