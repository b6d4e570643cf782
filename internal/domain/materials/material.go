package materials

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Material is one uploaded work. The payload itself lives in the content
// store under StorageKey as compressed bytes; ContentHash is the sha256 hex
// digest over those compressed bytes and is recomputed whenever the stored
// file changes.
type Material struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`

	PrimaryAuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"primary_author_id"`

	// Contributors holds ids of registered co-authors; ExternalContributors
	// holds free-text names of unregistered ones. The primary author never
	// appears in either list.
	Contributors         datatypes.JSON `gorm:"column:contributors;type:jsonb" json:"contributors"`
	ExternalContributors datatypes.JSON `gorm:"column:external_contributors;type:jsonb" json:"external_contributors"`

	StorageKey  string `gorm:"column:storage_key;not null" json:"-"`
	ContentHash string `gorm:"column:content_hash;not null" json:"content_hash"`
	SizeBytes   int64  `gorm:"column:size_bytes" json:"size_bytes"`

	Image []byte `gorm:"column:image" json:"-"`

	MaterialType   string         `gorm:"column:material_type" json:"material_type"`
	TechnicalType  string         `gorm:"column:technical_type" json:"technical_type"`
	TargetAudience string         `gorm:"column:target_audience" json:"target_audience"`
	Disciplines    datatypes.JSON `gorm:"column:disciplines;type:jsonb" json:"disciplines"`

	Accessibility    datatypes.JSON `gorm:"column:accessibility;type:jsonb" json:"accessibility"`
	AuthorPermission bool           `gorm:"column:author_permission;not null;default:false" json:"author_permission"`

	TotalReads    int64   `gorm:"column:total_reads;not null;default:0" json:"total_reads"`
	TotalComments int64   `gorm:"column:total_comments;not null;default:0" json:"total_comments"`
	AverageRating float64 `gorm:"column:average_rating;not null;default:0" json:"average_rating"`

	DateUploaded time.Time      `gorm:"column:date_uploaded;not null;default:now()" json:"date_uploaded"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Material) TableName() string { return "material" }

func (m *Material) ContributorIDs() []uuid.UUID {
	return decodeUUIDList(m.Contributors)
}

func (m *Material) SetContributorIDs(ids []uuid.UUID) {
	m.Contributors = encodeUUIDList(ids)
}

// AddContributorID appends id unless it is already present or is the primary
// author. Reports whether the list changed.
func (m *Material) AddContributorID(id uuid.UUID) bool {
	if id == m.PrimaryAuthorID {
		return false
	}
	ids := m.ContributorIDs()
	for _, existing := range ids {
		if existing == id {
			return false
		}
	}
	m.SetContributorIDs(append(ids, id))
	return true
}

func (m *Material) ExternalContributorNames() []string {
	var names []string
	if len(m.ExternalContributors) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.ExternalContributors, &names); err != nil {
		return nil
	}
	return names
}

func (m *Material) SetExternalContributorNames(names []string) {
	if names == nil {
		names = []string{}
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return
	}
	m.ExternalContributors = raw
}

func (m *Material) DisciplineNames() []string {
	var names []string
	if len(m.Disciplines) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Disciplines, &names); err != nil {
		return nil
	}
	return names
}

func (m *Material) AccessRule() AccessRule {
	rule, err := ParseAccessRule(m.Accessibility)
	if err != nil {
		return AccessRule{Open: true}
	}
	return rule
}

// IsOwner reports whether id is the primary author or a registered
// contributor. Ownership overrides role gating at the access gate.
func (m *Material) IsOwner(id uuid.UUID) bool {
	if id == uuid.Nil {
		return false
	}
	if id == m.PrimaryAuthorID {
		return true
	}
	for _, c := range m.ContributorIDs() {
		if c == id {
			return true
		}
	}
	return false
}

func decodeUUIDList(raw datatypes.JSON) []uuid.UUID {
	if len(raw) == 0 {
		return nil
	}
	var strs []string
	if err := json.Unmarshal(raw, &strs); err != nil {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(strs))
	for _, s := range strs {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func encodeUUIDList(ids []uuid.UUID) datatypes.JSON {
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	raw, err := json.Marshal(strs)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return raw
}
