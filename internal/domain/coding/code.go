package coding

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultCodeColor = "#3B82F6"

// Code is a named concept. Names are unique within a project. A code belongs to
// exactly one codebook; review may transfer it to another.
type Code struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string     `gorm:"column:name;not null;uniqueIndex:idx_code_project_name,priority:2" json:"name"`
	Description     string     `gorm:"column:description" json:"description"`
	Color           string     `gorm:"column:color;not null" json:"color"`
	ProjectID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_code_project_name,priority:1" json:"project_id"`
	CodebookID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"codebook_id"`
	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by"`
	IsAutoGenerated bool       `gorm:"column:is_auto_generated;not null;default:false" json:"is_auto_generated"`
	GroupName       *string    `gorm:"column:group_name" json:"group_name,omitempty"`
	ThemeID         *uuid.UUID `gorm:"type:uuid;index" json:"theme_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Code) TableName() string { return "code" }

func (c *Code) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Color == "" {
		c.Color = DefaultCodeColor
	}
	return nil
}
