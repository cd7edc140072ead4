package workspace

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Theme struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string                      `gorm:"column:name;not null" json:"name"`
	Description      string                      `gorm:"column:description" json:"description"`
	ProjectID        uuid.UUID                   `gorm:"type:uuid;not null;index" json:"project_id"`
	CreatedBy        uuid.UUID                   `gorm:"type:uuid;not null;index" json:"created_by"`
	SourceCodebookID *uuid.UUID                  `gorm:"type:uuid;index" json:"source_codebook_id,omitempty"`
	IsAutoGenerated  bool                        `gorm:"column:is_auto_generated;not null;default:false" json:"is_auto_generated"`
	RelatedCodes     datatypes.JSONSlice[string] `gorm:"column:related_codes" json:"related_codes"`
	Reasoning        string                      `gorm:"column:reasoning" json:"reasoning,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Theme) TableName() string { return "theme" }

func (t *Theme) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
