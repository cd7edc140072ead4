package coding

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultCodebookName        = "Default Codebook"
	DefaultCodebookDescription = "Default codebook for user-created codes."
)

// Session types used as the name prefix of AI-generated codebooks.
const (
	SessionInitialCoding   = "AI_initial_coding"
	SessionDeductiveCoding = "AI_deductive_coding"
)

// Codebook is an owned container of codes. At most one non-AI codebook exists
// per (user, project); that row is the user's default codebook.
type Codebook struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"column:name;not null;uniqueIndex:idx_codebook_project_user_name,priority:3" json:"name"`
	Description   string    `gorm:"column:description" json:"description"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_codebook_project_user_name,priority:2;uniqueIndex:idx_codebook_default,where:is_ai_generated = false" json:"user_id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_codebook_project_user_name,priority:1;uniqueIndex:idx_codebook_default,where:is_ai_generated = false" json:"project_id"`
	IsAIGenerated bool      `gorm:"column:is_ai_generated;not null;default:false" json:"is_ai_generated"`
	Finalized     bool      `gorm:"column:finalized;not null;default:false" json:"finalized"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Codebook) TableName() string { return "codebook" }

func (c *Codebook) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
