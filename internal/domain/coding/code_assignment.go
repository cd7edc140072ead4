package coding

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentPending  AssignmentStatus = "pending"
	AssignmentAccepted AssignmentStatus = "accepted"
	AssignmentRejected AssignmentStatus = "rejected"
)

func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	switch AssignmentStatus(s) {
	case AssignmentPending, AssignmentAccepted, AssignmentRejected:
		return AssignmentStatus(s), nil
	default:
		return "", fmt.Errorf("invalid status %q: must be one of pending, accepted, rejected", s)
	}
}

// CodeAssignment tags the span [StartChar, EndChar) of a document with a code.
type CodeAssignment struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_assignment_span,priority:1" json:"document_id"`
	CodeID       uuid.UUID        `gorm:"type:uuid;not null;index;index:idx_assignment_span,priority:2" json:"code_id"`
	StartChar    int              `gorm:"column:start_char;not null;index:idx_assignment_span,priority:3" json:"start_char"`
	EndChar      int              `gorm:"column:end_char;not null;index:idx_assignment_span,priority:4" json:"end_char"`
	TextSnapshot string           `gorm:"column:text_snapshot" json:"text_snapshot"`
	CreatedBy    uuid.UUID        `gorm:"type:uuid;not null;index" json:"created_by"`
	Confidence   int              `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Status       AssignmentStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CodeAssignment) TableName() string { return "code_assignment" }

func (a *CodeAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AssignmentPending
	}
	return a.Validate()
}

// Validate enforces 0 <= start < end and a confidence within 0..100.
func (a *CodeAssignment) Validate() error {
	if a.StartChar < 0 || a.EndChar <= a.StartChar {
		return fmt.Errorf("invalid character range [%d, %d)", a.StartChar, a.EndChar)
	}
	if a.Confidence < 0 || a.Confidence > 100 {
		return fmt.Errorf("confidence %d out of range 0..100", a.Confidence)
	}
	return nil
}
