package domain

import (
	"github.com/yungbote/fulltheme-backend/internal/domain/coding"
	"github.com/yungbote/fulltheme-backend/internal/domain/workspace"
)

type Codebook = coding.Codebook
type Code = coding.Code
type CodeAssignment = coding.CodeAssignment
type AssignmentStatus = coding.AssignmentStatus

type Project = workspace.Project
type ProjectCollaborator = workspace.ProjectCollaborator
type Document = workspace.Document
type Theme = workspace.Theme

const (
	DefaultCodeColor = coding.DefaultCodeColor

	DefaultCodebookName        = coding.DefaultCodebookName
	DefaultCodebookDescription = coding.DefaultCodebookDescription
	SessionInitialCoding       = coding.SessionInitialCoding
	SessionDeductiveCoding     = coding.SessionDeductiveCoding

	AssignmentPending  = coding.AssignmentPending
	AssignmentAccepted = coding.AssignmentAccepted
	AssignmentRejected = coding.AssignmentRejected
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&Project{},
		&ProjectCollaborator{},
		&Document{},
		&Codebook{},
		&Code{},
		&CodeAssignment{},
		&Theme{},
	}
}
