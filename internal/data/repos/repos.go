package repos

import (
	"github.com/yungbote/fulltheme-backend/internal/data/repos/coding"
	"github.com/yungbote/fulltheme-backend/internal/data/repos/workspace"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ProjectRepo = workspace.ProjectRepo
type DocumentRepo = workspace.DocumentRepo
type ThemeRepo = workspace.ThemeRepo

type CodebookRepo = coding.CodebookRepo
type CodeRepo = coding.CodeRepo
type CodeAssignmentRepo = coding.CodeAssignmentRepo
type AssignmentView = coding.AssignmentView
type StatusCounts = coding.StatusCounts

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return workspace.NewProjectRepo(db, baseLog)
}
func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return workspace.NewDocumentRepo(db, baseLog)
}
func NewThemeRepo(db *gorm.DB, baseLog *logger.Logger) ThemeRepo {
	return workspace.NewThemeRepo(db, baseLog)
}

func NewCodebookRepo(db *gorm.DB, baseLog *logger.Logger) CodebookRepo {
	return coding.NewCodebookRepo(db, baseLog)
}
func NewCodeRepo(db *gorm.DB, baseLog *logger.Logger) CodeRepo {
	return coding.NewCodeRepo(db, baseLog)
}
func NewCodeAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) CodeAssignmentRepo {
	return coding.NewCodeAssignmentRepo(db, baseLog)
}
