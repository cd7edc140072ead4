package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/fulltheme-backend/internal/data/repos"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

type Repos struct {
	Project        repos.ProjectRepo
	Document       repos.DocumentRepo
	Codebook       repos.CodebookRepo
	Code           repos.CodeRepo
	CodeAssignment repos.CodeAssignmentRepo
	Theme          repos.ThemeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Project:        repos.NewProjectRepo(db, log),
		Document:       repos.NewDocumentRepo(db, log),
		Codebook:       repos.NewCodebookRepo(db, log),
		Code:           repos.NewCodeRepo(db, log),
		CodeAssignment: repos.NewCodeAssignmentRepo(db, log),
		Theme:          repos.NewThemeRepo(db, log),
	}
}
