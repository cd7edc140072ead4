package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/llm"
	"github.com/yungbote/fulltheme-backend/internal/modules/coding"
	"github.com/yungbote/fulltheme-backend/internal/platform/dbctx"
)

// GenerateThemes derives one theme from a codebook's codes and links the
// related codes that belong to that codebook.
func (s *aiCodingService) GenerateThemes(ctx context.Context, userID uuid.UUID, codebookID uuid.UUID, opts CodingOptions) ([]ThemeResult, error) {
	ctx, span := s.tracer.Start(ctx, "ai_coding.generate_themes")
	defer span.End()

	coder, err := s.coder(opts)
	if err != nil {
		return nil, err
	}
	cb, err := s.access.RequireCodebook(ctx, nil, codebookID, userID)
	if err != nil {
		return nil, err
	}
	codes, err := s.codes.ListByCodebook(ctx, nil, cb.ID)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, invalid("empty_codebook", "codebook %s has no codes", cb.ID)
	}

	out, err := coder.GenerateTheme(ctx, llm.ThemeInput{
		CodesText: "Codes:\n" + coding.FormatCodes(toExisting(codes)),
	})
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*types.Code, len(codes))
	for _, c := range codes {
		byName[strings.ToLower(strings.TrimSpace(c.Name))] = c
	}
	var related []*types.Code
	names := []string{}
	seen := map[uuid.UUID]bool{}
	for _, n := range out.RelatedCodes {
		c, ok := byName[strings.ToLower(strings.TrimSpace(n))]
		if !ok || seen[c.ID] {
			if !ok {
				s.log.Debug("Theme names code outside codebook", "code", n, "codebook_id", cb.ID)
			}
			continue
		}
		seen[c.ID] = true
		related = append(related, c)
		names = append(names, c.Name)
	}

	theme := &types.Theme{
		Name:             out.ThemeName,
		Description:      out.ThemeDescription,
		ProjectID:        cb.ProjectID,
		CreatedBy:        userID,
		SourceCodebookID: &cb.ID,
		IsAutoGenerated:  true,
		RelatedCodes:     datatypes.JSONSlice[string](names),
		Reasoning:        out.Reasoning,
	}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.themes.Create(dbc.Ctx, dbc.Tx, theme); err != nil {
			return err
		}
		for _, c := range related {
			if err := s.codes.UpdateFields(dbc.Ctx, dbc.Tx, c.ID, map[string]interface{}{"theme_id": theme.ID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Generated theme", "theme_id", theme.ID, "codebook_id", cb.ID, "related", len(names))
	return []ThemeResult{{
		Theme:            theme,
		Reasoning:        out.Reasoning,
		RelatedCodes:     names,
		SourceCodebookID: cb.ID,
	}}, nil
}
