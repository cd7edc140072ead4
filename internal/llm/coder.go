package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

// Operation names, used as limiter and span labels.
const (
	OpInitialCoding   = "initial_coding"
	OpDeductiveCoding = "deductive_coding"
	OpThemeGeneration = "theme_generation"
	OpCodeRefinement  = "code_refinement"
	OpCodeGrouping    = "code_grouping"
)

// JSONGenerator is a provider client able to return schema-conforming JSON.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

// Coder is the set of structured LLM operations the coding pipeline uses.
type Coder interface {
	Provider() string
	InitialCoding(ctx context.Context, in InitialCodingInput) (*MultipleCodesOutput, error)
	DeductiveCoding(ctx context.Context, in DeductiveCodingInput) (*DeductiveCodingOutput, error)
	GenerateTheme(ctx context.Context, in ThemeInput) (*ThemeOutput, error)
	RefineCode(ctx context.Context, in RefineInput) (*CodeRefinementOutput, error)
	GroupCodes(ctx context.Context, in GroupingInput) (*CodeGroupingOutput, error)
}

type limitedCoder struct {
	log      *logger.Logger
	gen      JSONGenerator
	limiter  *ratelimit.Limiter
	provider string
}

// NewCoder binds gen to provider's backoff state in limiter. Every call goes
// through the limiter.
func NewCoder(log *logger.Logger, gen JSONGenerator, limiter *ratelimit.Limiter, provider string) Coder {
	return &limitedCoder{
		log:      log.With("service", "LLMCoder", "provider", provider),
		gen:      gen,
		limiter:  limiter,
		provider: provider,
	}
}

func (c *limitedCoder) Provider() string { return c.provider }

func generate[T any](ctx context.Context, c *limitedCoder, op string, system, user string, schema map[string]any) (*T, error) {
	obj, err := ratelimit.Invoke(ctx, c.limiter, c.provider, op, func(ctx context.Context) (map[string]any, error) {
		return c.gen.GenerateJSON(ctx, system, user, op, schema)
	})
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%s: re-encode output: %w", op, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: decode output: %w", op, err)
	}
	return &out, nil
}

func (c *limitedCoder) InitialCoding(ctx context.Context, in InitialCodingInput) (*MultipleCodesOutput, error) {
	system, user := promptInitialCoding(in)
	out, err := generate[MultipleCodesOutput](ctx, c, OpInitialCoding, system, user, multipleCodesSchema())
	if err != nil {
		return nil, err
	}
	kept := out.Codes[:0]
	for _, code := range out.Codes {
		code.Code = strings.TrimSpace(code.Code)
		if code.Code == "" {
			c.log.Debug("Dropping unnamed code from initial coding output")
			continue
		}
		code.Confidence = clampInt(code.Confidence, 0, 100)
		kept = append(kept, code)
	}
	out.Codes = kept
	return out, nil
}

func (c *limitedCoder) DeductiveCoding(ctx context.Context, in DeductiveCodingInput) (*DeductiveCodingOutput, error) {
	system, user := promptDeductiveCoding(in)
	out, err := generate[DeductiveCodingOutput](ctx, c, OpDeductiveCoding, system, user, deductiveCodingSchema())
	if err != nil {
		return nil, err
	}
	for i := range out.AssignedCodes {
		out.AssignedCodes[i] = strings.TrimSpace(out.AssignedCodes[i])
	}
	return out, nil
}

func (c *limitedCoder) GenerateTheme(ctx context.Context, in ThemeInput) (*ThemeOutput, error) {
	system, user := promptTheme(in)
	out, err := generate[ThemeOutput](ctx, c, OpThemeGeneration, system, user, themeSchema())
	if err != nil {
		return nil, err
	}
	out.ThemeName = strings.TrimSpace(out.ThemeName)
	if out.ThemeName == "" {
		return nil, fmt.Errorf("%s: empty theme name", OpThemeGeneration)
	}
	return out, nil
}

func (c *limitedCoder) RefineCode(ctx context.Context, in RefineInput) (*CodeRefinementOutput, error) {
	system, user := promptRefine(in)
	out, err := generate[CodeRefinementOutput](ctx, c, OpCodeRefinement, system, user, refinementSchema())
	if err != nil {
		return nil, err
	}
	out.Action = RefineAction(strings.ToLower(strings.TrimSpace(string(out.Action))))
	out.RefinedCodeName = strings.TrimSpace(out.RefinedCodeName)
	switch out.Action {
	case ActionKeep, ActionDelete:
	case ActionModify:
		if out.RefinedCodeName == "" {
			return nil, fmt.Errorf("%s: modify without refined_code_name", OpCodeRefinement)
		}
	default:
		return nil, fmt.Errorf("%s: unknown action %q", OpCodeRefinement, out.Action)
	}
	return out, nil
}

func (c *limitedCoder) GroupCodes(ctx context.Context, in GroupingInput) (*CodeGroupingOutput, error) {
	system, user := promptGrouping(in)
	return generate[CodeGroupingOutput](ctx, c, OpCodeGrouping, system, user, groupingSchema())
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
