// Package llmtest provides a scriptable llm.Coder for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/yungbote/fulltheme-backend/internal/llm"
)

var errNotScripted = errors.New("llmtest: operation not scripted")

// Coder answers each operation with the matching function. Call counts are
// recorded per operation; the n passed to InitialFn and DeductiveFn is the
// zero-based call index.
type Coder struct {
	ProviderName string

	InitialFn   func(n int, in llm.InitialCodingInput) (*llm.MultipleCodesOutput, error)
	DeductiveFn func(n int, in llm.DeductiveCodingInput) (*llm.DeductiveCodingOutput, error)
	ThemeFn     func(in llm.ThemeInput) (*llm.ThemeOutput, error)
	RefineFn    func(in llm.RefineInput) (*llm.CodeRefinementOutput, error)
	GroupFn     func(in llm.GroupingInput) (*llm.CodeGroupingOutput, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ llm.Coder = (*Coder)(nil)

func (c *Coder) next(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	n := c.calls[op]
	c.calls[op] = n + 1
	return n
}

// Calls returns how many times op was invoked.
func (c *Coder) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *Coder) Provider() string {
	if c.ProviderName == "" {
		return llm.ProviderGemini
	}
	return c.ProviderName
}

func (c *Coder) InitialCoding(ctx context.Context, in llm.InitialCodingInput) (*llm.MultipleCodesOutput, error) {
	n := c.next(llm.OpInitialCoding)
	if c.InitialFn == nil {
		return nil, errNotScripted
	}
	return c.InitialFn(n, in)
}

func (c *Coder) DeductiveCoding(ctx context.Context, in llm.DeductiveCodingInput) (*llm.DeductiveCodingOutput, error) {
	n := c.next(llm.OpDeductiveCoding)
	if c.DeductiveFn == nil {
		return nil, errNotScripted
	}
	return c.DeductiveFn(n, in)
}

func (c *Coder) GenerateTheme(ctx context.Context, in llm.ThemeInput) (*llm.ThemeOutput, error) {
	c.next(llm.OpThemeGeneration)
	if c.ThemeFn == nil {
		return nil, errNotScripted
	}
	return c.ThemeFn(in)
}

func (c *Coder) RefineCode(ctx context.Context, in llm.RefineInput) (*llm.CodeRefinementOutput, error) {
	c.next(llm.OpCodeRefinement)
	if c.RefineFn == nil {
		return nil, errNotScripted
	}
	return c.RefineFn(in)
}

func (c *Coder) GroupCodes(ctx context.Context, in llm.GroupingInput) (*llm.CodeGroupingOutput, error) {
	c.next(llm.OpCodeGrouping)
	if c.GroupFn == nil {
		return nil, errNotScripted
	}
	return c.GroupFn(in)
}

// Codes is shorthand for a one-or-more code initial-coding response.
func Codes(pairs ...llm.CodeOutput) *llm.MultipleCodesOutput {
	return &llm.MultipleCodesOutput{Codes: pairs}
}
