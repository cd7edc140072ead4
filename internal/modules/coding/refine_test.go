package coding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/fulltheme-backend/internal/llm"
	"github.com/yungbote/fulltheme-backend/internal/llm/llmtest"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

func seeded(names ...string) *Registry {
	reg := NewRegistry()
	doc := uuid.New()
	for i, n := range names {
		reg.Add(&CodeRecord{Name: n, Description: "d " + n, Status: StatusCreated})
		reg.AddAssignment(&AssignmentRecord{DocumentID: doc, CodeName: n, StartChar: i * 10, EndChar: i*10 + 5, TextSnapshot: "quote " + n})
		reg.AddAssignment(&AssignmentRecord{DocumentID: doc, CodeName: n, StartChar: i*10 + 5, EndChar: i*10 + 9, TextSnapshot: "again " + n})
	}
	return reg
}

func TestRefineVerdicts(t *testing.T) {
	e := newTestEngine(t)
	reg := seeded("Keep", "Rename", "Drop", "Broken")
	reg.Add(&CodeRecord{Name: "Unused", Status: StatusCreated})

	coder := &llmtest.Coder{RefineFn: func(in llm.RefineInput) (*llm.CodeRefinementOutput, error) {
		assert.Len(t, in.Assignments, 2)
		switch in.CodeName {
		case "Keep":
			return &llm.CodeRefinementOutput{Action: llm.ActionKeep, Reasoning: "fits"}, nil
		case "Rename":
			return &llm.CodeRefinementOutput{Action: llm.ActionModify, RefinedCodeName: "Renamed", RefinedCodeDescription: "better", Reasoning: "sharper"}, nil
		case "Drop":
			return &llm.CodeRefinementOutput{Action: llm.ActionDelete, Reasoning: "noise"}, nil
		default:
			return nil, &ratelimit.ExhaustedError{Provider: "openai", Attempts: 15, Err: errors.New("429")}
		}
	}}

	results := e.Refine(context.Background(), coder, reg, 3)
	require.Len(t, results, 4)
	assert.Equal(t, 4, coder.Calls(llm.OpCodeRefinement))

	st := e.ApplyRefinements(reg, results)
	assert.Equal(t, RefineStats{Kept: 2, Modified: 1, Deleted: 1, Failed: 1}, st)

	keep, ok := reg.Get("Keep")
	require.True(t, ok)
	assert.Equal(t, "fits", keep.RefinementReasoning)

	_, ok = reg.Get("Rename")
	assert.False(t, ok)
	renamed, ok := reg.Get("Renamed")
	require.True(t, ok)
	assert.Equal(t, "better", renamed.Description)
	assert.Equal(t, "Rename", renamed.Provenance.OriginalName)
	moved := reg.AssignmentsFor("Renamed")
	require.Len(t, moved, 2)
	for _, a := range moved {
		assert.Equal(t, RefinedModified, a.RefinedStatus)
		assert.Equal(t, "Rename", a.OriginalCodeName)
		assert.Equal(t, "sharper", a.RefinementReasoning)
	}

	_, ok = reg.Get("Drop")
	assert.False(t, ok)
	assert.Empty(t, reg.AssignmentsFor("Drop"))

	_, ok = reg.Get("Broken")
	assert.True(t, ok)
	_, ok = reg.Get("Unused")
	assert.True(t, ok)

	// No assignment may reference a code that is gone.
	for _, a := range reg.Assignments() {
		_, ok := reg.Get(a.CodeName)
		assert.True(t, ok, "orphaned assignment for %q", a.CodeName)
	}
	assert.Equal(t, []string{"Keep", "Renamed", "Broken", "Unused"}, names(reg.LiveCodes()))
}

func TestRefineMergesIntoExistingName(t *testing.T) {
	e := newTestEngine(t)
	reg := seeded("Trust", "Confidence")
	coder := &llmtest.Coder{RefineFn: func(in llm.RefineInput) (*llm.CodeRefinementOutput, error) {
		if in.CodeName == "Confidence" {
			return &llm.CodeRefinementOutput{Action: llm.ActionModify, RefinedCodeName: "Trust"}, nil
		}
		return &llm.CodeRefinementOutput{Action: llm.ActionKeep}, nil
	}}

	e.ApplyRefinements(reg, e.Refine(context.Background(), coder, reg, 1))
	assert.Equal(t, []string{"Trust"}, names(reg.LiveCodes()))
	assert.Len(t, reg.AssignmentsFor("Trust"), 4)
}

func TestRefineSkipsExistingCodes(t *testing.T) {
	e := newTestEngine(t)
	reg := NewRegistry()
	reg.Add(&CodeRecord{Name: "Seeded", Status: StatusExisting})
	reg.AddAssignment(&AssignmentRecord{CodeName: "Seeded", StartChar: 0, EndChar: 3})
	coder := &llmtest.Coder{}

	results := e.Refine(context.Background(), coder, reg, 2)
	assert.Empty(t, results)
	assert.Equal(t, 0, coder.Calls(llm.OpCodeRefinement))
}

func names(codes []*CodeRecord) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, c.Name)
	}
	return out
}
