package coding

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/fulltheme-backend/internal/llm"
)

// Verdict is the model's decision about one code.
type Verdict struct {
	Action         llm.RefineAction
	NewName        string
	NewDescription string
	Reasoning      string
}

// RefineResult is the outcome for one code. Err is set when the model call
// failed; ApplyRefinements then treats the code as kept.
type RefineResult struct {
	Code    string
	Verdict Verdict
	Err     error
}

type RefineStats struct {
	Kept     int
	Modified int
	Deleted  int
	Failed   int
}

// Refine asks the model for a verdict on every created code that has at
// least one live assignment. Up to concurrency calls run at once; the
// registry is not touched until ApplyRefinements.
func (e *Engine) Refine(ctx context.Context, coder llm.Coder, reg *Registry, concurrency int) []RefineResult {
	ctx, span := e.tracer.Start(ctx, "coding.refine")
	defer span.End()

	type job struct {
		code  *CodeRecord
		input llm.RefineInput
	}
	var jobs []job
	for _, c := range reg.LiveCodes() {
		if c.Status != StatusCreated {
			continue
		}
		assigned := reg.AssignmentsFor(c.Name)
		if len(assigned) == 0 {
			continue
		}
		quotes := make([]string, 0, len(assigned))
		for _, a := range assigned {
			quotes = append(quotes, a.TextSnapshot)
		}
		jobs = append(jobs, job{code: c, input: llm.RefineInput{
			CodeName:        c.Name,
			CodeDescription: c.Description,
			Assignments:     quotes,
		}})
	}
	span.SetAttributes(attribute.Int("coding.refine.codes", len(jobs)))

	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]RefineResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = RefineResult{Code: j.code.Name}
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			out, err := coder.RefineCode(gctx, j.input)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Verdict = Verdict{
				Action:         out.Action,
				NewName:        strings.TrimSpace(out.RefinedCodeName),
				NewDescription: strings.TrimSpace(out.RefinedCodeDescription),
				Reasoning:      out.Reasoning,
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ApplyRefinements mutates reg according to results, in order.
func (e *Engine) ApplyRefinements(reg *Registry, results []RefineResult) RefineStats {
	var st RefineStats
	for _, r := range results {
		if r.Err != nil {
			st.Failed++
			st.Kept++
			e.log.Warn("Code refinement failed, keeping code", "code", r.Code, "error", r.Err)
			continue
		}
		code, ok := reg.Get(r.Code)
		if !ok || code.Status == StatusDeleted {
			continue
		}
		switch r.Verdict.Action {
		case llm.ActionDelete:
			dropped := reg.Remove(r.Code)
			st.Deleted++
			e.log.Debug("Code deleted by refinement", "code", r.Code, "assignments", dropped)
		case llm.ActionModify:
			if r.Verdict.NewName == "" {
				st.Kept++
				continue
			}
			reg.Rename(r.Code, r.Verdict.NewName, r.Verdict.NewDescription, r.Verdict.Reasoning)
			st.Modified++
		default:
			code.RefinementReasoning = r.Verdict.Reasoning
			st.Kept++
		}
	}
	return st
}
