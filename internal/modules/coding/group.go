package coding

import (
	"context"
	"strings"

	"github.com/yungbote/fulltheme-backend/internal/llm"
)

const (
	minCodesForGrouping = 3
	groupSamplesPerCode = 3
	groupSampleRunes    = 100
)

type GroupResult struct {
	Skipped bool
	Grouped int
	Groups  []llm.CodeGroup
	Err     error
}

// Group asks the model once to cluster the live codes and sets GroupName on
// every known code it names. With fewer than three live codes nothing is
// called. A failed call leaves every code ungrouped.
func (e *Engine) Group(ctx context.Context, coder llm.Coder, reg *Registry) GroupResult {
	live := reg.LiveCodes()
	if len(live) < minCodesForGrouping {
		return GroupResult{Skipped: true}
	}
	ctx, span := e.tracer.Start(ctx, "coding.group")
	defer span.End()

	var summary, samples strings.Builder
	for _, c := range live {
		summary.WriteString("- ")
		summary.WriteString(c.Name)
		summary.WriteString(": ")
		summary.WriteString(c.Description)
		summary.WriteByte('\n')

		for i, a := range reg.AssignmentsFor(c.Name) {
			if i == groupSamplesPerCode {
				break
			}
			samples.WriteString(c.Name)
			samples.WriteString(": \"")
			samples.WriteString(truncateRunes(a.TextSnapshot, groupSampleRunes))
			samples.WriteString("\"\n")
		}
	}

	out, err := coder.GroupCodes(ctx, llm.GroupingInput{
		CodesSummary:      strings.TrimRight(summary.String(), "\n"),
		AssignmentSamples: strings.TrimRight(samples.String(), "\n"),
	})
	if err != nil {
		e.log.Warn("Code grouping failed, leaving codes ungrouped", "error", err)
		return GroupResult{Err: err}
	}

	res := GroupResult{Groups: out.Groups}
	for _, g := range out.Groups {
		name := strings.TrimSpace(g.GroupName)
		if name == "" {
			continue
		}
		for _, codeName := range g.CodeNames {
			c, ok := reg.Get(strings.TrimSpace(codeName))
			if !ok || c.Status == StatusDeleted {
				e.log.Debug("Grouping named unknown code", "code", codeName, "group", name)
				continue
			}
			if c.GroupName != "" {
				continue
			}
			c.GroupName = name
			res.Grouped++
		}
	}
	return res
}
