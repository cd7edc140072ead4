package coding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/fulltheme-backend/internal/llm"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

type steppingClock struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept += d
	c.mu.Unlock()
	return ctx.Err()
}

// truncatedOutputErr is a parse failure whose text quotes the document.
type truncatedOutputErr struct{}

func (truncatedOutputErr) Error() string {
	return `failed to parse model JSON: unexpected end of JSON input: {"quote": "the billing office asked me to retry`
}
func (truncatedOutputErr) Permanent() bool { return true }

type firstCallGarbled struct{ calls int }

func (g *firstCallGarbled) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	g.calls++
	if g.calls == 1 {
		return nil, truncatedOutputErr{}
	}
	return map[string]any{
		"codes": []any{map[string]any{
			"code": "Waiting", "quote": "", "code_description": "d", "confidence": 60.0, "is_new_code": true,
		}},
		"analysis_notes": "",
	}, nil
}

func TestGarbledReplySkipsOnlyItsChunk(t *testing.T) {
	e := newTestEngine(t)
	clock := &steppingClock{now: time.Unix(0, 0)}
	lim := ratelimit.New(logger.Nop(), ratelimit.Config{}, ratelimit.WithClock(clock))
	gen := &firstCallGarbled{}

	res, err := e.Inductive(context.Background(), Run{
		Documents: []Document{{ID: uuid.New(), Content: nineThousand()}},
		Coder:     llm.NewCoder(logger.Nop(), gen, lim, llm.ProviderGemini),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, gen.calls)
	assert.Zero(t, clock.slept)
	assert.Equal(t, 1, res.Summary.ChunksFailed)
	assert.Equal(t, 2, res.Summary.ChunksProcessed)
	assert.False(t, res.Summary.QuotaExhausted)
	assert.Equal(t, 2, res.Summary.TotalAssignments)
	assert.True(t, lim.Status(llm.ProviderGemini).Healthy)
}
