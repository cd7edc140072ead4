package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc ,bad, =x, team=core")
	assert.Equal(t, map[string]string{"api-key": "abc", "team": "core"}, got)
	assert.Nil(t, ParseHeaders(""))
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.1, clampRatio(0))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.25, clampRatio(0.25))
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), logger.Nop(), OtelConfig{})
	assert.NoError(t, shutdown(context.Background()))
}
