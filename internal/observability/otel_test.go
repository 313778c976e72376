package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/oggyb/swipe-engine/internal/config"
	"github.com/oggyb/swipe-engine/internal/logger"
)

func TestInitTracing_ExportsSpans(t *testing.T) {
	cfg := config.New()
	cfg.Trace.Enabled = true
	cfg.Trace.SampleRatio = 1

	var buf bytes.Buffer
	shutdown, err := initTracing(context.Background(), cfg, logger.Discard(), &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "swipe.record")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "swipe.record")
}

func TestInitTracing_Disabled(t *testing.T) {
	cfg := config.New()
	cfg.Trace.Enabled = false

	shutdown, err := InitTracing(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.25, clampRatio(0.25))
}
