package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitStdoutWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), "test-service", true, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer(TracerName).Start(context.Background(), "evaluate")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"evaluate"`)
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "test-service", false, nil)
	require.NoError(t, err)

	_, span := otel.Tracer(TracerName).Start(context.Background(), "evaluate")
	assert.False(t, span.IsRecording())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}
