package observability_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dsviz/pkg/observability"
)

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	providers, err := observability.InitWithWriter(observability.DefaultConfig(), &buf)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	ctx, span := providers.Tracer.Start(context.Background(), "bst.insert")
	span.End()

	_, err = observability.NewPlaybackMetrics(providers.Meter)
	require.NoError(t, err)

	providers.Logger.InfoContext(ctx, "hello")
	assert.Contains(t, buf.String(), "service=dsviz")
}

func TestInit_JSONLogsAtLevel(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true
	cfg.Environment = "classroom"
	cfg.ServiceVersion = "1.0.0"

	var buf bytes.Buffer

	providers, err := observability.InitWithWriter(cfg, &buf)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.Debug("hidden")
	assert.Empty(t, buf.String())

	providers.Logger.Info("shown")
	assert.Contains(t, buf.String(), `"env":"classroom"`)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", nil},
		{"pairs", "a=1, b = 2", map[string]string{"a": "1", "b": "2"}},
		{"garbage", "nokey", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, observability.ParseOTLPHeaders(tt.raw))
		})
	}
}
