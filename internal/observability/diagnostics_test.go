package observability_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"

	"github.com/Sumatoshi-tech/primefang/internal/observability"
)

func TestDiagnosticsServer_ServesHealthAndMetrics(t *testing.T) {
	t.Parallel()

	diag, err := observability.NewDiagnosticsServer("127.0.0.1:0", nil)
	require.NoError(t, err)

	defer func() {
		closeErr := diag.Close()
		assert.NoError(t, closeErr)
	}()

	client := &http.Client{Timeout: 5 * time.Second}

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, getErr := client.Get("http://" + diag.Addr() + path)
		require.NoError(t, getErr, "GET %s", path)

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, "GET %s", path)
	}
}

func TestDiagnosticsServer_BadAddrFails(t *testing.T) {
	t.Parallel()

	_, err := observability.NewDiagnosticsServer("not-an-address", nil)
	require.Error(t, err)
}

func TestPrometheusHandler_ServesScrape(t *testing.T) {
	t.Parallel()

	handler, err := observability.PrometheusHandler()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestPipelineMetrics_NilReceiverIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var pm *observability.PipelineMetrics

	pm.RecordSegment(ctx, time.Millisecond)
	pm.AddReleased(ctx, 10, 29)
	pm.AddPending(ctx, 1)
	pm.RecordFlush(ctx, time.Millisecond)
	pm.AddFsyncErrors(ctx, 1)
}

func TestPipelineMetrics_RecordsWithNoopMeter(t *testing.T) {
	t.Parallel()

	meter := noopmetric.NewMeterProvider().Meter("test")

	pm, err := observability.NewPipelineMetrics(meter)
	require.NoError(t, err)

	ctx := context.Background()

	pm.RecordSegment(ctx, 50*time.Millisecond)
	pm.AddReleased(ctx, 168, 997)
	pm.AddPending(ctx, 2)
	pm.AddPending(ctx, -2)
	pm.RecordFlush(ctx, time.Millisecond)
	pm.AddFsyncErrors(ctx, 0)
}

func TestRuntimeMetrics_RegistersWithNoopMeter(t *testing.T) {
	t.Parallel()

	meter := noopmetric.NewMeterProvider().Meter("test")

	rm, err := observability.NewRuntimeMetrics(meter)
	require.NoError(t, err)
	assert.NotNil(t, rm)
}
