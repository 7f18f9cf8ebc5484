package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"dealfeed/pkg/metrics"
)

func TestPrometheusServer_Handler(t *testing.T) {
	reg := metrics.NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "dealfeed_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	srv := metrics.NewPrometheusServer("", reg)

	testCases := []struct {
		name       string
		endpoint   string
		statusCode int
		contains   []string
	}{
		{
			name:       "Metrics handler",
			endpoint:   "/metrics",
			statusCode: http.StatusOK,
			contains:   []string{"dealfeed_test_total 3", "go_goroutines"},
		},
		{
			name:       "Invalid endpoint",
			endpoint:   "/invalid",
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.endpoint, http.NoBody))

			rq.Equal(tc.statusCode, rec.Code)

			for _, s := range tc.contains {
				rq.Contains(rec.Body.String(), s)
			}
		})
	}
}

func TestPrometheusServer_Run(t *testing.T) {
	rq := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return metrics.NewPrometheusServer(":10010", metrics.NewRegistry()).Run(ctx)
	})

	// Wait for server to start.
	time.Sleep(time.Second)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://:10010/metrics", http.NoBody)
	rq.NoError(err)

	resp, err := http.DefaultClient.Do(req)
	rq.NoError(err)
	rq.NoError(resp.Body.Close())

	rq.Equal(http.StatusOK, resp.StatusCode)

	cancel()

	rq.NoError(g.Wait())
}
