package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/config"
	"salesboard/internal/middleware"
	"salesboard/internal/models"
	"salesboard/internal/observability"
	"salesboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Security.EnableRateLimit = false
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return &cfg
}

func newTestServer(t *testing.T, cfg *config.Config, metrics *observability.Metrics) *Server {
	t.Helper()
	a, err := services.NewAnalytics(services.Options{Logger: testLogger(), Metrics: metrics})
	require.NoError(t, err)
	a.SetRecords([]models.CanonicalRecord{
		{Product: "Alpha", City: "Kota A", Category: "SKM", Year: 2024, WeekNumber: 1, Revenue: 100, Quantity: 10},
		{Product: "Beta", City: "Kota B", Category: "SKT", Year: 2024, WeekNumber: 1, Revenue: 50, Quantity: 5},
	}, "test")

	return NewServer(Deps{
		Config:    cfg,
		Analytics: a,
		Logger:    testLogger(),
		Metrics:   metrics,
		Version:   "test",
	})
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t, testConfig(), observability.NewMetrics()).Handler()

	tests := []struct {
		method      string
		path        string
		status      int
		contentType string
	}{
		{"GET", "/", http.StatusOK, "text/html"},
		{"GET", "/health", http.StatusOK, "application/json"},
		{"GET", "/admin/stats", http.StatusOK, "application/json"},
		{"GET", "/metrics", http.StatusOK, "text/plain"},
		{"GET", "/api/metrics", http.StatusOK, "application/json"},
		{"GET", "/api/rollups/pareto", http.StatusOK, "application/json"},
		{"GET", "/api/rollups/unknown", http.StatusNotFound, "application/json"},
		{"GET", "/api/totals", http.StatusOK, "application/json"},
		{"GET", "/api/filters", http.StatusOK, "application/json"},
		{"GET", "/api/products/Alpha", http.StatusOK, "application/json"},
		{"GET", "/api/products/Nope", http.StatusNotFound, "application/json"},
		{"GET", "/api/export.csv", http.StatusOK, "text/csv"},
		{"GET", "/api/export.xlsx", http.StatusOK, "spreadsheetml"},
		{"GET", "/sse/refresh-all", http.StatusOK, "text/event-stream"},
		{"GET", "/sse/metrics-table", http.StatusOK, "text/event-stream"},
		{"GET", "/sse/charts", http.StatusOK, "text/event-stream"},
		{"GET", "/nope", http.StatusNotFound, ""},
		{"POST", "/api/metrics", http.StatusMethodNotAllowed, ""},
		{"PUT", "/", http.StatusMethodNotAllowed, ""},
		{"DELETE", "/health", http.StatusMethodNotAllowed, ""},
		{"GET", "/api/records", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.contentType != "" {
				assert.Contains(t, w.Header().Get("Content-Type"), tt.contentType)
			}
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestServer_UploadReplacesDataset(t *testing.T) {
	h := newTestServer(t, testConfig(), nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`{"rows":[{"Produk":"Gamma","Omzet":"Rp 1.000"}]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/export.csv", nil))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "Gamma,"))
}

func TestServer_MetricsWithoutRegistry(t *testing.T) {
	h := newTestServer(t, testConfig(), nil).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_RequestMetricsUseRoutePattern(t *testing.T) {
	m := observability.NewMetrics()
	h := newTestServer(t, testConfig(), m).Handler()

	for _, p := range []string{"/api/products/Alpha", "/api/products/Beta"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `salesboard_http_requests_total{method="GET",route="GET /api/products/{product}",status="200"} 2`)
	assert.Contains(t, body, "salesboard_dataset_records 2")
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.EnableRateLimit = true
	cfg.Security.RateLimitRPS = 1
	cfg.Security.RateLimitBurst = 2
	h := newTestServer(t, cfg, nil).Handler()

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestServer_RecoversFromPanics(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	s.mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func startGraceful(t *testing.T, gs *GracefulServer) (context.CancelFunc, string, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- gs.Serve(ctx, ln) }()
	return cancel, "http://" + ln.Addr().String(), errc
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)
	gs := NewGracefulServer(&http.Server{Handler: s.Handler()}, testLogger(), testConfig())

	var hooks, background atomic.Int32
	gs.RegisterShutdownHook(func(context.Context) error {
		hooks.Add(1)
		return nil
	})
	gs.Go(func(ctx context.Context) error {
		<-ctx.Done()
		background.Add(1)
		return nil
	})

	cancel, base, errc := startGraceful(t, gs)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, int32(1), hooks.Load())
	assert.Equal(t, int32(1), background.Load())

	_, err = http.Get(base + "/health")
	assert.Error(t, err)
}

func TestGracefulServer_HookError(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, testLogger(), testConfig())
	hookErr := errors.New("flush failed")
	gs.RegisterShutdownHook(func(context.Context) error { return hookErr })
	gs.RegisterShutdownHook(func(context.Context) error { return nil })

	cancel, _, errc := startGraceful(t, gs)
	cancel()

	err := <-errc
	require.Error(t, err)
	assert.ErrorIs(t, err, hookErr)
}

func TestSweepLoop(t *testing.T) {
	cfg := testConfig()
	cfg.Security.EnableRateLimit = true
	limiter := middleware.NewRateLimiter(cfg.Security)
	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- SweepLoop(limiter, 5*time.Millisecond, time.Nanosecond, testLogger())(ctx) }()

	assert.Eventually(t, func() bool { return limiter.Sweep(time.Hour) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
