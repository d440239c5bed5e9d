package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHandleHealth_returnsOK(t *testing.T) {
	// Set build-time variables for test.
	origVersion, origCommit := Version, Commit
	Version = "1.2.3"
	Commit = "abc1234"
	t.Cleanup(func() {
		Version = origVersion
		Commit = origCommit
	})

	handler := HandleHealth()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", resp.Version)
	}
	if resp.Commit != "abc1234" {
		t.Errorf("commit = %q, want abc1234", resp.Commit)
	}
}

func TestHandleHealth_defaultValues(t *testing.T) {
	handler := HandleHealth()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var resp HealthResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Version == "" {
		t.Error("version should have a default value")
	}
}

type mockHealthChecker struct {
	err   error
	delay time.Duration
}

func (m *mockHealthChecker) HealthCheck(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

func decodeReady(t *testing.T, rec *httptest.ResponseRecorder) ReadinessResponse {
	t.Helper()
	var resp ReadinessResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp
}

func TestHandleReady_themeDirectoryHealthy(t *testing.T) {
	checks := ReadinessChecks{ThemeDirectory: &mockHealthChecker{}}

	rec := httptest.NewRecorder()
	HandleReady(checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeReady(t, rec)
	if resp.Status != "ready" {
		t.Errorf("status = %q, want ready", resp.Status)
	}
	if resp.Checks["theme_directory"].Status != "ok" {
		t.Errorf("theme_directory = %q, want ok", resp.Checks["theme_directory"].Status)
	}
	if len(resp.Checks) != 1 {
		t.Errorf("checks count = %d, want 1", len(resp.Checks))
	}
}

func TestHandleReady_themeDirectoryUnreadable(t *testing.T) {
	checks := ReadinessChecks{
		ThemeDirectory: &mockHealthChecker{err: errors.New("open themes: permission denied")},
	}

	rec := httptest.NewRecorder()
	HandleReady(checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeReady(t, rec)
	if resp.Status != "not_ready" {
		t.Errorf("status = %q, want not_ready", resp.Status)
	}
	if resp.Checks["theme_directory"].Error != "open themes: permission denied" {
		t.Errorf("error = %q", resp.Checks["theme_directory"].Error)
	}
}

func TestHandleReady_nilThemeDirectory(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleReady(ReadinessChecks{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeReady(t, rec)
	if resp.Checks["theme_directory"].Status != "error" {
		t.Errorf("theme_directory = %q, want error", resp.Checks["theme_directory"].Status)
	}
}

func TestHandleReady_extraChecks(t *testing.T) {
	checks := ReadinessChecks{
		ThemeDirectory: &mockHealthChecker{},
		Extra: map[string]HealthChecker{
			"listing":  HealthCheckFunc(func(context.Context) error { return nil }),
			"exporter": &mockHealthChecker{err: errors.New("collector unreachable")},
			"skipped":  nil,
		},
	}

	rec := httptest.NewRecorder()
	HandleReady(checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeReady(t, rec)
	if len(resp.Checks) != 3 {
		t.Errorf("checks count = %d, want 3", len(resp.Checks))
	}
	if resp.Checks["listing"].Status != "ok" {
		t.Errorf("listing = %q, want ok", resp.Checks["listing"].Status)
	}
	if resp.Checks["exporter"].Status != "error" {
		t.Errorf("exporter = %q, want error", resp.Checks["exporter"].Status)
	}
	if _, ok := resp.Checks["skipped"]; ok {
		t.Error("nil checker should not be reported")
	}
}

func TestHandleReady_checksHaveLatency(t *testing.T) {
	checks := ReadinessChecks{ThemeDirectory: &mockHealthChecker{delay: 5 * time.Millisecond}}

	rec := httptest.NewRecorder()
	HandleReady(checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	resp := decodeReady(t, rec)
	for name, check := range resp.Checks {
		if check.LatencyMs < 0 {
			t.Errorf("%s latency = %d, should be >= 0", name, check.LatencyMs)
		}
	}
}

func TestHandleReady_requestCancelled(t *testing.T) {
	checks := ReadinessChecks{ThemeDirectory: &mockHealthChecker{delay: time.Minute}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	HandleReady(checks).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
