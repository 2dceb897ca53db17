package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newHealthEnv(t *testing.T) (*echo.Echo, *Handler) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	h := NewHandler(db, client, "test")
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

func TestLiveness(t *testing.T) {
	e, _ := newHealthEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	e, _ := newHealthEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Components["database"].Status != StatusHealthy || resp.Components["redis"].Status != StatusHealthy {
		t.Errorf("components = %+v", resp.Components)
	}
}

func TestReadiness_MissingDependencies(t *testing.T) {
	h := NewHandler(nil, nil, "test")
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != StatusUnhealthy {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestCounters(t *testing.T) {
	_, h := newHealthEnv(t)

	h.IncrementRequests()
	h.IncrementRequests()
	h.IncrementConnections()
	h.IncrementConnections()
	h.DecrementConnections()

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	e := echo.New()
	h.RegisterRoutes(e)
	e.ServeHTTP(rec, req)

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Requests.TotalRequests != 2 {
		t.Errorf("total requests = %d", resp.Requests.TotalRequests)
	}
	if resp.Requests.ActiveConnections != 1 {
		t.Errorf("active connections = %d", resp.Requests.ActiveConnections)
	}
}
