package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func newEngine(db, sess Pinger) *gin.Engine {
	r := gin.New()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	NewHandler(db, sess, metrics).RegisterRoutes(&r.RouterGroup)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	w := get(newEngine(PingFunc(down), nil), "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	w := get(newEngine(PingFunc(up), PingFunc(up)), "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(newEngine(PingFunc(down), nil), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Database connection failed")

	w = get(newEngine(PingFunc(up), PingFunc(down)), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Session store unavailable")
}

func TestMetricsRoute(t *testing.T) {
	w := get(newEngine(PingFunc(up), nil), "/metrics")
	assert.Equal(t, "# metrics", w.Body.String())
}
