package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/qikurl/internal/middleware"
	"github.com/stretchr/testify/assert"
)

type testOutput struct {
	Body string `json:"body"`
}

func setupTestAPI(t *testing.T) (*chi.Mux, huma.API) {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api))

	return router, api
}

// captureMeta registers GET /test and returns the metadata seen by the handler.
func captureMeta(t *testing.T, req *http.Request) (middleware.Meta, *httptest.ResponseRecorder) {
	t.Helper()

	router, api := setupTestAPI(t)
	metas := make(chan middleware.Meta, 1)

	huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		metas <- middleware.MetaFromContext(ctx)

		return &testOutput{Body: "ok"}, nil
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return <-metas, w
}

func TestRequestMeta(t *testing.T) {
	t.Run("generates a request id and echoes it", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("User-Agent", "TestAgent/1.0")

		meta, w := captureMeta(t, req)

		assert.NotEmpty(t, meta.RequestID)
		assert.Equal(t, meta.RequestID, w.Header().Get(middleware.HeaderRequestID))
		assert.Equal(t, "TestAgent/1.0", meta.UserAgent)
	})

	t.Run("keeps an incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(middleware.HeaderRequestID, "req-123")

		meta, w := captureMeta(t, req)

		assert.Equal(t, "req-123", meta.RequestID)
		assert.Equal(t, "req-123", w.Header().Get(middleware.HeaderRequestID))
	})

	t.Run("extracts IP from X-Forwarded-For with multiple IPs", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

		meta, _ := captureMeta(t, req)

		assert.Equal(t, "203.0.113.7", meta.ClientIP)
	})

	t.Run("extracts IP from X-Real-IP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Real-IP", "198.51.100.4")

		meta, _ := captureMeta(t, req)

		assert.Equal(t, "198.51.100.4", meta.ClientIP)
	})

	t.Run("falls back to the remote address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"

		meta, _ := captureMeta(t, req)

		assert.Equal(t, "192.168.1.1", meta.ClientIP)
	})
}

func TestMetaFromContext(t *testing.T) {
	t.Run("returns empty metadata for a bare context", func(t *testing.T) {
		assert.Equal(t, middleware.Meta{}, middleware.MetaFromContext(context.Background()))
	})
}
