package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qikurl/internal/shortener"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	Connected    = "connected"
	Disconnected = "disconnected"
)

// Reporter probes the dependencies of the service.
type Reporter interface {
	Health(ctx context.Context) shortener.HealthReport
}

// Handler handles health check operations.
type Handler struct {
	reporter Reporter
	now      func() time.Time
}

// NewHandler creates a new health handler.
func NewHandler(reporter Reporter) *Handler {
	return &Handler{reporter: reporter, now: time.Now}
}

// Services lists the connectivity of each dependency.
type Services struct {
	Database string `enum:"connected,disconnected" json:"database"`
	Cache    string `enum:"connected,disconnected" json:"cache"`
}

// Response is the response for health check endpoint.
type Response struct {
	Status int
	Body   struct {
		Status    string    `enum:"ok,degraded" json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Services  Services  `json:"services"`
	}
}

// Check performs a health check of the application and its dependencies.
// A degraded service answers 503 with the same body.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	report := h.reporter.Health(ctx)

	resp := &Response{Status: http.StatusOK}
	resp.Body.Status = StatusOK
	resp.Body.Timestamp = h.now().UTC()
	resp.Body.Services = Services{
		Database: connectivity(report.Store),
		Cache:    connectivity(report.Cache),
	}

	if report.Degraded() {
		resp.Status = http.StatusServiceUnavailable
		resp.Body.Status = StatusDegraded
	}

	return resp, nil
}

func connectivity(status shortener.Status) string {
	if status == shortener.StatusUp {
		return Connected
	}

	return Disconnected
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
		Errors:      []int{http.StatusServiceUnavailable},
	}, h.Check)
}
