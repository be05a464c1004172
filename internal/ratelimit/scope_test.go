package ratelimit_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/url"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qikurl/internal/ratelimit"
	"github.com/stretchr/testify/assert"
)

var errMultipartNotSupported = errors.New("multipart not supported in mock")

// mockHumaContext implements huma.Context for testing scope resolution.
type mockHumaContext struct {
	method    string
	operation *huma.Operation
}

func (m *mockHumaContext) Operation() *huma.Operation {
	return m.operation
}
func (m *mockHumaContext) Context() context.Context          { return context.Background() }
func (m *mockHumaContext) TLS() *tls.ConnectionState         { return nil }
func (m *mockHumaContext) Version() huma.ProtoVersion        { return huma.ProtoVersion{} }
func (m *mockHumaContext) Method() string                    { return m.method }
func (m *mockHumaContext) Host() string                      { return "" }
func (m *mockHumaContext) RemoteAddr() string                { return "" }
func (m *mockHumaContext) URL() url.URL                      { return url.URL{} }
func (m *mockHumaContext) Param(_ string) string             { return "" }
func (m *mockHumaContext) Query(_ string) string             { return "" }
func (m *mockHumaContext) Header(_ string) string            { return "" }
func (m *mockHumaContext) EachHeader(_ func(string, string)) {}
func (m *mockHumaContext) BodyReader() io.Reader             { return nil }
func (m *mockHumaContext) GetMultipartForm() (*multipart.Form, error) {
	return nil, errMultipartNotSupported
}
func (m *mockHumaContext) SetReadDeadline(_ time.Time) error { return nil }
func (m *mockHumaContext) SetStatus(_ int)                   {}
func (m *mockHumaContext) Status() int                       { return 0 }
func (m *mockHumaContext) AppendHeader(_, _ string)          {}
func (m *mockHumaContext) SetHeader(_, _ string)             {}
func (m *mockHumaContext) BodyWriter() io.Writer             { return nil }

func TestGetEndpointConfig(t *testing.T) {
	t.Run("returns nil without an operation", func(t *testing.T) {
		ctx := &mockHumaContext{method: "POST"}

		assert.Nil(t, ratelimit.GetEndpointConfig(ctx))
	})

	t.Run("returns nil without rate limit metadata", func(t *testing.T) {
		ctx := &mockHumaContext{
			method:    "GET",
			operation: &huma.Operation{Metadata: map[string]any{"other": true}},
		}

		assert.Nil(t, ratelimit.GetEndpointConfig(ctx))
	})

	t.Run("returns the configured scope", func(t *testing.T) {
		ctx := &mockHumaContext{
			method: "POST",
			operation: &huma.Operation{Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeCreate},
			}},
		}

		cfg := ratelimit.GetEndpointConfig(ctx)

		if assert.NotNil(t, cfg) {
			assert.Equal(t, ratelimit.ScopeCreate, cfg.Scope)
			assert.False(t, cfg.Disabled)
		}
	})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "create:10.0.0.1", ratelimit.Key(ratelimit.ScopeCreate, "10.0.0.1"))
}
