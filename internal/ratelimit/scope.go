package ratelimit

import "github.com/danielgtaylor/huma/v2"

// Scope names a group of operations that share rate limit counters.
type Scope string

// ScopeCreate covers short URL creation.
const ScopeCreate Scope = "create"

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig marks a Huma operation as rate limited.
// Operations without it are not limited.
type EndpointConfig struct {
	Scope Scope

	// Disabled skips rate limiting for this endpoint.
	Disabled bool
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

// Key builds the counter key of a client within scope.
func Key(scope Scope, client string) string {
	return string(scope) + ":" + client
}
