package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qikurl/internal/ratelimit"
)

// RegisterRoutes registers all URL shortener routes. Only creation is rate limited.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-short-url",
		Method:        http.MethodPost,
		Path:          "/create",
		Summary:       "Create short URL",
		Description:   "Creates a short URL, optionally expiring or single-use, and returns its deletion secret.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusTooManyRequests},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeCreate},
		},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "delete-short-url",
		Method:      http.MethodDelete,
		Path:        "/delete/{secret}",
		Summary:     "Delete short URL",
		Description: "Deletes the short URL whose deletion secret is given.",
		Tags:        []string{"URLs"},
		Errors:      []int{http.StatusUnauthorized},
	}, urlHandler.DeleteShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL and counts the click. Single-use links redirect once.",
		Tags:        []string{"URLs"},
		Errors:      []int{http.StatusNotFound, http.StatusGone},
	}, urlHandler.RedirectToURL)
}
