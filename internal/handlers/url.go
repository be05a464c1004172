package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-playground/validator/v10"
	"github.com/serroba/qikurl/internal/middleware"
	"github.com/serroba/qikurl/internal/shortener"
	"go.uber.org/zap"
)

// MinSecretLength is the shortest deletion secret worth looking up.
const MinSecretLength = 20

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9]{6,12}$`)

// expiryLayouts are the accepted expires_at formats.
var expiryLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// Lifecycle is the short URL lifecycle the handlers drive.
type Lifecycle interface {
	Create(ctx context.Context, params shortener.CreateParams) (*shortener.ShortURL, error)
	Resolve(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error)
	Delete(ctx context.Context, secret string) error
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	lifecycle Lifecycle
	baseURL   string
	validate  *validator.Validate
	now       func() time.Time
	logger    *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(lifecycle Lifecycle, baseURL string, logger *zap.Logger) *URLHandler {
	return &URLHandler{
		lifecycle: lifecycle,
		baseURL:   strings.TrimRight(baseURL, "/"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       time.Now,
		logger:    logger,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	longURL := strings.TrimSpace(req.Body.LongURL)
	if err := h.validate.Var(longURL, "required,http_url"); err != nil {
		return nil, huma.Error400BadRequest(MessageInvalidURL)
	}

	params := shortener.CreateParams{
		LongURL:   longURL,
		SingleUse: req.Body.SingleUse,
	}

	if req.Body.ExpiresAt != "" {
		expiresAt, err := parseExpiry(req.Body.ExpiresAt)
		if err != nil {
			return nil, huma.Error400BadRequest(MessageInvalidExpiry)
		}

		if expiresAt.Sub(h.now()) > shortener.MaxLifetime {
			return nil, huma.Error400BadRequest(MessageExpiryTooFar)
		}

		params.ExpiresAt = &expiresAt
	}

	shortURL, err := h.lifecycle.Create(ctx, params)
	if err != nil {
		return nil, h.toHTTPError(ctx, "create", err)
	}

	fullShortURL := h.baseURL + "/" + string(shortURL.Code)

	h.logger.Info("short url created",
		zap.String("code", string(shortURL.Code)),
		zap.Bool("single_use", shortURL.SingleUse),
		zap.Time("expires_at", shortURL.ExpiresAt),
		zap.String("request_id", middleware.MetaFromContext(ctx).RequestID),
	)

	resp := &CreateShortURLResponse{}
	resp.Headers.Location = fullShortURL
	resp.Body = ShortURLBody{
		Code:           string(shortURL.Code),
		ShortURL:       fullShortURL,
		LongURL:        shortURL.LongURL,
		DeletionSecret: shortURL.DeletionSecret,
		ExpiresAt:      shortURL.ExpiresAt,
		ClickCount:     shortURL.ClickCount,
		SingleUse:      shortURL.SingleUse,
		CreatedAt:      shortURL.CreatedAt,
	}

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	// Malformed codes look exactly like unknown ones.
	if !codePattern.MatchString(req.Code) {
		return nil, huma.Error404NotFound(MessageNotFound)
	}

	shortURL, err := h.lifecycle.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		return nil, h.toHTTPError(ctx, "resolve", err)
	}

	resp := &RedirectResponse{
		Status: http.StatusFound,
	}
	resp.Headers.Location = shortURL.LongURL
	resp.Headers.CacheControl = "no-store"

	return resp, nil
}

func (h *URLHandler) DeleteShortURL(ctx context.Context, req *DeleteShortURLRequest) (*MessageResponse, error) {
	if len(req.Secret) < MinSecretLength {
		return nil, huma.Error401Unauthorized(MessageUnauthorized)
	}

	if err := h.lifecycle.Delete(ctx, req.Secret); err != nil {
		return nil, h.toHTTPError(ctx, "delete", err)
	}

	h.logger.Info("short url deleted",
		zap.String("code", string(shortener.DeriveCode(req.Secret))),
		zap.String("request_id", middleware.MetaFromContext(ctx).RequestID),
	)

	resp := &MessageResponse{}
	resp.Body.Message = MessageDeleted

	return resp, nil
}

func parseExpiry(raw string) (time.Time, error) {
	var err error

	for _, layout := range expiryLayouts {
		var t time.Time

		if t, err = time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, err
}
