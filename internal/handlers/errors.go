package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qikurl/internal/middleware"
	"github.com/serroba/qikurl/internal/shortener"
	"go.uber.org/zap"
)

// Client-facing error messages.
const (
	MessageInvalidURL    = "Invalid request. Please provide a valid URL."
	MessageInvalidExpiry = "Invalid expiry date format."
	MessageExpiryTooFar  = "Expiry date cannot be more than 1 year from now."
	MessageNotFound      = "Short URL not found or expired."
	MessageGone          = "This link has already been used."
	MessageUnauthorized  = "Unauthorized. Invalid deletion token."
	MessageUnavailable   = "Service temporarily unavailable. Try again later."
	MessageInternalError = "Internal server error."
	MessageDeleted       = "Short URL deleted successfully."
)

// toHTTPError maps lifecycle errors to Huma errors. Unexpected failures are logged.
func (h *URLHandler) toHTTPError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound(MessageNotFound)
	case errors.Is(err, shortener.ErrGone):
		return huma.Error410Gone(MessageGone)
	case errors.Is(err, shortener.ErrUnauthorized):
		return huma.Error401Unauthorized(MessageUnauthorized)
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("request_id", middleware.MetaFromContext(ctx).RequestID),
		zap.Error(err),
	}

	if shortener.IsTransient(err) {
		h.logger.Warn("store timed out", fields...)

		return huma.Error503ServiceUnavailable(MessageUnavailable)
	}

	h.logger.Error("store failure", fields...)

	return huma.Error500InternalServerError(MessageInternalError)
}
