package handlers

import "time"

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		LongURL   string `doc:"The URL to shorten (http or https)"            example:"https://example.com/very/long/path" json:"long_url"             required:"false"`
		ExpiresAt string `doc:"RFC 3339 expiry, at most one year from now"    example:"2026-12-31T23:59:59Z"               json:"expires_at,omitempty"`
		SingleUse bool   `doc:"Delete the short URL after its first redirect"                                              json:"single_use,omitempty"`
	}
}

// ShortURLBody describes a created short URL. The deletion secret is only ever returned here.
type ShortURLBody struct {
	Code           string    `doc:"The short code"                          example:"ab12cd34ef56"                            json:"short_code"`
	ShortURL       string    `doc:"The full short URL"                      example:"http://localhost:3000/ab12cd34ef56"      json:"short_url"`
	LongURL        string    `doc:"The original URL"                        example:"https://example.com/very/long/path"      json:"long_url"`
	DeletionSecret string    `doc:"Secret required to delete the short URL" example:"a1b2c3d4e5f6g7h8i9j0k1l2m3n4o5p6" json:"deletion_secret"`
	ExpiresAt      time.Time `doc:"When the short URL stops redirecting"                                                      json:"expires_at"`
	ClickCount     int64     `doc:"Redirects served so far"                                                                   json:"click_count"`
	SingleUse      bool      `doc:"Whether the short URL works only once"                                                     json:"single_use"`
	CreatedAt      time.Time `doc:"Creation time"                                                                             json:"created_at"`
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body ShortURLBody
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"ab12cd34ef56" path:"code"`
}

// RedirectResponse redirects the client to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location     string `doc:"The original URL" header:"Location"`
		CacheControl string `header:"Cache-Control"`
	}
}

// DeleteShortURLRequest is the request for deleting a short URL.
type DeleteShortURLRequest struct {
	Secret string `doc:"The deletion secret returned on creation" path:"secret"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Body struct {
		Message string `example:"Short URL deleted successfully." json:"message"`
	}
}
