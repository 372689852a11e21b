package utils

import (
	"github.com/go-resty/resty/v2"
)

// HTTPClient embeds a resty client so the server adapter can layer auth
// headers and retry policy on top without re-exporting the whole API.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an independent client with its own connection pool.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New()}
}
