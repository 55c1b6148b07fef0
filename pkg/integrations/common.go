package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when the service answers 404.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures and non-200 responses.
	ErrNetwork = errors.New("network error")
)

// Fetcher performs a single HTTP round trip.
// *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(req *http.Request) (*http.Response, error)

// Do calls f(req).
func (f FetcherFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// NewHTTPClient creates an HTTP client with the given timeout.
// A non-positive timeout selects DefaultTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// JoinURL appends escaped path segments to base.
// JoinURL("https://a.b/v1", "x y", "z") == "https://a.b/v1/x%20y/z".
func JoinURL(base string, segments ...string) (string, error) {
	return url.JoinPath(base, segments...)
}

// redactQuery hides query values such as access tokens before a URL is
// placed in an error message or log line.
func redactQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	for k := range q {
		if k == "access_token" || k == "token" || k == "key" {
			q.Set(k, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
