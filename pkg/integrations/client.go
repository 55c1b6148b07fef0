package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/observability"
)

// maxBodySize caps how much of a response is read. Static map PNGs at
// 1280x1280@2x stay well below this.
const maxBodySize = 32 << 20

// Client provides shared HTTP functionality for the REST collaborators.
// It applies default headers and turns failures into EXTERNAL_SERVICE errors.
type Client struct {
	http    Fetcher
	headers map[string]string
	service string
}

// NewClient creates a Client that sends requests through f.
// service names the remote side in error messages (e.g. "mapbox").
// Pass nil for headers if no default headers are needed.
func NewClient(f Fetcher, service string, headers map[string]string) *Client {
	if f == nil {
		f = NewHTTPClient(0)
	}
	return &Client{
		http:    f,
		headers: headers,
		service: service,
	}
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	body, err := c.doRequest(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.ExternalService(err, "%s: decode response", c.service)
	}
	return nil
}

// GetBytes performs an HTTP GET request and returns the raw response body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, errors.ExternalService(fmt.Errorf("%w: %v", ErrNetwork, err), "%s: read response", c.service)
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: build request", c.service)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, c.service, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, c.service, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.ExternalService(fmt.Errorf("%w: %v", ErrNetwork, err), "%s: GET %s", c.service, redactQuery(url))
	}
	hooks.OnResponse(ctx, c.service, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, errors.ExternalService(err, "%s: GET %s", c.service, redactQuery(url))
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
