// Package ftclient is a ports.Searcher backed by a remote full-text query service.
package ftclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/scriptbridge/internal/logging"
	"github.com/aretw0/scriptbridge/pkg/domain"
)

// DefaultTimeout bounds one query round trip.
const DefaultTimeout = 30 * time.Second

// Client posts search requests as JSON and decodes the service's result.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a client for the query endpoint at url.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query sends req. Failures to reach the service wrap domain.ErrTransport.
// A non-2xx answer is returned as a result carrying the HTTP status as its code.
func (c *Client) Query(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("encode search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("search service rejected query",
			"status", resp.StatusCode, "query", req.Query, "body", string(snippet))
		return domain.SearchResult{ResultCode: domain.ResultCode(resp.StatusCode)}, nil
	}

	var res domain.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: decode search result: %v", domain.ErrTransport, err)
	}
	if res.ResultCode == 0 {
		res.ResultCode = domain.Ok
	}
	return res, nil
}
