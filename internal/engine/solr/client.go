// Package solr is the production engine driver speaking the Solr HTTP API.
package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/buildy-mcbuild/storefront/internal/engine"
)

// Name is the engine name reported as the response source.
const Name = "solr"

// Defaults.
const (
	DefaultBaseURL = "http://localhost:8983/solr"
	DefaultCore    = "products"
	maxErrorBody   = 64 << 10
)

// Compile-time checks.
var (
	_ engine.Engine  = (*Client)(nil)
	_ engine.Indexer = (*Client)(nil)
)

// Client talks to one Solr core.
type Client struct {
	baseURL    string
	core       string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets the Solr base URL, e.g. http://solr:8983/solr.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithCore sets the core (collection) name.
func WithCore(core string) Option {
	return func(c *Client) {
		c.core = strings.Trim(core, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Solr client. Per-request deadlines come from the caller's context.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		core:       DefaultCore,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns "solr".
func (c *Client) Name() string { return Name }

// Select runs a query against /<core>/select.
func (c *Client) Select(ctx context.Context, params engine.Params) (*engine.Response, error) {
	if !params.Has("wt") {
		params = append(append(engine.Params(nil), params...), engine.Param{Key: "wt", Value: "json"})
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("select")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSelect, Err: fmt.Errorf("creating request: %w", err)}
	}

	var out engine.Response
	if err := c.do(req, engine.OpSelect, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping calls the core's admin ping handler.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("admin/ping")+"?wt=json", nil)
	if err != nil {
		return &engine.Error{Op: engine.OpPing, Err: fmt.Errorf("creating request: %w", err)}
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(req, engine.OpPing, &out); err != nil {
		return err
	}
	if out.Status != "" && !strings.EqualFold(out.Status, "OK") {
		return &engine.Error{Op: engine.OpPing, Message: "status " + out.Status}
	}
	return nil
}

// Index posts documents to /<core>/update and commits.
func (c *Client) Index(ctx context.Context, docs []engine.Document) error {
	if len(docs) == 0 {
		return nil
	}
	body, err := json.Marshal(docs)
	if err != nil {
		return &engine.Error{Op: engine.OpUpdate, Err: fmt.Errorf("encoding documents: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.url("update")+"?commit=true&wt=json", bytes.NewReader(body))
	if err != nil {
		return &engine.Error{Op: engine.OpUpdate, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	var out engine.Response
	return c.do(req, engine.OpUpdate, &out)
}

func (c *Client) url(handler string) string {
	return c.baseURL + "/" + c.core + "/" + handler
}

func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("solr request failed",
			zap.String("op", op),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return &engine.Error{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		engErr := parseError(op, resp)
		c.logger.Debug("solr request returned error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", engErr.Message),
			zap.Duration("duration", time.Since(start)),
		)
		return engErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &engine.Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	c.logger.Debug("solr request completed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// parseError extracts the Solr error message, falling back to the raw body.
func parseError(op string, resp *http.Response) *engine.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var envelope engine.Response
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil && envelope.Error.Msg != "" {
		return &engine.Error{Op: op, StatusCode: resp.StatusCode, Message: envelope.Error.Msg}
	}
	return &engine.Error{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
