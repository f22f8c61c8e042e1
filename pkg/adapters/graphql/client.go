package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	gql "github.com/machinebox/graphql"
)

// maxResponse caps how much of a response body is read.
const maxResponse = 8 << 20

const defaultTimeout = 15 * time.Second

// Client implements ports.ScenarioAPI against a GraphQL endpoint.
type Client struct {
	token   string
	timeout time.Duration
	http    *http.Client
	gql     *gql.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client requests are sent with.
// The client is copied; later changes to hc are not seen.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	hc := &http.Client{Timeout: defaultTimeout}
	if c.http != nil {
		cp := *c.http
		hc = &cp
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	hc.Transport = &recorder{base: hc.Transport}
	c.http = hc
	c.gql = gql.NewClient(endpoint, gql.WithHTTPClient(hc))
	return c
}

// exchange is what the transport saw for one call.
type exchange struct {
	status int
	body   []byte
}

type exchangeKey struct{}

// recorder keeps the status and body of a response for the call that
// placed an *exchange in the request context.
type recorder struct {
	base http.RoundTripper
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	base := r.base
	if base == nil {
		base = http.DefaultTransport
	}
	res, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	ex, ok := req.Context().Value(exchangeKey{}).(*exchange)
	if !ok {
		return res, nil
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponse))
	_ = res.Body.Close()
	if err != nil {
		return nil, err
	}
	ex.status = res.StatusCode
	ex.body = raw
	res.Body = io.NopCloser(bytes.NewReader(raw))
	return res, nil
}

type gqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// do runs one operation and decodes "data" into out.
// GraphQL errors become *domain.APIError carrying the first message.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	req := gql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	ex := &exchange{}
	start := time.Now()
	err := c.gql.Run(context.WithValue(ctx, exchangeKey{}, ex), req, out)
	c.logger.Debug("GraphQL call", "op", op, "status", ex.status, "duration", time.Since(start))
	if err == nil {
		if ex.status >= 300 {
			return fmt.Errorf("%s: %w", op, statusError(ex.status))
		}
		return nil
	}
	if ex.status == 0 {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, mapError(ex, err))
}

// mapError turns a failed exchange into a domain error.
func mapError(ex *exchange, runErr error) error {
	var env struct {
		Errors []gqlError `json:"errors"`
	}
	if json.Unmarshal(ex.body, &env) != nil || len(env.Errors) == 0 {
		if ex.status >= 300 {
			return statusError(ex.status)
		}
		return runErr
	}
	first := env.Errors[0]
	apiErr := &domain.APIError{Code: ex.status, Message: first.Message}
	if first.Extensions.Code == "NOT_FOUND" {
		return fmt.Errorf("%w: %w", domain.ErrScenarioNotFound, apiErr)
	}
	return apiErr
}

func statusError(status int) *domain.APIError {
	return &domain.APIError{Code: status, Message: http.StatusText(status)}
}
