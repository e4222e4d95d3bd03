// Package gateway wraps every outbound call to the identity service and the
// business API. It holds no session state; every failure path is returned as
// a *RequestFailure.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/dashboard/internal/observability"
)

const maxBodyBytes = 1 << 20

// Request describes one outbound call. Token, when set, is sent as a bearer
// credential.
type Request struct {
	Method   string
	Endpoint string
	Payload  any
	Token    string
}

// Gateway performs JSON calls against a single base URL.
type Gateway struct {
	baseURL   string
	client    *http.Client
	userAgent string
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the HTTP client. A client without a timeout gets
// the gateway's default one.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			copied := *client
			g.client = &copied
		}
	}
}

// WithTimeout bounds every call.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.client.Timeout = timeout
		}
	}
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records call outcomes.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = metrics
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(g *Gateway) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// New builds a gateway for baseURL.
func New(baseURL string, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: "dashboard/dev",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.client.Timeout <= 0 {
		g.client.Timeout = 10 * time.Second
	}
	return g
}

// BaseURL returns the configured base URL.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Send POSTs payload to endpoint and decodes the response into out.
func (g *Gateway) Send(ctx context.Context, endpoint string, payload, out any) error {
	return g.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Payload: payload}, out)
}

// Do performs req and decodes a success body into out. out may be nil when
// the caller does not need the body; a *[]byte receives the raw body, empty
// or not.
func (g *Gateway) Do(ctx context.Context, req Request, out any) error {
	start := time.Now()
	err := g.do(ctx, req, out)
	g.metrics.ObserveGateway(req.Endpoint, outcome(err), start)
	return err
}

func (g *Gateway) do(ctx context.Context, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if req.Payload != nil {
		encoded, err := json.Marshal(req.Payload)
		if err != nil {
			return &RequestFailure{Kind: MalformedResponse, Endpoint: req.Endpoint, Message: "unable to encode request", Err: err}
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, g.baseURL+req.Endpoint, body)
	if err != nil {
		return &RequestFailure{Kind: Unreachable, Endpoint: req.Endpoint, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", g.userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Warn("upstream unreachable",
			zap.String("endpoint", req.Endpoint),
			zap.Error(err),
		)
		return &RequestFailure{Kind: Unreachable, Endpoint: req.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &RequestFailure{Kind: Unreachable, Endpoint: req.Endpoint, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := rejectionMessage(resp.StatusCode, req.Endpoint, raw)
		g.logger.Warn("upstream rejected request",
			zap.String("endpoint", req.Endpoint),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return &RequestFailure{Kind: Rejected, Endpoint: req.Endpoint, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if dst, ok := out.(*[]byte); ok {
		*dst = raw
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return g.malformed(req.Endpoint, resp.StatusCode, raw, errors.New("empty body"))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return g.malformed(req.Endpoint, resp.StatusCode, raw, err)
	}
	return nil
}

func (g *Gateway) malformed(endpoint string, status int, raw []byte, err error) error {
	g.logger.Warn("upstream response malformed",
		zap.String("endpoint", endpoint),
		zap.Int("status", status),
		zap.ByteString("body", raw),
		zap.Error(err),
	)
	return &RequestFailure{
		Kind:     MalformedResponse,
		Endpoint: endpoint,
		Status:   status,
		Message:  fmt.Sprintf("unexpected response from %s", endpoint),
		Err:      err,
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if failure, ok := AsFailure(err); ok {
		return string(failure.Kind)
	}
	return "error"
}
