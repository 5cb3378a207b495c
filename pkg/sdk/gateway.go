package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

// DefaultAPIURL is the backend base URL used when none is configured.
const DefaultAPIURL = "http://localhost:8000/api"

// RequestIDHeader carries the per-call request ID.
const RequestIDHeader = "X-Request-ID"

const maxLoggedBody = 4 << 10

var tracer = otel.Tracer("github.com/jeremysavoy/derby-director/pkg/sdk")

// SessionHandle is the view of the session the gateway needs: the current
// bearer credential, and logout on authorization loss. *Session implements it.
type SessionHandle interface {
	oauth2.TokenSource
	Logout(ctx context.Context)
}

// PendingRequest describes one outbound call. It lives on the request context
// for the duration of the call.
type PendingRequest struct {
	ID      string
	Method  string
	Path    string
	Body    []byte
	IsLogin bool
}

type pendingRequestKey struct{}

// WithPendingRequest attaches p to ctx.
func WithPendingRequest(ctx context.Context, p *PendingRequest) context.Context {
	return context.WithValue(ctx, pendingRequestKey{}, p)
}

// PendingRequestFromContext returns the PendingRequest attached to ctx, or nil.
func PendingRequestFromContext(ctx context.Context) *PendingRequest {
	p, _ := ctx.Value(pendingRequestKey{}).(*PendingRequest)
	return p
}

// Transport is the http.RoundTripper enacting the authorization policy:
// it attaches the session credential when one is held at dispatch time, logs
// the session out when a non-login request is answered 401, and reports 403s.
// It never retries and never converts a response into an error.
type Transport struct {
	Base    http.RoundTripper
	Session SessionHandle
	Logger  hclog.Logger
	Metrics *Metrics

	// APIHost limits the credential to requests for this host:port. Requests
	// elsewhere, including redirect hops, are sent without Authorization.
	// Empty means every request gets the credential.
	APIHost string
}

var _ http.RoundTripper = (*Transport)(nil)

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	pending := PendingRequestFromContext(req.Context())
	if pending == nil {
		pending = &PendingRequest{
			ID:      uuid.NewString(),
			Method:  req.Method,
			Path:    req.URL.Path,
			IsLogin: isLoginPath(req.URL.Path),
		}
	}

	ctx, span := tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", pending.Path),
			attribute.String("derby.request_id", pending.ID),
		),
	)
	defer span.End()

	out := req.Clone(ctx)
	out.Header.Del("Authorization")
	if t.ownsHost(out.URL) {
		if tok, err := t.Session.Token(); err == nil {
			tok.SetAuthHeader(out)
		}
	} else {
		t.logger().Debug("withholding credential from foreign host", "host", out.URL.Host, "request_id", pending.ID)
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, pending.ID)
	}

	start := time.Now()
	resp, err := t.base().RoundTrip(out)
	if err != nil {
		t.Metrics.observeRequest(req.Method, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	t.Metrics.observeRequest(req.Method, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if pending.IsLogin {
			break
		}
		span.SetStatus(codes.Error, "unauthorized")
		t.logger().Info("session rejected by API, logging out", "method", req.Method, "path", pending.Path, "request_id", pending.ID)
		t.Metrics.forcedLogout()
		t.Session.Logout(context.WithoutCancel(req.Context()))
	case http.StatusForbidden:
		span.SetStatus(codes.Error, "forbidden")
		t.logger().Warn("permission denied", "method", req.Method, "path", pending.Path, "request_id", pending.ID, "body", peekBody(resp))
	}

	return resp, nil
}

func (t *Transport) ownsHost(u *url.URL) bool {
	return t.APIHost == "" || strings.EqualFold(u.Host, t.APIHost)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() hclog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return hclog.NewNullLogger()
}

// peekBody reads the start of the response body for logging and leaves the
// full body readable for the caller.
func peekBody(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	head, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), resp.Body), resp.Body}
	return string(head)
}

func isLoginPath(p string) bool {
	return strings.HasSuffix(strings.TrimSuffix(p, "/"), LoginPath)
}

// Gateway performs JSON calls against the backend through a Transport.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
}

// GatewayOptions configures Gateway construction.
type GatewayOptions struct {
	// Base is the underlying transport; defaults to a go-cleanhttp pooled transport.
	Base    http.RoundTripper
	Logger  hclog.Logger
	Metrics *Metrics
}

// GatewayOption mutates GatewayOptions.
type GatewayOption func(*GatewayOptions)

// WithBaseTransport overrides the transport requests are dispatched on.
func WithBaseTransport(rt http.RoundTripper) GatewayOption {
	return func(o *GatewayOptions) { o.Base = rt }
}

// WithGatewayLogger sets the gateway logger.
func WithGatewayLogger(logger hclog.Logger) GatewayOption {
	return func(o *GatewayOptions) { o.Logger = logger }
}

// WithGatewayMetrics records request metrics on m.
func WithGatewayMetrics(m *Metrics) GatewayOption {
	return func(o *GatewayOptions) { o.Metrics = m }
}

// NewGateway creates a Gateway for the API at baseURL bound to session.
func NewGateway(baseURL string, session SessionHandle, optFns ...GatewayOption) *Gateway {
	opts := GatewayOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Base == nil {
		opts.Base = cleanhttp.DefaultPooledTransport()
	}
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	var host string
	if u, err := url.Parse(baseURL); err == nil {
		host = u.Host
	}

	return &Gateway{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &Transport{
				Base:    opts.Base,
				Session: session,
				Logger:  opts.Logger,
				Metrics: opts.Metrics,
				APIHost: host,
			},
		},
	}
}

// BaseURL returns the API base URL.
func (g *Gateway) BaseURL() string { return g.baseURL }

// HTTPClient returns the authorizing http.Client, for callers that need raw access.
func (g *Gateway) HTTPClient() *http.Client { return g.httpClient }

// Do sends body (JSON-encoded when non-nil) to path and decodes the response into out when non-nil.
// A non-2xx response is returned as *APIError; transport errors are returned unchanged.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	data, err := g.Raw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// Raw is Do without response decoding.
func (g *Gateway) Raw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		payload = encoded
	}

	var reader io.Reader
	contentType := ""
	if payload != nil {
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return g.send(ctx, method, path, contentType, reader, payload)
}

// Send issues a request whose body is read from body as-is, labelled with
// contentType. It goes through the same Transport as JSON calls.
func (g *Gateway) Send(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	return g.send(ctx, method, path, contentType, body, nil)
}

func (g *Gateway) send(ctx context.Context, method, path, contentType string, body io.Reader, payload []byte) ([]byte, error) {
	target, err := url.JoinPath(g.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}

	pending := &PendingRequest{
		ID:      uuid.NewString(),
		Method:  method,
		Path:    path,
		Body:    payload,
		IsLogin: isLoginPath(path),
	}

	req, err := http.NewRequestWithContext(WithPendingRequest(ctx, pending), method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       data,
			Detail:     errorDetail(data),
		}
	}
	return data, nil
}

// Get issues a GET and decodes the response into out.
func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (g *Gateway) Put(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH with a JSON body and decodes the response into out.
func (g *Gateway) Patch(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE.
func (g *Gateway) Delete(ctx context.Context, path string) error {
	return g.Do(ctx, http.MethodDelete, path, nil, nil)
}
