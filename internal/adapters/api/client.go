// Package api is the HTTP adapter for the events API: RSVP lookups and privileged actions.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/target/eventnav/internal/domain/rsvp"
	apperrors "github.com/target/eventnav/internal/errors"
	"github.com/target/eventnav/internal/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultResponseQuery extracts the RSVP value from the lookup body.
	DefaultResponseQuery = "response"

	tracerName         = "github.com/target/eventnav/internal/adapters/api"
	maxLookupBodyBytes = 1 << 20
	maxDiagnosticBytes = 4 << 10
)

var (
	_ ports.AttendanceLookup = (*Client)(nil)
	_ ports.ActionCaller     = (*Client)(nil)
)

// Config describes how to reach the events API.
type Config struct {
	BaseURL       string
	ResponseQuery string
	UserAgent     string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
	Tracer        trace.Tracer
}

// Client talks to the events API using the caller's bearer credential.
type Client struct {
	baseURL       string
	responseQuery string
	userAgent     string
	httpClient    *http.Client
	logger        *slog.Logger
	tracer        trace.Tracer
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("api base url is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", base)
	}

	query := strings.TrimSpace(cfg.ResponseQuery)
	if query == "" {
		query = DefaultResponseQuery
	}
	if _, compileErr := jmespath.Compile(query); compileErr != nil {
		return nil, fmt.Errorf("compile response query %q: %w", query, compileErr)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &Client{
		baseURL:       strings.TrimRight(base, "/"),
		responseQuery: query,
		userAgent:     strings.TrimSpace(cfg.UserAgent),
		httpClient:    hc,
		logger:        logger,
		tracer:        tracer,
	}, nil
}

// LookupResponse fetches the identity's recorded response to an event.
// A 401 yields an unauthorized AppError; other non-2xx statuses a status AppError;
// failures before a response a transport AppError.
func (c *Client) LookupResponse(ctx context.Context, in ports.LookupInput) (rsvp.Response, error) {
	if in.EventID == "" || in.Email == "" {
		return rsvp.ResponseNone, apperrors.Validation("event id and email are required")
	}

	ctx, span := c.tracer.Start(ctx, "api.lookup_response",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("event.id", in.EventID)),
	)
	defer span.End()

	target := c.baseURL + "/events/" + url.PathEscape(in.EventID) + "/rsvp?email=" + url.QueryEscape(in.Email)
	req, err := c.newRequest(ctx, http.MethodGet, target, in.Token)
	if err != nil {
		return rsvp.ResponseNone, failSpan(span, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rsvp.ResponseNone, failSpan(span, apperrors.Transport(err))
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := readAndClose(resp.Body, maxDiagnosticBytes)
		if readErr != nil {
			c.logger.DebugContext(ctx, "read lookup error body failed", "error", readErr)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return rsvp.ResponseNone, failSpan(span, apperrors.Unauthorized("rsvp lookup rejected credential"))
		}
		return rsvp.ResponseNone, failSpan(span, apperrors.FromStatus(resp.StatusCode, body))
	}

	value, err := c.decodeResponse(resp.Body)
	if err != nil {
		return rsvp.ResponseNone, failSpan(span, err)
	}
	span.SetAttributes(attribute.String("rsvp.response", string(value)))
	return value, nil
}

func (c *Client) decodeResponse(body io.ReadCloser) (rsvp.Response, error) {
	raw, err := readAndClose(body, maxLookupBodyBytes)
	if err != nil {
		return rsvp.ResponseNone, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read rsvp response")
	}
	if strings.TrimSpace(raw) == "" {
		return rsvp.ResponseNone, nil
	}

	var data any
	if unmarshalErr := json.Unmarshal([]byte(raw), &data); unmarshalErr != nil {
		return rsvp.ResponseNone, apperrors.Wrap(unmarshalErr, apperrors.ErrCodeInternal, "decode rsvp response")
	}

	value, err := jmespath.Search(c.responseQuery, data)
	if err != nil {
		return rsvp.ResponseNone, apperrors.Wrap(err, apperrors.ErrCodeInternal, "evaluate response query")
	}
	return rsvp.FromAny(value), nil
}

// CallAction posts a privileged action. Any response, whatever its status, is
// returned as an ActionResult; an error means the remote was never reached.
func (c *Client) CallAction(ctx context.Context, in ports.ActionRequest) (ports.ActionResult, error) {
	if !in.Action.Validate() {
		return ports.ActionResult{}, apperrors.Validationf("invalid action descriptor %q", in.Action.Name)
	}

	ctx, span := c.tracer.Start(ctx, "api.call_action",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("action.name", in.Action.Name)),
	)
	defer span.End()

	target := c.baseURL + in.Action.Path
	if len(in.Action.Query) > 0 {
		target += "?" + in.Action.Query.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodPost, target, in.Token)
	if err != nil {
		return ports.ActionResult{}, failSpan(span, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.ActionResult{}, failSpan(span, apperrors.Transport(err))
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, resp.Status)
	}

	body, readErr := readAndClose(resp.Body, maxDiagnosticBytes)
	if readErr != nil {
		c.logger.DebugContext(ctx, "read action body failed", "action", in.Action.Name, "error", readErr)
	}
	return ports.ActionResult{Status: resp.StatusCode, Body: strings.TrimSpace(body)}, nil
}

func (c *Client) newRequest(ctx context.Context, method, target, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "build request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	c.logger.DebugContext(ctx, "api request", "method", method, "path", req.URL.Path, "request_id", requestID)
	return req, nil
}

// readAndClose reads at most limit bytes, drains the remainder so the connection can
// be reused, and closes the body.
func readAndClose(body io.ReadCloser, limit int64) (string, error) {
	data, readErr := io.ReadAll(io.LimitReader(body, limit))
	if readErr == nil {
		_, readErr = io.Copy(io.Discard, body)
	}
	closeErr := body.Close()
	switch {
	case readErr != nil && closeErr != nil:
		return string(data), errors.Join(
			fmt.Errorf("read response body: %w", readErr),
			fmt.Errorf("close response body: %w", closeErr),
		)
	case readErr != nil:
		return string(data), fmt.Errorf("read response body: %w", readErr)
	case closeErr != nil:
		return string(data), fmt.Errorf("close response body: %w", closeErr)
	}
	return string(data), nil
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
