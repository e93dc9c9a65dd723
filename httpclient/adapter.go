package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/kbukum/hyperkit/logger"
	"github.com/kbukum/hyperkit/observability"
	"github.com/kbukum/hyperkit/resilience"
	"github.com/kbukum/hyperkit/version"
)

// HeaderRequestID carries the per-exchange request ID.
const HeaderRequestID = "X-Request-Id"

// Adapter is an authenticated JSON HTTP client. Every exchange is tagged
// with a request ID, traced, and written to the audit log.
type Adapter struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
	limiter    *resilience.RateLimiter
	breaker    *resilience.CircuitBreaker
}

// New creates an adapter from cfg.
func New(cfg Config) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	client := &http.Client{Transport: transport, Timeout: cfg.Timeout}
	if cfg.Cookies {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("httpclient: cookie jar: %w", err)
		}
		client.Jar = jar
	}

	log := cfg.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	a := &Adapter{
		httpClient: client,
		config:     cfg,
		log:        log.WithComponent("httpclient"),
	}
	if cfg.RateLimiter != nil {
		a.limiter = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	if cfg.CircuitBreaker != nil {
		cb := *cfg.CircuitBreaker
		if cb.Name == "" {
			cb.Name = cfg.Name
		}
		if cb.IsFailure == nil {
			cb.IsFailure = breakerFailure
		}
		if cb.OnStateChange == nil {
			cbLog := a.log
			cb.OnStateChange = func(name string, from, to resilience.State) {
				cbLog.Warn("circuit breaker state change", logger.Fields(
					"breaker", name, "from", from.String(), "to", to.String()))
			}
		}
		a.breaker = resilience.NewCircuitBreaker(cb)
	}
	return a, nil
}

// Do sends req and reads the whole response. A non-2xx status returns both
// the response and a classified *Error. When configured, the rate limiter
// paces the call and an open circuit breaker rejects it with a connection
// error wrapping resilience.ErrCircuitOpen.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, NewTimeoutError(err)
		}
	}
	if a.breaker == nil {
		return a.exchange(ctx, req)
	}
	var resp *Response
	err := a.breaker.Execute(func() error {
		var err error
		resp, err = a.exchange(ctx, req)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, &Error{Code: ErrCodeConnection, Message: err.Error(), Err: err}
	}
	return resp, err
}

// CircuitState reports the breaker state, or StateClosed when none is
// configured.
func (a *Adapter) CircuitState() resilience.State {
	if a.breaker == nil {
		return resilience.StateClosed
	}
	return a.breaker.State()
}

// breakerFailure counts transport failures and 5xx answers. 4xx answers
// say nothing about the server's health.
func breakerFailure(err error) bool {
	return IsTimeout(err) || IsConnection(err) || IsServerError(err)
}

func (a *Adapter) exchange(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	log := a.log.WithRequestID(requestID)

	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrHTTPMethod, req.Method),
			attribute.String(observability.AttrRequestID, requestID),
		))
	defer span.End()

	httpReq, payload, err := a.buildRequest(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	httpReq.Header.Set(HeaderRequestID, requestID)
	target := httpReq.URL.String()
	span.SetAttributes(attribute.String(observability.AttrHTTPURL, target))

	log.Info("request", logger.Fields(logger.FieldMethod, req.Method, logger.FieldURL, target))
	if body := logger.Payload(payload); body != "" {
		log.Debug("request payload", logger.Fields(logger.FieldBody, body))
	}

	if a.config.Metrics != nil {
		a.config.Metrics.RecordRequestStart(ctx)
	}
	start := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		elapsed := time.Since(start)
		a.recordEnd(ctx, req.Method, "error", elapsed)
		var herr *Error
		if ctx.Err() != nil {
			herr = NewTimeoutError(err)
		} else {
			herr = NewConnectionError(err)
		}
		span.RecordError(herr)
		span.SetStatus(codes.Error, herr.Message)
		log.Error("request failed", logger.Fields(
			logger.FieldURL, target,
			logger.FieldError, err.Error(),
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return nil, herr
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		a.recordEnd(ctx, req.Method, "error", elapsed)
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}
	a.recordEnd(ctx, req.Method, strconv.Itoa(resp.StatusCode), elapsed)
	span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, resp.StatusCode))

	result := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		RequestID:  requestID,
	}

	fields := logger.Fields(
		logger.FieldStatus, resp.StatusCode,
		logger.FieldURL, target,
		logger.FieldDuration, elapsed.Milliseconds(),
	)
	classErr := ClassifyStatusCode(resp.StatusCode, body)
	switch {
	case classErr == nil:
		log.Info("response", fields)
	case resp.StatusCode >= 500:
		log.Error("response", fields)
	default:
		log.Warn("response", fields)
	}
	if text := logger.Payload(body); text != "" {
		log.Debug("response payload", logger.Fields(logger.FieldBody, text))
	}

	if classErr != nil {
		span.SetStatus(codes.Error, classErr.Message)
		return result, classErr
	}
	return result, nil
}

// BaseURL returns the configured base URL.
func (a *Adapter) BaseURL() string { return a.config.BaseURL }

// Config returns a copy of the adapter's configuration.
func (a *Adapter) Config() Config { return a.config }

// Unwrap returns the underlying *http.Client.
func (a *Adapter) Unwrap() *http.Client { return a.httpClient }

// Close releases idle connections.
func (a *Adapter) Close() {
	a.httpClient.CloseIdleConnections()
}

func (a *Adapter) recordEnd(ctx context.Context, method, status string, d time.Duration) {
	if a.config.Metrics != nil {
		a.config.Metrics.RecordRequestEnd(ctx, a.config.Name, method, status, d)
	}
}

// ResolveURL joins path onto the base URL unless path is already absolute.
func (a *Adapter) ResolveURL(path string) string {
	if a.config.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return a.config.BaseURL
	}
	return strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, []byte, error) {
	payload, err := encodeBody(req.Body)
	if err != nil {
		return nil, nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, a.ResolveURL(req.Path), body)
	if err != nil {
		return nil, nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, vs := range req.Query {
			q[k] = append([]string(nil), vs...)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	a.config.Auth.apply(httpReq)

	return httpReq, payload, nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}
