package hyper

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/httpclient"
	"github.com/kbukum/hyperkit/logger"
	"github.com/kbukum/hyperkit/observability"
	"github.com/kbukum/hyperkit/resilience"
)

// Filters are list and link query parameters. Slice values repeat the key.
type Filters map[string]any

func (f Filters) values() url.Values {
	if len(f) == 0 {
		return nil
	}
	q := url.Values{}
	for k, v := range f {
		switch x := v.(type) {
		case []string:
			q[k] = append(q[k], x...)
		case []any:
			for _, item := range x {
				q.Add(k, fmt.Sprint(item))
			}
		case nil:
			q.Set(k, "")
		default:
			q.Set(k, fmt.Sprint(x))
		}
	}
	return q
}

func (f Filters) keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List GETs the collection of typeName with filters as query parameters.
// In strict mode every filter key must be declared by the schema.
func (c *Client) List(ctx context.Context, typeName string, filters Filters) (result *Object, err error) {
	ctx, done := c.observe(ctx, "list", typeName)
	defer func() { done(err) }()

	t, err := c.schemaType(typeName)
	if err != nil {
		return nil, err
	}
	if err := c.validateFilters(t, filters); err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, t.CollectionURL(), filters.values(), nil)
}

// ByID GETs <collection>/<id>. A 404 returns (nil, nil).
func (c *Client) ByID(ctx context.Context, typeName, id string, filters Filters) (result *Object, err error) {
	ctx, done := c.observe(ctx, "by_id", typeName)
	defer func() { done(err) }()

	t, err := c.schemaType(typeName)
	if err != nil {
		return nil, err
	}
	return c.getOrNil(ctx, t.ResourceURL(id), filters.values())
}

// Create POSTs a body merged from body to the collection of typeName.
func (c *Client) Create(ctx context.Context, typeName string, body ...any) (result *Object, err error) {
	ctx, done := c.observe(ctx, "create", typeName)
	defer func() { done(err) }()

	t, err := c.schemaType(typeName)
	if err != nil {
		return nil, err
	}
	payload, err := mergeBody(body...)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, t.CollectionURL(), nil, payload)
}

// Update PUTs a merged body to obj's self link, retrying on 409.
func (c *Client) Update(ctx context.Context, obj *Object, body ...any) (result *Object, err error) {
	ctx, done := c.observe(ctx, "update", obj.Type())
	defer func() { done(err) }()

	self := obj.SelfURL()
	if self == "" {
		return nil, errors.InvalidInput("links.self", fmt.Sprintf("%s has no self link", obj.describe()))
	}
	return c.putWithRetry(ctx, self, body)
}

// UpdateByID PUTs a merged body to <collection>/<id>, retrying on 409.
func (c *Client) UpdateByID(ctx context.Context, typeName, id string, body ...any) (result *Object, err error) {
	ctx, done := c.observe(ctx, "update_by_id", typeName)
	defer func() { done(err) }()

	t, err := c.schemaType(typeName)
	if err != nil {
		return nil, err
	}
	return c.putWithRetry(ctx, t.ResourceURL(id), body)
}

// Delete DELETEs the self link of each object in turn and returns the
// last decoded result. Nil objects and objects without a self link are
// skipped.
func (c *Client) Delete(ctx context.Context, objs ...*Object) (*Object, error) {
	var last *Object
	for _, obj := range objs {
		self := obj.SelfURL()
		if self == "" {
			continue
		}
		result, err := c.deleteOne(ctx, obj, self)
		if err != nil {
			return nil, err
		}
		last = result
	}
	return last, nil
}

func (c *Client) deleteOne(ctx context.Context, obj *Object, self string) (result *Object, err error) {
	ctx, done := c.observe(ctx, "delete", obj.Type())
	defer func() { done(err) }()
	return c.do(ctx, http.MethodDelete, self, nil, nil)
}

// Action POSTs a merged body to obj.actions[name], retrying on 409.
func (c *Client) Action(ctx context.Context, obj *Object, name string, body ...any) (result *Object, err error) {
	ctx, done := c.observe(ctx, "action", obj.Type())
	defer func() { done(err) }()

	target := scalarString(obj.Path("actions", name))
	if target == "" {
		return nil, errors.Newf(errors.ErrCodeUnknownAction, "%s has no action %s", obj.describe(), name).
			WithDetail("action", name)
	}
	payload, err := mergeBody(body...)
	if err != nil {
		return nil, err
	}
	return c.withConflictRetry(ctx, "action "+name, func() (*Object, error) {
		return c.do(ctx, http.MethodPost, target, nil, payload)
	})
}

// Get GETs obj's self link. A 404 returns (nil, nil).
func (c *Client) Get(ctx context.Context, obj *Object) (result *Object, err error) {
	ctx, done := c.observe(ctx, "get", obj.Type())
	defer func() { done(err) }()

	self := obj.SelfURL()
	if self == "" {
		return nil, errors.InvalidInput("links.self", fmt.Sprintf("%s has no self link", obj.describe()))
	}
	return c.getOrNil(ctx, self, nil)
}

// Reload is ByID(obj.Type(), obj.ID()).
func (c *Client) Reload(ctx context.Context, obj *Object) (*Object, error) {
	return c.ByID(ctx, obj.Type(), obj.ID(), nil)
}

// GetURL GETs an absolute or base-relative URL and decodes the answer.
// Bound links and pagination go through here.
func (c *Client) GetURL(ctx context.Context, target string, filters Filters) (*Object, error) {
	return c.do(ctx, http.MethodGet, target, filters.values(), nil)
}

func (c *Client) schemaType(name string) (*SchemaType, error) {
	t, ok := c.schema.Type(name)
	if !ok {
		return nil, errors.UnknownType(name)
	}
	return t, nil
}

func (c *Client) validateFilters(t *SchemaType, filters Filters) error {
	if !c.cfg.Strict {
		return nil
	}
	for _, key := range filters.keys() {
		if !t.AcceptsFilter(key) {
			return errors.InvalidFilter(t.ID, key)
		}
	}
	return nil
}

func (c *Client) getOrNil(ctx context.Context, target string, query url.Values) (*Object, error) {
	obj, err := c.do(ctx, http.MethodGet, target, query, nil)
	if IsNotFound(err) {
		return nil, nil
	}
	return obj, err
}

func (c *Client) putWithRetry(ctx context.Context, target string, body []any) (*Object, error) {
	payload, err := mergeBody(body...)
	if err != nil {
		return nil, err
	}
	return c.withConflictRetry(ctx, "update", func() (*Object, error) {
		return c.do(ctx, http.MethodPut, target, nil, payload)
	})
}

// withConflictRetry runs fn up to Retries times, sleeping RetryDelay after
// each 409. Any other error stops immediately. A 409 on the final attempt
// becomes CONFLICT_RETRY_EXHAUSTED wrapping the last APIError.
func (c *Client) withConflictRetry(ctx context.Context, op string, fn func() (*Object, error)) (*Object, error) {
	cfg := resilience.FixedRetryConfig(c.cfg.Retries, c.cfg.RetryDelay, IsConflict)
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.log.Warn("conflict, retrying", logger.Fields(
			logger.FieldOperation, op,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
		))
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.RecordRetry(ctx, op)
		}
	}

	obj, err := resilience.Retry(ctx, cfg, fn)
	if err != nil && IsConflict(err) {
		return nil, errors.Newf(errors.ErrCodeConflictRetryExhausted,
			"%s still conflicting after %d attempts", op, c.cfg.Retries).
			WithStatus(http.StatusConflict).
			WithDetail("attempts", c.cfg.Retries).
			WithCause(err)
	}
	return obj, err
}

// do sends one request and decodes the answer. Non-2xx answers become
// *APIError; transport failures are returned as *httpclient.Error.
func (c *Client) do(ctx context.Context, method, target string, query url.Values, body any) (*Object, error) {
	resp, err := c.send(ctx, method, target, query, body)
	if err != nil {
		return nil, err
	}
	v, err := decoder{client: c}.decode(resp.Body)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Object:
		return x, nil
	default:
		return nil, errors.Newf(errors.ErrCodeDecode, "%s %s: expected a JSON object", method, target)
	}
}

func (c *Client) send(ctx context.Context, method, target string, query url.Values, body any) (*httpclient.Response, error) {
	req := httpclient.Request{Method: method, Path: target, Query: query}
	if body != nil {
		req.Body = body
	}
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		var herr *httpclient.Error
		if stderrors.As(err, &herr) && herr.StatusCode > 0 {
			return nil, newAPIError(herr)
		}
		return nil, err
	}
	return resp, nil
}

// observe opens a span for a client operation and returns the function
// that closes it and records the operation metric.
func (c *Client) observe(ctx context.Context, op, typeName string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanOperation,
		trace.WithAttributes(
			attribute.String(observability.AttrOperation, op),
			attribute.String(observability.AttrType, typeName),
		))
	return ctx, func(err error) {
		status := "ok"
		if err != nil {
			status = string(errors.CodeOf(err))
			if status == "" {
				status = "error"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.RecordOperation(ctx, op, typeName, status, time.Since(start))
		}
	}
}

// mergeBody flattens body into one JSON document. A single array or
// collection argument is sent as an array. Otherwise every *Object, map
// or struct argument is merged into one object, later keys overriding
// earlier ones. No arguments give "{}".
func mergeBody(body ...any) (any, error) {
	if len(body) == 1 {
		switch x := body[0].(type) {
		case []any:
			return x, nil
		case []*Object:
			return x, nil
		case *Object:
			if x != nil && x.Type() == "collection" {
				return x.Slice("data"), nil
			}
		}
	}

	merged := NewObject()
	for i, arg := range body {
		var src *Object
		switch x := arg.(type) {
		case nil:
			continue
		case *Object:
			src = x
		case map[string]any:
			src = fromMap(x)
		default:
			data, err := json.Marshal(x)
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("body[%d]", i), err.Error())
			}
			v, err := Decode(data)
			if err != nil {
				return nil, err
			}
			obj, ok := v.(*Object)
			if !ok {
				return nil, errors.InvalidInput(fmt.Sprintf("body[%d]", i), "must encode to a JSON object")
			}
			src = obj
		}
		if src == nil {
			continue
		}
		for _, k := range src.Keys() {
			merged.Set(k, src.Get(k))
		}
	}
	return merged, nil
}
