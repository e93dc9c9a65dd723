package hyper

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/logger"
	"github.com/kbukum/hyperkit/resilience"
)

// Wait defaults.
const (
	DefaultWaitInterval   = 10 * time.Millisecond
	DefaultConditionWait  = 60 * time.Second
	DefaultStateWait      = 120 * time.Second
	maxTransitionInterval = 2 * time.Second
)

// WaitTransitioning reloads obj until its transitioning field is no longer
// "yes". The delay starts at interval and doubles up to 2s. The deadline
// is measured from the first reload; timeout <= 0 uses the client's
// WaitTimeout and interval <= 0 uses 10ms.
func (c *Client) WaitTransitioning(ctx context.Context, obj *Object, timeout, interval time.Duration) (*Object, error) {
	if timeout <= 0 {
		timeout = c.cfg.WaitTimeout
	}
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	typeName, id := obj.Type(), obj.ID()
	cfg := resilience.PollConfig{
		Interval:    interval,
		MaxInterval: maxTransitionInterval,
		Timeout:     timeout,
		OnPoll: func(attempt int, elapsed time.Duration) {
			c.log.Debug("still transitioning", logger.Fields(
				logger.FieldType, typeName,
				logger.FieldID, id,
				logger.FieldAttempt, attempt,
			))
		},
	}

	current, elapsed, err := resilience.Poll(ctx, cfg, func(ctx context.Context) (*Object, bool, error) {
		cur, err := c.Reload(ctx, obj)
		if err != nil {
			return nil, false, err
		}
		if cur == nil {
			return nil, false, vanished(typeName, id)
		}
		return cur, cur.String("transitioning") != "yes", nil
	})
	if stderrors.Is(err, resilience.ErrPollTimeout) {
		return current, waitTimeout("to be done", typeName, id, elapsed)
	}
	return current, err
}

// WaitSuccess waits for obj to settle and fails with TRANSITION_FAILED
// carrying transitioningMessage unless transitioning ends as "no".
func (c *Client) WaitSuccess(ctx context.Context, obj *Object, timeout time.Duration) (*Object, error) {
	cur, err := c.WaitTransitioning(ctx, obj, timeout, 0)
	if err != nil {
		return nil, err
	}
	if cur.String("transitioning") != "no" {
		return cur, errors.TransitionFailed(cur.String("transitioningMessage")).
			WithDetail("type", cur.Type()).
			WithDetail("id", cur.ID())
	}
	return cur, nil
}

// WaitFor calls cond until it returns true, backing off from 10ms to 1s.
// timeout <= 0 means 60s.
func WaitFor(ctx context.Context, cond func(ctx context.Context) (bool, error), timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConditionWait
	}
	cfg := resilience.PollConfig{
		Interval:    DefaultWaitInterval,
		MaxInterval: time.Second,
		Timeout:     timeout,
	}
	_, elapsed, err := resilience.Poll(ctx, cfg, func(ctx context.Context) (struct{}, bool, error) {
		ok, err := cond(ctx)
		return struct{}{}, ok, err
	})
	if stderrors.Is(err, resilience.ErrPollTimeout) {
		return errors.Newf(errors.ErrCodeTimeout, "timeout waiting for condition after %.2f seconds", elapsed.Seconds()).
			WithDetail("elapsed_seconds", elapsed.Seconds())
	}
	return err
}

// FindCondition reports whether obj.conditions has an entry with the
// given type and status.
func FindCondition(obj *Object, condType, status string) bool {
	for _, v := range obj.Slice("conditions") {
		cond, ok := v.(*Object)
		if ok && cond.String("type") == condType && cond.String("status") == status {
			return true
		}
	}
	return false
}

// WaitForCondition reloads obj until FindCondition matches. It backs off
// from 10ms to 2s; timeout <= 0 uses the client's WaitTimeout.
func WaitForCondition(ctx context.Context, c *Client, obj *Object, condType, status string, timeout time.Duration) (*Object, error) {
	if timeout <= 0 {
		timeout = c.cfg.WaitTimeout
	}
	typeName, id := obj.Type(), obj.ID()
	cfg := resilience.PollConfig{
		Interval:    DefaultWaitInterval,
		MaxInterval: maxTransitionInterval,
		Timeout:     timeout,
	}
	current, elapsed, err := resilience.Poll(ctx, cfg, func(ctx context.Context) (*Object, bool, error) {
		cur, err := c.Reload(ctx, obj)
		if err != nil {
			return nil, false, err
		}
		if cur == nil {
			return nil, false, vanished(typeName, id)
		}
		return cur, FindCondition(cur, condType, status), nil
	})
	if stderrors.Is(err, resilience.ErrPollTimeout) {
		return current, waitTimeout("for condition "+condType+"="+status, typeName, id, elapsed).
			WithDetail("condition", condType)
	}
	return current, err
}

// WaitForState fetches typeName/id until its state field equals state.
// The delay starts at 0.5s and doubles up to 5s; timeout <= 0 means 120s.
func WaitForState(ctx context.Context, c *Client, typeName, id, state string, timeout time.Duration) (*Object, error) {
	if timeout <= 0 {
		timeout = DefaultStateWait
	}
	cfg := resilience.PollConfig{
		Interval:    500 * time.Millisecond,
		MaxInterval: 5 * time.Second,
		Timeout:     timeout,
	}
	current, elapsed, err := resilience.Poll(ctx, cfg, func(ctx context.Context) (*Object, bool, error) {
		cur, err := c.ByID(ctx, typeName, id, nil)
		if err != nil {
			return nil, false, err
		}
		return cur, cur != nil && cur.String("state") == state, nil
	})
	if stderrors.Is(err, resilience.ErrPollTimeout) {
		return current, waitTimeout("to reach state "+state, typeName, id, elapsed).
			WithDetail("state", state)
	}
	return current, err
}

func waitTimeout(what, typeName, id string, elapsed time.Duration) *errors.AppError {
	return errors.Newf(errors.ErrCodeTimeout, "timeout waiting for [%s:%s] %s after %.2f seconds",
		typeName, id, what, elapsed.Seconds()).
		WithDetail("type", typeName).
		WithDetail("id", id).
		WithDetail("elapsed_seconds", elapsed.Seconds())
}

func vanished(typeName, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NotFound",
		Message: "[" + typeName + ":" + id + "] no longer exists",
	}
}
