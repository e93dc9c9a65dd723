// Package resilience provides the waiting and guarding patterns the
// hyperkit client relies on:
//
//   - Retry: re-runs an operation while its error satisfies RetryIf, with
//     fixed or exponential delay between attempts. The hyper client uses it
//     to retry mutations that the server rejects with 409 Conflict.
//   - Poll: re-runs a check until it reports done, backing off
//     exponentially up to a cap, and gives up once a wall-clock deadline
//     measured from the first call has passed.
//   - CircuitBreaker and RateLimiter: optional guards on every HTTP
//     exchange, configured through httpclient.Config.
//
// Polling an object until it settles:
//
//	obj, elapsed, err := resilience.Poll(ctx, resilience.PollConfig{
//	    Interval:    10 * time.Millisecond,
//	    MaxInterval: 2 * time.Second,
//	    Timeout:     45 * time.Second,
//	}, func(ctx context.Context) (*hyper.Object, bool, error) {
//	    obj, err := client.Reload(ctx, obj)
//	    return obj, err == nil && obj.String("transitioning") != "yes", err
//	})
package resilience
