// Package middleware provides built-in middlewares for the fireai client.
// Each New* function returns a [client.MiddlewareConfig] ready to be passed
// to [client.WithMiddleware].
//
//   - [NewRetryMiddleware] retries transient fetch errors (429 and 5xx) with
//     exponential backoff and jitter.
//   - [NewTimeoutMiddleware] bounds the whole lifetime of a call, stream
//     included.
//   - [NewLoggingMiddleware] writes slog entries before and after every call,
//     at three verbosity levels.
//
// Usage:
//
//	c, err := client.New(settings,
//	    client.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(2*time.Minute),
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 3}),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// The first entry is the outermost wrapper. Above, a request travels
//
//	Timeout → Retry → Logging → Provider
//
// so every retry attempt is logged and all of them share one deadline.
package middleware
