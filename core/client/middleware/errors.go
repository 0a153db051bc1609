package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when every attempt
// failed with a retryable error. It wraps the last provider error, so both
// can be inspected:
//
//	if errors.Is(err, middleware.ErrRetryExhausted) && ai.IsCode(err, ai.ErrorCodeFetchError) {
//	    // the backend kept failing
//	}
var ErrRetryExhausted = errors.New("fireai: all retry attempts exhausted")
