package rate

import "errors"

// ErrRedisUnavailable wraps Redis failures of the limiter.
var ErrRedisUnavailable = errors.New("rate limiter redis unavailable")
