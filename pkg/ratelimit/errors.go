package ratelimit

import "errors"

// ErrClosed is returned to any waiter still queued when Destroy is called.
var ErrClosed = errors.New("ratelimit: bucket destroyed")
