package eventstream

import "errors"

// ErrNilEvent indicates a nil mutation event was provided to a publisher.
var ErrNilEvent = errors.New("nil mutation event")
