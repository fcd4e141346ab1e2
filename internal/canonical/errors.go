package canonical

import "errors"

// ErrInvalidArgument is returned when a function's preconditions are
// violated at the boundary (for example, an empty record set passed to
// fusion). The core never raises this mid-computation.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidConfiguration is returned by configuration construction when
// any validation rule fails. It always wraps a message enumerating every
// violation found, not just the first.
var ErrInvalidConfiguration = errors.New("invalid configuration")
