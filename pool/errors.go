package pool

import "errors"

// ErrGuardDetached indicates a guard whose buffer was already handed off or returned.
var ErrGuardDetached = errors.New("guard no longer owns a buffer")
