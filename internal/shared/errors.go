package shared

import "errors"

// ErrNotInitialised is returned by recorders used without a backing pool.
var ErrNotInitialised = errors.New("shared: recorder not initialised")
