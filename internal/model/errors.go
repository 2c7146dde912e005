package model

import "errors"

// ErrInvalidConfiguration marks configuration errors that must fail fast,
// before any model call.
var ErrInvalidConfiguration = errors.New("invalid configuration")
