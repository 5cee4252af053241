package credentials

import "errors"

// ErrNotFound signals that no connected integration exists for the requested company and platform
var ErrNotFound = errors.New("no connected integration found")

// ErrInvalidTTL signals that the provided cache TTL is not usable
var ErrInvalidTTL = errors.New("invalid credential cache TTL")
