package orchestrator

import "errors"

// ErrCredentialUnavailable signals that no usable credential could be resolved
// for the session; every group fails with this error and no upstream call is made
var ErrCredentialUnavailable = errors.New("credential unavailable")

// ErrUnknownPlatform signals that no client is configured for the requested platform
var ErrUnknownPlatform = errors.New("unknown platform")

// ErrNoGroups signals a request without any metric group
var ErrNoGroups = errors.New("no metric groups requested")
