package rules

import "errors"

// ErrConfigSourceUnavailable is raised when rules cannot be reached at
// all -- an I/O error against a local path, or a network/non-2xx error
// against the remote configuration service (spec §7).
var ErrConfigSourceUnavailable = errors.New("rule config source unavailable")
