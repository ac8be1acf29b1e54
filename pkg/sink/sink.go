// Package sink holds what the data sink implementations share.
package sink

import "errors"

// ErrNotFound is returned by Get for keys that were never written.
var ErrNotFound = errors.New("key not found in sink")
