// SPDX-License-Identifier: MIT
//
// Package transport publishes diagnostics (audio snapshots, renderer state,
// the last strip frame) to observers outside the process.
package transport

import "errors"

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport: closed")

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}
