// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
)

// ErrNotOpen is returned by Send when no link to the mixer is established.
var ErrNotOpen = errors.New("transport: link not open")

// Handler receives inbound traffic and link-failure notifications from a
// Transport. Implementations must not block: the transport invokes these
// callbacks from its own goroutines, and a blocked callback stalls frame
// delivery.
type Handler interface {
	// HandleFrame delivers one inbound frame from the mixer. The frame
	// slice is owned by the handler after the call returns.
	HandleFrame(frame []byte)

	// HandleClosed reports that the link to the mixer was lost. It is
	// invoked at most once per successful Open. reason describes the
	// failure; it is nil when the remote side closed the link cleanly.
	HandleClosed(reason error)
}

// Transport is a message-oriented link to the mixing service. Frames are
// delivered reliably and in order; there is no framing concern beyond the
// message boundary itself.
//
// A Transport is reusable: after Close (or a link failure reported via
// HandleClosed), Open may be called again to establish a fresh link.
type Transport interface {
	// Bind registers the handler for inbound frames and link failures.
	// Must be called exactly once, before the first Open.
	Bind(handler Handler)

	// Open establishes a link to the mixer. Blocks until the link is
	// ready for Send, ctx is cancelled, or establishment fails.
	Open(ctx context.Context) error

	// Send transmits one frame over the open link. Returns ErrNotOpen
	// when no link is established.
	Send(frame []byte) error

	// Close tears down the current link. Idempotent. Close does not
	// trigger HandleClosed: the owner initiated the teardown and needs
	// no notification.
	Close() error
}
