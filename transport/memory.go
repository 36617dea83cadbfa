// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"sync"
)

// Compile-time interface check.
var _ Transport = (*MemoryTransport)(nil)

// MemoryTransport is an in-process Transport for tests. Outbound frames
// are captured on a channel for inspection; tests inject inbound frames
// with Deliver and simulate link failures with DropLink and scripted Open
// results with FailNextOpens.
type MemoryTransport struct {
	mu        sync.Mutex
	handler   Handler
	open      bool
	openErrs  []error
	openCalls int
	sendErr   error

	sent chan []byte
}

// NewMemoryTransport creates a memory transport with room for 256
// buffered outbound frames.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		sent: make(chan []byte, 256),
	}
}

// Bind registers the handler. Must be called before Open.
func (mt *MemoryTransport) Bind(handler Handler) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.handler = handler
}

// Open establishes the in-process link, or fails with the next scripted
// error if FailNextOpens queued one.
func (mt *MemoryTransport) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.openCalls++
	if len(mt.openErrs) > 0 {
		err := mt.openErrs[0]
		mt.openErrs = mt.openErrs[1:]
		return err
	}
	mt.open = true
	return nil
}

// Send captures the frame on the Sent channel.
func (mt *MemoryTransport) Send(frame []byte) error {
	mt.mu.Lock()
	open := mt.open
	sendErr := mt.sendErr
	mt.mu.Unlock()

	if !open {
		return ErrNotOpen
	}
	if sendErr != nil {
		return sendErr
	}

	copied := make([]byte, len(frame))
	copy(copied, frame)
	mt.sent <- copied
	return nil
}

// Close tears down the link without notifying the handler.
func (mt *MemoryTransport) Close() error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.open = false
	return nil
}

// Sent returns the channel of captured outbound frames.
func (mt *MemoryTransport) Sent() <-chan []byte {
	return mt.sent
}

// Deliver injects an inbound frame as if the mixer had sent it. No-op when
// the link is not open.
func (mt *MemoryTransport) Deliver(frame []byte) {
	mt.mu.Lock()
	handler := mt.handler
	open := mt.open
	mt.mu.Unlock()

	if open && handler != nil {
		handler.HandleFrame(frame)
	}
}

// DropLink simulates a link failure: the link closes and the handler is
// notified with the given reason.
func (mt *MemoryTransport) DropLink(reason error) {
	mt.mu.Lock()
	handler := mt.handler
	open := mt.open
	mt.open = false
	mt.mu.Unlock()

	if open && handler != nil {
		handler.HandleClosed(reason)
	}
}

// FailNextOpens queues errors to be returned by the next Open calls, in
// order. Once the queue drains, Open succeeds again.
func (mt *MemoryTransport) FailNextOpens(errs ...error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.openErrs = append(mt.openErrs, errs...)
}

// SetSendError makes subsequent Send calls fail with err. Pass nil to
// restore normal delivery.
func (mt *MemoryTransport) SetSendError(err error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.sendErr = err
}

// OpenCalls returns how many times Open has been invoked.
func (mt *MemoryTransport) OpenCalls() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.openCalls
}
