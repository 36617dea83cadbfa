// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport carries encoded state frames between a participant
// and the mixing service.
//
// The production implementation, WebRTCTransport, opens a single ordered
// reliable WebRTC data channel to the mixer. Session establishment uses
// vanilla ICE through the Signaler interface: all candidates are gathered
// before the SDP is published, so signaling requires exactly one
// offer/answer round-trip.
//
// MemoryTransport is an in-process implementation for tests. It records
// outbound frames and lets tests inject inbound frames and link failures.
package transport
