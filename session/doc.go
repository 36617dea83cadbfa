// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the connection lifecycle between a participant
// and the mixing service, and drives the periodic diff-and-transmit
// cycle that keeps the two sides synchronized.
//
// A Session moves through Disconnected → Connecting → Connected, with
// Reconnecting covering mid-session link losses (bounded exponential
// backoff) and Failed as the terminal state when an attempt or the
// retry budget is exhausted. While Connected, a drift-corrected pacer
// samples the local spatial state every tick, transforms it into the
// mixer's canonical axis space, diffs it against the last transmitted
// snapshot, and sends only what changed. After a reconnect the baseline
// is cleared so the first tick retransmits everything.
//
// All session state is confined to a single run-loop goroutine fed by a
// task queue: ticks, inbound mixer frames, and API calls are serialized,
// and an epoch counter incremented on every disconnect or reconnect
// discards results of operations that outlived the link they belonged
// to.
package session
