// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

// Package pacer drives a callback at a fixed interval without
// cumulative drift.
//
// The session layer uses a pacer to sample, diff, and transmit
// spatial state on a steady cadence. Each tick's deadline is an
// absolute timestamp advanced by exactly the interval, so timing
// error from coarse platform timers never accumulates; a short
// yield-spin closes the final gap before each deadline. See
// [StartWithMargin] for the timing model and [Handle.Cancel] for the
// cancellation guarantees.
package pacer
