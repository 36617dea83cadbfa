// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides helpers for tests that coordinate
// goroutines through channels.
//
// RequireReceive, RequireSend, and RequireClosed wrap channel
// operations with a timeout safety valve so that a wedged session or
// transport fails the test with a message instead of hanging until
// the package-level test timeout.
package testutil
