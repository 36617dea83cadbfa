// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

// Package spatial defines the value model for spatial-audio state and
// the diff engine that keeps a remote copy of that state current.
//
// [State] is a snapshot: a mapping from attribute names (position,
// orientation, volume, and anything else the host application sets) to
// tagged-variant [Value] payloads. Only attributes explicitly set are
// present — absence means "unspecified", never zero. [Value] holds one
// of six variants (number, bool, text, sequence, mapping, removal
// marker) with explicit per-variant comparison rules instead of
// reflection-driven dispatch.
//
// [DiffStates] computes the minimal structural difference between two
// snapshots; [Diff.Apply] replays it. The round-trip law — applying
// diff(previous, current) to previous reproduces current — is the
// contract the session layer's bandwidth-minimizing transmission
// depends on. The engine performs no I/O and never mutates its inputs.
//
// [StateDigest] hashes a snapshot's canonical CBOR encoding with a
// keyed BLAKE3 so full resends can carry a compact convergence check.
package spatial
