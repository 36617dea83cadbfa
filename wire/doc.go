// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire frames mixer protocol messages for the transport.
//
// Each frame is a CBOR envelope carrying a message kind, a
// compression tag, and the payload: a state diff ([KindUpdate]) or a
// complete snapshot with its BLAKE3 digest ([KindSnapshot]). Payloads
// above a size threshold are compressed — LZ4 for diffs, zstd for
// snapshots — and sent uncompressed when compression would not
// shrink them. The transport treats frames as opaque bytes; only this
// package and its callers interpret them.
package wire
