// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides CBOR encoding with deterministic output.
//
// All mixer protocol payloads — state diffs, full snapshots, and the
// wire envelope around them — encode through this package. Encoding
// uses Core Deterministic Encoding (RFC 8949 §4.2) so that the same
// logical state always produces identical bytes; the spatial package
// relies on this to compute stable state digests. Decoding accepts
// standard CBOR and ignores unknown fields for forward compatibility.
//
// Consumers import only this package, not fxamacker/cbor directly,
// keeping the codec choice in one place.
package codec
