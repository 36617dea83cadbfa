// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"

	"github.com/auralspace/auralspace/lib/codec"
	"github.com/auralspace/auralspace/spatial"
)

// MessageKind identifies the payload carried by an envelope.
type MessageKind uint8

const (
	// KindUpdate carries an incremental state diff.
	KindUpdate MessageKind = 1

	// KindSnapshot carries a complete state plus its digest. Sent
	// after reconnection, when the remote side may have lost prior
	// updates; the digest lets the receiver confirm convergence
	// without recomputing a diff.
	KindSnapshot MessageKind = 2
)

// String returns the message kind name.
func (k MessageKind) String() string {
	switch k {
	case KindUpdate:
		return "update"
	case KindSnapshot:
		return "snapshot"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// envelope is the CBOR wire frame. The payload is the CBOR encoding
// of a spatial.Diff (updates) or spatial.State (snapshots), optionally
// compressed.
type envelope struct {
	Kind             MessageKind    `cbor:"kind"`
	Compression      CompressionTag `cbor:"compression"`
	UncompressedSize int            `cbor:"uncompressed_size"`
	Digest           []byte         `cbor:"digest,omitempty"`
	Payload          []byte         `cbor:"payload"`
}

// Message is a decoded protocol message. Exactly one of Diff and
// State is populated, according to Kind.
type Message struct {
	Kind MessageKind

	// Diff is populated for KindUpdate.
	Diff spatial.Diff

	// State and Digest are populated for KindSnapshot.
	State  spatial.State
	Digest spatial.Digest
}

// EncodeUpdate frames an incremental diff for transmission. Payloads
// above the compression threshold are LZ4-compressed when that
// actually shrinks them.
func EncodeUpdate(diff spatial.Diff) ([]byte, error) {
	payload, err := codec.Marshal(diff)
	if err != nil {
		return nil, fmt.Errorf("wire: encoding diff: %w", err)
	}
	return seal(envelope{Kind: KindUpdate}, payload, CompressionLZ4)
}

// EncodeSnapshot frames a complete state resend, including its
// digest. Snapshots compress with zstd — they are larger than diffs
// and their repeated attribute keys compress well.
func EncodeSnapshot(state spatial.State) ([]byte, error) {
	payload, err := codec.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("wire: encoding snapshot: %w", err)
	}
	digest, err := spatial.StateDigest(state)
	if err != nil {
		return nil, fmt.Errorf("wire: computing snapshot digest: %w", err)
	}
	return seal(envelope{Kind: KindSnapshot, Digest: digest[:]}, payload, CompressionZstd)
}

// seal compresses the payload when worthwhile and marshals the frame.
func seal(frame envelope, payload []byte, preferred CompressionTag) ([]byte, error) {
	frame.Compression = CompressionNone
	frame.UncompressedSize = len(payload)
	frame.Payload = payload

	if len(payload) >= compressionThreshold {
		compressed, err := compress(payload, preferred)
		switch {
		case err == nil:
			frame.Compression = preferred
			frame.Payload = compressed
		case errors.Is(err, errIncompressible):
			// Keep the uncompressed payload.
		default:
			return nil, err
		}
	}

	encoded, err := codec.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("wire: encoding envelope: %w", err)
	}
	return encoded, nil
}

// Decode parses a received frame into a Message.
func Decode(data []byte) (*Message, error) {
	var frame envelope
	if err := codec.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("wire: decoding envelope: %w", err)
	}

	payload, err := decompress(frame.Payload, frame.Compression, frame.UncompressedSize)
	if err != nil {
		return nil, err
	}

	message := &Message{Kind: frame.Kind}

	switch frame.Kind {
	case KindUpdate:
		if err := codec.Unmarshal(payload, &message.Diff); err != nil {
			return nil, fmt.Errorf("wire: decoding diff payload: %w", err)
		}
		// A frame deserializes into arbitrary values; hold the sender
		// to the same invariants the local state is validated against.
		if err := message.Diff.Validate(); err != nil {
			return nil, fmt.Errorf("wire: invalid diff payload: %w", err)
		}

	case KindSnapshot:
		if err := codec.Unmarshal(payload, &message.State); err != nil {
			return nil, fmt.Errorf("wire: decoding snapshot payload: %w", err)
		}
		if err := message.State.Validate(); err != nil {
			return nil, fmt.Errorf("wire: invalid snapshot payload: %w", err)
		}
		if len(frame.Digest) != len(message.Digest) {
			return nil, fmt.Errorf("wire: snapshot digest length %d, want %d", len(frame.Digest), len(message.Digest))
		}
		copy(message.Digest[:], frame.Digest)
		// Verify the payload against its digest: a mismatch means
		// corruption somewhere between the sender's encoder and us.
		computed, err := spatial.StateDigest(message.State)
		if err != nil {
			return nil, fmt.Errorf("wire: verifying snapshot digest: %w", err)
		}
		if computed != message.Digest {
			return nil, fmt.Errorf("wire: snapshot digest mismatch: computed %s, declared %s", computed, message.Digest)
		}

	default:
		return nil, fmt.Errorf("wire: unknown message kind %d", uint8(frame.Kind))
	}

	return message, nil
}
