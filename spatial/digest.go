// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/auralspace/auralspace/lib/codec"
)

// Digest is a 32-byte BLAKE3 digest of a snapshot's canonical CBOR
// encoding. Full-state resends carry the digest so the mixer can
// verify convergence without recomputing a diff.
type Digest [32]byte

// stateDomainKey is the 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures state digests can never collide with hashes
// computed elsewhere over the same bytes. The byte values are the
// ASCII encoding of the domain name, zero-padded to 32 bytes, so the
// key is inspectable in hex dumps without sacrificing any
// cryptographic property.
var stateDomainKey = [32]byte{
	'a', 'u', 'r', 'a', 'l', 's', 'p', 'a', 'c', 'e', '.',
	's', 't', 'a', 't', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// StateDigest computes the keyed BLAKE3 digest of the snapshot's
// deterministic CBOR encoding. Equal states always produce equal
// digests because the codec sorts map keys.
func StateDigest(state State) (Digest, error) {
	encoded, err := codec.Marshal(state)
	if err != nil {
		return Digest{}, err
	}

	hasher, err := blake3.NewKeyed(stateDomainKey[:])
	if err != nil {
		return Digest{}, err
	}
	hasher.Write(encoded)

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
