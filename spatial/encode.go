// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"

	"github.com/auralspace/auralspace/lib/codec"
)

// toWire converts a Value to the plain Go shape the CBOR codec
// understands. The removal marker becomes nil (CBOR null) — the
// protocol-level distinction between "set to null" and "absent" does
// not arise because a State never contains Removed, only a Diff does.
func (v Value) toWire() any {
	switch v.kind {
	case KindNumber:
		return v.number
	case KindBool:
		return v.boolean
	case KindText:
		return v.text
	case KindSequence:
		elements := make([]any, len(v.sequence))
		for i, element := range v.sequence {
			elements[i] = element.toWire()
		}
		return elements
	case KindMapping:
		entries := make(map[string]any, len(v.mapping))
		for key, value := range v.mapping {
			entries[key] = value.toWire()
		}
		return entries
	default:
		return nil
	}
}

// valueFromWire converts a decoded CBOR shape back to a Value. CBOR
// integers decode as int64 or uint64 depending on sign; both collapse
// into the numeric variant, matching the data model's single number
// type.
func valueFromWire(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Removed(), nil
	case float64:
		return Number(typed), nil
	case float32:
		return Number(float64(typed)), nil
	case int64:
		return Number(float64(typed)), nil
	case uint64:
		return Number(float64(typed)), nil
	case bool:
		return Bool(typed), nil
	case string:
		return Text(typed), nil
	case []any:
		elements := make([]Value, len(typed))
		for i, rawElement := range typed {
			element, err := valueFromWire(rawElement)
			if err != nil {
				return Value{}, err
			}
			elements[i] = element
		}
		return Value{kind: KindSequence, sequence: elements}, nil
	case map[string]any:
		entries := make(map[string]Value, len(typed))
		for key, rawEntry := range typed {
			entry, err := valueFromWire(rawEntry)
			if err != nil {
				return Value{}, err
			}
			entries[key] = entry
		}
		return Value{kind: KindMapping, mapping: entries}, nil
	default:
		return Value{}, fmt.Errorf("spatial: unsupported wire type %T", raw)
	}
}

// MarshalCBOR encodes the Value through the module's deterministic
// CBOR configuration.
func (v Value) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(v.toWire())
}

// UnmarshalCBOR decodes a Value from CBOR.
func (v *Value) UnmarshalCBOR(data []byte) error {
	var raw any
	if err := codec.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := valueFromWire(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
