// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Kind identifies the variant held by a Value. The zero Kind marks an
// unset Value, which is never a legal attribute — absence of a key is
// expressed by the key not being present in the State.
type Kind uint8

const (
	// KindUnset is the zero value. A State or Diff never contains an
	// unset Value.
	KindUnset Kind = iota

	// KindNumber is a finite float64 scalar.
	KindNumber

	// KindBool is a boolean scalar.
	KindBool

	// KindText is a string scalar.
	KindText

	// KindSequence is an ordered list of Values.
	KindSequence

	// KindMapping is a string-keyed collection of Values.
	KindMapping

	// KindRemoved is the removal marker. It appears only inside a
	// Diff, instructing the receiver to delete the attribute. On the
	// wire it encodes as CBOR null.
	KindRemoved
)

// String returns the human-readable name of a kind.
func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindRemoved:
		return "removed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Value is a tagged variant holding one spatial-state attribute:
// a number, a bool, text, a sequence, a mapping, or the removal
// marker. Values are immutable by convention — no method mutates the
// receiver, and composite constructors copy their inputs.
type Value struct {
	kind     Kind
	number   float64
	boolean  bool
	text     string
	sequence []Value
	mapping  map[string]Value
}

// Number returns a numeric Value. The finite-number invariant is not
// enforced here (constructors stay total); State.Validate rejects
// NaN and infinities before anything reaches the wire.
func Number(v float64) Value {
	return Value{kind: KindNumber, number: v}
}

// Bool returns a boolean Value.
func Bool(v bool) Value {
	return Value{kind: KindBool, boolean: v}
}

// Text returns a string Value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Sequence returns an ordered sequence Value. The elements are copied.
func Sequence(elements ...Value) Value {
	copied := make([]Value, len(elements))
	copy(copied, elements)
	return Value{kind: KindSequence, sequence: copied}
}

// Mapping returns a mapping Value. The entries are copied (shallow —
// element Values are already immutable).
func Mapping(entries map[string]Value) Value {
	copied := make(map[string]Value, len(entries))
	for key, value := range entries {
		copied[key] = value
	}
	return Value{kind: KindMapping, mapping: copied}
}

// Removed returns the removal marker.
func Removed() Value {
	return Value{kind: KindRemoved}
}

// Kind reports which variant the Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsRemoved reports whether the Value is the removal marker.
func (v Value) IsRemoved() bool { return v.kind == KindRemoved }

// AsNumber returns the numeric payload. The bool is false when the
// Value is not a number.
func (v Value) AsNumber() (float64, bool) {
	return v.number, v.kind == KindNumber
}

// AsBool returns the boolean payload. The second result is false when
// the Value is not a bool.
func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}

// AsText returns the string payload. The bool is false when the Value
// is not text.
func (v Value) AsText() (string, bool) {
	return v.text, v.kind == KindText
}

// AsSequence returns a copy of the sequence elements. The bool is
// false when the Value is not a sequence.
func (v Value) AsSequence() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	copied := make([]Value, len(v.sequence))
	copy(copied, v.sequence)
	return copied, true
}

// AsMapping returns a copy of the mapping entries. The bool is false
// when the Value is not a mapping.
func (v Value) AsMapping() (map[string]Value, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	copied := make(map[string]Value, len(v.mapping))
	for key, value := range v.mapping {
		copied[key] = value
	}
	return copied, true
}

// Equal reports exact structural equality. Numbers compare with ==
// (exact, not tolerance-based); sequences compare element-by-element
// in order; mappings compare key-by-key. Values of different kinds
// are never equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.number == other.number
	case KindBool:
		return v.boolean == other.boolean
	case KindText:
		return v.text == other.text
	case KindSequence:
		if len(v.sequence) != len(other.sequence) {
			return false
		}
		for i := range v.sequence {
			if !v.sequence[i].Equal(other.sequence[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.mapping) != len(other.mapping) {
			return false
		}
		for key, value := range v.mapping {
			otherValue, ok := other.mapping[key]
			if !ok || !value.Equal(otherValue) {
				return false
			}
		}
		return true
	default:
		// Unset and Removed carry no payload.
		return true
	}
}

// validate checks the finite-number and no-removal-marker invariants
// recursively. The path names the attribute for diagnostics.
func (v Value) validate(path string) error {
	switch v.kind {
	case KindUnset:
		return fmt.Errorf("spatial: attribute %q holds an unset value", path)
	case KindRemoved:
		return fmt.Errorf("spatial: attribute %q holds a removal marker outside a diff", path)
	case KindNumber:
		if math.IsNaN(v.number) || math.IsInf(v.number, 0) {
			return fmt.Errorf("spatial: attribute %q is not a finite number: %v", path, v.number)
		}
	case KindSequence:
		for i, element := range v.sequence {
			if err := element.validate(fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case KindMapping:
		for key, value := range v.mapping {
			if err := value.validate(path + "." + key); err != nil {
				return err
			}
		}
	}
	return nil
}

// String renders the Value for logs and test failures. Mapping keys
// are sorted for stable output.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.number)
	case KindBool:
		return fmt.Sprintf("%t", v.boolean)
	case KindText:
		return fmt.Sprintf("%q", v.text)
	case KindSequence:
		parts := make([]string, len(v.sequence))
		for i, element := range v.sequence {
			parts[i] = element.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMapping:
		keys := make([]string, 0, len(v.mapping))
		for key := range v.mapping {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, key := range keys {
			parts[i] = key + ": " + v.mapping[key].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindRemoved:
		return "<removed>"
	default:
		return "<unset>"
	}
}
