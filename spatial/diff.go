// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

// Diff is the minimal set of per-attribute changes that brings one
// State up to date with another. Each key maps to a replacement value,
// a nested diff (for mappings changed on both sides), or the removal
// marker. Diffs are produced transiently per tick and are not
// persisted.
type Diff map[string]Value

// Empty reports whether the diff carries no changes. An empty diff is
// never transmitted.
func (d Diff) Empty() bool { return len(d) == 0 }

// Validate checks that every replacement value in the diff obeys the
// data-model invariants. Removal markers are legal at replace-or-remove
// positions (top-level keys and mapping entries) but not inside
// replacement sequences, which always travel wholesale. The wire layer
// validates decoded diffs before they are applied to the remote state.
func (d Diff) Validate() error {
	for key, patch := range d {
		if err := patch.validatePatch(key); err != nil {
			return err
		}
	}
	return nil
}

// validatePatch is validate with removal markers admitted at mapping
// entries, where Apply interprets them as deletions.
func (v Value) validatePatch(path string) error {
	switch v.kind {
	case KindRemoved:
		return nil
	case KindMapping:
		for key, entry := range v.mapping {
			if err := entry.validatePatch(path + "." + key); err != nil {
				return err
			}
		}
		return nil
	default:
		return v.validate(path)
	}
}

// DiffStates computes the structural difference between two snapshots,
// key-by-key across the union of keys present in either:
//
//   - a key present only in current appears mapped to current's value;
//   - a key present only in previous appears mapped to the removal
//     marker;
//   - mappings present in both diff recursively, and an empty nested
//     diff omits the key entirely;
//   - sequences compare element-by-element in order, and any length
//     mismatch or differing element replaces the sequence wholesale;
//   - scalars compare by exact equality, and a kind change always
//     counts as a change.
//
// The guarantee tests verify: Apply(previous) of the result reproduces
// current exactly. Neither input is mutated.
func DiffStates(previous, current State) Diff {
	diff := make(Diff)

	for key, currentValue := range current {
		previousValue, existed := previous[key]
		if !existed {
			diff[key] = currentValue
			continue
		}
		if changed, ok := diffValues(previousValue, currentValue); ok {
			diff[key] = changed
		}
	}

	for key := range previous {
		if _, stillPresent := current[key]; !stillPresent {
			diff[key] = Removed()
		}
	}

	return diff
}

// diffValues compares two values. The bool reports whether they
// differ; when true, the returned Value is what the diff should carry
// for this key (the new value, or a nested diff for mapping-to-mapping
// changes).
func diffValues(previous, current Value) (Value, bool) {
	if previous.kind != current.kind {
		return current, true
	}

	switch current.kind {
	case KindMapping:
		nested := diffMappings(previous.mapping, current.mapping)
		if len(nested) == 0 {
			return Value{}, false
		}
		return Value{kind: KindMapping, mapping: nested}, true

	case KindSequence:
		// No partial sequence patching: any difference replaces the
		// whole sequence.
		if sequencesEqual(previous.sequence, current.sequence) {
			return Value{}, false
		}
		return current, true

	default:
		if previous.Equal(current) {
			return Value{}, false
		}
		return current, true
	}
}

// diffMappings is DiffStates over the entries of two mapping values.
func diffMappings(previous, current map[string]Value) map[string]Value {
	nested := make(map[string]Value)

	for key, currentValue := range current {
		previousValue, existed := previous[key]
		if !existed {
			nested[key] = currentValue
			continue
		}
		if changed, ok := diffValues(previousValue, currentValue); ok {
			nested[key] = changed
		}
	}

	for key := range previous {
		if _, stillPresent := current[key]; !stillPresent {
			nested[key] = Removed()
		}
	}

	return nested
}

func sequencesEqual(previous, current []Value) bool {
	if len(previous) != len(current) {
		return false
	}
	for i := range previous {
		if !previous[i].Equal(current[i]) {
			return false
		}
	}
	return true
}

// Apply produces the snapshot that results from replaying the diff on
// top of previous: replace-or-remove per key, recursing where both the
// existing value and the patch are mappings. The input is not mutated.
func (d Diff) Apply(previous State) State {
	next := previous.Clone()
	if next == nil {
		next = make(State)
	}

	for key, patch := range d {
		if patch.IsRemoved() {
			delete(next, key)
			continue
		}
		existing, exists := next[key]
		if exists && existing.kind == KindMapping && patch.kind == KindMapping {
			next[key] = Value{kind: KindMapping, mapping: applyMapping(existing.mapping, patch.mapping)}
			continue
		}
		next[key] = patch
	}

	return next
}

// applyMapping replays a nested diff over mapping entries.
func applyMapping(previous, patch map[string]Value) map[string]Value {
	next := make(map[string]Value, len(previous))
	for key, value := range previous {
		next[key] = value
	}

	for key, patchValue := range patch {
		if patchValue.IsRemoved() {
			delete(next, key)
			continue
		}
		existing, exists := next[key]
		if exists && existing.kind == KindMapping && patchValue.kind == KindMapping {
			next[key] = Value{kind: KindMapping, mapping: applyMapping(existing.mapping, patchValue.mapping)}
			continue
		}
		next[key] = patchValue
	}

	return next
}
