// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

// Canonical attribute names used by the session layer. The data model
// itself is open — a host application may carry additional attributes
// and they diff, transmit, and merge like any other key.
const (
	// AttrPosition is the participant position, a mapping with keys
	// "x", "y", "z".
	AttrPosition = "position"

	// AttrOrientation is the participant orientation, a mapping with
	// quaternion keys "w", "x", "y", "z".
	AttrOrientation = "orientation"

	// AttrVolume is the participant output gain in [0, 1].
	AttrVolume = "volume"

	// AttrMuted marks the participant's input as muted.
	AttrMuted = "muted"
)

// State is a snapshot of spatial-audio attributes. Only attributes
// explicitly set are present; absence means "unspecified", not zero.
// A State never contains the removal marker — that belongs to Diff.
type State map[string]Value

// Clone returns an independent copy. Value payloads are immutable, so
// a shallow copy of the map suffices.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	copied := make(State, len(s))
	for key, value := range s {
		copied[key] = value
	}
	return copied
}

// Equal reports whether two snapshots hold the same attributes with
// structurally equal values.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for key, value := range s {
		otherValue, ok := other[key]
		if !ok || !value.Equal(otherValue) {
			return false
		}
	}
	return true
}

// Validate checks the data-model invariants: every numeric field is a
// finite number (never NaN or infinity, at any nesting depth) and no
// removal markers are present. The session validates a snapshot before
// it is diffed and transmitted, and the wire layer re-validates
// decoded frames so a misbehaving mixer cannot plant invalid values in
// the tracked remote state.
func (s State) Validate() error {
	for key, value := range s {
		if err := value.validate(key); err != nil {
			return err
		}
	}
	return nil
}

// Vec3 builds the conventional three-component mapping used for
// positions and direction vectors.
func Vec3(x, y, z float64) Value {
	return Mapping(map[string]Value{
		"x": Number(x),
		"y": Number(y),
		"z": Number(z),
	})
}

// AsVec3 extracts the x/y/z components from a Vec3-shaped mapping.
// Missing or non-numeric components report ok=false.
func AsVec3(v Value) (x, y, z float64, ok bool) {
	entries, isMapping := v.AsMapping()
	if !isMapping {
		return 0, 0, 0, false
	}
	x, okX := entries["x"].AsNumber()
	y, okY := entries["y"].AsNumber()
	z, okZ := entries["z"].AsNumber()
	if !okX || !okY || !okZ {
		return 0, 0, 0, false
	}
	return x, y, z, true
}

// Quat builds the four-component mapping used for orientations.
func Quat(w, x, y, z float64) Value {
	return Mapping(map[string]Value{
		"w": Number(w),
		"x": Number(x),
		"y": Number(y),
		"z": Number(z),
	})
}

// AsQuat extracts the w/x/y/z components from a Quat-shaped mapping.
func AsQuat(v Value) (w, x, y, z float64, ok bool) {
	entries, isMapping := v.AsMapping()
	if !isMapping {
		return 0, 0, 0, 0, false
	}
	w, okW := entries["w"].AsNumber()
	x, okX := entries["x"].AsNumber()
	y, okY := entries["y"].AsNumber()
	z, okZ := entries["z"].AsNumber()
	if !okW || !okX || !okY || !okZ {
		return 0, 0, 0, 0, false
	}
	return w, x, y, z, true
}
