// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package axis

import "fmt"

// ParseSignedAxis parses the signed axis notation produced by
// SignedAxis.String: "+X", "-X", "+Y", "-Y", "+Z", "-Z". The leading "+"
// may be omitted.
func ParseSignedAxis(s string) (SignedAxis, error) {
	switch s {
	case "+X", "X", "x", "+x":
		return PositiveX, nil
	case "-X", "-x":
		return NegativeX, nil
	case "+Y", "Y", "y", "+y":
		return PositiveY, nil
	case "-Y", "-y":
		return NegativeY, nil
	case "+Z", "Z", "z", "+z":
		return PositiveZ, nil
	case "-Z", "-z":
		return NegativeZ, nil
	default:
		return 0, fmt.Errorf("unknown signed axis %q (want one of +X -X +Y -Y +Z -Z)", s)
	}
}

// ParseHandedness parses the handedness name produced by
// Handedness.String.
func ParseHandedness(s string) (Handedness, error) {
	switch s {
	case "right-handed":
		return RightHanded, nil
	case "left-handed":
		return LeftHanded, nil
	default:
		return 0, fmt.Errorf("unknown handedness %q (want %q or %q)", s, "right-handed", "left-handed")
	}
}

// ParseRotationOrder parses the rotation order tag produced by
// RotationOrder.String.
func ParseRotationOrder(s string) (RotationOrder, error) {
	switch s {
	case "yaw-pitch-roll":
		return YawPitchRoll, nil
	case "yaw-roll-pitch":
		return YawRollPitch, nil
	case "pitch-yaw-roll":
		return PitchYawRoll, nil
	case "pitch-roll-yaw":
		return PitchRollYaw, nil
	case "roll-pitch-yaw":
		return RollPitchYaw, nil
	case "roll-yaw-pitch":
		return RollYawPitch, nil
	default:
		return 0, fmt.Errorf("unknown rotation order %q", s)
	}
}
