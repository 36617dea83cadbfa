// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package axis

import (
	"fmt"
	"log/slog"
)

// SignedAxis is one of the six signed cardinal axes an axis role can
// bind to.
type SignedAxis uint8

const (
	// PositiveX is the +X cardinal direction.
	PositiveX SignedAxis = iota + 1
	// NegativeX is the -X cardinal direction.
	NegativeX
	// PositiveY is the +Y cardinal direction.
	PositiveY
	// NegativeY is the -Y cardinal direction.
	NegativeY
	// PositiveZ is the +Z cardinal direction.
	PositiveZ
	// NegativeZ is the -Z cardinal direction.
	NegativeZ
)

// Cardinal is an unsigned cardinal axis.
type Cardinal uint8

// Cardinal axes.
const (
	CardinalX Cardinal = iota
	CardinalY
	CardinalZ
)

// String returns the cardinal axis name.
func (c Cardinal) String() string {
	switch c {
	case CardinalX:
		return "X"
	case CardinalY:
		return "Y"
	case CardinalZ:
		return "Z"
	default:
		return fmt.Sprintf("cardinal(%d)", uint8(c))
	}
}

// Cardinal returns the unsigned axis underlying a signed axis.
func (a SignedAxis) Cardinal() Cardinal {
	switch a {
	case PositiveX, NegativeX:
		return CardinalX
	case PositiveY, NegativeY:
		return CardinalY
	default:
		return CardinalZ
	}
}

// Sign returns +1 for positive directions and -1 for negative ones.
func (a SignedAxis) Sign() float64 {
	switch a {
	case PositiveX, PositiveY, PositiveZ:
		return 1
	default:
		return -1
	}
}

// Opposite returns the signed axis pointing the other way along the
// same cardinal.
func (a SignedAxis) Opposite() SignedAxis {
	switch a {
	case PositiveX:
		return NegativeX
	case NegativeX:
		return PositiveX
	case PositiveY:
		return NegativeY
	case NegativeY:
		return PositiveY
	case PositiveZ:
		return NegativeZ
	case NegativeZ:
		return PositiveZ
	default:
		return 0
	}
}

// String returns the conventional signed axis notation.
func (a SignedAxis) String() string {
	switch a {
	case PositiveX:
		return "+X"
	case NegativeX:
		return "-X"
	case PositiveY:
		return "+Y"
	case NegativeY:
		return "-Y"
	case PositiveZ:
		return "+Z"
	case NegativeZ:
		return "-Z"
	default:
		return fmt.Sprintf("axis(%d)", uint8(a))
	}
}

func (a SignedAxis) valid() bool {
	return a >= PositiveX && a <= NegativeZ
}

// Handedness declares the chirality of the host application's
// coordinate convention.
type Handedness uint8

const (
	// RightHanded coordinate convention.
	RightHanded Handedness = iota + 1
	// LeftHanded coordinate convention.
	LeftHanded
)

// String returns the handedness name.
func (h Handedness) String() string {
	switch h {
	case RightHanded:
		return "right-handed"
	case LeftHanded:
		return "left-handed"
	default:
		return fmt.Sprintf("handedness(%d)", uint8(h))
	}
}

// RotationOrder tags the intrinsic composition order of Euler
// orientations supplied by the host application.
type RotationOrder uint8

const (
	// YawPitchRoll applies yaw, then pitch, then roll.
	YawPitchRoll RotationOrder = iota + 1
	// YawRollPitch applies yaw, then roll, then pitch.
	YawRollPitch
	// PitchYawRoll applies pitch, then yaw, then roll.
	PitchYawRoll
	// PitchRollYaw applies pitch, then roll, then yaw.
	PitchRollYaw
	// RollPitchYaw applies roll, then pitch, then yaw.
	RollPitchYaw
	// RollYawPitch applies roll, then yaw, then pitch.
	RollYawPitch
)

// String returns the rotation order tag.
func (o RotationOrder) String() string {
	switch o {
	case YawPitchRoll:
		return "yaw-pitch-roll"
	case YawRollPitch:
		return "yaw-roll-pitch"
	case PitchYawRoll:
		return "pitch-yaw-roll"
	case PitchRollYaw:
		return "pitch-roll-yaw"
	case RollPitchYaw:
		return "roll-pitch-yaw"
	case RollYawPitch:
		return "roll-yaw-pitch"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

// Config binds the six named axis roles of the host application's 3D
// convention to signed cardinal axes, plus the handedness of that
// convention and the rotation order for Euler orientations.
//
// A Config is constructed once at application start (or defaulted via
// Default), validated once with Validate, and then treated as
// immutable for the lifetime of a session. Transform results under an
// unvalidated Config are undefined.
type Config struct {
	// Right and Left are the screen-horizontal role pair.
	Right SignedAxis
	Left  SignedAxis

	// IntoScreen and OutOfScreen are the depth role pair.
	IntoScreen  SignedAxis
	OutOfScreen SignedAxis

	// Up and Down are the vertical role pair.
	Up   SignedAxis
	Down SignedAxis

	// Handedness of the application convention.
	Handedness Handedness

	// RotationOrder for Euler orientations.
	RotationOrder RotationOrder
}

// Default returns the canonical configuration: right = +X,
// left = -X, into-screen = +Y, out-of-screen = -Y, up = +Z,
// down = -Z, right-handed, yaw-pitch-roll.
func Default() Config {
	return Config{
		Right:         PositiveX,
		Left:          NegativeX,
		IntoScreen:    PositiveY,
		OutOfScreen:   NegativeY,
		Up:            PositiveZ,
		Down:          NegativeZ,
		Handedness:    RightHanded,
		RotationOrder: YawPitchRoll,
	}
}

// rolePair names an opposite-role pair for validation diagnostics.
type rolePair struct {
	positiveName string
	negativeName string
	positive     SignedAxis
	negative     SignedAxis
}

func (c Config) pairs() []rolePair {
	return []rolePair{
		{"right", "left", c.Right, c.Left},
		{"into-screen", "out-of-screen", c.IntoScreen, c.OutOfScreen},
		{"up", "down", c.Up, c.Down},
	}
}

// Validate checks the configuration invariants: every role binds a
// recognized signed axis, each opposite-role pair references exactly
// opposite directions of the same cardinal axis, each cardinal axis is
// claimed by exactly one pair, and the handedness and rotation-order
// tags are recognized values. Every violation is logged as a
// structured diagnostic identifying the conflicting roles; the first
// violation is returned as the error.
//
// Callers must not use a configuration that failed validation — the
// transform functions assume a validated Config and produce undefined
// results otherwise.
func Validate(config Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var firstViolation error
	record := func(err error) {
		if firstViolation == nil {
			firstViolation = err
		}
	}

	cardinalOwner := make(map[Cardinal]string)

	for _, pair := range config.pairs() {
		if !pair.positive.valid() {
			err := fmt.Errorf("axis: role %q binds unrecognized axis %s", pair.positiveName, pair.positive)
			logger.Warn("axis configuration rejected",
				"role", pair.positiveName,
				"binding", pair.positive.String(),
				"reason", "unrecognized signed axis",
			)
			record(err)
			continue
		}
		if !pair.negative.valid() {
			err := fmt.Errorf("axis: role %q binds unrecognized axis %s", pair.negativeName, pair.negative)
			logger.Warn("axis configuration rejected",
				"role", pair.negativeName,
				"binding", pair.negative.String(),
				"reason", "unrecognized signed axis",
			)
			record(err)
			continue
		}

		if pair.negative != pair.positive.Opposite() {
			err := fmt.Errorf("axis: roles %q (%s) and %q (%s) are not opposite directions of the same cardinal axis",
				pair.positiveName, pair.positive, pair.negativeName, pair.negative)
			logger.Warn("axis configuration rejected",
				"role", pair.positiveName,
				"binding", pair.positive.String(),
				"opposite_role", pair.negativeName,
				"opposite_binding", pair.negative.String(),
				"reason", "opposite-role pair mismatch",
			)
			record(err)
			continue
		}

		cardinal := pair.positive.Cardinal()
		if owner, claimed := cardinalOwner[cardinal]; claimed {
			err := fmt.Errorf("axis: cardinal axis %s is claimed by both the %s pair and the %s pair",
				cardinal, owner, pair.positiveName)
			logger.Warn("axis configuration rejected",
				"cardinal", cardinal.String(),
				"role", pair.positiveName,
				"conflicting_role", owner,
				"reason", "cardinal axis claimed twice",
			)
			record(err)
			continue
		}
		cardinalOwner[cardinal] = pair.positiveName
	}

	if config.Handedness != RightHanded && config.Handedness != LeftHanded {
		err := fmt.Errorf("axis: unrecognized handedness %s", config.Handedness)
		logger.Warn("axis configuration rejected",
			"handedness", config.Handedness.String(),
			"reason", "unrecognized handedness",
		)
		record(err)
	}

	if config.RotationOrder < YawPitchRoll || config.RotationOrder > RollYawPitch {
		err := fmt.Errorf("axis: unrecognized rotation order %s", config.RotationOrder)
		logger.Warn("axis configuration rejected",
			"rotation_order", config.RotationOrder.String(),
			"reason", "unrecognized rotation order",
		)
		record(err)
	}

	return firstViolation
}
