// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package axis

import "math"

// Quaternion is a rotation in w + xi + yj + zk form. Transform
// functions expect (and preserve) unit quaternions.
type Quaternion struct {
	W float64
	X float64
	Y float64
	Z float64
}

// Identity returns the no-rotation quaternion.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Multiply returns the Hamilton product q * r: the rotation r followed
// by q.
func (q Quaternion) Multiply(r Quaternion) Quaternion {
	return Quaternion{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Normalize returns the unit quaternion with the same rotation. The
// zero quaternion normalizes to the identity.
func (q Quaternion) Normalize() Quaternion {
	norm := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if norm == 0 {
		return Identity()
	}
	return Quaternion{W: q.W / norm, X: q.X / norm, Y: q.Y / norm, Z: q.Z / norm}
}

// ApproxEqual reports whether two quaternions represent nearly the
// same rotation, treating q and -q as equal (they encode the same
// rotation).
func (q Quaternion) ApproxEqual(r Quaternion, tolerance float64) bool {
	direct := math.Abs(q.W-r.W) <= tolerance &&
		math.Abs(q.X-r.X) <= tolerance &&
		math.Abs(q.Y-r.Y) <= tolerance &&
		math.Abs(q.Z-r.Z) <= tolerance
	negated := math.Abs(q.W+r.W) <= tolerance &&
		math.Abs(q.X+r.X) <= tolerance &&
		math.Abs(q.Y+r.Y) <= tolerance &&
		math.Abs(q.Z+r.Z) <= tolerance
	return direct || negated
}

// aboutAxis builds the quaternion rotating by angle radians about the
// given unit axis.
func aboutAxis(x, y, z, angle float64) Quaternion {
	half := angle / 2
	sin := math.Sin(half)
	return Quaternion{W: math.Cos(half), X: x * sin, Y: y * sin, Z: z * sin}
}

// Euler is an orientation expressed as yaw, pitch, and roll angles in
// degrees, in the mixer's canonical space: yaw rotates about the up
// axis (mixer-Z), pitch about the right axis (mixer-X), and roll about
// the out-of-screen axis (mixer-Y).
type Euler struct {
	Yaw   float64
	Pitch float64
	Roll  float64
}

// Quaternion composes the Euler angles into a rotation, applying the
// component rotations intrinsically in the configured order.
func (e Euler) Quaternion(order RotationOrder) Quaternion {
	yaw := aboutAxis(0, 0, 1, e.Yaw*math.Pi/180)
	pitch := aboutAxis(1, 0, 0, e.Pitch*math.Pi/180)
	roll := aboutAxis(0, 1, 0, e.Roll*math.Pi/180)

	switch order {
	case YawRollPitch:
		return yaw.Multiply(roll).Multiply(pitch)
	case PitchYawRoll:
		return pitch.Multiply(yaw).Multiply(roll)
	case PitchRollYaw:
		return pitch.Multiply(roll).Multiply(yaw)
	case RollPitchYaw:
		return roll.Multiply(pitch).Multiply(yaw)
	case RollYawPitch:
		return roll.Multiply(yaw).Multiply(pitch)
	default:
		// YawPitchRoll, and the fallback for an unvalidated order.
		return yaw.Multiply(pitch).Multiply(roll)
	}
}

// EulerFromQuaternion extracts yaw-pitch-roll angles (degrees) from a
// unit quaternion, assuming the YawPitchRoll rotation order. Pitch is
// clamped at the gimbal singularity (±90°), where yaw and roll become
// degenerate and roll is reported as zero.
func EulerFromQuaternion(q Quaternion) Euler {
	q = q.Normalize()

	// Rotation matrix entries for the intrinsic Z (yaw), X (pitch),
	// Y (roll) composition. R[2][1] carries sin(pitch); yaw comes from
	// the second column and roll from the bottom row.
	sinPitch := 2 * (q.W*q.X + q.Y*q.Z)

	if sinPitch >= 1-1e-12 {
		return Euler{
			Yaw:   math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.X*q.X+q.Z*q.Z)) * 180 / math.Pi,
			Pitch: 90,
		}
	}
	if sinPitch <= -1+1e-12 {
		return Euler{
			Yaw:   math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.X*q.X+q.Z*q.Z)) * 180 / math.Pi,
			Pitch: -90,
		}
	}

	yaw := math.Atan2(2*(q.W*q.Z-q.X*q.Y), 1-2*(q.X*q.X+q.Z*q.Z))
	pitch := math.Asin(sinPitch)
	roll := math.Atan2(2*(q.W*q.Y-q.X*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))

	return Euler{
		Yaw:   yaw * 180 / math.Pi,
		Pitch: pitch * 180 / math.Pi,
		Roll:  roll * 180 / math.Pi,
	}
}
