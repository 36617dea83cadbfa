// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package axis

// Point is a position or direction vector with three cardinal
// components.
type Point struct {
	X float64
	Y float64
	Z float64
}

// The mixer's canonical space assigns fixed meanings to its axes:
// mixer-X is the rightward direction, mixer-Y is the out-of-screen
// direction (toward the viewer), and mixer-Z is the upward direction.
// A validated Config tells us which signed application axis carries
// each of those directions, so the transform is a signed permutation
// of components: copy the application coordinate along the role's
// cardinal axis, negated when the role binds a negative direction.

// component extracts the coordinate of p along the given signed axis:
// the cardinal component, negated for negative directions.
func component(p Point, a SignedAxis) float64 {
	switch a.Cardinal() {
	case CardinalX:
		return a.Sign() * p.X
	case CardinalY:
		return a.Sign() * p.Y
	default:
		return a.Sign() * p.Z
	}
}

// setComponent writes value into p's coordinate along the given
// signed axis, undoing the sign applied by component.
func setComponent(p *Point, a SignedAxis, value float64) {
	switch a.Cardinal() {
	case CardinalX:
		p.X = a.Sign() * value
	case CardinalY:
		p.Y = a.Sign() * value
	default:
		p.Z = a.Sign() * value
	}
}

// ToMixerSpace maps an application-space point into the mixer's
// canonical space under a validated configuration. With the default
// configuration, {1, 2, 3} maps to {1, -2, 3}: mixer-X copies the
// right role (+X), mixer-Y copies the out-of-screen role (-Y, so
// negated), and mixer-Z copies the up role (+Z).
func ToMixerSpace(config Config, p Point) Point {
	return Point{
		X: component(p, config.Right),
		Y: component(p, config.OutOfScreen),
		Z: component(p, config.Up),
	}
}

// FromMixerSpace is the exact inverse of ToMixerSpace: each mixer
// component is written back into the application coordinate its role
// reads from. Because a validated configuration is a signed
// permutation, the inverse is its transpose and the round trip is
// lossless.
func FromMixerSpace(config Config, p Point) Point {
	var result Point
	setComponent(&result, config.Right, p.X)
	setComponent(&result, config.OutOfScreen, p.Y)
	setComponent(&result, config.Up, p.Z)
	return result
}

// basisVector returns the application-space unit vector of a signed
// axis.
func basisVector(a SignedAxis) Point {
	var p Point
	setComponent(&p, a, 1)
	return p
}

// permutationDeterminant computes the determinant of the signed
// permutation taking application space to mixer space: the triple
// product of the three application-space directions the mixer axes
// read from. Always +1 or -1 for a validated configuration.
func permutationDeterminant(config Config) float64 {
	r := basisVector(config.Right)
	o := basisVector(config.OutOfScreen)
	u := basisVector(config.Up)

	// r · (o × u)
	return r.X*(o.Y*u.Z-o.Z*u.Y) +
		r.Y*(o.Z*u.X-o.X*u.Z) +
		r.Z*(o.X*u.Y-o.Y*u.X)
}

// OrientationToMixerSpace maps an application-space orientation
// quaternion into the mixer's canonical space.
//
// Conjugating a rotation by the basis change P gives the same
// rotation expressed in mixer coordinates. For a proper P (determinant
// +1) the quaternion transform is simply the point transform applied
// to the vector part with the scalar part unchanged. When P is
// improper (determinant -1), conjugation by P equals conjugation by
// the proper matrix -P, so the vector part is additionally negated.
func OrientationToMixerSpace(config Config, q Quaternion) Quaternion {
	vector := ToMixerSpace(config, Point{X: q.X, Y: q.Y, Z: q.Z})
	if permutationDeterminant(config) < 0 {
		vector = Point{X: -vector.X, Y: -vector.Y, Z: -vector.Z}
	}
	return Quaternion{W: q.W, X: vector.X, Y: vector.Y, Z: vector.Z}
}

// OrientationFromMixerSpace is the exact inverse of
// OrientationToMixerSpace.
func OrientationFromMixerSpace(config Config, q Quaternion) Quaternion {
	vector := Point{X: q.X, Y: q.Y, Z: q.Z}
	if permutationDeterminant(config) < 0 {
		vector = Point{X: -vector.X, Y: -vector.Y, Z: -vector.Z}
	}
	vector = FromMixerSpace(config, vector)
	return Quaternion{W: q.W, X: vector.X, Y: vector.Y, Z: vector.Z}
}
