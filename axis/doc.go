// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

// Package axis converts positions and orientations between a host
// application's 3D axis convention and the mixer's canonical space.
//
// A [Config] binds six named axis roles (right, left, into-screen,
// out-of-screen, up, down) to signed cardinal axes, declares the
// convention's handedness, and tags the rotation order for Euler
// orientations. [Validate] rejects configurations whose opposite-role
// pairs do not reference exactly opposite directions of the same
// cardinal axis, logging a structured diagnostic for every conflict.
//
// The mixer's canonical space is fixed: mixer-X is rightward, mixer-Y
// is out-of-screen (toward the viewer), mixer-Z is upward. A validated
// Config induces a signed permutation between the two spaces;
// [ToMixerSpace] and [FromMixerSpace] apply it to points, and
// [OrientationToMixerSpace] and [OrientationFromMixerSpace] conjugate
// quaternions through it with a determinant sign correction for
// improper permutations. All functions are pure.
package axis
