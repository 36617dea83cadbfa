// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"strings"
)

// signalingSeparator separates the offerer and target localparts in a
// signaling key: "<offererLocalpart>|<targetLocalpart>".
const signalingSeparator = "|"

// Signaler abstracts the mechanism for exchanging WebRTC session
// descriptions between a participant and the mixing service. Production
// deployments back this with the mixer's signaling endpoint; tests use
// in-process channels.
//
// The signaling model is vanilla ICE: all ICE candidates are gathered
// before the SDP is published, so connection establishment requires
// exactly one signaling round-trip (offer → answer).
type Signaler interface {
	// PublishOffer publishes a complete SDP offer directed at a target.
	// localpart is the offerer's localpart, targetLocalpart is the
	// intended recipient. The implementation stores the SDP where the
	// target can find it, keyed "<localpart>|<targetLocalpart>".
	PublishOffer(ctx context.Context, localpart, targetLocalpart, sdp string) error

	// PublishAnswer publishes a complete SDP answer in response to a
	// previously received offer. The key matches the offer:
	// "<offererLocalpart>|<localpart>".
	PublishAnswer(ctx context.Context, offererLocalpart, localpart, sdp string) error

	// PollOffers returns all pending offers directed at this localpart
	// that have not been returned by a previous poll.
	PollOffers(ctx context.Context, localpart string) ([]SignalMessage, error)

	// PollAnswers returns all pending answers to offers originated by
	// this localpart that have not been returned by a previous poll.
	PollAnswers(ctx context.Context, localpart string) ([]SignalMessage, error)
}

// SignalMessage represents a signaling message (offer or answer).
type SignalMessage struct {
	// PeerLocalpart is the localpart of the other party. For received
	// offers, this is the offerer. For received answers, this is the
	// answerer (target).
	PeerLocalpart string

	// SDP is the complete Session Description Protocol string with all
	// ICE candidates embedded.
	SDP string

	// Timestamp is the ISO 8601 creation time of the signal.
	Timestamp string
}

// signalKeyMatcher reports whether a signaling key is addressed to the
// given localpart, returning the other party's localpart on a match.
type signalKeyMatcher func(key, localpart string) (peer string, ok bool)

// matchOfferKey matches offers targeted at localpart: "<peer>|<localpart>".
func matchOfferKey(key, localpart string) (string, bool) {
	peer, ok := strings.CutSuffix(key, signalingSeparator+localpart)
	if !ok || peer == "" {
		return "", false
	}
	return peer, true
}

// matchAnswerKey matches answers to offers originated by localpart:
// "<localpart>|<peer>".
func matchAnswerKey(key, localpart string) (string, bool) {
	peer, ok := strings.CutPrefix(key, localpart+signalingSeparator)
	if !ok || peer == "" {
		return "", false
	}
	return peer, true
}
