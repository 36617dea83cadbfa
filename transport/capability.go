// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"

	"github.com/pion/webrtc/v4"
)

// ProbeDataChannels verifies that the host environment can construct a
// WebRTC PeerConnection with a data channel. The probe is purely local:
// no signaling or network traffic is involved. A non-nil error means the
// environment cannot carry spatial state and connecting is pointless.
func ProbeDataChannels() error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return fmt.Errorf("data channel support probe: creating PeerConnection: %w", err)
	}
	defer pc.Close()

	if _, err := pc.CreateDataChannel("probe", nil); err != nil {
		return fmt.Errorf("data channel support probe: creating data channel: %w", err)
	}
	return nil
}
