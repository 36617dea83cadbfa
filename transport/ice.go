// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import "github.com/pion/webrtc/v4"

// ICEConfig holds ICE server configuration for the PeerConnection to the
// mixer. Deployments behind NAT typically need at least one STUN server;
// a TURN server with short-lived credentials covers the rest.
type ICEConfig struct {
	// Servers is the list of ICE servers (STUN + TURN) to use during
	// candidate gathering. Order matters: pion tries them in sequence.
	Servers []webrtc.ICEServer
}

// ICEConfigFromTURN builds an ICEConfig from TURN relay credentials. When
// uris is empty, returns a config with only host candidates (no STUN, no
// TURN) — sufficient for same-machine and same-LAN testing.
func ICEConfigFromTURN(uris []string, username, password string) ICEConfig {
	if len(uris) == 0 {
		return ICEConfig{}
	}
	return ICEConfig{
		Servers: []webrtc.ICEServer{
			{
				URLs:       uris,
				Username:   username,
				Credential: password,
			},
		},
	}
}
