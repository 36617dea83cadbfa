// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/auralspace/auralspace/lib/testutil"
)

// recordingHandler collects frames and close notifications on channels.
type recordingHandler struct {
	frames chan []byte
	closed chan error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		frames: make(chan []byte, 64),
		closed: make(chan error, 1),
	}
}

func (h *recordingHandler) HandleFrame(frame []byte) { h.frames <- frame }
func (h *recordingHandler) HandleClosed(err error)   { h.closed <- err }

// testMixer answers WebRTC offers over a MemorySignaler and echoes every
// frame it receives back on the same data channel, the way the mixing
// service reflects state updates during loopback testing.
type testMixer struct {
	t          *testing.T
	signaler   *MemorySignaler
	localpart  string
	connection chan *webrtc.PeerConnection
	stop       chan struct{}
}

func startTestMixer(t *testing.T, signaler *MemorySignaler, localpart string) *testMixer {
	t.Helper()
	mixer := &testMixer{
		t:          t,
		signaler:   signaler,
		localpart:  localpart,
		connection: make(chan *webrtc.PeerConnection, 1),
		stop:       make(chan struct{}),
	}
	go mixer.run()
	t.Cleanup(mixer.shutdown)
	return mixer
}

func (m *testMixer) shutdown() {
	close(m.stop)
	select {
	case pc := <-m.connection:
		pc.Close()
	default:
	}
}

// run polls for one offer, answers it, and echoes frames until shutdown.
func (m *testMixer) run() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			offers, err := m.signaler.PollOffers(context.Background(), m.localpart)
			if err != nil || len(offers) == 0 {
				continue
			}
			if err := m.answer(offers[0]); err != nil {
				m.t.Errorf("mixer answering offer: %v", err)
			}
			return
		}
	}
}

func (m *testMixer) answer(offer SignalMessage) error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return err
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		dc.OnMessage(func(message webrtc.DataChannelMessage) {
			if err := dc.Send(message.Data); err != nil {
				m.t.Logf("mixer echo send: %v", err)
			}
		})
	})

	remote := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer.SDP}
	if err := pc.SetRemoteDescription(remote); err != nil {
		pc.Close()
		return err
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return err
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return err
	}
	select {
	case <-gatherComplete:
	case <-time.After(15 * time.Second):
		pc.Close()
		return context.DeadlineExceeded
	}

	completeSDP := pc.LocalDescription().SDP
	if err := m.signaler.PublishAnswer(context.Background(), offer.PeerLocalpart, m.localpart, completeSDP); err != nil {
		pc.Close()
		return err
	}

	m.connection <- pc
	return nil
}

func TestWebRTCTransportOpenSendEcho(t *testing.T) {
	if testing.Short() {
		t.Skip("establishes a real PeerConnection")
	}

	signaler := NewMemorySignaler()
	startTestMixer(t, signaler, "mixer/main")

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	wt := NewWebRTCTransport(signaler, "participant/alpha", "mixer/main", ICEConfig{}, logger)
	defer wt.Close()

	handler := newRecordingHandler()
	wt.Bind(handler)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wt.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := wt.Send([]byte("position-update")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	frame := testutil.RequireReceive(t, handler.frames, 10*time.Second, "waiting for echoed frame")
	if string(frame) != "position-update" {
		t.Errorf("echoed frame = %q, want %q", frame, "position-update")
	}
}

func TestWebRTCTransportCloseIsSilent(t *testing.T) {
	if testing.Short() {
		t.Skip("establishes a real PeerConnection")
	}

	signaler := NewMemorySignaler()
	startTestMixer(t, signaler, "mixer/main")

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	wt := NewWebRTCTransport(signaler, "participant/alpha", "mixer/main", ICEConfig{}, logger)

	handler := newRecordingHandler()
	wt.Bind(handler)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wt.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := wt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Owner-initiated teardown must not surface as a link failure.
	select {
	case err := <-handler.closed:
		t.Errorf("unexpected HandleClosed(%v) after owner Close", err)
	case <-time.After(500 * time.Millisecond):
	}

	if err := wt.Send([]byte("late")); err != ErrNotOpen {
		t.Errorf("Send after Close = %v, want ErrNotOpen", err)
	}
}

func TestWebRTCTransportOpenRequiresBind(t *testing.T) {
	signaler := NewMemorySignaler()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	wt := NewWebRTCTransport(signaler, "participant/alpha", "mixer/main", ICEConfig{}, logger)

	if err := wt.Open(context.Background()); err == nil {
		t.Fatal("Open without Bind succeeded, want error")
	}
}

func TestICEConfigFromTURN(t *testing.T) {
	if servers := ICEConfigFromTURN(nil, "user", "pass").Servers; servers != nil {
		t.Fatalf("Servers = %v, want none without TURN URIs", servers)
	}

	config := ICEConfigFromTURN([]string{"turn:relay.example.net:3478"}, "participant", "secret")
	if len(config.Servers) != 1 {
		t.Fatalf("Servers = %v, want exactly one entry", config.Servers)
	}
	server := config.Servers[0]
	if len(server.URLs) != 1 || server.URLs[0] != "turn:relay.example.net:3478" {
		t.Errorf("URLs = %v, want the TURN URI", server.URLs)
	}
	if server.Username != "participant" || server.Credential != "secret" {
		t.Errorf("credentials = %q/%v, want participant/secret", server.Username, server.Credential)
	}
}

func TestUpdateICEConfigAppliesToNextLink(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	wt := NewWebRTCTransport(NewMemorySignaler(), "participant/alpha", "mixer/main", ICEConfig{}, logger)

	first, err := wt.newPeerConnection()
	if err != nil {
		t.Fatalf("newPeerConnection: %v", err)
	}
	defer first.Close()
	if servers := first.GetConfiguration().ICEServers; len(servers) != 0 {
		t.Fatalf("initial ICE servers = %v, want none", servers)
	}

	// A TURN credential rotation between links: the refreshed config
	// must reach the next PeerConnection, not the current one.
	wt.UpdateICEConfig(ICEConfigFromTURN([]string{"turn:relay.example.net:3478"}, "participant", "rotated-secret"))

	second, err := wt.newPeerConnection()
	if err != nil {
		t.Fatalf("newPeerConnection after refresh: %v", err)
	}
	defer second.Close()

	servers := second.GetConfiguration().ICEServers
	if len(servers) != 1 || servers[0].Username != "participant" || servers[0].Credential != "rotated-secret" {
		t.Fatalf("ICE servers after refresh = %v, want the rotated TURN credentials", servers)
	}
}

func TestProbeDataChannels(t *testing.T) {
	if err := ProbeDataChannels(); err != nil {
		t.Fatalf("ProbeDataChannels: %v", err)
	}
}
