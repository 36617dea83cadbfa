// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
)

// Compile-time interface check.
var _ Transport = (*WebRTCTransport)(nil)

// stateChannelLabel is the label of the single data channel carrying
// spatial state frames. The mixer recognizes the channel by this label.
const stateChannelLabel = "spatial-state"

// iceGatherTimeout is the maximum time to wait for ICE candidate gathering
// to complete before publishing the SDP.
const iceGatherTimeout = 15 * time.Second

// answerPollInterval is how often the transport polls for an SDP answer
// after publishing an offer.
const answerPollInterval = 500 * time.Millisecond

// answerTimeout is the maximum time to wait for an SDP answer before
// giving up.
const answerTimeout = 30 * time.Second

// channelOpenTimeout is the maximum time to wait for the data channel to
// reach the open state after the remote description is set.
const channelOpenTimeout = 30 * time.Second

// WebRTCTransport connects a participant to the mixing service over a
// single ordered, reliable WebRTC data channel. The participant is always
// the offerer: Open publishes an SDP offer through the Signaler, waits for
// the mixer's answer, and completes when the data channel opens.
//
// The transport is reusable. After Close, or after a link failure is
// reported through the bound Handler, Open establishes a fresh
// PeerConnection.
type WebRTCTransport struct {
	signaler       Signaler
	localpart      string
	mixerLocalpart string
	logger         *slog.Logger

	// iceConfig is the ICE server configuration. Protected by configMu
	// because callers may refresh TURN credentials between links.
	configMu  sync.RWMutex
	iceConfig ICEConfig

	mu      sync.Mutex
	handler Handler
	link    *mixerLink
}

// mixerLink is one established (or in-progress) PeerConnection to the
// mixer. A fresh mixerLink is created per Open so that callbacks from a
// torn-down connection cannot affect its successor.
type mixerLink struct {
	connection *webrtc.PeerConnection
	channel    *webrtc.DataChannel
	opened     chan struct{}

	// reportOnce guards the single HandleClosed delivery for this link.
	// Close marks it spent before tearing down the PeerConnection so
	// that owner-initiated teardown stays silent.
	reportOnce sync.Once
}

// NewWebRTCTransport creates a transport for the participant identified by
// localpart, targeting the mixer identified by mixerLocalpart in signaling.
func NewWebRTCTransport(signaler Signaler, localpart, mixerLocalpart string, iceConfig ICEConfig, logger *slog.Logger) *WebRTCTransport {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WebRTCTransport{
		signaler:       signaler,
		localpart:      localpart,
		mixerLocalpart: mixerLocalpart,
		iceConfig:      iceConfig,
		logger:         logger,
	}
}

// Bind registers the handler. Must be called before Open.
func (wt *WebRTCTransport) Bind(handler Handler) {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	wt.handler = handler
}

// UpdateICEConfig replaces the ICE configuration for subsequent links. The
// current link, if any, continues using the configuration it was
// established with.
func (wt *WebRTCTransport) UpdateICEConfig(config ICEConfig) {
	wt.configMu.Lock()
	defer wt.configMu.Unlock()
	wt.iceConfig = config
}

// Open establishes a PeerConnection and data channel to the mixer. Any
// previous link is torn down first.
func (wt *WebRTCTransport) Open(ctx context.Context) error {
	wt.mu.Lock()
	handler := wt.handler
	previous := wt.link
	wt.link = nil
	wt.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("transport: Open before Bind")
	}
	if previous != nil {
		previous.teardown()
	}

	pc, err := wt.newPeerConnection()
	if err != nil {
		return fmt.Errorf("creating PeerConnection: %w", err)
	}

	link := &mixerLink{
		connection: pc,
		opened:     make(chan struct{}),
	}

	if err := wt.establish(ctx, link, handler); err != nil {
		link.teardown()
		return err
	}

	wt.mu.Lock()
	wt.link = link
	wt.mu.Unlock()

	wt.logger.Info("mixer link established", "mixer", wt.mixerLocalpart)
	return nil
}

// establish runs offer/answer signaling and waits for the state data
// channel to open.
func (wt *WebRTCTransport) establish(ctx context.Context, link *mixerLink, handler Handler) error {
	pc := link.connection

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		wt.logger.Debug("ICE state change", "state", state.String())
		switch state {
		case webrtc.ICEConnectionStateFailed:
			wt.reportClosed(link, handler, fmt.Errorf("ICE connection failed"))
		case webrtc.ICEConnectionStateClosed:
			wt.reportClosed(link, handler, nil)
		}
	})

	channel, err := pc.CreateDataChannel(stateChannelLabel, nil)
	if err != nil {
		return fmt.Errorf("creating state data channel: %w", err)
	}
	link.channel = channel

	var openOnce sync.Once
	channel.OnOpen(func() {
		openOnce.Do(func() { close(link.opened) })
	})
	channel.OnMessage(func(message webrtc.DataChannelMessage) {
		handler.HandleFrame(message.Data)
	})
	channel.OnClose(func() {
		wt.reportClosed(link, handler, nil)
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("creating SDP offer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("setting local description: %w", err)
	}

	// Wait for ICE gathering to complete (vanilla ICE).
	select {
	case <-gatherComplete:
	case <-time.After(iceGatherTimeout):
		return fmt.Errorf("ICE gathering timed out after %s", iceGatherTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	completeSDP := pc.LocalDescription().SDP
	if err := wt.signaler.PublishOffer(ctx, wt.localpart, wt.mixerLocalpart, completeSDP); err != nil {
		return fmt.Errorf("publishing SDP offer: %w", err)
	}

	wt.logger.Info("offer published", "mixer", wt.mixerLocalpart)

	answerSDP, err := wt.waitForAnswer(ctx)
	if err != nil {
		return fmt.Errorf("waiting for SDP answer from %s: %w", wt.mixerLocalpart, err)
	}

	answer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answerSDP,
	}
	if err := pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("setting remote description: %w", err)
	}

	// Wait for the data channel itself, not just ICE: Send is only valid
	// once the channel reaches the open state.
	select {
	case <-link.opened:
		return nil
	case <-time.After(channelOpenTimeout):
		return fmt.Errorf("data channel did not open within %s", channelOpenTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// waitForAnswer polls the signaler for the mixer's SDP answer.
func (wt *WebRTCTransport) waitForAnswer(ctx context.Context) (string, error) {
	deadline := time.After(answerTimeout)
	ticker := time.NewTicker(answerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return "", fmt.Errorf("timed out after %s", answerTimeout)
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			answers, err := wt.signaler.PollAnswers(ctx, wt.localpart)
			if err != nil {
				wt.logger.Warn("polling for SDP answer failed", "error", err)
				continue
			}
			for _, answer := range answers {
				if answer.PeerLocalpart == wt.mixerLocalpart {
					return answer.SDP, nil
				}
			}
		}
	}
}

// Send transmits one frame over the state data channel.
func (wt *WebRTCTransport) Send(frame []byte) error {
	wt.mu.Lock()
	link := wt.link
	wt.mu.Unlock()

	if link == nil || link.channel == nil {
		return ErrNotOpen
	}
	if err := link.channel.Send(frame); err != nil {
		return fmt.Errorf("sending frame: %w", err)
	}
	return nil
}

// Close tears down the current link. No HandleClosed is delivered for an
// owner-initiated close.
func (wt *WebRTCTransport) Close() error {
	wt.mu.Lock()
	link := wt.link
	wt.link = nil
	wt.mu.Unlock()

	if link != nil {
		link.teardown()
	}
	return nil
}

// reportClosed delivers the link-failure notification, at most once per
// link, and only while the link is still current.
func (wt *WebRTCTransport) reportClosed(link *mixerLink, handler Handler, reason error) {
	wt.mu.Lock()
	current := wt.link == link
	if current {
		wt.link = nil
	}
	wt.mu.Unlock()

	if !current {
		return
	}
	link.reportOnce.Do(func() {
		if reason != nil {
			wt.logger.Warn("mixer link lost", "error", reason)
		} else {
			wt.logger.Info("mixer link closed by remote")
		}
		handler.HandleClosed(reason)
	})
}

// teardown closes the PeerConnection without notifying the handler.
func (link *mixerLink) teardown() {
	link.reportOnce.Do(func() {})
	link.connection.Close()
}

// newPeerConnection creates a PeerConnection using the current ICE config.
func (wt *WebRTCTransport) newPeerConnection() (*webrtc.PeerConnection, error) {
	wt.configMu.RLock()
	servers := wt.iceConfig.Servers
	wt.configMu.RUnlock()

	return webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: servers,
	})
}
