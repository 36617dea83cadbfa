// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/auralspace/auralspace/axis"
	"github.com/auralspace/auralspace/lib/clock"
	"github.com/auralspace/auralspace/lib/testutil"
	"github.com/auralspace/auralspace/spatial"
	"github.com/auralspace/auralspace/transport"
	"github.com/auralspace/auralspace/wire"
)

const testTickInterval = 10 * time.Millisecond

func testConfig() Config {
	return Config{
		ParticipantID:        "participant/alpha",
		MixerAddress:         "mixer/main",
		TickInterval:         testTickInterval,
		MaxReconnectAttempts: 3,
		ReconnectBackoff:     100 * time.Millisecond,
	}
}

// newTestSession wires a session to a memory transport and a fake clock
// with a zero pacer margin, so ticks fire exactly at interval
// boundaries under Advance.
func newTestSession(t *testing.T, config Config) (*Session, *transport.MemoryTransport, *clock.FakeClock) {
	t.Helper()
	mt := transport.NewMemoryTransport()
	clk := clock.Fake(time.Unix(1756600000, 0))
	zeroMargin := time.Duration(0)
	s := New(config, mt, Options{
		Clock:      clk,
		Capability: func() error { return nil },
		TickMargin: &zeroMargin,
	})
	t.Cleanup(s.Close)
	return s, mt, clk
}

// waitForEvent drains the event channel until the wanted state appears.
func waitForEvent(t *testing.T, s *Session, want State) Event {
	t.Helper()
	for {
		event := testutil.RequireReceive(t, s.Events(), 5*time.Second, "waiting for %s event", want)
		if event.State == want {
			return event
		}
	}
}

// nextFrame decodes the next outbound frame captured by the transport.
func nextFrame(t *testing.T, mt *transport.MemoryTransport) *wire.Message {
	t.Helper()
	raw := testutil.RequireReceive(t, mt.Sent(), 5*time.Second, "waiting for outbound frame")
	message, err := wire.Decode(raw)
	if err != nil {
		t.Fatalf("decoding outbound frame: %v", err)
	}
	return message
}

func TestConnectWithoutParametersFailsFast(t *testing.T) {
	s, mt, _ := newTestSession(t, Config{})

	err := s.Connect(context.Background())
	if KindOf(err) != KindInvalidParameters {
		t.Fatalf("Connect = %v, want KindInvalidParameters", err)
	}
	if state := s.State(); state != StateDisconnected {
		t.Errorf("state after rejected connect = %s, want disconnected", state)
	}
	if calls := mt.OpenCalls(); calls != 0 {
		t.Errorf("transport Open was called %d times, want 0", calls)
	}
}

func TestConnectRejectsInvalidAxisConfiguration(t *testing.T) {
	config := testConfig()
	config.Axis = axis.Default()
	config.Axis.Left = axis.PositiveY // mismatched opposite pair

	s, mt, _ := newTestSession(t, config)

	err := s.Connect(context.Background())
	if KindOf(err) != KindInvalidAxisConfiguration {
		t.Fatalf("Connect = %v, want KindInvalidAxisConfiguration", err)
	}
	if calls := mt.OpenCalls(); calls != 0 {
		t.Errorf("transport Open was called %d times, want 0", calls)
	}
}

func TestConnectRejectsMissingCapability(t *testing.T) {
	mt := transport.NewMemoryTransport()
	clk := clock.Fake(time.Unix(1756600000, 0))
	probeFailure := errors.New("no data channel support")
	probeCalls := 0
	s := New(testConfig(), mt, Options{
		Clock: clk,
		Capability: func() error {
			probeCalls++
			return probeFailure
		},
	})
	t.Cleanup(s.Close)

	for i := 0; i < 2; i++ {
		err := s.Connect(context.Background())
		if KindOf(err) != KindCapabilityMissing {
			t.Fatalf("Connect %d = %v, want KindCapabilityMissing", i+1, err)
		}
		if !errors.Is(err, probeFailure) {
			t.Errorf("Connect %d error does not wrap the probe failure: %v", i+1, err)
		}
	}

	// A static environment deficiency is probed once, never retried.
	if probeCalls != 1 {
		t.Errorf("capability probe ran %d times, want 1", probeCalls)
	}
	if calls := mt.OpenCalls(); calls != 0 {
		t.Errorf("transport Open was called %d times, want 0", calls)
	}
}

func TestConnectTransportFailureLandsInFailed(t *testing.T) {
	s, mt, _ := newTestSession(t, testConfig())

	openFailure := errors.New("mixer unreachable")
	mt.FailNextOpens(openFailure)

	err := s.Connect(context.Background())
	if KindOf(err) != KindTransportFailure {
		t.Fatalf("Connect = %v, want KindTransportFailure", err)
	}
	if state := s.State(); state != StateFailed {
		t.Fatalf("state = %s, want failed", state)
	}
	if terminal := s.Err(); !errors.Is(terminal, openFailure) {
		t.Errorf("Err() = %v, want wrapped open failure", terminal)
	}

	// Failed is terminal only until the next connect.
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect after failure: %v", err)
	}
	if state := s.State(); state != StateConnected {
		t.Errorf("state = %s, want connected", state)
	}
}

func TestFirstTickSendsSnapshotThenDiffs(t *testing.T) {
	s, mt, clk := newTestSession(t, testConfig())

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	s.SetPosition(axis.Point{X: 1, Y: 2, Z: 3})
	s.SetVolume(0.8)

	clk.WaitForTimers(1)
	clk.Advance(testTickInterval)

	snapshot := nextFrame(t, mt)
	if snapshot.Kind != wire.KindSnapshot {
		t.Fatalf("first frame kind = %s, want snapshot", snapshot.Kind)
	}
	// Position travels in mixer space: the default configuration maps
	// application {1,2,3} to mixer {1,-2,3}.
	x, y, z, ok := spatial.AsVec3(snapshot.State[spatial.AttrPosition])
	if !ok || x != 1 || y != -2 || z != 3 {
		t.Errorf("snapshot position = (%v,%v,%v,%v), want (1,-2,3)", x, y, z, ok)
	}
	if volume, ok := snapshot.State[spatial.AttrVolume].AsNumber(); !ok || volume != 0.8 {
		t.Errorf("snapshot volume = %v, want 0.8", volume)
	}

	// Only the changed attribute travels on the next tick.
	s.SetVolume(0.5)
	clk.WaitForTimers(1)
	clk.Advance(testTickInterval)

	update := nextFrame(t, mt)
	if update.Kind != wire.KindUpdate {
		t.Fatalf("second frame kind = %s, want update", update.Kind)
	}
	if len(update.Diff) != 1 {
		t.Fatalf("diff = %v, want only the volume change", update.Diff)
	}
	if volume, ok := update.Diff[spatial.AttrVolume].AsNumber(); !ok || volume != 0.5 {
		t.Errorf("diff volume = %v, want 0.5", volume)
	}

	// An unchanged state sends nothing. The pacer re-arms only after
	// posting the tick, and LocalState round-trips through the task
	// queue behind it, so by the time it returns the quiet tick has
	// fully run.
	clk.WaitForTimers(1)
	clk.Advance(testTickInterval)
	clk.WaitForTimers(1)
	s.LocalState()
	select {
	case frame := <-mt.Sent():
		t.Errorf("unexpected frame after unchanged tick: %v", frame)
	default:
	}
}

func TestAttributeRemovalTravelsAsRemovedMarker(t *testing.T) {
	s, mt, clk := newTestSession(t, testConfig())

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	s.SetMuted(true)
	clk.WaitForTimers(1)
	clk.Advance(testTickInterval)
	nextFrame(t, mt) // initial snapshot

	s.RemoveAttribute(spatial.AttrMuted)
	clk.WaitForTimers(1)
	clk.Advance(testTickInterval)

	update := nextFrame(t, mt)
	if update.Kind != wire.KindUpdate {
		t.Fatalf("frame kind = %s, want update", update.Kind)
	}
	if !update.Diff[spatial.AttrMuted].IsRemoved() {
		t.Errorf("diff = %v, want removed marker for %s", update.Diff, spatial.AttrMuted)
	}
}

func TestInboundFramesMergeIntoRemoteState(t *testing.T) {
	s, mt, _ := newTestSession(t, testConfig())

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// The mixer speaks mixer space; RemoteState exposes application
	// space. Mixer {1,-2,3} is application {1,2,3} under the default
	// configuration.
	snapshot := spatial.State{
		spatial.AttrPosition: spatial.Vec3(1, -2, 3),
		spatial.AttrVolume:   spatial.Number(0.7),
	}
	frame, err := wire.EncodeSnapshot(snapshot)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	mt.Deliver(frame)

	remote := s.RemoteState()
	x, y, z, ok := spatial.AsVec3(remote[spatial.AttrPosition])
	if !ok || x != 1 || y != 2 || z != 3 {
		t.Errorf("remote position = (%v,%v,%v,%v), want (1,2,3)", x, y, z, ok)
	}
	if volume, ok := remote[spatial.AttrVolume].AsNumber(); !ok || volume != 0.7 {
		t.Errorf("remote volume = %v, want 0.7", volume)
	}

	// An incremental update merges last-write-wins per key.
	update := spatial.Diff{
		spatial.AttrVolume: spatial.Removed(),
		spatial.AttrMuted:  spatial.Bool(true),
	}
	frame, err = wire.EncodeUpdate(update)
	if err != nil {
		t.Fatalf("EncodeUpdate: %v", err)
	}
	mt.Deliver(frame)

	remote = s.RemoteState()
	if _, ok := remote[spatial.AttrVolume]; ok {
		t.Error("remote volume survived a removal update")
	}
	if muted, ok := remote[spatial.AttrMuted].AsBool(); !ok || !muted {
		t.Errorf("remote muted = %v, want true", remote[spatial.AttrMuted])
	}
	if _, ok := remote[spatial.AttrPosition]; !ok {
		t.Error("remote position lost by an unrelated update")
	}

	// Garbage frames are dropped without disturbing tracked state.
	mt.Deliver([]byte("not a frame"))
	remote = s.RemoteState()
	if _, ok := remote[spatial.AttrPosition]; !ok {
		t.Error("remote position lost after a garbage frame")
	}
}

func TestInvalidInboundFramesAreDropped(t *testing.T) {
	s, mt, _ := newTestSession(t, testConfig())

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	frame, err := wire.EncodeSnapshot(spatial.State{
		spatial.AttrPosition: spatial.Vec3(1, -2, 3),
	})
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	mt.Deliver(frame)

	// A well-formed envelope whose payload breaks the data-model
	// invariants must not disturb the tracked remote state.
	hostileSnapshot, err := wire.EncodeSnapshot(spatial.State{
		spatial.AttrPosition: spatial.Vec3(9, math.NaN(), 9),
		spatial.AttrVolume:   spatial.Removed(),
	})
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	mt.Deliver(hostileSnapshot)

	hostileUpdate, err := wire.EncodeUpdate(spatial.Diff{
		spatial.AttrVolume: spatial.Number(math.Inf(1)),
	})
	if err != nil {
		t.Fatalf("EncodeUpdate: %v", err)
	}
	mt.Deliver(hostileUpdate)

	remote := s.RemoteState()
	x, y, z, ok := spatial.AsVec3(remote[spatial.AttrPosition])
	if !ok || x != 1 || y != 2 || z != 3 {
		t.Errorf("remote position = (%v,%v,%v,%v), want (1,2,3) from the valid snapshot", x, y, z, ok)
	}
	if _, present := remote[spatial.AttrVolume]; present {
		t.Errorf("remote volume = %v, want absent", remote[spatial.AttrVolume])
	}
	if err := remote.Validate(); err != nil {
		t.Fatalf("remote state violates its invariants: %v", err)
	}
}

func TestReconnectForcesFullResend(t *testing.T) {
	s, mt, clk := newTestSession(t, testConfig())

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitForEvent(t, s, StateConnected)

	s.SetPosition(axis.Point{X: 4, Y: 5, Z: 6})
	clk.WaitForTimers(1)
	clk.Advance(testTickInterval)
	if frame := nextFrame(t, mt); frame.Kind != wire.KindSnapshot {
		t.Fatalf("first frame kind = %s, want snapshot", frame.Kind)
	}

	// Ensure the pacer has re-armed before dropping the link: the
	// cancelled pacer leaves one stale waiter behind, and the reconnect
	// backoff registers a second. Both are swept by the next Advance.
	clk.WaitForTimers(1)
	mt.DropLink(errors.New("link lost"))
	waitForEvent(t, s, StateReconnecting)

	clk.WaitForTimers(2)
	clk.Advance(100 * time.Millisecond)
	waitForEvent(t, s, StateConnected)

	// Nothing changed locally, yet the first post-reconnect tick must
	// retransmit the full state: the mixer may have lost everything.
	clk.WaitForTimers(1)
	clk.Advance(testTickInterval)

	resend := nextFrame(t, mt)
	if resend.Kind != wire.KindSnapshot {
		t.Fatalf("post-reconnect frame kind = %s, want snapshot", resend.Kind)
	}
	x, y, z, ok := spatial.AsVec3(resend.State[spatial.AttrPosition])
	if !ok || x != 4 || y != -5 || z != 6 {
		t.Errorf("resend position = (%v,%v,%v,%v), want (4,-5,6)", x, y, z, ok)
	}
	if calls := mt.OpenCalls(); calls != 2 {
		t.Errorf("transport Open was called %d times, want 2", calls)
	}
}

func TestReconnectBudgetExhaustion(t *testing.T) {
	config := testConfig()
	config.MaxReconnectAttempts = 2

	s, mt, clk := newTestSession(t, config)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitForEvent(t, s, StateConnected)

	linkFailure := errors.New("mixer gone")
	mt.FailNextOpens(linkFailure, linkFailure)

	clk.WaitForTimers(1) // pacer armed
	mt.DropLink(linkFailure)
	waitForEvent(t, s, StateReconnecting)

	// Attempt 1 after 100ms (plus the stale pacer waiter), attempt 2
	// after a doubled 200ms backoff.
	clk.WaitForTimers(2)
	clk.Advance(100 * time.Millisecond)
	clk.WaitForTimers(1)
	clk.Advance(200 * time.Millisecond)

	event := waitForEvent(t, s, StateFailed)
	if KindOf(event.Err) != KindTransportFailure {
		t.Errorf("terminal event error = %v, want KindTransportFailure", event.Err)
	}
	if terminal := s.Err(); !errors.Is(terminal, linkFailure) {
		t.Errorf("Err() = %v, want wrapped link failure", terminal)
	}
	if state := s.State(); state != StateFailed {
		t.Errorf("state = %s, want failed", state)
	}
	if calls := mt.OpenCalls(); calls != 3 {
		t.Errorf("transport Open was called %d times, want 3 (connect + 2 retries)", calls)
	}
}

func TestSendFailureTriggersReconnect(t *testing.T) {
	s, mt, clk := newTestSession(t, testConfig())

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitForEvent(t, s, StateConnected)

	s.SetVolume(0.3)
	mt.SetSendError(errors.New("channel stalled"))

	clk.WaitForTimers(1)
	clk.Advance(testTickInterval)

	waitForEvent(t, s, StateReconnecting)

	// Recovery: the next attempt succeeds and the tick resends in full.
	mt.SetSendError(nil)
	clk.WaitForTimers(2)
	clk.Advance(100 * time.Millisecond)
	waitForEvent(t, s, StateConnected)

	clk.WaitForTimers(1)
	clk.Advance(testTickInterval)
	if frame := nextFrame(t, mt); frame.Kind != wire.KindSnapshot {
		t.Errorf("post-recovery frame kind = %s, want snapshot", frame.Kind)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	s, mt, _ := newTestSession(t, testConfig())

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	s.Disconnect()
	if state := s.State(); state != StateDisconnected {
		t.Fatalf("state = %s, want disconnected", state)
	}
	s.Disconnect()
	if state := s.State(); state != StateDisconnected {
		t.Fatalf("state after second disconnect = %s, want disconnected", state)
	}

	// A disconnected session reconnects cleanly.
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect after disconnect: %v", err)
	}
	if state := s.State(); state != StateConnected {
		t.Errorf("state = %s, want connected", state)
	}
	if calls := mt.OpenCalls(); calls != 2 {
		t.Errorf("transport Open was called %d times, want 2", calls)
	}
}

func TestConnectRejectedWhileConnected(t *testing.T) {
	s, _, _ := newTestSession(t, testConfig())

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Connect(context.Background()); KindOf(err) != KindInvalidParameters {
		t.Errorf("second Connect = %v, want KindInvalidParameters", err)
	}
}

func TestInvalidAttributeValuesAreRejected(t *testing.T) {
	s, _, _ := newTestSession(t, testConfig())

	s.SetAttribute("gain", spatial.Number(math.NaN()))
	s.SetAttribute("label", spatial.Text("stage-left"))

	local := s.LocalState()
	if _, ok := local["gain"]; ok {
		t.Error("non-finite attribute value was accepted")
	}
	if text, ok := local["label"].AsText(); !ok || text != "stage-left" {
		t.Errorf("label = %v, want stage-left", local["label"])
	}
}
