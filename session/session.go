// Copyright 2026 The Auralspace Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/auralspace/auralspace/axis"
	"github.com/auralspace/auralspace/lib/clock"
	"github.com/auralspace/auralspace/pacer"
	"github.com/auralspace/auralspace/spatial"
	"github.com/auralspace/auralspace/transport"
	"github.com/auralspace/auralspace/wire"
)

// State is the connection phase of a Session.
type State uint8

const (
	// StateDisconnected is the initial state, and the result of an
	// explicit Disconnect.
	StateDisconnected State = iota

	// StateConnecting covers the initial transport establishment.
	StateConnecting

	// StateConnected is the steady state: the tick loop samples, diffs,
	// and transmits, and inbound mixer frames are merged.
	StateConnected

	// StateReconnecting covers re-establishment after a mid-session
	// link loss.
	StateReconnecting

	// StateFailed is terminal until the next Connect: the initial
	// connect failed or the reconnect budget was exhausted.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one state transition, delivered on the Events channel. Err is
// non-nil only for transitions into StateFailed.
type Event struct {
	State State
	Err   error
}

// Options configures the collaborators of a Session. The zero value
// selects production defaults.
type Options struct {
	// Clock drives the tick loop and reconnect backoff. Defaults to
	// clock.Real(). Tests substitute clock.Fake.
	Clock clock.Clock

	// Logger receives structured state-transition and failure logs.
	// Defaults to a discard logger.
	Logger *slog.Logger

	// Capability is consulted once before the first connect; a non-nil
	// result blocks connecting with KindCapabilityMissing. Defaults to
	// transport.ProbeDataChannels.
	Capability func() error

	// TickMargin is the pacer safety margin. nil selects
	// pacer.DefaultMargin. Tests using a fake clock point it at zero so
	// ticks fire exactly at interval boundaries.
	TickMargin *time.Duration
}

// Session keeps one participant's spatial state synchronized with the
// mixing service. It owns its Transport exclusively.
//
// All state lives on a single run-loop goroutine; public methods post
// tasks to it and, where they return results, wait for a reply. Ticks
// and inbound-frame handling are therefore strictly serialized: no diff
// computation ever overlaps with merging an inbound update.
type Session struct {
	config    Config
	transport transport.Transport
	clk       clock.Clock
	logger    *slog.Logger

	capability     func() error
	capabilityOnce sync.Once
	capabilityErr  error

	tickMargin *time.Duration // nil selects pacer.DefaultMargin

	tasks     chan func()
	loopDone  chan struct{}
	closeOnce sync.Once

	events chan Event

	// Fields below are owned by the run loop.
	state       State
	epoch       uint64
	ticker      *pacer.Handle
	local       spatial.State // application space
	lastSent    spatial.State // mixer space; nil forces a full snapshot
	remote      spatial.State // mixer space
	attempts    int
	terminalErr error
}

// New creates a Session over the given transport and starts its run
// loop. The transport must be unbound; the session binds itself as the
// handler. Call Close to release the run loop when the session is no
// longer needed.
func New(config Config, tp transport.Transport, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Capability == nil {
		opts.Capability = transport.ProbeDataChannels
	}
	s := &Session{
		config:     config.withDefaults(),
		transport:  tp,
		clk:        opts.Clock,
		logger:     opts.Logger,
		capability: opts.Capability,
		tickMargin: opts.TickMargin,
		tasks:      make(chan func(), 64),
		loopDone:   make(chan struct{}),
		events:     make(chan Event, 16),
		local:      spatial.State{},
		remote:     spatial.State{},
	}
	tp.Bind(s)
	go s.loop()
	return s
}

// loop is the single consumer of the task queue.
func (s *Session) loop() {
	for {
		select {
		case task := <-s.tasks:
			task()
		case <-s.loopDone:
			return
		}
	}
}

// post enqueues a task for the run loop. Safe after Close: the task is
// silently dropped.
func (s *Session) post(task func()) {
	select {
	case s.tasks <- task:
	case <-s.loopDone:
	}
}

// call posts a task and waits for its reply.
func call[T any](s *Session, task func(reply chan<- T)) (T, bool) {
	reply := make(chan T, 1)
	s.post(func() { task(reply) })
	select {
	case v := <-reply:
		return v, true
	case <-s.loopDone:
		var zero T
		return zero, false
	}
}

// Events returns the state-transition channel. The channel is buffered;
// a consumer that falls far behind loses the oldest transitions.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done reports run-loop termination.
func (s *Session) Done() <-chan struct{} {
	return s.loopDone
}

// State returns the current connection phase.
func (s *Session) State() State {
	state, ok := call(s, func(reply chan<- State) { reply <- s.state })
	if !ok {
		return StateDisconnected
	}
	return state
}

// Err returns the terminal error when the session is in StateFailed,
// nil otherwise.
func (s *Session) Err() error {
	err, _ := call(s, func(reply chan<- error) { reply <- s.terminalErr })
	return err
}

// Connect validates parameters, checks the environment capability, and
// establishes the transport. It blocks until the session is Connected or
// the attempt fails. Valid only from StateDisconnected or StateFailed.
func (s *Session) Connect(ctx context.Context) error {
	s.capabilityOnce.Do(func() {
		if err := s.capability(); err != nil {
			s.capabilityErr = wrapError(KindCapabilityMissing, err, "environment cannot carry spatial state")
		}
	})
	if s.capabilityErr != nil {
		return s.capabilityErr
	}

	err, ok := call(s, func(reply chan<- error) { s.startConnect(ctx, reply) })
	if !ok {
		return newError(KindTransportFailure, "session closed")
	}
	return err
}

// startConnect runs on the loop: it rejects invalid calls without any
// transport work, then opens the transport off-loop.
func (s *Session) startConnect(ctx context.Context, reply chan<- error) {
	if s.state != StateDisconnected && s.state != StateFailed {
		reply <- newError(KindInvalidParameters, "connect is not valid while %s", s.state)
		return
	}
	if err := s.config.validate(s.logger); err != nil {
		reply <- err
		return
	}

	s.terminalErr = nil
	s.transition(StateConnecting, nil)
	s.epoch++
	epoch := s.epoch

	go func() {
		err := s.transport.Open(ctx)
		s.post(func() { s.finishConnect(epoch, err, reply) })
	}()
}

// finishConnect runs on the loop with the transport Open result.
func (s *Session) finishConnect(epoch uint64, openErr error, reply chan<- error) {
	if epoch != s.epoch {
		// The session disconnected while the open was in flight. The
		// result is stale: release the link if it was established.
		if openErr == nil {
			s.transport.Close()
		}
		reply <- newError(KindTransportFailure, "connect superseded by disconnect")
		return
	}

	if openErr != nil {
		err := wrapError(KindTransportFailure, openErr, "opening transport to %s", s.config.MixerAddress)
		s.fail(err)
		reply <- err
		return
	}

	s.becomeConnected()
	reply <- nil
}

// becomeConnected enters the steady state. The last-sent baseline is
// cleared so the first tick transmits a full snapshot: on reconnect the
// mixer may have lost everything sent before the link dropped.
func (s *Session) becomeConnected() {
	s.attempts = 0
	s.lastSent = nil
	s.transition(StateConnected, nil)
	s.startTicker()
}

func (s *Session) startTicker() {
	epoch := s.epoch
	callback := func() {
		s.post(func() { s.onTick(epoch) })
	}
	if s.tickMargin != nil {
		s.ticker = pacer.StartWithMargin(s.clk, s.config.TickInterval, *s.tickMargin, callback)
	} else {
		s.ticker = pacer.Start(s.clk, s.config.TickInterval, callback)
	}
}

func (s *Session) stopTicker() {
	if s.ticker != nil {
		s.ticker.Cancel()
		s.ticker = nil
	}
}

// onTick samples the local state, transforms it to mixer space, and
// transmits what changed since the last successful send. A nil baseline
// transmits a full snapshot; otherwise an empty diff transmits nothing.
func (s *Session) onTick(epoch uint64) {
	if epoch != s.epoch || s.state != StateConnected {
		return
	}

	mixerState := s.toMixerSpace(s.local)

	var frame []byte
	var err error
	if s.lastSent == nil {
		frame, err = wire.EncodeSnapshot(mixerState)
	} else {
		diff := spatial.DiffStates(s.lastSent, mixerState)
		if diff.Empty() {
			return
		}
		frame, err = wire.EncodeUpdate(diff)
	}
	if err != nil {
		s.logger.Error("encoding state frame", "error", err)
		return
	}

	if err := s.transport.Send(frame); err != nil {
		s.handleLinkFailure(err)
		return
	}
	s.lastSent = mixerState
}

// HandleFrame implements transport.Handler. Decoding and merging run on
// the loop, serialized with ticks.
func (s *Session) HandleFrame(frame []byte) {
	copied := make([]byte, len(frame))
	copy(copied, frame)
	s.post(func() { s.onFrame(copied) })
}

// onFrame merges one inbound mixer frame into the tracked remote state.
// Updates merge last-write-wins per key; snapshots replace the state
// wholesale. Undecodable frames are logged and dropped.
func (s *Session) onFrame(data []byte) {
	if s.state != StateConnected {
		return
	}

	message, err := wire.Decode(data)
	if err != nil {
		s.logger.Warn("dropping undecodable mixer frame", "error", err)
		return
	}

	switch message.Kind {
	case wire.KindUpdate:
		s.remote = message.Diff.Apply(s.remote)
	case wire.KindSnapshot:
		s.remote = message.State
	}
}

// HandleClosed implements transport.Handler.
func (s *Session) HandleClosed(reason error) {
	s.post(func() {
		if s.state != StateConnected {
			return
		}
		s.handleLinkFailure(reason)
	})
}

// handleLinkFailure leaves Connected for Reconnecting and schedules the
// first re-establishment attempt. The epoch bump discards results from
// any in-flight operation belonging to the lost link.
func (s *Session) handleLinkFailure(cause error) {
	s.logger.Warn("mixer link lost, reconnecting", "error", cause)
	s.stopTicker()
	s.transport.Close()
	s.epoch++
	s.attempts = 0
	s.transition(StateReconnecting, nil)
	s.scheduleReconnect()
}

// scheduleReconnect arms the backoff timer for the next attempt:
// attempt n waits ReconnectBackoff << (n-1).
func (s *Session) scheduleReconnect() {
	s.attempts++
	attempt := s.attempts
	epoch := s.epoch
	backoff := s.config.ReconnectBackoff << (attempt - 1)

	s.logger.Info("scheduling reconnect attempt",
		"attempt", attempt,
		"max_attempts", s.config.MaxReconnectAttempts,
		"backoff", backoff,
	)

	go func() {
		select {
		case <-s.clk.After(backoff):
			s.post(func() { s.attemptReconnect(epoch) })
		case <-s.loopDone:
		}
	}()
}

// attemptReconnect opens the transport off-loop for one attempt.
func (s *Session) attemptReconnect(epoch uint64) {
	if epoch != s.epoch || s.state != StateReconnecting {
		return
	}
	go func() {
		err := s.transport.Open(context.Background())
		s.post(func() { s.finishReconnect(epoch, err) })
	}()
}

// finishReconnect runs on the loop with one reconnect attempt's result.
func (s *Session) finishReconnect(epoch uint64, openErr error) {
	if epoch != s.epoch || s.state != StateReconnecting {
		if openErr == nil {
			s.transport.Close()
		}
		return
	}

	if openErr != nil {
		s.logger.Warn("reconnect attempt failed",
			"attempt", s.attempts,
			"error", openErr,
		)
		if s.attempts >= s.config.MaxReconnectAttempts {
			s.fail(wrapError(KindTransportFailure, openErr,
				"reconnect budget exhausted after %d attempts", s.attempts))
			return
		}
		s.scheduleReconnect()
		return
	}

	s.logger.Info("mixer link re-established", "attempts", s.attempts)
	s.becomeConnected()
}

// fail enters the terminal Failed state.
func (s *Session) fail(err error) {
	s.stopTicker()
	s.transport.Close()
	s.epoch++
	s.terminalErr = err
	s.logger.Error("session failed", "error", err)
	s.transition(StateFailed, err)
}

// Disconnect stops the tick loop, closes the transport, and lands in
// StateDisconnected. Idempotent, valid from any state; an in-flight
// connect or reconnect is superseded and its result discarded.
func (s *Session) Disconnect() {
	_, _ = call(s, func(reply chan<- struct{}) {
		s.epoch++
		s.stopTicker()
		s.transport.Close()
		s.terminalErr = nil
		if s.state != StateDisconnected {
			s.transition(StateDisconnected, nil)
		}
		reply <- struct{}{}
	})
}

// Close disconnects and terminates the run loop. The session is
// unusable afterwards.
func (s *Session) Close() {
	s.Disconnect()
	s.closeOnce.Do(func() { close(s.loopDone) })
}

// transition records a state change and publishes it on the events
// channel.
func (s *Session) transition(to State, err error) {
	from := s.state
	s.state = to
	s.logger.Info("session state change", "from", from.String(), "to", to.String())

	select {
	case s.events <- Event{State: to, Err: err}:
	default:
		s.logger.Warn("events channel full, dropping transition", "state", to.String())
	}
}

// SetAttribute sets one attribute of the local spatial state. The value
// is validated against the data-model invariants; invalid values are
// logged and ignored.
func (s *Session) SetAttribute(key string, value spatial.Value) {
	s.post(func() {
		if err := (spatial.State{key: value}).Validate(); err != nil {
			s.logger.Warn("rejecting invalid attribute", "key", key, "error", err)
			return
		}
		s.local = s.local.Clone()
		s.local[key] = value
	})
}

// RemoveAttribute removes one attribute from the local spatial state.
// The next tick transmits the removal.
func (s *Session) RemoveAttribute(key string) {
	s.post(func() {
		s.local = s.local.Clone()
		delete(s.local, key)
	})
}

// SetPosition sets the local position in application space.
func (s *Session) SetPosition(p axis.Point) {
	s.SetAttribute(spatial.AttrPosition, spatial.Vec3(p.X, p.Y, p.Z))
}

// SetOrientation sets the local orientation in application space.
func (s *Session) SetOrientation(q axis.Quaternion) {
	s.SetAttribute(spatial.AttrOrientation, spatial.Quat(q.W, q.X, q.Y, q.Z))
}

// SetVolume sets the local output gain.
func (s *Session) SetVolume(volume float64) {
	s.SetAttribute(spatial.AttrVolume, spatial.Number(volume))
}

// SetMuted sets the local mute flag.
func (s *Session) SetMuted(muted bool) {
	s.SetAttribute(spatial.AttrMuted, spatial.Bool(muted))
}

// LocalState returns a snapshot of the local state in application
// space.
func (s *Session) LocalState() spatial.State {
	state, _ := call(s, func(reply chan<- spatial.State) { reply <- s.local.Clone() })
	return state
}

// RemoteState returns the tracked mixer-side state, transformed back
// into application space.
func (s *Session) RemoteState() spatial.State {
	state, _ := call(s, func(reply chan<- spatial.State) { reply <- s.fromMixerSpace(s.remote) })
	return state
}

// toMixerSpace maps the position and orientation attributes through the
// axis configuration. All other attributes pass through unchanged.
func (s *Session) toMixerSpace(state spatial.State) spatial.State {
	mapped := state.Clone()
	if value, ok := state[spatial.AttrPosition]; ok {
		if x, y, z, isVec := spatial.AsVec3(value); isVec {
			p := axis.ToMixerSpace(s.config.Axis, axis.Point{X: x, Y: y, Z: z})
			mapped[spatial.AttrPosition] = spatial.Vec3(p.X, p.Y, p.Z)
		}
	}
	if value, ok := state[spatial.AttrOrientation]; ok {
		if w, x, y, z, isQuat := spatial.AsQuat(value); isQuat {
			q := axis.OrientationToMixerSpace(s.config.Axis, axis.Quaternion{W: w, X: x, Y: y, Z: z})
			mapped[spatial.AttrOrientation] = spatial.Quat(q.W, q.X, q.Y, q.Z)
		}
	}
	return mapped
}

// fromMixerSpace is the inverse of toMixerSpace.
func (s *Session) fromMixerSpace(state spatial.State) spatial.State {
	mapped := state.Clone()
	if value, ok := state[spatial.AttrPosition]; ok {
		if x, y, z, isVec := spatial.AsVec3(value); isVec {
			p := axis.FromMixerSpace(s.config.Axis, axis.Point{X: x, Y: y, Z: z})
			mapped[spatial.AttrPosition] = spatial.Vec3(p.X, p.Y, p.Z)
		}
	}
	if value, ok := state[spatial.AttrOrientation]; ok {
		if w, x, y, z, isQuat := spatial.AsQuat(value); isQuat {
			q := axis.OrientationFromMixerSpace(s.config.Axis, axis.Quaternion{W: w, X: x, Y: y, Z: z})
			mapped[spatial.AttrOrientation] = spatial.Quat(q.W, q.X, q.Y, q.Z)
		}
	}
	return mapped
}
