package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/chinnucsk/mem3/internal/telemetry"
	"github.com/chinnucsk/mem3/internal/vclock"
	"github.com/chinnucsk/mem3/membership/store"
	"github.com/chinnucsk/mem3/transport"
)

// Service maintains the local node's membership state. A single goroutine
// owns the state and processes all operations from an ordered mailbox, so
// every state transition is totally ordered on this node.
type Service struct {
	conf   Config
	logger kitlog.Logger

	mailbox chan envelope
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	// state is owned by the mailbox loop. Everything handed out of the
	// loop is a copy.
	state *State
}

type envelope struct {
	msg   any
	reply chan callResult
}

type callResult struct {
	value any
	err   error
}

type (
	joinMsg struct {
		req  JoinRequest
		base *State
	}

	clockMsg       struct{}
	stateMsg       struct{}
	nodesMsg       struct{}
	fullNodesMsg   struct{}
	startGossipMsg struct{}
	resetMsg       struct{}

	gossipCallMsg struct {
		remote *State
	}

	gossipCastMsg struct {
		remote *State
	}

	nodeUpMsg struct {
		nodeID string
	}

	nodeDownMsg struct {
		nodeID string
	}
)

func New(conf Config) *Service {
	logger := conf.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	state := NewState()
	for k, v := range conf.Args {
		state.Args[k] = v
	}

	return &Service{
		conf:    conf,
		logger:  logger,
		mailbox: make(chan envelope, conf.MailboxSize),
		done:    make(chan struct{}),
		state:   state,
	}
}

// Start restores the persisted state, runs the rejoin handshake against the
// restored ring, and launches the request loop.
func (s *Service) Start(ctx context.Context) error {
	if restored, ok := s.loadSnapshot(); ok {
		s.state = s.rejoin(ctx, restored)
	}

	telemetry.RingSize.Set(float64(len(s.state.Ring)))

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.loop()
	}()

	if s.conf.Transport != nil {
		s.wg.Add(1)

		go func() {
			defer s.wg.Done()
			s.pumpLivenessEvents()
		}()
	}

	return nil
}

// Stop terminates the request loop. In-flight outbound calls are abandoned.
func (s *Service) Stop() {
	s.once.Do(func() {
		close(s.done)
	})

	s.wg.Wait()
}

func (s *Service) loadSnapshot() (*State, bool) {
	if s.conf.Test || s.conf.Store == nil {
		return nil, false
	}

	var ws transport.State

	err := s.conf.Store.Load(&ws)

	switch {
	case errors.Is(err, store.ErrNotFound):
		level.Debug(s.logger).Log("msg", "no membership snapshot, starting empty")
		return nil, false
	case err != nil:
		level.Warn(s.logger).Log("msg", "cannot read membership snapshot, starting empty", "err", err)
		return nil, false
	}

	return fromWireState(&ws), true
}

func (s *Service) loop() {
	for {
		select {
		case <-s.done:
			return
		case env := <-s.mailbox:
			s.dispatch(env)
		}
	}
}

func (s *Service) dispatch(env envelope) {
	switch msg := env.msg.(type) {
	case joinMsg:
		env.respond(nil, s.handleJoin(msg.req, msg.base))
	case clockMsg:
		env.respond(s.state.Clock.Clone(), nil)
	case stateMsg:
		env.respond(s.state.Clone(), nil)
	case nodesMsg:
		env.respond(s.state.Ring.Normalize().NodeIDs(), nil)
	case fullNodesMsg:
		env.respond([]NodeEntry(s.state.Ring.Normalize().Clone()), nil)
	case startGossipMsg:
		s.gossipRound(true)
		env.respond(nil, nil)
	case resetMsg:
		env.respond(nil, s.handleReset())
	case gossipCallMsg:
		reply, adopt := s.handleGossipCall(msg.remote)
		env.respond(reply, nil)

		if adopt != nil {
			s.install(adopt, true)
		}
	case gossipCastMsg:
		s.handleGossipCast(msg.remote)
	case nodeUpMsg:
		s.handleNodeUp(msg.nodeID)
	case nodeDownMsg:
		s.handleNodeDown(msg.nodeID)
	default:
		level.Info(s.logger).Log("msg", "ignoring unexpected message", "type", fmt.Sprintf("%T", msg))
		env.respond(nil, nil)
	}
}

func (e envelope) respond(value any, err error) {
	if e.reply == nil {
		return
	}

	e.reply <- callResult{value: value, err: err}
}

func (s *Service) call(ctx context.Context, msg any) (any, error) {
	env := envelope{
		msg:   msg,
		reply: make(chan callResult, 1),
	}

	select {
	case s.mailbox <- env:
	case <-s.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-env.reply:
		return res.value, res.err
	case <-s.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) cast(msg any) {
	select {
	case s.mailbox <- envelope{msg: msg}:
	case <-s.done:
	}
}

// Clock returns a copy of the local vector clock.
func (s *Service) Clock(ctx context.Context) (vclock.Vector, error) {
	res, err := s.call(ctx, clockMsg{})
	if err != nil {
		return nil, err
	}

	return res.(vclock.Vector), nil
}

// State returns a copy of the full local membership state.
func (s *Service) State(ctx context.Context) (*State, error) {
	res, err := s.call(ctx, stateMsg{})
	if err != nil {
		return nil, err
	}

	return res.(*State), nil
}

// Nodes returns the node IDs in the ring ordered by position.
func (s *Service) Nodes(ctx context.Context) ([]string, error) {
	res, err := s.call(ctx, nodesMsg{})
	if err != nil {
		return nil, err
	}

	return res.([]string), nil
}

// FullNodes returns the ring entries ordered by position.
func (s *Service) FullNodes(ctx context.Context) ([]NodeEntry, error) {
	res, err := s.call(ctx, fullNodesMsg{})
	if err != nil {
		return nil, err
	}

	return res.([]NodeEntry), nil
}

// StartGossip triggers a single synchronous gossip round.
func (s *Service) StartGossip(ctx context.Context) error {
	_, err := s.call(ctx, startGossipMsg{})
	return err
}

// Reset wipes the local state. It only works in test mode.
func (s *Service) Reset(ctx context.Context) error {
	_, err := s.call(ctx, resetMsg{})
	return err
}

func (s *Service) handleReset() error {
	if !s.conf.Test {
		return ErrNotReset
	}

	s.state = NewState()
	telemetry.RingSize.Set(0)

	return nil
}

func (s *Service) pumpLivenessEvents() {
	events := s.conf.Transport.Events()

	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			if ev.Up {
				s.cast(nodeUpMsg{nodeID: ev.NodeID})
			} else {
				s.cast(nodeDownMsg{nodeID: ev.NodeID})
			}
		}
	}
}

func (s *Service) handleNodeUp(nodeID string) {
	if nodeID == s.conf.NodeID {
		return
	}

	level.Debug(s.logger).Log("msg", "node up", "node_id", nodeID)

	if s.state.Ring.Contains(nodeID) {
		publishEvent(s.conf.Bus, EventNodeUp, nodeID)
	}

	s.gossipRound(false)
}

func (s *Service) handleNodeDown(nodeID string) {
	if nodeID == s.conf.NodeID {
		return
	}

	level.Debug(s.logger).Log("msg", "node down", "node_id", nodeID)

	publishEvent(s.conf.Bus, EventNodeDown, nodeID)
}

// install makes st the current state, persists it, and triggers onward
// gossip. All adoptions of remote or mutated state go through here.
func (s *Service) install(st *State, sync bool) {
	s.state = st

	telemetry.RingSize.Set(float64(len(st.Ring)))

	s.persist()
	s.gossipRound(sync)
}

func (s *Service) persist() {
	if s.conf.Test || s.conf.Store == nil {
		return
	}

	if err := s.conf.Store.Save(toWireState(s.state)); err != nil {
		level.Error(s.logger).Log("msg", "cannot persist membership state", "err", err)
	}
}
