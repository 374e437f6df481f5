package usi

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// State is the handshake state of an engine session.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateAwaitingReady
	StateReady
	StateExited
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAwaitingReady:
		return "awaiting-ready"
	case StateReady:
		return "ready"
	case StateExited:
		return "exited"
	}
	return "unknown"
}

// pendingRequest is the one request waiting for a bestmove line. It is owned
// by Analyze and lent to the session's reader through the pending slot.
type pendingRequest struct {
	agg  *aggregator
	done chan *Result
}

func newPendingRequest() *pendingRequest {
	return &pendingRequest{agg: newAggregator(), done: make(chan *Result, 1)}
}

// session is one engine process and its protocol state.
type session struct {
	proc Process
	opts Options

	state  atomic.Int32
	ready  chan struct{}
	exited chan struct{}
	// exitErr is written before exited is closed.
	exitErr error

	// threads is the Threads value currently applied to the engine. Only
	// touched by the handshake before ready is closed, and by the holder of
	// the request serializer after.
	threads int

	mu      sync.Mutex
	pending *pendingRequest
	// abandoned counts searches whose waiter gave up before bestmove. Their
	// remaining output is dropped until that many bestmove lines arrive.
	abandoned int
}

func startSession(launch Launcher, opts Options) (*session, error) {
	proc, err := launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStartupFailure, err)
	}
	s := &session{
		proc:   proc,
		opts:   opts,
		ready:  make(chan struct{}),
		exited: make(chan struct{}),
	}
	log.Info().Int("pid", proc.Pid()).Msg("engine-started")

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		if _, err := io.Copy(os.Stderr, proc.Stderr()); err != nil {
			log.Debug().Err(err).Msg("engine-stderr-closed")
		}
	}()
	go s.run(stderrDone)

	s.setState(StateInitializing)
	if err := s.send("usi"); err != nil {
		log.Error().Err(err).Msg("failed to send handshake")
	}
	return s, nil
}

func (s *session) State() State {
	return State(s.state.Load())
}

func (s *session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *session) alive() bool {
	select {
	case <-s.exited:
		return false
	default:
		return true
	}
}

// run pumps protocol output through the line decoder until the process
// closes its stdout, then reaps it.
func (s *session) run(stderrDone <-chan struct{}) {
	dec := NewLineDecoder(s.handleLine)
	if _, err := io.Copy(dec, s.proc.Stdout()); err != nil {
		log.Debug().Err(err).Msg("engine-stdout-closed")
	}
	<-stderrDone
	err := s.proc.Wait()

	s.exitErr = err
	s.setState(StateExited)
	s.mu.Lock()
	hadPending := s.pending != nil
	s.mu.Unlock()
	close(s.exited)

	if err != nil {
		log.Error().Err(err).Bool("request-pending", hadPending).Msg("engine-exited")
	} else {
		log.Warn().Bool("request-pending", hadPending).Msg("engine-exited")
	}
}

func (s *session) send(line string) error {
	log.Debug().Str("line", line).Msg(">>")
	_, err := io.WriteString(s.proc.Stdin(), line+"\n")
	return err
}

func (s *session) handleLine(line string) {
	log.Debug().Str("line", line).Msg("<<")
	switch {
	case line == "usiok":
		if s.State() != StateInitializing {
			return
		}
		s.setState(StateAwaitingReady)
		if err := s.send("isready"); err != nil {
			log.Error().Err(err).Msg("failed to send isready")
		}

	case line == "readyok":
		if s.State() != StateAwaitingReady {
			return
		}
		s.applyDefaults()
		s.setState(StateReady)
		close(s.ready)
		log.Info().Msg("engine-ready")

	case strings.HasPrefix(line, "info "):
		s.mu.Lock()
		if s.pending != nil && s.abandoned == 0 {
			s.pending.agg.add(ParseInfo(line))
		}
		s.mu.Unlock()

	case line == "bestmove" || strings.HasPrefix(line, "bestmove "):
		s.mu.Lock()
		if s.abandoned > 0 {
			s.abandoned--
			s.mu.Unlock()
			log.Debug().Str("line", line).Msg("dropping bestmove of abandoned search")
			return
		}
		p := s.pending
		s.pending = nil
		s.mu.Unlock()
		if p == nil {
			log.Debug().Str("line", line).Msg("bestmove with no pending request; ignoring")
			return
		}
		p.done <- p.agg.finalize(line)
	}
}

// applyDefaults runs before ready is closed, so no request can interleave.
func (s *session) applyDefaults() {
	cmds := []string{
		setOption("Threads", s.opts.Threads),
		setOption("Hash", s.opts.HashMB),
	}
	if s.opts.EvalFile != "" {
		cmds = append(cmds, setOption("EvalFile", s.opts.EvalFile))
	}
	if s.opts.EvalDir != "" {
		cmds = append(cmds, setOption("EvalDir", s.opts.EvalDir))
	}
	for _, c := range cmds {
		if err := s.send(c); err != nil {
			log.Error().Err(err).Str("cmd", c).Msg("failed to apply default option")
			return
		}
	}
	s.threads = s.opts.Threads
}

func setOption(name string, value any) string {
	return fmt.Sprintf("setoption name %s value %v", name, value)
}

// waitReady blocks until the handshake completes, the process exits, the
// handshake timeout elapses or ctx is done.
func (s *session) waitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	default:
	}
	timer := time.NewTimer(s.opts.HandshakeTimeout)
	defer timer.Stop()
	select {
	case <-s.ready:
		return nil
	case <-s.exited:
		return fmt.Errorf("%w during handshake: %v", ErrUnexpectedExit, s.exitErr)
	case <-timer.C:
		return ErrHandshakeTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// install puts p into the pending slot.
func (s *session) install(p *pendingRequest) {
	s.mu.Lock()
	s.pending = p
	s.mu.Unlock()
}

// abandon gives up on p. If its bestmove has not been read yet, the search
// is counted as abandoned and the engine is told to stop; abandon then
// returns false. It returns true if the result was already delivered.
func (s *session) abandon(p *pendingRequest) bool {
	s.mu.Lock()
	if s.pending != p {
		s.mu.Unlock()
		return true
	}
	s.pending = nil
	s.abandoned++
	s.mu.Unlock()
	if err := s.send("stop"); err != nil {
		log.Debug().Err(err).Msg("failed to send stop")
	}
	return false
}

// discard empties the pending slot if it still holds p.
func (s *session) discard(p *pendingRequest) {
	s.mu.Lock()
	if s.pending == p {
		s.pending = nil
	}
	s.mu.Unlock()
}

// analyze must only be called by the holder of the request serializer, after
// waitReady succeeded.
func (s *session) analyze(ctx context.Context, req Request) (*Result, error) {
	threads := req.Threads
	if threads <= 0 {
		threads = s.opts.Threads
	}
	// MultiPV has no query in USI, so it is set on every request.
	cmds := []string{setOption("MultiPV", req.MultiPV)}
	if threads != s.threads {
		cmds = append(cmds, setOption("Threads", threads))
	}
	cmds = append(cmds, PositionCommand(req.SFEN, req.ForceMove))
	for _, c := range cmds {
		if err := s.send(c); err != nil {
			return nil, s.writeError(err)
		}
	}
	s.threads = threads

	p := newPendingRequest()
	s.install(p)
	defer s.discard(p)
	if err := s.send(fmt.Sprintf("go depth %d", req.Depth)); err != nil {
		return nil, s.writeError(err)
	}

	timeout := s.opts.Deadline(req.Depth)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-p.done:
		return res, nil
	case <-timer.C:
		if s.abandon(p) {
			return <-p.done, nil
		}
		return nil, fmt.Errorf("%w after %s", ErrRequestTimeout, timeout)
	case <-s.exited:
		// The result may have landed just before the exit.
		select {
		case res := <-p.done:
			return res, nil
		default:
		}
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedExit, s.exitErr)
	case <-ctx.Done():
		if s.abandon(p) {
			return <-p.done, nil
		}
		return nil, ctx.Err()
	}
}

func (s *session) writeError(err error) error {
	if !s.alive() {
		return fmt.Errorf("%w: %v", ErrUnexpectedExit, s.exitErr)
	}
	return fmt.Errorf("write to engine: %w", err)
}

// shutdown asks the engine to quit and kills it if it has not exited within
// grace. sendQuit is false when another goroutine owns the input stream.
func (s *session) shutdown(sendQuit bool, grace time.Duration) error {
	if !s.alive() {
		return nil
	}
	if sendQuit {
		if err := s.send("quit"); err != nil {
			log.Debug().Err(err).Msg("failed to send quit")
		}
		select {
		case <-s.exited:
			return nil
		case <-time.After(grace):
		}
	}
	log.Warn().Msg("killing engine")
	if err := s.proc.Kill(); err != nil {
		return err
	}
	<-s.exited
	return nil
}
