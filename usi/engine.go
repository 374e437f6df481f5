// Package usi bridges request/response callers to a single long-lived USI
// shogi engine process.
//
// The engine speaks a stateful line protocol on its stdin/stdout and can only
// work on one search at a time, so an Engine serializes Analyze calls in
// arrival order and routes the protocol output of the current search to the
// caller that submitted it.
package usi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Options tunes the engine and the bridge's waits.
type Options struct {
	// Threads and HashMB are applied once the handshake completes.
	Threads int
	HashMB  int
	// EvalFile and EvalDir are sent only when set.
	EvalFile string
	EvalDir  string

	HandshakeTimeout time.Duration
	// A request waits max(TimeoutFloor, TimeoutPerDepth*depth) for bestmove.
	TimeoutFloor    time.Duration
	TimeoutPerDepth time.Duration

	// Restart relaunches the engine on the next request after it exits.
	Restart bool
	// QuitGrace is how long Close waits after `quit` before killing.
	QuitGrace time.Duration
}

func DefaultOptions() Options {
	return Options{
		Threads:          1,
		HashMB:           256,
		HandshakeTimeout: 4 * time.Second,
		TimeoutFloor:     8 * time.Second,
		TimeoutPerDepth:  400 * time.Millisecond,
		QuitGrace:        2 * time.Second,
	}
}

// Deadline is the time a request of the given depth may wait for bestmove.
func (o Options) Deadline(depth int) time.Duration {
	return max(o.TimeoutFloor, o.TimeoutPerDepth*time.Duration(depth))
}

// Request is one analysis. SFEN is either a board state or `startpos`
// optionally followed by `moves ...`. Threads <= 0 means the default.
type Request struct {
	SFEN      string `json:"sfen"`
	Depth     int    `json:"depth"`
	MultiPV   int    `json:"multipv"`
	Threads   int    `json:"threads,omitempty"`
	ForceMove string `json:"forceMove,omitempty"`
}

// Analyzer is anything that can answer a Request.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Result, error)
}

type Engine struct {
	launch Launcher
	opts   Options
	// sem is the request serializer. Its waiters are granted in FIFO order.
	sem *semaphore.Weighted

	mu       sync.Mutex
	sess     *session
	startErr error
	closed   bool
}

// New launches the engine and starts the handshake. It does not wait for the
// handshake, and a launch failure is not returned: it is logged, and every
// Analyze call reports it.
func New(launch Launcher, opts Options) *Engine {
	e := &Engine{
		launch: launch,
		opts:   opts,
		sem:    semaphore.NewWeighted(1),
	}
	s, err := startSession(launch, opts)
	if err != nil {
		log.Error().Err(err).Msg("engine-start-failed")
		e.startErr = err
	}
	e.sess = s
	return e
}

// Analyze submits req once every earlier request has finished, and waits
// for the engine's bestmove. On timeout or cancellation the engine keeps
// searching; its late output is dropped.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Result, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	s, err := e.session()
	if err != nil {
		return nil, err
	}
	if err := s.waitReady(ctx); err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := s.analyze(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("sfen", req.SFEN).Int("depth", req.Depth).Msg("analysis-failed")
		return nil, err
	}
	log.Debug().
		Str("sfen", req.SFEN).
		Int("depth", req.Depth).
		Int("multipv", req.MultiPV).
		Str("bestmove", res.BestMove).
		Int("variants", len(res.Infos)).
		Dur("elapsed", time.Since(started)).
		Msg("analysis-complete")
	return res, nil
}

// session returns the live session, relaunching a dead one if Restart is
// set. Callers hold the serializer.
func (e *Engine) session() (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if e.sess != nil && e.sess.alive() {
		return e.sess, nil
	}
	if !e.opts.Restart {
		if e.sess == nil {
			return nil, e.startErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedExit, e.sess.exitErr)
	}
	log.Info().Msg("restarting engine")
	s, err := startSession(e.launch, e.opts)
	if err != nil {
		log.Error().Err(err).Msg("engine-restart-failed")
		e.sess = nil
		e.startErr = err
		return nil, err
	}
	e.sess = s
	return s, nil
}

// State reports the handshake state of the current process.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return StateExited
	}
	return e.sess.State()
}

func (e *Engine) Alive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && e.sess != nil && e.sess.alive()
}

// Close stops the engine. If no request is in flight the engine is sent
// `quit` first; otherwise it is killed and the pending request fails.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	s := e.sess
	e.mu.Unlock()
	if s == nil {
		return nil
	}
	idle := e.sem.TryAcquire(1)
	if idle {
		defer e.sem.Release(1)
	}
	return s.shutdown(idle, e.opts.QuitGrace)
}
