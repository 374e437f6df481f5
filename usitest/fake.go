// Package usitest provides an in-memory USI engine for tests.
package usitest

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shogitools/usibridge/usi"
)

// Handler is called for every command the bridge writes, in write order, on
// the engine's input goroutine. It must not block; use Emit (which never
// blocks) or start a goroutine for delayed output.
type Handler func(e *FakeEngine, cmd string)

var nextPid atomic.Int32

// FakeEngine implements usi.Process over in-memory pipes and records every
// command it receives.
type FakeEngine struct {
	handler Handler
	pid     int

	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter

	out      chan string
	exitOnce sync.Once
	quit     chan struct{}
	exited   chan struct{}
	exitErr  error

	mu       sync.Mutex
	commands []string
}

// New starts a fake engine that hands every command to h.
func New(h Handler) *FakeEngine {
	e := &FakeEngine{
		handler: h,
		pid:     int(nextPid.Add(1)),
		out:     make(chan string, 1024),
		quit:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	e.stdinR, e.stdinW = io.Pipe()
	e.stdoutR, e.stdoutW = io.Pipe()
	go e.readCommands()
	go e.writeOutput()
	return e
}

// Standard answers the handshake, exits on quit, and passes everything else
// to next.
func Standard(next Handler) Handler {
	return func(e *FakeEngine, cmd string) {
		switch cmd {
		case "usi":
			e.Emit("id name FakeEngine", "id author usitest", "usiok")
		case "isready":
			e.Emit("readyok")
		case "quit":
			e.Exit(nil)
		default:
			if next != nil {
				next(e, cmd)
			}
		}
	}
}

// Launcher returns a launcher that always hands out e.
func (e *FakeEngine) Launcher() usi.Launcher {
	return func() (usi.Process, error) { return e, nil }
}

// Sequence returns a launcher that hands out a fresh engine with handler h on
// every launch, and reports each one to started.
func Sequence(h Handler, started func(*FakeEngine)) usi.Launcher {
	return func() (usi.Process, error) {
		e := New(h)
		if started != nil {
			started(e)
		}
		return e, nil
	}
}

// Failing returns a launcher that never starts.
func Failing(err error) usi.Launcher {
	return func() (usi.Process, error) { return nil, err }
}

// Emit queues lines on the engine's stdout.
func (e *FakeEngine) Emit(lines ...string) {
	for _, l := range lines {
		select {
		case e.out <- l:
		case <-e.quit:
			return
		}
	}
}

// Exit ends the process. Wait returns err once queued output is drained.
func (e *FakeEngine) Exit(err error) {
	e.exitOnce.Do(func() {
		e.exitErr = err
		close(e.quit)
		e.stdinR.CloseWithError(io.ErrClosedPipe)
	})
}

// Commands returns every command received so far.
func (e *FakeEngine) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.commands...)
}

// CommandsAfterHandshake drops the handshake and default-option commands.
func (e *FakeEngine) CommandsAfterHandshake() []string {
	cmds := e.Commands()
	for i, c := range cmds {
		if strings.HasPrefix(c, "setoption name MultiPV") {
			return cmds[i:]
		}
	}
	return nil
}

func (e *FakeEngine) Exited() <-chan struct{} {
	return e.exited
}

func (e *FakeEngine) readCommands() {
	sc := bufio.NewScanner(e.stdinR)
	for sc.Scan() {
		cmd := strings.TrimSpace(sc.Text())
		e.mu.Lock()
		e.commands = append(e.commands, cmd)
		e.mu.Unlock()
		if e.handler != nil {
			e.handler(e, cmd)
		}
	}
}

func (e *FakeEngine) writeOutput() {
	defer close(e.exited)
	for {
		select {
		case l := <-e.out:
			if _, err := io.WriteString(e.stdoutW, l+"\n"); err != nil {
				return
			}
		case <-e.quit:
			// Flush what was queued before the exit.
			for {
				select {
				case l := <-e.out:
					io.WriteString(e.stdoutW, l+"\n")
				default:
					e.stdoutW.Close()
					return
				}
			}
		}
	}
}

func (e *FakeEngine) Stdin() io.Writer  { return e.stdinW }
func (e *FakeEngine) Stdout() io.Reader { return e.stdoutR }
func (e *FakeEngine) Stderr() io.Reader { return strings.NewReader("") }
func (e *FakeEngine) Pid() int          { return e.pid }

func (e *FakeEngine) Wait() error {
	<-e.exited
	return e.exitErr
}

func (e *FakeEngine) Kill() error {
	e.Exit(errors.New("signal: killed"))
	return nil
}
