package usi

import "errors"

var (
	// ErrStartupFailure means the engine binary could not be spawned. The
	// engine is treated as permanently dead afterwards.
	ErrStartupFailure = errors.New("engine failed to start")
	// ErrHandshakeTimeout means usiok/readyok was not received in time.
	ErrHandshakeTimeout = errors.New("engine not ready (usi/readyok not received)")
	// ErrRequestTimeout means no bestmove arrived before the request deadline.
	// The engine may still be searching.
	ErrRequestTimeout = errors.New("engine timeout (no bestmove)")
	// ErrUnexpectedExit means the engine process went away while a request
	// was pending, or before one could be submitted.
	ErrUnexpectedExit = errors.New("engine exited unexpectedly")
	ErrClosed         = errors.New("engine closed")
)
