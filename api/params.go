package api

import (
	"errors"
	"strconv"

	"github.com/samber/lo"

	"github.com/shogitools/usibridge/usi"
)

const (
	MaxDepth       = 30
	MaxMultiPV     = 10
	DefaultMultiPV = 10
	MinThreads     = 1
	MaxThreads     = 8
)

var errSFENRequired = errors.New("sfen required")

// Normalize fills in defaults and clamps a request to the limits the bridge
// accepts. A zero Depth or MultiPV means the default.
func Normalize(req usi.Request) (usi.Request, error) {
	if req.SFEN == "" {
		return req, errSFENRequired
	}
	if req.Depth == 0 {
		req.Depth = MaxDepth
	}
	if req.MultiPV == 0 {
		req.MultiPV = DefaultMultiPV
	}
	if req.Threads == 0 {
		req.Threads = MinThreads
	}
	req.Depth = lo.Clamp(req.Depth, 1, MaxDepth)
	req.MultiPV = lo.Clamp(req.MultiPV, 1, MaxMultiPV)
	req.Threads = lo.Clamp(req.Threads, MinThreads, MaxThreads)
	return req, nil
}

// intParam parses an optional integer query parameter.
func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + name + ": " + raw)
	}
	return n, nil
}
