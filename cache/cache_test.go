package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/shogitools/usibridge/usi"
)

type countingAnalyzer struct {
	calls atomic.Int32
	err   error
}

func (c *countingAnalyzer) Analyze(ctx context.Context, req usi.Request) (*usi.Result, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &usi.Result{BestMove: req.ForceMove, Infos: []usi.Variant{{PV: []string{"7g7f"}}}}, nil
}

func TestCacheHitsAndMisses(t *testing.T) {
	is := is.New(t)
	next := &countingAnalyzer{}
	c := New(next, 8, time.Minute)
	ctx := context.Background()
	req := usi.Request{SFEN: "startpos", Depth: 10, MultiPV: 3, Threads: 1, ForceMove: "a"}

	r1, err := c.Analyze(ctx, req)
	is.NoErr(err)
	r2, err := c.Analyze(ctx, req)
	is.NoErr(err)
	is.Equal(next.calls.Load(), int32(1))
	is.Equal(r1, r2)

	// Results handed out are independent copies.
	r2.Infos[0] = usi.Variant{}
	r3, _ := c.Analyze(ctx, req)
	is.Equal(r3.Infos[0].PV, []string{"7g7f"})

	// So are the PVs inside them.
	r3.Infos[0].PV[0] = "2g2f"
	r1.Infos[0].PV[0] = "3g3f"
	r4, _ := c.Analyze(ctx, req)
	is.Equal(r4.Infos[0].PV, []string{"7g7f"})

	// Whitespace variants share a key, but the stored request must match.
	spaced := req
	spaced.SFEN = "  startpos "
	_, err = c.Analyze(ctx, spaced)
	is.NoErr(err)
	is.Equal(next.calls.Load(), int32(2))

	other := req
	other.Depth = 11
	c.Analyze(ctx, other)
	is.Equal(next.calls.Load(), int32(3))
	is.Equal(c.Len(), 2)
}

func TestCacheSkipsErrors(t *testing.T) {
	is := is.New(t)
	next := &countingAnalyzer{err: errors.New("engine timeout")}
	c := New(next, 8, time.Minute)
	req := usi.Request{SFEN: "startpos", Depth: 1, MultiPV: 1}

	_, err := c.Analyze(context.Background(), req)
	is.True(err != nil)
	_, err = c.Analyze(context.Background(), req)
	is.True(err != nil)
	is.Equal(next.calls.Load(), int32(2))
	is.Equal(c.Len(), 0)
}

func TestCacheExpires(t *testing.T) {
	is := is.New(t)
	next := &countingAnalyzer{}
	c := New(next, 8, 20*time.Millisecond)
	req := usi.Request{SFEN: "startpos", Depth: 1, MultiPV: 1}

	c.Analyze(context.Background(), req)
	time.Sleep(60 * time.Millisecond)
	c.Analyze(context.Background(), req)
	is.Equal(next.calls.Load(), int32(2))
}
