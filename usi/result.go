package usi

import (
	"cmp"
	"slices"
	"strings"
)

// NoMove is reported as the best move when the engine's bestmove line
// names none.
const NoMove = "none"

// Result is the finalized answer to one Analyze call.
type Result struct {
	BestMove string    `json:"bestmove"`
	Ponder   string    `json:"ponder,omitempty"`
	Infos    []Variant `json:"infos"`
}

// Clone returns a deep copy that shares no memory with r.
func (r *Result) Clone() *Result {
	c := *r
	if r.Infos != nil {
		c.Infos = make([]Variant, len(r.Infos))
		for i, v := range r.Infos {
			c.Infos[i] = v.clone()
		}
	}
	return &c
}

// SortVariants orders variants by ascending multipv rank. Variants without a
// rank go last and keep their relative order.
func SortVariants(vs []Variant) {
	slices.SortStableFunc(vs, func(a, b Variant) int {
		switch {
		case a.MultiPV == nil && b.MultiPV == nil:
			return 0
		case a.MultiPV == nil:
			return 1
		case b.MultiPV == nil:
			return -1
		}
		return cmp.Compare(*a.MultiPV, *b.MultiPV)
	})
}

// aggregator collects the info updates of one pending request.
type aggregator struct {
	ranked   map[int]*Variant
	unranked *Variant
	// order is insertion order, ranked and unranked alike.
	order []*Variant
}

func newAggregator() *aggregator {
	return &aggregator{ranked: make(map[int]*Variant)}
}

// add folds an update in. Ranked updates merge into the entry for their
// rank. Rank-less updates only count when they carry a score or a PV, and
// all of them merge into a single rank-less entry.
func (a *aggregator) add(u Variant) bool {
	if u.MultiPV != nil {
		v, ok := a.ranked[*u.MultiPV]
		if !ok {
			v = &Variant{}
			a.ranked[*u.MultiPV] = v
			a.order = append(a.order, v)
		}
		v.merge(u)
		return true
	}
	if !u.HasScore() && u.PV == nil {
		return false
	}
	if a.unranked == nil {
		a.unranked = &Variant{}
		a.order = append(a.order, a.unranked)
	}
	a.unranked.merge(u)
	return true
}

func (a *aggregator) snapshot() []Variant {
	out := make([]Variant, 0, len(a.order))
	for _, v := range a.order {
		out = append(out, *v)
	}
	SortVariants(out)
	return out
}

// finalize builds the Result from a bestmove line.
func (a *aggregator) finalize(line string) *Result {
	res := &Result{BestMove: NoMove, Infos: a.snapshot()}
	f := strings.Fields(line)
	if len(f) > 1 {
		res.BestMove = f[1]
	}
	for i := 2; i+1 < len(f); i++ {
		if f[i] == "ponder" {
			res.Ponder = f[i+1]
			break
		}
	}
	return res
}
