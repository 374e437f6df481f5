package usi

import (
	"slices"
	"strconv"
	"strings"
)

// Variant is one candidate line of play. Every field is optional because a
// single info line only reports part of it; later lines for the same
// multipv rank refine it in place.
type Variant struct {
	MultiPV *int     `json:"multipv,omitempty"`
	Depth   *int     `json:"depth,omitempty"`
	ScoreCP *int     `json:"scoreCp,omitempty"`
	Mate    *int     `json:"mate,omitempty"`
	Nodes   *int64   `json:"nodes,omitempty"`
	NPS     *int64   `json:"nps,omitempty"`
	PV      []string `json:"pv,omitempty"`
}

// HasScore reports whether either kind of score is set.
func (v Variant) HasScore() bool {
	return v.ScoreCP != nil || v.Mate != nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (v Variant) clone() Variant {
	return Variant{
		MultiPV: clonePtr(v.MultiPV),
		Depth:   clonePtr(v.Depth),
		ScoreCP: clonePtr(v.ScoreCP),
		Mate:    clonePtr(v.Mate),
		Nodes:   clonePtr(v.Nodes),
		NPS:     clonePtr(v.NPS),
		PV:      slices.Clone(v.PV),
	}
}

// merge overwrites v with every field that u specifies. A centipawn score and
// a mate score are mutually exclusive, so setting one clears the other.
func (v *Variant) merge(u Variant) {
	if u.MultiPV != nil {
		v.MultiPV = u.MultiPV
	}
	if u.Depth != nil {
		v.Depth = u.Depth
	}
	if u.ScoreCP != nil {
		v.ScoreCP = u.ScoreCP
		v.Mate = nil
	}
	if u.Mate != nil {
		v.Mate = u.Mate
		v.ScoreCP = nil
	}
	if u.Nodes != nil {
		v.Nodes = u.Nodes
	}
	if u.NPS != nil {
		v.NPS = u.NPS
	}
	if u.PV != nil {
		v.PV = u.PV
	}
}

// ParseInfo decomposes an `info` line. Unknown tokens are skipped, and a
// field whose value is missing or not a number is left unset. Everything
// after `string` is free text and is not interpreted.
func ParseInfo(line string) Variant {
	var u Variant
	f := strings.Fields(line)
	for i := 1; i < len(f); i++ {
		switch f[i] {
		case "depth":
			if n, ok := intAt(f, i+1); ok {
				u.Depth = &n
				i++
			}
		case "multipv":
			if n, ok := intAt(f, i+1); ok {
				u.MultiPV = &n
				i++
			}
		case "score":
			if i+2 >= len(f) {
				continue
			}
			n, err := strconv.Atoi(f[i+2])
			if err != nil {
				continue
			}
			switch f[i+1] {
			case "cp":
				u.ScoreCP = &n
			case "mate":
				u.Mate = &n
			default:
				continue
			}
			i += 2
		case "nodes":
			if n, ok := int64At(f, i+1); ok {
				u.Nodes = &n
				i++
			}
		case "nps":
			if n, ok := int64At(f, i+1); ok {
				u.NPS = &n
				i++
			}
		case "pv":
			if i+1 < len(f) {
				u.PV = slices.Clone(f[i+1:])
			}
			return u
		case "string":
			return u
		}
	}
	return u
}

func intAt(f []string, i int) (int, bool) {
	if i >= len(f) {
		return 0, false
	}
	n, err := strconv.Atoi(f[i])
	return n, err == nil
}

func int64At(f []string, i int) (int64, bool) {
	if i >= len(f) {
		return 0, false
	}
	n, err := strconv.ParseInt(f[i], 10, 64)
	return n, err == nil
}
