package usi

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestParseInfo(t *testing.T) {
	cases := []struct {
		line string
		want Variant
	}{
		{
			"info depth 10 multipv 1 score cp 120 nodes 500 nps 1000 pv 7g7f 3c3d",
			Variant{MultiPV: lo.ToPtr(1), Depth: lo.ToPtr(10), ScoreCP: lo.ToPtr(120),
				Nodes: lo.ToPtr[int64](500), NPS: lo.ToPtr[int64](1000), PV: []string{"7g7f", "3c3d"}},
		},
		{
			"info depth 10 multipv 2 score cp 80 pv 2g2f",
			Variant{MultiPV: lo.ToPtr(2), Depth: lo.ToPtr(10), ScoreCP: lo.ToPtr(80), PV: []string{"2g2f"}},
		},
		{
			"info depth 7 seldepth 12 score mate -3 pv 5b5a",
			Variant{Depth: lo.ToPtr(7), Mate: lo.ToPtr(-3), PV: []string{"5b5a"}},
		},
		{
			"info score cp -45 lowerbound multipv 3",
			Variant{ScoreCP: lo.ToPtr(-45), MultiPV: lo.ToPtr(3)},
		},
		{
			"info nodes 123456789012 nps 99 hashfull 10",
			Variant{Nodes: lo.ToPtr[int64](123456789012), NPS: lo.ToPtr[int64](99)},
		},
		// Malformed or missing values leave the field unset.
		{"info depth x multipv", Variant{}},
		{"info score mate + pv", Variant{}},
		{"info string depth 5 multipv 2 pv 7g7f", Variant{}},
		{"info depth 3 string hello pv 1a1b", Variant{Depth: lo.ToPtr(3)}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ParseInfo(c.line), c.line)
	}
}

func TestVariantMerge(t *testing.T) {
	v := Variant{}
	v.merge(Variant{MultiPV: lo.ToPtr(1), Depth: lo.ToPtr(5), ScoreCP: lo.ToPtr(30), PV: []string{"7g7f"}})
	v.merge(Variant{Depth: lo.ToPtr(6), Nodes: lo.ToPtr[int64](10)})
	assert.Equal(t, Variant{MultiPV: lo.ToPtr(1), Depth: lo.ToPtr(6), ScoreCP: lo.ToPtr(30),
		Nodes: lo.ToPtr[int64](10), PV: []string{"7g7f"}}, v)

	v.merge(Variant{Mate: lo.ToPtr(5)})
	assert.Nil(t, v.ScoreCP)
	assert.Equal(t, 5, *v.Mate)

	v.merge(Variant{ScoreCP: lo.ToPtr(900)})
	assert.Nil(t, v.Mate)
	assert.Equal(t, 900, *v.ScoreCP)
}
