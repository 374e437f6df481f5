package shell

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/samber/lo"

	"github.com/shogitools/usibridge/usi"
)

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"analyze startpos -depth 12",
			&shellcmd{"analyze", []string{"startpos"}, map[string]string{"depth": "12"}},
			nil},
		{"help",
			&shellcmd{"help", nil, map[string]string{}},
			nil},
		{"analyze lnsgkgsnl/9/9/9/9/9/9/9/LNSGKGSNL b - 1 -force 7g7f -multipv 3",
			&shellcmd{"analyze",
				[]string{"lnsgkgsnl/9/9/9/9/9/9/9/LNSGKGSNL", "b", "-", "1"},
				map[string]string{"force": "7g7f", "multipv": "3"}},
			nil,
		},
		{"analyze startpos -depth",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

type stubAnalyzer struct {
	got []usi.Request
	err error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req usi.Request) (*usi.Result, error) {
	s.got = append(s.got, req)
	if s.err != nil {
		return nil, s.err
	}
	return &usi.Result{
		BestMove: "7g7f",
		Ponder:   "3c3d",
		Infos: []usi.Variant{
			{MultiPV: lo.ToPtr(1), Depth: lo.ToPtr(12), ScoreCP: lo.ToPtr(35), Nodes: lo.ToPtr[int64](1000), PV: []string{"7g7f", "3c3d"}},
			{MultiPV: lo.ToPtr(2), Depth: lo.ToPtr(12), Mate: lo.ToPtr(-3), PV: []string{"2g2f"}},
		},
	}, nil
}

func TestAnalyzeCommand(t *testing.T) {
	is := is.New(t)
	stub := &stubAnalyzer{}
	sc := &ShellController{analyzer: stub}

	resp, err := sc.handle("analyze startpos moves 2g2f -depth 40 -threads 2 -force 8c8d")
	is.NoErr(err)
	is.Equal(stub.got[0], usi.Request{SFEN: "startpos moves 2g2f", Depth: 30, MultiPV: 10, Threads: 2, ForceMove: "8c8d"})

	lines := strings.Split(resp.message, "\n")
	is.Equal(lines[0], "depth 30, multipv 10, threads 2, after 8c8d")
	is.True(strings.HasPrefix(lines[2], "1   12     +35       1000        -         7g7f 3c3d"))
	is.True(strings.Contains(lines[3], "mate -3"))
	is.Equal(lines[len(lines)-1], "bestmove 7g7f ponder 3c3d")
}

func TestEvalAtCommand(t *testing.T) {
	is := is.New(t)
	stub := &stubAnalyzer{}
	sc := &ShellController{analyzer: stub}

	_, err := sc.handle("e lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1 7g7f")
	is.NoErr(err)
	is.Equal(stub.got[0], usi.Request{
		SFEN:      "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1",
		Depth:     18,
		MultiPV:   5,
		Threads:   1,
		ForceMove: "7g7f",
	})

	_, err = sc.handle("evalat 7g7f")
	is.True(err != nil)
	_, err = sc.handle("evalat startpos 7g7f -force 2g2f")
	is.Equal(err.Error(), "option force not recognized")
	is.Equal(len(stub.got), 1)
}

func TestCommandErrors(t *testing.T) {
	is := is.New(t)
	stub := &stubAnalyzer{err: usi.ErrRequestTimeout}
	sc := &ShellController{analyzer: stub}

	_, err := sc.handle("analyze startpos")
	is.True(errors.Is(err, usi.ErrRequestTimeout))

	_, err = sc.handle("analyze startpos -depth deep")
	is.True(strings.HasPrefix(err.Error(), "bad value for -depth"))

	_, err = sc.handle("analyze")
	is.True(err != nil)

	_, err = sc.handle("bogus")
	is.Equal(err.Error(), `command "bogus" not found`)
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc := &ShellController{}

	resp, err := sc.handle("help")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "Commands:"))

	resp, err = sc.handle("help evalat")
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "evalat <sfen|startpos ...> <move>"))

	resp, _ = sc.handle("help nothing")
	is.Equal(resp.message, "There is no help text for the topic nothing")
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	c := NewShellCompleter()

	complete := func(text string) []string {
		matches, _ := c.Do([]rune(text), len(text))
		return lo.Map(matches, func(m []rune, _ int) string { return string(m) })
	}
	is.Equal(complete("ev"), []string{"alat"})
	is.Equal(complete("analyze st"), []string{"artpos"})
	is.Equal(complete("analyze startpos -m"), []string{"ultipv"})
	is.Equal(complete("a startpos -depth "), depthValues)
	is.Equal(complete("help "), []string{"analyze", "evalat"})
}
