package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/shogitools/usibridge/api"
	"github.com/shogitools/usibridge/usi"
)

const (
	defaultDepth         = 18
	defaultEvalAtMultiPV = 5
)

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("analyze <sfen|startpos ...> [-depth N] [-multipv N] [-threads N] [-force MOVE]")
	}
	req := usi.Request{
		SFEN:      strings.Join(cmd.args, " "),
		Depth:     defaultDepth,
		MultiPV:   api.DefaultMultiPV,
		ForceMove: cmd.options["force"],
	}
	return sc.run(req, cmd.options, "force")
}

// evalAt analyses the position reached by playing the last argument.
func (sc *ShellController) evalAt(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("evalat <sfen|startpos ...> <move> [-depth N] [-multipv N] [-threads N]")
	}
	last := len(cmd.args) - 1
	req := usi.Request{
		SFEN:      strings.Join(cmd.args[:last], " "),
		Depth:     defaultDepth,
		MultiPV:   defaultEvalAtMultiPV,
		ForceMove: cmd.args[last],
	}
	return sc.run(req, cmd.options)
}

func (sc *ShellController) run(req usi.Request, options map[string]string, extra ...string) (*Response, error) {
	for opt, val := range options {
		var err error
		switch opt {
		case "depth":
			req.Depth, err = strconv.Atoi(val)
		case "multipv":
			req.MultiPV, err = strconv.Atoi(val)
		case "threads":
			req.Threads, err = strconv.Atoi(val)
		default:
			if !lo.Contains(extra, opt) {
				return nil, errors.New("option " + opt + " not recognized")
			}
		}
		if err != nil {
			return nil, fmt.Errorf("bad value for -%s: %w", opt, err)
		}
	}
	req, err := api.Normalize(req)
	if err != nil {
		return nil, err
	}
	res, err := sc.analyzer.Analyze(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return Msg(renderResult(req, res)), nil
}

func formatScore(v usi.Variant) string {
	switch {
	case v.Mate != nil:
		return fmt.Sprintf("mate %d", *v.Mate)
	case v.ScoreCP != nil:
		return fmt.Sprintf("%+d", *v.ScoreCP)
	}
	return "-"
}

func formatInt[T int | int64](p *T) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatInt(int64(*p), 10)
}

func renderResult(req usi.Request, res *usi.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "depth %d, multipv %d, threads %d", req.Depth, req.MultiPV, req.Threads)
	if req.ForceMove != "" {
		fmt.Fprintf(&sb, ", after %s", req.ForceMove)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%-4s%-7s%-10s%-12s%-10s%s\n", "#", "Depth", "Score", "Nodes", "NPS", "PV")
	for _, v := range res.Infos {
		fmt.Fprintf(&sb, "%-4s%-7s%-10s%-12s%-10s%s\n",
			formatInt(v.MultiPV), formatInt(v.Depth), formatScore(v),
			formatInt(v.Nodes), formatInt(v.NPS), strings.Join(v.PV, " "))
	}
	sb.WriteString("bestmove " + res.BestMove)
	if res.Ponder != "" {
		sb.WriteString(" ponder " + res.Ponder)
	}
	return sb.String()
}
