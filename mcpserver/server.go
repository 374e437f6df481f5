// Package mcpserver exposes the bridge's analysis endpoint as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/shogitools/usibridge/api"
	"github.com/shogitools/usibridge/usi"
)

const (
	Name    = "shogi-mcp"
	Version = "0.1.0"

	minDepth             = 4
	defaultDepth         = 18
	defaultAnalyzeMPV    = 10
	defaultEvalAtMultiPV = 5
)

// Bridge is the HTTP bridge as seen by the tools. *api.Client implements it.
type Bridge interface {
	Analyze(ctx context.Context, req usi.Request) (*api.AnalyzeResponse, error)
}

type PingInput struct{}

type AnalyzeInput struct {
	SFEN      string `json:"sfen" jsonschema:"position as an SFEN string or startpos, optionally with moves"`
	Depth     int    `json:"depth,omitempty" jsonschema:"search depth, 4 to 30, default 18"`
	MultiPV   int    `json:"multipv,omitempty" jsonschema:"number of candidate lines, 1 to 10, default 10"`
	Threads   int    `json:"threads,omitempty" jsonschema:"engine threads, 1 to 8, default 1"`
	ForceMove string `json:"forceMove,omitempty" jsonschema:"a move to play before searching, e.g. 7g7f"`
}

type EvalAtInput struct {
	SFEN    string `json:"sfen" jsonschema:"position as an SFEN string or startpos, optionally with moves"`
	Move    string `json:"move" jsonschema:"the move to play, e.g. 7g7f"`
	Depth   int    `json:"depth,omitempty" jsonschema:"search depth, 4 to 30, default 18"`
	MultiPV int    `json:"multipv,omitempty" jsonschema:"number of candidate lines, 1 to 10, default 5"`
	Threads int    `json:"threads,omitempty" jsonschema:"engine threads, 1 to 8, default 1"`
}

// NewServer builds the MCP server. It does not start a transport.
func NewServer(bridge Bridge) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Title:       "Ping",
		Description: "Health check. Always answers pong.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ PingInput) (*mcp.CallToolResult, any, error) {
		return textResult("pong"), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze",
		Title:       "Engine analysis",
		Description: "Analyse an SFEN position and return candidate moves (MultiPV) with scores and PVs.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, any, error) {
		r := usi.Request{
			SFEN:      in.SFEN,
			Depth:     orDefault(in.Depth, defaultDepth),
			MultiPV:   orDefault(in.MultiPV, defaultAnalyzeMPV),
			Threads:   orDefault(in.Threads, api.MinThreads),
			ForceMove: in.ForceMove,
		}
		return forward(ctx, bridge, "analyze", r), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "eval_at",
		Title:       "Evaluate after a move",
		Description: "Play one move in the given position and analyse the result.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in EvalAtInput) (*mcp.CallToolResult, any, error) {
		r := usi.Request{
			SFEN:      in.SFEN,
			Depth:     orDefault(in.Depth, defaultDepth),
			MultiPV:   orDefault(in.MultiPV, defaultEvalAtMultiPV),
			Threads:   orDefault(in.Threads, api.MinThreads),
			ForceMove: in.Move,
		}
		if r.ForceMove == "" {
			return errorResult("move required"), nil, nil
		}
		return forward(ctx, bridge, "eval_at", r), nil, nil
	})

	return server
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func validate(r usi.Request) error {
	switch {
	case r.SFEN == "":
		return fmt.Errorf("sfen required")
	case r.Depth < minDepth || r.Depth > api.MaxDepth:
		return fmt.Errorf("depth must be between %d and %d", minDepth, api.MaxDepth)
	case r.MultiPV < 1 || r.MultiPV > api.MaxMultiPV:
		return fmt.Errorf("multipv must be between 1 and %d", api.MaxMultiPV)
	case r.Threads < api.MinThreads || r.Threads > api.MaxThreads:
		return fmt.Errorf("threads must be between %d and %d", api.MinThreads, api.MaxThreads)
	}
	return nil
}

func forward(ctx context.Context, bridge Bridge, tool string, r usi.Request) *mcp.CallToolResult {
	if err := validate(r); err != nil {
		return errorResult(err.Error())
	}
	resp, err := bridge.Analyze(ctx, r)
	if err != nil {
		log.Error().Err(err).Str("tool", tool).Str("sfen", r.SFEN).Msg("bridge-request-failed")
		return errorResult(err.Error())
	}
	text, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(string(text))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}
