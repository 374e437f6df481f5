package bot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shogitools/usibridge/usi"
)

type recordingAnalyzer struct {
	req usi.Request
	err error
}

func (r *recordingAnalyzer) Analyze(ctx context.Context, req usi.Request) (*usi.Result, error) {
	r.req = req
	if r.err != nil {
		return nil, r.err
	}
	return &usi.Result{BestMove: "7g7f", Infos: []usi.Variant{}}, nil
}

func TestHandleNormalizesRequest(t *testing.T) {
	a := &recordingAnalyzer{}
	resp := handle(context.Background(), a, []byte(`{"sfen":"startpos","depth":50,"forceMove":"2g2f"}`))

	require.Empty(t, resp.Error)
	assert.Equal(t, "7g7f", resp.Result.BestMove)
	assert.Equal(t, usi.Request{SFEN: "startpos", Depth: 30, MultiPV: 10, Threads: 1, ForceMove: "2g2f"}, a.req)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":{"bestmove":"7g7f","infos":[]}}`, string(data))
}

func TestHandleErrors(t *testing.T) {
	resp := handle(context.Background(), &recordingAnalyzer{}, []byte(`not json`))
	assert.Contains(t, resp.Error, "Could not parse request")
	assert.Nil(t, resp.Result)

	resp = handle(context.Background(), &recordingAnalyzer{}, []byte(`{"depth":3}`))
	assert.Equal(t, "Invalid request: sfen required", resp.Error)

	resp = handle(context.Background(), &recordingAnalyzer{err: usi.ErrRequestTimeout}, []byte(`{"sfen":"startpos"}`))
	assert.Equal(t, "Analysis failed: "+usi.ErrRequestTimeout.Error(), resp.Error)
}
