// Package bot answers analysis requests arriving over NATS request/reply.
package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/shogitools/usibridge/api"
	"github.com/shogitools/usibridge/usi"
)

const (
	DefaultSubject = "usibridge.analyze"
	queueGroup     = "usibridge"
)

// AnalyzeResponse is the reply to a JSON-encoded usi.Request. Exactly one of
// Result and Error is set.
type AnalyzeResponse struct {
	Result *usi.Result `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func errorResponse(message string, err error) *AnalyzeResponse {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &AnalyzeResponse{Error: msg}
}

func handle(ctx context.Context, analyzer usi.Analyzer, data []byte) *AnalyzeResponse {
	var req usi.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("Could not parse request", err)
	}
	req, err := api.Normalize(req)
	if err != nil {
		return errorResponse("Invalid request", err)
	}
	res, err := analyzer.Analyze(ctx, req)
	if err != nil {
		return errorResponse("Analysis failed", err)
	}
	return &AnalyzeResponse{Result: res}
}

// Serve answers requests on subject until ctx is done. Each message is
// handled on its own goroutine; the analyzer decides the order.
func Serve(ctx context.Context, nc *nats.Conn, subject string, analyzer usi.Analyzer) error {
	sub, err := nc.QueueSubscribe(subject, queueGroup, func(m *nats.Msg) {
		log.Info().Int("bytes", len(m.Data)).Str("subject", m.Subject).Msg("RECV")
		go func() {
			resp := handle(ctx, analyzer, m.Data)
			data, err := json.Marshal(resp)
			if err != nil {
				// Should never happen, ideally, but we need to do something sensible here.
				m.Respond([]byte(err.Error()))
				return
			}
			if err := m.Respond(data); err != nil {
				log.Error().Err(err).Msg("failed to respond")
			}
		}()
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	log.Info().Msgf("Listening on [%s]", subject)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		log.Warn().Err(err).Msg("failed to drain subscription")
	}
	return nil
}
