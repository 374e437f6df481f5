package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/shogitools/usibridge/usi"
)

// Client sends analysis requests to a bridge over NATS. It satisfies
// usi.Analyzer, so a remote bridge can stand in for a local engine.
type Client struct {
	nc       *nats.Conn
	subject  string
	attempts uint
}

func NewClient(nc *nats.Conn, subject string) *Client {
	return &Client{nc: nc, subject: subject, attempts: 5}
}

// Analyze sends req and waits for the reply. Requests that find no
// responders are retried with backoff; ctx bounds the whole exchange.
func (c *Client) Analyze(ctx context.Context, req usi.Request) (*usi.Result, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var msg *nats.Msg
	err = retry.Do(
		func() error {
			var err error
			msg, err = c.nc.RequestWithContext(ctx, c.subject, data)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, nats.ErrNoResponders)
		}),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("no-responders-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		return nil, err
	}
	log.Debug().Msgf("res: %v", string(msg.Data))

	var resp AnalyzeResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New("bridge returned: " + resp.Error)
	}
	if resp.Result == nil {
		return nil, errors.New("bridge returned an empty response")
	}
	return resp.Result, nil
}
