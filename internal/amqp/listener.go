package amqp

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ListenChanges consumes change notifications until the context ends,
// redialing the broker with exponential backoff whenever the connection
// drops. The handler is where a full reload belongs.
func ListenChanges(ctx context.Context, url, exchangeName string, handler func(*LedgerChangedMessage) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // keep retrying for the life of the process

	for {
		client, err := NewClient(url, exchangeName)
		if err == nil {
			bo.Reset()
			err = client.ConsumeChanges(ctx, handler)
			client.Close()
		}

		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return ctx.Err()
		}

		wait := bo.NextBackOff()
		slog.Warn("AMQP listener disconnected, retrying",
			"error", err,
			"retry_in", wait.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
