// Package worker drains the blotter feed off JetStream into durable
// storage, keeping audit persistence out of the trading loop.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/joripage/execution-core/pkg/exec/blotter"
	"github.com/joripage/execution-core/pkg/exec/model"
)

type Worker struct {
	sink blotter.Blotter
	log  *zap.SugaredLogger
}

func New(sink blotter.Blotter, log *zap.SugaredLogger) *Worker {
	return &Worker{sink: sink, log: log}
}

// StartConsumer pulls published blotter rows from subject via a durable
// consumer and appends them to the sink until ctx is cancelled. A row
// that cannot be decoded is acked and dropped; a row that cannot be
// persisted is not acked, so it redelivers.
func (w *Worker) StartConsumer(ctx context.Context, js nats.JetStreamContext, subject, durable string) error {
	cons, err := js.PullSubscribe(subject, durable)
	if err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		msgs, err := cons.Fetch(10, nats.MaxWait(2*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.log.Warnw("fetch failed", "err", err)
			continue
		}

		for _, msg := range msgs {
			var entry model.BlotterEntry
			if err := json.Unmarshal(msg.Data, &entry); err != nil {
				w.log.Warnw("drop undecodable blotter row", "err", err)
				_ = msg.Ack()
				continue
			}
			if err := w.handleEntry(ctx, entry); err != nil {
				w.log.Warnw("persist blotter row failed", "order", entry.OrderID, "err", err)
				continue
			}
			_ = msg.Ack()
		}
	}
}

func (w *Worker) handleEntry(ctx context.Context, entry model.BlotterEntry) error {
	// Each published row becomes its own audit row; the publisher emits
	// one per status transition so the append order is the trail.
	_, err := w.sink.Append(ctx, &entry)
	return err
}
