package blotter

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/joripage/execution-core/pkg/exec/model"
)

// PublishingBlotter wraps another Blotter and mirrors every row onto a
// JetStream subject, where an out-of-process worker persists it. Publish
// failures are logged and swallowed so the trading loop never blocks on
// the audit feed.
type PublishingBlotter struct {
	inner   Blotter
	js      nats.JetStreamContext
	subject string
	log     *zap.SugaredLogger
}

func NewPublishingBlotter(inner Blotter, js nats.JetStreamContext, subject string, log *zap.SugaredLogger) *PublishingBlotter {
	return &PublishingBlotter{
		inner:   inner,
		js:      js,
		subject: subject,
		log:     log,
	}
}

func (b *PublishingBlotter) Append(ctx context.Context, entry *model.BlotterEntry) (int64, error) {
	id, err := b.inner.Append(ctx, entry)
	if err != nil {
		return 0, err
	}

	cp := *entry
	cp.ID = id
	b.publish(&cp)
	return id, nil
}

func (b *PublishingBlotter) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	if err := b.inner.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if entry, err := b.inner.Entry(ctx, id); err == nil {
		b.publish(entry)
	}
	return nil
}

func (b *PublishingBlotter) Entry(ctx context.Context, id int64) (*model.BlotterEntry, error) {
	return b.inner.Entry(ctx, id)
}

func (b *PublishingBlotter) Trail(ctx context.Context, orderID string) ([]*model.BlotterEntry, error) {
	return b.inner.Trail(ctx, orderID)
}

func (b *PublishingBlotter) publish(entry *model.BlotterEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		b.log.Warnw("marshal blotter entry failed", "id", entry.ID, "err", err)
		return
	}
	if _, err := b.js.PublishAsync(b.subject, data); err != nil {
		b.log.Warnw("publish blotter entry failed", "id", entry.ID, "err", err)
	}
}
