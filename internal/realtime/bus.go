// Package realtime carries change events from writers to subscribers.
// An event only says that a topic changed; subscribers re-read the full snapshot.
package realtime

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// Bus is an in-process change bus on a watermill go channel.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates a Bus logging through l
func NewBus(l *zap.Logger) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, NewZapAdapter(l)),
	}
}

// Publish announces a change on each topic. Failures are logged; a missed event only delays a refresh.
func (b *Bus) Publish(topics ...string) {
	for _, topic := range topics {
		msg := message.NewMessage(watermill.NewUUID(), []byte(topic))
		if err := b.pubsub.Publish(topic, msg); err != nil {
			logger.Warn("publish change event", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// Watch returns a channel that receives a signal whenever any of topics changes.
// Signals coalesce: a burst of events wakes the reader once. The channel closes when ctx ends.
func (b *Bus) Watch(ctx context.Context, topics ...string) (<-chan struct{}, error) {
	signal := make(chan struct{}, 1)
	var wg sync.WaitGroup
	for _, topic := range topics {
		messages, err := b.pubsub.Subscribe(ctx, topic)
		if err != nil {
			return nil, errors.Wrapf(err, "subscribe %s", topic)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range messages {
				msg.Ack()
				select {
				case signal <- struct{}{}:
				default:
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(signal)
	}()
	return signal, nil
}

// Close releases every subscription.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// Stream delivers load's result immediately and again after every change on topics, until ctx ends.
// The subscription is taken before the first load so no change in between is missed.
// A failed load is logged and skipped; the next change retries it.
func Stream[T any](ctx context.Context, b *Bus, load func(context.Context) (T, error), topics ...string) (<-chan T, error) {
	ctx, cancel := context.WithCancel(ctx)
	signal, err := b.Watch(ctx, topics...)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T)
	go func() {
		defer close(out)
		defer cancel()

		deliver := func() bool {
			snapshot, err := load(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("reload snapshot", zap.Strings("topics", topics), zap.Error(err))
				}
				return ctx.Err() == nil
			}
			select {
			case out <- snapshot:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !deliver() {
			return
		}
		for {
			select {
			case _, ok := <-signal:
				if !ok || !deliver() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
