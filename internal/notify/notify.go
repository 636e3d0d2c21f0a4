// Package notify delivers committed gift events to the live feed and to the
// audit queue. Every publisher here is fire-and-forget for its caller: the
// allocation engine logs a failed publish and moves on.
package notify

import (
	"context"
	"errors"

	"github.com/rouemaroc/spinwheel/internal/domain"
)

// Sink is where events end up for connected clients.
type Sink interface {
	Broadcast(event domain.Event)
}

type Nop struct{}

func (Nop) Publish(context.Context, domain.Event) error { return nil }

// Local hands events straight to an in-process sink. It is used when no Redis
// is reachable, which only works with a single API instance.
type Local struct {
	sink Sink
}

func NewLocal(sink Sink) *Local {
	return &Local{sink: sink}
}

func (l *Local) Publish(_ context.Context, event domain.Event) error {
	l.sink.Broadcast(event)
	return nil
}

type publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Fanout publishes every event to all of its publishers and joins their
// errors.
type Fanout []publisher

func (f Fanout) Publish(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
