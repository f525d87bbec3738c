// Package events delivers high priority task notifications to the listeners
// registered at startup.
package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Action string

const (
	ActionCreated Action = "Created"
	ActionUpdated Action = "Updated"
)

type HighPriorityTaskChanged struct {
	TaskID int64
	Title  string
	UserID int64
	Action Action
}

type Listener interface {
	HandleHighPriorityTaskChanged(ctx context.Context, event HighPriorityTaskChanged) error
}

type ListenerFunc func(ctx context.Context, event HighPriorityTaskChanged) error

func (f ListenerFunc) HandleHighPriorityTaskChanged(ctx context.Context, event HighPriorityTaskChanged) error {
	return f(ctx, event)
}

// Broadcaster calls every listener synchronously, in registration order.
//
// The listener list is fixed at construction, so Publish takes no lock.
// A listener that fails or panics is logged and skipped; the publisher
// never sees the failure.
type Broadcaster struct {
	logger    zerolog.Logger
	listeners []Listener
}

func NewBroadcaster(logger zerolog.Logger, listeners ...Listener) *Broadcaster {
	return &Broadcaster{
		logger:    logger,
		listeners: append([]Listener(nil), listeners...),
	}
}

func (b *Broadcaster) Publish(ctx context.Context, event HighPriorityTaskChanged) {
	for i, l := range b.listeners {
		err := b.notify(ctx, l, event)
		if err != nil {
			b.logger.Error().
				Err(err).
				Int("listener", i).
				Int64("task_id", event.TaskID).
				Str("action", string(event.Action)).
				Msg("event listener failed")
		}
	}
}

func (b *Broadcaster) notify(ctx context.Context, l Listener, event HighPriorityTaskChanged) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return l.HandleHighPriorityTaskChanged(ctx, event)
}

// NewLogListener writes one critical line per event.
func NewLogListener(logger zerolog.Logger) Listener {
	return ListenerFunc(func(_ context.Context, event HighPriorityTaskChanged) error {
		logger.Error().
			Str("severity", "critical").
			Str("action", string(event.Action)).
			Int64("task_id", event.TaskID).
			Str("title", event.Title).
			Int64("user_id", event.UserID).
			Msg("high priority task changed")
		return nil
	})
}
