// Package events carries pipeline progress from the worker goroutine to
// observers (CLI transcript, SSE clients) over an in-process pub/sub.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Topic is the single pub/sub topic all pipeline events go to.
const Topic = "deskpilot.events"

// Type names an event kind.
type Type string

const (
	CommandReceived   Type = "command.received"
	Classified        Type = "command.classified"
	SlotsExtracted    Type = "slots.extracted"
	PlanReady         Type = "plan.ready"
	StepStarted       Type = "step.started"
	StepDone          Type = "step.done"
	StepSkipped       Type = "step.skipped"
	ExecutionFinished Type = "execution.finished"
	MessagingState    Type = "messaging.state"
	Listening         Type = "voice.listening"
	Rejected          Type = "command.rejected"
)

// Event is one progress notification. Seq is assigned on publish and is
// strictly increasing per bus; delivery order is not guaranteed.
type Event struct {
	Seq        uint64         `json:"seq"`
	Invocation string         `json:"invocation,omitempty"`
	Type       Type           `json:"type"`
	Time       time.Time      `json:"time"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher accepts events. Publishing never fails the caller.
type Publisher interface {
	Publish(ev Event)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Bus is a watermill gochannel pub/sub specialised to Event.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger
	seq    atomic.Uint64
}

// NewBus creates an in-process event bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(logger),
		),
		logger: logger,
	}
}

// Publish stamps and sends ev to all current subscribers. Events published
// with no subscriber are dropped.
func (b *Bus) Publish(ev Event) {
	ev.Seq = b.seq.Add(1)
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("events: marshaling event", "type", ev.Type, "err", err)
		return
	}
	if err := b.pubSub.Publish(Topic, message.NewMessage(uuid.NewString(), payload)); err != nil {
		b.logger.Warn("events: publish failed", "type", ev.Type, "err", err)
	}
}

// Subscribe returns a channel of events that is closed when ctx is done or
// the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	msgs, err := b.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, 64)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev Event
			err := json.Unmarshal(msg.Payload, &ev)
			msg.Ack()
			if err != nil {
				b.logger.Warn("events: dropping undecodable message", "uuid", msg.UUID, "err", err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// Close shuts down the bus and closes every subscription.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

type invocationKey struct{}

// WithInvocation tags ctx with an invocation ID for events published under it.
func WithInvocation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

// InvocationFrom returns the invocation ID carried by ctx, or "".
func InvocationFrom(ctx context.Context) string {
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}
