package events

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "channel closed early")
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("received %d of %d events", len(got), n)
		}
	}
	sort.Slice(got, func(i, j int) bool { return got[i].Seq < got[j].Seq })
	return got
}

func TestBus_PublishSubscribe(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	bus := NewBus(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	bus.Publish(Event{Invocation: "abc", Type: CommandReceived, Data: map[string]any{"text": "open chrome"}})
	bus.Publish(Event{Invocation: "abc", Type: Classified, Data: map[string]any{"category": "OPEN_APP"}})
	bus.Publish(Event{Invocation: "abc", Type: ExecutionFinished})

	got := receive(t, ch, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{got[0].Seq, got[1].Seq, got[2].Seq})
	assert.Equal(t, CommandReceived, got[0].Type)
	assert.Equal(t, "open chrome", got[0].Data["text"])
	assert.Equal(t, "OPEN_APP", got[1].Data["category"])
	assert.False(t, got[2].Time.IsZero())

	require.NoError(t, bus.Close())
	for range ch {
	}
}

func TestBus_FanOut(t *testing.T) {
	bus := NewBus(testLogger())
	defer bus.Close()
	ctx := context.Background()

	a, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	bus.Publish(Event{Type: StepDone})

	assert.Equal(t, StepDone, receive(t, a, 1)[0].Type)
	assert.Equal(t, StepDone, receive(t, b, 1)[0].Type)
}

func TestBus_SubscriptionEndsWithContext(t *testing.T) {
	bus := NewBus(testLogger())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestDiscard(t *testing.T) {
	Discard.Publish(Event{Type: StepStarted})
}
