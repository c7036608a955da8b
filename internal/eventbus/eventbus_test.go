package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noahpeltier/backgroundworker/internal/log"
	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

func TestPublish_deliversToSubscriber(t *testing.T) {
	bus, err := New(log.NewMockLog())
	require.NoError(t, err)
	defer bus.Close()

	received := make(chan contracts.TaskEvent, 1)
	unsub, err := bus.Subscribe(func(evt contracts.TaskEvent) {
		received <- evt
	})
	require.NoError(t, err)
	defer unsub()

	// Allow the dial/subscribe handshake to settle before the first publish.
	time.Sleep(20 * time.Millisecond)
	bus.Publish(contracts.TaskEvent{TaskID: "t1", Kind: contracts.EventStarted})

	select {
	case evt := <-received:
		assert.Equal(t, "t1", evt.TaskID)
		assert.Equal(t, contracts.EventStarted, evt.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublish_withoutSubscriberDoesNotBlock(t *testing.T) {
	bus, err := New(log.NewMockLog())
	require.NoError(t, err)
	defer bus.Close()

	done := make(chan struct{})
	go func() {
		bus.Publish(contracts.TaskEvent{TaskID: "lonely"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscriber")
	}
}

func TestSubscribe_panicRecoveredAndBusStaysAlive(t *testing.T) {
	bus, err := New(log.NewMockLog())
	require.NoError(t, err)
	defer bus.Close()

	calls := make(chan struct{}, 2)
	unsub, err := bus.Subscribe(func(evt contracts.TaskEvent) {
		calls <- struct{}{}
		panic("boom")
	})
	require.NoError(t, err)
	defer unsub()

	time.Sleep(20 * time.Millisecond)
	bus.Publish(contracts.TaskEvent{TaskID: "a"})
	bus.Publish(contracts.TaskEvent{TaskID: "b"})

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("handler not invoked after prior panic")
		}
	}
}
