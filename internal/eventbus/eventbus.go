// Package eventbus implements the scheduler's fire-and-forget task-lifecycle
// event fan-out (spec §4.8). Grounded on nothing in the teacher itself — the
// teacher's plugin runners report status synchronously through the job
// store — but nanomsg's PUB/SUB pattern is the idiomatic Go shape for
// "publish without caring whether anyone is listening", so the bus is built
// on go.nanomsg.org/mangos/v3 over an in-process transport rather than a
// hand-rolled slice of subscriber channels.
package eventbus

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"
	_ "go.nanomsg.org/mangos/v3/transport/inproc"

	"github.com/noahpeltier/backgroundworker/internal/log"
	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

// addr is process-local; inproc sockets never leave the binary.
const addr = "inproc://backgroundworker/events"

// Bus publishes TaskEvent values to zero or more subscribers. Publish never
// blocks the caller on a slow or absent subscriber (spec §4.8 "fire and
// forget; publishing never blocks the executor").
type Bus struct {
	log log.T
	pub mangos.Socket

	mu     sync.Mutex
	closed bool
	subs   []*subscription
}

type subscription struct {
	sock mangos.Socket
	done chan struct{}
}

// New opens the publish socket and binds it to the process-local address.
func New(logger log.T) (*Bus, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("eventbus: creating pub socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		return nil, fmt.Errorf("eventbus: listening on %s: %w", addr, err)
	}
	// A zero send deadline would block forever if the kernel-side send
	// buffer fills; a short one turns a stalled subscriber into a dropped
	// message instead of a stuck executor.
	_ = sock.SetOption(mangos.OptionSendDeadline, 50*time.Millisecond)
	return &Bus{log: logger.WithContext("eventbus"), pub: sock}, nil
}

// Publish broadcasts evt to every current subscriber. Marshal or send
// failures are logged and otherwise swallowed; an event bus is a courtesy
// channel, never load-bearing for task correctness (spec §4.8).
func (b *Bus) Publish(evt contracts.TaskEvent) {
	body, err := json.Marshal(evt)
	if err != nil {
		b.log.Errorf("eventbus: marshal event for task %s: %v", evt.TaskID, err)
		return
	}
	if err := b.pub.Send(body); err != nil {
		b.log.Debugf("eventbus: dropped event for task %s: %v", evt.TaskID, err)
	}
}

// Handler receives decoded events; it must not panic — Subscribe recovers
// around each call so one misbehaving subscriber cannot take down the bus.
type Handler func(contracts.TaskEvent)

// Subscribe starts a goroutine that decodes every published event and
// invokes handler. The returned func stops that goroutine and releases its
// socket.
func (b *Bus) Subscribe(handler Handler) (unsubscribe func(), err error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("eventbus: creating sub socket: %w", err)
	}
	if err := sock.Dial(addr); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("eventbus: dialing %s: %w", addr, err)
	}
	if err := sock.SetOption(mangos.OptionSubscribe, []byte("")); err != nil {
		_ = sock.Close()
		return nil, fmt.Errorf("eventbus: subscribing: %w", err)
	}

	s := &subscription{sock: sock, done: make(chan struct{})}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	go b.loop(s, handler)

	return func() { b.remove(s) }, nil
}

func (b *Bus) loop(s *subscription, handler Handler) {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		body, err := s.sock.Recv()
		if err != nil {
			if err == mangos.ErrClosed {
				return
			}
			continue
		}

		var evt contracts.TaskEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			b.log.Debugf("eventbus: discarding malformed event: %v", err)
			continue
		}
		b.dispatch(handler, evt)
	}
}

func (b *Bus) dispatch(handler Handler, evt contracts.TaskEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("eventbus: subscriber panicked: %v", r)
		}
	}()
	handler(evt)
}

func (b *Bus) remove(s *subscription) {
	close(s.done)
	_ = s.sock.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, other := range b.subs {
		if other == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
}

// Close stops every subscriber and releases the publish socket.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := append([]*subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		b.remove(s)
	}
	_ = b.pub.Close()
}
