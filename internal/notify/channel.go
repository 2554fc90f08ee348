package notify

import (
	"context"
	"log"
	"sync"
)

// ChannelNotifier publishes events on a buffered channel. When the buffer is
// full the event is dropped.
type ChannelNotifier struct {
	mu      sync.Mutex
	ch      chan Event
	closed  bool
	dropped int
}

func NewChannelNotifier(size int) *ChannelNotifier {
	if size < 1 {
		size = 1
	}
	return &ChannelNotifier{ch: make(chan Event, size)}
}

// Events returns the receive side for subscribers.
func (n *ChannelNotifier) Events() <-chan Event {
	return n.ch
}

func (n *ChannelNotifier) Notify(_ context.Context, event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.ch <- event:
	default:
		n.dropped++
		log.Printf("WARN: notify channel full, dropped event %s (%s %s)", event.ID, event.Operation, event.Field)
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (n *ChannelNotifier) Dropped() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

// Close stops publishing and closes the channel.
func (n *ChannelNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	close(n.ch)
}
