// Package jsonnotifier delivers events as JSON lines on a background goroutine.
package jsonnotifier

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/user/framescope/pkg/events"
	"github.com/user/framescope/pkg/ports"
)

// DefaultBuffer is the initial queue capacity used when New is given a non-positive size.
const DefaultBuffer = 256

// Notifier implements ports.Notifier. Notify never blocks and never drops:
// events wait in an unbounded FIFO until the writer goroutine drains them.
type Notifier struct {
	enc    *json.Encoder
	logger ports.Logger

	mu      sync.Mutex
	ready   *sync.Cond
	pending []events.Event
	closed  bool

	done chan struct{}
}

// New starts a notifier writing one {"event":..,"data":..} object per line to w.
// buffer only sizes the initial queue; the queue grows as needed.
func New(w io.Writer, buffer int, logger ports.Logger) *Notifier {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	n := &Notifier{
		enc:     json.NewEncoder(w),
		logger:  logger.WithComponent("notifier"),
		pending: make([]events.Event, 0, buffer),
		done:    make(chan struct{}),
	}
	n.ready = sync.NewCond(&n.mu)
	go n.run()
	return n
}

// Notify queues ev for delivery. Events sent after Close are discarded.
func (n *Notifier) Notify(ev events.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.logger.Warn("Notifier closed, discarded %s event", ev.Tag())
		return
	}
	n.pending = append(n.pending, ev)
	n.ready.Signal()
}

// Pending returns the number of events not yet handed to the writer.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

// Close delivers queued events and stops the writer goroutine.
func (n *Notifier) Close() error {
	n.mu.Lock()
	n.closed = true
	n.ready.Broadcast()
	n.mu.Unlock()
	<-n.done
	return nil
}

func (n *Notifier) run() {
	defer close(n.done)
	for {
		n.mu.Lock()
		for len(n.pending) == 0 && !n.closed {
			n.ready.Wait()
		}
		batch := n.pending
		n.pending = nil
		closed := n.closed
		n.mu.Unlock()

		for _, ev := range batch {
			if err := n.enc.Encode(events.Wrap(ev)); err != nil {
				n.logger.Error("Failed to write event: %v", err)
			}
		}
		if closed && len(batch) == 0 {
			return
		}
	}
}

var _ ports.Notifier = (*Notifier)(nil)
