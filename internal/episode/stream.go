package episode

import "sync"

// queue is an unbounded in-order event buffer between the episode goroutine
// and its consumer. Pushes never block, so a slow consumer delays delivery
// instead of dropping events. Consumers must drain Events() until it closes,
// even after they stop caring about the episode.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []Event
	closed bool
	out    chan Event
}

func newQueue() *queue {
	q := &queue{out: make(chan Event)}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

// Push appends an event. Pushing after Close is a no-op.
func (q *queue) Push(e Event) {
	q.mu.Lock()
	if !q.closed {
		q.buf = append(q.buf, e)
		q.cond.Signal()
	}
	q.mu.Unlock()
}

// Close marks the stream complete. Buffered events are still delivered
// before the output channel closes.
func (q *queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
}

// Events returns the delivery channel. It closes once the queue is closed
// and drained.
func (q *queue) Events() <-chan Event {
	return q.out
}

func (q *queue) pump() {
	for {
		q.mu.Lock()
		for len(q.buf) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.buf) == 0 {
			q.mu.Unlock()
			close(q.out)
			return
		}
		e := q.buf[0]
		q.buf = q.buf[1:]
		q.mu.Unlock()

		q.out <- e
	}
}
