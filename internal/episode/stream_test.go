package episode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDeliversInOrder(t *testing.T) {
	q := newQueue()
	const n = 1000

	// Push everything before reading anything: a stalled consumer must not
	// lose events.
	for i := 0; i < n; i++ {
		q.Push(Event{Type: EventPartial, Text: string(rune('a' + i%26))})
	}
	q.Close()

	var got []Event
	for e := range q.Events() {
		got = append(got, e)
	}
	require.Len(t, got, n)
	for i, e := range got {
		assert.Equal(t, string(rune('a'+i%26)), e.Text)
	}
}

func TestQueueCloseUnblocksConsumer(t *testing.T) {
	q := newQueue()

	done := make(chan struct{})
	go func() {
		for range q.Events() {
		}
		close(done)
	}()

	q.Push(Event{Type: EventComplete})
	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer not unblocked after close")
	}
}

func TestQueuePushAfterCloseIsNoop(t *testing.T) {
	q := newQueue()
	q.Close()
	q.Push(Event{Type: EventPartial})

	_, ok := <-q.Events()
	assert.False(t, ok)
}
