package message

import "sync"

var _ Queue = (*inMemoryQueue)(nil)

type inMemoryQueue struct {
	mu         sync.Mutex
	msgs       []Message
	latchedMsg Message
}

// NewInMemoryQueue returns a queue that is safe for concurrent Enqueue
// calls. The iterator it hands out must only be used by one goroutine.
// Messages are delivered in no particular order.
func NewInMemoryQueue() Queue {
	return new(inMemoryQueue)
}

// NewInMemoryQueueFactory returns a QueueFactory for in-memory queues.
func NewInMemoryQueueFactory() QueueFactory {
	return NewInMemoryQueue
}

func (q *inMemoryQueue) Enqueue(msg Message) error {
	q.mu.Lock()
	q.msgs = append(q.msgs, msg)
	q.mu.Unlock()
	return nil
}

func (q *inMemoryQueue) PendingMessages() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs) != 0
}

func (q *inMemoryQueue) DiscardMessages() error {
	q.mu.Lock()
	q.msgs = q.msgs[:0]
	q.latchedMsg = nil
	q.mu.Unlock()
	return nil
}

func (*inMemoryQueue) Close() error { return nil }

func (q *inMemoryQueue) Messages() Iterator {
	return q
}

func (q *inMemoryQueue) Next() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.msgs)
	if n == 0 {
		return false
	}

	// Pop from the tail.
	q.latchedMsg = q.msgs[n-1]
	q.msgs[n-1] = nil
	q.msgs = q.msgs[:n-1]
	return true
}

func (q *inMemoryQueue) Message() Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.latchedMsg
}

func (*inMemoryQueue) Error() error { return nil }
