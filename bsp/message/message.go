/*
	Per-vertex message queues used to exchange values between supersteps.
*/
package message

// Message is a value exchanged between vertices.
type Message interface {
	Type() string
}

// Queue buffers messages addressed to a single vertex.
type Queue interface {
	Close() error
	Enqueue(msg Message) error
	PendingMessages() bool  // reports whether the queue holds undelivered messages
	DiscardMessages() error // drops every pending message
	Messages() Iterator
}

// Iterator walks over the messages of a Queue.
type Iterator interface {
	// Next advances the iterator. It returns false once the messages are
	// exhausted or an error occurred.
	Next() bool
	Message() Message
	Error() error
}

// QueueFactory creates empty queues.
type QueueFactory func() Queue
