package midi

import "sync"

// DefaultQueueSize bounds the input queue; pushes beyond it are dropped
const DefaultQueueSize = 8192

// InputQueue buffers incoming messages between the listener goroutine and
// the tick loop. Messages come out in arrival order.
type InputQueue struct {
	mu       sync.Mutex
	messages []Message
	channel  int // -1 accepts every channel
	capacity int
	dropped  uint64
}

// NewInputQueue creates an empty queue accepting all channels
func NewInputQueue() *InputQueue {
	return &InputQueue{
		channel:  -1,
		capacity: DefaultQueueSize,
	}
}

// SetChannel restricts the queue to one channel (0-15), or -1 for all
func (q *InputQueue) SetChannel(channel int) {
	if channel < -1 || channel > 15 {
		channel = -1
	}
	q.mu.Lock()
	q.channel = channel
	q.mu.Unlock()
}

// Channel returns the channel filter (-1 = all)
func (q *InputQueue) Channel() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.channel
}

// Push appends a message. It returns false when the message was filtered
// out or the queue is full.
func (q *InputQueue) Push(msg Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel >= 0 && msg.Status() != StatusSystem && int(msg.Channel()) != q.channel {
		return false
	}
	if len(q.messages) >= q.capacity {
		q.dropped++
		return false
	}
	q.messages = append(q.messages, msg)
	return true
}

// TryPop removes the oldest message if it is due at or before frame.
// It never blocks.
func (q *InputQueue) TryPop(frame int64) (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.messages) == 0 || q.messages[0].Frame > frame {
		return Message{}, false
	}
	msg := q.messages[0]
	q.messages[0] = Message{}
	q.messages = q.messages[1:]
	if len(q.messages) == 0 {
		q.messages = nil
	}
	return msg, true
}

// Len returns the number of queued messages
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// Dropped returns how many messages were lost to a full queue
func (q *InputQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Reset discards queued messages. The channel filter is kept.
func (q *InputQueue) Reset() {
	q.mu.Lock()
	q.messages = nil
	q.mu.Unlock()
}
