package midi

import (
	"sync"
	"testing"
)

func cc(ch, num, val uint8, frame int64) Message {
	return Message{Bytes: []byte{0xB0 | ch, num, val}, Frame: frame}
}

func TestInputQueue(t *testing.T) {
	q := NewInputQueue()

	if _, ok := q.TryPop(100); ok {
		t.Error("expected empty queue")
	}

	q.Push(cc(0, 1, 10, 0))
	q.Push(cc(0, 1, 20, 0))
	q.Push(cc(0, 1, 30, 8))

	if q.Len() != 3 {
		t.Fatalf("expected 3 messages, got %d", q.Len())
	}

	for _, want := range []uint8{10, 20} {
		msg, ok := q.TryPop(0)
		if !ok || msg.Value() != want {
			t.Errorf("expected value %d, got %d (%v)", want, msg.Value(), ok)
		}
	}
	if _, ok := q.TryPop(7); ok {
		t.Error("message for frame 8 popped at frame 7")
	}
	if msg, ok := q.TryPop(8); !ok || msg.Value() != 30 {
		t.Errorf("expected value 30 at frame 8, got %d (%v)", msg.Value(), ok)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestInputQueueChannelFilter(t *testing.T) {
	q := NewInputQueue()
	q.SetChannel(4)

	if q.Push(cc(3, 1, 1, 0)) {
		t.Error("channel 3 accepted by channel 4 filter")
	}
	if !q.Push(cc(4, 1, 1, 0)) {
		t.Error("channel 4 rejected")
	}
	// System messages have no channel and always pass
	if !q.Push(Message{Bytes: []byte{0xF8}}) {
		t.Error("clock rejected")
	}

	q.SetChannel(42)
	if q.Channel() != -1 {
		t.Errorf("invalid channel should reset filter, got %d", q.Channel())
	}
}

func TestInputQueueCapacity(t *testing.T) {
	q := NewInputQueue()
	for i := 0; i < DefaultQueueSize+10; i++ {
		q.Push(cc(0, 1, uint8(i&0x7F), 0))
	}
	if q.Len() != DefaultQueueSize {
		t.Errorf("expected %d messages, got %d", DefaultQueueSize, q.Len())
	}
	if q.Dropped() != 10 {
		t.Errorf("expected 10 dropped, got %d", q.Dropped())
	}

	q.Reset()
	if q.Len() != 0 {
		t.Error("expected empty queue after reset")
	}
}

func TestInputQueueConcurrentPush(t *testing.T) {
	q := NewInputQueue()
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				q.Push(cc(0, 2, 3, 0))
			}
		}()
	}

	popped := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		if _, ok := q.TryPop(0); ok {
			popped++
			continue
		}
		select {
		case <-done:
			for {
				if _, ok := q.TryPop(0); !ok {
					break
				}
				popped++
			}
			if popped != 2000 {
				t.Errorf("expected 2000 messages, got %d", popped)
			}
			return
		default:
		}
	}
}
