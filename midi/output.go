package midi

import (
	"sync"

	"go-cccv/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// SendFunc delivers a message to a port, as returned by gomidi.SendTo
type SendFunc func(msg gomidi.Message) error

// Output is the outbound side of a port. Send is fire-and-forget: with no
// port attached, or on a driver error, the message is counted and dropped.
type Output struct {
	mu      sync.RWMutex
	send    SendFunc
	channel int // -1 keeps the message's own channel
	sent    uint64
	dropped uint64
}

// NewOutput creates an output with no port attached, sending on channel 0
func NewOutput() *Output {
	return &Output{}
}

// SetSend attaches (or with nil, detaches) a port
func (o *Output) SetSend(send SendFunc) {
	o.mu.Lock()
	o.send = send
	o.mu.Unlock()
}

// Connected reports whether a port is attached
func (o *Output) Connected() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.send != nil
}

// SetChannel sets the channel every message is rewritten to, or -1
func (o *Output) SetChannel(channel int) {
	if channel < -1 || channel > 15 {
		channel = 0
	}
	o.mu.Lock()
	o.channel = channel
	o.mu.Unlock()
}

// Channel returns the output channel (-1 = unchanged)
func (o *Output) Channel() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.channel
}

// Send delivers msg to the attached port
func (o *Output) Send(msg Message) {
	o.mu.Lock()
	send := o.send
	channel := o.channel
	if send == nil {
		o.dropped++
		o.mu.Unlock()
		return
	}
	o.sent++
	o.mu.Unlock()

	if channel >= 0 {
		msg = msg.WithChannel(uint8(channel))
	}
	if err := send(gomidi.Message(msg.Bytes)); err != nil {
		debug.Log("midi-out", "send %s: %v", msg, err)
	}
}

// Stats returns sent and dropped message counts
func (o *Output) Stats() (sent, dropped uint64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sent, o.dropped
}
