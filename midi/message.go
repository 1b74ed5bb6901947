package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Status nibbles (high 4 bits of the status byte)
const (
	StatusNoteOff       uint8 = 0x8
	StatusNoteOn        uint8 = 0x9
	StatusControlChange uint8 = 0xB
	StatusSystem        uint8 = 0xF
)

// Message is a raw MIDI message tagged with the sample frame it belongs to
type Message struct {
	Bytes []byte
	Frame int64
}

// NewMessage copies a gomidi message and stamps it with frame
func NewMessage(msg gomidi.Message, frame int64) Message {
	b := make([]byte, len(msg))
	copy(b, msg)
	return Message{Bytes: b, Frame: frame}
}

// ControlChange builds a 3-byte CC message
func ControlChange(channel, controller, value uint8, frame int64) Message {
	return Message{
		Bytes: gomidi.ControlChange(channel&0x0F, controller&0x7F, value&0x7F),
		Frame: frame,
	}
}

// Size returns the number of bytes in the message
func (m Message) Size() int {
	return len(m.Bytes)
}

// Status returns the status nibble (0x8-0xF), or 0 for an empty message
func (m Message) Status() uint8 {
	if len(m.Bytes) == 0 {
		return 0
	}
	return m.Bytes[0] >> 4
}

// Channel returns the low nibble of the status byte
func (m Message) Channel() uint8 {
	if len(m.Bytes) == 0 {
		return 0
	}
	return m.Bytes[0] & 0x0F
}

// Note returns the first data byte (note or controller number)
func (m Message) Note() uint8 {
	if len(m.Bytes) < 2 {
		return 0
	}
	return m.Bytes[1] & 0x7F
}

// Value returns the second data byte unmasked.
// Some drivers set the high bit, so callers decide how to interpret it.
func (m Message) Value() uint8 {
	if len(m.Bytes) < 3 {
		return 0
	}
	return m.Bytes[2]
}

// WithChannel returns a copy with the channel nibble replaced.
// System messages are returned unchanged.
func (m Message) WithChannel(channel uint8) Message {
	if len(m.Bytes) == 0 || m.Status() == StatusSystem {
		return m
	}
	b := make([]byte, len(m.Bytes))
	copy(b, m.Bytes)
	b[0] = (b[0] & 0xF0) | (channel & 0x0F)
	return Message{Bytes: b, Frame: m.Frame}
}

func (m Message) String() string {
	return fmt.Sprintf("%s @%d", gomidi.Message(m.Bytes).String(), m.Frame)
}
