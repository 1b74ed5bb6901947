package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-cccv/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// DriverName identifies the driver registered by the binaries (rtmididrv)
const DriverName = "rtmidi"

// ErrTimeout is returned when the driver does not answer a port scan in time
var ErrTimeout = errors.New("midi driver did not respond")

// PortState is the persisted transport sub-state of a module
type PortState struct {
	Driver     string `json:"driver,omitempty"`
	DeviceName string `json:"deviceName,omitempty"`
	Channel    int    `json:"channel"`
}

// DefaultInputState accepts every channel
func DefaultInputState() PortState {
	return PortState{Driver: DriverName, Channel: -1}
}

// DefaultOutputState sends on channel 0
func DefaultOutputState() PortState {
	return PortState{Driver: DriverName, Channel: 0}
}

// Ports is a snapshot of the available port names
type Ports struct {
	Ins  []string
	Outs []string
}

// ListPorts queries the driver, giving up after timeout (CoreMIDI can hang)
func ListPorts(timeout time.Duration) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		var p Ports
		for _, in := range gomidi.GetInPorts() {
			p.Ins = append(p.Ins, in.String())
		}
		for _, out := range gomidi.GetOutPorts() {
			p.Outs = append(p.Outs, out.String())
		}
		ch <- p
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(timeout):
		return Ports{}, ErrTimeout
	}
}

// MatchPort picks the port for a configured name: an exact match wins,
// then the first case-insensitive substring match. Returns -1 if none.
func MatchPort(names []string, want string) int {
	if want == "" {
		return -1
	}
	for i, n := range names {
		if n == want {
			return i
		}
	}
	lw := strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), lw) {
			return i
		}
	}
	return -1
}

// FrameFunc reports the sample frame a message arriving now belongs to
type FrameFunc func() int64

// ListenInto listens on in and pushes every message into q, stamped with
// the current frame
func ListenInto(in drivers.In, q *InputQueue, frame FrameFunc) (stop func(), err error) {
	stop, err = gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		m := NewMessage(msg, frame())
		if !q.Push(m) {
			debug.LogEvery(100, "midi-in", "dropped %s", m)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("listen to %q: %w", in.String(), err)
	}
	return stop, nil
}

// OpenSend opens an output port for sending
func OpenSend(out drivers.Out) (SendFunc, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", out.String(), err)
	}
	return send, nil
}
