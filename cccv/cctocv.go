package cccv

import (
	"go-cccv/debug"
	"go-cccv/midi"
)

const (
	// VoltageRange is the output voltage at full scale
	VoltageRange = 10

	// fullScale maps MSB=127 LSB=0 to 1.0, the largest value a 7-bit
	// controller can send, so 7-bit and 14-bit senders reach the same peak.
	fullScale = 128 * 127
)

// CCToCV turns incoming CC messages into 64 smoothed voltage outputs
type CCToCV struct {
	Input   *midi.InputQueue
	Port    midi.PortState
	Outputs [NumCells]Output

	// Smooth enables the per-channel smoothing filter
	Smooth bool
	// MPE uses the message channel as the voice index (16 channels)
	MPE bool
	// LSB pairs controllers 0-31 with 32-63 as 14-bit values
	LSB bool

	values  ValueStore
	table   Table
	filters [NumCells][NumChannels]ExponentialFilter
}

// NewCCToCV creates the module reading from q (a new queue if nil)
func NewCCToCV(q *midi.InputQueue) *CCToCV {
	if q == nil {
		q = midi.NewInputQueue()
	}
	m := &CCToCV{
		Input: q,
		Port:  midi.DefaultInputState(),
	}
	for id := range m.filters {
		for c := range m.filters[id] {
			m.filters[id][c].SetTau(SmoothingTau)
		}
	}
	m.Reset()
	return m
}

// Reset restores default bindings, zeroes the caches and flags, and drops
// queued messages. Filters keep their output.
func (m *CCToCV) Reset() {
	m.values.Reset()
	m.table.Reset()
	m.Input.Reset()
	m.Input.SetChannel(-1)
	m.Port.Channel = -1
	m.Smooth = true
	m.MPE = false
	m.LSB = false
}

// Table exposes the binding table
func (m *CCToCV) Table() *Table {
	return &m.table
}

// Values exposes the value cache
func (m *CCToCV) Values() *ValueStore {
	return &m.values
}

// FilterOut returns the current smoothed value of cell on channel c
func (m *CCToCV) FilterOut(cell, c int) float32 {
	if cell < 0 || cell >= NumCells || c < 0 || c >= NumChannels {
		return 0
	}
	return m.filters[cell][c].Out
}

// Channels returns the output channel count for the current mode
func (m *CCToCV) Channels() int {
	if m.MPE {
		return NumChannels
	}
	return 1
}

// Process drains due messages, then updates every connected output
func (m *CCToCV) Process(args ProcessArgs) {
	for {
		msg, ok := m.Input.TryPop(args.Frame)
		if !ok {
			break
		}
		m.ProcessMessage(msg)
	}

	channels := m.Channels()

	for id := range m.Outputs {
		out := &m.Outputs[id]
		if !out.Connected {
			continue
		}
		out.SetChannels(channels)

		cc := m.table.Controller(id)
		if cc < 0 {
			out.ClearVoltages()
			continue
		}

		for c := 0; c < channels; c++ {
			value := Normalize(m.values.Combined(cc, c, m.LSB))

			f := &m.filters[id][c]
			// Big jumps come from buttons; only slew continuous motion
			if m.Smooth && absf(f.Out-value) < 1 {
				f.Process(args.SampleTime, value)
			} else {
				f.Out = value
			}
			out.SetVoltage(f.Out*VoltageRange, c)
		}
	}
}

// ProcessMessage applies one message. Anything but Control Change is ignored.
func (m *CCToCV) ProcessMessage(msg midi.Message) {
	switch msg.Status() {
	case midi.StatusControlChange:
		m.processCC(msg)
	}
}

func (m *CCToCV) processCC(msg midi.Message) {
	if msg.Size() < 3 {
		return
	}
	c := 0
	if m.MPE {
		c = int(msg.Channel())
	}
	cc := int(msg.Note())
	// Keep the high bit as a sign; some drivers (gamepads) send 8-bit values
	value := int8(msg.Value())

	if _, learning := m.table.Learning(); learning && m.values.Get(cc, c) != value {
		cell := m.table.Capture(cc)
		debug.Log("learn", "cc>cv cell %d <- cc %d", cell+1, cc)
	}

	switch {
	case m.LSB && cc < lsbOffset:
		// Hold the MSB until the LSB arrives
		m.values.Stage(cc, c, value)
	case m.LSB && cc < 2*lsbOffset:
		m.values.Commit(cc, c, value)
	default:
		m.values.Set(cc, c, value)
	}
}

// Normalize maps a 14-bit scaled value to [-1, 1], saturating
func Normalize(combined int32) float32 {
	v := float32(combined) / fullScale
	return max(-1, min(v, 1))
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
