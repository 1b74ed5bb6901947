package cccv

import (
	"math"

	"go-cccv/debug"
	"go-cccv/midi"
)

const unsent = -1

// CCOutput sends CC values only when they change
type CCOutput struct {
	Port  *midi.Output
	last  [NumControllers]int16
	frame int64
}

// NewCCOutput wraps port (a new detached output if nil)
func NewCCOutput(port *midi.Output) *CCOutput {
	if port == nil {
		port = midi.NewOutput()
	}
	o := &CCOutput{Port: port}
	o.Reset()
	return o
}

// Reset forgets what was sent, so every controller is sent again
func (o *CCOutput) Reset() {
	for i := range o.last {
		o.last[i] = unsent
	}
	o.frame = -1
}

// SetFrame sets the frame stamped on outgoing messages
func (o *CCOutput) SetFrame(frame int64) {
	o.frame = frame
}

// SetValue sends CC cc=value on channel 0 unless it equals the last value
// sent for cc. It reports whether a message went out.
func (o *CCOutput) SetValue(value, cc uint8) bool {
	if cc >= NumControllers {
		return false
	}
	if o.last[cc] == int16(value) {
		return false
	}
	o.last[cc] = int16(value)
	o.Port.Send(midi.ControlChange(0, cc, value, o.frame))
	return true
}

// Last returns the last value sent for cc, or -1
func (o *CCOutput) Last(cc int) int {
	if cc < 0 || cc >= NumControllers {
		return unsent
	}
	return int(o.last[cc])
}

// CVToCC samples 64 voltage inputs and emits CC messages at most
// 200 times a second
type CVToCC struct {
	Inputs [NumCells]Input
	Output *CCOutput
	Port   midi.PortState

	table  Table
	timer  Timer
	passes uint64
}

// NewCVToCC creates the module sending through port (detached if nil)
func NewCVToCC(port *midi.Output) *CVToCC {
	m := &CVToCC{
		Output: NewCCOutput(port),
		Port:   midi.DefaultOutputState(),
	}
	m.Reset()
	return m
}

// Reset restores default bindings and forgets sent values
func (m *CVToCC) Reset() {
	m.table.Reset()
	m.Output.Reset()
	m.Output.Port.SetChannel(0)
	m.Port.Channel = 0
}

// Table exposes the binding table
func (m *CVToCC) Table() *Table {
	return &m.table
}

// Passes returns how many encode passes have run
func (m *CVToCC) Passes() uint64 {
	return m.passes
}

// BeginLearn starts learning for cell; the binding comes from Enter
func (m *CVToCC) BeginLearn(cell int) {
	m.table.BeginLearn(cell)
}

// Enter completes a learn with a typed controller number (or Unbound).
// It returns the cell that was bound, or -1 when nothing was learning.
func (m *CVToCC) Enter(cc int) int {
	if cc < Unbound || cc >= NumControllers {
		return -1
	}
	cell := m.table.Capture(cc)
	if cell >= 0 {
		debug.Log("learn", "cv>cc cell %d <- cc %d", cell+1, cc)
	}
	return cell
}

// Process runs one encode pass when the rate limiter allows it
func (m *CVToCC) Process(args ProcessArgs) {
	if !m.timer.Gate(args.SampleTime, RateLimitPeriod) {
		return
	}
	m.passes++

	m.Output.SetFrame(args.Frame)

	for id := range m.Inputs {
		cc := m.table.Controller(id)
		if cc < 0 {
			continue
		}
		m.Output.SetValue(Quantize(m.Inputs[id].Voltage()), uint8(cc))
	}
}

// Quantize maps 0-10V to a 7-bit CC value, rounding and saturating.
// NaN maps to 0.
func Quantize(v float32) uint8 {
	x := math.Round(float64(v) / VoltageRange * 127)
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 127 {
		return 127
	}
	return uint8(x)
}
