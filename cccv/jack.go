package cccv

// ProcessArgs describes one audio frame
type ProcessArgs struct {
	SampleRate float32
	SampleTime float32 // 1/SampleRate
	Frame      int64
}

// NewProcessArgs builds the args for frame at sampleRate
func NewProcessArgs(sampleRate float32, frame int64) ProcessArgs {
	return ProcessArgs{SampleRate: sampleRate, SampleTime: 1 / sampleRate, Frame: frame}
}

// Output is a polyphonic voltage output (up to 16 channels)
type Output struct {
	Connected bool
	channels  int
	voltages  [NumChannels]float32
}

// SetChannels sets the active channel count, clamped to [0,16].
// Channels beyond the new count are zeroed.
func (o *Output) SetChannels(n int) {
	n = max(0, min(n, NumChannels))
	for c := n; c < NumChannels; c++ {
		o.voltages[c] = 0
	}
	o.channels = n
}

// Channels returns the active channel count
func (o *Output) Channels() int {
	return o.channels
}

// SetVoltage sets the voltage of channel c
func (o *Output) SetVoltage(v float32, c int) {
	if c >= 0 && c < NumChannels {
		o.voltages[c] = v
	}
}

// Voltage returns the voltage of channel c
func (o *Output) Voltage(c int) float32 {
	if c < 0 || c >= NumChannels {
		return 0
	}
	return o.voltages[c]
}

// ClearVoltages zeroes every channel
func (o *Output) ClearVoltages() {
	o.voltages = [NumChannels]float32{}
}

// Input is a voltage input; only channel 0 is sampled
type Input struct {
	Connected bool
	voltage   float32
}

// SetVoltage sets the input voltage
func (in *Input) SetVoltage(v float32) {
	in.voltage = v
}

// Voltage returns the input voltage (0 when disconnected)
func (in *Input) Voltage() float32 {
	if !in.Connected {
		return 0
	}
	return in.voltage
}
