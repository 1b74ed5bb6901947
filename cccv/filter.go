package cccv

// SmoothingTau is the time constant of the CC smoothing filter, in seconds
const SmoothingTau = 1 / 30.0

// ExponentialFilter is a one-pole lowpass: Out moves toward the input at
// rate Lambda (1/tau) per second.
type ExponentialFilter struct {
	Out    float32
	Lambda float32
}

// SetTau sets the time constant in seconds
func (f *ExponentialFilter) SetTau(tau float32) {
	if tau <= 0 {
		f.Lambda = 0
		return
	}
	f.Lambda = 1 / tau
}

// Process advances the filter by dt seconds toward in and returns Out.
// When the step is too small to change Out at float32 precision, Out snaps
// to in so the filter always converges.
func (f *ExponentialFilter) Process(dt, in float32) float32 {
	y := f.Out + (in-f.Out)*f.Lambda*dt
	if y == f.Out {
		y = in
	}
	f.Out = y
	return f.Out
}

// Reset sets Out without filtering
func (f *ExponentialFilter) Reset(v float32) {
	f.Out = v
}
