package cccv

import "testing"

func TestExponentialFilter(t *testing.T) {
	t.Run("ApproachesInput", func(t *testing.T) {
		var f ExponentialFilter
		f.SetTau(SmoothingTau)
		dt := float32(1.0 / 48000)

		prev := f.Out
		for i := 0; i < 100; i++ {
			out := f.Process(dt, 1)
			if out <= prev {
				t.Fatalf("step %d: expected increase, got %f after %f", i, out, prev)
			}
			if out >= 1 {
				t.Fatalf("step %d: overshot to %f", i, out)
			}
			prev = out
		}
	})

	t.Run("Converges", func(t *testing.T) {
		var f ExponentialFilter
		f.SetTau(SmoothingTau)
		dt := float32(1.0 / 48000)
		// Ten seconds is hundreds of time constants
		for i := 0; i < 480000; i++ {
			f.Process(dt, 0.5)
		}
		if f.Out != 0.5 {
			t.Errorf("expected exact convergence to 0.5, got %v", f.Out)
		}
	})

	t.Run("ZeroTauSnaps", func(t *testing.T) {
		var f ExponentialFilter
		f.SetTau(0)
		f.Reset(0.25)
		// A step of zero snaps, so the output jumps to the input
		if out := f.Process(0.001, 0.75); out != 0.75 {
			t.Errorf("expected snap to 0.75, got %v", out)
		}
	})
}

func TestTimerGate(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		seconds    float64
	}{
		{"44.1k", 44100, 1},
		{"48k", 48000, 2},
		{"96k", 96000, 0.5},
		{"1k", 1000, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tm Timer
			dt := float32(1 / tt.sampleRate)
			ticks := int(tt.sampleRate * tt.seconds)
			passes := 0
			for i := 0; i < ticks; i++ {
				if tm.Gate(dt, RateLimitPeriod) {
					passes++
				}
			}
			want := int(tt.seconds / RateLimitPeriod)
			if passes < want-1 || passes > want+1 {
				t.Errorf("expected %d±1 passes, got %d", want, passes)
			}
		})
	}

	t.Run("CarriesOvershoot", func(t *testing.T) {
		var tm Timer
		if !tm.Gate(0.007, RateLimitPeriod) {
			t.Fatal("expected gate to open")
		}
		// 0.002 carried over, so 0.003 more opens it again
		if !tm.Gate(0.0031, RateLimitPeriod) {
			t.Error("expected overshoot to carry into next period")
		}
	})
}
