package host

import (
	"encoding/json"
	"math"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-cccv/cccv"
	"go-cccv/midi"
)

const testRate = 48000

type sent struct {
	ch, cc, val uint8
}

func newTestHost(t *testing.T) (*Host, *[]sent) {
	t.Helper()
	h := New(testRate, 256)
	var got []sent
	h.Output().SetSend(func(msg gomidi.Message) error {
		var s sent
		if msg.GetControlChange(&s.ch, &s.cc, &s.val) {
			got = append(got, s)
		}
		return nil
	})
	return h, &got
}

func push(h *Host, cc, val uint8) {
	h.Input().Push(midi.ControlChange(0, cc, val, h.Frame()))
}

func TestDefaults(t *testing.T) {
	h := New(0, 0)
	if h.SampleRate() != 48000 || h.blockSize != 256 {
		t.Errorf("defaults = %v Hz, block %d", h.SampleRate(), h.blockSize)
	}
	s := h.Snapshot()
	if !s.Patched || !s.Smooth || s.MPE || s.LSB {
		t.Errorf("flags = %+v", s)
	}
	if s.InLearning != cccv.NoLearn || s.OutLearning != cccv.NoLearn {
		t.Errorf("learning = %d/%d, want none", s.InLearning, s.OutLearning)
	}
	for i := 0; i < cccv.NumCells; i++ {
		if s.InCCs[i] != i || s.OutCCs[i] != i {
			t.Fatalf("cell %d bound to %d/%d", i, s.InCCs[i], s.OutCCs[i])
		}
	}
}

func TestProcessFramesAdvances(t *testing.T) {
	h := New(testRate, 256)
	h.ProcessFrames(100)
	h.ProcessFrames(28)
	if got := h.Frame(); got != 128 {
		t.Errorf("Frame() = %d, want 128", got)
	}
}

func TestCCThroughToVoltage(t *testing.T) {
	h, _ := newTestHost(t)
	h.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) { in.Smooth = false })

	push(h, 5, 127)
	h.ProcessFrames(1)

	s := h.Snapshot()
	if math.Abs(float64(s.Voltages[5]-10)) > 1e-4 {
		t.Errorf("cell 5 = %v V, want 10", s.Voltages[5])
	}
	if s.Voltages[4] != 0 {
		t.Errorf("cell 4 = %v V, want 0", s.Voltages[4])
	}
}

// A CC sent in comes back out on the patched CV>CC side
func TestPatchedLoop(t *testing.T) {
	h, got := newTestHost(t)
	h.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) { in.Smooth = false })

	// two rate-limit periods so the first pass has run
	h.ProcessFrames(testRate / 50)
	*got = nil

	push(h, 7, 100)
	h.ProcessFrames(testRate / 50)

	if len(*got) != 1 {
		t.Fatalf("sent %v, want one message", *got)
	}
	if (*got)[0] != (sent{0, 7, 100}) {
		t.Errorf("sent %+v, want cc 7 = 100 on ch 0", (*got)[0])
	}
	if s := h.Snapshot(); s.LastSent[7] != 100 {
		t.Errorf("LastSent[7] = %d, want 100", s.LastSent[7])
	}
}

func TestUnpatched(t *testing.T) {
	h, got := newTestHost(t)
	h.SetPatched(false)
	h.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) { in.Smooth = false })

	h.ProcessFrames(testRate / 50)
	*got = nil
	push(h, 7, 100)
	h.ProcessFrames(testRate / 50)

	if len(*got) != 0 {
		t.Errorf("sent %v while unpatched", *got)
	}
	if s := h.Snapshot(); s.Patched {
		t.Error("snapshot reports patched")
	}
}

func TestSnapshotLearning(t *testing.T) {
	h := New(testRate, 256)
	h.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
		in.Table().BeginLearn(3)
		out.BeginLearn(9)
	})
	s := h.Snapshot()
	if s.InLearning != 3 || s.OutLearning != 9 {
		t.Errorf("learning = %d/%d, want 3/9", s.InLearning, s.OutLearning)
	}
}

func TestStateRoundTrip(t *testing.T) {
	a := New(testRate, 256)
	a.SetPatched(false)
	a.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
		in.Table().Assign(0, 74)
		in.MPE = true
		out.Table().Assign(2, 1)
	})

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	b := New(44100, 256)
	if err := json.Unmarshal(data, b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	s := b.Snapshot()
	if s.InCCs[0] != 74 || !s.MPE || s.OutCCs[2] != 1 || s.Patched {
		t.Errorf("restored %+v", s)
	}
	if b.SampleRate() != 44100 {
		t.Errorf("sample rate changed to %v", b.SampleRate())
	}
}

func TestStateTolerant(t *testing.T) {
	h := New(testRate, 256)
	if err := json.Unmarshal([]byte(`{"cctocv": 5, "cvtocc": {"ccs": [3]}}`), h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	s := h.Snapshot()
	if s.OutCCs[0] != 3 || s.OutCCs[3] != cccv.Unbound {
		t.Errorf("out bindings = %v %v", s.OutCCs[0], s.OutCCs[3])
	}
	if !s.Patched {
		t.Error("missing patched key should keep the default")
	}

	if err := json.Unmarshal([]byte(`[1,2]`), h); err == nil {
		t.Error("expected error for non-object state")
	}
}

func TestReset(t *testing.T) {
	h := New(testRate, 256)
	h.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
		in.Table().Assign(0, 100)
		in.LSB = true
		out.Table().Assign(0, 100)
	})
	h.Reset()
	s := h.Snapshot()
	if s.InCCs[0] != 0 || s.OutCCs[0] != 0 || s.LSB {
		t.Errorf("after reset %+v", s)
	}
}
