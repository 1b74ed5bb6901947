package midi

import (
	"errors"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestOutput(t *testing.T) {
	o := NewOutput()
	o.Send(ControlChange(0, 1, 1, 0))
	if sent, dropped := o.Stats(); sent != 0 || dropped != 1 {
		t.Errorf("detached output: sent=%d dropped=%d", sent, dropped)
	}

	var got []gomidi.Message
	o.SetSend(func(msg gomidi.Message) error {
		got = append(got, msg)
		return nil
	})
	if !o.Connected() {
		t.Error("expected connected output")
	}

	o.Send(ControlChange(3, 10, 20, 0))
	if len(got) != 1 || got[0][0] != 0xB0 {
		t.Fatalf("expected channel 0 rewrite, got %v", got)
	}

	o.SetChannel(-1)
	o.Send(ControlChange(3, 10, 20, 0))
	if got[1][0] != 0xB3 {
		t.Errorf("expected channel kept with -1, got %#x", got[1][0])
	}

	o.SetSend(func(gomidi.Message) error { return errors.New("port gone") })
	o.Send(ControlChange(0, 1, 1, 0))
	if sent, _ := o.Stats(); sent != 3 {
		t.Errorf("expected 3 sent, got %d", sent)
	}

	o.SetSend(nil)
	if o.Connected() {
		t.Error("expected detached output")
	}
}

func TestMatchPort(t *testing.T) {
	names := []string{"Midi Through Port-0", "nanoKONTROL2 MIDI 1", "nanoKONTROL2"}
	tests := []struct {
		want string
		idx  int
	}{
		{"nanoKONTROL2", 2},
		{"nanokontrol2 midi", 1},
		{"through", 0},
		{"launchpad", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := MatchPort(names, tt.want); got != tt.idx {
			t.Errorf("MatchPort(%q): expected %d, got %d", tt.want, tt.idx, got)
		}
	}
}

func TestDefaultPortStates(t *testing.T) {
	if s := DefaultInputState(); s.Channel != -1 || s.Driver != DriverName {
		t.Errorf("unexpected input state %+v", s)
	}
	if s := DefaultOutputState(); s.Channel != 0 {
		t.Errorf("unexpected output state %+v", s)
	}
}
