package cccv

import (
	"encoding/json"
	"testing"

	"go-cccv/midi"
)

func TestCCToCVStateRoundTrip(t *testing.T) {
	a := newTestCCToCV()
	a.Smooth = false
	a.LSB = true
	a.Table().Assign(0, 5)
	a.Table().Assign(1, 100)
	a.Table().Assign(2, Unbound)
	a.Input.SetChannel(3)
	a.Port.DeviceName = "nanoKONTROL2"
	a.Values().Set(5, 0, 90)
	a.Values().Set(37, 0, 12)
	a.Values().Set(100, 0, -7)

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	b := newTestCCToCV()
	if err := json.Unmarshal(data, b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if a.Table().Controllers() != b.Table().Controllers() {
		t.Error("bindings differ after round trip")
	}
	if b.Smooth != a.Smooth || b.MPE != a.MPE || b.LSB != a.LSB {
		t.Error("flags differ after round trip")
	}
	if b.Input.Channel() != 3 || b.Port.DeviceName != "nanoKONTROL2" {
		t.Errorf("port state lost: channel=%d device=%q", b.Input.Channel(), b.Port.DeviceName)
	}

	// Identical input must now give identical output
	msgs := []midi.Message{
		ccMsg(3, 5, 91), ccMsg(3, 37, 3), ccMsg(3, 100, 64), ccMsg(3, 2, 127),
	}
	for frame := int64(0); frame < 64; frame++ {
		if frame%16 == 0 {
			m := msgs[int(frame/16)]
			a.Input.Push(m)
			b.Input.Push(m)
		}
		tick(a, frame)
		tick(b, frame)
		for cell := 0; cell < NumCells; cell++ {
			if a.Outputs[cell].Voltage(0) != b.Outputs[cell].Voltage(0) {
				t.Fatalf("frame %d cell %d: %v != %v", frame, cell,
					a.Outputs[cell].Voltage(0), b.Outputs[cell].Voltage(0))
			}
		}
	}
}

func TestCCToCVStateFormat(t *testing.T) {
	m := NewCCToCV(nil)
	m.Table().Assign(0, Unbound)
	m.Values().Set(1, 0, 42)
	m.Values().Set(1, 5, 99) // channel 5 is not saved

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"ccs", "values", "midi", "smooth", "mpeMode", "lsbMode"} {
		if _, ok := root[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}

	var ccs []int
	var values []int
	json.Unmarshal(root["ccs"], &ccs)
	json.Unmarshal(root["values"], &values)
	if len(ccs) != NumCells || ccs[0] != -1 || ccs[1] != 1 {
		t.Errorf("unexpected ccs: %v", ccs)
	}
	if len(values) != NumControllers || values[1] != 42 {
		t.Errorf("unexpected values: %v", values)
	}
}

func TestCCToCVStateTolerantLoad(t *testing.T) {
	t.Run("MissingKeysKeepDefaults", func(t *testing.T) {
		m := NewCCToCV(nil)
		m.MPE = true
		if err := json.Unmarshal([]byte(`{}`), m); err != nil {
			t.Fatal(err)
		}
		if !m.MPE || !m.Smooth || m.Table().Controller(7) != 7 {
			t.Error("empty object changed state")
		}
	})

	t.Run("BadEntriesSkipped", func(t *testing.T) {
		m := NewCCToCV(nil)
		data := `{
			"ccs": [10, "x", 300, -5, null, 1.5, 20],
			"values": [1, 2000, "y", -128, null],
			"smooth": "maybe",
			"mpeMode": true,
			"lsbMode": null,
			"midi": {"channel": 99, "deviceName": "pad"}
		}`
		if err := json.Unmarshal([]byte(data), m); err != nil {
			t.Fatal(err)
		}
		tb := m.Table()
		if tb.Controller(0) != 10 || tb.Controller(10) != Unbound {
			t.Errorf("cell 0: expected 10 with 10 unbound, got %d/%d", tb.Controller(0), tb.Controller(10))
		}
		for cell := 1; cell <= 5; cell++ {
			if tb.Controller(cell) != cell {
				t.Errorf("cell %d: bad entry applied, got %d", cell, tb.Controller(cell))
			}
		}
		if tb.Controller(6) != 20 {
			t.Errorf("cell 6: expected 20, got %d", tb.Controller(6))
		}
		if m.Values().Get(0, 0) != 1 || m.Values().Get(1, 0) != 0 || m.Values().Get(3, 0) != -128 {
			t.Error("values not restored selectively")
		}
		if !m.Smooth || !m.MPE || m.LSB {
			t.Errorf("flags: smooth=%v mpe=%v lsb=%v", m.Smooth, m.MPE, m.LSB)
		}
		if m.Input.Channel() != -1 || m.Port.DeviceName != "pad" {
			t.Errorf("midi: channel=%d device=%q", m.Input.Channel(), m.Port.DeviceName)
		}
	})

	t.Run("DuplicateBindingsStayUnique", func(t *testing.T) {
		m := NewCCToCV(nil)
		if err := json.Unmarshal([]byte(`{"ccs": [3, 3, 3]}`), m); err != nil {
			t.Fatal(err)
		}
		tb := m.Table()
		assertUnique(t, tb)
		if tb.Controller(2) != 3 || tb.Controller(0) != Unbound || tb.Controller(1) != Unbound {
			t.Errorf("expected the last duplicate to win, got %d %d %d", tb.Controller(0), tb.Controller(1), tb.Controller(2))
		}
	})

	t.Run("WrongTypesIgnored", func(t *testing.T) {
		m := NewCCToCV(nil)
		if err := json.Unmarshal([]byte(`{"ccs": {"a": 1}, "values": 5, "midi": [1]}`), m); err != nil {
			t.Fatal(err)
		}
		if m.Table().Controller(0) != 0 {
			t.Error("non-array ccs applied")
		}
	})

	t.Run("NotAnObject", func(t *testing.T) {
		m := NewCCToCV(nil)
		for _, data := range []string{`[1,2]`, `null`, `"x"`} {
			if err := json.Unmarshal([]byte(data), m); err == nil {
				t.Errorf("expected error for %s", data)
			}
		}
	})
}

func TestCVToCCState(t *testing.T) {
	a := NewCVToCC(nil)
	a.Table().Assign(0, 64)
	a.Table().Assign(63, Unbound)
	a.Output.Port.SetChannel(4)

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var root map[string]json.RawMessage
	json.Unmarshal(data, &root)
	if _, ok := root["values"]; ok {
		t.Error("cv>cc must not save values")
	}

	b := NewCVToCC(nil)
	if err := json.Unmarshal(data, b); err != nil {
		t.Fatal(err)
	}
	if a.Table().Controllers() != b.Table().Controllers() {
		t.Error("bindings differ after round trip")
	}
	if b.Output.Port.Channel() != 4 {
		t.Errorf("expected channel 4, got %d", b.Output.Port.Channel())
	}
}
