package cccv

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go-cccv/debug"
	"go-cccv/midi"
)

// ccToCVState is the saved form of CCToCV. Only channel 0 of the value
// cache is kept.
type ccToCVState struct {
	CCs     [NumCells]int       `json:"ccs"`
	Values  [NumControllers]int `json:"values"`
	Midi    midi.PortState      `json:"midi"`
	Smooth  bool                `json:"smooth"`
	MPEMode bool                `json:"mpeMode"`
	LSBMode bool                `json:"lsbMode"`
}

// cvToCCState is the saved form of CVToCC; input voltages are live
type cvToCCState struct {
	CCs  [NumCells]int  `json:"ccs"`
	Midi midi.PortState `json:"midi"`
}

// MarshalJSON saves bindings, channel-0 values, flags and port state
func (m *CCToCV) MarshalJSON() ([]byte, error) {
	s := ccToCVState{
		CCs:     m.table.Controllers(),
		Midi:    m.Port,
		Smooth:  m.Smooth,
		MPEMode: m.MPE,
		LSBMode: m.LSB,
	}
	s.Midi.Channel = m.Input.Channel()
	for cc := range s.Values {
		s.Values[cc] = int(m.values.Get(cc, 0))
	}
	return json.Marshal(s)
}

// UnmarshalJSON restores state saved by MarshalJSON. Every key is optional
// and bad entries are skipped, leaving the current value in place. It only
// fails when data is not a JSON object.
func (m *CCToCV) UnmarshalJSON(data []byte) error {
	root, err := decodeObject(data)
	if err != nil {
		return err
	}

	if raw, ok := root["ccs"]; ok {
		restoreBindings(&m.table, raw)
	}

	if raw, ok := root["values"]; ok {
		for i, v := range decodeInts(raw, NumControllers) {
			if v == nil || *v < int8Min || *v > int8Max {
				continue
			}
			m.values.Set(i, 0, int8(*v))
		}
	}

	if raw, ok := root["midi"]; ok {
		if ps, ok := decodePort(raw, m.Port); ok {
			m.Port = ps
			m.Input.SetChannel(ps.Channel)
		}
	}

	if v, ok := decodeBool(root["smooth"]); ok {
		m.Smooth = v
	}
	if v, ok := decodeBool(root["mpeMode"]); ok {
		m.MPE = v
	}
	if v, ok := decodeBool(root["lsbMode"]); ok {
		m.LSB = v
	}
	return nil
}

// MarshalJSON saves bindings and port state
func (m *CVToCC) MarshalJSON() ([]byte, error) {
	s := cvToCCState{
		CCs:  m.table.Controllers(),
		Midi: m.Port,
	}
	s.Midi.Channel = m.Output.Port.Channel()
	return json.Marshal(s)
}

// UnmarshalJSON restores state saved by MarshalJSON, skipping bad entries
func (m *CVToCC) UnmarshalJSON(data []byte) error {
	root, err := decodeObject(data)
	if err != nil {
		return err
	}

	if raw, ok := root["ccs"]; ok {
		restoreBindings(&m.table, raw)
	}

	if raw, ok := root["midi"]; ok {
		if ps, ok := decodePort(raw, m.Port); ok {
			m.Port = ps
			m.Output.Port.SetChannel(ps.Channel)
		}
	}
	return nil
}

const (
	int8Min = -128
	int8Max = 127
)

// restoreBindings goes through Assign so a corrupt file cannot break the
// uniqueness of bindings
func restoreBindings(t *Table, raw json.RawMessage) {
	for cell, v := range decodeInts(raw, NumCells) {
		if v == nil {
			continue
		}
		cc := *v
		if cc < Unbound || cc >= NumControllers {
			debug.Log("state", "skip cell %d: cc %d out of range", cell+1, cc)
			continue
		}
		t.Assign(cell, cc)
	}
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode module state: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("decode module state: not an object")
	}
	return root, nil
}

// decodeInts reads up to n array entries; malformed entries come back nil.
// A non-array yields nothing.
func decodeInts(raw json.RawMessage, n int) []*int {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	if len(items) > n {
		items = items[:n]
	}
	out := make([]*int, len(items))
	for i, item := range items {
		var v int
		if isNull(item) {
			continue
		}
		if err := json.Unmarshal(item, &v); err == nil {
			out[i] = &v
		}
	}
	return out
}

func decodeBool(raw json.RawMessage) (bool, bool) {
	if raw == nil || isNull(raw) {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, false
	}
	return v, true
}

// isNull reports a JSON null, which Unmarshal would accept as a zero value
func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// decodePort overlays raw on cur; an invalid channel keeps cur's
func decodePort(raw json.RawMessage, cur midi.PortState) (midi.PortState, bool) {
	ps := cur
	if isNull(raw) {
		return cur, false
	}
	if err := json.Unmarshal(raw, &ps); err != nil {
		return cur, false
	}
	if ps.Channel < -1 || ps.Channel > 15 {
		ps.Channel = cur.Channel
	}
	return ps, true
}
