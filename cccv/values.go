package cccv

const (
	NumCells       = 64
	NumControllers = 128
	NumChannels    = 16

	// Controllers below lsbOffset carry the MSB of a 14-bit value whose LSB
	// arrives on controller+lsbOffset.
	lsbOffset = 32
)

// ValueStore caches the last raw byte seen per (controller, channel), plus
// MSBs waiting for their LSB in 14-bit mode. Values are signed: the high bit
// of the wire byte is kept as the sign.
type ValueStore struct {
	values [NumControllers][NumChannels]int8
	msb    [lsbOffset][NumChannels]int8
}

func inRange(cc, ch int) bool {
	return cc >= 0 && cc < NumControllers && ch >= 0 && ch < NumChannels
}

// Get returns the cached value, 0 for out-of-range keys
func (s *ValueStore) Get(cc, ch int) int8 {
	if !inRange(cc, ch) {
		return 0
	}
	return s.values[cc][ch]
}

// Set stores a value directly
func (s *ValueStore) Set(cc, ch int, v int8) {
	if inRange(cc, ch) {
		s.values[cc][ch] = v
	}
}

// Stage holds an MSB (controller 0-31) until its LSB arrives
func (s *ValueStore) Stage(cc, ch int, v int8) {
	if cc < 0 || cc >= lsbOffset || ch < 0 || ch >= NumChannels {
		return
	}
	s.msb[cc][ch] = v
}

// Staged returns the pending MSB for controller cc (0-31)
func (s *ValueStore) Staged(cc, ch int) int8 {
	if cc < 0 || cc >= lsbOffset || ch < 0 || ch >= NumChannels {
		return 0
	}
	return s.msb[cc][ch]
}

// Commit applies an LSB (controller 32-63): the staged MSB lands on
// lsb-32 and the LSB itself on lsb, so both halves change together.
func (s *ValueStore) Commit(lsb, ch int, v int8) {
	if lsb < lsbOffset || lsb >= 2*lsbOffset || ch < 0 || ch >= NumChannels {
		return
	}
	s.values[lsb-lsbOffset][ch] = s.msb[lsb-lsbOffset][ch]
	s.values[lsb][ch] = v
}

// Combined returns the value of cc scaled to 14 bits. With pair set and
// cc < 32, the LSB from cc+32 fills the low 7 bits.
func (s *ValueStore) Combined(cc, ch int, pair bool) int32 {
	if !inRange(cc, ch) {
		return 0
	}
	v := int32(s.values[cc][ch]) * 128
	if pair && cc < lsbOffset {
		v += int32(s.values[cc+lsbOffset][ch])
	}
	return v
}

// Reset zeroes both caches
func (s *ValueStore) Reset() {
	*s = ValueStore{}
}
