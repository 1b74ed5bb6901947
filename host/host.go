package host

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go-cccv/cccv"
	"go-cccv/debug"
	"go-cccv/midi"
)

// UI refresh rate
const uiFPS = 30

// maxCatchUp bounds how many frames one wake-up may process after a stall
const maxCatchUp = 1.0 // seconds

// Host runs a CC>CV and a CV>CC module in real time. It is the only owner of
// the modules: every access goes through its lock.
type Host struct {
	mu         sync.RWMutex
	sampleRate float32
	blockSize  int
	frame      atomic.Int64

	in  *cccv.CCToCV
	out *cccv.CVToCC

	// patched feeds CC>CV output i (channel 0) into CV>CC input i
	patched bool

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// New creates a host with both modules reset and patched together
func New(sampleRate float32, blockSize int) *Host {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if blockSize <= 0 {
		blockSize = 256
	}
	h := &Host{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		in:         cccv.NewCCToCV(midi.NewInputQueue()),
		out:        cccv.NewCVToCC(midi.NewOutput()),
		patched:    true,
		UpdateChan: make(chan struct{}, 1),
	}
	for i := range h.in.Outputs {
		h.in.Outputs[i].Connected = true
	}
	h.applyPatch()
	return h
}

// SampleRate returns the processing rate
func (h *Host) SampleRate() float32 {
	return h.sampleRate
}

// Frame returns the next frame to be processed. Safe from any goroutine;
// used to stamp incoming MIDI.
func (h *Host) Frame() int64 {
	return h.frame.Load()
}

// Input is the queue the MIDI listener pushes into
func (h *Host) Input() *midi.InputQueue {
	return h.in.Input
}

// Output is the port CV>CC sends through
func (h *Host) Output() *midi.Output {
	return h.out.Output.Port
}

// SetPatched connects or disconnects the CC>CV -> CV>CC cables
func (h *Host) SetPatched(on bool) {
	h.mu.Lock()
	h.patched = on
	h.applyPatch()
	h.mu.Unlock()
}

func (h *Host) applyPatch() {
	for i := range h.out.Inputs {
		h.out.Inputs[i].Connected = h.patched
		if !h.patched {
			h.out.Inputs[i].SetVoltage(0)
		}
	}
}

// Do runs fn with exclusive access to both modules
func (h *Host) Do(fn func(in *cccv.CCToCV, out *cccv.CVToCC)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.in, h.out)
}

// ProcessFrames runs n frames
func (h *Host) ProcessFrames(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	frame := h.frame.Load()
	for i := 0; i < n; i++ {
		args := cccv.NewProcessArgs(h.sampleRate, frame)
		h.in.Process(args)
		if h.patched {
			for id := range h.out.Inputs {
				h.out.Inputs[id].SetVoltage(h.in.Outputs[id].Voltage(0))
			}
		}
		h.out.Process(args)
		frame++
	}
	h.frame.Store(frame)
}

// Run processes frames in blocks, paced by the wall clock, until ctx is
// done (blocking - run in goroutine)
func (h *Host) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	period := time.Duration(float64(time.Second) * float64(h.blockSize) / float64(h.sampleRate))
	ticker := time.NewTicker(period)
	uiTicker := time.NewTicker(time.Second / uiFPS)
	defer ticker.Stop()
	defer uiTicker.Stop()

	start := time.Now()
	base := h.frame.Load()
	limit := int64(float64(h.sampleRate) * maxCatchUp)

	debug.Log("host", "running at %.0f Hz, block %d (%v)", h.sampleRate, h.blockSize, period)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			target := base + int64(now.Sub(start).Seconds()*float64(h.sampleRate))
			due := target - h.frame.Load()
			if due > limit {
				// Stalled (suspend, debugger): skip ahead instead of bursting
				debug.Log("host", "skipping %d frames", due-limit)
				h.frame.Add(due - limit)
				due = limit
			}
			if due > 0 {
				h.ProcessFrames(int(due))
			}
		case <-uiTicker.C:
			select {
			case h.UpdateChan <- struct{}{}:
			default:
			}
		}
	}
}

// Snapshot is a copy of the state the UI renders
type Snapshot struct {
	Frame    int64
	Smooth   bool
	MPE      bool
	LSB      bool
	Patched  bool
	Channels int

	InCCs       [cccv.NumCells]int
	InLearning  int // -1 if none
	Voltages    [cccv.NumCells]float32
	OutCCs      [cccv.NumCells]int
	OutLearning int
	LastSent    [cccv.NumCells]int // -1 if nothing sent for the cell's cc

	Passes    uint64
	Sent      uint64
	Dropped   uint64
	QueueLen  int
	InChannel int
}

// Snapshot copies the current state
func (h *Host) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := Snapshot{
		Frame:       h.frame.Load(),
		Smooth:      h.in.Smooth,
		MPE:         h.in.MPE,
		LSB:         h.in.LSB,
		Patched:     h.patched,
		Channels:    h.in.Channels(),
		InCCs:       h.in.Table().Controllers(),
		InLearning:  cccv.NoLearn,
		OutCCs:      h.out.Table().Controllers(),
		OutLearning: cccv.NoLearn,
		Passes:      h.out.Passes(),
		QueueLen:    h.in.Input.Len(),
		InChannel:   h.in.Input.Channel(),
	}
	if cell, ok := h.in.Table().Learning(); ok {
		s.InLearning = cell
	}
	if cell, ok := h.out.Table().Learning(); ok {
		s.OutLearning = cell
	}
	for i := range s.Voltages {
		s.Voltages[i] = h.in.Outputs[i].Voltage(0)
		s.LastSent[i] = h.out.Output.Last(s.OutCCs[i])
	}
	s.Sent, s.Dropped = h.out.Output.Port.Stats()
	return s
}

// State is the saved form of a host
type State struct {
	SampleRate float32         `json:"sampleRate"`
	Patched    bool            `json:"patched"`
	CCToCV     json.RawMessage `json:"cctocv,omitempty"`
	CVToCC     json.RawMessage `json:"cvtocc,omitempty"`
}

// MarshalJSON saves both modules
func (h *Host) MarshalJSON() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	in, err := json.Marshal(h.in)
	if err != nil {
		return nil, fmt.Errorf("save cc>cv: %w", err)
	}
	out, err := json.Marshal(h.out)
	if err != nil {
		return nil, fmt.Errorf("save cv>cc: %w", err)
	}
	return json.Marshal(State{
		SampleRate: h.sampleRate,
		Patched:    h.patched,
		CCToCV:     in,
		CVToCC:     out,
	})
}

// UnmarshalJSON restores both modules. The sample rate is not changed:
// it belongs to the running configuration, not the patch.
func (h *Host) UnmarshalJSON(data []byte) error {
	var s State
	s.Patched = true
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode host state: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(s.CCToCV) > 0 {
		if err := json.Unmarshal(s.CCToCV, h.in); err != nil {
			debug.Log("state", "skip cc>cv state: %v", err)
		}
	}
	if len(s.CVToCC) > 0 {
		if err := json.Unmarshal(s.CVToCC, h.out); err != nil {
			debug.Log("state", "skip cv>cc state: %v", err)
		}
	}
	h.patched = s.Patched
	h.applyPatch()
	return nil
}

// Reset resets both modules
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.in.Reset()
	h.out.Reset()
}
