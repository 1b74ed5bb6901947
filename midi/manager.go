package midi

import (
	"context"
	"sync"
	"time"

	"go-cccv/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// DeviceEvent is emitted when a configured port connects or disconnects
type DeviceEvent struct {
	Type DeviceEventType
	Dir  Direction
	Name string
	Err  error
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
	DeviceFailed
)

// Direction tells input and output ports apart
type Direction int

const (
	DirIn Direction = iota
	DirOut
)

func (d Direction) String() string {
	if d == DirOut {
		return "out"
	}
	return "in"
}

// DeviceManager keeps the configured input and output ports attached,
// reconnecting them when they reappear (hot-plug)
type DeviceManager struct {
	queue  *InputQueue
	output *Output
	frame  FrameFunc

	mu      sync.RWMutex
	inWant  string
	outWant string
	inName  string // currently attached input, "" if none
	outName string
	stopIn  func()

	events   chan DeviceEvent
	pollRate time.Duration
}

// NewDeviceManager creates a manager feeding q and sending through out
func NewDeviceManager(q *InputQueue, out *Output, frame FrameFunc) *DeviceManager {
	return &DeviceManager{
		queue:    q,
		output:   out,
		frame:    frame,
		events:   make(chan DeviceEvent, 16),
		pollRate: time.Second,
	}
}

// Events returns a channel of connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Want sets the port names to attach; an empty name detaches that side
func (dm *DeviceManager) Want(in, out string) {
	dm.mu.Lock()
	dm.inWant = in
	dm.outWant = out
	dm.mu.Unlock()
}

// Attached returns the names of the currently attached ports
func (dm *DeviceManager) Attached() (in, out string) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.inName, dm.outName
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	var result portsResult
	select {
	case result = <-ch:
	case <-time.After(3 * time.Second):
		// CoreMIDI is hung - skip this scan
		debug.Log("midi", "port scan timed out")
		return
	}

	inNames := make([]string, len(result.inPorts))
	for i, p := range result.inPorts {
		inNames[i] = p.String()
	}
	outNames := make([]string, len(result.outPorts))
	for i, p := range result.outPorts {
		outNames[i] = p.String()
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	// Input side
	idx := MatchPort(inNames, dm.inWant)
	switch {
	case idx < 0 && dm.inName != "":
		dm.detachInLocked()
	case idx >= 0 && dm.inName != inNames[idx]:
		if dm.inName != "" {
			dm.detachInLocked()
		}
		stop, err := ListenInto(result.inPorts[idx], dm.queue, dm.frame)
		if err != nil {
			dm.emit(DeviceEvent{Type: DeviceFailed, Dir: DirIn, Name: inNames[idx], Err: err})
			break
		}
		dm.stopIn = stop
		dm.inName = inNames[idx]
		dm.emit(DeviceEvent{Type: DeviceConnected, Dir: DirIn, Name: dm.inName})
	}

	// Output side
	idx = MatchPort(outNames, dm.outWant)
	switch {
	case idx < 0 && dm.outName != "":
		dm.detachOutLocked()
	case idx >= 0 && dm.outName != outNames[idx]:
		send, err := OpenSend(result.outPorts[idx])
		if err != nil {
			dm.emit(DeviceEvent{Type: DeviceFailed, Dir: DirOut, Name: outNames[idx], Err: err})
			break
		}
		dm.output.SetSend(send)
		dm.outName = outNames[idx]
		dm.emit(DeviceEvent{Type: DeviceConnected, Dir: DirOut, Name: dm.outName})
	}
}

func (dm *DeviceManager) detachInLocked() {
	if dm.stopIn != nil {
		dm.stopIn()
		dm.stopIn = nil
	}
	name := dm.inName
	dm.inName = ""
	dm.emit(DeviceEvent{Type: DeviceDisconnected, Dir: DirIn, Name: name})
}

func (dm *DeviceManager) detachOutLocked() {
	dm.output.SetSend(nil)
	name := dm.outName
	dm.outName = ""
	dm.emit(DeviceEvent{Type: DeviceDisconnected, Dir: DirOut, Name: name})
}

// emit never blocks the scan; the UI only needs the latest state
func (dm *DeviceManager) emit(e DeviceEvent) {
	debug.Log("midi", "%s %s %q err=%v", e.Dir, eventName(e.Type), e.Name, e.Err)
	select {
	case dm.events <- e:
	default:
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.inName != "" {
		dm.detachInLocked()
	}
	if dm.outName != "" {
		dm.detachOutLocked()
	}
}

func eventName(t DeviceEventType) string {
	switch t {
	case DeviceConnected:
		return "connected"
	case DeviceDisconnected:
		return "disconnected"
	default:
		return "failed"
	}
}
