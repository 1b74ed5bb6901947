package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-cccv/cccv"
	"go-cccv/debug"
	"go-cccv/host"
	"go-cccv/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	defer gomidi.CloseDriver()

	if os.Getenv("GO_CCCV_DEBUG") != "" {
		debug.EnableWriter(os.Stderr)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "monitor":
		err = monitor(arg(2, ""))
	case "sweep":
		err = sweep(arg(2, ""), arg(3, "1"))
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("CC/CV Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list               - List all MIDI ports")
	fmt.Println("  monitor <in>       - Print incoming CCs and the voltages they produce")
	fmt.Println("  sweep <out> [cc]   - Send a 0-10V ramp as CC (default cc 1)")
}

func arg(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func interrupted() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func listPorts() error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ports, err := midi.ListPorts(3 * time.Second)
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	for i, name := range ports.Ins {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range ports.Outs {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

// monitor runs the CC>CV side against a real input and prints what changes
func monitor(name string) error {
	if name == "" {
		usage()
		return nil
	}
	in, err := gomidi.FindInPort(name)
	if err != nil {
		return fmt.Errorf("find input %q: %w", name, err)
	}

	h := host.New(48000, 256)
	h.SetPatched(false)
	q := h.Input()

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		var ch, cc, val uint8
		if msg.GetControlChange(&ch, &cc, &val) {
			fmt.Printf("[%6dms] ch %2d cc %3d = %3d\n", timestampms, ch+1, cc, val)
		}
		q.Push(midi.NewMessage(msg, h.Frame()))
	})
	if err != nil {
		return fmt.Errorf("listen to %q: %w", in.String(), err)
	}
	defer stop()

	ctx, cancel := interrupted()
	defer cancel()
	go h.Run(ctx)

	fmt.Printf("Monitoring %s. Ctrl+C to exit.\n", in.String())

	var last [cccv.NumCells]float32
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s := h.Snapshot()
			for i, v := range s.Voltages {
				if math.Abs(float64(v-last[i])) >= 0.01 {
					fmt.Printf("           cell %2d (cc %3d) %+6.2fV\n", i+1, s.InCCs[i], v)
					last[i] = v
				}
			}
		}
	}
}

// sweep drives one CV>CC input with a triangle ramp and sends the result
func sweep(name, ccArg string) error {
	if name == "" {
		usage()
		return nil
	}
	cc, err := strconv.Atoi(ccArg)
	if err != nil || cc < 0 || cc >= cccv.NumControllers {
		return fmt.Errorf("not a controller number: %q", ccArg)
	}

	outPort, err := gomidi.FindOutPort(name)
	if err != nil {
		return fmt.Errorf("find output %q: %w", name, err)
	}
	send, err := midi.OpenSend(outPort)
	if err != nil {
		return err
	}

	out := midi.NewOutput()
	out.SetSend(func(msg gomidi.Message) error {
		var ch, c, val uint8
		if msg.GetControlChange(&ch, &c, &val) {
			fmt.Printf("cc %3d = %3d\n", c, val)
		}
		return send(msg)
	})

	m := cccv.NewCVToCC(out)
	m.Table().Assign(0, cc)
	m.Inputs[0].Connected = true

	// Only cell 1 is connected; the rest read 0V and would send once
	for i := 1; i < cccv.NumCells; i++ {
		m.Table().Assign(i, cccv.Unbound)
	}

	const (
		rate   = 1000 // frames per second
		period = 4.0  // seconds per up-and-down
	)

	ctx, cancel := interrupted()
	defer cancel()

	fmt.Printf("Sweeping cc %d on %s. Ctrl+C to exit.\n", cc, outPort.String())

	ticker := time.NewTicker(time.Second / rate)
	defer ticker.Stop()
	var frame int64
	for {
		select {
		case <-ctx.Done():
			sent, dropped := out.Stats()
			fmt.Printf("\nsent %d, dropped %d\n", sent, dropped)
			return nil
		case <-ticker.C:
			phase := math.Mod(float64(frame)/rate, period) / period
			v := 20 * phase
			if phase > 0.5 {
				v = 20 * (1 - phase)
			}
			m.Inputs[0].SetVoltage(float32(v))
			m.Process(cccv.NewProcessArgs(rate, frame))
			frame++
		}
	}
}
