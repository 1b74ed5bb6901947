package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-cccv/cccv"
	"go-cccv/config"
	"go-cccv/debug"
	"go-cccv/host"
	"go-cccv/midi"
	"go-cccv/patch"
	"go-cccv/theme"
	"go-cccv/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	defer gomidi.CloseDriver()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug || os.Getenv("GO_CCCV_DEBUG") != "" {
		if err := debug.Enable(); err != nil {
			return fmt.Errorf("enable debug log: %w", err)
		}
		defer debug.Disable()
	}

	th := theme.New(theme.Plasma())

	h := host.New(float32(cfg.SampleRate), cfg.BlockSize)
	h.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
		in.Port.DeviceName = cfg.InputPort
		in.Port.Channel = cfg.InputChannel
		in.Input.SetChannel(cfg.InputChannel)
		out.Port.DeviceName = cfg.OutputPort
		out.Port.Channel = cfg.OutputChannel
		out.Output.Port.SetChannel(cfg.OutputChannel)
	})

	if cfg.Patch != "" {
		if err := patch.Load(cfg.Patch, "", h); err != nil {
			// A missing patch is not fatal; start from defaults
			debug.Log("patch", "load %s: %v", cfg.Patch, err)
		}
	}

	// Ports named by the patch win over the config
	inName, outName := cfg.InputPort, cfg.OutputPort
	h.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
		if in.Port.DeviceName != "" {
			inName = in.Port.DeviceName
		}
		if out.Port.DeviceName != "" {
			outName = out.Port.DeviceName
		}
	})

	deviceMgr := midi.NewDeviceManager(h.Input(), h.Output(), h.Frame)
	deviceMgr.Want(inName, outName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)
	go h.Run(ctx)

	fmt.Println("go-cccv")
	fmt.Printf("in: %q  out: %q\n", inName, outName)
	fmt.Println("")

	m := tui.NewModel(h, deviceMgr, th, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
