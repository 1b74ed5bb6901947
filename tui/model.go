package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-cccv/cccv"
	"go-cccv/config"
	"go-cccv/debug"
	"go-cccv/host"
	"go-cccv/midi"
	"go-cccv/patch"
	"go-cccv/theme"
	"go-cccv/widgets"
)

// inputMode is what the text prompt is collecting
type inputMode int

const (
	inputNone inputMode = iota
	inputCC
	inputPatch
)

type Model struct {
	Host      *host.Host
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme
	Config    *config.Config

	snap   host.Snapshot
	view   config.View
	cursor int

	input     textinput.Model
	inputMode inputMode

	inName  string
	outName string
	status  string
	err     error

	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(h *host.Host, deviceMgr *midi.DeviceManager, th *theme.Theme, cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m := Model{
		Host:      h,
		DeviceMgr: deviceMgr,
		Theme:     th,
		Config:    cfg,
		view:      cfg.UI.LastView,
		input:     newTextInput(),
	}
	if m.view != config.ViewCVToCC {
		m.view = config.ViewCCToCV
	}
	m.snap = h.Snapshot()
	return m
}

func newTextInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 32
	ti.Width = 32
	return ti
}

func ListenForUpdates(h *host.Host) tea.Cmd {
	return func() tea.Msg {
		<-h.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Host)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

// CurrentView returns the grid currently shown
func (m Model) CurrentView() config.View {
	return m.view
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.inputMode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)

	case UpdateMsg:
		m.snap = m.Host.Snapshot()
		return m, ListenForUpdates(m.Host)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.setPortName(event.Dir, event.Name)
			m.status = fmt.Sprintf("%s connected: %s", event.Dir, event.Name)
		case midi.DeviceDisconnected:
			m.setPortName(event.Dir, "")
			m.status = fmt.Sprintf("%s disconnected: %s", event.Dir, event.Name)
		case midi.DeviceFailed:
			m.err = event.Err
		}
		return m, ListenForDevices(m.DeviceMgr)
	}
	return m, nil
}

func (m *Model) setPortName(dir midi.Direction, name string) {
	if dir == midi.DirIn {
		m.inName = name
	} else {
		m.outName = name
	}
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "left":
		m.move(-1)
	case "right":
		m.move(1)
	case "up":
		m.move(-widgets.GridColumns)
	case "down":
		m.move(widgets.GridColumns)

	case "tab":
		if m.view == config.ViewCCToCV {
			m.view = config.ViewCVToCC
		} else {
			m.view = config.ViewCCToCV
		}
		m.Config.UI.LastView = m.view

	case "l":
		m.learn()

	case "enter":
		return m.prompt(inputCC, "cc 0-127, blank to unbind")

	case "u":
		m.assign(cccv.Unbound)

	case "esc":
		m.Host.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
			in.Table().CancelLearn()
			out.Table().CancelLearn()
		})

	case "s":
		m.toggle("smooth", func(in *cccv.CCToCV) *bool { return &in.Smooth })
	case "m":
		m.toggle("mpe", func(in *cccv.CCToCV) *bool { return &in.MPE })
	case "b":
		m.toggle("14-bit", func(in *cccv.CCToCV) *bool { return &in.LSB })

	case "p":
		m.Host.SetPatched(!m.snap.Patched)

	case "w":
		m.input.SetValue(m.Config.Patch)
		return m.prompt(inputPatch, patch.Untitled)

	case "r":
		m.Host.Reset()
		m.status = "reset"
	}

	m.snap = m.Host.Snapshot()
	return m, nil
}

func (m *Model) move(d int) {
	next := m.cursor + d
	if next >= 0 && next < cccv.NumCells {
		m.cursor = next
	}
}

// learn arms the selected cell. CC>CV captures the next changed controller;
// CV>CC has no MIDI input, so it asks for the number.
func (m *Model) learn() {
	cell := m.cursor
	if m.view == config.ViewCCToCV {
		m.Host.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
			in.Table().BeginLearn(cell)
		})
		m.status = fmt.Sprintf("cc>cv %d: move a controller", cell+1)
		return
	}
	m.Host.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
		out.BeginLearn(cell)
	})
	m.status = fmt.Sprintf("cv>cc %d: press enter and type a cc", cell+1)
}

func (m *Model) assign(cc int) {
	cell := m.cursor
	cvSide := m.view == config.ViewCVToCC
	m.Host.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
		if cvSide {
			out.BeginLearn(cell)
			out.Enter(cc)
			return
		}
		in.Table().CancelLearn()
		in.Table().Assign(cell, cc)
	})
	debug.Log("learn", "%s cell %d = %d", m.view, cell+1, cc)
	if cc == cccv.Unbound {
		m.status = fmt.Sprintf("%d unbound", cell+1)
	} else {
		m.status = fmt.Sprintf("%d = cc %d", cell+1, cc)
	}
}

func (m *Model) toggle(name string, field func(in *cccv.CCToCV) *bool) {
	var on bool
	m.Host.Do(func(in *cccv.CCToCV, out *cccv.CVToCC) {
		p := field(in)
		*p = !*p
		on = *p
	})
	m.status = fmt.Sprintf("%s %v", name, on)
}

func (m Model) prompt(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.inputMode = mode
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.inputMode
		m.closeInput()
		switch mode {
		case inputCC:
			m.submitCC(value)
		case inputPatch:
			m.submitPatch(value)
		}
		m.snap = m.Host.Snapshot()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.inputMode = inputNone
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) submitCC(value string) {
	if value == "" {
		m.assign(cccv.Unbound)
		return
	}
	cc, err := strconv.Atoi(value)
	if err != nil || cc < 0 || cc >= cccv.NumControllers {
		m.err = fmt.Errorf("not a controller number: %q", value)
		return
	}
	m.assign(cc)
}

func (m *Model) submitPatch(name string) {
	if name == "" {
		name = patch.Untitled
	}
	info, err := patch.Save(name, m.Host)
	if err != nil {
		m.err = err
		return
	}
	m.Config.Patch = name
	m.status = fmt.Sprintf("saved %s/%s", name, info.Filename)
}

func (m Model) cells() []widgets.Cell {
	cells := make([]widgets.Cell, cccv.NumCells)
	for i := range cells {
		c := widgets.Cell{Index: i, Selected: i == m.cursor, Voltage: m.snap.Voltages[i]}
		if m.view == config.ViewCCToCV {
			c.CC = m.snap.InCCs[i]
			c.Learning = m.snap.InLearning == i
			c.Value = -1
		} else {
			c.CC = m.snap.OutCCs[i]
			c.Learning = m.snap.OutLearning == i
			c.Value = m.snap.LastSent[i]
			if !m.snap.Patched {
				c.Voltage = 0
			}
		}
		cells[i] = c
	}
	return cells
}

var keys = []widgets.KeyBinding{
	{Key: "arrows", Desc: "move"},
	{Key: "l", Desc: "learn"},
	{Key: "enter", Desc: "type cc"},
	{Key: "u", Desc: "unbind"},
	{Key: "tab", Desc: "side"},
	{Key: "s/m/b", Desc: "smooth/mpe/14-bit"},
	{Key: "p", Desc: "patch"},
	{Key: "w", Desc: "save"},
	{Key: "r", Desc: "reset"},
	{Key: "q", Desc: "quit"},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	side := "CC>CV"
	if m.view == config.ViewCVToCC {
		side = "CV>CC"
	}
	inName, outName := m.inName, m.outName
	if inName == "" {
		inName = "-"
	}
	if outName == "" {
		outName = "-"
	}

	header := headerStyle.Render(fmt.Sprintf("go-cccv  %s  in:%s  out:%s", side, inName, outName))

	flags := strings.Join([]string{
		widgets.RenderToggle("smooth", m.snap.Smooth, m.Theme),
		widgets.RenderToggle("mpe", m.snap.MPE, m.Theme),
		widgets.RenderToggle("14-bit", m.snap.LSB, m.Theme),
		widgets.RenderToggle("patch", m.snap.Patched, m.Theme),
	}, "  ")
	stats := dimStyle.Render(fmt.Sprintf("sent:%d dropped:%d queued:%d", m.snap.Sent, m.snap.Dropped, m.snap.QueueLen))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(flags + "  " + stats)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderGrid(m.cells(), m.Theme))
	out.WriteString("\n\n")

	switch {
	case m.inputMode != inputNone:
		label := "cc"
		if m.inputMode == inputPatch {
			label = "save as"
		}
		out.WriteString(label + ": " + m.input.View())
	case m.err != nil:
		out.WriteString(errStyle.Render(m.err.Error()))
	default:
		out.WriteString(dimStyle.Render(m.status))
	}
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyLine(keys)))

	return out.String()
}
