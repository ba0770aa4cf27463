package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sori/dispatch"
	"sori/transcriber"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Elapsed time.Duration }
type AudioLevelMsg struct{ Level float64 }
type StatusMsg struct{ Text string }
type BusyMsg struct{}
type TooShortMsg struct{ Captured time.Duration }
type NoSpeechMsg struct{}
type NoVoiceWarningMsg struct{ Active bool }
type ResultMsg struct {
	Result  dispatch.Result
	Metrics []string
}
type ErrorMsg struct{ Err error }
type ModeLineMsg struct{ Text string }
type DeviceLineMsg struct{ Text string }
type RateLimitMsg struct{ Text string }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateProcessing
)

const (
	historyLines = 8
	meterWidth   = 30
	leftWidth    = 44
)

type tuiEntry struct {
	text string
	kind dispatch.Kind
	err  bool
}

type tuiModel struct {
	state         tuiState
	frame         int
	elapsed       time.Duration
	audioLevel    float64
	width, height int
	modeLine      string
	deviceLine    string
	rateLimit     string
	triggerName   string
	status        string
	noVoice       bool
	entries       []tuiEntry
	lastMetrics   []string
}

var (
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	typedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	meterOn      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	meterHot     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	meterOff     = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
)

func newTUIModel(triggerName string) tuiModel {
	return tuiModel{triggerName: triggerName}
}

func NewTUIProgram(triggerName string) *tea.Program {
	return tea.NewProgram(newTUIModel(triggerName), tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.elapsed = 0
		m.noVoice = false
		m.status = ""

	case RecordingStopMsg:
		m.state = tuiStateProcessing
		m.noVoice = false

	case RecordingTickMsg:
		m.elapsed = msg.Elapsed

	case AudioLevelMsg:
		// light smoothing so the meter does not flicker
		m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4

	case StatusMsg:
		m.status = msg.Text

	case BusyMsg:
		m.status = busyText

	case TooShortMsg:
		m.state = tuiStateIdle
		m.status = fmt.Sprintf("too short (%.1fs), ignored", msg.Captured.Seconds())

	case NoSpeechMsg:
		m.state = tuiStateIdle
		m.status = "no speech detected"

	case NoVoiceWarningMsg:
		m.noVoice = msg.Active

	case ResultMsg:
		m.state = tuiStateIdle
		m.status = ""
		m.lastMetrics = msg.Metrics
		m.entries = append(m.entries, tuiEntry{
			text: describeResult(msg.Result),
			kind: msg.Result.Kind,
			err:  msg.Result.Err != nil,
		})
		if len(m.entries) > historyLines {
			m.entries = m.entries[len(m.entries)-historyLines:]
		}

	case ErrorMsg:
		m.state = tuiStateIdle
		m.status = "error: " + msg.Err.Error()

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case RateLimitMsg:
		m.rateLimit = msg.Text
	}
	return m, nil
}

// renderMeter draws level as a bar. Speech RMS rarely passes 0.3, so the
// scale tops out there.
func renderMeter(level float64, width int) string {
	filled := int(level / 0.3 * float64(width))
	filled = min(max(filled, 0), width)
	hot := width * 4 / 5
	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i >= filled:
			b.WriteString(meterOff.Render("▁"))
		case i >= hot:
			b.WriteString(meterHot.Render("█"))
		default:
			b.WriteString(meterOn.Render("█"))
		}
	}
	return b.String()
}

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m tuiModel) statusLine() string {
	switch m.state {
	case tuiStateRecording:
		return recStyle.Render(fmt.Sprintf("● REC %.1fs", m.elapsed.Seconds()))
	case tuiStateProcessing:
		return busyStyle.Render(spinner[m.frame%len(spinner)] + " processing")
	}
	return idleStyle.Render("○ STANDBY")
}

func (m tuiModel) leftPanel() string {
	lines := []string{
		m.statusLine(),
		renderMeter(m.audioLevel, meterWidth),
	}
	if m.noVoice {
		lines = append(lines, warnStyle.Render("⚠ no voice detected, check the microphone"))
	}
	if m.status != "" {
		lines = append(lines, warnStyle.Render(m.status))
	}
	lines = append(lines, "")
	if m.modeLine != "" {
		lines = append(lines, infoStyle.Render(m.modeLine))
	}
	if m.deviceLine != "" {
		lines = append(lines, idleStyle.Render(m.deviceLine))
	}
	if m.rateLimit != "" {
		lines = append(lines, idleStyle.Render(m.rateLimit))
	}
	lines = append(lines, "")
	if m.triggerName != "" {
		lines = append(lines, dimStyle.Bold(true).Render(m.triggerName)+dimStyle.Render(" to record"))
	}
	lines = append(lines, dimStyle.Render("sori "+version))
	return lipgloss.NewStyle().Width(leftWidth).Render(strings.Join(lines, "\n"))
}

func (m tuiModel) rightPanel(width int) string {
	var b strings.Builder
	if len(m.entries) == 0 {
		b.WriteString(idleStyle.Render("Nothing dispatched yet"))
	} else {
		b.WriteString(infoStyle.Render("Recent") + "\n\n")
		for _, e := range m.entries {
			style := typedStyle
			switch {
			case e.err:
				style = errorStyle
			case e.kind != dispatch.KindTyped:
				style = commandStyle
			}
			b.WriteString(style.Render(e.text) + "\n")
		}
		if len(m.lastMetrics) > 0 {
			b.WriteString("\n")
			for _, line := range m.lastMetrics {
				b.WriteString(dimStyle.Render(line) + "\n")
			}
		}
	}
	return lipgloss.NewStyle().Width(width).PaddingLeft(1).Render(b.String())
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	right := max(m.width-leftWidth-1, 20)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.leftPanel(), m.rightPanel(right))
}

// tuiSink forwards events to a running program. It sits behind asyncSink,
// so the blocking Send never runs on the audio path.
type tuiSink struct {
	p *tea.Program
}

func (t tuiSink) Status(text string)                  { t.p.Send(StatusMsg{Text: text}) }
func (t tuiSink) Level(rms float64)                   { t.p.Send(AudioLevelMsg{Level: rms}) }
func (t tuiSink) RecordingStarted()                   { t.p.Send(RecordingStartMsg{}) }
func (t tuiSink) RecordingTick(elapsed time.Duration) { t.p.Send(RecordingTickMsg{Elapsed: elapsed}) }
func (t tuiSink) RecordingStopped(time.Duration)      { t.p.Send(RecordingStopMsg{}) }
func (t tuiSink) Busy()                               { t.p.Send(BusyMsg{}) }
func (t tuiSink) TooShort(captured time.Duration)     { t.p.Send(TooShortMsg{Captured: captured}) }
func (t tuiSink) NoSpeech()                           { t.p.Send(NoSpeechMsg{}) }
func (t tuiSink) NoVoiceWarning(active bool)          { t.p.Send(NoVoiceWarningMsg{Active: active}) }
func (t tuiSink) Error(err error)                     { t.p.Send(ErrorMsg{Err: err}) }
func (t tuiSink) DeviceLine(text string)              { t.p.Send(DeviceLineMsg{Text: text}) }
func (t tuiSink) ModeLine(text string)                { t.p.Send(ModeLineMsg{Text: text}) }

func (t tuiSink) Result(r dispatch.Result, tr transcriber.Result) {
	t.p.Send(ResultMsg{Result: r, Metrics: tr.Metrics})
	if tr.RateLimit != "" && tr.RateLimit != "?/?" {
		t.p.Send(RateLimitMsg{Text: "requests: " + tr.RateLimit + " remaining"})
	}
}
