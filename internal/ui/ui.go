package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/voxchat/voxchat/internal/client"
	"github.com/voxchat/voxchat/internal/pubsub"
	"github.com/voxchat/voxchat/internal/transcript"
)

// maxLogLines bounds the log pane so a chatty session cannot grow the model
// without limit.
const maxLogLines = 200

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).Background(lipgloss.Color("62")).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	recordingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Session is the voice chat surface the UI drives.
type Session interface {
	Activate(ctx context.Context) error
	Deactivate() error
	SetMuted(muted bool)
	State() client.State
	Transcript() *transcript.Log
	EnqueueClip(wavData []byte)
}

// Config wires a Model to its session.
type Config struct {
	Session       Session
	Events        pubsub.Subscriber[client.Event]
	Logs          <-chan string
	AssistantName string

	// Optional WAV clips played when capture starts/stops.
	ActivationChime   []byte
	DeactivationChime []byte
}

type (
	sessionEventMsg client.Event
	logLineMsg      string

	activationResultMsg   struct{ err error }
	deactivationResultMsg struct{ err error }
)

// Model renders the chat transcript with a status header/footer and drives
// the session from key presses. Session state changes and log records arrive
// as messages pumped from their channels.
type Model struct {
	ctx     context.Context
	session Session
	events  pubsub.Subscription[client.Event]
	logs    <-chan string

	assistantName     string
	activationChime   []byte
	deactivationChime []byte

	viewport   viewport.Model
	ready      bool
	width      int
	showLog    bool
	showHelp   bool
	connecting bool
	quitting   bool
	state      client.State
	lastErr    string
	logLines   []string
}

func NewModel(ctx context.Context, cfg Config) Model {
	name := cfg.AssistantName
	if name == "" {
		name = "assistant"
	}

	return Model{
		ctx:               ctx,
		session:           cfg.Session,
		events:            cfg.Events.Subscribe(ctx),
		logs:              cfg.Logs,
		assistantName:     name,
		activationChime:   cfg.ActivationChime,
		deactivationChime: cfg.DeactivationChime,
		state:             cfg.Session.State(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		waitForEvent(m.events),
		waitForLogLine(m.logs),
	)
}

func waitForEvent(sub pubsub.Subscription[client.Event]) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub.ResultChan()
		if !ok {
			return nil
		}

		return sessionEventMsg(evt)
	}
}

func waitForLogLine(lines <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-lines
		if !ok {
			return nil
		}

		return logLineMsg(line)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ":
			return m.toggleCapture()
		case "esc":
			if m.showHelp {
				m.showHelp = false
				m.viewport.SetContent(m.contentView())
				return m, nil
			}
			return m.stopCapture()
		case "m":
			m.session.SetMuted(!m.state.Muted)
			m.state = m.session.State()
			return m, nil
		case "ctrl+l":
			m.session.Transcript().Clear()
			m.viewport.SetContent(m.contentView())
			return m, nil
		case "tab":
			m.showLog = !m.showLog
			m.viewport.SetContent(m.contentView())
			m.viewport.GotoBottom()
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			m.viewport.SetContent(m.contentView())
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		verticalMarginHeight := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMarginHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMarginHeight
		}
		m.viewport.SetContent(m.contentView())

	case sessionEventMsg:
		m.applyEvent(client.Event(msg))
		m.viewport.SetContent(m.contentView())
		m.viewport.GotoBottom()
		cmds = append(cmds, waitForEvent(m.events))

	case logLineMsg:
		m.logLines = append(m.logLines, string(msg))
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
		if m.showLog {
			m.viewport.SetContent(m.contentView())
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, waitForLogLine(m.logs))

	case activationResultMsg:
		m.connecting = false
		m.lastErr = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		m.state = m.session.State()

	case deactivationResultMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		m.state = m.session.State()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// applyEvent folds a session event into the model, playing a chime when the
// capture state flipped.
func (m *Model) applyEvent(evt client.Event) {
	if evt.Kind == client.EventState && evt.State.Active != m.state.Active {
		m.connecting = false
		m.chime(evt.State.Active)
	}

	m.state = evt.State
}

func (m *Model) chime(activated bool) {
	clip := m.deactivationChime
	if activated {
		clip = m.activationChime
	}

	if len(clip) > 0 {
		m.session.EnqueueClip(clip)
	}
}

// toggleCapture activates the session asynchronously so that slow microphone
// or backend setup does not freeze the UI.
func (m Model) toggleCapture() (tea.Model, tea.Cmd) {
	if m.state.Active || m.connecting {
		return m.stopCapture()
	}

	m.connecting = true
	m.lastErr = ""
	sess, ctx := m.session, m.ctx

	return m, func() tea.Msg {
		return activationResultMsg{err: sess.Activate(ctx)}
	}
}

func (m Model) stopCapture() (tea.Model, tea.Cmd) {
	if !m.state.Active && !m.connecting {
		return m, nil
	}

	m.connecting = false
	sess := m.session

	return m, func() tea.Msg {
		return deactivationResultMsg{err: sess.Deactivate()}
	}
}

func (m Model) View() string {
	if m.quitting {
		return "bye\n"
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), m.viewport.View(), m.footerView())
}

func (m Model) headerView() string {
	title := titleStyle.Render("voxchat")

	state := statusStyle.Render("○ idle")
	switch {
	case m.connecting:
		state = statusStyle.Render("◌ connecting")
	case m.state.Active:
		state = recordingStyle.Render("● recording")
	}

	line := strings.Repeat("─", max(0, m.width-lipgloss.Width(title)-lipgloss.Width(state)-1))

	return lipgloss.JoinHorizontal(lipgloss.Center, title, line, " "+state)
}

func (m Model) footerView() string {
	var parts []string
	if m.state.Muted {
		parts = append(parts, "muted")
	}
	if m.state.Speaking {
		parts = append(parts, "speaking")
	}
	if m.state.Queued > 0 {
		parts = append(parts, fmt.Sprintf("%d clips queued", m.state.Queued))
	}
	if m.lastErr != "" {
		parts = append(parts, errorStyle.Render(m.lastErr))
	}

	status := statusStyle.Render(strings.Join(parts, " · "))
	hints := statusStyle.Render("space rec · m mute · tab log · ? help · q quit")

	line := strings.Repeat("─", max(0, m.width-lipgloss.Width(status)-lipgloss.Width(hints)))

	return lipgloss.JoinHorizontal(lipgloss.Center, status, line, hints)
}

func (m Model) contentView() string {
	switch {
	case m.showHelp:
		return m.helpView()
	case m.showLog:
		return m.logView()
	default:
		return m.transcriptView()
	}
}

func (m Model) transcriptView() string {
	entries := m.session.Transcript().Entries()
	if len(entries) == 0 {
		return noticeStyle.Render("Press space and start talking.")
	}

	wrap := lipgloss.NewStyle().Width(max(1, m.width))

	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(wrap.Render(m.renderEntry(entry)))
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func (m Model) renderEntry(entry transcript.Entry) string {
	switch entry.Role {
	case transcript.RoleUser:
		return userStyle.Render("you") + "  " + entry.Text
	case transcript.RoleAssistant:
		return assistantStyle.Render(m.assistantName) + "  " + entry.Text
	default:
		return noticeStyle.Render(entry.Text)
	}
}

func (m Model) logView() string {
	if len(m.logLines) == 0 {
		return noticeStyle.Render("No log messages yet.")
	}

	return strings.Join(m.logLines, "\n") + "\n"
}

func (m Model) helpView() string {
	keys := []struct{ key, action string }{
		{"space", "start/stop voice capture"},
		{"esc", "stop voice capture"},
		{"m", "mute/unmute assistant audio"},
		{"ctrl+l", "clear the chat log"},
		{"tab", "toggle the log pane"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Keys"))
	sb.WriteString("\n\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-8s %s\n", k.key, k.action)
	}

	return sb.String()
}
