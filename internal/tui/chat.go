// Package tui renders the chat transcript and input box with bubbletea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"

	"github.com/petasbytes/go-toolchat/internal/dispatch"
)

const (
	// Greeting is the first transcript line of every session.
	Greeting = "Hello! How can I assist you today?"

	UserLabel      = "You:"
	AssistantLabel = "AI:"

	defaultViewportWidth  = 80
	defaultViewportHeight = 20
	minMarkdownWidth      = 20
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
)

var (
	colorCyan   = lipgloss.Color("86")
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("203")
	colorMuted  = lipgloss.Color("240")
	colorBorder = lipgloss.Color("238")
)

var ErrDispatcherNil = errors.New("dispatcher cannot be nil")

// ChatMessage is one transcript entry.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatModel is the state of the chat screen. It only reads results from the
// dispatcher's channel; turns themselves run elsewhere.
type ChatModel struct {
	dispatcher *dispatch.Dispatcher
	modelName  string
	messages   []ChatMessage
	viewport   viewport.Model
	textarea   textarea.Model
	spinner    spinner.Model
	isLoading  bool
	width      int
	height     int
	ready      bool
}

func NewChatModel(d *dispatch.Dispatcher, modelName string) (*ChatModel, error) {
	if d == nil {
		return nil, ErrDispatcherNil
	}

	vp := viewport.New(defaultViewportWidth, defaultViewportHeight)

	ta := textarea.New()
	ta.Placeholder = "Type your message... (Enter to send, Ctrl+C to quit)"
	ta.Focus()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorCyan)

	m := &ChatModel{
		dispatcher: d,
		modelName:  modelName,
		viewport:   vp,
		textarea:   ta,
		spinner:    s,
	}
	m.addMessage(roleAssistant, Greeting)
	m.updateViewportContent()
	return m, nil
}

func (m *ChatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m *ChatModel) handleWindowResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := lipgloss.Height(m.headerView())
	footerHeight := lipgloss.Height(m.footerView())
	vpHeight := max(msg.Height-headerHeight-footerHeight-4, 1)

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.viewport.YPosition = headerHeight + 1
		m.textarea.SetHeight(3)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(msg.Width - 4)
	m.updateViewportContent()
}

func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowResize(msg)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKeyMsg(msg); handled {
			return m, cmd
		}

	case replyMsg:
		m.handleReply(dispatch.Result(msg))
		return m, textarea.Blink

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	if !m.isLoading {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit hands text to the dispatcher and switches the screen to loading.
func (m *ChatModel) submit(text string) tea.Cmd {
	if err := m.dispatcher.Submit(text); err != nil {
		if errors.Is(err, dispatch.ErrEmptyInput) {
			return nil
		}
		m.addMessage(roleSystem, fmt.Sprintf("Error: %v", err))
		m.updateViewportContent()
		return nil
	}

	m.addMessage(roleUser, strings.TrimSpace(text))
	m.textarea.Reset()
	m.textarea.Blur()
	m.isLoading = true
	m.updateViewportContent()
	return tea.Batch(m.spinner.Tick, waitForReply(m.dispatcher))
}

func (m *ChatModel) handleReply(res dispatch.Result) {
	m.addMessage(roleAssistant, res.Reply)
	m.dispatcher.Settle()
	m.isLoading = false
	m.textarea.Focus()
	m.updateViewportContent()
}

func (m *ChatModel) View() string {
	if !m.ready {
		return "\n  Initializing chat..."
	}
	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), m.viewport.View(), m.footerView())
}

func (m *ChatModel) headerView() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(colorCyan).
		Bold(true).
		Padding(0, 1)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 1)

	lines := []string{titleStyle.Render("Tool Chat")}
	if m.modelName != "" {
		lines = append(lines, subtitleStyle.Render(fmt.Sprintf("Model: %s | Tools: google_search, get_weather", m.modelName)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *ChatModel) footerView() string {
	var content string
	if m.isLoading {
		content = fmt.Sprintf("%s AI is thinking...", m.spinner.View())
	} else {
		help := lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true).
			Render("Enter: Send | Ctrl+C: Quit")
		content = fmt.Sprintf("%s\n%s", m.textarea.View(), help)
	}

	return lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		Padding(1, 0).
		Render(content)
}

func (m *ChatModel) addMessage(role, content string) {
	m.messages = append(m.messages, ChatMessage{Role: role, Content: content})
}

func (m *ChatModel) updateViewportContent() {
	var parts []string

	for _, msg := range m.messages {
		var style lipgloss.Style
		var prefix string

		switch msg.Role {
		case roleUser:
			style = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			prefix = UserLabel
		case roleAssistant:
			style = lipgloss.NewStyle().Foreground(colorCyan)
			prefix = AssistantLabel
		default:
			style = lipgloss.NewStyle().Foreground(colorRed).Italic(true)
			prefix = "System:"
		}

		var body string
		if msg.Role == roleAssistant {
			body = m.renderMarkdown(msg.Content)
		} else {
			body = m.plain(msg.Content)
		}
		parts = append(parts, style.Render(prefix), body, "")
	}

	m.viewport.SetContent(strings.Join(parts, "\n"))
	m.viewport.GotoBottom()
}

func (m *ChatModel) plain(content string) string {
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Width(max(m.viewport.Width-4, minMarkdownWidth)).
		Render(content)
}

// renderMarkdown renders assistant text with glamour, falling back to plain text.
func (m *ChatModel) renderMarkdown(content string) string {
	width := max(m.viewport.Width-4, minMarkdownWidth)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return m.plain(content)
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return m.plain(content)
	}

	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n ")
}

type replyMsg dispatch.Result

// waitForReply blocks on the dispatcher channel outside the event loop.
func waitForReply(d *dispatch.Dispatcher) tea.Cmd {
	return func() tea.Msg {
		return replyMsg(<-d.Results())
	}
}

// RunChat starts the full-screen chat program and blocks until it exits.
func RunChat(d *dispatch.Dispatcher, modelName string, opts ...tea.ProgramOption) error {
	model, err := NewChatModel(d, modelName)
	if err != nil {
		return errors.Wrap(err, "failed to create chat model")
	}
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err = tea.NewProgram(model, opts...).Run()
	return err
}
