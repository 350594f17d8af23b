package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"tender-crew/agent"
	"tender-crew/client"
	"tender-crew/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#EF4444")).
			Foreground(lipgloss.Color("#EF4444")).
			Padding(1).
			MarginBottom(1)

	faintStyle = lipgloss.NewStyle().Faint(true)
)

const statusWaiting = "waiting"

type workerStatus struct {
	name      string
	status    string
	spinner   spinner.Model
	startTime time.Time
	endTime   time.Time
}

// model is the bubbletea state of the interactive front end: a prompt editor,
// then per-worker progress, then the rendered result.
type model struct {
	ctx      context.Context
	pipeline *pipeline.Pipeline
	usage    *client.UsageTracker
	locale   agent.Locale

	textarea textarea.Model
	viewport viewport.Model
	workers  []workerStatus
	progress chan agent.ProgressUpdate

	fileName string
	fileData []byte

	processing bool
	finished   bool
	ready      bool
	quitting   bool

	result   string
	err      error
	duration time.Duration
}

type progressMsg agent.ProgressUpdate

type resultMsg struct {
	outcome pipeline.Outcome
	err     error
}

func newWorkerStatuses(names []string) []workerStatus {
	statuses := make([]workerStatus, len(names))
	for i, name := range names {
		s := spinner.New()
		s.Spinner = spinner.Dot
		s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
		statuses[i] = workerStatus{name: name, status: statusWaiting, spinner: s}
	}
	return statuses
}

func initialModel(ctx context.Context, p *pipeline.Pipeline, usage *client.UsageTracker, locale agent.Locale, fileName string, fileData []byte) model {
	ta := textarea.New()
	ta.Placeholder = placeholder(locale)
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(5)
	ta.Focus()

	return model{
		ctx:      ctx,
		pipeline: p,
		usage:    usage,
		locale:   locale,
		textarea: ta,
		workers:  newWorkerStatuses(p.Crew().Names()),
		fileName: fileName,
		fileData: fileData,
	}
}

func placeholder(locale agent.Locale) string {
	if locale.Code == agent.Romanian.Code {
		return "Descrieți sarcina legată de licitație..."
	}
	return "Describe the tender task..."
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.YPosition = 1
			m.ready = true
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4
		m.textarea.SetWidth(min(msg.Width-2, 100))
		if m.finished {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch {
		case m.processing:
			return m, nil
		case m.finished:
			switch msg.String() {
			case "q", "esc":
				m.quitting = true
				return m, tea.Quit
			case "n":
				m.finished = false
				m.err = nil
				m.result = ""
				m.textarea.Reset()
				m.textarea.Focus()
				return m, textarea.Blink
			case "up", "k":
				m.viewport.LineUp(1)
			case "down", "j":
				m.viewport.LineDown(1)
			case "pgup", "b":
				m.viewport.HalfViewUp()
			case "pgdown", "f":
				m.viewport.HalfViewDown()
			case "home", "g":
				m.viewport.GotoTop()
			case "end", "G":
				m.viewport.GotoBottom()
			}
			return m, nil
		default:
			switch msg.String() {
			case "esc":
				m.quitting = true
				return m, tea.Quit
			case "ctrl+s":
				return m.startProcessing()
			}
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}

	case progressMsg:
		for i := range m.workers {
			if m.workers[i].name != msg.Worker {
				continue
			}
			m.workers[i].status = msg.Status
			switch msg.Status {
			case agent.StatusStarted:
				m.workers[i].startTime = time.Now()
				cmds = append(cmds, m.workers[i].spinner.Tick)
			case agent.StatusCompleted, agent.StatusError:
				m.workers[i].endTime = time.Now()
			}
			break
		}
		if m.processing {
			cmds = append(cmds, listenForProgress(m.progress))
		}

	case spinner.TickMsg:
		if m.processing {
			for i := range m.workers {
				if m.workers[i].status == agent.StatusStarted {
					m.workers[i].spinner, cmd = m.workers[i].spinner.Update(msg)
					cmds = append(cmds, cmd)
				}
			}
		}

	case resultMsg:
		m.processing = false
		m.finished = true
		m.duration = msg.outcome.Duration
		m.result = msg.outcome.Result.Text
		m.err = msg.err
		if m.ready {
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
		}

	default:
		if !m.processing && !m.finished {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// startProcessing submits the prompt. Progress arrives on a channel sized to
// hold every update of one delegation, so the crew never blocks on the UI.
func (m model) startProcessing() (tea.Model, tea.Cmd) {
	prompt := m.textarea.Value()
	if strings.TrimSpace(prompt) == "" {
		m.err = pipeline.ErrEmptyPrompt
		return m, nil
	}

	names := m.pipeline.Crew().Names()
	progress := make(chan agent.ProgressUpdate, 2*len(names))
	m.pipeline.Crew().Manager.Progress = func(u agent.ProgressUpdate) {
		progress <- u
	}

	m.err = nil
	m.processing = true
	m.progress = progress
	m.workers = newWorkerStatuses(names)
	m.textarea.Blur()

	sub := pipeline.Submission{Prompt: prompt, FileName: m.fileName, FileData: m.fileData}
	m.fileName, m.fileData = "", nil

	ctx := m.ctx
	p := m.pipeline
	return m, tea.Batch(
		func() tea.Msg {
			outcome, err := p.Submit(ctx, sub)
			close(progress)
			return resultMsg{outcome: outcome, err: err}
		},
		listenForProgress(progress),
	)
}

// listenForProgress waits for the next progress update. A closed channel
// yields no message.
func listenForProgress(ch <-chan agent.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(u)
	}
}

func (m model) View() string {
	if m.quitting {
		return "\nGoodbye! 👋\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("📑 Tender Crew"))
	s.WriteString("\n")

	switch {
	case m.finished:
		if !m.ready {
			return "\nInitializing...\n"
		}
		s.WriteString(m.viewport.View())
		s.WriteString("\n" + faintStyle.Render("↑/↓: scroll • n: new task • q: quit • g/G: top/bottom • pgup/pgdn: page up/down"))

	case m.processing:
		s.WriteString(m.renderCost())
		s.WriteString("\n\n")
		for _, w := range m.workers {
			s.WriteString(renderWorkerStatus(w))
			s.WriteString("\n")
		}
		s.WriteString("\n" + faintStyle.Render("ctrl+c: quit"))

	default:
		s.WriteString(m.textarea.View())
		s.WriteString("\n")
		if m.fileName != "" {
			s.WriteString(fmt.Sprintf("📎 %s\n", m.fileName))
		}
		if m.err != nil {
			s.WriteString(errorStyle.Render(m.err.Error()))
			s.WriteString("\n")
		}
		s.WriteString(faintStyle.Render("ctrl+s: submit • esc/ctrl+c: quit"))
	}

	return s.String()
}

func renderWorkerStatus(w workerStatus) string {
	var icon string
	var color lipgloss.Color

	switch w.status {
	case agent.StatusStarted:
		icon = w.spinner.View()
		color = lipgloss.Color("#7C3AED")
	case agent.StatusCompleted:
		icon = "✅"
		color = lipgloss.Color("#04B575")
	case agent.StatusError:
		icon = "❌"
		color = lipgloss.Color("#EF4444")
	default:
		icon = "⏳"
		color = lipgloss.Color("#626262")
	}

	line := fmt.Sprintf("%s %s", icon, lipgloss.NewStyle().Foreground(color).Render(w.name))
	if !w.endTime.IsZero() {
		line += faintStyle.Render(fmt.Sprintf(" (%s)", w.endTime.Sub(w.startTime).Round(time.Millisecond)))
	}
	return line
}

func (m model) renderCost() string {
	if m.usage == nil {
		return ""
	}
	total := m.usage.Total()
	costStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	tokenStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	return costStyle.Render(fmt.Sprintf("💰 Total Cost: $%.4f", total.Cost)) + "  " +
		tokenStyle.Render(fmt.Sprintf("🔢 Total Tokens: %s", formatNumber(total.TotalTokens)))
}

// renderContent renders the final answer as markdown, or the error that
// stopped the crew.
func (m model) renderContent() string {
	if m.err != nil {
		content := m.err.Error()
		var genErr *agent.GenerationError
		var searchErr *agent.SearchError
		switch {
		case errors.As(m.err, &genErr):
			content = fmt.Sprintf("Agent: %s\nError: %v", genErr.Worker, genErr.Err)
		case errors.As(m.err, &searchErr):
			content = fmt.Sprintf("Agent: %s\nSearch: %s\nError: %v", searchErr.Worker, searchErr.Query, searchErr.Err)
		}
		return errorStyle.Width(max(m.viewport.Width-4, 20)).Render(content)
	}

	out := m.result
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.viewport.Width-4),
	)
	if err == nil {
		if rendered, err := renderer.Render(m.result); err == nil {
			out = strings.TrimRight(rendered, "\n")
		}
	}
	return out + "\n\n" + faintStyle.Render(fmt.Sprintf("⏱  %s", m.duration.Round(time.Millisecond)))
}

// formatUsage summarizes token usage per worker for the exit screen.
func formatUsage(usage *client.UsageTracker) string {
	if usage == nil || usage.Total().TotalTokens == 0 {
		return ""
	}

	var output strings.Builder
	total := usage.Total()
	output.WriteString("\n📊 Token usage:\n")
	output.WriteString(fmt.Sprintf("Total: %s tokens, $%.4f in %s\n\n",
		formatNumber(total.TotalTokens), total.Cost, usage.SessionDuration().Round(time.Second)))
	for _, w := range usage.Workers() {
		output.WriteString(fmt.Sprintf("  • %s: %s tokens in %d call(s), $%.4f\n",
			w.Worker, formatNumber(w.Usage.TotalTokens), w.CallCount, w.Usage.Cost))
	}
	output.WriteString("\n")
	return output.String()
}
