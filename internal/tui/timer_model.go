package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfadeev/ttrack/internal/tracker"
)

// TimerModel is the interactive timer shown while a session is running.
type TimerModel struct {
	width  int
	height int

	tracker     *tracker.Tracker
	project     string
	description string
	category    string
	startedAt   time.Time

	// Break state mirrors the store: breakAccum holds closed break time,
	// breakStart is set while a break is open.
	onBreak    bool
	breakType  string
	breakStart time.Time
	breakAccum time.Duration

	elapsedTime time.Duration

	// Animation state
	timerAnimation int

	// UI state
	stopping bool // user pressed S, stop and save
	exiting  bool // user pressed ESC/Q, leave the session running
	err      error
}

// timerTickMsg is sent every second to update the timer
type timerTickMsg struct{}

// animationTickMsg is sent for faster animations
type animationTickMsg struct{}

// NewTimerModel creates a timer model for a just-started session.
func NewTimerModel(tr *tracker.Tracker, start *tracker.StartResult) TimerModel {
	return TimerModel{
		tracker:     tr,
		project:     start.Project,
		description: start.Description,
		category:    start.Category,
		startedAt:   start.StartTime,
	}
}

// Init initializes the timer model
func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(
		tea.Tick(time.Second, func(t time.Time) tea.Msg {
			return timerTickMsg{}
		}),
		tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
			return animationTickMsg{}
		}),
	)
}

// workElapsed is wall-clock time minus break time, open break included.
func (m TimerModel) workElapsed(now time.Time) time.Duration {
	elapsed := now.Sub(m.startedAt) - m.breakAccum
	if m.onBreak {
		elapsed -= now.Sub(m.breakStart)
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Update handles messages
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		m.elapsedTime = m.workElapsed(time.Now())
		if !m.stopping && !m.exiting {
			return m, tea.Tick(time.Second, func(t time.Time) tea.Msg {
				return timerTickMsg{}
			})
		}
		return m, nil

	case animationTickMsg:
		m.timerAnimation = (m.timerAnimation + 1) % 4
		if !m.stopping && !m.exiting {
			return m, tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
				return animationTickMsg{}
			})
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "b", "B":
			result, err := m.tracker.ToggleBreak(m.project, "break")
			if err != nil {
				m.err = err
				return m, nil
			}
			if result.Action == "started" {
				m.onBreak = true
				m.breakType = result.BreakType
				m.breakStart = *result.StartTime
			} else {
				m.onBreak = false
				m.breakAccum += time.Duration(*result.DurationMinutes) * time.Minute
			}
			return m, nil
		case "s", "S":
			// Stop the timer and save
			m.stopping = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			// Exit without stopping
			m.exiting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the timer TUI
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	// Narrow view: just the timer panel, full width
	if m.width < 90 {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			m.renderTimerPanel(m.width, contentHeight),
			helpBar,
		)
	}

	// Wide view: timer on the left, session details on the right
	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTimerPanel(leftWidth, contentHeight),
		"  ",
		m.renderSessionPanel(rightWidth, contentHeight),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		helpBar,
	)
}

// renderTimerPanel renders the left timer panel
func (m TimerModel) renderTimerPanel(width, height int) string {
	var components []string

	animChars := []string{"⏱", "⏲", "⏱", "⏲"}
	animChar := animChars[m.timerAnimation]
	headerText := fmt.Sprintf("%s  TRACKING TIME  %s", animChar, animChar)
	headerColor := ColorAccentBright
	if m.onBreak {
		headerText = fmt.Sprintf("☕  ON %s  ☕", strings.ToUpper(m.breakType))
		headerColor = ColorWarning
	}

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(headerColor)).
		Bold(true).
		Align(lipgloss.Center).
		Width(width)
	components = append(components, headerStyle.Render(headerText))

	projectStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Align(lipgloss.Center).
		Width(width)
	components = append(components, projectStyle.Render(m.project))

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Align(lipgloss.Center).
		Width(width)
	titleText := m.description
	if len(titleText) > width-4 {
		titleText = titleText[:width-7] + "..."
	}
	components = append(components, titleStyle.Render(titleText))

	// Big clock display
	clockDisplay := m.renderBigClock()
	clockContent := ""
	for _, line := range strings.Split(clockDisplay, "\n") {
		clockContent += lipgloss.NewStyle().
			Align(lipgloss.Center).
			Width(width).
			Render(line) + "\n"
	}
	components = append(components, strings.TrimRight(clockContent, "\n"))

	sessionInfo := fmt.Sprintf("Started at %s", m.startedAt.Format("15:04:05"))
	sessionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(width)
	components = append(components, sessionStyle.Render(sessionInfo))

	if m.err != nil {
		errStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Align(lipgloss.Center).
			Width(width)
		components = append(components, errStyle.Render(m.err.Error()))
	}

	content := strings.Join(components, "\n\n")

	panelStyle := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return panelStyle.Render(content)
}

// renderBigClock renders ASCII art clock
func (m TimerModel) renderBigClock() string {
	duration := m.elapsedTime
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	// ASCII art for digits (5x5 characters each)
	digits := map[rune][][]string{
		'0': {
			{" ███ "},
			{"█   █"},
			{"█   █"},
			{"█   █"},
			{" ███ "},
		},
		'1': {
			{"  █  "},
			{" ██  "},
			{"  █  "},
			{"  █  "},
			{"█████"},
		},
		'2': {
			{" ███ "},
			{"█   █"},
			{"   █ "},
			{"  █  "},
			{"█████"},
		},
		'3': {
			{" ███ "},
			{"█   █"},
			{"  ██ "},
			{"█   █"},
			{" ███ "},
		},
		'4': {
			{"█   █"},
			{"█   █"},
			{"█████"},
			{"    █"},
			{"    █"},
		},
		'5': {
			{"█████"},
			{"█    "},
			{"████ "},
			{"    █"},
			{"████ "},
		},
		'6': {
			{" ███ "},
			{"█    "},
			{"████ "},
			{"█   █"},
			{" ███ "},
		},
		'7': {
			{"█████"},
			{"    █"},
			{"   █ "},
			{"  █  "},
			{" █   "},
		},
		'8': {
			{" ███ "},
			{"█   █"},
			{" ███ "},
			{"█   █"},
			{" ███ "},
		},
		'9': {
			{" ███ "},
			{"█   █"},
			{" ████"},
			{"    █"},
			{" ███ "},
		},
		':': {
			{"     "},
			{"  █  "},
			{"     "},
			{"  █  "},
			{"     "},
		},
	}

	timeStr := ""
	if hours > 0 {
		timeStr = fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	} else {
		timeStr = fmt.Sprintf("%02d:%02d", minutes, seconds)
	}

	var lines [5]strings.Builder
	for _, char := range timeStr {
		if digitArt, ok := digits[char]; ok {
			for i := 0; i < 5; i++ {
				lines[i].WriteString(digitArt[i][0])
				lines[i].WriteString(" ")
			}
		}
	}

	clockColor := ColorAccentBright
	if m.onBreak {
		clockColor = ColorDisabledText
	}
	clockStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(clockColor)).
		Bold(true)

	var result strings.Builder
	for i := 0; i < 5; i++ {
		result.WriteString(clockStyle.Render(lines[i].String()))
		if i < 4 {
			result.WriteString("\n")
		}
	}

	return result.String()
}

// renderSessionPanel renders the right panel with session details
func (m TimerModel) renderSessionPanel(width, height int) string {
	var b strings.Builder

	b.WriteString("\n")

	logoLines := []string{
		"████████╗████████╗██████╗  █████╗  ██████╗██╗  ██╗",
		"╚══██╔══╝╚══██╔══╝██╔══██╗██╔══██╗██╔════╝██║ ██╔╝",
		"   ██║      ██║   ██████╔╝███████║██║     █████╔╝ ",
		"   ██║      ██║   ██╔══██╗██╔══██║██║     ██╔═██╗ ",
		"   ██║      ██║   ██║  ██║██║  ██║╚██████╗██║  ██╗",
		"   ╚═╝      ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝",
	}

	logoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Align(lipgloss.Center).
		Width(width - 8)
	b.WriteString(logoStyle.Render(strings.Join(logoLines, "\n")))
	b.WriteString("\n\n")

	separatorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorBorder)).
		Align(lipgloss.Center).
		Width(width - 8)
	b.WriteString(separatorStyle.Render(strings.Repeat("─", min(width-12, 40))))
	b.WriteString("\n\n")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(width - 12).
		Padding(0, 1)
	b.WriteString(titleStyle.Render(m.description))
	b.WriteString("\n\n")

	lineStyle := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(width - 8)

	stateIcon := "⏱"
	stateColor := ColorSuccess
	stateText := "working"
	if m.onBreak {
		stateIcon = "☕"
		stateColor = ColorWarning
		stateText = "on " + m.breakType
	}
	stateLine := fmt.Sprintf("%s State: %s", stateIcon,
		lipgloss.NewStyle().Foreground(lipgloss.Color(stateColor)).Bold(true).Render(stateText))
	b.WriteString(lineStyle.Render(stateLine))
	b.WriteString("\n")

	projectLine := fmt.Sprintf("📁 Project: %s",
		lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Render(m.project))
	b.WriteString(lineStyle.Render(projectLine))
	b.WriteString("\n")

	categoryLine := fmt.Sprintf("🏷️  Category: %s",
		lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Render(m.category))
	b.WriteString(lineStyle.Render(categoryLine))
	b.WriteString("\n")

	breakValue := "none yet"
	breakColor := ColorDisabledText
	if m.breakAccum > 0 {
		breakValue = formatDuration(m.breakAccum)
		breakColor = ColorWarning
	}
	breakLine := fmt.Sprintf("☕ Break time: %s",
		lipgloss.NewStyle().Foreground(lipgloss.Color(breakColor)).Render(breakValue))
	b.WriteString(lineStyle.Render(breakLine))
	b.WriteString("\n")

	startedLine := fmt.Sprintf("📝 Started: %s",
		lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Render(m.startedAt.Format("Jan 02, 15:04")))
	b.WriteString(lineStyle.Render(startedLine))

	return b.String()
}

// renderHelpBar renders the help bar at the bottom
func (m TimerModel) renderHelpBar() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)

	helpText := "b break · s stop & save · esc/q exit (keep running) · ctrl+c force quit"

	return helpStyle.Render(helpText)
}

// RunTimerTUI runs the timer for a just-started session.
func RunTimerTUI(tr *tracker.Tracker, start *tracker.StartResult) error {
	model := NewTimerModel(tr, start)

	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	timerModel := finalModel.(TimerModel)
	if timerModel.stopping {
		stopped, err := tr.StopSession(timerModel.project)
		if err != nil {
			return fmt.Errorf("failed to stop session: %w", err)
		}

		duration := time.Duration(stopped.DurationMinutes) * time.Minute
		fmt.Printf("⏹️  Stopped tracking %s: %s\n", timerModel.project, stopped.Description)
		fmt.Printf("📊 Session duration: %s\n", formatDuration(duration))
	} else if timerModel.exiting {
		fmt.Printf("\n💡 Session is still running for %s: %s\n", timerModel.project, timerModel.description)
		fmt.Printf("   Use 'ttrack status' to check it or 'ttrack stop' to stop it.\n")
	}

	return nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}
