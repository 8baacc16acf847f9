package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StartModel prompts for a session description before starting the timer.
type StartModel struct {
	input  textinput.Model
	width  int
	height int

	project  string
	category string

	completed     bool
	cancelled     bool
	validationErr string
}

// NewStartModel creates the description prompt for a project.
func NewStartModel(project, category string) StartModel {
	input := textinput.New()
	input.Width = 60
	input.CharLimit = 200
	input.Placeholder = "What are you working on? (required)"
	input.Focus()

	input.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	input.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
	input.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))

	return StartModel{
		input:    input,
		project:  project,
		category: category,
	}
}

// Init initializes the start model
func (m StartModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m StartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.validationErr = "Description is required"
				return m, nil
			}
			m.completed = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.validationErr != "" && strings.TrimSpace(m.input.Value()) != "" {
		m.validationErr = ""
	}
	return m, cmd
}

// View renders the prompt
func (m StartModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var components []string

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Align(lipgloss.Center).
		Width(m.width)
	components = append(components, headerStyle.Render("⏱  START SESSION  ⏱"))

	projectStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Align(lipgloss.Center).
		Width(m.width)
	components = append(components, projectStyle.Render(m.project+" · "+m.category))

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(0, 1)
	inputBox := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(m.width).
		Render(inputStyle.Render(m.input.View()))
	components = append(components, inputBox)

	if m.validationErr != "" {
		errStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Align(lipgloss.Center).
			Width(m.width)
		components = append(components, errStyle.Render(m.validationErr))
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)
	components = append(components, helpStyle.Render("enter start · esc cancel"))

	content := strings.Join(components, "\n\n")

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height - 1).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// RunStartTUI prompts for a description. The second return is false when the
// user cancelled.
func RunStartTUI(project, category string) (string, bool, error) {
	model := NewStartModel(project, category)

	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return "", false, err
	}

	startModel := finalModel.(StartModel)
	if startModel.cancelled || !startModel.completed {
		return "", false, nil
	}
	return strings.TrimSpace(startModel.input.Value()), true, nil
}
