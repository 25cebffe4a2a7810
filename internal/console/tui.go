package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7aa2f7")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0caf5")).
			Background(lipgloss.Color("#33467c"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89")).
			Strikethrough(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89")).
			MarginTop(1)
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
)

// Model is the bubbletea model for the single-user todo screen.
type Model struct {
	list    *TodoList
	input   textinput.Model
	mode    mode
	cursor  int
	editID  int
	status  string
	isError bool
	width   int
}

func NewModel() Model {
	ti := textinput.New()
	ti.Placeholder = "task title"
	ti.CharLimit = 200
	return Model{
		list:  NewTodoList(),
		input: ti,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeList {
			return m.updateList(msg)
		}
		return m.updateInput(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.list.Items()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "a":
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Focus()
		m.setStatus("", false)
	case "e":
		if it := m.selected(); it != nil {
			m.mode = modeEdit
			m.editID = it.ID
			m.input.SetValue(it.Title)
			m.input.Focus()
			m.setStatus("", false)
		}
	case "c", "enter", " ":
		if it := m.selected(); it != nil {
			_, changed, err := m.list.Complete(it.ID)
			switch {
			case err != nil:
				m.setStatus(err.Error(), true)
			case !changed:
				m.setStatus(fmt.Sprintf("%q is already completed", it.Title), false)
			default:
				m.setStatus(fmt.Sprintf("Completed %q", it.Title), false)
			}
		}
	case "d":
		if it := m.selected(); it != nil {
			if _, err := m.list.Delete(it.ID); err != nil {
				m.setStatus(err.Error(), true)
			} else {
				m.setStatus(fmt.Sprintf("Deleted %q", it.Title), false)
				if m.cursor >= len(m.list.Items()) && m.cursor > 0 {
					m.cursor--
				}
			}
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		return m, nil
	case "enter":
		title := m.input.Value()
		var err error
		if m.mode == modeAdd {
			_, err = m.list.Add(title, "")
		} else {
			_, err = m.list.UpdateTitle(m.editID, title)
		}
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.mode = modeList
		m.input.Blur()
		m.setStatus("", false)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) selected() *Item {
	items := m.list.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return nil
	}
	return items[m.cursor]
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.isError = isErr
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("taskdeck"))
	b.WriteString("\n")

	items := m.list.Items()
	if len(items) == 0 && m.mode == modeList {
		b.WriteString(helpStyle.Render("No tasks yet. Press 'a' to add one."))
		b.WriteString("\n")
	}
	for i, it := range items {
		glyph := "[ ]"
		if it.Completed {
			glyph = "[x]"
		}
		line := fmt.Sprintf("%s %d. %s", glyph, it.ID, it.Title)
		switch {
		case i == m.cursor && m.mode == modeList:
			line = selectedStyle.Render(line)
		case it.Completed:
			line = doneStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.mode != modeList {
		prompt := "New task: "
		if m.mode == modeEdit {
			prompt = "New title: "
		}
		b.WriteString("\n" + prompt + m.input.View() + "\n")
	}

	if m.status != "" {
		style := statusStyle
		if m.isError {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}

	b.WriteString(helpStyle.Render(m.list.Summary() + "  |  a add · e edit · c complete · d delete · q quit"))
	return b.String()
}

// Run starts the interactive terminal UI and blocks until the user quits.
func Run() error {
	_, err := tea.NewProgram(NewModel(), tea.WithAltScreen()).Run()
	return err
}
