package batch

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	batchdto "rescollect/internal/modules/batch/dto"
	"rescollect/internal/ui/theme"
)

// SubmitMsg carries the edited metadata when the form is saved.
type SubmitMsg struct {
	Metadata batchdto.Metadata
}

var labels = []string{"Data type", "Route", "Ambient °C", "Date", "Comment"}

// Model shows the batch metadata and edits it in place.
type Model struct {
	inputs  []textinput.Model
	focus   int
	editing bool
	current batchdto.Metadata
	width   int
}

func New() Model {
	inputs := make([]textinput.Model, len(labels))
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 128
		ti.Prompt = ""
		inputs[i] = ti
	}
	inputs[3].Placeholder = "YYYY-MM-DD"
	return Model{inputs: inputs}
}

func (m Model) Editing() bool { return m.editing }

func (m *Model) SetWidth(w int) { m.width = w }

func (m *Model) SetMetadata(md batchdto.Metadata) {
	m.current = md
	if !m.editing {
		m.load(md)
	}
}

// Edit focuses the first field.
func (m *Model) Edit() tea.Cmd {
	m.editing = true
	m.load(m.current)
	m.focus = 0
	return m.inputs[0].Focus()
}

func (m *Model) load(md batchdto.Metadata) {
	for i, v := range []string{md.DataType, md.RouteID, md.AmbientTemperatureRange, md.Date, md.Comment} {
		m.inputs[i].SetValue(v)
	}
}

func (m Model) value() batchdto.Metadata {
	v := func(i int) string { return strings.TrimSpace(m.inputs[i].Value()) }
	return batchdto.Metadata{
		DataType:                v(0),
		RouteID:                 v(1),
		AmbientTemperatureRange: v(2),
		Date:                    v(3),
		Comment:                 v(4),
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.editing {
		return m, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.stop()
			m.load(m.current)
			return m, nil
		case "enter":
			out := m.value()
			m.stop()
			return m, func() tea.Msg { return SubmitMsg{Metadata: out} }
		case "down", "tab":
			return m, m.move(1)
		case "up", "shift+tab":
			return m, m.move(-1)
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) move(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m *Model) stop() {
	m.editing = false
	m.inputs[m.focus].Blur()
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Batch") + "\n\n")
	for i, label := range labels {
		marker := "  "
		if m.editing && i == m.focus {
			marker = theme.Hot.Render("› ")
		}
		sb.WriteString(marker + theme.Muted.Render(padRight(label, 12)) + m.inputs[i].View() + "\n")
	}
	sb.WriteString("\n")
	if m.editing {
		sb.WriteString(theme.Muted.Render("↑/↓: field  enter: save  esc: discard"))
	} else {
		sb.WriteString(theme.Muted.Render("e: edit"))
	}
	style := theme.Pane
	if m.editing {
		style = theme.PaneActive
	}
	return style.Width(max(m.width-4, 40)).Render(sb.String())
}

func padRight(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
