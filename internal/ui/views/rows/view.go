package rows

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	rowsdto "rescollect/internal/modules/rows/dto"
	"rescollect/internal/ui/theme"
)

// Model renders the row set as a table. Row order is the collector's order.
type Model struct {
	table  table.Model
	rows   []rowsdto.RowOutput
	width  int
	height int
}

func New() Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(theme.Accent).BorderForeground(theme.Border).Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Background).Background(theme.Highlight)
	t.SetStyles(styles)
	return Model{table: t}
}

func columns(width int) []table.Column {
	comment := width - 6 - 16 - 4*12 - 12
	if comment < 10 {
		comment = 10
	}
	return []table.Column{
		{Title: "#", Width: 6},
		{Title: "Measured", Width: 16},
		{Title: "F, Hz", Width: 12},
		{Title: "±F", Width: 12},
		{Title: "Rk, Ω", Width: 12},
		{Title: "±Rk", Width: 12},
		{Title: "Comment", Width: comment},
	}
}

func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.table.SetColumns(columns(width))
	m.table.SetWidth(width)
	m.table.SetHeight(max(height-2, 3))
}

func (m *Model) SetRows(rows []rowsdto.RowOutput) {
	m.rows = slices.Clone(rows)
	m.refresh()
}

func (m *Model) RemoveRow(id int64) {
	m.rows = slices.DeleteFunc(m.rows, func(r rowsdto.RowOutput) bool { return r.ID == id })
	m.refresh()
}

func (m *Model) UpdateRow(row rowsdto.RowOutput) {
	for i := range m.rows {
		if m.rows[i].ID == row.ID {
			m.rows[i] = row
		}
	}
	m.refresh()
}

// Selected returns the row under the cursor.
func (m Model) Selected() (rowsdto.RowOutput, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return rowsdto.RowOutput{}, false
	}
	return m.rows[i], true
}

func (m Model) Len() int {
	return len(m.rows)
}

func (m *Model) refresh() {
	out := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, table.Row{
			strconv.FormatInt(r.ID, 10),
			humanize.Time(r.Timestamp),
			fmt.Sprintf("%.3f", r.Frequency),
			fmt.Sprintf("%.3f", r.FrequencyDeviation),
			fmt.Sprintf("%.3f", r.Resistance),
			fmt.Sprintf("%.3f", r.ResistanceDeviation),
			r.Comment,
		})
	}
	m.table.SetRows(out)
	if c := m.table.Cursor(); c >= len(out) && len(out) > 0 {
		m.table.SetCursor(len(out) - 1)
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.rows) == 0 {
		return theme.Pane.Width(max(m.width-4, 20)).Render(
			theme.Muted.Render("No rows yet. Press a to measure."))
	}
	return theme.PaneActive.Render(m.table.View())
}
