package measure

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rescollect/internal/modules/measurement/domain"
	"rescollect/internal/platform/boxplot"
	"rescollect/internal/ui/theme"
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Model is the progress dialog of the running measurement. It stays
// visible after the session closed until Dismiss is called.
type Model struct {
	spinner spinner.Model
	view    domain.View
	result  *domain.Result
	open    bool
	width   int
}

func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Highlight)
	return Model{spinner: sp}
}

func (m Model) Visible() bool { return m.open }

// Running reports whether the dialog shows a session that has not closed.
func (m Model) Running() bool { return m.open && m.result == nil }

func (m *Model) SetWidth(w int) { m.width = w }

func (m *Model) Open(view domain.View) tea.Cmd {
	m.open = true
	m.result = nil
	m.view = view
	return m.spinner.Tick
}

func (m *Model) Progress(view domain.View) {
	m.view = view
}

func (m *Model) Close(result domain.Result) {
	m.open = true
	m.result = &result
	m.view = result.View
}

func (m *Model) Dismiss() {
	m.open = false
	m.result = nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok && m.Running() {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if !m.open {
		return ""
	}
	v := m.view
	var sb strings.Builder

	header := "Measuring: " + v.Request.String()
	switch {
	case m.result == nil:
		header = m.spinner.View() + " " + header
	case m.result.Outcome == domain.OutcomeFinished:
		header = theme.Title.Render("✓ ") + header
	default:
		header = theme.Hot.Render("✗ ") + header
	}
	sb.WriteString(theme.Title.Render(header) + "\n\n")

	elapsed := v.UpdatedAt.Sub(v.StartedAt).Truncate(100 * time.Millisecond)
	fmt.Fprintf(&sb, "phase     %s   updates %d   elapsed %s\n", v.Phase, v.Updates, elapsed)
	fmt.Fprintf(&sb, "%s %-12s n=%-4d %s\n", theme.Frequency.Render("F        "), v.LatestFrequency, len(v.Frequencies), summary(v.FrequencySummary))
	fmt.Fprintf(&sb, "%s %-12s n=%-4d %s\n", theme.Resistance.Render("Rk       "), v.LatestResistance, len(v.Resistances), summary(v.ResistanceSummary))
	if line := Sparkline(v.Resistances, 40); line != "" {
		sb.WriteString(theme.Muted.Render("          ") + theme.Resistance.Render(line) + "\n")
	}

	sb.WriteString("\n")
	switch {
	case m.result == nil:
		sb.WriteString(theme.Muted.Render("c: cancel"))
	case m.result.Err != nil:
		sb.WriteString(theme.Hot.Render(m.result.Err.Error()) + "\n" + theme.Muted.Render("esc: close"))
	default:
		sb.WriteString(theme.Muted.Render(string(m.result.Outcome) + "  esc: close"))
	}

	w := m.width
	if w < 40 {
		w = 72
	}
	return theme.PaneActive.Width(w - 4).Render(sb.String())
}

func summary(b *boxplot.BoxPlot) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("median %.3f  iqr %.3f  [%.3f, %.3f]", b.Median, b.IQR, b.LowerBound, b.UpperBound)
}

// Sparkline renders the last width samples as block characters scaled
// between their minimum and maximum.
func Sparkline(samples []float64, width int) string {
	if len(samples) == 0 || width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}
	lo, hi := samples[0], samples[0]
	for _, s := range samples {
		lo, hi = min(lo, s), max(hi, s)
	}
	var sb strings.Builder
	for _, s := range samples {
		idx := 0
		if hi > lo {
			idx = int((s - lo) / (hi - lo) * float64(len(sparkTicks)-1))
		}
		sb.WriteRune(sparkTicks[idx])
	}
	return sb.String()
}
