package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rescollect/internal/ui/theme"
)

// PaletteSubmitMsg carries the confirmed command line, trimmed.
type PaletteSubmitMsg struct{ Input string }

type PaletteCancelMsg struct{}

// Command describes one palette entry for hinting and completion.
type Command struct {
	Name string
	Args string
	Help string
}

// Commands lists what app.Model.executePalette understands.
var Commands = []Command{
	{Name: "measure", Help: "append a new row"},
	{Name: "remeasure", Args: "<id>", Help: "replace a row in place"},
	{Name: "insert", Args: "<id>", Help: "measure a row before <id>"},
	{Name: "cancel", Help: "interrupt the running measurement"},
	{Name: "remove", Args: "<id>", Help: "delete a row"},
	{Name: "comment", Args: "<id> <text>", Help: "replace a row comment"},
	{Name: "reload", Help: "fetch rows and batch metadata"},
	{Name: "reset", Help: "clear every row and the batch metadata"},
	{Name: "batch:edit", Help: "edit batch metadata"},
}

const (
	maxHints   = 5
	maxHistory = 20
)

// Palette is a one-line command prompt with prefix hints, tab completion of
// the command name and recall of earlier submissions with up and down.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
	history []string
	recall  int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "command"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

func (p *Palette) Open() tea.Cmd {
	return p.OpenWith("")
}

// OpenWith shows the palette with value already typed, cursor at the end.
func (p *Palette) OpenWith(value string) tea.Cmd {
	p.visible = true
	p.recall = len(p.history)
	p.input.SetValue(value)
	p.input.CursorEnd()
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			line := strings.TrimSpace(p.input.Value())
			p.close()
			p.remember(line)
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: line} }
		case "tab":
			p.complete()
			return p, nil
		case "up":
			p.step(-1)
			return p, nil
		case "down":
			p.step(1)
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) remember(line string) {
	if line == "" || (len(p.history) > 0 && p.history[len(p.history)-1] == line) {
		return
	}
	p.history = append(p.history, line)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
}

func (p *Palette) step(delta int) {
	next := p.recall + delta
	if next < 0 || next > len(p.history) {
		return
	}
	p.recall = next
	value := ""
	if next < len(p.history) {
		value = p.history[next]
	}
	p.input.SetValue(value)
	p.input.CursorEnd()
}

// complete fills in the command name when exactly one command matches the
// typed prefix.
func (p *Palette) complete() {
	value := p.input.Value()
	if strings.Contains(value, " ") {
		return
	}
	matches := matchCommands(value)
	if len(matches) != 1 {
		return
	}
	completed := matches[0].Name
	if matches[0].Args != "" {
		completed += " "
	}
	p.input.SetValue(completed)
	p.input.CursorEnd()
}

func matchCommands(typed string) []Command {
	name, _, _ := strings.Cut(strings.ToLower(strings.TrimLeft(typed, " ")), " ")
	var out []Command
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, name) {
			out = append(out, c)
		}
	}
	return out
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command") + "\n")
	sb.WriteString(p.input.View() + "\n")

	matches := matchCommands(p.input.Value())
	if len(matches) > 0 {
		sb.WriteString("\n")
	}
	for i, c := range matches {
		if i == maxHints {
			sb.WriteString(theme.Muted.Render("  …") + "\n")
			break
		}
		usage := strings.TrimSpace(c.Name + " " + c.Args)
		sb.WriteString("  " + usage + theme.Muted.Render("  "+c.Help) + "\n")
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return theme.Overlay.Width(w - 2).Render(sb.String())
}
