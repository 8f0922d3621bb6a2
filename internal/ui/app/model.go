package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	batchdto "rescollect/internal/modules/batch/dto"
	measurementdto "rescollect/internal/modules/measurement/dto"
	rowsdto "rescollect/internal/modules/rows/dto"
	"rescollect/internal/ui/components"
	"rescollect/internal/ui/theme"
	batchview "rescollect/internal/ui/views/batch"
	measureview "rescollect/internal/ui/views/measure"
	rowsview "rescollect/internal/ui/views/rows"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type rowsPort interface {
	Start(ctx context.Context, input rowsdto.StartInput) (measurementdto.RunOutput, error)
	Cancel(ctx context.Context) error
	Remove(ctx context.Context, id int64) error
	EditComment(ctx context.Context, id int64, comment string) error
	Reset(ctx context.Context) error
	Reload(ctx context.Context) error
}

type batchPort interface {
	Show(ctx context.Context) (batchdto.Metadata, error)
	Update(ctx context.Context, input batchdto.Metadata) error
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabRows tabID = iota
	tabBatch
	tabCount
)

var tabLabels = [tabCount]string{"Rows", "Batch"}

// ─── async messages ──────────────────────────────────────────────────────────

type measureDoneMsg struct {
	out measurementdto.RunOutput
	err error
}

type metadataSavedMsg struct {
	metadata batchdto.Metadata
	err      error
}

// opDoneMsg ends a row operation. Failures were already reported through
// the notifier.
type opDoneMsg struct{}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Append   key.Binding
	Remeas   key.Binding
	Insert   key.Binding
	Delete   key.Binding
	Edit     key.Binding
	Cancel   key.Binding
	Reset    key.Binding
	Tab      key.Binding
	Help     key.Binding
	Palette  key.Binding
	Quit     key.Binding
	Dismiss  key.Binding
	Navigate key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Append:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "measure and append")),
		Remeas:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "re-measure row")),
		Insert:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "measure before row")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete row")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit comment / batch")),
		Cancel:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel measurement")),
		Reset:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset batch")),
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Dismiss:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close dialog")),
		Navigate: key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "select row")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Append, k.Cancel, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Append, k.Remeas, k.Insert, k.Cancel},
		{k.Navigate, k.Delete, k.Edit, k.Reset},
		{k.Tab, k.Dismiss, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes keys to the row and batch
// use cases and renders what the Bridge reports back.
type Model struct {
	ctx   context.Context
	rows  rowsPort
	batch batchPort

	rowsView  rowsview.Model
	batchView batchview.Model
	dialog    measureview.Model

	activeTab    tabID
	keys         keyMap
	help         help.Model
	showHelp     bool
	palette      components.Palette
	confirmReset bool
	status       string
	statusLevel  noticeLevel
	width        int
	height       int
}

func NewModel(ctx context.Context, rows rowsPort, batch batchPort) Model {
	return Model{
		ctx:       ctx,
		rows:      rows,
		batch:     batch,
		rowsView:  rowsview.New(),
		batchView: batchview.New(),
		dialog:    measureview.New(),
		activeTab: tabRows,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.reloadCmd(), m.loadMetadataCmd())
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, isKey := msg.(tea.KeyMsg); isKey && m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.rowsView.SetSize(m.width, m.height-4)
		m.batchView.SetWidth(m.width)
		m.dialog.SetWidth(min(m.width, 96))
		return m, nil

	case rowsShownMsg:
		m.rowsView.SetRows(msg.rows)
		return m, nil
	case rowRemovedMsg:
		m.rowsView.RemoveRow(msg.id)
		return m, nil
	case rowUpdatedMsg:
		m.rowsView.UpdateRow(msg.row)
		return m, nil
	case noticeMsg:
		m.setStatus(msg.level, msg.text)
		return m, nil

	case sessionOpenedMsg:
		return m, m.dialog.Open(msg.view)
	case sessionUpdatedMsg:
		m.dialog.Progress(msg.view)
		return m, nil
	case sessionClosedMsg:
		m.dialog.Close(msg.result)
		return m, nil
	case measureDoneMsg:
		if msg.err == nil {
			m.setStatus(levelSuccess, fmt.Sprintf("%s: %s", msg.out.Request, msg.out.Outcome))
		}
		return m, nil

	case metadataLoadedMsg:
		if msg.err != nil {
			m.setStatus(levelError, "batch metadata: "+msg.err.Error())
			return m, nil
		}
		m.batchView.SetMetadata(msg.metadata)
		return m, nil
	case metadataSavedMsg:
		if msg.err != nil {
			m.setStatus(levelError, msg.err.Error())
			return m, nil
		}
		m.batchView.SetMetadata(msg.metadata)
		m.setStatus(levelSuccess, "Batch metadata saved")
		return m, nil
	case batchview.SubmitMsg:
		return m, m.saveMetadataCmd(msg.Metadata)

	case opDoneMsg:
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)
	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Spinner and cursor ticks.
	var dialogCmd, paletteCmd tea.Cmd
	m.dialog, dialogCmd = m.dialog.Update(msg)
	m.palette, paletteCmd = m.palette.Update(msg)
	return m, tea.Batch(dialogCmd, paletteCmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}
	if m.batchView.Editing() {
		var cmd tea.Cmd
		m.batchView, cmd = m.batchView.Update(msg)
		return m, cmd
	}
	if m.confirmReset {
		m.confirmReset = false
		if msg.String() == "y" {
			m.status = "resetting…"
			return m, m.resetCmd()
		}
		m.status = "reset aborted"
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case ":":
		return m, m.palette.Open()
	case "tab":
		m.activeTab = (m.activeTab + 1) % tabCount
		return m, nil
	case "shift+tab":
		m.activeTab = (m.activeTab + tabCount - 1) % tabCount
		return m, nil
	case "esc":
		if m.dialog.Visible() && !m.dialog.Running() {
			m.dialog.Dismiss()
		}
		return m, nil
	case "c":
		return m, m.cancelCmd()
	case "a":
		return m, m.measureCmd(rowsdto.StartInput{})
	case "R":
		m.confirmReset = true
		m.setStatus(levelWarning, "Reset removes every row and the batch metadata. Press y to confirm.")
		return m, nil
	}

	if m.activeTab == tabBatch {
		if msg.String() == "e" {
			return m, m.batchView.Edit()
		}
		return m, nil
	}

	selected, ok := m.rowsView.Selected()
	switch msg.String() {
	case "r", "i", "d", "e":
		if !ok {
			m.setStatus(levelWarning, "no row selected")
			return m, nil
		}
	}
	switch msg.String() {
	case "r":
		return m, m.measureCmd(rowsdto.StartInput{TargetID: &selected.ID})
	case "i":
		return m, m.measureCmd(rowsdto.StartInput{TargetID: &selected.ID, InsertBefore: true})
	case "d":
		return m, m.removeCmd(selected.ID)
	case "e":
		return m, m.palette.OpenWith(fmt.Sprintf("comment %d %s", selected.ID, selected.Comment))
	}

	var cmd tea.Cmd
	m.rowsView, cmd = m.rowsView.Update(msg)
	return m, cmd
}

func (m *Model) setStatus(level noticeLevel, text string) {
	m.statusLevel = level
	m.status = text
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.dialog.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.dialog.View())
	case m.activeTab == tabBatch:
		content = m.batchView.View()
	default:
		content = m.rowsView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "rescollect  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return theme.StatusBar.Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	var left string
	switch m.statusLevel {
	case levelSuccess:
		left = theme.Good.Render(m.status)
	case levelWarning:
		left = theme.Hot.Render(m.status)
	default:
		left = theme.Bad.Render(m.status)
	}
	if m.dialog.Running() {
		left = theme.Hot.Render("● measuring") + "  " + left
	}
	right := theme.Muted.Render("a:measure  c:cancel  ?:help  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return "\n" + theme.StatusBar.Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	needID := func() (int64, bool) {
		if len(parts) < 2 {
			m.setStatus(levelWarning, "usage: "+parts[0]+" <id>")
			return 0, false
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			m.setStatus(levelWarning, "invalid row id "+parts[1])
			return 0, false
		}
		return id, true
	}

	switch parts[0] {
	case "measure":
		return m, m.measureCmd(rowsdto.StartInput{})
	case "remeasure":
		if id, ok := needID(); ok {
			return m, m.measureCmd(rowsdto.StartInput{TargetID: &id})
		}
	case "insert":
		if id, ok := needID(); ok {
			return m, m.measureCmd(rowsdto.StartInput{TargetID: &id, InsertBefore: true})
		}
	case "cancel":
		return m, m.cancelCmd()
	case "remove":
		if id, ok := needID(); ok {
			return m, m.removeCmd(id)
		}
	case "comment":
		if id, ok := needID(); ok {
			rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), parts[0]))
			comment := strings.TrimSpace(strings.TrimPrefix(rest, parts[1]))
			return m, m.commentCmd(id, comment)
		}
	case "reload":
		return m, tea.Batch(m.reloadCmd(), m.loadMetadataCmd())
	case "reset":
		m.confirmReset = true
		m.setStatus(levelWarning, "Press y to confirm the reset.")
	case "batch:edit":
		m.activeTab = tabBatch
		return m, m.batchView.Edit()
	default:
		m.setStatus(levelWarning, "unknown command: "+parts[0])
	}
	return m, nil
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) measureCmd(input rowsdto.StartInput) tea.Cmd {
	return func() tea.Msg {
		out, err := m.rows.Start(m.ctx, input)
		return measureDoneMsg{out: out, err: err}
	}
}

func (m Model) cancelCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.rows.Cancel(m.ctx)
		return opDoneMsg{}
	}
}

func (m Model) removeCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		_ = m.rows.Remove(m.ctx, id)
		return opDoneMsg{}
	}
}

func (m Model) commentCmd(id int64, comment string) tea.Cmd {
	return func() tea.Msg {
		_ = m.rows.EditComment(m.ctx, id, comment)
		return opDoneMsg{}
	}
}

func (m Model) resetCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.rows.Reset(m.ctx)
		return opDoneMsg{}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.rows.Reload(m.ctx)
		return opDoneMsg{}
	}
}

func (m Model) loadMetadataCmd() tea.Cmd {
	return func() tea.Msg {
		md, err := m.batch.Show(m.ctx)
		return metadataLoadedMsg{metadata: md, err: err}
	}
}

func (m Model) saveMetadataCmd(md batchdto.Metadata) tea.Cmd {
	return func() tea.Msg {
		if err := m.batch.Update(m.ctx, md); err != nil {
			return metadataSavedMsg{err: err}
		}
		return metadataSavedMsg{metadata: md}
	}
}
