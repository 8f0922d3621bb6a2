package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	batchdto "rescollect/internal/modules/batch/dto"
	"rescollect/internal/modules/measurement/domain"
	rowdomain "rescollect/internal/modules/rows/domain"
	rowsdto "rescollect/internal/modules/rows/dto"
)

type noticeLevel int

const (
	levelSuccess noticeLevel = iota
	levelWarning
	levelError
)

type rowsShownMsg struct{ rows []rowsdto.RowOutput }

type rowRemovedMsg struct{ id int64 }

type rowUpdatedMsg struct{ row rowsdto.RowOutput }

type noticeMsg struct {
	level noticeLevel
	text  string
}

type sessionOpenedMsg struct{ view domain.View }

type sessionUpdatedMsg struct{ view domain.View }

type sessionClosedMsg struct{ result domain.Result }

// Bridge receives row view, notifier and presenter callbacks from the use
// cases and forwards them to the running program as messages. Callbacks
// before Attach are dropped.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func NewBridge() *Bridge {
	return &Bridge{}
}

func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = p.Send
}

func (b *Bridge) post(msg tea.Msg) {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (b *Bridge) ShowRows(rows []rowdomain.Row) {
	out := make([]rowsdto.RowOutput, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRowOutput(r))
	}
	b.post(rowsShownMsg{rows: out})
}

func (b *Bridge) RemoveRow(id int64)          { b.post(rowRemovedMsg{id: id}) }
func (b *Bridge) UpdateRow(row rowdomain.Row) { b.post(rowUpdatedMsg{row: toRowOutput(row)}) }

func (b *Bridge) Success(message string) { b.post(noticeMsg{level: levelSuccess, text: message}) }
func (b *Bridge) Warning(message string) { b.post(noticeMsg{level: levelWarning, text: message}) }
func (b *Bridge) Error(message string)   { b.post(noticeMsg{level: levelError, text: message}) }

func (b *Bridge) SessionOpened(view domain.View)  { b.post(sessionOpenedMsg{view: view}) }
func (b *Bridge) SessionUpdated(view domain.View) { b.post(sessionUpdatedMsg{view: view}) }
func (b *Bridge) SessionClosed(result domain.Result) {
	b.post(sessionClosedMsg{result: result})
}

func toRowOutput(r rowdomain.Row) rowsdto.RowOutput {
	return rowsdto.RowOutput{
		ID:                  r.ID,
		Timestamp:           r.Timestamp,
		Frequency:           r.Frequency,
		FrequencyDeviation:  r.FrequencyDeviation,
		Resistance:          r.Resistance,
		ResistanceDeviation: r.ResistanceDeviation,
		Comment:             r.Comment,
	}
}

type metadataLoadedMsg struct {
	metadata batchdto.Metadata
	err      error
}

// ShowMetadata pushes batch metadata loaded outside the program, such as
// after a reset.
func (b *Bridge) ShowMetadata(md batchdto.Metadata) {
	b.post(metadataLoadedMsg{metadata: md})
}
