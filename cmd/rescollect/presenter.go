package main

import (
	"fmt"
	"io"

	"rescollect/internal/modules/measurement/domain"
	"rescollect/internal/platform/boxplot"
)

// textPresenter prints measurement progress as plain lines.
type textPresenter struct {
	w io.Writer
}

func newTextPresenter(w io.Writer) *textPresenter {
	return &textPresenter{w: w}
}

func (p *textPresenter) SessionOpened(view domain.View) {
	_, _ = fmt.Fprintf(p.w, "measuring: %s\n", view.Request)
}

func (p *textPresenter) SessionUpdated(view domain.View) {
	_, _ = fmt.Fprintf(p.w, "#%d F=%s (n=%d) Rk=%s (n=%d)\n",
		view.Updates, view.LatestFrequency, len(view.Frequencies), view.LatestResistance, len(view.Resistances))
}

func (p *textPresenter) SessionClosed(result domain.Result) {
	view := result.View
	_, _ = fmt.Fprintf(p.w, "%s after %d updates\n", result.Outcome, view.Updates)
	if view.FrequencySummary != nil {
		_, _ = fmt.Fprintf(p.w, "  F  %s\n", formatSummary(view.FrequencySummary))
	}
	if view.ResistanceSummary != nil {
		_, _ = fmt.Fprintf(p.w, "  Rk %s\n", formatSummary(view.ResistanceSummary))
	}
}

func formatSummary(b *boxplot.BoxPlot) string {
	return fmt.Sprintf("median %.3f iqr %.3f range [%.3f, %.3f]", b.Median, b.IQR, b.LowerBound, b.UpperBound)
}

// textNotifier reports row use case notices on a side channel, usually
// stderr.
type textNotifier struct {
	w io.Writer
}

func newTextNotifier(w io.Writer) textNotifier {
	return textNotifier{w: w}
}

func (n textNotifier) Success(message string) { _, _ = fmt.Fprintln(n.w, message) }
func (n textNotifier) Warning(message string) { _, _ = fmt.Fprintln(n.w, "warning: "+message) }
func (n textNotifier) Error(message string)   { _, _ = fmt.Fprintln(n.w, "error: "+message) }
