package in

import (
	"context"

	"rescollect/internal/modules/measurement/domain"
	"rescollect/internal/modules/measurement/dto"
)

type Usecase interface {
	Run(ctx context.Context, input dto.RunInput, presenter Presenter) (dto.RunOutput, error)
	Cancel(ctx context.Context) error
	Active() bool
}

// Presenter observes a running session. Calls arrive from the goroutine
// executing Run, in order: one SessionOpened, any number of SessionUpdated
// and one SessionClosed. A session rejected at start is never opened.
type Presenter interface {
	SessionOpened(view domain.View)
	SessionUpdated(view domain.View)
	SessionClosed(result domain.Result)
}
