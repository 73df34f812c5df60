package form

import (
	"context"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Phase machine events.
const (
	EventValidate = "validate"
	EventReject   = "reject"
	EventSubmit   = "submit"
	EventSucceed  = "succeed"
	EventFail     = "fail"
	EventReset    = "reset"
)

// transitions lists every legal phase change. There is no edge from idle to
// submitting; every attempt passes through validating first.
var transitions = fsm.Events{
	{Name: EventValidate, Src: []string{string(PhaseIdle), string(PhaseSucceeded), string(PhaseFailed)}, Dst: string(PhaseValidating)},
	{Name: EventReject, Src: []string{string(PhaseValidating)}, Dst: string(PhaseFailed)},
	{Name: EventSubmit, Src: []string{string(PhaseValidating)}, Dst: string(PhaseSubmitting)},
	{Name: EventSucceed, Src: []string{string(PhaseSubmitting)}, Dst: string(PhaseSucceeded)},
	{Name: EventFail, Src: []string{string(PhaseSubmitting)}, Dst: string(PhaseFailed)},
	{Name: EventReset, Src: []string{string(PhaseValidating), string(PhaseSubmitting), string(PhaseSucceeded), string(PhaseFailed)}, Dst: string(PhaseIdle)},
}

func newMachine(logger *zap.Logger) *fsm.FSM {
	return fsm.NewFSM(
		string(PhaseIdle),
		transitions,
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("phase transition",
					zap.String("event", e.Event),
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
				)
			},
		},
	)
}
