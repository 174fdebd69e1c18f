package builder

import (
	"errors"
)

var (
	ErrNoEntry         = errors.New("no entry choice has been made")
	ErrRunInFlight     = errors.New("a query is already running for this draft")
	ErrNoSQL           = errors.New("no SQL to run")
	ErrTextHasNoSource = errors.New("text widgets have no SQL source")
	ErrNoStatement     = errors.New("draft does not reference a library statement")
	ErrNilConfig       = errors.New("visualization config is missing")
	ErrInvalidStep     = errors.New("invalid step")
	ErrStepUnreachable = errors.New("step is not reachable yet")
	ErrNoNextStep      = errors.New("already on the last step")
	ErrNoPreviousStep  = errors.New("already on the first step")
	ErrNothingToApply  = errors.New("current step has no apply action")
	ErrNotOnFinalStep  = errors.New("reports can only be finished from the finalize step")
	ErrCannotFinish    = errors.New("report is not ready to be finished")
)
