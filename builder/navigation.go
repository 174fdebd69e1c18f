package builder

import (
	"context"
	"log/slog"

	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/report"
)

// Advances to the next step, if it is reachable. Text widgets skip the source step.
func (session *Session) Next() error {
	next := session.step + 1
	if next == StepSourceAndRun && session.draft.IsText() {
		next = StepVisualize
	}

	if next > StepFinalize {
		return ErrNoNextStep
	}
	if next > session.ReachableStep() {
		return ErrStepUnreachable
	}

	session.step = next
	return nil
}

func (session *Session) Back() error {
	previous := session.step - 1
	if previous == StepSourceAndRun && session.draft.IsText() {
		previous = StepStart
	}

	if previous < StepStart {
		return ErrNoPreviousStep
	}

	session.step = previous
	return nil
}

// Moves to the given step. Moving back to any step up to the current one is always allowed;
// moving forward is only allowed up to the reachable step.
func (session *Session) GoTo(step Step) error {
	if !step.IsValid() {
		return ErrInvalidStep
	}
	if step == StepSourceAndRun && session.draft.IsText() {
		return ErrTextHasNoSource
	}
	if step > session.step && step > session.ReachableStep() {
		return ErrStepUnreachable
	}

	session.step = step
	return nil
}

// Performs the current step's action without advancing: runs the query on the source step, or
// refreshes the preview on the visualize step.
func (session *Session) Apply(ctx context.Context) error {
	ticket, err := session.StartApply()
	if err != nil || ticket == nil {
		return err
	}

	session.execute(ctx, *ticket)
	return nil
}

// Decides the current step's action. On the source step, this starts a run and returns its
// ticket, to be completed with CompleteRun. On the visualize step, the preview is refreshed
// immediately and the returned ticket is nil.
func (session *Session) StartApply() (*RunTicket, error) {
	switch session.step {
	case StepSourceAndRun:
		ticket, err := session.StartRun()
		if err != nil {
			return nil, err
		}
		return &ticket, nil
	case StepVisualize:
		session.previewRevision++
		return nil, nil
	default:
		return nil, ErrNothingToApply
	}
}

// Saves the draft through the report store, and makes the saved state the new baseline for
// unsaved changes. On failure, the draft and its unsaved-changes state are left untouched so the
// user can retry.
func (session *Session) Finish(ctx context.Context) (report.SavedReport, error) {
	if session.step != StepFinalize {
		return report.SavedReport{}, ErrNotOnFinalStep
	}
	if !session.CanFinish() {
		return report.SavedReport{}, ErrCannotFinish
	}

	saved, err := session.store.SaveReport(ctx, session.draft.ToReport())
	if err != nil {
		log.ErrorCause(err, "failed to save report")
		return report.SavedReport{}, err
	}

	session.draft.ReportID = saved.ID
	session.draft.EntryMode = report.EntryModeExisting
	session.tracker.SetBaseline(session.draft)

	log.Debug(
		"saved report",
		slog.String("reportId", saved.ID),
		slog.String("name", saved.Name),
		slog.Bool("statementRef", saved.StatementRef != nil),
	)
	return saved, nil
}
