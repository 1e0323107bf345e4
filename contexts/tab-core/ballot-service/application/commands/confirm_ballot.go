package commands

import (
	"context"
	"log/slog"
	"strings"

	application "tabroom/contexts/tab-core/ballot-service/application"
	"tabroom/contexts/tab-core/ballot-service/domain/entities"
	domainerrors "tabroom/contexts/tab-core/ballot-service/domain/errors"
	"tabroom/contexts/tab-core/ballot-service/ports"
)

// ConfirmBallotCommand marks one submission as the authoritative result.
// AllowSelfConfirm comes from tournament policy; elevated actors may override.
type ConfirmBallotCommand struct {
	SubmissionID     string
	ConfirmerID      string
	IPAddress        string
	AllowSelfConfirm bool
}

type DiscardBallotCommand struct {
	SubmissionID string
	ActorID      string
	IPAddress    string
}

// ConfirmBallotUseCase owns the confirm and discard transitions. Confirmation
// is a single-winner lock: confirming one submission unconfirms any sibling in
// the same atomic step, so at most one live submission per debate is ever
// confirmed. Two racing confirms serialize in the store's per-debate critical
// section; the last to commit holds the result.
type ConfirmBallotUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc ConfirmBallotUseCase) Confirm(ctx context.Context, cmd ConfirmBallotCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	submissionID := strings.TrimSpace(cmd.SubmissionID)
	confirmerID := strings.TrimSpace(cmd.ConfirmerID)
	if submissionID == "" || confirmerID == "" {
		return domainerrors.ErrInvalidBallotInput
	}

	target, err := uc.Repository.GetSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	now := uc.Clock.Now().UTC()

	_, err = uc.Repository.MutateDebate(ctx, target.DebateID, func(view ports.DebateView) (ports.DebateMutation, error) {
		saved := make([]entities.BallotSubmission, 0, 2)
		var confirmed *entities.BallotSubmission
		for _, sub := range view.Submissions {
			if sub.SubmissionID != submissionID {
				continue
			}
			if sub.Discarded {
				return ports.DebateMutation{}, domainerrors.ErrSubmissionDiscarded
			}
			if !cmd.AllowSelfConfirm && sub.SubmitterID != "" && sub.SubmitterID == confirmerID {
				return ports.DebateMutation{}, domainerrors.ErrSelfConfirmation
			}
			confirmed = &sub
		}
		if confirmed == nil {
			return ports.DebateMutation{}, domainerrors.ErrSubmissionNotFound
		}

		for _, sub := range view.Submissions {
			if sub.SubmissionID == submissionID || !sub.Confirmed {
				continue
			}
			sub.Confirmed = false
			sub.ConfirmerID = ""
			sub.ConfirmedAt = nil
			saved = append(saved, sub)
		}

		confirmedAt := now
		confirmed.Confirmed = true
		confirmed.ConfirmerID = confirmerID
		confirmed.ConfirmedAt = &confirmedAt
		saved = append(saved, *confirmed)

		debate := view.Debate
		debate.ResultStatus = entities.ResultStatusConfirmed

		return ports.DebateMutation{
			Debate: debate,
			Saved:  saved,
			Audit: &entities.AuditEntry{
				AuditID:      auditID,
				Kind:         entities.AuditKindConfirmed,
				ActorID:      confirmerID,
				DebateID:     debate.DebateID,
				SubmissionID: submissionID,
				IPAddress:    strings.TrimSpace(cmd.IPAddress),
				CreatedAt:    now,
			},
		}, nil
	})
	if err != nil {
		return err
	}

	logger.Info("ballot submission confirmed",
		"event", "ballot_confirmed",
		"module", "tab-core/ballot-service",
		"layer", "application",
		"submission_id", submissionID,
		"debate_id", target.DebateID,
		"confirmer_id", confirmerID,
	)
	return nil
}

// Discard tombstones a submission. Re-discarding is a no-op and emits no
// audit entry; the first discard recomputes the debate's derived status.
func (uc ConfirmBallotUseCase) Discard(ctx context.Context, cmd DiscardBallotCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	submissionID := strings.TrimSpace(cmd.SubmissionID)
	if submissionID == "" {
		return domainerrors.ErrInvalidBallotInput
	}

	target, err := uc.Repository.GetSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	now := uc.Clock.Now().UTC()

	discarded := false
	_, err = uc.Repository.MutateDebate(ctx, target.DebateID, func(view ports.DebateView) (ports.DebateMutation, error) {
		discarded = false
		var found *entities.BallotSubmission
		for _, sub := range view.Submissions {
			if sub.SubmissionID == submissionID {
				found = &sub
			}
		}
		if found == nil {
			return ports.DebateMutation{}, domainerrors.ErrSubmissionNotFound
		}
		if found.Discarded {
			// Idempotent no-op, nothing to commit.
			return ports.DebateMutation{Debate: view.Debate}, nil
		}

		found.Discarded = true
		found.Confirmed = false
		found.ConfirmerID = ""
		found.ConfirmedAt = nil
		discarded = true

		debate := view.Debate
		debate.ResultStatus = statusAfterDiscard(view, submissionID)

		return ports.DebateMutation{
			Debate: debate,
			Saved:  []entities.BallotSubmission{*found},
			Audit: &entities.AuditEntry{
				AuditID:      auditID,
				Kind:         entities.AuditKindDiscarded,
				ActorID:      strings.TrimSpace(cmd.ActorID),
				DebateID:     debate.DebateID,
				SubmissionID: submissionID,
				IPAddress:    strings.TrimSpace(cmd.IPAddress),
				CreatedAt:    now,
			},
		}, nil
	})
	if err != nil {
		return err
	}

	if discarded {
		logger.Info("ballot submission discarded",
			"event", "ballot_discarded",
			"module", "tab-core/ballot-service",
			"layer", "application",
			"submission_id", submissionID,
			"debate_id", target.DebateID,
		)
	}
	return nil
}

// statusAfterDiscard derives the debate status once the named submission is
// tombstoned: confirmed if another live submission holds the result, draft if
// any live submission remains, otherwise none. An explicit postponement
// survives the discard.
func statusAfterDiscard(view ports.DebateView, discardedID string) entities.ResultStatus {
	if view.Debate.ResultStatus == entities.ResultStatusPostponed {
		return entities.ResultStatusPostponed
	}
	remainingLive := 0
	for _, sub := range view.Submissions {
		if sub.SubmissionID == discardedID || !sub.Live() {
			continue
		}
		if sub.Confirmed {
			return entities.ResultStatusConfirmed
		}
		remainingLive++
	}
	if remainingLive > 0 {
		return entities.ResultStatusDraft
	}
	return entities.ResultStatusNone
}
