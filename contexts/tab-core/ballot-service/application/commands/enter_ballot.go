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

// EnterBallotCommand is the write-model input for ballot entry.
type EnterBallotCommand struct {
	DebateID      string
	SubmitterType entities.SubmitterType
	SubmitterID   string
	IPAddress     string
	Scores        entities.ScoreSet
}

// EnterBallotUseCase creates new ballot submissions. Version allocation is
// atomic per debate: the read of the current maximum and the write of the new
// version happen inside the store's per-debate critical section, so N racing
// entries get exactly the next N versions with no duplicates or gaps.
type EnterBallotUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc EnterBallotUseCase) Execute(ctx context.Context, cmd EnterBallotCommand) (entities.BallotSubmission, error) {
	logger := application.ResolveLogger(uc.Logger)

	submissionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.BallotSubmission{}, err
	}
	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.BallotSubmission{}, err
	}
	now := uc.Clock.Now().UTC()

	submission := entities.BallotSubmission{
		SubmissionID:  submissionID,
		DebateID:      strings.TrimSpace(cmd.DebateID),
		SubmitterType: cmd.SubmitterType,
		SubmitterID:   strings.TrimSpace(cmd.SubmitterID),
		SubmittedAt:   now,
		IPAddress:     strings.TrimSpace(cmd.IPAddress),
		Scores:        cmd.Scores,
	}
	if !submission.ValidateCreate() {
		return entities.BallotSubmission{}, domainerrors.ErrInvalidBallotInput
	}

	panel, err := uc.Repository.ListPanel(ctx, submission.DebateID)
	if err != nil {
		return entities.BallotSubmission{}, err
	}
	if !panelHasChair(panel) {
		logger.Warn("ballot entry refused, debate has no chair",
			"event", "ballot_entry_missing_chair",
			"module", "tab-core/ballot-service",
			"layer", "application",
			"debate_id", submission.DebateID,
		)
		return entities.BallotSubmission{}, domainerrors.ErrMissingChair
	}

	mutation, err := uc.Repository.MutateDebate(ctx, submission.DebateID, func(view ports.DebateView) (ports.DebateMutation, error) {
		submission.Version = view.MaxVersion() + 1

		debate := view.Debate
		// A confirmed result is never superseded by a new draft; only a
		// debate with no result moves to draft.
		if debate.ResultStatus == entities.ResultStatusNone {
			debate.ResultStatus = entities.ResultStatusDraft
		}

		return ports.DebateMutation{
			Debate: debate,
			Saved:  []entities.BallotSubmission{submission},
			Audit: &entities.AuditEntry{
				AuditID:      auditID,
				Kind:         entryAuditKind(submission.SubmitterType),
				ActorID:      submission.SubmitterID,
				DebateID:     submission.DebateID,
				SubmissionID: submission.SubmissionID,
				IPAddress:    submission.IPAddress,
				CreatedAt:    now,
			},
		}, nil
	})
	if err != nil {
		return entities.BallotSubmission{}, err
	}

	created := mutation.Saved[0]
	logger.Info("ballot submission entered",
		"event", "ballot_entered",
		"module", "tab-core/ballot-service",
		"layer", "application",
		"submission_id", created.SubmissionID,
		"debate_id", created.DebateID,
		"version", created.Version,
		"submitter_type", string(created.SubmitterType),
	)
	return created, nil
}

func panelHasChair(panel []entities.PanelAssignment) bool {
	for _, assignment := range panel {
		if assignment.Role == entities.PanelRoleChair {
			return true
		}
	}
	return false
}

// Public submissions audit as "submitted", staff-originated ones as "created",
// matching the tab room's action log vocabulary.
func entryAuditKind(submitter entities.SubmitterType) entities.AuditKind {
	if submitter == entities.SubmitterTypePublic {
		return entities.AuditKindSubmitted
	}
	return entities.AuditKindCreated
}
