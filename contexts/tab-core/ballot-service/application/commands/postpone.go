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

type TogglePostponedCommand struct {
	DebateID  string
	ActorID   string
	IPAddress string
}

// TogglePostponedUseCase flips a debate between postponed and its derived
// status. Postponement only makes sense before a result exists, so the toggle
// is rejected while a confirmed submission is present.
type TogglePostponedUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc TogglePostponedUseCase) Execute(ctx context.Context, cmd TogglePostponedCommand) (entities.ResultStatus, error) {
	logger := application.ResolveLogger(uc.Logger)
	debateID := strings.TrimSpace(cmd.DebateID)
	if debateID == "" {
		return "", domainerrors.ErrInvalidBallotInput
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	now := uc.Clock.Now().UTC()

	mutation, err := uc.Repository.MutateDebate(ctx, debateID, func(view ports.DebateView) (ports.DebateMutation, error) {
		if _, ok := view.ConfirmedSubmission(); ok {
			return ports.DebateMutation{}, domainerrors.ErrInvalidState
		}

		debate := view.Debate
		kind := entities.AuditKindPostponed
		if debate.ResultStatus == entities.ResultStatusPostponed {
			// Coming off postponement, fall back to whatever the live
			// submissions imply rather than blindly to none.
			if view.LiveCount() > 0 {
				debate.ResultStatus = entities.ResultStatusDraft
			} else {
				debate.ResultStatus = entities.ResultStatusNone
			}
			kind = entities.AuditKindUnpostponed
		} else {
			debate.ResultStatus = entities.ResultStatusPostponed
		}

		return ports.DebateMutation{
			Debate: debate,
			Audit: &entities.AuditEntry{
				AuditID:   auditID,
				Kind:      kind,
				ActorID:   strings.TrimSpace(cmd.ActorID),
				DebateID:  debateID,
				IPAddress: strings.TrimSpace(cmd.IPAddress),
				CreatedAt: now,
			},
		}, nil
	})
	if err != nil {
		return "", err
	}

	logger.Info("debate postponement toggled",
		"event", "debate_postpone_toggled",
		"module", "tab-core/ballot-service",
		"layer", "application",
		"debate_id", debateID,
		"result_status", string(mutation.Debate.ResultStatus),
	)
	return mutation.Debate.ResultStatus, nil
}
