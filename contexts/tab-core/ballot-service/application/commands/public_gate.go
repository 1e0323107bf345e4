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

type PublicSubmitCommand struct {
	AdjudicatorID string
	RoundID       string
	IPAddress     string
	Scores        entities.ScoreSet
}

// PublicGateUseCase fronts ballot entry for unauthenticated adjudicators
// reached through secret links. It admits a submission only once the round's
// draw and motions are released and the adjudicator actually sits on a panel
// this round. Staff entry bypasses the gate entirely (the auth collaborator
// has already vouched for them) but still hits the chair guard in EnterBallot.
type PublicGateUseCase struct {
	Repository ports.Repository
	Enter      EnterBallotUseCase
	Logger     *slog.Logger
}

// Authorize resolves the debate a public adjudicator may score, or a Denial
// explaining why not. Denial reasons are checked in order: release flags
// first, panel assignment second.
func (uc PublicGateUseCase) Authorize(ctx context.Context, adjudicatorID string, roundID string) (entities.Debate, error) {
	logger := application.ResolveLogger(uc.Logger)

	round, err := uc.Repository.GetRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return entities.Debate{}, err
	}
	if !round.DrawReleased || !round.MotionsReleased {
		logger.Info("public ballot refused, round not released",
			"event", "public_gate_not_released",
			"module", "tab-core/ballot-service",
			"layer", "application",
			"round_id", round.RoundID,
			"adjudicator_id", strings.TrimSpace(adjudicatorID),
		)
		return entities.Debate{}, domainerrors.Deny(domainerrors.ErrNotReleasedYet,
			"The draw and/or motions for the round haven't been released yet.")
	}

	assignment, found, err := uc.Repository.FindAssignment(ctx, strings.TrimSpace(adjudicatorID), round.RoundID)
	if err != nil {
		return entities.Debate{}, err
	}
	if !found {
		logger.Info("public ballot refused, no panel assignment",
			"event", "public_gate_no_assignment",
			"module", "tab-core/ballot-service",
			"layer", "application",
			"round_id", round.RoundID,
			"adjudicator_id", strings.TrimSpace(adjudicatorID),
		)
		return entities.Debate{}, domainerrors.Deny(domainerrors.ErrNoAssignmentThisRound,
			"It looks like you don't have a debate this round.")
	}

	return uc.Repository.GetDebate(ctx, assignment.DebateID)
}

// Submit composes Authorize and ballot entry for a public actor.
func (uc PublicGateUseCase) Submit(ctx context.Context, cmd PublicSubmitCommand) (entities.BallotSubmission, error) {
	debate, err := uc.Authorize(ctx, cmd.AdjudicatorID, cmd.RoundID)
	if err != nil {
		return entities.BallotSubmission{}, err
	}
	return uc.Enter.Execute(ctx, EnterBallotCommand{
		DebateID:      debate.DebateID,
		SubmitterType: entities.SubmitterTypePublic,
		SubmitterID:   strings.TrimSpace(cmd.AdjudicatorID),
		IPAddress:     cmd.IPAddress,
		Scores:        cmd.Scores,
	})
}
