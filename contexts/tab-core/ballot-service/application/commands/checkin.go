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

type CheckinCommand struct {
	RoundID   string
	VenueName string
	ActorID   string
	IPAddress string
}

// CheckinResult summarizes a successful physical ballot check-in for the desk
// operator: where, who debated, who judged, and how many ballots are still out.
type CheckinResult struct {
	VenueName    string
	AffTeamName  string
	NegTeamName  string
	Adjudicators []string
	BallotsLeft  int
}

// CheckinUseCase tracks the "physical ballot received" flag per debate. Venue
// names are matched case-insensitively; every failure mode is a Denial whose
// message goes verbatim back to the desk.
type CheckinUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CheckinUseCase) Checkin(ctx context.Context, cmd CheckinCommand) (CheckinResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	venueName := strings.TrimSpace(cmd.VenueName)

	round, err := uc.Repository.GetRound(ctx, strings.TrimSpace(cmd.RoundID))
	if err != nil {
		return CheckinResult{}, err
	}

	venue, found, err := uc.Repository.FindVenueByName(ctx, round.TournamentID, venueName)
	if err != nil {
		return CheckinResult{}, err
	}
	if !found {
		return CheckinResult{}, domainerrors.Deny(domainerrors.ErrVenueNotFound,
			"There aren't any venues with the name \""+venueName+"\".")
	}

	debate, found, err := uc.debateAtVenue(ctx, round.RoundID, venue)
	if err != nil {
		return CheckinResult{}, err
	}
	if !found {
		return CheckinResult{}, domainerrors.Deny(domainerrors.ErrNoDebateAtVenue,
			"There wasn't a debate in venue "+venue.Name+" this round.")
	}
	if debate.BallotIn {
		return CheckinResult{}, domainerrors.Deny(domainerrors.ErrAlreadyCheckedIn,
			"The ballot for venue "+venue.Name+" has already been checked in.")
	}

	auditID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CheckinResult{}, err
	}
	now := uc.Clock.Now().UTC()

	mutation, err := uc.Repository.MutateDebate(ctx, debate.DebateID, func(view ports.DebateView) (ports.DebateMutation, error) {
		if view.Debate.BallotIn {
			// Lost the race to another desk operator.
			return ports.DebateMutation{}, domainerrors.Deny(domainerrors.ErrAlreadyCheckedIn,
				"The ballot for venue "+venue.Name+" has already been checked in.")
		}
		updated := view.Debate
		updated.BallotIn = true
		return ports.DebateMutation{
			Debate: updated,
			Audit: &entities.AuditEntry{
				AuditID:   auditID,
				Kind:      entities.AuditKindCheckin,
				ActorID:   strings.TrimSpace(cmd.ActorID),
				DebateID:  view.Debate.DebateID,
				IPAddress: strings.TrimSpace(cmd.IPAddress),
				CreatedAt: now,
			},
		}, nil
	})
	if err != nil {
		return CheckinResult{}, err
	}

	left, err := uc.RemainingCount(ctx, round.RoundID)
	if err != nil {
		return CheckinResult{}, err
	}
	adjudicators, err := uc.votingPanelNames(ctx, debate.DebateID)
	if err != nil {
		return CheckinResult{}, err
	}

	logger.Info("physical ballot checked in",
		"event", "ballot_checkin",
		"module", "tab-core/ballot-service",
		"layer", "application",
		"debate_id", debate.DebateID,
		"venue", venue.Name,
		"ballots_left", left,
	)
	return CheckinResult{
		VenueName:    venue.Name,
		AffTeamName:  mutation.Debate.AffTeamName,
		NegTeamName:  mutation.Debate.NegTeamName,
		Adjudicators: adjudicators,
		BallotsLeft:  left,
	}, nil
}

// RemainingCount counts the round's debates whose paper ballot is still out.
func (uc CheckinUseCase) RemainingCount(ctx context.Context, roundID string) (int, error) {
	debates, err := uc.Repository.ListDebatesByRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return 0, err
	}
	left := 0
	for _, debate := range debates {
		if !debate.BallotIn {
			left++
		}
	}
	return left, nil
}

func (uc CheckinUseCase) debateAtVenue(ctx context.Context, roundID string, venue entities.Venue) (entities.Debate, bool, error) {
	debates, err := uc.Repository.ListDebatesByRound(ctx, roundID)
	if err != nil {
		return entities.Debate{}, false, err
	}
	for _, debate := range debates {
		if debate.VenueID == venue.VenueID {
			return debate, true, nil
		}
	}
	return entities.Debate{}, false, nil
}

// Trainees sit on the panel but do not vote, so they stay off the check-in
// summary.
func (uc CheckinUseCase) votingPanelNames(ctx context.Context, debateID string) ([]string, error) {
	panel, err := uc.Repository.ListPanel(ctx, debateID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(panel))
	for _, assignment := range panel {
		if assignment.Role == entities.PanelRoleTrainee {
			continue
		}
		names = append(names, assignment.AdjudicatorName)
	}
	return names, nil
}
