package commands

import (
	"context"
	"errors"
	"testing"

	"tabroom/contexts/tab-core/ballot-service/adapters/memory"
	"tabroom/contexts/tab-core/ballot-service/domain/entities"
	domainerrors "tabroom/contexts/tab-core/ballot-service/domain/errors"
)

func gateUseCase(store *memory.Store) PublicGateUseCase {
	return PublicGateUseCase{
		Repository: store,
		Enter:      enterUseCase(store),
	}
}

func TestPublicGateAuthorizesAssignedAdjudicator(t *testing.T) {
	store := seedStore()
	uc := gateUseCase(store)

	debate, err := uc.Authorize(context.Background(), "adj-1", "r1")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if debate.DebateID != "d1" {
		t.Fatalf("expected assigned debate d1, got %q", debate.DebateID)
	}
}

func TestPublicGateDeniesUnreleasedRound(t *testing.T) {
	store := memory.NewStore(memory.Seed{
		Rounds: []entities.Round{
			{RoundID: "r2", TournamentID: "t1", DrawReleased: true, MotionsReleased: false},
		},
		Debates: []entities.Debate{
			{DebateID: "d2", RoundID: "r2", ResultStatus: entities.ResultStatusNone},
		},
		Panels: []entities.PanelAssignment{
			{DebateID: "d2", RoundID: "r2", AdjudicatorID: "adj-1", Role: entities.PanelRoleChair},
		},
	})
	uc := gateUseCase(store)

	_, err := uc.Authorize(context.Background(), "adj-1", "r2")
	if !errors.Is(err, domainerrors.ErrNotReleasedYet) {
		t.Fatalf("expected ErrNotReleasedYet, got %v", err)
	}
	var denial *domainerrors.Denial
	if !errors.As(err, &denial) || denial.Message == "" {
		t.Fatalf("gate denial must carry a user-facing message, got %v", err)
	}
}

func TestPublicGateDeniesUnassignedAdjudicator(t *testing.T) {
	store := seedStore()
	uc := gateUseCase(store)

	_, err := uc.Authorize(context.Background(), "adj-unknown", "r1")
	if !errors.Is(err, domainerrors.ErrNoAssignmentThisRound) {
		t.Fatalf("expected ErrNoAssignmentThisRound, got %v", err)
	}
}

func TestPublicGateSubmitEntersPublicBallot(t *testing.T) {
	store := seedStore()
	uc := gateUseCase(store)

	sub, err := uc.Submit(context.Background(), PublicSubmitCommand{
		AdjudicatorID: "adj-1",
		RoundID:       "r1",
		IPAddress:     "10.1.2.3",
		Scores:        scoresFor("team-b", "sum-public"),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.SubmitterType != entities.SubmitterTypePublic {
		t.Fatalf("gate submissions must be public, got %q", sub.SubmitterType)
	}
	if sub.Version != 1 || sub.DebateID != "d1" {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if sub.IPAddress != "10.1.2.3" {
		t.Fatalf("origin address lost, got %q", sub.IPAddress)
	}
}
