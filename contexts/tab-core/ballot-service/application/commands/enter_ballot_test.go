package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tabroom/contexts/tab-core/ballot-service/adapters/memory"
	"tabroom/contexts/tab-core/ballot-service/domain/entities"
	domainerrors "tabroom/contexts/tab-core/ballot-service/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID(_ context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%04d", g.n), nil
}

var testNow = time.Date(2026, time.August, 22, 14, 0, 0, 0, time.UTC)

// seedStore builds one round with one chaired debate at Room 1.
func seedStore() *memory.Store {
	return memory.NewStore(memory.Seed{
		Rounds: []entities.Round{
			{RoundID: "r1", TournamentID: "t1", Seq: 1, DrawReleased: true, MotionsReleased: true},
		},
		Venues: []entities.Venue{
			{VenueID: "v1", TournamentID: "t1", Name: "Room 1"},
		},
		Debates: []entities.Debate{
			{
				DebateID:     "d1",
				RoundID:      "r1",
				AffTeamID:    "team-a",
				AffTeamName:  "Alphas",
				NegTeamID:    "team-b",
				NegTeamName:  "Betas",
				VenueID:      "v1",
				VenueName:    "Room 1",
				ResultStatus: entities.ResultStatusNone,
			},
		},
		Panels: []entities.PanelAssignment{
			{DebateID: "d1", RoundID: "r1", AdjudicatorID: "adj-1", AdjudicatorName: "Chris Chair", Role: entities.PanelRoleChair},
			{DebateID: "d1", RoundID: "r1", AdjudicatorID: "adj-2", AdjudicatorName: "Terry Trainee", Role: entities.PanelRoleTrainee},
		},
	})
}

func enterUseCase(store *memory.Store) EnterBallotUseCase {
	return EnterBallotUseCase{
		Repository: store,
		Clock:      fixedClock{now: testNow},
		IDGen:      &seqIDGen{},
	}
}

func scoresFor(winner string, checksum string) entities.ScoreSet {
	return entities.ScoreSet{WinnerTeamID: winner, Checksum: checksum}
}

func TestEnterBallotAllocatesSequentialVersions(t *testing.T) {
	store := seedStore()
	uc := enterUseCase(store)

	for want := 1; want <= 3; want++ {
		sub, err := uc.Execute(context.Background(), EnterBallotCommand{
			DebateID:      "d1",
			SubmitterType: entities.SubmitterTypeTabroom,
			SubmitterID:   "staff-1",
			Scores:        scoresFor("team-a", fmt.Sprintf("sum-%d", want)),
		})
		if err != nil {
			t.Fatalf("entry %d failed: %v", want, err)
		}
		if sub.Version != want {
			t.Fatalf("expected version %d, got %d", want, sub.Version)
		}
		if sub.Confirmed || sub.Discarded {
			t.Fatalf("new submission must start unconfirmed and undiscarded")
		}
	}

	debate, err := store.GetDebate(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get debate: %v", err)
	}
	if debate.ResultStatus != entities.ResultStatusDraft {
		t.Fatalf("expected draft status after entry, got %q", debate.ResultStatus)
	}
}

func TestEnterBallotConcurrentVersionsAreGapFree(t *testing.T) {
	store := seedStore()
	uc := enterUseCase(store)

	const workers = 20
	versions := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := uc.Execute(context.Background(), EnterBallotCommand{
				DebateID:      "d1",
				SubmitterType: entities.SubmitterTypeChair,
				SubmitterID:   fmt.Sprintf("adj-%d", i),
				Scores:        scoresFor("team-a", fmt.Sprintf("sum-%d", i)),
			})
			if err != nil {
				t.Errorf("concurrent entry failed: %v", err)
				return
			}
			versions <- sub.Version
		}(i)
	}
	wg.Wait()
	close(versions)

	seen := make(map[int]bool)
	for v := range versions {
		if seen[v] {
			t.Fatalf("version %d allocated twice", v)
		}
		seen[v] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d versions, got %d", workers, len(seen))
	}
	for want := 1; want <= workers; want++ {
		if !seen[want] {
			t.Fatalf("version %d missing, allocation left a gap", want)
		}
	}
}

func TestEnterBallotRequiresChair(t *testing.T) {
	store := memory.NewStore(memory.Seed{
		Debates: []entities.Debate{
			{DebateID: "d-nochair", RoundID: "r1", ResultStatus: entities.ResultStatusNone},
		},
		Panels: []entities.PanelAssignment{
			{DebateID: "d-nochair", RoundID: "r1", AdjudicatorID: "adj-9", Role: entities.PanelRolePanellist},
		},
	})
	uc := enterUseCase(store)

	_, err := uc.Execute(context.Background(), EnterBallotCommand{
		DebateID:      "d-nochair",
		SubmitterType: entities.SubmitterTypeTabroom,
		SubmitterID:   "staff-1",
		Scores:        scoresFor("team-a", "sum-1"),
	})
	if !errors.Is(err, domainerrors.ErrMissingChair) {
		t.Fatalf("expected ErrMissingChair, got %v", err)
	}
}

func TestEnterBallotDoesNotSupersedeConfirmedResult(t *testing.T) {
	store := seedStore()
	enter := enterUseCase(store)
	confirm := ConfirmBallotUseCase{Repository: store, Clock: fixedClock{now: testNow}, IDGen: &seqIDGen{n: 100}}

	first, err := enter.Execute(context.Background(), EnterBallotCommand{
		DebateID:      "d1",
		SubmitterType: entities.SubmitterTypeChair,
		SubmitterID:   "adj-1",
		Scores:        scoresFor("team-a", "sum-1"),
	})
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := confirm.Confirm(context.Background(), ConfirmBallotCommand{
		SubmissionID: first.SubmissionID,
		ConfirmerID:  "staff-1",
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := enter.Execute(context.Background(), EnterBallotCommand{
		DebateID:      "d1",
		SubmitterType: entities.SubmitterTypeTabroom,
		SubmitterID:   "staff-2",
		Scores:        scoresFor("team-b", "sum-2"),
	}); err != nil {
		t.Fatalf("second enter: %v", err)
	}

	debate, err := store.GetDebate(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get debate: %v", err)
	}
	if debate.ResultStatus != entities.ResultStatusConfirmed {
		t.Fatalf("a new draft must not supersede a confirmed result, status %q", debate.ResultStatus)
	}
}

func TestEnterBallotAuditKindFollowsSubmitter(t *testing.T) {
	store := seedStore()
	uc := enterUseCase(store)

	if _, err := uc.Execute(context.Background(), EnterBallotCommand{
		DebateID:      "d1",
		SubmitterType: entities.SubmitterTypePublic,
		SubmitterID:   "adj-1",
		IPAddress:     "10.0.0.9",
		Scores:        scoresFor("team-a", "sum-1"),
	}); err != nil {
		t.Fatalf("public enter: %v", err)
	}
	if _, err := uc.Execute(context.Background(), EnterBallotCommand{
		DebateID:      "d1",
		SubmitterType: entities.SubmitterTypeTabroom,
		SubmitterID:   "staff-1",
		Scores:        scoresFor("team-a", "sum-2"),
	}); err != nil {
		t.Fatalf("staff enter: %v", err)
	}

	trail := store.AuditTrail()
	if len(trail) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(trail))
	}
	if trail[0].Kind != entities.AuditKindSubmitted {
		t.Fatalf("public entry should audit as submitted, got %q", trail[0].Kind)
	}
	if trail[0].IPAddress != "10.0.0.9" {
		t.Fatalf("audit entry lost origin address, got %q", trail[0].IPAddress)
	}
	if trail[1].Kind != entities.AuditKindCreated {
		t.Fatalf("staff entry should audit as created, got %q", trail[1].Kind)
	}
}
