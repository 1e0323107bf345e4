package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"tabroom/contexts/tab-core/ballot-service/adapters/memory"
	"tabroom/contexts/tab-core/ballot-service/domain/entities"
	domainerrors "tabroom/contexts/tab-core/ballot-service/domain/errors"
)

func confirmUseCase(store *memory.Store) ConfirmBallotUseCase {
	return ConfirmBallotUseCase{
		Repository: store,
		Clock:      fixedClock{now: testNow},
		IDGen:      &seqIDGen{n: 500},
	}
}

// enterN seeds n draft submissions on d1 and returns their ids in version order.
func enterN(t *testing.T, store *memory.Store, n int) []string {
	t.Helper()
	uc := enterUseCase(store)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		sub, err := uc.Execute(context.Background(), EnterBallotCommand{
			DebateID:      "d1",
			SubmitterType: entities.SubmitterTypeChair,
			SubmitterID:   fmt.Sprintf("adj-%d", i+1),
			Scores:        scoresFor("team-a", fmt.Sprintf("sum-%d", i)),
		})
		if err != nil {
			t.Fatalf("seed entry %d: %v", i, err)
		}
		ids = append(ids, sub.SubmissionID)
	}
	return ids
}

func confirmedCount(t *testing.T, store *memory.Store, debateID string) int {
	t.Helper()
	subs, err := store.ListSubmissionsByDebate(context.Background(), debateID)
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	count := 0
	for _, sub := range subs {
		if sub.Confirmed && !sub.Discarded {
			count++
		}
		if sub.Discarded && sub.Confirmed {
			t.Fatalf("submission %s is both discarded and confirmed", sub.SubmissionID)
		}
		if (sub.ConfirmerID != "") != sub.Confirmed {
			t.Fatalf("submission %s confirmer set does not match confirmed flag", sub.SubmissionID)
		}
	}
	return count
}

func TestConfirmBallotIsSingleWinner(t *testing.T) {
	store := seedStore()
	ids := enterN(t, store, 2)
	uc := confirmUseCase(store)

	if err := uc.Confirm(context.Background(), ConfirmBallotCommand{SubmissionID: ids[0], ConfirmerID: "staff-1"}); err != nil {
		t.Fatalf("confirm first: %v", err)
	}
	if err := uc.Confirm(context.Background(), ConfirmBallotCommand{SubmissionID: ids[1], ConfirmerID: "staff-2"}); err != nil {
		t.Fatalf("confirm second: %v", err)
	}

	if got := confirmedCount(t, store, "d1"); got != 1 {
		t.Fatalf("expected exactly one confirmed submission, got %d", got)
	}
	first, err := store.GetSubmission(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if first.Confirmed || first.ConfirmerID != "" || first.ConfirmedAt != nil {
		t.Fatalf("confirming the second submission must fully unconfirm the first")
	}
	second, err := store.GetSubmission(context.Background(), ids[1])
	if err != nil {
		t.Fatalf("get second: %v", err)
	}
	if !second.Confirmed || second.ConfirmerID != "staff-2" || second.ConfirmedAt == nil {
		t.Fatalf("second submission should hold the confirmed result")
	}
}

func TestConfirmBallotConcurrentAttemptsKeepOneWinner(t *testing.T) {
	store := seedStore()
	ids := enterN(t, store, 8)
	uc := confirmUseCase(store)

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			err := uc.Confirm(context.Background(), ConfirmBallotCommand{
				SubmissionID: id,
				ConfirmerID:  fmt.Sprintf("staff-%d", i),
			})
			if err != nil {
				t.Errorf("concurrent confirm: %v", err)
			}
		}(i, id)
	}
	wg.Wait()

	if got := confirmedCount(t, store, "d1"); got != 1 {
		t.Fatalf("at most one live submission may be confirmed, got %d", got)
	}
	debate, err := store.GetDebate(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get debate: %v", err)
	}
	if debate.ResultStatus != entities.ResultStatusConfirmed {
		t.Fatalf("expected confirmed status, got %q", debate.ResultStatus)
	}
}

func TestConfirmBallotRejectsSelfConfirmation(t *testing.T) {
	store := seedStore()
	ids := enterN(t, store, 1)
	uc := confirmUseCase(store)

	err := uc.Confirm(context.Background(), ConfirmBallotCommand{SubmissionID: ids[0], ConfirmerID: "adj-1"})
	if !errors.Is(err, domainerrors.ErrSelfConfirmation) {
		t.Fatalf("expected ErrSelfConfirmation, got %v", err)
	}
	if got := confirmedCount(t, store, "d1"); got != 0 {
		t.Fatalf("rejected confirm must not mutate state, got %d confirmed", got)
	}

	// Policy override for elevated actors.
	if err := uc.Confirm(context.Background(), ConfirmBallotCommand{
		SubmissionID:     ids[0],
		ConfirmerID:      "adj-1",
		AllowSelfConfirm: true,
	}); err != nil {
		t.Fatalf("self-confirm with override: %v", err)
	}
}

func TestConfirmBallotRejectsDiscardedTarget(t *testing.T) {
	store := seedStore()
	ids := enterN(t, store, 1)
	uc := confirmUseCase(store)

	if err := uc.Discard(context.Background(), DiscardBallotCommand{SubmissionID: ids[0], ActorID: "staff-1"}); err != nil {
		t.Fatalf("discard: %v", err)
	}
	err := uc.Confirm(context.Background(), ConfirmBallotCommand{SubmissionID: ids[0], ConfirmerID: "staff-1"})
	if !errors.Is(err, domainerrors.ErrSubmissionDiscarded) {
		t.Fatalf("expected ErrSubmissionDiscarded, got %v", err)
	}
}

func TestDiscardConfirmedFallsBackToRemainingDraft(t *testing.T) {
	store := seedStore()
	ids := enterN(t, store, 2)
	uc := confirmUseCase(store)

	if err := uc.Confirm(context.Background(), ConfirmBallotCommand{SubmissionID: ids[0], ConfirmerID: "staff-1"}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := uc.Discard(context.Background(), DiscardBallotCommand{SubmissionID: ids[0], ActorID: "staff-1"}); err != nil {
		t.Fatalf("discard: %v", err)
	}

	debate, err := store.GetDebate(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get debate: %v", err)
	}
	if debate.ResultStatus != entities.ResultStatusDraft {
		t.Fatalf("expected draft after discarding the confirmed ballot, got %q", debate.ResultStatus)
	}

	if err := uc.Discard(context.Background(), DiscardBallotCommand{SubmissionID: ids[1], ActorID: "staff-1"}); err != nil {
		t.Fatalf("discard last: %v", err)
	}
	debate, err = store.GetDebate(context.Background(), "d1")
	if err != nil {
		t.Fatalf("get debate: %v", err)
	}
	if debate.ResultStatus != entities.ResultStatusNone {
		t.Fatalf("expected none after discarding every ballot, got %q", debate.ResultStatus)
	}
}

func TestDiscardIsIdempotent(t *testing.T) {
	store := seedStore()
	ids := enterN(t, store, 1)
	uc := confirmUseCase(store)

	if err := uc.Discard(context.Background(), DiscardBallotCommand{SubmissionID: ids[0], ActorID: "staff-1"}); err != nil {
		t.Fatalf("first discard: %v", err)
	}
	auditBefore := len(store.AuditTrail())

	if err := uc.Discard(context.Background(), DiscardBallotCommand{SubmissionID: ids[0], ActorID: "staff-1"}); err != nil {
		t.Fatalf("re-discard must be a no-op, got %v", err)
	}
	if got := len(store.AuditTrail()); got != auditBefore {
		t.Fatalf("re-discard must not append audit entries, %d -> %d", auditBefore, got)
	}

	sub, err := store.GetSubmission(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if !sub.Discarded || sub.Confirmed {
		t.Fatalf("tombstone state lost on re-discard")
	}
}

func TestDiscardPreservesVersionNumbering(t *testing.T) {
	store := seedStore()
	ids := enterN(t, store, 2)
	uc := confirmUseCase(store)

	if err := uc.Discard(context.Background(), DiscardBallotCommand{SubmissionID: ids[1], ActorID: "staff-1"}); err != nil {
		t.Fatalf("discard: %v", err)
	}
	sub, err := enterUseCase(store).Execute(context.Background(), EnterBallotCommand{
		DebateID:      "d1",
		SubmitterType: entities.SubmitterTypeTabroom,
		SubmitterID:   "staff-2",
		Scores:        scoresFor("team-b", "sum-next"),
	})
	if err != nil {
		t.Fatalf("enter after discard: %v", err)
	}
	if sub.Version != 3 {
		t.Fatalf("discarded versions are never reused, expected 3 got %d", sub.Version)
	}
}
