package ports

import (
	"context"
	"time"

	"tabroom/contexts/tab-core/ballot-service/domain/entities"
)

// DebateView is the consistent snapshot handed to a MutateDebate callback:
// the debate row plus every submission it owns, ordered by version ascending.
type DebateView struct {
	Debate      entities.Debate
	Submissions []entities.BallotSubmission
}

// MaxVersion returns the highest version ever allocated for the debate,
// counting discarded submissions. Zero when none exist.
func (v DebateView) MaxVersion() int {
	max := 0
	for _, sub := range v.Submissions {
		if sub.Version > max {
			max = sub.Version
		}
	}
	return max
}

// ConfirmedSubmission returns the live confirmed submission, if any.
func (v DebateView) ConfirmedSubmission() (entities.BallotSubmission, bool) {
	for _, sub := range v.Submissions {
		if sub.Live() && sub.Confirmed {
			return sub, true
		}
	}
	return entities.BallotSubmission{}, false
}

// LiveCount counts non-discarded submissions.
func (v DebateView) LiveCount() int {
	count := 0
	for _, sub := range v.Submissions {
		if sub.Live() {
			count++
		}
	}
	return count
}

// DebateMutation is what a MutateDebate callback asks the store to commit:
// submissions to insert or update, the new debate row, and the audit entry for
// the transition. All of it lands atomically or not at all; the operation is
// not complete until the audit entry is durably recorded.
type DebateMutation struct {
	Debate entities.Debate
	Saved  []entities.BallotSubmission
	Audit  *entities.AuditEntry
}

// Repository is the store surface for the ballot core. MutateDebate is the
// single write path: the store serializes callbacks per debate (per-key lock
// or SELECT FOR UPDATE), so version allocation and the single-winner confirm
// swap happen inside one critical section. Operations on different debates
// are independent. Read methods may be slightly stale and never block writes.
type Repository interface {
	MutateDebate(ctx context.Context, debateID string, fn func(view DebateView) (DebateMutation, error)) (DebateMutation, error)

	GetSubmission(ctx context.Context, submissionID string) (entities.BallotSubmission, error)
	ListSubmissionsByDebate(ctx context.Context, debateID string) ([]entities.BallotSubmission, error)
	ListSubmissionsByRound(ctx context.Context, roundID string) ([]entities.BallotSubmission, error)
	ListConfirmedByTournament(ctx context.Context, tournamentID string, limit int) ([]entities.BallotSubmission, error)

	GetDebate(ctx context.Context, debateID string) (entities.Debate, error)
	ListDebatesByRound(ctx context.Context, roundID string) ([]entities.Debate, error)

	GetRound(ctx context.Context, roundID string) (entities.Round, error)
	FindVenueByName(ctx context.Context, tournamentID string, name string) (entities.Venue, bool, error)

	ListPanel(ctx context.Context, debateID string) ([]entities.PanelAssignment, error)
	FindAssignment(ctx context.Context, adjudicatorID string, roundID string) (entities.PanelAssignment, bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// RelativeTimeFormatter renders "how long ago" strings for dashboards. The
// real formatter lives with the presentation collaborator.
type RelativeTimeFormatter interface {
	Relative(t time.Time, now time.Time) string
}
