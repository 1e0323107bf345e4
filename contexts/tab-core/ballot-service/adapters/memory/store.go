package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tabroom/contexts/tab-core/ballot-service/domain/entities"
	domainerrors "tabroom/contexts/tab-core/ballot-service/domain/errors"
	"tabroom/contexts/tab-core/ballot-service/ports"

	"github.com/google/uuid"
)

// Seed is the fixture state a Store starts from.
type Seed struct {
	Debates     []entities.Debate
	Submissions []entities.BallotSubmission
	Rounds      []entities.Round
	Venues      []entities.Venue
	Panels      []entities.PanelAssignment
}

// Store is the in-memory Repository used by tests and local wiring. Reads go
// through the shared RWMutex; MutateDebate additionally holds a per-debate
// mutex for the whole read-modify-write, which is the serializability domain
// the command side relies on. It also serves as Clock and IDGenerator.
type Store struct {
	mu sync.RWMutex

	debates     map[string]entities.Debate
	submissions map[string]entities.BallotSubmission
	rounds      map[string]entities.Round
	venues      map[string]entities.Venue
	panels      []entities.PanelAssignment
	audit       []entities.AuditEntry

	debateLocksMu sync.Mutex
	debateLocks   map[string]*sync.Mutex
}

func NewStore(seed Seed) *Store {
	store := &Store{
		debates:     make(map[string]entities.Debate, len(seed.Debates)),
		submissions: make(map[string]entities.BallotSubmission, len(seed.Submissions)),
		rounds:      make(map[string]entities.Round, len(seed.Rounds)),
		venues:      make(map[string]entities.Venue, len(seed.Venues)),
		panels:      append([]entities.PanelAssignment(nil), seed.Panels...),
		debateLocks: make(map[string]*sync.Mutex),
	}
	for _, item := range seed.Debates {
		store.debates[item.DebateID] = item
	}
	for _, item := range seed.Submissions {
		store.submissions[item.SubmissionID] = item
	}
	for _, item := range seed.Rounds {
		store.rounds[item.RoundID] = item
	}
	for _, item := range seed.Venues {
		store.venues[item.VenueID] = item
	}
	return store
}

func (s *Store) lockFor(debateID string) *sync.Mutex {
	s.debateLocksMu.Lock()
	defer s.debateLocksMu.Unlock()
	lock, ok := s.debateLocks[debateID]
	if !ok {
		lock = &sync.Mutex{}
		s.debateLocks[debateID] = lock
	}
	return lock
}

func (s *Store) MutateDebate(
	_ context.Context,
	debateID string,
	fn func(view ports.DebateView) (ports.DebateMutation, error),
) (ports.DebateMutation, error) {
	debateID = strings.TrimSpace(debateID)
	lock := s.lockFor(debateID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	debate, ok := s.debates[debateID]
	s.mu.RUnlock()
	if !ok {
		return ports.DebateMutation{}, domainerrors.ErrDebateNotFound
	}

	view := ports.DebateView{
		Debate:      debate,
		Submissions: s.submissionsOf(debateID),
	}
	mutation, err := fn(view)
	if err != nil {
		return ports.DebateMutation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range mutation.Saved {
		s.submissions[sub.SubmissionID] = sub
	}
	s.debates[mutation.Debate.DebateID] = mutation.Debate
	if mutation.Audit != nil {
		s.audit = append(s.audit, *mutation.Audit)
	}
	return mutation, nil
}

func (s *Store) GetSubmission(_ context.Context, submissionID string) (entities.BallotSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.submissions[strings.TrimSpace(submissionID)]
	if !ok {
		return entities.BallotSubmission{}, domainerrors.ErrSubmissionNotFound
	}
	return item, nil
}

func (s *Store) ListSubmissionsByDebate(_ context.Context, debateID string) ([]entities.BallotSubmission, error) {
	return s.submissionsOf(strings.TrimSpace(debateID)), nil
}

func (s *Store) ListSubmissionsByRound(_ context.Context, roundID string) ([]entities.BallotSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.BallotSubmission, 0)
	for _, sub := range s.submissions {
		debate, ok := s.debates[sub.DebateID]
		if ok && debate.RoundID == roundID {
			items = append(items, sub)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *Store) ListConfirmedByTournament(_ context.Context, tournamentID string, limit int) ([]entities.BallotSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.BallotSubmission, 0)
	for _, sub := range s.submissions {
		if !sub.Confirmed || sub.Discarded {
			continue
		}
		debate, ok := s.debates[sub.DebateID]
		if !ok {
			continue
		}
		round, ok := s.rounds[debate.RoundID]
		if !ok || round.TournamentID != tournamentID {
			continue
		}
		items = append(items, sub)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubmittedAt.After(items[j].SubmittedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetDebate(_ context.Context, debateID string) (entities.Debate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.debates[strings.TrimSpace(debateID)]
	if !ok {
		return entities.Debate{}, domainerrors.ErrDebateNotFound
	}
	return item, nil
}

func (s *Store) ListDebatesByRound(_ context.Context, roundID string) ([]entities.Debate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Debate, 0)
	for _, debate := range s.debates {
		if debate.RoundID == roundID {
			items = append(items, debate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].DebateID < items[j].DebateID
	})
	return items, nil
}

func (s *Store) GetRound(_ context.Context, roundID string) (entities.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.rounds[strings.TrimSpace(roundID)]
	if !ok {
		return entities.Round{}, domainerrors.ErrRoundNotFound
	}
	return item, nil
}

func (s *Store) FindVenueByName(_ context.Context, tournamentID string, name string) (entities.Venue, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, venue := range s.venues {
		if venue.TournamentID == tournamentID && strings.EqualFold(venue.Name, strings.TrimSpace(name)) {
			return venue, true, nil
		}
	}
	return entities.Venue{}, false, nil
}

func (s *Store) ListPanel(_ context.Context, debateID string) ([]entities.PanelAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.PanelAssignment, 0)
	for _, assignment := range s.panels {
		if assignment.DebateID == strings.TrimSpace(debateID) {
			items = append(items, assignment)
		}
	}
	return items, nil
}

func (s *Store) FindAssignment(_ context.Context, adjudicatorID string, roundID string) (entities.PanelAssignment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, assignment := range s.panels {
		if assignment.AdjudicatorID == strings.TrimSpace(adjudicatorID) && assignment.RoundID == roundID {
			return assignment, true, nil
		}
	}
	return entities.PanelAssignment{}, false, nil
}

// AuditTrail returns a copy of the appended audit entries, oldest first.
func (s *Store) AuditTrail() []entities.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.AuditEntry(nil), s.audit...)
}

func (s *Store) submissionsOf(debateID string) []entities.BallotSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.BallotSubmission, 0)
	for _, sub := range s.submissions {
		if sub.DebateID == debateID {
			items = append(items, sub)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Version < items[j].Version
	})
	return items
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
