package queries

import (
	"context"
	"strings"

	"tabroom/contexts/tab-core/ballot-service/domain/entities"
)

// DebateBallots is the version history shown on the ballot edit screen:
// submissions ordered by version, with each duplicate-content submission
// annotated by the other versions carrying identical scores.
type DebateBallots struct {
	Submissions       []entities.BallotSubmission
	IdenticalVersions map[string][]int
}

// DebateSubmissions lists a debate's submissions. Assistants only see live
// submissions; the tab room sees tombstones too.
func (uc QueryUseCase) DebateSubmissions(ctx context.Context, debateID string, includeDiscarded bool) (DebateBallots, error) {
	submissions, err := uc.Repository.ListSubmissionsByDebate(ctx, strings.TrimSpace(debateID))
	if err != nil {
		return DebateBallots{}, err
	}

	visible := make([]entities.BallotSubmission, 0, len(submissions))
	for _, sub := range submissions {
		if !includeDiscarded && sub.Discarded {
			continue
		}
		visible = append(visible, sub)
	}

	return DebateBallots{
		Submissions:       visible,
		IdenticalVersions: GroupIdentical(submissions),
	}, nil
}
