package queries

import (
	"sort"

	"tabroom/contexts/tab-core/ballot-service/domain/entities"
)

// GroupIdentical compares scoring content by value across the live submissions
// of one debate. Each submission that has at least one duplicate maps to the
// sorted versions of the *other* submissions carrying identical content; a
// submission with unique content does not appear at all. Advisory only, shown
// next to the version list so confirmers can spot re-entered ballots; it never
// blocks confirmation.
func GroupIdentical(submissions []entities.BallotSubmission) map[string][]int {
	live := make([]entities.BallotSubmission, 0, len(submissions))
	for _, sub := range submissions {
		if sub.Live() {
			live = append(live, sub)
		}
	}

	groups := make(map[string][]int)
	for _, sub := range live {
		for _, other := range live {
			if other.SubmissionID == sub.SubmissionID {
				continue
			}
			if sub.Scores.Equal(other.Scores) {
				groups[sub.SubmissionID] = append(groups[sub.SubmissionID], other.Version)
			}
		}
	}
	for id := range groups {
		sort.Ints(groups[id])
	}
	return groups
}
