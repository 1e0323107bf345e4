package queries

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "tabroom/contexts/tab-core/ballot-service/application"
	"tabroom/contexts/tab-core/ballot-service/domain/entities"
	"tabroom/contexts/tab-core/ballot-service/ports"
)

const (
	defaultHistogramIntervals = 20
	defaultRecentResultsLimit = 15
)

// TimelinePoint is one sample of the ballot-entry timeline: at the moment
// MinutesAgo before now, how many of the round's ballots were not yet entered,
// sitting as drafts, or confirmed.
type TimelinePoint struct {
	MinutesAgo     int
	NotYetEntered  int
	DraftCount     int
	ConfirmedCount int
}

// ResultSummary is one line of the "latest results" dashboard feed.
type ResultSummary struct {
	Description  string
	RelativeTime string
}

// QueryUseCase is the read side of the ballot core: dashboard tallies over
// state the command side maintains. Reads tolerate slight staleness relative
// to in-flight writes and never hold a debate's critical section.
type QueryUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	Formatter  ports.RelativeTimeFormatter
	Logger     *slog.Logger
}

// RoundStatusCounts tallies the round's debates by current result status.
// Every debate is counted exactly once.
func (uc QueryUseCase) RoundStatusCounts(ctx context.Context, roundID string) (map[entities.ResultStatus]int, error) {
	debates, err := uc.Repository.ListDebatesByRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return nil, err
	}
	counts := map[entities.ResultStatus]int{
		entities.ResultStatusNone:      0,
		entities.ResultStatusDraft:     0,
		entities.ResultStatusConfirmed: 0,
		entities.ResultStatusPostponed: 0,
	}
	for _, debate := range debates {
		counts[debate.ResultStatus]++
	}
	return counts, nil
}

// SubmissionTimelineHistogram reconstructs, for intervalCount+1 evenly spaced
// checkpoints between the round's oldest and newest submission, how many
// ballots had reached each status by that point. A ballot counts at a
// checkpoint once it was submitted at or before it, and is classified by its
// debate's current status. The nested scan is O(submissions x buckets), which
// is fine at tab-room scale. No submissions yields an empty slice; a single
// submission collapses every checkpoint onto the same threshold.
func (uc QueryUseCase) SubmissionTimelineHistogram(ctx context.Context, roundID string, intervalCount int) ([]TimelinePoint, error) {
	if intervalCount <= 0 {
		intervalCount = defaultHistogramIntervals
	}

	submissions, err := uc.Repository.ListSubmissionsByRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return nil, err
	}
	if len(submissions) == 0 {
		return []TimelinePoint{}, nil
	}
	debates, err := uc.Repository.ListDebatesByRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return nil, err
	}
	statusByDebate := make(map[string]entities.ResultStatus, len(debates))
	for _, debate := range debates {
		statusByDebate[debate.DebateID] = debate.ResultStatus
	}

	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].SubmittedAt.Before(submissions[j].SubmittedAt)
	})

	now := uc.Clock.Now().UTC()
	minutesAgo := func(t time.Time) float64 {
		return now.Sub(t.UTC()).Minutes()
	}

	// Oldest submission sits furthest in the past, so thresholds walk from
	// the largest minutes-ago value down to the smallest.
	start := minutesAgo(submissions[0].SubmittedAt)
	end := minutesAgo(submissions[len(submissions)-1].SubmittedAt)
	chunk := (end - start) / float64(intervalCount)

	points := make([]TimelinePoint, 0, intervalCount+1)
	for i := 0; i <= intervalCount; i++ {
		threshold := start + float64(i)*chunk
		point := TimelinePoint{
			MinutesAgo:    int(threshold),
			NotYetEntered: len(debates),
		}
		for _, sub := range submissions {
			if minutesAgo(sub.SubmittedAt) < threshold {
				continue
			}
			switch statusByDebate[sub.DebateID] {
			case entities.ResultStatusDraft:
				point.DraftCount++
				point.NotYetEntered--
			case entities.ResultStatusConfirmed:
				point.ConfirmedCount++
				point.NotYetEntered--
			}
		}
		points = append(points, point)
	}
	return points, nil
}

// RecentConfirmedResults lists the tournament's most recently confirmed
// ballots, newest first, rendered for the homepage ticker.
func (uc QueryUseCase) RecentConfirmedResults(ctx context.Context, tournamentID string, limit int) ([]ResultSummary, error) {
	logger := application.ResolveLogger(uc.Logger)
	if limit <= 0 {
		limit = defaultRecentResultsLimit
	}

	submissions, err := uc.Repository.ListConfirmedByTournament(ctx, strings.TrimSpace(tournamentID), limit)
	if err != nil {
		return nil, err
	}

	now := uc.Clock.Now().UTC()
	summaries := make([]ResultSummary, 0, len(submissions))
	for _, sub := range submissions {
		debate, err := uc.Repository.GetDebate(ctx, sub.DebateID)
		if err != nil {
			logger.Warn("skipping confirmed ballot with unresolvable debate",
				"event", "recent_results_debate_missing",
				"module", "tab-core/ballot-service",
				"layer", "application",
				"submission_id", sub.SubmissionID,
				"debate_id", sub.DebateID,
			)
			continue
		}

		var winner, loser string
		if sub.Scores.WinnerTeamID == debate.AffTeamID {
			winner = debate.AffTeamName + " (Aff)"
			loser = debate.NegTeamName + " (Neg)"
		} else {
			winner = debate.NegTeamName + " (Neg)"
			loser = debate.AffTeamName + " (Aff)"
		}

		summaries = append(summaries, ResultSummary{
			Description:  winner + " beat " + loser,
			RelativeTime: uc.relative(sub.SubmittedAt, now),
		})
	}
	return summaries, nil
}

func (uc QueryUseCase) relative(t time.Time, now time.Time) string {
	if uc.Formatter != nil {
		return uc.Formatter.Relative(t, now)
	}
	minutes := int(now.Sub(t.UTC()).Minutes())
	if minutes < 1 {
		return "just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	return fmt.Sprintf("%d hours ago", minutes/60)
}
