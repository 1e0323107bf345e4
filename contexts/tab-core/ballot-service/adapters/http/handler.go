package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tabroom/contexts/tab-core/ballot-service/application/commands"
	"tabroom/contexts/tab-core/ballot-service/application/queries"
	"tabroom/contexts/tab-core/ballot-service/domain/entities"
	httptransport "tabroom/contexts/tab-core/ballot-service/transport/http"
)

// Handler is the method-call surface the transport collaborator binds routes
// to. Actor identity arrives as a parameter, already authenticated upstream.
type Handler struct {
	Enter      commands.EnterBallotUseCase
	Confirm    commands.ConfirmBallotUseCase
	Postpone   commands.TogglePostponedUseCase
	Checkin    commands.CheckinUseCase
	PublicGate commands.PublicGateUseCase
	Queries    queries.QueryUseCase
	Logger     *slog.Logger

	// Tournament-level policy and dashboard defaults from config. Requests
	// may narrow but not widen them, except AllowSelfConfirm which elevated
	// actors can also set per request.
	AllowSelfConfirm   bool
	HistogramIntervals int
	RecentResultsLimit int
}

func (h Handler) EnterBallotHandler(
	ctx context.Context,
	actorID string,
	ipAddress string,
	req httptransport.EnterBallotRequest,
) (httptransport.EnterBallotResponse, error) {
	item, err := h.Enter.Execute(ctx, commands.EnterBallotCommand{
		DebateID:      req.DebateID,
		SubmitterType: entities.SubmitterType(req.SubmitterType),
		SubmitterID:   actorID,
		IPAddress:     ipAddress,
		Scores: entities.ScoreSet{
			WinnerTeamID: req.Scores.WinnerTeamID,
			Checksum:     req.Scores.Checksum,
		},
	})
	if err != nil {
		return httptransport.EnterBallotResponse{}, err
	}
	return httptransport.EnterBallotResponse{Submission: mapSubmission(item, nil)}, nil
}

func (h Handler) PublicSubmitHandler(
	ctx context.Context,
	adjudicatorID string,
	ipAddress string,
	req httptransport.PublicSubmitRequest,
) (httptransport.EnterBallotResponse, error) {
	item, err := h.PublicGate.Submit(ctx, commands.PublicSubmitCommand{
		AdjudicatorID: adjudicatorID,
		RoundID:       req.RoundID,
		IPAddress:     ipAddress,
		Scores: entities.ScoreSet{
			WinnerTeamID: req.Scores.WinnerTeamID,
			Checksum:     req.Scores.Checksum,
		},
	})
	if err != nil {
		return httptransport.EnterBallotResponse{}, err
	}
	return httptransport.EnterBallotResponse{Submission: mapSubmission(item, nil)}, nil
}

func (h Handler) ConfirmBallotHandler(
	ctx context.Context,
	actorID string,
	ipAddress string,
	submissionID string,
	req httptransport.ConfirmBallotRequest,
) error {
	return h.Confirm.Confirm(ctx, commands.ConfirmBallotCommand{
		SubmissionID:     submissionID,
		ConfirmerID:      actorID,
		IPAddress:        ipAddress,
		AllowSelfConfirm: req.AllowSelfConfirm || h.AllowSelfConfirm,
	})
}

func (h Handler) DiscardBallotHandler(
	ctx context.Context,
	actorID string,
	ipAddress string,
	submissionID string,
) error {
	return h.Confirm.Discard(ctx, commands.DiscardBallotCommand{
		SubmissionID: submissionID,
		ActorID:      actorID,
		IPAddress:    ipAddress,
	})
}

func (h Handler) TogglePostponedHandler(
	ctx context.Context,
	actorID string,
	ipAddress string,
	debateID string,
) (httptransport.TogglePostponedResponse, error) {
	status, err := h.Postpone.Execute(ctx, commands.TogglePostponedCommand{
		DebateID:  debateID,
		ActorID:   actorID,
		IPAddress: ipAddress,
	})
	if err != nil {
		return httptransport.TogglePostponedResponse{}, err
	}
	return httptransport.TogglePostponedResponse{ResultStatus: string(status)}, nil
}

func (h Handler) CheckinHandler(
	ctx context.Context,
	actorID string,
	ipAddress string,
	req httptransport.CheckinRequest,
) (httptransport.CheckinResponse, error) {
	result, err := h.Checkin.Checkin(ctx, commands.CheckinCommand{
		RoundID:   req.RoundID,
		VenueName: req.VenueName,
		ActorID:   actorID,
		IPAddress: ipAddress,
	})
	if err != nil {
		return httptransport.CheckinResponse{}, err
	}
	return httptransport.CheckinResponse{
		Venue:        result.VenueName,
		AffTeam:      result.AffTeamName,
		NegTeam:      result.NegTeamName,
		Adjudicators: result.Adjudicators,
		BallotsLeft:  result.BallotsLeft,
	}, nil
}

func (h Handler) RemainingCountHandler(ctx context.Context, roundID string) (httptransport.RemainingCountResponse, error) {
	left, err := h.Checkin.RemainingCount(ctx, roundID)
	if err != nil {
		return httptransport.RemainingCountResponse{}, err
	}
	return httptransport.RemainingCountResponse{BallotsLeft: left}, nil
}

func (h Handler) DebateBallotsHandler(
	ctx context.Context,
	debateID string,
	includeDiscarded bool,
) (httptransport.DebateBallotsResponse, error) {
	ballots, err := h.Queries.DebateSubmissions(ctx, debateID, includeDiscarded)
	if err != nil {
		return httptransport.DebateBallotsResponse{}, err
	}
	items := make([]httptransport.BallotSubmissionDTO, 0, len(ballots.Submissions))
	for _, sub := range ballots.Submissions {
		items = append(items, mapSubmission(sub, ballots.IdenticalVersions[sub.SubmissionID]))
	}
	return httptransport.DebateBallotsResponse{Items: items}, nil
}

func (h Handler) RoundStatusCountsHandler(ctx context.Context, roundID string) (httptransport.RoundStatusCountsResponse, error) {
	counts, err := h.Queries.RoundStatusCounts(ctx, roundID)
	if err != nil {
		return httptransport.RoundStatusCountsResponse{}, err
	}
	return httptransport.RoundStatusCountsResponse{
		None:      counts[entities.ResultStatusNone],
		Draft:     counts[entities.ResultStatusDraft],
		Confirmed: counts[entities.ResultStatusConfirmed],
		Postponed: counts[entities.ResultStatusPostponed],
	}, nil
}

func (h Handler) TimelineHistogramHandler(
	ctx context.Context,
	roundID string,
	intervalCount int,
) (httptransport.TimelineHistogramResponse, error) {
	if intervalCount <= 0 {
		intervalCount = h.HistogramIntervals
	}
	points, err := h.Queries.SubmissionTimelineHistogram(ctx, roundID, intervalCount)
	if err != nil {
		return httptransport.TimelineHistogramResponse{}, err
	}
	items := make([]httptransport.TimelinePointDTO, 0, len(points))
	for _, point := range points {
		items = append(items, httptransport.TimelinePointDTO{
			MinutesAgo:     point.MinutesAgo,
			NotYetEntered:  point.NotYetEntered,
			DraftCount:     point.DraftCount,
			ConfirmedCount: point.ConfirmedCount,
		})
	}
	return httptransport.TimelineHistogramResponse{Items: items}, nil
}

func (h Handler) RecentResultsHandler(
	ctx context.Context,
	tournamentID string,
	limit int,
) (httptransport.RecentResultsResponse, error) {
	if limit <= 0 {
		limit = h.RecentResultsLimit
	}
	summaries, err := h.Queries.RecentConfirmedResults(ctx, tournamentID, limit)
	if err != nil {
		return httptransport.RecentResultsResponse{}, err
	}
	items := make([]httptransport.ResultSummaryDTO, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, httptransport.ResultSummaryDTO{
			Description:  summary.Description,
			RelativeTime: summary.RelativeTime,
		})
	}
	return httptransport.RecentResultsResponse{Items: items}, nil
}

func mapSubmission(item entities.BallotSubmission, identical []int) httptransport.BallotSubmissionDTO {
	dto := httptransport.BallotSubmissionDTO{
		SubmissionID:  item.SubmissionID,
		DebateID:      item.DebateID,
		Version:       item.Version,
		SubmitterType: string(item.SubmitterType),
		SubmitterID:   item.SubmitterID,
		Confirmed:     item.Confirmed,
		Discarded:     item.Discarded,
		ConfirmerID:   item.ConfirmerID,
		SubmittedAt:   item.SubmittedAt.Format(time.RFC3339),
		Scores: httptransport.ScoreSetDTO{
			WinnerTeamID: item.Scores.WinnerTeamID,
			Checksum:     item.Scores.Checksum,
		},
		IdenticalVersions: identical,
	}
	if item.ConfirmedAt != nil {
		dto.ConfirmedAt = item.ConfirmedAt.Format(time.RFC3339)
	}
	return dto
}
