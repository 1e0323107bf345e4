package httptransport

// Request/response DTOs for the ballot service. Routing and templating live
// with the transport collaborator; these types are the wire contract.

type ScoreSetDTO struct {
	WinnerTeamID string `json:"winner_team_id"`
	Checksum     string `json:"checksum"`
}

type EnterBallotRequest struct {
	DebateID      string      `json:"debate_id"`
	SubmitterType string      `json:"submitter_type"`
	Scores        ScoreSetDTO `json:"scores"`
}

type PublicSubmitRequest struct {
	RoundID string      `json:"round_id"`
	Scores  ScoreSetDTO `json:"scores"`
}

type BallotSubmissionDTO struct {
	SubmissionID      string      `json:"submission_id"`
	DebateID          string      `json:"debate_id"`
	Version           int         `json:"version"`
	SubmitterType     string      `json:"submitter_type"`
	SubmitterID       string      `json:"submitter_id,omitempty"`
	Confirmed         bool        `json:"confirmed"`
	Discarded         bool        `json:"discarded"`
	ConfirmerID       string      `json:"confirmer_id,omitempty"`
	SubmittedAt       string      `json:"submitted_at"`
	ConfirmedAt       string      `json:"confirmed_at,omitempty"`
	Scores            ScoreSetDTO `json:"scores"`
	IdenticalVersions []int       `json:"identical_versions,omitempty"`
}

type EnterBallotResponse struct {
	Submission BallotSubmissionDTO `json:"submission"`
}

type DebateBallotsResponse struct {
	Items []BallotSubmissionDTO `json:"items"`
}

type ConfirmBallotRequest struct {
	AllowSelfConfirm bool `json:"allow_self_confirm"`
}

type TogglePostponedResponse struct {
	ResultStatus string `json:"result_status"`
}

type CheckinRequest struct {
	RoundID   string `json:"round_id"`
	VenueName string `json:"venue"`
}

type CheckinResponse struct {
	Venue        string   `json:"venue"`
	AffTeam      string   `json:"aff_team"`
	NegTeam      string   `json:"neg_team"`
	Adjudicators []string `json:"adjudicators"`
	BallotsLeft  int      `json:"ballots_left"`
}

type RemainingCountResponse struct {
	BallotsLeft int `json:"ballots_left"`
}

type RoundStatusCountsResponse struct {
	None      int `json:"none"`
	Draft     int `json:"draft"`
	Confirmed int `json:"confirmed"`
	Postponed int `json:"postponed"`
}

type TimelinePointDTO struct {
	MinutesAgo     int `json:"minutes_ago"`
	NotYetEntered  int `json:"not_yet_entered"`
	DraftCount     int `json:"draft_count"`
	ConfirmedCount int `json:"confirmed_count"`
}

type TimelineHistogramResponse struct {
	Items []TimelinePointDTO `json:"items"`
}

type ResultSummaryDTO struct {
	Description  string `json:"description"`
	RelativeTime string `json:"relative_time"`
}

type RecentResultsResponse struct {
	Items []ResultSummaryDTO `json:"items"`
}

// DenialResponse carries a user-correctable rejection back to the caller.
type DenialResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
