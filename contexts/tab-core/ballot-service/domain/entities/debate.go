package entities

// ResultStatus is the derived result state stored on a debate.
type ResultStatus string

const (
	ResultStatusNone      ResultStatus = "none"
	ResultStatusDraft     ResultStatus = "draft"
	ResultStatusConfirmed ResultStatus = "confirmed"
	ResultStatusPostponed ResultStatus = "postponed"
)

// Debate is one scheduled match between two teams in a round. Scheduling owns
// the pairing; this service only mutates ResultStatus and BallotIn.
type Debate struct {
	DebateID     string
	RoundID      string
	AffTeamID    string
	AffTeamName  string
	NegTeamID    string
	NegTeamName  string
	VenueID      string
	VenueName    string
	ResultStatus ResultStatus
	BallotIn     bool
}

// Matchup renders the debate the way tab staff talk about it.
func (d Debate) Matchup() string {
	return d.AffTeamName + " vs " + d.NegTeamName
}

// Round carries the release flags the public gate checks. Draw and motion
// management are external; only the flags matter here.
type Round struct {
	RoundID         string
	TournamentID    string
	Seq             int
	DrawReleased    bool
	MotionsReleased bool
}

// Venue is a named room in a tournament.
type Venue struct {
	VenueID      string
	TournamentID string
	Name         string
}

type PanelRole string

const (
	PanelRoleChair     PanelRole = "chair"
	PanelRolePanellist PanelRole = "panellist"
	PanelRoleTrainee   PanelRole = "trainee"
)

// PanelAssignment links an adjudicator to a debate's panel.
type PanelAssignment struct {
	DebateID        string
	RoundID         string
	AdjudicatorID   string
	AdjudicatorName string
	Role            PanelRole
}
