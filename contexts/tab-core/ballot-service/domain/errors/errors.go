package errors

import "errors"

var (
	ErrSubmissionNotFound = errors.New("ballot submission not found")
	ErrDebateNotFound     = errors.New("debate not found")
	ErrRoundNotFound      = errors.New("round not found")

	ErrInvalidBallotInput  = errors.New("invalid ballot input")
	ErrMissingChair        = errors.New("debate has no chair adjudicator")
	ErrSelfConfirmation    = errors.New("submitter may not confirm their own ballot")
	ErrSubmissionDiscarded = errors.New("ballot submission is discarded")
	ErrVersionConflict     = errors.New("ballot version allocation conflict")
	ErrInvalidState        = errors.New("operation not allowed in current result state")

	ErrVenueNotFound    = errors.New("venue not found")
	ErrNoDebateAtVenue  = errors.New("no debate at venue this round")
	ErrAlreadyCheckedIn = errors.New("ballot already checked in")

	ErrNotReleasedYet        = errors.New("draw or motions not released yet")
	ErrNoAssignmentThisRound = errors.New("no panel assignment this round")
)

// Denial is a user-correctable rejection: a machine-checkable reason plus the
// message shown verbatim to the caller. Reason stays errors.Is-checkable
// through Unwrap.
type Denial struct {
	Reason  error
	Message string
}

func (d *Denial) Error() string {
	return d.Message
}

func (d *Denial) Unwrap() error {
	return d.Reason
}

// Deny builds a Denial for the given reason sentinel.
func Deny(reason error, message string) *Denial {
	return &Denial{Reason: reason, Message: message}
}
