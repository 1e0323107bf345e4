package entities

import (
	"strings"
	"time"
)

type SubmitterType string

const (
	SubmitterTypePublic  SubmitterType = "public"
	SubmitterTypeTrainee SubmitterType = "trainee"
	SubmitterTypeChair   SubmitterType = "chair"
	SubmitterTypeTabroom SubmitterType = "tabroom"
)

// ScoreSet is the scoring content of one ballot submission. The per-speaker
// arithmetic happens in the external scoring module; this service only needs
// value equality (Checksum) and the derived winner.
type ScoreSet struct {
	WinnerTeamID string
	Checksum     string
}

func (s ScoreSet) Equal(other ScoreSet) bool {
	return s.Checksum == other.Checksum
}

// BallotSubmission is one versioned scoring record for a debate. Versions are
// allocated per debate starting at 1 and never reused; discarding tombstones
// the record instead of deleting it so audit history and numbering survive.
type BallotSubmission struct {
	SubmissionID  string
	DebateID      string
	Version       int
	SubmitterType SubmitterType
	SubmitterID   string
	Confirmed     bool
	Discarded     bool
	ConfirmerID   string
	SubmittedAt   time.Time
	ConfirmedAt   *time.Time
	IPAddress     string
	Scores        ScoreSet
}

func (b BallotSubmission) ValidateCreate() bool {
	return strings.TrimSpace(b.DebateID) != "" &&
		b.SubmitterType != "" &&
		strings.TrimSpace(b.Scores.Checksum) != "" &&
		strings.TrimSpace(b.Scores.WinnerTeamID) != ""
}

// Live reports whether the submission still counts toward the debate's result.
func (b BallotSubmission) Live() bool {
	return !b.Discarded
}

// AuditEntry records one state-machine transition. Appended in the same
// transaction as the transition itself; storage is owned by the audit
// collaborator.
type AuditEntry struct {
	AuditID      string
	Kind         AuditKind
	ActorID      string
	DebateID     string
	SubmissionID string
	IPAddress    string
	CreatedAt    time.Time
}

type AuditKind string

const (
	AuditKindCreated     AuditKind = "created"
	AuditKindSubmitted   AuditKind = "submitted"
	AuditKindConfirmed   AuditKind = "confirmed"
	AuditKindDiscarded   AuditKind = "discarded"
	AuditKindPostponed   AuditKind = "postponed"
	AuditKindUnpostponed AuditKind = "unpostponed"
	AuditKindCheckin     AuditKind = "checkin"
)
