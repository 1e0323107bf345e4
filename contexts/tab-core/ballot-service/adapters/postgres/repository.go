package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tabroom/contexts/tab-core/ballot-service/domain/entities"
	domainerrors "tabroom/contexts/tab-core/ballot-service/domain/errors"
	"tabroom/contexts/tab-core/ballot-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the durable store. MutateDebate runs inside one database
// transaction with the debate row locked FOR UPDATE, which gives every
// command the per-debate critical section the core requires; the audit row
// commits in the same transaction, so a transition is never reported as
// succeeded without its audit entry.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) MutateDebate(
	ctx context.Context,
	debateID string,
	fn func(view ports.DebateView) (ports.DebateMutation, error),
) (ports.DebateMutation, error) {
	var mutation ports.DebateMutation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var debateRow debateModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("debate_id = ?", strings.TrimSpace(debateID)).
			First(&debateRow).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrDebateNotFound
			}
			return err
		}

		var submissionRows []ballotSubmissionModel
		if err := tx.
			Where("debate_id = ?", debateRow.DebateID).
			Order("version ASC").
			Find(&submissionRows).
			Error; err != nil {
			return err
		}

		view := ports.DebateView{Debate: debateRow.toEntity()}
		for _, row := range submissionRows {
			view.Submissions = append(view.Submissions, row.toEntity())
		}

		mutation, err = fn(view)
		if err != nil {
			return err
		}

		for _, sub := range mutation.Saved {
			row := ballotSubmissionModelFromEntity(sub)
			result := tx.
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "submission_id"}},
					UpdateAll: true,
				}).
				Create(&row)
			if result.Error != nil {
				if isUniqueViolation(result.Error) {
					// The (debate_id, version) index caught a concurrent
					// allocation that slipped past the row lock.
					r.logger.Warn("version allocation collided",
						"event", "ballot_version_conflict",
						"module", "tab-core/ballot-service",
						"layer", "adapter",
						"debate_id", sub.DebateID,
						"version", sub.Version,
					)
					return domainerrors.ErrVersionConflict
				}
				return result.Error
			}
		}

		updated := debateModelFromEntity(mutation.Debate)
		if err := tx.
			Model(&debateModel{}).
			Where("debate_id = ?", updated.DebateID).
			Updates(map[string]any{
				"result_status": updated.ResultStatus,
				"ballot_in":     updated.BallotIn,
			}).
			Error; err != nil {
			return err
		}

		if mutation.Audit != nil {
			auditRow := auditModelFromEntity(*mutation.Audit)
			if err := tx.Create(&auditRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ports.DebateMutation{}, err
	}
	return mutation, nil
}

func (r *Repository) GetSubmission(ctx context.Context, submissionID string) (entities.BallotSubmission, error) {
	var row ballotSubmissionModel
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.BallotSubmission{}, domainerrors.ErrSubmissionNotFound
		}
		return entities.BallotSubmission{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSubmissionsByDebate(ctx context.Context, debateID string) ([]entities.BallotSubmission, error) {
	var rows []ballotSubmissionModel
	if err := r.db.WithContext(ctx).
		Where("debate_id = ?", strings.TrimSpace(debateID)).
		Order("version ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return submissionsToEntities(rows), nil
}

func (r *Repository) ListSubmissionsByRound(ctx context.Context, roundID string) ([]entities.BallotSubmission, error) {
	var rows []ballotSubmissionModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN debates ON debates.debate_id = ballot_submissions.debate_id").
		Where("debates.round_id = ?", strings.TrimSpace(roundID)).
		Order("ballot_submissions.submitted_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return submissionsToEntities(rows), nil
}

func (r *Repository) ListConfirmedByTournament(ctx context.Context, tournamentID string, limit int) ([]entities.BallotSubmission, error) {
	if limit <= 0 {
		limit = 15
	}
	var rows []ballotSubmissionModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN debates ON debates.debate_id = ballot_submissions.debate_id").
		Joins("JOIN rounds ON rounds.round_id = debates.round_id").
		Where("rounds.tournament_id = ?", strings.TrimSpace(tournamentID)).
		Where("ballot_submissions.confirmed = ?", true).
		Where("ballot_submissions.discarded = ?", false).
		Order("ballot_submissions.submitted_at DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return submissionsToEntities(rows), nil
}

func (r *Repository) GetDebate(ctx context.Context, debateID string) (entities.Debate, error) {
	var row debateModel
	err := r.db.WithContext(ctx).
		Where("debate_id = ?", strings.TrimSpace(debateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Debate{}, domainerrors.ErrDebateNotFound
		}
		return entities.Debate{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListDebatesByRound(ctx context.Context, roundID string) ([]entities.Debate, error) {
	var rows []debateModel
	if err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Order("debate_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Debate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetRound(ctx context.Context, roundID string) (entities.Round, error) {
	var row roundModel
	err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Round{}, domainerrors.ErrRoundNotFound
		}
		return entities.Round{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) FindVenueByName(ctx context.Context, tournamentID string, name string) (entities.Venue, bool, error) {
	var row venueModel
	err := r.db.WithContext(ctx).
		Where("tournament_id = ?", strings.TrimSpace(tournamentID)).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Venue{}, false, nil
		}
		return entities.Venue{}, false, err
	}
	return entities.Venue{
		VenueID:      row.VenueID,
		TournamentID: row.TournamentID,
		Name:         row.Name,
	}, true, nil
}

func (r *Repository) ListPanel(ctx context.Context, debateID string) ([]entities.PanelAssignment, error) {
	var rows []panelAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("debate_id = ?", strings.TrimSpace(debateID)).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.PanelAssignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) FindAssignment(ctx context.Context, adjudicatorID string, roundID string) (entities.PanelAssignment, bool, error) {
	var row panelAssignmentModel
	err := r.db.WithContext(ctx).
		Where("adjudicator_id = ?", strings.TrimSpace(adjudicatorID)).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PanelAssignment{}, false, nil
		}
		return entities.PanelAssignment{}, false, err
	}
	return row.toEntity(), true, nil
}

type debateModel struct {
	DebateID     string `gorm:"column:debate_id;primaryKey"`
	RoundID      string `gorm:"column:round_id"`
	AffTeamID    string `gorm:"column:aff_team_id"`
	AffTeamName  string `gorm:"column:aff_team_name"`
	NegTeamID    string `gorm:"column:neg_team_id"`
	NegTeamName  string `gorm:"column:neg_team_name"`
	VenueID      string `gorm:"column:venue_id"`
	VenueName    string `gorm:"column:venue_name"`
	ResultStatus string `gorm:"column:result_status"`
	BallotIn     bool   `gorm:"column:ballot_in"`
}

func (debateModel) TableName() string {
	return "debates"
}

func debateModelFromEntity(item entities.Debate) debateModel {
	return debateModel{
		DebateID:     strings.TrimSpace(item.DebateID),
		RoundID:      strings.TrimSpace(item.RoundID),
		AffTeamID:    item.AffTeamID,
		AffTeamName:  item.AffTeamName,
		NegTeamID:    item.NegTeamID,
		NegTeamName:  item.NegTeamName,
		VenueID:      item.VenueID,
		VenueName:    item.VenueName,
		ResultStatus: string(item.ResultStatus),
		BallotIn:     item.BallotIn,
	}
}

func (m debateModel) toEntity() entities.Debate {
	return entities.Debate{
		DebateID:     m.DebateID,
		RoundID:      m.RoundID,
		AffTeamID:    m.AffTeamID,
		AffTeamName:  m.AffTeamName,
		NegTeamID:    m.NegTeamID,
		NegTeamName:  m.NegTeamName,
		VenueID:      m.VenueID,
		VenueName:    m.VenueName,
		ResultStatus: entities.ResultStatus(m.ResultStatus),
		BallotIn:     m.BallotIn,
	}
}

type ballotSubmissionModel struct {
	SubmissionID  string     `gorm:"column:submission_id;primaryKey"`
	DebateID      string     `gorm:"column:debate_id;uniqueIndex:idx_debate_version"`
	Version       int        `gorm:"column:version;uniqueIndex:idx_debate_version"`
	SubmitterType string     `gorm:"column:submitter_type"`
	SubmitterID   string     `gorm:"column:submitter_id"`
	Confirmed     bool       `gorm:"column:confirmed"`
	Discarded     bool       `gorm:"column:discarded"`
	ConfirmerID   string     `gorm:"column:confirmer_id"`
	SubmittedAt   time.Time  `gorm:"column:submitted_at"`
	ConfirmedAt   *time.Time `gorm:"column:confirmed_at"`
	IPAddress     string     `gorm:"column:ip_address"`
	WinnerTeamID  string     `gorm:"column:winner_team_id"`
	ScoreChecksum string     `gorm:"column:score_checksum"`
}

func (ballotSubmissionModel) TableName() string {
	return "ballot_submissions"
}

func ballotSubmissionModelFromEntity(item entities.BallotSubmission) ballotSubmissionModel {
	return ballotSubmissionModel{
		SubmissionID:  strings.TrimSpace(item.SubmissionID),
		DebateID:      strings.TrimSpace(item.DebateID),
		Version:       item.Version,
		SubmitterType: string(item.SubmitterType),
		SubmitterID:   strings.TrimSpace(item.SubmitterID),
		Confirmed:     item.Confirmed,
		Discarded:     item.Discarded,
		ConfirmerID:   strings.TrimSpace(item.ConfirmerID),
		SubmittedAt:   item.SubmittedAt.UTC(),
		ConfirmedAt:   normalizeOptionalTime(item.ConfirmedAt),
		IPAddress:     strings.TrimSpace(item.IPAddress),
		WinnerTeamID:  item.Scores.WinnerTeamID,
		ScoreChecksum: item.Scores.Checksum,
	}
}

func (m ballotSubmissionModel) toEntity() entities.BallotSubmission {
	return entities.BallotSubmission{
		SubmissionID:  m.SubmissionID,
		DebateID:      m.DebateID,
		Version:       m.Version,
		SubmitterType: entities.SubmitterType(m.SubmitterType),
		SubmitterID:   m.SubmitterID,
		Confirmed:     m.Confirmed,
		Discarded:     m.Discarded,
		ConfirmerID:   m.ConfirmerID,
		SubmittedAt:   m.SubmittedAt.UTC(),
		ConfirmedAt:   normalizeOptionalTime(m.ConfirmedAt),
		IPAddress:     m.IPAddress,
		Scores: entities.ScoreSet{
			WinnerTeamID: m.WinnerTeamID,
			Checksum:     m.ScoreChecksum,
		},
	}
}

func submissionsToEntities(rows []ballotSubmissionModel) []entities.BallotSubmission {
	items := make([]entities.BallotSubmission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

type roundModel struct {
	RoundID         string `gorm:"column:round_id;primaryKey"`
	TournamentID    string `gorm:"column:tournament_id"`
	Seq             int    `gorm:"column:seq"`
	DrawReleased    bool   `gorm:"column:draw_released"`
	MotionsReleased bool   `gorm:"column:motions_released"`
}

func (roundModel) TableName() string {
	return "rounds"
}

func (m roundModel) toEntity() entities.Round {
	return entities.Round{
		RoundID:         m.RoundID,
		TournamentID:    m.TournamentID,
		Seq:             m.Seq,
		DrawReleased:    m.DrawReleased,
		MotionsReleased: m.MotionsReleased,
	}
}

type venueModel struct {
	VenueID      string `gorm:"column:venue_id;primaryKey"`
	TournamentID string `gorm:"column:tournament_id"`
	Name         string `gorm:"column:name"`
}

func (venueModel) TableName() string {
	return "venues"
}

type panelAssignmentModel struct {
	DebateID        string `gorm:"column:debate_id;primaryKey"`
	AdjudicatorID   string `gorm:"column:adjudicator_id;primaryKey"`
	RoundID         string `gorm:"column:round_id"`
	AdjudicatorName string `gorm:"column:adjudicator_name"`
	Role            string `gorm:"column:role"`
}

func (panelAssignmentModel) TableName() string {
	return "panel_assignments"
}

func (m panelAssignmentModel) toEntity() entities.PanelAssignment {
	return entities.PanelAssignment{
		DebateID:        m.DebateID,
		RoundID:         m.RoundID,
		AdjudicatorID:   m.AdjudicatorID,
		AdjudicatorName: m.AdjudicatorName,
		Role:            entities.PanelRole(m.Role),
	}
}

type auditModel struct {
	AuditID      string    `gorm:"column:audit_id;primaryKey"`
	Kind         string    `gorm:"column:kind"`
	ActorID      string    `gorm:"column:actor_id"`
	DebateID     string    `gorm:"column:debate_id"`
	SubmissionID string    `gorm:"column:submission_id"`
	IPAddress    string    `gorm:"column:ip_address"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (auditModel) TableName() string {
	return "ballot_audit"
}

func auditModelFromEntity(item entities.AuditEntry) auditModel {
	return auditModel{
		AuditID:      strings.TrimSpace(item.AuditID),
		Kind:         string(item.Kind),
		ActorID:      strings.TrimSpace(item.ActorID),
		DebateID:     strings.TrimSpace(item.DebateID),
		SubmissionID: strings.TrimSpace(item.SubmissionID),
		IPAddress:    strings.TrimSpace(item.IPAddress),
		CreatedAt:    item.CreatedAt.UTC(),
	}
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
