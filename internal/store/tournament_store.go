package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	createTournamentQuery = `
		INSERT INTO tournaments (id, owner_id, name, status, created_at)
		VALUES (:id, :owner_id, :name, :status, :created_at)
	`
	createTeamQuery = `
		INSERT INTO teams (id, tournament_id, name, credential_hash, position, created_at)
		VALUES (:id, :tournament_id, :name, :credential_hash, :position, :created_at)
	`
	createBracketQuery = `
		INSERT INTO brackets (id, tournament_id, position,
			left_kind, left_team_id, left_bracket_id,
			right_kind, right_team_id, right_bracket_id, created_at)
		VALUES (:id, :tournament_id, :position,
			:left_kind, :left_team_id, :left_bracket_id,
			:right_kind, :right_team_id, :right_bracket_id, :created_at)
	`
	// Only unscored brackets can be scored, a score is never overwritten
	updateBracketScoreQuery = `
		UPDATE brackets SET score_left = ?, score_right = ?, scored_at = ?
		WHERE id = ? AND score_left IS NULL
	`
)

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *TournamentRecord) error {
	_, err := tx.NamedExecContext(ctx, createTournamentQuery, tournament)
	return err
}

func (s *TournamentStore) CreateTeam(ctx context.Context, tx *sqlx.Tx, team *TeamRecord) error {
	_, err := tx.NamedExecContext(ctx, createTeamQuery, team)
	return err
}

func (s *TournamentStore) CreateBracket(ctx context.Context, tx *sqlx.Tx, bracket *BracketRecord) error {
	_, err := tx.NamedExecContext(ctx, createBracketQuery, bracket)
	return err
}

// UpdateBracketScore returns sql.ErrNoRows if the bracket is unknown or was
// already scored.
func (s *TournamentStore) UpdateBracketScore(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, left, right int, scoredAt time.Time) error {
	res, err := tx.ExecContext(ctx, updateBracketScoreQuery, left, right, scoredAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*TournamentRecord, error) {
	return getTournament(ctx, s.db, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*TournamentRecord, error) {
	return getTournament(ctx, tx, id)
}

func getTournament(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*TournamentRecord, error) {
	var tournament TournamentRecord
	if err := sqlx.GetContext(ctx, q, &tournament, "SELECT * FROM tournaments WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentByName(ctx context.Context, name string) (*TournamentRecord, error) {
	var tournament TournamentRecord
	if err := s.db.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE name = ?", name); err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentsByUserID(ctx context.Context, userID uuid.UUID) ([]TournamentRecord, error) {
	var tournaments []TournamentRecord
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments WHERE owner_id = ? ORDER BY created_at DESC", userID)
	return tournaments, err
}

func (s *TournamentStore) GetTeams(ctx context.Context, tournamentID uuid.UUID) ([]TeamRecord, error) {
	return getTeams(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetTeamsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]TeamRecord, error) {
	return getTeams(ctx, tx, tournamentID)
}

func getTeams(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]TeamRecord, error) {
	var teams []TeamRecord
	err := sqlx.SelectContext(ctx, q, &teams, "SELECT * FROM teams WHERE tournament_id = ? ORDER BY position ASC", tournamentID)
	return teams, err
}

func (s *TournamentStore) GetBrackets(ctx context.Context, tournamentID uuid.UUID) ([]BracketRecord, error) {
	return getBrackets(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetBracketsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]BracketRecord, error) {
	return getBrackets(ctx, tx, tournamentID)
}

func getBrackets(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]BracketRecord, error) {
	var brackets []BracketRecord
	err := sqlx.SelectContext(ctx, q, &brackets, "SELECT * FROM brackets WHERE tournament_id = ? ORDER BY position ASC", tournamentID)
	return brackets, err
}

// IsUniqueViolation reports whether err comes from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
