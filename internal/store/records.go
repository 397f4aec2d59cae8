package store

import (
	"time"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/google/uuid"
)

type TournamentRecord struct {
	ID        uuid.UUID                `db:"id"`
	OwnerID   uuid.UUID                `db:"owner_id"`
	Name      string                   `db:"name"`
	Status    bracket.TournamentStatus `db:"status"`
	CreatedAt time.Time                `db:"created_at"`
}

// TeamRecord never holds the plain credential, only its bcrypt hash.
type TeamRecord struct {
	ID             uuid.UUID `db:"id"`
	TournamentID   uuid.UUID `db:"tournament_id"`
	Name           string    `db:"name"`
	CredentialHash []byte    `db:"credential_hash"`
	Position       int       `db:"position"`
	CreatedAt      time.Time `db:"created_at"`
}

// BracketRecord stores how a bracket was built and its score. Winners are
// not stored, they follow from the scores when the tree is rebuilt.
type BracketRecord struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	Position     int       `db:"position"`

	LeftKind       string     `db:"left_kind"`
	LeftTeamID     *uuid.UUID `db:"left_team_id"`
	LeftBracketID  *uuid.UUID `db:"left_bracket_id"`
	RightKind      string     `db:"right_kind"`
	RightTeamID    *uuid.UUID `db:"right_team_id"`
	RightBracketID *uuid.UUID `db:"right_bracket_id"`

	ScoreLeft  *int       `db:"score_left"`
	ScoreRight *int       `db:"score_right"`
	ScoredAt   *time.Time `db:"scored_at"`

	CreatedAt time.Time `db:"created_at"`
}
