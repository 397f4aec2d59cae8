package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/AdamBeresnev/beerpong/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

// Publisher receives a fresh snapshot after every recorded score.
type Publisher interface {
	Publish(tournamentID uuid.UUID, snapshot TournamentSnapshot)
}

type ScoreService struct {
	db        *sqlx.DB
	store     *store.TournamentStore
	clock     clockwork.Clock
	publisher Publisher
}

func NewScoreService(db *sqlx.DB, store *store.TournamentStore, clock clockwork.Clock, publisher Publisher) *ScoreService {
	return &ScoreService{db: db, store: store, clock: clock, publisher: publisher}
}

type ScoreInput struct {
	TournamentID uuid.UUID
	BracketID    uuid.UUID
	Score        bracket.Score
	// TeamID is the team reporting the score. uuid.Nil means the organizer.
	TeamID uuid.UUID
}

// SetScore records the result of a playable bracket. A team may only report
// scores for brackets it plays in.
func (s *ScoreService) SetScore(ctx context.Context, input ScoreInput) (*TournamentSnapshot, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := loadTournament(ctx, s.store, tx, input.TournamentID)
	if err != nil {
		return nil, err
	}

	b, err := tournament.Bracket(input.BracketID)
	if err != nil {
		return nil, err
	}

	if input.TeamID != uuid.Nil {
		team, err := tournament.Team(input.TeamID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
		}
		if b.Left() != team && b.Right() != team {
			return nil, fmt.Errorf("%w: team %q does not play in bracket %s", ErrForbidden, team.Name(), b.ID())
		}
	}

	if err := b.Record(input.Score); err != nil {
		return nil, err
	}

	scoredAt := s.clock.Now().UTC()
	if err := s.store.UpdateBracketScore(ctx, tx, b.ID(), input.Score.Left(), input.Score.Right(), scoredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: bracket %s already has a score", bracket.ErrState, b.ID())
		}
		return nil, fmt.Errorf("failed to update bracket score: %w", err)
	}

	if err := s.store.UpdateTournamentStatusTx(ctx, tx, tournament.ID, tournament.Status()); err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("score recorded",
		"tournament", tournament.ID,
		"bracket", b.ID(),
		"score", input.Score.String(),
		"winner", b.Winner(),
	)

	snapshot := NewSnapshot(tournament)
	if s.publisher != nil {
		s.publisher.Publish(tournament.ID, snapshot)
	}
	return &snapshot, nil
}
