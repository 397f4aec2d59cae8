package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/AdamBeresnev/beerpong/internal/middleware"
	"github.com/AdamBeresnev/beerpong/internal/store"
	users "github.com/AdamBeresnev/beerpong/internal/user"
	"github.com/AdamBeresnev/beerpong/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

type TournamentService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	clock clockwork.Clock
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, clock clockwork.Clock) *TournamentService {
	return &TournamentService{db: db, store: store, clock: clock}
}

// RegisteredTeam is handed out once at registration. Credential can't be
// recovered afterwards.
type RegisteredTeam struct {
	ID         uuid.UUID
	Name       string
	Credential string
}

func (s *TournamentService) CreateTournament(ctx context.Context, name string) (uuid.UUID, error) {
	tournament, err := bracket.NewTournament(name)
	if err != nil {
		return uuid.Nil, err
	}

	ownerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ownerID = users.GuestID
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	record := store.TournamentRecord{
		ID:        tournament.ID,
		OwnerID:   ownerID,
		Name:      tournament.Name,
		Status:    bracket.TournamentDraft,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.store.CreateTournament(ctx, tx, &record); err != nil {
		if store.IsUniqueViolation(err) {
			return uuid.Nil, fmt.Errorf("%w: tournament %q already exists", bracket.ErrValidation, name)
		}
		return uuid.Nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	return tournament.ID, tx.Commit()
}

func (s *TournamentService) RegisterTeam(ctx context.Context, tournamentID uuid.UUID, name string) (*RegisteredTeam, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := loadTournament(ctx, s.store, tx, tournamentID)
	if err != nil {
		return nil, err
	}

	team, err := tournament.AddTeam(name)
	if err != nil {
		return nil, err
	}

	record := store.TeamRecord{
		ID:             team.ID(),
		TournamentID:   tournamentID,
		Name:           team.Name(),
		CredentialHash: team.Fingerprint(),
		Position:       len(tournament.Teams()) - 1,
		CreatedAt:      s.clock.Now().UTC(),
	}
	if err := s.store.CreateTeam(ctx, tx, &record); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: team name %q is already taken", bracket.ErrValidation, name)
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &RegisteredTeam{ID: team.ID(), Name: team.Name(), Credential: team.ReadCredential()}, nil
}

// AddBracket adds a bracket to the tree. Children have to exist already, so
// the tree is always built from the first round upwards.
func (s *TournamentService) AddBracket(ctx context.Context, tournamentID uuid.UUID, left, right bracket.SlotRef) (uuid.UUID, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	tournament, err := loadTournament(ctx, s.store, tx, tournamentID)
	if err != nil {
		return uuid.Nil, err
	}

	b, err := tournament.AddBracket(left, right)
	if err != nil {
		return uuid.Nil, err
	}

	record := bracketRecord(b, tournamentID, len(tournament.Brackets())-1)
	record.CreatedAt = s.clock.Now().UTC()
	if err := s.store.CreateBracket(ctx, tx, &record); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create bracket: %w", err)
	}

	return b.ID(), tx.Commit()
}

// SaveTournament stores a tournament that was built in memory, with its teams
// and brackets, in one transaction. Nothing is stored when any part fails.
// The credentials are read after the commit.
func (s *TournamentService) SaveTournament(ctx context.Context, tournament *bracket.Tournament) ([]RegisteredTeam, error) {
	ownerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ownerID = users.GuestID
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := s.clock.Now().UTC()
	record := store.TournamentRecord{
		ID:        tournament.ID,
		OwnerID:   ownerID,
		Name:      tournament.Name,
		Status:    bracket.TournamentDraft,
		CreatedAt: now,
	}
	if err := s.store.CreateTournament(ctx, tx, &record); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: tournament %q already exists", bracket.ErrValidation, tournament.Name)
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	teams := tournament.Teams()
	for i, team := range teams {
		teamRecord := store.TeamRecord{
			ID:             team.ID(),
			TournamentID:   tournament.ID,
			Name:           team.Name(),
			CredentialHash: team.Fingerprint(),
			Position:       i,
			CreatedAt:      now,
		}
		if err := s.store.CreateTeam(ctx, tx, &teamRecord); err != nil {
			return nil, fmt.Errorf("failed to create team %q: %w", team.Name(), err)
		}
	}

	for i, b := range tournament.Brackets() {
		bracketRec := bracketRecord(b, tournament.ID, i)
		bracketRec.CreatedAt = now
		if err := s.store.CreateBracket(ctx, tx, &bracketRec); err != nil {
			return nil, fmt.Errorf("failed to create bracket: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	registered := make([]RegisteredTeam, 0, len(teams))
	for _, team := range teams {
		registered = append(registered, RegisteredTeam{ID: team.ID(), Name: team.Name(), Credential: team.ReadCredential()})
	}
	return registered, nil
}

func (s *TournamentService) LoadTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	return loadTournament(ctx, s.store, tx, id)
}

func (s *TournamentService) GetTournamentByName(ctx context.Context, name string) (*bracket.Tournament, error) {
	record, err := s.store.GetTournamentByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: tournament %q", bracket.ErrNotFound, name)
		}
		return nil, err
	}
	return s.LoadTournament(ctx, record.ID)
}

func (s *TournamentService) GetSnapshot(ctx context.Context, id uuid.UUID) (*TournamentSnapshot, error) {
	tournament, err := s.LoadTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	snapshot := NewSnapshot(tournament)
	return &snapshot, nil
}

func (s *TournamentService) GetTournamentsForUser(ctx context.Context) ([]store.TournamentRecord, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}
	return s.store.GetTournamentsByUserID(ctx, userID)
}

// AuthenticateTeam checks a team's credential. Unknown teams and wrong
// credentials fail the same way.
func (s *TournamentService) AuthenticateTeam(ctx context.Context, tournamentID uuid.UUID, teamName, credential string) (*bracket.Team, error) {
	tournament, err := s.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	team, err := tournament.TeamByName(teamName)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !team.Validate(credential) {
		return nil, ErrInvalidCredentials
	}
	return team, nil
}

// loadTournament rebuilds the bracket tree. Scores are replayed in creation
// order, which settles every child before its parent.
func loadTournament(ctx context.Context, s *store.TournamentStore, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	record, err := s.GetTournamentTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: tournament %s", bracket.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	teams, err := s.GetTeamsTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}

	brackets, err := s.GetBracketsTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get brackets: %w", err)
	}

	tournament, err := bracket.RestoreTournament(record.ID, record.OwnerID, record.Name, record.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, t := range teams {
		team, err := bracket.RestoreTeam(t.ID, t.Name, t.CredentialHash)
		if err != nil {
			return nil, fmt.Errorf("failed to restore team %s: %w", t.ID, err)
		}
		if err := tournament.AttachTeam(team); err != nil {
			return nil, fmt.Errorf("failed to restore team %s: %w", t.ID, err)
		}
	}

	for _, r := range brackets {
		left, err := slotRef(r.LeftKind, r.LeftTeamID, r.LeftBracketID)
		if err != nil {
			return nil, err
		}
		right, err := slotRef(r.RightKind, r.RightTeamID, r.RightBracketID)
		if err != nil {
			return nil, err
		}

		b, err := tournament.RestoreBracket(r.ID, left, right)
		if err != nil {
			return nil, fmt.Errorf("failed to restore bracket %s: %w", r.ID, err)
		}

		if r.ScoreLeft != nil && r.ScoreRight != nil {
			if err := b.SetScore(*r.ScoreLeft, *r.ScoreRight); err != nil {
				return nil, fmt.Errorf("failed to replay score of bracket %s: %w", r.ID, err)
			}
		}
	}

	return tournament, nil
}

func slotRef(kind string, teamID, bracketID *uuid.UUID) (bracket.SlotRef, error) {
	k, err := bracket.ParseSlotKind(kind)
	if err != nil {
		return bracket.SlotRef{}, err
	}
	switch k {
	case bracket.SlotTeam:
		return bracket.TeamRef(utils.OrZero(teamID)), nil
	case bracket.SlotBracket:
		return bracket.BracketRef(utils.OrZero(bracketID)), nil
	}
	return bracket.EmptyRef(), nil
}

func bracketRecord(b *bracket.Bracket, tournamentID uuid.UUID, position int) store.BracketRecord {
	record := store.BracketRecord{
		ID:           b.ID(),
		TournamentID: tournamentID,
		Position:     position,
	}
	record.LeftKind, record.LeftTeamID, record.LeftBracketID = slotColumns(b.RawLeft())
	record.RightKind, record.RightTeamID, record.RightBracketID = slotColumns(b.RawRight())
	return record
}

func slotColumns(s bracket.Slot) (string, *uuid.UUID, *uuid.UUID) {
	switch s.Kind() {
	case bracket.SlotTeam:
		return s.Kind().String(), utils.Ptr(s.Team().ID()), nil
	case bracket.SlotBracket:
		return s.Kind().String(), nil, utils.Ptr(s.Bracket().ID())
	}
	return s.Kind().String(), nil, nil
}
