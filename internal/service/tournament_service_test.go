package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/AdamBeresnev/beerpong/internal/middleware"
	"github.com/AdamBeresnev/beerpong/internal/store"
	users "github.com/AdamBeresnev/beerpong/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 6, 20, 19, 30, 0, 0, time.UTC)

type fixture struct {
	db          *sqlx.DB
	store       *store.TournamentStore
	clock       *clockwork.FakeClock
	tournaments *TournamentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	tournamentStore := store.NewTournamentStore(db)
	clock := clockwork.NewFakeClockAt(testNow)
	return &fixture{
		db:          db,
		store:       tournamentStore,
		clock:       clock,
		tournaments: NewTournamentService(db, tournamentStore, clock),
	}
}

// fourTeams builds two semi finals and a final and returns the tournament ID,
// team credentials by name and bracket IDs in creation order.
func (f *fixture) fourTeams(t *testing.T) (uuid.UUID, map[string]*RegisteredTeam, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	tournamentID, err := f.tournaments.CreateTournament(ctx, "Summer Cup")
	require.NoError(t, err)

	teams := make(map[string]*RegisteredTeam)
	for _, name := range []string{"Aces", "Bouncers", "Cups", "Dunkers"} {
		team, err := f.tournaments.RegisterTeam(ctx, tournamentID, name)
		require.NoError(t, err)
		teams[name] = team
	}

	semi1, err := f.tournaments.AddBracket(ctx, tournamentID, bracket.TeamRef(teams["Aces"].ID), bracket.TeamRef(teams["Bouncers"].ID))
	require.NoError(t, err)
	semi2, err := f.tournaments.AddBracket(ctx, tournamentID, bracket.TeamRef(teams["Cups"].ID), bracket.TeamRef(teams["Dunkers"].ID))
	require.NoError(t, err)
	final, err := f.tournaments.AddBracket(ctx, tournamentID, bracket.BracketRef(semi1), bracket.BracketRef(semi2))
	require.NoError(t, err)

	return tournamentID, teams, []uuid.UUID{semi1, semi2, final}
}

func TestCreateTournamentService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.tournaments.CreateTournament(ctx, "Summer Cup")
	require.NoError(t, err)

	record, err := f.store.GetTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, users.GuestID, record.OwnerID, "falls back to the guest organizer")
	assert.Equal(t, bracket.TournamentDraft, record.Status)
	assert.True(t, testNow.Equal(record.CreatedAt))

	_, err = f.tournaments.CreateTournament(ctx, "summer cup")
	assert.ErrorIs(t, err, bracket.ErrValidation)

	_, err = f.tournaments.CreateTournament(ctx, "  ")
	assert.ErrorIs(t, err, bracket.ErrValidation)
}

func TestGetTournamentsForUser(t *testing.T) {
	f := newFixture(t)

	userStore := store.NewUserStore(f.db)
	organizer := &users.User{ID: uuid.New(), Email: "host@example.com", Username: "host"}
	require.NoError(t, userStore.CreateUser(context.Background(), organizer))

	ctx := context.WithValue(context.Background(), middleware.UserIDKey, organizer.ID)
	_, err := f.tournaments.CreateTournament(ctx, "Summer Cup")
	require.NoError(t, err)
	_, err = f.tournaments.CreateTournament(context.Background(), "Winter Cup")
	require.NoError(t, err)

	list, err := f.tournaments.GetTournamentsForUser(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Summer Cup", list[0].Name)

	_, err = f.tournaments.GetTournamentsForUser(context.Background())
	assert.Error(t, err)
}

func TestRegisterTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, err := f.tournaments.CreateTournament(ctx, "Summer Cup")
	require.NoError(t, err)

	registered, err := f.tournaments.RegisterTeam(ctx, tournamentID, "Aces")
	require.NoError(t, err)
	assert.Len(t, registered.Credential, bracket.CredentialLength)

	_, err = f.tournaments.RegisterTeam(ctx, tournamentID, "aces")
	assert.ErrorIs(t, err, bracket.ErrValidation)

	_, err = f.tournaments.RegisterTeam(ctx, tournamentID, "")
	assert.ErrorIs(t, err, bracket.ErrValidation)

	_, err = f.tournaments.RegisterTeam(ctx, uuid.New(), "Bouncers")
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	tournament, err := f.tournaments.LoadTournament(ctx, tournamentID)
	require.NoError(t, err)
	require.Len(t, tournament.Teams(), 1)

	team := tournament.Teams()[0]
	assert.Equal(t, registered.ID, team.ID())
	assert.Empty(t, team.ReadCredential(), "credential is not recoverable after registration")
	assert.True(t, team.Validate(registered.Credential))
}

func TestAddBracketAndReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, teams, ids := f.fourTeams(t)

	tournament, err := f.tournaments.LoadTournament(ctx, tournamentID)
	require.NoError(t, err)
	require.Len(t, tournament.Brackets(), 3)

	final, err := tournament.Bracket(ids[2])
	require.NoError(t, err)
	assert.Equal(t, []*bracket.Bracket{final}, tournament.Roots())
	assert.Equal(t, bracket.StatePending, final.State())
	assert.Equal(t, bracket.SlotBracket, final.RawLeft().Kind())
	assert.Equal(t, ids[0], final.RawLeft().Bracket().ID())

	semi1, err := tournament.Bracket(ids[0])
	require.NoError(t, err)
	assert.True(t, semi1.IsPlayable())
	assert.Equal(t, teams["Aces"].ID, semi1.Left().ID())

	_, err = f.tournaments.AddBracket(ctx, tournamentID, bracket.BracketRef(ids[0]), bracket.EmptyRef())
	assert.ErrorIs(t, err, bracket.ErrValidation, "a bracket feeds a single parent")

	_, err = f.tournaments.AddBracket(ctx, tournamentID, bracket.TeamRef(uuid.New()), bracket.EmptyRef())
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	bye, err := f.tournaments.AddBracket(ctx, tournamentID, bracket.TeamRef(teams["Aces"].ID), bracket.EmptyRef())
	require.NoError(t, err)

	tournament, err = f.tournaments.LoadTournament(ctx, tournamentID)
	require.NoError(t, err)
	b, err := tournament.Bracket(bye)
	require.NoError(t, err)
	assert.Equal(t, bracket.StateAutoResolved, b.State())
	assert.Equal(t, teams["Aces"].ID, b.Winner().ID())
}

func TestGetTournamentByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, _, _ := f.fourTeams(t)

	tournament, err := f.tournaments.GetTournamentByName(ctx, "SUMMER CUP")
	require.NoError(t, err)
	assert.Equal(t, id, tournament.ID)
	assert.Len(t, tournament.Teams(), 4)

	_, err = f.tournaments.GetTournamentByName(ctx, "Winter Cup")
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}

func TestAuthenticateTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, teams, _ := f.fourTeams(t)
	aces := teams["Aces"]

	team, err := f.tournaments.AuthenticateTeam(ctx, id, "aces", aces.Credential)
	require.NoError(t, err)
	assert.Equal(t, aces.ID, team.ID())

	testCases := []struct {
		name       string
		team       string
		credential string
	}{
		{name: "wrong credential", team: "Aces", credential: aces.Credential + "x"},
		{name: "other team's credential", team: "Bouncers", credential: aces.Credential},
		{name: "unknown team", team: "Nobody", credential: aces.Credential},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tournaments.AuthenticateTeam(ctx, id, tc.team, tc.credential)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestGetSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, _, ids := f.fourTeams(t)

	snapshot, err := f.tournaments.GetSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Summer Cup", snapshot.Name)
	assert.Equal(t, bracket.TournamentDraft, snapshot.Status)
	require.Len(t, snapshot.Brackets, 3)

	assert.Equal(t, 1, snapshot.Brackets[0].Round)
	assert.Equal(t, 2, snapshot.Brackets[2].Round)
	assert.Equal(t, &ids[0], snapshot.Brackets[2].LeftSource)
	assert.Nil(t, snapshot.Brackets[2].Left)
	assert.Nil(t, snapshot.Champion)
}
