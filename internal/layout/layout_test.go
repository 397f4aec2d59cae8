package layout

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/AdamBeresnev/beerpong/internal/service"
	"github.com/AdamBeresnev/beerpong/internal/store"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const fourTeams = `
name: Summer Cup
teams: [Aces, Bouncers, Cups, Dunkers, Eagles]
brackets:
  - id: semi1
    left: {team: Aces}
    right: {team: Bouncers}
  - id: semi2
    left: {team: cups}
    right: {team: Dunkers}
  - id: final
    left: {bracket: semi1}
    right: {bracket: semi2}
  - id: bye
    left: {team: Eagles}
    right: {}
`

func TestMain(m *testing.M) {
	bracket.SetFingerprintCost(bcrypt.MinCost)
	os.Exit(m.Run())
}

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "sqlite3", driver)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func newTournamentService(t *testing.T) (*service.TournamentService, *sqlx.DB) {
	t.Helper()
	database := setupTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	return service.NewTournamentService(database, store.NewTournamentStore(database), clock), database
}

func countRows(t *testing.T, database *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func TestParseAndApply(t *testing.T) {
	layout, err := Parse(strings.NewReader(fourTeams))
	require.NoError(t, err)
	assert.Equal(t, "Summer Cup", layout.Name)
	require.Len(t, layout.Brackets, 4)

	tournaments, _ := newTournamentService(t)
	ctx := context.Background()
	result, err := Apply(ctx, tournaments, layout)
	require.NoError(t, err)

	require.Len(t, result.Teams, 5)
	for _, team := range result.Teams {
		assert.Len(t, team.Credential, bracket.CredentialLength)
	}

	stored, err := tournaments.LoadTournament(ctx, result.TournamentID)
	require.NoError(t, err)
	assert.Equal(t, "Summer Cup", stored.Name)

	aces, err := stored.TeamByName("Aces")
	require.NoError(t, err)
	assert.True(t, aces.Validate(result.Teams[0].Credential))
	assert.Empty(t, aces.ReadCredential(), "stored teams never carry a readable credential")

	final, err := stored.Bracket(result.Brackets["final"])
	require.NoError(t, err)
	assert.Equal(t, bracket.StatePending, final.State())
	assert.Equal(t, result.Brackets["semi1"], final.RawLeft().Bracket().ID())

	semi2, err := stored.Bracket(result.Brackets["semi2"])
	require.NoError(t, err)
	assert.Equal(t, "Cups", semi2.Left().Name())

	bye, err := stored.Bracket(result.Brackets["bye"])
	require.NoError(t, err)
	assert.Equal(t, bracket.StateAutoResolved, bye.State())
	assert.Equal(t, "Eagles", bye.Winner().Name())
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{name: "empty file", yaml: ""},
		{name: "no name", yaml: "teams: [A]"},
		{name: "unknown field", yaml: "name: Cup\nseeding: random"},
		{name: "duplicate team", yaml: "name: Cup\nteams: [Aces, aces]"},
		{name: "blank team", yaml: "name: Cup\nteams: [' ']"},
		{name: "unknown team", yaml: "name: Cup\nteams: [A]\nbrackets:\n  - id: x\n    left: {team: B}"},
		{name: "forward reference", yaml: "name: Cup\nbrackets:\n  - id: x\n    left: {bracket: y}\n  - id: y"},
		{name: "duplicate bracket", yaml: "name: Cup\nbrackets:\n  - id: x\n  - id: x"},
		{name: "missing bracket id", yaml: "name: Cup\nbrackets:\n  - left: {}"},
		{name: "team and bracket on one side", yaml: "name: Cup\nteams: [A]\nbrackets:\n  - id: x\n  - id: y\n    left: {team: A, bracket: x}"},
		{name: "team on both sides", yaml: "name: Cup\nteams: [A]\nbrackets:\n  - id: x\n    left: {team: A}\n    right: {team: a}"},
		{name: "team in both subtrees", yaml: "name: Cup\nteams: [A, B]\nbrackets:\n  - id: semi\n    left: {team: A}\n    right: {team: B}\n  - id: final\n    left: {bracket: semi}\n    right: {team: A}"},
		{name: "bracket feeds two parents", yaml: "name: Cup\nteams: [A, B, C]\nbrackets:\n  - id: semi\n    left: {team: A}\n    right: {team: B}\n  - id: x\n    left: {bracket: semi}\n    right: {team: C}\n  - id: y\n    left: {bracket: semi}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.yaml))
			assert.ErrorIs(t, err, bracket.ErrValidation)
		})
	}
}

func TestApplyStoresNothingOnFailure(t *testing.T) {
	tournaments, database := newTournamentService(t)
	ctx := context.Background()

	// Built by hand, so Parse never gets to reject it
	broken := &Layout{
		Name:  "Cup",
		Teams: []string{"A", "B"},
		Brackets: []Bracket{
			{ID: "semi", Left: Side{Team: "A"}, Right: Side{Team: "B"}},
			{ID: "final", Left: Side{Bracket: "semi"}, Right: Side{Team: "A"}},
		},
	}

	result, err := Apply(ctx, tournaments, broken)
	assert.ErrorIs(t, err, bracket.ErrValidation)
	assert.Nil(t, result)
	assert.Equal(t, 0, countRows(t, database, "tournaments"))
	assert.Equal(t, 0, countRows(t, database, "teams"))
	assert.Equal(t, 0, countRows(t, database, "brackets"))

	// The same name can be imported once the layout is fixed
	broken.Brackets[1].Right = Side{}
	result, err = Apply(ctx, tournaments, broken)
	require.NoError(t, err)
	assert.Len(t, result.Teams, 2)
	assert.Equal(t, 1, countRows(t, database, "tournaments"))
	assert.Equal(t, 2, countRows(t, database, "brackets"))
}

func TestApplyRejectsExistingName(t *testing.T) {
	tournaments, database := newTournamentService(t)
	ctx := context.Background()

	layout, err := Parse(strings.NewReader(fourTeams))
	require.NoError(t, err)

	_, err = Apply(ctx, tournaments, layout)
	require.NoError(t, err)

	_, err = Apply(ctx, tournaments, layout)
	assert.ErrorIs(t, err, bracket.ErrValidation)
	assert.Equal(t, 1, countRows(t, database, "tournaments"))
	assert.Equal(t, 5, countRows(t, database, "teams"))
}
