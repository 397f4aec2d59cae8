package bracket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFourTeamTournament(t *testing.T) (*Tournament, []*Team, []*Bracket) {
	t.Helper()

	tournament, err := NewTournament("Summer Cup")
	require.NoError(t, err)

	var teams []*Team
	for _, name := range []string{"Team 1", "Team 2", "Team 3", "Team 4"} {
		team, err := tournament.AddTeam(name)
		require.NoError(t, err)
		teams = append(teams, team)
	}

	semi1, err := tournament.AddBracket(TeamRef(teams[0].ID()), TeamRef(teams[1].ID()))
	require.NoError(t, err)
	semi2, err := tournament.AddBracket(TeamRef(teams[2].ID()), TeamRef(teams[3].ID()))
	require.NoError(t, err)
	final, err := tournament.AddBracket(BracketRef(semi1.ID()), BracketRef(semi2.ID()))
	require.NoError(t, err)

	return tournament, teams, []*Bracket{semi1, semi2, final}
}

func TestNewTournament(t *testing.T) {
	_, err := NewTournament("")
	assert.ErrorIs(t, err, ErrValidation)

	tournament, err := NewTournament("Summer Cup")
	require.NoError(t, err)
	assert.Equal(t, "Summer Cup", tournament.Name)
	assert.Equal(t, TournamentDraft, tournament.Status())
	assert.Nil(t, tournament.Champion())
}

func TestTeamNamesAreUnique(t *testing.T) {
	tournament, err := NewTournament("Summer Cup")
	require.NoError(t, err)

	_, err = tournament.AddTeam("Team 1")
	require.NoError(t, err)

	_, err = tournament.AddTeam("team 1")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, tournament.Teams(), 1)
}

func TestAddBracketUnknownReferences(t *testing.T) {
	tournament, err := NewTournament("Summer Cup")
	require.NoError(t, err)
	team, err := tournament.AddTeam("Team 1")
	require.NoError(t, err)

	_, err = tournament.AddBracket(TeamRef(uuid.New()), TeamRef(team.ID()))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tournament.AddBracket(BracketRef(uuid.New()), EmptyRef())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tournament.AddBracket(SlotRef{Kind: SlotKind(9)}, EmptyRef())
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, tournament.Brackets())
}

func TestTournamentPlaysToChampion(t *testing.T) {
	tournament, teams, brackets := newFourTeamTournament(t)
	semi1, semi2, final := brackets[0], brackets[1], brackets[2]

	assert.Equal(t, []*Bracket{final}, tournament.Roots())
	assert.ElementsMatch(t, []*Bracket{semi1, semi2}, tournament.Playable())

	require.NoError(t, semi1.SetScore(10, 4))
	assert.Equal(t, TournamentStarted, tournament.Status())
	assert.Equal(t, []*Bracket{semi2}, tournament.Playable())

	require.NoError(t, semi2.SetScore(2, 10))
	assert.Equal(t, []*Bracket{final}, tournament.Playable())
	assert.False(t, tournament.Complete())

	found, err := tournament.Bracket(final.ID())
	require.NoError(t, err)
	assert.Same(t, final, found)
	assert.Equal(t, teams[0], found.Left())
	assert.Equal(t, teams[3], found.Right())

	require.NoError(t, final.SetScore(3, 10))
	assert.Equal(t, teams[3], tournament.Champion())
	assert.True(t, tournament.Complete())
	assert.Equal(t, TournamentCompleted, tournament.Status())
	assert.Empty(t, tournament.Playable())
}

func TestAuthenticate(t *testing.T) {
	tournament, err := NewTournament("Summer Cup")
	require.NoError(t, err)
	team, err := tournament.AddTeam("Team 1")
	require.NoError(t, err)
	credential := team.ReadCredential()

	found, err := tournament.Authenticate(team.ID(), credential)
	require.NoError(t, err)
	assert.Same(t, team, found)

	_, err = tournament.Authenticate(team.ID(), "wrong")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = tournament.Authenticate(uuid.New(), credential)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTeamByName(t *testing.T) {
	tournament, teams, _ := newFourTeamTournament(t)

	found, err := tournament.TeamByName("TEAM 3")
	require.NoError(t, err)
	assert.Same(t, teams[2], found)

	_, err = tournament.TeamByName("Team 9")
	assert.ErrorIs(t, err, ErrNotFound)
}
