package views

import (
	"sort"
	"strconv"

	"github.com/AdamBeresnev/beerpong/internal/service"
	"github.com/google/uuid"
)

type BracketData struct {
	Rounds    map[int][]service.BracketView
	RoundNums []int
	TeamMap   map[uuid.UUID]service.TeamView
}

// PrepareBracketData groups brackets into columns by round. Within a round
// brackets keep their creation order.
func PrepareBracketData(snapshot service.TournamentSnapshot) BracketData {
	teamMap := make(map[uuid.UUID]service.TeamView)
	for _, t := range snapshot.Teams {
		teamMap[t.ID] = t
	}

	rounds := make(map[int][]service.BracketView)
	var roundNums []int
	for _, b := range snapshot.Brackets {
		if _, exists := rounds[b.Round]; !exists {
			roundNums = append(roundNums, b.Round)
		}
		rounds[b.Round] = append(rounds[b.Round], b)
	}
	sort.Ints(roundNums)

	return BracketData{
		Rounds:    rounds,
		RoundNums: roundNums,
		TeamMap:   teamMap,
	}
}

// RoundName labels a round counted from the final backwards.
func RoundName(round, lastRound int) string {
	switch lastRound - round {
	case 0:
		return "Final"
	case 1:
		return "Semi-finals"
	case 2:
		return "Quarter-finals"
	}
	return "Round " + strconv.Itoa(round)
}
