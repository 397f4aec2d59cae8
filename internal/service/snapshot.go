package service

import (
	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/google/uuid"
)

type TeamView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ScoreView struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

type BracketView struct {
	ID    uuid.UUID     `json:"id"`
	Round int           `json:"round"`
	State bracket.State `json:"state"`

	Left  *TeamView `json:"left,omitempty"`
	Right *TeamView `json:"right,omitempty"`

	// Brackets whose winners advance into this one
	LeftSource  *uuid.UUID `json:"left_source,omitempty"`
	RightSource *uuid.UUID `json:"right_source,omitempty"`

	Score    *ScoreView `json:"score,omitempty"`
	Winner   *TeamView  `json:"winner,omitempty"`
	Playable bool       `json:"playable"`
	Played   bool       `json:"played"`
}

// TournamentSnapshot is a read-only picture of a tournament, used by the
// views, the JSON API and the live screen.
type TournamentSnapshot struct {
	ID       uuid.UUID                `json:"id"`
	Name     string                   `json:"name"`
	Status   bracket.TournamentStatus `json:"status"`
	Teams    []TeamView               `json:"teams"`
	Brackets []BracketView            `json:"brackets"`
	Champion *TeamView                `json:"champion,omitempty"`
}

func NewSnapshot(t *bracket.Tournament) TournamentSnapshot {
	snapshot := TournamentSnapshot{
		ID:       t.ID,
		Name:     t.Name,
		Status:   t.Status(),
		Teams:    []TeamView{},
		Brackets: []BracketView{},
		Champion: teamView(t.Champion()),
	}

	for _, team := range t.Teams() {
		snapshot.Teams = append(snapshot.Teams, *teamView(team))
	}

	// Brackets come children first, so child rounds are always known
	rounds := make(map[uuid.UUID]int)
	for _, b := range t.Brackets() {
		round := 1 + max(childRound(b.RawLeft(), rounds), childRound(b.RawRight(), rounds))
		rounds[b.ID()] = round

		view := BracketView{
			ID:          b.ID(),
			Round:       round,
			State:       b.State(),
			Left:        teamView(b.Left()),
			Right:       teamView(b.Right()),
			LeftSource:  source(b.RawLeft()),
			RightSource: source(b.RawRight()),
			Winner:      teamView(b.Winner()),
			Playable:    b.IsPlayable(),
			Played:      b.IsPlayed(),
		}
		if score, ok := b.Score(); ok {
			view.Score = &ScoreView{Left: score.Left(), Right: score.Right()}
		}
		snapshot.Brackets = append(snapshot.Brackets, view)
	}

	return snapshot
}

func childRound(s bracket.Slot, rounds map[uuid.UUID]int) int {
	if s.Kind() != bracket.SlotBracket {
		return 0
	}
	return rounds[s.Bracket().ID()]
}

func source(s bracket.Slot) *uuid.UUID {
	if s.Kind() != bracket.SlotBracket {
		return nil
	}
	id := s.Bracket().ID()
	return &id
}

func teamView(team *bracket.Team) *TeamView {
	if team == nil {
		return nil
	}
	return &TeamView{ID: team.ID(), Name: team.Name()}
}
