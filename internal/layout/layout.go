// Package layout reads tournament layouts from YAML files. A layout names the
// teams and spells out the bracket tree; nothing is seeded or generated.
//
//	name: Summer Cup
//	teams: [Aces, Bouncers, Cups]
//	brackets:
//	  - id: semi
//	    left: {team: Aces}
//	    right: {team: Bouncers}
//	  - id: final
//	    left: {bracket: semi}
//	    right: {team: Cups}
package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AdamBeresnev/beerpong/internal/bracket"
	"github.com/AdamBeresnev/beerpong/internal/service"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Layout struct {
	Name     string    `yaml:"name"`
	Teams    []string  `yaml:"teams"`
	Brackets []Bracket `yaml:"brackets"`
}

type Bracket struct {
	ID    string `yaml:"id"`
	Left  Side   `yaml:"left"`
	Right Side   `yaml:"right"`
}

// Side names a team or an earlier bracket. Leaving both out makes the side
// empty.
type Side struct {
	Team    string `yaml:"team,omitempty"`
	Bracket string `yaml:"bracket,omitempty"`
}

func Parse(r io.Reader) (*Layout, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var layout Layout
	if err := decoder.Decode(&layout); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: layout file is empty", bracket.ErrValidation)
		}
		return nil, fmt.Errorf("%w: failed to parse layout: %w", bracket.ErrValidation, err)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &layout, nil
}

// Validate checks the layout against the rules the bracket tree enforces, so
// that a layout which parses also builds.
func (l *Layout) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: layout has no name", bracket.ErrValidation)
	}

	teams := make(map[string]bool)
	for _, name := range l.Teams {
		key := teamKey(name)
		if key == "" {
			return fmt.Errorf("%w: team names cannot be empty", bracket.ErrValidation)
		}
		if teams[key] {
			return fmt.Errorf("%w: team %q is listed twice", bracket.ErrValidation, name)
		}
		teams[key] = true
	}

	// teams playing somewhere below each bracket
	subtrees := make(map[string]map[string]bool)
	parents := make(map[string]string)
	for i, b := range l.Brackets {
		if b.ID == "" {
			return fmt.Errorf("%w: bracket %d has no id", bracket.ErrValidation, i+1)
		}
		if _, ok := subtrees[b.ID]; ok {
			return fmt.Errorf("%w: bracket id %q is used twice", bracket.ErrValidation, b.ID)
		}

		var halves [2]map[string]bool
		for j, side := range []Side{b.Left, b.Right} {
			switch {
			case side.Team != "" && side.Bracket != "":
				return fmt.Errorf("%w: bracket %q has a side with both a team and a bracket", bracket.ErrValidation, b.ID)
			case side.Team != "":
				if !teams[teamKey(side.Team)] {
					return fmt.Errorf("%w: bracket %q refers to unknown team %q", bracket.ErrValidation, b.ID, side.Team)
				}
				halves[j] = map[string]bool{teamKey(side.Team): true}
			case side.Bracket != "":
				child, ok := subtrees[side.Bracket]
				if !ok {
					return fmt.Errorf("%w: bracket %q refers to %q, which is not defined before it", bracket.ErrValidation, b.ID, side.Bracket)
				}
				if parent, taken := parents[side.Bracket]; taken {
					return fmt.Errorf("%w: bracket %q already feeds %q and cannot feed %q too", bracket.ErrValidation, side.Bracket, parent, b.ID)
				}
				parents[side.Bracket] = b.ID
				halves[j] = child
			}
		}

		subtree := make(map[string]bool, len(halves[0])+len(halves[1]))
		for key := range halves[0] {
			if halves[1][key] {
				return fmt.Errorf("%w: team %q plays on both sides of bracket %q", bracket.ErrValidation, key, b.ID)
			}
			subtree[key] = true
		}
		for key := range halves[1] {
			subtree[key] = true
		}
		subtrees[b.ID] = subtree
	}
	return nil
}

// Build creates the tournament in memory. Nothing is stored.
func (l *Layout) Build() (*bracket.Tournament, map[string]uuid.UUID, error) {
	tournament, err := bracket.NewTournament(strings.TrimSpace(l.Name))
	if err != nil {
		return nil, nil, err
	}

	teamIDs := make(map[string]uuid.UUID)
	for _, name := range l.Teams {
		team, err := tournament.AddTeam(strings.TrimSpace(name))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to add team %q: %w", name, err)
		}
		teamIDs[teamKey(name)] = team.ID()
	}

	bracketIDs := make(map[string]uuid.UUID)
	ref := func(s Side) bracket.SlotRef {
		switch {
		case s.Team != "":
			return bracket.TeamRef(teamIDs[teamKey(s.Team)])
		case s.Bracket != "":
			return bracket.BracketRef(bracketIDs[s.Bracket])
		}
		return bracket.EmptyRef()
	}

	for _, b := range l.Brackets {
		added, err := tournament.AddBracket(ref(b.Left), ref(b.Right))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to add bracket %q: %w", b.ID, err)
		}
		bracketIDs[b.ID] = added.ID()
	}

	return tournament, bracketIDs, nil
}

// Saver stores a finished tournament. *service.TournamentService is one.
type Saver interface {
	SaveTournament(ctx context.Context, tournament *bracket.Tournament) ([]service.RegisteredTeam, error)
}

type Result struct {
	TournamentID uuid.UUID
	// Teams hold the credentials, which can't be read again later
	Teams    []service.RegisteredTeam
	Brackets map[string]uuid.UUID
}

// Apply builds the whole tournament first and then stores it in one go, so a
// failing layout leaves nothing behind.
func Apply(ctx context.Context, saver Saver, l *Layout) (*Result, error) {
	tournament, brackets, err := l.Build()
	if err != nil {
		return nil, err
	}

	teams, err := saver.SaveTournament(ctx, tournament)
	if err != nil {
		return nil, err
	}

	return &Result{TournamentID: tournament.ID, Teams: teams, Brackets: brackets}, nil
}

func teamKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
