package bracket

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentDraft     TournamentStatus = "draft"
	TournamentStarted   TournamentStatus = "started"
	TournamentCompleted TournamentStatus = "completed"
)

// Tournament owns the teams and brackets of one event and hands them out by
// identifier, so the same bracket can be shown on its own and as the child
// of another bracket.
type Tournament struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	CreatedAt time.Time

	mu           sync.RWMutex
	teams        map[uuid.UUID]*Team
	teamOrder    []*Team
	brackets     map[uuid.UUID]*Bracket
	bracketOrder []*Bracket
}

func NewTournament(name string) (*Tournament, error) {
	return RestoreTournament(uuid.New(), uuid.Nil, name, time.Now().UTC())
}

func RestoreTournament(id, ownerID uuid.UUID, name string, createdAt time.Time) (*Tournament, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: tournament name cannot be empty", ErrValidation)
	}
	return &Tournament{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: createdAt,
		teams:     make(map[uuid.UUID]*Team),
		brackets:  make(map[uuid.UUID]*Bracket),
	}, nil
}

// AddTeam registers a new team. Team names are unique within a tournament.
func (t *Tournament) AddTeam(name string) (*Team, error) {
	team, err := NewTeam(name)
	if err != nil {
		return nil, err
	}
	if err := t.AttachTeam(team); err != nil {
		return nil, err
	}
	return team, nil
}

// AttachTeam adds an existing team, e.g. one restored from storage.
func (t *Tournament) AttachTeam(team *Team) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.teams[team.ID()]; ok {
		return fmt.Errorf("%w: team %s is already registered", ErrValidation, team.ID())
	}
	for _, existing := range t.teamOrder {
		if strings.EqualFold(existing.Name(), team.Name()) {
			return fmt.Errorf("%w: team name %q is already taken", ErrValidation, team.Name())
		}
	}

	t.teams[team.ID()] = team
	t.teamOrder = append(t.teamOrder, team)
	return nil
}

func (t *Tournament) AddBracket(left, right SlotRef) (*Bracket, error) {
	return t.RestoreBracket(uuid.New(), left, right)
}

func (t *Tournament) RestoreBracket(id uuid.UUID, left, right SlotRef) (*Bracket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.brackets[id]; ok {
		return nil, fmt.Errorf("%w: bracket %s already exists", ErrValidation, id)
	}

	l, err := t.slotLocked(left)
	if err != nil {
		return nil, err
	}
	r, err := t.slotLocked(right)
	if err != nil {
		return nil, err
	}

	b, err := RestoreBracket(id, l, r)
	if err != nil {
		return nil, err
	}

	t.brackets[b.ID()] = b
	t.bracketOrder = append(t.bracketOrder, b)
	return b, nil
}

func (t *Tournament) slotLocked(ref SlotRef) (Slot, error) {
	switch ref.Kind {
	case SlotEmpty:
		return EmptySlot(), nil
	case SlotTeam:
		team, ok := t.teams[ref.ID]
		if !ok {
			return Slot{}, fmt.Errorf("%w: team %s", ErrNotFound, ref.ID)
		}
		return TeamSlot(team), nil
	case SlotBracket:
		b, ok := t.brackets[ref.ID]
		if !ok {
			return Slot{}, fmt.Errorf("%w: bracket %s", ErrNotFound, ref.ID)
		}
		return BracketSlot(b), nil
	}
	return Slot{}, fmt.Errorf("%w: unknown slot kind %d", ErrValidation, ref.Kind)
}

func (t *Tournament) Team(id uuid.UUID) (*Team, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	team, ok := t.teams[id]
	if !ok {
		return nil, fmt.Errorf("%w: team %s", ErrNotFound, id)
	}
	return team, nil
}

func (t *Tournament) TeamByName(name string) (*Team, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, team := range t.teamOrder {
		if strings.EqualFold(team.Name(), name) {
			return team, nil
		}
	}
	return nil, fmt.Errorf("%w: team %q", ErrNotFound, name)
}

func (t *Tournament) Bracket(id uuid.UUID) (*Bracket, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.brackets[id]
	if !ok {
		return nil, fmt.Errorf("%w: bracket %s", ErrNotFound, id)
	}
	return b, nil
}

// Teams returns the teams in registration order.
func (t *Tournament) Teams() []*Team {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Team, len(t.teamOrder))
	copy(out, t.teamOrder)
	return out
}

// Brackets returns the brackets in creation order, children before parents.
func (t *Tournament) Brackets() []*Bracket {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Bracket, len(t.bracketOrder))
	copy(out, t.bracketOrder)
	return out
}

// Roots returns the brackets that don't feed into another bracket.
func (t *Tournament) Roots() []*Bracket {
	var roots []*Bracket
	for _, b := range t.Brackets() {
		b.mu.RLock()
		attached := b.attached
		b.mu.RUnlock()
		if !attached {
			roots = append(roots, b)
		}
	}
	return roots
}

// Champion returns the winner of the final, or nil while the tournament is
// still running or the tree has more than one root.
func (t *Tournament) Champion() *Team {
	roots := t.Roots()
	if len(roots) != 1 {
		return nil
	}
	return roots[0].Winner()
}

// Playable returns the brackets waiting for a score.
func (t *Tournament) Playable() []*Bracket {
	var out []*Bracket
	for _, b := range t.Brackets() {
		if b.IsPlayable() {
			out = append(out, b)
		}
	}
	return out
}

// Complete reports whether every bracket has been played.
func (t *Tournament) Complete() bool {
	brackets := t.Brackets()
	if len(brackets) == 0 {
		return false
	}
	for _, b := range brackets {
		if !b.IsPlayed() {
			return false
		}
	}
	return true
}

func (t *Tournament) Status() TournamentStatus {
	if t.Complete() {
		return TournamentCompleted
	}
	for _, b := range t.Brackets() {
		if _, ok := b.Score(); ok {
			return TournamentStarted
		}
	}
	return TournamentDraft
}

// Authenticate returns the team if credential belongs to it.
func (t *Tournament) Authenticate(teamID uuid.UUID, credential string) (*Team, error) {
	team, err := t.Team(teamID)
	if err != nil {
		return nil, err
	}
	if !team.Validate(credential) {
		return nil, fmt.Errorf("%w: wrong credential for team %q", ErrValidation, team.Name())
	}
	return team, nil
}
