package bracket

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type State string

const (
	StateEmpty        State = "empty"
	StatePending      State = "pending"
	StateAutoResolved State = "auto_resolved"
	StatePlayable     State = "playable"
	StatePlayed       State = "played"
)

// Bracket is a single match in the tournament tree. Each side holds a team,
// the bracket whose winner advances into it, or nothing.
//
// Sides are resolved when they are read, so scoring a child bracket makes
// its winner show up in the parent without touching the parent.
type Bracket struct {
	id    uuid.UUID
	left  Slot
	right Slot

	mu       sync.RWMutex
	score    *Score
	winner   *Team
	attached bool
}

func NewBracket(left, right Slot) (*Bracket, error) {
	return RestoreBracket(uuid.New(), left, right)
}

// RestoreBracket builds a bracket with a known identifier.
func RestoreBracket(id uuid.UUID, left, right Slot) (*Bracket, error) {
	if !left.valid() {
		return nil, fmt.Errorf("%w: invalid left slot of kind %s", ErrValidation, left.kind)
	}
	if !right.valid() {
		return nil, fmt.Errorf("%w: invalid right slot of kind %s", ErrValidation, right.kind)
	}
	if left.kind == SlotBracket && right.kind == SlotBracket && left.child == right.child {
		return nil, fmt.Errorf("%w: left and right cannot be the same bracket", ErrValidation)
	}

	leftTeams := make(map[uuid.UUID]*Team)
	rightTeams := make(map[uuid.UUID]*Team)
	left.teams(leftTeams)
	right.teams(rightTeams)
	for id, team := range leftTeams {
		if _, ok := rightTeams[id]; ok {
			return nil, fmt.Errorf("%w: team %q cannot play on both sides", ErrValidation, team.Name())
		}
	}

	b := &Bracket{id: id, left: left, right: right}

	if err := attach(left); err != nil {
		return nil, err
	}
	if err := attach(right); err != nil {
		detach(left)
		return nil, err
	}

	return b, nil
}

// A child bracket feeds exactly one parent.
func attach(s Slot) error {
	if s.kind != SlotBracket {
		return nil
	}
	s.child.mu.Lock()
	defer s.child.mu.Unlock()
	if s.child.attached {
		return fmt.Errorf("%w: bracket %s already feeds another bracket", ErrValidation, s.child.id)
	}
	s.child.attached = true
	return nil
}

func detach(s Slot) {
	if s.kind != SlotBracket {
		return
	}
	s.child.mu.Lock()
	s.child.attached = false
	s.child.mu.Unlock()
}

func (b *Bracket) ID() uuid.UUID {
	return b.id
}

// RawLeft returns the left side as it was built.
func (b *Bracket) RawLeft() Slot {
	return b.left
}

func (b *Bracket) RawRight() Slot {
	return b.right
}

func (b *Bracket) EffectiveLeft() Resolution {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.left.resolve()
}

func (b *Bracket) EffectiveRight() Resolution {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.right.resolve()
}

// Left returns the team currently on the left side, or nil if there is none yet.
func (b *Bracket) Left() *Team {
	return b.EffectiveLeft().Team
}

func (b *Bracket) Right() *Team {
	return b.EffectiveRight().Team
}

// Score returns the recorded score, if any.
func (b *Bracket) Score() (Score, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.score == nil {
		return Score{}, false
	}
	return *b.score, true
}

func (b *Bracket) Winner() *Team {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.winnerLocked()
}

func (b *Bracket) winnerLocked() *Team {
	if b.score != nil {
		return b.winner
	}
	// A bye: the only participant advances without playing.
	l, r := b.left.resolve(), b.right.resolve()
	switch {
	case l.Kind == ResolvedTeam && r.Kind == ResolvedEmpty:
		return l.Team
	case r.Kind == ResolvedTeam && l.Kind == ResolvedEmpty:
		return r.Team
	}
	return nil
}

func (b *Bracket) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stateLocked()
}

func (b *Bracket) stateLocked() State {
	if b.score != nil {
		return StatePlayed
	}
	l, r := b.left.resolve(), b.right.resolve()
	switch {
	case l.Kind == ResolvedEmpty && r.Kind == ResolvedEmpty:
		return StateEmpty
	case l.Kind == Unresolved || r.Kind == Unresolved:
		return StatePending
	case l.Kind == ResolvedEmpty || r.Kind == ResolvedEmpty:
		return StateAutoResolved
	}
	return StatePlayable
}

// IsEmpty reports whether both sides were built empty.
func (b *Bracket) IsEmpty() bool {
	return b.left.kind == SlotEmpty && b.right.kind == SlotEmpty
}

func (b *Bracket) IsPlayable() bool {
	return b.State() == StatePlayable
}

// IsPlayed reports whether the bracket needs no further score: it has a
// winner, ended in a tie, or has no participants at all.
func (b *Bracket) IsPlayed() bool {
	switch b.State() {
	case StatePlayed, StateAutoResolved, StateEmpty:
		return true
	}
	return false
}

// SetScore records the result of the match and decides the winner. A tie
// leaves the bracket played without a winner.
func (b *Bracket) SetScore(left, right int) error {
	score, err := NewScore(left, right)
	if err != nil {
		return err
	}
	return b.Record(score)
}

func (b *Bracket) Record(score Score) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if state := b.stateLocked(); state != StatePlayable {
		return fmt.Errorf("%w: bracket %s is %s, not playable", ErrState, b.id, state)
	}

	l, r := b.left.resolve(), b.right.resolve()
	var winner *Team
	switch {
	case score.left > score.right:
		winner = l.Team
	case score.right > score.left:
		winner = r.Team
	}

	b.score = &score
	b.winner = winner
	return nil
}

// AssignWinner always fails, the winner follows from the score.
func (b *Bracket) AssignWinner(*Team) error {
	return fmt.Errorf("%w: winner cannot be set manually, use SetScore instead", ErrAccessViolation)
}

// AssignScore always fails, scores go through SetScore.
func (b *Bracket) AssignScore(Score) error {
	return fmt.Errorf("%w: score cannot be set manually, use SetScore instead", ErrAccessViolation)
}

// Participates reports whether team can currently play in this bracket.
func (b *Bracket) Participates(team *Team) bool {
	if team == nil {
		return false
	}
	for _, t := range []*Team{b.Left(), b.Right()} {
		if t != nil && t.ID() == team.ID() {
			return true
		}
	}
	return false
}

func (b *Bracket) collectTeams(into map[uuid.UUID]*Team) {
	b.left.teams(into)
	b.right.teams(into)
}
