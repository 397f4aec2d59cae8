package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

type SlotKind int

const (
	SlotEmpty SlotKind = iota
	SlotTeam
	SlotBracket
)

func (k SlotKind) String() string {
	switch k {
	case SlotEmpty:
		return "empty"
	case SlotTeam:
		return "team"
	case SlotBracket:
		return "bracket"
	}
	return "unknown"
}

func ParseSlotKind(s string) (SlotKind, error) {
	switch s {
	case "empty", "":
		return SlotEmpty, nil
	case "team":
		return SlotTeam, nil
	case "bracket":
		return SlotBracket, nil
	}
	return SlotEmpty, fmt.Errorf("%w: unknown slot kind %q", ErrValidation, s)
}

// Slot is one side of a bracket as it was built: nothing, a team, or the
// bracket whose winner will end up here.
type Slot struct {
	kind  SlotKind
	team  *Team
	child *Bracket
}

func EmptySlot() Slot {
	return Slot{kind: SlotEmpty}
}

func TeamSlot(t *Team) Slot {
	return Slot{kind: SlotTeam, team: t}
}

func BracketSlot(b *Bracket) Slot {
	return Slot{kind: SlotBracket, child: b}
}

func (s Slot) Kind() SlotKind {
	return s.kind
}

func (s Slot) Team() *Team {
	return s.team
}

func (s Slot) Bracket() *Bracket {
	return s.child
}

func (s Slot) valid() bool {
	switch s.kind {
	case SlotEmpty:
		return s.team == nil && s.child == nil
	case SlotTeam:
		return s.team != nil && s.child == nil
	case SlotBracket:
		return s.child != nil && s.team == nil
	}
	return false
}

type ResolutionKind int

const (
	ResolvedEmpty ResolutionKind = iota
	ResolvedTeam
	Unresolved
)

// Resolution is what a slot currently stands for.
type Resolution struct {
	Kind ResolutionKind
	Team *Team
}

func (r Resolution) IsTeam() bool {
	return r.Kind == ResolvedTeam
}

// resolve follows a child bracket to its winner. A child placeholder without
// participants resolves to empty, a child that still has to be played (or
// ended in a tie) is unresolved.
func (s Slot) resolve() Resolution {
	switch s.kind {
	case SlotTeam:
		return Resolution{Kind: ResolvedTeam, Team: s.team}
	case SlotBracket:
		if w := s.child.Winner(); w != nil {
			return Resolution{Kind: ResolvedTeam, Team: w}
		}
		if s.child.State() == StateEmpty {
			return Resolution{Kind: ResolvedEmpty}
		}
		return Resolution{Kind: Unresolved}
	}
	return Resolution{Kind: ResolvedEmpty}
}

// teams collects every team that can appear in this slot.
func (s Slot) teams(into map[uuid.UUID]*Team) {
	switch s.kind {
	case SlotTeam:
		into[s.team.ID()] = s.team
	case SlotBracket:
		s.child.collectTeams(into)
	}
}

// SlotRef points at a slot value inside a Tournament by identifier.
type SlotRef struct {
	Kind SlotKind
	ID   uuid.UUID
}

func EmptyRef() SlotRef {
	return SlotRef{Kind: SlotEmpty}
}

func TeamRef(id uuid.UUID) SlotRef {
	return SlotRef{Kind: SlotTeam, ID: id}
}

func BracketRef(id uuid.UUID) SlotRef {
	return SlotRef{Kind: SlotBracket, ID: id}
}
