package bracket

import (
	"fmt"
	"strconv"
	"strings"
)

// Score is the result of a single match. It can't be changed once created.
type Score struct {
	left  int
	right int
}

func NewScore(left, right int) (Score, error) {
	if left < 0 || right < 0 {
		return Score{}, fmt.Errorf("%w: score cannot be negative (%d:%d)", ErrValidation, left, right)
	}
	return Score{left: left, right: right}, nil
}

// ParseScore builds a score from user input such as form values. Anything
// that isn't a plain integer ("10.5", "ten") is rejected.
func ParseScore(left, right string) (Score, error) {
	l, err := parseTally(left)
	if err != nil {
		return Score{}, err
	}
	r, err := parseTally(right)
	if err != nil {
		return Score{}, err
	}
	return NewScore(l, r)
}

func parseTally(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: score must be an integer, got %q", ErrValidation, s)
	}
	return v, nil
}

func (s Score) Left() int {
	return s.left
}

func (s Score) Right() int {
	return s.right
}

func (s Score) String() string {
	return fmt.Sprintf("%d:%d", s.left, s.right)
}
