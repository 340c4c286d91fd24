package difficulty

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the difficulty of a piece of content. Levels are ordered from
// Beginner to Master and only adjacent moves are exposed.
type Level int

const (
	Beginner Level = iota
	Intermediate
	Advanced
	Master
)

// ErrInvalidLevel is returned when a level name cannot be parsed.
var ErrInvalidLevel = errors.New("difficulty: invalid level")

var levelNames = [...]string{
	Beginner:     "beginner",
	Intermediate: "intermediate",
	Advanced:     "advanced",
	Master:       "master",
}

// AllLevels returns every level, lowest first.
func AllLevels() []Level {
	return []Level{Beginner, Intermediate, Advanced, Master}
}

// String returns the lowercase level name.
func (l Level) String() string {
	if !l.IsValid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// IsValid reports whether l is one of the four defined levels.
func (l Level) IsValid() bool {
	return l >= Beginner && l <= Master
}

// Next returns the level one step harder. Master has no successor and
// returns itself.
func (l Level) Next() Level {
	if l >= Master {
		return l
	}
	return l + 1
}

// Prev returns the level one step easier. Beginner returns itself.
func (l Level) Prev() Level {
	if l <= Beginner {
		return l
	}
	return l - 1
}

// ParseLevel converts a level name (case-insensitive) to a Level.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return Beginner, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
