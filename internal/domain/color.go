package domain

import (
	"fmt"
	"strings"
)

// Color identifies a player's pieces on the board.
type Color int

const (
	Blue Color = iota
	Yellow
	Red
	Green
)

// NumColors is the size of the color enumeration.
const NumColors = 4

var colorNames = [NumColors]string{"blue", "yellow", "red", "green"}

// DefaultColors is the turn order used when a game is created without an explicit color list.
var DefaultColors = []Color{Blue, Yellow, Red, Green}

// Valid reports whether c is one of the enumerated colors.
func (c Color) Valid() bool {
	return c >= 0 && c < NumColors
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("color(%d)", int(c))
	}
	return colorNames[c]
}

// ParseColor maps a color name ("blue", "Yellow", ...) to its Color.
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range colorNames {
		if n == name {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownColor, int(c))
	}
	return []byte(colorNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// StartCorner returns the cell a color's first placement must cover.
func StartCorner(c Color, boardSize int) Cell {
	last := boardSize - 1
	switch c {
	case Yellow:
		return Cell{X: last, Y: 0}
	case Red:
		return Cell{X: 0, Y: last}
	case Green:
		return Cell{X: last, Y: last}
	default:
		return Cell{X: 0, Y: 0}
	}
}
