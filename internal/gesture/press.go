package gesture

import "math"

// Dominance is how much longer the main axis must be than the other one.
const Dominance = 1.5

// Direction is a classified drag direction.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return "unknown"
}

// Arrow returns the direction as an arrow glyph.
func (d Direction) Arrow() string {
	switch d {
	case Left:
		return "←"
	case Right:
		return "→"
	case Up:
		return "↑"
	case Down:
		return "↓"
	}
	return "?"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Classify maps a displacement to a direction. Screen y grows downwards.
// It reports false when the drag is shorter than threshold on both axes or when
// neither axis dominates.
func Classify(dx, dy, threshold float64) (Direction, bool) {
	adx, ady := math.Abs(dx), math.Abs(dy)
	if math.Max(adx, ady) < threshold {
		return 0, false
	}
	switch {
	case adx >= ady*Dominance:
		if dx < 0 {
			return Left, true
		}
		return Right, true
	case ady >= adx*Dominance:
		if dy > 0 {
			return Down, true
		}
		return Up, true
	}
	return 0, false
}

// PressState tracks one press of the trigger button.
type PressState struct {
	ButtonDown     bool
	StartX, StartY float64
	Fired          bool
}

// Press starts a new press at (x, y).
func (p *PressState) Press(x, y float64) {
	p.ButtonDown = true
	p.Fired = false
	p.StartX, p.StartY = x, y
}

// Release ends the press.
func (p *PressState) Release() {
	p.ButtonDown = false
	p.Fired = false
}

// Drag feeds one drag sample. It returns a direction at most once per press.
func (p *PressState) Drag(x, y, threshold float64) (Direction, bool) {
	if !p.ButtonDown || p.Fired {
		return 0, false
	}
	dir, ok := Classify(x-p.StartX, y-p.StartY, threshold)
	if !ok {
		return 0, false
	}
	p.Fired = true
	return dir, true
}
