package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   Direction
		fires  bool
	}{
		{"left", -100, 0, Left, true},
		{"right", 100, 10, Right, true},
		{"up", 5, -90, Up, true},
		{"down", 0, 200, Down, true},
		{"exact threshold", 80, 0, Right, true},
		{"just short", 79.999, 0, 0, false},
		{"tie", 100, 100, 0, false},
		{"negative tie", -90, 90, 0, false},
		{"just dominant", 150, 100, Right, true},
		{"just not dominant", 149.9, 100, 0, false},
		{"vertical dominant", 60, -90, Up, true},
		{"long axis only just dominant", 40, 81, Down, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.dx, tt.dy, 80)
			assert.Equal(t, tt.fires, ok)
			if tt.fires {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPressSingleFire(t *testing.T) {
	var p PressState
	p.Press(500, 500)

	_, ok := p.Drag(530, 510, 80)
	assert.False(t, ok)

	dir, ok := p.Drag(400, 505, 80)
	assert.True(t, ok)
	assert.Equal(t, Left, dir)

	for _, x := range []float64{300, 200, 900} {
		_, ok := p.Drag(x, 500, 80)
		assert.False(t, ok)
	}
	assert.True(t, p.Fired)

	p.Release()
	assert.False(t, p.ButtonDown)
	assert.False(t, p.Fired)
}

func TestPressDiagonalThenClean(t *testing.T) {
	var p PressState
	p.Press(0, 0)

	_, ok := p.Drag(100, 100, 80)
	assert.False(t, ok)
	assert.False(t, p.Fired)

	dir, ok := p.Drag(100, 260, 80)
	assert.True(t, ok)
	assert.Equal(t, Down, dir)
}

func TestDragWithoutPress(t *testing.T) {
	var p PressState
	_, ok := p.Drag(500, 0, 80)
	assert.False(t, ok)

	p.Press(0, 0)
	p.Release()
	_, ok = p.Drag(500, 0, 80)
	assert.False(t, ok)
}

func TestNewPressResets(t *testing.T) {
	var p PressState
	p.Press(0, 0)
	_, ok := p.Drag(200, 0, 80)
	assert.True(t, ok)

	p.Press(200, 0)
	dir, ok := p.Drag(200, -100, 80)
	assert.True(t, ok)
	assert.Equal(t, Up, dir)
}

func TestDirectionText(t *testing.T) {
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "↓", Down.Arrow())
	b, err := Up.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "up", string(b))
}
