package desktop

import (
	"fmt"
	"strconv"
	"strings"
)

// Button is a mouse button, numbered the X11 way (1 = left, 2 = middle, 3 = right,
// 8 = back, 9 = forward).
type Button int

const (
	ButtonLeft    Button = 1
	ButtonMiddle  Button = 2
	ButtonRight   Button = 3
	ButtonBack    Button = 8
	ButtonForward Button = 9
)

var buttonNames = map[Button]string{
	ButtonLeft:    "left",
	ButtonMiddle:  "middle",
	ButtonRight:   "right",
	ButtonBack:    "back",
	ButtonForward: "forward",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return "button" + strconv.Itoa(int(b))
}

// ParseButton accepts a button name or its number.
func ParseButton(s string) (Button, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for b, name := range buttonNames {
		if name == s {
			return b, nil
		}
	}
	s = strings.TrimPrefix(s, "button")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 32 {
		return 0, fmt.Errorf("invalid mouse button: %q", s)
	}
	return Button(n), nil
}

// MarshalText implements encoding.TextMarshaler.
func (b Button) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Button) UnmarshalText(text []byte) error {
	parsed, err := ParseButton(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
