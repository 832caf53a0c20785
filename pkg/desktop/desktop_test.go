package desktop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseButton(t *testing.T) {
	tests := []struct {
		in      string
		want    Button
		wantErr bool
	}{
		{"middle", ButtonMiddle, false},
		{"Middle", ButtonMiddle, false},
		{"right", ButtonRight, false},
		{"back", ButtonBack, false},
		{"2", ButtonMiddle, false},
		{"button9", ButtonForward, false},
		{"wheel", 0, true},
		{"0", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseButton(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestButtonText(t *testing.T) {
	var b Button
	require.NoError(t, b.UnmarshalText([]byte("forward")))
	assert.Equal(t, ButtonForward, b)

	text, err := ButtonMiddle.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "middle", string(text))
	assert.Equal(t, "button6", Button(6).String())
}

func TestParseShortcut(t *testing.T) {
	sc, err := ParseShortcut("ctrl+Down")
	require.NoError(t, err)
	assert.Equal(t, "Down", sc.Key)
	assert.True(t, sc.Has(ModControl))
	assert.False(t, sc.Has(ModShift))

	sc, err = ParseShortcut("Super+Shift+Page_Up")
	require.NoError(t, err)
	assert.Equal(t, "Page_Up", sc.Key)
	assert.Equal(t, ModSuper|ModShift, sc.Modifiers)
	assert.Equal(t, "shift+super+Page_Up", sc.String())

	sc, err = ParseShortcut("F11")
	require.NoError(t, err)
	assert.Equal(t, Shortcut{Key: "F11"}, sc)

	for _, bad := range []string{"", "ctrl+", "hyper+a", "+a"} {
		_, err := ParseShortcut(bad)
		assert.Error(t, err, bad)
	}
}

func TestAppIdentity(t *testing.T) {
	a := App{ID: "firefox", Name: "Firefox", PID: 10}
	b := App{ID: "firefox", PID: 20}
	assert.True(t, a.Same(b))
	assert.False(t, App{}.Same(App{}))
	assert.Equal(t, "Firefox", a.String())
	assert.Equal(t, "firefox", b.String())
	assert.Equal(t, "?", App{}.String())
}

func TestRunDetachedEmpty(t *testing.T) {
	assert.ErrorIs(t, RunDetached(nil), ErrUnsupported)
}
