package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Yes\n", true},
		{"n\n", false},
		{"\n", false},
		{"y", true}, // no trailing newline
	}
	for _, tt := range tests {
		var out bytes.Buffer
		term := NewTerminalWith(strings.NewReader(tt.input), &out)
		got, err := term.Confirm("Continue? [y/n] : ")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Continue? [y/n] : ", out.String())
	}
}

func TestTerminal_EOF(t *testing.T) {
	term := NewTerminalWith(strings.NewReader(""), &bytes.Buffer{})
	_, err := term.Confirm("?")
	assert.Error(t, err)
}

func TestTerminal_AskDefault(t *testing.T) {
	term := NewTerminalWith(strings.NewReader("\n  Custom Name \n"), &bytes.Buffer{})

	got, err := term.Ask("Site name: ", "Demo - Home Documentation")
	require.NoError(t, err)
	assert.Equal(t, "Demo - Home Documentation", got)

	got, err = term.Ask("Site name: ", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "Custom Name", got)
}

func TestScripted(t *testing.T) {
	s := NewScripted("y", "", "n")

	ok, err := s.Confirm("first")
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := s.Ask("second", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	ok, err = s.Confirm("third")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Confirm("fourth")
	assert.Error(t, err, "exhausted script")

	assert.Equal(t, []string{"first", "second", "third", "fourth"}, s.Asked())
}

func TestYes(t *testing.T) {
	ok, err := Yes{}.Confirm("anything")
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := Yes{}.Ask("q", "d")
	require.NoError(t, err)
	assert.Equal(t, "d", v)
}
