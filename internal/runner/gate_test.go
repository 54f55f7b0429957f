package runner

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAffirmative(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"s", true},
		{"S", true},
		{"si", true},
		{"SI\n", true},
		{"sí", true},
		{"y", true},
		{" yes ", true},
		{"", false},
		{"\n", false},
		{"n", false},
		{"no", false},
		{"sure", false},
		{"ss", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			assert.Equal(t, tt.want, IsAffirmative(tt.answer))
		})
	}
}

func TestLineAsker(t *testing.T) {
	var out bytes.Buffer
	a := LineAsker{In: strings.NewReader("si\nignored\n"), Out: &out}

	answer, err := a.Ask("continue? ")
	require.NoError(t, err)
	assert.Equal(t, "si\n", answer)
	assert.Equal(t, "continue? ", out.String())
}

func TestLineAsker_LastLineWithoutNewline(t *testing.T) {
	a := LineAsker{In: strings.NewReader("y"), Out: &bytes.Buffer{}}
	answer, err := a.Ask("? ")
	require.NoError(t, err)
	assert.True(t, IsAffirmative(answer))
}

type failingAsker struct{}

func (failingAsker) Ask(string) (string, error) { return "", errors.New("stdin closed") }

func TestGate_Confirm(t *testing.T) {
	selected := []WorkItem{
		{ID: 11, Name: "Ana", Email: "ana@test.com"},
		{ID: 12, Name: "Luis", Email: "luis@test.com"},
	}

	t.Run("lists every user and accepts", func(t *testing.T) {
		var out bytes.Buffer
		g := &Gate{Asker: FixedAsker("s"), Out: &out}

		assert.True(t, g.Confirm(selected))
		assert.Contains(t, out.String(), "1. ID: 11 - Ana (ana@test.com)")
		assert.Contains(t, out.String(), "2. ID: 12 - Luis (luis@test.com)")
	})

	t.Run("empty answer declines", func(t *testing.T) {
		g := &Gate{Asker: FixedAsker(""), Out: &bytes.Buffer{}}
		assert.False(t, g.Confirm(selected))
	})

	t.Run("read error declines", func(t *testing.T) {
		g := &Gate{Asker: failingAsker{}, Out: &bytes.Buffer{}}
		assert.False(t, g.Confirm(selected))
	})

	t.Run("eof declines", func(t *testing.T) {
		g := &Gate{Asker: LineAsker{In: strings.NewReader(""), Out: &bytes.Buffer{}}, Out: &bytes.Buffer{}}
		assert.False(t, g.Confirm(selected))
	})
}
