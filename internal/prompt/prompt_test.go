package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptStringTrims(t *testing.T) {
	p := newPrompterWithReader(strings.NewReader("  hello  \n"))
	got, err := p.PromptString("? ")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestPromptStringWithDefault(t *testing.T) {
	p := newPrompterWithReader(strings.NewReader("\ncustom\n"))

	got, err := p.PromptStringWithDefault("url", "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", got)

	got, err = p.PromptStringWithDefault("url", "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "custom", got)
}

func TestPromptConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":     true,
		"YES\n":   true,
		"n\n":     false,
		"\n":      false,
		"maybe\n": false,
	}
	for input, want := range cases {
		p := newPrompterWithReader(strings.NewReader(input))
		got, err := p.PromptConfirm("sure?")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
	}
}
