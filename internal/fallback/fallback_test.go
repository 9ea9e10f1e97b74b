package fallback

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(v int) func(int) int {
	return func(int) int { return v }
}

func TestURL(t *testing.T) {
	c := &Client{BaseURL: DefaultBaseURL, Rand: fixed(42)}

	got, err := c.URL("red shoes, studio", 768, 1344, 200)
	require.NoError(t, err)
	assert.Equal(t, "https://pollinations.ai/p/red%20shoes%2C%20studio?height=1344&nologo=true&seed=242&width=768", got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/p/red shoes, studio", u.Path)
}

func TestURL_EscapesReservedCharacters(t *testing.T) {
	c := &Client{BaseURL: DefaultBaseURL, Rand: fixed(0)}

	tests := []struct {
		prompt string
		want   string
	}{
		{"R$199 & frete grátis", "R%24199%20%26%20frete%20gr%C3%A1tis"},
		{"a+b=c: user@shop", "a%2Bb%3Dc%3A%20user%40shop"},
		{"50% off / hoje?", "50%25%20off%20%2F%20hoje%3F"},
		{"it's (new)!*~", "it's%20(new)!*~"},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			got, err := c.URL(tt.prompt, 1, 1, 0)
			require.NoError(t, err)
			assert.Equal(t, DefaultBaseURL+tt.want+"?height=1&nologo=true&seed=0&width=1", got)

			u, err := url.Parse(got)
			require.NoError(t, err)
			assert.Equal(t, "/p/"+tt.prompt, u.Path)
			assert.Equal(t, "0", u.Query().Get("seed"))
		})
	}
}

func TestURL_Defaults(t *testing.T) {
	t.Run("empty prompt", func(t *testing.T) {
		c := &Client{Rand: fixed(0)}
		got, err := c.URL("  ", 1024, 1024, 0)
		require.NoError(t, err)
		assert.Equal(t, "https://pollinations.ai/p/abstract?height=1024&nologo=true&seed=0&width=1024", got)
	})

	t.Run("base without trailing slash", func(t *testing.T) {
		c := &Client{BaseURL: "http://localhost:9000/img", Rand: fixed(1)}
		got, err := c.URL("x", 10, 20, 999)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/img/x?height=20&nologo=true&seed=1000&width=10", got)
	})

	t.Run("seed stays within range", func(t *testing.T) {
		c := New("")
		for i := 0; i < 50; i++ {
			got, err := c.URL("p", 1, 1, 100)
			require.NoError(t, err)
			u, _ := url.Parse(got)
			seed := u.Query().Get("seed")
			assert.Regexp(t, `^(1\d\d|[2-9]\d\d|10\d\d|110\d)$`, seed)
		}
	})
}

func TestURL_BadBase(t *testing.T) {
	c := &Client{BaseURL: "://nope"}
	_, err := c.URL("x", 1, 1, 0)
	assert.Error(t, err)
}
