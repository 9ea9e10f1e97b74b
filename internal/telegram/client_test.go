package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitByBytes(t *testing.T) {
	t.Run("short text is one part", func(t *testing.T) {
		assert.Equal(t, []string{"olá"}, splitByBytes("olá", 10))
	})

	t.Run("never splits a rune", func(t *testing.T) {
		text := strings.Repeat("ção", 5)
		parts := splitByBytes(text, 4)
		assert.Equal(t, text, strings.Join(parts, ""))
		for _, p := range parts {
			assert.LessOrEqual(t, len(p), 4)
			assert.True(t, strings.ToValidUTF8(p, "?") == p)
		}
	})
}

func TestTruncateByBytes(t *testing.T) {
	assert.Equal(t, "abc", truncateByBytes("abc", 5))
	assert.Equal(t, "pr", truncateByBytes("promoção", 2))
	assert.Equal(t, "promo", truncateByBytes("promoção", 6))
}

func TestDetectMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	assert.Equal(t, "image/webp", detectMIME("image/webp; charset=binary", nil))
	assert.Equal(t, "image/png", detectMIME("application/octet-stream", png))
	assert.Equal(t, "image/png", detectMIME("", png))
	assert.Equal(t, "text/plain", detectMIME("", []byte("hello")))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "image.jpg", fileName("image/jpeg"))
	assert.Equal(t, "image.png", fileName("image/png"))
	assert.Equal(t, "image.svg", fileName("image/svg+xml"))
	assert.Equal(t, "image.jpg", fileName("application/x-unknown"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Token: "x"})
	assert.Error(t, err)
}
