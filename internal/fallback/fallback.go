// Package fallback builds image URLs for the public prompt-to-image service
// used when the primary image model is unavailable.
package fallback

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
)

const DefaultBaseURL = "https://pollinations.ai/p/"

type Client struct {
	BaseURL string
	// Rand returns a value in [0, n). Defaults to math/rand.
	Rand func(n int) int
}

func New(baseURL string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL, Rand: rand.IntN}
}

// URL returns the image address for prompt at the given pixel size. The seed
// is a random value below 1000 plus seedOffset so that variants differ.
func (c *Client) URL(prompt string, width, height, seedOffset int) (string, error) {
	base, err := url.Parse(c.baseURL())
	if err != nil {
		return "", fmt.Errorf("parse fallback base url: %w", err)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = "abstract"
	}

	q := url.Values{}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	q.Set("nologo", "true")
	q.Set("seed", strconv.Itoa(c.seed()+seedOffset))

	prefix := base.String()
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + escapeComponent(prompt) + "?" + q.Encode(), nil
}

// componentReplacer turns query escaping into URI component escaping: spaces
// as %20 and the marks !'()* left literal.
var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent escapes every byte outside A-Z a-z 0-9 - _ . ! ~ * ' ( ),
// so reserved characters such as & + = : @ $ / ? cannot leak into the path.
func escapeComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c *Client) seed() int {
	if c.Rand == nil {
		return rand.IntN(1000)
	}
	return c.Rand(1000)
}
