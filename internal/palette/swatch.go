package palette

import (
	"strconv"
	"strings"
)

// Swatch is one opaque RGB color.
type Swatch struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ParseHex accepts "#rrggbb", "rrggbb" and the short "#rgb" form.
func ParseHex(value string) (Swatch, bool) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(value) == 3 {
		value = string([]byte{value[0], value[0], value[1], value[1], value[2], value[2]})
	}
	if len(value) != 6 {
		return Swatch{}, false
	}
	n, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return Swatch{}, false
	}
	return Swatch{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, true
}

// NormalizeHex returns the canonical lower-case "#rrggbb" form of value.
func NormalizeHex(value string) (string, bool) {
	s, ok := ParseHex(value)
	if !ok {
		return "", false
	}
	return s.Hex(), true
}

// Swatches converts hex strings for swatch pickers, skipping invalid ones.
func Swatches(hexes []string) []Swatch {
	out := make([]Swatch, 0, len(hexes))
	for _, h := range hexes {
		if s, ok := ParseHex(h); ok {
			out = append(out, s)
		}
	}
	return out
}
