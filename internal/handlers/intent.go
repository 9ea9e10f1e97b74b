package handlers

import (
	"strconv"
	"strings"

	"oferta-studio/internal/palette"
)

// parseOffer splits "offer | highlight" input.
func parseOffer(text string) (offer, highlight string) {
	offer, highlight, _ = strings.Cut(strings.TrimSpace(text), "|")
	return strings.TrimSpace(offer), strings.TrimSpace(highlight)
}

func wantsComplex(text string) bool {
	t := strings.ToLower(text)
	if t == "" {
		return false
	}

	keywords := []string{
		"campanha completa",
		"calendário", "calendario",
		"roteiro",
		"script",
		"plano de conteúdo", "plano de conteudo",
	}

	for _, kw := range keywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// parseColorArg accepts a hex color or a 1-based index into colors.
func parseColorArg(arg string, colors []string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(colors) {
			return "", false
		}
		return colors[n-1], true
	}
	return palette.NormalizeHex(arg)
}

func userKey(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}
