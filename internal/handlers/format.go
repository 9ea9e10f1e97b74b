package handlers

import (
	"fmt"
	"slices"
	"strings"

	"oferta-studio/internal/campaign"
	"oferta-studio/internal/quota"
)

func formatCaption(c campaign.Content) string {
	var b strings.Builder
	b.WriteString(c.Headline)
	if c.Subtext != "" {
		b.WriteString("\n" + c.Subtext)
	}
	if c.Highlight != "" {
		b.WriteString("\n\n⭐ " + c.Highlight)
	}
	return strings.TrimSpace(b.String())
}

// formatReport renders the text sections of a result. Calendar and scripts
// are only shown for complex campaigns.
func formatReport(res campaign.Result, full bool) string {
	var b strings.Builder

	a := res.Audit
	writeSection(&b, fmt.Sprintf("📊 Auditoria (%d/100)", a.Score), a.Verdict)
	writeList(&b, "✅ Pontos fortes", a.Strengths)
	writeList(&b, "🔧 Melhorias", a.Improvements)

	post := res.Social.Caption
	if len(res.Social.Hashtags) > 0 {
		post += "\n\n" + strings.Join(res.Social.Hashtags, " ")
	}
	writeSection(&b, "📱 Post para redes sociais", post)

	if full {
		var cal strings.Builder
		for _, d := range res.Calendar {
			fmt.Fprintf(&cal, "%s - %s: %s\n", d.Day, d.Theme, d.Idea)
		}
		writeSection(&b, "🗓 Calendário", cal.String())

		s := res.Scripts
		writeSection(&b, "💬 Roteiros de venda",
			"Abordagem: "+s.Approach+"\nObjeção: "+s.Objection+"\nFechamento: "+s.Closing)
	}

	if res.Status == campaign.StatusDegraded {
		b.WriteString("\nℹ️ Parte do conteúdo usou valores padrão.")
	}
	return strings.TrimSpace(b.String())
}

func formatPalette(colors []string, brand string) string {
	if len(colors) == 0 {
		return "🎨 Nenhuma paleta ainda. Use /logo e envie o logo."
	}

	var b strings.Builder
	b.WriteString("🎨 Paleta do logo:\n")
	for i, c := range colors {
		mark := ""
		if c == brand {
			mark = " ⬅ cor da marca"
		}
		fmt.Fprintf(&b, "%d. %s%s\n", i+1, c, mark)
	}
	if brand != "" && !slices.Contains(colors, brand) {
		fmt.Fprintf(&b, "Cor da marca: %s\n", brand)
	}
	return strings.TrimSpace(b.String())
}

func formatUsage(u quota.Usage) string {
	if u.Unlimited {
		return fmt.Sprintf("⭐ Plano Pro: campanhas ilimitadas. Hoje: %d.", u.Used)
	}
	return fmt.Sprintf("📦 Plano gratuito: %d de %d campanhas usadas hoje (%d restantes).", u.Used, u.Limit, u.Remaining())
}

func writeSection(b *strings.Builder, title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(body)
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	var body strings.Builder
	for _, it := range items {
		body.WriteString("• " + it + "\n")
	}
	writeSection(b, title, body.String())
}

func optionName(opts []campaign.NamedOption, key string) string {
	for _, o := range opts {
		if o.Key == key {
			return o.Name
		}
	}
	return key
}
