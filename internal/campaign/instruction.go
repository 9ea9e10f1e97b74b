package campaign

import (
	"fmt"
	"strings"

	"oferta-studio/internal/palette"
)

const (
	isolationFragment = "SOLID PLAIN BACKGROUND, product photography studio isolation, neutral background color, no distractions in background, clean cut"

	qualityPro  = "Visual Quality: MASTERPIECE, 8k resolution, highly detailed, cinematic lighting, award winning photography."
	qualityFree = "Visual Quality: Standard resolution, simple layout, plain lighting, fast render."

	lookPro  = "Use dynamic angles, depth of field (bokeh) and dramatic studio lighting."
	lookFree = "Use simple flat lighting and basic centered composition."

	framingPro  = "wide shot, uncropped, zoom out, safe margin, full bleed, 8k, photorealistic, cinematic"
	framingFree = "wide shot, uncropped, zoom out, standard quality"

	remixNote = "Analise a imagem acima. O usuário quer RECRIAR esta imagem mantendo o objeto. Crie um 'imagePrompt' para isso combinado com: "

	calendarDays = 5
)

// BrandFragment is the instruction biasing the palette toward the brand color.
func BrandFragment(color string) string {
	color = strings.TrimSpace(color)
	if color == "" {
		return ""
	}
	if hex, ok := palette.NormalizeHex(color); ok {
		color = hex
	}
	return fmt.Sprintf("IMPORTANT: The brand color is %s. Try to incorporate this color subtly in the background, lighting, or accents.", color)
}

func isolation(req Request) string {
	if req.IsolateProduct {
		return isolationFragment
	}
	return ""
}

// BuildInstruction assembles the single text-model instruction for req.
func BuildInstruction(req Request) string {
	styleKey := ResolveStyle(req.Style)
	level := "GRÁTIS"
	quality, look := qualityFree, lookFree
	if req.Pro {
		level = "PRO"
		quality, look = qualityPro, lookPro
	}

	var b strings.Builder
	b.Grow(4096)

	b.WriteString("Você é um Copywriter Criativo de Elite e Designer Visual.\n")
	b.WriteString("Sua missão: transformar ofertas comuns em anúncios que vendem.\n\n")

	b.WriteString("ENTRADA:\n")
	writeSection(&b, "Oferta", []string{quote(req.OfferText)})
	writeSection(&b, "Destaque sugerido", []string{quote(req.HighlightText)})
	writeSection(&b, "Pedido visual", []string{quote(req.CustomPrompt)})
	writeSection(&b, "Estilo solicitado", []string{quote(styleKey)})
	b.WriteString("\n")

	b.WriteString("DIRETRIZES DE COPYWRITING:\n")
	writeNumbered(&b, []string{
		"ZERO REDUNDÂNCIA: nunca repita na headline o que já está óbvio na imagem ou no subtexto.",
		"GATILHOS MENTAIS: troque descrições técnicas por sensações e benefícios.",
		"VOCABULÁRIO DE IMPACTO: use palavras poderosas.",
		"ESTRATÉGIA DE VENDA: " + StrategyTone(req.Strategy),
	})
	b.WriteString("\n")

	b.WriteString("REGRAS ESTRUTURAIS (JSON):\n")
	highlightRule := "HIGHLIGHT: preço ou chamada de ação curtíssima."
	if strings.TrimSpace(req.HighlightText) != "" {
		highlightRule = fmt.Sprintf("HIGHLIGHT: use %s.", quote(req.HighlightText))
	}
	writeNumbered(&b, []string{
		"HEADLINE (máx. 4 palavras): o gancho principal.",
		"SUBTEXT (lista vertical): separe os itens com \\n.",
		highlightRule,
		"AUDIT: nota de 0 a 100 para a oferta, pontos fortes, melhorias e um veredito curto.",
		"SOCIAL POST: legenda pronta para Instagram com hashtags.",
	})
	b.WriteString("\n")

	b.WriteString("REGRAS VISUAIS (prompt de imagem) - nível do usuário: " + level + ":\n")
	writeNumbered(&b, compact([]string{
		"Crie o prompt em INGLÊS.",
		prefixed("INCORPORE O ESTILO: ", StyleKeywords(styleKey)),
		isolation(req),
		BrandFragment(req.BrandColor),
		look,
		quality,
		"ENQUADRAMENTO: use \"Wide Shot\", \"Zoom Out\", \"Uncropped\".",
		"ESPAÇO NEGATIVO: obrigatório deixar espaço para texto.",
	}))
	b.WriteString("\n")

	b.WriteString("RETORNE APENAS JSON NESTE FORMATO:\n")
	b.WriteString(responseSchema(req.Complex))

	return b.String()
}

// ReferenceInstruction follows the reference image in a remix request.
func ReferenceInstruction(req Request) string {
	return remixNote + strings.TrimSpace(req.CustomPrompt)
}

// ComposeImagePrompt joins the model's image prompt with the style, isolation
// and brand fragments of req.
func ComposeImagePrompt(imagePrompt string, req Request) string {
	return strings.Join(compact([]string{
		strings.TrimSpace(imagePrompt),
		StyleKeywords(req.Style),
		isolation(req),
		BrandFragment(req.BrandColor),
	}), ". ")
}

// VariantPrompt is the image prompt for variant index (zero based).
func VariantPrompt(imagePrompt string, req Request, index int) string {
	framing := framingFree
	if req.Pro {
		framing = framingPro
	}
	composed := ComposeImagePrompt(imagePrompt, req)
	if req.ReferenceImage != "" {
		return fmt.Sprintf("Generate a variation (Variant %d). Keep main subject. %s, %s", index+1, composed, framing)
	}
	return fmt.Sprintf("Variant %d. %s, %s", index+1, composed, framing)
}

// CopyInstruction asks for copy only, used when regenerating text.
func CopyInstruction(offerText, style string) string {
	var b strings.Builder
	b.WriteString("Você é um especialista em Copywriting para Varejo.\n")
	b.WriteString("Reescreva o texto para esta oferta: " + quote(offerText) + "\n")
	b.WriteString("Estilo: " + ResolveStyle(style) + "\n\n")
	b.WriteString("Regras:\n")
	writeNumbered(&b, []string{
		"Headline curta (máx. 4 palavras) e impactante.",
		"Subtexto persuasivo e direto.",
		"Destaque (highlight) deve ser o preço ou uma chamada de ação curtíssima.",
	})
	b.WriteString("\nResponda APENAS JSON:\n")
	b.WriteString(`{"headline": "...", "subtext": "...", "highlight": "..."}` + "\n")
	return b.String()
}

func responseSchema(full bool) string {
	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString(`  "headline": "Texto Criativo",` + "\n")
	b.WriteString(`  "subtext": "Benefício 1\nBenefício 2",` + "\n")
	b.WriteString(`  "highlight": "Destaque",` + "\n")
	b.WriteString(`  "audit": {"score": 85, "strengths": ["..."], "improvements": ["..."], "verdict": "..."},` + "\n")
	b.WriteString(`  "socialPost": {"caption": "...", "hashtags": ["#..."]},` + "\n")
	if full {
		fmt.Fprintf(&b, `  "calendar": [{"day": "Dia 1", "theme": "...", "idea": "..."}],  // exatamente %d dias`+"\n", calendarDays)
		b.WriteString(`  "salesScripts": {"approach": "...", "objection": "...", "closing": "..."},` + "\n")
	}
	b.WriteString(`  "imagePrompt": "English description..."` + "\n")
	b.WriteString("}\n")
	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("- " + title + ":\n")
	for _, line := range lines {
		b.WriteString("  - " + line + "\n")
	}
}

func writeNumbered(b *strings.Builder, lines []string) {
	for i, line := range lines {
		fmt.Fprintf(b, "%d. %s\n", i+1, line)
	}
}

func quote(s string) string {
	return `"` + strings.TrimSpace(s) + `"`
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
