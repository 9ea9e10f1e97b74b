package campaign

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

const (
	StyleCustom     = "custom"
	StrategyBenefit = "benefit"
)

type Style struct {
	Name     string
	Keywords string
	Aliases  []string
}

type Strategy struct {
	Name    string
	Tone    string
	Aliases []string
}

var styleOrder = []string{
	"luxury",
	"gourmet",
	"tech",
	"minimal",
	"organic",
	"rustic",
	"pop",
	"corporate",
	"fitness",
	"kids",
	StyleCustom,
}

var styles = map[string]Style{
	"luxury": {
		Name:     "Luxo",
		Keywords: "luxury, elegant, gold and black textures, marble, cinematic lighting, expensive look, bokeh",
		Aliases:  []string{"luxo", "premium", "sofisticado"},
	},
	"gourmet": {
		Name:     "Gourmet",
		Keywords: "delicious, gourmet food photography, steam, fresh ingredients, warm lighting, wooden table, appetizing",
		Aliases:  []string{"comida", "restaurante", "food"},
	},
	"tech": {
		Name:     "Tecnologia",
		Keywords: "futuristic, cyberpunk, neon lights, blue and purple glow, high tech, sleek, modern",
		Aliases:  []string{"tecnologia", "eletronicos", "futurista"},
	},
	"minimal": {
		Name:     "Minimalista",
		Keywords: "minimalist, clean lines, vast white space, soft shadows, studio lighting, pastel tones, modern design",
		Aliases:  []string{"minimalista", "clean", "limpo"},
	},
	"organic": {
		Name:     "Orgânico",
		Keywords: "nature, eco friendly, green leaves, sunlight, wooden texture, fresh, organic product photography",
		Aliases:  []string{"organico", "natural", "eco"},
	},
	"rustic": {
		Name:     "Rústico",
		Keywords: "rustic, handmade, weathered wood, burlap, warm earthy tones, farmhouse, natural window light",
		Aliases:  []string{"rustico", "artesanal"},
	},
	"pop": {
		Name:     "Pop",
		Keywords: "pop art, bold saturated colors, playful geometric shapes, high contrast, vibrant, energetic",
		Aliases:  []string{"colorido", "vibrante"},
	},
	"corporate": {
		Name:     "Corporativo",
		Keywords: "corporate, professional, clean office environment, navy and grey tones, trustworthy, sharp focus",
		Aliases:  []string{"corporativo", "empresarial", "negocios"},
	},
	"fitness": {
		Name:     "Fitness",
		Keywords: "fitness, dynamic motion, gym atmosphere, energetic lighting, sweat, strong contrast, athletic",
		Aliases:  []string{"academia", "esporte", "saude"},
	},
	"kids": {
		Name:     "Infantil",
		Keywords: "playful, colorful toys, soft rounded shapes, bright cheerful pastel colors, fun, friendly",
		Aliases:  []string{"infantil", "criancas", "crianca"},
	},
	StyleCustom: {
		Name:    "Personalizado",
		Aliases: []string{"personalizado", "livre"},
	},
}

var strategyOrder = []string{
	StrategyBenefit,
	"urgency",
	"exclusive",
	"social_proof",
}

var strategies = map[string]Strategy{
	StrategyBenefit: {
		Name:    "Benefício",
		Tone:    "Foque nos BENEFÍCIOS concretos: mostre a transformação que o produto entrega na vida do cliente.",
		Aliases: []string{"beneficio", "beneficios"},
	},
	"urgency": {
		Name:    "Urgência",
		Tone:    "Crie URGÊNCIA e ESCASSEZ: prazo curto, estoque limitado, use expressões como \"Só hoje\" e \"Últimas unidades\".",
		Aliases: []string{"urgencia", "escassez"},
	},
	"exclusive": {
		Name:    "Exclusividade",
		Tone:    "Passe EXCLUSIVIDADE: acesso VIP, edição limitada, para poucos clientes selecionados.",
		Aliases: []string{"exclusivo", "exclusividade", "vip"},
	},
	"social_proof": {
		Name:    "Prova Social",
		Tone:    "Use PROVA SOCIAL: \"Mais vendido\", \"Clientes aprovam\", números de vendas e avaliações.",
		Aliases: []string{"prova_social", "socialproof", "depoimentos"},
	},
}

func Styles() []NamedOption {
	out := make([]NamedOption, 0, len(styleOrder))
	for _, key := range styleOrder {
		out = append(out, NamedOption{Key: key, Name: styles[key].Name})
	}
	return out
}

func Strategies() []NamedOption {
	out := make([]NamedOption, 0, len(strategyOrder))
	for _, key := range strategyOrder {
		out = append(out, NamedOption{Key: key, Name: strategies[key].Name})
	}
	return out
}

// ResolveStyle maps a user tag to a catalog key. Unknown tags are custom.
func ResolveStyle(tag string) string {
	return resolve(tag, styleOrder, func(key string) []string { return styles[key].Aliases }, StyleCustom)
}

// ResolveStrategy maps a user tag to a strategy key. Unknown tags are benefit.
func ResolveStrategy(tag string) string {
	return resolve(tag, strategyOrder, func(key string) []string { return strategies[key].Aliases }, StrategyBenefit)
}

// StyleKeywords returns the English keyword fragment for tag, empty for custom.
func StyleKeywords(tag string) string {
	return styles[ResolveStyle(tag)].Keywords
}

func StrategyTone(tag string) string {
	return strategies[ResolveStrategy(tag)].Tone
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
	" ", "_", "-", "_",
)

func normalizeTag(tag string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(tag)))
}

// resolve tries the exact key, then aliases, then the closest key or alias
// within edit distance 2. Fuzzy matching needs at least 4 characters.
func resolve(tag string, order []string, aliases func(string) []string, fallback string) string {
	tag = normalizeTag(tag)
	if tag == "" {
		return fallback
	}

	for _, key := range order {
		if key == tag {
			return key
		}
	}
	for _, key := range order {
		for _, alias := range aliases(key) {
			if alias == tag {
				return key
			}
		}
	}

	if len(tag) < 4 {
		return fallback
	}

	best, bestDist := fallback, 3
	for _, key := range order {
		for _, candidate := range append([]string{key}, aliases(key)...) {
			if d := levenshtein.Distance(tag, candidate); d < bestDist {
				best, bestDist = key, d
			}
		}
	}
	return best
}
