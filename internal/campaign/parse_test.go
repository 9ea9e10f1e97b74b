package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":         `{"a":1}`,
		"```\n{\"a\":1}```":               `{"a":1}`,
		`Aqui está: {"a":1} espero ajudar`: `{"a":1}`,
		"  {\"a\":1}  ":                   `{"a":1}`,
		"sem json":                        "sem json",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanJSON(in), in)
	}
}

func TestParseModelOutput_FieldLevelDefaults(t *testing.T) {
	req := Request{OfferText: "Pizza grande\nBorda recheada", HighlightText: "R$39", Complex: true}

	raw := `{
		"headline": "",
		"subtext": ["Massa fina", "Forno a lenha"],
		"audit": {"score": "130%", "strengths": "Preço, Sabor", "improvements": ["Prazo"], "verdict": "Boa"},
		"socialPost": {"caption": "Hoje tem pizza", "hashtags": "#pizza #delivery"},
		"calendar": [
			{"day": "Segunda", "theme": "Sabor", "idea": "Vídeo da massa"},
			{"day": "x", "theme": "", "idea": "sem tema"},
			{"theme": "Equipe", "idea": "Bastidores da cozinha"}
		],
		"salesScripts": {"approach": "Oi!", "objection": ""},
		"imagePrompt": "  pizza on wooden board  "
	}`

	d, ok := ParseModelOutput(raw, req)
	require.True(t, ok)

	assert.Equal(t, "Oferta", d.Content.Headline)
	assert.Equal(t, "Massa fina\nForno a lenha", d.Content.Subtext)
	assert.Equal(t, "R$39", d.Content.Highlight)

	assert.Equal(t, 100, d.Audit.Score)
	assert.Equal(t, []string{"Preço", "Sabor"}, d.Audit.Strengths)

	assert.Equal(t, []string{"#pizza", "#delivery"}, d.Social.Hashtags)

	require.Len(t, d.Calendar, 5)
	assert.Equal(t, DayPlan{Day: "Dia 1", Theme: "Sabor", Idea: "Vídeo da massa"}, d.Calendar[0])
	assert.Equal(t, DayPlan{Day: "Dia 2", Theme: "Equipe", Idea: "Bastidores da cozinha"}, d.Calendar[1])
	assert.Equal(t, "Dia 5", d.Calendar[4].Day)
	assert.Contains(t, d.Calendar[4].Idea, "Pizza grande")

	assert.Equal(t, defaultScripts(req), d.Scripts)
	assert.Equal(t, "pizza on wooden board", d.ImagePrompt)

	assert.ElementsMatch(t, []string{"content", "calendar", "salesScripts"}, d.Defaulted)
}

func TestParseModelOutput_NonComplexSectionsAreQuiet(t *testing.T) {
	raw := `{"headline":"A","subtext":"B","highlight":"C",
		"audit":{"score":70,"strengths":["x"],"improvements":["y"],"verdict":"z"},
		"socialPost":{"caption":"c","hashtags":["#h"]},
		"imagePrompt":"p"}`

	d, ok := ParseModelOutput(raw, Request{OfferText: "Oferta"})
	require.True(t, ok)
	assert.Empty(t, d.Defaulted)
	assert.Len(t, d.Calendar, 5)
	assert.NotEmpty(t, d.Scripts.Approach)
}

func TestParseModelOutput_InvalidJSON(t *testing.T) {
	req := Request{OfferText: "Liquidação de inverno com casacos\nAté 70% off"}

	d, ok := ParseModelOutput("not json at all", req)
	assert.False(t, ok)
	assert.Equal(t, "Liquidação de invern", d.Content.Headline)
	assert.Equal(t, req.OfferText, d.Content.Subtext)
	assert.Equal(t, "Oferta", d.Content.Highlight)
	assert.Equal(t, "Simple background", d.ImagePrompt)
	assert.Len(t, d.Calendar, 5)

	t.Run("json array is not an object", func(t *testing.T) {
		_, ok := ParseModelOutput(`[1,2]`, req)
		assert.False(t, ok)
	})

	t.Run("null", func(t *testing.T) {
		_, ok := ParseModelOutput(`null`, req)
		assert.False(t, ok)
	})
}

func TestParseModelOutput_AuditFallbacks(t *testing.T) {
	req := Request{OfferText: "x"}
	for name, audit := range map[string]string{
		"missing score":      `{"strengths":["a"],"improvements":["b"],"verdict":"c"}`,
		"empty strengths":    `{"score":50,"strengths":[],"improvements":["b"],"verdict":"c"}`,
		"wrong type":         `"great"`,
		"score not a number": `{"score":"alto","strengths":["a"],"improvements":["b"],"verdict":"c"}`,
	} {
		t.Run(name, func(t *testing.T) {
			d, ok := ParseModelOutput(`{"audit":`+audit+`}`, req)
			require.True(t, ok)
			assert.Equal(t, defaultAudit(), d.Audit)
			assert.Contains(t, d.Defaulted, "audit")
		})
	}

	t.Run("fractional score", func(t *testing.T) {
		d, _ := ParseModelOutput(`{"audit":{"score":72.6,"strengths":["a"],"improvements":["b"],"verdict":"c"}}`, req)
		assert.Equal(t, 73, d.Audit.Score)
	})
}

func TestParseCopy(t *testing.T) {
	c, ok := ParseCopy("```json\n{\"headline\":\"H\",\"subtext\":\"S\",\"highlight\":\"X\"}\n```", "offer")
	assert.True(t, ok)
	assert.Equal(t, Content{Headline: "H", Subtext: "S", Highlight: "X"}, c)

	c, ok = ParseCopy("{", "offer")
	assert.False(t, ok)
	assert.Equal(t, Content{Headline: "Nova Oferta", Subtext: "offer", Highlight: "Confira"}, c)

	c, _ = ParseCopy(`{}`, "offer")
	assert.Equal(t, Content{Headline: "Oferta", Subtext: "offer", Highlight: "Confira"}, c)
}
