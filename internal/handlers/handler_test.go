package handlers

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oferta-studio/internal/campaign"
	"oferta-studio/internal/quota"
	"oferta-studio/internal/session"
	"oferta-studio/internal/telegram"
)

type fixture struct {
	h        *Handler
	tg       *fakeMessenger
	studio   *fakeStudio
	sessions *session.Store
	quota    *quota.Limiter
}

func newFixture() fixture {
	tg := newFakeMessenger()
	studio := &fakeStudio{result: okResult(), content: campaign.Content{Headline: "Nova", Subtext: "Copy", Highlight: "Agora"}}
	sessions := session.NewStore(session.Options{})
	limiter := quota.New(quota.Options{FreeDailyLimit: 2})

	h := New(Options{
		Telegram: tg,
		Studio:   studio,
		Palette:  fakePalette{colors: []string{"#ff0000", "#0000ff"}},
		Sessions: sessions,
		Quota:    limiter,
	})
	return fixture{h: h, tg: tg, studio: studio, sessions: sessions, quota: limiter}
}

func (f fixture) send(t *testing.T, msg *tgbotapi.Message) {
	t.Helper()
	require.NoError(t, f.h.HandleUpdate(context.Background(), telegram.Update{Message: msg}))
}

func TestHandleUpdate_Help(t *testing.T) {
	f := newFixture()
	f.send(t, message("/start"))
	assert.Contains(t, f.tg.lastText(), "/campanha")

	f.send(t, message("/naoexiste"))
	assert.Contains(t, f.tg.lastText(), "Comando desconhecido")
}

func TestHandleUpdate_TextRunsCampaign(t *testing.T) {
	f := newFixture()
	f.send(t, message("/formato retrato"))
	f.send(t, message("/estilo gourmê"))

	f.send(t, message("Pizza grande por R$39,90 | Só hoje"))

	req := f.studio.lastRequest()
	assert.Equal(t, "Pizza grande por R$39,90", req.OfferText)
	assert.Equal(t, "Só hoje", req.HighlightText)
	assert.Equal(t, campaign.AspectPortrait, req.Aspect)
	assert.Equal(t, "gourmet", req.Style)
	assert.False(t, req.Complex)

	require.Len(t, f.tg.images, 2)
	assert.Contains(t, f.tg.images[0].Caption, "Pizza em Dobro")
	assert.Empty(t, f.tg.images[1].Caption)

	report := f.tg.lastText()
	assert.Contains(t, report, "82/100")
	assert.Contains(t, report, "#pizza #promo")
	assert.NotContains(t, report, "Calendário")

	usage, err := f.quota.Check("tg:7", false)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Used)
}

func TestHandleUpdate_CompleteCampaign(t *testing.T) {
	f := newFixture()
	f.send(t, message("/completa Tênis com 30% off"))

	assert.True(t, f.studio.lastRequest().Complex)
	report := f.tg.lastText()
	assert.Contains(t, report, "Dia 1 - Teaser: Mostre a massa")
	assert.Contains(t, report, "Fechamento: Fecha hoje?")
}

func TestHandleUpdate_QuotaLimit(t *testing.T) {
	f := newFixture()
	f.send(t, message("/campanha Oferta 1"))
	f.send(t, message("/campanha Oferta 2"))
	f.send(t, message("/campanha Oferta 3"))

	assert.Len(t, f.studio.requests, 2)
	assert.Contains(t, f.tg.lastText(), "2 campanhas gratuitas")

	f.send(t, message("/plano"))
	assert.Contains(t, f.tg.lastText(), "2 de 2")
}

func TestHandleUpdate_ConcurrentQuota(t *testing.T) {
	f := newFixture()
	f.studio.onRun = func() { time.Sleep(100 * time.Millisecond) }

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			assert.NoError(t, f.h.HandleUpdate(context.Background(), telegram.Update{Message: message("/campanha Oferta")}))
		}()
	}
	close(start)
	wg.Wait()

	assert.Len(t, f.studio.requests, 2)
	assert.Equal(t, 3, strings.Count(f.tg.allText(), "2 campanhas gratuitas"))

	usage, _ := f.quota.Check("tg:7", false)
	assert.LessOrEqual(t, usage.Used, 2)
}

func TestHandleUpdate_FailedRunKeepsQuota(t *testing.T) {
	f := newFixture()
	f.studio.result = campaign.Result{ID: "x", Status: campaign.StatusFailed, Err: "boom"}

	f.send(t, message("/campanha Oferta"))

	assert.Contains(t, f.tg.lastText(), "Não consegui gerar")
	assert.Empty(t, f.tg.images)
	usage, _ := f.quota.Check("tg:7", false)
	assert.Zero(t, usage.Used)
}

func TestHandleUpdate_StaleGenerationDropped(t *testing.T) {
	f := newFixture()
	f.studio.onRun = func() { f.sessions.Clear(7) }

	f.send(t, message("/campanha Oferta"))

	assert.Empty(t, f.tg.images)
	assert.NotContains(t, f.tg.allText(), "Auditoria")
	usage, _ := f.quota.Check("tg:7", false)
	assert.Zero(t, usage.Used)
}

func TestHandleUpdate_ImagesFailToSend(t *testing.T) {
	f := newFixture()
	f.tg.failImage = true

	f.send(t, message("/campanha Oferta"))

	report := f.tg.lastText()
	assert.Contains(t, report, "Pizza em Dobro")
	assert.Contains(t, report, "Auditoria")
}

func TestHandleUpdate_LogoAndColor(t *testing.T) {
	f := newFixture()
	f.tg.files["logo"] = []byte("png")

	f.send(t, message("/logo"))
	assert.True(t, f.sessions.Get(7, "").AwaitingLogo)

	f.send(t, photo("logo", "ignored caption"))
	p := f.sessions.Get(7, "")
	assert.Equal(t, []string{"#ff0000", "#0000ff"}, p.Palette)
	assert.Equal(t, "#ff0000", p.BrandColor)
	assert.False(t, p.AwaitingLogo)
	assert.Contains(t, f.tg.lastText(), "2. #0000ff")
	assert.Empty(t, f.studio.requests)

	f.send(t, message("/cor 2"))
	assert.Equal(t, "#0000ff", f.sessions.Get(7, "").BrandColor)

	f.send(t, message("/cor #ABC"))
	assert.Equal(t, "#aabbcc", f.sessions.Get(7, "").BrandColor)

	f.send(t, message("/cor 9"))
	assert.Contains(t, f.tg.lastText(), "Cor inválida")

	f.send(t, message("/campanha Oferta"))
	assert.Equal(t, "#aabbcc", f.studio.lastRequest().BrandColor)
}

func TestHandleUpdate_CaptionedPhotoRemixes(t *testing.T) {
	f := newFixture()
	f.tg.files["prod"] = []byte("img")

	f.send(t, photo("prod", "Bolo de pote por R$10"))

	req := f.studio.lastRequest()
	assert.Equal(t, "Bolo de pote por R$10", req.OfferText)
	assert.Equal(t, "data:image/png;base64,aW1n", req.ReferenceImage)
}

func TestHandleUpdate_RemixReply(t *testing.T) {
	f := newFixture()
	f.tg.files["old"] = []byte("img")

	msg := message("/remix")
	f.send(t, msg)
	assert.Contains(t, f.tg.lastText(), "Responda a uma imagem")

	msg = message("/remix Nova oferta | Hoje")
	msg.ReplyToMessage = photo("old", "")
	f.send(t, msg)

	req := f.studio.lastRequest()
	assert.Equal(t, "Nova oferta", req.OfferText)
	assert.Equal(t, "Hoje", req.HighlightText)
	assert.NotEmpty(t, req.ReferenceImage)
}

func TestHandleUpdate_Copy(t *testing.T) {
	f := newFixture()
	f.send(t, message("/copy"))
	assert.Contains(t, f.tg.lastText(), "Exemplo")

	f.send(t, message("/copy Tênis"))
	assert.Equal(t, "Nova\nCopy\n\n⭐ Agora", f.tg.lastText())
}

func TestHandleUpdate_Clear(t *testing.T) {
	f := newFixture()
	f.send(t, message("/estilo luxo"))
	assert.Equal(t, "luxury", f.sessions.Get(7, "").Style)

	f.send(t, message("/limpar"))
	assert.Empty(t, f.sessions.Get(7, "").Style)
}

func TestHandleCallback(t *testing.T) {
	f := newFixture()
	f.send(t, message("/ajustes"))
	require.Len(t, f.tg.keyboards, 1)

	press := func(from int64, data string) {
		t.Helper()
		q := &tgbotapi.CallbackQuery{
			ID:      "q",
			From:    &tgbotapi.User{ID: from},
			Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 100}},
			Data:    data,
		}
		require.NoError(t, f.h.HandleUpdate(context.Background(), telegram.Update{CallbackQuery: q}))
	}

	press(7, "cfg:7:menu:style")
	kb := f.tg.keyboards[len(f.tg.keyboards)-1]
	assert.Equal(t, "cfg:7:style:luxury", *kb.InlineKeyboard[0][0].CallbackData)

	press(7, "cfg:7:style:tech")
	press(7, "cfg:7:aspect:landscape")
	press(7, "cfg:7:isolate")
	p := f.sessions.Get(7, "")
	assert.Equal(t, "tech", p.Style)
	assert.Equal(t, "landscape", p.Aspect)
	assert.True(t, p.Isolate)
	assert.Contains(t, f.tg.lastText(), "Isolar produto: sim")

	press(8, "cfg:7:style:pop")
	assert.Equal(t, "tech", f.sessions.Get(7, "").Style)
	assert.Equal(t, "Este menu não é seu.", f.tg.answers[len(f.tg.answers)-1])

	press(7, "other:7:x")
	press(7, "cfg:7:close")
	assert.Empty(t, f.tg.keyboards[len(f.tg.keyboards)-1].InlineKeyboard)
}
