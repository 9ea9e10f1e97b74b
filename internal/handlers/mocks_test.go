package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"oferta-studio/internal/campaign"
	"oferta-studio/internal/telegram"
)

type sentImage struct {
	ChatID  int64
	Image   string
	Caption string
}

type fakeMessenger struct {
	mu        sync.Mutex
	texts     []string
	images    []sentImage
	keyboards []telegram.InlineKeyboard
	answers   []string
	edits     int
	files     map[string][]byte
	failImage bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{files: map[string][]byte{}}
}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendTyping(int64) {}

func (f *fakeMessenger) SendImage(chatID int64, image, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failImage {
		return errors.New("send failed")
	}
	f.images = append(f.images, sentImage{ChatID: chatID, Image: image, Caption: caption})
	return nil
}

func (f *fakeMessenger) SendTextWithKeyboard(_ int64, text string, kb telegram.InlineKeyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.keyboards = append(f.keyboards, kb)
	return len(f.texts), nil
}

func (f *fakeMessenger) EditTextWithKeyboard(_ int64, _ int, text string, kb telegram.InlineKeyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	f.texts = append(f.texts, text)
	f.keyboards = append(f.keyboards, kb)
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ string, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) DownloadFile(_ context.Context, fileID string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[fileID]
	if !ok {
		return nil, "", errors.New("file not found")
	}
	return data, "image/png", nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeMessenger) allText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.texts, "\n---\n")
}

type fakeStudio struct {
	mu       sync.Mutex
	requests []campaign.Request
	result   campaign.Result
	content  campaign.Content
	onRun    func()
}

func (f *fakeStudio) Generate(_ context.Context, req campaign.Request) campaign.Result {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	onRun := f.onRun
	f.mu.Unlock()

	if onRun != nil {
		onRun()
	}
	return f.result
}

func (f *fakeStudio) RegenerateCopy(context.Context, string, string) campaign.Content {
	return f.content
}

func (f *fakeStudio) lastRequest() campaign.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakePalette struct {
	colors []string
}

func (f fakePalette) ExtractBytes(context.Context, []byte) []string {
	return f.colors
}

func okResult() campaign.Result {
	return campaign.Result{
		ID:     "c1",
		Images: []string{"data:image/png;base64,AAAA", "https://pollinations.ai/p/x"},
		Content: campaign.Content{
			Headline:  "Pizza em Dobro",
			Subtext:   "Pizza grande por R$39,90",
			Highlight: "Só hoje",
		},
		Audit: campaign.Audit{
			Score:        82,
			Strengths:    []string{"Preço claro"},
			Improvements: []string{"Mais urgência"},
			Verdict:      "Boa oferta.",
		},
		Social: campaign.SocialPost{Caption: "Peça já!", Hashtags: []string{"#pizza", "#promo"}},
		Calendar: []campaign.DayPlan{
			{Day: "Dia 1", Theme: "Teaser", Idea: "Mostre a massa"},
		},
		Scripts: campaign.SalesScripts{Approach: "Oi!", Objection: "Está caro?", Closing: "Fecha hoje?"},
		Status:  campaign.StatusOK,
	}
}

func message(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 10,
		Chat:      &tgbotapi.Chat{ID: 100},
		From:      &tgbotapi.User{ID: 7, UserName: "ana"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return msg
}

func photo(fileID, caption string) *tgbotapi.Message {
	msg := message("")
	msg.Caption = caption
	msg.Photo = []tgbotapi.PhotoSize{{FileID: fileID + "-small"}, {FileID: fileID}}
	return msg
}
