package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"oferta-studio/internal/campaign"
	"oferta-studio/internal/session"
)

const menuCallbackPrefix = "cfg"

const (
	menuMain     = "main"
	menuStyle    = "style"
	menuStrategy = "strategy"
	menuAspect   = "aspect"
)

func (h *Handler) openMenu(chatID int64, userID int64, username, menu string) error {
	p := h.sessions.Get(userID, username)
	_, err := h.tg.SendTextWithKeyboard(chatID, menuText(p), menuKeyboard(userID, p, menu))
	return err
}

// handleCallback applies a settings button press. Callback data is
// "cfg:<owner>:<action>[:<arg>]".
func (h *Handler) handleCallback(_ context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.Message.Chat == nil || q.From == nil {
		return nil
	}

	ownerID, action, arg, ok := parseCallback(q.Data)
	if !ok {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "Este menu não é seu.", true)
		return nil
	}

	menu := menuMain
	p := h.sessions.Update(ownerID, q.From.UserName, func(p *session.Profile) {
		switch action {
		case "menu":
			menu = arg
		case "style":
			p.Style = campaign.ResolveStyle(arg)
		case "strategy":
			p.Strategy = campaign.ResolveStrategy(arg)
		case "aspect":
			p.Aspect = string(campaign.ParseAspect(arg))
		case "isolate":
			p.Isolate = !p.Isolate
		case "complex":
			p.Complex = !p.Complex
		}
	})

	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID

	if action == "close" {
		_ = h.tg.AnswerCallback(q.ID, "Ajustes salvos", false)
		empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
		return h.tg.EditTextWithKeyboard(chatID, msgID, menuText(p), empty)
	}
	_ = h.tg.AnswerCallback(q.ID, "OK", false)

	text := menuText(p)
	kb := menuKeyboard(ownerID, p, menu)
	if err := h.tg.EditTextWithKeyboard(chatID, msgID, text, kb); err != nil {
		h.logger.Debug("menu edit failed, sending new", zap.Error(err))
		_, err = h.tg.SendTextWithKeyboard(chatID, text, kb)
		return err
	}
	return nil
}

func parseCallback(data string) (ownerID int64, action, arg string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(data), ":", 4)
	if len(parts) < 3 || parts[0] != menuCallbackPrefix {
		return 0, "", "", false
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, "", "", false
	}
	if len(parts) == 4 {
		arg = parts[3]
	}
	return ownerID, parts[2], arg, true
}

func menuText(p session.Profile) string {
	style := "Automático"
	if p.Style != "" {
		style = optionName(campaign.Styles(), p.Style)
	}
	strategy := optionName(campaign.Strategies(), campaign.ResolveStrategy(p.Strategy))
	aspect := optionName(campaign.Aspects(), string(campaign.ParseAspect(p.Aspect)))

	brand := p.BrandColor
	if brand == "" {
		brand = "(nenhuma)"
	}

	var b strings.Builder
	b.WriteString("⚙️ Ajustes da campanha\n\n")
	fmt.Fprintf(&b, "Estilo: %s\n", style)
	fmt.Fprintf(&b, "Estratégia: %s\n", strategy)
	fmt.Fprintf(&b, "Formato: %s\n", aspect)
	fmt.Fprintf(&b, "Cor da marca: %s\n", brand)
	fmt.Fprintf(&b, "Isolar produto: %s\n", yesNo(p.Isolate))
	fmt.Fprintf(&b, "Calendário e roteiros: %s\n", yesNo(p.Complex))
	return strings.TrimSpace(b.String())
}

func menuKeyboard(ownerID int64, p session.Profile, menu string) tgbotapi.InlineKeyboardMarkup {
	switch menu {
	case menuStyle:
		return optionsKeyboard(ownerID, "style", campaign.Styles(), p.Style)
	case menuStrategy:
		return optionsKeyboard(ownerID, "strategy", campaign.Strategies(), campaign.ResolveStrategy(p.Strategy))
	case menuAspect:
		return optionsKeyboard(ownerID, "aspect", campaign.Aspects(), string(campaign.ParseAspect(p.Aspect)))
	default:
		return mainKeyboard(ownerID, p)
	}
}

func mainKeyboard(ownerID int64, p session.Profile) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Estilo", cb(ownerID, "menu", menuStyle)),
			tgbotapi.NewInlineKeyboardButtonData("Estratégia", cb(ownerID, "menu", menuStrategy)),
			tgbotapi.NewInlineKeyboardButtonData("Formato", cb(ownerID, "menu", menuAspect)),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Isolar: "+onOff(p.Isolate), cb(ownerID, "isolate")),
			tgbotapi.NewInlineKeyboardButtonData("Completa: "+onOff(p.Complex), cb(ownerID, "complex")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Fechar", cb(ownerID, "close")),
		},
	)
}

// optionsKeyboard lays options out two per row and ends with a back button.
func optionsKeyboard(ownerID int64, action string, opts []campaign.NamedOption, current string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, o := range opts {
		label := o.Name
		if o.Key == current {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, action, o.Key)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅ Voltar", cb(ownerID, "menu", menuMain)),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cb(ownerID int64, parts ...string) string {
	return menuCallbackPrefix + ":" + strconv.FormatInt(ownerID, 10) + ":" + strings.Join(parts, ":")
}

func yesNo(v bool) string {
	if v {
		return "sim"
	}
	return "não"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
