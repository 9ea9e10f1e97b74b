package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"oferta-studio/internal/assets"
	"oferta-studio/internal/campaign"
	"oferta-studio/internal/dataurl"
	"oferta-studio/internal/logging"
	"oferta-studio/internal/mediagroup"
	"oferta-studio/internal/quota"
	"oferta-studio/internal/session"
	"oferta-studio/internal/telegram"
)

// Messenger is the slice of the Telegram client the handler talks to.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTyping(chatID int64)
	SendImage(chatID int64, image, caption string) error
	SendTextWithKeyboard(chatID int64, text string, kb telegram.InlineKeyboard) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb telegram.InlineKeyboard) error
	AnswerCallback(callbackID, text string, alert bool) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

type Studio interface {
	Generate(ctx context.Context, req campaign.Request) campaign.Result
	RegenerateCopy(ctx context.Context, offerText, style string) campaign.Content
}

type PaletteExtractor interface {
	ExtractBytes(ctx context.Context, data []byte) []string
}

type Options struct {
	Telegram  Messenger
	Studio    Studio
	Palette   PaletteExtractor
	Sessions  *session.Store
	Quota     *quota.Limiter
	Publisher *assets.Publisher
	Logger    *zap.Logger
}

type Handler struct {
	tg         Messenger
	studio     Studio
	palette    PaletteExtractor
	sessions   *session.Store
	quota      *quota.Limiter
	publisher  *assets.Publisher
	logger     *zap.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.Options{})
	}
	limiter := opts.Quota
	if limiter == nil {
		limiter = quota.New(quota.Options{})
	}

	return &Handler{
		tg:        opts.Telegram,
		studio:    opts.Studio,
		palette:   opts.Palette,
		sessions:  sessions,
		quota:     limiter,
		publisher: opts.Publisher,
		logger:    logging.OrNop(opts.Logger).Named("handlers"),
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID
	username := msg.From.UserName

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, username, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, userID, username, msg)
	}

	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return h.handleImageFile(ctx, chatID, userID, username, msg.Caption, msg.Document.FileID)
	}

	if msg.Text != "" {
		return h.handleText(ctx, chatID, userID, username, msg.Text)
	}

	return nil
}

// HandleAlbum remixes the first photo of an album, using the caption as the
// offer text.
func (h *Handler) HandleAlbum(ctx context.Context, group mediagroup.Group) {
	if len(group.FileIDs) == 0 {
		return
	}
	if err := h.handleImageFile(ctx, group.ChatID, group.UserID, group.Username, group.Caption, group.FileIDs[0]); err != nil {
		h.logger.Error("album processing failed", zap.Error(err))
	}
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, userID int64, username string, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help", "ajuda":
		return h.tg.SendText(chatID, helpText)
	case "logo":
		h.sessions.Update(userID, username, func(p *session.Profile) { p.AwaitingLogo = true })
		return h.tg.SendText(chatID, "🖼 Envie o logo da sua marca. Como arquivo (PNG) a transparência é preservada.")
	case "cor":
		return h.setColor(chatID, userID, username, args)
	case "estilo":
		if args == "" {
			return h.openMenu(chatID, userID, username, menuStyle)
		}
		p := h.sessions.Update(userID, username, func(p *session.Profile) { p.Style = campaign.ResolveStyle(args) })
		return h.tg.SendText(chatID, "✅ Estilo: "+optionName(campaign.Styles(), p.Style))
	case "estrategia":
		if args == "" {
			return h.openMenu(chatID, userID, username, menuStrategy)
		}
		p := h.sessions.Update(userID, username, func(p *session.Profile) { p.Strategy = campaign.ResolveStrategy(args) })
		return h.tg.SendText(chatID, "✅ Estratégia: "+optionName(campaign.Strategies(), p.Strategy))
	case "formato":
		if args == "" {
			return h.openMenu(chatID, userID, username, menuAspect)
		}
		p := h.sessions.Update(userID, username, func(p *session.Profile) { p.Aspect = string(campaign.ParseAspect(args)) })
		return h.tg.SendText(chatID, "✅ Formato: "+optionName(campaign.Aspects(), p.Aspect))
	case "ajustes":
		return h.openMenu(chatID, userID, username, menuMain)
	case "campanha", "completa":
		offer, highlight := parseOffer(args)
		if offer == "" {
			return h.tg.SendText(chatID, "❌ Descreva a oferta.\nExemplo: /campanha Pizza grande por R$39,90 | Só hoje")
		}
		p := h.sessions.Get(userID, username)
		req := requestFromProfile(p, offer, highlight)
		req.Complex = req.Complex || msg.Command() == "completa" || wantsComplex(args)
		return h.runCampaign(ctx, chatID, userID, username, req)
	case "remix":
		return h.remixReply(ctx, chatID, userID, username, msg, args)
	case "copy":
		if args == "" {
			return h.tg.SendText(chatID, "❌ Exemplo: /copy Tênis de corrida com 30% off")
		}
		h.tg.SendTyping(chatID)
		p := h.sessions.Get(userID, username)
		content := h.studio.RegenerateCopy(ctx, args, p.Style)
		return h.tg.SendText(chatID, formatCaption(content))
	case "plano":
		p := h.sessions.Get(userID, username)
		usage, _ := h.quota.Check(userKey(userID), p.Pro)
		return h.tg.SendText(chatID, formatUsage(usage))
	case "limpar":
		h.sessions.Clear(userID)
		return h.tg.SendText(chatID, "✅ Perfil da marca apagado.")
	default:
		return h.tg.SendText(chatID, "❌ Comando desconhecido. Use /help.")
	}
}

func (h *Handler) handleText(ctx context.Context, chatID int64, userID int64, username string, text string) error {
	offer, highlight := parseOffer(text)
	if offer == "" {
		return nil
	}

	p := h.sessions.Get(userID, username)
	req := requestFromProfile(p, offer, highlight)
	req.Complex = req.Complex || wantsComplex(text)
	return h.runCampaign(ctx, chatID, userID, username, req)
}

func (h *Handler) handlePhoto(ctx context.Context, chatID int64, userID int64, username string, msg *tgbotapi.Message) error {
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	if msg.MediaGroupID != "" && h.aggregator != nil {
		if !h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     username,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
		}) {
			h.logger.Debug("album item dropped", zap.String("media_group_id", msg.MediaGroupID))
		}
		return nil
	}

	return h.handleImageFile(ctx, chatID, userID, username, msg.Caption, fileID)
}

// handleImageFile treats an uncaptioned image, or any image after /logo, as
// the brand logo. A captioned image is remixed into a campaign.
func (h *Handler) handleImageFile(ctx context.Context, chatID int64, userID int64, username, caption, fileID string) error {
	p := h.sessions.Get(userID, username)
	caption = strings.TrimSpace(caption)

	if p.AwaitingLogo || caption == "" {
		return h.extractLogo(ctx, chatID, userID, username, fileID)
	}

	ref, err := h.download(ctx, fileID)
	if err != nil {
		h.logger.Error("photo download failed", zap.Error(err))
		return h.tg.SendText(chatID, "❌ Não consegui baixar a imagem.")
	}

	offer, highlight := parseOffer(caption)
	req := requestFromProfile(p, offer, highlight)
	req.ReferenceImage = ref
	req.Complex = req.Complex || wantsComplex(caption)
	return h.runCampaign(ctx, chatID, userID, username, req)
}

func (h *Handler) remixReply(ctx context.Context, chatID int64, userID int64, username string, msg *tgbotapi.Message, args string) error {
	reply := msg.ReplyToMessage
	if reply == nil || len(reply.Photo) == 0 {
		return h.tg.SendText(chatID, "🔁 Responda a uma imagem com /remix <oferta>, ou envie a foto com a oferta na legenda.")
	}

	offer, highlight := parseOffer(args)
	if offer == "" {
		offer, highlight = parseOffer(reply.Caption)
	}
	if offer == "" {
		return h.tg.SendText(chatID, "❌ Descreva a oferta: /remix Pizza grande por R$39,90")
	}

	ref, err := h.download(ctx, reply.Photo[len(reply.Photo)-1].FileID)
	if err != nil {
		h.logger.Error("remix download failed", zap.Error(err))
		return h.tg.SendText(chatID, "❌ Não consegui baixar a imagem.")
	}

	req := requestFromProfile(h.sessions.Get(userID, username), offer, highlight)
	req.ReferenceImage = ref
	return h.runCampaign(ctx, chatID, userID, username, req)
}

func (h *Handler) extractLogo(ctx context.Context, chatID int64, userID int64, username, fileID string) error {
	if h.palette == nil {
		return h.tg.SendText(chatID, "❌ Extração de cores indisponível.")
	}
	h.tg.SendTyping(chatID)

	data, _, err := h.tg.DownloadFile(ctx, fileID)
	if err != nil {
		h.logger.Error("logo download failed", zap.Error(err))
		return h.tg.SendText(chatID, "❌ Não consegui baixar o logo.")
	}

	colors := h.palette.ExtractBytes(ctx, data)
	p := h.sessions.SetPalette(userID, username, colors)
	h.logger.Info("palette extracted", zap.Int64("user_id", userID), zap.Strings("palette", colors))

	return h.tg.SendText(chatID, formatPalette(p.Palette, p.BrandColor))
}

func (h *Handler) setColor(chatID int64, userID int64, username, args string) error {
	p := h.sessions.Get(userID, username)
	if args == "" {
		return h.tg.SendText(chatID, formatPalette(p.Palette, p.BrandColor)+"\n\nUse /cor #ff0000 ou /cor 2 para escolher da paleta.")
	}

	color, ok := parseColorArg(args, p.Palette)
	if !ok {
		return h.tg.SendText(chatID, "❌ Cor inválida. Use hex (#ff0000) ou o número da paleta.")
	}
	h.sessions.Update(userID, username, func(p *session.Profile) { p.BrandColor = color })
	return h.tg.SendText(chatID, "✅ Cor da marca: "+color)
}

func (h *Handler) download(ctx context.Context, fileID string) (string, error) {
	data, mimeType, err := h.tg.DownloadFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	return dataurl.Encode(mimeType, data), nil
}

// runCampaign enforces the plan quota, runs the generation and drops results
// superseded by a newer generation or a profile reset.
func (h *Handler) runCampaign(ctx context.Context, chatID int64, userID int64, username string, req campaign.Request) error {
	usage, release, err := h.quota.Reserve(userKey(userID), req.Pro)
	if err != nil {
		return h.tg.SendText(chatID, fmt.Sprintf(
			"⛔ Você usou as %d campanhas gratuitas de hoje. Volte amanhã ou assine o plano Pro.", usage.Limit))
	}
	committed := false
	defer func() { release(committed) }()

	gen := h.sessions.BeginGeneration(userID, username)
	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "⏳ Criando sua campanha, isso leva até um minuto...")

	res := h.studio.Generate(ctx, req)

	if !h.sessions.IsCurrent(userID, gen) {
		h.logger.Info("dropping stale campaign", zap.Int64("user_id", userID), zap.String("id", res.ID))
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if res.Status == campaign.StatusFailed {
		h.logger.Warn("campaign failed", zap.String("id", res.ID), zap.String("err", res.Err))
		return h.tg.SendText(chatID, "❌ Não consegui gerar a campanha agora. Tente novamente em instantes.")
	}

	committed = true
	h.publisher.Publish(ctx, &res)
	return h.sendResult(chatID, res, req.Complex)
}

func (h *Handler) sendResult(chatID int64, res campaign.Result, full bool) error {
	caption := formatCaption(res.Content)
	sent := 0
	for i, img := range res.Images {
		c := ""
		if sent == 0 {
			c = caption
		}
		if err := h.tg.SendImage(chatID, img, c); err != nil {
			h.logger.Warn("image send failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		sent++
	}

	report := formatReport(res, full)
	if sent == 0 {
		report = caption + "\n\n" + report
	}
	return h.tg.SendText(chatID, report)
}

func requestFromProfile(p session.Profile, offer, highlight string) campaign.Request {
	return campaign.Request{
		OfferText:      offer,
		HighlightText:  highlight,
		Aspect:         campaign.ParseAspect(p.Aspect),
		Pro:            p.Pro,
		Style:          p.Style,
		Strategy:       p.Strategy,
		BrandColor:     p.BrandColor,
		IsolateProduct: p.Isolate,
		Complex:        p.Complex,
	}
}

const helpText = "🛍 Oferta Studio\n\n" +
	"Envie o texto da sua oferta e eu crio imagens, textos e um post pronto.\n" +
	"Use \"oferta | destaque\" para escolher a frase de destaque.\n\n" +
	"Comandos:\n" +
	"/logo - enviar o logo e extrair as cores da marca\n" +
	"/cor - ver ou escolher a cor da marca\n" +
	"/estilo - estilo visual\n" +
	"/estrategia - estratégia de venda\n" +
	"/formato - quadrado, retrato ou paisagem\n" +
	"/ajustes - todas as opções\n" +
	"/campanha <oferta> - criar campanha\n" +
	"/completa <oferta> - campanha com calendário e roteiros\n" +
	"/remix <oferta> - responda a uma imagem para recriá-la\n" +
	"/copy <oferta> - só os textos\n" +
	"/plano - seu uso de hoje\n" +
	"/limpar - apagar o perfil da marca"
