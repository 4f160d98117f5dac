// Package bot handles incoming updates: private commands, reaction
// taps and the operator panel.
package bot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kjlabs/bacbot/internal/loop"
	"github.com/kjlabs/bacbot/internal/monitor"
	"github.com/kjlabs/bacbot/internal/outcome"
	"github.com/kjlabs/bacbot/internal/picker"
	"github.com/kjlabs/bacbot/internal/reactions"
	"github.com/kjlabs/bacbot/internal/render"
	"github.com/kjlabs/bacbot/internal/score"
)

const logTailLines = 15

// API is the bot client slice the handler needs.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler routes incoming updates.
type Handler struct {
	api           API
	loop          *loop.Loop
	feed          *outcome.Feed
	picker        *picker.Picker
	score         *score.Counters
	monitor       *monitor.Monitor
	tracker       *reactions.Tracker
	channelHandle string
	logPath       string
	startedAt     time.Time
	restart       chan<- struct{}
	logger        zerolog.Logger
}

// NewHandler wires a Handler. Writes to restart request a bot bounce
// from the operator panel.
func NewHandler(api API, lp *loop.Loop, feed *outcome.Feed, pk *picker.Picker, sc *score.Counters, mon *monitor.Monitor, tracker *reactions.Tracker, channelHandle, logPath string, restart chan<- struct{}) *Handler {
	return &Handler{
		api:           api,
		loop:          lp,
		feed:          feed,
		picker:        pk,
		score:         sc,
		monitor:       mon,
		tracker:       tracker,
		channelHandle: channelHandle,
		logPath:       logPath,
		startedAt:     time.Now(),
		restart:       restart,
		logger:        log.With().Str("component", "handler").Logger(),
	}
}

// Handle dispatches one update.
func (h *Handler) Handle(ctx context.Context, update tgbotapi.Update) {
	h.monitor.RegisterActivity()

	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		h.handleCommand(ctx, update.Message)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	h.logger.Info().
		Str("command", msg.Command()).
		Int64("chat_id", msg.Chat.ID).
		Msg("Command received")

	switch msg.Command() {
	case "start":
		h.cmdStart(ctx, msg)
	case "status":
		// First /status from a private chat enrolls the user as an
		// operator for the admin panel.
		if msg.Chat.Type == "private" && msg.From != nil {
			h.monitor.RegisterAdmin(msg.From.ID)
		}
		h.reply(msg.Chat.ID, render.Status(h.monitor.Active(), h.score.Snapshot(), time.Since(h.startedAt)))
	case "help":
		h.reply(msg.Chat.ID, render.Help())
	case "test":
		h.reply(msg.Chat.ID, "✅ Bot operando! 🎲")
	case "palpite":
		h.cmdPalpite(ctx, msg.Chat.ID)
	case "reactions":
		h.cmdReactions(msg.Chat.ID)
	case "monitor", "status24":
		h.cmdMonitor(msg)
	default:
		h.reply(msg.Chat.ID, "Comando desconhecido. Use /help")
	}
}

// cmdStart greets the user and registers the first private chat as
// the delivery fallback. A one-shot prediction follows shortly after.
func (h *Handler) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.Type == "private" {
		h.loop.SetFallbackUser(msg.Chat.ID)
	}
	name := ""
	if msg.From != nil {
		name = msg.From.FirstName
	}
	h.reply(msg.Chat.ID, render.Welcome(name, h.channelHandle))

	go func() {
		time.Sleep(2 * time.Second)
		h.cmdPalpite(ctx, msg.Chat.ID)
	}()
}

// cmdPalpite stages a short suspense animation and edits in the pick.
func (h *Handler) cmdPalpite(ctx context.Context, chatID int64) {
	sent, err := h.api.Send(tgbotapi.NewMessage(chatID, "🎲 Analisando as mesas..."))
	if err != nil {
		h.logger.Error().Err(err).Msg("Palpite teaser failed")
		return
	}

	stages := []string{
		"🎲 Analisando as mesas... 🔍",
		"🎲 Lendo os últimos resultados... 📊",
	}
	for _, stage := range stages {
		time.Sleep(800 * time.Millisecond)
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, stage)
		if _, err := h.api.Send(edit); err != nil {
			h.logger.Warn().Err(err).Msg("Palpite stage edit failed")
		}
	}

	h.feed.Current(ctx)
	label := h.picker.Pick(h.feed.History(), time.Now())
	text := render.Prediction(label, render.StrategyCombination, h.picker.Defensive(), h.score.Snapshot(), time.Now())

	time.Sleep(800 * time.Millisecond)
	final := tgbotapi.NewEditMessageText(chatID, sent.MessageID, text)
	if _, err := h.api.Send(final); err != nil {
		h.logger.Error().Err(err).Msg("Palpite final edit failed")
	}
}

func (h *Handler) cmdReactions(chatID int64) {
	grand := h.tracker.GrandTotals()
	totals := make(map[string]int, len(grand))
	order := make([]string, 0, len(reactions.Kinds))
	for _, k := range reactions.Kinds {
		order = append(order, k.Emoji())
		totals[k.Emoji()] = grand[k]
	}
	h.reply(chatID, render.ReactionStats(h.tracker.Tracked(), totals, order))
}

func (h *Handler) cmdMonitor(msg *tgbotapi.Message) {
	if msg.From == nil || !h.monitor.IsAdmin(msg.From.ID) {
		h.reply(msg.Chat.ID, "⛔ Comando restrito.")
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, render.MonitorReport(h.monitor.StatusReport()))
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Reiniciar", "admin_restart"),
			tgbotapi.NewInlineKeyboardButtonData("📄 Logs", "admin_logs"),
		),
	)
	if _, err := h.api.Send(out); err != nil {
		h.logger.Error().Err(err).Msg("Monitor report failed")
	}
}

func (h *Handler) handleCallback(cb *tgbotapi.CallbackQuery) {
	data := cb.Data

	switch {
	case strings.HasPrefix(data, "reaction_"):
		h.handleReaction(cb)
	case data == "admin_restart":
		h.handleAdminRestart(cb)
	case data == "admin_logs":
		h.handleAdminLogs(cb)
	default:
		h.answer(cb.ID, "")
	}
}

func (h *Handler) handleReaction(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answer(cb.ID, "")
		return
	}
	kind := reactions.Kind(strings.TrimPrefix(cb.Data, "reaction_"))
	emoji, count, ok := h.tracker.Record(cb.Message.MessageID, kind)
	if !ok {
		h.answer(cb.ID, "Reação expirada")
		return
	}
	h.answer(cb.ID, fmt.Sprintf("%s %d", emoji, count))

	text, ok := h.tracker.RenderInto(cb.Message.MessageID)
	if !ok {
		return
	}
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	if cb.Message.ReplyMarkup != nil {
		edit.ReplyMarkup = cb.Message.ReplyMarkup
	}
	if _, err := h.api.Send(edit); err != nil {
		h.logger.Warn().Err(err).Msg("Reaction re-render failed")
	}
}

func (h *Handler) handleAdminRestart(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || !h.monitor.IsAdmin(cb.From.ID) {
		h.answer(cb.ID, "⛔ Restrito")
		return
	}
	if !h.monitor.CanRestart() {
		h.answer(cb.ID, "Limite de reinícios atingido")
		return
	}
	h.answer(cb.ID, "Reiniciando...")
	h.logger.Warn().Int64("user_id", cb.From.ID).Msg("Restart requested by admin")
	select {
	case h.restart <- struct{}{}:
	default:
	}
}

// handleAdminLogs posts the log tail inline and attaches the full
// file.
func (h *Handler) handleAdminLogs(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || !h.monitor.IsAdmin(cb.From.ID) {
		h.answer(cb.ID, "⛔ Restrito")
		return
	}
	if cb.Message == nil {
		// Stale panel; nowhere to send the dump.
		h.answer(cb.ID, "Painel expirado, use /monitor novamente")
		return
	}
	h.answer(cb.ID, "Enviando logs...")

	chatID := cb.Message.Chat.ID
	tail, err := tailFile(h.logPath, logTailLines)
	if err != nil {
		h.reply(chatID, "Sem arquivo de log disponível.")
		return
	}
	h.reply(chatID, "📄 Últimas linhas:\n\n"+tail)

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(h.logPath))
	if _, err := h.api.Send(doc); err != nil {
		h.logger.Warn().Err(err).Msg("Log file upload failed")
	}
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Reply failed")
	}
}

func (h *Handler) answer(callbackID, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		h.logger.Warn().Err(err).Msg("Callback answer failed")
	}
}

func tailFile(path string, lines int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	all := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n"), nil
}
