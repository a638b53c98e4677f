package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/shopping"
)

const (
	checkAction = "check"
	// maxCallbackData is Telegram's limit for inline button payloads.
	maxCallbackData = 64
)

var tokenNamespace = uuid.MustParse("0f6c2d8e-3b1a-4c57-a9e4-7d2b5f8e1c90")

// Sender is the part of the Telegram API the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot is the Telegram front end of the shopping list. It acts as a second
// device: checks made here go through the remote store.
type Bot struct {
	api    Sender
	app    *app.App
	cfg    *config.Config
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("response", resp.Description))

	return newBot(api, a, cfg, logger), nil
}

func newBot(api Sender, a *app.App, cfg *config.Config, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{api: api, app: a, cfg: cfg, logger: logger}
}

// RegisterHandlers registers the webhook handler.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook", b.handleWebhook)
}

// Wait blocks until every update being processed is done.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	var from *tgbotapi.User
	switch {
	case update.CallbackQuery != nil:
		from = update.CallbackQuery.From
	case update.Message != nil:
		from = update.Message.From
	default:
		return
	}
	if from == nil || !b.allowed(from.ID) {
		if from != nil {
			b.logger.Warn("unauthorized access attempt",
				zap.Int64("user_id", from.ID),
				zap.String("username", from.UserName))
		}
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if update.CallbackQuery != nil {
			b.handleCallbackQuery(ctx, update.CallbackQuery)
			return
		}
		b.processMessage(ctx, update.Message)
	}()
}

func (b *Bot) allowed(id int64) bool {
	if id == b.cfg.AdminTelegramID && id != 0 {
		return true
	}
	for _, allowed := range b.cfg.TelegramAllowedUserIDs {
		if id == allowed {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	command, args, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")

	switch {
	case command == "/list":
		b.sendList(msg.Chat.ID)
	case command == "/add":
		b.handleAdd(msg.Chat.ID, args)
	case command == "/metrics":
		b.handleMetricsRequest(ctx, msg)
	case strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://"):
		b.handleImport(ctx, msg.Chat.ID, text)
	default:
		b.send(msg.Chat.ID, helpText)
	}
}

const helpText = "🛒 *Shopping list bot*\n\n" +
	"/list - show the shopping list\n" +
	"/add 2 litres milk - add an item\n" +
	"Send a recipe link to add it as a meal."

func (b *Bot) handleAdd(chatID int64, args string) {
	name, quantity := shopping.ParseIngredient(args)
	item, err := b.app.AddItem(shopping.NewItem{Name: name, Quantity: quantity})
	if err != nil {
		b.send(chatID, "❌ Tell me what to add, e.g. `/add 2 litres milk`")
		return
	}
	b.send(chatID, fmt.Sprintf("✅ Added *%s*", escape(item.Name)))
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, url string) {
	meal, err := b.app.ImportRecipe(ctx, url)
	if err != nil {
		b.logger.Warn("recipe import from telegram failed", zap.Error(err))
		b.send(chatID, "❌ I can't import that link.")
		return
	}
	if len(meal.Ingredients) == 0 {
		b.send(chatID, fmt.Sprintf("📖 Added *%s*, but I couldn't read its ingredients. Add them manually.", escape(meal.Title)))
		return
	}
	b.send(chatID, fmt.Sprintf("📖 Added *%s* with %d ingredients. Give it a day to put them on the list.", escape(meal.Title), len(meal.Ingredients)))
}

func (b *Bot) sendList(chatID int64) {
	text, keyboard := formatList(b.app.ShoppingList().Items)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send list", zap.Error(err))
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	action, token, ok := strings.Cut(query.Data, "|")
	if !ok || action != checkAction {
		return
	}

	answer := "✅ Checked off"
	items := b.app.ShoppingList().Items
	id, found := resolveToken(items, token)
	if !found {
		answer = "Already gone"
	} else if err := b.app.CheckItemRemote(ctx, id); err != nil {
		b.logger.Warn("check from telegram failed", zap.String("item_id", id), zap.Error(err))
		answer = "❌ Couldn't check that off"
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, answer)); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}

	if query.Message == nil {
		return
	}
	text, keyboard := formatList(b.app.ShoppingList().Items)
	var edit tgbotapi.EditMessageTextConfig
	if keyboard != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(query.Message.Chat.ID, query.Message.MessageID, text, *keyboard)
	} else {
		edit = tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	}
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("failed to refresh list", zap.Error(err))
	}
}

// formatList renders items grouped by store, in the order SortItems gives,
// with one check button per item.
func formatList(items []shopping.ShoppingItem) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(items) == 0 {
		return "🛒 *Shopping List*\n\n_Nothing to buy_ 🎉", nil
	}
	shopping.SortItems(items)

	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	store := ""
	for i, item := range items {
		if i == 0 || item.Store != store {
			store = item.Store
			sb.WriteString(fmt.Sprintf("\n*%s*\n", escape(store)))
		}
		sb.WriteString("• " + escape(item.Name))
		if item.Quantity != "" {
			sb.WriteString(" (" + escape(item.Quantity) + ")")
		}
		if item.IsDerived() && item.Meal != "" {
			sb.WriteString(" _" + escape(item.Meal) + "_")
		}
		sb.WriteString("\n")

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+item.Name, checkAction+"|"+itemToken(item.ID)),
		))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return sb.String(), &keyboard
}

// itemToken shortens ids that would not fit into a button payload.
func itemToken(id string) string {
	if len(checkAction)+1+len(id) <= maxCallbackData {
		return id
	}
	return uuid.NewSHA1(tokenNamespace, []byte(id)).String()
}

func resolveToken(items []shopping.ShoppingItem, token string) (string, bool) {
	for _, item := range items {
		if item.ID == token || itemToken(item.ID) == token {
			return item.ID, true
		}
	}
	return "", false
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID || b.cfg.AdminTelegramID == 0 {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.app.Usage(ctx, 7)
	if err != nil {
		b.logger.Error("failed to fetch metrics", zap.Error(err))
		b.send(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	health := b.app.Health()

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")
	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	for path, size := range health.DiskUsage {
		sb.WriteString(fmt.Sprintf("• Disk %s: %s\n", escape(path), size))
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
