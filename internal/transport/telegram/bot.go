// Package telegram связывает диалог с Telegram Bot API через long polling.
package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/cloud-ru/loan-calculator-bot/internal/conversation"
	"github.com/cloud-ru/loan-calculator-bot/internal/metrics"
	"github.com/cloud-ru/loan-calculator-bot/internal/render"
)

// API - часть клиента Bot API, используемая ботом
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler обрабатывает события диалога
type Handler interface {
	Handle(ctx context.Context, ev conversation.Event) ([]conversation.Reply, error)
}

// Bot переводит обновления Telegram в события диалога и отправляет ответы
type Bot struct {
	api     API
	handler Handler
	logger  *zap.Logger
}

// NewBot создает бота
func NewBot(api API, handler Handler, logger *zap.Logger) *Bot {
	return &Bot{api: api, handler: handler, logger: logger}
}

// Run обрабатывает обновления, пока не закроется канал или не отменится ctx
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate обрабатывает одно обновление. Ошибки логируются, бот продолжает работу.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, messageID, ok := toEvent(update)
	if !ok {
		return
	}

	if cq := update.CallbackQuery; cq != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.logger.Warn("failed to answer callback", zap.Int64("chat_id", ev.ChatID), zap.Error(err))
		}
	}

	replies, err := b.handler.Handle(ctx, ev)
	if err != nil {
		b.logger.Error("failed to handle event",
			zap.Int64("chat_id", ev.ChatID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err),
		)
		replies = []conversation.Reply{{Text: render.InternalError}}
	}

	for _, reply := range replies {
		b.send(ev.ChatID, messageID, reply)
	}
}

func (b *Bot) send(chatID int64, messageID int, reply conversation.Reply) {
	_, err := b.api.Send(toChattable(chatID, messageID, reply))
	if err != nil {
		if notModified(err) {
			b.logger.Debug("message not modified", zap.Int64("chat_id", chatID))
			return
		}
		metrics.MessagesSent.WithLabelValues("telegram", "error").Inc()
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	metrics.MessagesSent.WithLabelValues("telegram", "ok").Inc()
}

// notModified сообщает об отказе Bot API редактировать сообщение тем же текстом
func notModified(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "message is not modified")
}

func toEvent(update tgbotapi.Update) (conversation.Event, int, bool) {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		msg := update.Message
		ev := conversation.Event{ChatID: msg.Chat.ID, UserName: userName(msg.From)}
		if msg.IsCommand() {
			ev.Kind = conversation.EventCommand
			ev.Text = msg.Command()
		} else if msg.Text != "" {
			ev.Kind = conversation.EventText
			ev.Text = msg.Text
		} else {
			return conversation.Event{}, 0, false
		}
		return ev, 0, true

	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		cq := update.CallbackQuery
		return conversation.Event{
			ChatID:   cq.Message.Chat.ID,
			Kind:     conversation.EventCallback,
			Text:     cq.Data,
			UserName: userName(cq.From),
		}, cq.Message.MessageID, true
	}
	return conversation.Event{}, 0, false
}

func toChattable(chatID int64, messageID int, reply conversation.Reply) tgbotapi.Chattable {
	if reply.Edit && messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
		edit.ParseMode = reply.ParseMode
		if len(reply.Keyboard) > 0 {
			markup := keyboard(reply.Keyboard)
			edit.ReplyMarkup = &markup
		}
		return edit
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = reply.ParseMode
	if len(reply.Keyboard) > 0 {
		msg.ReplyMarkup = keyboard(reply.Keyboard)
	}
	return msg
}

func keyboard(rows [][]conversation.Button) tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))}
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}

func userName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return u.FirstName
}
