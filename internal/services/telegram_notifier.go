package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskhub/internal/models"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier tells assignees about their tasks. Only identities with a
// configured chat id are notified.
type TelegramNotifier struct {
	bot     messageSender
	chatIDs map[string]int64
}

func NewTelegramNotifier(botToken string, chatIDs map[string]int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log.Printf("[tg] authorized as @%s, %d chat(s) configured", bot.Self.UserName, len(chatIDs))
	return newTelegramNotifier(bot, chatIDs), nil
}

// config keys arrive lowercased, so lookups are case-insensitive
func newTelegramNotifier(bot messageSender, chatIDs map[string]int64) *TelegramNotifier {
	ids := make(map[string]int64, len(chatIDs))
	for k, v := range chatIDs {
		ids[strings.ToLower(k)] = v
	}
	return &TelegramNotifier{bot: bot, chatIDs: ids}
}

// NotifyAssignee is a no-op on a nil notifier.
func (n *TelegramNotifier) NotifyAssignee(ctx context.Context, prefix string, t *models.Task) {
	if n == nil || t == nil || t.AssignedTo == "" {
		return
	}
	chatID, ok := n.chatIDs[strings.ToLower(t.AssignedTo)]
	if !ok || chatID == 0 {
		log.Printf("[tg][skip] no chat for assignee=%s", t.AssignedTo)
		return
	}
	if ctx.Err() != nil {
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatTask(prefix, t))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("[tg][send][err] chatID=%d task=%s: %v", chatID, t.ID, err)
		return
	}
	log.Printf("[tg][send][ok] chatID=%d task=%s", chatID, t.ID)
}

func formatTask(prefix string, t *models.Task) string {
	due := "—"
	if t.DueDate != "" {
		due = t.DueDate
	}
	return prefix + "\n" +
		"• <b>" + html.EscapeString(t.Title) + "</b>\n" +
		"• Status: <code>" + string(t.Status) + "</code>\n" +
		"• Priority: <code>" + string(t.Priority) + "</code>\n" +
		"• Due: <code>" + due + "</code>"
}
