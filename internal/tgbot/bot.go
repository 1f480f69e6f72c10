package tgbot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/anonticket/anonticket/internal/config"
	"github.com/anonticket/anonticket/internal/database"
)

// Bot tells the moderators' chat about new pending submissions and answers
// /pending with the current queue sizes.
type Bot struct {
	bot    *tgbotapi.BotAPI
	log    *zap.Logger
	db     *database.DataBase
	chatID int64
}

func NewBot(conf *config.Config, log *zap.Logger, db *database.DataBase) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(conf.Telegram.BotToken)
	if err != nil {
		return nil, err
	}
	return &Bot{bot, log, db, conf.Telegram.ChatID}, nil
}

func (b *Bot) Run(ctx context.Context) {
	b.log.Info("Authorized telegram bot", zap.String("username", b.bot.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if err := b.handleUpdate(update); err != nil {
				b.log.Error("Failed to handle update", zap.Error(err), zap.Int("update_id", update.UpdateID))
			}
		case <-ctx.Done():
			return
		}
	}
}

// NotifySubmission is called by the web layer whenever a submitter creates a
// pending record. Failures are logged and swallowed; moderation must not
// depend on telegram being up.
func (b *Bot) NotifySubmission(kind, title string) {
	if b.chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("New pending %s: %s", kind, title))
	if _, err := b.bot.Send(msg); err != nil {
		b.log.Error("Failed to send submission notification", zap.Error(err))
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) error {
	if update.Message == nil || !update.Message.IsCommand() {
		return nil
	}
	b.log.Info("Got command",
		zap.String("user", update.Message.From.UserName),
		zap.String("command", update.Message.Command()),
	)

	if update.Message.Command() != "pending" {
		return nil
	}

	text := ""
	counts, err := b.db.CountPending()
	if err != nil {
		b.log.Error("Failed to count pending records", zap.Error(err))
		text = "Failed to count pending records, try again later"
	} else {
		text = fmt.Sprintf("Pending review: %d issues, %d notes, %d account requests",
			counts.Issues, counts.Notes, counts.AccountRequests)
	}

	msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
	msg.ReplyToMessageID = update.Message.MessageID

	_, err = b.bot.Send(msg)
	return err
}
