package sender

import (
	"context"
	"fmt"
	"html"
	"strconv"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts notifications into one operator chat.
type TelegramSender struct {
	bot    botAPI
	chatID int64
	log    logger.Logger
}

func NewTelegramSender(botToken string, chatID int64, log logger.Logger) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.LogAttrs(context.Background(), logger.InfoLevel, "telegram sender initialized",
		logger.String("bot_username", bot.Self.UserName),
		logger.Int64("chat_id", chatID),
	)

	return &TelegramSender{
		bot:    bot,
		chatID: chatID,
		log:    log,
	}, nil
}

func (s *TelegramSender) Publish(ctx context.Context, msg entity.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out := tgbotapi.NewMessage(s.chatID, formatTelegram(msg))
	out.ParseMode = tgbotapi.ModeHTML

	s.log.LogAttrs(ctx, logger.DebugLevel, "sending telegram message",
		logger.Int64("chat_id", s.chatID),
		logger.String("notification_id", msg.NotificationID.String()),
	)

	sent, err := s.bot.Send(out)
	if err != nil {
		return "", fmt.Errorf("send telegram message: %w", err)
	}

	return strconv.Itoa(sent.MessageID), nil
}

func formatTelegram(msg entity.Message) string {
	return fmt.Sprintf("<b>%s</b>\nTo: %s\n\n%s",
		html.EscapeString(msg.Subject),
		html.EscapeString(msg.Recipient),
		html.EscapeString(msg.Body),
	)
}
