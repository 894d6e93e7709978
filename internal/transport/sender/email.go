package sender

import (
	"context"
	"fmt"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/logger"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers notifications straight over SMTP.
type EmailSender struct {
	dialer mailDialer
	from   string
	domain string
	log    logger.Logger
}

func NewEmailSender(smtpHost string, smtpPort int, username, password, from string, log logger.Logger) *EmailSender {
	dialer := gomail.NewDialer(smtpHost, smtpPort, username, password)

	log.LogAttrs(context.Background(), logger.InfoLevel, "email sender initialized",
		logger.String("smtp_host", smtpHost),
		logger.Int("smtp_port", smtpPort),
		logger.String("from", from),
	)

	return &EmailSender{
		dialer: dialer,
		from:   from,
		domain: smtpHost,
		log:    log,
	}
}

// Publish returns the Message-ID header it stamped on the mail.
func (s *EmailSender) Publish(ctx context.Context, msg entity.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain)

	email := gomail.NewMessage()
	email.SetHeader("From", s.from)
	email.SetHeader("To", msg.Recipient)
	email.SetHeader("Subject", msg.Subject)
	email.SetHeader("Message-ID", messageID)
	email.SetBody("text/plain", msg.Body)

	s.log.LogAttrs(ctx, logger.DebugLevel, "sending email",
		logger.String("to", msg.Recipient),
		logger.String("notification_id", msg.NotificationID.String()),
	)

	if err := s.dialer.DialAndSend(email); err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}

	s.log.LogAttrs(ctx, logger.InfoLevel, "email sent",
		logger.String("to", msg.Recipient),
		logger.String("notification_id", msg.NotificationID.String()),
		logger.String("message_id", messageID),
	)

	return messageID, nil
}
