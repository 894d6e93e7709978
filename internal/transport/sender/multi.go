package sender

import (
	"context"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, msg entity.Message) (string, error)
}

// MultiSender delivers through the primary publisher and copies every delivered
// message to the mirrors. Only the primary decides the outcome.
type MultiSender struct {
	primary Publisher
	mirrors []Publisher
	log     logger.Logger
}

func NewMultiSender(log logger.Logger, primary Publisher, mirrors ...Publisher) *MultiSender {
	return &MultiSender{
		primary: primary,
		mirrors: mirrors,
		log:     log,
	}
}

func (s *MultiSender) Publish(ctx context.Context, msg entity.Message) (string, error) {
	messageID, err := s.primary.Publish(ctx, msg)
	if err != nil {
		return "", err
	}

	for i, mirror := range s.mirrors {
		if _, mirrorErr := mirror.Publish(ctx, msg); mirrorErr != nil {
			s.log.LogAttrs(ctx, logger.WarnLevel, "mirror publish failed",
				logger.Int("mirror", i),
				logger.String("notification_id", msg.NotificationID.String()),
				logger.Any("error", mirrorErr),
			)
		}
	}

	return messageID, nil
}
