package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	_defaultConfirmTimeout = 5 * time.Second
	_defaultConnectTimeout = 30 * time.Second
	_contentTypeJSON       = "application/json"
)

type AMQPConfig struct {
	URL            string
	ConnectionName string
	Exchange       string
	ExchangeType   string
	RoutingKey     string
	ConnectTimeout time.Duration
	Heartbeat      time.Duration
	ConfirmTimeout time.Duration
}

// envelope mirrors a fan-out topic message: subscribers pick the body for their protocol
// and route on the recipient attribute.
type envelope struct {
	NotificationID string            `json:"notification_id"`
	Subject        string            `json:"subject"`
	RecipientEmail string            `json:"recipient_email"`
	Message        map[string]string `json:"message"`
}

// confirmation is the broker's answer to one publishing.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// session is one broker connection with a channel in confirm mode.
type session interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Closed() <-chan *amqp.Error
	Close() error
}

type dialFunc func(cfg AMQPConfig) (session, error)

// AMQPPublisher publishes notifications to an exchange and waits for the broker confirm.
type AMQPPublisher struct {
	cfg  AMQPConfig
	log  logger.Logger
	dial dialFunc

	mu   sync.Mutex
	sess session
}

func NewAMQPPublisher(cfg AMQPConfig, log logger.Logger) (*AMQPPublisher, error) {
	return newAMQPPublisher(cfg, log, dialBroker)
}

func newAMQPPublisher(cfg AMQPConfig, log logger.Logger, dial dialFunc) (*AMQPPublisher, error) {
	if cfg.ExchangeType == "" {
		cfg.ExchangeType = amqp.ExchangeTopic
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = _defaultConfirmTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = _defaultConnectTimeout
	}

	sess, err := dial(cfg)
	if err != nil {
		return nil, fmt.Errorf("sender.NewAMQPPublisher: %w", err)
	}

	log.LogAttrs(context.Background(), logger.InfoLevel, "amqp publisher initialized",
		logger.String("exchange", cfg.Exchange),
		logger.String("routing_key", cfg.RoutingKey),
	)

	return &AMQPPublisher{cfg: cfg, log: log, dial: dial, sess: sess}, nil
}

// liveSession returns a live session, reconnecting once if the broker closed the previous one.
func (p *AMQPPublisher) liveSession() (session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case amqpErr := <-p.sess.Closed():
		p.log.LogAttrs(context.Background(), logger.WarnLevel, "amqp channel closed, reconnecting",
			logger.Any("reason", amqpErr),
		)
		_ = p.sess.Close()

		sess, err := p.dial(p.cfg)
		if err != nil {
			return nil, fmt.Errorf("reconnect: %w", err)
		}
		p.sess = sess
	default:
	}

	return p.sess, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg entity.Message) (string, error) {
	messageID := uuid.NewString()
	publishing, err := newPublishing(msg, messageID, time.Now().UTC())
	if err != nil {
		return "", err
	}

	sess, err := p.liveSession()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.ConfirmTimeout)
	defer cancel()

	confirm, err := sess.Publish(ctx, p.cfg.Exchange, p.cfg.RoutingKey, publishing)
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return "", fmt.Errorf("wait confirm: %w", err)
	}
	if !acked {
		return "", errors.New("broker rejected message")
	}

	p.log.LogAttrs(ctx, logger.DebugLevel, "notification published",
		logger.String("notification_id", msg.NotificationID.String()),
		logger.String("message_id", messageID),
	)

	return messageID, nil
}

func newPublishing(msg entity.Message, messageID string, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(envelope{
		NotificationID: msg.NotificationID.String(),
		Subject:        msg.Subject,
		RecipientEmail: msg.Recipient,
		Message: map[string]string{
			"default": msg.Body,
			"email":   msg.Body,
		},
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal envelope: %w", err)
	}

	return amqp.Publishing{
		ContentType:  _contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    now,
		Headers: amqp.Table{
			"email":   msg.Recipient,
			"subject": msg.Subject,
		},
		Body: body,
	}, nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess.Close()
}

type brokerSession struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed chan *amqp.Error
}

func dialBroker(cfg AMQPConfig) (session, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat:  cfg.Heartbeat,
		Dial:       amqp.DefaultDial(cfg.ConnectTimeout),
		Properties: amqp.Table{"connection_name": cfg.ConnectionName},
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err = ch.ExchangeDeclare(cfg.Exchange, cfg.ExchangeType, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	if err = ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &brokerSession{
		conn:   conn,
		ch:     ch,
		closed: ch.NotifyClose(make(chan *amqp.Error, 1)),
	}, nil
}

func (s *brokerSession) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	confirm, err := s.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if confirm == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return confirm, nil
}

func (s *brokerSession) Closed() <-chan *amqp.Error {
	return s.closed
}

func (s *brokerSession) Close() error {
	if s.conn.IsClosed() {
		return nil
	}
	return s.conn.Close()
}
