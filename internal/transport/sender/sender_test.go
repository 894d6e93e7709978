package sender

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func testMessage() entity.Message {
	return entity.Message{
		NotificationID: uuid.MustParse("0190a5b2-7c1e-7d3a-9f1e-2b3c4d5e6f70"),
		Subject:        "Sales Note Marked as Paid",
		Body:           "Your sales note has been marked as paid. Thank you for your payment! ",
		Recipient:      "customer@example.com",
	}
}

type stubPublisher struct {
	id    string
	err   error
	calls int
}

func (p *stubPublisher) Publish(context.Context, entity.Message) (string, error) {
	p.calls++
	return p.id, p.err
}

func TestMultiSender(t *testing.T) {
	t.Run("primary decides the message id", func(t *testing.T) {
		primary := &stubPublisher{id: "primary-1"}
		mirror := &stubPublisher{id: "mirror-1"}

		id, err := NewMultiSender(logger.NewNop(), primary, mirror).Publish(context.Background(), testMessage())

		require.NoError(t, err)
		assert.Equal(t, "primary-1", id)
		assert.Equal(t, 1, mirror.calls)
	})

	t.Run("mirror failure is not a delivery failure", func(t *testing.T) {
		primary := &stubPublisher{id: "primary-1"}
		mirror := &stubPublisher{err: errors.New("chat not found")}

		id, err := NewMultiSender(logger.NewNop(), primary, mirror).Publish(context.Background(), testMessage())

		require.NoError(t, err)
		assert.Equal(t, "primary-1", id)
	})

	t.Run("primary failure skips mirrors", func(t *testing.T) {
		primary := &stubPublisher{err: errors.New("connection refused")}
		mirror := &stubPublisher{id: "mirror-1"}

		_, err := NewMultiSender(logger.NewNop(), primary, mirror).Publish(context.Background(), testMessage())

		assert.EqualError(t, err, "connection refused")
		assert.Zero(t, mirror.calls)
	})
}

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	if b.err != nil {
		return tgbotapi.Message{}, b.err
	}
	return tgbotapi.Message{MessageID: 77}, nil
}

func TestTelegramSender_Publish(t *testing.T) {
	bot := &fakeBot{}
	s := &TelegramSender{bot: bot, chatID: 1001, log: logger.NewNop()}

	msg := testMessage()
	msg.Subject = "<Paid> & done"

	id, err := s.Publish(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, "77", id)
	require.Len(t, bot.sent, 1)
	out, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(1001), out.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, out.ParseMode)
	assert.Contains(t, out.Text, "<b>&lt;Paid&gt; &amp; done</b>")
	assert.Contains(t, out.Text, "customer@example.com")
}

func TestTelegramSender_Errors(t *testing.T) {
	bot := &fakeBot{err: errors.New("Forbidden: bot was blocked by the user")}
	s := &TelegramSender{bot: bot, chatID: 1001, log: logger.NewNop()}

	_, err := s.Publish(context.Background(), testMessage())
	assert.ErrorContains(t, err, "bot was blocked")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Publish(ctx, testMessage())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, bot.sent, 1)
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestEmailSender_Publish(t *testing.T) {
	dialer := &fakeDialer{}
	s := &EmailSender{dialer: dialer, from: "noreply@example.com", domain: "smtp.example.com", log: logger.NewNop()}

	id, err := s.Publish(context.Background(), testMessage())
	require.NoError(t, err)

	require.Len(t, dialer.sent, 1)
	m := dialer.sent[0]
	assert.Equal(t, []string{"customer@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Sales Note Marked as Paid"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{id}, m.GetHeader("Message-ID"))
	assert.Regexp(t, `^<[0-9a-f-]{36}@smtp\.example\.com>$`, id)
}

func TestEmailSender_DialError(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("535 authentication failed")}
	s := &EmailSender{dialer: dialer, from: "noreply@example.com", domain: "smtp.example.com", log: logger.NewNop()}

	id, err := s.Publish(context.Background(), testMessage())

	assert.Empty(t, id)
	assert.ErrorContains(t, err, "535 authentication failed")
}

func TestNewPublishing(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	msg := testMessage()

	p, err := newPublishing(msg, "mid-1", now)
	require.NoError(t, err)

	assert.Equal(t, "mid-1", p.MessageId)
	assert.Equal(t, amqp.Persistent, p.DeliveryMode)
	assert.Equal(t, "application/json", p.ContentType)
	assert.Equal(t, now, p.Timestamp)
	assert.Equal(t, "customer@example.com", p.Headers["email"])

	var env envelope
	require.NoError(t, json.Unmarshal(p.Body, &env))
	assert.Equal(t, msg.NotificationID.String(), env.NotificationID)
	assert.Equal(t, msg.Subject, env.Subject)
	assert.Equal(t, msg.Recipient, env.RecipientEmail)
	assert.Equal(t, map[string]string{"default": msg.Body, "email": msg.Body}, env.Message)
}

type fakeConfirm struct {
	acked bool
	hang  bool
}

func (c fakeConfirm) WaitContext(ctx context.Context) (bool, error) {
	if c.hang {
		<-ctx.Done()
		return false, ctx.Err()
	}
	return c.acked, nil
}

type fakeSession struct {
	confirm    confirmation
	publishErr error
	closed     chan *amqp.Error
	closeCalls int
	published  []amqp.Publishing
	exchange   string
	key        string
}

func newFakeSession(confirm confirmation) *fakeSession {
	return &fakeSession{confirm: confirm, closed: make(chan *amqp.Error, 1)}
}

func (s *fakeSession) Publish(_ context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	if s.publishErr != nil {
		return nil, s.publishErr
	}
	s.exchange, s.key = exchange, key
	s.published = append(s.published, msg)
	return s.confirm, nil
}

func (s *fakeSession) Closed() <-chan *amqp.Error { return s.closed }

func (s *fakeSession) Close() error {
	s.closeCalls++
	return nil
}

// dialSequence hands out sessions in order and fails once they run out.
func dialSequence(sessions ...*fakeSession) (dialFunc, *int) {
	calls := 0
	return func(AMQPConfig) (session, error) {
		calls++
		if calls > len(sessions) {
			return nil, errors.New("connection refused")
		}
		return sessions[calls-1], nil
	}, &calls
}

func testAMQPConfig() AMQPConfig {
	return AMQPConfig{Exchange: "notifications", RoutingKey: "notification.email", ConfirmTimeout: time.Second}
}

func TestAMQPPublisher_Publish(t *testing.T) {
	sess := newFakeSession(fakeConfirm{acked: true})
	dial, _ := dialSequence(sess)

	p, err := newAMQPPublisher(testAMQPConfig(), logger.NewNop(), dial)
	require.NoError(t, err)

	id, err := p.Publish(context.Background(), testMessage())
	require.NoError(t, err)

	require.Len(t, sess.published, 1)
	assert.Equal(t, sess.published[0].MessageId, id)
	assert.Equal(t, "notifications", sess.exchange)
	assert.Equal(t, "notification.email", sess.key)
	assert.Equal(t, "customer@example.com", sess.published[0].Headers["email"])
}

func TestAMQPPublisher_PublishFailures(t *testing.T) {
	tests := []struct {
		name    string
		session *fakeSession
		timeout time.Duration
		wantErr string
		is      error
	}{
		{
			name:    "nack",
			session: newFakeSession(fakeConfirm{acked: false}),
			wantErr: "broker rejected message",
		},
		{
			name:    "confirm timeout",
			session: newFakeSession(fakeConfirm{hang: true}),
			timeout: 20 * time.Millisecond,
			wantErr: "wait confirm",
			is:      context.DeadlineExceeded,
		},
		{
			name: "publish error",
			session: &fakeSession{
				publishErr: amqp.ErrClosed,
				closed:     make(chan *amqp.Error, 1),
			},
			wantErr: "publish",
			is:      amqp.ErrClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAMQPConfig()
			if tt.timeout > 0 {
				cfg.ConfirmTimeout = tt.timeout
			}
			dial, _ := dialSequence(tt.session)

			p, err := newAMQPPublisher(cfg, logger.NewNop(), dial)
			require.NoError(t, err)

			id, err := p.Publish(context.Background(), testMessage())

			assert.Empty(t, id)
			assert.ErrorContains(t, err, tt.wantErr)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestAMQPPublisher_ReconnectsAfterChannelClose(t *testing.T) {
	first := newFakeSession(fakeConfirm{acked: true})
	second := newFakeSession(fakeConfirm{acked: true})
	dial, calls := dialSequence(first, second)

	p, err := newAMQPPublisher(testAMQPConfig(), logger.NewNop(), dial)
	require.NoError(t, err)

	first.closed <- &amqp.Error{Code: amqp.ChannelError, Reason: "channel closed"}

	_, err = p.Publish(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, 2, *calls)
	assert.Equal(t, 1, first.closeCalls)
	assert.Empty(t, first.published)
	assert.Len(t, second.published, 1)

	_, err = p.Publish(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "a live session is reused")
	assert.Len(t, second.published, 2)
}

func TestAMQPPublisher_ReconnectFailure(t *testing.T) {
	first := newFakeSession(fakeConfirm{acked: true})
	dial, _ := dialSequence(first)

	p, err := newAMQPPublisher(testAMQPConfig(), logger.NewNop(), dial)
	require.NoError(t, err)

	close(first.closed)

	_, err = p.Publish(context.Background(), testMessage())
	assert.ErrorContains(t, err, "reconnect")
	assert.Empty(t, first.published)
}

func TestNewAMQPPublisher_DialError(t *testing.T) {
	dial, _ := dialSequence()

	_, err := newAMQPPublisher(testAMQPConfig(), logger.NewNop(), dial)

	assert.ErrorContains(t, err, "connection refused")
}

func TestAMQPPublisher_Close(t *testing.T) {
	sess := newFakeSession(fakeConfirm{acked: true})
	dial, _ := dialSequence(sess)

	p, err := newAMQPPublisher(testAMQPConfig(), logger.NewNop(), dial)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.Equal(t, 1, sess.closeCalls)
}
