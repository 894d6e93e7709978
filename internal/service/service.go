package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/logger"
	"salesnotifier/pkg/postgres"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	_slowOperationThreshold = 200 * time.Millisecond
	_defaultLimit           = 100
	_maxLimit               = 1000
)

type (
	// NotifyRepository is the notification record store.
	NotifyRepository interface {
		Create(ctx context.Context, qe postgres.QueryExecuter, notify entity.Notification) (*entity.Notification, error)
		GetByID(ctx context.Context, qe postgres.QueryExecuter, id uuid.UUID) (*entity.Notification, error)
		GetForUpdate(ctx context.Context, qe postgres.QueryExecuter, id uuid.UUID) (*entity.Notification, error)
		List(ctx context.Context, qe postgres.QueryExecuter, filter entity.ListFilter) ([]entity.Notification, error)
		Update(ctx context.Context, qe postgres.QueryExecuter, id uuid.UUID, patch entity.NotificationPatch) (*entity.Notification, error)
		MarkSent(ctx context.Context, qe postgres.QueryExecuter, id uuid.UUID, sentAt time.Time) (*entity.Notification, error)
		MarkFailed(ctx context.Context, qe postgres.QueryExecuter, id uuid.UUID, reason string) (*entity.Notification, error)
		Delete(ctx context.Context, qe postgres.QueryExecuter, id uuid.UUID) error
	}

	SalesNoteRepository interface {
		GetByID(ctx context.Context, qe postgres.QueryExecuter, id int64) (*entity.SalesNote, error)
	}

	// NotificationCache never lets Set replace an entry with an older UpdatedAt.
	// Tombstone hides a deleted record and rejects every Set until it expires.
	NotificationCache interface {
		Get(ctx context.Context, id uuid.UUID) (*entity.Notification, error)
		Set(ctx context.Context, notification *entity.Notification) error
		Tombstone(ctx context.Context, id uuid.UUID) error
	}

	// Gateway publishes one message per call and returns the transport's message id.
	Gateway interface {
		Publish(ctx context.Context, msg entity.Message) (string, error)
	}

	DeliveryObserver interface {
		ObserveDelivery(outcome string, took time.Duration)
	}

	NotifyService struct {
		repo       NotifyRepository
		salesNotes SalesNoteRepository
		tm         postgres.Manager
		db         postgres.QueryExecuter
		gateway    Gateway
		cache      NotificationCache
		observer   DeliveryObserver
		log        logger.Logger
		validator  *validator.Validate

		slowThreshold time.Duration
		now           func() time.Time
	}

	CreateNotificationRequest struct {
		Type           entity.EventType `validate:"required"`
		RecipientEmail string           `validate:"required,email"`
		Subject        string           `validate:"required"`
		Message        string           `validate:"required"`
		ResourceID     *int64
	}

	SalesNoteRequest struct {
		SalesNoteID   int64  `validate:"gt=0"`
		CustomerEmail string `validate:"required,email"`
		PDFURL        string `validate:"omitempty,url"`
	}

	ListRequest struct {
		ResourceID *int64
		Skip       uint64
		Limit      uint64
	}

	// SendResult carries the record in its terminal state. MessageID is set only when delivery succeeded.
	SendResult struct {
		Notification *entity.Notification
		MessageID    string
	}
)

func NewNotifyService(
	repo NotifyRepository,
	salesNotes SalesNoteRepository,
	tm postgres.Manager,
	db postgres.QueryExecuter,
	gateway Gateway,
	log logger.Logger,
	opts ...Option,
) (*NotifyService, error) {
	s := &NotifyService{
		repo:          repo,
		salesNotes:    salesNotes,
		tm:            tm,
		db:            db,
		gateway:       gateway,
		cache:         nopCache{},
		observer:      nopObserver{},
		log:           log,
		validator:     validator.New(validator.WithRequiredStructEnabled()),
		slowThreshold: _slowOperationThreshold,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("service.NewNotifyService: %w", err)
	}

	return s, nil
}

// Create persists a pending notification. It does not send.
func (s *NotifyService) Create(ctx context.Context, req CreateNotificationRequest) (*entity.Notification, error) {
	const op = "service.NotifyService.Create"

	log := s.log.Ctx(ctx)
	startTime := time.Now()

	defer s.logSlowOperation(ctx, op, startTime, map[string]any{
		"type": req.Type.String(),
	})

	if err := s.validateCreateRequest(req); err != nil {
		log.LogAttrs(ctx, logger.WarnLevel, "validation failed",
			logger.String("op", op),
			logger.Any("error", err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.create(ctx, "create_notification", entity.Notification{
		Type:           req.Type,
		Status:         entity.StatusPending,
		RecipientEmail: req.RecipientEmail,
		Subject:        req.Subject,
		Message:        req.Message,
		ResourceID:     req.ResourceID,
	})
	if err != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "creation failed",
			logger.String("op", op),
			logger.Any("error", err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "notification created",
		logger.String("op", op),
		logger.String("id", created.ID.String()),
		logger.Duration("duration", time.Since(startTime)),
	)

	return created, nil
}

func (s *NotifyService) Get(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	const op = "service.NotifyService.Get"

	log := s.log.Ctx(ctx)

	if cached, err := s.cache.Get(ctx, id); err == nil {
		log.LogAttrs(ctx, logger.DebugLevel, "served from cache",
			logger.String("op", op),
			logger.String("id", id.String()),
		)
		return cached, nil
	} else if !errors.Is(err, entity.ErrDataNotFound) {
		log.LogAttrs(ctx, logger.WarnLevel, "cache read failed",
			logger.String("op", op),
			logger.Any("error", err),
		)
	}

	notification, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err, id))
	}

	if err = s.cache.Set(ctx, notification); err != nil {
		log.LogAttrs(ctx, logger.WarnLevel, "cache write failed",
			logger.String("op", op),
			logger.Any("error", err),
		)
	}

	return notification, nil
}

// List returns notifications newest first. A zero limit selects the default page size.
func (s *NotifyService) List(ctx context.Context, req ListRequest) ([]entity.Notification, error) {
	const op = "service.NotifyService.List"

	limit := req.Limit
	if limit == 0 {
		limit = _defaultLimit
	}
	if limit > _maxLimit {
		return nil, fmt.Errorf("%s: limit %d exceeds %d: %w", op, limit, _maxLimit, entity.ErrInvalidData)
	}

	notifications, err := s.repo.List(ctx, s.db, entity.ListFilter{
		ResourceID: req.ResourceID,
		Page:       entity.Page{Skip: req.Skip, Limit: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return notifications, nil
}

// Update applies an administrative correction. The merged record must still satisfy
// the status invariants, otherwise nothing is written.
func (s *NotifyService) Update(ctx context.Context, id uuid.UUID, patch entity.NotificationPatch) (*entity.Notification, error) {
	const op = "service.NotifyService.Update"

	log := s.log.Ctx(ctx)

	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, fmt.Errorf("%s: unknown status %q: %w", op, *patch.Status, entity.ErrInvalidData)
	}

	var updated *entity.Notification
	err := s.tm.ExecuteInTransaction(ctx, "update_notification", func(tx postgres.QueryExecuter) error {
		current, err := s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return notFound(err, id)
		}

		merged := patch.Apply(*current)
		if err = merged.CheckState(); err != nil {
			return err
		}

		updated, err = s.repo.Update(ctx, tx, id, patch)
		if err != nil {
			return postgres.HandleError("update_notification", "update", notFound(err, id))
		}
		return nil
	})
	if err != nil {
		log.LogAttrs(ctx, logger.WarnLevel, "update failed",
			logger.String("op", op),
			logger.String("id", id.String()),
			logger.Any("error", err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.refresh(ctx, updated)

	log.LogAttrs(ctx, logger.InfoLevel, "notification updated",
		logger.String("op", op),
		logger.String("id", id.String()),
		logger.String("status", updated.Status.String()),
		logger.Bool("noop", patch.IsEmpty()),
	)

	return updated, nil
}

func (s *NotifyService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "service.NotifyService.Delete"

	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err, id))
	}

	if err := s.cache.Tombstone(ctx, id); err != nil {
		s.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "cache tombstone failed",
			logger.String("op", op),
			logger.String("id", id.String()),
			logger.Any("error", err),
		)
	}

	s.log.Ctx(ctx).LogAttrs(ctx, logger.InfoLevel, "notification deleted",
		logger.String("op", op),
		logger.String("id", id.String()),
	)

	return nil
}

// Send makes one delivery attempt for a pending or failed notification.
// A failed attempt is committed to the record before ErrDelivery is returned,
// together with a result describing the failed record.
func (s *NotifyService) Send(ctx context.Context, id uuid.UUID) (*SendResult, error) {
	const op = "service.NotifyService.Send"

	startTime := time.Now()
	defer s.logSlowOperation(ctx, op, startTime, map[string]any{
		"id": id.String(),
	})

	result, err := s.deliver(ctx, id)
	if err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// SendSalesNote builds the notification for a sales note's current status, stores it
// and sends it. The pending record is committed before the delivery attempt starts.
func (s *NotifyService) SendSalesNote(ctx context.Context, req SalesNoteRequest) (*SendResult, error) {
	const op = "service.NotifyService.SendSalesNote"

	log := s.log.Ctx(ctx)
	startTime := time.Now()

	defer s.logSlowOperation(ctx, op, startTime, map[string]any{
		"sales_note_id": req.SalesNoteID,
	})

	if err := s.validateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	note, err := s.salesNotes.GetByID(ctx, s.db, req.SalesNoteID)
	if err != nil {
		if errors.Is(err, entity.ErrDataNotFound) {
			return nil, fmt.Errorf("%s: sales note %d: %w", op, req.SalesNoteID, entity.ErrSalesNoteNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	eventType := note.EventType()
	subject, body, err := Compose(eventType, req.PDFURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resourceID := note.ID
	created, err := s.create(ctx, "create_sales_note_notification", entity.Notification{
		Type:           eventType,
		Status:         entity.StatusPending,
		RecipientEmail: req.CustomerEmail,
		Subject:        subject,
		Message:        body,
		ResourceID:     &resourceID,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "sales note notification created",
		logger.String("op", op),
		logger.String("id", created.ID.String()),
		logger.Int64("sales_note_id", note.ID),
		logger.String("sales_note_status", note.Status),
		logger.String("type", eventType.String()),
	)

	result, err := s.deliver(ctx, created.ID)
	if result == nil {
		result = &SendResult{Notification: created}
	}
	if err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (s *NotifyService) create(ctx context.Context, txName string, notification entity.Notification) (*entity.Notification, error) {
	var result *entity.Notification
	err := s.tm.ExecuteInTransaction(ctx, txName, func(tx postgres.QueryExecuter) error {
		created, err := s.repo.Create(ctx, tx, notification)
		if err != nil {
			return postgres.HandleError(txName, "create", err)
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// deliver holds the row lock for the whole attempt, so concurrent sends of one
// notification are serialized and the second one observes the first one's outcome.
func (s *NotifyService) deliver(ctx context.Context, id uuid.UUID) (*SendResult, error) {
	const op = "service.NotifyService.deliver"

	log := s.log.Ctx(ctx)

	var (
		result      *SendResult
		deliveryErr error
		published   bool
	)

	err := s.tm.ExecuteInTransaction(ctx, "send_notification", func(tx postgres.QueryExecuter) error {
		notification, err := s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return notFound(err, id)
		}

		if notification.Status == entity.StatusSent {
			return fmt.Errorf("notification %s: %w", id, entity.ErrNotificationAlreadySent)
		}

		startTime := time.Now()
		messageID, pubErr := s.gateway.Publish(ctx, notification.DeliveryMessage())
		took := time.Since(startTime)

		if pubErr != nil {
			deliveryErr = pubErr
			failed, err := s.repo.MarkFailed(ctx, tx, id, pubErr.Error())
			if err != nil {
				return postgres.HandleError("send_notification", "mark_failed", err)
			}
			s.observer.ObserveDelivery(entity.StatusFailed.String(), took)
			result = &SendResult{Notification: failed}
			return nil
		}

		published = true
		sent, err := s.repo.MarkSent(ctx, tx, id, s.now().UTC())
		if err != nil {
			return postgres.HandleError("send_notification", "mark_sent", err)
		}
		s.observer.ObserveDelivery(entity.StatusSent.String(), took)
		result = &SendResult{Notification: sent, MessageID: messageID}
		return nil
	})
	if err != nil {
		level := logger.WarnLevel
		if published {
			// The transport accepted the message but the record stays in its previous
			// state; a later send will publish it again.
			level = logger.ErrorLevel
		}
		log.LogAttrs(ctx, level, "send aborted",
			logger.String("op", op),
			logger.String("id", id.String()),
			logger.Bool("published", published),
			logger.Any("error", err),
		)
		return nil, err
	}

	s.refresh(ctx, result.Notification)

	if deliveryErr != nil {
		log.LogAttrs(ctx, logger.ErrorLevel, "delivery failed",
			logger.String("op", op),
			logger.String("id", id.String()),
			logger.Any("error", deliveryErr),
		)
		return result, fmt.Errorf("notification %s: %w: %w", id, entity.ErrDelivery, deliveryErr)
	}

	log.LogAttrs(ctx, logger.InfoLevel, "notification sent",
		logger.String("op", op),
		logger.String("id", id.String()),
		logger.String("message_id", result.MessageID),
	)

	return result, nil
}

func (s *NotifyService) validateCreateRequest(req CreateNotificationRequest) error {
	if err := s.validateStruct(req); err != nil {
		return err
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("type %q: %w", req.Type, entity.ErrInvalidEventType)
	}
	return nil
}

func (s *NotifyService) validateStruct(req any) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		msgs := make([]string, 0, len(validationErrs))
		for _, ve := range validationErrs {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy '%s'", ve.Field(), ve.Tag()))
		}
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), entity.ErrInvalidData)
	}
	return fmt.Errorf("%v: %w", err, entity.ErrInvalidData)
}

// refresh writes a committed record into the cache. If that fails the entry is
// tombstoned instead, so reads go to the database until it expires.
func (s *NotifyService) refresh(ctx context.Context, notification *entity.Notification) {
	err := s.cache.Set(ctx, notification)
	if err == nil {
		return
	}
	if tombErr := s.cache.Tombstone(ctx, notification.ID); tombErr != nil {
		err = errors.Join(err, tombErr)
	}
	s.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "cache refresh failed",
		logger.String("id", notification.ID.String()),
		logger.Any("error", err),
	)
}

func notFound(err error, id uuid.UUID) error {
	if errors.Is(err, entity.ErrDataNotFound) {
		return fmt.Errorf("notification %s: %w", id, entity.ErrNotificationNotFound)
	}
	return err
}

func (s *NotifyService) logSlowOperation(ctx context.Context, op string, startTime time.Time, fields map[string]any) {
	duration := time.Since(startTime)
	if duration > s.slowThreshold {
		attrs := []logger.Attr{
			logger.String("op", op),
			logger.Duration("duration", duration),
		}
		for k, v := range fields {
			attrs = append(attrs, logger.Any(k, v))
		}
		s.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "slow operation detected", attrs...)
	}
}

type nopCache struct{}

func (nopCache) Get(context.Context, uuid.UUID) (*entity.Notification, error) {
	return nil, entity.ErrDataNotFound
}

func (nopCache) Set(context.Context, *entity.Notification) error { return nil }

func (nopCache) Tombstone(context.Context, uuid.UUID) error { return nil }

type nopObserver struct{}

func (nopObserver) ObserveDelivery(string, time.Duration) {}
