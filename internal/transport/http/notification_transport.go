package httpt

import (
	"context"
	"time"

	"salesnotifier/internal/config"
	"salesnotifier/internal/entity"
	"salesnotifier/internal/service"
	"salesnotifier/pkg/logger"
	"salesnotifier/pkg/metric"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const _defaultRequestTimeout = 10 * time.Second

type NotifyService interface {
	Create(ctx context.Context, req service.CreateNotificationRequest) (*entity.Notification, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Notification, error)
	List(ctx context.Context, req service.ListRequest) ([]entity.Notification, error)
	Update(ctx context.Context, id uuid.UUID, patch entity.NotificationPatch) (*entity.Notification, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Send(ctx context.Context, id uuid.UUID) (*service.SendResult, error)
	SendSalesNote(ctx context.Context, req service.SalesNoteRequest) (*service.SendResult, error)
}

type NotifyHandler struct {
	svc            NotifyService
	log            logger.Logger
	metrics        metric.HTTP
	router         *gin.Engine
	requestTimeout time.Duration
}

// NewNotifyHandler builds the gin engine. A nil metrics disables request metrics,
// a non-positive cfg.RequestTimeout selects the default.
func NewNotifyHandler(
	svc NotifyService,
	log logger.Logger,
	metrics metric.HTTP,
	cfg *config.HTTP,
) *NotifyHandler {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = _defaultRequestTimeout
	}

	h := &NotifyHandler{
		svc:            svc,
		log:            log,
		metrics:        metrics,
		requestTimeout: requestTimeout,
	}

	router := gin.New()

	router.Use(h.requestIDMiddleware())
	router.Use(h.loggingMiddleware())
	if cfg.CORS.Enabled {
		router.Use(corsMiddleware(cfg.CORS))
	}
	if metrics != nil {
		router.Use(h.metricsMiddleware())
	}
	router.Use(gin.Recovery())

	h.router = router

	h.setupRoutes()

	return h
}

func (h *NotifyHandler) Engine() *gin.Engine {
	return h.router
}
