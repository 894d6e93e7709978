package httpt

import (
	"errors"
	"net/http"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/logger"

	"github.com/gin-gonic/gin"
)

// deliveryStatus selects the status code used when the gateway rejected a message;
// the single send endpoint reports it as a bad gateway, the sales-note flow as a 500.
func (h *NotifyHandler) handleServiceError(c *gin.Context, op string, err error, deliveryStatus int) {
	ctx := c.Request.Context()
	log := h.log.Ctx(ctx)

	switch {
	case errors.Is(err, entity.ErrNotificationNotFound):
		log.LogAttrs(ctx, logger.WarnLevel, "notification not found",
			logger.String("op", op),
			logger.Any("error", err),
		)
		h.respondError(c, http.StatusNotFound, "not_found", "Notification not found", err)

	case errors.Is(err, entity.ErrSalesNoteNotFound):
		log.LogAttrs(ctx, logger.WarnLevel, "sales note not found",
			logger.String("op", op),
			logger.Any("error", err),
		)
		h.respondError(c, http.StatusNotFound, "not_found", "Sales note not found", err)

	case errors.Is(err, entity.ErrNotificationAlreadySent):
		log.LogAttrs(ctx, logger.WarnLevel, "notification already sent",
			logger.String("op", op),
			logger.Any("error", err),
		)
		h.respondError(c, http.StatusBadRequest, "already_sent", "Notification already sent", err)

	case errors.Is(err, entity.ErrInvalidEventType):
		log.LogAttrs(ctx, logger.WarnLevel, "invalid event type",
			logger.String("op", op),
			logger.Any("error", err),
		)
		h.respondError(c, http.StatusBadRequest, "invalid_event_type", "Invalid event type", err)

	case errors.Is(err, entity.ErrInvalidData):
		log.LogAttrs(ctx, logger.WarnLevel, "invalid data",
			logger.String("op", op),
			logger.Any("error", err),
		)
		h.respondError(c, http.StatusBadRequest, "invalid_data", "Invalid input data", err)

	case errors.Is(err, entity.ErrConflictingData):
		log.LogAttrs(ctx, logger.WarnLevel, "conflicting data",
			logger.String("op", op),
			logger.Any("error", err),
		)
		h.respondError(c, http.StatusConflict, "conflict", "Data conflict occurred", err)

	case errors.Is(err, entity.ErrDelivery):
		log.LogAttrs(ctx, logger.ErrorLevel, "delivery failed",
			logger.String("op", op),
			logger.Any("error", err),
		)
		// The gateway's reason is already stored on the record, so it is safe to return.
		c.AbortWithStatusJSON(deliveryStatus, ErrorResponse{
			Error:   "Failed to send notification",
			Code:    "delivery_failed",
			Details: err.Error(),
		})

	default:
		log.LogAttrs(ctx, logger.ErrorLevel, "internal server error",
			logger.String("op", op),
			logger.Any("error", err),
		)
		h.respondError(c, http.StatusInternalServerError, "internal_error",
			"Internal server error occurred", err)
	}
}

func (h *NotifyHandler) handleInvalidUUID(c *gin.Context, op, raw string) {
	ctx := c.Request.Context()
	h.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "invalid notification id",
		logger.String("op", op),
		logger.String("id", raw),
	)
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid notification id",
		Code:    "invalid_data",
		Details: "id must be a UUID, got " + raw,
	})
}

func (h *NotifyHandler) handleBindError(c *gin.Context, op string, err error) {
	ctx := c.Request.Context()
	h.log.Ctx(ctx).LogAttrs(ctx, logger.WarnLevel, "request binding failed",
		logger.String("op", op),
		logger.Any("error", err),
	)
	h.respondError(c, http.StatusBadRequest, "invalid_data", "Invalid input data", err)
}

// Internal errors are not echoed back to the client.
func (h *NotifyHandler) respondError(c *gin.Context, status int, code, message string, err error) {
	resp := ErrorResponse{
		Error: message,
		Code:  code,
	}
	if err != nil && status < http.StatusInternalServerError {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}
