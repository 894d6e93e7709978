package httpt

import (
	"context"
	"net/http"

	"salesnotifier/internal/entity"
	"salesnotifier/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// @Summary Welcome message
// @Tags System
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router / [get]
func (h *NotifyHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Message: "Welcome to the Sales Notifier API"})
}

// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *NotifyHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// @Summary List notifications
// @Description Newest first. Optionally filtered by the related sales note.
// @Tags Notification
// @Produce json
// @Param skip query int false "Records to skip" minimum(0) default(0)
// @Param limit query int false "Page size" minimum(1) maximum(1000) default(100)
// @Param resource_id query int false "Sales note id"
// @Success 200 {array} NotificationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notifications [get]
func (h *NotifyHandler) ListNotifications(c *gin.Context) {
	const op = "transport.http.ListNotifications"

	var query ListNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.handleBindError(c, op, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	req := service.ListRequest{
		ResourceID: query.ResourceID,
		Skip:       query.Skip,
	}
	if query.Limit != nil {
		req.Limit = *query.Limit
	}

	notifications, err := h.svc.List(ctx, req)
	if err != nil {
		h.handleServiceError(c, op, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, toNotificationResponses(notifications))
}

// @Summary Create a pending notification
// @Description Stores the notification without sending it.
// @Tags Notification
// @Accept json
// @Produce json
// @Param request body CreateNotificationRequest true "Notification"
// @Success 201 {object} NotificationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notifications [post]
func (h *NotifyHandler) CreateNotification(c *gin.Context) {
	const op = "transport.http.CreateNotification"

	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, op, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	notification, err := h.svc.Create(ctx, service.CreateNotificationRequest{
		Type:           entity.EventType(req.Type),
		RecipientEmail: req.RecipientEmail,
		Subject:        req.Subject,
		Message:        req.Message,
		ResourceID:     req.ResourceID,
	})
	if err != nil {
		h.handleServiceError(c, op, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, toNotificationResponse(notification))
}

// @Summary Get a notification
// @Tags Notification
// @Produce json
// @Param id path string true "Notification id"
// @Success 200 {object} NotificationResponse
// @Failure 400 {object} ErrorResponse "Malformed id"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notifications/{id} [get]
func (h *NotifyHandler) GetNotification(c *gin.Context) {
	const op = "transport.http.GetNotification"

	id, ok := h.parseID(c, op)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	notification, err := h.svc.Get(ctx, id)
	if err != nil {
		h.handleServiceError(c, op, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, toNotificationResponse(notification))
}

// @Summary Correct a notification
// @Description Only the present fields are changed; null clears error_message or sent_at.
// @Description The resulting record must keep status, sent_at and error_message consistent.
// @Tags Notification
// @Accept json
// @Produce json
// @Param id path string true "Notification id"
// @Param request body UpdateNotificationRequest true "Fields to change"
// @Success 200 {object} NotificationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notifications/{id} [put]
func (h *NotifyHandler) UpdateNotification(c *gin.Context) {
	const op = "transport.http.UpdateNotification"

	id, ok := h.parseID(c, op)
	if !ok {
		return
	}

	var req UpdateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, op, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	notification, err := h.svc.Update(ctx, id, req.toPatch())
	if err != nil {
		h.handleServiceError(c, op, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, toNotificationResponse(notification))
}

// @Summary Delete a notification
// @Tags Notification
// @Produce json
// @Param id path string true "Notification id"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notifications/{id} [delete]
func (h *NotifyHandler) DeleteNotification(c *gin.Context) {
	const op = "transport.http.DeleteNotification"

	id, ok := h.parseID(c, op)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		h.handleServiceError(c, op, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification deleted successfully"})
}

// @Summary Send a stored notification
// @Description One delivery attempt. Failed notifications may be sent again, sent ones may not.
// @Tags Notification
// @Produce json
// @Param id path string true "Notification id"
// @Success 200 {object} SendNotificationResponse
// @Failure 400 {object} ErrorResponse "Malformed id or already sent"
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse "Gateway rejected the message, the notification is now failed"
// @Failure 500 {object} ErrorResponse
// @Router /notifications/{id}/send [post]
func (h *NotifyHandler) SendNotification(c *gin.Context) {
	const op = "transport.http.SendNotification"

	id, ok := h.parseID(c, op)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.svc.Send(ctx, id)
	if err != nil {
		h.handleServiceError(c, op, err, http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, SendNotificationResponse{
		Message:   "Notification sent successfully",
		MessageID: result.MessageID,
	})
}

// @Summary Notify a customer about a sales note
// @Description Builds the message from the sales note's status, stores it and sends it.
// @Tags Notification
// @Accept json
// @Produce json
// @Param request body SalesNoteNotificationRequest true "Sales note and recipient"
// @Success 200 {object} SalesNoteNotificationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Sales note not found"
// @Failure 500 {object} ErrorResponse "Delivery failed, details carry the notification id"
// @Router /notifications/sales-note [post]
func (h *NotifyHandler) SendSalesNoteNotification(c *gin.Context) {
	const op = "transport.http.SendSalesNoteNotification"

	var req SalesNoteNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, op, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.svc.SendSalesNote(ctx, service.SalesNoteRequest{
		SalesNoteID:   req.SalesNoteID,
		CustomerEmail: req.CustomerEmail,
		PDFURL:        req.PDFURL,
	})
	if err != nil {
		h.handleServiceError(c, op, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, SalesNoteNotificationResponse{
		Message:        "Sales note notification sent successfully",
		NotificationID: result.Notification.ID.String(),
		MessageID:      result.MessageID,
	})
}

func (h *NotifyHandler) parseID(c *gin.Context, op string) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.handleInvalidUUID(c, op, raw)
		return uuid.Nil, false
	}
	return id, true
}
