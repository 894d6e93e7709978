package httpt

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Sales Notifier API
// @version         1.0
// @description     Notifications about sales note events: storage, delivery and status tracking.
// @license.name    MIT-0
// @license.url     https://github.com/aws/mit-0
// @host            localhost:8002
// @BasePath        /
func (h *NotifyHandler) setupRoutes() {
	h.router.GET("/", h.Root)
	h.router.GET("/health", h.Health)

	notifications := h.router.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("", h.CreateNotification)
		notifications.POST("/sales-note", h.SendSalesNoteNotification)
		notifications.GET("/:id", h.GetNotification)
		notifications.PUT("/:id", h.UpdateNotification)
		notifications.DELETE("/:id", h.DeleteNotification)
		notifications.POST("/:id/send", h.SendNotification)
	}

	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Route not found", Code: "not_found"})
	})
}
