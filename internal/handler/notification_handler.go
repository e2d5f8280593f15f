package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/angelicadichon/eSumbong/internal/models"
	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
	"github.com/angelicadichon/eSumbong/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, username string) ([]models.NotificationView, int, error)
	MarkAllRead(ctx context.Context, username string) error
	Delete(ctx context.Context, id int64, username string) error
}

// NotificationHandler manages notification feed endpoints.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary List the caller's notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /notifications [get]
// @Security BearerAuth
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	notifications, unread, err := h.service.List(c.Request.Context(), claims.Username)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkAllRead godoc
// @Summary Mark all notifications read
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /notifications/mark-read [put]
// @Security BearerAuth
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.MarkAllRead(c.Request.Context(), claims.Username); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "All notifications marked read")
}

// Delete godoc
// @Summary Soft delete one notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body object true "Deletion payload {id}"
// @Success 200 {object} map[string]interface{}
// @Router /notifications/delete [put]
// @Security BearerAuth
func (h *NotificationHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		ID int64 `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "notification id is required"))
		return
	}
	if err := h.service.Delete(c.Request.Context(), payload.ID, claims.Username); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Notification deleted")
}
