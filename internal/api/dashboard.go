package api

import (
	"net/http"

	"lightsms-gateway/internal/auth"
	"lightsms-gateway/internal/database"
	"lightsms-gateway/internal/models"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Stats aggregates the caller's sending activity for the dashboard
func (h *DashboardHandler) Stats(c *gin.Context) {
	var userID uint
	if session, ok := auth.CurrentSession(c); ok {
		userID = session.UserID
	}

	var campaigns, groups, contacts int64
	database.GormDB.Model(&models.Campaign{}).Where("user_id = ?", userID).Count(&campaigns)
	database.GormDB.Model(&models.ContactGroup{}).Where("user_id = ?", userID).Count(&groups)
	database.GormDB.Model(&models.Contact{}).
		Joins("JOIN contact_groups ON contact_groups.id = contacts.group_id").
		Where("contact_groups.user_id = ?", userID).
		Count(&contacts)

	var sent, failed, delivered int64
	database.GormDB.Model(&models.SmsMessage{}).
		Where("user_id = ? AND status = ?", userID, models.MessageStatusSent).Count(&sent)
	database.GormDB.Model(&models.SmsMessage{}).
		Where("user_id = ? AND status = ?", userID, models.MessageStatusFailed).Count(&failed)
	database.GormDB.Model(&models.SmsMessage{}).
		Where("user_id = ? AND status = ?", userID, models.MessageStatusDelivered).Count(&delivered)

	var replies int64
	database.GormDB.Model(&models.MessageResponse{}).
		Joins("JOIN sms_messages ON sms_messages.id = message_responses.message_id").
		Where("sms_messages.user_id = ?", userID).
		Count(&replies)

	c.JSON(http.StatusOK, gin.H{
		"campaigns":          campaigns,
		"contact_groups":     groups,
		"contacts":           contacts,
		"messages_sent":      sent,
		"messages_failed":    failed,
		"messages_delivered": delivered,
		"replies":            replies,
	})
}
