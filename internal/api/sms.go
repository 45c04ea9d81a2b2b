package api

import (
	"net/http"
	"strings"
	"time"

	"lightsms-gateway/internal/auth"
	"lightsms-gateway/internal/database"
	"lightsms-gateway/internal/models"
	"lightsms-gateway/internal/sms"
	apimodels "lightsms-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

type SmsHandler struct {
	Client *sms.Client
}

func NewSmsHandler(client *sms.Client) *SmsHandler {
	return &SmsHandler{Client: client}
}

// planQuotas maps subscription tier to messages per month
var planQuotas = map[string]int{
	"basic":      1000,
	"pro":        2000,
	"enterprise": 4000,
}

type SendRequest struct {
	Recipients []apimodels.Recipient `json:"recipients" binding:"required"`
	Message    string                `json:"message" binding:"required"`
}

// Send delivers a single SMS to the first recipient in the request
func (h *SmsHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Recipients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one recipient is required"})
		return
	}

	var userID uint
	if session, ok := auth.CurrentSession(c); ok {
		userID = session.UserID
	}

	result, err := h.Client.SendSingleForUser(userID, req.Recipients[0].Phone, req.Message)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// SendBulk delivers the message to every recipient, one at a time
func (h *SmsHandler) SendBulk(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID uint
	if session, ok := auth.CurrentSession(c); ok {
		userID = session.UserID
	}

	result, err := h.Client.SendBulkForCampaign(0, userID, req.Recipients, req.Message)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Status proxies the provider's delivery status and records delivery
// on the stored message when the provider reports it
func (h *SmsHandler) Status(c *gin.Context) {
	textID := c.Param("id")
	status, err := h.Client.Status(textID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if strings.EqualFold(status, "DELIVERED") {
		now := time.Now().UTC()
		database.GormDB.Model(&models.SmsMessage{}).
			Where("external_id = ? AND delivered_at IS NULL", textID).
			Updates(map[string]interface{}{
				"status":       models.MessageStatusDelivered,
				"delivered_at": now,
			})
	}

	c.JSON(http.StatusOK, gin.H{"text_id": textID, "status": status})
}

// Quota reports the caller's monthly usage against their plan
func (h *SmsHandler) Quota(c *gin.Context) {
	session, ok := auth.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var user models.User
	if err := database.GormDB.First(&user, session.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	total, ok := planQuotas[user.Plan]
	if !ok {
		total = planQuotas["basic"]
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	resetDate := monthStart.AddDate(0, 1, 0)

	var used int64
	database.GormDB.Model(&models.SmsMessage{}).
		Where("user_id = ? AND created_at >= ?", user.ID, monthStart).
		Count(&used)

	remaining := total - int(used)
	if remaining < 0 {
		remaining = 0
	}

	c.JSON(http.StatusOK, apimodels.QuotaInfo{
		QuotaTotal:     total,
		QuotaUsed:      int(used),
		QuotaRemaining: remaining,
		ResetDate:      resetDate.Format("2006-01-02"),
	})
}

// History lists the caller's sent messages, newest first
func (h *SmsHandler) History(c *gin.Context) {
	session, ok := auth.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var messages []models.SmsMessage
	if err := database.GormDB.
		Where("user_id = ?", session.UserID).
		Order("created_at desc").
		Limit(200).
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, messages)
}
