package api

import (
	"net/http"
	"time"

	"lightsms-gateway/internal/database"
	"lightsms-gateway/internal/intel"
	"lightsms-gateway/internal/models"

	"github.com/gin-gonic/gin"
)

type IntelHandler struct {
	Engine *intel.Engine
}

func NewIntelHandler(engine *intel.Engine) *IntelHandler {
	return &IntelHandler{Engine: engine}
}

type SuggestRequest struct {
	Industry  string `json:"industry"`
	Purpose   string `json:"purpose"`
	MaxLength int    `json:"max_length"`
}

// Suggest returns message drafts for an industry and purpose
func (h *IntelHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestions, err := h.Engine.Suggester.Suggest(req.Industry, req.Purpose, req.MaxLength)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

type SendTimeRequest struct {
	GroupID uint   `json:"group_id" binding:"required"`
	Message string `json:"message"`
}

type contactSendTime struct {
	ContactID     uint      `json:"contact_id"`
	Phone         string    `json:"phone"`
	PredictedTime time.Time `json:"predicted_time"`
}

// SendTimes predicts the best delivery moment for each contact in a group
func (h *IntelHandler) SendTimes(c *gin.Context) {
	var req SendTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var contacts []models.Contact
	if err := database.GormDB.Where("group_id = ?", req.GroupID).Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(contacts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No contacts in group"})
		return
	}

	predictions := make([]contactSendTime, 0, len(contacts))
	for _, contact := range contacts {
		predicted, err := h.Engine.Predictor.PredictSendTime(contact, req.Message)
		if err != nil {
			continue
		}
		predictions = append(predictions, contactSendTime{
			ContactID:     contact.ID,
			Phone:         contact.Phone,
			PredictedTime: predicted,
		})
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

type SentimentRequest struct {
	Text string `json:"text" binding:"required"`
}

// Sentiment scores a piece of reply text
func (h *IntelHandler) Sentiment(c *gin.Context) {
	var req SentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sentiment, err := h.Engine.Analyzer.AnalyzeSentiment(req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sentiment)
}
