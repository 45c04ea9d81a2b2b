package webhook

import (
	"log"
	"net/http"

	"lightsms-gateway/internal/intel"
	"lightsms-gateway/internal/models"
	"lightsms-gateway/internal/ws"
	apimodels "lightsms-gateway/pkg/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler receives inbound reply callbacks from the SMS provider.
type Handler struct {
	DB       *gorm.DB
	Analyzer intel.SentimentAnalyzer
	Events   *ws.Hub
}

func NewHandler(db *gorm.DB, analyzer intel.SentimentAnalyzer, events *ws.Hub) *Handler {
	return &Handler{
		DB:       db,
		Analyzer: analyzer,
		Events:   events,
	}
}

// HandleReply records an inbound reply, linking it to the outbound
// message it answers when the provider's text id is known.
func (h *Handler) HandleReply(c *gin.Context) {
	var payload apimodels.ReplyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("Error binding reply payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	if payload.FromNumber == "" || payload.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fromNumber and text are required"})
		return
	}

	response := models.MessageResponse{
		Phone:        payload.FromNumber,
		ResponseText: payload.Text,
	}

	// Replies arrive with the text id of the message they answer.
	// An unknown id still gets recorded, just unlinked.
	if payload.TextID != "" {
		var msg models.SmsMessage
		if err := h.DB.Where("external_id = ?", payload.TextID).First(&msg).Error; err == nil {
			response.MessageID = msg.ID
		} else if err != gorm.ErrRecordNotFound {
			log.Printf("Error looking up message for reply: %v", err)
		}
	}

	if h.Analyzer != nil {
		sentiment, err := h.Analyzer.AnalyzeSentiment(payload.Text)
		if err != nil {
			log.Printf("Error analyzing reply sentiment: %v", err)
		} else {
			response.SentimentScore = sentiment.Score
		}
	}

	if err := h.DB.Create(&response).Error; err != nil {
		log.Printf("Error saving reply: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save reply"})
		return
	}

	log.Printf("Received reply from %s: %s", payload.FromNumber, payload.Text)

	if h.Events != nil {
		h.Events.BroadcastEvent("reply_received", response)
	}

	c.JSON(http.StatusOK, gin.H{"status": "received", "id": response.ID})
}

// ListReplies returns stored replies, newest first.
func (h *Handler) ListReplies(c *gin.Context) {
	var replies []models.MessageResponse
	if err := h.DB.Order("created_at desc").Limit(100).Find(&replies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load replies"})
		return
	}
	c.JSON(http.StatusOK, replies)
}
