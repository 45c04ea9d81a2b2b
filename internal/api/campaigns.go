package api

import (
	"net/http"
	"time"

	"lightsms-gateway/internal/auth"
	"lightsms-gateway/internal/database"
	"lightsms-gateway/internal/models"

	"github.com/gin-gonic/gin"
)

type CampaignHandler struct{}

func NewCampaignHandler() *CampaignHandler {
	return &CampaignHandler{}
}

type CampaignRequest struct {
	Name           string     `json:"name" binding:"required"`
	Message        string     `json:"message" binding:"required"`
	GroupID        uint       `json:"group_id" binding:"required"`
	ScheduledTime  *time.Time `json:"scheduled_time"`
	UseOptimalTime bool       `json:"use_optimal_time"`
}

// Create stores a campaign. With a scheduled time it enters the
// scheduler's queue, otherwise it stays a draft
func (h *CampaignHandler) Create(c *gin.Context) {
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var group models.ContactGroup
	if err := database.GormDB.First(&group, req.GroupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact group not found"})
		return
	}

	var userID uint
	if session, ok := auth.CurrentSession(c); ok {
		userID = session.UserID
	}

	status := models.CampaignStatusDraft
	if req.ScheduledTime != nil {
		if req.ScheduledTime.Before(time.Now().UTC()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Scheduled time must be in the future"})
			return
		}
		status = models.CampaignStatusScheduled
	}

	campaign := models.Campaign{
		UserID:         userID,
		GroupID:        req.GroupID,
		Name:           req.Name,
		Message:        req.Message,
		Status:         status,
		ScheduledTime:  req.ScheduledTime,
		UseOptimalTime: req.UseOptimalTime,
	}
	if err := database.GormDB.Create(&campaign).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign"})
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

// List returns the caller's campaigns, newest first
func (h *CampaignHandler) List(c *gin.Context) {
	var userID uint
	if session, ok := auth.CurrentSession(c); ok {
		userID = session.UserID
	}

	var campaigns []models.Campaign
	if err := database.GormDB.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&campaigns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

// Get returns one campaign with its per-message outcomes
func (h *CampaignHandler) Get(c *gin.Context) {
	var campaign models.Campaign
	if err := database.GormDB.First(&campaign, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	var messages []models.SmsMessage
	database.GormDB.Where("campaign_id = ?", campaign.ID).Find(&messages)

	c.JSON(http.StatusOK, gin.H{
		"campaign": campaign,
		"messages": messages,
	})
}

// Groups lists the caller's contact groups
func (h *CampaignHandler) Groups(c *gin.Context) {
	var userID uint
	if session, ok := auth.CurrentSession(c); ok {
		userID = session.UserID
	}

	var groups []models.ContactGroup
	if err := database.GormDB.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&groups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GroupContacts lists the contacts inside one group
func (h *CampaignHandler) GroupContacts(c *gin.Context) {
	var group models.ContactGroup
	if err := database.GormDB.First(&group, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact group not found"})
		return
	}

	var contacts []models.Contact
	if err := database.GormDB.Where("group_id = ?", group.ID).Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"group":    group,
		"contacts": contacts,
	})
}
