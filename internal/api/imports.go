package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"lightsms-gateway/internal/auth"
	"lightsms-gateway/internal/database"
	"lightsms-gateway/internal/models"
	"lightsms-gateway/internal/sms"
	"lightsms-gateway/internal/wizard"
	apimodels "lightsms-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes caps the accepted CSV size at 10 MB.
const maxUploadBytes = 10 << 20

// ImportHandler exposes the three-step bulk-send wizard over HTTP.
type ImportHandler struct {
	Manager *wizard.Manager
	Client  *sms.Client
}

func NewImportHandler(manager *wizard.Manager, client *sms.Client) *ImportHandler {
	return &ImportHandler{Manager: manager, Client: client}
}

// CreateSession starts a wizard session at the upload step
func (h *ImportHandler) CreateSession(c *gin.Context) {
	session := h.Manager.Create()
	c.JSON(http.StatusCreated, session.Snapshot())
}

func (h *ImportHandler) session(c *gin.Context) (*wizard.Session, bool) {
	session, ok := h.Manager.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import session not found"})
		return nil, false
	}
	return session, true
}

// UploadFile attaches the CSV and returns the preview with suggested
// column mapping
func (h *ImportHandler) UploadFile(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if groupName := c.PostForm("group_name"); groupName != "" {
		session.SetGroupName(groupName)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select a CSV file"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	if err := session.AttachFile(fileHeader.Filename, data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

type MappingRequest struct {
	PhoneColumn string `json:"phone_column"`
	NameColumn  string `json:"name_column"`
	GroupName   string `json:"group_name"`
}

// SetMapping overrides the suggested phone and name columns
func (h *ImportHandler) SetMapping(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req MappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.GroupName != "" {
		session.SetGroupName(req.GroupName)
	}
	if err := session.SetMapping(req.PhoneColumn, req.NameColumn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

type ComposeRequest struct {
	CampaignName string `json:"campaign_name"`
	Message      string `json:"message"`
}

// Compose records the campaign name and message template
func (h *ImportHandler) Compose(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session.Compose(req.CampaignName, req.Message)
	c.JSON(http.StatusOK, session.Snapshot())
}

// NextStep advances the wizard; gate failures come back as 400s with
// the inline message
func (h *ImportHandler) NextStep(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Next(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// BackStep returns to the previous step
func (h *ImportHandler) BackStep(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Back(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// GetState returns the session snapshot
func (h *ImportHandler) GetState(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// SendCampaign confirms the send at the review step. On success the
// contact group, its contacts, the campaign and the outcome are
// persisted
func (h *ImportHandler) SendCampaign(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var userID uint
	if s, ok := auth.CurrentSession(c); ok {
		userID = s.UserID
	}

	state := session.Snapshot()

	// Gate before persisting anything so a premature confirm does not
	// leave orphan group and campaign rows behind.
	if wizard.Step(state.Step) != wizard.StepReview {
		c.JSON(http.StatusBadRequest, gin.H{"error": wizard.ErrNotAtReview.Error()})
		return
	}
	if state.ValidCount == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": wizard.ErrNoValidContacts.Error()})
		return
	}
	if state.Sent {
		c.JSON(http.StatusBadRequest, gin.H{"error": wizard.ErrAlreadySent.Error()})
		return
	}

	// A retried confirm (send failure left the session at Review)
	// reuses the rows written the first time round.
	group, campaign, err := h.campaignForSession(userID, session, state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save campaign: " + err.Error()})
		return
	}

	result, err := session.Send(wizard.SenderFunc(func(recipients []apimodels.Recipient, message string) (*apimodels.BulkResult, error) {
		return h.Client.SendBulkForCampaign(campaign.ID, userID, recipients, message)
	}))
	if err != nil {
		database.GormDB.Model(campaign).Update("status", models.CampaignStatusFailed)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	database.GormDB.Model(campaign).Updates(map[string]interface{}{
		"status":       models.CampaignStatusCompleted,
		"completed_at": now,
	})

	c.JSON(http.StatusOK, gin.H{
		"session":  session.Snapshot(),
		"group":    group,
		"campaign": campaign,
		"result":   result,
	})
}

// campaignForSession returns the rows backing the session's confirm:
// the ones recorded on a previous attempt, or a fresh set on the first.
func (h *ImportHandler) campaignForSession(userID uint, session *wizard.Session, state wizard.State) (*models.ContactGroup, *models.Campaign, error) {
	groupID, campaignID := session.Campaign()
	if campaignID != 0 {
		group := &models.ContactGroup{}
		if err := database.GormDB.First(group, groupID).Error; err != nil {
			return nil, nil, err
		}
		campaign := &models.Campaign{}
		if err := database.GormDB.First(campaign, campaignID).Error; err != nil {
			return nil, nil, err
		}
		now := time.Now().UTC()
		if err := database.GormDB.Model(campaign).Updates(map[string]interface{}{
			"status":     models.CampaignStatusInProgress,
			"started_at": now,
		}).Error; err != nil {
			return nil, nil, err
		}
		return group, campaign, nil
	}

	group, campaign, err := h.persistCampaign(userID, session, state)
	if err != nil {
		return nil, nil, err
	}
	session.AttachCampaign(group.ID, campaign.ID)
	return group, campaign, nil
}

// persistCampaign writes the contact group, its contacts and an
// in-progress campaign row before the send starts.
func (h *ImportHandler) persistCampaign(userID uint, session *wizard.Session, state wizard.State) (*models.ContactGroup, *models.Campaign, error) {
	contacts := session.ValidContacts()

	group := &models.ContactGroup{
		UserID:       userID,
		Name:         state.GroupName,
		ContactCount: len(contacts),
	}
	if err := database.GormDB.Create(group).Error; err != nil {
		return nil, nil, err
	}

	for _, contact := range contacts {
		fields := "{}"
		if contact.CustomFields != nil {
			if encoded, err := json.Marshal(contact.CustomFields); err == nil {
				fields = string(encoded)
			}
		}
		record := models.Contact{
			GroupID:      group.ID,
			Phone:        contact.Phone,
			FirstName:    contact.FirstName,
			CustomFields: fields,
		}
		if err := database.GormDB.Create(&record).Error; err != nil {
			log.Printf("Error saving contact %s: %v", contact.Phone, err)
		}
	}

	now := time.Now().UTC()
	campaign := &models.Campaign{
		UserID:    userID,
		GroupID:   group.ID,
		Name:      state.CampaignName,
		Message:   state.Message,
		Status:    models.CampaignStatusInProgress,
		StartedAt: &now,
	}
	if err := database.GormDB.Create(campaign).Error; err != nil {
		return nil, nil, err
	}
	return group, campaign, nil
}

// ResetSession clears the wizard back to the upload step
func (h *ImportHandler) ResetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Reset()
	c.JSON(http.StatusOK, session.Snapshot())
}

// DeleteSession discards the session entirely
func (h *ImportHandler) DeleteSession(c *gin.Context) {
	if _, ok := h.Manager.Get(c.Param("id")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import session not found"})
		return
	}
	h.Manager.Delete(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
