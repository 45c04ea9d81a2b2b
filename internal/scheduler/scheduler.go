package scheduler

import (
	"log"
	"time"

	"gorm.io/gorm"

	"lightsms-gateway/internal/intel"
	"lightsms-gateway/internal/models"
	apimodels "lightsms-gateway/pkg/models"
)

// Sender is the outbound side the dispatcher needs. Satisfied by
// *sms.Client.
type Sender interface {
	SendBulkForCampaign(campaignID, userID uint, recipients []apimodels.Recipient, message string) (*apimodels.BulkResult, error)
}

// Dispatcher polls for scheduled campaigns that have come due and
// sends them. One campaign is dispatched at a time; claiming it via a
// status transition keeps a retried poll from double-sending.
type Dispatcher struct {
	DB        *gorm.DB
	Sender    Sender
	Predictor intel.SendTimePredictor // optional; serves use_optimal_time campaigns
	Interval  time.Duration

	stop chan struct{}
}

func NewDispatcher(db *gorm.DB, sender Sender, predictor intel.SendTimePredictor) *Dispatcher {
	return &Dispatcher{
		DB:        db,
		Sender:    sender,
		Predictor: predictor,
		Interval:  30 * time.Second,
		stop:      make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called.
func (d *Dispatcher) Start() {
	log.Printf("Campaign scheduler started (interval %s)", d.Interval)
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.RunOnce()
		case <-d.stop:
			log.Println("Campaign scheduler stopped")
			return
		}
	}
}

func (d *Dispatcher) Stop() {
	close(d.stop)
}

// RunOnce dispatches every campaign that is due right now.
func (d *Dispatcher) RunOnce() {
	var due []models.Campaign
	err := d.DB.
		Where("status = ? AND scheduled_time IS NOT NULL AND scheduled_time <= ?", models.CampaignStatusScheduled, time.Now().UTC()).
		Find(&due).Error
	if err != nil {
		log.Printf("Error querying due campaigns: %v", err)
		return
	}

	for i := range due {
		d.dispatch(&due[i])
	}
}

func (d *Dispatcher) dispatch(campaign *models.Campaign) {
	now := time.Now().UTC()

	// Claim the campaign. The WHERE on status makes the claim atomic:
	// zero rows affected means another poll got there first.
	claim := d.DB.Model(&models.Campaign{}).
		Where("id = ? AND status = ?", campaign.ID, models.CampaignStatusScheduled).
		Updates(map[string]interface{}{"status": models.CampaignStatusInProgress, "started_at": now})
	if claim.Error != nil {
		log.Printf("Error claiming campaign %d: %v", campaign.ID, claim.Error)
		return
	}
	if claim.RowsAffected == 0 {
		return
	}

	log.Printf("Dispatching campaign %d (%s)", campaign.ID, campaign.Name)

	var contacts []models.Contact
	if err := d.DB.Where("group_id = ?", campaign.GroupID).Find(&contacts).Error; err != nil {
		log.Printf("Error loading contacts for campaign %d: %v", campaign.ID, err)
		d.finish(campaign.ID, models.CampaignStatusFailed)
		return
	}
	if len(contacts) == 0 {
		log.Printf("Campaign %d has no contacts, marking failed", campaign.ID)
		d.finish(campaign.ID, models.CampaignStatusFailed)
		return
	}

	if campaign.UseOptimalTime && d.Predictor != nil {
		if d.deferToOptimalTime(campaign, contacts) {
			return
		}
	}

	recipients := make([]apimodels.Recipient, len(contacts))
	for i, contact := range contacts {
		recipients[i] = apimodels.Recipient{Phone: contact.Phone}
	}

	result, err := d.Sender.SendBulkForCampaign(campaign.ID, campaign.UserID, recipients, campaign.Message)
	if err != nil {
		log.Printf("Error sending campaign %d: %v", campaign.ID, err)
		d.finish(campaign.ID, models.CampaignStatusFailed)
		return
	}

	log.Printf("Campaign %d complete: %d sent, %d failed", campaign.ID, result.TotalSent, result.TotalFailed)
	if result.TotalSent == 0 {
		d.finish(campaign.ID, models.CampaignStatusFailed)
		return
	}
	d.finish(campaign.ID, models.CampaignStatusCompleted)
}

// deferToOptimalTime reschedules the campaign to the earliest predicted
// engagement time among its contacts. The flag is consumed on deferral
// so the campaign sends when the new time comes due instead of
// deferring again.
func (d *Dispatcher) deferToOptimalTime(campaign *models.Campaign, contacts []models.Contact) bool {
	var earliest time.Time
	for _, contact := range contacts {
		predicted, err := d.Predictor.PredictSendTime(contact, campaign.Message)
		if err != nil {
			continue
		}
		if earliest.IsZero() || predicted.Before(earliest) {
			earliest = predicted
		}
	}
	if earliest.IsZero() {
		return false
	}

	err := d.DB.Model(&models.Campaign{}).
		Where("id = ?", campaign.ID).
		Updates(map[string]interface{}{
			"status":           models.CampaignStatusScheduled,
			"scheduled_time":   earliest,
			"use_optimal_time": false,
		}).Error
	if err != nil {
		log.Printf("Error deferring campaign %d: %v", campaign.ID, err)
		return false
	}
	log.Printf("Campaign %d deferred to optimal send time %s", campaign.ID, earliest.Format(time.RFC3339))
	return true
}

func (d *Dispatcher) finish(campaignID uint, status string) {
	now := time.Now().UTC()
	err := d.DB.Model(&models.Campaign{}).
		Where("id = ?", campaignID).
		Updates(map[string]interface{}{"status": status, "completed_at": now}).Error
	if err != nil {
		log.Printf("Error finishing campaign %d: %v", campaignID, err)
	}
}
