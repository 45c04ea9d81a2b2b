package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName       string    `gorm:"type:varchar(255)" json:"full_name"`
	HashedPassword string    `gorm:"type:varchar(255);not null" json:"-"`
	Plan           string    `gorm:"type:varchar(20);default:'basic'" json:"plan"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// ContactGroup represents a named list of imported contacts
type ContactGroup struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index" json:"user_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	ContactCount int       `gorm:"default:0" json:"contact_count"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ContactGroup) TableName() string {
	return "contact_groups"
}

// Contact represents an imported recipient
type Contact struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GroupID      uint      `gorm:"index" json:"group_id"`
	Phone        string    `gorm:"type:varchar(50);not null" json:"phone"`
	FirstName    string    `gorm:"type:varchar(255)" json:"first_name"`
	CustomFields string    `gorm:"type:text" json:"custom_fields"` // JSON object of extra columns
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Campaign represents a named bulk send
type Campaign struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index" json:"user_id"`
	GroupID        uint       `gorm:"index" json:"group_id"`
	Name           string     `gorm:"type:varchar(255);not null" json:"name"`
	Message        string     `gorm:"type:text" json:"message"`
	Status         string     `gorm:"type:varchar(20);default:'draft'" json:"status"`
	ScheduledTime  *time.Time `json:"scheduled_time"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	UseOptimalTime bool       `gorm:"default:false" json:"use_optimal_time"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// Campaign status lifecycle
const (
	CampaignStatusDraft      = "draft"
	CampaignStatusScheduled  = "scheduled"
	CampaignStatusInProgress = "in_progress"
	CampaignStatusCompleted  = "completed"
	CampaignStatusFailed     = "failed"
)

// SmsMessage represents an outbound SMS
type SmsMessage struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CampaignID  uint       `gorm:"index" json:"campaign_id"`
	UserID      uint       `gorm:"index" json:"user_id"`
	Recipient   string     `gorm:"type:varchar(50);not null" json:"recipient"`
	Content     string     `gorm:"type:text" json:"content"`
	Status      string     `gorm:"type:varchar(20)" json:"status"`
	ExternalID  string     `gorm:"type:varchar(255);index" json:"external_id"` // TextBelt text id
	Error       string     `gorm:"type:text" json:"error"`
	SentAt      *time.Time `json:"sent_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (SmsMessage) TableName() string {
	return "sms_messages"
}

// Message status values
const (
	MessageStatusSent      = "sent"
	MessageStatusFailed    = "failed"
	MessageStatusDelivered = "delivered"
)

// MessageResponse represents an inbound reply to a sent message
type MessageResponse struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	MessageID      uint      `gorm:"index" json:"message_id"`
	Phone          string    `gorm:"type:varchar(50)" json:"phone"`
	ResponseText   string    `gorm:"type:text" json:"response_text"`
	SentimentScore float64   `json:"sentiment_score"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MessageResponse) TableName() string {
	return "message_responses"
}

// SystemSetting stores configuration values synced from the environment
type SystemSetting struct {
	Key   string `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}
