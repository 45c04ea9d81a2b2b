package models

// Recipient is the wire shape for a single bulk-send target
type Recipient struct {
	Phone string `json:"phone"`
}

// SendResult is the response for a single outbound SMS
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TextID  string `json:"text_id,omitempty"`
}

// RecipientResult is the per-recipient outcome within a bulk send
type RecipientResult struct {
	Phone   string `json:"phone"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	TextID  string `json:"text_id,omitempty"`
}

// BulkResult aggregates the outcome of a bulk send
type BulkResult struct {
	TotalSent   int               `json:"total_sent"`
	TotalFailed int               `json:"total_failed"`
	Results     []RecipientResult `json:"results"`
}

// ReplyPayload represents the incoming JSON payload from the TextBelt
// reply webhook
type ReplyPayload struct {
	TextID     string `json:"textId"`
	FromNumber string `json:"fromNumber"`
	Text       string `json:"text"`
}

// QuotaInfo reports per-plan monthly quota usage
type QuotaInfo struct {
	QuotaTotal     int    `json:"quota_total"`
	QuotaUsed      int    `json:"quota_used"`
	QuotaRemaining int    `json:"quota_remaining"`
	ResetDate      string `json:"reset_date"`
}

// PricingPlan describes a subscription tier
type PricingPlan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}
