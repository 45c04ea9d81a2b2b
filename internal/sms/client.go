package sms

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lightsms-gateway/internal/config"
	"lightsms-gateway/internal/database"
	"lightsms-gateway/internal/models"
	"lightsms-gateway/internal/ws"
	apimodels "lightsms-gateway/pkg/models"
)

// Client talks to the TextBelt HTTP API. The API key is injected at
// construction time rather than read from ambient state.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Events  *ws.Hub // optional; bulk sends broadcast progress when set
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.TextBeltAPIURL, "/"),
		APIKey:  cfg.TextBeltAPIKey,
		HTTP:    &http.Client{},
	}
}

// textBeltResponse is the provider's send acknowledgement.
type textBeltResponse struct {
	Success        bool        `json:"success"`
	TextID         json.Number `json:"textId"`
	QuotaRemaining int         `json:"quotaRemaining"`
	Error          string      `json:"error"`
}

// statusResponse is the provider's delivery status payload.
type statusResponse struct {
	Status string `json:"status"`
}

func (c *Client) postForm(path string, form url.Values) ([]byte, error) {
	resp, err := c.HTTP.PostForm(c.BaseURL+path, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return body, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}
	return body, nil
}

// SendSingle sends one SMS and logs the attempt.
func (c *Client) SendSingle(phone, message string) (*apimodels.SendResult, error) {
	return c.SendSingleForUser(0, phone, message)
}

// SendSingleForUser is SendSingle with message-log attribution to a
// user, so the send counts against that user's quota and history.
func (c *Client) SendSingleForUser(userID uint, phone, message string) (*apimodels.SendResult, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("TextBelt API key not configured")
	}

	body, err := c.postForm("/text", url.Values{
		"phone":   {phone},
		"message": {message},
		"key":     {c.APIKey},
	})
	if err != nil {
		return nil, err
	}

	var tb textBeltResponse
	if err := json.Unmarshal(body, &tb); err != nil {
		return nil, fmt.Errorf("invalid provider response: %w", err)
	}

	result := &apimodels.SendResult{
		Success: tb.Success,
		Message: resultMessage(tb),
		TextID:  tb.TextID.String(),
	}

	c.logMessage(0, userID, phone, message, tb)

	return result, nil
}

// SendBulk sends the message to every recipient in order, one request
// per recipient, and aggregates the per-recipient outcomes. A provider
// rejection for one recipient does not abort the rest.
func (c *Client) SendBulk(recipients []apimodels.Recipient, message string) (*apimodels.BulkResult, error) {
	return c.SendBulkForCampaign(0, 0, recipients, message)
}

// SendBulkForCampaign is SendBulk with message-log attribution to a
// campaign and user.
func (c *Client) SendBulkForCampaign(campaignID, userID uint, recipients []apimodels.Recipient, message string) (*apimodels.BulkResult, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("TextBelt API key not configured")
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	result := &apimodels.BulkResult{Results: make([]apimodels.RecipientResult, 0, len(recipients))}

	for _, recipient := range recipients {
		rr := apimodels.RecipientResult{Phone: recipient.Phone}

		body, err := c.postForm("/text", url.Values{
			"phone":   {recipient.Phone},
			"message": {message},
			"key":     {c.APIKey},
		})
		if err != nil {
			rr.Success = false
			rr.Message = "Failed to send SMS: " + err.Error()
			result.TotalFailed++
		} else {
			var tb textBeltResponse
			if err := json.Unmarshal(body, &tb); err != nil {
				rr.Success = false
				rr.Message = "invalid provider response"
				result.TotalFailed++
			} else {
				rr.Success = tb.Success
				rr.Message = resultMessage(tb)
				rr.TextID = tb.TextID.String()
				if tb.Success {
					result.TotalSent++
				} else {
					result.TotalFailed++
				}
				c.logMessage(campaignID, userID, recipient.Phone, message, tb)
			}
		}

		result.Results = append(result.Results, rr)
		if c.Events != nil {
			c.Events.BroadcastEvent("send_progress", rr)
		}
	}

	if c.Events != nil {
		c.Events.BroadcastEvent("send_complete", result)
	}

	return result, nil
}

// Status queries delivery status for a previously sent message.
func (c *Client) Status(textID string) (string, error) {
	resp, err := c.HTTP.Get(fmt.Sprintf("%s/status/%s?key=%s", c.BaseURL, url.PathEscape(textID), url.QueryEscape(c.APIKey)))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var st statusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		return "", fmt.Errorf("invalid provider response: %w", err)
	}
	return st.Status, nil
}

func resultMessage(tb textBeltResponse) string {
	if tb.Success {
		return "Message sent"
	}
	if tb.Error != "" {
		return tb.Error
	}
	return "Unknown error"
}

// logMessage records the outbound message. Fire and forget, the send
// path never blocks on the database.
func (c *Client) logMessage(campaignID, userID uint, phone, content string, tb textBeltResponse) {
	db := database.GormDB
	if db == nil {
		return
	}
	status := models.MessageStatusSent
	if !tb.Success {
		status = models.MessageStatusFailed
	}
	now := time.Now().UTC()
	msg := models.SmsMessage{
		CampaignID: campaignID,
		UserID:     userID,
		Recipient:  phone,
		Content:    content,
		Status:     status,
		ExternalID: tb.TextID.String(),
		Error:      tb.Error,
		SentAt:     &now,
	}
	go func() {
		db.Create(&msg)
	}()
}
