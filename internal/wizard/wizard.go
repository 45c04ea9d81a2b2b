package wizard

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"lightsms-gateway/internal/importer"
	apimodels "lightsms-gateway/pkg/models"
)

// Step identifies the wizard stage. Steps only advance through Next's
// validation gates; Back is always allowed except from Upload.
type Step int

const (
	StepUpload Step = iota + 1
	StepCompose
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepCompose:
		return "compose"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// previewRows is how many data rows the upload step parses for the
// column-mapping preview. Validation later re-reads the whole file.
const previewRows = 5

// Gate failures carry the exact inline messages shown to the user.
var (
	ErrNoFile          = errors.New("Please select a CSV file")
	ErrNoPhoneColumn   = errors.New("Please select a phone number column")
	ErrNoGroupName     = errors.New("Please enter a contact group name")
	ErrNoMessage       = errors.New("Please enter a message")
	ErrNoCampaignName  = errors.New("Please enter a campaign name")
	ErrAtFirstStep     = errors.New("already at the first step")
	ErrAtLastStep      = errors.New("already at the last step")
	ErrNotAtReview     = errors.New("send is only available at the review step")
	ErrNoValidContacts = errors.New("no valid contacts to send to")
	ErrSendInFlight    = errors.New("a send is already in progress")
	ErrAlreadySent     = errors.New("this campaign has already been sent")
	ErrUnknownColumn   = errors.New("selected column is not in the file")
)

// Sender is the outbound messaging collaborator invoked at confirmation.
type Sender interface {
	SendBulk(recipients []apimodels.Recipient, message string) (*apimodels.BulkResult, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(recipients []apimodels.Recipient, message string) (*apimodels.BulkResult, error)

func (f SenderFunc) SendBulk(recipients []apimodels.Recipient, message string) (*apimodels.BulkResult, error) {
	return f(recipients, message)
}

// Session is one user's pass through the three-step bulk-send wizard.
// All state is owned by the session and guarded by its mutex.
type Session struct {
	ID string

	mu           sync.Mutex
	step         Step
	fileName     string
	fileData     []byte
	groupName    string
	campaignName string
	message      string
	headers      []string
	preview      *importer.Dataset
	mapping      importer.ColumnMapping
	result       *importer.ImportResult
	sendResult   *apimodels.BulkResult
	groupID      uint
	campaignID   uint
	sent         bool
	sending      bool
}

func NewSession(id string) *Session {
	return &Session{ID: id, step: StepUpload}
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// SetGroupName records the contact-group name gathered at the upload step.
func (s *Session) SetGroupName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupName = name
}

// AttachFile parses the preview slice of the uploaded file, stores the
// raw bytes for the later full pass, and auto-suggests the phone and
// name columns from the headers.
func (s *Session) AttachFile(name string, data []byte) error {
	preview, err := importer.ParsePreview(data, previewRows)
	if err != nil {
		if errors.Is(err, importer.ErrEmptyFile) {
			return fmt.Errorf("The CSV file appears to be empty")
		}
		return fmt.Errorf("File parsing failed: %v", err)
	}

	phoneCol, nameCol := importer.InferColumns(preview.Headers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileName = name
	s.fileData = data
	s.preview = preview
	s.headers = preview.Headers
	s.mapping = importer.ColumnMapping{PhoneColumn: phoneCol, NameColumn: nameCol}
	s.result = nil
	return nil
}

// SetMapping overrides the suggested column mapping. The phone column
// must be one of the file's headers; the name column may be empty.
func (s *Session) SetMapping(phoneColumn, nameColumn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if phoneColumn != "" && !s.hasHeader(phoneColumn) {
		return ErrUnknownColumn
	}
	if nameColumn != "" && !s.hasHeader(nameColumn) {
		return ErrUnknownColumn
	}
	s.mapping = importer.ColumnMapping{PhoneColumn: phoneColumn, NameColumn: nameColumn}
	return nil
}

func (s *Session) hasHeader(name string) bool {
	for _, h := range s.headers {
		if h == name {
			return true
		}
	}
	return false
}

// Compose records the campaign name and message template.
func (s *Session) Compose(campaignName, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaignName = campaignName
	s.message = message
}

// Next advances the wizard one step when the current step's gates pass.
// Moving from Compose to Review runs the full-file validation pass.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepUpload:
		if s.fileData == nil {
			return ErrNoFile
		}
		if s.mapping.PhoneColumn == "" {
			return ErrNoPhoneColumn
		}
		if s.groupName == "" {
			return ErrNoGroupName
		}
		s.step = StepCompose
		return nil

	case StepCompose:
		if strings.TrimSpace(s.message) == "" {
			return ErrNoMessage
		}
		if strings.TrimSpace(s.campaignName) == "" {
			return ErrNoCampaignName
		}
		full, err := importer.Parse(s.fileData)
		if err != nil {
			return fmt.Errorf("Error processing CSV: %v", err)
		}
		s.result = importer.Partition(full, s.mapping)
		s.step = StepReview
		return nil

	default:
		return ErrAtLastStep
	}
}

// Back returns to the previous step. Not permitted from Upload.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepUpload {
		return ErrAtFirstStep
	}
	s.step--
	return nil
}

// Send invokes the messaging collaborator with the full valid-contact
// list. The gateway receives the original template text; per-contact
// personalization feeds the review preview only. A failure leaves the
// session at Review so the user can retry without re-entering data.
func (s *Session) Send(sender Sender) (*apimodels.BulkResult, error) {
	s.mu.Lock()
	if s.step != StepReview || s.result == nil {
		s.mu.Unlock()
		return nil, ErrNotAtReview
	}
	if s.sent {
		s.mu.Unlock()
		return nil, ErrAlreadySent
	}
	if len(s.result.Valid) == 0 {
		s.mu.Unlock()
		return nil, ErrNoValidContacts
	}
	if s.sending {
		s.mu.Unlock()
		return nil, ErrSendInFlight
	}
	s.sending = true
	recipients := make([]apimodels.Recipient, 0, len(s.result.Valid))
	for _, contact := range s.result.Valid {
		recipients = append(recipients, apimodels.Recipient{Phone: contact.Phone})
	}
	message := s.message
	s.mu.Unlock()

	result, err := sender.SendBulk(recipients, message)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	if err != nil {
		return nil, err
	}
	s.sendResult = result
	s.sent = true
	return result, nil
}

// Reset clears every accumulated field and returns to Upload.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = StepUpload
	s.fileName = ""
	s.fileData = nil
	s.groupName = ""
	s.campaignName = ""
	s.message = ""
	s.headers = nil
	s.preview = nil
	s.mapping = importer.ColumnMapping{}
	s.result = nil
	s.sendResult = nil
	s.groupID = 0
	s.campaignID = 0
	s.sent = false
	s.sending = false
}

// AttachCampaign records the persisted group and campaign rows backing
// this session. A retried confirm reuses them instead of writing
// duplicates.
func (s *Session) AttachCampaign(groupID, campaignID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupID = groupID
	s.campaignID = campaignID
}

// Campaign returns the ids recorded by AttachCampaign; zero before the
// first confirm.
func (s *Session) Campaign() (groupID, campaignID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupID, s.campaignID
}

// ValidContacts returns the validated contacts, or nil before Review.
func (s *Session) ValidContacts() []importer.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	return s.result.Valid
}

// PreviewMessage renders the current template against the first preview
// row, exactly the way the final per-contact rendering would.
func (s *Session) PreviewMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview == nil || len(s.preview.Rows) == 0 {
		return s.message
	}
	return importer.PreviewMessage(s.message, s.preview.Rows[0], s.mapping.NameColumn)
}

// State is a read-only snapshot of the session for API responses.
type State struct {
	ID             string                `json:"id"`
	Step           int                   `json:"step"`
	StepName       string                `json:"step_name"`
	GroupName      string                `json:"group_name"`
	CampaignName   string                `json:"campaign_name"`
	Message        string                `json:"message"`
	FileName       string                `json:"file_name,omitempty"`
	Headers        []string              `json:"headers,omitempty"`
	PhoneColumn    string                `json:"phone_column,omitempty"`
	NameColumn     string                `json:"name_column,omitempty"`
	PreviewRows    []*importer.Row       `json:"preview_rows,omitempty"`
	MessagePreview string                `json:"message_preview,omitempty"`
	ValidContacts  []importer.Contact    `json:"valid_contacts,omitempty"`
	InvalidRows    []importer.InvalidRow `json:"invalid_rows,omitempty"`
	ValidCount     int                   `json:"valid_count"`
	InvalidCount   int                   `json:"invalid_count"`
	GroupID        uint                  `json:"group_id,omitempty"`
	CampaignID     uint                  `json:"campaign_id,omitempty"`
	Sent           bool                  `json:"sent"`
	SendResult     *apimodels.BulkResult `json:"send_result,omitempty"`
}

// Snapshot captures the session state for serialization.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		ID:           s.ID,
		Step:         int(s.step),
		StepName:     s.step.String(),
		GroupName:    s.groupName,
		CampaignName: s.campaignName,
		Message:      s.message,
		FileName:     s.fileName,
		Headers:      s.headers,
		PhoneColumn:  s.mapping.PhoneColumn,
		NameColumn:   s.mapping.NameColumn,
		GroupID:      s.groupID,
		CampaignID:   s.campaignID,
		Sent:         s.sent,
		SendResult:   s.sendResult,
	}
	if s.preview != nil {
		state.PreviewRows = s.preview.Rows
		if len(s.preview.Rows) > 0 && s.message != "" {
			state.MessagePreview = importer.PreviewMessage(s.message, s.preview.Rows[0], s.mapping.NameColumn)
		}
	}
	if s.result != nil {
		state.ValidContacts = s.result.Valid
		state.InvalidRows = s.result.Invalid
		state.ValidCount = len(s.result.Valid)
		state.InvalidCount = len(s.result.Invalid)
	}
	return state
}
