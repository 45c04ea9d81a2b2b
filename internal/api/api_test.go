package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lightsms-gateway/internal/auth"
	"lightsms-gateway/internal/config"
	"lightsms-gateway/internal/database"
	"lightsms-gateway/internal/models"
	"lightsms-gateway/internal/sms"
	"lightsms-gateway/internal/wizard"
)

type testEnv struct {
	router   *gin.Engine
	provider *httptest.Server
	sms      *sms.Client
}

// setupEnv wires a full router against an in-memory database and a fake
// SMS provider that accepts everything.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// The in-memory database exists per connection; keep the pool at one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.GormDB = db
	t.Cleanup(func() { database.GormDB = nil })

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": true, "textId": 99}`)
	}))
	t.Cleanup(provider.Close)

	cfg := &config.Config{
		TextBeltAPIURL:  provider.URL,
		TextBeltAPIKey:  "test-key",
		JWTSecret:       "test-secret",
		TokenTTLMinutes: 30,
	}

	authService := auth.NewService(cfg)
	smsClient := sms.NewClient(cfg)

	authHandler := NewAuthHandler(authService)
	smsHandler := NewSmsHandler(smsClient)
	importHandler := NewImportHandler(wizard.NewManager(), smsClient)
	campaignHandler := NewCampaignHandler()
	pricingHandler := NewPricingHandler()

	r := gin.New()
	r.POST("/token", authHandler.Login)
	r.POST("/users", authHandler.Signup)
	r.GET("/pricing", pricingHandler.Plans)

	apiGroup := r.Group("/", authService.RequireAuth())
	apiGroup.GET("/users/me", authHandler.Me)
	apiGroup.POST("/sms/send", smsHandler.Send)
	apiGroup.GET("/sms/quota", smsHandler.Quota)
	apiGroup.POST("/imports", importHandler.CreateSession)
	apiGroup.GET("/imports/:id", importHandler.GetState)
	apiGroup.POST("/imports/:id/file", importHandler.UploadFile)
	apiGroup.PUT("/imports/:id/compose", importHandler.Compose)
	apiGroup.POST("/imports/:id/next", importHandler.NextStep)
	apiGroup.POST("/imports/:id/send", importHandler.SendCampaign)
	apiGroup.POST("/campaigns", campaignHandler.Create)
	apiGroup.GET("/campaigns", campaignHandler.List)

	return &testEnv{router: r, provider: provider, sms: smsClient}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return e.do(t, method, path, token, bytes.NewBuffer(payload), "application/json")
}

func (e *testEnv) signupAndLogin(t *testing.T) string {
	t.Helper()
	w := e.doJSON(t, http.MethodPost, "/users", "", gin.H{
		"email":     "ana@example.com",
		"password":  "hunter22",
		"full_name": "Ana Example",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	form := url.Values{"username": {"ana@example.com"}, "password": {"hunter22"}}
	w = e.do(t, http.MethodPost, "/token", "", bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func TestSignupLoginMe(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	w := env.do(t, http.MethodGet, "/users/me", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "basic", user.Plan)
	assert.NotContains(t, w.Body.String(), "hashed_password")
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := setupEnv(t)
	env.signupAndLogin(t)

	w := env.doJSON(t, http.MethodPost, "/users", "", gin.H{
		"email":    "ana@example.com",
		"password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupEnv(t)
	env.signupAndLogin(t)

	form := url.Values{"username": {"ana@example.com"}, "password": {"wrong"}}
	w := env.do(t, http.MethodPost, "/token", "", bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	env := setupEnv(t)
	w := env.do(t, http.MethodGet, "/users/me", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Not authenticated")
}

func TestQuotaForFreshAccount(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	w := env.do(t, http.MethodGet, "/sms/quota", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var quota struct {
		QuotaTotal     int `json:"quota_total"`
		QuotaUsed      int `json:"quota_used"`
		QuotaRemaining int `json:"quota_remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quota))
	assert.Equal(t, 1000, quota.QuotaTotal)
	assert.Equal(t, 0, quota.QuotaUsed)
	assert.Equal(t, 1000, quota.QuotaRemaining)
}

func TestPricingIsPublic(t *testing.T) {
	env := setupEnv(t)
	w := env.do(t, http.MethodGet, "/pricing", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var plans []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	require.Len(t, plans, 3)
	assert.Equal(t, "basic", plans[0].ID)
	assert.Equal(t, "enterprise", plans[2].ID)
}

func uploadCSV(t *testing.T, env *testEnv, token, sessionID, groupName, csv string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("group_name", groupName))
	part, err := mw.CreateFormFile("file", "contacts.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return env.do(t, http.MethodPost, "/imports/"+sessionID+"/file", token, &buf, mw.FormDataContentType())
}

func TestImportWizardEndToEnd(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	// Create the session.
	w := env.do(t, http.MethodPost, "/imports", token, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var state wizard.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	sessionID := state.ID

	// Upload: column inference kicks in.
	w = uploadCSV(t, env, token, sessionID, "Spring leads",
		"Phone,Name,City\n12125550134,Ana,NY\n12345,Bo,LA\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "Phone", state.PhoneColumn)
	assert.Equal(t, "Name", state.NameColumn)

	// Advance to compose, fill it in, advance to review.
	w = env.do(t, http.MethodPost, "/imports/"+sessionID+"/next", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.doJSON(t, http.MethodPut, "/imports/"+sessionID+"/compose", token, gin.H{
		"campaign_name": "Spring promo",
		"message":       "Hi {firstName}, your code for {City} is ready",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/imports/"+sessionID+"/next", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 1, state.ValidCount)
	assert.Equal(t, 1, state.InvalidCount)
	assert.Equal(t, "Hi Ana, your code for NY is ready", state.MessagePreview)

	// Confirm the send.
	w = env.do(t, http.MethodPost, "/imports/"+sessionID+"/send", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sent struct {
		Result struct {
			TotalSent   int `json:"total_sent"`
			TotalFailed int `json:"total_failed"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))
	assert.Equal(t, 1, sent.Result.TotalSent)
	assert.Equal(t, 0, sent.Result.TotalFailed)

	// Group, contacts and campaign were persisted.
	var group models.ContactGroup
	require.NoError(t, database.GormDB.First(&group).Error)
	assert.Equal(t, "Spring leads", group.Name)
	assert.Equal(t, 1, group.ContactCount)

	var contact models.Contact
	require.NoError(t, database.GormDB.First(&contact).Error)
	assert.Equal(t, "12125550134", contact.Phone)
	assert.Equal(t, "Ana", contact.FirstName)
	assert.Contains(t, contact.CustomFields, `"City":"NY"`)

	var campaign models.Campaign
	require.NoError(t, database.GormDB.First(&campaign).Error)
	assert.Equal(t, "Spring promo", campaign.Name)
	assert.Equal(t, models.CampaignStatusCompleted, campaign.Status)
}

// sessionAtReview walks a fresh wizard session to the review step.
func sessionAtReview(t *testing.T, env *testEnv, token string) string {
	t.Helper()

	w := env.do(t, http.MethodPost, "/imports", token, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var state wizard.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	sessionID := state.ID

	w = uploadCSV(t, env, token, sessionID, "Spring leads",
		"Phone,Name,City\n12125550134,Ana,NY\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, "/imports/"+sessionID+"/next", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.doJSON(t, http.MethodPut, "/imports/"+sessionID+"/compose", token, gin.H{
		"campaign_name": "Spring promo",
		"message":       "Hi {firstName}",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/imports/"+sessionID+"/next", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return sessionID
}

func countRows(t *testing.T) (groups, campaigns, contacts int64) {
	t.Helper()
	database.GormDB.Model(&models.ContactGroup{}).Count(&groups)
	database.GormDB.Model(&models.Campaign{}).Count(&campaigns)
	database.GormDB.Model(&models.Contact{}).Count(&contacts)
	return groups, campaigns, contacts
}

func TestImportConfirmCannotBeRepeated(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)
	sessionID := sessionAtReview(t, env, token)

	w := env.do(t, http.MethodPost, "/imports/"+sessionID+"/send", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A second confirm must neither resend nor write new rows.
	w = env.do(t, http.MethodPost, "/imports/"+sessionID+"/send", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already been sent")

	groups, campaigns, contacts := countRows(t)
	assert.Equal(t, int64(1), groups)
	assert.Equal(t, int64(1), campaigns)
	assert.Equal(t, int64(1), contacts)
}

func TestImportConfirmRetryReusesPersistedRows(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)
	sessionID := sessionAtReview(t, env, token)

	// First confirm fails before reaching the provider.
	env.sms.APIKey = ""
	w := env.do(t, http.MethodPost, "/imports/"+sessionID+"/send", token, nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	groups, campaigns, contacts := countRows(t)
	require.Equal(t, int64(1), campaigns)
	var failed models.Campaign
	require.NoError(t, database.GormDB.First(&failed).Error)
	assert.Equal(t, models.CampaignStatusFailed, failed.Status)

	// The retry succeeds and reuses the rows from the first attempt.
	env.sms.APIKey = "test-key"
	w = env.do(t, http.MethodPost, "/imports/"+sessionID+"/send", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	groups, campaigns, contacts = countRows(t)
	assert.Equal(t, int64(1), groups)
	assert.Equal(t, int64(1), campaigns)
	assert.Equal(t, int64(1), contacts)

	var retried models.Campaign
	require.NoError(t, database.GormDB.First(&retried).Error)
	assert.Equal(t, models.CampaignStatusCompleted, retried.Status)
}

func TestSingleSendCountsAgainstQuota(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	var user models.User
	require.NoError(t, database.GormDB.First(&user).Error)

	w := env.doJSON(t, http.MethodPost, "/sms/send", token, gin.H{
		"recipients": []gin.H{{"phone": "12125550134"}},
		"message":    "hello",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The message log is written off the request path.
	require.Eventually(t, func() bool {
		var count int64
		database.GormDB.Model(&models.SmsMessage{}).Where("user_id = ?", user.ID).Count(&count)
		return count == 1
	}, time.Second, 10*time.Millisecond)

	w = env.do(t, http.MethodGet, "/sms/quota", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var quota struct {
		QuotaUsed      int `json:"quota_used"`
		QuotaRemaining int `json:"quota_remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quota))
	assert.Equal(t, 1, quota.QuotaUsed)
	assert.Equal(t, 999, quota.QuotaRemaining)
}

func TestImportSendBeforeReviewIsRejected(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	w := env.do(t, http.MethodPost, "/imports", token, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var state wizard.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))

	w = env.do(t, http.MethodPost, "/imports/"+state.ID+"/send", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Nothing was persisted by the premature confirm.
	var count int64
	database.GormDB.Model(&models.Campaign{}).Count(&count)
	assert.Zero(t, count)
}

func TestImportWizardGateMessagesSurfaceAs400s(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	w := env.do(t, http.MethodPost, "/imports", token, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var state wizard.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))

	w = env.do(t, http.MethodPost, "/imports/"+state.ID+"/next", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select a CSV file")

	w = uploadCSV(t, env, token, state.ID, "", "Phone\n\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "The CSV file appears to be empty")
}

func TestUnknownImportSessionReturns404(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	w := env.do(t, http.MethodGet, "/imports/nope", token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCampaignCreateAndList(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	group := models.ContactGroup{Name: "leads", ContactCount: 1}
	require.NoError(t, database.GormDB.Create(&group).Error)

	w := env.doJSON(t, http.MethodPost, "/campaigns", token, gin.H{
		"name":     "Draft run",
		"message":  "hello",
		"group_id": group.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var campaign models.Campaign
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &campaign))
	assert.Equal(t, models.CampaignStatusDraft, campaign.Status)

	w = env.do(t, http.MethodGet, "/campaigns", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var campaigns []models.Campaign
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &campaigns))
	require.Len(t, campaigns, 1)
	assert.Equal(t, "Draft run", campaigns[0].Name)
}

func TestCampaignCreateRejectsPastSchedule(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	group := models.ContactGroup{Name: "leads"}
	require.NoError(t, database.GormDB.Create(&group).Error)

	w := env.doJSON(t, http.MethodPost, "/campaigns", token, gin.H{
		"name":           "Too late",
		"message":        "hello",
		"group_id":       group.ID,
		"scheduled_time": "2020-01-01T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "future")
}

func TestCampaignCreateUnknownGroup(t *testing.T) {
	env := setupEnv(t)
	token := env.signupAndLogin(t)

	w := env.doJSON(t, http.MethodPost, "/campaigns", token, gin.H{
		"name":     "Orphan",
		"message":  "hello",
		"group_id": 12345,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	database.GormDB.Model(&models.Campaign{}).Count(&count)
	assert.Zero(t, count)
}
