package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatornet/creatornet/internal/config"
	"github.com/creatornet/creatornet/internal/database"
	"github.com/creatornet/creatornet/internal/onboarding"
	"github.com/creatornet/creatornet/internal/server"
	"github.com/creatornet/creatornet/internal/session"
	"github.com/creatornet/creatornet/internal/uploads"
)

type semanticResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		LogLevel:  "error",
		LogFormat: "text",
		HTTPPort:  "0",

		DataDir:   dir,
		DBFile:    "test.db",
		UploadDir: "uploads",

		MaxPhotos:      8,
		MaxUploadBytes: 1 << 20,
		SessionTTL:     time.Hour,

		DefaultSort: "newest",
	}

	db, err := database.NewDB(cfg.DBPath())
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	store := database.NewStore(db, nil)
	sessions := session.NewManager(cfg.SessionTTL, nil)
	saver, err := uploads.NewSaver(cfg.UploadPath(), cfg.MaxUploadBytes)
	require.NoError(t, err)
	onb := onboarding.NewService(store, cfg.MaxPhotos, cfg.SignupVerifiedEditable, nil)

	_, app := server.New(cfg, store, sessions, onb, saver, nil)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, semanticResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(server.SessionHeader, token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var sr semanticResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sr))
	return resp, sr
}

// startSession begins onboarding with a role choice and returns the session
// token issued in the cookie.
func startSession(t *testing.T, app *fiber.App, role string) string {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/v1/onboarding/role",
		bytes.NewReader([]byte(fmt.Sprintf(`{"role":%q}`, role))))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, ck := range resp.Cookies() {
		if ck.Name == server.SessionCookie {
			return ck.Value
		}
	}
	t.Fatal("no session cookie issued")
	return ""
}

func uploadPhoto(t *testing.T, app *fiber.App, token, field, path, filename string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(server.SessionHeader, token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// onboardCreator drives a creator through every wizard step to commit and
// returns the session token and profile id.
func onboardCreator(t *testing.T, app *fiber.App, name string) (string, int64) {
	t.Helper()

	token := startSession(t, app, "Creator")

	resp, _ := doJSON(t, app, "POST", "/api/v1/onboarding/name", token,
		fiber.Map{"display_name": name})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = uploadPhoto(t, app, token, "photos", "/api/v1/onboarding/photos", "one.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	steps := []fiber.Map{
		{}, // photos gate, nothing to submit
		{"niche": "Fitness", "content_types": []string{"Fitness"}, "bio": "daily workouts"},
		{"location_current": "Warsaw", "location_hometown": "Krakow"},
		{"platform_handle": "@" + name, "platform_url": "https://example.com/" + name},
		{"personality": "Friendly (warm tone, supportive)"},
		{"consent": true},
	}

	var sr semanticResponse
	for _, body := range steps {
		resp, sr = doJSON(t, app, "POST", "/api/v1/onboarding/step", token, body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "step failed: %s", sr.Message)
	}

	var state struct {
		Step      string `json:"step"`
		ProfileID int64  `json:"profile_id"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &state))
	require.Equal(t, string(onboarding.StepCommitted), state.Step)
	require.NotZero(t, state.ProfileID)
	return token, state.ProfileID
}

// onboardAgency drives an agency through every wizard step to commit.
func onboardAgency(t *testing.T, app *fiber.App, name string) (string, int64) {
	t.Helper()

	token := startSession(t, app, "Agency")

	resp, _ := doJSON(t, app, "POST", "/api/v1/onboarding/name", token,
		fiber.Map{"display_name": name})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	steps := []fiber.Map{
		{"agency_name": name, "website": "https://" + name + ".example", "location": "Berlin", "niche": "Fitness"},
		{"success_story": "grew a client 3x in a year", "bio": "boutique team"},
		{"services": []string{"Account strategy"}, "specialties": []string{"Fitness"}},
		{"payment_model": "Commission-based", "commission_band": "15–20%"},
	}

	var sr semanticResponse
	for _, body := range steps {
		resp, sr = doJSON(t, app, "POST", "/api/v1/onboarding/step", token, body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "step failed: %s", sr.Message)
	}

	var state struct {
		ProfileID int64 `json:"profile_id"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &state))
	require.NotZero(t, state.ProfileID)
	return token, state.ProfileID
}

func TestHealth(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp, sr := doJSON(t, app, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, server.MessageOK, sr.Message)
}

func TestOnboardingRequiresSession(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "GET", "/api/v1/onboarding/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/onboarding/name", "", fiber.Map{"display_name": "Luna"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreatorOnboardingFlow(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	token, profileID := onboardCreator(t, app, "Luna")

	resp, sr := doJSON(t, app, "GET", "/api/v1/profiles/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		ID             int64  `json:"id"`
		DisplayName    string `json:"display_name"`
		Verified       bool   `json:"verified"`
		SelfieUploaded bool   `json:"selfie_uploaded"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &me))
	assert.Equal(t, profileID, me.ID)
	assert.Equal(t, "Luna", me.DisplayName)
	assert.False(t, me.Verified, "verified must stay locked at signup")
}

func TestValidationFailureKeepsStep(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	token := startSession(t, app, "Agency")
	_, _ = doJSON(t, app, "POST", "/api/v1/onboarding/name", token, fiber.Map{"display_name": "Stellar"})

	// Missing website blocks the identity step with a 422 and field details.
	resp, sr := doJSON(t, app, "POST", "/api/v1/onboarding/step", token,
		fiber.Map{"agency_name": "Stellar"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var data struct {
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &data))
	assert.Equal(t, "website", data.Field)

	// The wizard did not advance.
	_, sr = doJSON(t, app, "GET", "/api/v1/onboarding/", token, nil)
	var state struct {
		Step string `json:"step"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &state))
	assert.Equal(t, string(onboarding.StepAgencyIdentity), state.Step)
}

func TestPhoneNumberBlockedInAgencyProof(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	token := startSession(t, app, "Agency")
	_, _ = doJSON(t, app, "POST", "/api/v1/onboarding/name", token, fiber.Map{"display_name": "Stellar"})
	_, _ = doJSON(t, app, "POST", "/api/v1/onboarding/step", token,
		fiber.Map{"website": "https://stellar.example"})

	resp, _ := doJSON(t, app, "POST", "/api/v1/onboarding/step", token,
		fiber.Map{"success_story": "text us at 555-123-4567"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBrowseShowsOppositeRoleOnly(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	creatorToken, _ := onboardCreator(t, app, "Luna")
	_, _ = onboardAgency(t, app, "stellar")

	resp, sr := doJSON(t, app, "GET", "/api/v1/browse", creatorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		TargetType string `json:"target_type"`
		Profiles   []struct {
			AccountType string `json:"account_type"`
			Title       string `json:"title"`
		} `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &page))
	assert.Equal(t, "Agency", page.TargetType)
	require.Len(t, page.Profiles, 1)
	assert.Equal(t, "Agency", page.Profiles[0].AccountType)
	assert.Equal(t, "stellar", page.Profiles[0].Title)

	// Filters that match nothing return an empty page, not an error.
	resp, sr = doJSON(t, app, "GET", "/api/v1/browse?q=nonexistent", creatorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(sr.Data, &page))
	assert.Empty(t, page.Profiles)

	// Browsing before commit is rejected.
	fresh := startSession(t, app, "Creator")
	resp, _ = doJSON(t, app, "GET", "/api/v1/browse", fresh, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMessagingRoundTrip(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	creatorToken, creatorID := onboardCreator(t, app, "Luna")
	agencyToken, agencyID := onboardAgency(t, app, "stellar")

	resp, _ := doJSON(t, app, "POST", "/api/v1/messages", creatorToken,
		fiber.Map{"receiver_id": agencyID, "body": "hi there"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/messages", agencyToken,
		fiber.Map{"receiver_id": creatorID, "body": "hello Luna"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Empty body is a validation failure.
	resp, _ = doJSON(t, app, "POST", "/api/v1/messages", creatorToken,
		fiber.Map{"receiver_id": agencyID, "body": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Both parties see the exchange newest first with directions.
	resp, sr := doJSON(t, app, "GET", "/api/v1/messages/inbox", creatorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var inbox []struct {
		Direction string `json:"direction"`
		OtherID   int64  `json:"other_id"`
		Body      string `json:"body"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &inbox))
	require.Len(t, inbox, 2)
	assert.Equal(t, "hello Luna", inbox[0].Body)
	assert.Equal(t, "from", inbox[0].Direction)
	assert.Equal(t, agencyID, inbox[0].OtherID)
	assert.Equal(t, "to", inbox[1].Direction)

	// Picking a target while browsing prefills the compose form; sending
	// clears it again.
	resp, _ = doJSON(t, app, "POST", "/api/v1/messages/compose", creatorToken,
		fiber.Map{"receiver_id": agencyID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, sr = doJSON(t, app, "GET", "/api/v1/messages/compose", creatorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var compose struct {
		ComposeTo int64 `json:"compose_to"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &compose))
	assert.Equal(t, agencyID, compose.ComposeTo)

	resp, _ = doJSON(t, app, "POST", "/api/v1/messages", creatorToken,
		fiber.Map{"receiver_id": agencyID, "body": "following up"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, sr = doJSON(t, app, "GET", "/api/v1/messages/compose", creatorToken, nil)
	require.NoError(t, json.Unmarshal(sr.Data, &compose))
	assert.Zero(t, compose.ComposeTo)

	resp, sr = doJSON(t, app, "GET", "/api/v1/messages/conversations", agencyToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var convs []struct {
		OtherID  int64  `json:"other_id"`
		LastBody string `json:"last_body"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, creatorID, convs[0].OtherID)
	assert.Equal(t, "following up", convs[0].LastBody)
}

func TestConnectionsEndpoint(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	creatorToken, _ := onboardCreator(t, app, "Luna")
	agencyToken, agencyID := onboardAgency(t, app, "stellar")

	resp, _ := doJSON(t, app, "POST", "/api/v1/connections", creatorToken,
		fiber.Map{"profile_id": agencyID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// One-sided insertion is enough: both sides list the connection.
	for _, token := range []string{creatorToken, agencyToken} {
		resp, sr := doJSON(t, app, "GET", "/api/v1/connections", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var conns []struct {
			OtherID int64 `json:"other_id"`
		}
		require.NoError(t, json.Unmarshal(sr.Data, &conns))
		require.Len(t, conns, 1)
	}

	// Self-connection is rejected.
	resp, _ = doJSON(t, app, "POST", "/api/v1/connections", agencyToken,
		fiber.Map{"profile_id": agencyID})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpsertOnRepeatOnboarding(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	_, firstID := onboardCreator(t, app, "Luna")

	// Same identity onboards again in a new session: same profile row.
	_, secondID := onboardCreator(t, app, "Luna")
	assert.Equal(t, firstID, secondID)

	// Same name as an agency is an independent profile.
	_, agencyID := onboardAgency(t, app, "Luna")
	assert.NotEqual(t, firstID, agencyID)
}

func TestEditProfileReentersWizard(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	token, _ := onboardCreator(t, app, "Luna")

	resp, sr := doJSON(t, app, "POST", "/api/v1/onboarding/edit", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state struct {
		Step  string `json:"step"`
		Draft struct {
			Niche  string   `json:"niche"`
			Photos []string `json:"photos"`
		} `json:"draft"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &state))
	assert.Equal(t, string(onboarding.StepCreatorPhotos), state.Step)
	assert.Equal(t, "Fitness", state.Draft.Niche)
	assert.NotEmpty(t, state.Draft.Photos)
}

func TestServeUploadUnknownFile(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/uploads/missing.png", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadPhotosWrongStep(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	// Photos belong to the creator flow only.
	token := startSession(t, app, "Agency")
	_, _ = doJSON(t, app, "POST", "/api/v1/onboarding/name", token, fiber.Map{"display_name": "Stellar"})

	resp := uploadPhoto(t, app, token, "photos", "/api/v1/onboarding/photos", "one.png")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSelfieUpload(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	token := startSession(t, app, "Creator")
	_, _ = doJSON(t, app, "POST", "/api/v1/onboarding/name", token, fiber.Map{"display_name": "Luna"})
	_ = uploadPhoto(t, app, token, "photos", "/api/v1/onboarding/photos", "one.png")

	steps := []fiber.Map{
		{},
		{"niche": "Fitness", "content_types": []string{"Fitness"}},
		{"location_current": "Warsaw"},
		{"platform_url": "https://example.com/luna"},
		{"personality": "Friendly (warm tone, supportive)"},
	}
	for _, body := range steps {
		resp, sr := doJSON(t, app, "POST", "/api/v1/onboarding/step", token, body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "step failed: %s", sr.Message)
	}

	resp := uploadPhoto(t, app, token, "selfie", "/api/v1/onboarding/selfie", "selfie.jpg")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Commit and confirm the selfie flag landed on the profile.
	resp, _ = doJSON(t, app, "POST", "/api/v1/onboarding/step", token, fiber.Map{"consent": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, sr := doJSON(t, app, "GET", "/api/v1/profiles/me", token, nil)
	var me struct {
		SelfieUploaded bool `json:"selfie_uploaded"`
	}
	require.NoError(t, json.Unmarshal(sr.Data, &me))
	assert.True(t, me.SelfieUploaded)
}

func TestSignOutEndsSession(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	token, _ := onboardCreator(t, app, "Luna")

	resp, _ := doJSON(t, app, "POST", "/api/v1/session/signout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/v1/profiles/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
