package controller

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/database"
	"propertylens_backend/pkg/i18n"
	"propertylens_backend/pkg/llm"
	"propertylens_backend/pkg/utils/jwt"
	"propertylens_backend/pkg/utils/storage"
)

var (
	fixedNow = time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
)

// scriptedModel answers each call with the next reply and records requests.
type scriptedModel struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func (m *scriptedModel) Complete(_ context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

type recordingArchive struct {
	storage.NopArchive
	mu    sync.Mutex
	names []string
}

func (a *recordingArchive) Put(_ context.Context, _ string, fileName string, _ []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names = append(a.names, fileName)
	return "documents/" + fileName, nil
}

func setup(t *testing.T, m llm.Model, archive storage.Archive) *fiber.App {
	t.Helper()
	InitRelayController(RelayDeps{
		Model:      m,
		Configured: m != nil,
		Archive:    archive,
		Now:        func() time.Time { return fixedNow },
	})
	InitAuthController(database.NewFileAccountStore(filepath.Join(t.TempDir(), "users.json")))
	jwt.Init("controller-test-secret", time.Hour)

	app := fiber.New()
	app.Use(requestid.New())
	SetupRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func pdfFile(name string) map[string]string {
	return map[string]string{
		"fileName":  name,
		"pdfBase64": base64.StdEncoding.EncodeToString(pdfBytes),
	}
}

func TestHealthCheck(t *testing.T) {
	app := setup(t, nil, nil)
	status, body := doJSON(t, app, "GET", "/api/health", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Server is running", body["message"])
}

func TestAnalyze(t *testing.T) {
	m := &scriptedModel{replies: []string{"Solid investment."}}
	app := setup(t, m, nil)

	status, body := doJSON(t, app, "POST", "/api/analyze", map[string]string{"prompt": "overview please"}, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Solid investment.", body["content"])
	require.Len(t, m.requests, 1)
	assert.Equal(t, "overview please", m.requests[0].Prompt)
}

func TestAnalyzeRequiresPrompt(t *testing.T) {
	m := &scriptedModel{}
	app := setup(t, m, nil)

	status, body := doJSON(t, app, "POST", "/api/analyze", map[string]string{}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "prompt is required", body["error"])
	assert.Empty(t, m.requests)
}

func TestNotConfigured(t *testing.T) {
	app := setup(t, nil, nil)

	for _, path := range []string{"/api/analyze", "/api/parse-property", "/api/parse-text", "/api/assess-risk", "/api/correct-property"} {
		status, body := doJSON(t, app, "POST", path, map[string]string{}, nil)
		assert.Equal(t, fiber.StatusInternalServerError, status, path)
		assert.Equal(t, i18n.Message("en", i18n.MsgNotConfigured), body["error"], path)
		assert.Equal(t, string(llm.KindNotConfigured), body["kind"], path)
	}
}

func TestUpstreamErrorsAreClassifiedAndLocalized(t *testing.T) {
	m := &scriptedModel{err: &llm.APIError{StatusCode: 429, Message: "rate limited"}}
	app := setup(t, m, nil)

	status, body := doJSON(t, app, "POST", "/api/analyze", map[string]string{"prompt": "x"}, nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, string(llm.KindRateLimit), body["kind"])
	assert.Equal(t, i18n.Message("en", i18n.MsgRateLimit), body["error"])
	assert.Contains(t, body["details"], "rate limited")

	status, body = doJSON(t, app, "POST", "/api/analyze", map[string]string{"prompt": "x"}, map[string]string{"Accept-Language": "ru-RU,ru;q=0.9"})
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, i18n.Message("ru", i18n.MsgRateLimit), body["error"])
}

func TestUnknownUpstreamErrorUsesEndpointMessage(t *testing.T) {
	m := &scriptedModel{err: errors.New("boom")}
	app := setup(t, m, nil)

	_, body := doJSON(t, app, "POST", "/api/assess-risk", map[string]interface{}{"property": map[string]interface{}{"name": "A"}}, nil)
	assert.Equal(t, i18n.Message("en", i18n.MsgRiskFailed), body["error"])
	assert.Equal(t, string(llm.KindUnknown), body["kind"])
}

func TestParseProperty(t *testing.T) {
	m := &scriptedModel{replies: []string{
		`{"isProperty": true, "reason": "sales offer"}`,
		"```json\n{\"name\": \"Olaia Unit 917\", \"location\": null, \"price\": 21712896, \"size\": 4306.32, \"bedrooms\": 2}\n```",
	}}
	app := setup(t, m, nil)

	status, body := doJSON(t, app, "POST", "/api/parse-property", map[string]interface{}{
		"files": []map[string]string{pdfFile("brochure.pdf"), pdfFile("offer.pdf")},
	}, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["filesProcessed"])

	prop := body["property"].(map[string]interface{})
	assert.Equal(t, "Olaia Unit 917", prop["name"])
	assert.Nil(t, prop["location"])
	assert.Equal(t, float64(21712896), prop["price"])

	require.Len(t, m.requests, 2)
	assert.Equal(t, 200, m.requests[0].MaxTokens)
	assert.Len(t, m.requests[0].Documents, 2)
	assert.Contains(t, m.requests[1].Prompt, "brochure.pdf, offer.pdf")
	assert.Equal(t, 4000, m.requests[1].MaxTokens)
}

func TestParsePropertyValidation(t *testing.T) {
	m := &scriptedModel{}
	app := setup(t, m, nil)

	status, _ := doJSON(t, app, "POST", "/api/parse-property", map[string]interface{}{"files": []interface{}{}}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := doJSON(t, app, "POST", "/api/parse-property", map[string]interface{}{
		"files": []map[string]string{{"fileName": "notes.txt", "pdfBase64": base64.StdEncoding.EncodeToString([]byte("plain text"))}},
	}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "notes.txt", body["fileName"])
	assert.Empty(t, m.requests)
}

func TestParsePropertyRejectsNonPropertyDocuments(t *testing.T) {
	m := &scriptedModel{replies: []string{`{"isProperty": false, "reason": "this is a restaurant menu"}`}}
	app := setup(t, m, nil)

	status, body := doJSON(t, app, "POST", "/api/parse-property", map[string]interface{}{
		"files": []map[string]string{pdfFile("menu.pdf")},
	}, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "this is a restaurant menu", body["reason"])
	assert.Len(t, m.requests, 1)
}

func TestParsePropertyUnparseableReply(t *testing.T) {
	m := &scriptedModel{replies: []string{"not json at all", "Sorry, I cannot read this."}}
	app := setup(t, m, nil)

	status, body := doJSON(t, app, "POST", "/api/parse-property", map[string]interface{}{
		"files": []map[string]string{pdfFile("a.pdf")},
	}, nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Sorry, I cannot read this.", body["rawResponse"])
	assert.Equal(t, i18n.Message("en", i18n.MsgUnparseableReply), body["error"])
}

func TestParsePropertyArchivesForEligiblePlans(t *testing.T) {
	replies := func() []string {
		return []string{`{"isProperty": true}`, `{"name": "A"}`}
	}
	body := map[string]interface{}{"files": []map[string]string{pdfFile("offer.pdf")}}

	archive := &recordingArchive{}
	app := setup(t, &scriptedModel{replies: replies()}, archive)
	status, _ := doJSON(t, app, "POST", "/api/parse-property", body, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, archive.names)

	app = setup(t, &scriptedModel{replies: replies()}, archive)
	token, err := jwt.GenerateToken("u1", "a@example.com", "A", "pro")
	require.NoError(t, err)
	status, _ = doJSON(t, app, "POST", "/api/parse-property", body, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"offer.pdf"}, archive.names)
}

func TestParseText(t *testing.T) {
	m := &scriptedModel{replies: []string{
		`{"isProperty": true}`,
		`{"name": "Marina Gate 2BR", "location": "Dubai Marina", "price": 3000000}`,
	}}
	app := setup(t, m, nil)

	status, body := doJSON(t, app, "POST", "/api/parse-text", map[string]string{"text": "2BR in Marina Gate, 3M AED"}, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	prop := body["property"].(map[string]interface{})
	assert.Equal(t, "Dubai Marina", prop["location"])
	assert.Contains(t, m.requests[1].Prompt, "2BR in Marina Gate, 3M AED")

	status, _ = doJSON(t, app, "POST", "/api/parse-text", map[string]string{}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAssessRisk(t *testing.T) {
	m := &scriptedModel{replies: []string{"```json\n" + `{
		"overallRisk": 72,
		"riskLevel": "low",
		"factors": {
			"developer": {"score": 20, "reason": "established"},
			"timeline": {"score": 60, "reason": "long"},
			"price": {"score": 80, "reason": "21712896 is high"},
			"location": {"score": 15, "reason": "prime"},
			"liquidity": {"score": 40, "reason": "ok"}
		},
		"summary": "Elevated risk.",
		"recommendations": ["negotiate"]
	}` + "\n```"}}
	app := setup(t, m, nil)

	prop := model.Property{ID: 1, Name: "Olaia", Location: "Palm Jumeirah", Price: 21712896, Size: 4306, Completion: "Q4 2027", Developer: "Emaar"}
	status, body := doJSON(t, app, "POST", "/api/assess-risk", map[string]interface{}{"property": prop, "language": "ru"}, nil)
	require.Equal(t, fiber.StatusOK, status, body)

	risk := body["risk"].(map[string]interface{})
	assert.Equal(t, float64(72), risk["overallRisk"])
	assert.Equal(t, "high", risk["riskLevel"])

	require.Len(t, m.requests, 1)
	assert.Contains(t, m.requests[0].Prompt, "21712896")
	assert.Contains(t, m.requests[0].Prompt, i18n.Instruction("ru"))
	assert.Contains(t, m.requests[0].Prompt, "Time until completion")
}

func TestAssessRiskRequiresProperty(t *testing.T) {
	app := setup(t, &scriptedModel{}, nil)
	status, body := doJSON(t, app, "POST", "/api/assess-risk", map[string]string{"language": "en"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "property is required", body["error"])
}

func TestCorrectProperty(t *testing.T) {
	m := &scriptedModel{replies: []string{
		`{"updates": {"price": 15000000}, "explanation": "Price updated", "affectsRisk": true, "fieldsChanged": ["price"]}`,
	}}
	app := setup(t, m, nil)

	prop := model.Property{ID: 1, Name: "Olaia", Price: 21712896}
	status, body := doJSON(t, app, "POST", "/api/correct-property", map[string]interface{}{"property": prop, "correction": "price is 15M"}, nil)
	require.Equal(t, fiber.StatusOK, status, body)

	corr := body["correction"].(map[string]interface{})
	assert.Equal(t, true, corr["affectsRisk"])
	assert.Equal(t, float64(15000000), corr["updates"].(map[string]interface{})["price"])
	assert.Contains(t, m.requests[0].Prompt, "price is 15M")
}

func TestCorrectPropertyWithoutUpdates(t *testing.T) {
	m := &scriptedModel{replies: []string{`{"explanation": "Just a comment", "affectsRisk": false}`}}
	app := setup(t, m, nil)

	status, body := doJSON(t, app, "POST", "/api/correct-property", map[string]interface{}{
		"property":   model.Property{Name: "Olaia"},
		"correction": "nice view",
	}, nil)
	require.Equal(t, fiber.StatusOK, status)
	corr := body["correction"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{}, corr["updates"])
	assert.Equal(t, []interface{}{}, corr["fieldsChanged"])
	assert.Equal(t, "Just a comment", corr["explanation"])

	status, _ = doJSON(t, app, "POST", "/api/correct-property", map[string]interface{}{"property": model.Property{}}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRegisterLoginMe(t *testing.T) {
	app := setup(t, nil, nil)

	status, body := doJSON(t, app, "POST", "/api/register", map[string]string{
		"email": "buyer@example.com", "password": "secret1", "name": "Buyer",
	}, nil)
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "free", user["plan"])
	assert.NotContains(t, user, "password")

	status, body = doJSON(t, app, "POST", "/api/register", map[string]string{"email": "buyer@example.com", "password": "secret1"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Email already exists", body["error"])

	status, _ = doJSON(t, app, "POST", "/api/login", map[string]string{"email": "buyer@example.com", "password": "wrong-pass"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = doJSON(t, app, "POST", "/api/login", map[string]string{"email": "buyer@example.com", "password": "secret1"}, nil)
	require.Equal(t, fiber.StatusOK, status)
	token := body["token"].(string)

	status, body = doJSON(t, app, "GET", "/api/me", nil, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "buyer@example.com", body["user"].(map[string]interface{})["email"])
	assert.Contains(t, body, "limits")

	status, _ = doJSON(t, app, "GET", "/api/me", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	app := setup(t, nil, nil)

	status, body := doJSON(t, app, "POST", "/api/register", map[string]string{"email": "not-an-email", "password": "secret1"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "email must be a valid email address", body["error"])

	status, body = doJSON(t, app, "POST", "/api/register", map[string]string{"email": "a@example.com", "password": "123"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "password must be at least 6 characters", body["error"])
}

func TestMeForVanishedAccount(t *testing.T) {
	app := setup(t, nil, nil)
	token, err := jwt.GenerateToken("ghost", "ghost@example.com", "", "free")
	require.NoError(t, err)

	status, _ := doJSON(t, app, "GET", "/api/me", nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, fiber.StatusNotFound, status)
}
