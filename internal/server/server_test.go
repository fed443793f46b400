package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rootify-backend/internal/auth"
	"rootify-backend/internal/config"
	"rootify-backend/internal/identity"
	"rootify-backend/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		StoreDriver:    config.StoreDriverMemory,
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		SessionTTL:     time.Hour,
		CORSOrigins:    "*",
		PasswordSignup: true,
		BodyLimitMB:    50,
		Gemini:         config.GeminiConfig{Model: "gemini-2.5-pro"},
	}
	deps, closeFn, err := Build(context.Background(), cfg, logging.Discard(), identity.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })
	return New(deps)
}

type result struct {
	status int
	body   []byte
	resp   *http.Response
}

func (r result) json(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r result) errorMessage(t *testing.T) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	r.json(t, &out)
	return out.Error
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any) result {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) result {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return result{status: resp.StatusCode, body: raw, resp: resp}
}

func register(t *testing.T, app *fiber.App, email, role string, extra map[string]string) {
	t.Helper()
	body := map[string]string{"email": email, "password": "secret1", "role": role}
	for k, v := range extra {
		body[k] = v
	}
	res := do(t, app, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
}

func login(t *testing.T, app *fiber.App, email, role string) string {
	t.Helper()
	res := do(t, app, http.MethodPost, "/api/auth/login/"+role, "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	var out struct {
		Token string `json:"token"`
		Route string `json:"route"`
	}
	res.json(t, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "grower@example.com", "user", map[string]string{"name": "ignored"})

	res := do(t, app, http.MethodPost, "/api/auth/login/admin", "", map[string]string{"email": "grower@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "Not an admin account.", res.errorMessage(t))

	res = do(t, app, http.MethodPost, "/api/auth/login/user", "", map[string]string{"email": "grower@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = do(t, app, http.MethodPost, "/api/auth/login/user", "", map[string]string{"email": "grower@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, res.status)
	var out struct {
		Token string `json:"token"`
		Route string `json:"route"`
	}
	res.json(t, &out)
	assert.Equal(t, "/user.html", out.Route)

	var cookie *http.Cookie
	for _, c := range res.resp.Cookies() {
		if c.Name == auth.SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// the cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: cookie.Value})
	me := send(t, app, req)
	require.Equal(t, http.StatusOK, me.status)
	var meOut struct {
		Role string `json:"role"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	me.json(t, &meOut)
	assert.Equal(t, "user", meOut.Role)
	assert.Equal(t, "", meOut.User.Name)

	assert.Equal(t, http.StatusOK, do(t, app, http.MethodPost, "/api/auth/logout", out.Token, nil).status)
	assert.Equal(t, http.StatusUnauthorized, do(t, app, http.MethodGet, "/api/auth/me", out.Token, nil).status)
}

func TestRegisterErrors(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "a@example.com", "user", nil)

	res := do(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "a@example.com", "password": "secret1", "role": "admin"})
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, "This email is already in use. Try signing in or resetting your password.", res.errorMessage(t))

	res = do(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "b@example.com", "password": "123", "role": "user"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "The password is too weak. Please choose a stronger password.", res.errorMessage(t))

	res = do(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "b@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Please fill all fields.", res.errorMessage(t))
}

func TestAttributedRecords(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "ada@example.com", "admin", map[string]string{"name": "Ada", "phone_number": "555-0101", "region": "Rift"})
	register(t, app, "bo@example.com", "admin", nil)
	register(t, app, "cy@example.com", "user", nil)
	ada := login(t, app, "ada@example.com", "admin")
	bo := login(t, app, "bo@example.com", "admin")
	cy := login(t, app, "cy@example.com", "user")

	res := do(t, app, http.MethodPost, "/api/admin/soil-types", ada, map[string]any{
		"name": "Loam", "pH": 6.5, "nutrients": "High", "waterRetention": "Medium", "recommendedCrops": "maize, beans",
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var soil map[string]any
	res.json(t, &soil)
	id := soil["id"].(string)
	assert.Equal(t, "Ada", soil["addedByAdminName"])
	assert.Equal(t, "555-0101", soil["addedByAdminPhoneNumber"])
	assert.Equal(t, []any{"maize", "beans"}, soil["recommendedCrops"])

	res = do(t, app, http.MethodPost, "/api/admin/distributors", bo, map[string]any{"name": "Agro Supply", "contact": "agro@example.com"})
	require.Equal(t, http.StatusCreated, res.status)
	var dist map[string]any
	res.json(t, &dist)
	assert.Equal(t, "bo@example.com", dist["addedByAdminName"])
	assert.Equal(t, "N/A", dist["addedByAdminPhoneNumber"])

	// users read everything, write nothing
	var all []map[string]any
	res = do(t, app, http.MethodGet, "/api/soil-types", cy, nil)
	require.Equal(t, http.StatusOK, res.status)
	res.json(t, &all)
	assert.Len(t, all, 1)
	assert.Equal(t, http.StatusForbidden, do(t, app, http.MethodPost, "/api/admin/soil-types", cy, map[string]any{"name": "x"}).status)
	assert.Equal(t, http.StatusUnauthorized, do(t, app, http.MethodGet, "/api/soil-types", "", nil).status)

	var mine []map[string]any
	do(t, app, http.MethodGet, "/api/admin/soil-types", bo, nil).json(t, &mine)
	assert.Empty(t, mine)

	assert.Equal(t, http.StatusForbidden, do(t, app, http.MethodDelete, "/api/admin/soil-types/"+id, bo, nil).status)
	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodDelete, "/api/admin/soil-types/missing", ada, nil).status)
	assert.Equal(t, http.StatusNoContent, do(t, app, http.MethodDelete, "/api/admin/soil-types/"+id, ada, nil).status)

	var logs []map[string]any
	res = do(t, app, http.MethodGet, "/api/admin/audit-logs?entity_type=soil_type", ada, nil)
	require.Equal(t, http.StatusOK, res.status)
	res.json(t, &logs)
	require.Len(t, logs, 2)
	assert.Equal(t, "delete", logs[0]["action"])
}

func TestImportSpreadsheet(t *testing.T) {
	app := newTestApp(t)
	register(t, app, "ada@example.com", "admin", nil)
	ada := login(t, app, "ada@example.com", "admin")

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"Name", "Contact", "Location"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"Agro Supply", "0700", "Nakuru"}))
	xlsx, err := book.WriteToBuffer()
	require.NoError(t, err)
	_ = book.Close()

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("file", "distributors.xlsx")
	require.NoError(t, err)
	_, err = io.Copy(fw, xlsx)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/distributors/import", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ada)
	res := send(t, app, req)
	require.Equal(t, http.StatusOK, res.status, string(res.body))

	var out struct {
		Imported int `json:"imported"`
	}
	res.json(t, &out)
	assert.Equal(t, 1, out.Imported)
}

func TestFederatedDisabledAndHealth(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodGet, "/api/auth/federated/login?role=admin", "", nil).status)
	assert.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/health", "", nil).status)
}

func TestAskGeminiWithoutKey(t *testing.T) {
	app := newTestApp(t)
	res := do(t, app, http.MethodPost, "/ask-gemini", "", map[string]any{
		"contents": []any{map[string]any{"parts": []any{map[string]any{"text": "hi"}}}},
	})
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Equal(t, "Server configuration error: Gemini API Key is not set.", res.errorMessage(t))
}
