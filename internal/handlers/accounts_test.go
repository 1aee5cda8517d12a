package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prudhvinik1/customer-service/internal/logging"
	"github.com/prudhvinik1/customer-service/internal/mailer"
	"github.com/prudhvinik1/customer-service/internal/metrics"
	"github.com/prudhvinik1/customer-service/internal/models"
	"github.com/prudhvinik1/customer-service/internal/repositories"
	"github.com/prudhvinik1/customer-service/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type published struct {
	channel string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{channel: channel, payload: payload})
	return p.err
}

type testServer struct {
	router    http.Handler
	repo      *repositories.MemoryAccountRepository
	mail      *recordingMailer
	publisher *recordingPublisher
	reported  []error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		repo:      repositories.NewMemoryAccountRepository(),
		mail:      &recordingMailer{},
		publisher: &recordingPublisher{},
	}
	tokens := services.NewTokenService("test-secret", 0)
	svc := services.NewAccountService(ts.repo, tokens, ts.mail)
	reporter := logging.ReporterFunc(func(ctx context.Context, err error, args ...any) {
		ts.reported = append(ts.reported, err)
	})
	h := NewHandler(svc, tokens, ts.publisher, logging.Discard(), reporter, metrics.Nop(), Config{
		ShoppingChannel: "SHOPPING_SERVICE",
	})
	ts.router = h.Routes()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// signUpAndLogin registers an account and returns its id and session token.
func (ts *testServer) signUpAndLogin(t *testing.T, email, password string) (uuid.UUID, string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/signup", map[string]string{
		"email": email, "password": password, "phone": "555-0100",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res services.SignInResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.ID, res.Token
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

func TestSignUpAndLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "a@b.com", "password": "pw123456", "phone": "555-0100",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Signup successful, please verify your email.", decodeMessage(t, rec))
	require.Len(t, ts.mail.sent, 1)
	assert.Equal(t, "a@b.com", ts.mail.sent[0].To)

	rec = ts.do(t, http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "pw123456"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res["id"])
	assert.NotEmpty(t, res["token"])
}

func TestSignUp_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.signUpAndLogin(t, "a@b.com", "pw123456")

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"duplicate email", map[string]string{"email": "a@b.com", "password": "pw123456", "phone": "555-0100"}, http.StatusConflict},
		{"bad email", map[string]string{"email": "nope", "password": "pw123456", "phone": "555-0100"}, http.StatusBadRequest},
		{"short password", map[string]string{"email": "c@d.com", "password": "pw", "phone": "555-0100"}, http.StatusBadRequest},
		{"missing phone", map[string]string{"email": "c@d.com", "password": "pw123456"}, http.StatusBadRequest},
		{"bad phone", map[string]string{"email": "c@d.com", "password": "pw123456", "phone": "call me"}, http.StatusBadRequest},
		{"not json", "just a string", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/signup", tc.body, "")
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeMessage(t, rec))
		})
	}
	assert.Empty(t, ts.reported, "domain errors are not reported")
}

func TestLogin_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.signUpAndLogin(t, "a@b.com", "pw123456")

	rec := ts.do(t, http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "wrong-pw"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password does not match", decodeMessage(t, rec))

	rec = ts.do(t, http.MethodPost, "/login", map[string]string{"email": "x@b.com", "password": "pw123456"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedRoutes_RequireBearer(t *testing.T) {
	ts := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/address"},
		{http.MethodGet, "/profile"},
		{http.MethodPut, "/profile"},
		{http.MethodDelete, "/profile"},
		{http.MethodPost, "/change-password"},
	}
	for _, route := range routes {
		rec := ts.do(t, route.method, route.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)

		rec = ts.do(t, route.method, route.path, nil, "garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
	assert.Empty(t, ts.reported)
}

func TestProfileLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.signUpAndLogin(t, "a@b.com", "pw123456")

	rec := ts.do(t, http.MethodPost, "/address", map[string]string{
		"street": "1 Main St", "postalCode": "10001", "city": "NYC", "country": "US",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPut, "/profile", map[string]any{"firstName": "Jane", "notAField": "x"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/profile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile models.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, "Jane", profile.FirstName)
	require.Len(t, profile.Addresses, 1)
	assert.Equal(t, "1 Main St", profile.Addresses[0].Street)

	raw := rec.Body.String()
	assert.NotContains(t, raw, "notAField")
	for _, secret := range []string{"password", "salt", "verifyToken", "resetToken"} {
		assert.NotContains(t, strings.ToLower(raw), strings.ToLower(secret), "profile must not expose %s", secret)
	}

	rec = ts.do(t, http.MethodPost, "/address", map[string]string{"street": "no city"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProfile_ValidatesFields(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signUpAndLogin(t, "a@b.com", "pw123456")

	invalid := []map[string]any{
		{"phone": "not a phone"},
		{"phone": ""},
		{"firstName": strings.Repeat("x", maxNameLength+1)},
		{"lastName": strings.Repeat("x", maxNameLength+1)},
		{"lastName": 42},
	}
	for _, body := range invalid {
		rec := ts.do(t, http.MethodPut, "/profile", body, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %v", body)
	}

	stored, err := ts.repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", stored.Phone, "rejected updates leave the profile untouched")

	rec := ts.do(t, http.MethodPut, "/profile", map[string]any{"phone": "+1 212-555-0100", "ignored": 42}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile models.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "+1 212-555-0100", profile.Phone)
}

func TestLogin_MalformedSaltIsReported(t *testing.T) {
	ts := newTestServer(t)
	ts.signUpAndLogin(t, "a@b.com", "pw123456")

	account, err := ts.repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	account.Salt = "zz-not-hex"
	require.NoError(t, ts.repo.Update(context.Background(), account))

	rec := ts.do(t, http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "pw123456"}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), decodeMessage(t, rec))
	assert.Len(t, ts.reported, 1)
}

func TestDecode_BodyTooLargeClosesConnection(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	body := `{"email":"` + strings.Repeat("a", maxBodyBytes) + `","password":"pw123456"}`
	resp, err := http.Post(srv.URL+"/login", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, resp.Close, "server should close the connection after an oversized body")
}

func TestChangePassword(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signUpAndLogin(t, "a@b.com", "pw123456")

	rec := ts.do(t, http.MethodPost, "/change-password", map[string]string{
		"currentPassword": "wrong-pw", "newPassword": "new-password",
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/change-password", map[string]string{
		"currentPassword": "pw123456", "newPassword": "new-password",
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password changed successfully", decodeMessage(t, rec))

	rec = ts.do(t, http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "new-password"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "pw123456"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProfile_PublishesEvent(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.signUpAndLogin(t, "a@b.com", "pw123456")

	rec := ts.do(t, http.MethodDelete, "/profile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var deleted models.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, id, deleted.ID)

	require.Len(t, ts.publisher.events, 1)
	assert.Equal(t, "SHOPPING_SERVICE", ts.publisher.events[0].channel)
	event, ok := ts.publisher.events[0].payload.(models.DeletionEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventDeleteProfile, event.Event)
	assert.Equal(t, id, event.Data.AccountID)

	rec = ts.do(t, http.MethodGet, "/profile", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProfile_PublishFailureIsReported(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signUpAndLogin(t, "a@b.com", "pw123456")
	ts.publisher.err = errors.New("redis down")

	rec := ts.do(t, http.MethodDelete, "/profile", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code, "publishing is fire-and-forget")
	require.Len(t, ts.reported, 1)
	assert.EqualError(t, ts.reported[0], "redis down")
}

func TestVerifyEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.signUpAndLogin(t, "a@b.com", "pw123456")

	account, err := ts.repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, account.VerifyToken)

	rec := ts.do(t, http.MethodGet, "/verify/"+*account.VerifyToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email verified successfully", decodeMessage(t, rec))

	rec = ts.do(t, http.MethodGet, "/verify/"+*account.VerifyToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.signUpAndLogin(t, "a@b.com", "pw123456")

	rec := ts.do(t, http.MethodPost, "/forgot-password", map[string]string{"email": "nobody@b.com"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/forgot-password", map[string]string{"email": "a@b.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	account, err := ts.repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, account.ResetToken)

	rec = ts.do(t, http.MethodPost, "/reset-password", map[string]string{"token": "bogus", "password": "new-password"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/reset-password", map[string]string{"token": *account.ResetToken, "password": "new-password"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/login", map[string]string{"email": "a@b.com", "password": "new-password"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWhoAmI(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/whoami", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/customer : I am Customer Service", body["msg"])
}
