package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/MailPilot/MP-Backend/internal/auth"
	"github.com/MailPilot/MP-Backend/internal/db"
	"github.com/MailPilot/MP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

// testServer is the shared httptest server for all integration tests.
var testServer *httptest.Server

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up from
	// internal/auth/).
	_ = godotenv.Load("../../.env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// No database available — skip all integration tests gracefully.
		os.Exit(m.Run())
	}

	db.Connect(databaseURL)
	dbAvailable = true

	// Set up auth tables (idempotent).
	auth.Init()

	tokens := auth.NewTokenManager("integration-test-secret", time.Hour)
	svc := auth.NewService(db.DB, tokens, 24*time.Hour)
	handler := auth.NewHandler(svc)
	guard := middleware.AuthGuard(tokens, auth.NewSessionInfo(svc))

	// Mount routes the way main.go does.
	r := chi.NewRouter()
	r.Mount("/public", auth.PublicRoutes(handler))
	r.Group(func(private chi.Router) {
		private.Use(guard)
		private.Mount("/auth", auth.Routes(handler))
	})

	testServer = httptest.NewServer(r)
	defer testServer.Close()

	os.Exit(m.Run())
}

func requireDB(t *testing.T) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
}

// signupPayload returns a unique, valid signup body and registers cleanup
// for the rows it will create.
func signupPayload(t *testing.T) map[string]string {
	t.Helper()

	email := fmt.Sprintf("it_%s@example.com", uuid.New().String()[:8])
	t.Cleanup(func() {
		db.DB.Exec(`DELETE FROM login_sessions WHERE user_id IN (SELECT id FROM users WHERE email = ?)`, email)
		db.DB.Exec(`DELETE FROM user_passwords WHERE email = ?`, email)
		db.DB.Exec(`DELETE FROM users WHERE email = ?`, email)
	})

	return map[string]string{
		"first_name":       "Integration",
		"last_name":        "Test",
		"email":            email,
		"phone":            fmt.Sprintf("80%s", uuid.New().String()[:8]),
		"gender":           "female",
		"new_password":     "TestPass123!",
		"confirm_password": "TestPass123!",
	}
}

func postJSON(t *testing.T, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()

	raw, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, testServer.URL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func patchJSON(t *testing.T, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPatch, testServer.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, path, token string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, testServer.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("invalid JSON body: %s", raw)
	}
	return body
}

func signupAndToken(t *testing.T, payload map[string]string) string {
	t.Helper()

	resp, body := postJSON(t, "/public/signup", payload, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup failed: %d %v", resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("signup response carried no token")
	}
	return token
}

func errorCodeOf(body map[string]any) int {
	code, _ := body["error_code"].(float64)
	return int(code)
}

// TestSignupAndMe verifies that signup issues a working token: the /auth/me
// endpoint returns the created user.
func TestSignupAndMe(t *testing.T) {
	requireDB(t)
	payload := signupPayload(t)
	token := signupAndToken(t, payload)

	resp, body := getJSON(t, "/auth/me", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d %v", resp.StatusCode, body)
	}
	user := body["data"].(map[string]any)
	if user["email"] != payload["email"] {
		t.Errorf("expected email %q, got %v", payload["email"], user["email"])
	}
}

// TestDuplicateEmail verifies that signing up twice with the same email
// returns the duplicate-email code.
func TestDuplicateEmail(t *testing.T) {
	requireDB(t)
	payload := signupPayload(t)
	signupAndToken(t, payload)

	payload["phone"] = fmt.Sprintf("81%s", uuid.New().String()[:8])
	resp, body := postJSON(t, "/public/signup", payload, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", resp.StatusCode, body)
	}
	if code := errorCodeOf(body); code != 5 {
		t.Errorf("expected duplicate-email code 5, got %d", code)
	}
}

// TestLoginWrongPassword verifies the invalid-login code for a bad password.
func TestLoginWrongPassword(t *testing.T) {
	requireDB(t)
	payload := signupPayload(t)
	signupAndToken(t, payload)

	resp, body := postJSON(t, "/public/login", map[string]string{
		"email":    payload["email"],
		"password": "WrongPass999!",
	}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", resp.StatusCode, body)
	}
	if code := errorCodeOf(body); code != 10 {
		t.Errorf("expected invalid-login code 10, got %d", code)
	}
}

// TestLoginClosesPriorSession verifies the single-active-session rule: after
// a second login, the first session's token stops working.
func TestLoginClosesPriorSession(t *testing.T) {
	requireDB(t)
	payload := signupPayload(t)
	firstToken := signupAndToken(t, payload)

	resp, body := postJSON(t, "/public/login", map[string]string{
		"email":    payload["email"],
		"password": payload["new_password"],
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %v", resp.StatusCode, body)
	}
	secondToken := body["data"].(map[string]any)["token"].(string)

	// The first session is now closed.
	resp, body = getJSON(t, "/auth/me", firstToken)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for the displaced session, got %d %v", resp.StatusCode, body)
	}
	if code := errorCodeOf(body); code != 16 {
		t.Errorf("expected invalid-session-user code 16, got %d", code)
	}

	// The new one works.
	resp, _ = getJSON(t, "/auth/me", secondToken)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for the fresh session, got %d", resp.StatusCode)
	}
}

// TestPasswordUpdateRotates verifies that a password update deactivates the
// old password, closes the old session and issues a working token.
func TestPasswordUpdateRotates(t *testing.T) {
	requireDB(t)
	payload := signupPayload(t)
	token := signupAndToken(t, payload)

	resp, body := patchJSON(t, "/auth/password", map[string]string{
		"password":         payload["new_password"],
		"new_password":     "Rotated456!",
		"confirm_password": "Rotated456!",
	}, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("password update failed: %d %v", resp.StatusCode, body)
	}
	freshToken := body["data"].(map[string]any)["token"].(string)

	// Old credentials no longer log in.
	resp, body = postJSON(t, "/public/login", map[string]string{
		"email":    payload["email"],
		"password": payload["new_password"],
	}, "")
	if resp.StatusCode != http.StatusBadRequest || errorCodeOf(body) != 10 {
		t.Errorf("old password should be rejected, got %d %v", resp.StatusCode, body)
	}

	// New credentials do.
	resp, _ = postJSON(t, "/public/login", map[string]string{
		"email":    payload["email"],
		"password": "Rotated456!",
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("new password should log in, got %d", resp.StatusCode)
	}

	// The token issued with the update is valid.
	resp, _ = getJSON(t, "/auth/me", freshToken)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with the fresh token, got %d", resp.StatusCode)
	}
}

// TestLogout verifies that a logged-out session's token stops working.
func TestLogout(t *testing.T) {
	requireDB(t)
	payload := signupPayload(t)
	token := signupAndToken(t, payload)

	resp, body := patchJSON(t, "/auth/logout", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout failed: %d %v", resp.StatusCode, body)
	}

	resp, body = getJSON(t, "/auth/me", token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d %v", resp.StatusCode, body)
	}
	if code := errorCodeOf(body); code != 16 {
		t.Errorf("expected invalid-session-user code 16, got %d", code)
	}
}
