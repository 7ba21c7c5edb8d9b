package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nanumsa/server/internal/auth"
	"github.com/nanumsa/server/internal/db"
	"github.com/nanumsa/server/internal/middleware"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

// testServer is the shared httptest server for all integration tests.
var testServer *httptest.Server

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// No database available, integration tests skip themselves.
		os.Exit(m.Run())
	}

	db.Connect(databaseURL)
	dbAvailable = true

	auth.Init(auth.SocialConfig{})

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	auth.SetupRoutes(r)

	testServer = httptest.NewServer(r)
	defer testServer.Close()

	os.Exit(m.Run())
}

func requireDB(t *testing.T) {
	t.Helper()
	if !dbAvailable {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
}

func postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(testServer.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeSuccess(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Success json.RawMessage `json:"success"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error != "" {
		t.Fatalf("unexpected error response: %s", envelope.Error)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Success, out); err != nil {
			t.Fatalf("decode success payload: %v", err)
		}
	}
}

type loginPayload struct {
	Token    string `json:"token"`
	Nickname string `json:"nickname"`
	Tag      int64  `json:"tag"`
	IsSocial bool   `json:"isSocial"`
}

func registerUser(t *testing.T) (email string, login loginPayload) {
	t.Helper()

	email = fmt.Sprintf("it-%s@example.com", uuid.NewString()[:8])
	resp := postJSON(t, "/user/new", map[string]any{
		"email":    email,
		"password": "integration-pass-1",
		"nickname": "integration tester",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register returned status %d", resp.StatusCode)
	}
	decodeSuccess(t, resp, &login)
	return email, login
}

func TestRegisterAndLoginFlow(t *testing.T) {
	requireDB(t)

	email, login := registerUser(t)
	if login.Token == "" || login.Tag == 0 {
		t.Fatalf("register reply missing token or tag: %+v", login)
	}
	if login.IsSocial {
		t.Fatal("local registration marked social")
	}

	resp := postJSON(t, "/login/email", map[string]string{
		"email":    email,
		"password": "integration-pass-1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned status %d", resp.StatusCode)
	}
	var second loginPayload
	decodeSuccess(t, resp, &second)
	if second.Tag != login.Tag {
		t.Fatalf("tag changed across logins: %d vs %d", login.Tag, second.Tag)
	}
}

func TestSecondLoginInvalidatesFirstToken(t *testing.T) {
	requireDB(t)

	email, first := registerUser(t)

	resp := postJSON(t, "/login/email", map[string]string{
		"email":    email,
		"password": "integration-pass-1",
	})
	var second loginPayload
	decodeSuccess(t, resp, &second)

	if second.Token == first.Token {
		t.Fatal("expected a fresh token on re-login")
	}

	// The old token must be dead: exactly one live session per user.
	req, _ := http.NewRequest(http.MethodGet, testServer.URL+"/user/contacts", nil)
	req.Header.Set("AuthToken", first.Token)
	staleResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /user/contacts: %v", err)
	}
	defer staleResp.Body.Close()
	if staleResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("stale token got status %d, want 401", staleResp.StatusCode)
	}

	req.Header.Set("AuthToken", second.Token)
	freshResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /user/contacts: %v", err)
	}
	defer freshResp.Body.Close()
	if freshResp.StatusCode != http.StatusOK {
		t.Fatalf("fresh token got status %d, want 200", freshResp.StatusCode)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	requireDB(t)

	_, login := registerUser(t)

	resp := postJSON(t, "/logout", map[string]string{"token": login.Token})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout returned status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Logging out again has nothing to revoke.
	resp = postJSON(t, "/logout", map[string]string{"token": login.Token})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second logout returned status %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}
