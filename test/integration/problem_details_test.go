package integration

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

func TestErrorsNegotiateProblemDetails(t *testing.T) {
	ts := newAuthTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/me/sessions", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Accept", "application/problem+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json, got %q", ct)
	}

	var problem struct {
		Type          string `json:"type"`
		Title         string `json:"title"`
		Status        int    `json:"status"`
		Instance      string `json:"instance"`
		Code          string `json:"code"`
		CorrelationID string `json:"correlation_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&problem); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(problem.Type, "urn:problem:creator-marketplace:") {
		t.Fatalf("unexpected type %q", problem.Type)
	}
	if problem.Code != "MISSING_TOKEN" || problem.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected problem %+v", problem)
	}
	if problem.Instance != "/api/v1/me/sessions" {
		t.Fatalf("unexpected instance %q", problem.Instance)
	}
	if problem.CorrelationID == "" {
		t.Fatal("expected correlation id")
	}
}

func TestCrossUserSessionRevocationForbidden(t *testing.T) {
	ts := newAuthTestServer(t)

	// Two users, each with one session.
	alice := newClientWithJar(t)
	resp := postJSON(t, alice, ts.URL+"/api/v1/auth/signup", `{"email":"alice@example.com","name":"A","password":"hunter22hunter"}`)
	resp.Body.Close()
	resp = postJSON(t, alice, ts.URL+"/api/v1/auth/verify-email", `{"token":"`+ts.notifier.lastVerificationToken()+`"}`)
	resp.Body.Close()
	resp = postJSON(t, alice, ts.URL+"/api/v1/auth/login", `{"email":"alice@example.com","password":"hunter22hunter"}`)
	resp.Body.Close()

	bob := newClientWithJar(t)
	resp = postJSON(t, bob, ts.URL+"/api/v1/auth/signup", `{"email":"bob@example.com","name":"B","password":"hunter22hunter"}`)
	resp.Body.Close()
	resp = postJSON(t, bob, ts.URL+"/api/v1/auth/verify-email", `{"token":"`+ts.notifier.lastVerificationToken()+`"}`)
	resp.Body.Close()
	resp = postJSON(t, bob, ts.URL+"/api/v1/auth/login", `{"email":"bob@example.com","password":"hunter22hunter"}`)
	resp.Body.Close()

	resp = getJSON(t, bob, ts.URL+"/api/v1/me/sessions")
	bobSessions := sessionList(t, resp)
	if len(bobSessions) != 1 {
		t.Fatalf("expected 1 bob session, got %d", len(bobSessions))
	}
	bobSessionID := int(bobSessions[0]["id"].(float64))

	// Alice cannot revoke bob's session.
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/me/sessions/"+strconv.Itoa(bobSessionID), nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err = alice.Do(req)
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Bob's session is untouched.
	resp = getJSON(t, bob, ts.URL+"/api/v1/me/sessions")
	if got := len(sessionList(t, resp)); got != 1 {
		t.Fatalf("bob's session must survive, got %d", got)
	}
}
