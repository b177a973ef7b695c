package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
)

func TestGetIntegration_UnknownName_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/integrations/teams", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if e := decodeErr(t, w); e.Code != ErrCodeNotFound {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestGetIntegration_FirstReadReturnsDisabledRow(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/integrations/slack", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var s domain.IntegrationSetting
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Name != domain.IntegrationSlack || s.Enabled {
		t.Fatalf("expected disabled slack row: %+v", s)
	}
}

func TestUpdateIntegration_SlackRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/integrations/slack", map[string]any{
		"enabled":     true,
		"webhook_url": "https://hooks.example.com/T000",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var s domain.IntegrationSetting
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !s.Enabled || s.WebhookURL != "https://hooks.example.com/T000" {
		t.Fatalf("settings not applied: %+v", s)
	}
}

func TestUpdateIntegration_APITokenNeverEchoed(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/integrations/jira", map[string]any{
		"enabled":     true,
		"api_url":     "https://issues.example.com",
		"username":    "bot",
		"api_token":   "super-secret-token",
		"project_key": "HELP",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "super-secret-token") {
		t.Fatalf("token leaked into response: %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/integrations/jira", nil)
	if strings.Contains(w.Body.String(), "super-secret-token") {
		t.Fatalf("token leaked on read: %s", w.Body.String())
	}
}

func TestUpdateIntegration_UnknownName_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/integrations/teams", map[string]any{"enabled": true})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}
