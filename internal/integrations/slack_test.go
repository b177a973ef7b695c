package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/repo"
)

func newIntegrationsDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:integrations_test_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.IntegrationSetting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func enableSlack(t *testing.T, db *gorm.DB, webhookURL string) {
	t.Helper()
	if _, err := repo.UpdateIntegration(context.Background(), db, domain.IntegrationSlack, map[string]any{
		"enabled":     true,
		"webhook_url": webhookURL,
	}); err != nil {
		t.Fatalf("enable slack: %v", err)
	}
}

func sampleTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:             uuid.NewString(),
		Title:          "Printer on fire",
		Description:    "It is literally on fire.",
		Status:         domain.StatusOpen,
		Priority:       domain.PriorityHigh,
		Category:       "Hardware",
		RequesterName:  "Ada",
		RequesterEmail: "ada@example.com",
	}
}

func TestSlackNotify_Disabled_NoCall(t *testing.T) {
	db := newIntegrationsDB(t)

	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	// Row exists but stays disabled.
	if _, err := repo.UpdateIntegration(context.Background(), db, domain.IntegrationSlack, map[string]any{
		"enabled":     false,
		"webhook_url": srv.URL,
	}); err != nil {
		t.Fatalf("seed setting: %v", err)
	}

	n := &SlackNotifier{DB: db, Client: srv.Client(), PublicBaseURL: "https://helpdesk.example.com"}
	n.Notify(context.Background(), sampleTicket())

	if atomic.LoadInt64(&calls) != 0 {
		t.Fatalf("disabled integration must not call the webhook")
	}
}

func TestSlackNotify_EmptyWebhook_NoCall(t *testing.T) {
	db := newIntegrationsDB(t)

	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	if _, err := repo.UpdateIntegration(context.Background(), db, domain.IntegrationSlack, map[string]any{
		"enabled": true,
	}); err != nil {
		t.Fatalf("seed setting: %v", err)
	}

	n := &SlackNotifier{DB: db, Client: srv.Client()}
	n.Notify(context.Background(), sampleTicket())

	if atomic.LoadInt64(&calls) != 0 {
		t.Fatalf("unset webhook must be a no-op")
	}
}

func TestSlackNotify_SendsStructuredPayload(t *testing.T) {
	db := newIntegrationsDB(t)

	var got slackMessage
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	enableSlack(t, db, srv.URL)
	tk := sampleTicket()

	n := &SlackNotifier{DB: db, Client: srv.Client(), PublicBaseURL: "https://helpdesk.example.com/"}
	n.Notify(context.Background(), tk)

	if contentType != "application/json" {
		t.Fatalf("content type: %q", contentType)
	}
	if !strings.Contains(got.Text, tk.Title) {
		t.Fatalf("summary text missing title: %q", got.Text)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(got.Attachments))
	}
	att := got.Attachments[0]
	if att.Color != "danger" {
		t.Fatalf("high priority must color the attachment danger, got %q", att.Color)
	}
	if att.Title != tk.Title || att.Text != tk.Description {
		t.Fatalf("attachment body wrong: %+v", att)
	}
	if len(att.Actions) != 1 {
		t.Fatalf("expected a deep-link button, got %+v", att.Actions)
	}
	wantURL := "https://helpdesk.example.com/tickets/" + tk.ID
	if att.Actions[0].URL != wantURL {
		t.Fatalf("button url: got %q want %q", att.Actions[0].URL, wantURL)
	}
}

func TestSlackNotify_PriorityColors(t *testing.T) {
	cases := map[string]string{
		domain.PriorityHigh:   "danger",
		domain.PriorityLow:    "good",
		domain.PriorityMedium: "warning",
		"Unset":               "warning",
	}
	for priority, want := range cases {
		if got := priorityColor(priority); got != want {
			t.Fatalf("priorityColor(%q) = %q, want %q", priority, got, want)
		}
	}
}

func TestSlackNotify_RejectionDoesNotPanic(t *testing.T) {
	db := newIntegrationsDB(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer srv.Close()

	enableSlack(t, db, srv.URL)
	n := &SlackNotifier{DB: db, Client: srv.Client()}

	// Must swallow the rejection; the creating request never sees it.
	n.Notify(context.Background(), sampleTicket())
}

func TestSlackNotify_UnreachableEndpointDoesNotPanic(t *testing.T) {
	db := newIntegrationsDB(t)
	enableSlack(t, db, "http://127.0.0.1:1") // nothing listens here

	n := &SlackNotifier{DB: db}
	n.Notify(context.Background(), sampleTicket())
}

func TestSlackNotify_SlowRemoteHitsClientTimeout(t *testing.T) {
	db := newIntegrationsDB(t)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release // hold the connection open well past the client timeout
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	enableSlack(t, db, srv.URL)
	n := &SlackNotifier{DB: db, Client: &http.Client{Timeout: 50 * time.Millisecond}}

	start := time.Now()
	n.Notify(context.Background(), sampleTicket())
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("notify blocked for %v, client timeout not honored", elapsed)
	}
}
