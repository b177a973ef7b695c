package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/services"
)

// ---------- test DB + router ----------

func newHandlersDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_test_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.Ticket{},
		&domain.IntegrationSetting{},
		&domain.Topic{},
		&domain.Article{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newTestRouter wires real services over an in-memory DB, mirroring the
// production route table without middleware.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlersDB(t)
	h := New(
		&services.TicketService{DB: db},
		&services.KnowledgeBaseService{DB: db},
		&services.IntegrationService{DB: db},
		t.TempDir(),
	)

	r := gin.New()
	r.GET("/tickets", h.ListTickets)
	r.POST("/tickets", h.CreateTicket)
	r.GET("/tickets/:id", h.GetTicket)
	r.PUT("/tickets/:id", h.UpdateTicket)
	r.DELETE("/tickets/:id", h.DeleteTicket)
	r.POST("/public/tickets", h.SubmitPublicTicket)
	r.GET("/integrations/:name", h.GetIntegration)
	r.PUT("/integrations/:name", h.UpdateIntegration)
	r.GET("/kb/topics", h.ListTopics)
	r.POST("/kb/topics", h.CreateTopic)
	r.DELETE("/kb/topics/:id", h.DeleteTopic)
	r.POST("/kb/articles", h.CreateArticle)
	r.GET("/kb/articles/:id", h.GetArticle)
	r.GET("/kb/articles/:id/edit", h.GetArticleForEdit)
	r.PUT("/kb/articles/:id", h.UpdateArticle)
	r.DELETE("/kb/articles/:id", h.DeleteArticle)
	r.GET("/kb/search", h.SearchArticles)
	r.POST("/uploads", h.UploadFile)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, w.Body.String())
	}
	return e
}

func validTicketBody() map[string]any {
	return map[string]any{
		"title":           "Printer jam",
		"description":     "Tray 2 stuck",
		"requester_name":  "A. Lee",
		"requester_email": "a@example.com",
	}
}

// ---------- tests ----------

func TestCreateTicket_Created(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/tickets", validTicketBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got domain.Ticket
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID == "" || got.Status != domain.StatusOpen || got.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected ticket: %+v", got)
	}
}

func TestCreateTicket_MissingField_Validation(t *testing.T) {
	r, _ := newTestRouter(t)

	body := validTicketBody()
	delete(body, "title")
	w := doJSON(t, r, http.MethodPost, "/tickets", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	e := decodeErr(t, w)
	if e.Code != ErrCodeValidation {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestCreateTicket_MalformedJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/tickets", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeErr(t, w); e.Code != ErrCodeBadRequest {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestGetTicket_BadUUID(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/tickets/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetTicket_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/tickets/"+uuid.NewString(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeErr(t, w); e.Code != ErrCodeNotFound {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestTicketLifecycle_CreateGetUpdateDeleteList(t *testing.T) {
	r, _ := newTestRouter(t)

	// Create
	w := doJSON(t, r, http.MethodPost, "/tickets", validTicketBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created domain.Ticket
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	// Get returns the display projection.
	w = doJSON(t, r, http.MethodGet, "/tickets/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}
	var view services.TicketView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.CreatedAtDisplay == "" || view.CreatedAtISO == "" {
		t.Fatalf("display fields missing: %s", w.Body.String())
	}

	// Update
	body := validTicketBody()
	body["status"] = domain.StatusClosed
	w = doJSON(t, r, http.MethodPut, "/tickets/"+created.ID, body)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	// Delete is idempotent.
	for i := 0; i < 2; i++ {
		w = doJSON(t, r, http.MethodDelete, "/tickets/"+created.ID, nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("delete #%d: %d %s", i+1, w.Code, w.Body.String())
		}
	}

	// Listing no longer contains the ticket.
	w = doJSON(t, r, http.MethodGet, "/tickets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var list ListTicketsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Tickets) != 0 {
		t.Fatalf("deleted ticket leaked into list: %+v", list.Tickets)
	}
}

func TestUpdateTicket_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/tickets/"+uuid.NewString(), validTicketBody())
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestDeleteTicket_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodDelete, "/tickets/"+uuid.NewString(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSubmitPublicTicket_CreatedWithSupportCategory(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/public/tickets", map[string]any{
		"subject":     "Cannot log in",
		"description": "Reset loops forever",
		"name":        "Bob",
		"email":       "bob@example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got domain.Ticket
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Category != "Support" || got.Status != domain.StatusOpen {
		t.Fatalf("public defaults wrong: %+v", got)
	}
}

func TestSubmitPublicTicket_MissingSubject(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/public/tickets", map[string]any{
		"description": "d", "name": "n", "email": "e@example.com",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if e := decodeErr(t, w); e.Code != ErrCodeValidation {
		t.Fatalf("code = %q", e.Code)
	}
}
