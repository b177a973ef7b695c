// Knowledge-base HTTP handlers.
//
// This file exposes REST endpoints for topics and articles:
//   - GET    /kb/topics              (list with article counts)
//   - POST   /kb/topics              (create, bounded & unique)
//   - DELETE /kb/topics/{id}         (guarded delete)
//   - POST   /kb/articles            (create, content escaped at rest)
//   - GET    /kb/articles/{id}       (view, content unescaped)
//   - GET    /kb/articles/{id}/edit  (edit, content unescaped)
//   - PUT    /kb/articles/{id}       (update)
//   - DELETE /kb/articles/{id}       (delete)
//   - GET    /kb/search              (ranked article lookup)
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/kbsearch"
	"github.com/tbourn/go-helpdesk-backend/internal/services"
	"github.com/tbourn/go-helpdesk-backend/internal/utils"
)

// KnowledgeBaseService defines the topic and article operations consumed by
// HTTP handlers. Implementations must be safe for concurrent use and honor
// the provided context.
type KnowledgeBaseService interface {
	CreateTopic(ctx context.Context, name string) (*domain.Topic, error)
	DeleteTopic(ctx context.Context, id string) error
	ListTopics(ctx context.Context) ([]services.TopicView, error)
	CreateArticle(ctx context.Context, title, content, topicID string) (*domain.Article, error)
	UpdateArticle(ctx context.Context, id, title, content string) error
	DeleteArticle(ctx context.Context, id string) error
	GetArticleForView(ctx context.Context, id string) (*domain.Article, error)
	GetArticleForEdit(ctx context.Context, id string) (*domain.Article, error)
	SearchArticles(ctx context.Context, query string, k int) ([]kbsearch.Result, error)
}

// CreateTopicRequest is the JSON payload for creating a topic.
type CreateTopicRequest struct {
	Name string `json:"name" example:"Billing"`
}

// ArticleRequest is the JSON payload for creating or updating an article.
// TopicID is ignored on update (articles cannot change owner).
type ArticleRequest struct {
	Title   string `json:"title" example:"Resetting your password"`
	Content string `json:"content" example:"<p>Open the settings page…</p>"`
	TopicID string `json:"topic_id,omitempty" format:"uuid"`
}

// ListTopicsResponse wraps the annotated topic list.
type ListTopicsResponse struct {
	Topics []services.TopicView `json:"topics"`
}

// SearchResponse wraps ranked knowledge-base search results.
type SearchResponse struct {
	Query   string            `json:"query"`
	Results []kbsearch.Result `json:"results"`
}

// ListTopics godoc
// @ID          listTopics
// @Summary     List knowledge-base topics
// @Description Returns all topics ordered by name (case-insensitive), each with its article count.
// @Tags        KnowledgeBase
// @Produce     json
// @Success     200 {object} handlers.ListTopicsResponse
// @Failure     500 {object} handlers.ErrorResponse "Internal error"
// @Router      /kb/topics [get]
func (h *Handlers) ListTopics(c *gin.Context) {
	items, err := h.kbSvc.ListTopics(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list topics")
		return
	}
	ok(c, http.StatusOK, ListTopicsResponse{Topics: items})
}

// CreateTopic godoc
// @ID          createTopic
// @Summary     Create a topic
// @Description Topic names are limited to 50 characters, unique case-insensitively, and capped at 10 topics total.
// @Tags        KnowledgeBase
// @Accept      json
// @Produce     json
// @Param       body body handlers.CreateTopicRequest true "Topic payload"
// @Success     201 {object} domain.Topic
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     409 {object} handlers.ErrorResponse "Duplicate name or topic limit reached"
// @Router      /kb/topics [post]
func (h *Handlers) CreateTopic(c *gin.Context) {
	var req CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	t, err := h.kbSvc.CreateTopic(c.Request.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField), errors.Is(err, services.ErrTopicNameTooLong):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, services.ErrDuplicateTopic):
			fail(c, http.StatusConflict, ErrCodeConflict, "a topic with this name already exists")
		case errors.Is(err, services.ErrTopicLimitReached):
			fail(c, http.StatusConflict, ErrCodeCapacity, "topic limit of 10 reached")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create topic")
		}
		return
	}
	ok(c, http.StatusCreated, t)
}

// DeleteTopic godoc
// @ID          deleteTopic
// @Summary     Delete a topic
// @Description Refused while the topic still owns articles; delete or reassign them first.
// @Tags        KnowledgeBase
// @Param       id path string true "Topic ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse "Topic not found"
// @Failure     409 {object} handlers.ErrorResponse "Topic still has articles"
// @Router      /kb/topics/{id} [delete]
func (h *Handlers) DeleteTopic(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "topic id must be a UUID")
		return
	}
	if err := h.kbSvc.DeleteTopic(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, services.ErrTopicNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "topic not found")
		case errors.Is(err, services.ErrTopicNotEmpty):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete topic")
		}
		return
	}
	noContent(c)
}

// CreateArticle godoc
// @ID          createArticle
// @Summary     Create an article
// @Description Content is HTML-escaped before persistence and unescaped again on view/edit.
// @Tags        KnowledgeBase
// @Accept      json
// @Produce     json
// @Param       body body handlers.ArticleRequest true "Article payload"
// @Success     201 {object} domain.Article
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Topic not found"
// @Router      /kb/articles [post]
func (h *Handlers) CreateArticle(c *gin.Context) {
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a, err := h.kbSvc.CreateArticle(c.Request.Context(), req.Title, req.Content, req.TopicID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, services.ErrTopicNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "topic not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create article")
		}
		return
	}
	ok(c, http.StatusCreated, a)
}

// GetArticle godoc
// @ID          getArticle
// @Summary     View an article
// @Description Returns the article with content unescaped for rendering.
// @Tags        KnowledgeBase
// @Produce     json
// @Param       id path string true "Article ID (UUID)" format(uuid)
// @Success     200 {object} domain.Article
// @Failure     404 {object} handlers.ErrorResponse "Article not found"
// @Router      /kb/articles/{id} [get]
func (h *Handlers) GetArticle(c *gin.Context) {
	h.serveArticle(c, h.kbSvc.GetArticleForView)
}

// GetArticleForEdit godoc
// @ID          getArticleForEdit
// @Summary     Fetch an article for editing
// @Description Returns the article with content unescaped so the editor round-trips the original text.
// @Tags        KnowledgeBase
// @Produce     json
// @Param       id path string true "Article ID (UUID)" format(uuid)
// @Success     200 {object} domain.Article
// @Failure     404 {object} handlers.ErrorResponse "Article not found"
// @Router      /kb/articles/{id}/edit [get]
func (h *Handlers) GetArticleForEdit(c *gin.Context) {
	h.serveArticle(c, h.kbSvc.GetArticleForEdit)
}

func (h *Handlers) serveArticle(c *gin.Context, get func(context.Context, string) (*domain.Article, error)) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "article id must be a UUID")
		return
	}
	a, err := get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrArticleNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load article")
		return
	}
	ok(c, http.StatusOK, a)
}

// UpdateArticle godoc
// @ID          updateArticle
// @Summary     Update an article
// @Tags        KnowledgeBase
// @Accept      json
// @Produce     json
// @Param       id   path string true "Article ID (UUID)" format(uuid)
// @Param       body body handlers.ArticleRequest true "Article payload"
// @Success     204 {string} string "No Content"
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Article not found"
// @Router      /kb/articles/{id} [put]
func (h *Handlers) UpdateArticle(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "article id must be a UUID")
		return
	}
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.kbSvc.UpdateArticle(c.Request.Context(), id, req.Title, req.Content); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, services.ErrArticleNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update article")
		}
		return
	}
	noContent(c)
}

// DeleteArticle godoc
// @ID          deleteArticle
// @Summary     Delete an article
// @Tags        KnowledgeBase
// @Param       id path string true "Article ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse "Article not found"
// @Router      /kb/articles/{id} [delete]
func (h *Handlers) DeleteArticle(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "article id must be a UUID")
		return
	}
	if err := h.kbSvc.DeleteArticle(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrArticleNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete article")
		return
	}
	noContent(c)
}

// SearchArticles godoc
// @ID          searchArticles
// @Summary     Search knowledge-base articles
// @Description Ranked lookup over article titles and contents.
// @Tags        KnowledgeBase
// @Produce     json
// @Param       q query string true  "Query text"
// @Param       k query int    false "Maximum results" default(5) maximum(20)
// @Success     200 {object} handlers.SearchResponse
// @Failure     400 {object} handlers.ErrorResponse "Missing query"
// @Router      /kb/search [get]
func (h *Handlers) SearchArticles(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	k := utils.AtoiDefault(c.Query("k"), 5)
	if k < 1 {
		k = 1
	}
	if k > 20 {
		k = 20
	}
	results, err := h.kbSvc.SearchArticles(c.Request.Context(), q, k)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "search failed")
		return
	}
	if results == nil {
		results = []kbsearch.Result{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: q, Results: results})
}
