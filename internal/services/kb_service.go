// Package services – KnowledgeBaseService
//
// This file implements the knowledge-base use-cases: bounded, case-insensitively
// unique topics and HTML-escaped articles with a cascade-delete guard. The
// service enforces business rules (name length, topic ceiling, uniqueness,
// non-empty delete guard, escape-at-rest round trip) on top of the thin
// repository layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/kbsearch"
	"github.com/tbourn/go-helpdesk-backend/internal/repo"
)

// TopicView is a topic annotated with its current article count.
type TopicView struct {
	domain.Topic
	ArticleCount int64 `json:"article_count"`
}

// KnowledgeBaseService implements topic and article management.
//
// Content discipline: article content is HTML-escaped before it is written
// and unescaped when read back for viewing or editing, so
// unescape(escape(x)) == x holds for arbitrary text.
type KnowledgeBaseService struct {
	// DB is the database handle used for all knowledge-base operations.
	DB *gorm.DB
}

// topicCollator orders topic names case-insensitively and locale-aware.
var topicCollator = collate.New(language.English, collate.IgnoreCase)

// CreateTopic validates and persists a new topic.
//
// Failure modes, checked in order:
//   - ErrMissingField when the trimmed name is blank
//   - ErrTopicNameTooLong when the name exceeds 50 characters
//   - ErrDuplicateTopic when a topic with the same name exists (case-insensitive)
//   - ErrTopicLimitReached when 10 topics already exist
//
// The uniqueness and ceiling checks are fast-path pre-checks; the schema's
// unique index on lower(name) is the backstop under true concurrency, and a
// constraint violation on insert is reported as ErrDuplicateTopic too.
func (s *KnowledgeBaseService) CreateTopic(ctx context.Context, name string) (*domain.Topic, error) {
	tr := otel.Tracer("services/KnowledgeBaseService")
	ctx, span := tr.Start(ctx, "CreateTopic")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if len([]rune(name)) > domain.MaxTopicNameLen {
		return nil, ErrTopicNameTooLong
	}

	exists, err := repo.TopicExistsFold(ctx, s.DB, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateTopic
	}

	total, err := repo.CountTopics(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if total >= domain.MaxTopics {
		return nil, ErrTopicLimitReached
	}

	t, err := repo.CreateTopic(ctx, s.DB, name)
	if err != nil {
		// Lost a create race: the unique index on name_lower rejected us.
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTopic
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("topic.id", t.ID))
	return t, nil
}

// DeleteTopic removes a topic that owns no articles.
//
// Returns ErrTopicNotFound when the id is unknown, or ErrTopicNotEmpty
// (wrapped with the article count) when articles still reference it.
func (s *KnowledgeBaseService) DeleteTopic(ctx context.Context, id string) error {
	tr := otel.Tracer("services/KnowledgeBaseService")
	ctx, span := tr.Start(ctx, "DeleteTopic",
		trace.WithAttributes(attribute.String("topic.id", id)),
	)
	defer span.End()

	if _, err := repo.GetTopic(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTopicNotFound
		}
		return err
	}
	n, err := repo.CountArticlesByTopic(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d article(s)", ErrTopicNotEmpty, n)
	}
	err = repo.DeleteTopic(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrTopicNotFound
	}
	return err
}

// ListTopics returns all topics ordered by name, case-insensitively, each
// annotated with its article count.
func (s *KnowledgeBaseService) ListTopics(ctx context.Context) ([]TopicView, error) {
	tr := otel.Tracer("services/KnowledgeBaseService")
	ctx, span := tr.Start(ctx, "ListTopics")
	defer span.End()

	topics, err := repo.ListTopics(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return topicCollator.CompareString(topics[i].Name, topics[j].Name) < 0
	})

	out := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		n, err := repo.CountArticlesByTopic(ctx, s.DB, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, TopicView{Topic: t, ArticleCount: n})
	}
	return out, nil
}

// CreateArticle validates and persists a new article under topicID. Content
// is HTML-escaped before it hits the store. Returns ErrMissingField when any
// of title/content/topicID is blank, or ErrTopicNotFound when the topic does
// not exist.
func (s *KnowledgeBaseService) CreateArticle(ctx context.Context, title, content, topicID string) (*domain.Article, error) {
	tr := otel.Tracer("services/KnowledgeBaseService")
	ctx, span := tr.Start(ctx, "CreateArticle",
		trace.WithAttributes(attribute.String("topic.id", topicID)),
	)
	defer span.End()

	switch {
	case strings.TrimSpace(title) == "":
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	case strings.TrimSpace(content) == "":
		return nil, fmt.Errorf("%w: content", ErrMissingField)
	case strings.TrimSpace(topicID) == "":
		return nil, fmt.Errorf("%w: topic_id", ErrMissingField)
	}
	if _, err := repo.GetTopic(ctx, s.DB, topicID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}

	a, err := repo.CreateArticle(ctx, s.DB, topicID, strings.TrimSpace(title), html.EscapeString(content))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("article.id", a.ID))
	return a, nil
}

// UpdateArticle overwrites title and content of an existing article,
// escaping content at rest and refreshing updated_at. Returns
// ErrArticleNotFound when the id is unknown.
func (s *KnowledgeBaseService) UpdateArticle(ctx context.Context, id, title, content string) error {
	tr := otel.Tracer("services/KnowledgeBaseService")
	ctx, span := tr.Start(ctx, "UpdateArticle",
		trace.WithAttributes(attribute.String("article.id", id)),
	)
	defer span.End()

	switch {
	case strings.TrimSpace(title) == "":
		return fmt.Errorf("%w: title", ErrMissingField)
	case strings.TrimSpace(content) == "":
		return fmt.Errorf("%w: content", ErrMissingField)
	}
	err := repo.UpdateArticle(ctx, s.DB, id, strings.TrimSpace(title), html.EscapeString(content))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrArticleNotFound
	}
	return err
}

// DeleteArticle removes an article unconditionally (articles have no
// dependents). Returns ErrArticleNotFound when the id is unknown.
func (s *KnowledgeBaseService) DeleteArticle(ctx context.Context, id string) error {
	tr := otel.Tracer("services/KnowledgeBaseService")
	ctx, span := tr.Start(ctx, "DeleteArticle",
		trace.WithAttributes(attribute.String("article.id", id)),
	)
	defer span.End()

	err := repo.DeleteArticle(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrArticleNotFound
	}
	return err
}

// GetArticleForView fetches an article with its content unescaped for
// rendering. Returns ErrArticleNotFound when the id is unknown.
func (s *KnowledgeBaseService) GetArticleForView(ctx context.Context, id string) (*domain.Article, error) {
	return s.getUnescaped(ctx, id, "GetArticleForView")
}

// GetArticleForEdit fetches an article with its content unescaped for
// editing. Returns ErrArticleNotFound when the id is unknown.
func (s *KnowledgeBaseService) GetArticleForEdit(ctx context.Context, id string) (*domain.Article, error) {
	return s.getUnescaped(ctx, id, "GetArticleForEdit")
}

func (s *KnowledgeBaseService) getUnescaped(ctx context.Context, id, op string) (*domain.Article, error) {
	tr := otel.Tracer("services/KnowledgeBaseService")
	ctx, span := tr.Start(ctx, op,
		trace.WithAttributes(attribute.String("article.id", id)),
	)
	defer span.End()

	a, err := repo.GetArticle(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	a.Content = html.UnescapeString(a.Content)
	return a, nil
}

// SearchArticles runs a ranked lookup over the unescaped titles and contents
// of all articles. The index is rebuilt per call; article volume is bounded
// by the 10-topic ceiling, so this stays cheap.
func (s *KnowledgeBaseService) SearchArticles(ctx context.Context, query string, k int) ([]kbsearch.Result, error) {
	tr := otel.Tracer("services/KnowledgeBaseService")
	ctx, span := tr.Start(ctx, "SearchArticles",
		trace.WithAttributes(attribute.String("query", query)),
	)
	defer span.End()

	articles, err := repo.ListArticles(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	docs := make([]kbsearch.Document, 0, len(articles))
	for _, a := range articles {
		docs = append(docs, kbsearch.Document{
			ID:    a.ID,
			Title: a.Title,
			Body:  html.UnescapeString(a.Content),
		})
	}
	return kbsearch.New(docs).TopK(query, k), nil
}

// isUniqueViolation reports whether err looks like a unique-constraint
// failure. GORM does not normalize driver constraint errors, so this falls
// back to message sniffing that covers SQLite ("UNIQUE constraint failed")
// and common SQL dialects.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate")
}
