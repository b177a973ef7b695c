// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// knowledge-base models (Topic, Article).
//
// The repository follows a "thin" approach: it performs persistence and
// simple query composition, leaving business rules (name length, topic
// ceiling, case-insensitive uniqueness, delete guards, content escaping)
// to the services package.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
)

// CreateTopic inserts a new topic row. NameLower is derived here so the
// schema-level unique index on it always matches the service-layer
// case-insensitive check. Duplicate names surface as the raw DB constraint
// error, which the service layer translates.
func CreateTopic(ctx context.Context, db *gorm.DB, name string) (*domain.Topic, error) {
	now := time.Now().UTC()
	t := &domain.Topic{
		ID:        uuid.NewString(),
		Name:      name,
		NameLower: strings.ToLower(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// GetTopic fetches a topic by ID, returning ErrNotFound when absent.
func GetTopic(ctx context.Context, db *gorm.DB, id string) (*domain.Topic, error) {
	var t domain.Topic
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// TopicExistsFold reports whether a topic with the given name exists,
// compared case-insensitively.
func TopicExistsFold(ctx context.Context, db *gorm.DB, name string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Topic{}).
		Where("name_lower = ?", strings.ToLower(name)).
		Count(&count).Error
	return count > 0, err
}

// CountTopics returns the total number of topics.
func CountTopics(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Topic{}).Count(&total).Error
	return total, err
}

// ListTopics returns all topics. Ordering is left to the service layer,
// which sorts case-insensitively with a collator.
func ListTopics(ctx context.Context, db *gorm.DB) ([]domain.Topic, error) {
	var out []domain.Topic
	err := db.WithContext(ctx).Find(&out).Error
	return out, err
}

// DeleteTopic removes a topic row. If no row matches, it returns ErrNotFound.
// The service layer guards against deleting topics that still own articles.
func DeleteTopic(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Topic{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountArticlesByTopic returns the number of articles owned by the topic.
func CountArticlesByTopic(ctx context.Context, db *gorm.DB, topicID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("topic_id = ?", topicID).
		Count(&total).Error
	return total, err
}

// CreateArticle inserts a new article row. Content is persisted exactly as
// given; escaping happens in the service layer.
func CreateArticle(ctx context.Context, db *gorm.DB, topicID, title, content string) (*domain.Article, error) {
	now := time.Now().UTC()
	a := &domain.Article{
		ID:        uuid.NewString(),
		TopicID:   topicID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetArticle fetches an article by ID, returning ErrNotFound when absent.
func GetArticle(ctx context.Context, db *gorm.DB, id string) (*domain.Article, error) {
	var a domain.Article
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArticles returns all articles, newest first. Used to (re)build the
// knowledge-base search index.
func ListArticles(ctx context.Context, db *gorm.DB) ([]domain.Article, error) {
	var out []domain.Article
	err := db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

// UpdateArticle overwrites title and content of the article identified by id
// and refreshes updated_at. If no row matches, it returns ErrNotFound.
func UpdateArticle(ctx context.Context, db *gorm.DB, id, title, content string) error {
	res := db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":      title,
			"content":    content,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteArticle removes an article row unconditionally. If no row matches,
// it returns ErrNotFound.
func DeleteArticle(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Article{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
