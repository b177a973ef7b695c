// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Ticket
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a ticket is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Soft deletion: tickets are never removed. DeleteTicket flips the deleted
// flag and every listing query filters with "deleted IS NOT TRUE", which
// also admits legacy rows whose flag column is NULL.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// notDeleted is the soft-delete filter shared by all ticket listing queries.
// "IS NOT TRUE" admits both false and NULL (rows older than the column).
const notDeleted = "deleted IS NOT TRUE"

// CreateTicket inserts a new ticket row. The ID is a randomly generated UUID
// and CreatedAt/UpdatedAt are set to UTC now. The caller is expected to have
// applied defaults (status, priority) and validated required fields.
//
// On success, it returns the persisted Ticket. On failure, it returns a DB error.
func CreateTicket(ctx context.Context, db *gorm.DB, t *domain.Ticket) (*domain.Ticket, error) {
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// ListTickets returns all non-deleted tickets ordered by creation time
// descending (most recent first). It returns an empty slice when the table
// holds no live rows. On DB error, it returns the error.
func ListTickets(ctx context.Context, db *gorm.DB) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := db.WithContext(ctx).
		Where(notDeleted).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetTicket fetches a single live ticket by ID. If the record does not exist
// or has been soft-deleted, it returns ErrNotFound. On other DB errors, the
// raw error is returned.
func GetTicket(ctx context.Context, db *gorm.DB, id string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Where(notDeleted).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTicket applies the given column changes to the ticket identified by
// id and refreshes updated_at. If no live row matches, it returns ErrNotFound.
func UpdateTicket(ctx context.Context, db *gorm.DB, id string, changes map[string]any) error {
	changes["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("id = ?", id).
		Where(notDeleted).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteTicket marks the ticket as deleted and refreshes updated_at.
// Re-deleting an already-deleted ticket is a no-op success, which makes the
// operation idempotent. ErrNotFound is returned only when no row with the
// given id exists at all.
func SoftDeleteTicket(ctx context.Context, db *gorm.DB, id string) error {
	var count int64
	if err := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	deleted := true
	return db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"deleted":    &deleted,
			"updated_at": time.Now().UTC(),
		}).Error
}

// SetExternalIssueKey back-fills the external issue-tracker key on an
// already-persisted ticket. It deliberately leaves created_at untouched and
// refreshes updated_at like any other mutation.
func SetExternalIssueKey(ctx context.Context, db *gorm.DB, id, key string) error {
	res := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"external_issue_key": key,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
