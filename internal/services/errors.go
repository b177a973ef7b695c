// Package services defines the business logic for tickets, integrations, and
// the knowledge base. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Ticket-related errors.
var (
	// ErrTicketNotFound indicates that the requested ticket does not exist
	// or has been soft-deleted.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrMissingField is returned when a required field (ticket title,
	// description, requester name/email; article title, content, topic) is
	// blank. It is typically wrapped with the offending field name.
	ErrMissingField = errors.New("required field missing")
)

// Knowledge-base errors.
var (
	// ErrTopicNotFound indicates that the requested topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrTopicNameTooLong is returned when a topic name exceeds the
	// 50-character limit.
	ErrTopicNameTooLong = errors.New("topic name exceeds 50 characters")

	// ErrDuplicateTopic is returned when a topic with the same name already
	// exists, compared case-insensitively.
	ErrDuplicateTopic = errors.New("topic already exists")

	// ErrTopicLimitReached is returned when creating a topic would exceed
	// the global ceiling of 10 topics.
	ErrTopicLimitReached = errors.New("topic limit reached")

	// ErrTopicNotEmpty is returned when deleting a topic that still owns
	// one or more articles. It is wrapped with the article count.
	ErrTopicNotEmpty = errors.New("topic still has articles")

	// ErrArticleNotFound indicates that the requested article does not exist.
	ErrArticleNotFound = errors.New("article not found")
)

// Integration errors.
var (
	// ErrUnknownIntegration is returned when an integration name is neither
	// "slack" nor "jira".
	ErrUnknownIntegration = errors.New("unknown integration")
)
