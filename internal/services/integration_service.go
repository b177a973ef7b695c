// Package services – IntegrationService
//
// This file implements the persisted configuration of the two outbound
// integrations (slack notification webhook, jira issue-tracker sync). Rows
// are lazily created disabled on first read so callers never observe a
// missing configuration.
package services

import (
	"context"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/repo"
)

// IntegrationInput carries the editable settings of an integration. Fields
// irrelevant to the named integration (e.g. WebhookURL for jira) are ignored.
type IntegrationInput struct {
	Enabled    bool
	WebhookURL string
	APIURL     string
	Username   string
	APIToken   string
	ProjectKey string
}

// IntegrationService manages the per-integration setting rows.
type IntegrationService struct {
	// DB is the database handle used for all setting operations.
	DB *gorm.DB
}

// Get returns the setting row for name, creating a disabled default row on
// first read. Returns ErrUnknownIntegration for names other than "slack"
// and "jira".
func (s *IntegrationService) Get(ctx context.Context, name string) (*domain.IntegrationSetting, error) {
	tr := otel.Tracer("services/IntegrationService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("integration", name)),
	)
	defer span.End()

	if !knownIntegration(name) {
		return nil, ErrUnknownIntegration
	}
	return repo.GetOrCreateIntegration(ctx, s.DB, name)
}

// Update overwrites the named integration's settings. Only the columns
// meaningful to that integration are written: webhook_url for slack;
// api_url/username/api_token/project_key for jira. Enabled applies to both.
func (s *IntegrationService) Update(ctx context.Context, name string, in IntegrationInput) (*domain.IntegrationSetting, error) {
	tr := otel.Tracer("services/IntegrationService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("integration", name)),
	)
	defer span.End()

	changes := map[string]any{"enabled": in.Enabled}
	switch name {
	case domain.IntegrationSlack:
		changes["webhook_url"] = in.WebhookURL
	case domain.IntegrationJira:
		changes["api_url"] = in.APIURL
		changes["username"] = in.Username
		changes["project_key"] = in.ProjectKey
		// Blank token means "keep the stored one" so the UI never has to
		// echo the secret back.
		if in.APIToken != "" {
			changes["api_token"] = in.APIToken
		}
	default:
		return nil, ErrUnknownIntegration
	}
	return repo.UpdateIntegration(ctx, s.DB, name, changes)
}

func knownIntegration(name string) bool {
	return name == domain.IntegrationSlack || name == domain.IntegrationJira
}
