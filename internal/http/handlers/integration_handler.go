// Integration settings HTTP handlers.
//
// This file exposes the configuration surface of the two outbound
// integrations:
//   - GET /integrations/{name}  (read; lazily creates a disabled row)
//   - PUT /integrations/{name}  (update enabled flag and credentials)
//
// The API token is write-only: it is never echoed back in responses, and a
// blank token on update keeps the stored one.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/services"
)

// IntegrationService defines the persisted integration-setting operations
// consumed by HTTP handlers.
type IntegrationService interface {
	Get(ctx context.Context, name string) (*domain.IntegrationSetting, error)
	Update(ctx context.Context, name string, in services.IntegrationInput) (*domain.IntegrationSetting, error)
}

// UpdateIntegrationRequest is the JSON payload for updating an integration.
// WebhookURL applies to slack; APIURL/Username/APIToken/ProjectKey apply to
// jira. Irrelevant fields are ignored.
type UpdateIntegrationRequest struct {
	Enabled    bool   `json:"enabled"`
	WebhookURL string `json:"webhook_url,omitempty" example:"https://hooks.slack.com/services/T000/B000/XXXX"`
	APIURL     string `json:"api_url,omitempty" example:"https://issues.example.com"`
	Username   string `json:"username,omitempty" example:"helpdesk-bot"`
	APIToken   string `json:"api_token,omitempty"`
	ProjectKey string `json:"project_key,omitempty" example:"HELP"`
}

// GetIntegration godoc
// @ID          getIntegration
// @Summary     Read an integration's settings
// @Description Returns the named integration ("slack" or "jira"), creating a disabled default row on first read. The API token is never included.
// @Tags        Integrations
// @Produce     json
// @Param       name path string true "Integration name" Enums(slack, jira)
// @Success     200 {object} domain.IntegrationSetting
// @Failure     404 {object} handlers.ErrorResponse "Unknown integration"
// @Router      /integrations/{name} [get]
func (h *Handlers) GetIntegration(c *gin.Context) {
	s, err := h.integrationSvc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, services.ErrUnknownIntegration) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown integration")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load integration settings")
		return
	}
	ok(c, http.StatusOK, s)
}

// UpdateIntegration godoc
// @ID          updateIntegration
// @Summary     Update an integration's settings
// @Tags        Integrations
// @Accept      json
// @Produce     json
// @Param       name path string true "Integration name" Enums(slack, jira)
// @Param       body body handlers.UpdateIntegrationRequest true "Settings payload"
// @Success     200 {object} domain.IntegrationSetting
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     404 {object} handlers.ErrorResponse "Unknown integration"
// @Router      /integrations/{name} [put]
func (h *Handlers) UpdateIntegration(c *gin.Context) {
	var req UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.integrationSvc.Update(c.Request.Context(), c.Param("name"), services.IntegrationInput{
		Enabled:    req.Enabled,
		WebhookURL: req.WebhookURL,
		APIURL:     req.APIURL,
		Username:   req.Username,
		APIToken:   req.APIToken,
		ProjectKey: req.ProjectKey,
	})
	if err != nil {
		if errors.Is(err, services.ErrUnknownIntegration) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown integration")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update integration settings")
		return
	}
	ok(c, http.StatusOK, s)
}
