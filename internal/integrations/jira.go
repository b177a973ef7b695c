package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/repo"
)

// issueType is the fixed type used for every ticket-synced issue.
const issueType = "Task"

// jiraIssueRequest is the REST v2 create-issue payload.
type jiraIssueRequest struct {
	Fields jiraIssueFields `json:"fields"`
}

type jiraIssueFields struct {
	Project     jiraProject   `json:"project"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	IssueType   jiraIssueType `json:"issuetype"`
}

type jiraProject struct {
	Key string `json:"key"`
}

type jiraIssueType struct {
	Name string `json:"name"`
}

// jiraIssueResponse carries the remote-assigned key (e.g. "PROJ-42").
type jiraIssueResponse struct {
	Key string `json:"key"`
}

// JiraClient creates one remote tracking issue per ticket. It implements
// services.IssueSyncer.
type JiraClient struct {
	// DB is used to read the "jira" IntegrationSetting row per call.
	DB *gorm.DB

	// Client performs the create-issue POST. A client with DefaultTimeout
	// is used when nil.
	Client *http.Client
}

// CreateRemoteIssue requests creation of one issue with summary = ticket
// title and description = ticket description under the configured project,
// authenticating with basic auth. It returns the remote key on success and
// "" in every other case: integration disabled, settings incomplete, or any
// network/auth/remote failure (all logged with full detail, never raised).
func (j *JiraClient) CreateRemoteIssue(ctx context.Context, t *domain.Ticket) string {
	setting, err := repo.GetOrCreateIntegration(ctx, j.DB, domain.IntegrationJira)
	if err != nil {
		log.Error().Err(err).Msg("jira: read integration setting")
		dispatchFailures.WithLabelValues(domain.IntegrationJira).Inc()
		return ""
	}
	if !setting.Enabled || incomplete(setting) {
		log.Warn().
			Bool("enabled", setting.Enabled).
			Str("ticket_id", t.ID).
			Msg("jira: integration disabled or incomplete, skipping issue sync")
		return ""
	}

	payload := jiraIssueRequest{
		Fields: jiraIssueFields{
			Project:     jiraProject{Key: setting.ProjectKey},
			Summary:     t.Title,
			Description: t.Description,
			IssueType:   jiraIssueType{Name: issueType},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("ticket_id", t.ID).Msg("jira: marshal payload")
		dispatchFailures.WithLabelValues(domain.IntegrationJira).Inc()
		return ""
	}

	url := strings.TrimRight(setting.APIURL, "/") + "/rest/api/2/issue"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("ticket_id", t.ID).Msg("jira: build request")
		dispatchFailures.WithLabelValues(domain.IntegrationJira).Inc()
		return ""
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(setting.Username, setting.APIToken)

	resp, err := j.client().Do(req)
	if err != nil {
		log.Error().Err(err).Str("ticket_id", t.ID).Str("url", url).Msg("jira: create issue failed")
		dispatchFailures.WithLabelValues(domain.IntegrationJira).Inc()
		return ""
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().
			Int("status", resp.StatusCode).
			Str("ticket_id", t.ID).
			Str("response", string(raw)).
			Msg("jira: remote rejected issue creation")
		dispatchFailures.WithLabelValues(domain.IntegrationJira).Inc()
		return ""
	}

	var out jiraIssueResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Key == "" {
		log.Error().
			Err(err).
			Str("ticket_id", t.ID).
			Str("response", string(raw)).
			Msg("jira: unexpected create-issue response")
		dispatchFailures.WithLabelValues(domain.IntegrationJira).Inc()
		return ""
	}

	log.Info().Str("ticket_id", t.ID).Str("issue_key", out.Key).Msg("jira: issue created")
	return out.Key
}

func (j *JiraClient) client() *http.Client {
	if j.Client != nil {
		return j.Client
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// incomplete reports whether any connection setting required for the
// create-issue call is blank.
func incomplete(s *domain.IntegrationSetting) bool {
	return s.APIURL == "" || s.Username == "" || s.APIToken == "" || s.ProjectKey == ""
}
