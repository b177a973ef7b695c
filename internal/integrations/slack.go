// Package integrations implements the two best-effort outbound dispatchers:
// a Slack-style chat notification webhook and a Jira-style issue-tracker
// sync. Both read their persisted IntegrationSetting row at call time, both
// run synchronously inside the creating request with an explicit HTTP
// timeout, and neither ever propagates a failure to the caller. Failures
// are logged with full detail and counted.
package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/repo"
)

// DefaultTimeout caps each outbound call so an unresponsive remote endpoint
// cannot stall ticket creation indefinitely.
const DefaultTimeout = 10 * time.Second

// slackField is one key/value pair in a message attachment.
type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// slackAction is a button-style link attached to the message.
type slackAction struct {
	Type string `json:"type"`
	Text string `json:"text"`
	URL  string `json:"url"`
}

// slackAttachment is the styled block carrying the ticket fields.
type slackAttachment struct {
	Color   string        `json:"color"`
	Title   string        `json:"title"`
	Text    string        `json:"text"`
	Fields  []slackField  `json:"fields"`
	Actions []slackAction `json:"actions,omitempty"`
}

// slackMessage is the webhook payload: a text summary plus one attachment.
type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

// SlackNotifier posts a structured message to the configured webhook when a
// ticket is created. It implements services.Notifier.
type SlackNotifier struct {
	// DB is used to read the "slack" IntegrationSetting row per call, so
	// toggling the integration takes effect without a restart.
	DB *gorm.DB

	// Client performs the webhook POST. A client with DefaultTimeout is
	// used when nil.
	Client *http.Client

	// PublicBaseURL is the externally reachable base of this application,
	// used to build the deep link back to the ticket's edit view.
	PublicBaseURL string
}

// Notify builds and sends the new-ticket message. Disabled or unconfigured
// integration is a warn-level no-op; transport and non-2xx failures are
// logged at error level and counted. Notify never returns anything to the
// caller.
func (n *SlackNotifier) Notify(ctx context.Context, t *domain.Ticket) {
	setting, err := repo.GetOrCreateIntegration(ctx, n.DB, domain.IntegrationSlack)
	if err != nil {
		log.Error().Err(err).Msg("slack: read integration setting")
		dispatchFailures.WithLabelValues(domain.IntegrationSlack).Inc()
		return
	}
	if !setting.Enabled || setting.WebhookURL == "" {
		log.Warn().
			Bool("enabled", setting.Enabled).
			Str("ticket_id", t.ID).
			Msg("slack: integration disabled or webhook unset, skipping notification")
		return
	}

	msg := slackMessage{
		Text: fmt.Sprintf("New ticket: %s", t.Title),
		Attachments: []slackAttachment{{
			Color: priorityColor(t.Priority),
			Title: t.Title,
			Text:  t.Description,
			Fields: []slackField{
				{Title: "Ticket", Value: t.ID, Short: true},
				{Title: "Priority", Value: t.Priority, Short: true},
				{Title: "Category", Value: t.Category, Short: true},
				{Title: "Requester", Value: fmt.Sprintf("%s <%s>", t.RequesterName, t.RequesterEmail), Short: true},
			},
			Actions: []slackAction{{
				Type: "button",
				Text: "Open ticket",
				URL:  strings.TrimRight(n.PublicBaseURL, "/") + "/tickets/" + t.ID,
			}},
		}},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("ticket_id", t.ID).Msg("slack: marshal payload")
		dispatchFailures.WithLabelValues(domain.IntegrationSlack).Inc()
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, setting.WebhookURL, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("ticket_id", t.ID).Msg("slack: build request")
		dispatchFailures.WithLabelValues(domain.IntegrationSlack).Inc()
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client().Do(req)
	if err != nil {
		log.Error().Err(err).Str("ticket_id", t.ID).Msg("slack: webhook post failed")
		dispatchFailures.WithLabelValues(domain.IntegrationSlack).Inc()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Error().
			Int("status", resp.StatusCode).
			Str("ticket_id", t.ID).
			Str("response", string(detail)).
			Msg("slack: webhook rejected notification")
		dispatchFailures.WithLabelValues(domain.IntegrationSlack).Inc()
		return
	}

	log.Info().Str("ticket_id", t.ID).Msg("slack: notification sent")
}

func (n *SlackNotifier) client() *http.Client {
	if n.Client != nil {
		return n.Client
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// priorityColor maps ticket priority to the attachment accent color.
func priorityColor(priority string) string {
	switch priority {
	case domain.PriorityHigh:
		return "danger"
	case domain.PriorityLow:
		return "good"
	default:
		return "warning"
	}
}
