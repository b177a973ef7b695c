// Package services – TicketService
//
// This file implements TicketService, the application-level component that
// owns the ticket lifecycle. It validates input, applies creation defaults,
// persists tickets, and orchestrates the two best-effort outbound
// dispatchers (chat notification, issue-tracker sync) after the primary row
// has been committed. Dispatcher failures never roll back or surface; they
// are logged and counted for operator visibility.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// ticket identifiers where applicable.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/repo"
)

// displayTimeLayout renders instants as MM/DD/YYYY hh:mm AM|PM.
const displayTimeLayout = "01/02/2006 03:04 PM"

// publicCategory is the fixed category for tickets arriving through the
// unauthenticated submission form.
const publicCategory = "Support"

// ticketsCreated counts successfully persisted tickets by origin
// ("staff" or "public").
var ticketsCreated = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "helpdesk_tickets_created_total",
		Help: "Total number of tickets created.",
	},
	[]string{"origin"},
)

func init() {
	prometheus.MustRegister(ticketsCreated)
}

// Notifier posts a chat notification for a freshly created ticket.
// Implementations must be best-effort: they never return an error and never
// panic; failures are logged internally.
type Notifier interface {
	Notify(ctx context.Context, t *domain.Ticket)
}

// IssueSyncer creates one remote issue-tracker issue per ticket. It returns
// the remote-assigned key, or "" when the integration is disabled,
// incomplete, or the call failed. It never returns an error to the caller.
type IssueSyncer interface {
	CreateRemoteIssue(ctx context.Context, t *domain.Ticket) string
}

// TicketInput carries the editable fields of a ticket. Blank Status and
// Priority fall back to Open and Medium on creation.
type TicketInput struct {
	Title          string
	Description    string
	Status         string
	Priority       string
	Category       string
	AssignedTo     string
	RequesterName  string
	RequesterEmail string
}

// TicketView is a display-ready projection of a ticket: the raw record plus
// instants rendered in the configured display time zone and, when the issue
// tracker is enabled and the ticket carries a key, a browse URL into it.
type TicketView struct {
	domain.Ticket
	CreatedAtDisplay string `json:"created_at_display"`
	UpdatedAtDisplay string `json:"updated_at_display"`
	CreatedAtISO     string `json:"created_at_iso"`
	UpdatedAtISO     string `json:"updated_at_iso"`
	IssueURL         string `json:"issue_url,omitempty"`
}

// TicketService coordinates ticket persistence, display formatting, and the
// post-create outbound side effects.
type TicketService struct {
	// DB is the database handle used for all ticket operations.
	DB *gorm.DB

	// Notifier and IssueSync are the best-effort outbound dispatchers run
	// after a ticket is created. Either may be nil (e.g. in tests), in
	// which case the corresponding side effect is skipped.
	Notifier  Notifier
	IssueSync IssueSyncer

	// DisplayLocation is the fixed time zone used for human-readable
	// timestamps. UTC is used when nil.
	DisplayLocation *time.Location
}

// List returns all non-deleted tickets, newest first, each formatted for
// display. The issue-tracker setting is read once per call so browse URLs
// stay consistent across the page.
func (s *TicketService) List(ctx context.Context) ([]TicketView, error) {
	tr := otel.Tracer("services/TicketService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	items, err := repo.ListTickets(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	browseBase := s.issueBrowseBase(ctx)
	out := make([]TicketView, 0, len(items))
	for i := range items {
		out = append(out, s.view(&items[i], browseBase))
	}
	return out, nil
}

// Get fetches one live ticket formatted for display. Returns
// ErrTicketNotFound when absent or soft-deleted.
func (s *TicketService) Get(ctx context.Context, id string) (*TicketView, error) {
	tr := otel.Tracer("services/TicketService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("ticket.id", id)),
	)
	defer span.End()

	t, err := repo.GetTicket(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	v := s.view(t, s.issueBrowseBase(ctx))
	return &v, nil
}

// Create validates in, persists a new ticket with defaults applied, and then
// fires the two best-effort dispatchers. A key returned by the issue-sync
// dispatcher is written back onto the ticket in a second write; a failure of
// that back-fill is only logged.
//
// Validation: Title, Description, RequesterName, and RequesterEmail must be
// non-blank; otherwise ErrMissingField (wrapped with the field name) is
// returned and nothing is persisted. Dispatcher failures never affect the
// returned ticket or error.
func (s *TicketService) Create(ctx context.Context, in TicketInput) (*domain.Ticket, error) {
	return s.create(ctx, in, "staff")
}

// SubmitPublic is the unauthenticated submission variant of Create: category
// is fixed to "Support", status to Open, and priority to Medium.
func (s *TicketService) SubmitPublic(ctx context.Context, subject, description, name, email string) (*domain.Ticket, error) {
	return s.create(ctx, TicketInput{
		Title:          subject,
		Description:    description,
		Status:         domain.StatusOpen,
		Priority:       domain.PriorityMedium,
		Category:       publicCategory,
		RequesterName:  name,
		RequesterEmail: email,
	}, "public")
}

func (s *TicketService) create(ctx context.Context, in TicketInput, origin string) (*domain.Ticket, error) {
	tr := otel.Tracer("services/TicketService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("ticket.origin", origin)),
	)
	defer span.End()

	if err := validateRequired(in); err != nil {
		return nil, err
	}

	t := &domain.Ticket{
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Status:         in.Status,
		Priority:       in.Priority,
		Category:       strings.TrimSpace(in.Category),
		AssignedTo:     strings.TrimSpace(in.AssignedTo),
		RequesterName:  strings.TrimSpace(in.RequesterName),
		RequesterEmail: strings.TrimSpace(in.RequesterEmail),
	}
	if t.Status == "" {
		t.Status = domain.StatusOpen
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}

	if _, err := repo.CreateTicket(ctx, s.DB, t); err != nil {
		log.Error().Err(err).Str("origin", origin).Msg("persist ticket failed")
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	ticketsCreated.WithLabelValues(origin).Inc()
	span.SetAttributes(attribute.String("ticket.id", t.ID))

	// Best-effort side effects. Neither call may fail the request; the
	// ticket row above is already committed and stays committed.
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, t)
	}
	if s.IssueSync != nil {
		if key := s.IssueSync.CreateRemoteIssue(ctx, t); key != "" {
			if err := repo.SetExternalIssueKey(ctx, s.DB, t.ID, key); err != nil {
				log.Error().Err(err).
					Str("ticket_id", t.ID).
					Str("issue_key", key).
					Msg("back-fill external issue key failed")
			} else {
				t.ExternalIssueKey = key
			}
		}
	}

	return t, nil
}

// Update overwrites the editable fields of the ticket identified by id and
// refreshes updated_at. Returns ErrTicketNotFound when no live ticket
// matches. Blank Status/Priority are preserved as sent; update performs no
// defaulting.
func (s *TicketService) Update(ctx context.Context, id string, in TicketInput) (*domain.Ticket, error) {
	tr := otel.Tracer("services/TicketService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("ticket.id", id)),
	)
	defer span.End()

	if err := validateRequired(in); err != nil {
		return nil, err
	}

	changes := map[string]any{
		"title":           strings.TrimSpace(in.Title),
		"description":     in.Description,
		"status":          in.Status,
		"priority":        in.Priority,
		"category":        strings.TrimSpace(in.Category),
		"assigned_to":     strings.TrimSpace(in.AssignedTo),
		"requester_name":  strings.TrimSpace(in.RequesterName),
		"requester_email": strings.TrimSpace(in.RequesterEmail),
	}
	if err := repo.UpdateTicket(ctx, s.DB, id, changes); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	t, err := repo.GetTicket(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SoftDelete marks the ticket as deleted. The operation is idempotent:
// deleting an already-deleted ticket succeeds without error. Returns
// ErrTicketNotFound only when no row with the given id exists.
func (s *TicketService) SoftDelete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/TicketService")
	ctx, span := tr.Start(ctx, "SoftDelete",
		trace.WithAttributes(attribute.String("ticket.id", id)),
	)
	defer span.End()

	err := repo.SoftDeleteTicket(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrTicketNotFound
	}
	return err
}

// FormatForDisplay produces the display projection of a single ticket.
func (s *TicketService) FormatForDisplay(ctx context.Context, t *domain.Ticket) TicketView {
	return s.view(t, s.issueBrowseBase(ctx))
}

// view renders one ticket with browseBase pre-resolved ("" disables issue
// URLs).
func (s *TicketService) view(t *domain.Ticket, browseBase string) TicketView {
	loc := s.DisplayLocation
	if loc == nil {
		loc = time.UTC
	}
	v := TicketView{
		Ticket:           *t,
		CreatedAtDisplay: t.CreatedAt.In(loc).Format(displayTimeLayout),
		UpdatedAtDisplay: t.UpdatedAt.In(loc).Format(displayTimeLayout),
		CreatedAtISO:     t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtISO:     t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if browseBase != "" && t.ExternalIssueKey != "" {
		v.IssueURL = browseBase + "/browse/" + t.ExternalIssueKey
	}
	return v
}

// issueBrowseBase returns the issue-tracker server base URL when the jira
// integration is enabled and configured, else "".
func (s *TicketService) issueBrowseBase(ctx context.Context) string {
	setting, err := repo.GetOrCreateIntegration(ctx, s.DB, domain.IntegrationJira)
	if err != nil {
		log.Warn().Err(err).Msg("read jira setting for display")
		return ""
	}
	if !setting.Enabled || setting.APIURL == "" {
		return ""
	}
	return strings.TrimRight(setting.APIURL, "/")
}

// validateRequired enforces the non-empty invariants shared by create and
// update.
func validateRequired(in TicketInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title", ErrMissingField)
	case strings.TrimSpace(in.Description) == "":
		return fmt.Errorf("%w: description", ErrMissingField)
	case strings.TrimSpace(in.RequesterName) == "":
		return fmt.Errorf("%w: requester_name", ErrMissingField)
	case strings.TrimSpace(in.RequesterEmail) == "":
		return fmt.Errorf("%w: requester_email", ErrMissingField)
	}
	return nil
}
