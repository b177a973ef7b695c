// Ticket HTTP handlers.
//
// This file exposes REST endpoints for ticket resources:
//   - GET    /tickets          (list, display-formatted)
//   - POST   /tickets          (create, staff)
//   - GET    /tickets/{id}     (fetch one)
//   - PUT    /tickets/{id}     (update)
//   - DELETE /tickets/{id}     (soft delete)
//   - POST   /public/tickets   (unauthenticated submission form)
//
// Handlers are transport-thin: they validate input shape, call application
// services, and translate sentinel errors into HTTP responses. Dispatcher
// side effects (chat notification, issue sync) are entirely the service's
// concern and never influence the HTTP status.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-helpdesk-backend/internal/domain"
	"github.com/tbourn/go-helpdesk-backend/internal/services"
)

// TicketService defines the ticket lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type TicketService interface {
	// List returns all non-deleted tickets formatted for display.
	List(ctx context.Context) ([]services.TicketView, error)
	// Get returns one live ticket formatted for display.
	Get(ctx context.Context, id string) (*services.TicketView, error)
	// Create validates and persists a ticket, then fires best-effort dispatchers.
	Create(ctx context.Context, in services.TicketInput) (*domain.Ticket, error)
	// SubmitPublic is Create with category Support, status Open, priority Medium.
	SubmitPublic(ctx context.Context, subject, description, name, email string) (*domain.Ticket, error)
	// Update overwrites the editable fields of an existing ticket.
	Update(ctx context.Context, id string, in services.TicketInput) (*domain.Ticket, error)
	// SoftDelete marks a ticket deleted (idempotent).
	SoftDelete(ctx context.Context, id string) error
}

// CreateTicketRequest is the JSON payload for creating or updating a ticket.
// Field-level requiredness is enforced by the service so that validation
// errors surface uniformly as validation_failed.
type CreateTicketRequest struct {
	Title          string `json:"title" example:"Printer jam"`
	Description    string `json:"description" example:"Tray 2 stuck"`
	Status         string `json:"status,omitempty" example:"Open"`
	Priority       string `json:"priority,omitempty" example:"Medium"`
	Category       string `json:"category,omitempty" example:"Hardware"`
	AssignedTo     string `json:"assigned_to,omitempty" example:"s.ops"`
	RequesterName  string `json:"requester_name" example:"A. Lee"`
	RequesterEmail string `json:"requester_email" example:"a@x.com"`
}

// PublicTicketRequest is the JSON payload of the unauthenticated submission
// form.
type PublicTicketRequest struct {
	Subject     string `json:"subject" example:"Printer jam"`
	Description string `json:"description" example:"Tray 2 stuck"`
	Name        string `json:"name" example:"A. Lee"`
	Email       string `json:"email" example:"a@x.com"`
}

// ListTicketsResponse wraps the ticket list.
type ListTicketsResponse struct {
	Tickets []services.TicketView `json:"tickets"`
}

func (r CreateTicketRequest) input() services.TicketInput {
	return services.TicketInput{
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Priority:       r.Priority,
		Category:       r.Category,
		AssignedTo:     r.AssignedTo,
		RequesterName:  r.RequesterName,
		RequesterEmail: r.RequesterEmail,
	}
}

// ListTickets godoc
// @ID          listTickets
// @Summary     List tickets
// @Description Returns all non-deleted tickets, newest first, with display-formatted timestamps and issue-tracker links where available.
// @Tags        Tickets
// @Produce     json
// @Success     200 {object} handlers.ListTicketsResponse
// @Failure     500 {object} handlers.ErrorResponse "Internal error"
// @Router      /tickets [get]
func (h *Handlers) ListTickets(c *gin.Context) {
	items, err := h.ticketSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list tickets")
		return
	}
	ok(c, http.StatusOK, ListTicketsResponse{Tickets: items})
}

// GetTicket godoc
// @ID          getTicket
// @Summary     Fetch one ticket
// @Tags        Tickets
// @Produce     json
// @Param       id path string true "Ticket ID (UUID)" format(uuid)
// @Success     200 {object} services.TicketView
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     404 {object} handlers.ErrorResponse "Ticket not found"
// @Router      /tickets/{id} [get]
func (h *Handlers) GetTicket(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ticket id must be a UUID")
		return
	}
	v, err := h.ticketSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "ticket not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load ticket")
		return
	}
	ok(c, http.StatusOK, v)
}

// CreateTicket godoc
// @ID          createTicket
// @Summary     Create a ticket
// @Description Creates a ticket and fires the configured notification and issue-sync integrations best-effort.
// @Tags        Tickets
// @Accept      json
// @Produce     json
// @Param       body body handlers.CreateTicketRequest true "Ticket payload"
// @Success     201 {object} domain.Ticket
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     500 {object} handlers.ErrorResponse "Internal error"
// @Router      /tickets [post]
func (h *Handlers) CreateTicket(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	t, err := h.ticketSvc.Create(c.Request.Context(), req.input())
	if err != nil {
		if errors.Is(err, services.ErrMissingField) {
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		// Persistence failure: generic message to the user, detail in logs.
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create ticket")
		return
	}
	ok(c, http.StatusCreated, t)
}

// SubmitPublicTicket godoc
// @ID          submitPublicTicket
// @Summary     Submit a ticket (public form)
// @Description Unauthenticated submission: category is fixed to Support, status to Open, priority to Medium.
// @Tags        Tickets
// @Accept      json
// @Produce     json
// @Param       body body handlers.PublicTicketRequest true "Submission payload"
// @Success     201 {object} domain.Ticket
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     429 {object} handlers.ErrorResponse "Rate limited"
// @Failure     500 {object} handlers.ErrorResponse "Internal error"
// @Router      /public/tickets [post]
func (h *Handlers) SubmitPublicTicket(c *gin.Context) {
	var req PublicTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	t, err := h.ticketSvc.SubmitPublic(c.Request.Context(), req.Subject, req.Description, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrMissingField) {
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create ticket")
		return
	}
	ok(c, http.StatusCreated, t)
}

// UpdateTicket godoc
// @ID          updateTicket
// @Summary     Update a ticket
// @Tags        Tickets
// @Accept      json
// @Produce     json
// @Param       id   path string true "Ticket ID (UUID)" format(uuid)
// @Param       body body handlers.CreateTicketRequest true "Ticket payload"
// @Success     200 {object} domain.Ticket
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Ticket not found"
// @Failure     500 {object} handlers.ErrorResponse "Internal error"
// @Router      /tickets/{id} [put]
func (h *Handlers) UpdateTicket(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ticket id must be a UUID")
		return
	}
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	t, err := h.ticketSvc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, services.ErrTicketNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "ticket not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not update ticket")
		}
		return
	}
	ok(c, http.StatusOK, t)
}

// DeleteTicket godoc
// @ID          deleteTicket
// @Summary     Soft-delete a ticket
// @Description Marks the ticket deleted; the row is retained and excluded from listings. Idempotent.
// @Tags        Tickets
// @Param       id path string true "Ticket ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     404 {object} handlers.ErrorResponse "Ticket not found"
// @Router      /tickets/{id} [delete]
func (h *Handlers) DeleteTicket(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ticket id must be a UUID")
		return
	}
	if err := h.ticketSvc.SoftDelete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "ticket not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete ticket")
		return
	}
	noContent(c)
}
