package handlers

// Handlers groups the HTTP endpoints for tickets, integrations, and the
// knowledge base. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	ticketSvc      TicketService
	kbSvc          KnowledgeBaseService
	integrationSvc IntegrationService

	uploadDir string
}

// New constructs a Handlers instance bound to the given services. uploadDir
// is the directory that receives image uploads; it must exist.
func New(ticketSvc TicketService, kbSvc KnowledgeBaseService, integrationSvc IntegrationService, uploadDir string) *Handlers {
	return &Handlers{
		ticketSvc:      ticketSvc,
		kbSvc:          kbSvc,
		integrationSvc: integrationSvc,
		uploadDir:      uploadDir,
	}
}
