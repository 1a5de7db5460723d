package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-tickets/internal/api/dto"
	"github.com/spec-kit/facility-tickets/internal/auth"
	"github.com/spec-kit/facility-tickets/internal/domain"
	"github.com/spec-kit/facility-tickets/internal/service"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

const maxPageSize = 100

// TicketsHandler serves ticket reads, creation and worker completion.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), caller, service.TicketCreateInput{
		Subject:       req.Subject,
		Description:   req.Description,
		Location:      req.Location,
		Category:      req.Category,
		ContactNumber: req.ContactNumber,
		Priority:      req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return err
	}
	query, page, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), caller, query)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items, "pagination": page})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CompleteTicket POST /tickets/:id/complete.
func (h *TicketsHandler) CompleteTicket(c *fiber.Ctx) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Complete(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketQuery, dto.Pagination, error) {
	query := service.TicketQuery{Scope: strings.ToLower(strings.TrimSpace(c.Query("scope")))}
	for _, part := range splitList(c.Query("status")) {
		status, err := domain.ParseTicketStatus(part)
		if err != nil {
			return query, dto.Pagination{}, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
		}
		query.Statuses = append(query.Statuses, status)
	}
	for _, part := range splitList(c.Query("priority")) {
		priority := domain.TicketPriority(part)
		if !priority.Valid() {
			return query, dto.Pagination{}, apperrors.NewValidationError("unknown priority", map[string]any{"priority": part})
		}
		query.Priorities = append(query.Priorities, priority)
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		query.Category = &category
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query.SearchTerm = &search
	}

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	query.Offset = (page - 1) * pageSize
	query.Limit = pageSize
	return query, dto.Pagination{Page: page, PageSize: pageSize}, nil
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:            ticket.ID,
		Subject:       ticket.Subject,
		Description:   ticket.Description,
		Location:      ticket.Location,
		Category:      ticket.Category,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		ContactNumber: ticket.ContactNumber,
		Reporter: dto.TicketReporter{
			ID:    ticket.ReporterID,
			Name:  ticket.ReporterName,
			Email: ticket.ReporterEmail,
		},
		WorkerID:    ticket.WorkerID,
		AdminID:     ticket.AdminID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		CompletedAt: ticket.CompletedAt,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		ContactNumber: user.ContactNumber,
		RollNumber:    user.RollNumber,
		FieldOfWork:   user.FieldOfWork,
		CreatedAt:     user.CreatedAt,
	}
}
