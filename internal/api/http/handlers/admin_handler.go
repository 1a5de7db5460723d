package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-tickets/internal/api/dto"
	"github.com/spec-kit/facility-tickets/internal/auth"
	"github.com/spec-kit/facility-tickets/internal/service"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

// AdminHandler serves the admin console: assignment and worker accounts.
type AdminHandler struct {
	assignments *service.AssignmentService
	staff       *service.StaffService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(assignments *service.AssignmentService, staff *service.StaffService) *AdminHandler {
	return &AdminHandler{assignments: assignments, staff: staff}
}

// AssignTicket POST /admin/tickets/:id/assign.
func (h *AdminHandler) AssignTicket(c *fiber.Ctx) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.assignments.Assign(c.UserContext(), caller, c.Params("id"), req.WorkerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListWorkers GET /admin/workers.
func (h *AdminHandler) ListWorkers(c *fiber.Ctx) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return err
	}
	workers, err := h.staff.ListWorkers(c.UserContext(), caller)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(workers))
	for i := range workers {
		items = append(items, userResponse(&workers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateWorker POST /admin/workers.
func (h *AdminHandler) CreateWorker(c *fiber.Ctx) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateWorkerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	worker, err := h.staff.CreateWorker(c.UserContext(), caller, service.WorkerInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		ContactNumber: req.ContactNumber,
		FieldOfWork:   req.FieldOfWork,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(worker)})
}
