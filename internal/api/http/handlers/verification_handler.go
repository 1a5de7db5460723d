package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-tickets/internal/api/dto"
	"github.com/spec-kit/facility-tickets/internal/auth"
	"github.com/spec-kit/facility-tickets/internal/service"
	apperrors "github.com/spec-kit/facility-tickets/pkg/util"
)

// VerificationHandler lets a reporter close a completed ticket with an
// emailed code.
type VerificationHandler struct {
	service *service.VerificationService
}

// NewVerificationHandler constructs handler.
func NewVerificationHandler(verificationService *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: verificationService}
}

// Request POST /tickets/:id/verification.
func (h *VerificationHandler) Request(c *fiber.Ctx) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return err
	}
	issued, err := h.service.RequestVerification(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": dto.VerificationResponse{
		TicketID:  issued.TicketID,
		ExpiresAt: issued.ExpiresAt,
	}})
}

// Confirm POST /tickets/:id/verification/confirm.
func (h *VerificationHandler) Confirm(c *fiber.Ctx) error {
	caller, err := auth.CallerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.VerifyTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Verify(c.UserContext(), caller, c.Params("id"), req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}
