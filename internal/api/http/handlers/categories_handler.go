package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-tickets/internal/api/dto"
	"github.com/spec-kit/facility-tickets/internal/service"
)

// CategoriesHandler lists the ticket category catalogue.
type CategoriesHandler struct {
	service *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{service: categoryService}
}

// List GET /categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	categories, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, dto.CategoryResponse{Name: category.Name, Group: category.Group})
	}
	return c.JSON(fiber.Map{"data": items})
}
