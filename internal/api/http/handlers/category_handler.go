package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ralovishna/money-manager-api/internal/api/dto"
	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/service"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

// CategoryHandler exposes the caller's categories.
type CategoryHandler struct {
	categories *service.CategoryService
}

// NewCategoryHandler constructs handler.
func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	req, err := parseCategory(c)
	if err != nil {
		return err
	}
	category, err := h.categories.Save(auth.RequestContext(c), categoryInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewCategoryResponse(*category))
}

// List handles GET /categories.
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.categories.List(auth.RequestContext(c))
	if err != nil {
		return err
	}
	return categoryList(c, categories)
}

// ListByType handles GET /categories/:type.
func (h *CategoryHandler) ListByType(c *fiber.Ctx) error {
	kind := domain.TransactionKind(c.Params("type"))
	if !kind.Valid() {
		return apperrors.NewValidationError("invalid category type", map[string]any{"type": "must be income or expense"})
	}
	categories, err := h.categories.ListByType(auth.RequestContext(c), kind)
	if err != nil {
		return err
	}
	return categoryList(c, categories)
}

// Update handles PUT /categories/:id.
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid category id")
	}
	req, err := parseCategory(c)
	if err != nil {
		return err
	}
	category, err := h.categories.Update(auth.RequestContext(c), int64(id), categoryInput(req))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCategoryResponse(*category))
}

func parseCategory(c *fiber.Ctx) (dto.CategoryRequest, error) {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	return req, req.Validate()
}

func categoryInput(req dto.CategoryRequest) service.CategoryInput {
	return service.CategoryInput{Name: req.Name, Icon: req.Icon, Type: domain.TransactionKind(req.Type)}
}

func categoryList(c *fiber.Ctx, categories []domain.Category) error {
	if len(categories) == 0 {
		return c.SendStatus(http.StatusNoContent)
	}
	return c.JSON(dto.NewCategoryResponses(categories))
}
