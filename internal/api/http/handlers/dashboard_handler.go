package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ralovishna/money-manager-api/internal/api/dto"
	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/service"
)

// DashboardHandler serves the cross-ledger views.
type DashboardHandler struct {
	dashboard *service.DashboardService
	ledgers   map[domain.TransactionKind]*service.TransactionService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService, ledgers ...*service.TransactionService) *DashboardHandler {
	h := &DashboardHandler{dashboard: dashboard, ledgers: make(map[domain.TransactionKind]*service.TransactionService, len(ledgers))}
	for _, l := range ledgers {
		h.ledgers[l.Kind()] = l
	}
	return h
}

// Dashboard handles GET /dashboard.
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.dashboard.Get(auth.RequestContext(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewDashboardResponse(d))
}

// Filter handles POST /filter.
func (h *DashboardHandler) Filter(c *fiber.Ctx) error {
	var req dto.FilterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}
	ledger, ok := h.ledgers[domain.TransactionKind(req.Type)]
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "Invalid type. Must be 'income' or 'expense'")
	}

	txs, err := ledger.Filter(auth.RequestContext(c), req.Filter())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTransactionResponses(txs))
}

