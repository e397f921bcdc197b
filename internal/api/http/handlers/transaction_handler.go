package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ralovishna/money-manager-api/internal/api/dto"
	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/service"
)

// TransactionHandler exposes one ledger. The same handler type serves
// /incomes and /expenses.
type TransactionHandler struct {
	ledger *service.TransactionService
}

// NewTransactionHandler constructs handler.
func NewTransactionHandler(ledger *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// Create handles POST /<ledger>.
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req dto.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	tx, err := h.ledger.Add(auth.RequestContext(c), req.Input())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTransactionResponse(*tx))
}

// List handles GET /<ledger>: the caller's entries for the current month.
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	txs, err := h.ledger.CurrentMonth(auth.RequestContext(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTransactionResponses(txs))
}

// Delete handles DELETE /<ledger>/:id.
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid id")
	}
	if err := h.ledger.Delete(auth.RequestContext(c), int64(id)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Download handles GET /<ledger>/excel/download/<kind>.
func (h *TransactionHandler) Download(c *fiber.Ctx) error {
	data, err := h.ledger.Export(auth.RequestContext(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, service.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", service.ReportFilename(h.ledger.Kind())))
	return c.Send(data)
}

// Email handles GET /<ledger>/email/<kind>-excel.
func (h *TransactionHandler) Email(c *fiber.Ctx) error {
	if err := h.ledger.EmailExport(auth.RequestContext(c)); err != nil {
		return err
	}
	kind := string(h.ledger.Kind())
	return c.JSON(dto.MessageResponse{
		Message: fmt.Sprintf("%s%s details emailed successfully", strings.ToUpper(kind[:1]), kind[1:]),
	})
}
