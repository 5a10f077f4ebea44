package handler

import (
	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// GetAll handles GET /invoices
func (h *InvoiceHandler) GetAll(c *fiber.Ctx) error {
	invoices, err := h.invoiceService.GetAllInvoices(c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, invoices)
}

// Search handles GET /invoices/search
func (h *InvoiceHandler) Search(c *fiber.Ctx) error {
	params := repository.InvoiceSearchParams{
		InvoiceNo:      c.Query("invoice_no"),
		PaymentStatus:  c.Query("payment_status"),
		WholesalerName: c.Query("wholesaler"),
		DateFrom:       c.Query("date_from"),
		DateTo:         c.Query("date_to"),
		OrderBy:        c.Query("order_by"),
		OrderDesc:      c.Query("order") == "desc",
		Limit:          c.QueryInt("limit", 50),
		Offset:         c.QueryInt("offset", 0),
	}
	invoices, total, err := h.invoiceService.SearchInvoices(params)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"total": total, "results": invoices})
}

// GetByID handles GET /invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid invoice id"))
	}
	inv, err := h.invoiceService.GetInvoice(id)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, inv)
}

// RecordPayment handles POST /invoices/:id/payments
func (h *InvoiceHandler) RecordPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid invoice id"))
	}
	var in service.RecordPaymentInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	inv, err := h.invoiceService.RecordPayment(id, &in)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, inv)
}

// Delete handles DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid invoice id"))
	}
	if err := h.invoiceService.DeleteInvoice(id); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "invoice deleted"})
}
