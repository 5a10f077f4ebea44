package handler

import (
	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in service.ProcessSaleInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}

	employeeID, ok := c.Locals("employee_id").(uuid.UUID)
	if !ok {
		return respondError(c, apperr.Validationf("missing employee identity"))
	}
	in.EmployeeID = employeeID

	receipt, err := h.saleService.ProcessSale(&in)
	if err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, receipt)
}

// GetAll handles GET /sales
func (h *SaleHandler) GetAll(c *fiber.Ctx) error {
	sales, err := h.saleService.GetAllSales(c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, sales)
}

// Search handles GET /sales/search
func (h *SaleHandler) Search(c *fiber.Ctx) error {
	params := repository.SaleSearchParams{
		SaleNo:       c.Query("sale_no"),
		CustomerName: c.Query("customer_name"),
		DateFrom:     c.Query("date_from"),
		DateTo:       c.Query("date_to"),
		Limit:        c.QueryInt("limit", 50),
		Offset:       c.QueryInt("offset", 0),
	}
	sales, total, err := h.saleService.SearchSales(params)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"total": total, "results": sales})
}

// GetByID handles GET /sales/:id
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid sale id"))
	}
	sale, err := h.saleService.GetSale(id)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, sale)
}

// Delete handles DELETE /sales/:id
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid sale id"))
	}
	if err := h.saleService.DeleteSale(id); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "sale deleted"})
}
