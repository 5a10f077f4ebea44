package handler

import (
	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// AddLots handles POST /stocks
func (h *StockHandler) AddLots(c *fiber.Ctx) error {
	var in service.AddLotsInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	result, err := h.stockService.AddLots(&in)
	if err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, result)
}

// GetAll handles GET /stocks
func (h *StockHandler) GetAll(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	lots, err := h.stockService.GetAllLots(limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, lots)
}

// Search handles GET /stocks/search
func (h *StockHandler) Search(c *fiber.Ctx) error {
	params := repository.StockSearchParams{
		MedicineName:   c.Query("medicine_name"),
		BrandName:      c.Query("brand_name"),
		InvoiceNo:      c.Query("invoice_no"),
		WholesalerName: c.Query("wholesaler"),
		OrderBy:        c.Query("order_by"),
		OrderDesc:      c.Query("order") == "desc",
		Limit:          c.QueryInt("limit", 50),
		Offset:         c.QueryInt("offset", 0),
	}
	lots, total, err := h.stockService.SearchLots(params)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"total": total, "results": lots})
}

// GetExpiring handles GET /stocks/expiring
func (h *StockHandler) GetExpiring(c *fiber.Ctx) error {
	lots, err := h.stockService.GetExpiringLots(
		c.QueryInt("days", 0),
		c.QueryInt("months", 0),
		c.QueryInt("years", 0),
	)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, lots)
}

// GetExpired handles GET /stocks/expired
func (h *StockHandler) GetExpired(c *fiber.Ctx) error {
	recs, err := h.stockService.GetExpiredStock(c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, recs)
}

// GetByID handles GET /stocks/:id
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid medicine id"))
	}
	lot, err := h.stockService.GetLot(id)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, lot)
}

// Update handles PATCH /stocks/:id
func (h *StockHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid medicine id"))
	}
	var in service.UpdateLotInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	result, err := h.stockService.UpdateLot(id, &in)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, result)
}

// Delete handles DELETE /stocks/:id
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid medicine id"))
	}
	if err := h.stockService.DeleteLot(id); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "medicine deleted"})
}

// Expire handles POST /stocks/:id/expire
func (h *StockHandler) Expire(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid medicine id"))
	}
	rec, err := h.stockService.ExpireLot(id)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, rec)
}
