package handler

import (
	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type WholesalerHandler struct {
	wholesalerService service.WholesalerService
}

func NewWholesalerHandler(wholesalerService service.WholesalerService) *WholesalerHandler {
	return &WholesalerHandler{wholesalerService: wholesalerService}
}

// Create handles POST /wholesalers
func (h *WholesalerHandler) Create(c *fiber.Ctx) error {
	var in service.CreateWholesalerInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	w, err := h.wholesalerService.CreateWholesaler(&in)
	if err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, w)
}

// GetAll handles GET /wholesalers
func (h *WholesalerHandler) GetAll(c *fiber.Ctx) error {
	ws, err := h.wholesalerService.GetAllWholesalers()
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, ws)
}

// GetByID handles GET /wholesalers/:id
func (h *WholesalerHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid wholesaler id"))
	}
	w, err := h.wholesalerService.GetWholesaler(id)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, w)
}

// Update handles PATCH /wholesalers/:id
func (h *WholesalerHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid wholesaler id"))
	}
	var in service.UpdateWholesalerInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	w, err := h.wholesalerService.UpdateWholesaler(id, &in)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, w)
}

// Delete handles DELETE /wholesalers/:id
func (h *WholesalerHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid wholesaler id"))
	}
	if err := h.wholesalerService.DeleteWholesaler(id); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "wholesaler deleted"})
}
