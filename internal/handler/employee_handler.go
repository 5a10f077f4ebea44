package handler

import (
	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type EmployeeHandler struct {
	employeeService service.EmployeeService
}

func NewEmployeeHandler(employeeService service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService}
}

// Create handles POST /employees
func (h *EmployeeHandler) Create(c *fiber.Ctx) error {
	var in service.CreateEmployeeInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	emp, err := h.employeeService.CreateEmployee(&in)
	if err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, emp)
}

// GetAll handles GET /employees
func (h *EmployeeHandler) GetAll(c *fiber.Ctx) error {
	emps, err := h.employeeService.GetAllEmployees()
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, emps)
}

// GetByID handles GET /employees/:id
func (h *EmployeeHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid employee id"))
	}
	emp, err := h.employeeService.GetEmployee(id)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, emp)
}

// Update handles PATCH /employees/:id
func (h *EmployeeHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid employee id"))
	}
	var in service.UpdateEmployeeInput
	if err := c.BodyParser(&in); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	emp, err := h.employeeService.UpdateEmployee(id, &in)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, emp)
}

// UpdatePrivileges handles PUT /employees/:id/privileges
func (h *EmployeeHandler) UpdatePrivileges(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid employee id"))
	}
	var body struct {
		Privileges []string `json:"privileges"`
	}
	if err := c.BodyParser(&body); err != nil {
		return respondError(c, apperr.Validationf("invalid request body: %v", err))
	}
	emp, err := h.employeeService.UpdatePrivileges(id, body.Privileges)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, emp)
}

// Delete handles DELETE /employees/:id
func (h *EmployeeHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.Validationf("invalid employee id"))
	}
	if err := h.employeeService.DeleteEmployee(id); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "employee deleted"})
}
