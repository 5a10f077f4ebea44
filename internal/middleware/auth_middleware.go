package middleware

import (
	"strings"

	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the bearer token and checks its version against the
// employee record, so a token outlived by a newer login stops working.
func RequireAuth(employeeRepo repository.EmployeeRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "missing authorization header",
			})
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid authorization header format",
			})
		}

		claims, err := jwt.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "invalid or expired token",
			})
		}

		emp, err := employeeRepo.FindByID(claims.EmployeeID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "account no longer exists",
			})
		}
		if !emp.IsActive {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "account is deactivated",
			})
		}
		if emp.TokenVersion != claims.TokenVersion {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "session superseded by a newer login",
			})
		}

		c.Locals("employee_id", emp.ID)
		c.Locals("employee_no", emp.EmployeeNo)
		c.Locals("employee_name", emp.FullName())
		c.Locals("privileges", emp.GetPrivilegeCodes())
		return c.Next()
	}
}

// RequirePrivilege gates a route on a single privilege code.
func RequirePrivilege(code string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("privileges").([]string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "access denied",
			})
		}
		for _, p := range privileges {
			if p == code {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "access denied: requires " + code,
		})
	}
}

// RequireAnyPrivilege passes when the employee holds at least one of the
// given codes.
func RequireAnyPrivilege(codes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("privileges").([]string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "access denied",
			})
		}
		for _, p := range privileges {
			for _, code := range codes {
				if p == code {
					return c.Next()
				}
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "access denied",
		})
	}
}
