package service

import (
	"errors"

	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/model"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/pkg/jwt"
	"go-pharmacy-ledger/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(in *LoginInput) (*LoginResult, error)
	ChangePassword(employeeID uuid.UUID, in *ChangePasswordInput) error
	Logout(employeeID uuid.UUID) error
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token    string                 `json:"token"`
	Employee model.EmployeeResponse `json:"employee"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type authService struct {
	employeeRepo repository.EmployeeRepository
}

func NewAuthService(employeeRepo repository.EmployeeRepository) AuthService {
	return &authService{employeeRepo: employeeRepo}
}

// Login issues a token bound to a fresh token version. Rotating the version
// on every login invalidates any earlier session for the same account.
func (s *authService) Login(in *LoginInput) (*LoginResult, error) {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validationf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}

	emp, err := s.employeeRepo.FindByEmail(in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validationf("invalid email or password")
		}
		return nil, err
	}
	if !emp.IsActive {
		return nil, apperr.Validationf("account is deactivated, contact an administrator")
	}
	if !emp.CheckPassword(in.Password) {
		return nil, apperr.Validationf("invalid email or password")
	}

	version := uuid.NewString()
	if err := s.employeeRepo.UpdateTokenVersion(emp.ID, version); err != nil {
		return nil, err
	}

	roleCode := ""
	if emp.Role != nil {
		roleCode = emp.Role.Code
	}
	token, err := jwt.GenerateToken(emp.ID, emp.EmployeeNo, emp.Email, emp.FullName(), roleCode, emp.GetPrivilegeCodes(), version)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Employee: emp.ToResponse()}, nil
}

func (s *authService) ChangePassword(employeeID uuid.UUID, in *ChangePasswordInput) error {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		first := errs[0]
		return apperr.Validationf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}

	emp, err := s.employeeRepo.FindByID(employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("employee not found with id %s", employeeID)
		}
		return err
	}
	if !emp.CheckPassword(in.OldPassword) {
		return apperr.Validationf("old password is incorrect")
	}

	if err := emp.SetPassword(in.NewPassword); err != nil {
		return err
	}
	if err := s.employeeRepo.UpdatePassword(emp.ID, emp.Password); err != nil {
		return err
	}
	// Force re-login everywhere after a password change.
	return s.employeeRepo.UpdateTokenVersion(emp.ID, uuid.NewString())
}

// Logout clears the token version so the current token stops validating.
func (s *authService) Logout(employeeID uuid.UUID) error {
	return s.employeeRepo.UpdateTokenVersion(employeeID, uuid.NewString())
}
