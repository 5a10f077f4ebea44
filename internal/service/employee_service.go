package service

import (
	"errors"
	"time"

	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/model"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// temporaryPassword is set on every new account; employees change it on
// first login.
const temporaryPassword = "123456"

type EmployeeService interface {
	CreateEmployee(in *CreateEmployeeInput) (*model.EmployeeResponse, error)
	GetEmployee(id uuid.UUID) (*model.EmployeeResponse, error)
	GetAllEmployees() ([]model.EmployeeResponse, error)
	UpdateEmployee(id uuid.UUID, in *UpdateEmployeeInput) (*model.EmployeeResponse, error)
	UpdatePrivileges(id uuid.UUID, codes []string) (*model.EmployeeResponse, error)
	DeleteEmployee(id uuid.UUID) error
}

type CreateEmployeeInput struct {
	FirstName     string          `json:"first_name" validate:"required"`
	LastName      string          `json:"last_name"`
	Gender        string          `json:"gender"`
	Email         string          `json:"email" validate:"required,email"`
	ContactNumber string          `json:"contact_number"`
	Address       string          `json:"address"`
	DateOfBirth   *time.Time      `json:"date_of_birth"`
	DateOfJoining *time.Time      `json:"date_of_joining"`
	Salary        decimal.Decimal `json:"salary" validate:"decimal_gte0"`
	RoleCode      string          `json:"role_code" validate:"required"`
}

type UpdateEmployeeInput struct {
	FirstName     *string          `json:"first_name"`
	LastName      *string          `json:"last_name"`
	Gender        *string          `json:"gender"`
	ContactNumber *string          `json:"contact_number"`
	Address       *string          `json:"address"`
	Salary        *decimal.Decimal `json:"salary"`
	RoleCode      *string          `json:"role_code"`
	IsActive      *bool            `json:"is_active"`
}

type employeeService struct {
	employeeRepo  repository.EmployeeRepository
	roleRepo      repository.RoleRepository
	privilegeRepo repository.PrivilegeRepository
}

func NewEmployeeService(
	employeeRepo repository.EmployeeRepository,
	roleRepo repository.RoleRepository,
	privilegeRepo repository.PrivilegeRepository,
) EmployeeService {
	return &employeeService{
		employeeRepo:  employeeRepo,
		roleRepo:      roleRepo,
		privilegeRepo: privilegeRepo,
	}
}

// CreateEmployee registers a staff member with the temporary password and
// the default privilege set of the chosen role.
func (s *employeeService) CreateEmployee(in *CreateEmployeeInput) (*model.EmployeeResponse, error) {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validationf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}

	role, err := s.roleRepo.FindByCode(in.RoleCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validationf("unknown role %q", in.RoleCode)
		}
		return nil, err
	}

	emp := model.Employee{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Gender:        in.Gender,
		Email:         in.Email,
		ContactNumber: in.ContactNumber,
		Address:       in.Address,
		DateOfBirth:   in.DateOfBirth,
		DateOfJoining: in.DateOfJoining,
		Salary:        in.Salary,
		RoleID:        &role.ID,
		IsActive:      true,
		Privileges:    role.Privileges,
	}
	if err := emp.SetPassword(temporaryPassword); err != nil {
		return nil, err
	}

	if err := s.employeeRepo.Create(&emp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflictf("employee with email %q already exists", in.Email)
		}
		return nil, err
	}

	created, err := s.employeeRepo.FindByID(emp.ID)
	if err != nil {
		return nil, err
	}
	resp := created.ToResponse()
	return &resp, nil
}

func (s *employeeService) GetEmployee(id uuid.UUID) (*model.EmployeeResponse, error) {
	emp, err := s.employeeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("employee not found with id %s", id)
		}
		return nil, err
	}
	resp := emp.ToResponse()
	return &resp, nil
}

func (s *employeeService) GetAllEmployees() ([]model.EmployeeResponse, error) {
	emps, err := s.employeeRepo.FindAll()
	if err != nil {
		return nil, err
	}
	resps := make([]model.EmployeeResponse, len(emps))
	for i := range emps {
		resps[i] = emps[i].ToResponse()
	}
	return resps, nil
}

func (s *employeeService) UpdateEmployee(id uuid.UUID, in *UpdateEmployeeInput) (*model.EmployeeResponse, error) {
	emp, err := s.employeeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("employee not found with id %s", id)
		}
		return nil, err
	}

	if in.FirstName != nil {
		if *in.FirstName == "" {
			return nil, apperr.Validationf("first_name must not be empty")
		}
		emp.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		emp.LastName = *in.LastName
	}
	if in.Gender != nil {
		emp.Gender = *in.Gender
	}
	if in.ContactNumber != nil {
		emp.ContactNumber = *in.ContactNumber
	}
	if in.Address != nil {
		emp.Address = *in.Address
	}
	if in.Salary != nil {
		if in.Salary.IsNegative() {
			return nil, apperr.Validationf("salary must not be negative")
		}
		emp.Salary = *in.Salary
	}
	if in.RoleCode != nil {
		role, err := s.roleRepo.FindByCode(*in.RoleCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validationf("unknown role %q", *in.RoleCode)
			}
			return nil, err
		}
		emp.RoleID = &role.ID
	}
	if in.IsActive != nil {
		emp.IsActive = *in.IsActive
	}

	if err := s.employeeRepo.Update(emp); err != nil {
		return nil, err
	}

	updated, err := s.employeeRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	resp := updated.ToResponse()
	return &resp, nil
}

// UpdatePrivileges replaces the employee's privilege set with the named
// codes. Unknown codes are rejected as a whole rather than silently skipped.
func (s *employeeService) UpdatePrivileges(id uuid.UUID, codes []string) (*model.EmployeeResponse, error) {
	privileges, err := s.privilegeRepo.FindByCodes(codes)
	if err != nil {
		return nil, err
	}
	if len(privileges) != len(codes) {
		return nil, apperr.Validationf("one or more privilege codes are unknown")
	}

	if err := s.employeeRepo.UpdatePrivileges(id, privileges); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("employee not found with id %s", id)
		}
		return nil, err
	}
	return s.GetEmployee(id)
}

func (s *employeeService) DeleteEmployee(id uuid.UUID) error {
	if _, err := s.employeeRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("employee not found with id %s", id)
		}
		return err
	}
	return s.employeeRepo.Delete(id)
}
