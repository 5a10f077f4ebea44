package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Employee is a pharmacy staff member with login credentials.
// EmployeeNo is a small sequential number used in sale-number generation;
// the UUID stays the relational identity.
type Employee struct {
	BaseModel
	EmployeeNo    int              `gorm:"uniqueIndex;not null" json:"employee_no"`
	FirstName     string           `gorm:"type:varchar(100);not null" json:"first_name" validate:"required"`
	LastName      string           `gorm:"type:varchar(100)" json:"last_name"`
	Gender        string           `gorm:"type:varchar(10)" json:"gender"`
	Email         string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password      string           `gorm:"type:varchar(255);not null" json:"-"`
	ContactNumber string           `gorm:"type:varchar(20)" json:"contact_number"`
	Address       string           `gorm:"type:text" json:"address"`
	DateOfBirth   *time.Time       `gorm:"type:date" json:"date_of_birth,omitempty"`
	DateOfJoining *time.Time       `gorm:"type:date" json:"date_of_joining,omitempty"`
	Salary        decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"salary"`
	RoleID        *uint            `gorm:"index" json:"role_id"`
	Role          *Role            `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive      bool             `gorm:"default:true" json:"is_active"`
	Privileges    []Privilege      `gorm:"many2many:employee_privileges;" json:"privileges,omitempty"`
	TokenVersion  string           `gorm:"type:varchar(255);default:''" json:"-"` // single-session enforcement
}

// BeforeCreate assigns the next sequential employee number when none is set.
// Runs inside the insert's transaction; the unique index catches a racing
// assignment of the same number.
func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if err := e.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if e.EmployeeNo == 0 {
		var max int
		if err := tx.Model(&Employee{}).
			Select("COALESCE(MAX(employee_no), 0)").
			Scan(&max).Error; err != nil {
			return err
		}
		e.EmployeeNo = max + 1
	}
	return nil
}

// FullName joins first and last name for receipts and reports.
func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// SetPassword hashes and sets the employee's password
func (e *Employee) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	e.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (e *Employee) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(e.Password), []byte(password))
	return err == nil
}

// HasPrivilege checks if the employee has a specific privilege
func (e *Employee) HasPrivilege(code string) bool {
	for _, p := range e.Privileges {
		if p.Code == code {
			return true
		}
	}
	return false
}

// GetPrivilegeCodes returns a slice of all privilege codes for this employee
func (e *Employee) GetPrivilegeCodes() []string {
	codes := make([]string, len(e.Privileges))
	for i, p := range e.Privileges {
		codes[i] = p.Code
	}
	return codes
}

// EmployeeResponse is used for API responses (without sensitive data)
type EmployeeResponse struct {
	ID            uuid.UUID   `json:"id"`
	EmployeeNo    int         `json:"employee_no"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Email         string      `json:"email"`
	ContactNumber string      `json:"contact_number"`
	RoleID        *uint       `json:"role_id,omitempty"`
	Role          *Role       `json:"role,omitempty"`
	IsActive      bool        `json:"is_active"`
	Privileges    []Privilege `json:"privileges"`
}

// ToResponse converts Employee to EmployeeResponse
func (e *Employee) ToResponse() EmployeeResponse {
	return EmployeeResponse{
		ID:            e.ID,
		EmployeeNo:    e.EmployeeNo,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		Email:         e.Email,
		ContactNumber: e.ContactNumber,
		RoleID:        e.RoleID,
		Role:          e.Role,
		IsActive:      e.IsActive,
		Privileges:    e.Privileges,
	}
}
