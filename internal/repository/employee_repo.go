package repository

import (
	"go-pharmacy-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmployeeRepository interface {
	FindByEmail(email string) (*model.Employee, error)
	FindByID(id uuid.UUID) (*model.Employee, error)
	Create(emp *model.Employee) error
	Update(emp *model.Employee) error
	Delete(id uuid.UUID) error
	UpdatePassword(id uuid.UUID, hashedPassword string) error
	UpdatePrivileges(id uuid.UUID, privileges []model.Privilege) error
	UpdateTokenVersion(id uuid.UUID, version string) error
	FindAll() ([]model.Employee, error)
}

type employeeRepo struct {
	db *gorm.DB
}

func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db}
}

func (r *employeeRepo) FindByEmail(email string) (*model.Employee, error) {
	var emp model.Employee
	if err := r.db.Preload("Role").Preload("Privileges").Where("email = ?", email).First(&emp).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) FindByID(id uuid.UUID) (*model.Employee, error) {
	var emp model.Employee
	if err := r.db.Preload("Role").Preload("Privileges").First(&emp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) Create(emp *model.Employee) error {
	return r.db.Create(emp).Error
}

func (r *employeeRepo) Update(emp *model.Employee) error {
	return r.db.Save(emp).Error
}

func (r *employeeRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Employee{}, "id = ?", id).Error
}

func (r *employeeRepo) UpdatePassword(id uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.Employee{}).Where("id = ?", id).Update("password", hashedPassword).Error
}

func (r *employeeRepo) UpdatePrivileges(id uuid.UUID, privileges []model.Privilege) error {
	var emp model.Employee
	if err := r.db.First(&emp, "id = ?", id).Error; err != nil {
		return err
	}
	return r.db.Model(&emp).Association("Privileges").Replace(privileges)
}

func (r *employeeRepo) UpdateTokenVersion(id uuid.UUID, version string) error {
	return r.db.Model(&model.Employee{}).Where("id = ?", id).Update("token_version", version).Error
}

func (r *employeeRepo) FindAll() ([]model.Employee, error) {
	var emps []model.Employee
	if err := r.db.Preload("Role").Preload("Privileges").Find(&emps).Error; err != nil {
		return nil, err
	}
	return emps, nil
}
