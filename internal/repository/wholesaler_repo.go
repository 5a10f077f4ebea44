package repository

import (
	"go-pharmacy-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WholesalerRepository interface {
	Create(w *model.Wholesaler) error
	FindByID(id uuid.UUID) (*model.Wholesaler, error)
	// FindByName resolves a wholesaler by exact name inside the caller's
	// transaction; lot batches reference wholesalers by name.
	FindByName(tx *gorm.DB, name string) (*model.Wholesaler, error)
	FindAll() ([]model.Wholesaler, error)
	UpdateFields(id uuid.UUID, fields map[string]interface{}) (int64, error)
	SoftDelete(id uuid.UUID) (int64, error)
}

type wholesalerRepo struct {
	db *gorm.DB
}

func NewWholesalerRepo(db *gorm.DB) WholesalerRepository {
	return &wholesalerRepo{db}
}

func (r *wholesalerRepo) Create(w *model.Wholesaler) error {
	return r.db.Create(w).Error
}

func (r *wholesalerRepo) FindByID(id uuid.UUID) (*model.Wholesaler, error) {
	var w model.Wholesaler
	if err := r.db.First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *wholesalerRepo) FindByName(tx *gorm.DB, name string) (*model.Wholesaler, error) {
	var w model.Wholesaler
	if err := tx.Where("name = ?", name).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *wholesalerRepo) FindAll() ([]model.Wholesaler, error) {
	var ws []model.Wholesaler
	err := r.db.Order("name ASC").Find(&ws).Error
	return ws, err
}

func (r *wholesalerRepo) UpdateFields(id uuid.UUID, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&model.Wholesaler{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *wholesalerRepo) SoftDelete(id uuid.UUID) (int64, error) {
	res := r.db.Delete(&model.Wholesaler{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
