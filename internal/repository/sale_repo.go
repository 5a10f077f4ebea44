package repository

import (
	"go-pharmacy-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(tx *gorm.DB, sale *model.Sale) error
	CreateItem(tx *gorm.DB, item *model.SaleItem) error
	FindByID(id uuid.UUID) (*model.Sale, error)
	FindAll(limit, offset int) ([]model.Sale, error)
	Search(params SaleSearchParams) ([]model.Sale, int64, error)
	Delete(id uuid.UUID) (int64, error)
}

type SaleSearchParams struct {
	SaleNo       string
	CustomerName string
	DateFrom     string
	DateTo       string
	Limit        int
	Offset       int
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Create(sale).Error
}

func (r *saleRepo) CreateItem(tx *gorm.DB, item *model.SaleItem) error {
	return tx.Create(item).Error
}

func (r *saleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.Preload("Items").Preload("Employee").First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindAll(limit, offset int) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.Preload("Employee").
		Order("sale_date DESC").
		Limit(limit).Offset(offset).
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) Search(params SaleSearchParams) ([]model.Sale, int64, error) {
	q := r.db.Model(&model.Sale{})

	if params.SaleNo != "" {
		q = q.Where("sale_no LIKE ?", "%"+params.SaleNo+"%")
	}
	if params.CustomerName != "" {
		q = q.Where("customer_name LIKE ?", "%"+params.CustomerName+"%")
	}
	if params.DateFrom != "" {
		q = q.Where("sale_date >= ?", params.DateFrom)
	}
	if params.DateTo != "" {
		q = q.Where("sale_date <= ?", params.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("sale_date DESC")
	if params.Limit > 0 {
		q = q.Limit(params.Limit)
	}
	if params.Offset > 0 {
		q = q.Offset(params.Offset)
	}

	var sales []model.Sale
	err := q.Preload("Items").Find(&sales).Error
	return sales, total, err
}

// Delete removes a sale and its items. Sales are immutable once committed;
// this is the administrative removal path only.
func (r *saleRepo) Delete(id uuid.UUID) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&model.SaleItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Sale{}, "id = ?", id)
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}
