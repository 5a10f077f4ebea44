package repository

import (
	"errors"
	"time"

	"go-pharmacy-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockRepository interface {
	Create(tx *gorm.DB, lot *model.MedicineStock) error
	FindByID(id uuid.UUID) (*model.MedicineStock, error)
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.MedicineStock, error)
	// FindDuplicate returns the lot matching the dedup tuple on the given
	// invoice, or nil when there is none.
	FindDuplicate(tx *gorm.DB, packedType, medicineName, brandName, batchNo string, invoiceID uuid.UUID) (*model.MedicineStock, error)
	UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	HardDelete(tx *gorm.DB, id uuid.UUID) error
	// DecrementStock conditionally takes qty units off the lot and reports
	// how many rows matched; zero means the lot had less stock than asked.
	DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) (int64, error)
	CreateExpired(tx *gorm.DB, rec *model.ExpiredStock) error
	FindAll(limit, offset int) ([]model.MedicineStock, error)
	FindExpiring(until time.Time) ([]model.MedicineStock, error)
	FindExpired(limit, offset int) ([]model.ExpiredStock, error)
	Search(params StockSearchParams) ([]model.MedicineStock, int64, error)
}

// StockSearchParams folds optional filters into parameterized predicates.
type StockSearchParams struct {
	MedicineName   string
	BrandName      string
	InvoiceNo      string
	WholesalerName string
	OrderBy        string
	OrderDesc      bool
	Limit          int
	Offset         int
}

type stockRepo struct {
	db     *gorm.DB
	lockFn func(*gorm.DB) *gorm.DB
}

func NewStockRepo(db *gorm.DB, lockFn func(*gorm.DB) *gorm.DB) StockRepository {
	return &stockRepo{db: db, lockFn: lockFn}
}

func (r *stockRepo) Create(tx *gorm.DB, lot *model.MedicineStock) error {
	return tx.Create(lot).Error
}

func (r *stockRepo) FindByID(id uuid.UUID) (*model.MedicineStock, error) {
	var lot model.MedicineStock
	err := r.db.First(&lot, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// FindByIDForUpdate reads the pre-image under a row lock so the delta
// computed from it stays valid for the rest of the transaction.
func (r *stockRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.MedicineStock, error) {
	var lot model.MedicineStock
	err := r.lockFn(tx).First(&lot, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *stockRepo) FindDuplicate(tx *gorm.DB, packedType, medicineName, brandName, batchNo string, invoiceID uuid.UUID) (*model.MedicineStock, error) {
	var lot model.MedicineStock
	err := tx.Where(
		"packed_type = ? AND medicine_name = ? AND brand_name = ? AND batch_no = ? AND invoice_id = ?",
		packedType, medicineName, brandName, batchNo, invoiceID,
	).First(&lot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *stockRepo) UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return tx.Model(&model.MedicineStock{}).Where("id = ?", id).Updates(fields).Error
}

// HardDelete removes the row for real. Lots are the one place soft delete
// does not apply: the dedup unique index must be free for a re-delivery of
// the same batch.
func (r *stockRepo) HardDelete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Unscoped().Delete(&model.MedicineStock{}, "id = ?", id).Error
}

func (r *stockRepo) DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) (int64, error) {
	res := tx.Model(&model.MedicineStock{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	return res.RowsAffected, res.Error
}

func (r *stockRepo) CreateExpired(tx *gorm.DB, rec *model.ExpiredStock) error {
	return tx.Create(rec).Error
}

func (r *stockRepo) FindAll(limit, offset int) ([]model.MedicineStock, error) {
	var lots []model.MedicineStock
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&lots).Error
	return lots, err
}

func (r *stockRepo) FindExpiring(until time.Time) ([]model.MedicineStock, error) {
	var lots []model.MedicineStock
	err := r.db.
		Where("expiry_date IS NOT NULL AND expiry_date BETWEEN ? AND ?", time.Now(), until).
		Order("expiry_date ASC").
		Find(&lots).Error
	return lots, err
}

func (r *stockRepo) FindExpired(limit, offset int) ([]model.ExpiredStock, error) {
	var recs []model.ExpiredStock
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&recs).Error
	return recs, err
}

var stockOrderColumns = map[string]string{
	"medicine_name":  "medicine_stocks.medicine_name",
	"brand_name":     "medicine_stocks.brand_name",
	"expiry_date":    "medicine_stocks.expiry_date",
	"purchase_price": "medicine_stocks.purchase_price",
	"mrp":            "medicine_stocks.mrp",
	"invoice_no":     "medicine_stocks.invoice_no",
}

func (r *stockRepo) Search(params StockSearchParams) ([]model.MedicineStock, int64, error) {
	q := r.db.Model(&model.MedicineStock{}).
		Joins("JOIN invoices ON invoices.id = medicine_stocks.invoice_id").
		Joins("JOIN wholesalers ON wholesalers.id = invoices.wholesaler_id")

	if params.MedicineName != "" {
		q = q.Where("medicine_stocks.medicine_name LIKE ?", "%"+params.MedicineName+"%")
	}
	if params.BrandName != "" {
		q = q.Where("medicine_stocks.brand_name LIKE ?", "%"+params.BrandName+"%")
	}
	if params.InvoiceNo != "" {
		q = q.Where("invoices.invoice_no LIKE ?", "%"+params.InvoiceNo+"%")
	}
	if params.WholesalerName != "" {
		q = q.Where("wholesalers.name LIKE ?", "%"+params.WholesalerName+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := stockOrderColumns[params.OrderBy]
	if !ok {
		col = "medicine_stocks.expiry_date"
	}
	dir := " ASC"
	if params.OrderDesc {
		dir = " DESC"
	}
	q = q.Order(col + dir)

	if params.Limit > 0 {
		q = q.Limit(params.Limit)
	}
	if params.Offset > 0 {
		q = q.Offset(params.Offset)
	}

	var lots []model.MedicineStock
	err := q.Find(&lots).Error
	return lots, total, err
}
