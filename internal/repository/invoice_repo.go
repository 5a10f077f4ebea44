package repository

import (
	"errors"

	"go-pharmacy-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrInvoiceGone signals that a total adjustment matched zero rows: the
// invoice is missing or was soft-deleted underneath the caller. Callers map
// it to Conflict or Integrity depending on what they already verified in the
// same transaction.
var ErrInvoiceGone = errors.New("invoice is deleted or missing")

// InvoiceRepository is the single choke point for invoice totals. Every
// mutation of total_amount goes through AdjustTotal as a relative update so
// concurrent lot mutations compose at the database row lock instead of
// racing a read-modify-write in application code.
type InvoiceRepository interface {
	GetOrCreate(tx *gorm.DB, invoiceNo string, wholesalerID uuid.UUID) (*model.Invoice, error)
	AdjustTotal(tx *gorm.DB, invoiceID uuid.UUID, delta decimal.Decimal) error
	FindByNo(tx *gorm.DB, invoiceNo string, wholesalerID uuid.UUID) (*model.Invoice, error)
	FindByID(id uuid.UUID) (*model.Invoice, error)
	FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error)
	UpdatePayment(tx *gorm.DB, inv *model.Invoice) error
	SoftDelete(id uuid.UUID) (int64, error)
	FindAll(limit, offset int) ([]model.Invoice, error)
	Search(params InvoiceSearchParams) ([]model.Invoice, int64, error)
}

// InvoiceSearchParams is the parameter object for invoice search: each
// optional field folds into one parameterized predicate, never into the SQL
// text itself.
type InvoiceSearchParams struct {
	InvoiceNo      string
	PaymentStatus  string
	WholesalerName string
	DateFrom       string
	DateTo         string
	OrderBy        string
	OrderDesc      bool
	Limit          int
	Offset         int
}

type invoiceRepo struct {
	db     *gorm.DB
	lockFn func(*gorm.DB) *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB, lockFn func(*gorm.DB) *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db: db, lockFn: lockFn}
}

func (r *invoiceRepo) FindByNo(tx *gorm.DB, invoiceNo string, wholesalerID uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.Where("invoice_no = ? AND wholesaler_id = ?", invoiceNo, wholesalerID).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetOrCreate resolves the invoice identified by (wholesaler, invoice_no),
// creating it with a zero total when absent. A racing creator is serialized
// by the unique index: the loser's insert fails inside a savepoint and the
// plain lookup is retried.
func (r *invoiceRepo) GetOrCreate(tx *gorm.DB, invoiceNo string, wholesalerID uuid.UUID) (*model.Invoice, error) {
	inv, err := r.FindByNo(tx, invoiceNo, wholesalerID)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := model.Invoice{
		InvoiceNo:     invoiceNo,
		WholesalerID:  wholesalerID,
		TotalAmount:   decimal.Zero,
		PaidAmount:    decimal.Zero,
		PaymentStatus: model.PaymentUnpaid,
	}
	// Nested transaction = savepoint, so a unique violation does not poison
	// the caller's transaction.
	err = tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(&fresh).Error
	})
	if err == nil {
		return &fresh, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race, or the pair exists only as a soft-deleted row.
		if inv, lookupErr := r.FindByNo(tx, invoiceNo, wholesalerID); lookupErr == nil {
			return inv, nil
		}
		return nil, ErrInvoiceGone
	}
	return nil, err
}

// AdjustTotal applies total_amount = total_amount + delta inside the
// caller's transaction. The relative form is deliberate: several lots in one
// request contribute independently and later corrections must not recompute
// the invoice from scratch. gorm's soft-delete scope keeps deleted invoices
// out, so zero affected rows means the invoice vanished.
func (r *invoiceRepo) AdjustTotal(tx *gorm.DB, invoiceID uuid.UUID, delta decimal.Decimal) error {
	res := tx.Model(&model.Invoice{}).
		Where("id = ?", invoiceID).
		Update("total_amount", gorm.Expr("total_amount + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvoiceGone
	}
	return nil
}

func (r *invoiceRepo) FindByID(id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.Preload("Wholesaler").Preload("Lots").First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.lockFn(tx).First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) UpdatePayment(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Model(inv).Select("paid_amount", "payment_status", "payment_date").Updates(inv).Error
}

func (r *invoiceRepo) SoftDelete(id uuid.UUID) (int64, error) {
	res := r.db.Delete(&model.Invoice{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *invoiceRepo) FindAll(limit, offset int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.Preload("Wholesaler").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&invoices).Error
	return invoices, err
}

var invoiceOrderColumns = map[string]string{
	"invoice_no":     "invoices.invoice_no",
	"invoice_date":   "invoices.invoice_date",
	"total_amount":   "invoices.total_amount",
	"payment_status": "invoices.payment_status",
	"payment_date":   "invoices.payment_date",
}

func (r *invoiceRepo) Search(params InvoiceSearchParams) ([]model.Invoice, int64, error) {
	q := r.db.Model(&model.Invoice{}).
		Joins("JOIN wholesalers ON wholesalers.id = invoices.wholesaler_id")

	if params.InvoiceNo != "" {
		q = q.Where("invoices.invoice_no LIKE ?", "%"+params.InvoiceNo+"%")
	}
	if params.PaymentStatus != "" {
		q = q.Where("invoices.payment_status = ?", params.PaymentStatus)
	}
	if params.WholesalerName != "" {
		q = q.Where("wholesalers.name LIKE ?", "%"+params.WholesalerName+"%")
	}
	if params.DateFrom != "" {
		q = q.Where("invoices.invoice_date >= ?", params.DateFrom)
	}
	if params.DateTo != "" {
		q = q.Where("invoices.invoice_date <= ?", params.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := invoiceOrderColumns[params.OrderBy]
	if !ok {
		col = "invoices.invoice_date"
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

	var invoices []model.Invoice
	err := q.Preload("Wholesaler").Find(&invoices).Error
	return invoices, total, err
}
