package service

import (
	"errors"
	"time"

	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/model"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceService exposes invoice reads, payments and administrative removal.
// Totals are never written here; only the stock side moves them.
type InvoiceService interface {
	GetInvoice(id uuid.UUID) (*model.Invoice, error)
	GetAllInvoices(limit, offset int) ([]model.Invoice, error)
	SearchInvoices(params repository.InvoiceSearchParams) ([]model.Invoice, int64, error)
	RecordPayment(id uuid.UUID, in *RecordPaymentInput) (*model.Invoice, error)
	DeleteInvoice(id uuid.UUID) error
}

type RecordPaymentInput struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate *time.Time      `json:"payment_date"`
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	db          *gorm.DB
	wsHub       *ws.Hub
}

func NewInvoiceService(invoiceRepo repository.InvoiceRepository, db *gorm.DB, hub *ws.Hub) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo, db: db, wsHub: hub}
}

func (s *invoiceService) GetInvoice(id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("invoice not found with id %s", id)
		}
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) GetAllInvoices(limit, offset int) ([]model.Invoice, error) {
	return s.invoiceRepo.FindAll(limit, offset)
}

func (s *invoiceService) SearchInvoices(params repository.InvoiceSearchParams) ([]model.Invoice, int64, error) {
	return s.invoiceRepo.Search(params)
}

// RecordPayment adds to paid_amount under a row lock and derives the payment
// status from the updated figures. Overpayment is rejected rather than capped.
func (s *invoiceService) RecordPayment(id uuid.UUID, in *RecordPaymentInput) (*model.Invoice, error) {
	if !in.Amount.IsPositive() {
		return nil, apperr.Validationf("payment amount must be positive")
	}

	var updated *model.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		inv, err := s.invoiceRepo.FindByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("invoice not found with id %s", id)
			}
			return err
		}

		newPaid := inv.PaidAmount.Add(in.Amount)
		if newPaid.GreaterThan(inv.TotalAmount) {
			return apperr.Validationf(
				"payment of %s exceeds outstanding balance %s",
				in.Amount, inv.TotalAmount.Sub(inv.PaidAmount),
			)
		}

		inv.PaidAmount = newPaid
		switch {
		case newPaid.Equal(inv.TotalAmount) && !inv.TotalAmount.IsZero():
			inv.PaymentStatus = model.PaymentPaid
		case newPaid.IsPositive():
			inv.PaymentStatus = model.PaymentPartiallyPaid
		default:
			inv.PaymentStatus = model.PaymentUnpaid
		}
		if in.PaymentDate != nil {
			inv.PaymentDate = in.PaymentDate
		} else {
			now := time.Now()
			inv.PaymentDate = &now
		}

		if err := s.invoiceRepo.UpdatePayment(tx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish("invoice_payment", map[string]interface{}{
		"invoice_id":     updated.ID,
		"invoice_no":     updated.InvoiceNo,
		"paid_amount":    updated.PaidAmount,
		"payment_status": updated.PaymentStatus,
	})
	return updated, nil
}

// DeleteInvoice soft-deletes the invoice. Its lots stay in stock; from then
// on any total adjustment against this invoice fails as a conflict.
func (s *invoiceService) DeleteInvoice(id uuid.UUID) error {
	affected, err := s.invoiceRepo.SoftDelete(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFoundf("invoice not found with id %s", id)
	}
	return nil
}
