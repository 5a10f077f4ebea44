package service

import (
	"errors"
	"time"

	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/model"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/internal/ws"
	"go-pharmacy-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockService owns the lifecycle of stock lots. Every mutation that changes
// a lot's quantity or price pushes a signed delta through the invoice
// aggregator inside the same transaction, so readers never observe a lot
// write without its invoice-total write.
type StockService interface {
	AddLots(in *AddLotsInput) (*AddLotsResult, error)
	UpdateLot(id uuid.UUID, in *UpdateLotInput) (*UpdateLotResult, error)
	DeleteLot(id uuid.UUID) error
	ExpireLot(id uuid.UUID) (*model.ExpiredStock, error)
	GetLot(id uuid.UUID) (*model.MedicineStock, error)
	GetAllLots(limit, offset int) ([]model.MedicineStock, error)
	SearchLots(params repository.StockSearchParams) ([]model.MedicineStock, int64, error)
	GetExpiringLots(days, months, years int) ([]model.MedicineStock, error)
	GetExpiredStock(limit, offset int) ([]model.ExpiredStock, error)
}

// NewLot is one delivered batch inside an AddLots request.
type NewLot struct {
	PackedType    string          `json:"packed_type" validate:"required"`
	MedicineName  string          `json:"medicine_name" validate:"required"`
	BrandName     string          `json:"brand_name"`
	BatchNo       string          `json:"batch_no" validate:"required"`
	ExpiryDate    *time.Time      `json:"expiry_date"`
	MfgDate       *time.Time      `json:"mfg_date"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"decimal_gte0"`
	MRP           decimal.Decimal `json:"mrp" validate:"decimal_gte0"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
}

type AddLotsInput struct {
	Wholesaler string   `json:"wholesaler" validate:"required"`
	InvoiceNo  string   `json:"invoiceNumber" validate:"required"`
	Lots       []NewLot `json:"medicine" validate:"required,min=1,dive"`
}

type AddLotsResult struct {
	InvoiceID        uuid.UUID       `json:"invoiceId"`
	TotalAddedAmount decimal.Decimal `json:"totalAddedAmount"`
}

// UpdateLotInput carries a partial field set; nil means "leave unchanged".
type UpdateLotInput struct {
	PackedType    *string          `json:"packed_type"`
	MedicineName  *string          `json:"medicine_name"`
	BrandName     *string          `json:"brand_name"`
	BatchNo       *string          `json:"batch_no"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
	MfgDate       *time.Time       `json:"mfg_date"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	MRP           *decimal.Decimal `json:"mrp"`
	StockQuantity *int             `json:"stock_quantity"`
	InvoiceNo     *string          `json:"invoice_no"`
}

// InvoiceAdjustment reports how an update moved the owning invoice's total.
type InvoiceAdjustment struct {
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	Delta          decimal.Decimal `json:"delta"`
}

type UpdateLotResult struct {
	Lot        *model.MedicineStock `json:"updated_medicine"`
	Adjustment *InvoiceAdjustment   `json:"invoice_adjustment,omitempty"`
}

type stockService struct {
	stockRepo      repository.StockRepository
	invoiceRepo    repository.InvoiceRepository
	wholesalerRepo repository.WholesalerRepository
	db             *gorm.DB
	wsHub          *ws.Hub
}

func NewStockService(
	stockRepo repository.StockRepository,
	invoiceRepo repository.InvoiceRepository,
	wholesalerRepo repository.WholesalerRepository,
	db *gorm.DB,
	hub *ws.Hub,
) StockService {
	return &stockService{
		stockRepo:      stockRepo,
		invoiceRepo:    invoiceRepo,
		wholesalerRepo: wholesalerRepo,
		db:             db,
		wsHub:          hub,
	}
}

// AddLots records one wholesaler delivery. The whole batch is a single
// transaction: any lot failing aborts every insert, and the invoice total is
// adjusted once with the batch sum rather than once per lot to keep lock
// time on the invoice row short.
func (s *stockService) AddLots(in *AddLotsInput) (*AddLotsResult, error) {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validationf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}

	var result AddLotsResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wholesaler, err := s.wholesalerRepo.FindByName(tx, in.Wholesaler)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("wholesaler %q not found, please register first", in.Wholesaler)
			}
			return err
		}

		invoice, err := s.invoiceRepo.GetOrCreate(tx, in.InvoiceNo, wholesaler.ID)
		if err != nil {
			if errors.Is(err, repository.ErrInvoiceGone) {
				return apperr.Conflictf("invoice %q for wholesaler %q is deleted", in.InvoiceNo, in.Wholesaler)
			}
			return err
		}

		seen := make(map[string]struct{}, len(in.Lots))
		batchTotal := decimal.Zero

		for _, lot := range in.Lots {
			key := model.DedupKey(lot.PackedType, lot.MedicineName, lot.BrandName, lot.BatchNo)
			if _, dup := seen[key]; dup {
				return apperr.Conflictf("duplicate medicine %q batch %q in request", lot.MedicineName, lot.BatchNo)
			}
			seen[key] = struct{}{}

			existing, err := s.stockRepo.FindDuplicate(tx, lot.PackedType, lot.MedicineName, lot.BrandName, lot.BatchNo, invoice.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return apperr.Conflictf(
					"medicine %q with batch %q already exists on this invoice, update lot %s instead",
					lot.MedicineName, lot.BatchNo, existing.ID,
				)
			}

			record := model.MedicineStock{
				PackedType:    lot.PackedType,
				MedicineName:  lot.MedicineName,
				BrandName:     lot.BrandName,
				BatchNo:       lot.BatchNo,
				InvoiceID:     invoice.ID,
				InvoiceNo:     invoice.InvoiceNo,
				ExpiryDate:    lot.ExpiryDate,
				MfgDate:       lot.MfgDate,
				PurchasePrice: lot.PurchasePrice,
				MRP:           lot.MRP,
				StockQuantity: lot.StockQuantity,
			}
			if err := s.stockRepo.Create(tx, &record); err != nil {
				return err
			}
			batchTotal = batchTotal.Add(record.LineTotal())
		}

		// One adjustment for the whole batch.
		if err := s.invoiceRepo.AdjustTotal(tx, invoice.ID, batchTotal); err != nil {
			if errors.Is(err, repository.ErrInvoiceGone) {
				// The invoice was fetched or created in this very transaction.
				return apperr.Integrityf("invoice %s vanished while adding lots", invoice.ID)
			}
			return err
		}

		result = AddLotsResult{InvoiceID: invoice.ID, TotalAddedAmount: batchTotal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish("lots_added", map[string]interface{}{
		"invoice_id":  result.InvoiceID,
		"total_added": result.TotalAddedAmount,
		"lot_count":   len(in.Lots),
		"wholesaler":  in.Wholesaler,
		"invoice_no":  in.InvoiceNo,
	})
	return &result, nil
}

// UpdateLot applies a partial correction to a lot. When price or quantity
// change, the signed difference of the line totals is pushed to the owning
// invoice; when the invoice number changes the old invoice loses the full
// old line total and the new invoice gains the full new one, both-or-neither.
func (s *stockService) UpdateLot(id uuid.UUID, in *UpdateLotInput) (*UpdateLotResult, error) {
	var result UpdateLotResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		old, err := s.stockRepo.FindByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("medicine not found with id %s", id)
			}
			return err
		}

		// The owning invoice must be live for any correction, money-moving
		// or not; a lot on a deleted invoice is frozen.
		oldInvoice, err := s.invoiceRepo.FindByIDForUpdate(tx, old.InvoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Conflictf("invoice %s is deleted, lot cannot be updated", old.InvoiceID)
			}
			return err
		}

		fields := make(map[string]interface{})
		if in.PackedType != nil {
			fields["packed_type"] = *in.PackedType
		}
		if in.MedicineName != nil {
			fields["medicine_name"] = *in.MedicineName
		}
		if in.BrandName != nil {
			fields["brand_name"] = *in.BrandName
		}
		if in.BatchNo != nil {
			fields["batch_no"] = *in.BatchNo
		}
		if in.ExpiryDate != nil {
			fields["expiry_date"] = *in.ExpiryDate
		}
		if in.MfgDate != nil {
			fields["mfg_date"] = *in.MfgDate
		}

		newPrice := old.PurchasePrice
		if in.PurchasePrice != nil {
			if in.PurchasePrice.IsNegative() {
				return apperr.Validationf("purchase_price must not be negative")
			}
			newPrice = *in.PurchasePrice
			fields["purchase_price"] = *in.PurchasePrice
		}
		if in.MRP != nil {
			if in.MRP.IsNegative() {
				return apperr.Validationf("mrp must not be negative")
			}
			fields["mrp"] = *in.MRP
		}
		newQty := old.StockQuantity
		if in.StockQuantity != nil {
			if *in.StockQuantity < 0 {
				return apperr.Validationf("stock_quantity must not be negative")
			}
			newQty = *in.StockQuantity
			fields["stock_quantity"] = *in.StockQuantity
		}

		movesInvoice := in.InvoiceNo != nil && *in.InvoiceNo != old.InvoiceNo
		var newInvoice *model.Invoice
		if movesInvoice {
			// An invoice-number correction must target an invoice that
			// already exists for the same wholesaler; it never mints one.
			newInvoice, err = s.invoiceRepo.FindByNo(tx, *in.InvoiceNo, oldInvoice.WholesalerID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("invoice %q not found for this wholesaler", *in.InvoiceNo)
				}
				return err
			}
			fields["invoice_id"] = newInvoice.ID
			fields["invoice_no"] = newInvoice.InvoiceNo
		}

		if len(fields) == 0 {
			return apperr.Validationf("no fields to update, provide at least one field")
		}

		if err := s.stockRepo.UpdateFields(tx, id, fields); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflictf("an identical lot already exists on the target invoice")
			}
			return err
		}

		oldTotal := old.LineTotal()
		newTotal := newPrice.Mul(decimal.NewFromInt(int64(newQty)))
		delta := newTotal.Sub(oldTotal)

		switch {
		case movesInvoice:
			// Reverse the old contribution and post the new one, both in
			// this transaction.
			if err := s.invoiceRepo.AdjustTotal(tx, old.InvoiceID, oldTotal.Neg()); err != nil {
				if errors.Is(err, repository.ErrInvoiceGone) {
					return apperr.Conflictf("invoice %s is deleted, lot cannot be moved", old.InvoiceID)
				}
				return err
			}
			if err := s.invoiceRepo.AdjustTotal(tx, newInvoice.ID, newTotal); err != nil {
				if errors.Is(err, repository.ErrInvoiceGone) {
					return apperr.Conflictf("invoice %q is deleted, lot cannot be moved", *in.InvoiceNo)
				}
				return err
			}
			result.Adjustment = &InvoiceAdjustment{PreviousAmount: oldTotal, NewAmount: newTotal, Delta: delta}
		case !delta.IsZero():
			if err := s.invoiceRepo.AdjustTotal(tx, old.InvoiceID, delta); err != nil {
				if errors.Is(err, repository.ErrInvoiceGone) {
					return apperr.Conflictf("invoice %s is deleted, lot cannot be updated", old.InvoiceID)
				}
				return err
			}
			result.Adjustment = &InvoiceAdjustment{PreviousAmount: oldTotal, NewAmount: newTotal, Delta: delta}
		}

		updated, err := s.stockRepo.FindByIDForUpdate(tx, id)
		if err != nil {
			return err
		}
		result.Lot = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish("lot_updated", result.Lot)
	return &result, nil
}

// DeleteLot hard-deletes a lot and reverses its full contribution from the
// owning invoice.
func (s *stockService) DeleteLot(id uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		lot, err := s.stockRepo.FindByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("medicine not found with id %s", id)
			}
			return err
		}
		if err := s.stockRepo.HardDelete(tx, id); err != nil {
			return err
		}
		if err := s.invoiceRepo.AdjustTotal(tx, lot.InvoiceID, lot.LineTotal().Neg()); err != nil {
			if errors.Is(err, repository.ErrInvoiceGone) {
				return apperr.Conflictf("invoice %s is deleted, lot cannot be removed", lot.InvoiceID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.wsHub.Publish("lot_deleted", map[string]interface{}{"medicine_id": id})
	return nil
}

// ExpireLot moves a lot into the expired-stock table: copy, then delete.
// Unlike DeleteLot this applies no invoice-total delta. Expired goods are
// inventory shrinkage, still owed to the wholesaler; the invoice stays
// billed in full.
func (s *stockService) ExpireLot(id uuid.UUID) (*model.ExpiredStock, error) {
	var record model.ExpiredStock
	err := s.db.Transaction(func(tx *gorm.DB) error {
		lot, err := s.stockRepo.FindByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("medicine not found with id %s", id)
			}
			return err
		}

		// Write-offs leave the invoice total alone, but the invoice still
		// has to be live; expiring a lot on a deleted invoice is a conflict
		// like every other mutation against one.
		if _, err := s.invoiceRepo.FindByIDForUpdate(tx, lot.InvoiceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Conflictf("invoice %s is deleted, lot cannot be written off", lot.InvoiceID)
			}
			return err
		}

		record = model.ExpiredStock{
			MedicineID:    lot.ID,
			PackedType:    lot.PackedType,
			MedicineName:  lot.MedicineName,
			BrandName:     lot.BrandName,
			BatchNo:       lot.BatchNo,
			InvoiceID:     lot.InvoiceID,
			InvoiceNo:     lot.InvoiceNo,
			ExpiryDate:    lot.ExpiryDate,
			MfgDate:       lot.MfgDate,
			PurchasePrice: lot.PurchasePrice,
			MRP:           lot.MRP,
			StockQuantity: lot.StockQuantity,
		}
		if err := s.stockRepo.CreateExpired(tx, &record); err != nil {
			return err
		}
		return s.stockRepo.HardDelete(tx, id)
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish("lot_expired", &record)
	return &record, nil
}

func (s *stockService) GetLot(id uuid.UUID) (*model.MedicineStock, error) {
	lot, err := s.stockRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("medicine not found with id %s", id)
		}
		return nil, err
	}
	return lot, nil
}

func (s *stockService) GetAllLots(limit, offset int) ([]model.MedicineStock, error) {
	return s.stockRepo.FindAll(limit, offset)
}

func (s *stockService) SearchLots(params repository.StockSearchParams) ([]model.MedicineStock, int64, error) {
	return s.stockRepo.Search(params)
}

// GetExpiringLots lists lots whose expiry falls inside the window from now
// until now + the given interval. Exactly the first positive unit counts,
// mirroring the days/months/years query contract.
func (s *stockService) GetExpiringLots(days, months, years int) ([]model.MedicineStock, error) {
	var until time.Time
	now := time.Now()
	switch {
	case days > 0:
		until = now.AddDate(0, 0, days)
	case months > 0:
		until = now.AddDate(0, months, 0)
	case years > 0:
		until = now.AddDate(years, 0, 0)
	default:
		return nil, apperr.Validationf("provide a valid query parameter: days, months or years")
	}
	return s.stockRepo.FindExpiring(until)
}

func (s *stockService) GetExpiredStock(limit, offset int) ([]model.ExpiredStock, error) {
	return s.stockRepo.FindExpired(limit, offset)
}
