package service

import (
	"errors"
	"strconv"
	"strings"
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

// lowStockThreshold is the remaining-quantity level below which a sale
// triggers a restock alert on the event hub.
const lowStockThreshold = 10

// SaleService turns a cart into a committed sale: snapshot prices, persist
// the sale with its aggregates and decrement every touched lot, all in one
// transaction.
type SaleService interface {
	ProcessSale(in *ProcessSaleInput) (*Receipt, error)
	GetSale(id uuid.UUID) (*model.Sale, error)
	GetAllSales(limit, offset int) ([]model.Sale, error)
	SearchSales(params repository.SaleSearchParams) ([]model.Sale, int64, error)
	DeleteSale(id uuid.UUID) error
}

type SaleLine struct {
	MedicineID uuid.UUID       `json:"medicine_id" validate:"required"`
	Quantity   int             `json:"quantity" validate:"gt=0"`
	Rate       decimal.Decimal `json:"rate" validate:"decimal_gte0"`
}

type ProcessSaleInput struct {
	EmployeeID    uuid.UUID  `json:"-"`
	CustomerName  string     `json:"customer_name"`
	ContactNumber string     `json:"contact_number"`
	PaymentMethod string     `json:"payment_method"`
	Items         []SaleLine `json:"items" validate:"required,min=1,dive"`
}

type ReceiptLine struct {
	MedicineName string          `json:"medicine_name"`
	MRP          decimal.Decimal `json:"mrp"`
	Rate         decimal.Decimal `json:"rate"`
	Quantity     int             `json:"quantity"`
	Discount     decimal.Decimal `json:"discount"`
}

type Receipt struct {
	SaleID        uuid.UUID       `json:"sale_id"`
	SaleNo        string          `json:"sale_no"`
	Date          time.Time       `json:"date"`
	CustomerName  string          `json:"customer_name"`
	ContactNumber string          `json:"contact_number"`
	Medicines     []ReceiptLine   `json:"medicines"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type saleService struct {
	saleRepo     repository.SaleRepository
	stockRepo    repository.StockRepository
	employeeRepo repository.EmployeeRepository
	db           *gorm.DB
	wsHub        *ws.Hub
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	stockRepo repository.StockRepository,
	employeeRepo repository.EmployeeRepository,
	db *gorm.DB,
	hub *ws.Hub,
) SaleService {
	return &saleService{
		saleRepo:     saleRepo,
		stockRepo:    stockRepo,
		employeeRepo: employeeRepo,
		db:           db,
		wsHub:        hub,
	}
}

// GenerateSaleNo builds the human-readable sale number: the employee number
// in base36 padded to three characters, the two-digit year, the mixed-case
// three-letter month and the day-hour-minute-second stamp encoded in base36.
// Two sales by the same employee in the same second would collide; the unique
// index on sale_no turns that into a retryable conflict instead of a silent
// overwrite.
func GenerateSaleNo(employeeNo int, t time.Time) string {
	emp := strings.ToUpper(strconv.FormatInt(int64(employeeNo), 36))
	for len(emp) < 3 {
		emp = "0" + emp
	}
	stampDigits := t.Day()*1000000 + t.Hour()*10000 + t.Minute()*100 + t.Second()
	stamp := strings.ToUpper(strconv.FormatInt(int64(stampDigits), 36))
	return emp + t.Format("06") + t.Format("Jan") + stamp
}

// ProcessSale commits a cart. Lots are read under row locks first so the
// price snapshots and the later decrements see the same state; the
// conditional decrement still re-checks quantity so an oversell aborts the
// whole sale rather than driving any lot negative.
func (s *saleService) ProcessSale(in *ProcessSaleInput) (*Receipt, error) {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validationf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}

	employee, err := s.employeeRepo.FindByID(in.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("employee not found with id %s", in.EmployeeID)
		}
		return nil, err
	}

	var (
		receipt  Receipt
		lowStock []map[string]interface{}
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		sale := model.Sale{
			EmployeeID:    employee.ID,
			SaleNo:        GenerateSaleNo(employee.EmployeeNo, now),
			SaleDate:      now,
			PaymentMethod: in.PaymentMethod,
			CustomerName:  in.CustomerName,
			ContactNumber: in.ContactNumber,
		}

		type snapshot struct {
			lot  *model.MedicineStock
			line SaleLine
		}
		snapshots := make([]snapshot, 0, len(in.Items))

		total := decimal.Zero
		cost := decimal.Zero
		mrpTotal := decimal.Zero
		for _, line := range in.Items {
			lot, err := s.stockRepo.FindByIDForUpdate(tx, line.MedicineID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("medicine not found with id %s", line.MedicineID)
				}
				return err
			}
			qty := decimal.NewFromInt(int64(line.Quantity))
			total = total.Add(line.Rate.Mul(qty))
			cost = cost.Add(lot.PurchasePrice.Mul(qty))
			mrpTotal = mrpTotal.Add(lot.MRP.Mul(qty))
			snapshots = append(snapshots, snapshot{lot: lot, line: line})
		}

		sale.TotalAmount = total
		sale.PurchasePrice = cost
		sale.MRPAmount = mrpTotal
		if err := s.saleRepo.Create(tx, &sale); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflictf("sale number %s already exists, retry the sale", sale.SaleNo)
			}
			return err
		}

		lines := make([]ReceiptLine, 0, len(snapshots))
		for _, snap := range snapshots {
			affected, err := s.stockRepo.DecrementStock(tx, snap.lot.ID, snap.line.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return apperr.Conflictf(
					"insufficient stock remaining for %q batch %q: %d requested, %d available",
					snap.lot.MedicineName, snap.lot.BatchNo, snap.line.Quantity, snap.lot.StockQuantity,
				)
			}

			item := model.SaleItem{
				SaleID:        sale.ID,
				MedicineID:    snap.lot.ID,
				MedicineName:  snap.lot.MedicineName,
				BatchNo:       snap.lot.BatchNo,
				ExpiryDate:    snap.lot.ExpiryDate,
				PurchasePrice: snap.lot.PurchasePrice,
				MRP:           snap.lot.MRP,
				Quantity:      snap.line.Quantity,
				Rate:          snap.line.Rate,
			}
			if err := s.saleRepo.CreateItem(tx, &item); err != nil {
				return err
			}

			lines = append(lines, ReceiptLine{
				MedicineName: item.MedicineName,
				MRP:          item.MRP,
				Rate:         item.Rate,
				Quantity:     item.Quantity,
				Discount:     item.Discount(),
			})

			if remaining := snap.lot.StockQuantity - snap.line.Quantity; remaining < lowStockThreshold {
				lowStock = append(lowStock, map[string]interface{}{
					"medicine_id":   snap.lot.ID,
					"medicine_name": snap.lot.MedicineName,
					"batch_no":      snap.lot.BatchNo,
					"remaining":     remaining,
				})
			}
		}

		receipt = Receipt{
			SaleID:        sale.ID,
			SaleNo:        sale.SaleNo,
			Date:          sale.SaleDate,
			CustomerName:  sale.CustomerName,
			ContactNumber: sale.ContactNumber,
			Medicines:     lines,
			TotalAmount:   sale.TotalAmount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish("sale_completed", map[string]interface{}{
		"sale_no":      receipt.SaleNo,
		"total_amount": receipt.TotalAmount,
		"sold_by":      employee.FullName(),
	})
	for _, alert := range lowStock {
		s.wsHub.Publish("low_stock", alert)
	}
	return &receipt, nil
}

func (s *saleService) GetSale(id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("sale not found with id %s", id)
		}
		return nil, err
	}
	return sale, nil
}

func (s *saleService) GetAllSales(limit, offset int) ([]model.Sale, error) {
	return s.saleRepo.FindAll(limit, offset)
}

func (s *saleService) SearchSales(params repository.SaleSearchParams) ([]model.Sale, int64, error) {
	return s.saleRepo.Search(params)
}

func (s *saleService) DeleteSale(id uuid.UUID) error {
	affected, err := s.saleRepo.Delete(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFoundf("sale not found with id %s", id)
	}
	return nil
}
