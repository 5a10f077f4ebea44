package service

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go-pharmacy-ledger/internal/model"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/internal/ws"
	"go-pharmacy-ledger/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database. Immediate transactions plus a
// generous busy timeout make concurrent-writer tests behave like the
// serialized row locking the production database provides.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") +
		"?_pragma=busy_timeout(10000)&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Privilege{},
		&model.Role{},
		&model.Employee{},
		&model.Wholesaler{},
		&model.Invoice{},
		&model.MedicineStock{},
		&model.ExpiredStock{},
		&model.Sale{},
		&model.SaleItem{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func newTestHub() *ws.Hub {
	hub := ws.NewHub()
	go hub.Run()
	return hub
}

type testEnv struct {
	db             *gorm.DB
	stockRepo      repository.StockRepository
	invoiceRepo    repository.InvoiceRepository
	wholesalerRepo repository.WholesalerRepository
	saleRepo       repository.SaleRepository
	employeeRepo   repository.EmployeeRepository
	roleRepo       repository.RoleRepository
	privilegeRepo  repository.PrivilegeRepository
	stock          StockService
	sales          SaleService
	invoices       InvoiceService
	employees      EmployeeService
	auth           AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	hub := newTestHub()
	env := &testEnv{
		db:             db,
		stockRepo:      repository.NewStockRepo(db, database.LockForUpdate),
		invoiceRepo:    repository.NewInvoiceRepo(db, database.LockForUpdate),
		wholesalerRepo: repository.NewWholesalerRepo(db),
		saleRepo:       repository.NewSaleRepo(db),
		employeeRepo:   repository.NewEmployeeRepo(db),
		roleRepo:       repository.NewRoleRepo(db),
		privilegeRepo:  repository.NewPrivilegeRepo(db),
	}
	env.stock = NewStockService(env.stockRepo, env.invoiceRepo, env.wholesalerRepo, db, hub)
	env.sales = NewSaleService(env.saleRepo, env.stockRepo, env.employeeRepo, db, hub)
	env.invoices = NewInvoiceService(env.invoiceRepo, db, hub)
	env.employees = NewEmployeeService(env.employeeRepo, env.roleRepo, env.privilegeRepo)
	env.auth = NewAuthService(env.employeeRepo)
	return env
}

func (e *testEnv) seedRolesAndPrivileges(t *testing.T) {
	t.Helper()
	if err := e.privilegeRepo.SeedDefaults(); err != nil {
		t.Fatalf("seed privileges: %v", err)
	}
	if err := e.roleRepo.SeedDefaults(); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	all, err := e.privilegeRepo.FindAll()
	if err != nil {
		t.Fatalf("load privileges: %v", err)
	}
	admin, err := e.roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		t.Fatalf("load admin role: %v", err)
	}
	if err := e.roleRepo.AssignPrivileges(admin, all); err != nil {
		t.Fatalf("assign privileges: %v", err)
	}
}

func (e *testEnv) seedWholesaler(t *testing.T, name string) *model.Wholesaler {
	t.Helper()
	w := model.Wholesaler{
		Name:  name,
		GSTNo: "GST-" + name,
	}
	if err := e.wholesalerRepo.Create(&w); err != nil {
		t.Fatalf("seed wholesaler: %v", err)
	}
	return &w
}

func (e *testEnv) seedEmployee(t *testing.T, employeeNo int) *model.Employee {
	t.Helper()
	emp := model.Employee{
		EmployeeNo: employeeNo,
		FirstName:  "Test",
		LastName:   fmt.Sprintf("Clerk%d", employeeNo),
		Email:      fmt.Sprintf("clerk%d@pharmacy.test", employeeNo),
		IsActive:   true,
	}
	if err := emp.SetPassword("123456"); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := e.employeeRepo.Create(&emp); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return &emp
}

// addLots is the common path for seeding stock through the real service.
func (e *testEnv) addLots(t *testing.T, wholesaler, invoiceNo string, lots ...NewLot) *AddLotsResult {
	t.Helper()
	result, err := e.stock.AddLots(&AddLotsInput{
		Wholesaler: wholesaler,
		InvoiceNo:  invoiceNo,
		Lots:       lots,
	})
	if err != nil {
		t.Fatalf("add lots: %v", err)
	}
	return result
}

func testLot(name, batch string, price, mrp int64, qty int) NewLot {
	expiry := time.Now().AddDate(1, 0, 0)
	return NewLot{
		PackedType:    "strip",
		MedicineName:  name,
		BrandName:     "Generic",
		BatchNo:       batch,
		ExpiryDate:    &expiry,
		PurchasePrice: decimal.NewFromInt(price),
		MRP:           decimal.NewFromInt(mrp),
		StockQuantity: qty,
	}
}

// invoiceTotal re-reads the invoice row.
func (e *testEnv) invoiceTotal(t *testing.T, invoiceNo string, wholesalerID uuid.UUID) decimal.Decimal {
	t.Helper()
	var inv model.Invoice
	err := e.db.Where("invoice_no = ? AND wholesaler_id = ?", invoiceNo, wholesalerID).First(&inv).Error
	if err != nil {
		t.Fatalf("load invoice %q: %v", invoiceNo, err)
	}
	return inv.TotalAmount
}

// assertLedgerBalanced checks the core invariant: every live invoice's total
// equals the sum of purchase_price * stock_quantity over its live lots.
func (e *testEnv) assertLedgerBalanced(t *testing.T) {
	t.Helper()
	var invoices []model.Invoice
	if err := e.db.Find(&invoices).Error; err != nil {
		t.Fatalf("load invoices: %v", err)
	}
	for _, inv := range invoices {
		var lots []model.MedicineStock
		if err := e.db.Where("invoice_id = ?", inv.ID).Find(&lots).Error; err != nil {
			t.Fatalf("load lots for invoice %s: %v", inv.InvoiceNo, err)
		}
		sum := decimal.Zero
		for i := range lots {
			sum = sum.Add(lots[i].LineTotal())
		}
		if !inv.TotalAmount.Equal(sum) {
			t.Fatalf("invoice %s total %s does not match lot sum %s",
				inv.InvoiceNo, inv.TotalAmount, sum)
		}
	}
}
