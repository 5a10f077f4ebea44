package service

import (
	"testing"
	"time"

	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestGenerateSaleNo(t *testing.T) {
	at := time.Date(2026, time.March, 5, 14, 30, 9, 0, time.UTC)

	// 5143009 (DDHHMMSS) in base36 is 328DD; the month keeps its mixed case.
	if got := GenerateSaleNo(1, at); got != "00126Mar328DD" {
		t.Fatalf("GenerateSaleNo(1) = %q, want 00126Mar328DD", got)
	}
	// 100 in base36 is 2S, left-padded to three characters.
	if got := GenerateSaleNo(100, at); got != "02S26Mar328DD" {
		t.Fatalf("GenerateSaleNo(100) = %q, want 02S26Mar328DD", got)
	}
	// 46655 is the largest three-character base36 value.
	if got := GenerateSaleNo(46655, at); got != "ZZZ26Mar328DD" {
		t.Fatalf("GenerateSaleNo(46655) = %q, want ZZZ26Mar328DD", got)
	}
}

func TestProcessSaleDecrementsStockAndSnapshotsPrices(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")
	emp := env.seedEmployee(t, 7)
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}

	receipt, err := env.sales.ProcessSale(&ProcessSaleInput{
		EmployeeID:   emp.ID,
		CustomerName: "Walk-in",
		Items: []SaleLine{
			{MedicineID: lot.ID, Quantity: 3, Rate: decimal.NewFromInt(30)},
		},
	})
	if err != nil {
		t.Fatalf("process sale: %v", err)
	}

	if !receipt.TotalAmount.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("receipt total = %s, want 90", receipt.TotalAmount)
	}
	if len(receipt.Medicines) != 1 {
		t.Fatalf("receipt has %d lines, want 1", len(receipt.Medicines))
	}
	line := receipt.Medicines[0]
	if !line.Discount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("discount = %s, want 5 (mrp 35 - rate 30)", line.Discount)
	}

	reloaded, err := env.stockRepo.FindByID(lot.ID)
	if err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	if reloaded.StockQuantity != 7 {
		t.Fatalf("lot quantity = %d after sale, want 7", reloaded.StockQuantity)
	}

	// Changing the lot afterwards must not touch the recorded sale item.
	newPrice := decimal.NewFromInt(99)
	if _, err := env.stock.UpdateLot(lot.ID, &UpdateLotInput{PurchasePrice: &newPrice}); err != nil {
		t.Fatalf("update lot: %v", err)
	}
	sale, err := env.sales.GetSale(receipt.SaleID)
	if err != nil {
		t.Fatalf("load sale: %v", err)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("sale has %d items, want 1", len(sale.Items))
	}
	item := sale.Items[0]
	if !item.PurchasePrice.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("item cost snapshot = %s, want the price at sale time (20)", item.PurchasePrice)
	}
	if !sale.PurchasePrice.Equal(decimal.NewFromInt(60)) || !sale.MRPAmount.Equal(decimal.NewFromInt(105)) {
		t.Fatalf("sale aggregates cost=%s mrp=%s, want 60 and 105", sale.PurchasePrice, sale.MRPAmount)
	}
}

func TestProcessSaleOversellAborts(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")
	emp := env.seedEmployee(t, 7)
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 5))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}

	_, err := env.sales.ProcessSale(&ProcessSaleInput{
		EmployeeID: emp.ID,
		Items: []SaleLine{
			{MedicineID: lot.ID, Quantity: 6, Rate: decimal.NewFromInt(30)},
		},
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	reloaded, err := env.stockRepo.FindByID(lot.ID)
	if err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	if reloaded.StockQuantity != 5 {
		t.Fatalf("lot quantity = %d after aborted sale, want 5", reloaded.StockQuantity)
	}
	var count int64
	env.db.Model(&model.Sale{}).Count(&count)
	if count != 0 {
		t.Fatalf("%d sales persisted after abort", count)
	}
}

func TestProcessSaleMultiItemAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")
	emp := env.seedEmployee(t, 7)
	env.addLots(t, "MediSupply", "INV-001",
		testLot("Paracetamol", "B1", 20, 35, 10),
		testLot("Ibuprofen", "B2", 15, 28, 2),
	)

	var para, ibu model.MedicineStock
	if err := env.db.First(&para, "medicine_name = ?", "Paracetamol").Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}
	if err := env.db.First(&ibu, "medicine_name = ?", "Ibuprofen").Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}

	_, err := env.sales.ProcessSale(&ProcessSaleInput{
		EmployeeID: emp.ID,
		Items: []SaleLine{
			{MedicineID: para.ID, Quantity: 4, Rate: decimal.NewFromInt(30)},
			{MedicineID: ibu.ID, Quantity: 3, Rate: decimal.NewFromInt(25)}, // only 2 left
		},
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	reloaded, err := env.stockRepo.FindByID(para.ID)
	if err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	if reloaded.StockQuantity != 10 {
		t.Fatalf("first item decrement survived the abort: quantity = %d", reloaded.StockQuantity)
	}
	var count int64
	env.db.Model(&model.SaleItem{}).Count(&count)
	if count != 0 {
		t.Fatalf("%d sale items persisted after abort", count)
	}
}

func TestProcessSaleUnknownMedicine(t *testing.T) {
	env := newTestEnv(t)
	emp := env.seedEmployee(t, 7)

	_, err := env.sales.ProcessSale(&ProcessSaleInput{
		EmployeeID: emp.ID,
		Items: []SaleLine{
			{MedicineID: uuid.New(), Quantity: 1, Rate: decimal.NewFromInt(10)},
		},
	})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestProcessSaleValidation(t *testing.T) {
	env := newTestEnv(t)
	emp := env.seedEmployee(t, 7)

	_, err := env.sales.ProcessSale(&ProcessSaleInput{EmployeeID: emp.ID})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("empty cart: err = %v, want validation", err)
	}

	_, err = env.sales.ProcessSale(&ProcessSaleInput{
		EmployeeID: emp.ID,
		Items: []SaleLine{
			{MedicineID: uuid.New(), Quantity: 0, Rate: decimal.NewFromInt(10)},
		},
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("zero quantity: err = %v, want validation", err)
	}
}

func TestDeleteSaleRemovesItems(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")
	emp := env.seedEmployee(t, 7)
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}
	receipt, err := env.sales.ProcessSale(&ProcessSaleInput{
		EmployeeID: emp.ID,
		Items: []SaleLine{
			{MedicineID: lot.ID, Quantity: 2, Rate: decimal.NewFromInt(30)},
		},
	})
	if err != nil {
		t.Fatalf("process sale: %v", err)
	}

	if err := env.sales.DeleteSale(receipt.SaleID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	var count int64
	env.db.Model(&model.SaleItem{}).Count(&count)
	if count != 0 {
		t.Fatalf("%d sale items left after delete", count)
	}
	if err := env.sales.DeleteSale(receipt.SaleID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("second delete: err = %v, want not found", err)
	}
}
