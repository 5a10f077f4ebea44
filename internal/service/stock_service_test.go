package service

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/model"

	"github.com/shopspring/decimal"
)

func TestAddLotsCreatesInvoiceWithBatchTotal(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")

	result := env.addLots(t, "MediSupply", "INV-001",
		testLot("Paracetamol", "B1", 20, 35, 10), // 200
		testLot("Ibuprofen", "B2", 15, 28, 4),    // 60
		testLot("Cetirizine", "B3", 8, 12, 25),   // 200
	)

	want := decimal.NewFromInt(460)
	if !result.TotalAddedAmount.Equal(want) {
		t.Fatalf("batch total = %s, want %s", result.TotalAddedAmount, want)
	}

	inv, err := env.invoiceRepo.FindByID(result.InvoiceID)
	if err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if !inv.TotalAmount.Equal(want) {
		t.Fatalf("invoice total = %s, want %s", inv.TotalAmount, want)
	}
	if len(inv.Lots) != 3 {
		t.Fatalf("invoice has %d lots, want 3", len(inv.Lots))
	}
	if inv.PaymentStatus != model.PaymentUnpaid {
		t.Fatalf("payment status = %s, want %s", inv.PaymentStatus, model.PaymentUnpaid)
	}
	env.assertLedgerBalanced(t)
}

func TestAddLotsAccumulatesOnExistingInvoice(t *testing.T) {
	env := newTestEnv(t)
	w := env.seedWholesaler(t, "MediSupply")

	first := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))
	second := env.addLots(t, "MediSupply", "INV-001", testLot("Ibuprofen", "B2", 15, 28, 4))

	if first.InvoiceID != second.InvoiceID {
		t.Fatalf("second batch created a new invoice")
	}
	total := env.invoiceTotal(t, "INV-001", w.ID)
	if want := decimal.NewFromInt(260); !total.Equal(want) {
		t.Fatalf("invoice total = %s, want %s", total, want)
	}
}

func TestAddLotsSameInvoiceNoDifferentWholesaler(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedWholesaler(t, "SupplierA")
	b := env.seedWholesaler(t, "SupplierB")

	ra := env.addLots(t, "SupplierA", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))
	rb := env.addLots(t, "SupplierB", "INV-001", testLot("Paracetamol", "B1", 20, 35, 5))

	if ra.InvoiceID == rb.InvoiceID {
		t.Fatalf("invoice numbers are only unique per wholesaler, got shared invoice")
	}
	if total := env.invoiceTotal(t, "INV-001", a.ID); !total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("supplier A total = %s, want 200", total)
	}
	if total := env.invoiceTotal(t, "INV-001", b.ID); !total.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("supplier B total = %s, want 100", total)
	}
}

func TestAddLotsRejectsDuplicateWithinRequest(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")

	_, err := env.stock.AddLots(&AddLotsInput{
		Wholesaler: "MediSupply",
		InvoiceNo:  "INV-001",
		Lots: []NewLot{
			testLot("Paracetamol", "B1", 20, 35, 10),
			testLot("Paracetamol", "B1", 22, 35, 5),
		},
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	// The whole batch must roll back, including the invoice.
	var count int64
	env.db.Model(&model.MedicineStock{}).Count(&count)
	if count != 0 {
		t.Fatalf("%d lots persisted after rejected batch", count)
	}
	env.db.Model(&model.Invoice{}).Count(&count)
	if count != 0 {
		t.Fatalf("%d invoices persisted after rejected batch", count)
	}
}

func TestAddLotsRejectsDuplicateInStorage(t *testing.T) {
	env := newTestEnv(t)
	w := env.seedWholesaler(t, "MediSupply")
	env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	_, err := env.stock.AddLots(&AddLotsInput{
		Wholesaler: "MediSupply",
		InvoiceNo:  "INV-001",
		Lots:       []NewLot{testLot("Paracetamol", "B1", 20, 35, 7)},
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if total := env.invoiceTotal(t, "INV-001", w.ID); !total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("invoice total changed to %s after rejected duplicate", total)
	}

	// Same batch key on a different invoice is a distinct lot, not a duplicate.
	if _, err := env.stock.AddLots(&AddLotsInput{
		Wholesaler: "MediSupply",
		InvoiceNo:  "INV-002",
		Lots:       []NewLot{testLot("Paracetamol", "B1", 20, 35, 7)},
	}); err != nil {
		t.Fatalf("same batch on different invoice rejected: %v", err)
	}
	env.assertLedgerBalanced(t)
}

func TestAddLotsUnknownWholesaler(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.stock.AddLots(&AddLotsInput{
		Wholesaler: "Nobody",
		InvoiceNo:  "INV-001",
		Lots:       []NewLot{testLot("Paracetamol", "B1", 20, 35, 10)},
	})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestAddLotsValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")

	bad := testLot("Paracetamol", "B1", 20, 35, 10)
	bad.PurchasePrice = decimal.NewFromInt(-1)
	_, err := env.stock.AddLots(&AddLotsInput{
		Wholesaler: "MediSupply",
		InvoiceNo:  "INV-001",
		Lots:       []NewLot{bad},
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("negative price: err = %v, want validation", err)
	}

	_, err = env.stock.AddLots(&AddLotsInput{Wholesaler: "MediSupply", InvoiceNo: "INV-001"})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("empty batch: err = %v, want validation", err)
	}
}

func TestUpdateLotPriceAdjustsInvoiceByDelta(t *testing.T) {
	env := newTestEnv(t)
	w := env.seedWholesaler(t, "MediSupply")
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}

	newPrice := decimal.NewFromInt(21)
	updated, err := env.stock.UpdateLot(lot.ID, &UpdateLotInput{PurchasePrice: &newPrice})
	if err != nil {
		t.Fatalf("update lot: %v", err)
	}
	if updated.Adjustment == nil {
		t.Fatalf("expected an invoice adjustment")
	}
	if want := decimal.NewFromInt(10); !updated.Adjustment.Delta.Equal(want) {
		t.Fatalf("delta = %s, want %s", updated.Adjustment.Delta, want)
	}
	if total := env.invoiceTotal(t, "INV-001", w.ID); !total.Equal(decimal.NewFromInt(210)) {
		t.Fatalf("invoice total = %s, want 210", total)
	}
	env.assertLedgerBalanced(t)
}

func TestUpdateLotNonFinancialFieldLeavesTotalAlone(t *testing.T) {
	env := newTestEnv(t)
	w := env.seedWholesaler(t, "MediSupply")
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}

	brand := "Cipla"
	updated, err := env.stock.UpdateLot(lot.ID, &UpdateLotInput{BrandName: &brand})
	if err != nil {
		t.Fatalf("update lot: %v", err)
	}
	if updated.Adjustment != nil {
		t.Fatalf("brand rename produced adjustment %+v", updated.Adjustment)
	}
	if total := env.invoiceTotal(t, "INV-001", w.ID); !total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("invoice total = %s, want 200", total)
	}
}

func TestUpdateLotMovesBetweenInvoices(t *testing.T) {
	env := newTestEnv(t)
	w := env.seedWholesaler(t, "MediSupply")
	env.addLots(t, "MediSupply", "INV-002", testLot("Ibuprofen", "B9", 10, 18, 1)) // target exists
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}

	target := "INV-002"
	qty := 5
	updated, err := env.stock.UpdateLot(lot.ID, &UpdateLotInput{InvoiceNo: &target, StockQuantity: &qty})
	if err != nil {
		t.Fatalf("move lot: %v", err)
	}
	if updated.Lot.InvoiceNo != "INV-002" {
		t.Fatalf("lot still on invoice %s", updated.Lot.InvoiceNo)
	}

	if total := env.invoiceTotal(t, "INV-001", w.ID); !total.IsZero() {
		t.Fatalf("source invoice total = %s, want 0", total)
	}
	if total := env.invoiceTotal(t, "INV-002", w.ID); !total.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("target invoice total = %s, want 110", total)
	}
	env.assertLedgerBalanced(t)
}

func TestUpdateLotMoveToMissingInvoice(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}

	target := "INV-404"
	_, err := env.stock.UpdateLot(lot.ID, &UpdateLotInput{InvoiceNo: &target})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	env.assertLedgerBalanced(t)
}

func TestUpdateLotNoFields(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}
	_, err := env.stock.UpdateLot(lot.ID, &UpdateLotInput{})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestUpdateLotOnDeletedInvoice(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}
	if err := env.invoices.DeleteInvoice(result.InvoiceID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}

	qty := 3
	_, err := env.stock.UpdateLot(lot.ID, &UpdateLotInput{StockQuantity: &qty})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	// The quantity write must have rolled back with the failed adjustment.
	reloaded, err := env.stockRepo.FindByID(lot.ID)
	if err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	if reloaded.StockQuantity != 10 {
		t.Fatalf("lot quantity = %d after rolled-back update, want 10", reloaded.StockQuantity)
	}
}

func TestUpdateLotRenameOnDeletedInvoice(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}
	if err := env.invoices.DeleteInvoice(result.InvoiceID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}

	// A rename moves no money, but the lot is still frozen with its invoice.
	brand := "Cipla"
	_, err := env.stock.UpdateLot(lot.ID, &UpdateLotInput{BrandName: &brand})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("rename on deleted invoice: err = %v, want conflict", err)
	}
	reloaded, err := env.stockRepo.FindByID(lot.ID)
	if err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	if reloaded.BrandName != "Generic" {
		t.Fatalf("brand = %q after rejected rename, want Generic", reloaded.BrandName)
	}
}

func TestExpireLotOnDeletedInvoice(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}
	if err := env.invoices.DeleteInvoice(result.InvoiceID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}

	if _, err := env.stock.ExpireLot(lot.ID); !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("expire on deleted invoice: err = %v, want conflict", err)
	}

	// The lot stays in live stock and nothing lands in the expired table.
	if _, err := env.stock.GetLot(lot.ID); err != nil {
		t.Fatalf("lot gone after rejected write-off: %v", err)
	}
	var count int64
	env.db.Model(&model.ExpiredStock{}).Count(&count)
	if count != 0 {
		t.Fatalf("%d expired records persisted after rejected write-off", count)
	}
}

func TestDeleteLotReversesInvoiceTotal(t *testing.T) {
	env := newTestEnv(t)
	w := env.seedWholesaler(t, "MediSupply")
	result := env.addLots(t, "MediSupply", "INV-001",
		testLot("Paracetamol", "B1", 20, 35, 10),
		testLot("Ibuprofen", "B2", 15, 28, 4),
	)

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ? AND medicine_name = ?", result.InvoiceID, "Paracetamol").Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}
	if err := env.stock.DeleteLot(lot.ID); err != nil {
		t.Fatalf("delete lot: %v", err)
	}

	if total := env.invoiceTotal(t, "INV-001", w.ID); !total.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("invoice total = %s, want 60", total)
	}
	if _, err := env.stock.GetLot(lot.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("deleted lot still readable: %v", err)
	}

	// Hard delete frees the batch key for a re-delivery.
	if _, err := env.stock.AddLots(&AddLotsInput{
		Wholesaler: "MediSupply",
		InvoiceNo:  "INV-001",
		Lots:       []NewLot{testLot("Paracetamol", "B1", 20, 35, 6)},
	}); err != nil {
		t.Fatalf("re-delivery after delete rejected: %v", err)
	}
	env.assertLedgerBalanced(t)
}

func TestExpireLotKeepsInvoiceBilledInFull(t *testing.T) {
	env := newTestEnv(t)
	w := env.seedWholesaler(t, "MediSupply")
	result := env.addLots(t, "MediSupply", "INV-001", testLot("Paracetamol", "B1", 20, 35, 10))

	var lot model.MedicineStock
	if err := env.db.First(&lot, "invoice_id = ?", result.InvoiceID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}

	rec, err := env.stock.ExpireLot(lot.ID)
	if err != nil {
		t.Fatalf("expire lot: %v", err)
	}
	if rec.MedicineID != lot.ID {
		t.Fatalf("expired record does not reference the source lot")
	}
	if rec.StockQuantity != 10 || !rec.PurchasePrice.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expired record lost lot data: qty=%d price=%s", rec.StockQuantity, rec.PurchasePrice)
	}

	if _, err := env.stock.GetLot(lot.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expired lot still in live stock: %v", err)
	}
	// Write-off, not return: the wholesaler is still owed the full amount.
	if total := env.invoiceTotal(t, "INV-001", w.ID); !total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("invoice total = %s after expiry, want 200", total)
	}

	expired, err := env.stock.GetExpiredStock(50, 0)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("expired list has %d records, want 1", len(expired))
	}
}

func TestGetExpiringLotsWindow(t *testing.T) {
	env := newTestEnv(t)
	env.seedWholesaler(t, "MediSupply")

	soon := testLot("Amoxicillin", "B1", 10, 20, 5)
	soonDate := soon.ExpiryDate.AddDate(-1, 0, 0).AddDate(0, 0, 10) // ~10 days out
	soon.ExpiryDate = &soonDate
	late := testLot("Paracetamol", "B2", 10, 20, 5) // one year out
	env.addLots(t, "MediSupply", "INV-001", soon, late)

	lots, err := env.stock.GetExpiringLots(30, 0, 0)
	if err != nil {
		t.Fatalf("expiring lots: %v", err)
	}
	if len(lots) != 1 || lots[0].MedicineName != "Amoxicillin" {
		t.Fatalf("expiring window returned %d lots, want just Amoxicillin", len(lots))
	}

	if _, err := env.stock.GetExpiringLots(0, 0, 0); !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("missing window: err = %v, want validation", err)
	}
}

func TestConcurrentAddsAccumulateExactly(t *testing.T) {
	env := newTestEnv(t)
	w := env.seedWholesaler(t, "MediSupply")

	const workers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			lot := testLot("Paracetamol", fmt.Sprintf("B%d", n), 10, 18, 10) // 100 each
			var err error
			for attempt := 0; attempt < 5; attempt++ {
				_, err = env.stock.AddLots(&AddLotsInput{
					Wholesaler: "MediSupply",
					InvoiceNo:  "INV-001",
					Lots:       []NewLot{lot},
				})
				if err == nil || !strings.Contains(err.Error(), "lock") {
					break
				}
			}
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent add: %v", err)
		}
	}

	if total := env.invoiceTotal(t, "INV-001", w.ID); !total.Equal(decimal.NewFromInt(workers * 100)) {
		t.Fatalf("invoice total = %s, want %d", total, workers*100)
	}
	var count int64
	env.db.Model(&model.Invoice{}).Count(&count)
	if count != 1 {
		t.Fatalf("concurrent adds created %d invoices, want 1", count)
	}
	env.assertLedgerBalanced(t)
}
