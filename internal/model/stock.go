package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MedicineStock is a lot: one received batch of a medicine on one invoice.
// A lot is identified for deduplication by the tuple
// (packed_type, medicine_name, brand_name, batch_no, invoice_id).
type MedicineStock struct {
	BaseModel
	PackedType    string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_lot_identity" json:"packed_type" validate:"required"`
	MedicineName  string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_lot_identity" json:"medicine_name" validate:"required"`
	BrandName     string          `gorm:"type:varchar(255);uniqueIndex:idx_lot_identity" json:"brand_name"`
	BatchNo       string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_lot_identity" json:"batch_no" validate:"required"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_lot_identity;index" json:"invoice_id"`
	InvoiceNo     string          `gorm:"type:varchar(100)" json:"invoice_no"` // denormalised for reporting
	ExpiryDate    *time.Time      `gorm:"type:date" json:"expiry_date,omitempty"`
	MfgDate       *time.Time      `gorm:"type:date" json:"mfg_date,omitempty"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"purchase_price" validate:"decimal_gte0"`
	MRP           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"mrp" validate:"decimal_gte0"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity" validate:"gte=0"`

	Invoice *Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

// LineTotal is this lot's contribution to its invoice total.
func (m *MedicineStock) LineTotal() decimal.Decimal {
	return m.PurchasePrice.Mul(decimal.NewFromInt(int64(m.StockQuantity)))
}

// DedupKey returns the in-batch duplicate detection key for a lot. InvoiceID
// is implicit because a batch always targets a single invoice.
func DedupKey(packedType, medicineName, brandName, batchNo string) string {
	return strings.Join([]string{packedType, medicineName, brandName, batchNo}, "|")
}

// ExpiredStock is a written-off lot, copied verbatim from medicine_stock
// before the original row is removed. The copy keeps the lot's id so expired
// goods stay traceable to the invoice that delivered them.
type ExpiredStock struct {
	BaseModel
	MedicineID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"medicine_id"`
	PackedType    string          `gorm:"type:varchar(50);not null" json:"packed_type"`
	MedicineName  string          `gorm:"type:varchar(255);not null" json:"medicine_name"`
	BrandName     string          `gorm:"type:varchar(255)" json:"brand_name"`
	BatchNo       string          `gorm:"type:varchar(100);not null" json:"batch_no"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	InvoiceNo     string          `gorm:"type:varchar(100)" json:"invoice_no"`
	ExpiryDate    *time.Time      `gorm:"type:date" json:"expiry_date,omitempty"`
	MfgDate       *time.Time      `gorm:"type:date" json:"mfg_date,omitempty"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"purchase_price"`
	MRP           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"mrp"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
}
