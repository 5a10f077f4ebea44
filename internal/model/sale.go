package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is one counter transaction. The three money columns are aggregates
// over the sale's items, computed and persisted atomically with them:
// PurchasePrice is the cost basis, TotalAmount what the customer was
// charged, MRPAmount the list-price sum.
type Sale struct {
	BaseModel
	EmployeeID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"employee_id"`
	SaleNo        string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"sale_no"`
	SaleDate      time.Time       `gorm:"not null" json:"sale_date"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"purchase_price"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	MRPAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"mrp_amount"`
	PaymentMethod string          `gorm:"type:varchar(20)" json:"payment_method"`
	CustomerName  string          `gorm:"type:varchar(255)" json:"customer_name"`
	ContactNumber string          `gorm:"type:varchar(20)" json:"contact_number"`

	Employee *Employee  `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Items    []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

// SaleItem is one sold line. Medicine name, batch, expiry and both prices
// are snapshots taken at sale time; they must not change when the source lot
// is later updated, depleted or deleted, so MedicineID is only a weak
// reference.
type SaleItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	SaleID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	MedicineID    uuid.UUID       `gorm:"type:uuid" json:"medicine_id"`
	MedicineName  string          `gorm:"type:varchar(255);not null" json:"medicine_name"`
	BatchNo       string          `gorm:"type:varchar(100)" json:"batch_no"`
	ExpiryDate    *time.Time      `gorm:"type:date" json:"expiry_date,omitempty"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"purchase_price"`
	MRP           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"mrp"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Rate          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"rate"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Discount is the per-unit markdown from list price actually given.
func (i *SaleItem) Discount() decimal.Decimal {
	return i.MRP.Sub(i.Rate)
}
