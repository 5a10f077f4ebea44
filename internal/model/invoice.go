package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "Unpaid"
	PaymentPartiallyPaid PaymentStatus = "PartiallyPaid"
	PaymentPaid          PaymentStatus = "Paid"
)

// Invoice is a wholesaler delivery's billing record.
//
// TotalAmount is derived, never entered: it must equal the sum of
// purchase_price * stock_quantity over the invoice's live lots after every
// committed transaction. It is written once at lot insert and adjusted by
// signed deltas afterwards.
type Invoice struct {
	BaseModel
	InvoiceNo     string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_invoice_identity" json:"invoice_no"`
	WholesalerID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_identity;index" json:"wholesaler_id"`
	InvoiceDate   *time.Time      `gorm:"type:date" json:"invoice_date,omitempty"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;default:'Unpaid'" json:"payment_status"`
	PaymentDate   *time.Time      `gorm:"type:date" json:"payment_date,omitempty"`

	Wholesaler *Wholesaler     `gorm:"foreignKey:WholesalerID" json:"wholesaler,omitempty"`
	Lots       []MedicineStock `gorm:"foreignKey:InvoiceID" json:"lots,omitempty"`
}
