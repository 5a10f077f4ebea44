package model

// Wholesaler is a supplier the pharmacy buys from. Deliveries are billed
// against invoices owned by the wholesaler.
type Wholesaler struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);not null;index" json:"name" validate:"required"`
	GSTNo   string `gorm:"type:varchar(30);uniqueIndex;not null" json:"gst_no" validate:"required"`
	Address string `gorm:"type:text" json:"address"`
	Contact string `gorm:"type:varchar(20)" json:"contact"`
	Email   string `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`

	Invoices []Invoice `gorm:"foreignKey:WholesalerID" json:"invoices,omitempty"`
}
