package model

// Privilege represents a permission that can be assigned to employees
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "stock:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Add Stock Lots"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// Stock management
	{Code: "stock:view", Name: "View Stock"},
	{Code: "stock:create", Name: "Add Stock Lots"},
	{Code: "stock:update", Name: "Update Stock Lot"},
	{Code: "stock:delete", Name: "Delete Stock Lot"},
	{Code: "stock:expire", Name: "Write Off Expired Lot"},
	// Sales
	{Code: "sale:view", Name: "View Sales"},
	{Code: "sale:create", Name: "Record Sale"},
	{Code: "sale:delete", Name: "Delete Sale"},
	// Invoices
	{Code: "invoice:view", Name: "View Invoices"},
	{Code: "invoice:update", Name: "Record Invoice Payment"},
	{Code: "invoice:delete", Name: "Delete Invoice"},
	// Wholesalers
	{Code: "wholesaler:view", Name: "View Wholesalers"},
	{Code: "wholesaler:create", Name: "Add Wholesaler"},
	{Code: "wholesaler:update", Name: "Update Wholesaler"},
	{Code: "wholesaler:delete", Name: "Delete Wholesaler"},
	// Staff management (ADMIN only)
	{Code: "employee:view", Name: "View Employees"},
	{Code: "employee:create", Name: "Create Employee"},
	{Code: "employee:update", Name: "Update Employee"},
	{Code: "employee:delete", Name: "Delete Employee"},
	{Code: "employee:update_privilege", Name: "Update Employee Privileges"},
	// Dashboard
	{Code: "dashboard:view", Name: "View Dashboard"},
}
