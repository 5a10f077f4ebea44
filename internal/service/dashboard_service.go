package service

import (
	"time"

	"go-pharmacy-ledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardService aggregates the read-only figures the dashboard shows.
type DashboardService interface {
	GetStats() (*DashboardStats, error)
	GetFinancialSummary(from, to time.Time) (*FinancialSummary, error)
}

type DashboardStats struct {
	TotalLots           int64           `json:"total_lots"`
	LowStockLots        int64           `json:"low_stock_lots"`
	ExpiringSoonLots    int64           `json:"expiring_soon_lots"`
	StockValuation      decimal.Decimal `json:"stock_valuation"`
	OutstandingPayables decimal.Decimal `json:"outstanding_payables"`
	TotalWholesalers    int64           `json:"total_wholesalers"`
}

type FinancialSummary struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	SalesCount int64           `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	Profit     decimal.Decimal `json:"profit"`
	MRPValue   decimal.Decimal `json:"mrp_value"`
}

type dashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardService{db: db}
}

func (s *dashboardService) GetStats() (*DashboardStats, error) {
	var stats DashboardStats

	if err := s.db.Model(&model.MedicineStock{}).Count(&stats.TotalLots).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.MedicineStock{}).
		Where("stock_quantity < ?", lowStockThreshold).
		Count(&stats.LowStockLots).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.db.Model(&model.MedicineStock{}).
		Where("expiry_date IS NOT NULL AND expiry_date BETWEEN ? AND ?", now, now.AddDate(0, 1, 0)).
		Count(&stats.ExpiringSoonLots).Error; err != nil {
		return nil, err
	}

	var valuation struct {
		Total decimal.Decimal
	}
	if err := s.db.Model(&model.MedicineStock{}).
		Select("COALESCE(SUM(purchase_price * stock_quantity), 0) AS total").
		Scan(&valuation).Error; err != nil {
		return nil, err
	}
	stats.StockValuation = valuation.Total

	var payables struct {
		Total decimal.Decimal
	}
	if err := s.db.Model(&model.Invoice{}).
		Select("COALESCE(SUM(total_amount - paid_amount), 0) AS total").
		Scan(&payables).Error; err != nil {
		return nil, err
	}
	stats.OutstandingPayables = payables.Total

	if err := s.db.Model(&model.Wholesaler{}).Count(&stats.TotalWholesalers).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *dashboardService) GetFinancialSummary(from, to time.Time) (*FinancialSummary, error) {
	var row struct {
		SalesCount int64
		Revenue    decimal.Decimal
		Cost       decimal.Decimal
		MRPValue   decimal.Decimal
	}
	err := s.db.Model(&model.Sale{}).
		Select(
			"COUNT(*) AS sales_count, " +
				"COALESCE(SUM(total_amount), 0) AS revenue, " +
				"COALESCE(SUM(purchase_price), 0) AS cost, " +
				"COALESCE(SUM(mrp_amount), 0) AS mrp_value",
		).
		Where("sale_date BETWEEN ? AND ?", from, to).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &FinancialSummary{
		From:       from,
		To:         to,
		SalesCount: row.SalesCount,
		Revenue:    row.Revenue,
		Cost:       row.Cost,
		Profit:     row.Revenue.Sub(row.Cost),
		MRPValue:   row.MRPValue,
	}, nil
}
