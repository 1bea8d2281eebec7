package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"balcao-system/internal/database/models"
	"balcao-system/internal/ledger"
)

const (
	REPORT_CACHE_PREFIX = "reports:cashflow:"
	REPORT_CACHE_TTL    = 1 * time.Minute
)

type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// ReportsHandler aggregates the sales and payables ledgers into dashboard
// figures. It only reads; the source of truth stays with the other services.
type ReportsHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewReportsHandler(db *gorm.DB, redisClient *redis.Client) *ReportsHandler {
	return &ReportsHandler{
		db:    db,
		redis: redisClient,
	}
}

type CashFlowSummary struct {
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	Revenue         string    `json:"revenue"`
	Profit          string    `json:"profit"`
	Received        string    `json:"received"`
	PayablesDue     string    `json:"payables_due"`
	OutstandingDebt string    `json:"outstanding_debt"`
	SalesCount      int64     `json:"sales_count"`
}

// periodBounds resolves a period type to [start, end) around the reference
// time. Weeks start on Monday.
func periodBounds(period PeriodType, ref time.Time) (time.Time, time.Time, error) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	switch period {
	case PeriodDaily:
		return day, day.AddDate(0, 0, 1), nil
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), nil
	case PeriodMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return start, start.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown period %q", ledger.ErrInvalidInput, period)
	}
}

// CashFlow summarizes money earned, received and owed within the period
// containing the reference time.
func (s *ReportsHandler) CashFlow(ctx context.Context, period PeriodType, ref time.Time) (*CashFlowSummary, error) {
	start, end, err := periodBounds(period, ref)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%s:%s", REPORT_CACHE_PREFIX, period, start.Format("2006-01-02"))
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var summary CashFlowSummary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	var sales []models.Sale
	err = s.db.WithContext(ctx).
		Where("sale_date >= ? AND sale_date < ?", start, end).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}

	var totals, profits []string
	for _, sale := range sales {
		totals = append(totals, sale.TotalValue)
		profits = append(profits, sale.Profit)
	}
	revenue, err := ledger.SumAmounts(totals)
	if err != nil {
		return nil, err
	}
	profit, err := ledger.SumAmounts(profits)
	if err != nil {
		return nil, err
	}

	var salePayments []string
	err = s.db.WithContext(ctx).
		Model(&models.SalePayment{}).
		Where("payment_date >= ? AND payment_date < ?", start, end).
		Pluck("amount", &salePayments).Error
	if err != nil {
		return nil, err
	}
	var customerPayments []string
	err = s.db.WithContext(ctx).
		Model(&models.CustomerPayment{}).
		Where("payment_date >= ? AND payment_date < ?", start, end).
		Pluck("amount", &customerPayments).Error
	if err != nil {
		return nil, err
	}
	received, err := ledger.SumAmounts(append(salePayments, customerPayments...))
	if err != nil {
		return nil, err
	}

	var dueAmounts []string
	err = s.db.WithContext(ctx).
		Model(&models.BillInstallment{}).
		Where("status <> ? AND due_date >= ? AND due_date < ?", models.InstallmentPaid, start, end).
		Pluck("value", &dueAmounts).Error
	if err != nil {
		return nil, err
	}
	payablesDue, err := ledger.SumAmounts(dueAmounts)
	if err != nil {
		return nil, err
	}

	var debts []string
	err = s.db.WithContext(ctx).
		Model(&models.Customer{}).
		Pluck("current_debt", &debts).Error
	if err != nil {
		return nil, err
	}
	outstanding, err := ledger.SumAmounts(debts)
	if err != nil {
		return nil, err
	}

	summary := &CashFlowSummary{
		PeriodStart:     start,
		PeriodEnd:       end,
		Revenue:         ledger.FormatAmount(revenue),
		Profit:          ledger.FormatAmount(profit),
		Received:        ledger.FormatAmount(received),
		PayablesDue:     ledger.FormatAmount(payablesDue),
		OutstandingDebt: ledger.FormatAmount(outstanding),
		SalesCount:      int64(len(sales)),
	}

	if s.redis != nil {
		if payload, err := json.Marshal(summary); err == nil {
			_ = s.redis.Set(ctx, cacheKey, payload, REPORT_CACHE_TTL)
		}
	}
	return summary, nil
}
