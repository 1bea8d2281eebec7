package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"balcao-system/internal/database/models"
	"balcao-system/internal/ledger"
)

const (
	PAYABLES_EVENT_CHANNEL_PREFIX = "balcao:events:"
	PAYABLES_SUMMARY_CACHE_KEY    = "payables:summary"
	PAYABLES_SUMMARY_CACHE_TTL    = 2 * time.Minute
)

// PayablesHandler manages supplier bills and their installment schedules.
type PayablesHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewPayablesHandler(db *gorm.DB, redisClient *redis.Client) *PayablesHandler {
	return &PayablesHandler{
		db:    db,
		redis: redisClient,
	}
}

type BillEvent struct {
	Type          string    `json:"type"`
	BillID        int64     `json:"bill_id"`
	InstallmentID int64     `json:"installment_id,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func (s *PayablesHandler) publishEvent(ctx context.Context, event BillEvent) {
	if s.redis == nil {
		return
	}
	event.Timestamp = time.Now()
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.redis.Publish(ctx, PAYABLES_EVENT_CHANNEL_PREFIX+event.Type, payload).Err(); err != nil {
		log.Warn().Err(err).Str("event", event.Type).Msg("failed to publish bill event")
	}
}

func (s *PayablesHandler) invalidateSummaryCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, PAYABLES_SUMMARY_CACHE_KEY)
}

type CreateBillRequest struct {
	SupplierID        int64
	Description       string
	TotalValue        string
	IssueDate         *time.Time
	FirstDueDate      time.Time
	InstallmentsCount int32
}

// CreateBill registers a supplier bill and expands its installment schedule
// in the same transaction, so a bill is never persisted half-scheduled.
func (s *PayablesHandler) CreateBill(ctx context.Context, req CreateBillRequest) (*models.Bill, error) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return nil, fmt.Errorf("%w: description required", ledger.ErrInvalidInput)
	}
	if req.FirstDueDate.IsZero() {
		return nil, fmt.Errorf("%w: first_due_date required", ledger.ErrInvalidInput)
	}
	total, err := ledger.ParsePositiveAmount(req.TotalValue)
	if err != nil {
		return nil, err
	}

	var supplier models.Supplier
	if err := s.db.WithContext(ctx).First(&supplier, req.SupplierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown supplier %d", ledger.ErrInvalidInput, req.SupplierID)
		}
		return nil, err
	}

	issueDate := time.Now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	bill := models.Bill{
		SupplierID:        supplier.ID,
		Description:       req.Description,
		TotalValue:        ledger.FormatAmount(total),
		IssueDate:         issueDate,
		FirstDueDate:      req.FirstDueDate,
		InstallmentsCount: req.InstallmentsCount,
	}
	if err := tx.Create(&bill).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	installments, err := ledger.ScheduleInstallments(bill.ID, total, int(req.InstallmentsCount), req.FirstDueDate, time.Now())
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Create(&installments).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.invalidateSummaryCache(ctx)
	s.publishEvent(ctx, BillEvent{Type: "bill.created", BillID: bill.ID, Amount: bill.TotalValue})
	return s.GetBill(ctx, bill.ID)
}

func (s *PayablesHandler) GetBill(ctx context.Context, id int64) (*models.Bill, error) {
	var bill models.Bill
	err := s.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("number")
		}).
		First(&bill, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bill %d", ledger.ErrNotFound, id)
		}
		return nil, err
	}
	return &bill, nil
}

// ListBills sweeps first so consumers never see a stale to_pay status on a
// past-due installment.
func (s *PayablesHandler) ListBills(ctx context.Context) ([]models.Bill, error) {
	if _, err := s.SweepOverdue(ctx, time.Now()); err != nil {
		return nil, err
	}

	var bills []models.Bill
	err := s.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("number")
		}).
		Order("first_due_date").
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

type ListInstallmentsRequest struct {
	Status  *models.InstallmentStatus
	DueFrom *time.Time
	DueTo   *time.Time
}

func (s *PayablesHandler) ListInstallments(ctx context.Context, req ListInstallmentsRequest) ([]models.BillInstallment, error) {
	if _, err := s.SweepOverdue(ctx, time.Now()); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Order("due_date")
	if req.Status != nil {
		query = query.Where("status = ?", *req.Status)
	}
	if req.DueFrom != nil {
		query = query.Where("due_date >= ?", *req.DueFrom)
	}
	if req.DueTo != nil {
		query = query.Where("due_date < ?", *req.DueTo)
	}

	var installments []models.BillInstallment
	if err := query.Find(&installments).Error; err != nil {
		return nil, err
	}
	return installments, nil
}

// PayInstallment marks a single installment paid. Paid is terminal, so a
// repeated call fails with ErrAlreadyPaid and changes nothing.
func (s *PayablesHandler) PayInstallment(ctx context.Context, id int64, paidAt time.Time) (*models.BillInstallment, error) {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var inst models.BillInstallment
	if err := tx.First(&inst, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: installment %d", ledger.ErrNotFound, id)
		}
		return nil, err
	}

	if err := ledger.PayInstallment(&inst, paidAt); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&models.BillInstallment{}).
		Where("id = ?", inst.ID).
		Updates(map[string]interface{}{
			"status":       inst.Status,
			"payment_date": inst.PaymentDate,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.invalidateSummaryCache(ctx)
	s.publishEvent(ctx, BillEvent{Type: "installment.paid", BillID: inst.BillID, InstallmentID: inst.ID, Amount: inst.Value})
	return &inst, nil
}

// SweepOverdue reclassifies every open installment whose due date has passed
// and reports how many flipped. Running it twice with the same clock flips
// nothing the second time.
func (s *PayablesHandler) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var open []models.BillInstallment
	if err := tx.Where("status = ?", models.InstallmentToPay).Find(&open).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	flipped := ledger.SweepOverdue(open, now)
	for _, inst := range flipped {
		if err := tx.Model(&models.BillInstallment{}).
			Where("id = ?", inst.ID).
			Update("status", models.InstallmentOverdue).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	if len(flipped) > 0 {
		s.invalidateSummaryCache(ctx)
		for _, inst := range flipped {
			s.publishEvent(ctx, BillEvent{Type: "installment.overdue", BillID: inst.BillID, InstallmentID: inst.ID, Amount: inst.Value})
		}
	}
	return len(flipped), nil
}

// DeleteBill removes a bill together with its installment schedule.
func (s *PayablesHandler) DeleteBill(ctx context.Context, id int64) error {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var bill models.Bill
	if err := tx.First(&bill, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: bill %d", ledger.ErrNotFound, id)
		}
		return err
	}

	if err := tx.Where("bill_id = ?", bill.ID).Delete(&models.BillInstallment{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.Bill{}, bill.ID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.invalidateSummaryCache(ctx)
	s.publishEvent(ctx, BillEvent{Type: "bill.deleted", BillID: bill.ID})
	return nil
}

type PayablesSummary struct {
	MonthToPay   string `json:"month_to_pay"`
	MonthPaid    string `json:"month_paid"`
	TotalOpen    string `json:"total_open"`
	OverdueCount int64  `json:"overdue_count"`
}

// Summary aggregates the installment ledger into the dashboard totals: what
// falls due in the current month, what was already paid there, the open
// balance across all months and how many installments are overdue. The
// result is cached briefly in redis.
func (s *PayablesHandler) Summary(ctx context.Context, now time.Time) (*PayablesSummary, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, PAYABLES_SUMMARY_CACHE_KEY).Result(); err == nil {
			var summary PayablesSummary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	var monthly []models.BillInstallment
	err := s.db.WithContext(ctx).
		Where("due_date >= ? AND due_date < ?", monthStart, monthEnd).
		Find(&monthly).Error
	if err != nil {
		return nil, err
	}

	var toPay, paid []string
	for _, inst := range monthly {
		if inst.Status == models.InstallmentPaid {
			paid = append(paid, inst.Value)
		} else {
			toPay = append(toPay, inst.Value)
		}
	}
	monthToPay, err := ledger.SumAmounts(toPay)
	if err != nil {
		return nil, err
	}
	monthPaid, err := ledger.SumAmounts(paid)
	if err != nil {
		return nil, err
	}

	var openAmounts []string
	err = s.db.WithContext(ctx).
		Model(&models.BillInstallment{}).
		Where("status <> ?", models.InstallmentPaid).
		Pluck("value", &openAmounts).Error
	if err != nil {
		return nil, err
	}
	totalOpen, err := ledger.SumAmounts(openAmounts)
	if err != nil {
		return nil, err
	}

	var overdueCount int64
	err = s.db.WithContext(ctx).
		Model(&models.BillInstallment{}).
		Where("status = ?", models.InstallmentOverdue).
		Count(&overdueCount).Error
	if err != nil {
		return nil, err
	}

	summary := &PayablesSummary{
		MonthToPay:   ledger.FormatAmount(monthToPay),
		MonthPaid:    ledger.FormatAmount(monthPaid),
		TotalOpen:    ledger.FormatAmount(totalOpen),
		OverdueCount: overdueCount,
	}

	if s.redis != nil {
		if payload, err := json.Marshal(summary); err == nil {
			_ = s.redis.Set(ctx, PAYABLES_SUMMARY_CACHE_KEY, payload, PAYABLES_SUMMARY_CACHE_TTL)
		}
	}
	return summary, nil
}
