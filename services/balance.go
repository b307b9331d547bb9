package services

import (
	"context"

	"dentalclinic-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Balance is the derived money position of one visit.
type Balance struct {
	VisitID     uuid.UUID `json:"visitId"`
	TotalAmount int64     `json:"totalAmount"`
	AmountPaid  int64     `json:"amountPaid"`
	AmountLeft  int64     `json:"amountLeft"`
}

func newBalance(visitID uuid.UUID, total, paid int64) Balance {
	return Balance{
		VisitID:     visitID,
		TotalAmount: total,
		AmountPaid:  paid,
		AmountLeft:  total - paid,
	}
}

// BalanceService computes visit balances from the current act and payment rows.
// Nothing is cached.
type BalanceService struct {
	db *gorm.DB
}

func NewBalanceService(db *gorm.DB) *BalanceService {
	return &BalanceService{db: db}
}

// VisitBalance returns the balance of one of the user's visits, deleted or not.
func (s *BalanceService) VisitBalance(ctx context.Context, userID, visitID uuid.UUID) (Balance, error) {
	db := s.db.WithContext(ctx)

	var visit models.Visit
	if err := db.Select("id").Where("id = ? AND user_id = ?", visitID, userID).First(&visit).Error; err != nil {
		return Balance{}, notFoundOr(err, "visit")
	}

	balances, err := balancesFor(db, []uuid.UUID{visit.ID})
	if err != nil {
		return Balance{}, Internal("failed to compute balance", err)
	}
	return balances[visit.ID], nil
}

// BalancesFor computes balances for many visits with two grouped queries.
func (s *BalanceService) BalancesFor(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]Balance, error) {
	balances, err := balancesFor(s.db.WithContext(ctx), visitIDs)
	if err != nil {
		return nil, Internal("failed to compute balances", err)
	}
	return balances, nil
}

type visitSum struct {
	VisitID uuid.UUID
	Total   int64
}

// balancesFor runs on db so callers inside a transaction see their own writes.
// Every requested id gets an entry, zero when it has no acts or payments.
func balancesFor(db *gorm.DB, visitIDs []uuid.UUID) (map[uuid.UUID]Balance, error) {
	result := make(map[uuid.UUID]Balance, len(visitIDs))
	if len(visitIDs) == 0 {
		return result, nil
	}

	var charged []visitSum
	if err := db.Model(&models.VisitAct{}).
		Select("visit_id, COALESCE(SUM(price), 0) AS total").
		Where("visit_id IN ?", visitIDs).
		Group("visit_id").
		Scan(&charged).Error; err != nil {
		return nil, err
	}

	var paid []visitSum
	if err := db.Model(&models.Payment{}).
		Select("visit_id, COALESCE(SUM(amount), 0) AS total").
		Where("visit_id IN ?", visitIDs).
		Group("visit_id").
		Scan(&paid).Error; err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]int64, len(charged))
	for _, row := range charged {
		totals[row.VisitID] = row.Total
	}
	payments := make(map[uuid.UUID]int64, len(paid))
	for _, row := range paid {
		payments[row.VisitID] = row.Total
	}

	for _, id := range visitIDs {
		result[id] = newBalance(id, totals[id], payments[id])
	}
	return result, nil
}
