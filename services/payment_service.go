package services

import (
	"context"
	"strings"
	"time"

	"dentalclinic-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreatePaymentInput struct {
	VisitID       uuid.UUID
	Amount        int64
	PaymentMethod string
	Notes         *string
	RecordedAt    *time.Time
}

// PaymentFilter narrows the payment journal. Bounds apply to recordedAt.
type PaymentFilter struct {
	PatientName string
	From        *time.Time
	To          *time.Time
}

// VisitSummary is the payment-centric view of a visit balance.
type VisitSummary struct {
	VisitID          uuid.UUID `json:"visitId"`
	TotalAmount      int64     `json:"totalAmount"`
	TotalPaid        int64     `json:"totalPaid"`
	RemainingBalance int64     `json:"remainingBalance"`
}

type PaymentService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPaymentService(db *gorm.DB, logger *zap.Logger) *PaymentService {
	return &PaymentService{db: db, logger: logger.Named("payments")}
}

// Create admits a payment only if it does not exceed the visit's remaining balance.
// The balance is read and the payment written in one transaction holding the visit row.
func (s *PaymentService) Create(ctx context.Context, userID uuid.UUID, in CreatePaymentInput) (*models.Payment, error) {
	amount, err := models.NewAmount(in.Amount)
	if err != nil {
		return nil, Validation("payment amount must be between 1 and %d", models.MaxAmount)
	}
	method, err := models.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, Validation("%s", err.Error())
	}

	payment := &models.Payment{
		UserID:        userID,
		VisitID:       in.VisitID,
		Amount:        amount,
		PaymentMethod: method,
		Notes:         in.Notes,
	}
	if in.RecordedAt != nil {
		payment.RecordedAt = *in.RecordedAt
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return admitPayment(tx, userID, payment)
	})
	if err != nil {
		if KindOf(err) == KindValidation {
			s.logger.Warn("Payment rejected",
				zap.String("visit_id", in.VisitID.String()),
				zap.Int64("amount", in.Amount),
				zap.Error(err),
			)
		}
		return nil, passThrough(err, "failed to record payment")
	}

	s.logger.Info("Payment admitted",
		zap.String("payment_id", payment.ID.String()),
		zap.String("visit_id", payment.VisitID.String()),
		zap.Int64("amount", payment.Amount.Int64()),
	)
	return payment, nil
}

// admitPayment must run inside a transaction. It is shared with visit creation.
func admitPayment(tx *gorm.DB, userID uuid.UUID, payment *models.Payment) error {
	var visit models.Visit
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ? AND user_id = ?", payment.VisitID, userID).
		First(&visit).Error; err != nil {
		return notFoundOr(err, "visit")
	}

	balances, err := balancesFor(tx, []uuid.UUID{visit.ID})
	if err != nil {
		return Internal("failed to compute balance", err)
	}
	left := balances[visit.ID].AmountLeft
	if payment.Amount.Int64() > left {
		return Validation("payment amount exceeds remaining balance of %d", left)
	}

	if err := tx.Create(payment).Error; err != nil {
		return Internal("failed to record payment", err)
	}
	return nil
}

// ListByVisit returns a visit's payments, newest first.
func (s *PaymentService) ListByVisit(ctx context.Context, userID, visitID uuid.UUID) ([]models.Payment, error) {
	db := s.db.WithContext(ctx)

	var visit models.Visit
	if err := db.Select("id").Where("id = ? AND user_id = ?", visitID, userID).First(&visit).Error; err != nil {
		return nil, notFoundOr(err, "visit")
	}

	payments := []models.Payment{}
	if err := db.Where("visit_id = ?", visitID).
		Order("recorded_at DESC").
		Find(&payments).Error; err != nil {
		return nil, Internal("failed to load payments", err)
	}
	return payments, nil
}

// ListByPatient returns payments on the patient's non-deleted visits, newest first.
func (s *PaymentService) ListByPatient(ctx context.Context, userID, patientID uuid.UUID) ([]models.Payment, error) {
	db := s.db.WithContext(ctx)

	var patient models.Patient
	if err := db.Select("id").Where("id = ? AND user_id = ?", patientID, userID).First(&patient).Error; err != nil {
		return nil, notFoundOr(err, "patient")
	}

	visitIDs := db.Model(&models.Visit{}).
		Select("id").
		Where("patient_id = ? AND user_id = ? AND is_deleted = ?", patientID, userID, false)

	payments := []models.Payment{}
	if err := db.Where("visit_id IN (?)", visitIDs).
		Order("recorded_at DESC").
		Find(&payments).Error; err != nil {
		return nil, Internal("failed to load payments", err)
	}
	return payments, nil
}

// List returns the payment journal with visit and patient attached, newest first.
func (s *PaymentService) List(ctx context.Context, userID uuid.UUID, f PaymentFilter) ([]models.Payment, error) {
	query := s.db.WithContext(ctx).
		Joins("JOIN visits ON visits.id = payments.visit_id").
		Joins("JOIN patients ON patients.id = visits.patient_id").
		Where("payments.user_id = ?", userID).
		Preload("Visit.Patient")

	if name := strings.TrimSpace(f.PatientName); name != "" {
		query = query.Where("LOWER(patients.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.From != nil {
		query = query.Where("payments.recorded_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		query = query.Where("payments.recorded_at <= ?", f.To.UTC())
	}

	payments := []models.Payment{}
	if err := query.Order("payments.recorded_at DESC").Find(&payments).Error; err != nil {
		return nil, Internal("failed to load payments", err)
	}
	return payments, nil
}

func (s *PaymentService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&payment).Error; err != nil {
		return nil, notFoundOr(err, "payment")
	}
	return &payment, nil
}

func (s *PaymentService) VisitSummary(ctx context.Context, userID, visitID uuid.UUID) (VisitSummary, error) {
	balance, err := NewBalanceService(s.db).VisitBalance(ctx, userID, visitID)
	if err != nil {
		return VisitSummary{}, err
	}
	return VisitSummary{
		VisitID:          balance.VisitID,
		TotalAmount:      balance.TotalAmount,
		TotalPaid:        balance.AmountPaid,
		RemainingBalance: balance.AmountLeft,
	}, nil
}
