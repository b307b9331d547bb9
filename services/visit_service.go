package services

import (
	"context"
	"strings"

	"dentalclinic-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActInput struct {
	VisitTypeID uuid.UUID
	Price       int64
	Teeth       []string
}

type InitialPaymentInput struct {
	Amount        int64
	PaymentMethod string
	Notes         *string
}

// CreateVisitInput needs either PatientID or NewPatient.
type CreateVisitInput struct {
	PatientID      *uuid.UUID
	NewPatient     *CreatePatientInput
	VisitTime      int64
	Notes          *string
	Acts           []ActInput
	InitialPayment *InitialPaymentInput
}

// UpdateVisitInput leaves nil fields untouched. A non-nil Acts replaces the whole act set.
type UpdateVisitInput struct {
	VisitTime *int64
	Notes     *string
	Acts      *[]ActInput
}

// VisitFilter narrows the visit list. Deleted selects the trash instead of active visits.
type VisitFilter struct {
	DateFrom    *int64
	DateTo      *int64
	PatientName string
	VisitTypeID *uuid.UUID
	Deleted     bool
}

type VisitService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewVisitService(db *gorm.DB, logger *zap.Logger) *VisitService {
	return &VisitService{db: db, logger: logger.Named("visits")}
}

// List returns visits with patient, acts and balances, latest first.
func (s *VisitService) List(ctx context.Context, userID uuid.UUID, f VisitFilter) ([]VisitDetail, error) {
	db := s.db.WithContext(ctx)

	query := withActs(db).
		Joins("JOIN patients ON patients.id = visits.patient_id").
		Preload("Patient").
		Where("visits.user_id = ? AND visits.is_deleted = ?", userID, f.Deleted)

	if f.DateFrom != nil {
		query = query.Where("visits.visit_time >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		query = query.Where("visits.visit_time <= ?", *f.DateTo)
	}
	if name := strings.TrimSpace(f.PatientName); name != "" {
		query = query.Where("LOWER(patients.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.VisitTypeID != nil {
		withType := db.Model(&models.VisitAct{}).Select("visit_id").Where("visit_type_id = ?", *f.VisitTypeID)
		query = query.Where("visits.id IN (?)", withType)
	}

	var visits []models.Visit
	if err := query.Order("visits.visit_time DESC").Find(&visits).Error; err != nil {
		return nil, Internal("failed to load visits", err)
	}

	details, err := detailVisits(db, visits)
	if err != nil {
		return nil, Internal("failed to compute balances", err)
	}
	return details, nil
}

// Get returns an active visit with patient, acts and balance.
func (s *VisitService) Get(ctx context.Context, userID, id uuid.UUID) (*VisitDetail, error) {
	return s.load(s.db.WithContext(ctx), userID, id)
}

func (s *VisitService) load(db *gorm.DB, userID, id uuid.UUID) (*VisitDetail, error) {
	var visit models.Visit
	if err := withActs(db).
		Preload("Patient").
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(&visit).Error; err != nil {
		return nil, notFoundOr(err, "visit")
	}

	details, err := detailVisits(db, []models.Visit{visit})
	if err != nil {
		return nil, Internal("failed to compute balance", err)
	}
	return &details[0], nil
}

// Create writes the visit, its acts and teeth, an optional inline patient and an
// optional initial payment in one transaction.
func (s *VisitService) Create(ctx context.Context, userID uuid.UUID, in CreateVisitInput) (*VisitDetail, error) {
	if in.VisitTime <= 0 {
		return nil, Validation("visit time is required")
	}
	if (in.PatientID == nil) == (in.NewPatient == nil) {
		return nil, Validation("either patientId or newPatient is required")
	}
	acts, err := buildActs(in.Acts)
	if err != nil {
		return nil, err
	}

	var newPatientRow *models.Patient
	if in.NewPatient != nil {
		if newPatientRow, err = newPatient(userID, *in.NewPatient); err != nil {
			return nil, err
		}
	}

	var initialPayment *models.Payment
	if p := in.InitialPayment; p != nil {
		amount, err := models.NewAmount(p.Amount)
		if err != nil {
			return nil, Validation("initial payment amount must be between 1 and %d", models.MaxAmount)
		}
		method, err := models.ParsePaymentMethod(p.PaymentMethod)
		if err != nil {
			return nil, Validation("%s", err.Error())
		}
		initialPayment = &models.Payment{
			UserID:        userID,
			Amount:        amount,
			PaymentMethod: method,
			Notes:         trimmed(p.Notes),
		}
	}

	visit := models.Visit{
		UserID:    userID,
		VisitTime: in.VisitTime,
		Notes:     trimmed(in.Notes),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if newPatientRow != nil {
			if err := tx.Create(newPatientRow).Error; err != nil {
				return err
			}
			visit.PatientID = newPatientRow.ID
		} else {
			var patient models.Patient
			if err := tx.Select("id").Where("id = ? AND user_id = ?", *in.PatientID, userID).First(&patient).Error; err != nil {
				return notFoundOr(err, "patient")
			}
			visit.PatientID = patient.ID
		}

		if err := ownedVisitTypes(tx, userID, visitTypeIDs(acts)); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&visit).Error; err != nil {
			return err
		}
		if err := insertActs(tx, visit.ID, acts); err != nil {
			return err
		}

		if initialPayment != nil {
			initialPayment.VisitID = visit.ID
			return admitPayment(tx, userID, initialPayment)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err, "failed to create visit")
	}

	s.logger.Info("Visit created",
		zap.String("visit_id", visit.ID.String()),
		zap.String("patient_id", visit.PatientID.String()),
		zap.Int("acts", len(acts)),
	)
	return s.Get(ctx, userID, visit.ID)
}

// Update changes time and notes and can replace the act set. Payments are never
// touched, so a replacement may not bring the total below what is already paid.
func (s *VisitService) Update(ctx context.Context, userID, id uuid.UUID, in UpdateVisitInput) (*VisitDetail, error) {
	var acts []models.VisitAct
	if in.Acts != nil {
		var err error
		if acts, err = buildActs(*in.Acts); err != nil {
			return nil, err
		}
	}
	if in.VisitTime != nil && *in.VisitTime <= 0 {
		return nil, Validation("visit time is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visit models.Visit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
			First(&visit).Error; err != nil {
			return notFoundOr(err, "visit")
		}

		if in.Acts != nil {
			if err := ownedVisitTypes(tx, userID, visitTypeIDs(acts)); err != nil {
				return err
			}
			balances, err := balancesFor(tx, []uuid.UUID{id})
			if err != nil {
				return err
			}
			paid := balances[id].AmountPaid
			if total := actsTotal(acts); total < paid {
				return Validation("acts total %d is below the %d already paid", total, paid)
			}
			if err := deleteActs(tx, id); err != nil {
				return err
			}
			if err := insertActs(tx, id, acts); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{}
		if in.VisitTime != nil {
			updates["visit_time"] = *in.VisitTime
		}
		if in.Notes != nil {
			updates["notes"] = trimmed(in.Notes)
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&visit).Updates(updates).Error
	})
	if err != nil {
		return nil, passThrough(err, "failed to update visit")
	}

	return s.Get(ctx, userID, id)
}

// SoftDelete hides a visit from lists and history. Balances are unchanged.
func (s *VisitService) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.setDeleted(ctx, userID, id, true); err != nil {
		return err
	}
	s.logger.Info("Visit moved to trash", zap.String("visit_id", id.String()))
	return nil
}

func (s *VisitService) Restore(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.setDeleted(ctx, userID, id, false); err != nil {
		return err
	}
	s.logger.Info("Visit restored", zap.String("visit_id", id.String()))
	return nil
}

func (s *VisitService) setDeleted(ctx context.Context, userID, id uuid.UUID, deleted bool) error {
	result := s.db.WithContext(ctx).
		Model(&models.Visit{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_deleted", deleted)
	if result.Error != nil {
		return Internal("failed to update visit", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFound("visit")
	}
	return nil
}

// buildActs validates act input into unsaved rows with normalized teeth.
func buildActs(in []ActInput) ([]models.VisitAct, error) {
	if len(in) == 0 {
		return nil, Validation("a visit needs at least one treatment act")
	}

	acts := make([]models.VisitAct, 0, len(in))
	for i, a := range in {
		price, err := models.NewAmount(a.Price)
		if err != nil {
			return nil, Validation("act %d: price must be between 1 and %d", i+1, models.MaxAmount)
		}
		if a.VisitTypeID == uuid.Nil {
			return nil, Validation("act %d: visit type is required", i+1)
		}
		teeth, err := models.NormalizeTeeth(a.Teeth)
		if err != nil {
			return nil, Validation("act %d: %s", i+1, err.Error())
		}

		act := models.VisitAct{VisitTypeID: a.VisitTypeID, Price: price}
		for _, t := range teeth {
			act.Teeth = append(act.Teeth, models.VisitActTooth{ToothID: t})
		}
		acts = append(acts, act)
	}
	if actsTotal(acts) > models.MaxAmount {
		return nil, Validation("visit total must not exceed %d", models.MaxAmount)
	}
	return acts, nil
}

func insertActs(tx *gorm.DB, visitID uuid.UUID, acts []models.VisitAct) error {
	for i := range acts {
		acts[i].VisitID = visitID
	}
	// Teeth are created through the has-many association.
	return tx.Omit("VisitType").Create(&acts).Error
}

func deleteActs(tx *gorm.DB, visitID uuid.UUID) error {
	actIDs := tx.Model(&models.VisitAct{}).Select("id").Where("visit_id = ?", visitID)
	if err := tx.Where("visit_act_id IN (?)", actIDs).Delete(&models.VisitActTooth{}).Error; err != nil {
		return err
	}
	return tx.Where("visit_id = ?", visitID).Delete(&models.VisitAct{}).Error
}

func visitTypeIDs(acts []models.VisitAct) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(acts))
	for _, a := range acts {
		ids = append(ids, a.VisitTypeID)
	}
	return ids
}

func actsTotal(acts []models.VisitAct) int64 {
	var total int64
	for _, a := range acts {
		total += a.Price.Int64()
	}
	return total
}
