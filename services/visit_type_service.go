package services

import (
	"context"
	"strings"

	"dentalclinic-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VisitTypeUsage is a visit type with the number of acts referencing it.
type VisitTypeUsage struct {
	models.VisitType
	ActCount int64 `json:"actCount"`
}

type VisitTypeService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewVisitTypeService(db *gorm.DB, logger *zap.Logger) *VisitTypeService {
	return &VisitTypeService{db: db, logger: logger.Named("visit_types")}
}

// List returns the user's visit types, newest first, with usage counts.
func (s *VisitTypeService) List(ctx context.Context, userID uuid.UUID) ([]VisitTypeUsage, error) {
	db := s.db.WithContext(ctx)

	var types []models.VisitType
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&types).Error; err != nil {
		return nil, Internal("failed to load visit types", err)
	}

	var counts []struct {
		VisitTypeID uuid.UUID
		Total       int64
	}
	if err := db.Model(&models.VisitAct{}).
		Select("visit_type_id, COUNT(*) AS total").
		Where("visit_type_id IN (?)", db.Model(&models.VisitType{}).Select("id").Where("user_id = ?", userID)).
		Group("visit_type_id").
		Scan(&counts).Error; err != nil {
		return nil, Internal("failed to count visit type usage", err)
	}
	usage := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		usage[c.VisitTypeID] = c.Total
	}

	result := make([]VisitTypeUsage, 0, len(types))
	for _, t := range types {
		result = append(result, VisitTypeUsage{VisitType: t, ActCount: usage[t.ID]})
	}
	return result, nil
}

func (s *VisitTypeService) Get(ctx context.Context, userID, id uuid.UUID) (*models.VisitType, error) {
	var visitType models.VisitType
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&visitType).Error; err != nil {
		return nil, notFoundOr(err, "visit type")
	}
	return &visitType, nil
}

func (s *VisitTypeService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.VisitType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation("visit type name is required")
	}

	visitType := &models.VisitType{UserID: userID, Name: name}
	if err := s.db.WithContext(ctx).Create(visitType).Error; err != nil {
		return nil, Internal("failed to create visit type", err)
	}
	return visitType, nil
}

func (s *VisitTypeService) Update(ctx context.Context, userID, id uuid.UUID, name *string) (*models.VisitType, error) {
	visitType, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, Validation("visit type name is required")
		}
		visitType.Name = n
	}

	if err := s.db.WithContext(ctx).Save(visitType).Error; err != nil {
		return nil, Internal("failed to update visit type", err)
	}
	return visitType, nil
}

// Delete refuses to remove a visit type that treatment acts still reference.
func (s *VisitTypeService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visitType models.VisitType
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&visitType).Error; err != nil {
			return notFoundOr(err, "visit type")
		}

		var used int64
		if err := tx.Model(&models.VisitAct{}).Where("visit_type_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return Validation("visit type %q is used by %d treatment acts", visitType.Name, used)
		}
		return tx.Delete(&visitType).Error
	})
	if err != nil {
		return passThrough(err, "failed to delete visit type")
	}

	s.logger.Info("Visit type deleted", zap.String("visit_type_id", id.String()))
	return nil
}

// ownedVisitTypes checks every id belongs to userID.
func ownedVisitTypes(tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) error {
	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	distinct := make([]uuid.UUID, 0, len(unique))
	for id := range unique {
		distinct = append(distinct, id)
	}

	var found int64
	if err := tx.Model(&models.VisitType{}).
		Where("user_id = ? AND id IN ?", userID, distinct).
		Count(&found).Error; err != nil {
		return Internal("failed to check visit types", err)
	}
	if found != int64(len(distinct)) {
		return Validation("unknown visit type")
	}
	return nil
}
