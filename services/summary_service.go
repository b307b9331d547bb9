package services

import (
	"context"
	"time"

	"dentalclinic-backend/models"
	"dentalclinic-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailySummary rolls up one calendar day of activity.
//
// TotalCollected counts every payment made against the day's visits, whenever
// it was recorded. CollectedToday counts payments recorded during the day,
// whichever visit they settle.
type DailySummary struct {
	Date              string         `json:"date"`
	TotalVisits       int            `json:"totalVisits"`
	UniquePatients    int            `json:"uniquePatients"`
	NewPatientsToday  int64          `json:"newPatientsToday"`
	TotalExpected     int64          `json:"totalExpected"`
	TotalCollected    int64          `json:"totalCollected"`
	CollectedToday    int64          `json:"collectedToday"`
	TotalRemaining    int64          `json:"totalRemaining"`
	TotalUnpaidAmount int64          `json:"totalUnpaidAmount"`
	ProceduresByType  map[string]int `json:"proceduresByType"`
	Visits            []VisitDetail  `json:"visits"`
}

type SummaryService struct {
	db *gorm.DB
}

func NewSummaryService(db *gorm.DB) *SummaryService {
	return &SummaryService{db: db}
}

// Daily summarises the local calendar day containing day.
func (s *SummaryService) Daily(ctx context.Context, userID uuid.UUID, day time.Time) (*DailySummary, error) {
	db := s.db.WithContext(ctx)
	start, end := utils.DayWindow(day)

	var visits []models.Visit
	if err := withActs(db).
		Preload("Patient").
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Where("visit_time >= ? AND visit_time < ?", start.UnixMilli(), end.UnixMilli()).
		Order("visit_time DESC").
		Find(&visits).Error; err != nil {
		return nil, Internal("failed to load visits", err)
	}

	details, err := detailVisits(db, visits)
	if err != nil {
		return nil, Internal("failed to compute balances", err)
	}

	summary := &DailySummary{
		Date:             start.Format(utils.DayLayout),
		TotalVisits:      len(details),
		ProceduresByType: map[string]int{},
		Visits:           details,
	}

	patients := make(map[uuid.UUID]struct{}, len(details))
	for _, v := range details {
		patients[v.PatientID] = struct{}{}
		summary.TotalExpected += v.TotalAmount
		summary.TotalCollected += v.AmountPaid
		if v.AmountLeft > 0 {
			summary.TotalUnpaidAmount += v.AmountLeft
		}
		for _, a := range v.Acts {
			if a.VisitType != nil {
				summary.ProceduresByType[a.VisitType.Name]++
			}
		}
	}
	summary.UniquePatients = len(patients)
	summary.TotalRemaining = max(0, summary.TotalExpected-summary.TotalCollected)

	if err := db.Model(&models.Patient{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start.UTC(), end.UTC()).
		Count(&summary.NewPatientsToday).Error; err != nil {
		return nil, Internal("failed to count new patients", err)
	}

	if err := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", userID, start.UTC(), end.UTC()).
		Row().Scan(&summary.CollectedToday); err != nil {
		return nil, Internal("failed to sum today's payments", err)
	}

	return summary, nil
}
