package services

import (
	"context"
	"time"

	"dentalclinic-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const reportTopLimit = 4

// RevenueReport compares collections across month, quarter and year and ranks
// the month's procedures and patients.
type RevenueReport struct {
	CurrentMonthRevenue   int64              `json:"currentMonthRevenue"`
	MonthGrowth           float64            `json:"monthGrowth"`
	CurrentQuarterRevenue int64              `json:"currentQuarterRevenue"`
	QuarterGrowth         float64            `json:"quarterGrowth"`
	CurrentYearRevenue    int64              `json:"currentYearRevenue"`
	YearGrowth            float64            `json:"yearGrowth"`
	TopVisitTypes         []VisitTypeRevenue `json:"topVisitTypes"`
	TopPatients           []PatientRevenue   `json:"topPatients"`
	QuickStats            QuickStatistics    `json:"quickStats"`
}

type VisitTypeRevenue struct {
	Name    string `json:"name"`
	Count   int64  `json:"count"`
	Revenue int64  `json:"revenue"`
}

type PatientRevenue struct {
	Name   string `json:"name"`
	Visits int64  `json:"visits"`
	Paid   int64  `json:"paid"`
}

type QuickStatistics struct {
	TotalPatients    int64   `json:"totalPatients"`
	TotalVisits      int64   `json:"totalVisits"`
	AvgActPrice      float64 `json:"avgActPrice"`
	OutstandingTotal int64   `json:"outstandingTotal"`
}

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Revenue builds the report for the periods containing now.
func (s *ReportService) Revenue(ctx context.Context, userID uuid.UUID, now time.Time) (*RevenueReport, error) {
	db := s.db.WithContext(ctx)

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	quarterStart := quarterStart(now)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	report := &RevenueReport{}
	var prev int64
	var err error

	if report.CurrentMonthRevenue, err = revenue(db, userID, monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return nil, Internal("failed to compute monthly revenue", err)
	}
	if prev, err = revenue(db, userID, monthStart.AddDate(0, -1, 0), monthStart); err != nil {
		return nil, Internal("failed to compute monthly revenue", err)
	}
	report.MonthGrowth = growthPercentage(report.CurrentMonthRevenue, prev)

	if report.CurrentQuarterRevenue, err = revenue(db, userID, quarterStart, quarterStart.AddDate(0, 3, 0)); err != nil {
		return nil, Internal("failed to compute quarterly revenue", err)
	}
	if prev, err = revenue(db, userID, quarterStart.AddDate(0, -3, 0), quarterStart); err != nil {
		return nil, Internal("failed to compute quarterly revenue", err)
	}
	report.QuarterGrowth = growthPercentage(report.CurrentQuarterRevenue, prev)

	if report.CurrentYearRevenue, err = revenue(db, userID, yearStart, yearStart.AddDate(1, 0, 0)); err != nil {
		return nil, Internal("failed to compute yearly revenue", err)
	}
	if prev, err = revenue(db, userID, yearStart.AddDate(-1, 0, 0), yearStart); err != nil {
		return nil, Internal("failed to compute yearly revenue", err)
	}
	report.YearGrowth = growthPercentage(report.CurrentYearRevenue, prev)

	monthEnd := monthStart.AddDate(0, 1, 0)
	if report.TopVisitTypes, err = topVisitTypes(db, userID, monthStart, monthEnd); err != nil {
		return nil, Internal("failed to rank visit types", err)
	}
	if report.TopPatients, err = topPatients(db, userID, monthStart, monthEnd); err != nil {
		return nil, Internal("failed to rank patients", err)
	}
	if report.QuickStats, err = quickStatistics(db, userID); err != nil {
		return nil, Internal("failed to compute statistics", err)
	}
	return report, nil
}

func quarterStart(date time.Time) time.Time {
	quarter := (int(date.Month()) - 1) / 3
	return time.Date(date.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, date.Location())
}

func growthPercentage(current, previous int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return float64(current-previous) / float64(previous) * 100
}

// revenue sums payments recorded in [start, end).
func revenue(db *gorm.DB, userID uuid.UUID, start, end time.Time) (int64, error) {
	var total int64
	err := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", userID, start.UTC(), end.UTC()).
		Row().Scan(&total)
	return total, err
}

// topVisitTypes ranks procedures billed on active visits in [start, end).
func topVisitTypes(db *gorm.DB, userID uuid.UUID, start, end time.Time) ([]VisitTypeRevenue, error) {
	rows := []VisitTypeRevenue{}
	err := db.Table("visit_acts").
		Select("visit_types.name AS name, COUNT(visit_acts.id) AS count, SUM(visit_acts.price) AS revenue").
		Joins("JOIN visits ON visits.id = visit_acts.visit_id").
		Joins("JOIN visit_types ON visit_types.id = visit_acts.visit_type_id").
		Where("visits.user_id = ? AND visits.is_deleted = ? AND visits.visit_time >= ? AND visits.visit_time < ?",
			userID, false, start.UnixMilli(), end.UnixMilli()).
		Group("visit_types.name").
		Order("revenue DESC").
		Limit(reportTopLimit).
		Scan(&rows).Error
	return rows, err
}

// topPatients ranks patients by payments recorded in [start, end).
func topPatients(db *gorm.DB, userID uuid.UUID, start, end time.Time) ([]PatientRevenue, error) {
	rows := []PatientRevenue{}
	err := db.Table("payments").
		Select("patients.name AS name, COUNT(DISTINCT visits.id) AS visits, SUM(payments.amount) AS paid").
		Joins("JOIN visits ON visits.id = payments.visit_id").
		Joins("JOIN patients ON patients.id = visits.patient_id").
		Where("payments.user_id = ? AND payments.recorded_at >= ? AND payments.recorded_at < ?",
			userID, start.UTC(), end.UTC()).
		Group("patients.id, patients.name").
		Order("paid DESC").
		Limit(reportTopLimit).
		Scan(&rows).Error
	return rows, err
}

func quickStatistics(db *gorm.DB, userID uuid.UUID) (QuickStatistics, error) {
	var stats QuickStatistics

	if err := db.Model(&models.Patient{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalPatients).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Visit{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Count(&stats.TotalVisits).Error; err != nil {
		return stats, err
	}

	activeVisits := db.Model(&models.Visit{}).Select("id").Where("user_id = ? AND is_deleted = ?", userID, false)
	if err := db.Model(&models.VisitAct{}).
		Select("COALESCE(AVG(price), 0)").
		Where("visit_id IN (?)", activeVisits).
		Row().Scan(&stats.AvgActPrice); err != nil {
		return stats, err
	}

	var billed, paid int64
	if err := db.Model(&models.VisitAct{}).
		Select("COALESCE(SUM(price), 0)").
		Where("visit_id IN (?)", activeVisits).
		Row().Scan(&billed); err != nil {
		return stats, err
	}
	if err := db.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("visit_id IN (?)", activeVisits).
		Row().Scan(&paid); err != nil {
		return stats, err
	}
	stats.OutstandingTotal = billed - paid
	return stats, nil
}
