package services

import (
	"context"
	"sort"
	"strings"

	"dentalclinic-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const patientSearchLimit = 20

type CreatePatientInput struct {
	Name    string
	Sex     string
	Age     int
	Phone   *string
	Address *string
}

// UpdatePatientInput changes only the non-nil fields.
type UpdatePatientInput struct {
	Name    *string
	Sex     *string
	Age     *int
	Phone   *string
	Address *string
}

// PatientFilter narrows the patient overview. Zero values disable a filter.
// DateFrom and DateTo bound the most recent visit, in epoch milliseconds.
type PatientFilter struct {
	Name                 string
	Sex                  string
	DateFrom             *int64
	DateTo               *int64
	VisitTypeID          *uuid.UUID
	HasUnpaid            bool
	IncludeWithoutVisits bool
}

// PatientOverview is one patient with visit history and outstanding total.
type PatientOverview struct {
	models.Patient
	LastVisit   *VisitDetail  `json:"lastVisit"`
	Visits      []VisitDetail `json:"visits"`
	TotalUnpaid int64         `json:"totalUnpaid"`
}

func newPatientOverview(p models.Patient, visits []VisitDetail) PatientOverview {
	o := PatientOverview{Patient: p, Visits: visits}
	if o.Visits == nil {
		o.Visits = []VisitDetail{}
	}
	if len(visits) > 0 {
		o.LastVisit = &o.Visits[0]
	}
	for _, v := range visits {
		o.TotalUnpaid += v.AmountLeft
	}
	return o
}

func (o *PatientOverview) hasVisitType(id uuid.UUID) bool {
	for _, v := range o.Visits {
		for _, a := range v.Acts {
			if a.VisitTypeID == id {
				return true
			}
		}
	}
	return false
}

type PatientService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPatientService(db *gorm.DB, logger *zap.Logger) *PatientService {
	return &PatientService{db: db, logger: logger.Named("patients")}
}

// ListWithFilters returns patients with their non-deleted visits and balances,
// filtered in memory and sorted by most recent visit.
func (s *PatientService) ListWithFilters(ctx context.Context, userID uuid.UUID, f PatientFilter) ([]PatientOverview, error) {
	db := s.db.WithContext(ctx)

	var patients []models.Patient
	if err := db.Where("user_id = ?", userID).Find(&patients).Error; err != nil {
		return nil, Internal("failed to load patients", err)
	}

	var visits []models.Visit
	if err := withActs(db).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("visit_time DESC").
		Find(&visits).Error; err != nil {
		return nil, Internal("failed to load visits", err)
	}

	details, err := detailVisits(db, visits)
	if err != nil {
		return nil, Internal("failed to compute balances", err)
	}
	byPatient := make(map[uuid.UUID][]VisitDetail, len(patients))
	for _, d := range details {
		byPatient[d.PatientID] = append(byPatient[d.PatientID], d)
	}

	var sex models.Sex
	if f.Sex != "" {
		if sex, err = models.ParseSex(f.Sex); err != nil {
			return nil, Validation("%s", err.Error())
		}
	}
	name := strings.ToLower(strings.TrimSpace(f.Name))

	result := make([]PatientOverview, 0, len(patients))
	for _, p := range patients {
		row := newPatientOverview(p, byPatient[p.ID])
		if row.LastVisit == nil && !f.IncludeWithoutVisits {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(row.Name), name) {
			continue
		}
		if sex != "" && row.Sex != sex {
			continue
		}
		if f.DateFrom != nil && (row.LastVisit == nil || row.LastVisit.VisitTime < *f.DateFrom) {
			continue
		}
		if f.DateTo != nil && (row.LastVisit == nil || row.LastVisit.VisitTime > *f.DateTo) {
			continue
		}
		if f.VisitTypeID != nil && !row.hasVisitType(*f.VisitTypeID) {
			continue
		}
		if f.HasUnpaid && row.TotalUnpaid <= 0 {
			continue
		}
		result = append(result, row)
	}

	sortByLastVisit(result)
	return result, nil
}

// sortByLastVisit orders newest visit first; patients without visits go last.
func sortByLastVisit(rows []PatientOverview) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].LastVisit, rows[j].LastVisit
		switch {
		case a == nil && b == nil:
			return rows[i].Name < rows[j].Name
		case a == nil:
			return false
		case b == nil:
			return true
		case a.VisitTime != b.VisitTime:
			return a.VisitTime > b.VisitTime
		default:
			return rows[i].Name < rows[j].Name
		}
	})
}

func (s *PatientService) Create(ctx context.Context, userID uuid.UUID, in CreatePatientInput) (*models.Patient, error) {
	patient, err := newPatient(userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(patient).Error; err != nil {
		return nil, Internal("failed to create patient", err)
	}
	s.logger.Info("Patient created", zap.String("patient_id", patient.ID.String()))
	return patient, nil
}

// newPatient validates input into an unsaved patient. Visit creation reuses it.
func newPatient(userID uuid.UUID, in CreatePatientInput) (*models.Patient, error) {
	sex, err := models.ParseSex(in.Sex)
	if err != nil {
		return nil, Validation("%s", err.Error())
	}
	patient := &models.Patient{
		UserID:  userID,
		Name:    strings.TrimSpace(in.Name),
		Sex:     sex,
		Age:     in.Age,
		Phone:   trimmed(in.Phone),
		Address: trimmed(in.Address),
	}
	if err := patient.Validate(); err != nil {
		return nil, Validation("%s", err.Error())
	}
	return patient, nil
}

func (s *PatientService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Patient, error) {
	var patient models.Patient
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&patient).Error; err != nil {
		return nil, notFoundOr(err, "patient")
	}
	return &patient, nil
}

// GetWithVisits returns the patient's non-deleted visit history, newest first.
func (s *PatientService) GetWithVisits(ctx context.Context, userID, id uuid.UUID) (*PatientOverview, error) {
	patient, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var visits []models.Visit
	if err := withActs(db).
		Where("patient_id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		Order("visit_time DESC").
		Find(&visits).Error; err != nil {
		return nil, Internal("failed to load visits", err)
	}

	details, err := detailVisits(db, visits)
	if err != nil {
		return nil, Internal("failed to compute balances", err)
	}
	overview := newPatientOverview(*patient, details)
	return &overview, nil
}

// List returns all patients, most recently created first.
func (s *PatientService) List(ctx context.Context, userID uuid.UUID) ([]models.Patient, error) {
	patients := []models.Patient{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&patients).Error; err != nil {
		return nil, Internal("failed to load patients", err)
	}
	return patients, nil
}

func (s *PatientService) Search(ctx context.Context, userID uuid.UUID, query string) ([]models.Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, Validation("search query is required")
	}

	patients := []models.Patient{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(name) LIKE ?", userID, "%"+strings.ToLower(query)+"%").
		Order("name ASC").
		Limit(patientSearchLimit).
		Find(&patients).Error; err != nil {
		return nil, Internal("failed to search patients", err)
	}
	return patients, nil
}

func (s *PatientService) Update(ctx context.Context, userID, id uuid.UUID, in UpdatePatientInput) (*models.Patient, error) {
	patient, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		patient.Name = strings.TrimSpace(*in.Name)
	}
	if in.Sex != nil {
		sex, err := models.ParseSex(*in.Sex)
		if err != nil {
			return nil, Validation("%s", err.Error())
		}
		patient.Sex = sex
	}
	if in.Age != nil {
		patient.Age = *in.Age
	}
	if in.Phone != nil {
		patient.Phone = trimmed(in.Phone)
	}
	if in.Address != nil {
		patient.Address = trimmed(in.Address)
	}
	if err := patient.Validate(); err != nil {
		return nil, Validation("%s", err.Error())
	}

	if err := s.db.WithContext(ctx).Save(patient).Error; err != nil {
		return nil, Internal("failed to update patient", err)
	}
	return patient, nil
}

// Delete removes the patient together with every visit, act, tooth and payment.
func (s *PatientService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var patient models.Patient
		if err := tx.Select("id").Where("id = ? AND user_id = ?", id, userID).First(&patient).Error; err != nil {
			return notFoundOr(err, "patient")
		}

		visitIDs := tx.Model(&models.Visit{}).Select("id").Where("patient_id = ?", id)
		actIDs := tx.Model(&models.VisitAct{}).Select("id").Where("visit_id IN (?)", visitIDs)

		if err := tx.Where("visit_act_id IN (?)", actIDs).Delete(&models.VisitActTooth{}).Error; err != nil {
			return err
		}
		if err := tx.Where("visit_id IN (?)", visitIDs).Delete(&models.VisitAct{}).Error; err != nil {
			return err
		}
		if err := tx.Where("visit_id IN (?)", visitIDs).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("patient_id = ?", id).Delete(&models.Visit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&patient).Error
	})
	if err != nil {
		return passThrough(err, "failed to delete patient")
	}

	s.logger.Info("Patient deleted", zap.String("patient_id", id.String()))
	return nil
}

// trimmed turns blank optional strings into nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
