package services

import (
	"time"

	"dentalclinic-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActDetail is a treatment act as returned to clients, teeth flattened to codes.
type ActDetail struct {
	ID          uuid.UUID         `json:"id"`
	VisitTypeID uuid.UUID         `json:"visitTypeId"`
	VisitType   *models.VisitType `json:"visitType,omitempty"`
	Price       int64             `json:"price"`
	Teeth       []string          `json:"teeth"`
}

// VisitDetail is a visit enriched with its acts and derived balance.
type VisitDetail struct {
	ID        uuid.UUID       `json:"id"`
	PatientID uuid.UUID       `json:"patientId"`
	Patient   *models.Patient `json:"patient,omitempty"`
	VisitTime int64           `json:"visitTime"`
	Notes     *string         `json:"notes"`
	IsDeleted bool            `json:"isDeleted"`
	Acts      []ActDetail     `json:"acts"`

	TotalAmount int64 `json:"totalAmount"`
	AmountPaid  int64 `json:"amountPaid"`
	AmountLeft  int64 `json:"amountLeft"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// withActs preloads acts in insertion order together with their type and teeth.
func withActs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Acts", func(db *gorm.DB) *gorm.DB {
			return db.Order("visit_acts.created_at ASC")
		}).
		Preload("Acts.VisitType").
		Preload("Acts.Teeth", func(db *gorm.DB) *gorm.DB {
			return db.Order("visit_act_teeth.created_at ASC")
		})
}

// detailVisits attaches balances to already-loaded visits, keeping their order.
func detailVisits(db *gorm.DB, visits []models.Visit) ([]VisitDetail, error) {
	ids := make([]uuid.UUID, 0, len(visits))
	for _, v := range visits {
		ids = append(ids, v.ID)
	}
	balances, err := balancesFor(db, ids)
	if err != nil {
		return nil, err
	}

	details := make([]VisitDetail, 0, len(visits))
	for _, v := range visits {
		details = append(details, newVisitDetail(v, balances[v.ID]))
	}
	return details, nil
}

func newVisitDetail(v models.Visit, b Balance) VisitDetail {
	acts := make([]ActDetail, 0, len(v.Acts))
	for i := range v.Acts {
		act := &v.Acts[i]
		acts = append(acts, ActDetail{
			ID:          act.ID,
			VisitTypeID: act.VisitTypeID,
			VisitType:   act.VisitType,
			Price:       act.Price.Int64(),
			Teeth:       act.ToothIDs(),
		})
	}
	return VisitDetail{
		ID:          v.ID,
		PatientID:   v.PatientID,
		Patient:     v.Patient,
		VisitTime:   v.VisitTime,
		Notes:       v.Notes,
		IsDeleted:   v.IsDeleted,
		Acts:        acts,
		TotalAmount: b.TotalAmount,
		AmountPaid:  b.AmountPaid,
		AmountLeft:  b.AmountLeft,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}
