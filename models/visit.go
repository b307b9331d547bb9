package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visit is one clinical encounter. VisitTime is epoch milliseconds.
type Visit struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	PatientID uuid.UUID `gorm:"type:uuid;index;not null" json:"patientId"`

	VisitTime int64   `gorm:"not null;index" json:"visitTime"`
	Notes     *string `json:"notes"`
	IsDeleted bool    `gorm:"not null;default:false;index" json:"isDeleted"`

	Patient  *Patient   `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Acts     []VisitAct `gorm:"foreignKey:VisitID" json:"acts,omitempty"`
	Payments []Payment  `gorm:"foreignKey:VisitID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (v *Visit) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return
}

// VisitAct is one billable procedure performed within a visit.
type VisitAct struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VisitID     uuid.UUID `gorm:"type:uuid;index;not null" json:"visitId"`
	VisitTypeID uuid.UUID `gorm:"type:uuid;index;not null" json:"visitTypeId"`
	Price       Amount    `gorm:"not null" json:"price"`

	VisitType *VisitType      `gorm:"foreignKey:VisitTypeID" json:"visitType,omitempty"`
	Teeth     []VisitActTooth `gorm:"foreignKey:VisitActID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *VisitAct) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, err := NewAmount(int64(a.Price)); err != nil {
		return err
	}
	return
}

// ToothIDs returns the act's tooth codes in stored order.
func (a *VisitAct) ToothIDs() []string {
	teeth := make([]string, 0, len(a.Teeth))
	for _, t := range a.Teeth {
		teeth = append(teeth, t.ToothID)
	}
	return teeth
}

// VisitActTooth associates a treated tooth with an act.
type VisitActTooth struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VisitActID uuid.UUID `gorm:"type:uuid;index;not null" json:"visitActId"`
	ToothID    string    `gorm:"type:varchar(2);index;not null" json:"toothId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (VisitActTooth) TableName() string {
	return "visit_act_teeth"
}

func (t *VisitActTooth) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
