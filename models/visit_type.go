package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VisitType is a named procedure category such as "Cleaning" or "Extraction".
type VisitType struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Name   string    `gorm:"not null;index" json:"name"`

	Acts []VisitAct `gorm:"foreignKey:VisitTypeID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (v *VisitType) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return
}
