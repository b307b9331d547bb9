package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sex is the patient's recorded sex, either "M" or "F".
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// ParseSex accepts "M" or "F" (case-insensitive).
func ParseSex(s string) (Sex, error) {
	switch Sex(strings.ToUpper(strings.TrimSpace(s))) {
	case SexMale:
		return SexMale, nil
	case SexFemale:
		return SexFemale, nil
	}
	return "", fmt.Errorf("invalid sex %q: must be M or F", s)
}

const MaxPatientAge = 150

type Patient struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`

	Name    string  `gorm:"not null;index" json:"name"`
	Sex     Sex     `gorm:"type:varchar(1);not null" json:"sex"`
	Age     int     `gorm:"not null" json:"age"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`

	Visits []Visit `gorm:"foreignKey:PatientID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Patient) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return p.Validate()
}

// Validate checks the invariants every stored patient must satisfy.
func (p *Patient) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("patient name is required")
	}
	if _, err := ParseSex(string(p.Sex)); err != nil {
		return err
	}
	if p.Age < 0 || p.Age > MaxPatientAge {
		return fmt.Errorf("patient age must be between 0 and %d", MaxPatientAge)
	}
	return nil
}
