package models

import (
	"time"

	"dentalclinic-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the clinic account. Its ID scopes every patient, visit and payment.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Name     string    `gorm:"not null" json:"name"`
	Phone    string    `gorm:"uniqueIndex:idx_users_phone,where:phone <> ''" json:"phone"`

	ClinicName    string `json:"clinicName"`
	DigestEnabled bool   `gorm:"default:false" json:"digestEnabled"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Initialize UUID and hash the password before creating
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return
}
