// models/digest_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DigestLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null"`
	Day          string    `gorm:"type:varchar(10);index"` // YYYY-MM-DD
	Channel      string    `gorm:"type:varchar(20)"`       // sms, log
	Status       string    `gorm:"type:varchar(20)"`       // sent, failed, logged
	Message      string    `gorm:"type:text"`
	ErrorMessage string    `gorm:"type:text"`
	SentAt       time.Time
	CreatedAt    time.Time
}

func (d *DigestLog) BeforeCreate(tx *gorm.DB) (err error) {
	d.ID = uuid.New()
	return
}
