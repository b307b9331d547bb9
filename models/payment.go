package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCheck    PaymentMethod = "check"
)

// ParsePaymentMethod defaults an empty method to cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case "":
		return PaymentCash, nil
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentCheck:
		return m, nil
	}
	return "", fmt.Errorf("invalid payment method %q", s)
}

// Payment is money received against one visit.
type Payment struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	VisitID uuid.UUID `gorm:"type:uuid;index;not null" json:"visitId"`

	Amount        Amount        `gorm:"not null" json:"amount"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null;default:'cash'" json:"paymentMethod"`
	Notes         *string       `json:"notes"`
	RecordedAt    time.Time     `gorm:"not null;index" json:"recordedAt"`

	Visit *Visit `gorm:"foreignKey:VisitID" json:"visit,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, err := NewAmount(int64(p.Amount)); err != nil {
		return err
	}
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now()
	}
	p.RecordedAt = p.RecordedAt.UTC()
	return
}
