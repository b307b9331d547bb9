package controllers

import (
	"net/http"
	"time"

	"dentalclinic-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentInput struct {
	VisitID       uuid.UUID `json:"visitId" binding:"required"`
	Amount        int64     `json:"amount" binding:"required,min=1,max=1000000000000"`
	PaymentMethod string    `json:"paymentMethod" binding:"omitempty,oneof=cash card transfer check"`
	Notes         *string   `json:"notes"`
	RecordedAt    *int64    `json:"recordedAt" binding:"omitempty,min=1"` // epoch ms, defaults to now
}

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// CreatePayment records a payment against a visit. Overpayment is rejected with 400.
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input PaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	req := services.CreatePaymentInput{
		VisitID:       input.VisitID,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
	}
	if input.RecordedAt != nil {
		at := time.UnixMilli(*input.RecordedAt)
		req.RecordedAt = &at
	}

	payment, err := pc.payments.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GetPayments returns the payment journal. Filters: patientName, dateFrom, dateTo (epoch ms on recordedAt)
func (pc *PaymentController) GetPayments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	dateFrom, ok := queryInt64(c, "dateFrom")
	if !ok {
		return
	}
	dateTo, ok := queryInt64(c, "dateTo")
	if !ok {
		return
	}

	filter := services.PaymentFilter{PatientName: c.Query("patientName")}
	if dateFrom != nil {
		from := time.UnixMilli(*dateFrom).UTC()
		filter.From = &from
	}
	if dateTo != nil {
		to := time.UnixMilli(*dateTo).UTC()
		filter.To = &to
	}

	payments, err := pc.payments.List(c.Request.Context(), userID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (pc *PaymentController) GetPayment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "payment")
	if !ok {
		return
	}

	payment, err := pc.payments.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
