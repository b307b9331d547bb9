package controllers

import (
	"net/http"

	"dentalclinic-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ActInput struct {
	VisitTypeID uuid.UUID `json:"visitTypeId" binding:"required"`
	Price       int64     `json:"price" binding:"required,min=1,max=1000000000000"`
	Teeth       []string  `json:"teeth" binding:"required,min=1,dive,fdi"`
}

type InitialPaymentInput struct {
	Amount        int64   `json:"amount" binding:"required,min=1,max=1000000000000"`
	PaymentMethod string  `json:"paymentMethod" binding:"omitempty,oneof=cash card transfer check"`
	Notes         *string `json:"notes"`
}

// CreateVisitInput takes either an existing patientId or an inline newPatient.
type CreateVisitInput struct {
	PatientID      *uuid.UUID           `json:"patientId"`
	NewPatient     *PatientInput        `json:"newPatient"`
	VisitTime      int64                `json:"visitTime" binding:"required,min=1"`
	Notes          *string              `json:"notes"`
	Acts           []ActInput           `json:"acts" binding:"required,min=1,dive"`
	InitialPayment *InitialPaymentInput `json:"initialPayment"`
}

// UpdateVisitInput replaces the act set only when acts is present.
type UpdateVisitInput struct {
	VisitTime *int64      `json:"visitTime" binding:"omitempty,min=1"`
	Notes     *string     `json:"notes"`
	Acts      *[]ActInput `json:"acts" binding:"omitempty,min=1,dive"`
}

func toActs(in []ActInput) []services.ActInput {
	acts := make([]services.ActInput, 0, len(in))
	for _, a := range in {
		acts = append(acts, services.ActInput{VisitTypeID: a.VisitTypeID, Price: a.Price, Teeth: a.Teeth})
	}
	return acts
}

type VisitController struct {
	visits   *services.VisitService
	payments *services.PaymentService
}

func NewVisitController(visits *services.VisitService, payments *services.PaymentService) *VisitController {
	return &VisitController{visits: visits, payments: payments}
}

// CreateVisit records a visit with its treatment acts in one transaction
func (vc *VisitController) CreateVisit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input CreateVisitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	req := services.CreateVisitInput{
		PatientID: input.PatientID,
		VisitTime: input.VisitTime,
		Notes:     input.Notes,
		Acts:      toActs(input.Acts),
	}
	if input.NewPatient != nil {
		p := input.NewPatient.toService()
		req.NewPatient = &p
	}
	if ip := input.InitialPayment; ip != nil {
		req.InitialPayment = &services.InitialPaymentInput{
			Amount:        ip.Amount,
			PaymentMethod: ip.PaymentMethod,
			Notes:         ip.Notes,
		}
	}

	visit, err := vc.visits.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, visit)
}

// GetVisits lists visits. Filters: dateFrom, dateTo (epoch ms), patientName, visitTypeId, deleted
func (vc *VisitController) GetVisits(c *gin.Context) {
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
	visitTypeID, ok := queryUUID(c, "visitTypeId")
	if !ok {
		return
	}

	visits, err := vc.visits.List(c.Request.Context(), userID, services.VisitFilter{
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		PatientName: c.Query("patientName"),
		VisitTypeID: visitTypeID,
		Deleted:     c.Query("deleted") == "true",
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, visits)
}

func (vc *VisitController) GetVisit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "visit")
	if !ok {
		return
	}

	visit, err := vc.visits.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

func (vc *VisitController) UpdateVisit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "visit")
	if !ok {
		return
	}

	var input UpdateVisitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	req := services.UpdateVisitInput{VisitTime: input.VisitTime, Notes: input.Notes}
	if input.Acts != nil {
		acts := toActs(*input.Acts)
		req.Acts = &acts
	}

	visit, err := vc.visits.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, visit)
}

// DeleteVisit moves the visit to the trash; it can be restored
func (vc *VisitController) DeleteVisit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "visit")
	if !ok {
		return
	}

	if err := vc.visits.SoftDelete(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (vc *VisitController) RestoreVisit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "visit")
	if !ok {
		return
	}

	if err := vc.visits.Restore(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (vc *VisitController) GetVisitPayments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "visit")
	if !ok {
		return
	}

	payments, err := vc.payments.ListByVisit(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// GetVisitBalance returns totalAmount, totalPaid and remainingBalance
func (vc *VisitController) GetVisitBalance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "visit")
	if !ok {
		return
	}

	summary, err := vc.payments.VisitSummary(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
