package controllers

import (
	"net/http"

	"dentalclinic-backend/services"

	"github.com/gin-gonic/gin"
)

type PatientInput struct {
	Name    string  `json:"name" binding:"required"`
	Sex     string  `json:"sex" binding:"required,sex"`
	Age     *int    `json:"age" binding:"required,min=0,max=150"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (in PatientInput) toService() services.CreatePatientInput {
	return services.CreatePatientInput{
		Name:    in.Name,
		Sex:     in.Sex,
		Age:     *in.Age,
		Phone:   in.Phone,
		Address: in.Address,
	}
}

type UpdatePatientInput struct {
	Name    *string `json:"name" binding:"omitempty,min=1"`
	Sex     *string `json:"sex" binding:"omitempty,sex"`
	Age     *int    `json:"age" binding:"omitempty,min=0,max=150"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// PatientOverviewQuery is the filter set of GET /api/patients/overview.
type PatientOverviewQuery struct {
	Name                 string `form:"name"`
	Sex                  string `form:"sex" binding:"omitempty,sex"`
	HasUnpaid            bool   `form:"hasUnpaid"`
	IncludeWithoutVisits bool   `form:"includeWithoutVisits"`
}

type PatientController struct {
	patients *services.PatientService
	payments *services.PaymentService
}

func NewPatientController(patients *services.PatientService, payments *services.PaymentService) *PatientController {
	return &PatientController{patients: patients, payments: payments}
}

// CreatePatient creates a new patient for the clinic
func (pc *PatientController) CreatePatient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input PatientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	patient, err := pc.patients.Create(c.Request.Context(), userID, input.toService())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, patient)
}

// GetPatients lists every patient, newest first
func (pc *PatientController) GetPatients(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	patients, err := pc.patients.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, patients)
}

func (pc *PatientController) SearchPatients(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	patients, err := pc.patients.Search(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, patients)
}

// GetPatientOverview lists patients with visit history, balances and filters applied
func (pc *PatientController) GetPatientOverview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var query PatientOverviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
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

	rows, err := pc.patients.ListWithFilters(c.Request.Context(), userID, services.PatientFilter{
		Name:                 query.Name,
		Sex:                  query.Sex,
		DateFrom:             dateFrom,
		DateTo:               dateTo,
		VisitTypeID:          visitTypeID,
		HasUnpaid:            query.HasUnpaid,
		IncludeWithoutVisits: query.IncludeWithoutVisits,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (pc *PatientController) GetPatient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "patient")
	if !ok {
		return
	}

	patient, err := pc.patients.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// GetPatientVisits returns the patient with active visit history and total unpaid
func (pc *PatientController) GetPatientVisits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "patient")
	if !ok {
		return
	}

	history, err := pc.patients.GetWithVisits(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (pc *PatientController) GetPatientPayments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "patient")
	if !ok {
		return
	}

	payments, err := pc.payments.ListByPatient(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (pc *PatientController) UpdatePatient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "patient")
	if !ok {
		return
	}

	var input UpdatePatientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	patient, err := pc.patients.Update(c.Request.Context(), userID, id, services.UpdatePatientInput{
		Name:    input.Name,
		Sex:     input.Sex,
		Age:     input.Age,
		Phone:   input.Phone,
		Address: input.Address,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// DeletePatient permanently removes the patient with all visits and payments
func (pc *PatientController) DeletePatient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "patient")
	if !ok {
		return
	}

	if err := pc.patients.Delete(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "Patient deleted successfully"})
}
