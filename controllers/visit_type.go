package controllers

import (
	"net/http"

	"dentalclinic-backend/services"

	"github.com/gin-gonic/gin"
)

type VisitTypeInput struct {
	Name string `json:"name" binding:"required"`
}

type UpdateVisitTypeInput struct {
	Name *string `json:"name" binding:"omitempty,min=1"`
}

type VisitTypeController struct {
	visitTypes *services.VisitTypeService
}

func NewVisitTypeController(visitTypes *services.VisitTypeService) *VisitTypeController {
	return &VisitTypeController{visitTypes: visitTypes}
}

func (vc *VisitTypeController) CreateVisitType(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input VisitTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	visitType, err := vc.visitTypes.Create(c.Request.Context(), userID, input.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, visitType)
}

// GetVisitTypes lists the clinic's procedure categories with usage counts
func (vc *VisitTypeController) GetVisitTypes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	types, err := vc.visitTypes.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (vc *VisitTypeController) GetVisitType(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "visit type")
	if !ok {
		return
	}

	visitType, err := vc.visitTypes.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, visitType)
}

func (vc *VisitTypeController) UpdateVisitType(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "visit type")
	if !ok {
		return
	}

	var input UpdateVisitTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	visitType, err := vc.visitTypes.Update(c.Request.Context(), userID, id, input.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, visitType)
}

// DeleteVisitType fails while treatment acts still reference the type
func (vc *VisitTypeController) DeleteVisitType(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "visit type")
	if !ok {
		return
	}

	if err := vc.visitTypes.Delete(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "Visit type deleted successfully"})
}
