package controllers

import (
	"net/http"
	"time"

	"dentalclinic-backend/services"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{reports: reports}
}

func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	report, err := rc.reports.Revenue(c.Request.Context(), userID, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
