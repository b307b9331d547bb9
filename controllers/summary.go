package controllers

import (
	"net/http"
	"time"

	"dentalclinic-backend/services"
	"dentalclinic-backend/utils"

	"github.com/gin-gonic/gin"
)

type SummaryController struct {
	summaries *services.SummaryService
	loc       *time.Location
}

func NewSummaryController(summaries *services.SummaryService) *SummaryController {
	return &SummaryController{summaries: summaries, loc: time.Local}
}

// GetDailySummary reports one day of visits and collections. ?date=YYYY-MM-DD, today when omitted
func (sc *SummaryController) GetDailySummary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	day, err := utils.ParseDay(c.Query("date"), sc.loc)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := sc.summaries.Daily(c.Request.Context(), userID, day)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
