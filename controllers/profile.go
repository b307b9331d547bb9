package controllers

import (
	"net/http"
	"strings"

	"dentalclinic-backend/models"
	"dentalclinic-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UpdateProfileInput struct {
	Name          *string `json:"name" binding:"omitempty,min=1"`
	ClinicName    *string `json:"clinicName"`
	Phone         *string `json:"phone"`
	DigestEnabled *bool   `json:"digestEnabled"`
}

type ProfileController struct {
	db *gorm.DB
}

func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := pc.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile changes clinic details. The digest needs a phone number to be enabled.
func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	var user models.User
	if err := pc.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.ClinicName != nil {
		user.ClinicName = strings.TrimSpace(*input.ClinicName)
	}
	if input.Phone != nil {
		phone := utils.CleanPhone(strings.TrimSpace(*input.Phone))
		if phone != "" && !utils.ValidatePhone(phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number")
			return
		}
		if phone != "" && phone != user.Phone {
			var taken int64
			if err := pc.db.WithContext(c.Request.Context()).Model(&models.User{}).
				Where("phone = ? AND id <> ?", phone, user.ID).
				Count(&taken).Error; err != nil {
				_ = c.Error(err)
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				return
			}
			if taken > 0 {
				utils.RespondWithError(c, http.StatusConflict, "Phone already registered")
				return
			}
		}
		user.Phone = phone
	}
	if input.DigestEnabled != nil {
		user.DigestEnabled = *input.DigestEnabled
	}
	if user.DigestEnabled && user.Phone == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "A phone number is required to receive the daily digest")
		return
	}

	if err := pc.db.WithContext(c.Request.Context()).Model(&user).Updates(map[string]interface{}{
		"name":           user.Name,
		"clinic_name":    user.ClinicName,
		"phone":          user.Phone,
		"digest_enabled": user.DigestEnabled,
	}).Error; err != nil {
		_ = c.Error(err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}
