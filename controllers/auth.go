package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"dentalclinic-backend/config"
	"dentalclinic-backend/models"
	"dentalclinic-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Name       string `json:"name" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
	ClinicName string `json:"clinicName"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

type AuthController struct {
	db     *gorm.DB
	jwt    config.JWTConfig
	secure bool
	logger *zap.Logger
}

func NewAuthController(db *gorm.DB, jwt config.JWTConfig, cookie config.CookieConfig, logger *zap.Logger) *AuthController {
	return &AuthController{db: db, jwt: jwt, secure: cookie.Secure, logger: logger.Named("auth")}
}

func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	phone := utils.CleanPhone(strings.TrimSpace(input.Phone))
	if phone != "" && !utils.ValidatePhone(phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number")
		return
	}

	query := ac.db.WithContext(c.Request.Context()).Where("email = ?", email)
	if phone != "" {
		query = query.Or("phone = ?", phone)
	}
	var existing models.User
	err := query.First(&existing).Error
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		_ = c.Error(err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	user := models.User{
		Email:      email,
		Phone:      phone,
		Name:       strings.TrimSpace(input.Name),
		Password:   input.Password, // hashed in BeforeCreate
		ClinicName: strings.TrimSpace(input.ClinicName),
	}
	if err := ac.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		_ = c.Error(err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}
	ac.logger.Info("User registered", zap.String("user_id", user.ID.String()))

	token, ok := ac.issueSession(c, &user)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    user,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	identifier := strings.TrimSpace(input.Identifier)
	query := ac.db.WithContext(c.Request.Context()).Where("email = ?", strings.ToLower(identifier))
	// accounts without a phone store "", which must never match
	if phone := utils.CleanPhone(identifier); phone != "" {
		query = query.Or("phone = ?", phone)
	}
	var user models.User
	err := query.First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			_ = c.Error(err)
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := time.Now()
	if err := ac.db.WithContext(c.Request.Context()).Model(&user).Update("last_login", &now).Error; err != nil {
		ac.logger.Warn("Failed to record last login", zap.Error(err))
	}

	token, ok := ac.issueSession(c, &user)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (ac *AuthController) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.TokenCookie, "", -1, "/", "", ac.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (ac *AuthController) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var user models.User
	if err := ac.db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// issueSession signs a token and sets it as an HttpOnly cookie.
func (ac *AuthController) issueSession(c *gin.Context, user *models.User) (string, bool) {
	token, err := utils.GenerateToken(user.ID.String(), ac.jwt.Secret, ac.jwt.TTL())
	if err != nil {
		_ = c.Error(err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return "", false
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.TokenCookie, token, int(ac.jwt.TTL().Seconds()), "/", "", ac.secure, true)
	return token, true
}
