package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"dentalclinic-backend/services"
	"dentalclinic-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser reads the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.GetString(utils.UserIDKey))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps a service error kind onto an HTTP status.
func respondServiceError(c *gin.Context, err error) {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		appErr = services.Internal("unexpected error", err)
	}

	var status int
	switch appErr.Kind {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		_ = c.Error(err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithError(c, status, appErr.Message)
}

func respondBindError(c *gin.Context, err error) {
	utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
}

// queryUUID parses an optional uuid query parameter.
func queryUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+key)
		return nil, false
	}
	return &id, true
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(c *gin.Context, key string) (*int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+key)
		return nil, false
	}
	return &v, true
}
