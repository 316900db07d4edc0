package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"github.com/kendall-kelly/edu-brokerage-api/middleware"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/services"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"go.uber.org/zap"
)

// CreateUserRequest carries profile fields the token may not have
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  string `json:"name" binding:"omitempty"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty"`
}

// CreateUser handles POST /api/users/me - registers the caller as a client.
// Name and email come from the token claims, then the request body, then the
// identity provider's userinfo endpoint.
func CreateUser(c *gin.Context) {
	externalID, err := middleware.GetUserID(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	var req CreateUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, err)
			return
		}
	}

	claims := middleware.GetCustomClaims(c)
	name := firstNonEmpty(claims.Name, req.Name)
	email := firstNonEmpty(claims.Email, req.Email)
	phone := req.Phone

	if name == "" || email == "" {
		identity := services.NewIdentityService(config.GetConfig())
		if identity.Enabled() {
			accessToken, err := middleware.GetAccessToken(c)
			if err != nil {
				respondErrorCode(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
				return
			}
			info, err := identity.GetUserInfo(c.Request.Context(), accessToken)
			if err != nil {
				logger.FromContext(c.Request.Context()).Warn("Failed to fetch userinfo", zap.String("external_id", externalID), zap.Error(err))
				respondErrorCode(c, http.StatusBadGateway, "IDENTITY_ERROR", "Failed to fetch user information from the identity provider")
				return
			}
			name = firstNonEmpty(name, info.Name)
			email = firstNonEmpty(email, info.Email)
			phone = firstNonEmpty(phone, info.Phone)
		}
	}

	if email == "" {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by the token or request")
		return
	}
	if name == "" {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by the token or request")
		return
	}

	// Registration always creates a client; staff accounts are provisioned by admins
	user := models.User{
		ExternalID: externalID,
		Name:       name,
		Email:      strings.ToLower(email),
		Phone:      phone,
		Role:       workflow.RoleUser,
		Active:     true,
	}

	if err := config.GetDB().WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if services.IsUniqueViolation(err) {
			respondErrorCode(c, http.StatusConflict, "USER_EXISTS", "A user with this external id or email already exists")
			return
		}
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	respondOK(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/users/me - updates current user's profile
func UpdateMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = strings.ToLower(req.Email)
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}

	// If no fields to update, return current user
	if len(updates) == 0 {
		respondOK(c, http.StatusOK, user)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	if err := db.Model(user).Updates(updates).Error; err != nil {
		if services.IsUniqueViolation(err) {
			respondErrorCode(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
			return
		}
		respondError(c, err)
		return
	}

	var updated models.User
	if err := db.First(&updated, user.ID).Error; err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, updated)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
