package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LoadUser resolves the token subject to a users row. The stored role is
// authoritative; a differing role claim on the token is ignored.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID, err := GetUserID(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User ID not found in token")
			return
		}

		var user models.User
		if err := config.GetDB().WithContext(c.Request.Context()).
			Where("external_id = ?", externalID).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create your profile first.")
				return
			}
			logger.FromContext(c.Request.Context()).Error("Failed to load user", zap.String("external_id", externalID), zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user")
			return
		}

		if !user.Active {
			abortWithError(c, http.StatusForbidden, "ACCOUNT_INACTIVE", "This account has been deactivated")
			return
		}

		if claimed := GetCustomClaims(c).Role; claimed != "" && claimed != string(user.Role) {
			logger.FromContext(c.Request.Context()).Debug("Token role differs from stored role",
				zap.Uint("user_id", user.ID), zap.String("token_role", claimed), zap.String("role", string(user.Role)))
		}

		c.Set(ContextUser, &user)
		c.Next()
	}
}

// CurrentUser returns the user loaded by LoadUser
func CurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not found in context"}
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User is not in the expected format"}
	}
	return user, nil
}

// RequireRole rejects callers whose stored role is not listed
func RequireRole(roles ...workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := CurrentUser(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to access this resource")
	}
}
