package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"github.com/kendall-kelly/edu-brokerage-api/middleware"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/services"
	"github.com/kendall-kelly/edu-brokerage-api/utils"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"go.uber.org/zap"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondValidation reports a binding failure with one entry per invalid field
func respondValidation(c *gin.Context, err error) {
	details := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
	} else {
		details["body"] = "malformed"
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": details,
		},
	})
}

// respondError maps a service error to its HTTP status. Unknown errors are
// logged in full and reported with a generic message.
func respondError(c *gin.Context, err error) {
	var werr *workflow.Error
	if errors.As(err, &werr) {
		status := http.StatusInternalServerError
		switch werr.Kind {
		case workflow.KindValidation:
			status = http.StatusBadRequest
		case workflow.KindForbidden:
			status = http.StatusForbidden
		case workflow.KindNotFound:
			status = http.StatusNotFound
		case workflow.KindConflict:
			status = http.StatusConflict
		}
		respondErrorCode(c, status, werr.Code, werr.Message)
		return
	}

	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondErrorCode(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	log := logger.FromContext(c.Request.Context())
	var storageErr *services.StorageError
	if errors.As(err, &storageErr) {
		log.Error("Object storage failure", zap.String("op", storageErr.Op), zap.Error(storageErr.Err))
		respondErrorCode(c, http.StatusInternalServerError, "STORAGE_ERROR", "File storage is unavailable, please retry later")
		return
	}

	log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	respondErrorCode(c, http.StatusInternalServerError, "DATABASE_ERROR", "An internal error occurred")
}

// currentUser returns the user loaded by middleware.LoadUser, writing a 401
// when it is missing
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}

// paramID parses a positive numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an integer query parameter, using def when absent or invalid
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
