package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/services"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"gorm.io/gorm"
)

// CreateStaffRequest represents the request body for adding a supervisor or delegate
type CreateStaffRequest struct {
	ExternalID string  `json:"external_id" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Phone      string  `json:"phone"`
	NationalID *string `json:"national_id"`
}

// UpdateStaffRequest represents the request body for changing a staff member
type UpdateStaffRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone"`
	NationalID *string `json:"national_id"`
	Active     *bool   `json:"active"`
}

func staffNotFound(c *gin.Context, role workflow.Role) {
	respondErrorCode(c, http.StatusNotFound, strings.ToUpper(string(role))+"_NOT_FOUND", "No "+string(role)+" with that id")
}

func findStaff(c *gin.Context, db *gorm.DB, role workflow.Role) (*models.User, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	var user models.User
	if err := db.Where("id = ? AND role = ?", id, role).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			staffNotFound(c, role)
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	return &user, true
}

// ListStaff handles GET /api/admin/supervisors and /api/admin/delegates
func ListStaff(role workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := config.GetDB().WithContext(c.Request.Context()).Where("role = ?", role).Order("name")
		switch c.Query("active") {
		case "true":
			q = q.Where("active = ?", true)
		case "false":
			q = q.Where("active = ?", false)
		}

		users := []models.User{}
		if err := q.Find(&users).Error; err != nil {
			respondError(c, err)
			return
		}

		respondOK(c, http.StatusOK, users)
	}
}

// GetStaff handles GET /api/admin/supervisors/:id and /api/admin/delegates/:id
func GetStaff(role workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := findStaff(c, config.GetDB().WithContext(c.Request.Context()), role)
		if !ok {
			return
		}
		respondOK(c, http.StatusOK, user)
	}
}

// CreateStaff handles POST /api/admin/supervisors and /api/admin/delegates
func CreateStaff(role workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateStaffRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, err)
			return
		}

		user := models.User{
			ExternalID: strings.TrimSpace(req.ExternalID),
			Name:       req.Name,
			Email:      strings.ToLower(req.Email),
			Phone:      req.Phone,
			NationalID: req.NationalID,
			Role:       role,
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
}

// UpdateStaff handles PUT /api/admin/supervisors/:id and /api/admin/delegates/:id
func UpdateStaff(role workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateStaffRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, err)
			return
		}

		db := config.GetDB().WithContext(c.Request.Context())
		user, ok := findStaff(c, db, role)
		if !ok {
			return
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Email != nil {
			updates["email"] = strings.ToLower(*req.Email)
		}
		if req.Phone != nil {
			updates["phone"] = *req.Phone
		}
		if req.NationalID != nil {
			updates["national_id"] = *req.NationalID
		}
		if req.Active != nil {
			updates["active"] = *req.Active
		}

		if len(updates) > 0 {
			if err := db.Model(user).Updates(updates).Error; err != nil {
				if services.IsUniqueViolation(err) {
					respondErrorCode(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
					return
				}
				respondError(c, err)
				return
			}
			if err := db.First(user, user.ID).Error; err != nil {
				respondError(c, err)
				return
			}
		}

		respondOK(c, http.StatusOK, user)
	}
}

// DeactivateStaff handles DELETE /api/admin/supervisors/:id and
// /api/admin/delegates/:id. The row is kept so existing assignments still
// resolve; the member can no longer sign in or receive work.
func DeactivateStaff(role workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := config.GetDB().WithContext(c.Request.Context())
		user, ok := findStaff(c, db, role)
		if !ok {
			return
		}

		if err := db.Model(user).Update("active", false).Error; err != nil {
			respondError(c, err)
			return
		}
		user.Active = false

		respondOK(c, http.StatusOK, user)
	}
}
