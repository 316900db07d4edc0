package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"gorm.io/gorm"
)

// CreateServiceRequest represents the request body for creating a catalogue entry
type CreateServiceRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" binding:"gte=0"`
	DurationDays int     `json:"duration_days" binding:"gte=0"`
	Category     string  `json:"category"`
	Active       *bool   `json:"active"`
}

// UpdateServiceRequest represents the request body for updating a catalogue entry
type UpdateServiceRequest struct {
	Title        *string  `json:"title" binding:"omitempty,min=1"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price" binding:"omitempty,gte=0"`
	DurationDays *int     `json:"duration_days" binding:"omitempty,gte=0"`
	Category     *string  `json:"category"`
	Active       *bool    `json:"active"`
}

// ListServices handles GET /api/services - public list of active services
func ListServices(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	q := db.Where("active = ?", true).Order("category, title")
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}

	services := []models.Service{}
	if err := q.Find(&services).Error; err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, services)
}

// AdminListServices handles GET /api/admin/services - includes inactive entries
func AdminListServices(c *gin.Context) {
	services := []models.Service{}
	if err := config.GetDB().WithContext(c.Request.Context()).Order("id").Find(&services).Error; err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, services)
}

// CreateService handles POST /api/admin/services
func CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	service := models.Service{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		Category:     req.Category,
		Active:       req.Active == nil || *req.Active,
	}
	if err := config.GetDB().WithContext(c.Request.Context()).Create(&service).Error; err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, service)
}

// UpdateService handles PUT /api/admin/services/:id
func UpdateService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	var service models.Service
	if err := db.First(&service, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondErrorCode(c, http.StatusNotFound, "SERVICE_NOT_FOUND", "Service not found")
			return
		}
		respondError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.DurationDays != nil {
		updates["duration_days"] = *req.DurationDays
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := db.Model(&service).Updates(updates).Error; err != nil {
			respondError(c, err)
			return
		}
		if err := db.First(&service, id).Error; err != nil {
			respondError(c, err)
			return
		}
	}

	respondOK(c, http.StatusOK, service)
}

// DeleteService handles DELETE /api/admin/services/:id. Existing orders keep
// their item snapshots.
func DeleteService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res := config.GetDB().WithContext(c.Request.Context()).Delete(&models.Service{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondErrorCode(c, http.StatusNotFound, "SERVICE_NOT_FOUND", "Service not found")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
