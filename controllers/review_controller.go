package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/services"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"gorm.io/gorm"
)

// CreateReviewRequest represents the body of POST /api/orders/:id/review
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// UpdateReviewRequest represents the body of PATCH /api/admin/reviews/:id
type UpdateReviewRequest struct {
	IsApproved *bool `json:"is_approved"`
	IsFeatured *bool `json:"is_featured"`
}

// PublicReview is the anonymised form shown on the public site
type PublicReview struct {
	ID         uint      `json:"id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	ClientName string    `json:"client_name"`
	IsFeatured bool      `json:"is_featured"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListReviews handles GET /api/reviews - approved reviews, optionally featured only
func ListReviews(c *gin.Context) {
	q := config.GetDB().WithContext(c.Request.Context()).
		Preload("Client").
		Where("is_approved = ?", true).
		Order("created_at DESC")
	if strings.EqualFold(c.Query("featured"), "true") {
		q = q.Where("is_featured = ?", true)
	}

	var reviews []models.Review
	if err := q.Find(&reviews).Error; err != nil {
		respondError(c, err)
		return
	}

	out := make([]PublicReview, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, PublicReview{
			ID:         r.ID,
			Rating:     r.Rating,
			Comment:    r.Comment,
			ClientName: firstName(r.Client.Name),
			IsFeatured: r.IsFeatured,
			CreatedAt:  r.CreatedAt,
		})
	}

	respondOK(c, http.StatusOK, out)
}

// CreateReview handles POST /api/orders/:id/review - one review per completed order
func CreateReview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, workflow.ErrOrderNotFound)
			return
		}
		respondError(c, err)
		return
	}
	if err := workflow.Authorize(user.Caller(), order.Ref(), workflow.ActionReview); err != nil {
		respondError(c, err)
		return
	}
	if order.Status != workflow.StatusCompleted {
		respondErrorCode(c, http.StatusConflict, "ORDER_NOT_COMPLETED", "Only completed orders can be reviewed")
		return
	}

	review := models.Review{
		OrderID:  order.ID,
		ClientID: user.ID,
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
	}
	if err := db.Omit("Client").Create(&review).Error; err != nil {
		if services.IsUniqueViolation(err) {
			respondErrorCode(c, http.StatusConflict, "REVIEW_EXISTS", "This order has already been reviewed")
			return
		}
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, review)
}

// AdminUpdateReview handles PATCH /api/admin/reviews/:id - approve or feature a review
func AdminUpdateReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	var review models.Review
	if err := db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondErrorCode(c, http.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
			return
		}
		respondError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.IsApproved != nil {
		updates["is_approved"] = *req.IsApproved
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if len(updates) > 0 {
		if err := db.Model(&review).Updates(updates).Error; err != nil {
			respondError(c, err)
			return
		}
		if err := db.First(&review, id).Error; err != nil {
			respondError(c, err)
			return
		}
	}

	respondOK(c, http.StatusOK, review)
}

func firstName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
