package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/services"
)

// CancellationRequestBody represents the body of POST /api/orders/:id/cancellation-request
type CancellationRequestBody struct {
	Reason string `json:"reason"`
}

// CancellationResponseBody represents the body of POST /api/orders/:id/respond-to-cancellation
type CancellationResponseBody struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

func cancellationService() *services.CancellationService {
	return services.NewCancellationService(config.GetDB(), services.GetNotifier())
}

// RequestCancellation handles POST /api/orders/:id/cancellation-request
func RequestCancellation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req CancellationRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	notes, err := cancellationService().Request(c.Request.Context(), user.Caller(), orderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"order_id":      orderID,
		"notifications": notes,
	})
}

// RespondToCancellation handles POST /api/orders/:id/respond-to-cancellation
func RespondToCancellation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req CancellationResponseBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	outcome, err := cancellationService().Respond(c.Request.Context(), user.Caller(), orderID, req.Action, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, outcome)
}
