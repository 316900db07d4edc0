package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/edu-brokerage-api/config"
	"github.com/kendall-kelly/edu-brokerage-api/services"
)

// IdempotencyKeyHeader lets a client retry order submission safely
const IdempotencyKeyHeader = "Idempotency-Key"

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	ServiceIDs    []uint          `json:"service_ids" binding:"required,min=1"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	TotalPrice    float64         `json:"total_price" binding:"gte=0"`
	PaidAt        *time.Time      `json:"paid_at"`
	Guardian      json.RawMessage `json:"guardian"`
	Student       json.RawMessage `json:"student"`
	Note          *string         `json:"note"`
}

// PatchOrderRequest represents the body of PUT /api/orders. A field that is
// present with null clears the assignment; an absent field is left alone.
type PatchOrderRequest struct {
	OrderID              uint                    `json:"order_id" binding:"required"`
	AssignedSupervisorID services.OptionalID     `json:"assigned_supervisor_id"`
	AssignedDelegateID   services.OptionalID     `json:"assigned_delegate_id"`
	Status               *string                 `json:"status"`
	Note                 services.OptionalString `json:"note"`
}

// UpdateStatusRequest represents the body of PATCH /api/orders/:id/status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AssignDelegateRequest represents the body of POST /api/orders/:id/assign-delegate
type AssignDelegateRequest struct {
	DelegateID uint `json:"delegate_id" binding:"required"`
}

// BulkAssignRequest represents the body of POST /api/admin/orders/bulk-assign
type BulkAssignRequest struct {
	OrderIDs     []uint `json:"order_ids" binding:"required,min=1"`
	SupervisorID uint   `json:"supervisor_id" binding:"required"`
}

func orderService() *services.OrderService {
	return services.NewOrderService(config.GetDB(), services.GetNotifier())
}

// CreateOrder handles POST /api/orders - creates an order for the calling client
func CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := orderService().Create(c.Request.Context(), user, services.CreateOrderInput{
		ServiceIDs:     req.ServiceIDs,
		PaymentMethod:  req.PaymentMethod,
		TotalPrice:     req.TotalPrice,
		PaidAt:         req.PaidAt,
		Guardian:       req.Guardian,
		Student:        req.Student,
		Note:           req.Note,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"success":          true,
		"data":             result.Order,
		"replayed":         result.Replayed,
		"linked_contracts": result.LinkedContracts,
	})
}

// ListOrders handles GET /api/orders - lists the orders visible to the caller
func ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	filter := services.OrderFilter{
		Status:            c.Query("status"),
		IncludeUnassigned: strings.EqualFold(c.Query("include_unassigned"), "true"),
		Page:              queryInt(c, "page", 1),
		Limit:             queryInt(c, "limit", 20),
	}
	if raw := c.Query("delegate_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondErrorCode(c, http.StatusBadRequest, "INVALID_ID", "Invalid delegate_id")
			return
		}
		delegateID := uint(id)
		filter.DelegateID = &delegateID
	}

	page, err := orderService().List(c.Request.Context(), user.Caller(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, page)
}

// GetOrder handles GET /api/orders/:id
func GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := orderService().Get(c.Request.Context(), user.Caller(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// PatchOrder handles PUT /api/orders - partial assignment, status and note update
func PatchOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req PatchOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	order, err := orderService().Patch(c.Request.Context(), user.Caller(), services.PatchOrderInput{
		OrderID:      req.OrderID,
		SupervisorID: req.AssignedSupervisorID,
		DelegateID:   req.AssignedDelegateID,
		Status:       req.Status,
		Note:         req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/orders/:id/status
func UpdateOrderStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	order, err := orderService().UpdateStatus(c.Request.Context(), user.Caller(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// ClaimOrder handles POST /api/orders/:id/claim
func ClaimOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := orderService().Claim(c.Request.Context(), user.Caller(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// ReleaseOrder handles POST /api/orders/:id/release
func ReleaseOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := orderService().Release(c.Request.Context(), user.Caller(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// AssignDelegate handles POST /api/orders/:id/assign-delegate
func AssignDelegate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req AssignDelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	order, err := orderService().AssignDelegate(c.Request.Context(), user.Caller(), id, req.DelegateID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// BulkAssignOrders handles POST /api/admin/orders/bulk-assign
func BulkAssignOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	orders, err := orderService().BulkAssign(c.Request.Context(), user.Caller(), req.OrderIDs, req.SupervisorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"orders":   orders,
		"assigned": len(orders),
	})
}
