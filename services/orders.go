package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderService owns the order lifecycle: creation, listing, assignment and
// status changes. Every mutation runs in one transaction and is
// version-checked.
type OrderService struct {
	db       *gorm.DB
	notifier Notifier
}

// NewOrderService creates an order service
func NewOrderService(db *gorm.DB, notifier Notifier) *OrderService {
	return &OrderService{db: db, notifier: notifier}
}

// CreateOrderInput is a client order submission
type CreateOrderInput struct {
	ServiceIDs     []uint
	PaymentMethod  string
	TotalPrice     float64
	PaidAt         *time.Time
	Guardian       json.RawMessage
	Student        json.RawMessage
	Note           *string
	IdempotencyKey string
}

// CreateOrderResult is the stored order and whether it was replayed from an
// earlier request with the same idempotency key
type CreateOrderResult struct {
	Order           *models.Order
	Replayed        bool
	LinkedContracts int64
}

// Create persists a new order in status new together with item snapshots,
// guardian and student rows and the raw submission snapshot. Order-less
// contracts of the same client are linked in the same transaction.
func (s *OrderService) Create(ctx context.Context, client *models.User, in CreateOrderInput) (*CreateOrderResult, error) {
	if len(in.ServiceIDs) == 0 {
		return nil, workflow.Validation("VALIDATION_ERROR", "At least one service is required")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, workflow.Validation("VALIDATION_ERROR", "Payment method is required")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		existing, err := s.findByIdempotencyKey(ctx, client.ID, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &CreateOrderResult{Order: existing, Replayed: true}, nil
		}
	}

	guardian, err := decodeGuardian(in.Guardian)
	if err != nil {
		return nil, err
	}
	student, err := decodeStudent(in.Student)
	if err != nil {
		return nil, err
	}

	paidAt := time.Now().UTC()
	if in.PaidAt != nil {
		paidAt = in.PaidAt.UTC()
	}

	ids := uniqueIDs(in.ServiceIDs)
	var order models.Order
	var linked int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []models.Service
		if err := tx.Where("id IN ? AND active = ?", ids, true).Find(&found).Error; err != nil {
			return err
		}
		byID := make(map[uint]models.Service, len(found))
		for _, svc := range found {
			byID[svc.ID] = svc
		}

		var missing []string
		snapshot := models.SubmissionSnapshot{
			Guardian: nonNull(in.Guardian),
			Student:  nonNull(in.Student),
			Payment: models.PaymentSnapshot{
				Method:         in.PaymentMethod,
				SubmittedTotal: in.TotalPrice,
				PaidAt:         paidAt,
			},
		}
		items := make([]models.OrderItem, 0, len(ids))
		var total float64
		for _, id := range ids {
			svc, ok := byID[id]
			if !ok {
				missing = append(missing, fmt.Sprint(id))
				continue
			}
			snapshot.Services = append(snapshot.Services, models.ServiceSnapshot{
				ID: svc.ID, Title: svc.Title, Price: svc.Price, DurationDays: svc.DurationDays,
			})
			items = append(items, models.OrderItem{
				ServiceID: svc.ID, Title: svc.Title, Price: svc.Price, DurationDays: svc.DurationDays,
			})
			total += svc.Price
		}
		if len(missing) > 0 {
			return workflow.Validation("SERVICE_NOT_FOUND", "Unknown or inactive services: "+strings.Join(missing, ", "))
		}

		metadata, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to encode order metadata: %w", err)
		}

		order = models.Order{
			ClientID:      client.ID,
			Status:        workflow.StatusNew,
			TotalPrice:    math.Round(total*100) / 100,
			PaymentMethod: in.PaymentMethod,
			PaidAt:        &paidAt,
			Metadata:      metadata,
			Note:          in.Note,
			Version:       1,
			Items:         items,
			Guardian:      guardian,
			Student:       student,
		}
		if key != "" {
			order.IdempotencyKey = &key
		}
		if err := tx.Omit("Client", "AssignedSupervisor", "AssignedDelegate").Create(&order).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Contract{}).
			Where("client_id = ? AND order_id IS NULL", client.ID).
			Update("order_id", order.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to link contracts: %w", res.Error)
		}
		linked = res.RowsAffected
		return nil
	})
	if err != nil {
		// a concurrent request with the same key committed first
		if key != "" && IsUniqueViolation(err) {
			existing, findErr := s.findByIdempotencyKey(ctx, client.ID, key)
			if findErr == nil && existing != nil {
				return &CreateOrderResult{Order: existing, Replayed: true}, nil
			}
		}
		return nil, err
	}

	log := logger.FromContext(ctx)
	if math.Abs(order.TotalPrice-in.TotalPrice) > 0.005 {
		log.Warn("Submitted total differs from catalogue total",
			zap.Uint("order_id", order.ID), zap.Float64("submitted", in.TotalPrice), zap.Float64("computed", order.TotalPrice))
	}
	if linked > 0 {
		log.Info("Linked pending contracts to order", zap.Uint("order_id", order.ID), zap.Int64("count", linked))
	}

	s.notifySupervisors(ctx, &order)

	stored, err := loadOrderDetail(s.db.WithContext(ctx), order.ID)
	if err != nil {
		return nil, err
	}
	return &CreateOrderResult{Order: stored, LinkedContracts: linked}, nil
}

func (s *OrderService) findByIdempotencyKey(ctx context.Context, clientID uint, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Select("id").
		Where("client_id = ? AND idempotency_key = ?", clientID, key).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return loadOrderDetail(s.db.WithContext(ctx), order.ID)
}

// notifySupervisors fans a new_order notification out to every active
// supervisor. Failures never fail the order.
func (s *OrderService) notifySupervisors(ctx context.Context, order *models.Order) {
	log := logger.FromContext(ctx)

	var supervisorIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND active = ?", workflow.RoleSupervisor, true).
		Pluck("id", &supervisorIDs).Error; err != nil {
		log.Warn("Failed to load supervisors for new order notification", zap.Uint("order_id", order.ID), zap.Error(err))
		return
	}

	notes := make([]*models.Notification, 0, len(supervisorIDs))
	for _, id := range supervisorIDs {
		notes = append(notes, newNotification(models.NotificationNewOrder, order.ID, uintPtr(order.ClientID), id,
			fmt.Sprintf("New order #%d is waiting for a supervisor", order.ID)))
	}
	if err := insertNotifications(s.db.WithContext(ctx), notes); err != nil {
		log.Warn("Failed to store new order notifications", zap.Uint("order_id", order.ID), zap.Error(err))
		return
	}
	publishAll(ctx, s.notifier, notes)
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	Status            string
	IncludeUnassigned bool
	DelegateID        *uint
	Page              int
	Limit             int
}

// OrderPage is one page of a listing
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// List returns the orders visible to caller. Visibility is applied in the
// query itself, so no filter parameter can widen it.
func (s *OrderService) List(ctx context.Context, caller workflow.Caller, f OrderFilter) (*OrderPage, error) {
	var status workflow.Status
	if f.Status != "" {
		parsed, err := workflow.ParseStatus(f.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	scope := func(db *gorm.DB) *gorm.DB {
		switch caller.Role {
		case workflow.RoleAdmin:
			if f.DelegateID != nil {
				db = db.Where("assigned_delegate_id = ?", *f.DelegateID)
			}
		case workflow.RoleSupervisor:
			if f.IncludeUnassigned {
				db = db.Where("(assigned_supervisor_id = ? OR assigned_supervisor_id IS NULL)", caller.UserID)
			} else {
				db = db.Where("assigned_supervisor_id = ?", caller.UserID)
			}
			if f.DelegateID != nil {
				db = db.Where("assigned_delegate_id = ?", *f.DelegateID)
			}
		case workflow.RoleDelegate:
			db = db.Where("assigned_delegate_id = ?", caller.UserID)
		default:
			db = db.Where("client_id = ?", caller.UserID)
		}
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, err
	}

	orders := []models.Order{}
	if err := s.db.WithContext(ctx).
		Scopes(scope).
		Preload("Client").
		Preload("AssignedSupervisor").
		Preload("AssignedDelegate").
		Preload("Items").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	return &OrderPage{Orders: orders, TotalCount: total, Page: page, Limit: limit}, nil
}

// Get returns one order if caller may view it
func (s *OrderService) Get(ctx context.Context, caller workflow.Caller, id uint) (*models.Order, error) {
	order, err := loadOrderDetail(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(caller, order.Ref(), workflow.ActionView); err != nil {
		return nil, err
	}
	return order, nil
}

// orderChange computes the column updates for one mutation. It may also
// return notifications, which are stored in the same transaction.
type orderChange func(tx *gorm.DB, order *models.Order) (map[string]interface{}, []*models.Notification, error)

// mutate loads, authorizes and updates an order in one transaction, then
// publishes notifications and returns the reloaded order.
func (s *OrderService) mutate(ctx context.Context, caller workflow.Caller, id uint, action workflow.Action, change orderChange) (*models.Order, error) {
	var notes []*models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(tx, id)
		if err != nil {
			return err
		}
		if err := workflow.Authorize(caller, order.Ref(), action); err != nil {
			return err
		}

		updates, n, err := change(tx, order)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := saveOrder(tx, order, updates); err != nil {
				return err
			}
		}
		if err := insertNotifications(tx, n); err != nil {
			return err
		}
		notes = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishAll(ctx, s.notifier, notes)
	return loadOrderDetail(s.db.WithContext(ctx), id)
}

// Claim assigns an unclaimed order to the calling supervisor and moves it
// to awaiting_delegate. Of two racing claims exactly one succeeds; the other
// gets ErrAlreadyClaimed.
func (s *OrderService) Claim(ctx context.Context, caller workflow.Caller, id uint) (*models.Order, error) {
	order, err := s.mutate(ctx, caller, id, workflow.ActionClaim, func(tx *gorm.DB, o *models.Order) (map[string]interface{}, []*models.Notification, error) {
		if o.Status.Terminal() {
			return nil, nil, workflow.ErrOrderClosed
		}
		if err := workflow.Transition(o.Status, workflow.StatusAwaitingDelegate); err != nil {
			return nil, nil, err
		}
		return map[string]interface{}{
			"assigned_supervisor_id": caller.UserID,
			"assigned_at":            time.Now(),
			"status":                 workflow.StatusAwaitingDelegate,
		}, nil, nil
	})
	if errors.Is(err, workflow.ErrConcurrentUpdate) {
		var current models.Order
		if findErr := s.db.WithContext(ctx).Select("id", "assigned_supervisor_id").First(&current, id).Error; findErr == nil && current.AssignedSupervisorID != nil {
			return nil, workflow.ErrAlreadyClaimed
		}
	}
	return order, err
}

// Release drops the supervisor claim, and the delegate if one is assigned,
// returning the order to new
func (s *OrderService) Release(ctx context.Context, caller workflow.Caller, id uint) (*models.Order, error) {
	return s.mutate(ctx, caller, id, workflow.ActionRelease, func(tx *gorm.DB, o *models.Order) (map[string]interface{}, []*models.Notification, error) {
		if o.AssignedSupervisorID == nil {
			return nil, nil, workflow.Conflict("NOT_CLAIMED", "The order has not been claimed")
		}
		if o.Status.Terminal() {
			return nil, nil, workflow.ErrOrderClosed
		}

		status := o.Status
		if o.AssignedDelegateID != nil {
			if err := workflow.Transition(status, workflow.StatusAwaitingDelegate); err != nil {
				return nil, nil, err
			}
			status = workflow.StatusAwaitingDelegate
		}
		if err := workflow.Transition(status, workflow.StatusNew); err != nil {
			return nil, nil, err
		}

		return map[string]interface{}{
			"assigned_supervisor_id": nil,
			"assigned_delegate_id":   nil,
			"assigned_at":            time.Now(),
			"status":                 workflow.StatusNew,
		}, nil, nil
	})
}

// AssignDelegate sets the delegate on a claimed order. The existing
// supervisor is kept; an admin cannot assign a delegate to an unclaimed order.
func (s *OrderService) AssignDelegate(ctx context.Context, caller workflow.Caller, id, delegateID uint) (*models.Order, error) {
	return s.mutate(ctx, caller, id, workflow.ActionAssignDelegate, func(tx *gorm.DB, o *models.Order) (map[string]interface{}, []*models.Notification, error) {
		if o.Status.Terminal() {
			return nil, nil, workflow.ErrOrderClosed
		}
		if o.AssignedSupervisorID == nil {
			return nil, nil, workflow.ErrSupervisorRequired
		}
		if _, err := findActiveStaff(tx, delegateID, workflow.RoleDelegate); err != nil {
			return nil, nil, err
		}

		updates := map[string]interface{}{
			"assigned_delegate_id": delegateID,
			"assigned_at":          time.Now(),
		}
		if o.Status == workflow.StatusAwaitingDelegate {
			if err := workflow.Transition(o.Status, workflow.StatusInProgress); err != nil {
				return nil, nil, err
			}
			updates["status"] = workflow.StatusInProgress
		}

		var notes []*models.Notification
		if !sameID(o.AssignedDelegateID, &delegateID) {
			notes = append(notes, newNotification(models.NotificationTaskAssigned, o.ID, uintPtr(caller.UserID), delegateID,
				fmt.Sprintf("Order #%d has been assigned to you", o.ID)))
		}
		return updates, notes, nil
	})
}

// UpdateStatus applies a manual status change limited by the caller's role.
// A delegate completing an order notifies the supervisor.
func (s *OrderService) UpdateStatus(ctx context.Context, caller workflow.Caller, id uint, target string) (*models.Order, error) {
	to, err := workflow.ParseStatus(target)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller, id, workflow.ActionUpdateStatus, func(tx *gorm.DB, o *models.Order) (map[string]interface{}, []*models.Notification, error) {
		if !workflow.CanSetManually(caller.Role, to) {
			return nil, nil, workflow.Forbidden("STATUS_NOT_ALLOWED",
				fmt.Sprintf("Role %s cannot set status %s", caller.Role, to))
		}
		if err := workflow.Transition(o.Status, to); err != nil {
			return nil, nil, err
		}

		updates := map[string]interface{}{"status": to}
		stampStatus(updates, to, caller.UserID, time.Now())

		var notes []*models.Notification
		if caller.Role == workflow.RoleDelegate && to == workflow.StatusCompleted && o.AssignedSupervisorID != nil {
			notes = append(notes, newNotification(models.NotificationDelegateCompletion, o.ID, uintPtr(caller.UserID), *o.AssignedSupervisorID,
				fmt.Sprintf("The delegate has completed order #%d", o.ID)))
		}
		return updates, notes, nil
	})
}

// PatchOrderInput is a partial update. Absent fields are left alone; an
// explicit null clears an assignment.
type PatchOrderInput struct {
	OrderID      uint
	SupervisorID OptionalID
	DelegateID   OptionalID
	Status       *string
	Note         OptionalString
}

// Patch applies assignment, status and note changes in one step. Changes
// are applied as delegate removal, supervisor change, delegate assignment,
// then explicit status; each implied status change must be a legal
// transition.
func (s *OrderService) Patch(ctx context.Context, caller workflow.Caller, in PatchOrderInput) (*models.Order, error) {
	var target workflow.Status
	if in.Status != nil {
		parsed, err := workflow.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		target = parsed
	}

	return s.mutate(ctx, caller, in.OrderID, workflow.ActionPatch, func(tx *gorm.DB, o *models.Order) (map[string]interface{}, []*models.Notification, error) {
		touchesWorkflow := in.SupervisorID.Set || in.DelegateID.Set || in.Status != nil
		if touchesWorkflow && o.Status.Terminal() {
			return nil, nil, workflow.ErrOrderClosed
		}

		if caller.Role != workflow.RoleAdmin {
			if err := checkSupervisorPatch(caller, o, in); err != nil {
				return nil, nil, err
			}
		}

		status := o.Status
		supervisor := o.AssignedSupervisorID
		delegate := o.AssignedDelegateID
		step := func(to workflow.Status) error {
			if err := workflow.Transition(status, to); err != nil {
				return err
			}
			status = to
			return nil
		}

		if in.DelegateID.Clear() && delegate != nil {
			if err := step(workflow.StatusAwaitingDelegate); err != nil {
				return nil, nil, err
			}
			delegate = nil
		}

		if in.SupervisorID.Set && !sameID(in.SupervisorID.Value, supervisor) {
			if in.SupervisorID.Value == nil {
				if delegate != nil {
					return nil, nil, workflow.Conflict("DELEGATE_ASSIGNED", "Remove the delegate before removing the supervisor")
				}
				if err := step(workflow.StatusNew); err != nil {
					return nil, nil, err
				}
			} else {
				if _, err := findActiveStaff(tx, *in.SupervisorID.Value, workflow.RoleSupervisor); err != nil {
					return nil, nil, err
				}
				if supervisor == nil {
					if err := step(workflow.StatusAwaitingDelegate); err != nil {
						return nil, nil, err
					}
				}
			}
			supervisor = in.SupervisorID.Value
		}

		var notes []*models.Notification
		if in.DelegateID.Set && in.DelegateID.Value != nil && !sameID(in.DelegateID.Value, delegate) {
			if supervisor == nil {
				return nil, nil, workflow.ErrSupervisorRequired
			}
			if _, err := findActiveStaff(tx, *in.DelegateID.Value, workflow.RoleDelegate); err != nil {
				return nil, nil, err
			}
			if delegate == nil {
				if err := step(workflow.StatusInProgress); err != nil {
					return nil, nil, err
				}
			}
			delegate = in.DelegateID.Value
			notes = append(notes, newNotification(models.NotificationTaskAssigned, o.ID, uintPtr(caller.UserID), *delegate,
				fmt.Sprintf("Order #%d has been assigned to you", o.ID)))
		}

		if in.Status != nil && target != status {
			if !workflow.CanSetManually(caller.Role, target) {
				return nil, nil, workflow.Forbidden("STATUS_NOT_ALLOWED",
					fmt.Sprintf("Role %s cannot set status %s", caller.Role, target))
			}
			if err := step(target); err != nil {
				return nil, nil, err
			}
		}

		now := time.Now()
		updates := map[string]interface{}{}
		if !sameID(supervisor, o.AssignedSupervisorID) || !sameID(delegate, o.AssignedDelegateID) {
			updates["assigned_supervisor_id"] = supervisor
			updates["assigned_delegate_id"] = delegate
			updates["assigned_at"] = now
		}
		if status != o.Status {
			updates["status"] = status
			stampStatus(updates, status, caller.UserID, now)
		}
		if in.Note.Set {
			updates["note"] = in.Note.Value
		}
		return updates, notes, nil
	})
}

// checkSupervisorPatch limits what a non-admin can do through Patch. On an
// unclaimed order the only permitted change is claiming it for oneself; the
// owner may not hand the order to another supervisor.
func checkSupervisorPatch(caller workflow.Caller, o *models.Order, in PatchOrderInput) error {
	if o.AssignedSupervisorID == nil {
		if !in.SupervisorID.Set || in.SupervisorID.Value == nil || *in.SupervisorID.Value != caller.UserID {
			return workflow.Forbidden("CLAIM_REQUIRED", "Claim the order before changing it")
		}
		return nil
	}
	if in.SupervisorID.Set && in.SupervisorID.Value != nil && *in.SupervisorID.Value != caller.UserID {
		return workflow.Forbidden("FORBIDDEN", "Only an admin can hand an order to another supervisor")
	}
	return nil
}

// BulkAssign gives every listed unclaimed order to one supervisor. Either all
// orders are assigned or none are.
func (s *OrderService) BulkAssign(ctx context.Context, caller workflow.Caller, orderIDs []uint, supervisorID uint) ([]models.Order, error) {
	if caller.Role != workflow.RoleAdmin {
		return nil, workflow.ErrForbidden
	}
	ids := uniqueIDs(orderIDs)
	if len(ids) == 0 {
		return nil, workflow.Validation("VALIDATION_ERROR", "At least one order is required")
	}

	var notes []*models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findActiveStaff(tx, supervisorID, workflow.RoleSupervisor); err != nil {
			return err
		}
		now := time.Now()
		for _, id := range ids {
			order, err := loadOrder(tx, id)
			if err != nil {
				return err
			}
			if order.AssignedSupervisorID != nil {
				return workflow.Conflict(workflow.ErrAlreadyClaimed.Code, fmt.Sprintf("Order #%d has already been claimed", id))
			}
			if err := workflow.Transition(order.Status, workflow.StatusAwaitingDelegate); err != nil {
				return err
			}
			if err := saveOrder(tx, order, map[string]interface{}{
				"assigned_supervisor_id": supervisorID,
				"assigned_at":            now,
				"status":                 workflow.StatusAwaitingDelegate,
			}); err != nil {
				return err
			}
			notes = append(notes, newNotification(models.NotificationTaskAssigned, id, uintPtr(caller.UserID), supervisorID,
				fmt.Sprintf("Order #%d has been assigned to you", id)))
		}
		return insertNotifications(tx, notes)
	})
	if err != nil {
		return nil, err
	}

	publishAll(ctx, s.notifier, notes)

	orders := []models.Order{}
	if err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("AssignedSupervisor").
		Where("id IN ?", ids).
		Order("id").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func nonNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return nil
	}
	return raw
}

type guardianPayload struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Relation   string `json:"relation"`
}

type studentPayload struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	BirthDate  string `json:"birth_date"`
	Grade      string `json:"grade"`
	School     string `json:"school"`
}

func decodeGuardian(raw json.RawMessage) (*models.Guardian, error) {
	if nonNull(raw) == nil {
		return nil, nil
	}
	var p guardianPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, workflow.Validation("INVALID_GUARDIAN", "Guardian must be an object")
	}
	return &models.Guardian{
		Name: p.Name, NationalID: p.NationalID, Phone: p.Phone, Email: p.Email, Relation: p.Relation,
	}, nil
}

func decodeStudent(raw json.RawMessage) (*models.Student, error) {
	if nonNull(raw) == nil {
		return nil, nil
	}
	var p studentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, workflow.Validation("INVALID_STUDENT", "Student must be an object")
	}
	return &models.Student{
		Name: p.Name, NationalID: p.NationalID, BirthDate: p.BirthDate, Grade: p.Grade, School: p.School,
	}, nil
}
