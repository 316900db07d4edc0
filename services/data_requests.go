package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/edu-brokerage-api/logger"
	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/utils"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StorageError wraps an object storage failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// DataRequestService manages supervisor-to-client data request threads
type DataRequestService struct {
	db       *gorm.DB
	notifier Notifier
	docs     DocumentService
}

// NewDataRequestService creates a data request service
func NewDataRequestService(db *gorm.DB, notifier Notifier, docs DocumentService) *DataRequestService {
	return &DataRequestService{db: db, notifier: notifier, docs: docs}
}

// Open creates a pending request and moves the order to
// awaiting_client_reply in the same transaction
func (s *DataRequestService) Open(ctx context.Context, caller workflow.Caller, orderID uint, message string) (*models.DataRequest, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, workflow.Validation("VALIDATION_ERROR", "Message is required")
	}

	var req models.DataRequest
	var notes []*models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := workflow.Authorize(caller, order.Ref(), workflow.ActionOpenDataRequest); err != nil {
			return err
		}
		if order.Status.Terminal() {
			return workflow.ErrOrderClosed
		}

		if order.Status != workflow.StatusAwaitingClientReply {
			if err := workflow.Transition(order.Status, workflow.StatusAwaitingClientReply); err != nil {
				return err
			}
			if err := saveOrder(tx, order, map[string]interface{}{"status": workflow.StatusAwaitingClientReply}); err != nil {
				return err
			}
		}

		supervisorID := caller.UserID
		if order.AssignedSupervisorID != nil {
			supervisorID = *order.AssignedSupervisorID
		}
		req = models.DataRequest{
			OrderID:      order.ID,
			SupervisorID: supervisorID,
			ClientID:     order.ClientID,
			Message:      message,
			Status:       workflow.DataRequestPending,
		}
		if err := tx.Create(&req).Error; err != nil {
			return err
		}

		notes = []*models.Notification{newNotification(models.NotificationDataRequest, order.ID, uintPtr(caller.UserID), order.ClientID,
			fmt.Sprintf("Additional information is required for order #%d", order.ID))}
		return insertNotifications(tx, notes)
	})
	if err != nil {
		return nil, err
	}

	publishAll(ctx, s.notifier, notes)
	return s.load(ctx, req.ID)
}

// List returns the order's requests with their files
func (s *DataRequestService) List(ctx context.Context, caller workflow.Caller, orderID uint) ([]models.DataRequest, error) {
	order, err := loadOrder(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(caller, order.Ref(), workflow.ActionView); err != nil {
		return nil, err
	}

	requests := []models.DataRequest{}
	if err := s.db.WithContext(ctx).
		Preload("Files").
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// RespondInput is the client's answer to a pending request
type RespondInput struct {
	Note  *string
	Files []*multipart.FileHeader
}

// Respond records the client note and files. Files are uploaded before the
// transaction and removed again if it fails. When no pending requests
// remain the order returns to in_progress.
func (s *DataRequestService) Respond(ctx context.Context, caller workflow.Caller, orderID, requestID uint, in RespondInput) (*models.DataRequest, error) {
	note := trimmedOrNil(in.Note)
	if note == nil && len(in.Files) == 0 {
		return nil, workflow.Validation("VALIDATION_ERROR", "A note or at least one file is required")
	}
	if len(in.Files) > utils.MaxFilesPerUpload {
		return nil, workflow.Validation("TOO_MANY_FILES", fmt.Sprintf("At most %d files can be attached", utils.MaxFilesPerUpload))
	}

	order, req, err := s.loadForOrder(ctx, orderID, requestID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(caller, order.Ref(), workflow.ActionRespondDataRequest); err != nil {
		return nil, err
	}
	if err := workflow.DataRequestTransition(req.Status, workflow.DataRequestResponded); err != nil {
		return nil, err
	}
	for _, fh := range in.Files {
		if err := utils.ValidateDocumentFile(fh); err != nil {
			return nil, err
		}
	}

	stored, err := s.uploadAll(ctx, requestID, in.Files)
	if err != nil {
		return nil, err
	}

	var notes []*models.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.DataRequest{}).
			Where("id = ? AND status = ?", requestID, workflow.DataRequestPending).
			Updates(map[string]interface{}{
				"status":       workflow.DataRequestResponded,
				"client_note":  note,
				"responded_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return workflow.Conflict(workflow.ErrInvalidTransition.Code, "The data request has already been answered or closed")
		}

		for _, f := range stored {
			row := models.DataRequestFile{
				DataRequestID: requestID,
				FileName:      f.FileName,
				ContentType:   f.ContentType,
				Size:          f.Size,
				S3Key:         f.Key,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		if err := unblockOrder(tx, orderID); err != nil {
			return err
		}

		notes = []*models.Notification{newNotification(models.NotificationDataRequestResponse, orderID, uintPtr(caller.UserID), req.SupervisorID,
			fmt.Sprintf("The client answered the data request on order #%d", orderID))}
		return insertNotifications(tx, notes)
	})
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}

	publishAll(ctx, s.notifier, notes)
	return s.load(ctx, requestID)
}

// ReplyInput is a supervisor reply to a responded request
type ReplyInput struct {
	RequestID uint
	Reply     string
}

// Reply stores the supervisor reply. The request status does not change;
// the thread state becomes replied.
func (s *DataRequestService) Reply(ctx context.Context, caller workflow.Caller, orderID uint, in ReplyInput) (*models.DataRequest, error) {
	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return nil, workflow.Validation("VALIDATION_ERROR", "Reply is required")
	}

	var notes []*models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, req, err := loadForOrderTx(tx, orderID, in.RequestID)
		if err != nil {
			return err
		}
		if err := workflow.Authorize(caller, order.Ref(), workflow.ActionReplyDataRequest); err != nil {
			return err
		}
		if req.Status != workflow.DataRequestResponded {
			return workflow.Conflict(workflow.ErrInvalidTransition.Code, "Only answered data requests can be replied to")
		}

		res := tx.Model(&models.DataRequest{}).
			Where("id = ? AND status = ?", req.ID, workflow.DataRequestResponded).
			Updates(map[string]interface{}{
				"supervisor_reply":      reply,
				"supervisor_replied_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return workflow.ErrConcurrentUpdate
		}

		notes = []*models.Notification{newNotification(models.NotificationDataRequestReply, orderID, uintPtr(caller.UserID), order.ClientID,
			fmt.Sprintf("The supervisor replied on order #%d", orderID))}
		return insertNotifications(tx, notes)
	})
	if err != nil {
		return nil, err
	}

	publishAll(ctx, s.notifier, notes)
	return s.load(ctx, in.RequestID)
}

// Close marks a request closed. Closed requests never reopen.
func (s *DataRequestService) Close(ctx context.Context, caller workflow.Caller, orderID, requestID uint) (*models.DataRequest, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, req, err := loadForOrderTx(tx, orderID, requestID)
		if err != nil {
			return err
		}
		if err := workflow.Authorize(caller, order.Ref(), workflow.ActionCloseDataRequest); err != nil {
			return err
		}
		return closeRequest(tx, caller, req)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, requestID)
}

func closeRequest(tx *gorm.DB, caller workflow.Caller, req *models.DataRequest) error {
	if err := workflow.DataRequestTransition(req.Status, workflow.DataRequestClosed); err != nil {
		return err
	}
	res := tx.Model(&models.DataRequest{}).
		Where("id = ? AND status = ?", req.ID, req.Status).
		Updates(map[string]interface{}{
			"status":    workflow.DataRequestClosed,
			"closed_at": time.Now(),
			"closed_by": caller.UserID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return workflow.ErrConcurrentUpdate
	}
	return unblockOrder(tx, req.OrderID)
}

// AdminList returns every request, optionally filtered by status
func (s *DataRequestService) AdminList(ctx context.Context, caller workflow.Caller, status string) ([]models.DataRequest, error) {
	if caller.Role != workflow.RoleAdmin {
		return nil, workflow.ErrForbidden
	}

	q := s.db.WithContext(ctx).Preload("Files").Order("created_at DESC, id DESC")
	if status != "" {
		switch st := workflow.DataRequestStatus(status); st {
		case workflow.DataRequestPending, workflow.DataRequestResponded, workflow.DataRequestClosed:
			q = q.Where("status = ?", st)
		default:
			return nil, workflow.Validation("INVALID_STATUS", "Unknown data request status: "+status)
		}
	}

	requests := []models.DataRequest{}
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// AdminEditInput changes the message of a pending request or closes it
type AdminEditInput struct {
	Message *string
	Close   bool
}

// AdminEdit applies an admin change. The message is editable only while the
// request is pending.
func (s *DataRequestService) AdminEdit(ctx context.Context, caller workflow.Caller, requestID uint, in AdminEditInput) (*models.DataRequest, error) {
	if in.Message == nil && !in.Close {
		return nil, workflow.Validation("VALIDATION_ERROR", "Nothing to update")
	}
	if in.Message != nil && strings.TrimSpace(*in.Message) == "" {
		return nil, workflow.Validation("VALIDATION_ERROR", "Message cannot be empty")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		order, err := loadOrder(tx, req.OrderID)
		if err != nil {
			return err
		}
		if err := workflow.Authorize(caller, order.Ref(), workflow.ActionEditDataRequest); err != nil {
			return err
		}

		if in.Message != nil {
			if req.Status != workflow.DataRequestPending {
				return workflow.ErrDataRequestLocked
			}
			res := tx.Model(&models.DataRequest{}).
				Where("id = ? AND status = ?", req.ID, workflow.DataRequestPending).
				Update("message", strings.TrimSpace(*in.Message))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return workflow.ErrDataRequestLocked
			}
		}
		if in.Close {
			return closeRequest(tx, caller, req)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, requestID)
}

// AdminDelete removes a request and its attachments
func (s *DataRequestService) AdminDelete(ctx context.Context, caller workflow.Caller, requestID uint) error {
	var files []models.DataRequestFile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		order, err := loadOrder(tx, req.OrderID)
		if err != nil {
			return err
		}
		if err := workflow.Authorize(caller, order.Ref(), workflow.ActionEditDataRequest); err != nil {
			return err
		}

		if err := tx.Where("data_request_id = ?", req.ID).Find(&files).Error; err != nil {
			return err
		}
		if err := tx.Where("data_request_id = ?", req.ID).Delete(&models.DataRequestFile{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.DataRequest{}, req.ID).Error; err != nil {
			return err
		}
		return unblockOrder(tx, req.OrderID)
	})
	if err != nil {
		return err
	}

	stored := make([]*StoredFile, 0, len(files))
	for _, f := range files {
		stored = append(stored, &StoredFile{Key: f.S3Key})
	}
	s.discard(ctx, stored)
	return nil
}

// FileURL returns a signed URL for an attachment the caller may view
func (s *DataRequestService) FileURL(ctx context.Context, caller workflow.Caller, fileID uint) (*models.DataRequestFile, string, error) {
	db := s.db.WithContext(ctx)

	var file models.DataRequestFile
	if err := db.First(&file, fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", workflow.NotFound("FILE_NOT_FOUND", "File not found")
		}
		return nil, "", err
	}
	req, err := loadRequest(db, file.DataRequestID)
	if err != nil {
		return nil, "", err
	}
	order, err := loadOrder(db, req.OrderID)
	if err != nil {
		return nil, "", err
	}
	if err := workflow.Authorize(caller, order.Ref(), workflow.ActionView); err != nil {
		return nil, "", err
	}

	url, err := s.docs.URL(ctx, file.S3Key)
	if err != nil {
		return nil, "", &StorageError{Op: "sign attachment url", Err: err}
	}
	return &file, url, nil
}

func (s *DataRequestService) uploadAll(ctx context.Context, requestID uint, files []*multipart.FileHeader) ([]*StoredFile, error) {
	stored := make([]*StoredFile, 0, len(files))
	for _, fh := range files {
		key := fmt.Sprintf("data-requests/%d/%s_%s", requestID, uuid.NewString(), utils.SanitizeFileName(fh.Filename))
		f, err := s.docs.Upload(ctx, key, fh)
		if err != nil {
			s.discard(ctx, stored)
			var uploadErr *utils.FileUploadError
			if errors.As(err, &uploadErr) {
				return nil, uploadErr
			}
			return nil, &StorageError{Op: "upload attachment", Err: err}
		}
		stored = append(stored, f)
	}
	return stored, nil
}

// discard removes objects whose rows were never committed or were deleted
func (s *DataRequestService) discard(ctx context.Context, files []*StoredFile) {
	for _, f := range files {
		if err := s.docs.Delete(ctx, f.Key); err != nil {
			logger.FromContext(ctx).Warn("Failed to delete orphaned attachment", zap.String("key", f.Key), zap.Error(err))
		}
	}
}

func (s *DataRequestService) load(ctx context.Context, id uint) (*models.DataRequest, error) {
	var req models.DataRequest
	if err := s.db.WithContext(ctx).Preload("Files").First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrDataRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *DataRequestService) loadForOrder(ctx context.Context, orderID, requestID uint) (*models.Order, *models.DataRequest, error) {
	return loadForOrderTx(s.db.WithContext(ctx), orderID, requestID)
}

// loadForOrderTx loads a request and its order, treating a request that
// belongs to another order as not found
func loadForOrderTx(tx *gorm.DB, orderID, requestID uint) (*models.Order, *models.DataRequest, error) {
	order, err := loadOrder(tx, orderID)
	if err != nil {
		return nil, nil, err
	}
	req, err := loadRequest(tx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.OrderID != order.ID {
		return nil, nil, workflow.ErrDataRequestNotFound
	}
	return order, req, nil
}

func loadRequest(tx *gorm.DB, id uint) (*models.DataRequest, error) {
	var req models.DataRequest
	if err := tx.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrDataRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// unblockOrder moves an order waiting on the client back to in_progress
// once none of its requests are pending
func unblockOrder(tx *gorm.DB, orderID uint) error {
	var pending int64
	if err := tx.Model(&models.DataRequest{}).
		Where("order_id = ? AND status = ?", orderID, workflow.DataRequestPending).
		Count(&pending).Error; err != nil {
		return err
	}
	if pending > 0 {
		return nil
	}

	order, err := loadOrder(tx, orderID)
	if err != nil {
		return err
	}
	if order.Status != workflow.StatusAwaitingClientReply {
		return nil
	}
	return saveOrder(tx, order, map[string]interface{}{"status": workflow.StatusInProgress})
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
