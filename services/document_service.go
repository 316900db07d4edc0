package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/utils"
)

// StoredFile describes an object written by DocumentService
type StoredFile struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
}

// DocumentService handles validated document upload, signed retrieval and deletion
type DocumentService interface {
	// Upload validates fileHeader and stores it under key
	Upload(ctx context.Context, key string, fileHeader *multipart.FileHeader) (*StoredFile, error)

	// URL returns a signed URL valid for the configured TTL
	URL(ctx context.Context, key string) (string, error)

	// List returns the keys stored under prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a document from storage
	Delete(ctx context.Context, key string) error
}

// S3DocumentService implements DocumentService using an S3Interface backend
type S3DocumentService struct {
	s3Service S3Interface
	ttl       time.Duration
}

var documentServiceInstance DocumentService

// InitDocumentService initializes the document service with an S3 backend
func InitDocumentService(s3Service S3Interface, ttl time.Duration) DocumentService {
	documentServiceInstance = NewDocumentService(s3Service, ttl)
	return documentServiceInstance
}

// NewDocumentService builds a DocumentService without touching the global instance
func NewDocumentService(s3Service S3Interface, ttl time.Duration) *S3DocumentService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &S3DocumentService{s3Service: s3Service, ttl: ttl}
}

// GetDocumentService returns the initialized document service instance
func GetDocumentService() DocumentService {
	return documentServiceInstance
}

// SetDocumentService sets the document service instance (primarily for testing)
func SetDocumentService(service DocumentService) {
	documentServiceInstance = service
}

// Upload validates and uploads a document to S3
func (s *S3DocumentService) Upload(ctx context.Context, key string, fileHeader *multipart.FileHeader) (*StoredFile, error) {
	if err := utils.ValidateDocumentFile(fileHeader); err != nil {
		return nil, err
	}

	contentType := utils.ContentTypeFor(fileHeader.Filename)
	if err := s.s3Service.UploadFile(ctx, key, contentType, fileHeader); err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	return &StoredFile{
		Key:         key,
		FileName:    utils.SanitizeFileName(fileHeader.Filename),
		ContentType: contentType,
		Size:        fileHeader.Size,
	}, nil
}

// URL generates a presigned URL for accessing a document
func (s *S3DocumentService) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, key, s.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to generate document URL: %w", err)
	}

	return url, nil
}

// List returns the keys stored under prefix
func (s *S3DocumentService) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.s3Service.ListKeys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return keys, nil
}

// Delete deletes a document from S3
func (s *S3DocumentService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}
