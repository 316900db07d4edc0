package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateUser inserts an active user with the given external id and role
func CreateUser(t *testing.T, db *gorm.DB, externalID string, role workflow.Role) *models.User {
	t.Helper()

	user := &models.User{
		ExternalID: externalID,
		Name:       fmt.Sprintf("%s %s", role, externalID),
		Email:      fmt.Sprintf("%s@example.com", externalID),
		Phone:      "0500000000",
		Role:       role,
		Active:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateService inserts an active catalogue entry
func CreateService(t *testing.T, db *gorm.DB, title string, price float64) *models.Service {
	t.Helper()

	service := &models.Service{
		Title:        title,
		Description:  title + " description",
		Price:        price,
		DurationDays: 7,
		Category:     "admissions",
		Active:       true,
	}
	require.NoError(t, db.Create(service).Error)
	return service
}

// OrderFixture customises CreateOrder
type OrderFixture struct {
	Status       workflow.Status
	SupervisorID *uint
	DelegateID   *uint
}

// CreateOrder inserts an order for clientID without going through the
// order service
func CreateOrder(t *testing.T, db *gorm.DB, clientID uint, f OrderFixture) *models.Order {
	t.Helper()

	if f.Status == "" {
		f.Status = workflow.StatusNew
	}
	now := time.Now()
	order := &models.Order{
		ClientID:             clientID,
		Status:               f.Status,
		TotalPrice:           100,
		PaymentMethod:        "card",
		PaidAt:               &now,
		Metadata:             []byte(`{"services":[],"payment":{"method":"card","submitted_total":100,"paid_at":"2026-01-01T00:00:00Z"}}`),
		AssignedSupervisorID: f.SupervisorID,
		AssignedDelegateID:   f.DelegateID,
		Version:              1,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

// UintPtr returns a pointer to v
func UintPtr(v uint) *uint {
	return &v
}
