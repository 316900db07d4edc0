package services

import (
	"context"
	"time"

	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/testutil"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// serviceSuite gives every test a fresh database, an in-memory bucket and
// one user per role
type serviceSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	notifier *RecordingNotifier
	s3       *MockS3Service
	docs     *S3DocumentService

	admin           *models.User
	supervisor      *models.User
	otherSupervisor *models.User
	delegate        *models.User
	otherDelegate   *models.User
	client          *models.User
	otherClient     *models.User
}

func (s *serviceSuite) SetupTest() {
	testutil.RequireTestEnvironment(s.T())

	s.ctx = context.Background()
	s.db = testutil.SetupTestDB(s.T())
	s.notifier = &RecordingNotifier{}
	s.s3 = NewMockS3Service()
	s.docs = NewDocumentService(s.s3, 15*time.Minute)

	s.admin = testutil.CreateUser(s.T(), s.db, "admin-0001", workflow.RoleAdmin)
	s.supervisor = testutil.CreateUser(s.T(), s.db, "super-0001", workflow.RoleSupervisor)
	s.otherSupervisor = testutil.CreateUser(s.T(), s.db, "super-0002", workflow.RoleSupervisor)
	s.delegate = testutil.CreateUser(s.T(), s.db, "deleg-0001", workflow.RoleDelegate)
	s.otherDelegate = testutil.CreateUser(s.T(), s.db, "deleg-0002", workflow.RoleDelegate)
	s.client = testutil.CreateUser(s.T(), s.db, "clientA-0001", workflow.RoleUser)
	s.otherClient = testutil.CreateUser(s.T(), s.db, "clientB-0002", workflow.RoleUser)
}

func (s *serviceSuite) orders() *OrderService {
	return NewOrderService(s.db, s.notifier)
}

func (s *serviceSuite) reload(id uint) models.Order {
	var order models.Order
	s.Require().NoError(s.db.First(&order, id).Error)
	return order
}

// claimedOrder returns an order claimed by s.supervisor, optionally with s.delegate
func (s *serviceSuite) claimedOrder(withDelegate bool) *models.Order {
	f := testutil.OrderFixture{Status: workflow.StatusAwaitingDelegate, SupervisorID: &s.supervisor.ID}
	if withDelegate {
		f.Status = workflow.StatusInProgress
		f.DelegateID = &s.delegate.ID
	}
	return testutil.CreateOrder(s.T(), s.db, s.client.ID, f)
}

func (s *serviceSuite) countNotifications(kind string, recipient uint) int64 {
	var n int64
	s.Require().NoError(s.db.Model(&models.Notification{}).
		Where("type = ? AND recipient_id = ?", kind, recipient).Count(&n).Error)
	return n
}

func (s *serviceSuite) requireCode(err error, code string) {
	s.T().Helper()
	s.Require().Error(err)
	var werr *workflow.Error
	s.Require().ErrorAs(err, &werr)
	s.Equal(code, werr.Code)
}
