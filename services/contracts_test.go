package services

import (
	"fmt"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/testutil"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"github.com/stretchr/testify/suite"
)

type ContractServiceSuite struct {
	serviceSuite
}

func TestContractServiceSuite(t *testing.T) {
	suite.Run(t, new(ContractServiceSuite))
}

func (s *ContractServiceSuite) contracts() *ContractService {
	return NewContractService(s.db, s.docs)
}

func (s *ContractServiceSuite) files(kinds ...string) map[string]*multipart.FileHeader {
	out := map[string]*multipart.FileHeader{}
	for _, kind := range kinds {
		out[kind] = testutil.FileHeader(s.T(), "signed "+kind+".pdf", []byte("%PDF-"+kind))
	}
	return out
}

func TestClientFolder(t *testing.T) {
	if got := ClientFolder(42); got != "clients/42" {
		t.Errorf("ClientFolder(42) = %q, want %q", got, "clients/42")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"auth0|65f0c0ffee", "auth0_65"},
		{"short", "short"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := LegacyClientFolder(tt.in); got != tt.want {
			t.Errorf("LegacyClientFolder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func (s *ContractServiceSuite) TestUpload_WithoutOrderThenLinkedByCreate() {
	uploaded, err := s.contracts().Upload(s.ctx, s.client, nil, s.files(models.ContractPrimary, models.ContractSecondary))
	s.Require().NoError(err)
	s.Require().Len(uploaded, 2)
	for _, c := range uploaded {
		s.Nil(c.OrderID)
		s.True(strings.HasPrefix(c.S3Key, fmt.Sprintf("contracts/clients/%d/order-pending-", s.client.ID)), c.S3Key)
		s.True(s.s3.FileExists(c.S3Key))
		s.Contains(c.URL, "mock=true")
	}
	s.Equal(models.ContractPrimary, uploaded[0].Kind)
	s.Equal("signed_contract1.pdf", uploaded[0].FileName)

	service := testutil.CreateService(s.T(), s.db, "Tutoring", 100)
	result, err := s.orders().Create(s.ctx, s.client, CreateOrderInput{ServiceIDs: []uint{service.ID}, PaymentMethod: "card", TotalPrice: 100})
	s.Require().NoError(err)
	s.Equal(int64(2), result.LinkedContracts)

	lookup, err := s.contracts().Lookup(s.ctx, s.client.Caller(), result.Order.ID)
	s.Require().NoError(err)
	s.Equal(ContractSourceOrder, lookup.Source)
	s.Len(lookup.Contracts, 2)
}

func (s *ContractServiceSuite) TestUpload_ForOrder() {
	order := s.claimedOrder(false)

	uploaded, err := s.contracts().Upload(s.ctx, s.client, &order.ID, s.files(models.ContractPrimary))
	s.Require().NoError(err)
	s.Require().Len(uploaded, 1)
	s.Equal(fmt.Sprintf("contracts/clients/%d/order-%d/contract1_signed_contract1.pdf", s.client.ID, order.ID), uploaded[0].S3Key)
	s.Require().NotNil(uploaded[0].OrderID)
	s.Equal(order.ID, *uploaded[0].OrderID)

	_, err = s.contracts().Upload(s.ctx, s.otherClient, &order.ID, s.files(models.ContractPrimary))
	s.requireCode(err, "FORBIDDEN")
}

func (s *ContractServiceSuite) TestUpload_Rejections() {
	_, err := s.contracts().Upload(s.ctx, s.client, nil, map[string]*multipart.FileHeader{})
	s.requireCode(err, "NO_FILE")

	s.s3.FailUploads = true
	_, err = s.contracts().Upload(s.ctx, s.client, nil, s.files(models.ContractPrimary))
	var storageErr *StorageError
	s.Require().ErrorAs(err, &storageErr)

	var count int64
	s.Require().NoError(s.db.Model(&models.Contract{}).Count(&count).Error)
	s.Zero(count)
}

func (s *ContractServiceSuite) TestLookup_ClientTier() {
	order := s.claimedOrder(false)
	pending := models.Contract{ClientID: s.client.ID, Kind: models.ContractPrimary, FileName: "c1.pdf", S3Key: "contracts/clientA-/order-pending-1/contract1_c1.pdf"}
	s.Require().NoError(s.db.Create(&pending).Error)
	s.s3.Put(pending.S3Key, []byte("%PDF"))

	lookup, err := s.contracts().Lookup(s.ctx, s.supervisor.Caller(), order.ID)
	s.Require().NoError(err)
	s.Equal(ContractSourceClient, lookup.Source)
	s.Require().Len(lookup.Contracts, 1)
	s.Contains(lookup.Contracts[0].URL, "X-Amz-Expires=900")
	s.Equal(order.ID, lookup.Order.ID)
}

func (s *ContractServiceSuite) TestLookup_StorageTierPrefersOwnFolder() {
	order := s.claimedOrder(false)
	previous := s.claimedOrder(false)
	own := fmt.Sprintf("contracts/clientA-/order-%d/", order.ID)
	s.s3.Put(fmt.Sprintf("contracts/clientA-/order-%d/contract1_old.pdf", previous.ID), []byte("old"))
	s.s3.Put(own+"contract2_b.pdf", []byte("b"))
	s.s3.Put(own+"contract1_a.pdf", []byte("a"))
	s.s3.Put(own+"nested/contract1_x.pdf", []byte("x"))
	s.s3.Put("contracts/clientB-/order-9/contract1_other.pdf", []byte("other"))

	lookup, err := s.contracts().Lookup(s.ctx, s.client.Caller(), order.ID)
	s.Require().NoError(err)
	s.Equal(ContractSourceStorage, lookup.Source)
	s.Require().Len(lookup.Contracts, 2)
	s.Equal(own+"contract1_a.pdf", lookup.Contracts[0].S3Key)
	s.Equal(models.ContractPrimary, lookup.Contracts[0].Kind)
	s.Equal(own+"contract2_b.pdf", lookup.Contracts[1].S3Key)
	s.Equal(models.ContractSecondary, lookup.Contracts[1].Kind)
	s.NotEmpty(lookup.Contracts[1].URL)
}

func (s *ContractServiceSuite) TestLookup_StorageTierFallsBackToClientFolders() {
	order := s.claimedOrder(false)
	folder := fmt.Sprintf("contracts/clients/%d/", s.client.ID)
	s.s3.Put(folder+"order-pending-abc/contract1_a.pdf", []byte("a"))
	s.s3.Put(folder+"notes.txt", []byte("ignored"))
	s.s3.Put("contracts/clientA-/order-pending-old/contract1_legacy.pdf", []byte("legacy"))

	lookup, err := s.contracts().Lookup(s.ctx, s.client.Caller(), order.ID)
	s.Require().NoError(err)
	s.Equal(ContractSourceStorage, lookup.Source)
	s.Require().Len(lookup.Contracts, 1)
	s.Equal("contract1_a.pdf", lookup.Contracts[0].FileName)
}

func (s *ContractServiceSuite) TestLookup_SharedLegacyFolderStaysPerClient() {
	alice := testutil.CreateUser(s.T(), s.db, "auth0|65aaaaaaaaaa", workflow.RoleUser)
	bob := testutil.CreateUser(s.T(), s.db, "auth0|65bbbbbbbbbb", workflow.RoleUser)
	s.Require().Equal(LegacyClientFolder(alice.ExternalID), LegacyClientFolder(bob.ExternalID))

	aliceOrder := testutil.CreateOrder(s.T(), s.db, alice.ID, testutil.OrderFixture{})
	aliceEarlier := testutil.CreateOrder(s.T(), s.db, alice.ID, testutil.OrderFixture{})
	bobOrder := testutil.CreateOrder(s.T(), s.db, bob.ID, testutil.OrderFixture{})

	// Bob's new upload lands in his own folder, and its row is his alone
	_, err := s.contracts().Upload(s.ctx, bob, nil, s.files(models.ContractPrimary))
	s.Require().NoError(err)

	lookup, err := s.contracts().Lookup(s.ctx, alice.Caller(), aliceOrder.ID)
	s.Require().NoError(err)
	s.Equal(ContractSourceNone, lookup.Source)
	s.Empty(lookup.Contracts)

	shared := "contracts/" + LegacyClientFolder(alice.ExternalID) + "/"
	s.s3.Put(shared+"order-pending-1234/contract1_bob.pdf", []byte("bob"))
	s.s3.Put(fmt.Sprintf("%sorder-%d/contract1_bob.pdf", shared, bobOrder.ID), []byte("bob"))
	s.s3.Put(fmt.Sprintf("%sorder-%d/contract1_alice.pdf", shared, aliceEarlier.ID), []byte("alice"))

	lookup, err = s.contracts().Lookup(s.ctx, alice.Caller(), aliceOrder.ID)
	s.Require().NoError(err)
	s.Equal(ContractSourceStorage, lookup.Source)
	s.Require().Len(lookup.Contracts, 1)
	s.Equal("contract1_alice.pdf", lookup.Contracts[0].FileName)
	s.Equal(alice.ID, lookup.Contracts[0].ClientID)

	// Bob's order folder in the shared prefix is still his
	lookup, err = s.contracts().Lookup(s.ctx, bob.Caller(), bobOrder.ID)
	s.Require().NoError(err)
	s.Equal(ContractSourceClient, lookup.Source)
	for _, c := range lookup.Contracts {
		s.NotContains(c.S3Key, "alice")
	}
}

func (s *ContractServiceSuite) TestLookup_NoneAndAccess() {
	order := s.claimedOrder(true)

	lookup, err := s.contracts().Lookup(s.ctx, s.delegate.Caller(), order.ID)
	s.Require().NoError(err)
	s.Equal(ContractSourceNone, lookup.Source)
	s.Empty(lookup.Contracts)

	for _, caller := range []workflow.Caller{s.otherClient.Caller(), s.otherSupervisor.Caller(), s.otherDelegate.Caller()} {
		_, err := s.contracts().Lookup(s.ctx, caller, order.ID)
		s.requireCode(err, "FORBIDDEN")
	}

	_, err = s.contracts().Lookup(s.ctx, s.admin.Caller(), 9999)
	s.requireCode(err, "ORDER_NOT_FOUND")
}
