package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/services"
	"github.com/kendall-kelly/edu-brokerage-api/testutil"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadContracts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store, _ := setupTestBackends(t)

	client := testutil.CreateUser(t, db, "clientA-0001", workflow.RoleUser)
	order := testutil.CreateOrder(t, db, client.ID, testutil.OrderFixture{})
	router := routeAs(client, http.MethodPost, "/contracts", UploadContracts)

	body, contentType := testutil.MultipartBody(t, map[string]string{"order_id": fmt.Sprint(order.ID)},
		testutil.UploadFile{Field: "contract1", FileName: "signed.pdf", Content: []byte("%PDF-1.4 one")},
		testutil.UploadFile{Field: "contract2", FileName: "annex.pdf", Content: []byte("%PDF-1.4 two")},
	)
	w := serve(router, http.MethodPost, "/contracts", body, contentType)
	require.Equal(t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())

	var contracts []models.Contract
	parseData(t, w, &contracts)
	require.Len(t, contracts, 2)
	for _, c := range contracts {
		require.NotNil(t, c.OrderID)
		assert.Equal(t, order.ID, *c.OrderID)
		assert.True(t, strings.HasPrefix(c.S3Key, fmt.Sprintf("contracts/clients/%d/order-%d/", client.ID, order.ID)), c.S3Key)
		assert.NotEmpty(t, c.URL)
	}
	assert.Len(t, store.GetUploadedFiles(), 2)
}

func TestUploadContracts_Rejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	setupTestBackends(t)

	client := testutil.CreateUser(t, db, "clientA-0001", workflow.RoleUser)
	other := testutil.CreateUser(t, db, "clientB-0002", workflow.RoleUser)
	othersOrder := testutil.CreateOrder(t, db, other.ID, testutil.OrderFixture{})
	router := routeAs(client, http.MethodPost, "/contracts", UploadContracts)

	tests := []struct {
		name           string
		fields         map[string]string
		files          []testutil.UploadFile
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "No contract files",
			fields:         map[string]string{"note": "nothing"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "NO_FILE",
		},
		{
			name:           "Invalid order id",
			fields:         map[string]string{"order_id": "abc"},
			files:          []testutil.UploadFile{{Field: "contract1", FileName: "a.pdf", Content: []byte("%PDF")}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_ID",
		},
		{
			name:           "Another client's order",
			fields:         map[string]string{"order_id": fmt.Sprint(othersOrder.ID)},
			files:          []testutil.UploadFile{{Field: "contract1", FileName: "a.pdf", Content: []byte("%PDF")}},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "FORBIDDEN",
		},
		{
			name:           "Unsupported file type",
			files:          []testutil.UploadFile{{Field: "contract1", FileName: "a.docx", Content: []byte("PK")}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_FILE_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := testutil.MultipartBody(t, tt.fields, tt.files...)
			w := serve(router, http.MethodPost, "/contracts", body, contentType)

			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			assert.Equal(t, tt.expectedCode, errorCode(t, w))
		})
	}

	w := serveJSON(t, router, http.MethodPost, "/contracts", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORM", errorCode(t, w))
}

func TestGetOrderContracts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store, _ := setupTestBackends(t)

	client := testutil.CreateUser(t, db, "clientA-0001", workflow.RoleUser)
	supervisor := testutil.CreateUser(t, db, "super-0001", workflow.RoleSupervisor)
	order := testutil.CreateOrder(t, db, client.ID, testutil.OrderFixture{
		Status:       workflow.StatusAwaitingDelegate,
		SupervisorID: testutil.UintPtr(supervisor.ID),
	})
	path := fmt.Sprintf("/simple-contracts/%d", order.ID)

	lookup := func(user *models.User) (int, services.ContractLookup) {
		router := routeAs(user, http.MethodGet, "/simple-contracts/:id", GetOrderContracts)
		w := serve(router, http.MethodGet, path, nil, "")
		var result services.ContractLookup
		if w.Code == http.StatusOK {
			parseData(t, w, &result)
		}
		return w.Code, result
	}

	status, result := lookup(client)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.ContractSourceNone, result.Source)
	assert.Empty(t, result.Contracts)

	// Files uploaded before contract rows existed are found by listing the folder
	key := fmt.Sprintf("contracts/clientA-/order-%d/contract1_signed.pdf", order.ID)
	store.Put(key, []byte("%PDF"))
	status, result = lookup(supervisor)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.ContractSourceStorage, result.Source)
	require.Len(t, result.Contracts, 1)
	assert.Equal(t, key, result.Contracts[0].S3Key)

	require.NoError(t, db.Create(&models.Contract{
		OrderID: testutil.UintPtr(order.ID), ClientID: client.ID, Kind: models.ContractPrimary,
		FileName: "signed.pdf", S3Key: key,
	}).Error)
	status, result = lookup(client)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, services.ContractSourceOrder, result.Source)

	stranger := testutil.CreateUser(t, db, "clientB-0002", workflow.RoleUser)
	status, _ = lookup(stranger)
	assert.Equal(t, http.StatusForbidden, status)
}
