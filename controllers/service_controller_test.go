package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/kendall-kelly/edu-brokerage-api/models"
	"github.com/kendall-kelly/edu-brokerage-api/testutil"
	"github.com/kendall-kelly/edu-brokerage-api/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListServices_ActiveOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)

	testutil.CreateService(t, db, "Application review", 150)
	hidden := testutil.CreateService(t, db, "Visa pack", 300)
	require.NoError(t, db.Model(hidden).Update("active", false).Error)
	other := testutil.CreateService(t, db, "Language test", 80)
	require.NoError(t, db.Model(other).Update("category", "testing").Error)

	router := setupTestRouter()
	router.GET("/services", ListServices)

	w := serve(router, http.MethodGet, "/services", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Service
	parseData(t, w, &list)
	assert.Len(t, list, 2)

	w = serve(router, http.MethodGet, "/services?category=testing", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	parseData(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Language test", list[0].Title)
}

func TestAdminServiceCRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	admin := testutil.CreateUser(t, db, "admin-0001", workflow.RoleAdmin)

	create := routeAs(admin, http.MethodPost, "/admin/services", CreateService)
	w := serveJSON(t, create, http.MethodPost, "/admin/services", map[string]interface{}{
		"title": "Essay editing", "price": 99.5, "duration_days": 3, "category": "writing",
	})
	require.Equal(t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())
	var created models.Service
	parseData(t, w, &created)
	assert.True(t, created.Active)
	assert.Equal(t, 99.5, created.Price)

	w = serveJSON(t, create, http.MethodPost, "/admin/services", map[string]interface{}{"price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	details := parseResponse(t, w).Error.Details
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "price")

	update := routeAs(admin, http.MethodPut, "/admin/services/:id", UpdateService)
	w = serveJSON(t, update, http.MethodPut, fmt.Sprintf("/admin/services/%d", created.ID), map[string]interface{}{"active": false, "price": 120})
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	var updated models.Service
	parseData(t, w, &updated)
	assert.False(t, updated.Active)
	assert.Equal(t, 120.0, updated.Price)
	assert.Equal(t, "Essay editing", updated.Title)

	w = serveJSON(t, update, http.MethodPut, "/admin/services/9999", map[string]interface{}{"price": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SERVICE_NOT_FOUND", errorCode(t, w))

	list := routeAs(admin, http.MethodGet, "/admin/services", AdminListServices)
	w = serve(list, http.MethodGet, "/admin/services", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Service
	parseData(t, w, &all)
	assert.Len(t, all, 1)

	del := routeAs(admin, http.MethodDelete, "/admin/services/:id", DeleteService)
	w = serve(del, http.MethodDelete, fmt.Sprintf("/admin/services/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":true`)

	var count int64
	db.Unscoped().Model(&models.Service{}).Where("id = ?", created.ID).Count(&count)
	assert.Equal(t, int64(1), count, "delete should be soft")

	w = serve(del, http.MethodDelete, fmt.Sprintf("/admin/services/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SERVICE_NOT_FOUND", errorCode(t, w))
}
