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

func TestCreateReview(t *testing.T) {
	db := testutil.SetupTestDB(t)

	client := testutil.CreateUser(t, db, "clientA-0001", workflow.RoleUser)
	other := testutil.CreateUser(t, db, "clientB-0002", workflow.RoleUser)
	completed := testutil.CreateOrder(t, db, client.ID, testutil.OrderFixture{Status: workflow.StatusCompleted})
	open := testutil.CreateOrder(t, db, client.ID, testutil.OrderFixture{Status: workflow.StatusInProgress})

	router := routeAs(client, http.MethodPost, "/orders/:id/review", CreateReview)
	path := fmt.Sprintf("/orders/%d/review", completed.ID)

	tests := []struct {
		name           string
		path           string
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{"Rating out of range", path, map[string]interface{}{"rating": 6}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"Missing rating", path, map[string]interface{}{"comment": "ok"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"Order not completed", fmt.Sprintf("/orders/%d/review", open.ID), map[string]interface{}{"rating": 4}, http.StatusConflict, "ORDER_NOT_COMPLETED"},
		{"Unknown order", "/orders/9999/review", map[string]interface{}{"rating": 4}, http.StatusNotFound, "ORDER_NOT_FOUND"},
		{"Success", path, map[string]interface{}{"rating": 5, "comment": "  Very helpful  "}, http.StatusCreated, ""},
		{"Second review", path, map[string]interface{}{"rating": 3}, http.StatusConflict, "REVIEW_EXISTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveJSON(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(t, w))
			}
		})
	}

	var stored models.Review
	require.NoError(t, db.First(&stored, "order_id = ?", completed.ID).Error)
	assert.Equal(t, "Very helpful", stored.Comment)
	assert.False(t, stored.IsApproved)

	w := serveJSON(t, routeAs(other, http.MethodPost, "/orders/:id/review", CreateReview), http.MethodPost, path, map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReviewModeration(t *testing.T) {
	db := testutil.SetupTestDB(t)

	admin := testutil.CreateUser(t, db, "admin-0001", workflow.RoleAdmin)
	client := testutil.CreateUser(t, db, "clientA-0001", workflow.RoleUser)
	require.NoError(t, db.Model(client).Update("name", "Sara Al Harbi").Error)
	first := testutil.CreateOrder(t, db, client.ID, testutil.OrderFixture{Status: workflow.StatusCompleted})
	second := testutil.CreateOrder(t, db, client.ID, testutil.OrderFixture{Status: workflow.StatusCompleted})

	reviews := make([]models.Review, 0, 2)
	for _, order := range []*models.Order{first, second} {
		r := models.Review{OrderID: order.ID, ClientID: client.ID, Rating: 5, Comment: "Great"}
		require.NoError(t, db.Omit("Client").Create(&r).Error)
		reviews = append(reviews, r)
	}

	public := setupTestRouter()
	public.GET("/reviews", ListReviews)
	listPublic := func(query string) []PublicReview {
		w := serve(public, http.MethodGet, "/reviews"+query, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var out []PublicReview
		parseData(t, w, &out)
		return out
	}

	assert.Empty(t, listPublic(""))

	moderate := routeAs(admin, http.MethodPatch, "/admin/reviews/:id", AdminUpdateReview)
	w := serveJSON(t, moderate, http.MethodPatch, fmt.Sprintf("/admin/reviews/%d", reviews[0].ID), map[string]bool{"is_approved": true, "is_featured": true})
	require.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	w = serveJSON(t, moderate, http.MethodPatch, fmt.Sprintf("/admin/reviews/%d", reviews[1].ID), map[string]bool{"is_approved": true})
	require.Equal(t, http.StatusOK, w.Code)

	all := listPublic("")
	require.Len(t, all, 2)
	assert.Equal(t, "Sara", all[0].ClientName)

	featured := listPublic("?featured=true")
	require.Len(t, featured, 1)
	assert.Equal(t, reviews[0].ID, featured[0].ID)

	w = serveJSON(t, moderate, http.MethodPatch, "/admin/reviews/9999", map[string]bool{"is_approved": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REVIEW_NOT_FOUND", errorCode(t, w))
}
