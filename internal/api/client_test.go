package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirana/internal/models"
)

func TestListOrdersDecodesEnvelope(t *testing.T) {
	var gotAuth, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"_id":"o2","orderNumber":"KIR-2","status":"Pending","orderType":"Delivery","totalAmt":120},{"_id":"o1","orderNumber":"KIR-1","status":"Delivered","orderType":"Takeout","totalAmt":80}]}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "tok-123")
	orders, err := client.ListOrders(context.Background(), Filters{Status: models.StatusPending, Page: 1, Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "limit=5&page=1&status=Pending", gotQuery)
	require.Len(t, orders, 2)
	assert.Equal(t, "KIR-2", orders[0].OrderNumber)
	assert.Equal(t, models.StatusPending, orders[0].Status)
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "expired")
	_, err := client.ListOrders(context.Background(), Filters{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = client.UpdateStatus(context.Background(), "KIR-1", models.StatusConfirmed)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetOrderNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")
	_, err := client.GetOrder(context.Background(), "KIR-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusSendsBody(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")
	err := client.UpdateStatus(context.Background(), "KIR-7", models.StatusPreparing)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/orders/KIR-7/status", gotPath)
	assert.JSONEq(t, `{"status":"Preparing"}`, gotBody)
}

func TestAssignPersonnelValidatesLocally(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")

	err := client.AssignPersonnel(context.Background(), "KIR-1", models.Personnel{Role: models.RolePicker})
	assert.Error(t, err, "empty name must be rejected before the backend is called")

	err = client.AssignPersonnel(context.Background(), "KIR-1", models.Personnel{Name: "Asha", Role: "Janitor"})
	assert.Error(t, err, "unknown role must be rejected before the backend is called")
	assert.False(t, called)

	err = client.AssignPersonnel(context.Background(), "KIR-1", models.Personnel{Name: "Asha", Role: models.RolePicker})
	assert.NoError(t, err)
	assert.True(t, called)
}
