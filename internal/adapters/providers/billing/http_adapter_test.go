package billing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmap/restaurantweek/internal/adapters/providers/billing"
	"github.com/mealmap/restaurantweek/internal/domain/providers"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

func TestHTTPAdapter_Check(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/entitlements/check", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, providers.FeatureAdvancedFilters, payload["feature_id"])
		assert.Equal(t, "cust-1", payload["customer_id"])

		json.NewEncoder(w).Encode(map[string]bool{"allowed": true})
	}))
	defer server.Close()

	adapter := billing.NewHTTPAdapter(server.URL, "sk-test")
	result, err := adapter.Check(context.Background(), providers.EntitlementCheck{
		FeatureID:  providers.FeatureAdvancedFilters,
		CustomerID: "cust-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestHTTPAdapter_CheckDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"allowed": false})
	}))
	defer server.Close()

	adapter := billing.NewHTTPAdapter(server.URL, "sk-test")
	result, err := adapter.Check(context.Background(), providers.EntitlementCheck{
		FeatureID: providers.FeatureAdvancedFilters,
	})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestHTTPAdapter_CheckServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := billing.NewHTTPAdapter(server.URL, "sk-test")
	_, err := adapter.Check(context.Background(), providers.EntitlementCheck{
		FeatureID: providers.FeatureAdvancedFilters,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestHTTPAdapter_CheckUnreachable(t *testing.T) {
	adapter := billing.NewHTTPAdapter("http://127.0.0.1:1", "sk-test")
	_, err := adapter.Check(context.Background(), providers.EntitlementCheck{
		FeatureID: providers.FeatureAdvancedFilters,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestMockAdapter(t *testing.T) {
	allow := billing.NewMockAdapter(true)
	result, err := allow.Check(context.Background(), providers.EntitlementCheck{})
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	deny := billing.NewMockAdapter(false)
	result, err = deny.Check(context.Background(), providers.EntitlementCheck{})
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}
