package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmap/restaurantweek/internal/application/services"
	"github.com/mealmap/restaurantweek/internal/domain/providers"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

// mockBilling answers entitlement checks with a fixed verdict or error
type mockBilling struct {
	allowed bool
	err     error
	calls   int
	last    providers.EntitlementCheck
}

func (m *mockBilling) Check(_ context.Context, check providers.EntitlementCheck) (*providers.EntitlementResult, error) {
	m.calls++
	m.last = check
	if m.err != nil {
		return nil, m.err
	}
	return &providers.EntitlementResult{Allowed: m.allowed}, nil
}

func singleDimFilter() repositories.BoundsFilter {
	return repositories.BoundsFilter{Brunch: repositories.PriceBound{Min: fptr(10)}}
}

func twoDimFilter() repositories.BoundsFilter {
	return repositories.BoundsFilter{
		Brunch:     repositories.PriceBound{Min: fptr(10)},
		Categories: []string{"American", "Thai"},
	}
}

func TestEntitlementGate_SingleDimensionSkipsBilling(t *testing.T) {
	billing := &mockBilling{allowed: false}
	gate := services.NewEntitlementGate(billing)

	err := gate.Authorize(context.Background(), singleDimFilter(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 0, billing.calls)

	err = gate.Authorize(context.Background(), repositories.BoundsFilter{}, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 0, billing.calls)
}

func TestEntitlementGate_CombinedFiltersRequireEntitlement(t *testing.T) {
	billing := &mockBilling{allowed: true}
	gate := services.NewEntitlementGate(billing)

	err := gate.Authorize(context.Background(), twoDimFilter(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 1, billing.calls)
	assert.Equal(t, providers.FeatureAdvancedFilters, billing.last.FeatureID)
	assert.Equal(t, "cust-1", billing.last.CustomerID)
}

func TestEntitlementGate_DeniedVerdict(t *testing.T) {
	billing := &mockBilling{allowed: false}
	gate := services.NewEntitlementGate(billing)

	err := gate.Authorize(context.Background(), twoDimFilter(), "cust-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePremiumRequired))
}

func TestEntitlementGate_FailsClosedOnBillingError(t *testing.T) {
	billing := &mockBilling{err: errors.New("billing down")}
	gate := services.NewEntitlementGate(billing)

	err := gate.Authorize(context.Background(), twoDimFilter(), "cust-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePremiumRequired))
}

func TestEntitlementGate_FailsClosedWithoutProvider(t *testing.T) {
	gate := services.NewEntitlementGate(nil)

	// Gated queries are refused outright
	err := gate.Authorize(context.Background(), twoDimFilter(), "cust-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePremiumRequired))

	// Ungated queries still pass
	require.NoError(t, gate.Authorize(context.Background(), singleDimFilter(), "cust-1"))
}
