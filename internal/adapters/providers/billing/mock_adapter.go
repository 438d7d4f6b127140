package billing

import (
	"context"

	"github.com/mealmap/restaurantweek/internal/domain/providers"
)

// MockAdapter is a BillingProvider for development and tests. It answers
// every check with a fixed verdict.
type MockAdapter struct {
	allowed bool
}

// NewMockAdapter creates a mock billing adapter with a fixed verdict
func NewMockAdapter(allowed bool) providers.BillingProvider {
	return &MockAdapter{allowed: allowed}
}

// Check returns the configured verdict
func (a *MockAdapter) Check(_ context.Context, _ providers.EntitlementCheck) (*providers.EntitlementResult, error) {
	return &providers.EntitlementResult{Allowed: a.allowed}, nil
}
