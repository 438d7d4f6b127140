package providers

import (
	"context"
)

// FeatureAdvancedFilters gates combining more than one filter dimension
// in a single bounded query
const FeatureAdvancedFilters = "advanced-filters"

// EntitlementCheck is a request to verify feature access for a customer
type EntitlementCheck struct {
	FeatureID  string `json:"feature_id"`
	CustomerID string `json:"customer_id,omitempty"`
}

// EntitlementResult is the billing service's decision
type EntitlementResult struct {
	Allowed bool `json:"allowed"`
}

// BillingProvider defines the interface to the external billing /
// entitlement service
type BillingProvider interface {
	// Check verifies whether the customer may use the feature
	Check(ctx context.Context, check EntitlementCheck) (*EntitlementResult, error)
}
