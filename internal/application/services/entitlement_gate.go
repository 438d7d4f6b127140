package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mealmap/restaurantweek/internal/domain/providers"
	"github.com/mealmap/restaurantweek/internal/domain/repositories"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

// EntitlementGate enforces the premium boundary on bounded queries.
// Combining more than one filter dimension requires the advanced-filters
// entitlement; a single dimension (or none) is free for everyone.
//
// The gate fails closed: when the billing provider errors or is absent,
// gated queries are refused rather than silently allowed.
type EntitlementGate struct {
	billing providers.BillingProvider
}

// NewEntitlementGate creates a new entitlement gate
func NewEntitlementGate(billing providers.BillingProvider) *EntitlementGate {
	return &EntitlementGate{billing: billing}
}

// Authorize verifies the caller may run a query with the given filter.
// Returns nil when allowed, a PremiumRequired error when not.
func (g *EntitlementGate) Authorize(ctx context.Context, filter repositories.BoundsFilter, customerID string) error {
	if FilterDimensionCount(filter) <= 1 {
		return nil
	}

	if g.billing == nil {
		return apperrors.NewPremiumRequiredError("combining filters requires the advanced-filters feature")
	}

	result, err := g.billing.Check(ctx, providers.EntitlementCheck{
		FeatureID:  providers.FeatureAdvancedFilters,
		CustomerID: customerID,
	})
	if err != nil {
		log.Warn().Err(err).Msg("entitlement check failed, refusing gated query")
		return apperrors.NewPremiumRequiredError("combining filters requires the advanced-filters feature")
	}
	if !result.Allowed {
		return apperrors.NewPremiumRequiredError("combining filters requires the advanced-filters feature")
	}

	return nil
}
