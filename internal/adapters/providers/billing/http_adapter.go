package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mealmap/restaurantweek/internal/domain/providers"
	apperrors "github.com/mealmap/restaurantweek/pkg/errors"
)

// HTTPAdapter implements BillingProvider against a hosted billing service's
// entitlement check endpoint
type HTTPAdapter struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewHTTPAdapter creates a new HTTP billing adapter
func NewHTTPAdapter(baseURL, secretKey string) providers.BillingProvider {
	return &HTTPAdapter{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Check asks the billing service whether the customer is entitled to a feature
func (a *HTTPAdapter) Check(ctx context.Context, check providers.EntitlementCheck) (*providers.EntitlementResult, error) {
	payload := map[string]string{
		"feature_id":  check.FeatureID,
		"customer_id": check.CustomerID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal entitlement check", err)
	}

	url := fmt.Sprintf("%s/v1/entitlements/check", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build entitlement request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.secretKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("billing service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("billing service error: status %d", resp.StatusCode), nil)
	}

	var result struct {
		Allowed bool `json:"allowed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewExternalError("failed to decode entitlement response", err)
	}

	return &providers.EntitlementResult{Allowed: result.Allowed}, nil
}
