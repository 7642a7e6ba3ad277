package client

import (
	"bytes"
	"context"
	"elearning-storefront/internal/config"
	"elearning-storefront/internal/model"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type MercadoPagoClient interface {
	GetPayment(ctx context.Context, paymentID string) (*model.Payment, error)
	CreatePreference(ctx context.Context, pref *model.PreferenceRequest) (*model.Preference, error)
}

type mercadoPagoClientImpl struct {
	httpClient  *http.Client
	baseApiURL  string
	accessToken string
}

func NewMercadoPagoClient(mpCfg *config.MercadoPago) MercadoPagoClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.HTTPClient.Timeout = 15 * time.Second

	return &mercadoPagoClientImpl{
		httpClient:  rc.StandardClient(),
		baseApiURL:  strings.TrimRight(mpCfg.BaseAPIURL, "/"),
		accessToken: mpCfg.AccessToken,
	}
}

func (c *mercadoPagoClientImpl) GetPayment(ctx context.Context, paymentID string) (*model.Payment, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseApiURL, paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mercado pago error %d: %s", resp.StatusCode, string(b))
	}

	var payment model.Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}

	return &payment, nil
}

func (c *mercadoPagoClientImpl) CreatePreference(ctx context.Context, pref *model.PreferenceRequest) (*model.Preference, error) {
	body, err := json.Marshal(pref)
	if err != nil {
		return nil, fmt.Errorf("marshal preference payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/checkout/preferences",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create preference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mercado pago error %d: %s", resp.StatusCode, string(b))
	}

	var result model.Preference
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode preference response: %w", err)
	}

	return &result, nil
}
