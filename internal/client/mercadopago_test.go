package client

import (
	"context"
	"elearning-storefront/internal/config"
	"elearning-storefront/internal/model"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mpTestClient(t *testing.T, handler http.HandlerFunc) MercadoPagoClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewMercadoPagoClient(&config.MercadoPago{
		BaseAPIURL:  srv.URL,
		AccessToken: "TEST-token",
	})
}

func TestGetPayment(t *testing.T) {
	c := mpTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/123456", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 123456,
			"status": "approved",
			"external_reference": "intro-course",
			"transaction_amount": 5000,
			"payer": {"email": "a@x.com"}
		}`))
	})

	payment, err := c.GetPayment(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusApproved, payment.Status)
	assert.Equal(t, "intro-course", payment.ExternalReference)
	assert.Equal(t, "a@x.com", payment.Payer.Email)
	assert.Equal(t, float64(5000), payment.TransactionAmount)
}

func TestGetPayment_NotFound(t *testing.T) {
	c := mpTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Payment not found"}`))
	})

	_, err := c.GetPayment(context.Background(), "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestCreatePreference(t *testing.T) {
	c := mpTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))

		var pref model.PreferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&pref))
		assert.Equal(t, "intro-course", pref.ExternalReference)
		assert.Equal(t, "a@x.com", pref.Payer.Email)
		require.Len(t, pref.Items, 1)
		assert.Equal(t, float64(5000), pref.Items[0].UnitPrice)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "pref-1", "init_point": "https://mp.example/init"}`))
	})

	result, err := c.CreatePreference(context.Background(), &model.PreferenceRequest{
		Items: []model.PreferenceItem{
			{ID: "intro-course", Title: "Intro", Quantity: 1, UnitPrice: 5000, CurrencyID: "ARS"},
		},
		Payer:             model.PreferencePayer{Email: "a@x.com"},
		ExternalReference: "intro-course",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", result.ID)
	assert.Equal(t, "https://mp.example/init", result.InitPoint)
}
