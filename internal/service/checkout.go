package service

import (
	"context"
	"elearning-storefront/internal/client"
	"elearning-storefront/internal/dto"
	"elearning-storefront/internal/model"
	"elearning-storefront/internal/repository"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CheckoutService creates Mercado Pago payment preferences for course
// purchases. The external reference and payer email set here are what the
// entitlement reconciler reads back from the payment later.
type CheckoutService interface {
	CreateCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	CredentialsStatus() *dto.CredentialsStatus
}

type checkoutServiceImpl struct {
	payments    client.MercadoPagoClient
	orderRepo   repository.OrderRepository
	logger      *zap.SugaredLogger
	baseURL     string
	accessToken string
}

func NewCheckoutService(
	payments client.MercadoPagoClient,
	orderRepo repository.OrderRepository,
	logger *zap.SugaredLogger,
	baseURL string,
	accessToken string,
) CheckoutService {
	return &checkoutServiceImpl{
		payments:    payments,
		orderRepo:   orderRepo,
		logger:      logger,
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
	}
}

func (s *checkoutServiceImpl) CreateCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if req.CourseID == "" {
		return nil, fmt.Errorf("%w: missing course id", ErrInvalidPayload)
	}
	if !strings.Contains(req.UserEmail, "@") {
		return nil, fmt.Errorf("%w: missing or invalid user email", ErrInvalidPayload)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidPayload)
	}

	pref := &model.PreferenceRequest{
		Items: []model.PreferenceItem{
			{
				ID:         req.CourseID,
				Title:      req.Title,
				Quantity:   1,
				UnitPrice:  req.Price,
				CurrencyID: "ARS",
			},
		},
		Payer: model.PreferencePayer{
			Email: req.UserEmail,
		},
		// echoed back on the payment, identifies the purchased course
		ExternalReference: req.CourseID,
		NotificationURL:   s.baseURL + "/api/webhooks/mercadopago",
		BackURLs: model.BackURLs{
			Success: s.baseURL + "/courses?payment=success",
			Failure: s.baseURL + "/courses?payment=failure",
			Pending: s.baseURL + "/courses?payment=pending",
		},
		AutoReturn: "approved",
	}

	result, err := s.payments.CreatePreference(ctx, pref)
	if err != nil {
		return nil, fmt.Errorf("%w: create preference: %v", ErrUpstream, err)
	}

	order := &model.Order{
		PreferenceID: result.ID,
		CourseRef:    req.CourseID,
		PayerEmail:   req.UserEmail,
		Amount:       req.Price,
		Currency:     "ARS",
		Status:       model.OrderStatusCreated,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		// the preference exists on the provider side, surface the url anyway
		s.logger.Errorw("store order", "preference_id", result.ID, "error", err)
	}

	s.logger.Infow("preference created",
		"preference_id", result.ID, "course", req.CourseID, "email", req.UserEmail)

	return &dto.CheckoutResponse{
		URL:          result.InitPoint,
		PreferenceID: result.ID,
	}, nil
}

func (s *checkoutServiceImpl) CredentialsStatus() *dto.CredentialsStatus {
	status := &dto.CredentialsStatus{
		Configured: s.accessToken != "",
	}
	if !status.Configured {
		return status
	}

	switch {
	case strings.HasPrefix(s.accessToken, "TEST-"):
		status.TokenType = "TEST"
		status.IsTest = true
	case strings.HasPrefix(s.accessToken, "APP_USR-"):
		status.TokenType = "PRODUCTION"
	default:
		status.TokenType = "UNKNOWN"
	}
	return status
}
