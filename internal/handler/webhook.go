package handler

import (
	"elearning-storefront/internal/dto"
	"elearning-storefront/internal/model"
	"elearning-storefront/internal/service"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	entitlements service.EntitlementService
	logger       *zap.SugaredLogger
}

func NewWebhookHandler(entitlements service.EntitlementService, logger *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{
		entitlements: entitlements,
		logger:       logger,
	}
}

// HandleMercadoPago receives asynchronous payment notifications. Deliberate
// no-ops (non-payment type, non-approved status, already-owned course) are
// acknowledged with 200 so Mercado Pago stops redelivering; only genuine
// failures surface as 4xx/5xx.
func (h *WebhookHandler) HandleMercadoPago(c echo.Context) error {
	ctx := c.Request().Context()

	var notification model.WebhookNotification
	if err := c.Bind(&notification); err != nil {
		return c.JSON(http.StatusBadRequest, &dto.ErrorResponse{Error: "invalid notification payload"})
	}

	if err := h.entitlements.HandleNotification(ctx, &notification); err != nil {
		h.logger.Errorw("webhook processing failed", "error", err)

		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			return c.JSON(http.StatusBadRequest, &dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrCourseNotFound), errors.Is(err, service.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, &dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrUpstream):
			return c.JSON(http.StatusBadGateway, &dto.ErrorResponse{Error: "upstream failure"})
		default:
			return c.JSON(http.StatusInternalServerError, &dto.ErrorResponse{Error: "webhook processing failed"})
		}
	}

	return c.JSON(http.StatusOK, &dto.WebhookAck{Received: true})
}
