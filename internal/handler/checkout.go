package handler

import (
	"elearning-storefront/internal/dto"
	"elearning-storefront/internal/service"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
}

func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
	}
}

func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.checkout.CreateCheckout(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			return c.JSON(http.StatusBadRequest, &dto.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, &dto.ErrorResponse{Error: "error creating preference"})
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CheckoutHandler) CheckCredentials(c echo.Context) error {
	return c.JSON(http.StatusOK, h.checkout.CredentialsStatus())
}
