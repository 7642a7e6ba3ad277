package handler

import (
	"elearning-storefront/internal/dto"
	"elearning-storefront/internal/service"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AccountHandler struct {
	accounts service.AccountService
}

func NewAccountHandler(accounts service.AccountService) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
	}
}

func (h *AccountHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.accounts.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			return c.JSON(http.StatusBadRequest, &dto.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, &dto.ErrorResponse{Error: "error creating user"})
	}

	return c.JSON(http.StatusOK, result)
}
