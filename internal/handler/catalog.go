package handler

import (
	"elearning-storefront/internal/dto"
	"elearning-storefront/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalog service.CatalogService
}

func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
	}
}

func (h *CatalogHandler) ListCourses(c echo.Context) error {
	ctx := c.Request().Context()

	courses, err := h.catalog.ListCourses(ctx)
	if err != nil {
		return c.JSON(http.StatusBadGateway, &dto.ErrorResponse{Error: "error fetching courses"})
	}

	return c.JSON(http.StatusOK, courses)
}
