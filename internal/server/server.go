package server

import (
	"elearning-storefront/internal/handler"
	appmiddleware "elearning-storefront/internal/middleware"
	"elearning-storefront/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo            *echo.Echo
	webhookHandler  *handler.WebhookHandler
	checkoutHandler *handler.CheckoutHandler
	accountHandler  *handler.AccountHandler
	catalogHandler  *handler.CatalogHandler
	webhookSecret   string
}

func NewServer(
	entitlementService service.EntitlementService,
	checkoutService service.CheckoutService,
	accountService service.AccountService,
	catalogService service.CatalogService,
	logger *zap.SugaredLogger,
	webhookSecret string,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Errorw("request", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
			} else {
				logger.Infow("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		webhookHandler:  handler.NewWebhookHandler(entitlementService, logger),
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		accountHandler:  handler.NewAccountHandler(accountService),
		catalogHandler:  handler.NewCatalogHandler(catalogService),
		webhookSecret:   webhookSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.GET("/courses", s.catalogHandler.ListCourses)
	api.POST("/checkout", s.checkoutHandler.CreateCheckout)
	api.GET("/mp-credentials", s.checkoutHandler.CheckCredentials)
	api.POST("/auth/register", s.accountHandler.Register)

	// -------- mercado pago webhooks --------
	webhooks := api.Group("/webhooks")
	webhooks.POST("/mercadopago", s.webhookHandler.HandleMercadoPago,
		appmiddleware.VerifyMercadoPagoSignature(s.webhookSecret))
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
