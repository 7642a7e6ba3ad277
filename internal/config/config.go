package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer

	BaseURL      string `env:"BASE_URL"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"storefront.db"`

	// GrantRetries bounds the verify-and-retry loop around the entitlement
	// read-modify-write when a concurrent webhook clobbers the list.
	GrantRetries int `env:"GRANT_RETRIES" envDefault:"3"`

	MercadoPago MercadoPago `envPrefix:"MP_"`
	WordPress   WordPress   `envPrefix:"WP_"`
}

type MercadoPago struct {
	AccessToken   string `env:"ACCESS_TOKEN"`
	BaseAPIURL    string `env:"BASE_API_URL" envDefault:"https://api.mercadopago.com"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type WordPress struct {
	BaseURL          string `env:"URL"`
	AdminUser        string `env:"ADMIN_USER"`
	AdminAppPassword string `env:"ADMIN_APP_PASSWORD"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
