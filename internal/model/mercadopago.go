package model

// WebhookNotification is the body Mercado Pago posts to the notification URL.
// Only type "payment" carries something we act on.
type WebhookNotification struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

const NotificationTypePayment = "payment"

const PaymentStatusApproved = "approved"

type PaymentPayer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Payment is the authoritative payment state fetched from
// GET /v1/payments/{id}.
type Payment struct {
	ID                int64        `json:"id"`
	Status            string       `json:"status"`
	StatusDetail      string       `json:"status_detail"`
	ExternalReference string       `json:"external_reference"`
	TransactionAmount float64      `json:"transaction_amount"`
	CurrencyID        string       `json:"currency_id"`
	Payer             PaymentPayer `json:"payer"`
}

type PreferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type PreferencePayer struct {
	Email string `json:"email"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest is the body for POST /checkout/preferences.
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	Payer             PreferencePayer  `json:"payer"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}
