package model

import "time"

type Order struct {
	ID           uint   `gorm:"primaryKey"`
	PreferenceID string `gorm:"size:128;uniqueIndex;not null"` // mercado pago preference id
	PaymentID    string `gorm:"size:64;index"`                 // set once the webhook resolves the payment
	CourseRef    string `gorm:"size:128;index;not null"`       // external_reference as sent at checkout
	PayerEmail   string `gorm:"size:255;index;not null"`
	Amount       float64
	Currency     string `gorm:"size:8"`
	Status       string `gorm:"size:32;index;not null"` // CREATED, PAID, GRANTED
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	OrderStatusCreated = "CREATED"
	OrderStatusPaid    = "PAID"
	OrderStatusGranted = "GRANTED"
)

// WebhookDelivery is an audit row per processed notification. It is not the
// idempotence source of truth; the user's entitlement list is.
type WebhookDelivery struct {
	ID        string `gorm:"primaryKey;size:36"`
	Type      string `gorm:"size:64;index"`
	PaymentID string `gorm:"size:64;index"`
	Outcome   string `gorm:"size:32;index"`
	Detail    string `gorm:"size:255"`
	CreatedAt time.Time
}

const (
	DeliveryOutcomeIgnored        = "IGNORED"          // non-payment notification type
	DeliveryOutcomeNotApproved    = "NOT_APPROVED"     // payment status other than approved
	DeliveryOutcomeGranted        = "GRANTED"          // entitlement written
	DeliveryOutcomeAlreadyOwned   = "ALREADY_OWNED"    // idempotent no-op
	DeliveryOutcomeCourseNotFound = "COURSE_NOT_FOUND" // slug lookup returned nothing
	DeliveryOutcomeUserNotFound   = "USER_NOT_FOUND"   // no user matches payer email
	DeliveryOutcomeFailed         = "FAILED"           // upstream or validation failure
)
