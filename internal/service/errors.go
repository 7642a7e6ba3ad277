package service

import "errors"

var (
	// ErrInvalidPayload marks a notification or payment record missing data we
	// cannot process without (payment id, payer email).
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrUpstream marks a failed Mercado Pago or WordPress call. Surfaced as
	// 5xx so the provider redelivers the notification.
	ErrUpstream = errors.New("upstream failure")

	ErrCourseNotFound = errors.New("course not found")
	ErrUserNotFound   = errors.New("user not found")
)
