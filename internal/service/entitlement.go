package service

import (
	"context"
	"elearning-storefront/internal/client"
	"elearning-storefront/internal/model"
	"elearning-storefront/internal/repository"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// EntitlementService reconciles Mercado Pago payment notifications into
// course grants on WordPress user records.
type EntitlementService interface {
	HandleNotification(ctx context.Context, notification *model.WebhookNotification) error
}

type entitlementServiceImpl struct {
	payments     client.MercadoPagoClient
	store        client.WordPressClient
	orderRepo    repository.OrderRepository
	deliveryRepo repository.WebhookDeliveryRepository
	logger       *zap.SugaredLogger
	grantRetries int
}

func NewEntitlementService(
	payments client.MercadoPagoClient,
	store client.WordPressClient,
	orderRepo repository.OrderRepository,
	deliveryRepo repository.WebhookDeliveryRepository,
	logger *zap.SugaredLogger,
	grantRetries int,
) EntitlementService {
	if grantRetries < 1 {
		grantRetries = 1
	}
	return &entitlementServiceImpl{
		payments:     payments,
		store:        store,
		orderRepo:    orderRepo,
		deliveryRepo: deliveryRepo,
		logger:       logger,
		grantRetries: grantRetries,
	}
}

// HandleNotification runs the reconciliation flow: fetch the authoritative
// payment, resolve course and user, and idempotently append the course to the
// user's purchased list. Non-payment notifications and non-approved payments
// are acknowledged without touching the store.
func (s *entitlementServiceImpl) HandleNotification(ctx context.Context, notification *model.WebhookNotification) error {
	if notification.Type != model.NotificationTypePayment {
		s.logger.Infow("ignoring non-payment notification", "type", notification.Type)
		s.recordDelivery(ctx, notification.Type, "", model.DeliveryOutcomeIgnored, "")
		return nil
	}

	paymentID := notification.Data.ID
	if paymentID == "" {
		return fmt.Errorf("%w: missing data.id in payment notification", ErrInvalidPayload)
	}

	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		s.recordDelivery(ctx, notification.Type, paymentID, model.DeliveryOutcomeFailed, err.Error())
		return fmt.Errorf("%w: get payment %s: %v", ErrUpstream, paymentID, err)
	}

	if payment.Status != model.PaymentStatusApproved {
		s.logger.Infow("payment not approved, skipping grant",
			"payment_id", paymentID, "status", payment.Status)
		s.recordDelivery(ctx, notification.Type, paymentID, model.DeliveryOutcomeNotApproved, payment.Status)
		return nil
	}

	if payment.ExternalReference == "" {
		s.recordDelivery(ctx, notification.Type, paymentID, model.DeliveryOutcomeFailed, "missing external reference")
		return fmt.Errorf("%w: missing external reference on payment %s", ErrInvalidPayload, paymentID)
	}
	if payment.Payer.Email == "" {
		s.recordDelivery(ctx, notification.Type, paymentID, model.DeliveryOutcomeFailed, "missing payer email")
		return fmt.Errorf("%w: missing payer email on payment %s", ErrInvalidPayload, paymentID)
	}

	courseID, courseSlug, err := s.resolveCourse(ctx, payment.ExternalReference)
	if err != nil {
		outcome := model.DeliveryOutcomeFailed
		if isNotFound(err) {
			outcome = model.DeliveryOutcomeCourseNotFound
		}
		s.recordDelivery(ctx, notification.Type, paymentID, outcome, payment.ExternalReference)
		return err
	}

	user, err := s.resolveUser(ctx, payment.Payer.Email)
	if err != nil {
		outcome := model.DeliveryOutcomeFailed
		if isNotFound(err) {
			outcome = model.DeliveryOutcomeUserNotFound
		}
		s.recordDelivery(ctx, notification.Type, paymentID, outcome, payment.Payer.Email)
		return err
	}

	granted, err := s.grantCourse(ctx, user, courseID, courseSlug)
	if err != nil {
		s.recordDelivery(ctx, notification.Type, paymentID, model.DeliveryOutcomeFailed, err.Error())
		return err
	}

	if !granted {
		s.logger.Infow("user already owns course, skipping",
			"user_id", user.ID, "course_id", courseID)
		s.recordDelivery(ctx, notification.Type, paymentID, model.DeliveryOutcomeAlreadyOwned, "")
		return nil
	}

	s.logger.Infow("course granted",
		"payment_id", paymentID, "user_id", user.ID, "course_id", courseID,
		"amount", payment.TransactionAmount)

	if err := s.orderRepo.MarkGranted(ctx, payment.ExternalReference, payment.Payer.Email, paymentID); err != nil {
		// the grant already landed in wordpress, keep the ack
		s.logger.Errorw("mark order granted", "payment_id", paymentID, "error", err)
	}

	s.recordDelivery(ctx, notification.Type, paymentID, model.DeliveryOutcomeGranted, "")
	return nil
}

// resolveCourse maps the payment's external reference to a numeric course id.
// Numeric references are used as-is, anything else is treated as a slug and
// resolved through the store. The slug (when known) also participates in the
// idempotence check, since older checkout flows stored slugs in the list.
func (s *entitlementServiceImpl) resolveCourse(ctx context.Context, externalReference string) (int, string, error) {
	ref := model.ParseExternalReference(externalReference)
	if id, ok := ref.ID(); ok {
		return id, "", nil
	}

	slug, _ := ref.Slug()
	course, err := s.store.FindCourseBySlug(ctx, slug)
	if err != nil {
		return 0, "", fmt.Errorf("%w: find course by slug %q: %v", ErrUpstream, slug, err)
	}
	if course == nil {
		return 0, "", fmt.Errorf("%w: slug %q", ErrCourseNotFound, slug)
	}

	return course.ID, slug, nil
}

// resolveUser looks up the purchaser by payer email. The search endpoint
// matches loosely, so an exact email match wins over the first result.
func (s *entitlementServiceImpl) resolveUser(ctx context.Context, email string) (*model.User, error) {
	users, err := s.store.SearchUsersByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: search users: %v", ErrUpstream, err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: email %s", ErrUserNotFound, email)
	}

	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return &users[0], nil
}

// grantCourse performs the idempotent read-modify-write on the user's
// purchased_courses field. The update replaces the whole list, so a concurrent
// grant can clobber ours; the write is verified against the response and
// recomputed from a fresh read on conflict, up to grantRetries attempts.
func (s *entitlementServiceImpl) grantCourse(ctx context.Context, user *model.User, courseID int, courseSlug string) (bool, error) {
	target := model.CourseByID(courseID)
	granted := false
	firstAttempt := true

	backoff := retry.WithMaxRetries(uint64(s.grantRetries-1), retry.NewConstant(150*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		current := user
		if !firstAttempt {
			fresh, err := s.store.GetUser(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("%w: reread user %d: %v", ErrUpstream, user.ID, err)
			}
			current = fresh
		}
		firstAttempt = false

		refs := model.NormalizeEntitlements(current.ACF.PurchasedCourses)
		if containsCourse(refs, target, courseSlug) {
			granted = false
			return nil
		}

		entries := append(model.EntitlementEntries(refs), courseID)
		updated, err := s.store.UpdateUserCourses(ctx, current.ID, entries)
		if err != nil {
			return fmt.Errorf("%w: update user %d courses: %v", ErrUpstream, current.ID, err)
		}

		// The response reflects the stored list; if our course is missing a
		// concurrent writer replaced the field after our read.
		written := model.NormalizeEntitlements(updated.ACF.PurchasedCourses)
		if !containsCourse(written, target, courseSlug) {
			s.logger.Warnw("grant clobbered by concurrent write, retrying",
				"user_id", current.ID, "course_id", courseID)
			return retry.RetryableError(fmt.Errorf("course %d missing after write", courseID))
		}

		granted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return granted, nil
}

func containsCourse(refs []model.CourseRef, target model.CourseRef, slugAlias string) bool {
	for _, ref := range refs {
		if ref.Equal(target) {
			return true
		}
		if slug, ok := ref.Slug(); ok && slugAlias != "" && slug == slugAlias {
			return true
		}
	}
	return false
}

func (s *entitlementServiceImpl) recordDelivery(ctx context.Context, notificationType, paymentID, outcome, detail string) {
	if s.deliveryRepo == nil {
		return
	}
	if err := s.deliveryRepo.Record(ctx, notificationType, paymentID, outcome, detail); err != nil {
		s.logger.Errorw("record webhook delivery", "payment_id", paymentID, "error", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrCourseNotFound) || errors.Is(err, ErrUserNotFound)
}
