package service

import (
	"context"
	"elearning-storefront/internal/model"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPayments struct {
	payment  *model.Payment
	err      error
	getCalls int
}

func (s *stubPayments) GetPayment(ctx context.Context, paymentID string) (*model.Payment, error) {
	s.getCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.payment, nil
}

func (s *stubPayments) CreatePreference(ctx context.Context, pref *model.PreferenceRequest) (*model.Preference, error) {
	return nil, errors.New("not implemented")
}

// fakeStore is an in-memory WordPress double. clobberWrites simulates a
// concurrent writer winning the read-modify-write race: the first N updates
// return the stored list without applying the change.
type fakeStore struct {
	courses map[string]model.Course
	users   map[int]*model.User

	searchResults []model.User

	slugLookups   int
	getUserCalls  int
	updateCalls   int
	lastUpdate    []any
	updateErr     error
	clobberWrites int
}

func (f *fakeStore) ListCourses(ctx context.Context) ([]model.Course, error) {
	return nil, nil
}

func (f *fakeStore) FindCourseBySlug(ctx context.Context, slug string) (*model.Course, error) {
	f.slugLookups++
	if course, ok := f.courses[slug]; ok {
		return &course, nil
	}
	return nil, nil
}

func (f *fakeStore) SearchUsersByEmail(ctx context.Context, email string) ([]model.User, error) {
	return f.searchResults, nil
}

func (f *fakeStore) GetUser(ctx context.Context, userID int) (*model.User, error) {
	f.getUserCalls++
	user, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("no user %d", userID)
	}
	u := *user
	return &u, nil
}

func (f *fakeStore) UpdateUserCourses(ctx context.Context, userID int, courses []any) (*model.User, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.lastUpdate = courses

	user, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("no user %d", userID)
	}
	if f.clobberWrites > 0 {
		f.clobberWrites--
		u := *user
		return &u, nil
	}
	user.ACF.PurchasedCourses = courses
	u := *user
	return &u, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, user *model.NewUser) (*model.User, error) {
	return nil, errors.New("not implemented")
}

type stubOrders struct {
	grantedCalls int
}

func (s *stubOrders) Create(ctx context.Context, order *model.Order) error { return nil }

func (s *stubOrders) FindByPreferenceID(ctx context.Context, preferenceID string) (*model.Order, error) {
	return nil, nil
}

func (s *stubOrders) MarkGranted(ctx context.Context, courseRef, payerEmail, paymentID string) error {
	s.grantedCalls++
	return nil
}

type stubDeliveries struct {
	outcomes []string
}

func (s *stubDeliveries) Record(ctx context.Context, notificationType, paymentID, outcome, detail string) error {
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func (s *stubDeliveries) CountByPaymentID(ctx context.Context, paymentID string) (int64, error) {
	return 0, nil
}

func paymentNotification(paymentID string) *model.WebhookNotification {
	n := &model.WebhookNotification{Type: model.NotificationTypePayment}
	n.Data.ID = paymentID
	return n
}

func approvedPayment(reference, email string) *model.Payment {
	return &model.Payment{
		ID:                1,
		Status:            model.PaymentStatusApproved,
		ExternalReference: reference,
		TransactionAmount: 5000,
		Payer:             model.PaymentPayer{Email: email},
	}
}

func userWithCourses(id int, email string, courses ...any) *model.User {
	return &model.User{
		ID:    id,
		Email: email,
		ACF:   model.UserACF{PurchasedCourses: courses},
	}
}

func newTestService(payments *stubPayments, store *fakeStore, retries int) (EntitlementService, *stubDeliveries) {
	deliveries := &stubDeliveries{}
	svc := NewEntitlementService(payments, store, &stubOrders{}, deliveries, zap.NewNop().Sugar(), retries)
	return svc, deliveries
}

func TestHandleNotification_IgnoresNonPaymentType(t *testing.T) {
	payments := &stubPayments{}
	store := &fakeStore{}
	svc, deliveries := newTestService(payments, store, 3)

	err := svc.HandleNotification(context.Background(), &model.WebhookNotification{Type: "merchant_order"})
	require.NoError(t, err)

	assert.Zero(t, payments.getCalls)
	assert.Zero(t, store.updateCalls)
	assert.Equal(t, []string{model.DeliveryOutcomeIgnored}, deliveries.outcomes)
}

func TestHandleNotification_MissingPaymentID(t *testing.T) {
	svc, _ := newTestService(&stubPayments{}, &fakeStore{}, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification(""))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestHandleNotification_NonApprovedStatusNoWrite(t *testing.T) {
	for _, status := range []string{"pending", "rejected", "refunded"} {
		t.Run(status, func(t *testing.T) {
			payment := approvedPayment("5", "a@x.com")
			payment.Status = status

			store := &fakeStore{}
			svc, deliveries := newTestService(&stubPayments{payment: payment}, store, 3)

			err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
			require.NoError(t, err)

			assert.Zero(t, store.updateCalls)
			assert.Zero(t, store.slugLookups)
			assert.Equal(t, []string{model.DeliveryOutcomeNotApproved}, deliveries.outcomes)
		})
	}
}

func TestHandleNotification_NumericReferenceGrants(t *testing.T) {
	user := userWithCourses(10, "a@x.com", float64(3))
	store := &fakeStore{
		users:         map[int]*model.User{10: user},
		searchResults: []model.User{*user},
	}
	payments := &stubPayments{payment: approvedPayment("5", "a@x.com")}
	svc, deliveries := newTestService(payments, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.NoError(t, err)

	// numeric reference must not trigger a slug lookup
	assert.Zero(t, store.slugLookups)
	assert.Equal(t, 1, store.updateCalls)
	assert.Equal(t, []any{3, 5}, store.lastUpdate)
	assert.Equal(t, []string{model.DeliveryOutcomeGranted}, deliveries.outcomes)
}

func TestHandleNotification_SlugReferenceResolvesCourse(t *testing.T) {
	user := userWithCourses(10, "a@x.com")
	store := &fakeStore{
		courses:       map[string]model.Course{"intro-course": {ID: 42, Slug: "intro-course"}},
		users:         map[int]*model.User{10: user},
		searchResults: []model.User{*user},
	}
	svc, _ := newTestService(&stubPayments{payment: approvedPayment("intro-course", "a@x.com")}, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.NoError(t, err)

	assert.Equal(t, 1, store.slugLookups)
	assert.Equal(t, []any{42}, store.lastUpdate)
}

func TestHandleNotification_Idempotent(t *testing.T) {
	user := userWithCourses(10, "a@x.com", float64(3))
	store := &fakeStore{
		users:         map[int]*model.User{10: user},
		searchResults: []model.User{*user},
	}
	payments := &stubPayments{payment: approvedPayment("5", "a@x.com")}
	svc, deliveries := newTestService(payments, store, 3)

	require.NoError(t, svc.HandleNotification(context.Background(), paymentNotification("P1")))
	require.Equal(t, 1, store.updateCalls)
	require.Equal(t, []any{3, 5}, user.ACF.PurchasedCourses)

	// the search double returns the mutated user on the second run
	store.searchResults = []model.User{*user}

	require.NoError(t, svc.HandleNotification(context.Background(), paymentNotification("P1")))
	assert.Equal(t, 1, store.updateCalls, "second delivery must not write")
	assert.Len(t, user.ACF.PurchasedCourses, 2)
	assert.Equal(t, model.DeliveryOutcomeAlreadyOwned, deliveries.outcomes[1])
}

func TestHandleNotification_SlugEntryBlocksRegrant(t *testing.T) {
	// older checkout flows stored slugs in the entitlement list
	user := userWithCourses(10, "a@x.com", "intro-course")
	store := &fakeStore{
		courses:       map[string]model.Course{"intro-course": {ID: 42, Slug: "intro-course"}},
		users:         map[int]*model.User{10: user},
		searchResults: []model.User{*user},
	}
	svc, _ := newTestService(&stubPayments{payment: approvedPayment("intro-course", "a@x.com")}, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.NoError(t, err)

	assert.Zero(t, store.updateCalls)
}

func TestHandleNotification_NormalizesMixedEntries(t *testing.T) {
	user := userWithCourses(10, "a@x.com",
		map[string]any{"ID": float64(7)}, "9", float64(11), map[string]any{"weird": true})
	store := &fakeStore{
		users:         map[int]*model.User{10: user},
		searchResults: []model.User{*user},
	}
	svc, _ := newTestService(&stubPayments{payment: approvedPayment("5", "a@x.com")}, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.NoError(t, err)

	assert.Equal(t, []any{7, 9, 11, 5}, store.lastUpdate)
}

func TestHandleNotification_CourseNotFound(t *testing.T) {
	user := userWithCourses(10, "a@x.com")
	store := &fakeStore{
		users:         map[int]*model.User{10: user},
		searchResults: []model.User{*user},
	}
	svc, deliveries := newTestService(&stubPayments{payment: approvedPayment("no-such-course", "a@x.com")}, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.ErrorIs(t, err, ErrCourseNotFound)

	assert.Zero(t, store.updateCalls)
	assert.Equal(t, []string{model.DeliveryOutcomeCourseNotFound}, deliveries.outcomes)
}

func TestHandleNotification_UserNotFound(t *testing.T) {
	store := &fakeStore{}
	svc, deliveries := newTestService(&stubPayments{payment: approvedPayment("5", "ghost@x.com")}, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.ErrorIs(t, err, ErrUserNotFound)

	assert.Zero(t, store.updateCalls)
	assert.Equal(t, []string{model.DeliveryOutcomeUserNotFound}, deliveries.outcomes)
}

func TestHandleNotification_ExactEmailMatchPreferred(t *testing.T) {
	other := userWithCourses(10, "aa@x.com")
	exact := userWithCourses(20, "a@x.com")
	store := &fakeStore{
		users:         map[int]*model.User{10: other, 20: exact},
		searchResults: []model.User{*other, *exact},
	}
	svc, _ := newTestService(&stubPayments{payment: approvedPayment("5", "a@x.com")}, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.NoError(t, err)

	assert.Equal(t, []any{5}, exact.ACF.PurchasedCourses)
	assert.Empty(t, other.ACF.PurchasedCourses)
}

func TestHandleNotification_PaymentFetchFails(t *testing.T) {
	svc, _ := newTestService(&stubPayments{err: errors.New("timeout")}, &fakeStore{}, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.ErrorIs(t, err, ErrUpstream)
}

func TestHandleNotification_MissingPayerEmail(t *testing.T) {
	payment := approvedPayment("5", "")
	svc, _ := newTestService(&stubPayments{payment: payment}, &fakeStore{}, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestHandleNotification_UpdateFails(t *testing.T) {
	user := userWithCourses(10, "a@x.com")
	store := &fakeStore{
		users:         map[int]*model.User{10: user},
		searchResults: []model.User{*user},
		updateErr:     errors.New("500 internal"),
	}
	svc, _ := newTestService(&stubPayments{payment: approvedPayment("5", "a@x.com")}, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.ErrorIs(t, err, ErrUpstream)
}

func TestHandleNotification_RetriesClobberedWrite(t *testing.T) {
	user := userWithCourses(10, "a@x.com", float64(3))
	store := &fakeStore{
		users:         map[int]*model.User{10: user},
		searchResults: []model.User{*user},
		clobberWrites: 1,
	}
	svc, deliveries := newTestService(&stubPayments{payment: approvedPayment("5", "a@x.com")}, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.NoError(t, err)

	assert.Equal(t, 2, store.updateCalls)
	assert.Equal(t, 1, store.getUserCalls, "retry must re-read the user")
	assert.Equal(t, []any{3, 5}, user.ACF.PurchasedCourses)
	assert.Equal(t, []string{model.DeliveryOutcomeGranted}, deliveries.outcomes)
}

func TestHandleNotification_GivesUpAfterBoundedRetries(t *testing.T) {
	user := userWithCourses(10, "a@x.com")
	store := &fakeStore{
		users:         map[int]*model.User{10: user},
		searchResults: []model.User{*user},
		clobberWrites: 10,
	}
	svc, _ := newTestService(&stubPayments{payment: approvedPayment("5", "a@x.com")}, store, 3)

	err := svc.HandleNotification(context.Background(), paymentNotification("P1"))
	require.Error(t, err)

	assert.Equal(t, 3, store.updateCalls)
}
