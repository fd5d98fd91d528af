package usecase_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

var errDatastoreDown = errors.New("connection refused")

// memStore backs the in-memory repositories.
type memStore struct {
	mu sync.Mutex

	profiles map[uuid.UUID]*model.Profile
	// profileDelay hides a profile from the first n GetByID calls.
	profileDelay map[uuid.UUID]int
	products     map[string]*model.Product
	prices       map[string]*model.Price
	coupons      map[string]*model.Coupon
	subs         map[string]*model.Subscription
	events       map[string]*model.ProviderWebhookEvent

	failProfiles bool
	failSubs     bool
}

func newMemStore() *memStore {
	return &memStore{
		profiles:     map[uuid.UUID]*model.Profile{},
		profileDelay: map[uuid.UUID]int{},
		products:     map[string]*model.Product{},
		prices:       map[string]*model.Price{},
		coupons:      map[string]*model.Coupon{},
		subs:         map[string]*model.Subscription{},
		events:       map[string]*model.ProviderWebhookEvent{},
	}
}

func (s *memStore) subscription(providerID string) *model.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[providerID]
	if !ok {
		return nil
	}
	cp := *sub
	return &cp
}

func (s *memStore) subscriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *memStore) profile(id uuid.UUID) *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (s *memStore) coupon(code string) *model.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[code]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (s *memStore) event(id string) *model.ProviderWebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil
	}
	cp := *e
	return &cp
}

type fakeProfiles struct{ *memStore }

func (f fakeProfiles) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failProfiles {
		return nil, errDatastoreDown
	}
	if f.profileDelay[id] > 0 {
		f.profileDelay[id]--
		return nil, nil
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakeProfiles) GetByProviderCustomerID(ctx context.Context, customerID string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failProfiles {
		return nil, errDatastoreDown
	}
	for _, p := range f.profiles {
		if p.ProviderCustomerID != nil && *p.ProviderCustomerID == customerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeProfiles) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failProfiles {
		return nil, errDatastoreDown
	}
	for _, p := range f.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeProfiles) LinkProviderCustomer(ctx context.Context, id uuid.UUID, customerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failProfiles {
		return false, errDatastoreDown
	}
	p, ok := f.profiles[id]
	if !ok || p.ProviderCustomerID != nil {
		return false, nil
	}
	p.ProviderCustomerID = &customerID
	return true, nil
}

type fakeCatalog struct{ *memStore }

func (f fakeCatalog) GetProductByProviderID(ctx context.Context, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakeCatalog) GetPriceByProviderID(ctx context.Context, id string) (*model.Price, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prices[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f fakeCatalog) ListActiveProducts(ctx context.Context) ([]*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Product
	for _, p := range f.products {
		if !p.Active {
			continue
		}
		cp := *p
		cp.Prices = nil
		for _, price := range f.prices {
			if price.ProductID == p.ID && price.Active {
				cp.Prices = append(cp.Prices, *price)
			}
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f fakeCatalog) UpsertProduct(ctx context.Context, product *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.products[product.ProviderProductID]; ok {
		product.ID = existing.ID
	} else if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	f.products[product.ProviderProductID] = &cp
	return nil
}

func (f fakeCatalog) UpsertPrice(ctx context.Context, price *model.Price) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.prices[price.ProviderPriceID]; ok {
		price.ID = existing.ID
	} else if price.ID == uuid.Nil {
		price.ID = uuid.New()
	}
	cp := *price
	f.prices[price.ProviderPriceID] = &cp
	return nil
}

type fakeCoupons struct{ *memStore }

func (f fakeCoupons) GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[code]
	if !ok || !c.Active {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f fakeCoupons) GetByProviderCouponID(ctx context.Context, id string) (*model.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.coupons {
		if c.ProviderCouponID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeCoupons) Upsert(ctx context.Context, coupon *model.Coupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.coupons[coupon.Code]; ok {
		coupon.ID = existing.ID
		coupon.TimesUsed = existing.TimesUsed
	} else if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	cp := *coupon
	f.coupons[coupon.Code] = &cp
	return nil
}

type fakeSubs struct{ *memStore }

func (f fakeSubs) GetByProviderID(ctx context.Context, id string) (*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubs {
		return nil, errDatastoreDown
	}
	s, ok := f.subs[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f fakeSubs) GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeSubs) ListByUser(ctx context.Context, userID uuid.UUID, statuses []model.SubscriptionStatus) ([]*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Subscription
	for _, s := range f.subs {
		if s.UserID != userID {
			continue
		}
		for _, st := range statuses {
			if s.Status == st {
				cp := *s
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f fakeSubs) Upsert(ctx context.Context, sub *model.Subscription) (repository.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubs {
		return 0, errDatastoreDown
	}
	if _, ok := f.subs[sub.ProviderSubscriptionID]; !ok {
		if sub.ID == uuid.Nil {
			sub.ID = uuid.New()
		}
		now := time.Now().UTC()
		sub.CreatedAt, sub.UpdatedAt = now, now
		cp := *sub
		f.subs[sub.ProviderSubscriptionID] = &cp
		if sub.CouponID != nil {
			for _, c := range f.coupons {
				if c.ID == *sub.CouponID {
					c.TimesUsed++
				}
			}
		}
		return repository.WriteInserted, nil
	}
	return f.apply(sub.ProviderSubscriptionID, repository.MutationOf(sub)), nil
}

func (f fakeSubs) Update(ctx context.Context, id string, m repository.SubscriptionMutation) (repository.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubs {
		return 0, errDatastoreDown
	}
	return f.apply(id, m), nil
}

func (f fakeSubs) apply(id string, m repository.SubscriptionMutation) repository.WriteResult {
	row, ok := f.subs[id]
	if !ok {
		return repository.WriteMissing
	}
	if isStale(row, m.EventAt) {
		return repository.WriteStale
	}
	row.Status = m.Status
	row.TrialStart, row.TrialEnd = m.TrialStart, m.TrialEnd
	row.CurrentPeriodStart, row.CurrentPeriodEnd = m.CurrentPeriodStart, m.CurrentPeriodEnd
	row.CancelAtPeriodEnd = m.CancelAtPeriodEnd
	row.CanceledAt = m.CanceledAt
	if m.ProductID != nil && m.PriceID != nil {
		row.ProductID, row.PriceID = *m.ProductID, *m.PriceID
	}
	if m.PaymentStatus != nil {
		ps := *m.PaymentStatus
		row.PaymentStatus = &ps
	}
	if m.EventAt != nil {
		at := *m.EventAt
		row.LastEventAt = &at
	}
	row.UpdatedAt = time.Now().UTC()
	return repository.WriteUpdated
}

func (f fakeSubs) MarkCanceled(ctx context.Context, id string, canceledAt time.Time, eventAt *time.Time) (repository.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubs {
		return 0, errDatastoreDown
	}
	row, ok := f.subs[id]
	if !ok {
		return repository.WriteMissing, nil
	}
	if isStale(row, eventAt) {
		return repository.WriteStale, nil
	}
	row.Status = model.SubscriptionStatusCanceled
	at := canceledAt
	row.CanceledAt = &at
	if eventAt != nil {
		at := *eventAt
		row.LastEventAt = &at
	}
	row.UpdatedAt = time.Now().UTC()
	return repository.WriteUpdated, nil
}

func (f fakeSubs) SetPaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (repository.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubs {
		return 0, errDatastoreDown
	}
	row, ok := f.subs[id]
	if !ok {
		return repository.WriteMissing, nil
	}
	row.PaymentStatus = &status
	row.UpdatedAt = time.Now().UTC()
	return repository.WriteUpdated, nil
}

func isStale(row *model.Subscription, eventAt *time.Time) bool {
	return eventAt != nil && row.LastEventAt != nil && row.LastEventAt.After(*eventAt)
}

type fakeEvents struct{ *memStore }

func (f fakeEvents) Record(ctx context.Context, event *model.ProviderWebhookEvent) (*model.ProviderWebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.events[event.ProviderEventID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *event
	f.events[event.ProviderEventID] = &cp
	out := cp
	return &out, nil
}

func (f fakeEvents) MarkProcessing(ctx context.Context, id string) error {
	return f.mark(id, func(e *model.ProviderWebhookEvent) {
		e.Status = model.WebhookStatusProcessing
		e.ProcessingAttempts++
	})
}

func (f fakeEvents) MarkCompleted(ctx context.Context, id string) error {
	return f.mark(id, func(e *model.ProviderWebhookEvent) {
		now := time.Now()
		e.Status = model.WebhookStatusCompleted
		e.ProcessedAt = &now
		e.LastError = nil
	})
}

func (f fakeEvents) MarkFailed(ctx context.Context, id string, msg string) error {
	return f.mark(id, func(e *model.ProviderWebhookEvent) {
		e.Status = model.WebhookStatusFailed
		e.LastError = &msg
	})
}

func (f fakeEvents) mark(id string, fn func(*model.ProviderWebhookEvent)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return errors.New("webhook event not found")
	}
	fn(e)
	return nil
}

// MockBillingProvider is a mock implementation of provider.BillingProvider
type MockBillingProvider struct {
	mock.Mock
}

func (m *MockBillingProvider) CreateCustomer(ctx context.Context, req *entity.CreateCustomerRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) CreateCheckoutSession(ctx context.Context, req *entity.CheckoutSessionRequest) (*entity.CheckoutSessionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CheckoutSessionResult), args.Error(1)
}

func (m *MockBillingProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	args := m.Called(ctx, customerID, returnURL)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) GetSubscription(ctx context.Context, id string) (*entity.ProviderSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProviderSubscription), args.Error(1)
}

func (m *MockBillingProvider) SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) error {
	args := m.Called(ctx, id, cancel)
	return args.Error(0)
}

func (m *MockBillingProvider) ListActiveCatalog(ctx context.Context) ([]*entity.CatalogProduct, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.CatalogProduct), args.Error(1)
}

func (m *MockBillingProvider) VerifyEvent(payload []byte, signature string) (*entity.ProviderEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProviderEvent), args.Error(1)
}

func (m *MockBillingProvider) ParseEvent(payload []byte) (*entity.ProviderEvent, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProviderEvent), args.Error(1)
}

func (m *MockBillingProvider) GetProviderName() string {
	return "mock"
}

// recordingPublisher captures published messages.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []interface{}
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}
