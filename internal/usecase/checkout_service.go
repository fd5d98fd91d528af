package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	domainErrors "github.com/neverMEH/Personabl-Developed/internal/domain/errors"
	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
	"github.com/neverMEH/Personabl-Developed/internal/domain/provider"
	"github.com/neverMEH/Personabl-Developed/internal/domain/repository"
	apperrors "github.com/neverMEH/Personabl-Developed/pkg/errors"
)

const (
	checkoutFailedMessage = "checkout initiation failed"
	portalFailedMessage   = "portal session creation failed"
)

// ProfileWait bounds the wait for a profile row that lags behind sign-up.
type ProfileWait struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// CheckoutRequest is an authenticated request for a hosted checkout.
type CheckoutRequest struct {
	UserID uuid.UUID
	// Email comes from the caller's token and is used when the profile has none.
	Email      string
	PriceID    string
	SuccessURL string
	CancelURL  string
	CouponCode string
}

// CheckoutService starts checkouts and portal sessions.
type CheckoutService struct {
	provider provider.BillingProvider
	profiles repository.ProfileRepository
	catalog  repository.CatalogRepository
	coupons  *CouponService
	wait     ProfileWait
	timeouts Timeouts
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	billing provider.BillingProvider,
	profiles repository.ProfileRepository,
	catalog repository.CatalogRepository,
	coupons *CouponService,
	wait ProfileWait,
	timeouts Timeouts,
	logger *zap.Logger,
) *CheckoutService {
	if wait.Attempts < 1 {
		wait.Attempts = 1
	}
	return &CheckoutService{
		provider: billing,
		profiles: profiles,
		catalog:  catalog,
		coupons:  coupons,
		wait:     wait,
		timeouts: timeouts,
		sleep:    sleepContext,
		logger:   logger,
	}
}

// CreateCheckoutSession validates the price and coupon, makes sure the user has a provider
// customer and creates a subscription-mode checkout session. It never retries.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*entity.CheckoutSessionResult, error) {
	logger := s.logger.With(
		zap.String("user_id", req.UserID.String()),
		zap.String("price_id", req.PriceID),
	)

	if err := s.checkPrice(ctx, req.PriceID); err != nil {
		return nil, s.fail(logger, err)
	}

	var couponID string
	if req.CouponCode != "" {
		coupon, err := s.coupons.Validate(ctx, req.CouponCode)
		if err != nil {
			return nil, s.fail(logger, err)
		}
		if coupon == nil {
			return nil, domainErrors.Validation("coupon is not valid", domainErrors.ErrCouponInvalid)
		}
		couponID = coupon.ProviderCouponID
	}

	profile, err := s.WaitForProfile(ctx, req.UserID)
	if err != nil {
		return nil, s.fail(logger, err)
	}

	customerID, err := s.ensureCustomer(ctx, profile, req.Email, logger)
	if err != nil {
		return nil, s.fail(logger, err)
	}

	providerCtx, cancel := s.timeouts.provider(ctx)
	defer cancel()

	session, err := s.provider.CreateCheckoutSession(providerCtx, &entity.CheckoutSessionRequest{
		UserID:     req.UserID.String(),
		CustomerID: customerID,
		PriceID:    req.PriceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		CouponID:   couponID,
	})
	if err != nil {
		return nil, s.fail(logger, err)
	}

	logger.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.String("customer_id", customerID),
		zap.Bool("coupon_applied", couponID != ""))
	return session, nil
}

// checkPrice rejects unknown and inactive prices before anything reaches the provider.
func (s *CheckoutService) checkPrice(ctx context.Context, providerPriceID string) error {
	ctx, cancel := s.timeouts.datastore(ctx)
	defer cancel()

	price, err := s.catalog.GetPriceByProviderID(ctx, providerPriceID)
	if err != nil {
		return err
	}
	if price == nil {
		return domainErrors.Validation("price is not available",
			fmt.Errorf("price %q: %w", providerPriceID, domainErrors.ErrPriceNotFound))
	}
	if !price.Active {
		return domainErrors.Validation("price is not available",
			fmt.Errorf("price %q: %w", providerPriceID, domainErrors.ErrPriceInactive))
	}
	return nil
}

// ensureCustomer returns the profile's provider customer, creating one first if needed.
// The profile is only written after the provider confirmed the customer.
func (s *CheckoutService) ensureCustomer(ctx context.Context, profile *model.Profile, fallbackEmail string, logger *zap.Logger) (string, error) {
	if profile.HasCustomer() {
		return *profile.ProviderCustomerID, nil
	}

	email := profile.Email
	if email == "" {
		email = fallbackEmail
	}
	var name string
	if profile.FullName != nil {
		name = *profile.FullName
	}

	providerCtx, cancel := s.timeouts.provider(ctx)
	customerID, err := s.provider.CreateCustomer(providerCtx, &entity.CreateCustomerRequest{
		UserID: profile.ID.String(),
		Email:  email,
		Name:   name,
	})
	cancel()
	if err != nil {
		return "", err
	}

	dbCtx, cancel := s.timeouts.datastore(ctx)
	defer cancel()

	linked, err := s.profiles.LinkProviderCustomer(dbCtx, profile.ID, customerID)
	if err != nil {
		logger.Error("Provider customer created but not linked",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", err
	}
	if linked {
		return customerID, nil
	}

	// A concurrent checkout linked a customer first; the stored one wins.
	current, err := s.profiles.GetByID(dbCtx, profile.ID)
	if err != nil {
		return "", err
	}
	if current == nil || !current.HasCustomer() {
		return "", fmt.Errorf("profile %s lost while linking customer", profile.ID)
	}
	logger.Warn("Discarding provider customer created by a concurrent checkout",
		zap.String("orphan_customer_id", customerID),
		zap.String("customer_id", *current.ProviderCustomerID))
	return *current.ProviderCustomerID, nil
}

// WaitForProfile loads the user's profile, retrying with exponential backoff
// while the row does not exist yet.
func (s *CheckoutService) WaitForProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	backoff := s.wait.InitialBackoff
	for attempt := 1; ; attempt++ {
		profile, err := s.getProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			return profile, nil
		}
		if attempt >= s.wait.Attempts {
			return nil, fmt.Errorf("user %s after %d attempts: %w", userID, attempt, domainErrors.ErrProfileNotFound)
		}

		s.logger.Debug("Profile not found yet; waiting",
			zap.String("user_id", userID.String()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))
		if err := s.sleep(ctx, backoff); err != nil {
			return nil, err
		}

		backoff *= 2
		if s.wait.MaxBackoff > 0 && backoff > s.wait.MaxBackoff {
			backoff = s.wait.MaxBackoff
		}
	}
}

func (s *CheckoutService) getProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	ctx, cancel := s.timeouts.datastore(ctx)
	defer cancel()
	return s.profiles.GetByID(ctx, userID)
}

// CreatePortalSession returns the provider billing portal URL for the user's customer.
func (s *CheckoutService) CreatePortalSession(ctx context.Context, userID uuid.UUID, returnURL string) (string, error) {
	logger := s.logger.With(zap.String("user_id", userID.String()))

	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		apperrors.LogError(logger, err, "Failed to load profile for portal session")
		return "", apperrors.NewAppError(apperrors.ErrPortalFailed, portalFailedMessage, err)
	}
	if profile == nil || !profile.HasCustomer() {
		return "", apperrors.NewAppError(apperrors.ErrNoCustomer, "no billing customer for user", nil)
	}

	providerCtx, cancel := s.timeouts.provider(ctx)
	defer cancel()

	url, err := s.provider.CreatePortalSession(providerCtx, *profile.ProviderCustomerID, returnURL)
	if err != nil {
		apperrors.LogError(logger, err, "Failed to create portal session")
		return "", apperrors.NewAppError(apperrors.ErrPortalFailed, portalFailedMessage, err)
	}
	return url, nil
}

// fail logs err and collapses it into the single checkout failure outcome.
// Validation errors pass through so the caller can fix the request.
func (s *CheckoutService) fail(logger *zap.Logger, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code() == apperrors.ErrInvalidArgument {
		return err
	}
	apperrors.LogError(logger, err, "Checkout initiation failed")
	return apperrors.NewAppError(apperrors.ErrCheckoutFailed, checkoutFailedMessage, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
