package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/neverMEH/Personabl-Developed/internal/adapter/repository"
	domainRepo "github.com/neverMEH/Personabl-Developed/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Profile      domainRepo.ProfileRepository
	Catalog      domainRepo.CatalogRepository
	Coupon       domainRepo.CouponRepository
	Subscription domainRepo.SubscriptionRepository
	WebhookEvent domainRepo.WebhookEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Profile:      repository.NewProfileRepository(db, logger),
		Catalog:      repository.NewCatalogRepository(db, logger),
		Coupon:       repository.NewCouponRepository(db, logger),
		Subscription: repository.NewSubscriptionRepository(db, logger),
		WebhookEvent: repository.NewWebhookRepository(db, logger),
	}
}
