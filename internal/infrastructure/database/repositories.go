package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daynewsmedia/alphasite-billing/internal/adapter/repository"
	domainRepo "github.com/daynewsmedia/alphasite-billing/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Record   domainRepo.SubscriptionRecordRepository
	Business domainRepo.BusinessRepository
	Webhook  repository.WebhookRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Record:   repository.NewSubscriptionRecordRepository(db, logger),
		Business: repository.NewBusinessRepository(db, logger),
		Webhook:  repository.NewWebhookRepository(db, logger),
	}
}
