package migration

import (
	"fmt"

	"gorm.io/gorm"

	"amica/internal/infrastructure/persistence/models"
	"amica/internal/shared/logger"
)

// GormAutoMigrateStrategy migrates the schema directly from the model
// structs. Development convenience only; versioned SQL scripts drive test
// and production.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy() Strategy {
	return &GormAutoMigrateStrategy{
		logger: logger.NewLogger().With("component", "migration.automigrate"),
	}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, migrateModels ...interface{}) error {
	if len(migrateModels) == 0 {
		migrateModels = AutoMigrateModels()
	}

	s.logger.Infow("running gorm automigrate", "models_count", len(migrateModels))

	if err := db.AutoMigrate(migrateModels...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}

// AutoMigrateModels lists every persisted model.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.GrantModel{},
		&models.BillingOrderModel{},
		&models.UserProfileModel{},
	}
}
