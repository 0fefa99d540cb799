package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing installs the otelgorm plugin on the ledger database.
// Query variables are never attached to spans.
func RegisterDBTracing(db *gorm.DB, dbSystem string, logger *zap.Logger) error {
	if dbSystem == "" {
		dbSystem = "postgresql"
	}
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}
	logger.Info("Database tracing enabled", zap.String("db_system", dbSystem))
	return nil
}
