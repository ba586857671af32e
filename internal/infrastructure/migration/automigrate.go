package migration

import (
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every persistence model, in dependency order.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.HubObjectModel{},
		&models.HubValueModel{},
		&models.TypePolicyModel{},
		&models.ConnectedSystemModel{},
		&models.CSObjectModel{},
		&models.SyncRuleModel{},
		&models.PendingExportModel{},
		&models.RunProfileModel{},
		&models.ActivityModel{},
		&models.OutcomeItemModel{},
		&models.ChangeRecordModel{},
	}
}
