package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 200
	MaxPageSize     = 1000

	// Database table names
	TableHubObjects       = "hub_objects"
	TableHubValues        = "hub_attribute_values"
	TableTypePolicies     = "hub_type_policies"
	TableConnectedSystems = "connected_systems"
	TableCSObjects        = "cs_objects"
	TableSyncRules        = "sync_rules"
	TablePendingExports   = "pending_exports"
	TableRunProfiles      = "run_profiles"
	TableRunActivities    = "run_activities"
	TableRunOutcomes      = "run_outcomes"
	TableChangeRecords    = "change_records"
)
