package audit

import "context"

// ChangeRepository persists append-only change records. Records are never
// updated or deleted by the engine.
type ChangeRepository interface {
	Append(ctx context.Context, records []ChangeRecord) error
	ListByObject(ctx context.Context, objectSID string, afterID uint, limit int) ([]ChangeRecord, error)
	ListByActivity(ctx context.Context, activitySID string, afterID uint, limit int) ([]ChangeRecord, error)
}
