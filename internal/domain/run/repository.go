package run

import "context"

// ProfileRepository persists run profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	GetBySID(ctx context.Context, sid string) (*Profile, error)
	Update(ctx context.Context, profile *Profile) error
	List(ctx context.Context) ([]*Profile, error)
	ListEnabled(ctx context.Context) ([]*Profile, error)
}

// ActivityRepository persists run execution records. Activities are
// created when a run starts and updated as pages complete, so a crashed
// run still shows its partial counters.
type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) error
	GetBySID(ctx context.Context, sid string) (*Activity, error)
	Update(ctx context.Context, activity *Activity) error
	ListByProfile(ctx context.Context, profileSID string, afterID uint, limit int) ([]*Activity, error)
}

// OutcomeRepository persists per-object outcome items.
type OutcomeRepository interface {
	Append(ctx context.Context, items []OutcomeItem) error
	ListByActivity(ctx context.Context, activitySID string, afterID uint, limit int) ([]OutcomeItem, error)
	ListChildren(ctx context.Context, parentSID string) ([]OutcomeItem, error)
}
