package syncrule

import "context"

// Repository defines the interface for sync rule configuration access.
type Repository interface {
	// Create persists a new rule
	Create(ctx context.Context, rule *SyncRule) error

	// GetBySID retrieves a rule by external SID
	GetBySID(ctx context.Context, sid string) (*SyncRule, error)

	// Update updates an existing rule
	Update(ctx context.Context, rule *SyncRule) error

	// Delete removes a rule
	Delete(ctx context.Context, sid string) error

	// ListInScope returns the enabled rules for one connected system,
	// external object type and direction, ordered by precedence
	ListInScope(ctx context.Context, systemSID, externalType string, direction Direction) ([]*SyncRule, error)

	// ListBySystem returns every rule configured for a connected system
	ListBySystem(ctx context.Context, systemSID string) ([]*SyncRule, error)
}
