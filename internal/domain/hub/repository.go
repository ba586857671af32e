package hub

import (
	"context"

	"github.com/junction-io/junction/internal/domain/attribute"
)

// Repository defines the interface for hub object persistence.
type Repository interface {
	// Create persists a new hub object with its attribute values
	Create(ctx context.Context, obj *HubObject) error

	// GetBySID retrieves a hub object (with values) by external SID
	GetBySID(ctx context.Context, sid string) (*HubObject, error)

	// Update writes the object and its values back, guarded by the
	// optimistic version token; a stale version yields a
	// ConcurrencyConflict error
	Update(ctx context.Context, obj *HubObject) error

	// FindByAttributeEquals returns active hub objects of the given type
	// whose attribute carries a value equal to v; used by join conditions
	FindByAttributeEquals(ctx context.Context, objectType, attributeName string, v attribute.Value) ([]*HubObject, error)

	// ListPendingDeletion returns objects whose scheduled deletion exists,
	// for the per-run-cycle deletion sweep
	ListPendingDeletion(ctx context.Context) ([]*HubObject, error)
}

// TypePolicyRepository provides per-object-type deletion policies.
type TypePolicyRepository interface {
	// GetByObjectType retrieves the policy for one hub object type;
	// missing policies default to manual deletion
	GetByObjectType(ctx context.Context, objectType string) (*TypePolicy, error)

	// Save creates or replaces a policy
	Save(ctx context.Context, policy *TypePolicy) error
}
