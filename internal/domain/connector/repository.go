package connector

import (
	"context"
	"time"
)

// ConnectedSystemRepository persists connected-system registrations.
type ConnectedSystemRepository interface {
	Create(ctx context.Context, system *ConnectedSystem) error
	GetBySID(ctx context.Context, sid string) (*ConnectedSystem, error)
	Update(ctx context.Context, system *ConnectedSystem) error
	List(ctx context.Context) ([]*ConnectedSystem, error)
}

// CSObjectRepository persists connected-system objects. Update enforces
// optimistic locking on the version column and returns a concurrency
// conflict when the stored version moved.
type CSObjectRepository interface {
	Create(ctx context.Context, obj *CSObject) error
	GetBySID(ctx context.Context, sid string) (*CSObject, error)
	GetByUniqueID(ctx context.Context, systemSID, externalType, uniqueID string) (*CSObject, error)
	Update(ctx context.Context, obj *CSObject) error
	Delete(ctx context.Context, obj *CSObject) error

	// ListPage walks a system's objects in stable ID order for paged runs.
	ListPage(ctx context.Context, systemSID string, afterID uint, limit int) ([]*CSObject, error)
	// ListJoinedToHub returns every object currently joined to the hub object.
	ListJoinedToHub(ctx context.Context, hubSID string) ([]*CSObject, error)
	// ListUpdatedSince bounds a delta run to objects touched after the watermark.
	ListUpdatedSince(ctx context.Context, systemSID string, since time.Time, afterID uint, limit int) ([]*CSObject, error)
	// CountJoined reports how many active joins the hub object still has.
	CountJoined(ctx context.Context, hubSID string) (int64, error)
}

// PendingExportRepository persists staged outbound changes.
type PendingExportRepository interface {
	Create(ctx context.Context, pe *PendingExport) error
	GetBySID(ctx context.Context, sid string) (*PendingExport, error)
	// GetByCSObject returns the single staged change for an object, or a
	// not-found error; at most one pending export exists per object.
	GetByCSObject(ctx context.Context, csObjectSID string) (*PendingExport, error)
	Update(ctx context.Context, pe *PendingExport) error
	// Delete removes a confirmed or superseded export.
	Delete(ctx context.Context, pe *PendingExport) error
	// ListBySystem walks a system's staged changes in stable ID order.
	ListBySystem(ctx context.Context, systemSID string, afterID uint, limit int) ([]*PendingExport, error)
}
