package connector

import (
	"context"

	"github.com/junction-io/junction/internal/domain/attribute"
)

// ObjectSnapshot is the connector-neutral picture of one external object, as
// read during an import. Deleted snapshots carry no values.
type ObjectSnapshot struct {
	UniqueID     string
	ExternalType string
	Partition    string
	Deleted      bool
	Values       attribute.Values
}

// Importer reads pages of object snapshots from an external system. A nil
// cursor starts from the beginning; implementations return the cursor for
// the next page, or nil when exhausted.
type Importer interface {
	ReadPage(ctx context.Context, cursor []byte, pageSize int) (snapshots []ObjectSnapshot, next []byte, err error)
}

// ExportResult reports what the external system did with a staged change.
// AssignedUniqueID is set when a create handed back a system-generated
// identifier for the new object.
type ExportResult struct {
	AssignedUniqueID string
}

// Exporter pushes one staged change to an external system. Errors are
// connector errors; the caller records them against the pending export and
// moves on.
type Exporter interface {
	Apply(ctx context.Context, externalType string, uniqueID string, changeType ChangeType, changes []AttributeChange) (ExportResult, error)
}
