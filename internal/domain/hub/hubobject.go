// Package hub holds the authoritative identity record: the hub object, its
// deletion lifecycle and the per-type deletion policy.
package hub

import (
	"fmt"
	"time"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/shared/id"
)

// Status is the hub object lifecycle state.
type Status string

const (
	StatusNormal          Status = "normal"
	StatusPendingDeletion Status = "pending_deletion"
	StatusObsolete        Status = "obsolete"
)

// Origin records how the hub object came to exist.
type Origin string

const (
	// OriginProjected objects were created by an unmatched external object.
	OriginProjected Origin = "projected"
	// OriginInternal objects were created directly by an operator and are
	// never auto-deleted.
	OriginInternal Origin = "internal"
)

// AttributeValue is one hub-side value: the typed value plus the external
// system that last contributed it (empty for operator edits).
type AttributeValue struct {
	Value         attribute.Value
	ContributedBy string
}

// HubObject is the aggregate identity record. It is mutated only through the
// import processor or direct administrative edits; joins live on the
// connected-system side and are traversed via lookup, never embedded here.
type HubObject struct {
	id            uint
	sid           string
	objectType    string
	status        Status
	origin        Origin
	deletionDueAt *time.Time
	values        map[string][]AttributeValue
	createdAt     time.Time
	updatedAt     time.Time
	version       int
}

// NewHubObject creates a hub object of the given type and origin.
func NewHubObject(objectType string, origin Origin) (*HubObject, error) {
	if objectType == "" {
		return nil, fmt.Errorf("object type is required")
	}
	switch origin {
	case OriginProjected, OriginInternal:
	default:
		return nil, fmt.Errorf("invalid origin %q", origin)
	}
	now := time.Now().UTC()
	return &HubObject{
		sid:        id.NewHubObjectSID(),
		objectType: objectType,
		status:     StatusNormal,
		origin:     origin,
		values:     make(map[string][]AttributeValue),
		createdAt:  now,
		updatedAt:  now,
		version:    1,
	}, nil
}

// ReconstructHubObject rebuilds a hub object from persistence.
func ReconstructHubObject(
	objID uint,
	sid string,
	objectType string,
	status Status,
	origin Origin,
	deletionDueAt *time.Time,
	values map[string][]AttributeValue,
	createdAt, updatedAt time.Time,
	version int,
) (*HubObject, error) {
	if objID == 0 {
		return nil, fmt.Errorf("hub object ID cannot be zero")
	}
	if values == nil {
		values = make(map[string][]AttributeValue)
	}
	return &HubObject{
		id:            objID,
		sid:           sid,
		objectType:    objectType,
		status:        status,
		origin:        origin,
		deletionDueAt: deletionDueAt,
		values:        values,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		version:       version,
	}, nil
}

func (h *HubObject) ID() uint            { return h.id }
func (h *HubObject) SID() string         { return h.sid }
func (h *HubObject) ObjectType() string  { return h.objectType }
func (h *HubObject) Status() Status      { return h.status }
func (h *HubObject) Origin() Origin      { return h.origin }
func (h *HubObject) CreatedAt() time.Time { return h.createdAt }
func (h *HubObject) UpdatedAt() time.Time { return h.updatedAt }
func (h *HubObject) Version() int        { return h.version }

// DeletionDueAt returns when a pending deletion becomes effective, if any.
func (h *HubObject) DeletionDueAt() *time.Time {
	if h.deletionDueAt == nil {
		return nil
	}
	t := *h.deletionDueAt
	return &t
}

// SetID sets the store ID after insert (persistence layer only).
func (h *HubObject) SetID(objID uint) error {
	if h.id != 0 {
		return fmt.Errorf("hub object ID is already set")
	}
	if objID == 0 {
		return fmt.Errorf("hub object ID cannot be zero")
	}
	h.id = objID
	return nil
}

// AttributeEntries returns the stored entries for one attribute.
func (h *HubObject) AttributeEntries(name string) []AttributeValue {
	return h.values[name]
}

// ValuesFor returns the typed values of one attribute.
func (h *HubObject) ValuesFor(name string) []attribute.Value {
	entries := h.values[name]
	out := make([]attribute.Value, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out
}

// AllValues flattens the value map for scoping and outbound flow.
func (h *HubObject) AllValues() attribute.Values {
	out := make(attribute.Values, len(h.values))
	for name := range h.values {
		out[name] = h.ValuesFor(name)
	}
	return out
}

// AttributeNames returns every attribute that carries at least one value.
func (h *HubObject) AttributeNames() []string {
	names := make([]string, 0, len(h.values))
	for name := range h.values {
		if len(h.values[name]) > 0 {
			names = append(names, name)
		}
	}
	return names
}

// SetSingleValue replaces the attribute's value. Returns false without
// touching the object when the new value equals the current one, so
// unchanged imports stay write-free.
func (h *HubObject) SetSingleValue(name string, v attribute.Value, contributedBy string) bool {
	current := h.values[name]
	if len(current) == 1 && current[0].Value.Equal(v) {
		return false
	}
	if v.IsEmpty() {
		if len(current) == 0 {
			return false
		}
		delete(h.values, name)
	} else {
		h.values[name] = []AttributeValue{{Value: v, ContributedBy: contributedBy}}
	}
	h.touch()
	return true
}

// AddValue adds one value to a multi-valued attribute, de-duplicated by
// equality. Returns false if the value was already present or empty.
func (h *HubObject) AddValue(name string, v attribute.Value, contributedBy string) bool {
	if v.IsEmpty() {
		return false
	}
	for _, e := range h.values[name] {
		if e.Value.Equal(v) {
			return false
		}
	}
	h.values[name] = append(h.values[name], AttributeValue{Value: v, ContributedBy: contributedBy})
	h.touch()
	return true
}

// RemoveValue removes the entry equal to v. Returns false when absent.
func (h *HubObject) RemoveValue(name string, v attribute.Value) bool {
	entries := h.values[name]
	for i, e := range entries {
		if e.Value.Equal(v) {
			h.values[name] = append(entries[:i:i], entries[i+1:]...)
			if len(h.values[name]) == 0 {
				delete(h.values, name)
			}
			h.touch()
			return true
		}
	}
	return false
}

// ScheduleDeletion moves a Normal object to PendingDeletion with a due time.
func (h *HubObject) ScheduleDeletion(dueAt time.Time) error {
	if h.status == StatusObsolete {
		return fmt.Errorf("cannot schedule deletion of an obsolete object")
	}
	if h.status == StatusPendingDeletion {
		return nil
	}
	due := dueAt.UTC()
	h.status = StatusPendingDeletion
	h.deletionDueAt = &due
	h.touch()
	return nil
}

// CancelDeletion returns a PendingDeletion object to Normal; a re-attached
// join cancels the countdown.
func (h *HubObject) CancelDeletion() error {
	if h.status != StatusPendingDeletion {
		return fmt.Errorf("object is not pending deletion")
	}
	h.status = StatusNormal
	h.deletionDueAt = nil
	h.touch()
	return nil
}

// DeletionDue reports whether a pending deletion has reached its due time.
func (h *HubObject) DeletionDue(now time.Time) bool {
	return h.status == StatusPendingDeletion &&
		h.deletionDueAt != nil &&
		!now.Before(*h.deletionDueAt)
}

// MarkObsolete performs the logical deletion: the status flips and remaining
// attribute ownership is severed. Physical purge is a retention concern
// outside this lifecycle.
func (h *HubObject) MarkObsolete() error {
	if h.status == StatusObsolete {
		return nil
	}
	h.status = StatusObsolete
	h.deletionDueAt = nil
	h.values = make(map[string][]AttributeValue)
	h.touch()
	return nil
}

// IsActive reports whether the object participates in reconciliation.
func (h *HubObject) IsActive() bool {
	return h.status != StatusObsolete
}

func (h *HubObject) touch() {
	h.updatedAt = time.Now().UTC()
	h.version++
}
