package connector

import (
	"fmt"
	"time"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/shared/id"
)

// JoinState is the external object's relationship to the hub.
type JoinState string

const (
	JoinStateUnjoined     JoinState = "unjoined"
	JoinStateJoined       JoinState = "joined"
	JoinStateDisconnected JoinState = "disconnected"
)

// ObjectStatus tracks whether the object still exists externally.
// Disconnection and external deletion never physically delete the row.
type ObjectStatus string

const (
	ObjectStatusActive  ObjectStatus = "active"
	ObjectStatusDeleted ObjectStatus = "deleted"
)

// CSObject is the representation of one object inside one external system:
// its stable external key, its last-known attribute values and its join.
type CSObject struct {
	id           uint
	sid          string
	systemSID    string
	externalType string
	uniqueID     string
	partition    string
	status       ObjectStatus
	joinState    JoinState
	hubSID       string
	joinedAt     *time.Time
	values       map[string][]attribute.Value
	createdAt    time.Time
	updatedAt    time.Time
	version      int
}

// NewCSObject records an external object seen for the first time by an
// import cycle. uniqueID may be empty for objects the engine provisions
// before the external system assigns a key.
func NewCSObject(systemSID, externalType, uniqueID, partition string) (*CSObject, error) {
	if systemSID == "" {
		return nil, fmt.Errorf("connected system is required")
	}
	if externalType == "" {
		return nil, fmt.Errorf("external object type is required")
	}
	now := time.Now().UTC()
	return &CSObject{
		sid:          id.NewCSObjectSID(),
		systemSID:    systemSID,
		externalType: externalType,
		uniqueID:     uniqueID,
		partition:    partition,
		status:       ObjectStatusActive,
		joinState:    JoinStateUnjoined,
		values:       make(map[string][]attribute.Value),
		createdAt:    now,
		updatedAt:    now,
		version:      1,
	}, nil
}

// ReconstructCSObject rebuilds an external object from persistence.
func ReconstructCSObject(
	objID uint,
	sid, systemSID, externalType, uniqueID, partition string,
	status ObjectStatus,
	joinState JoinState,
	hubSID string,
	joinedAt *time.Time,
	values map[string][]attribute.Value,
	createdAt, updatedAt time.Time,
	version int,
) (*CSObject, error) {
	if objID == 0 {
		return nil, fmt.Errorf("object ID cannot be zero")
	}
	if values == nil {
		values = make(map[string][]attribute.Value)
	}
	return &CSObject{
		id:           objID,
		sid:          sid,
		systemSID:    systemSID,
		externalType: externalType,
		uniqueID:     uniqueID,
		partition:    partition,
		status:       status,
		joinState:    joinState,
		hubSID:       hubSID,
		joinedAt:     joinedAt,
		values:       values,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		version:      version,
	}, nil
}

func (o *CSObject) ID() uint              { return o.id }
func (o *CSObject) SID() string           { return o.sid }
func (o *CSObject) SystemSID() string     { return o.systemSID }
func (o *CSObject) ExternalType() string  { return o.externalType }
func (o *CSObject) UniqueID() string      { return o.uniqueID }
func (o *CSObject) Partition() string     { return o.partition }
func (o *CSObject) Status() ObjectStatus  { return o.status }
func (o *CSObject) JoinState() JoinState  { return o.joinState }
func (o *CSObject) HubSID() string        { return o.hubSID }
func (o *CSObject) CreatedAt() time.Time  { return o.createdAt }
func (o *CSObject) UpdatedAt() time.Time  { return o.updatedAt }
func (o *CSObject) Version() int          { return o.version }

// JoinedAt returns when the current join was made, if joined.
func (o *CSObject) JoinedAt() *time.Time {
	if o.joinedAt == nil {
		return nil
	}
	t := *o.joinedAt
	return &t
}

// SetID sets the store ID after insert (persistence layer only).
func (o *CSObject) SetID(objID uint) error {
	if o.id != 0 {
		return fmt.Errorf("object ID is already set")
	}
	if objID == 0 {
		return fmt.Errorf("object ID cannot be zero")
	}
	o.id = objID
	return nil
}

// IsJoined reports whether the object currently represents a hub object.
func (o *CSObject) IsJoined() bool {
	return o.joinState == JoinStateJoined && o.hubSID != ""
}

// Values returns the object's last-known attribute values.
func (o *CSObject) Values() attribute.Values {
	out := make(attribute.Values, len(o.values))
	for name, list := range o.values {
		cp := make([]attribute.Value, len(list))
		copy(cp, list)
		out[name] = cp
	}
	return out
}

// ReplaceValues overwrites the last-known snapshot with freshly imported
// values. Returns false when nothing actually changed.
func (o *CSObject) ReplaceValues(values attribute.Values) bool {
	if valuesEqual(o.values, values) {
		return false
	}
	next := make(map[string][]attribute.Value, len(values))
	for name, list := range values {
		cp := make([]attribute.Value, len(list))
		copy(cp, list)
		next[name] = cp
	}
	o.values = next
	o.touch()
	return true
}

// ApplyConfirmedExport folds a confirmed outbound delta into the last-known
// values, so the next reconciliation sees the exported state.
func (o *CSObject) ApplyConfirmedExport(changes []AttributeChange) {
	for _, c := range changes {
		switch c.Op {
		case ChangeOpAdd:
			if !attribute.ContainsEqual(o.values[c.Attribute], c.Value) {
				o.values[c.Attribute] = append(o.values[c.Attribute], c.Value)
			}
		case ChangeOpRemove:
			list := o.values[c.Attribute]
			for i, v := range list {
				if v.Equal(c.Value) {
					o.values[c.Attribute] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(o.values[c.Attribute]) == 0 {
				delete(o.values, c.Attribute)
			}
		}
	}
	o.touch()
}

// Join links the object to a hub object.
func (o *CSObject) Join(hubSID string, at time.Time) error {
	if hubSID == "" {
		return fmt.Errorf("hub object SID is required")
	}
	if o.IsJoined() && o.hubSID != hubSID {
		return fmt.Errorf("object is already joined to %s", o.hubSID)
	}
	when := at.UTC()
	o.joinState = JoinStateJoined
	o.hubSID = hubSID
	o.joinedAt = &when
	o.touch()
	return nil
}

// Disconnect breaks the join without touching the external system.
func (o *CSObject) Disconnect() {
	if o.joinState == JoinStateDisconnected && o.hubSID == "" {
		return
	}
	o.joinState = JoinStateDisconnected
	o.hubSID = ""
	o.joinedAt = nil
	o.touch()
}

// MarkDeletedExternally records that the external system deleted the
// object. The row stays for audit; the join is broken.
func (o *CSObject) MarkDeletedExternally() {
	o.status = ObjectStatusDeleted
	o.Disconnect()
}

// AssignUniqueID records the connector-assigned key after a confirmed
// Create export.
func (o *CSObject) AssignUniqueID(uniqueID string) error {
	if uniqueID == "" {
		return fmt.Errorf("unique identifier cannot be empty")
	}
	if o.uniqueID != "" && o.uniqueID != uniqueID {
		return fmt.Errorf("object already has unique identifier %s", o.uniqueID)
	}
	o.uniqueID = uniqueID
	o.touch()
	return nil
}

func (o *CSObject) touch() {
	o.updatedAt = time.Now().UTC()
	o.version++
}

func valuesEqual(a map[string][]attribute.Value, b attribute.Values) bool {
	if len(a) != len(b) {
		return false
	}
	for name, list := range b {
		if !attribute.EqualSets(a[name], list) {
			return false
		}
	}
	return true
}
