// Package syncrule holds the declarative configuration driving the engine:
// per-system, per-object-type rules with scoping criteria, attribute flow
// mappings and join conditions.
package syncrule

import (
	"fmt"
	"sort"
	"time"

	"github.com/junction-io/junction/internal/shared/id"
)

// Direction of attribute flow.
type Direction string

const (
	DirectionInbound  Direction = "inbound"  // external system → hub
	DirectionOutbound Direction = "outbound" // hub → external system
)

// OutOfScopeAction decides what happens to a joined object whose rule scope
// no longer matches.
type OutOfScopeAction string

const (
	OutOfScopeRemainJoined OutOfScopeAction = "remain_joined"
	OutOfScopeDisconnect   OutOfScopeAction = "disconnect"
	// OutOfScopeDelete stages a Delete pending export (outbound rules only).
	OutOfScopeDelete OutOfScopeAction = "delete"
)

// SyncRule scopes one (external-system-object-type, hub-object-type) pair in
// one direction. Rules are user-authored configuration; the engine only
// reads them.
type SyncRule struct {
	id                uint
	sid               string
	name              string
	systemSID         string
	externalType      string
	hubType           string
	direction         Direction
	precedence        int
	projectHub        bool
	provisionExternal bool
	mappings          []Mapping
	scope             []CriteriaGroup
	joinCriteria      []JoinPair
	outOfScopeAction  OutOfScopeAction
	enabled           bool
	createdAt         time.Time
	updatedAt         time.Time
	version           int
}

// NewSyncRuleParams carries the user-authored rule definition.
type NewSyncRuleParams struct {
	Name              string
	SystemSID         string
	ExternalType      string
	HubType           string
	Direction         Direction
	Precedence        int
	ProjectHub        bool
	ProvisionExternal bool
	Mappings          []Mapping
	Scope             []CriteriaGroup
	JoinCriteria      []JoinPair
	OutOfScopeAction  OutOfScopeAction
}

// NewSyncRule validates and creates a rule.
func NewSyncRule(p NewSyncRuleParams) (*SyncRule, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("rule name is required")
	}
	if p.SystemSID == "" {
		return nil, fmt.Errorf("connected system is required")
	}
	if p.ExternalType == "" || p.HubType == "" {
		return nil, fmt.Errorf("external and hub object types are required")
	}
	switch p.Direction {
	case DirectionInbound, DirectionOutbound:
	default:
		return nil, fmt.Errorf("invalid direction %q", p.Direction)
	}
	if p.ProjectHub && p.Direction != DirectionInbound {
		return nil, fmt.Errorf("only inbound rules may project hub objects")
	}
	if p.ProvisionExternal && p.Direction != DirectionOutbound {
		return nil, fmt.Errorf("only outbound rules may provision external objects")
	}
	action := p.OutOfScopeAction
	if action == "" {
		action = OutOfScopeRemainJoined
	}
	if action == OutOfScopeDelete && p.Direction != DirectionOutbound {
		return nil, fmt.Errorf("out-of-scope delete requires an outbound rule")
	}
	for i, m := range p.Mappings {
		if m.TargetAttribute == "" {
			return nil, fmt.Errorf("mapping %d: target attribute is required", i)
		}
		if len(m.Sources) == 0 {
			return nil, fmt.Errorf("mapping %q: at least one source is required", m.TargetAttribute)
		}
	}

	now := time.Now().UTC()
	return &SyncRule{
		sid:               id.NewSyncRuleSID(),
		name:              p.Name,
		systemSID:         p.SystemSID,
		externalType:      p.ExternalType,
		hubType:           p.HubType,
		direction:         p.Direction,
		precedence:        p.Precedence,
		projectHub:        p.ProjectHub,
		provisionExternal: p.ProvisionExternal,
		mappings:          sortedMappings(p.Mappings),
		scope:             p.Scope,
		joinCriteria:      p.JoinCriteria,
		outOfScopeAction:  action,
		enabled:           true,
		createdAt:         now,
		updatedAt:         now,
		version:           1,
	}, nil
}

// ReconstructSyncRule rebuilds a rule from persistence.
func ReconstructSyncRule(
	ruleID uint,
	sid string,
	p NewSyncRuleParams,
	enabled bool,
	createdAt, updatedAt time.Time,
	version int,
) (*SyncRule, error) {
	if ruleID == 0 {
		return nil, fmt.Errorf("rule ID cannot be zero")
	}
	r, err := NewSyncRule(p)
	if err != nil {
		return nil, err
	}
	r.id = ruleID
	r.sid = sid
	r.enabled = enabled
	r.createdAt = createdAt
	r.updatedAt = updatedAt
	r.version = version
	return r, nil
}

func sortedMappings(in []Mapping) []Mapping {
	out := make([]Mapping, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (r *SyncRule) ID() uint                           { return r.id }
func (r *SyncRule) SID() string                        { return r.sid }
func (r *SyncRule) Name() string                       { return r.name }
func (r *SyncRule) SystemSID() string                  { return r.systemSID }
func (r *SyncRule) ExternalType() string               { return r.externalType }
func (r *SyncRule) HubType() string                    { return r.hubType }
func (r *SyncRule) Direction() Direction               { return r.direction }
func (r *SyncRule) Precedence() int                    { return r.precedence }
func (r *SyncRule) ProjectsHub() bool                  { return r.projectHub }
func (r *SyncRule) ProvisionsExternal() bool           { return r.provisionExternal }
func (r *SyncRule) Scope() []CriteriaGroup             { return r.scope }
func (r *SyncRule) JoinCriteria() []JoinPair           { return r.joinCriteria }
func (r *SyncRule) OutOfScopeAction() OutOfScopeAction { return r.outOfScopeAction }
func (r *SyncRule) Enabled() bool                      { return r.enabled }
func (r *SyncRule) CreatedAt() time.Time               { return r.createdAt }
func (r *SyncRule) UpdatedAt() time.Time               { return r.updatedAt }
func (r *SyncRule) Version() int                       { return r.version }

// Mappings returns the rule's mappings in declared order.
func (r *SyncRule) Mappings() []Mapping {
	return r.mappings
}

// SetID sets the store ID after insert (persistence layer only).
func (r *SyncRule) SetID(ruleID uint) error {
	if r.id != 0 {
		return fmt.Errorf("rule ID is already set")
	}
	if ruleID == 0 {
		return fmt.Errorf("rule ID cannot be zero")
	}
	r.id = ruleID
	return nil
}

// Disable takes the rule out of every future run.
func (r *SyncRule) Disable() {
	if !r.enabled {
		return
	}
	r.enabled = false
	r.updatedAt = time.Now().UTC()
	r.version++
}

// Enable returns the rule to service.
func (r *SyncRule) Enable() {
	if r.enabled {
		return
	}
	r.enabled = true
	r.updatedAt = time.Now().UTC()
	r.version++
}

// CanJoin reports whether the rule declares a join condition.
func (r *SyncRule) CanJoin() bool {
	return len(r.joinCriteria) > 0
}
