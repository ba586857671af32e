package hub

import (
	"fmt"
	"time"
)

// DeletionRule decides when a hub object of a given type may be auto-deleted.
type DeletionRule string

const (
	// DeletionManual objects are only ever deleted by an operator.
	DeletionManual DeletionRule = "manual"
	// DeletionWhenLastConnectorDisconnected schedules deletion once the
	// object's last join is broken.
	DeletionWhenLastConnectorDisconnected DeletionRule = "when_last_connector_disconnected"
)

// TypePolicy is the per-object-type deletion policy.
type TypePolicy struct {
	objectType  string
	rule        DeletionRule
	gracePeriod time.Duration
}

// NewTypePolicy validates and creates a policy. A grace period is
// meaningless under Manual and is rejected.
func NewTypePolicy(objectType string, rule DeletionRule, gracePeriod time.Duration) (*TypePolicy, error) {
	if objectType == "" {
		return nil, fmt.Errorf("object type is required")
	}
	switch rule {
	case DeletionManual, DeletionWhenLastConnectorDisconnected:
	default:
		return nil, fmt.Errorf("invalid deletion rule %q", rule)
	}
	if gracePeriod < 0 {
		return nil, fmt.Errorf("grace period cannot be negative")
	}
	if rule == DeletionManual && gracePeriod != 0 {
		return nil, fmt.Errorf("grace period is meaningless under manual deletion")
	}
	return &TypePolicy{objectType: objectType, rule: rule, gracePeriod: gracePeriod}, nil
}

func (p *TypePolicy) ObjectType() string         { return p.objectType }
func (p *TypePolicy) Rule() DeletionRule         { return p.rule }
func (p *TypePolicy) GracePeriod() time.Duration { return p.gracePeriod }

// AutoDeletes reports whether broken joins can trigger deletion at all.
func (p *TypePolicy) AutoDeletes() bool {
	return p.rule == DeletionWhenLastConnectorDisconnected
}

// HasGracePeriod reports whether deletion is delayed after the trigger.
func (p *TypePolicy) HasGracePeriod() bool {
	return p.gracePeriod > 0
}
