// Package connector holds the external side of reconciliation: connected
// systems, their object representations, staged outbound changes and the
// import/export contracts concrete connectors implement.
package connector

import (
	"fmt"
	"time"

	"github.com/junction-io/junction/internal/shared/id"
)

// ConnectedSystem is one external system of record.
type ConnectedSystem struct {
	id         uint
	sid        string
	name       string
	systemType string
	enabled    bool
	createdAt  time.Time
	updatedAt  time.Time
	version    int
}

// NewConnectedSystem registers an external system.
func NewConnectedSystem(name, systemType string) (*ConnectedSystem, error) {
	if name == "" {
		return nil, fmt.Errorf("system name is required")
	}
	if systemType == "" {
		return nil, fmt.Errorf("system type is required")
	}
	now := time.Now().UTC()
	return &ConnectedSystem{
		sid:        id.NewConnectedSystemSID(),
		name:       name,
		systemType: systemType,
		enabled:    true,
		createdAt:  now,
		updatedAt:  now,
		version:    1,
	}, nil
}

// ReconstructConnectedSystem rebuilds a system from persistence.
func ReconstructConnectedSystem(sysID uint, sid, name, systemType string, enabled bool, createdAt, updatedAt time.Time, version int) (*ConnectedSystem, error) {
	if sysID == 0 {
		return nil, fmt.Errorf("system ID cannot be zero")
	}
	return &ConnectedSystem{
		id:         sysID,
		sid:        sid,
		name:       name,
		systemType: systemType,
		enabled:    enabled,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		version:    version,
	}, nil
}

func (s *ConnectedSystem) ID() uint             { return s.id }
func (s *ConnectedSystem) SID() string          { return s.sid }
func (s *ConnectedSystem) Name() string         { return s.name }
func (s *ConnectedSystem) SystemType() string   { return s.systemType }
func (s *ConnectedSystem) Enabled() bool        { return s.enabled }
func (s *ConnectedSystem) CreatedAt() time.Time { return s.createdAt }
func (s *ConnectedSystem) UpdatedAt() time.Time { return s.updatedAt }
func (s *ConnectedSystem) Version() int         { return s.version }

// SetID sets the store ID after insert (persistence layer only).
func (s *ConnectedSystem) SetID(sysID uint) error {
	if s.id != 0 {
		return fmt.Errorf("system ID is already set")
	}
	if sysID == 0 {
		return fmt.Errorf("system ID cannot be zero")
	}
	s.id = sysID
	return nil
}

// Disable stops all runs against this system.
func (s *ConnectedSystem) Disable() {
	if !s.enabled {
		return
	}
	s.enabled = false
	s.updatedAt = time.Now().UTC()
	s.version++
}

// Enable returns the system to service.
func (s *ConnectedSystem) Enable() {
	if s.enabled {
		return
	}
	s.enabled = true
	s.updatedAt = time.Now().UTC()
	s.version++
}
