// Package run holds run profiles, activity records and per-object outcomes:
// the orchestration side of the engine.
package run

import (
	"fmt"
	"time"

	"github.com/junction-io/junction/internal/shared/id"
)

// Type is one of the five run kinds a profile can execute.
type Type string

const (
	TypeFullImport  Type = "full_import"
	TypeDeltaImport Type = "delta_import"
	TypeFullSync    Type = "full_sync"
	TypeDeltaSync   Type = "delta_sync"
	TypeExport      Type = "export"
)

func validType(t Type) bool {
	switch t {
	case TypeFullImport, TypeDeltaImport, TypeFullSync, TypeDeltaSync, TypeExport:
		return true
	}
	return false
}

// Profile is a reusable run configuration bound to one connected system.
// Delta runs carry a watermark that advances only when the run finishes.
type Profile struct {
	id                uint
	sid               string
	name              string
	systemSID         string
	runType           Type
	pageSize          int
	continueOnFailure bool
	partitionFilter   string
	watermark         *time.Time
	enabled           bool
	createdAt         time.Time
	updatedAt         time.Time
	version           int
}

// NewProfileParams carries the inputs for NewProfile.
type NewProfileParams struct {
	Name              string
	SystemSID         string
	RunType           Type
	PageSize          int
	ContinueOnFailure bool
	PartitionFilter   string
}

// NewProfile creates a run profile.
func NewProfile(params NewProfileParams) (*Profile, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	if params.SystemSID == "" {
		return nil, fmt.Errorf("connected system is required")
	}
	if !validType(params.RunType) {
		return nil, fmt.Errorf("invalid run type %q", params.RunType)
	}
	if params.PageSize < 0 {
		return nil, fmt.Errorf("page size cannot be negative")
	}
	now := time.Now().UTC()
	return &Profile{
		sid:               id.NewRunProfileSID(),
		name:              params.Name,
		systemSID:         params.SystemSID,
		runType:           params.RunType,
		pageSize:          params.PageSize,
		continueOnFailure: params.ContinueOnFailure,
		partitionFilter:   params.PartitionFilter,
		enabled:           true,
		createdAt:         now,
		updatedAt:         now,
		version:           1,
	}, nil
}

// ReconstructProfile rebuilds a profile from persistence.
func ReconstructProfile(
	profileID uint,
	sid string,
	params NewProfileParams,
	watermark *time.Time,
	enabled bool,
	createdAt, updatedAt time.Time,
	version int,
) (*Profile, error) {
	if profileID == 0 {
		return nil, fmt.Errorf("profile ID cannot be zero")
	}
	return &Profile{
		id:                profileID,
		sid:               sid,
		name:              params.Name,
		systemSID:         params.SystemSID,
		runType:           params.RunType,
		pageSize:          params.PageSize,
		continueOnFailure: params.ContinueOnFailure,
		partitionFilter:   params.PartitionFilter,
		watermark:         watermark,
		enabled:           enabled,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
		version:           version,
	}, nil
}

func (p *Profile) ID() uint                { return p.id }
func (p *Profile) SID() string             { return p.sid }
func (p *Profile) Name() string            { return p.name }
func (p *Profile) SystemSID() string       { return p.systemSID }
func (p *Profile) RunType() Type           { return p.runType }
func (p *Profile) ContinueOnFailure() bool { return p.continueOnFailure }
func (p *Profile) PartitionFilter() string { return p.partitionFilter }
func (p *Profile) Enabled() bool           { return p.enabled }
func (p *Profile) CreatedAt() time.Time    { return p.createdAt }
func (p *Profile) UpdatedAt() time.Time    { return p.updatedAt }
func (p *Profile) Version() int            { return p.version }

// PageSize returns the configured page size, or fallback when unset.
func (p *Profile) PageSize(fallback int) int {
	if p.pageSize > 0 {
		return p.pageSize
	}
	return fallback
}

// Watermark returns the delta boundary, if the profile has run before.
func (p *Profile) Watermark() *time.Time {
	if p.watermark == nil {
		return nil
	}
	t := *p.watermark
	return &t
}

// IsDelta reports whether the run is bounded by the watermark.
func (p *Profile) IsDelta() bool {
	return p.runType == TypeDeltaImport || p.runType == TypeDeltaSync
}

// SetID sets the store ID after insert (persistence layer only).
func (p *Profile) SetID(profileID uint) error {
	if p.id != 0 {
		return fmt.Errorf("profile ID is already set")
	}
	if profileID == 0 {
		return fmt.Errorf("profile ID cannot be zero")
	}
	p.id = profileID
	return nil
}

// AdvanceWatermark moves the delta boundary forward after a finished run.
// A watermark never moves backwards.
func (p *Profile) AdvanceWatermark(to time.Time) {
	to = to.UTC()
	if p.watermark != nil && !to.After(*p.watermark) {
		return
	}
	p.watermark = &to
	p.touch()
}

// Disable stops the profile from being scheduled or started.
func (p *Profile) Disable() {
	if !p.enabled {
		return
	}
	p.enabled = false
	p.touch()
}

// Enable returns the profile to service.
func (p *Profile) Enable() {
	if p.enabled {
		return
	}
	p.enabled = true
	p.touch()
}

func (p *Profile) touch() {
	p.updatedAt = time.Now().UTC()
	p.version++
}
