// Package connectors resolves the importer/exporter pair for a connected
// system. Adapters register per system type; resolution goes through the
// connected-system registry so a renamed or disabled system is caught at
// run start, not mid-page.
package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// Factory builds the connector endpoints for one connected system.
type Factory interface {
	NewImporter(system *connector.ConnectedSystem) (connector.Importer, error)
	NewExporter(system *connector.ConnectedSystem) (connector.Exporter, error)
}

// Registry maps system types to adapter factories.
type Registry struct {
	systems connector.ConnectedSystemRepository
	logger  logger.Interface

	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty connector registry.
func NewRegistry(systems connector.ConnectedSystemRepository, log logger.Interface) *Registry {
	return &Registry{
		systems:   systems,
		logger:    log,
		factories: make(map[string]Factory),
	}
}

// Register installs the factory for a system type, replacing any previous one.
func (r *Registry) Register(systemType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[systemType] = factory
	r.logger.Debugw("connector factory registered", "system_type", systemType)
}

// ImporterFor resolves the importer for a connected system.
func (r *Registry) ImporterFor(systemSID string) (connector.Importer, error) {
	system, factory, err := r.resolve(systemSID)
	if err != nil {
		return nil, err
	}
	return factory.NewImporter(system)
}

// ExporterFor resolves the exporter for a connected system.
func (r *Registry) ExporterFor(systemSID string) (connector.Exporter, error) {
	system, factory, err := r.resolve(systemSID)
	if err != nil {
		return nil, err
	}
	return factory.NewExporter(system)
}

func (r *Registry) resolve(systemSID string) (*connector.ConnectedSystem, Factory, error) {
	system, err := r.systems.GetBySID(context.Background(), systemSID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve connected system %s: %w", systemSID, err)
	}
	if !system.Enabled() {
		return nil, nil, errors.NewValidationError(fmt.Sprintf("connected system %s is disabled", system.Name()))
	}

	r.mu.RLock()
	factory, ok := r.factories[system.SystemType()]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, errors.NewNotFoundError("no connector registered for system type", system.SystemType())
	}

	return system, factory, nil
}
