package connectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

type stubSystemRepository struct {
	systems map[string]*connector.ConnectedSystem
}

func (s *stubSystemRepository) Create(ctx context.Context, system *connector.ConnectedSystem) error {
	s.systems[system.SID()] = system
	return nil
}

func (s *stubSystemRepository) GetBySID(ctx context.Context, sid string) (*connector.ConnectedSystem, error) {
	system, ok := s.systems[sid]
	if !ok {
		return nil, errors.NewNotFoundError("connected system not found", sid)
	}
	return system, nil
}

func (s *stubSystemRepository) Update(ctx context.Context, system *connector.ConnectedSystem) error {
	s.systems[system.SID()] = system
	return nil
}

func (s *stubSystemRepository) List(ctx context.Context) ([]*connector.ConnectedSystem, error) {
	out := make([]*connector.ConnectedSystem, 0, len(s.systems))
	for _, system := range s.systems {
		out = append(out, system)
	}
	return out, nil
}

func TestRegistry_Resolution(t *testing.T) {
	repo := &stubSystemRepository{systems: make(map[string]*connector.ConnectedSystem)}
	registry := NewRegistry(repo, logger.NewLogger())
	registry.Register("csv-feed", NewCSVFeedFactory(t.TempDir(), logger.NewLogger()))

	feed, err := connector.NewConnectedSystem("hr", "csv-feed")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), feed))

	ldap, err := connector.NewConnectedSystem("corp-ldap", "ldap")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), ldap))

	t.Run("resolves importer and exporter for a registered type", func(t *testing.T) {
		imp, err := registry.ImporterFor(feed.SID())
		require.NoError(t, err)
		assert.NotNil(t, imp)

		exp, err := registry.ExporterFor(feed.SID())
		require.NoError(t, err)
		assert.NotNil(t, exp)
	})

	t.Run("unknown system", func(t *testing.T) {
		_, err := registry.ImporterFor("cs_missing")
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("unregistered system type", func(t *testing.T) {
		_, err := registry.ImporterFor(ldap.SID())
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("disabled system is rejected", func(t *testing.T) {
		feed.Disable()
		_, err := registry.ImporterFor(feed.SID())
		assert.True(t, errors.IsValidationError(err))
		feed.Enable()
	})

	t.Run("re-registering replaces the factory", func(t *testing.T) {
		registry.Register("csv-feed", NewCSVFeedFactory(t.TempDir(), logger.NewLogger()))
		imp, err := registry.ImporterFor(feed.SID())
		require.NoError(t, err)
		assert.NotNil(t, imp)
	})
}
