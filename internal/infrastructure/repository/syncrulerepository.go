package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/infrastructure/persistence/mappers"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// SyncRuleRepositoryImpl implements the syncrule.Repository interface.
type SyncRuleRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SyncRuleMapper
	logger logger.Interface
}

// NewSyncRuleRepository creates a new sync rule repository instance.
func NewSyncRuleRepository(db *gorm.DB, logger logger.Interface) syncrule.Repository {
	return &SyncRuleRepositoryImpl{
		db:     db,
		mapper: mappers.NewSyncRuleMapper(),
		logger: logger,
	}
}

// Create persists a new rule.
func (r *SyncRuleRepositoryImpl) Create(ctx context.Context, rule *syncrule.SyncRule) error {
	model, err := r.mapper.ToModel(rule)
	if err != nil {
		r.logger.Errorw("failed to map sync rule entity to model", "error", err)
		return fmt.Errorf("failed to map sync rule entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create sync rule in database", "name", model.Name, "error", err)
		return fmt.Errorf("failed to create sync rule: %w", err)
	}

	if err := rule.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set sync rule ID: %w", err)
	}

	r.logger.Infow("sync rule created", "id", model.ID, "name", model.Name)
	return nil
}

// GetBySID retrieves a rule by its SID.
func (r *SyncRuleRepositoryImpl) GetBySID(ctx context.Context, sid string) (*syncrule.SyncRule, error) {
	var model models.SyncRuleModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("sync rule not found", sid)
		}
		r.logger.Errorw("failed to get sync rule by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get sync rule: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// Update updates an existing rule.
func (r *SyncRuleRepositoryImpl) Update(ctx context.Context, rule *syncrule.SyncRule) error {
	model, err := r.mapper.ToModel(rule)
	if err != nil {
		r.logger.Errorw("failed to map sync rule entity to model", "error", err)
		return fmt.Errorf("failed to map sync rule entity: %w", err)
	}

	// Optimistic locking: update only if version matches
	result := r.db.WithContext(ctx).Model(&models.SyncRuleModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]any{
			"name":               model.Name,
			"precedence":         model.Precedence,
			"project_hub":        model.ProjectHub,
			"provision_external": model.ProvisionExternal,
			"scope":              model.Scope,
			"join_criteria":      model.JoinCriteria,
			"mappings":           model.Mappings,
			"out_of_scope_action": model.OutOfScopeAction,
			"enabled":            model.Enabled,
			"updated_at":         model.UpdatedAt,
			"version":            model.Version,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update sync rule", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update sync rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewConcurrencyConflictError(rule.SID())
	}

	return nil
}

// Delete removes a rule.
func (r *SyncRuleRepositoryImpl) Delete(ctx context.Context, sid string) error {
	result := r.db.WithContext(ctx).Where("sid = ?", sid).Delete(&models.SyncRuleModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete sync rule", "sid", sid, "error", result.Error)
		return fmt.Errorf("failed to delete sync rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("sync rule not found", sid)
	}

	r.logger.Infow("sync rule deleted", "sid", sid)
	return nil
}

// ListInScope returns the enabled rules for one connected system, external
// object type and direction, ordered by precedence.
func (r *SyncRuleRepositoryImpl) ListInScope(ctx context.Context, systemSID, externalType string, direction syncrule.Direction) ([]*syncrule.SyncRule, error) {
	var ruleModels []*models.SyncRuleModel

	err := r.db.WithContext(ctx).
		Where("system_sid = ? AND external_type = ? AND direction = ? AND enabled = ?",
			systemSID, externalType, string(direction), true).
		Order("precedence, id").
		Find(&ruleModels).Error
	if err != nil {
		r.logger.Errorw("failed to list sync rules in scope", "system_sid", systemSID, "external_type", externalType, "error", err)
		return nil, fmt.Errorf("failed to list sync rules: %w", err)
	}

	return r.mapper.ToEntities(ruleModels)
}

// ListBySystem returns every rule configured for a connected system.
func (r *SyncRuleRepositoryImpl) ListBySystem(ctx context.Context, systemSID string) ([]*syncrule.SyncRule, error) {
	var ruleModels []*models.SyncRuleModel

	err := r.db.WithContext(ctx).
		Where("system_sid = ?", systemSID).
		Order("precedence, id").
		Find(&ruleModels).Error
	if err != nil {
		r.logger.Errorw("failed to list sync rules by system", "system_sid", systemSID, "error", err)
		return nil, fmt.Errorf("failed to list sync rules: %w", err)
	}

	return r.mapper.ToEntities(ruleModels)
}
