package services

import (
	"context"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// ImportProcessor absorbs connector snapshots into connected-system objects
// and syncs joined objects inbound to the hub. Writes are diff-only: a
// snapshot or flow result equal to the stored state touches nothing, so
// re-running an import is idempotent.
type ImportProcessor struct {
	csRepo       connector.CSObjectRepository
	hubRepo      hub.Repository
	ruleRepo     syncrule.Repository
	resolver     *FlowResolver
	joins        *JoinEngine
	lifecycle    *DeletionLifecycle
	changes      audit.ChangeRepository
	verboseAudit bool
	logger       logger.Interface
}

// NewImportProcessor builds an import processor.
func NewImportProcessor(
	csRepo connector.CSObjectRepository,
	hubRepo hub.Repository,
	ruleRepo syncrule.Repository,
	resolver *FlowResolver,
	joins *JoinEngine,
	lifecycle *DeletionLifecycle,
	changes audit.ChangeRepository,
	verboseAudit bool,
	log logger.Interface,
) *ImportProcessor {
	return &ImportProcessor{
		csRepo:       csRepo,
		hubRepo:      hubRepo,
		ruleRepo:     ruleRepo,
		resolver:     resolver,
		joins:        joins,
		lifecycle:    lifecycle,
		changes:      changes,
		verboseAudit: verboseAudit,
		logger:       log,
	}
}

// AbsorbSnapshot lands one connector snapshot as a connected-system object.
// New external objects are created, known ones updated only when the values
// actually differ, deleted ones marked and disconnected.
func (p *ImportProcessor) AbsorbSnapshot(ctx context.Context, systemSID string, snap connector.ObjectSnapshot) (*connector.CSObject, run.OutcomeKind, error) {
	obj, err := p.csRepo.GetByUniqueID(ctx, systemSID, snap.ExternalType, snap.UniqueID)
	if err != nil && !errors.IsNotFoundError(err) {
		return nil, "", err
	}

	if obj == nil {
		if snap.Deleted {
			// Delete of an object never imported is a no-op.
			return nil, run.OutcomeUnchanged, nil
		}
		obj, err = connector.NewCSObject(systemSID, snap.ExternalType, snap.UniqueID, snap.Partition)
		if err != nil {
			return nil, "", err
		}
		obj.ReplaceValues(snap.Values)
		if err := p.csRepo.Create(ctx, obj); err != nil {
			return nil, "", err
		}
		return obj, run.OutcomeAdded, nil
	}

	if snap.Deleted {
		return p.absorbDeletion(ctx, obj)
	}

	if !obj.ReplaceValues(snap.Values) {
		return obj, run.OutcomeUnchanged, nil
	}
	if err := p.csRepo.Update(ctx, obj); err != nil {
		return nil, "", err
	}
	return obj, run.OutcomeUpdated, nil
}

func (p *ImportProcessor) absorbDeletion(ctx context.Context, obj *connector.CSObject) (*connector.CSObject, run.OutcomeKind, error) {
	if obj.Status() == connector.ObjectStatusDeleted {
		return obj, run.OutcomeUnchanged, nil
	}
	hubSID := obj.HubSID()
	obj.MarkDeletedExternally()
	if err := p.csRepo.Update(ctx, obj); err != nil {
		return nil, "", err
	}
	if hubSID != "" {
		target, err := p.hubRepo.GetBySID(ctx, hubSID)
		if err != nil {
			return nil, "", err
		}
		if _, err := p.lifecycle.HandleDisconnect(ctx, target); err != nil {
			return nil, "", err
		}
	}
	return obj, run.OutcomeDeleted, nil
}

// HubFor loads the hub object a joined source object represents.
func (p *ImportProcessor) HubFor(ctx context.Context, obj *connector.CSObject) (*hub.HubObject, error) {
	return p.hubRepo.GetBySID(ctx, obj.HubSID())
}

// SyncResult is the inbound sync outcome for one source object.
type SyncResult struct {
	Outcome  run.OutcomeItem
	Children []run.OutcomeItem
	Counters run.Counters
}

// SyncInbound runs one source object through the inbound rules for its
// system and type: scope check, join or projection, attribute flow into the
// hub object. Object-level failures come back as error-kind outcomes, not
// as returned errors, so a page keeps going under continue-on-failure.
func (p *ImportProcessor) SyncInbound(ctx context.Context, obj *connector.CSObject, activitySID string, by audit.Initiator) (SyncResult, error) {
	rules, err := p.ruleRepo.ListInScope(ctx, obj.SystemSID(), obj.ExternalType(), syncrule.DirectionInbound)
	if err != nil {
		return SyncResult{}, err
	}

	applicable, failure := p.applicableRules(rules, obj.Values())
	if failure != nil {
		return p.failureResult(activitySID, obj.SID(), run.OutcomeScopingError, failure), nil
	}

	if len(applicable) == 0 {
		return p.handleOutOfScope(ctx, obj, rules, activitySID)
	}

	resolved, mappingFailures, err := p.resolveFlows(ctx, obj, applicable)
	if err != nil {
		return SyncResult{}, err
	}

	joinRes, err := p.joins.Apply(ctx, obj, applicable, flattenResolved(applicable, resolved))
	if err != nil {
		if errors.IsAmbiguousJoin(err) {
			return p.failureResult(activitySID, obj.SID(), run.OutcomeAmbiguousJoin, err), nil
		}
		return SyncResult{}, err
	}

	result := SyncResult{}
	switch joinRes.Outcome {
	case JoinOutcomeNone:
		result.Outcome = run.NewOutcomeItem(activitySID, obj.SID(), run.OutcomeUnchanged, "no join, no projection")
		p.noteMappingFailures(&result, obj.SID(), mappingFailures)
		return result, nil
	case JoinOutcomeJoined:
		result.Counters.Joined++
	case JoinOutcomeProjected:
		result.Counters.Projected++
	}
	if joinRes.Outcome != JoinOutcomeAlreadyJoined {
		if err := p.csRepo.Update(ctx, obj); err != nil {
			return SyncResult{}, err
		}
	}

	target := joinRes.Hub
	changed, records := p.applyFlows(target, applicable, resolved, activitySID, by)
	if changed {
		if err := p.hubRepo.Update(ctx, target); err != nil {
			return SyncResult{}, err
		}
		if len(records) > 0 {
			if err := p.changes.Append(ctx, records); err != nil {
				return SyncResult{}, err
			}
		}
		result.Counters.Updated++
	}

	kind := run.OutcomeUnchanged
	msg := ""
	switch {
	case joinRes.Outcome == JoinOutcomeProjected:
		kind = run.OutcomeProjected
	case joinRes.Outcome == JoinOutcomeJoined:
		kind = run.OutcomeJoined
	case changed:
		kind = run.OutcomeUpdated
	}
	result.Outcome = run.NewOutcomeItem(activitySID, obj.SID(), kind, msg)
	if changed {
		result.Children = append(result.Children,
			result.Outcome.Child(target.SID(), run.OutcomeUpdated, ""))
	}
	p.noteMappingFailures(&result, obj.SID(), mappingFailures)
	return result, nil
}

// noteMappingFailures records each failed mapping as an error-kind child
// outcome. One bad mapping never stops the object's other flows.
func (p *ImportProcessor) noteMappingFailures(result *SyncResult, objectSID string, failures []error) {
	for _, cause := range failures {
		p.logger.Warnw("mapping failed", "object_sid", objectSID, "error", cause)
		result.Counters.Errors++
		result.Children = append(result.Children,
			result.Outcome.Child(objectSID, run.OutcomeMappingError, cause.Error()))
	}
}

// applicableRules filters the precedence-ordered rule list down to rules
// whose scope matches the object's raw values.
func (p *ImportProcessor) applicableRules(rules []*syncrule.SyncRule, values attribute.Values) ([]*syncrule.SyncRule, error) {
	var out []*syncrule.SyncRule
	for _, rule := range rules {
		ok, err := syncrule.EvaluateScope(rule.Scope(), values)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rule)
		}
	}
	return out, nil
}

// resolveFlows evaluates every applicable rule's mappings against the
// object's values and resolves pending references against same-system
// joins. Rules keep their precedence order. Mapping failures come back
// separately from infrastructure errors.
func (p *ImportProcessor) resolveFlows(ctx context.Context, obj *connector.CSObject, rules []*syncrule.SyncRule) (map[string]attribute.Values, []error, error) {
	resolved := make(map[string]attribute.Values, len(rules))
	var failed []error
	values := obj.Values()
	for _, rule := range rules {
		vals, failures := p.resolver.Resolve(rule.Mappings(), values)
		failed = append(failed, failures...)
		for name, list := range vals {
			for i, v := range list {
				if !v.IsPendingReference() {
					continue
				}
				rv, err := p.resolveReference(ctx, obj, v)
				if err != nil {
					return nil, nil, err
				}
				list[i] = rv
			}
			vals[name] = list
		}
		resolved[rule.SID()] = vals
	}
	return resolved, failed, nil
}

// resolveReference turns a pending reference into a hub reference when the
// pointed-at object exists in the same system and is joined. Otherwise the
// reference stays pending and a later sync retries it.
func (p *ImportProcessor) resolveReference(ctx context.Context, obj *connector.CSObject, v attribute.Value) (attribute.Value, error) {
	pointed, err := p.csRepo.GetByUniqueID(ctx, obj.SystemSID(), obj.ExternalType(), v.RefPending())
	if err != nil {
		if errors.IsNotFoundError(err) {
			return v, nil
		}
		return attribute.Value{}, err
	}
	if pointed == nil || !pointed.IsJoined() {
		return v, nil
	}
	return attribute.NewReference(pointed.HubSID()), nil
}

// applyFlows writes resolved values onto the hub object. Rules run in
// precedence order; within one pass the first rule to claim a single-valued
// target keeps it. Multi-valued targets union contributions across rules.
func (p *ImportProcessor) applyFlows(
	target *hub.HubObject,
	rules []*syncrule.SyncRule,
	resolved map[string]attribute.Values,
	activitySID string,
	by audit.Initiator,
) (bool, []audit.ChangeRecord) {
	changed := false
	var records []audit.ChangeRecord
	claimed := make(map[string]string)

	for _, rule := range rules {
		vals := resolved[rule.SID()]
		for i := range rule.Mappings() {
			m := rule.Mappings()[i]
			name := m.TargetAttribute
			if owner, taken := claimed[name]; taken && owner != rule.SID() && !m.MultiValued {
				continue
			}

			list, ok := vals[name]
			if !ok {
				// The mapping failed to resolve; leave the target alone.
				continue
			}
			if m.MultiValued {
				for _, v := range list {
					if v.IsEmpty() || v.IsPendingReference() {
						continue
					}
					if target.AddValue(name, v, rule.SID()) {
						changed = true
						records = append(records, audit.NewChangeRecord(
							target.SID(), activitySID, name, audit.ChangeOpAdd, v, rule.SID(), by))
					}
				}
				continue
			}

			claimed[name] = rule.SID()
			var v attribute.Value
			if len(list) > 0 {
				v = list[0]
			}
			if v.IsPendingReference() {
				// Unresolved references never clear an existing value.
				continue
			}
			if target.SetSingleValue(name, v, rule.SID()) {
				changed = true
				op := audit.ChangeOpAdd
				if v.IsEmpty() {
					op = audit.ChangeOpRemove
				}
				records = append(records, audit.NewChangeRecord(
					target.SID(), activitySID, name, op, v, rule.SID(), by))
			} else if p.verboseAudit {
				records = append(records, audit.NewChangeRecord(
					target.SID(), activitySID, name, audit.ChangeOpAdd, v, rule.SID(), by))
			}
		}
	}
	return changed, records
}

// handleOutOfScope applies the highest-precedence rule's out-of-scope
// action to a joined object whose values no longer match any rule scope.
func (p *ImportProcessor) handleOutOfScope(ctx context.Context, obj *connector.CSObject, rules []*syncrule.SyncRule, activitySID string) (SyncResult, error) {
	result := SyncResult{}
	if !obj.IsJoined() || len(rules) == 0 {
		result.Outcome = run.NewOutcomeItem(activitySID, obj.SID(), run.OutcomeUnchanged, "no rule in scope")
		return result, nil
	}

	action := rules[0].OutOfScopeAction()
	if action != syncrule.OutOfScopeDisconnect {
		result.Outcome = run.NewOutcomeItem(activitySID, obj.SID(), run.OutcomeOutOfScope, "remains joined")
		return result, nil
	}

	hubSID := obj.HubSID()
	obj.Disconnect()
	if err := p.csRepo.Update(ctx, obj); err != nil {
		return SyncResult{}, err
	}
	result.Counters.Disconnected++
	result.Outcome = run.NewOutcomeItem(activitySID, obj.SID(), run.OutcomeDisconnected, "out of scope")

	target, err := p.hubRepo.GetBySID(ctx, hubSID)
	if err != nil {
		return SyncResult{}, err
	}
	affected, err := p.lifecycle.HandleDisconnect(ctx, target)
	if err != nil {
		return SyncResult{}, err
	}
	if affected {
		result.Children = append(result.Children,
			result.Outcome.Child(target.SID(), run.OutcomeKind(target.Status()), ""))
	}
	return result, nil
}

func (p *ImportProcessor) failureResult(activitySID, objectSID string, kind run.OutcomeKind, cause error) SyncResult {
	p.logger.Warnw("object sync failed", "object_sid", objectSID, "kind", kind, "error", cause)
	return SyncResult{
		Outcome:  run.NewOutcomeItem(activitySID, objectSID, kind, cause.Error()),
		Counters: run.Counters{Errors: 1},
	}
}

// flattenResolved merges every rule's resolved values into one view for
// join evaluation. Higher-precedence rules win collisions.
func flattenResolved(rules []*syncrule.SyncRule, resolved map[string]attribute.Values) attribute.Values {
	out := make(attribute.Values)
	for _, rule := range rules {
		for name, list := range resolved[rule.SID()] {
			if _, ok := out[name]; !ok {
				out[name] = list
			}
		}
	}
	return out
}
