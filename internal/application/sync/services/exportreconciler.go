package services

import (
	"context"
	"sort"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/shared/biztime"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// ExportReconciler computes what each external system should look like for
// a hub object and stages the difference as pending exports. Recomputing is
// idempotent: an existing staged export is replaced, never stacked, and a
// zero diff stages nothing.
type ExportReconciler struct {
	csRepo    connector.CSObjectRepository
	peRepo    connector.PendingExportRepository
	hubRepo   hub.Repository
	ruleRepo  syncrule.Repository
	resolver  *FlowResolver
	lifecycle *DeletionLifecycle
	logger    logger.Interface
}

// NewExportReconciler builds an export reconciler.
func NewExportReconciler(
	csRepo connector.CSObjectRepository,
	peRepo connector.PendingExportRepository,
	hubRepo hub.Repository,
	ruleRepo syncrule.Repository,
	resolver *FlowResolver,
	lifecycle *DeletionLifecycle,
	log logger.Interface,
) *ExportReconciler {
	return &ExportReconciler{
		csRepo:    csRepo,
		peRepo:    peRepo,
		hubRepo:   hubRepo,
		ruleRepo:  ruleRepo,
		resolver:  resolver,
		lifecycle: lifecycle,
		logger:    log,
	}
}

// ReconcileHub recomputes the staged exports one hub object needs in one
// connected system: updates for joined objects, a provisioning create when
// an outbound rule says the object should exist there and it does not, and
// deletes or disconnects for objects that fell out of rule scope.
func (r *ExportReconciler) ReconcileHub(ctx context.Context, obj *hub.HubObject, systemSID string) (run.Counters, error) {
	counters := run.Counters{}
	if !obj.IsActive() {
		return counters, nil
	}

	rules, err := r.outboundRules(ctx, systemSID, obj.ObjectType())
	if err != nil {
		return counters, err
	}
	if len(rules) == 0 {
		return counters, nil
	}

	joined, err := r.csRepo.ListJoinedToHub(ctx, obj.SID())
	if err != nil {
		return counters, err
	}
	joinedByType := make(map[string]*connector.CSObject)
	for _, cso := range joined {
		if cso.SystemSID() == systemSID {
			joinedByType[cso.ExternalType()] = cso
		}
	}

	hubValues := obj.AllValues()
	for _, rule := range rules {
		inScope, err := syncrule.EvaluateScope(rule.Scope(), hubValues)
		if err != nil {
			return counters, err
		}

		cso := joinedByType[rule.ExternalType()]
		switch {
		case inScope && cso != nil:
			changed, err := r.stageUpdate(ctx, rule, obj, cso, hubValues)
			if err != nil {
				return counters, err
			}
			if changed {
				counters.Updated++
			}
		case inScope && cso == nil && rule.ProvisionsExternal():
			if err := r.stageProvision(ctx, rule, obj, hubValues); err != nil {
				return counters, err
			}
			counters.Provisioned++
		case !inScope && cso != nil:
			c, err := r.handleOutOfScope(ctx, rule, cso)
			if err != nil {
				return counters, err
			}
			counters.Add(c)
		}
	}
	return counters, nil
}

// resolveOutbound evaluates a rule's mappings against the hub values. A
// failed mapping's target is simply absent from the result, so the diff
// leaves that external attribute untouched rather than clearing it.
func (r *ExportReconciler) resolveOutbound(rule *syncrule.SyncRule, obj *hub.HubObject, hubValues attribute.Values) attribute.Values {
	desired, failures := r.resolver.Resolve(rule.Mappings(), hubValues)
	for _, cause := range failures {
		r.logger.Warnw("outbound mapping failed",
			"hub_sid", obj.SID(), "rule_sid", rule.SID(), "error", cause)
	}
	return desired
}

func (r *ExportReconciler) outboundRules(ctx context.Context, systemSID, hubType string) ([]*syncrule.SyncRule, error) {
	all, err := r.ruleRepo.ListBySystem(ctx, systemSID)
	if err != nil {
		return nil, err
	}
	var out []*syncrule.SyncRule
	for _, rule := range all {
		if rule.Enabled() && rule.Direction() == syncrule.DirectionOutbound && rule.HubType() == hubType {
			out = append(out, rule)
		}
	}
	return out, nil
}

// stageUpdate diffs the desired external values against the object's
// last-known state and stages an update export, replacing any staged one.
// A zero diff removes a stale staged export instead.
func (r *ExportReconciler) stageUpdate(ctx context.Context, rule *syncrule.SyncRule, obj *hub.HubObject, cso *connector.CSObject, hubValues attribute.Values) (bool, error) {
	desired := r.resolveOutbound(rule, obj, hubValues)
	changes := diffValues(cso.Values(), desired)

	existing, err := r.peRepo.GetByCSObject(ctx, cso.SID())
	if err != nil && !errors.IsNotFoundError(err) {
		return false, err
	}

	if len(changes) == 0 {
		if existing != nil && existing.ChangeType() == connector.ChangeTypeUpdate {
			return false, r.peRepo.Delete(ctx, existing)
		}
		return false, nil
	}

	if existing != nil {
		existing.Replace(connector.ChangeTypeUpdate, changes)
		return true, r.peRepo.Update(ctx, existing)
	}
	pe, err := connector.NewPendingExport(cso.SID(), cso.SystemSID(), connector.ChangeTypeUpdate, changes)
	if err != nil {
		return false, err
	}
	return true, r.peRepo.Create(ctx, pe)
}

// stageProvision creates the placeholder object and stages the Create
// export carrying the full desired state. The external system assigns the
// unique identifier when the create is confirmed.
func (r *ExportReconciler) stageProvision(ctx context.Context, rule *syncrule.SyncRule, obj *hub.HubObject, hubValues attribute.Values) error {
	desired := r.resolveOutbound(rule, obj, hubValues)

	cso, err := connector.NewCSObject(rule.SystemSID(), rule.ExternalType(), "", "")
	if err != nil {
		return err
	}
	if err := cso.Join(obj.SID(), biztime.NowUTC()); err != nil {
		return err
	}
	if err := r.csRepo.Create(ctx, cso); err != nil {
		return err
	}

	changes := diffValues(nil, desired)
	pe, err := connector.NewPendingExport(cso.SID(), cso.SystemSID(), connector.ChangeTypeCreate, changes)
	if err != nil {
		return err
	}
	if err := r.peRepo.Create(ctx, pe); err != nil {
		return err
	}
	r.logger.Infow("provisioning staged",
		"hub_sid", obj.SID(), "system_sid", rule.SystemSID(), "external_type", rule.ExternalType())
	return nil
}

func (r *ExportReconciler) handleOutOfScope(ctx context.Context, rule *syncrule.SyncRule, cso *connector.CSObject) (run.Counters, error) {
	counters := run.Counters{}
	switch rule.OutOfScopeAction() {
	case syncrule.OutOfScopeDelete:
		existing, err := r.peRepo.GetByCSObject(ctx, cso.SID())
		if err != nil && !errors.IsNotFoundError(err) {
			return counters, err
		}
		if existing != nil {
			existing.Replace(connector.ChangeTypeDelete, nil)
			if err := r.peRepo.Update(ctx, existing); err != nil {
				return counters, err
			}
		} else {
			pe, err := connector.NewPendingExport(cso.SID(), cso.SystemSID(), connector.ChangeTypeDelete, nil)
			if err != nil {
				return counters, err
			}
			if err := r.peRepo.Create(ctx, pe); err != nil {
				return counters, err
			}
		}
		counters.Deleted++
	case syncrule.OutOfScopeDisconnect:
		hubSID := cso.HubSID()
		cso.Disconnect()
		if err := r.csRepo.Update(ctx, cso); err != nil {
			return counters, err
		}
		counters.Disconnected++
		if err := r.handleSeveredJoin(ctx, hubSID); err != nil {
			return counters, err
		}
	}
	return counters, nil
}

// handleSeveredJoin hands a hub object whose join just broke to the
// deletion lifecycle.
func (r *ExportReconciler) handleSeveredJoin(ctx context.Context, hubSID string) error {
	if hubSID == "" {
		return nil
	}
	target, err := r.hubRepo.GetBySID(ctx, hubSID)
	if err != nil {
		return err
	}
	_, err = r.lifecycle.HandleDisconnect(ctx, target)
	return err
}

// ProcessPending hands one page of staged exports to the connector and
// settles each: confirmed changes fold into the object's last-known state
// and the staged export disappears; failures are recorded and the export
// stays for the next run.
func (r *ExportReconciler) ProcessPending(ctx context.Context, systemSID, activitySID string, exporter connector.Exporter, afterID uint, limit int) ([]run.OutcomeItem, run.Counters, uint, error) {
	counters := run.Counters{}
	var outcomes []run.OutcomeItem

	page, err := r.peRepo.ListBySystem(ctx, systemSID, afterID, limit)
	if err != nil {
		return nil, counters, afterID, err
	}

	last := afterID
	for _, pe := range page {
		last = pe.ID()
		cso, err := r.csRepo.GetBySID(ctx, pe.CSObjectSID())
		if err != nil {
			return outcomes, counters, last, err
		}

		if pe.Status() == connector.ExportStatusFailed {
			pe.MarkRetrying()
		}
		result, callErr := exporter.Apply(ctx, cso.ExternalType(), cso.UniqueID(), pe.ChangeType(), pe.Changes())
		if callErr != nil {
			pe.RecordFailure(callErr, "")
			if err := r.peRepo.Update(ctx, pe); err != nil {
				return outcomes, counters, last, err
			}
			counters.Errors++
			outcomes = append(outcomes, run.NewOutcomeItem(activitySID, cso.SID(), run.OutcomeExportFailed, callErr.Error()))
			r.logger.Warnw("export failed",
				"object_sid", cso.SID(), "change_type", pe.ChangeType(),
				"error_count", pe.ErrorCount(), "error", callErr)
			continue
		}

		if err := r.confirm(ctx, pe, cso, result); err != nil {
			return outcomes, counters, last, err
		}
		counters.Exported++
		outcomes = append(outcomes, run.NewOutcomeItem(activitySID, cso.SID(), run.OutcomeExported, ""))
	}
	return outcomes, counters, last, nil
}

func (r *ExportReconciler) confirm(ctx context.Context, pe *connector.PendingExport, cso *connector.CSObject, result connector.ExportResult) error {
	var severedHubSID string
	switch pe.ChangeType() {
	case connector.ChangeTypeDelete:
		severedHubSID = cso.HubSID()
		cso.MarkDeletedExternally()
	default:
		cso.ApplyConfirmedExport(pe.Changes())
		if result.AssignedUniqueID != "" {
			if err := cso.AssignUniqueID(result.AssignedUniqueID); err != nil {
				return err
			}
		}
	}
	if err := r.csRepo.Update(ctx, cso); err != nil {
		return err
	}
	if err := r.peRepo.Delete(ctx, pe); err != nil {
		return err
	}
	return r.handleSeveredJoin(ctx, severedHubSID)
}

// diffValues computes the attribute-level delta from current to desired,
// in stable attribute order.
func diffValues(current, desired attribute.Values) []connector.AttributeChange {
	names := make([]string, 0, len(desired))
	for name := range desired {
		names = append(names, name)
	}
	sort.Strings(names)

	var changes []connector.AttributeChange
	for _, name := range names {
		want := desired[name]
		have := current[name]
		for _, v := range want {
			if v.IsEmpty() || v.IsPendingReference() {
				continue
			}
			if !attribute.ContainsEqual(have, v) {
				changes = append(changes, connector.AttributeChange{Attribute: name, Op: connector.ChangeOpAdd, Value: v})
			}
		}
		for _, v := range have {
			if !attribute.ContainsEqual(want, v) {
				changes = append(changes, connector.AttributeChange{Attribute: name, Op: connector.ChangeOpRemove, Value: v})
			}
		}
	}
	return changes
}
