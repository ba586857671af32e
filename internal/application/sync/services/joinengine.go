package services

import (
	"context"
	"time"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// JoinOutcome reports what the join engine did for one source object.
type JoinOutcome string

const (
	JoinOutcomeAlreadyJoined JoinOutcome = "already_joined"
	JoinOutcomeJoined        JoinOutcome = "joined"
	JoinOutcomeProjected     JoinOutcome = "projected"
	JoinOutcomeNone          JoinOutcome = "none"
)

// JoinEngine matches unjoined connected-system objects to hub objects via
// rule join criteria, and projects new hub objects when a rule says so.
type JoinEngine struct {
	hubRepo hub.Repository
	logger  logger.Interface
}

// NewJoinEngine builds a join engine.
func NewJoinEngine(hubRepo hub.Repository, log logger.Interface) *JoinEngine {
	return &JoinEngine{hubRepo: hubRepo, logger: log}
}

// JoinResult is the join engine's answer for one object and rule set.
type JoinResult struct {
	Outcome JoinOutcome
	Hub     *hub.HubObject
	// RuleSID names the rule that joined or projected, when one did.
	RuleSID string
}

// Apply tries each in-scope rule in precedence order. The first rule whose
// join criteria match exactly one active hub object wins; more than one
// candidate is an ambiguous-join error and stops the object, zero falls
// through to the next rule. If nothing joined and a rule projects, a new
// hub object is created and the source joined to it.
//
// Joining to an object awaiting deletion cancels the pending deletion.
func (e *JoinEngine) Apply(ctx context.Context, obj *connector.CSObject, rules []*syncrule.SyncRule, resolved attribute.Values) (JoinResult, error) {
	if obj.IsJoined() {
		existing, err := e.hubRepo.GetBySID(ctx, obj.HubSID())
		if err != nil {
			return JoinResult{}, err
		}
		return JoinResult{Outcome: JoinOutcomeAlreadyJoined, Hub: existing}, nil
	}

	for _, rule := range rules {
		if !rule.CanJoin() {
			continue
		}
		candidate, err := e.matchOne(ctx, rule, obj, resolved)
		if err != nil {
			return JoinResult{}, err
		}
		if candidate == nil {
			continue
		}
		if err := e.join(ctx, obj, candidate); err != nil {
			return JoinResult{}, err
		}
		return JoinResult{Outcome: JoinOutcomeJoined, Hub: candidate, RuleSID: rule.SID()}, nil
	}

	for _, rule := range rules {
		if !rule.ProjectsHub() {
			continue
		}
		projected, err := hub.NewHubObject(rule.HubType(), hub.OriginProjected)
		if err != nil {
			return JoinResult{}, err
		}
		if err := e.hubRepo.Create(ctx, projected); err != nil {
			return JoinResult{}, err
		}
		if err := obj.Join(projected.SID(), time.Now().UTC()); err != nil {
			return JoinResult{}, err
		}
		e.logger.Debugw("projected hub object",
			"hub_sid", projected.SID(), "source_sid", obj.SID(), "rule_sid", rule.SID())
		return JoinResult{Outcome: JoinOutcomeProjected, Hub: projected, RuleSID: rule.SID()}, nil
	}

	return JoinResult{Outcome: JoinOutcomeNone}, nil
}

// matchOne evaluates a rule's join criteria and returns the unique matching
// hub object, nil when no candidate matches, and an ambiguous-join error
// when more than one does.
func (e *JoinEngine) matchOne(ctx context.Context, rule *syncrule.SyncRule, obj *connector.CSObject, resolved attribute.Values) (*hub.HubObject, error) {
	pairs := rule.JoinCriteria()

	first := pairs[0]
	v := resolved.First(first.SourceAttribute)
	if v.IsEmpty() {
		return nil, nil
	}
	candidates, err := e.hubRepo.FindByAttributeEquals(ctx, rule.HubType(), first.HubAttribute, v)
	if err != nil {
		return nil, err
	}

	matched := candidates[:0:0]
	for _, c := range candidates {
		if !c.IsActive() && c.Status() != hub.StatusPendingDeletion {
			continue
		}
		if e.pairsMatch(pairs[1:], c, resolved) {
			matched = append(matched, c)
		}
	}

	switch len(matched) {
	case 0:
		return nil, nil
	case 1:
		return matched[0], nil
	default:
		return nil, errors.NewAmbiguousJoinError(obj.UniqueID(), len(matched))
	}
}

func (e *JoinEngine) pairsMatch(pairs []syncrule.JoinPair, candidate *hub.HubObject, resolved attribute.Values) bool {
	for _, p := range pairs {
		v := resolved.First(p.SourceAttribute)
		if v.IsEmpty() {
			return false
		}
		if !attribute.ContainsEqual(candidate.ValuesFor(p.HubAttribute), v) {
			return false
		}
	}
	return true
}

func (e *JoinEngine) join(ctx context.Context, obj *connector.CSObject, target *hub.HubObject) error {
	if target.Status() == hub.StatusPendingDeletion {
		if err := target.CancelDeletion(); err != nil {
			return err
		}
		if err := e.hubRepo.Update(ctx, target); err != nil {
			return err
		}
		e.logger.Infow("pending deletion canceled by re-join", "hub_sid", target.SID())
	}
	return obj.Join(target.SID(), time.Now().UTC())
}
