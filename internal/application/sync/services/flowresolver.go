// Package services holds the engine's application services: attribute flow
// resolution, join handling, import processing, export reconciliation and
// the deletion lifecycle sweep.
package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// flowFunc transforms already-resolved string parameters into one string.
type flowFunc func(params []string) (string, error)

// FlowResolver turns a rule's mappings and a source object's values into
// target attribute values. The function registry is closed: unknown names
// are mapping errors, not extension points.
type FlowResolver struct {
	functions map[string]flowFunc
	logger    logger.Interface
}

// NewFlowResolver builds a resolver with the built-in function registry.
func NewFlowResolver(log logger.Interface) *FlowResolver {
	return &FlowResolver{
		functions: map[string]flowFunc{
			"Concat":  fnConcat,
			"Trim":    fnTrim,
			"Upper":   fnUpper,
			"Lower":   fnLower,
			"Left":    fnLeft,
			"Right":   fnRight,
			"Replace": fnReplace,
		},
		logger: log,
	}
}

// Resolve evaluates every mapping of a rule against the source values and
// returns the target values keyed by target attribute. Single-valued
// targets take the first source yielding a non-empty value; multi-valued
// targets union every contribution. A mapping that resolves to nothing
// contributes an empty slot, which callers treat as "clear the target".
//
// A mapping that fails does not stop the others: its failure is returned
// and its target attribute is left out of the result entirely, so callers
// never mistake a failed mapping for a cleared one.
func (r *FlowResolver) Resolve(mappings []syncrule.Mapping, src attribute.Values) (attribute.Values, []error) {
	out := make(attribute.Values, len(mappings))
	var failures []error
	for i := range mappings {
		m := &mappings[i]
		resolved, err := r.resolveMapping(m, src)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		out[m.TargetAttribute] = resolved
	}
	return out, failures
}

func (r *FlowResolver) resolveMapping(m *syncrule.Mapping, src attribute.Values) ([]attribute.Value, error) {
	var out []attribute.Value
	for i := range m.Sources {
		contrib, err := r.resolveSource(&m.Sources[i], m.TargetKind, src)
		if err != nil {
			return nil, errors.NewMappingError(m.TargetAttribute, err)
		}
		if !m.MultiValued {
			for _, v := range contrib {
				if !v.IsEmpty() {
					return []attribute.Value{v}, nil
				}
			}
			continue
		}
		out = attribute.Union(out, contrib...)
	}
	return out, nil
}

// resolveSource yields the values one source contributes, converted to the
// target kind. Reference targets start as pending references carrying the
// source-side pointer; the import processor resolves them against joins.
func (r *FlowResolver) resolveSource(s *syncrule.MappingSource, target attribute.Kind, src attribute.Values) ([]attribute.Value, error) {
	switch s.Type {
	case syncrule.SourceAttribute:
		if s.Attribute == "" {
			return nil, fmt.Errorf("attribute source without an attribute name")
		}
		raw := src[s.Attribute]
		out := make([]attribute.Value, 0, len(raw))
		for _, v := range raw {
			cv, err := convertTo(v, target)
			if err != nil {
				// Incompatible values contribute nothing; the next
				// source gets its chance.
				r.logger.Debugw("dropping inconvertible value",
					"attribute", s.Attribute, "target_kind", target, "error", err)
				continue
			}
			out = append(out, cv)
		}
		return out, nil

	case syncrule.SourceConstant:
		cv, err := convertTo(attribute.NewText(s.Constant), target)
		if err != nil {
			return nil, err
		}
		return []attribute.Value{cv}, nil

	case syncrule.SourceFunction:
		fn, ok := r.functions[s.Function]
		if !ok {
			return nil, fmt.Errorf("unknown flow function %q", s.Function)
		}
		params, err := r.resolveParams(s.Params, src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Function, err)
		}
		text, err := fn(params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Function, err)
		}
		cv, err := convertTo(attribute.NewText(text), target)
		if err != nil {
			return nil, err
		}
		return []attribute.Value{cv}, nil

	default:
		return nil, fmt.Errorf("unknown source type %q", s.Type)
	}
}

// resolveParams flattens function parameters to strings. Attribute params
// take the first value; a missing attribute resolves to the empty string.
// Functions cannot nest.
func (r *FlowResolver) resolveParams(params []syncrule.MappingSource, src attribute.Values) ([]string, error) {
	out := make([]string, 0, len(params))
	for i := range params {
		p := &params[i]
		switch p.Type {
		case syncrule.SourceAttribute:
			v := src.First(p.Attribute)
			if v.IsEmpty() {
				out = append(out, "")
				continue
			}
			tv, err := v.Convert(attribute.KindText)
			if err != nil {
				return nil, err
			}
			out = append(out, tv.Text())
		case syncrule.SourceConstant:
			out = append(out, p.Constant)
		case syncrule.SourceFunction:
			return nil, fmt.Errorf("nested function %q is not allowed", p.Function)
		default:
			return nil, fmt.Errorf("unknown source type %q", p.Type)
		}
	}
	return out, nil
}

// convertTo adapts a resolved value to the mapping's target kind.
// Reference targets become pending references keyed by the value's text
// form; resolving the pointer to a hub object happens later, against joins.
func convertTo(v attribute.Value, target attribute.Kind) (attribute.Value, error) {
	if target == attribute.KindReference {
		tv, err := v.Convert(attribute.KindText)
		if err != nil {
			return attribute.Value{}, err
		}
		if tv.Text() == "" {
			return attribute.NewPendingReference(""), nil
		}
		return attribute.NewPendingReference(tv.Text()), nil
	}
	if v.Kind() == target {
		return v, nil
	}
	return v.Convert(target)
}

func fnConcat(params []string) (string, error) {
	return strings.Join(params, ""), nil
}

func fnTrim(params []string) (string, error) {
	if len(params) != 1 {
		return "", fmt.Errorf("Trim takes exactly one parameter")
	}
	return strings.TrimSpace(params[0]), nil
}

func fnUpper(params []string) (string, error) {
	if len(params) != 1 {
		return "", fmt.Errorf("Upper takes exactly one parameter")
	}
	return strings.ToUpper(params[0]), nil
}

func fnLower(params []string) (string, error) {
	if len(params) != 1 {
		return "", fmt.Errorf("Lower takes exactly one parameter")
	}
	return strings.ToLower(params[0]), nil
}

func fnLeft(params []string) (string, error) {
	s, n, err := substrParams("Left", params)
	if err != nil {
		return "", err
	}
	runes := []rune(s)
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n]), nil
}

func fnRight(params []string) (string, error) {
	s, n, err := substrParams("Right", params)
	if err != nil {
		return "", err
	}
	runes := []rune(s)
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[len(runes)-n:]), nil
}

func substrParams(name string, params []string) (string, int, error) {
	if len(params) != 2 {
		return "", 0, fmt.Errorf("%s takes a string and a length", name)
	}
	n, err := strconv.Atoi(params[1])
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("%s length must be a non-negative integer", name)
	}
	return params[0], n, nil
}

func fnReplace(params []string) (string, error) {
	if len(params) != 3 {
		return "", fmt.Errorf("Replace takes a string, an old substring and a new substring")
	}
	return strings.ReplaceAll(params[0], params[1], params[2]), nil
}
