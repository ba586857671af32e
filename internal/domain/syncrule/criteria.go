package syncrule

import (
	"strings"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/shared/errors"
)

// GroupOperator combines the members of one criteria group.
type GroupOperator string

const (
	GroupAny GroupOperator = "any" // OR within the group
	GroupAll GroupOperator = "all" // AND within the group
)

// Operator compares one attribute against a condition value.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpNotEquals  Operator = "not_equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	OpPresent    Operator = "present"
	OpAbsent     Operator = "absent"
	OpGreater    Operator = "greater"
	OpLess       Operator = "less"
)

// Condition is one leaf of the scoping tree: a comparison against a single
// attribute. Value is the textual comparison operand; it is converted to the
// attribute's kind before typed comparison.
type Condition struct {
	Attribute string   `json:"attribute"`
	Operator  Operator `json:"operator"`
	Value     string   `json:"value,omitempty"`
}

// CriteriaGroup is one node of the scoping tree. Groups nest; a rule's scope
// is a list of groups combined with AND, and each group combines its own
// conditions and child groups with its declared operator (OR by default).
type CriteriaGroup struct {
	Operator   GroupOperator   `json:"operator,omitempty"`
	Conditions []Condition     `json:"conditions,omitempty"`
	Groups     []CriteriaGroup `json:"groups,omitempty"`
}

// EvaluateScope evaluates a rule's group list against an object's current
// values: AND across groups. An empty scope matches everything.
func EvaluateScope(groups []CriteriaGroup, values attribute.Values) (bool, error) {
	for i := range groups {
		ok, err := groups[i].Evaluate(values)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Evaluate evaluates one group node.
func (g CriteriaGroup) Evaluate(values attribute.Values) (bool, error) {
	op := g.Operator
	if op == "" {
		op = GroupAny
	}

	matched := 0
	total := len(g.Conditions) + len(g.Groups)
	if total == 0 {
		return true, nil
	}

	for _, c := range g.Conditions {
		ok, err := c.evaluate(values)
		if err != nil {
			return false, err
		}
		if ok {
			if op == GroupAny {
				return true, nil
			}
			matched++
		} else if op == GroupAll {
			return false, nil
		}
	}
	for i := range g.Groups {
		ok, err := g.Groups[i].Evaluate(values)
		if err != nil {
			return false, err
		}
		if ok {
			if op == GroupAny {
				return true, nil
			}
			matched++
		} else if op == GroupAll {
			return false, nil
		}
	}

	return op == GroupAll && matched == total, nil
}

// evaluate compares the condition against every value the attribute carries;
// any match satisfies it. Comparison operators against a missing attribute
// are a scoping error; present/absent never error.
func (c Condition) evaluate(values attribute.Values) (bool, error) {
	list := values[c.Attribute]

	switch c.Operator {
	case OpPresent:
		return values.Has(c.Attribute), nil
	case OpAbsent:
		return !values.Has(c.Attribute), nil
	}

	if !values.Has(c.Attribute) {
		if c.Operator == OpNotEquals {
			// A missing attribute trivially differs.
			return true, nil
		}
		return false, errors.NewScopingError(c.Attribute)
	}

	for _, v := range list {
		if v.IsEmpty() {
			continue
		}
		if c.matchOne(v) {
			return c.Operator != OpNotEquals, nil
		}
	}
	return c.Operator == OpNotEquals, nil
}

// matchOne applies the positive form of the operator to a single value.
// For not_equals it answers "is equal", inverted by the caller.
func (c Condition) matchOne(v attribute.Value) bool {
	switch c.Operator {
	case OpEquals, OpNotEquals:
		if typed, err := attribute.NewText(c.Value).Convert(v.Kind()); err == nil {
			return v.Equal(typed)
		}
		return v.String() == c.Value
	case OpContains:
		return strings.Contains(v.String(), c.Value)
	case OpStartsWith:
		return strings.HasPrefix(v.String(), c.Value)
	case OpEndsWith:
		return strings.HasSuffix(v.String(), c.Value)
	case OpGreater, OpLess:
		return c.compareOrdered(v)
	default:
		return false
	}
}

func (c Condition) compareOrdered(v attribute.Value) bool {
	typed, err := attribute.NewText(c.Value).Convert(v.Kind())
	if err != nil {
		return false
	}
	switch v.Kind() {
	case attribute.KindNumber:
		if c.Operator == OpGreater {
			return v.Number() > typed.Number()
		}
		return v.Number() < typed.Number()
	case attribute.KindDate:
		if c.Operator == OpGreater {
			return v.Date().After(typed.Date())
		}
		return v.Date().Before(typed.Date())
	default:
		if c.Operator == OpGreater {
			return v.String() > typed.String()
		}
		return v.String() < typed.String()
	}
}
