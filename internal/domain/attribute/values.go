package attribute

// Values is the per-object value lookup handed to scoping and flow
// resolution: attribute name to its current values. Single-valued
// attributes hold one entry.
type Values map[string][]Value

// First returns the first value for an attribute, or the zero Value.
func (vs Values) First(name string) Value {
	list := vs[name]
	if len(list) == 0 {
		return Value{}
	}
	return list[0]
}

// Has reports whether the attribute carries at least one non-empty value.
func (vs Values) Has(name string) bool {
	for _, v := range vs[name] {
		if !v.IsEmpty() {
			return true
		}
	}
	return false
}

// ContainsEqual reports whether list already holds a value equal to v.
func ContainsEqual(list []Value, v Value) bool {
	for _, existing := range list {
		if existing.Equal(v) {
			return true
		}
	}
	return false
}

// Union appends the non-empty values of add that are not already present,
// de-duplicated by Equal. Used for multi-valued flow targets.
func Union(base []Value, add ...Value) []Value {
	out := base
	for _, v := range add {
		if v.IsEmpty() || ContainsEqual(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// EqualSets reports whether two value lists contain the same values,
// ignoring order. Used by the export reconciler's no-delta check.
func EqualSets(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !ContainsEqual(b, v) {
			return false
		}
	}
	return true
}
