package syncrule

import "github.com/junction-io/junction/internal/domain/attribute"

// SourceType discriminates the mapping source variants.
type SourceType string

const (
	SourceAttribute SourceType = "attribute"
	SourceConstant  SourceType = "constant"
	SourceFunction  SourceType = "function"
)

// MappingSource is one ordered contributor to a mapping's target attribute.
// Exactly one of the variant fields is meaningful, per Type:
//   - attribute: Attribute names the source-side attribute to copy
//   - constant: Constant is a literal, converted to the target kind
//   - function: Function names a registered flow function applied to Params
//     (params are themselves attribute or constant sources; no nesting of
//     functions inside functions)
type MappingSource struct {
	Type      SourceType      `json:"type"`
	Attribute string          `json:"attribute,omitempty"`
	Constant  string          `json:"constant,omitempty"`
	Function  string          `json:"function,omitempty"`
	Params    []MappingSource `json:"params,omitempty"`
}

// Mapping produces one target attribute from an ordered source list.
// Single-valued targets take the first source that yields a non-empty value;
// multi-valued targets union every non-empty contribution.
type Mapping struct {
	TargetAttribute string          `json:"target_attribute"`
	TargetKind      attribute.Kind  `json:"target_kind"`
	Order           int             `json:"order"`
	MultiValued     bool            `json:"multi_valued,omitempty"`
	Sources         []MappingSource `json:"sources"`
}

// JoinPair is one equality clause of a rule's join condition: the resolved
// source attribute must equal the named hub attribute.
type JoinPair struct {
	SourceAttribute string `json:"source_attribute"`
	HubAttribute    string `json:"hub_attribute"`
}
