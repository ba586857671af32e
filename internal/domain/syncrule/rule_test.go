package syncrule

import (
	"testing"

	"github.com/junction-io/junction/internal/domain/attribute"
)

func validParams() NewSyncRuleParams {
	return NewSyncRuleParams{
		Name:         "hr-person-in",
		SystemSID:    "sys_hr",
		ExternalType: "person",
		HubType:      "person",
		Direction:    DirectionInbound,
		ProjectHub:   true,
		Mappings: []Mapping{
			{TargetAttribute: "DisplayName", TargetKind: attribute.KindText, Order: 1,
				Sources: []MappingSource{{Type: SourceAttribute, Attribute: "name"}}},
		},
		JoinCriteria: []JoinPair{{SourceAttribute: "employeeID", HubAttribute: "EmployeeID"}},
	}
}

func TestNewSyncRule(t *testing.T) {
	r, err := NewSyncRule(validParams())
	if err != nil {
		t.Fatalf("NewSyncRule: %v", err)
	}
	if !r.Enabled() {
		t.Error("new rules start enabled")
	}
	if r.OutOfScopeAction() != OutOfScopeRemainJoined {
		t.Errorf("default out-of-scope action = %v", r.OutOfScopeAction())
	}
	if !r.CanJoin() {
		t.Error("rule with join criteria should report CanJoin")
	}
	if r.SID() == "" {
		t.Error("SID should be assigned")
	}
}

func TestNewSyncRule_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewSyncRuleParams)
	}{
		{"missing name", func(p *NewSyncRuleParams) { p.Name = "" }},
		{"missing system", func(p *NewSyncRuleParams) { p.SystemSID = "" }},
		{"missing types", func(p *NewSyncRuleParams) { p.HubType = "" }},
		{"bad direction", func(p *NewSyncRuleParams) { p.Direction = "sideways" }},
		{"outbound cannot project", func(p *NewSyncRuleParams) { p.Direction = DirectionOutbound; p.ProjectHub = true }},
		{"inbound cannot provision", func(p *NewSyncRuleParams) { p.ProvisionExternal = true }},
		{"inbound cannot out-of-scope delete", func(p *NewSyncRuleParams) { p.OutOfScopeAction = OutOfScopeDelete }},
		{"mapping without target", func(p *NewSyncRuleParams) { p.Mappings[0].TargetAttribute = "" }},
		{"mapping without sources", func(p *NewSyncRuleParams) { p.Mappings[0].Sources = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			if _, err := NewSyncRule(p); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSyncRule_MappingsSortedByOrder(t *testing.T) {
	p := validParams()
	p.Mappings = []Mapping{
		{TargetAttribute: "b", TargetKind: attribute.KindText, Order: 2,
			Sources: []MappingSource{{Type: SourceConstant, Constant: "x"}}},
		{TargetAttribute: "a", TargetKind: attribute.KindText, Order: 1,
			Sources: []MappingSource{{Type: SourceConstant, Constant: "y"}}},
	}
	r, err := NewSyncRule(p)
	if err != nil {
		t.Fatalf("NewSyncRule: %v", err)
	}
	ms := r.Mappings()
	if ms[0].TargetAttribute != "a" || ms[1].TargetAttribute != "b" {
		t.Errorf("mappings not ordered: %v, %v", ms[0].TargetAttribute, ms[1].TargetAttribute)
	}
}

func TestSyncRule_EnableDisable(t *testing.T) {
	r, err := NewSyncRule(validParams())
	if err != nil {
		t.Fatalf("NewSyncRule: %v", err)
	}
	v := r.Version()
	r.Disable()
	if r.Enabled() || r.Version() != v+1 {
		t.Error("Disable should flip state and bump version")
	}
	r.Disable() // no-op
	if r.Version() != v+1 {
		t.Error("repeated Disable should not bump version")
	}
	r.Enable()
	if !r.Enabled() {
		t.Error("Enable should restore the rule")
	}
}
