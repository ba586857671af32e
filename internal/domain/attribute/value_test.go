package attribute

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValue_ExactlyOneSlot(t *testing.T) {
	v := NewText("Alice")
	if v.Kind() != KindText {
		t.Fatalf("Kind() = %v, want %v", v.Kind(), KindText)
	}
	if v.Number() != 0 || v.Boolean() || v.Identifier() != "" {
		t.Error("non-text slots should be zero")
	}

	var zero Value
	if !zero.IsEmpty() {
		t.Error("zero Value should be empty")
	}
	if zero.Kind() != "" {
		t.Errorf("zero Value kind = %q, want empty", zero.Kind())
	}
}

func TestValue_Equal(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal text", NewText("a"), NewText("a"), true},
		{"different text", NewText("a"), NewText("b"), false},
		{"kind mismatch", NewText("1"), NewNumber(1), false},
		{"equal number", NewNumber(42), NewNumber(42), true},
		{"equal date across zones", NewDate(when), NewDate(when.In(time.FixedZone("x", 3600))), true},
		{"equal binary", NewBinary([]byte{1, 2}), NewBinary([]byte{1, 2}), true},
		{"different binary", NewBinary([]byte{1}), NewBinary([]byte{2}), false},
		{"equal reference", NewReference("hub_1"), NewReference("hub_1"), true},
		{"resolved vs pending", NewReference("hub_1"), NewPendingReference("hub_1"), false},
		{"both zero", Value{}, Value{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_EmptyRules(t *testing.T) {
	if !NewText("").IsEmpty() {
		t.Error("empty text should count as no value")
	}
	if NewNumber(0).IsEmpty() {
		t.Error("zero number is still a value")
	}
	if NewBoolean(false).IsEmpty() {
		t.Error("false is still a value")
	}
	if !NewBinary(nil).IsEmpty() {
		t.Error("empty binary should count as no value")
	}
	if NewPendingReference("emp-42").IsEmpty() {
		t.Error("pending reference is a value, not empty")
	}
}

func TestValue_Convert(t *testing.T) {
	n, err := NewText("42").Convert(KindNumber)
	if err != nil {
		t.Fatalf("text→number: %v", err)
	}
	if n.Number() != 42 {
		t.Errorf("converted number = %d, want 42", n.Number())
	}

	s, err := NewNumber(7).Convert(KindText)
	if err != nil {
		t.Fatalf("number→text: %v", err)
	}
	if s.Text() != "7" {
		t.Errorf("converted text = %q, want %q", s.Text(), "7")
	}

	d, err := NewText("2024-03-01T12:00:00Z").Convert(KindDate)
	if err != nil {
		t.Fatalf("text→date: %v", err)
	}
	if d.Date().Hour() != 12 {
		t.Errorf("converted date hour = %d, want 12", d.Date().Hour())
	}

	if _, err := NewBinary([]byte{1}).Convert(KindNumber); err == nil {
		t.Error("binary→number should be incompatible")
	}
	if _, err := NewText("not a number").Convert(KindNumber); err == nil {
		t.Error("non-numeric text→number should fail")
	}
}

func TestValue_JSONRoundTrip(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	values := []Value{
		NewText("Alice"),
		NewNumber(-3),
		NewDate(when),
		NewBinary([]byte{0xde, 0xad}),
		NewBoolean(true),
		NewIdentifier("emp-42"),
		NewReference("hub_abc"),
		NewPendingReference("manager:emp-7"),
	}
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %v: %v", v, err)
		}
		var back Value
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if !v.Equal(back) {
			t.Errorf("round trip changed value: %v -> %v", v, back)
		}
	}
}

func TestUnion(t *testing.T) {
	got := Union(nil, NewText("a"), NewText(""), NewText("b"), NewText("a"))
	if len(got) != 2 {
		t.Fatalf("Union length = %d, want 2", len(got))
	}
	if !got[0].Equal(NewText("a")) || !got[1].Equal(NewText("b")) {
		t.Errorf("Union = %v", got)
	}
}

func TestEqualSets(t *testing.T) {
	a := []Value{NewText("x"), NewNumber(1)}
	b := []Value{NewNumber(1), NewText("x")}
	if !EqualSets(a, b) {
		t.Error("order should not matter")
	}
	if EqualSets(a, a[:1]) {
		t.Error("different sizes are not equal")
	}
}
