package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTruncateError(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty gets placeholder", "", "Unknown processing error"},
		{"short passes through", "boom", "boom"},
		{"exact limit passes through", strings.Repeat("a", MaxErrorMessageLength), strings.Repeat("a", MaxErrorMessageLength)},
		{"over limit truncated", strings.Repeat("b", MaxErrorMessageLength+1), strings.Repeat("b", MaxErrorMessageLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateError(tt.in); got != tt.want {
				t.Errorf("TruncateError() length = %d, want %d", len(got), len(tt.want))
			}
		})
	}
}

func TestRuleNode_HasEmptyValue(t *testing.T) {
	tests := []struct {
		name string
		node RuleNode
		want bool
	}{
		{"nil value", RuleNode{Type: NodeRule}, true},
		{"empty string", RuleNode{Type: NodeRule, Value: ""}, true},
		{"whitespace string", RuleNode{Type: NodeRule, Value: "   "}, true},
		{"non-empty string", RuleNode{Type: NodeRule, Value: "x"}, false},
		{"zero number is usable", RuleNode{Type: NodeRule, Value: float64(0)}, false},
		{"bool is usable", RuleNode{Type: NodeRule, Value: false}, false},
		{"group has no value", RuleNode{Type: NodeGroup}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.HasEmptyValue(); got != tt.want {
				t.Errorf("HasEmptyValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeRuleDefinition(t *testing.T) {
	groups, err := DecodeRuleDefinition(json.RawMessage(`[
		{"type": "group", "logic": "OR", "rules": [
			{"type": "rule", "field": "totalSpends", "operator": ">", "value": 100},
			{"type": "group", "logic": "AND", "rules": []}
		]}
	]`))
	if err != nil {
		t.Fatalf("DecodeRuleDefinition() error = %v, want nil", err)
	}
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
	if groups[0].Logic != LogicOr {
		t.Errorf("Logic = %q, want OR", groups[0].Logic)
	}
	if len(groups[0].Rules) != 2 {
		t.Fatalf("len(Rules) = %d, want 2", len(groups[0].Rules))
	}
	if groups[0].Rules[0].Value != float64(100) {
		t.Errorf("Value = %v, want 100", groups[0].Rules[0].Value)
	}

	for _, bad := range []string{`{"a":1}`, `"x"`, `12`} {
		if _, err := DecodeRuleDefinition(json.RawMessage(bad)); err == nil {
			t.Errorf("DecodeRuleDefinition(%q) error = nil, want error", bad)
		}
	}
}

func TestIDGeneration(t *testing.T) {
	id := NewCustomerID()
	if id == "" {
		t.Fatal("NewCustomerID() returned empty")
	}
	if _, err := ParseCustomerID(string(id)); err != nil {
		t.Errorf("ParseCustomerID(generated) error = %v", err)
	}
	if _, err := ParseCustomerID("not-a-uuid"); err == nil {
		t.Error("ParseCustomerID(garbage) error = nil, want error")
	}

	// UUIDv7 identifiers generated in sequence sort in creation order.
	a := NewPendingID()
	b := NewPendingID()
	if !(string(a) < string(b)) && a != b {
		t.Errorf("UUIDv7 ordering violated: %s !< %s", a, b)
	}
}
