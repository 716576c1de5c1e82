// internal/types/rules.go
package types

import (
	"encoding/json"
	"strings"
)

/*
 * Domain types for the segmentation rule tree.
 *
 * A rule definition is a sequence of top-level groups; each group combines
 * child items (leaf rules or nested groups) with AND/OR logic. The structure
 * is user-authored JSON and deliberately loose: unknown fields, unknown
 * operators, and unparseable values are tolerated here and dropped during
 * compilation in internal/rules, never rejected at decode time.
 */

// Node item types.
const (
	NodeRule  = "rule"
	NodeGroup = "group"
)

// Group logic values. AND is the default when logic is omitted.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// RuleNode is one item of a rule tree: either a leaf comparison
// (Type == "rule") or a nested combinator (Type == "group"). Leaf fields and
// group fields are mutually exclusive but share one struct so the tree
// round-trips user JSON without a custom unmarshaler.
type RuleNode struct {
	Type string `json:"type"`

	// Leaf rule fields.
	ID       string `json:"id,omitempty"`
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    any    `json:"value,omitempty"`

	// Group fields.
	Logic string     `json:"logic,omitempty"`
	Rules []RuleNode `json:"rules,omitempty"`
}

// HasEmptyValue reports whether a leaf rule carries no usable value:
// nil, or a string that is empty after trimming. Numbers and booleans are
// always usable. Group nodes report true (a group has no value of its own).
func (n RuleNode) HasEmptyValue() bool {
	if n.Type != NodeRule {
		return true
	}
	switch v := n.Value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

// DecodeRuleDefinition parses a stored or submitted rules definition into
// its group sequence. Returns ErrInvalidInput when the JSON is not an array.
func DecodeRuleDefinition(raw json.RawMessage) ([]RuleNode, error) {
	var groups []RuleNode
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, ErrInvalidInput
	}
	return groups, nil
}
