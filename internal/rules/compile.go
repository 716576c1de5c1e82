// internal/rules/compile.go
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shivaapratim/mini-crm/internal/types"
)

/*
 * Rule compilation: user-authored rule trees to parameterized SQL predicates.
 *
 * Compiles a sequence of top-level groups into one WHERE fragment with ?
 * placeholders (rebound per driver by the store). Malformed input never fails
 * the compile: a rule with an unknown field, an operator its field does not
 * accept, or an empty/unparseable value is dropped from its parent group and
 * recorded in Result.Dropped with a reason. Only kept conditions participate
 * in the final predicate.
 *
 * Group semantics:
 *   - logic AND/OR combines a group's surviving children; AND when omitted
 *   - a group with zero surviving conditions is itself dropped
 *   - a group yielding exactly one condition collapses to that condition
 *   - nested groups compile recursively; depth is the caller's problem
 *
 * Date-offset operators compute their cutoff from the compile-time clock, so
 * the compiled predicate is a snapshot, not a live relative expression.
 *
 * An empty Result.Predicate (HasConditions false) is returned both for empty
 * input and for input whose rules all dropped; the caller decides what an
 * empty predicate means (the segment service treats it as match-all).
 */

// Dialect selects the SQL flavor for the few fragments where SQLite and
// PostgreSQL JSON functions differ (tag membership).
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// DialectForDriver maps an sqlx driver name to a compile dialect.
func DialectForDriver(driver string) Dialect {
	if driver == "postgres" {
		return DialectPostgres
	}
	return DialectSQLite
}

// Predicate is a parameterized WHERE fragment. An empty SQL string means no
// conditions survived compilation.
type Predicate struct {
	SQL  string
	Args []any
}

// Empty reports whether the predicate carries no conditions.
func (p Predicate) Empty() bool {
	return p.SQL == ""
}

// DroppedRule records a rule excluded from the predicate and why. Exposed for
// logging and tests instead of being an implicit side effect of control flow.
type DroppedRule struct {
	Field    string
	Operator string
	Reason   string
}

// Result is the outcome of compiling one rule definition.
type Result struct {
	Predicate     Predicate
	Dropped       []DroppedRule
	HasConditions bool
}

// Compiler turns rule trees into store predicates. Pure over its inputs and
// the supplied clock; safe for concurrent use.
type Compiler struct {
	table   FieldTable
	dialect Dialect
}

// NewCompiler creates a compiler over the default field table.
func NewCompiler(dialect Dialect) *Compiler {
	return &Compiler{table: DefaultFieldTable(), dialect: dialect}
}

// NewCompilerWithTable creates a compiler over a custom field table.
func NewCompilerWithTable(dialect Dialect, table FieldTable) *Compiler {
	return &Compiler{table: table, dialect: dialect}
}

// Compile translates a sequence of top-level groups into a single predicate.
// now anchors the date-offset cutoffs.
func (c *Compiler) Compile(groups []types.RuleNode, now time.Time) Result {
	st := &compileState{c: c, now: now.UTC()}

	preds := make([]Predicate, 0, len(groups))
	for _, g := range groups {
		if p, ok := st.group(g); ok {
			preds = append(preds, p)
		}
	}

	combined := combine(preds, " AND ")
	return Result{
		Predicate:     combined,
		Dropped:       st.dropped,
		HasConditions: !combined.Empty(),
	}
}

// AllRuleValuesEmpty reports whether every leaf rule in the definition
// carries an empty or missing value. The segment service uses this to
// distinguish "no filter specified" from "filter specified but unusable"
// when a compile yields no conditions; both count the full population, but
// only the latter is worth a warning.
func AllRuleValuesEmpty(groups []types.RuleNode) bool {
	for _, n := range groups {
		switch n.Type {
		case types.NodeRule:
			if !n.HasEmptyValue() {
				return false
			}
		case types.NodeGroup:
			if !AllRuleValuesEmpty(n.Rules) {
				return false
			}
		}
	}
	return true
}

type compileState struct {
	c       *Compiler
	now     time.Time
	dropped []DroppedRule
}

func (st *compileState) drop(n types.RuleNode, reason string) {
	st.dropped = append(st.dropped, DroppedRule{Field: n.Field, Operator: n.Operator, Reason: reason})
}

// group compiles one group node. Returns ok=false when the group is invalid,
// empty, or every child dropped.
func (st *compileState) group(n types.RuleNode) (Predicate, bool) {
	if n.Type != types.NodeGroup || len(n.Rules) == 0 {
		return Predicate{}, false
	}

	preds := make([]Predicate, 0, len(n.Rules))
	for _, child := range n.Rules {
		switch child.Type {
		case types.NodeRule:
			if p, ok := st.rule(child); ok {
				preds = append(preds, p)
			}
		case types.NodeGroup:
			if p, ok := st.group(child); ok {
				preds = append(preds, p)
			}
		}
	}

	if len(preds) == 0 {
		return Predicate{}, false
	}

	sep := " AND "
	if n.Logic == types.LogicOr {
		sep = " OR "
	}
	return combine(preds, sep), true
}

// rule compiles one leaf rule, consulting the field table for column, kind,
// and allowed operators.
func (st *compileState) rule(n types.RuleNode) (Predicate, bool) {
	spec, ok := st.c.table[n.Field]
	if !ok {
		st.drop(n, "unknown field")
		return Predicate{}, false
	}
	if !spec.Operators[n.Operator] {
		st.drop(n, "operator not supported for field")
		return Predicate{}, false
	}

	switch spec.Kind {
	case KindNumeric:
		return st.numericRule(n, spec)
	case KindDate:
		return st.dateRule(n, spec)
	case KindTags:
		return st.tagsRule(n, spec)
	default:
		return st.textRule(n, spec)
	}
}

func (st *compileState) numericRule(n types.RuleNode, spec FieldSpec) (Predicate, bool) {
	v, ok := numericValue(n.Value)
	if !ok {
		st.drop(n, "empty or non-numeric value")
		return Predicate{}, false
	}
	return scalarCompare(spec.Column, n.Operator, v), true
}

func (st *compileState) dateRule(n types.RuleNode, spec FieldSpec) (Predicate, bool) {
	switch n.Operator {
	case OpInactiveGt, OpInactiveLe:
		days, ok := intValue(n.Value)
		if !ok {
			st.drop(n, "empty or non-numeric days offset")
			return Predicate{}, false
		}
		cutoff := st.now.AddDate(0, 0, -days).Format(time.RFC3339)
		if n.Operator == OpInactiveGt {
			// Older than the cutoff: field < now - d days.
			return Predicate{SQL: spec.Column + " < ?", Args: []any{cutoff}}, true
		}
		// Within the last d days: field >= now - d days.
		return Predicate{SQL: spec.Column + " >= ?", Args: []any{cutoff}}, true
	default:
		t, ok := timeValue(n.Value)
		if !ok {
			st.drop(n, "empty or unparseable timestamp value")
			return Predicate{}, false
		}
		return scalarCompare(spec.Column, n.Operator, t.Format(time.RFC3339)), true
	}
}

func (st *compileState) tagsRule(n types.RuleNode, spec FieldSpec) (Predicate, bool) {
	s, ok := n.Value.(string)
	if !ok || strings.TrimSpace(s) == "" {
		st.drop(n, "empty or non-string tag value")
		return Predicate{}, false
	}
	s = strings.TrimSpace(s)

	switch n.Operator {
	case OpContains:
		return Predicate{SQL: st.tagMatchSQL(spec.Column, false), Args: []any{likePattern(s)}}, true
	case OpNotContain:
		return Predicate{SQL: st.tagMatchSQL(spec.Column, true), Args: []any{likePattern(s)}}, true
	default: // OpEquals: exact collection equality against the single tag.
		encoded, err := json.Marshal([]string{s})
		if err != nil {
			st.drop(n, "unencodable tag value")
			return Predicate{}, false
		}
		return Predicate{SQL: spec.Column + " = ?", Args: []any{string(encoded)}}, true
	}
}

// tagMatchSQL builds the case-insensitive membership test over the JSON tag
// array. SQLite expands arrays with json_each; PostgreSQL with
// jsonb_array_elements_text.
func (st *compileState) tagMatchSQL(column string, negate bool) string {
	var sub string
	switch st.c.dialect {
	case DialectPostgres:
		sub = fmt.Sprintf(`SELECT 1 FROM jsonb_array_elements_text(%s::jsonb) AS t(tag) WHERE LOWER(t.tag) LIKE ? ESCAPE '\'`, column)
	default:
		sub = fmt.Sprintf(`SELECT 1 FROM json_each(%s) WHERE LOWER(json_each.value) LIKE ? ESCAPE '\'`, column)
	}
	if negate {
		return "NOT EXISTS (" + sub + ")"
	}
	return "EXISTS (" + sub + ")"
}

func (st *compileState) textRule(n types.RuleNode, spec FieldSpec) (Predicate, bool) {
	s, ok := stringValue(n.Value)
	if !ok || s == "" {
		st.drop(n, "empty value")
		return Predicate{}, false
	}

	switch n.Operator {
	case OpContains:
		return Predicate{SQL: "LOWER(" + spec.Column + `) LIKE ? ESCAPE '\'`, Args: []any{likePattern(s)}}, true
	case OpNotContain:
		return Predicate{SQL: "LOWER(" + spec.Column + `) NOT LIKE ? ESCAPE '\'`, Args: []any{likePattern(s)}}, true
	default:
		return scalarCompare(spec.Column, n.Operator, s), true
	}
}

// scalarCompare maps a scalar operator onto its SQL comparison. Callers have
// already verified the operator against the field table, so the fallthrough
// equality arm covers both "=" and "equals".
func scalarCompare(column, op string, arg any) Predicate {
	var sqlOp string
	switch op {
	case OpGt:
		sqlOp = ">"
	case OpLt:
		sqlOp = "<"
	case OpGte:
		sqlOp = ">="
	case OpLte:
		sqlOp = "<="
	default:
		sqlOp = "="
	}
	return Predicate{SQL: column + " " + sqlOp + " ?", Args: []any{arg}}
}

// combine joins predicates with the given separator. Zero predicates yield
// the empty predicate; a single predicate collapses without a redundant
// combinator wrapper.
func combine(preds []Predicate, sep string) Predicate {
	switch len(preds) {
	case 0:
		return Predicate{}
	case 1:
		return preds[0]
	}

	parts := make([]string, len(preds))
	var args []any
	for i, p := range preds {
		parts[i] = p.SQL
		args = append(args, p.Args...)
	}
	return Predicate{SQL: "(" + strings.Join(parts, sep) + ")", Args: args}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring LIKE argument. LIKE
// metacharacters in the value are escaped so a literal "%" or "_" matches
// itself; the emitted fragments carry the matching ESCAPE clause.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// numericValue coerces a rule value to float64. Empty, nil, and non-numeric
// values are unusable.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		n = strings.TrimSpace(n)
		if n == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// intValue coerces a rule value to an integer day offset, truncating
// fractional input the way a permissive parse would.
func intValue(v any) (int, bool) {
	f, ok := numericValue(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// stringValue coerces a rule value to a trimmed string. Numbers are
// formatted rather than rejected so rules authored against text fields with
// numeric-looking values still compile.
func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	default:
		return "", false
	}
}

// timeValue coerces a rule value to a timestamp for scalar date comparisons.
func timeValue(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
