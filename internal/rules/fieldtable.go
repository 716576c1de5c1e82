// internal/rules/fieldtable.go
package rules

/*
 * Declarative field-type table for the segment rule compiler.
 *
 * Each segmentable Customer field declares its store column, its value kind,
 * and the operators it accepts. The compiler consults this table instead of
 * branching on hard-coded field-name lists, so adding a segmentable field is
 * a table entry, not new control flow.
 *
 * Kinds drive value coercion:
 *   - KindNumeric: value coerced to float64; empty/non-numeric values drop the rule
 *   - KindText: scalar string comparison; contains/not_contains are
 *     case-insensitive substring matches
 *   - KindDate: scalar timestamp comparison plus the inactive_for_days_*
 *     offset operators (value coerced to integer days)
 *   - KindTags: membership tests over a tag collection
 */

// FieldKind classifies how a field's rule values are coerced and compared.
type FieldKind int

const (
	KindNumeric FieldKind = iota
	KindText
	KindDate
	KindTags
)

// Rule operators as they appear in user-authored rule trees.
const (
	OpGt         = ">"
	OpLt         = "<"
	OpEq         = "="
	OpGte        = ">="
	OpLte        = "<="
	OpEquals     = "equals"
	OpContains   = "contains"
	OpNotContain = "not_contains"

	// Date-offset operators. inactive_for_days_g with value d means the field
	// is older than d days ago; inactive_for_days_le means it is within the
	// last d days. Cutoffs are computed at compile time.
	OpInactiveGt = "inactive_for_days_g"
	OpInactiveLe = "inactive_for_days_le"
)

// FieldSpec describes one segmentable field.
type FieldSpec struct {
	Column    string
	Kind      FieldKind
	Operators map[string]bool
}

// FieldTable maps rule field names to their specs.
type FieldTable map[string]FieldSpec

func opSet(ops ...string) map[string]bool {
	m := make(map[string]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}

var (
	numericOps = opSet(OpGt, OpLt, OpEq, OpGte, OpLte, OpEquals)
	textOps    = opSet(OpGt, OpLt, OpEq, OpGte, OpLte, OpEquals, OpContains, OpNotContain)
	dateOps    = opSet(OpGt, OpLt, OpEq, OpGte, OpLte, OpEquals, OpInactiveGt, OpInactiveLe)
	tagOps     = opSet(OpContains, OpNotContain, OpEquals)
)

// DefaultFieldTable returns the field table for the canonical Customer store.
// Columns are qualified with the table name so compiled fragments stay valid
// inside EXISTS subqueries.
func DefaultFieldTable() FieldTable {
	return FieldTable{
		"totalSpends":  {Column: "customers.total_spends", Kind: KindNumeric, Operators: numericOps},
		"visitCount":   {Column: "customers.visit_count", Kind: KindNumeric, Operators: numericOps},
		"lastSeenDate": {Column: "customers.last_seen_date", Kind: KindDate, Operators: dateOps},
		"createdAt":    {Column: "customers.created_at", Kind: KindDate, Operators: dateOps},
		"name":         {Column: "customers.name", Kind: KindText, Operators: textOps},
		"email":        {Column: "customers.email", Kind: KindText, Operators: textOps},
		"phone":        {Column: "customers.phone", Kind: KindText, Operators: textOps},
		"tags":         {Column: "customers.tags", Kind: KindTags, Operators: tagOps},
	}
}
