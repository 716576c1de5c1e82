package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/shivaapratim/mini-crm/internal/types"
)

// Property-based test: compilation never panics on arbitrary trees
func TestCompile_PropertyNeverCrashes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	fields := []string{"totalSpends", "visitCount", "lastSeenDate", "name", "tags", "bogus", ""}
	operators := []string{OpGt, OpLt, OpEq, OpEquals, OpContains, OpNotContain, OpInactiveGt, "??", ""}

	properties.Property("compile never panics regardless of input", prop.ForAll(
		func(fieldIdx, opIdx, valuePick, depth int, logicOr bool) bool {
			value := pickValue(valuePick)
			node := types.RuleNode{
				Type:     types.NodeRule,
				Field:    fields[fieldIdx%len(fields)],
				Operator: operators[opIdx%len(operators)],
				Value:    value,
			}

			logic := types.LogicAnd
			if logicOr {
				logic = types.LogicOr
			}
			groups := []types.RuleNode{{Type: types.NodeGroup, Logic: logic, Rules: []types.RuleNode{node}}}
			for i := 0; i < depth%4; i++ {
				groups = []types.RuleNode{{Type: types.NodeGroup, Logic: logic, Rules: groups}}
			}

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Compile() panicked: %v", r)
				}
			}()

			c := NewCompiler(DialectSQLite)
			result := c.Compile(groups, time.Now())

			// A predicate either has conditions or is empty, never both.
			return result.HasConditions != result.Predicate.Empty()
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 6),
		gen.IntRange(0, 10),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property-based test: placeholder count always matches argument count
func TestCompile_PropertyPlaceholdersMatchArgs(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("? count equals len(Args)", prop.ForAll(
		func(spend float64, visits int, tag string, useOr bool) bool {
			logic := types.LogicAnd
			if useOr {
				logic = types.LogicOr
			}
			groups := []types.RuleNode{{
				Type:  types.NodeGroup,
				Logic: logic,
				Rules: []types.RuleNode{
					{Type: types.NodeRule, Field: "totalSpends", Operator: OpGt, Value: spend},
					{Type: types.NodeRule, Field: "visitCount", Operator: OpLte, Value: visits},
					{Type: types.NodeRule, Field: "tags", Operator: OpContains, Value: tag},
				},
			}}

			c := NewCompiler(DialectSQLite)
			result := c.Compile(groups, time.Now())

			return strings.Count(result.Predicate.SQL, "?") == len(result.Predicate.Args)
		},
		gen.Float64Range(-1e6, 1e6),
		gen.IntRange(0, 1000),
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property-based test: wrapping in a single-child group never changes the predicate
func TestCompile_PropertyGroupCollapseEquivalence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("nesting a group inside a singleton group is a no-op", prop.ForAll(
		func(spend float64, visits int) bool {
			inner := types.RuleNode{
				Type:  types.NodeGroup,
				Logic: types.LogicOr,
				Rules: []types.RuleNode{
					{Type: types.NodeRule, Field: "totalSpends", Operator: OpGt, Value: spend},
					{Type: types.NodeRule, Field: "visitCount", Operator: OpEq, Value: visits},
				},
			}
			wrapped := types.RuleNode{Type: types.NodeGroup, Logic: types.LogicAnd, Rules: []types.RuleNode{inner}}

			c := NewCompiler(DialectSQLite)
			now := time.Now()
			direct := c.Compile([]types.RuleNode{inner}, now)
			nested := c.Compile([]types.RuleNode{wrapped}, now)

			return direct.Predicate.SQL == nested.Predicate.SQL &&
				len(direct.Predicate.Args) == len(nested.Predicate.Args)
		},
		gen.Float64Range(0, 1e6),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// Property-based test: inactive_for_days_g and _le partition on the same cutoff
func TestCompile_PropertyInactivePartition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("both offset operators compile against an identical cutoff", prop.ForAll(
		func(days int) bool {
			c := NewCompiler(DialectSQLite)
			now := time.Now()

			older := c.Compile([]types.RuleNode{{
				Type:  types.NodeGroup,
				Rules: []types.RuleNode{{Type: types.NodeRule, Field: "lastSeenDate", Operator: OpInactiveGt, Value: days}},
			}}, now)
			recent := c.Compile([]types.RuleNode{{
				Type:  types.NodeGroup,
				Rules: []types.RuleNode{{Type: types.NodeRule, Field: "lastSeenDate", Operator: OpInactiveLe, Value: days}},
			}}, now)

			if !older.HasConditions || !recent.HasConditions {
				return false
			}
			// Complementary comparisons, identical cutoff argument.
			return older.Predicate.SQL == "customers.last_seen_date < ?" &&
				recent.Predicate.SQL == "customers.last_seen_date >= ?" &&
				older.Predicate.Args[0] == recent.Predicate.Args[0]
		},
		gen.IntRange(0, 3650),
	))

	properties.TestingRun(t)
}

func pickValue(pick int) any {
	switch pick % 7 {
	case 0:
		return nil
	case 1:
		return ""
	case 2:
		return "  "
	case 3:
		return "100"
	case 4:
		return float64(42)
	case 5:
		return true
	default:
		return []any{"x"}
	}
}
