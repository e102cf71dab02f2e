package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tessera/value"
)

// Grammar compiles plans and write intents into statements.
type Grammar interface {
	CompileSelect(plan Plan) (Statement, error)
	CompileInsert(table string, row map[string]any) (Statement, error)
	CompileUpdate(table string, set map[string]any, where []Predicate) (Statement, error)
	CompileDelete(table string, where []Predicate) (Statement, error)
}

// PartiQL compiles statements in DynamoDB's PartiQL dialect.
type PartiQL struct{}

var _ Grammar = PartiQL{}

// CompileSelect compiles a read plan. It fails with ErrFilteringRequired when
// the predicates cannot be served by the key and filtering is not allowed.
func (PartiQL) CompileSelect(plan Plan) (Statement, error) {
	if plan.table == "" {
		return Statement{}, fmt.Errorf("%w: no table", ErrInvalidPlan)
	}
	if !plan.allowFiltering && requiresFiltering(plan) {
		return Statement{}, fmt.Errorf("%w: table %s", ErrFilteringRequired, plan.table)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(plan.columns) == 0 {
		sb.WriteString("*")
	} else {
		for i, c := range plan.columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(quoteIdent(c))
		}
	}
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(plan.table))

	var params []types.AttributeValue
	if len(plan.wheres) > 0 {
		where, p, err := compileWheres(plan.wheres)
		if err != nil {
			return Statement{}, err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		params = p
	}

	return Statement{
		Table:     plan.table,
		Text:      sb.String(),
		Params:    params,
		Filtering: plan.allowFiltering,
	}, nil
}

// CompileInsert compiles an insert of one row. Columns are emitted in sorted
// order so the same column set always yields the same statement text.
func (PartiQL) CompileInsert(table string, row map[string]any) (Statement, error) {
	if table == "" {
		return Statement{}, fmt.Errorf("%w: no table", ErrInvalidPlan)
	}
	if len(row) == 0 {
		return Statement{}, ErrEmptyStatement
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(quoteIdent(table))
	sb.WriteString(" VALUE {")

	var params []types.AttributeValue
	for i, col := range sortedKeys(row) {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteLiteral(col))
		sb.WriteString(" : ")
		text, p, err := bind(row[col])
		if err != nil {
			return Statement{}, fmt.Errorf("bind %s: %w", col, err)
		}
		sb.WriteString(text)
		params = append(params, p...)
	}
	sb.WriteString("}")

	return Statement{Table: table, Text: sb.String(), Params: params}, nil
}

// CompileUpdate compiles an update of the set columns on the row addressed by
// where. Nil values remove the attribute.
func (PartiQL) CompileUpdate(table string, set map[string]any, where []Predicate) (Statement, error) {
	if table == "" {
		return Statement{}, fmt.Errorf("%w: no table", ErrInvalidPlan)
	}
	if len(set) == 0 {
		return Statement{}, ErrEmptyStatement
	}
	if len(where) == 0 {
		return Statement{}, fmt.Errorf("%w: update without key", ErrInvalidPlan)
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(quoteIdent(table))

	var params []types.AttributeValue
	for _, col := range sortedKeys(set) {
		v := set[col]
		if v == nil {
			sb.WriteString(" REMOVE ")
			sb.WriteString(quoteIdent(col))
			continue
		}
		text, p, err := bind(v)
		if err != nil {
			return Statement{}, fmt.Errorf("bind %s: %w", col, err)
		}
		sb.WriteString(" SET ")
		sb.WriteString(quoteIdent(col))
		sb.WriteString(" = ")
		sb.WriteString(text)
		params = append(params, p...)
	}

	clause, p, err := compileWheres(where)
	if err != nil {
		return Statement{}, err
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(clause)
	params = append(params, p...)

	return Statement{Table: table, Text: sb.String(), Params: params}, nil
}

// CompileDelete compiles a delete of the row addressed by where.
func (PartiQL) CompileDelete(table string, where []Predicate) (Statement, error) {
	if table == "" {
		return Statement{}, fmt.Errorf("%w: no table", ErrInvalidPlan)
	}
	if len(where) == 0 {
		return Statement{}, fmt.Errorf("%w: delete without key", ErrInvalidPlan)
	}
	clause, params, err := compileWheres(where)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Table:  table,
		Text:   "DELETE FROM " + quoteIdent(table) + " WHERE " + clause,
		Params: params,
	}, nil
}

// requiresFiltering reports whether the predicates go beyond a key lookup:
// every partition column bound by equality and nothing outside the key.
func requiresFiltering(plan Plan) bool {
	if len(plan.wheres) == 0 {
		return false
	}
	if len(plan.partition) == 0 {
		return true
	}

	partition := make(map[string]bool, len(plan.partition))
	for _, c := range plan.partition {
		partition[c] = true
	}
	clustering := make(map[string]bool, len(plan.clustering))
	for _, c := range plan.clustering {
		clustering[c] = true
	}

	bound := make(map[string]bool)
	for _, w := range plan.wheres {
		switch {
		case partition[w.Column]:
			if w.Op != OpEq && w.Op != OpIn {
				return true
			}
			bound[w.Column] = true
		case clustering[w.Column]:
		default:
			return true
		}
	}
	return len(bound) != len(partition)
}

func compileWheres(wheres []Predicate) (string, []types.AttributeValue, error) {
	clauses := make([]string, 0, len(wheres))
	var params []types.AttributeValue
	for _, w := range wheres {
		col := quoteIdent(w.Column)
		switch w.Op {
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
			text, p, err := bind(w.Value)
			if err != nil {
				return "", nil, fmt.Errorf("bind %s: %w", w.Column, err)
			}
			clauses = append(clauses, col+" "+w.Op+" "+text)
			params = append(params, p...)
		case OpIn:
			values, ok := w.Value.([]any)
			if !ok || len(values) == 0 {
				return "", nil, fmt.Errorf("%w: IN on %s needs values", ErrInvalidPlan, w.Column)
			}
			items := make([]string, 0, len(values))
			for _, v := range values {
				text, p, err := bind(v)
				if err != nil {
					return "", nil, fmt.Errorf("bind %s: %w", w.Column, err)
				}
				items = append(items, text)
				params = append(params, p...)
			}
			clauses = append(clauses, col+" IN ["+strings.Join(items, ", ")+"]")
		case OpBeginsWith:
			text, p, err := bind(w.Value)
			if err != nil {
				return "", nil, fmt.Errorf("bind %s: %w", w.Column, err)
			}
			clauses = append(clauses, "begins_with("+col+", "+text+")")
			params = append(params, p...)
		default:
			return "", nil, fmt.Errorf("%w: operator %q", ErrInvalidPlan, w.Op)
		}
	}
	return strings.Join(clauses, " AND "), params, nil
}

// bind returns the placeholder text for v and the parameters it adds. Raw
// expressions are inlined and add none.
func bind(v any) (string, []types.AttributeValue, error) {
	if raw, ok := v.(Raw); ok {
		return string(raw), nil, nil
	}
	av, err := value.Encode(v)
	if err != nil {
		return "", nil, err
	}
	return "?", []types.AttributeValue{av}, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
