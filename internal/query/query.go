// Package query builds parameterized SELECT statements over the
// line_records table.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/model"
)

// Logic determines how multiple predicates are combined.
type Logic int

const (
	AND Logic = iota
	OR
)

// Operator represents a SQL comparison operator.
type Operator string

const (
	Equal          Operator = "="
	NotEqual       Operator = "!="
	Like           Operator = "LIKE"
	NotLike        Operator = "NOT LIKE"
	GreaterOrEqual Operator = ">="
	LessOrEqual    Operator = "<="
)

// validOperators is the set of allowed operators for validation.
var validOperators = map[Operator]bool{
	Equal: true, NotEqual: true, Like: true, NotLike: true,
	GreaterOrEqual: true, LessOrEqual: true,
}

// Predicate represents a single filter condition or a composite of conditions.
// Predicates use parameterized values to prevent SQL injection.
type Predicate struct {
	kind  predicateKind
	field string
	op    Operator
	value interface{}
	from  int64
	to    int64
	left  *Predicate
	right *Predicate
	logic Logic
}

type predicateKind int

const (
	predNone predicateKind = iota
	predSimple
	predRange
	predComposite
)

// Simple creates a predicate that compares a field to a value.
// Returns nil if the field name is invalid or the operator is unrecognized.
func Simple(field string, op Operator, value string) *Predicate {
	if !isValidField(field) || !validOperators[op] {
		return nil
	}
	return &Predicate{
		kind:  predSimple,
		field: field,
		op:    op,
		value: value,
	}
}

// Until keeps records committed at or before cutoff, the store-side
// counterpart of the timeline slider.
func Until(cutoff time.Time) *Predicate {
	return &Predicate{
		kind:  predSimple,
		field: "ts_unix",
		op:    LessOrEqual,
		value: cutoff.UnixNano(),
	}
}

// Between keeps records committed in [from, to], inclusive.
func Between(from, to time.Time) *Predicate {
	if to.Before(from) {
		from, to = to, from
	}
	return &Predicate{
		kind: predRange,
		from: from.UnixNano(),
		to:   to.UnixNano(),
	}
}

// Combine joins multiple predicates with the given logic (AND or OR).
// Returns nil for an empty slice. Returns the single predicate if only one is given.
// Nil predicates in the slice are skipped.
func Combine(preds []*Predicate, logic Logic) *Predicate {
	filtered := make([]*Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}

	result := &Predicate{
		kind:  predComposite,
		left:  filtered[0],
		right: filtered[1],
		logic: logic,
	}
	for i := 2; i < len(filtered); i++ {
		result = &Predicate{
			kind:  predComposite,
			left:  result,
			right: filtered[i],
			logic: logic,
		}
	}
	return result
}

// WhereClause returns the SQL WHERE fragment and its parameter values using
// "?" markers and unquoted columns.
// For example: "(type = ?)", []interface{}{"js"}
func (p *Predicate) WhereClause() (string, []interface{}) {
	return p.render(DefaultDialect)
}

func (p *Predicate) render(d QueryDialect) (string, []interface{}) {
	if p == nil {
		return "", nil
	}

	switch p.kind {
	case predSimple:
		col := d.QuoteColumn(p.field)
		if p.op == Like || p.op == NotLike {
			return fmt.Sprintf("(%s %s ?)", col, p.op),
				[]interface{}{fmt.Sprintf("%%%v%%", p.value)}
		}
		return fmt.Sprintf("(%s %s ?)", col, p.op), []interface{}{p.value}

	case predRange:
		return "(ts_unix BETWEEN ? AND ?)", []interface{}{p.from, p.to}

	case predComposite:
		leftSQL, leftArgs := p.left.render(d)
		rightSQL, rightArgs := p.right.render(d)

		if leftSQL == "" && rightSQL == "" {
			return "", nil
		}
		if leftSQL == "" {
			return rightSQL, rightArgs
		}
		if rightSQL == "" {
			return leftSQL, leftArgs
		}

		logicStr := "AND"
		if p.logic == OR {
			logicStr = "OR"
		}
		args := append(leftArgs, rightArgs...)
		return fmt.Sprintf("(%s %s %s)", leftSQL, logicStr, rightSQL), args

	default:
		return "", nil
	}
}

// Fields returns the list of field names referenced by this predicate tree.
func (p *Predicate) Fields() []string {
	if p == nil {
		return nil
	}

	switch p.kind {
	case predSimple:
		return []string{p.field}
	case predRange:
		return []string{"ts_unix"}
	case predComposite:
		seen := make(map[string]bool)
		var result []string
		for _, f := range append(p.left.Fields(), p.right.Fields()...) {
			if !seen[f] {
				seen[f] = true
				result = append(result, f)
			}
		}
		return result
	default:
		return nil
	}
}

// Query builds a full SELECT statement from predicates, ordering, and pagination.
type Query struct {
	predicates []*Predicate
	logic      Logic
	orderBy    string
	pageSize   int
	page       int
	dialect    QueryDialect
}

// New creates a new Query with the given page size.
// Pass 0 for no pagination.
func New(pageSize int) *Query {
	return &Query{
		logic:    AND,
		pageSize: pageSize,
		page:     1,
		dialect:  DefaultDialect,
	}
}

// SetDialect selects the placeholder and quoting style. nil restores the default.
func (q *Query) SetDialect(d QueryDialect) {
	if d == nil {
		d = DefaultDialect
	}
	q.dialect = d
}

// SetLogic sets how top-level predicates are combined (AND or OR).
func (q *Query) SetLogic(logic Logic) {
	q.logic = logic
}

// AddPredicate appends a predicate to the query. Nil predicates are ignored.
func (q *Query) AddPredicate(p *Predicate) {
	if p != nil {
		q.predicates = append(q.predicates, p)
	}
}

// RemovePredicate removes the first occurrence of a predicate from the query.
func (q *Query) RemovePredicate(p *Predicate) {
	for i, pred := range q.predicates {
		if pred == p {
			q.predicates = append(q.predicates[:i], q.predicates[i+1:]...)
			return
		}
	}
}

// ClearPredicates removes all predicates from the query.
func (q *Query) ClearPredicates() {
	q.predicates = nil
}

// OrderBy sets the column to sort results by.
// Pass an empty string to restore the default seq order.
// Returns an error if the field name is not valid.
func (q *Query) OrderBy(field string) error {
	if field == "" {
		q.orderBy = ""
		return nil
	}
	if !isValidField(field) {
		return fmt.Errorf("invalid order by field: %s", field)
	}
	q.orderBy = field
	return nil
}

// SetPage sets the current page number (1-based).
func (q *Query) SetPage(page int) {
	if page >= 1 {
		q.page = page
	}
}

// PageNumber returns the current page number (1-based).
func (q *Query) PageNumber() int {
	return q.page
}

func (q *Query) selectList() string {
	cols := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		cols[i] = q.dialect.QuoteColumn(f)
	}
	return strings.Join(cols, ", ")
}

func (q *Query) where() (string, []interface{}) {
	combined := Combine(q.predicates, q.logic)
	whereSQL, args := combined.render(q.dialect)
	if whereSQL == "" {
		return "", nil
	}
	return " WHERE " + whereSQL, args
}

// tail appends ordering and pagination. Records keep seq order unless told otherwise.
func (q *Query) tail() string {
	s := " ORDER BY seq"
	if q.orderBy != "" && q.orderBy != "seq" {
		s = " ORDER BY " + q.dialect.QuoteColumn(q.orderBy) + ", seq"
	}
	if q.pageSize > 0 {
		offset := q.pageSize * (q.page - 1)
		s += fmt.Sprintf(" LIMIT %d OFFSET %d", q.pageSize, offset)
	}
	return s
}

// Build generates the full SQL SELECT statement and its parameter values.
// The column list is model.Fields, matching database.Store.ExecuteQuery.
func (q *Query) Build() (string, []interface{}) {
	where, args := q.where()
	sql := "SELECT " + q.selectList() + " FROM line_records" + where + q.tail()
	return rebind(q.dialect, sql), args
}

// BuildCount generates a COUNT query using the same predicates.
func (q *Query) BuildCount() (string, []interface{}) {
	where, args := q.where()
	return rebind(q.dialect, "SELECT COUNT(*) FROM line_records"+where), args
}

// PredicateFields returns all field names referenced across all predicates.
// Used to pick columns worth indexing.
func (q *Query) PredicateFields() []string {
	seen := make(map[string]bool)
	var result []string
	for _, p := range q.predicates {
		for _, f := range p.Fields() {
			if !seen[f] {
				seen[f] = true
				result = append(result, f)
			}
		}
	}
	return result
}

// RawQuery wraps a user-provided SQL WHERE clause for direct execution.
// It backs the local-only stats --where flag.
type RawQuery struct {
	Query
	rawWhere string
}

// NewRaw creates a query from a raw WHERE clause string.
// The raw clause is used as-is, so the caller is responsible for safety.
// Pagination and ordering still work normally on top of it.
func NewRaw(pageSize int, whereClause string) *RawQuery {
	return &RawQuery{
		Query:    *New(pageSize),
		rawWhere: whereClause,
	}
}

// SetRawWhere updates the raw WHERE clause.
func (rq *RawQuery) SetRawWhere(where string) {
	rq.rawWhere = where
}

// Build generates the SQL using the raw WHERE clause plus ordering and pagination.
func (rq *RawQuery) Build() (string, []interface{}) {
	sql := "SELECT " + rq.selectList() + " FROM line_records"
	if rq.rawWhere != "" {
		sql += " WHERE " + rq.rawWhere
	}
	// Raw queries don't use parameterized args for the WHERE clause
	return sql + rq.tail(), nil
}

// isValidField checks a field name against the known columns.
func isValidField(name string) bool {
	for _, f := range model.Fields {
		if f == name {
			return true
		}
	}
	return false
}
