package query

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// pgStyle numbers placeholders and quotes keywords like PostgreSQL.
type pgStyle struct{}

func (pgStyle) Placeholder(i int) string { return fmt.Sprintf("$%d", i) }
func (pgStyle) QuoteColumn(name string) string {
	if name == "type" || name == "time" {
		return `"` + name + `"`
	}
	return name
}

func TestSimplePredicate(t *testing.T) {
	p := Simple("type", Equal, "js")
	if p == nil {
		t.Fatal("expected non-nil predicate")
	}

	sql, args := p.WhereClause()
	if sql != "(type = ?)" {
		t.Errorf("expected '(type = ?)', got '%s'", sql)
	}
	if len(args) != 1 || args[0] != "js" {
		t.Errorf("expected args ['js'], got %v", args)
	}
}

func TestSimplePredicateInvalidField(t *testing.T) {
	p := Simple("DROP TABLE", Equal, "oops")
	if p != nil {
		t.Error("expected nil for invalid field name")
	}
}

func TestSimplePredicateInvalidOperator(t *testing.T) {
	p := Simple("type", "HACK", "value")
	if p != nil {
		t.Error("expected nil for invalid operator")
	}
}

func TestLikePredicate(t *testing.T) {
	p := Simple("file", Like, "meta")
	sql, args := p.WhereClause()

	if sql != "(file LIKE ?)" {
		t.Errorf("expected '(file LIKE ?)', got '%s'", sql)
	}
	if len(args) != 1 || args[0] != "%meta%" {
		t.Errorf("expected args ['%%meta%%'], got %v", args)
	}
}

func TestNotLikePredicate(t *testing.T) {
	p := Simple("file", NotLike, "vendor")
	sql, args := p.WhereClause()

	if sql != "(file NOT LIKE ?)" {
		t.Errorf("expected '(file NOT LIKE ?)', got '%s'", sql)
	}
	if len(args) != 1 || args[0] != "%vendor%" {
		t.Errorf("expected args ['%%vendor%%'], got %v", args)
	}
}

func TestUntilPredicate(t *testing.T) {
	cutoff := time.Date(2025, 2, 10, 14, 3, 0, 0, time.UTC)
	sql, args := Until(cutoff).WhereClause()

	if sql != "(ts_unix <= ?)" {
		t.Errorf("unexpected sql: %s", sql)
	}
	if len(args) != 1 || args[0] != cutoff.UnixNano() {
		t.Errorf("expected cutoff in nanoseconds, got %v", args)
	}
}

func TestBetweenPredicate(t *testing.T) {
	a := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)

	// Reversed bounds are swapped.
	sql, args := Between(b, a).WhereClause()
	if sql != "(ts_unix BETWEEN ? AND ?)" {
		t.Errorf("unexpected sql: %s", sql)
	}
	if len(args) != 2 || args[0] != a.UnixNano() || args[1] != b.UnixNano() {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestCombineAND(t *testing.T) {
	p1 := Simple("type", Equal, "js")
	p2 := Simple("author", Equal, "frank")

	sql, args := Combine([]*Predicate{p1, p2}, AND).WhereClause()
	if sql != "((type = ?) AND (author = ?))" {
		t.Errorf("unexpected sql: %s", sql)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}
}

func TestCombineOR(t *testing.T) {
	p1 := Simple("type", Equal, "js")
	p2 := Simple("type", Equal, "css")

	sql, _ := Combine([]*Predicate{p1, p2}, OR).WhereClause()
	if sql != "((type = ?) OR (type = ?))" {
		t.Errorf("unexpected sql: %s", sql)
	}
}

func TestCombineThree(t *testing.T) {
	p1 := Simple("type", Equal, "js")
	p2 := Simple("author", Equal, "frank")
	p3 := Simple("file", Like, "meta")

	sql, args := Combine([]*Predicate{p1, p2, p3}, AND).WhereClause()
	if sql != "(((type = ?) AND (author = ?)) AND (file LIKE ?))" {
		t.Errorf("unexpected sql: %s", sql)
	}
	if len(args) != 3 {
		t.Errorf("expected 3 args, got %d", len(args))
	}
}

func TestCombineSingle(t *testing.T) {
	p := Simple("type", Equal, "js")
	if Combine([]*Predicate{p}, AND) != p {
		t.Error("expected single predicate to be returned as-is")
	}
}

func TestCombineEmptyAndNils(t *testing.T) {
	if Combine(nil, AND) != nil {
		t.Error("expected nil for empty slice")
	}
	if Combine([]*Predicate{nil, nil}, OR) != nil {
		t.Error("expected nil for all-nil slice")
	}

	p := Simple("type", Equal, "js")
	if Combine([]*Predicate{nil, p, nil}, AND) != p {
		t.Error("expected nils to be skipped")
	}
}

func TestNilPredicateWhereClause(t *testing.T) {
	var p *Predicate
	sql, args := p.WhereClause()
	if sql != "" {
		t.Errorf("expected empty sql, got: %s", sql)
	}
	if args != nil {
		t.Errorf("expected nil args, got: %v", args)
	}
}

func TestPredicateFields(t *testing.T) {
	p1 := Simple("type", Equal, "js")
	p2 := Between(time.Unix(0, 0), time.Unix(100, 0))
	p3 := Simple("type", Like, "s") // duplicate field

	fields := Combine([]*Predicate{p1, p2, p3}, AND).Fields()
	if len(fields) != 2 || fields[0] != "type" || fields[1] != "ts_unix" {
		t.Errorf("expected [type ts_unix], got %v", fields)
	}
}

// --- Query builder tests ---

func TestQueryBuildNoPredicates(t *testing.T) {
	q := New(0)
	sql, args := q.Build()

	if !strings.HasPrefix(sql, "SELECT seq, commit_id,") {
		t.Errorf("expected field list prefix, got: %s", sql)
	}
	if !strings.Contains(sql, "FROM line_records") {
		t.Errorf("expected FROM line_records, got: %s", sql)
	}
	if strings.Contains(sql, "WHERE") {
		t.Errorf("expected no WHERE clause, got: %s", sql)
	}
	if !strings.HasSuffix(sql, "ORDER BY seq") {
		t.Errorf("expected default seq order, got: %s", sql)
	}
	if len(args) != 0 {
		t.Errorf("expected 0 args, got %d", len(args))
	}
}

func TestQueryBuildWithPredicate(t *testing.T) {
	q := New(0)
	q.AddPredicate(Simple("type", Equal, "js"))

	sql, args := q.Build()
	if !strings.Contains(sql, "WHERE (type = ?)") {
		t.Errorf("expected WHERE clause, got: %s", sql)
	}
	if len(args) != 1 || args[0] != "js" {
		t.Errorf("expected args ['js'], got %v", args)
	}
}

func TestQueryBuildWithOrderBy(t *testing.T) {
	q := New(0)
	if err := q.OrderBy("ts_unix"); err != nil {
		t.Fatalf("OrderBy failed: %v", err)
	}

	sql, _ := q.Build()
	if !strings.Contains(sql, "ORDER BY ts_unix, seq") {
		t.Errorf("expected ORDER BY ts_unix with seq tiebreak, got: %s", sql)
	}
}

func TestQueryOrderByInvalidField(t *testing.T) {
	q := New(0)
	if err := q.OrderBy("DROP TABLE"); err == nil {
		t.Error("expected error for invalid order by field")
	}
}

func TestQueryBuildWithPagination(t *testing.T) {
	q := New(1000)
	q.SetPage(1)

	sql, _ := q.Build()
	if !strings.Contains(sql, "LIMIT 1000 OFFSET 0") {
		t.Errorf("expected LIMIT 1000 OFFSET 0, got: %s", sql)
	}

	q.SetPage(3)
	sql, _ = q.Build()
	if !strings.Contains(sql, "LIMIT 1000 OFFSET 2000") {
		t.Errorf("expected LIMIT 1000 OFFSET 2000, got: %s", sql)
	}
}

func TestQuerySetPageIgnoresInvalid(t *testing.T) {
	q := New(100)
	q.SetPage(5)
	q.SetPage(0)  // should be ignored
	q.SetPage(-1) // should be ignored

	if q.PageNumber() != 5 {
		t.Errorf("expected page 5, got %d", q.PageNumber())
	}
}

func TestQueryBuildPostgres(t *testing.T) {
	q := New(50)
	q.SetDialect(pgStyle{})
	q.AddPredicate(Simple("type", Equal, "js"))
	q.AddPredicate(Between(time.Unix(0, 0), time.Unix(10, 0)))
	q.OrderBy("time")
	q.SetPage(2)

	sql, args := q.Build()
	if !strings.Contains(sql, `WHERE (("type" = $1) AND (ts_unix BETWEEN $2 AND $3))`) {
		t.Errorf("expected numbered placeholders, got: %s", sql)
	}
	if !strings.Contains(sql, `file, "type", line`) {
		t.Errorf("expected quoted select list, got: %s", sql)
	}
	if !strings.Contains(sql, `ORDER BY "time", seq LIMIT 50 OFFSET 50`) {
		t.Errorf("expected quoted order and page 2, got: %s", sql)
	}
	if len(args) != 3 {
		t.Errorf("expected 3 args, got %d", len(args))
	}
}

func TestQueryBuildCount(t *testing.T) {
	q := New(1000)
	q.AddPredicate(Simple("author", Equal, "frank"))

	sql, args := q.BuildCount()
	if sql != "SELECT COUNT(*) FROM line_records WHERE (author = ?)" {
		t.Errorf("unexpected count query: %s", sql)
	}
	if len(args) != 1 {
		t.Errorf("expected 1 arg, got %d", len(args))
	}
}

func TestQueryPredicateFields(t *testing.T) {
	q := New(0)
	q.AddPredicate(Simple("type", Equal, "js"))
	q.AddPredicate(Simple("author", Like, "fr"))
	q.AddPredicate(Simple("type", NotEqual, "css")) // duplicate field

	if fields := q.PredicateFields(); len(fields) != 2 {
		t.Errorf("expected 2 unique fields, got %d: %v", len(fields), fields)
	}
}

func TestQueryRemoveAndClearPredicates(t *testing.T) {
	q := New(0)
	p1 := Simple("type", Equal, "js")
	p2 := Simple("author", Equal, "frank")
	q.AddPredicate(p1)
	q.AddPredicate(p2)
	q.RemovePredicate(p1)

	sql, args := q.Build()
	if !strings.Contains(sql, "author") || strings.Contains(sql, " AND ") {
		t.Errorf("expected only the author predicate, got: %s", sql)
	}
	if len(args) != 1 {
		t.Errorf("expected 1 arg, got %d", len(args))
	}

	q.ClearPredicates()
	sql, _ = q.Build()
	if strings.Contains(sql, "WHERE") {
		t.Errorf("expected no WHERE after clear, got: %s", sql)
	}
}

func TestQueryORLogic(t *testing.T) {
	q := New(0)
	q.SetLogic(OR)
	q.AddPredicate(Simple("type", Equal, "js"))
	q.AddPredicate(Simple("type", Equal, "css"))

	sql, _ := q.Build()
	if !strings.Contains(sql, " OR ") {
		t.Errorf("expected OR logic, got: %s", sql)
	}
}

// --- RawQuery tests ---

func TestRawQueryBuild(t *testing.T) {
	rq := NewRaw(1000, "type = 'js' AND author = 'frank'")
	rq.OrderBy("ts_unix")

	sql, args := rq.Build()
	if !strings.Contains(sql, "WHERE type = 'js' AND author = 'frank'") {
		t.Errorf("expected raw WHERE clause, got: %s", sql)
	}
	if !strings.Contains(sql, "ORDER BY ts_unix, seq LIMIT 1000 OFFSET 0") {
		t.Errorf("expected ORDER BY and LIMIT, got: %s", sql)
	}
	if args != nil {
		t.Errorf("expected nil args for raw query, got: %v", args)
	}
}

func TestRawQuerySetRawWhere(t *testing.T) {
	rq := NewRaw(0, "")
	sql, _ := rq.Build()
	if strings.Contains(sql, "WHERE") {
		t.Errorf("expected no WHERE for empty raw query, got: %s", sql)
	}

	rq.SetRawWhere("author = 'frank'")
	sql, _ = rq.Build()
	if !strings.Contains(sql, "author = 'frank'") {
		t.Errorf("expected updated WHERE, got: %s", sql)
	}
}

func TestRebindSkipsQuotedMarkers(t *testing.T) {
	got := rebind(pgStyle{}, "a = ? AND b = '?' AND c = ?")
	if got != "a = $1 AND b = '?' AND c = $2" {
		t.Errorf("unexpected rebind: %s", got)
	}
}
