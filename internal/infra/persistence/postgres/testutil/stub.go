// Package testutil provides an in-memory database/sql driver that understands
// the handful of statement shapes issued by the audit store.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

var stubSeq atomic.Int64

// StubConn keeps tables as rows of column maps and records every statement.
type StubConn struct {
	mu         sync.Mutex
	Execs      []string
	Tables     map[string][]map[string]any
	FailPing   bool
	FailExec   bool
	FailBegin  bool
	FailCommit bool
	FailTables map[string]bool
	RowsErr    error
}

// NewStubDB registers a fresh driver and opens a sql.DB on it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]map[string]any)}
	name := fmt.Sprintf("variantcore_stub_%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Rows returns a copy of the rows stored in table.
func (c *StubConn) Rows(table string) []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, len(c.Tables[table]))
	copy(out, c.Tables[table])
	return out
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare is unsupported; the store only issues direct statements.
func (c *StubConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported")
}

func (c *StubConn) Close() error { return nil }

func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

// ExecContext handles CREATE (ignored), INSERT with optional ON CONFLICT upsert
// on the first column, and DELETE with a single equality predicate.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	verb := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(verb, "INSERT INTO"):
		table, cols, err := parseInsert(query)
		if err != nil {
			return nil, err
		}
		if c.FailTables[table] {
			return nil, fmt.Errorf("exec fail for %s", table)
		}
		if len(cols) != len(args) {
			return nil, fmt.Errorf("column/arg mismatch for %s", table)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = args[i].Value
		}
		if strings.Contains(verb, "ON CONFLICT") {
			c.Tables[table] = without(c.Tables[table], cols[0], row[cols[0]])
		}
		c.Tables[table] = append(c.Tables[table], row)
		return driver.RowsAffected(1), nil
	case strings.HasPrefix(verb, "DELETE FROM"):
		table, preds, err := parseDelete(query)
		if err != nil {
			return nil, err
		}
		if len(preds) != 1 || len(args) == 0 {
			return nil, fmt.Errorf("delete %s needs one predicate", table)
		}
		before := len(c.Tables[table])
		c.Tables[table] = without(c.Tables[table], preds[0].column, args[0].Value)
		return driver.RowsAffected(int64(before - len(c.Tables[table]))), nil
	}
	return driver.RowsAffected(0), nil
}

// QueryContext handles SELECT with AND-ed "=" and ">=" predicates. ORDER BY is
// ignored; rows come back in insertion order.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	table, cols, preds, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[table] {
		return nil, fmt.Errorf("query fail for %s", table)
	}
	var values [][]driver.Value
	for _, row := range c.Tables[table] {
		if !matches(row, preds, args) {
			continue
		}
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			vals[i] = row[col]
		}
		values = append(values, vals)
	}
	return &stubRows{cols: cols, rows: values, err: c.RowsErr}, nil
}

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t *stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

type predicate struct {
	column string
	op     string
}

func without(rows []map[string]any, column string, value any) []map[string]any {
	var kept []map[string]any
	for _, row := range rows {
		if row[column] == value {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func matches(row map[string]any, preds []predicate, args []driver.NamedValue) bool {
	for i, p := range preds {
		if i >= len(args) {
			return false
		}
		want := args[i].Value
		switch p.op {
		case "=":
			if row[p.column] != want {
				return false
			}
		case ">=":
			got, ok1 := row[p.column].(int64)
			bound, ok2 := want.(int64)
			if !ok1 || !ok2 || got < bound {
				return false
			}
		}
	}
	return true
}

func parseInsert(query string) (string, []string, error) {
	up := strings.ToUpper(query)
	intoIdx := strings.Index(up, "INTO ")
	if intoIdx == -1 {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := strings.TrimSpace(query[intoIdx+len("INTO "):])
	open := strings.Index(rest, "(")
	closeIdx := strings.Index(rest, ")")
	if open == -1 || closeIdx == -1 || closeIdx <= open {
		return "", nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	table := strings.ToLower(strings.TrimSpace(rest[:open]))
	return table, splitColumns(rest[open+1 : closeIdx]), nil
}

func parseDelete(query string) (string, []predicate, error) {
	lower := strings.ToLower(strings.TrimSpace(query))
	rest := strings.TrimPrefix(lower, "delete from ")
	table, where, _ := strings.Cut(rest, " where ")
	preds, err := parseWhere(where)
	if err != nil {
		return "", nil, fmt.Errorf("cannot parse delete %q: %w", query, err)
	}
	return strings.TrimSpace(table), preds, nil
}

func parseSelect(query string) (string, []string, []predicate, error) {
	lower := strings.ToLower(strings.TrimSpace(query))
	if !strings.HasPrefix(lower, "select ") {
		return "", nil, nil, fmt.Errorf("cannot parse select: %s", query)
	}
	cols, rest, ok := strings.Cut(strings.TrimPrefix(lower, "select "), " from ")
	if !ok {
		return "", nil, nil, fmt.Errorf("cannot parse select: %s", query)
	}
	rest, _, _ = strings.Cut(rest, " order by ")
	table, where, _ := strings.Cut(rest, " where ")
	preds, err := parseWhere(where)
	if err != nil {
		return "", nil, nil, fmt.Errorf("cannot parse select %q: %w", query, err)
	}
	return strings.TrimSpace(table), splitColumns(cols), preds, nil
}

// parseWhere reads "col = $1 AND col >= $2"; placeholders bind in order.
func parseWhere(where string) ([]predicate, error) {
	where = strings.TrimSpace(where)
	if where == "" {
		return nil, nil
	}
	var preds []predicate
	for _, clause := range strings.Split(where, " and ") {
		fields := strings.Fields(clause)
		if len(fields) != 3 || (fields[1] != "=" && fields[1] != ">=") {
			return nil, fmt.Errorf("unsupported predicate %q", clause)
		}
		preds = append(preds, predicate{column: fields[0], op: fields[1]})
	}
	return preds, nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
