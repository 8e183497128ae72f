package repository

import (
	"context"
	"fmt"
	"strings"

	"catalog-admin/internal/refset"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx so the same repository code
// runs inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// query accumulates positional arguments, WHERE conditions and SET
// assignments for one statement.
type query struct {
	args  []any
	conds []string
	sets  []string
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *query) where(format string, args ...any) {
	q.conds = append(q.conds, fmt.Sprintf(format, args...))
}

func (q *query) set(column, expr string) {
	q.sets = append(q.sets, column+" = "+expr)
}

func (q *query) whereClause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

func (q *query) setClause() string {
	return strings.Join(q.sets, ", ")
}

func (q *query) scope(s ArchiveScope) {
	switch s {
	case ScopeActive:
		q.where("freezed_at IS NULL")
	case ScopeArchived:
		q.where("freezed_at IS NOT NULL")
	}
}

// orderBy validates the requested sort against sortable to keep column names
// out of user input.
func orderBy(p Page, sortable map[string]bool) string {
	sortBy := p.SortBy
	if !sortable[sortBy] {
		sortBy = "created_at"
	}
	order := p.Order
	if order != SortOrderAsc && order != SortOrderDesc {
		order = SortOrderDesc
	}
	return fmt.Sprintf(" ORDER BY %s %s, id", sortBy, order)
}

func (q *query) limit(p Page) string {
	if p.Size <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %s OFFSET %s", q.arg(p.Size), q.arg(p.Offset()))
}

// likePattern escapes LIKE metacharacters and wraps s for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// setExpr renders a refset expression over a uuid[] column. The result is an
// SQL expression computed from the row being updated, so the whole change is
// applied by a single UPDATE statement.
func (q *query) setExpr(e refset.Expr, column string) (string, error) {
	switch e := e.(type) {
	case refset.Field:
		return column, nil
	case refset.Literal:
		return q.arg(refset.Dedup(e)) + "::uuid[]", nil
	case refset.Difference:
		from, err := q.setExpr(e.From, column)
		if err != nil {
			return "", err
		}
		if len(e.Remove) == 0 {
			return from, nil
		}
		return fmt.Sprintf(
			"ARRAY(SELECT x FROM unnest(%s) WITH ORDINALITY AS t(x, ord) WHERE x <> ALL(%s::uuid[]) ORDER BY ord)",
			from, q.arg(e.Remove),
		), nil
	case refset.Union:
		base, err := q.setExpr(e.Base, column)
		if err != nil {
			return "", err
		}
		if len(e.Add) == 0 {
			return base, nil
		}
		return fmt.Sprintf(
			"ARRAY(SELECT x FROM (SELECT x, min(pos) AS pos FROM ("+
				"SELECT x, ord AS pos FROM unnest(%s) WITH ORDINALITY AS a(x, ord) "+
				"UNION ALL "+
				"SELECT x, ord + 4294967296 AS pos FROM unnest(%s::uuid[]) WITH ORDINALITY AS b(x, ord)"+
				") s GROUP BY x) d ORDER BY pos)",
			base, q.arg(e.Add),
		), nil
	case refset.Replace:
		from, err := q.setExpr(e.From, column)
		if err != nil {
			return "", err
		}
		replaced := fmt.Sprintf("array_replace(%s, %s::uuid, %s::uuid)", from, q.arg(e.Old), q.arg(e.New))
		return fmt.Sprintf(
			"ARRAY(SELECT x FROM (SELECT x, min(ord) AS ord FROM unnest(%s) WITH ORDINALITY AS t(x, ord) GROUP BY x) d ORDER BY ord)",
			replaced,
		), nil
	default:
		return "", fmt.Errorf("unsupported set expression %T", e)
	}
}
