package postgres

import (
	"fmt"
	"strings"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

// whereBuilder accumulates conjunctive predicates with $n placeholders
type whereBuilder struct {
	clauses []string
	args    []any
}

// add appends a clause whose format has exactly one %d for the placeholder index
func (w *whereBuilder) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) String() string {
	return strings.Join(w.clauses, " AND ")
}

// buildWhere renders f, plus the null exclusion of order, as a WHERE body
// ⭐ SSOT: 필터 -> SQL 변환은 여기서만
func buildWhere(f contracts.Filter, order *contracts.Ordering) (*whereBuilder, error) {
	w := &whereBuilder{}

	w.add("data_date = $%d", contracts.TruncateDate(f.Date))

	if profile, ok := f.Profile.Get(); ok {
		// GIN-indexed array containment
		w.add("passed_profiles @> ARRAY[$%d]::text[]", profile)
	}
	if sector, ok := f.Sector.Get(); ok {
		w.add("sector = $%d", sector)
	}
	if v, ok := f.MinScore.Get(); ok {
		w.add("total_score >= $%d", v)
	}
	if v, ok := f.MaxScore.Get(); ok {
		w.add("total_score <= $%d", v)
	}
	if v, ok := f.MinMarketCap.Get(); ok {
		w.add("market_cap >= $%d", v)
	}
	if v, ok := f.MaxMarketCap.Get(); ok {
		w.add("market_cap <= $%d", v)
	}
	if v, ok := f.MaxDiscount.Get(); ok {
		w.add("discount < $%d", v)
	}

	if order != nil {
		col, err := scoreColumn(order.Field)
		if err != nil {
			return nil, err
		}
		w.raw(col + " IS NOT NULL")
	}

	return w, nil
}

// orderClause renders the ORDER BY body; ticker ASC is always the last key
func orderClause(order *contracts.Ordering) (string, error) {
	if order == nil {
		return "ticker ASC", nil
	}
	col, err := scoreColumn(order.Field)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s, ticker ASC", col, order.Direction), nil
}

// scoreColumn maps a validated score field to its column
func scoreColumn(field contracts.ScoreField) (string, error) {
	if !field.IsValid() {
		return "", fmt.Errorf("unknown score field %q", field)
	}
	return field.Column(), nil
}

// buildScan renders the full SELECT for q
func buildScan(q contracts.Query) (string, []any, error) {
	w, err := buildWhere(q.Filter, q.Order)
	if err != nil {
		return "", nil, err
	}
	order, err := orderClause(q.Order)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s WHERE %s ORDER BY %s", selectList, table, w, order)

	args := w.args
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	return sb.String(), args, nil
}

// buildCount renders the COUNT(*) of q, ignoring its window
func buildCount(q contracts.Query) (string, []any, error) {
	w, err := buildWhere(q.Filter, q.Order)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, w), w.args, nil
}

// buildUpsert renders the INSERT ... ON CONFLICT statement of one snapshot
func buildUpsert() string {
	names := columnNames(writableColumns)

	placeholders := make([]string, len(names))
	updates := make([]string, 0, len(names))
	for i, name := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if name == "ticker" || name == "data_date" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
	}
	updates = append(updates, "updated_at = NOW()")

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (ticker, data_date) DO UPDATE SET %s",
		table,
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}
