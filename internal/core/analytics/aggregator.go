package analytics

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Aggregator runs COUNT/SUM/GROUP BY queries for dashboards
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

func (a *Aggregator) scoped(ctx context.Context, table string, filter Filter) *gorm.DB {
	q := a.db.WithContext(ctx).Table(table)
	for cond, v := range filter {
		if strings.Contains(cond, "?") {
			q = q.Where(cond, v)
		} else {
			q = q.Where(fmt.Sprintf("%s = ?", cond), v)
		}
	}
	return q
}

// Count performs a COUNT(*) with filters
func (a *Aggregator) Count(ctx context.Context, table string, filter Filter) (int64, error) {
	var n int64
	if err := a.scoped(ctx, table, filter).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s failed: %w", table, err)
	}
	return n, nil
}

// Sum performs SUM(column) with filters; NULL becomes 0
func (a *Aggregator) Sum(ctx context.Context, table, column string, filter Filter) (float64, error) {
	var total float64
	err := a.scoped(ctx, table, filter).
		Select(fmt.Sprintf("COALESCE(SUM(%s), 0)", column)).
		Row().Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum %s.%s failed: %w", table, column, err)
	}
	return total, nil
}

// CountBy groups rows by column and counts each group
func (a *Aggregator) CountBy(ctx context.Context, table, column string, filter Filter) (map[string]int64, error) {
	var rows []struct {
		GroupKey string
		Count    int64
	}
	err := a.scoped(ctx, table, filter).
		Select(fmt.Sprintf("%s AS group_key, COUNT(*) AS count", column)).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by %s failed: %w", column, err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.Count
	}
	return out, nil
}

// DailyCounts counts rows per calendar day of dateColumn inside r
func (a *Aggregator) DailyCounts(ctx context.Context, table, dateColumn string, r DateRange, filter Filter) ([]Point, error) {
	var rows []struct {
		Day   string
		Count int64
	}
	err := a.scoped(ctx, table, filter).
		Where(fmt.Sprintf("%s BETWEEN ? AND ?", dateColumn), r.Start, r.End).
		Select(fmt.Sprintf("%s AS day, COUNT(*) AS count", dayExpr(a.db, dateColumn))).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("daily counts failed: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Day] = row.Count
	}
	return FillDaily(r, counts), nil
}

// dayExpr renders a column as YYYY-MM-DD text in the connected dialect
func dayExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("substr(%s, 1, 10)", column)
	}
	return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", column)
}
