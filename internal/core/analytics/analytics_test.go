package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/adwelink/ams-api/internal/shared/database/dbtest"
)

type sampleRow struct {
	ID        uint `gorm:"primaryKey"`
	Tenant    string
	Status    string
	Amount    float64
	CreatedAt time.Time
}

func TestRangeForPeriod(t *testing.T) {
	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC) // Wednesday

	week := RangeForPeriod("this_week", now)
	if week.Start.Weekday() != time.Monday || week.Start.Day() != 16 {
		t.Errorf("this_week start = %v", week.Start)
	}

	last := RangeForPeriod("last_month", now)
	if last.Start.Month() != time.February || last.End.Month() != time.February || last.End.Day() != 28 {
		t.Errorf("last_month = %v - %v", last.Start, last.End)
	}

	if len(DailyBuckets(RangeForPeriod("last_7_days", now))) != 7 {
		t.Error("last_7_days should have 7 buckets")
	}
}

func TestPercentChange(t *testing.T) {
	if PercentChange(15, 10) != 50 {
		t.Error("15 vs 10 should be +50%")
	}
	if PercentChange(5, 0) != 0 {
		t.Error("change from zero should be 0")
	}
}

func TestAggregator(t *testing.T) {
	db := dbtest.New(t, &sampleRow{})
	now := time.Now()
	db.Create(&[]sampleRow{
		{Tenant: "a", Status: "fresh", Amount: 100, CreatedAt: now},
		{Tenant: "a", Status: "fresh", Amount: 50, CreatedAt: now.AddDate(0, 0, -1)},
		{Tenant: "a", Status: "lost", Amount: 25, CreatedAt: now},
		{Tenant: "b", Status: "fresh", Amount: 999, CreatedAt: now},
	})

	agg := NewAggregator(db)
	ctx := context.Background()
	scope := Filter{"tenant": "a"}

	n, err := agg.Count(ctx, "sample_rows", scope)
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v", n, err)
	}

	sum, err := agg.Sum(ctx, "sample_rows", "amount", scope)
	if err != nil || sum != 175 {
		t.Errorf("Sum = %v, %v", sum, err)
	}

	by, err := agg.CountBy(ctx, "sample_rows", "status", scope)
	if err != nil || by["fresh"] != 2 || by["lost"] != 1 {
		t.Errorf("CountBy = %v, %v", by, err)
	}

	n, err = agg.Count(ctx, "sample_rows", Filter{"tenant": "a", "amount > ?": 30})
	if err != nil || n != 2 {
		t.Errorf("Count with condition = %d, %v", n, err)
	}
}
