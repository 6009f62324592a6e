package analytics

import "time"

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// RangeForPeriod maps a period name to a window ending at now. Unknown
// names fall back to the last 30 days.
func RangeForPeriod(period string, now time.Time) DateRange {
	switch period {
	case "today":
		return DateRange{Start: startOfDay(now), End: endOfDay(now)}
	case "yesterday":
		y := now.AddDate(0, 0, -1)
		return DateRange{Start: startOfDay(y), End: endOfDay(y)}
	case "this_week":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday
		}
		return DateRange{Start: startOfDay(now.AddDate(0, 0, -weekday+1)), End: now}
	case "this_month":
		return DateRange{Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), End: now}
	case "last_month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: first.AddDate(0, -1, 0), End: first.Add(-time.Nanosecond)}
	case "last_7_days":
		return DateRange{Start: startOfDay(now.AddDate(0, 0, -6)), End: now}
	case "last_90_days":
		return DateRange{Start: startOfDay(now.AddDate(0, 0, -89)), End: now}
	case "this_year":
		return DateRange{Start: time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), End: now}
	default:
		return DateRange{Start: startOfDay(now.AddDate(0, 0, -29)), End: now}
	}
}

// Previous returns the window of equal length immediately before r
func (r DateRange) Previous() DateRange {
	length := r.End.Sub(r.Start)
	return DateRange{Start: r.Start.Add(-length - time.Nanosecond), End: r.Start.Add(-time.Nanosecond)}
}

// DailyBuckets returns one zero-valued point per day in r
func DailyBuckets(r DateRange) []Point {
	var points []Point
	for d := startOfDay(r.Start); !d.After(r.End); d = d.AddDate(0, 0, 1) {
		points = append(points, Point{Date: d.Format("2006-01-02")})
	}
	return points
}

// FillDaily places counts keyed by YYYY-MM-DD into the buckets for r
func FillDaily(r DateRange, counts map[string]int64) []Point {
	points := DailyBuckets(r)
	for i := range points {
		points[i].Value = counts[points[i].Date]
	}
	return points
}

// PercentChange is (cur-prev)/prev*100, or 0 when prev is 0
func PercentChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}
