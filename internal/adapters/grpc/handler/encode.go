package handler

import (
	"sort"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/insight"
	"github.com/ogurasousui/codex-labor-insights/internal/core/reconcile"
	"github.com/shopspring/decimal"
)

// レスポンスは structpb に変換できる map で組み立てます。
// 金額は丸め誤差を避けるため小数 2 桁の文字列、日時は店舗現地時刻の RFC3339 です。

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyMap(m map[string]decimal.Decimal) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = money(v)
	}
	return out
}

func timestamp(t time.Time, loc *time.Location) any {
	if t.IsZero() {
		return nil
	}
	return t.In(loc).Format(time.RFC3339)
}

func optionalTimestamp(t *time.Time, loc *time.Location) any {
	if t == nil {
		return nil
	}
	return timestamp(*t, loc)
}

// ComparisonReportToMap は WeeklyComparisonReport をレスポンス用の map に変換します。
func ComparisonReportToMap(r *reconcile.WeeklyComparisonReport, loc *time.Location) map[string]any {
	days := make([]any, 0, len(r.Days))
	for _, d := range r.Days {
		lines := make([]any, 0, len(d.Lines))
		for _, l := range d.Lines {
			var variance any
			if l.VarianceMinutes != nil {
				variance = float64(*l.VarianceMinutes)
			}
			lines = append(lines, map[string]any{
				"shift_id":          l.ShiftID,
				"staff_id":          l.StaffID,
				"staff_name":        l.StaffName,
				"day_of_week":       l.DayOfWeek,
				"scheduled_start":   timestamp(l.ScheduledStart, loc),
				"scheduled_end":     timestamp(l.ScheduledEnd, loc),
				"actual_start":      optionalTimestamp(l.ActualStart, loc),
				"actual_end":        optionalTimestamp(l.ActualEnd, loc),
				"status":            string(l.Status),
				"variance_minutes":  variance,
				"scheduled_minutes": float64(l.ScheduledMinutes),
				"actual_minutes":    float64(l.ActualMinutes),
				"published":         l.Published,
				"out_of_tolerance":  l.OutOfTolerance,
			})
		}
		days = append(days, map[string]any{
			"date":             d.Date,
			"lines":            lines,
			"variance_minutes": float64(d.VarianceMinutes),
			"sales":            money(d.Sales),
		})
	}

	return map[string]any{
		"store_id":                r.StoreID,
		"week_identifier":         r.WeekIdentifier,
		"week_start":              calendar.FormatDate(r.WeekStart),
		"days":                    days,
		"total_scheduled_minutes": float64(r.TotalScheduledMinutes),
		"total_actual_minutes":    float64(r.TotalActualMinutes),
		"total_variance_minutes":  float64(r.TotalVarianceMinutes),
		"matched_count":           float64(r.MatchedCount),
		"unmatched_count":         float64(r.UnmatchedCount),
	}
}

// InsightReportToMap は WeeklyInsightReport をレスポンス用の map に変換します。
func InsightReportToMap(r *insight.WeeklyInsightReport, loc *time.Location) map[string]any {
	buckets := make([]any, 0, len(r.HourlyBuckets))
	for _, b := range r.HourlyBuckets {
		buckets = append(buckets, map[string]any{
			"weekday":            float64(b.Weekday),
			"hour":               float64(b.Hour),
			"date":               b.Date,
			"start":              timestamp(b.Start, loc),
			"total_revenue":      money(b.TotalRevenue),
			"active_staff_count": float64(b.ActiveStaffCount),
			"revenue_per_staff":  money(b.RevenuePerStaff),
			"underutilised":      b.Underutilised,
			"no_data":            b.NoData(),
		})
	}

	return map[string]any{
		"store_id":              r.StoreID,
		"week_identifier":       r.WeekIdentifier,
		"week_start":            calendar.FormatDate(r.WeekStart),
		"opening_time":          r.OpeningTime,
		"closing_time":          r.ClosingTime,
		"total_revenue":         money(r.TotalRevenue),
		"revenue_by_category":   moneyMap(r.RevenueByCategory),
		"revenue_by_day":        moneyMap(r.RevenueByDay),
		"revenue_by_job_title":  moneyMap(r.RevenueByJobTitle),
		"revenue_by_staff_name": moneyMap(r.RevenueByStaffName),
		"hourly_buckets":        buckets,
		"issues":                issuesToList(r.Issues),
	}
}

// BreakdownToMap は ContributionBreakdown をレスポンス用の map に変換します。
func BreakdownToMap(b *insight.ContributionBreakdown, loc *time.Location) map[string]any {
	return map[string]any{
		"store_id":              b.StoreID,
		"from":                  timestamp(b.Period.Start, loc),
		"to":                    timestamp(b.Period.End, loc),
		"policy":                string(b.Policy),
		"revenue_by_category":   moneyMap(b.RevenueByCategory),
		"revenue_by_job_title":  moneyMap(b.RevenueByJobTitle),
		"revenue_by_staff_name": moneyMap(b.RevenueByStaffName),
		"issues":                issuesToList(b.Issues),
	}
}

func issuesToList(issues []insight.DataIssue) []any {
	sorted := append([]insight.DataIssue(nil), issues...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RecordID < sorted[j].RecordID })

	out := make([]any, 0, len(sorted))
	for _, issue := range sorted {
		out = append(out, map[string]any{
			"record_id": issue.RecordID,
			"job_title": issue.JobTitle,
			"category":  issue.Category,
			"reason":    issue.Reason,
		})
	}
	return out
}
