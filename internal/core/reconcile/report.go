package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/shopspring/decimal"
)

// UnknownDate は日付を特定できないシフトをまとめるグループのキーです。
const UnknownDate = "Unknown"

// DefaultToleranceMinutes は差異を許容範囲外とみなす既定の閾値 (分) です。
const DefaultToleranceMinutes = 15

// ReportLine は週次比較レポートの 1 行です。
type ReportLine struct {
	ShiftID          string
	StaffID          string
	StaffName        string
	DayOfWeek        string
	ScheduledStart   time.Time
	ScheduledEnd     time.Time
	ActualStart      *time.Time
	ActualEnd        *time.Time
	Status           Status
	VarianceMinutes  *int64
	ScheduledMinutes int64
	ActualMinutes    int64
	Published        bool
	OutOfTolerance   bool
}

// DayGroup は 1 日分の行と日次合計です。
type DayGroup struct {
	// Date は YYYY-MM-DD または UnknownDate です。
	Date            string
	Lines           []ReportLine
	VarianceMinutes int64
	Sales           decimal.Decimal
}

// WeeklyComparisonReport は予定と実績の週次比較です。
type WeeklyComparisonReport struct {
	StoreID               string
	WeekIdentifier        string
	WeekStart             time.Time
	Days                  []DayGroup
	TotalScheduledMinutes int64
	TotalActualMinutes    int64
	// TotalVarianceMinutes は TotalActualMinutes - TotalScheduledMinutes です。
	TotalVarianceMinutes int64
	MatchedCount         int
	UnmatchedCount       int
}

// BuildInput は BuildReport の入力です。
type BuildInput struct {
	StoreID    string
	WeekStart  time.Time
	Results    []ComparisonResult
	StaffNames map[string]string
	// DailySales は日付 (YYYY-MM-DD) ごとの売上です。
	DailySales       map[string]decimal.Decimal
	Location         *time.Location
	// ToleranceMinutes が nil の場合は DefaultToleranceMinutes です。0 は差異を一切許容しません。
	ToleranceMinutes *int64
}

// BuildReport は照合結果を日付の降順にグループ化し、合計を計算します。
// 日付を特定できない結果は UnknownDate グループに入れ、最後に並べます。
func BuildReport(in BuildInput) *WeeklyComparisonReport {
	loc := in.Location
	if loc == nil {
		loc = in.WeekStart.Location()
	}
	tolerance := int64(DefaultToleranceMinutes)
	if in.ToleranceMinutes != nil && *in.ToleranceMinutes >= 0 {
		tolerance = *in.ToleranceMinutes
	}

	report := &WeeklyComparisonReport{
		StoreID:        in.StoreID,
		WeekIdentifier: calendar.WeekIdentifier(in.WeekStart),
		WeekStart:      in.WeekStart,
	}

	groups := make(map[string]*DayGroup)
	for _, r := range in.Results {
		if r.Shift == nil {
			continue
		}
		line := newLine(r, in.StaffNames, loc, tolerance)

		date := UnknownDate
		if !r.Shift.Malformed() {
			date = calendar.FormatDate(r.Shift.StartTime.In(loc))
		}
		g, ok := groups[date]
		if !ok {
			g = &DayGroup{Date: date, Sales: decimal.Zero}
			if date != UnknownDate {
				if sales, found := in.DailySales[date]; found {
					g.Sales = sales
				}
			}
			groups[date] = g
		}
		g.Lines = append(g.Lines, line)

		report.TotalScheduledMinutes += line.ScheduledMinutes
		if r.Matched() {
			report.MatchedCount++
			report.TotalActualMinutes += line.ActualMinutes
			g.VarianceMinutes += *line.VarianceMinutes
		} else {
			report.UnmatchedCount++
		}
	}
	report.TotalVarianceMinutes = report.TotalActualMinutes - report.TotalScheduledMinutes

	report.Days = make([]DayGroup, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g.Lines, func(i, j int) bool {
			a, b := g.Lines[i], g.Lines[j]
			if !a.ScheduledStart.Equal(b.ScheduledStart) {
				return a.ScheduledStart.Before(b.ScheduledStart)
			}
			return a.StaffName < b.StaffName
		})
		report.Days = append(report.Days, *g)
	}
	sort.Slice(report.Days, func(i, j int) bool {
		a, b := report.Days[i].Date, report.Days[j].Date
		if a == UnknownDate || b == UnknownDate {
			return b == UnknownDate && a != UnknownDate
		}
		return a > b
	})
	return report
}

func newLine(r ComparisonResult, names map[string]string, loc *time.Location, tolerance int64) ReportLine {
	shift := r.Shift
	line := ReportLine{
		ShiftID:          shift.ID,
		StaffID:          shift.StaffID,
		StaffName:        staffName(names, shift.StaffID),
		ScheduledStart:   shift.StartTime,
		ScheduledEnd:     shift.EndTime,
		Status:           r.Status,
		ScheduledMinutes: minutes(shift.Duration()),
		Published:        shift.Published,
	}
	if !shift.Malformed() {
		line.DayOfWeek = strings.ToUpper(shift.StartTime.In(loc).Weekday().String())
	}

	if r.Matched() {
		start, end := r.ClockEvent.StartTime, *r.ClockEvent.EndTime
		line.ActualStart = &start
		line.ActualEnd = &end
		line.ActualMinutes = minutes(end.Sub(start))
		variance := *r.VarianceMinutes
		line.VarianceMinutes = &variance
		line.OutOfTolerance = variance > tolerance || variance < -tolerance
	}
	return line
}

func staffName(names map[string]string, staffID string) string {
	if name := strings.TrimSpace(names[staffID]); name != "" {
		return name
	}
	return staffID
}
