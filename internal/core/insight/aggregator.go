package insight

import (
	"fmt"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/shopspring/decimal"
)

// HourlyBucket は (曜日, 時) ごとの売上と稼働人数の集計です。
type HourlyBucket struct {
	// Weekday は月曜日を 0 とする曜日番号です。
	Weekday          int
	Hour             int
	Date             string
	Start            time.Time
	TotalRevenue     decimal.Decimal
	ActiveStaffCount int
	RevenuePerStaff  decimal.Decimal
	Underutilised    bool
}

// NoData は人員も売上もないスロットかどうかを返します。
func (b HourlyBucket) NoData() bool {
	return b.ActiveStaffCount == 0 && b.TotalRevenue.IsZero()
}

// AggregateInput は Aggregate の入力です。WeekStart のロケーションが店舗の現地時刻になります。
type AggregateInput struct {
	WeekStart    time.Time
	Hours        HourRange
	Transactions []*labor.SalesTransaction
	Shifts       []*labor.ScheduledShift
	ClockEvents  []*labor.ClockEvent
	// Threshold はスタッフ 1 人 1 時間あたりの最低売上です。0 の場合は売上ゼロのみを低稼働とみなします。
	Threshold decimal.Decimal
	// Now は未退勤記録の終了時刻として使います。
	Now time.Time
}

// Aggregate は対象週の 7 x N スロットを曜日、時の順で返します。
// 売上は発生時刻を含むスロットのみに計上し、シフトや出退勤は重なるすべてのスロットで人数に数えます。
func Aggregate(in AggregateInput) ([]HourlyBucket, error) {
	if !calendar.IsMonday(in.WeekStart) {
		return nil, fmt.Errorf("%s: %w", calendar.FormatDate(in.WeekStart), labor.ErrWeekStartNotMonday)
	}
	if err := in.Hours.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", labor.ErrInvalidInput, err)
	}

	loc := in.WeekStart.Location()
	week := calendar.WeekWindow(in.WeekStart)
	perDay := in.Hours.Len()

	buckets := make([]HourlyBucket, 0, calendar.DaysPerWeek*perDay)
	staffSets := make([]map[string]struct{}, 0, calendar.DaysPerWeek*perDay)
	for day, date := range week.Days() {
		for hour := in.Hours.First; hour <= in.Hours.Last; hour++ {
			y, m, d := date.Date()
			buckets = append(buckets, HourlyBucket{
				Weekday:      day,
				Hour:         hour,
				Date:         calendar.FormatDate(date),
				Start:        time.Date(y, m, d, hour, 0, 0, 0, loc),
				TotalRevenue: decimal.Zero,
			})
			staffSets = append(staffSets, make(map[string]struct{}))
		}
	}

	indexOf := func(t time.Time) (int, bool) {
		local := t.In(loc)
		if !week.Contains(local) || !in.Hours.Contains(local.Hour()) {
			return 0, false
		}
		return calendar.WeekdayIndex(local)*perDay + local.Hour() - in.Hours.First, true
	}

	for _, tx := range in.Transactions {
		if tx == nil || tx.OccurredAt.IsZero() {
			continue
		}
		if idx, ok := indexOf(tx.OccurredAt); ok {
			buckets[idx].TotalRevenue = buckets[idx].TotalRevenue.Add(tx.Amount)
		}
	}

	markPresence := func(staffID string, start, end time.Time) {
		if staffID == "" || !end.After(start) {
			return
		}
		for i := range buckets {
			slotStart := buckets[i].Start
			if start.Before(slotStart.Add(time.Hour)) && end.After(slotStart) {
				staffSets[i][staffID] = struct{}{}
			}
		}
	}

	for _, s := range in.Shifts {
		if s.Malformed() {
			continue
		}
		markPresence(s.StaffID, s.StartTime, s.EndTime)
	}

	events, _ := labor.LatestOpenEvents(in.ClockEvents)
	openUntil := week.End
	if !in.Now.IsZero() && in.Now.Before(openUntil) {
		openUntil = in.Now
	}
	for _, e := range events {
		switch {
		case e.Complete():
			markPresence(e.StaffID, e.StartTime, *e.EndTime)
		case e.Open() && !e.StartTime.IsZero():
			markPresence(e.StaffID, e.StartTime, openUntil)
		}
	}

	for i := range buckets {
		b := &buckets[i]
		b.ActiveStaffCount = len(staffSets[i])
		b.RevenuePerStaff = decimal.Zero
		if b.ActiveStaffCount == 0 {
			continue
		}
		b.RevenuePerStaff = b.TotalRevenue.DivRound(decimal.NewFromInt(int64(b.ActiveStaffCount)), 2)
		if in.Threshold.IsPositive() {
			b.Underutilised = b.RevenuePerStaff.LessThan(in.Threshold)
		} else {
			b.Underutilised = !b.TotalRevenue.IsPositive()
		}
	}

	return buckets, nil
}

// DailyRevenue はスロットの売上を日付ごとに合計します。
func DailyRevenue(buckets []HourlyBucket) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, b := range buckets {
		totals[b.Date] = totals[b.Date].Add(b.TotalRevenue)
	}
	return totals
}
