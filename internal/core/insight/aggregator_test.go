package insight

import (
	"testing"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func sale(amount string, when time.Time, category string) *labor.SalesTransaction {
	return &labor.SalesTransaction{Amount: decimal.RequireFromString(amount), OccurredAt: when, Category: category}
}

func bucketAt(t *testing.T, buckets []HourlyBucket, weekday, hour int) HourlyBucket {
	t.Helper()
	for _, b := range buckets {
		if b.Weekday == weekday && b.Hour == hour {
			return b
		}
	}
	t.Fatalf("bucket %d/%d not found", weekday, hour)
	return HourlyBucket{}
}

func TestAggregate_RejectsNonMonday(t *testing.T) {
	t.Parallel()

	_, err := Aggregate(AggregateInput{WeekStart: monday.AddDate(0, 0, 1), Hours: HourRange{First: 6, Last: 14}})
	assert.ErrorIs(t, err, labor.ErrInvalidInput)
	assert.ErrorIs(t, err, labor.ErrWeekStartNotMonday)
}

func TestAggregate_RejectsInvalidHours(t *testing.T) {
	t.Parallel()

	_, err := Aggregate(AggregateInput{WeekStart: monday, Hours: HourRange{First: 14, Last: 6}})
	assert.ErrorIs(t, err, labor.ErrInvalidInput)
}

func TestAggregate_BucketLayout(t *testing.T) {
	t.Parallel()

	buckets, err := Aggregate(AggregateInput{WeekStart: monday, Hours: HourRange{First: 6, Last: 14}})
	require.NoError(t, err)

	require.Len(t, buckets, 7*9)
	assert.Equal(t, 0, buckets[0].Weekday)
	assert.Equal(t, 6, buckets[0].Hour)
	assert.Equal(t, "2026-02-23", buckets[0].Date)
	assert.Equal(t, 6, buckets[len(buckets)-1].Weekday)
	assert.Equal(t, 14, buckets[len(buckets)-1].Hour)
	assert.Equal(t, "2026-03-01", buckets[len(buckets)-1].Date)
	for _, b := range buckets {
		assert.True(t, b.NoData())
		assert.False(t, b.Underutilised)
	}
}

func TestAggregate_RevenueSumsOnlyReportableHours(t *testing.T) {
	t.Parallel()

	txs := []*labor.SalesTransaction{
		sale("10.50", at(0, 9, 15), "Coffee"),
		sale("4.50", at(0, 9, 59), "Coffee"),
		sale("20.00", at(2, 14, 30), "Food"),
		sale("99.00", at(3, 5, 59), "Food"),
		sale("77.00", at(4, 15, 0), "Food"),
		sale("33.00", at(7, 9, 0), "Food"),
	}

	buckets, err := Aggregate(AggregateInput{WeekStart: monday, Hours: HourRange{First: 6, Last: 14}, Transactions: txs})
	require.NoError(t, err)

	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.TotalRevenue)
	}
	assert.True(t, decimal.RequireFromString("35.00").Equal(total), "got %s", total)
	assert.True(t, decimal.RequireFromString("15.00").Equal(bucketAt(t, buckets, 0, 9).TotalRevenue))
	assert.True(t, decimal.RequireFromString("20.00").Equal(bucketAt(t, buckets, 2, 14).TotalRevenue))

	daily := DailyRevenue(buckets)
	assert.True(t, decimal.RequireFromString("15.00").Equal(daily["2026-02-23"]))
	assert.True(t, daily["2026-02-26"].IsZero())
}

func TestAggregate_StaffPresenceAndUnderutilisation(t *testing.T) {
	t.Parallel()

	end := at(0, 11, 0)
	shifts := []*labor.ScheduledShift{
		{ID: "s1", StaffID: "alex", StartTime: at(0, 9, 0), EndTime: at(0, 11, 0)},
		{ID: "s2", StaffID: "sam", StartTime: at(0, 10, 30), EndTime: at(0, 12, 0)},
		{ID: "broken", StaffID: "kim", StartTime: at(0, 9, 0)},
	}
	events := []*labor.ClockEvent{
		{ID: "e1", StaffID: "alex", StartTime: at(0, 9, 5), EndTime: &end},
		{ID: "e2", StaffID: "jo", StartTime: at(0, 8, 45), EndTime: ptr(at(0, 9, 0))},
	}
	txs := []*labor.SalesTransaction{sale("30.00", at(0, 10, 10), "Coffee")}

	buckets, err := Aggregate(AggregateInput{
		WeekStart:    monday,
		Hours:        HourRange{First: 6, Last: 14},
		Transactions: txs,
		Shifts:       shifts,
		ClockEvents:  events,
	})
	require.NoError(t, err)

	b8 := bucketAt(t, buckets, 0, 8)
	assert.Equal(t, 1, b8.ActiveStaffCount)
	assert.True(t, b8.Underutilised)

	b9 := bucketAt(t, buckets, 0, 9)
	assert.Equal(t, 1, b9.ActiveStaffCount, "jo clocked out exactly at 09:00")
	assert.True(t, b9.Underutilised)

	b10 := bucketAt(t, buckets, 0, 10)
	assert.Equal(t, 2, b10.ActiveStaffCount)
	assert.False(t, b10.Underutilised)
	assert.True(t, decimal.RequireFromString("15").Equal(b10.RevenuePerStaff))

	b11 := bucketAt(t, buckets, 0, 11)
	assert.Equal(t, 1, b11.ActiveStaffCount)

	b13 := bucketAt(t, buckets, 0, 13)
	assert.True(t, b13.NoData())
	assert.False(t, b13.Underutilised)
}

func TestAggregate_ThresholdPerStaffHour(t *testing.T) {
	t.Parallel()

	shifts := []*labor.ScheduledShift{
		{ID: "s1", StaffID: "alex", StartTime: at(1, 7, 0), EndTime: at(1, 9, 0)},
		{ID: "s2", StaffID: "sam", StartTime: at(1, 7, 0), EndTime: at(1, 9, 0)},
	}
	txs := []*labor.SalesTransaction{
		sale("90.00", at(1, 7, 20), "Coffee"),
		sale("110.00", at(1, 8, 20), "Coffee"),
	}

	buckets, err := Aggregate(AggregateInput{
		WeekStart:    monday,
		Hours:        HourRange{First: 6, Last: 14},
		Transactions: txs,
		Shifts:       shifts,
		Threshold:    decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	assert.True(t, bucketAt(t, buckets, 1, 7).Underutilised, "45 per staff is below 50")
	assert.False(t, bucketAt(t, buckets, 1, 8).Underutilised, "55 per staff meets 50")
}

func TestAggregate_OpenClockEventCountsUntilNow(t *testing.T) {
	t.Parallel()

	events := []*labor.ClockEvent{
		{ID: "stale", StaffID: "alex", StartTime: at(0, 6, 0)},
		{ID: "open", StaffID: "alex", StartTime: at(2, 6, 0)},
	}

	buckets, err := Aggregate(AggregateInput{
		WeekStart:   monday,
		Hours:       HourRange{First: 6, Last: 14},
		ClockEvents: events,
		Now:         at(2, 8, 30),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, bucketAt(t, buckets, 0, 6).ActiveStaffCount, "older open event is ignored")
	assert.Equal(t, 1, bucketAt(t, buckets, 2, 8).ActiveStaffCount)
	assert.Equal(t, 0, bucketAt(t, buckets, 2, 9).ActiveStaffCount)
}

func ptr(t time.Time) *time.Time {
	return &t
}
