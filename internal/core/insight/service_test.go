package insight

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/shopspring/decimal"
)

const (
	testStoreID = "3f0b7f0e-8a0f-4b8f-9a53-6b2a2a3c1d01"
	alexID      = "a1e4a3c0-0000-4000-8000-000000000001"
	morganID    = "a1e4a3c0-0000-4000-8000-000000000002"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakeSources struct {
	mu sync.Mutex

	store    *labor.Store
	staff    []*labor.Staff
	shifts   []*labor.ScheduledShift
	events   []*labor.ClockEvent
	sales    []*labor.SalesTransaction
	mappings []*labor.ContributionMapping

	salesErr      error
	salesFailures int
	salesCalls    int
	windows    []calendar.Window
}

func (f *fakeSources) FindByID(_ context.Context, id string) (*labor.Store, error) {
	if f.store == nil || f.store.ID != id {
		return nil, labor.ErrStoreNotFound
	}
	return f.store, nil
}

func (f *fakeSources) ListByStore(_ context.Context, _ string) ([]*labor.Staff, error) {
	return f.staff, nil
}

func (f *fakeSources) ShiftsForStaff(_ context.Context, staffID string, window calendar.Window) ([]*labor.ScheduledShift, error) {
	var out []*labor.ScheduledShift
	for _, s := range f.shifts {
		if s.StaffID == staffID && window.Contains(s.StartTime) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSources) ShiftsForStore(_ context.Context, _ string, window calendar.Window) ([]*labor.ScheduledShift, error) {
	f.mu.Lock()
	f.windows = append(f.windows, window)
	f.mu.Unlock()
	return f.shifts, nil
}

func (f *fakeSources) ClockEventsForStaff(_ context.Context, staffID string, _ calendar.Window) ([]*labor.ClockEvent, error) {
	var out []*labor.ClockEvent
	for _, e := range f.events {
		if e.StaffID == staffID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSources) ClockEventsForStore(_ context.Context, _ string, _ calendar.Window) ([]*labor.ClockEvent, error) {
	return f.events, nil
}

func (f *fakeSources) TransactionsForStore(_ context.Context, _ string, _ calendar.Window) ([]*labor.SalesTransaction, error) {
	f.mu.Lock()
	f.salesCalls++
	failing := f.salesFailures > 0
	if failing {
		f.salesFailures--
	}
	f.mu.Unlock()
	if failing {
		return nil, errors.New("connection reset")
	}
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	return f.sales, nil
}

func (f *fakeSources) ActiveMappings(_ context.Context, _ string) ([]*labor.ContributionMapping, error) {
	return f.mappings, nil
}

func (f *fakeSources) sources() labor.Sources {
	return labor.Sources{Stores: f, Staff: f, Shifts: f, ClockEvents: f, Sales: f, Contributions: f}
}

type recordingTx struct {
	calls int
}

func (r *recordingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	r.calls++
	return fn(ctx)
}

func newFixture() *fakeSources {
	alexOut := at(0, 17, 0)
	morganOut := at(0, 13, 0)
	return &fakeSources{
		store: &labor.Store{ID: testStoreID, Name: "Harbour St"},
		staff: []*labor.Staff{
			{ID: alexID, StoreID: testStoreID, Name: "Alex", JobTitle: "Barista"},
			{ID: morganID, StoreID: testStoreID, Name: "Morgan", JobTitle: "Manager"},
		},
		shifts: []*labor.ScheduledShift{
			{ID: "s1", StaffID: alexID, StartTime: at(0, 9, 0), EndTime: at(0, 17, 0), Published: true},
			{ID: "s2", StaffID: morganID, StartTime: at(0, 9, 0), EndTime: at(0, 13, 0), Published: true},
		},
		events: []*labor.ClockEvent{
			{ID: "e1", StaffID: alexID, StartTime: at(0, 9, 0), EndTime: &alexOut},
			{ID: "e2", StaffID: morganID, StartTime: at(0, 9, 0), EndTime: &morganOut},
		},
		sales: []*labor.SalesTransaction{
			sale("600", at(0, 9, 30), "Coffee"),
			sale("400", at(0, 16, 30), "Coffee"),
			sale("50", at(2, 20, 0), "Food"),
		},
		mappings: []*labor.ContributionMapping{
			mapping("m1", "Barista", "Coffee", "70"),
			mapping("m2", "Manager", "Coffee", "30"),
		},
	}
}

func newTestService(f *fakeSources, tx TransactionManager) *Service {
	settings := Settings{Location: time.UTC, Hours: HourRange{First: 6, Last: 14}, Policy: PolicyHoursWeighted}
	upstream := labor.NewUpstream(1, time.Millisecond, discardLogger())
	return NewService(f.sources(), settings, upstream, stubClock{now: at(7, 0, 0)}, tx, discardLogger())
}

func TestService_WeeklyInsights_Success(t *testing.T) {
	t.Parallel()

	f := newFixture()
	svc := newTestService(f, nil)

	report, err := svc.WeeklyInsights(context.Background(), testStoreID, monday)
	if err != nil {
		t.Fatalf("WeeklyInsights returned error: %v", err)
	}

	if report.WeekIdentifier != "2026-W09" {
		t.Errorf("unexpected week identifier %s", report.WeekIdentifier)
	}
	if !report.TotalRevenue.Equal(decimal.NewFromInt(1050)) {
		t.Errorf("expected total revenue 1050, got %s", report.TotalRevenue)
	}
	if !report.RevenueByDay["MONDAY"].Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected monday revenue 1000, got %s", report.RevenueByDay["MONDAY"])
	}
	if !report.RevenueByJobTitle["Barista"].Equal(decimal.NewFromInt(700)) {
		t.Errorf("expected barista 700, got %s", report.RevenueByJobTitle["Barista"])
	}
	if !report.RevenueByStaffName["Morgan"].Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected morgan 300, got %s", report.RevenueByStaffName["Morgan"])
	}
	if len(report.HourlyBuckets) != 7*9 {
		t.Fatalf("expected 63 buckets, got %d", len(report.HourlyBuckets))
	}

	bucketSum := decimal.Zero
	for _, b := range report.HourlyBuckets {
		bucketSum = bucketSum.Add(b.TotalRevenue)
	}
	if !bucketSum.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected in-hours revenue 600, got %s", bucketSum)
	}
	if report.OpeningTime != "06:00" || report.ClosingTime != "15:00" {
		t.Errorf("unexpected trading hours %s-%s", report.OpeningTime, report.ClosingTime)
	}
	if len(f.windows) != 1 || !f.windows[0].Start.Equal(monday) || !f.windows[0].End.Equal(monday.AddDate(0, 0, 7)) {
		t.Errorf("unexpected retrieval window %+v", f.windows)
	}
}

func TestService_WeeklyInsights_StoreThresholdOverride(t *testing.T) {
	t.Parallel()

	f := newFixture()
	threshold := decimal.NewFromInt(1000)
	f.store.RevenuePerLabourHourThreshold = &threshold
	svc := newTestService(f, nil)

	report, err := svc.WeeklyInsights(context.Background(), testStoreID, monday)
	if err != nil {
		t.Fatalf("WeeklyInsights returned error: %v", err)
	}

	for _, b := range report.HourlyBuckets {
		if b.Weekday == 0 && b.Hour == 9 && !b.Underutilised {
			t.Fatalf("expected 09:00 bucket to be underutilised against store threshold, got %+v", b)
		}
	}
}

func TestService_WeeklyInsights_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFixture(), nil)

	if _, err := svc.WeeklyInsights(context.Background(), testStoreID, monday.AddDate(0, 0, 2)); !errors.Is(err, labor.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-monday, got %v", err)
	}
	if _, err := svc.WeeklyInsights(context.Background(), "-1", monday); !errors.Is(err, labor.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad store id, got %v", err)
	}
}

func TestService_WeeklyInsights_UnknownStore(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFixture(), nil)

	_, err := svc.WeeklyInsights(context.Background(), "7c9e6679-7425-40de-944b-e07fc1f90ae7", monday)
	if !errors.Is(err, labor.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_WeeklyInsights_UpstreamFailureYieldsNoReport(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.salesErr = errors.New("pos timeout")
	svc := newTestService(f, nil)

	report, err := svc.WeeklyInsights(context.Background(), testStoreID, monday)
	if !errors.Is(err, labor.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if report != nil {
		t.Fatalf("expected no partial report, got %+v", report)
	}
	if f.salesCalls != 2 {
		t.Fatalf("expected one retry, got %d calls", f.salesCalls)
	}
}

func TestService_WeeklyInsights_CancelledContext(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFixture(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.WeeklyInsights(ctx, testStoreID, monday); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestService_ContributionBreakdown(t *testing.T) {
	t.Parallel()

	f := newFixture()
	tx := &recordingTx{}
	svc := newTestService(f, tx)

	result, err := svc.ContributionBreakdown(context.Background(), testStoreID, calendar.Window{Start: monday, End: monday.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("ContributionBreakdown returned error: %v", err)
	}

	if tx.calls != 1 {
		t.Errorf("expected read-only transaction, got %d calls", tx.calls)
	}
	if result.Policy != PolicyHoursWeighted {
		t.Errorf("unexpected policy %s", result.Policy)
	}
	if !result.RevenueByJobTitle["Barista"].Equal(decimal.NewFromInt(700)) {
		t.Errorf("expected barista 700, got %s", result.RevenueByJobTitle["Barista"])
	}
	if !result.RevenueByStaffName["Alex"].Equal(decimal.NewFromInt(700)) {
		t.Errorf("expected alex 700, got %s", result.RevenueByStaffName["Alex"])
	}
}

func TestService_ContributionBreakdown_InvalidPeriod(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFixture(), nil)

	_, err := svc.ContributionBreakdown(context.Background(), testStoreID, calendar.Window{Start: monday, End: monday})
	if !errors.Is(err, labor.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestService_WeeklyInsights_IgnoresTransactionsOutsideWeek(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.sales = append(f.sales, sale("999", at(7, 9, 0), "Coffee"), sale("1", at(-1, 23, 0), "Food"))
	svc := newTestService(f, nil)

	report, err := svc.WeeklyInsights(context.Background(), testStoreID, monday)
	if err != nil {
		t.Fatalf("WeeklyInsights returned error: %v", err)
	}

	if !report.RevenueByCategory["Coffee"].Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected coffee 1000, got %s", report.RevenueByCategory["Coffee"])
	}
	if !report.RevenueByCategory["Food"].Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected food 50, got %s", report.RevenueByCategory["Food"])
	}
	if !report.TotalRevenue.Equal(decimal.NewFromInt(1050)) {
		t.Errorf("expected total revenue 1050, got %s", report.TotalRevenue)
	}
	if !report.RevenueByJobTitle["Barista"].Equal(decimal.NewFromInt(700)) {
		t.Errorf("expected barista 700, got %s", report.RevenueByJobTitle["Barista"])
	}
}

func TestService_ContributionBreakdown_RetriesWholeSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.salesFailures = 1
	tx := &recordingTx{}
	svc := newTestService(f, tx)

	result, err := svc.ContributionBreakdown(context.Background(), testStoreID, calendar.Window{Start: monday, End: monday.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("ContributionBreakdown returned error: %v", err)
	}

	if tx.calls != 2 {
		t.Errorf("expected a fresh transaction for the retry, got %d transactions", tx.calls)
	}
	if f.salesCalls != 2 {
		t.Errorf("expected one sales read per transaction, got %d", f.salesCalls)
	}
	if !result.RevenueByJobTitle["Barista"].Equal(decimal.NewFromInt(700)) {
		t.Errorf("expected barista 700, got %s", result.RevenueByJobTitle["Barista"])
	}
}

func TestService_ContributionBreakdown_UpstreamFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.salesErr = errors.New("pos timeout")
	tx := &recordingTx{}
	svc := newTestService(f, tx)

	result, err := svc.ContributionBreakdown(context.Background(), testStoreID, calendar.Window{Start: monday, End: monday.AddDate(0, 0, 1)})
	if !errors.Is(err, labor.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected no partial result, got %+v", result)
	}
	if tx.calls != 2 || f.salesCalls != 2 {
		t.Fatalf("expected one sales read in each of 2 transactions, got %d reads in %d transactions", f.salesCalls, tx.calls)
	}
}
