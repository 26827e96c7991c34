package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/insight"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/ogurasousui/codex-labor-insights/internal/core/reconcile"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const storeID = "3f0b7f0e-8a0f-4b8f-9a53-6b2a2a3c1d01"

var monday = time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)

type stubReconcileUseCase struct {
	storeID   string
	weekStart time.Time
	out       *reconcile.WeeklyComparisonReport
	err       error
}

func (s *stubReconcileUseCase) ReconcileWeek(ctx context.Context, storeID string, weekStart time.Time) (*reconcile.WeeklyComparisonReport, error) {
	s.storeID = storeID
	s.weekStart = weekStart
	return s.out, s.err
}

func (s *stubReconcileUseCase) ReconcileStaff(ctx context.Context, staffID string, window calendar.Window) ([]reconcile.ComparisonResult, error) {
	return nil, errors.New("not used")
}

type stubInsightUseCase struct {
	storeID   string
	weekStart time.Time
	period    calendar.Window

	weeklyOut    *insight.WeeklyInsightReport
	breakdownOut *insight.ContributionBreakdown
	err          error
}

func (s *stubInsightUseCase) WeeklyInsights(ctx context.Context, storeID string, weekStart time.Time) (*insight.WeeklyInsightReport, error) {
	s.storeID = storeID
	s.weekStart = weekStart
	return s.weeklyOut, s.err
}

func (s *stubInsightUseCase) ContributionBreakdown(ctx context.Context, storeID string, period calendar.Window) (*insight.ContributionBreakdown, error) {
	s.storeID = storeID
	s.period = period
	return s.breakdownOut, s.err
}

func newHandler(rec reconcile.UseCase, ins insight.UseCase) *LaborGrpcHandler {
	return NewLaborGrpcHandler(rec, ins, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return req
}

func TestLaborGrpcHandler_ReconcileWeek(t *testing.T) {
	t.Parallel()

	variance := int64(20)
	actualStart := monday.Add(9*time.Hour + 5*time.Minute)
	actualEnd := monday.Add(17*time.Hour + 20*time.Minute)
	stub := &stubReconcileUseCase{out: &reconcile.WeeklyComparisonReport{
		StoreID:        storeID,
		WeekIdentifier: "2026-W09",
		WeekStart:      monday,
		Days: []reconcile.DayGroup{{
			Date: "2026-02-23",
			Lines: []reconcile.ReportLine{{
				ShiftID:          "s1",
				StaffName:        "Alex",
				DayOfWeek:        "MONDAY",
				ScheduledStart:   monday.Add(9 * time.Hour),
				ScheduledEnd:     monday.Add(17 * time.Hour),
				ActualStart:      &actualStart,
				ActualEnd:        &actualEnd,
				Status:           reconcile.StatusMatched,
				VarianceMinutes:  &variance,
				ScheduledMinutes: 480,
				ActualMinutes:    495,
				Published:        true,
				OutOfTolerance:   true,
			}},
			VarianceMinutes: 20,
			Sales:           decimal.RequireFromString("42.5"),
		}},
		TotalScheduledMinutes: 480,
		TotalActualMinutes:    495,
		TotalVarianceMinutes:  15,
		MatchedCount:          1,
	}}

	h := newHandler(stub, &stubInsightUseCase{})
	resp, err := h.ReconcileWeek(context.Background(), request(t, map[string]any{"store_id": storeID, "week": "2026-W09"}))
	require.NoError(t, err)

	assert.Equal(t, storeID, stub.storeID)
	assert.True(t, monday.Equal(stub.weekStart))

	body := resp.AsMap()
	assert.Equal(t, "2026-W09", body["week_identifier"])
	assert.Equal(t, "2026-02-23", body["week_start"])
	assert.Equal(t, float64(15), body["total_variance_minutes"])

	days := body["days"].([]any)
	require.Len(t, days, 1)
	day := days[0].(map[string]any)
	assert.Equal(t, "42.50", day["sales"])

	line := day["lines"].([]any)[0].(map[string]any)
	assert.Equal(t, "MATCHED", line["status"])
	assert.Equal(t, float64(20), line["variance_minutes"])
	assert.Equal(t, "2026-02-23T09:05:00Z", line["actual_start"])
	assert.Equal(t, "2026-02-23T09:00:00Z", line["scheduled_start"])
}

func TestLaborGrpcHandler_ReconcileWeek_UnmatchedLineHasNullActuals(t *testing.T) {
	t.Parallel()

	stub := &stubReconcileUseCase{out: &reconcile.WeeklyComparisonReport{
		WeekStart: monday,
		Days: []reconcile.DayGroup{{
			Date:  "2026-02-23",
			Lines: []reconcile.ReportLine{{ShiftID: "s1", Status: reconcile.StatusUnmatched, ScheduledStart: monday}},
		}},
	}}

	h := newHandler(stub, &stubInsightUseCase{})
	resp, err := h.ReconcileWeek(context.Background(), request(t, map[string]any{"store_id": storeID, "week": "2026-02-23"}))
	require.NoError(t, err)

	line := resp.AsMap()["days"].([]any)[0].(map[string]any)["lines"].([]any)[0].(map[string]any)
	assert.Nil(t, line["actual_start"])
	assert.Nil(t, line["variance_minutes"])
	assert.Equal(t, "UNMATCHED", line["status"])
}

func TestLaborGrpcHandler_ReconcileWeek_InvalidWeek(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]any{
		"missing":    {"store_id": storeID},
		"malformed":  {"store_id": storeID, "week": "2026-W99"},
		"not monday": {"store_id": storeID, "week": "2026-02-25"},
	}

	for name, fields := range cases {
		name, fields := name, fields
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			stub := &stubReconcileUseCase{}
			h := newHandler(stub, &stubInsightUseCase{})

			_, err := h.ReconcileWeek(context.Background(), request(t, fields))
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
			assert.Empty(t, stub.storeID, "use case must not be called")
		})
	}
}

func TestLaborGrpcHandler_ReconcileWeek_NilRequest(t *testing.T) {
	t.Parallel()

	h := newHandler(&stubReconcileUseCase{}, &stubInsightUseCase{})
	_, err := h.ReconcileWeek(context.Background(), nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestLaborGrpcHandler_ErrorsMapToStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"not found", labor.ErrStoreNotFound, codes.NotFound},
		{"invalid", labor.ErrInvalidStoreID, codes.InvalidArgument},
		{"upstream", labor.ErrUpstreamUnavailable, codes.Unavailable},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"internal", errors.New("boom"), codes.Internal},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHandler(&stubReconcileUseCase{err: tc.err}, &stubInsightUseCase{err: tc.err})
			req := request(t, map[string]any{"store_id": storeID, "week": "2026-W09"})

			_, err := h.ReconcileWeek(context.Background(), req)
			assert.Equal(t, tc.code, status.Code(err))

			_, err = h.WeeklyInsights(context.Background(), req)
			assert.Equal(t, tc.code, status.Code(err))
		})
	}
}

func TestLaborGrpcHandler_WeeklyInsights(t *testing.T) {
	t.Parallel()

	stub := &stubInsightUseCase{weeklyOut: &insight.WeeklyInsightReport{
		StoreID:            storeID,
		WeekIdentifier:     "2026-W09",
		WeekStart:          monday,
		OpeningTime:        "06:00",
		ClosingTime:        "15:00",
		TotalRevenue:       decimal.RequireFromString("1085.5"),
		RevenueByCategory:  map[string]decimal.Decimal{"Coffee": decimal.RequireFromString("1000")},
		RevenueByDay:       map[string]decimal.Decimal{"MONDAY": decimal.RequireFromString("1085.5")},
		RevenueByJobTitle:  map[string]decimal.Decimal{"Barista": decimal.RequireFromString("700")},
		RevenueByStaffName: map[string]decimal.Decimal{"Alex": decimal.RequireFromString("700")},
		HourlyBuckets: []insight.HourlyBucket{{
			Weekday:          1,
			Hour:             9,
			Date:             "2026-02-23",
			Start:            monday.Add(9 * time.Hour),
			TotalRevenue:     decimal.RequireFromString("600"),
			ActiveStaffCount: 2,
			RevenuePerStaff:  decimal.RequireFromString("300"),
		}},
		Issues: []insight.DataIssue{{RecordID: "m9", JobTitle: "Chef", Category: "Food", Reason: "duplicate"}},
	}}

	h := newHandler(&stubReconcileUseCase{}, stub)
	resp, err := h.WeeklyInsights(context.Background(), request(t, map[string]any{"store_id": " " + storeID + " ", "week": "2026-W09"}))
	require.NoError(t, err)

	assert.Equal(t, storeID, stub.storeID)
	body := resp.AsMap()
	assert.Equal(t, "1085.50", body["total_revenue"])
	assert.Equal(t, "06:00", body["opening_time"])
	assert.Equal(t, "700.00", body["revenue_by_staff_name"].(map[string]any)["Alex"])

	bucket := body["hourly_buckets"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(9), bucket["hour"])
	assert.Equal(t, "300.00", bucket["revenue_per_staff"])
	assert.Equal(t, false, bucket["no_data"])

	issue := body["issues"].([]any)[0].(map[string]any)
	assert.Equal(t, "m9", issue["record_id"])
}

func TestLaborGrpcHandler_ContributionBreakdown(t *testing.T) {
	t.Parallel()

	stub := &stubInsightUseCase{breakdownOut: &insight.ContributionBreakdown{
		StoreID:            storeID,
		Period:             calendar.Window{Start: monday, End: monday.AddDate(0, 0, 7)},
		Policy:             insight.PolicyHoursWeighted,
		RevenueByJobTitle:  map[string]decimal.Decimal{"Barista": decimal.RequireFromString("700")},
		RevenueByStaffName: map[string]decimal.Decimal{"Alex": decimal.RequireFromString("700")},
	}}

	h := newHandler(&stubReconcileUseCase{}, stub)
	resp, err := h.ContributionBreakdown(context.Background(), request(t, map[string]any{
		"store_id": storeID,
		"from":     "2026-02-23",
		"to":       "2026-03-01",
	}))
	require.NoError(t, err)

	assert.True(t, monday.Equal(stub.period.Start))
	assert.True(t, monday.AddDate(0, 0, 7).Equal(stub.period.End), "to date is inclusive")

	body := resp.AsMap()
	assert.Equal(t, "hours_weighted", body["policy"])
	assert.Equal(t, "700.00", body["revenue_by_job_title"].(map[string]any)["Barista"])
}

func TestLaborGrpcHandler_ContributionBreakdown_InvalidPeriod(t *testing.T) {
	t.Parallel()

	stub := &stubInsightUseCase{}
	h := newHandler(&stubReconcileUseCase{}, stub)

	_, err := h.ContributionBreakdown(context.Background(), request(t, map[string]any{"store_id": storeID, "from": "yesterday", "to": "2026-03-01"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, stub.storeID)
}
