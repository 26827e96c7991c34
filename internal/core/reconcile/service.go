package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/insight"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"golang.org/x/sync/errgroup"
)

// Settings は照合レポートの設定です。
type Settings struct {
	Location         *time.Location
	Hours            insight.HourRange
	// ToleranceMinutes が nil の場合は DefaultToleranceMinutes を使います。
	ToleranceMinutes *int64
}

// UseCase はシフト照合の公開インターフェースです。
type UseCase interface {
	ReconcileWeek(ctx context.Context, storeID string, weekStart time.Time) (*WeeklyComparisonReport, error)
	ReconcileStaff(ctx context.Context, staffID string, window calendar.Window) ([]ComparisonResult, error)
}

// Service は予定シフトと出退勤記録を照合してレポートを組み立てます。
type Service struct {
	sources    labor.Sources
	settings   Settings
	reconciler Reconciler
	upstream   *labor.Upstream
	logger     *slog.Logger
}

// NewService は Service を生成します。reconciler が nil の場合は NearestStartPolicy の Matcher を使います。
func NewService(sources labor.Sources, settings Settings, reconciler Reconciler, upstream *labor.Upstream, logger *slog.Logger) *Service {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	if reconciler == nil {
		reconciler = NewMatcher(NearestStartPolicy{}, settings.Location)
	}
	if upstream == nil {
		upstream = labor.NewUpstream(1, 0, logger)
	}
	return &Service{
		sources:    sources,
		settings:   settings,
		reconciler: reconciler,
		upstream:   upstream,
		logger:     logger,
	}
}

// ReconcileWeek は店舗の 1 週間分のシフトを照合し、日付ごとの比較レポートを返します。
func (s *Service) ReconcileWeek(ctx context.Context, storeID string, weekStart time.Time) (*WeeklyComparisonReport, error) {
	id, err := labor.NormalizeStoreID(storeID)
	if err != nil {
		return nil, err
	}

	monday := calendar.DateIn(weekStart, s.settings.Location)
	if !calendar.IsMonday(monday) {
		return nil, fmt.Errorf("%s: %w", calendar.FormatDate(monday), labor.ErrWeekStartNotMonday)
	}

	if _, err := labor.Fetch(ctx, s.upstream, "stores", func(ctx context.Context) (*labor.Store, error) {
		return s.sources.Stores.FindByID(ctx, id)
	}); err != nil {
		return nil, err
	}

	week := calendar.WeekWindow(monday)
	var (
		staff  []*labor.Staff
		shifts []*labor.ScheduledShift
		events []*labor.ClockEvent
		sales  []*labor.SalesTransaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		staff, err = labor.Fetch(gctx, s.upstream, "staff", func(ctx context.Context) ([]*labor.Staff, error) {
			return s.sources.Staff.ListByStore(ctx, id)
		})
		return err
	})
	g.Go(func() (err error) {
		shifts, err = labor.Fetch(gctx, s.upstream, "scheduled_shifts", func(ctx context.Context) ([]*labor.ScheduledShift, error) {
			return s.sources.Shifts.ShiftsForStore(ctx, id, week)
		})
		return err
	})
	g.Go(func() (err error) {
		events, err = labor.Fetch(gctx, s.upstream, "clock_events", func(ctx context.Context) ([]*labor.ClockEvent, error) {
			return s.sources.ClockEvents.ClockEventsForStore(ctx, id, week)
		})
		return err
	})
	g.Go(func() (err error) {
		sales, err = labor.Fetch(gctx, s.upstream, "sales_transactions", func(ctx context.Context) ([]*labor.SalesTransaction, error) {
			return s.sources.Sales.TransactionsForStore(ctx, id, week)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.warnMultipleOpenEvents(ctx, events)

	buckets, err := insight.Aggregate(insight.AggregateInput{
		WeekStart:    monday,
		Hours:        s.settings.Hours,
		Transactions: sales,
	})
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(staff))
	for _, st := range staff {
		if st != nil {
			names[st.ID] = st.Name
		}
	}

	return BuildReport(BuildInput{
		StoreID:          id,
		WeekStart:        monday,
		Results:          s.reconciler.Reconcile(shifts, events),
		StaffNames:       names,
		DailySales:       insight.DailyRevenue(buckets),
		Location:         s.settings.Location,
		ToleranceMinutes: s.settings.ToleranceMinutes,
	}), nil
}

// ReconcileStaff は 1 人のスタッフについて、開始時刻が window に含まれる予定シフトを照合します。
func (s *Service) ReconcileStaff(ctx context.Context, staffID string, window calendar.Window) ([]ComparisonResult, error) {
	id, err := labor.NormalizeStaffID(staffID)
	if err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", labor.ErrInvalidPeriod, err)
	}

	var (
		shifts []*labor.ScheduledShift
		events []*labor.ClockEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		shifts, err = labor.Fetch(gctx, s.upstream, "scheduled_shifts", func(ctx context.Context) ([]*labor.ScheduledShift, error) {
			return s.sources.Shifts.ShiftsForStaff(ctx, id, window)
		})
		return err
	})
	g.Go(func() (err error) {
		events, err = labor.Fetch(gctx, s.upstream, "clock_events", func(ctx context.Context) ([]*labor.ClockEvent, error) {
			return s.sources.ClockEvents.ClockEventsForStaff(ctx, id, window)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inWindow := make([]*labor.ScheduledShift, 0, len(shifts))
	for _, shift := range shifts {
		if shift == nil {
			continue
		}
		if !shift.StartTime.IsZero() && !window.Contains(shift.StartTime) {
			continue
		}
		inWindow = append(inWindow, shift)
	}

	s.warnMultipleOpenEvents(ctx, events)
	return s.reconciler.Reconcile(inWindow, events), nil
}

func (s *Service) warnMultipleOpenEvents(ctx context.Context, events []*labor.ClockEvent) {
	_, stale := labor.LatestOpenEvents(events)
	for _, e := range stale {
		s.logger.WarnContext(ctx, "multiple open clock events for staff",
			slog.String("staff_id", e.StaffID),
			slog.String("clock_event_id", e.ID),
			slog.Time("start_time", e.StartTime),
		)
	}
}
