package insight

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// TransactionManager は読み取りの一貫性を確保するための抽象です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Settings はデプロイごとの集計設定です。
type Settings struct {
	Location  *time.Location
	Hours     HourRange
	Threshold decimal.Decimal
	Policy    Policy
}

// UseCase は売上インテリジェンスの公開インターフェースです。
type UseCase interface {
	WeeklyInsights(ctx context.Context, storeID string, weekStart time.Time) (*WeeklyInsightReport, error)
	ContributionBreakdown(ctx context.Context, storeID string, period calendar.Window) (*ContributionBreakdown, error)
}

// WeeklyInsightReport は週次の売上・人員インサイトです。リクエストごとに再計算され、保存されません。
type WeeklyInsightReport struct {
	StoreID            string
	WeekIdentifier     string
	WeekStart          time.Time
	OpeningTime        string
	ClosingTime        string
	TotalRevenue       decimal.Decimal
	RevenueByCategory  map[string]decimal.Decimal
	RevenueByDay       map[string]decimal.Decimal
	RevenueByJobTitle  map[string]decimal.Decimal
	RevenueByStaffName map[string]decimal.Decimal
	HourlyBuckets      []HourlyBucket
	Issues             []DataIssue
}

// ContributionBreakdown は任意期間の職種別・スタッフ別売上です。
type ContributionBreakdown struct {
	StoreID            string
	Period             calendar.Window
	Policy             Policy
	RevenueByCategory  map[string]decimal.Decimal
	RevenueByJobTitle  map[string]decimal.Decimal
	RevenueByStaffName map[string]decimal.Decimal
	Issues             []DataIssue
}

// Service は週次インサイトと貢献度配分のユースケースです。
type Service struct {
	sources  labor.Sources
	settings Settings
	engine   *Engine
	upstream *labor.Upstream
	clock    labor.Clock
	tx       TransactionManager
	logger   *slog.Logger
}

// NewService は Service を生成します。nil の依存は既定値に置き換えます。
func NewService(sources labor.Sources, settings Settings, upstream *labor.Upstream, clock labor.Clock, tx TransactionManager, logger *slog.Logger) *Service {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.Policy == "" {
		settings.Policy = PolicyHoursWeighted
	}
	if logger == nil {
		logger = slog.Default()
	}
	if upstream == nil {
		upstream = labor.NewUpstream(1, 0, logger)
	}
	if clock == nil {
		clock = labor.SystemClock()
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		sources:  sources,
		settings: settings,
		engine:   NewEngine(settings.Policy, logger),
		upstream: upstream,
		clock:    clock,
		tx:       tx,
		logger:   logger,
	}
}

// WeeklyInsights は weekStart (月曜日) からの 7 日間の売上、時間帯別スロット、職種・スタッフ別配分を返します。
func (s *Service) WeeklyInsights(ctx context.Context, storeID string, weekStart time.Time) (*WeeklyInsightReport, error) {
	id, err := labor.NormalizeStoreID(storeID)
	if err != nil {
		return nil, err
	}

	monday := calendar.DateIn(weekStart, s.settings.Location)
	if !calendar.IsMonday(monday) {
		return nil, fmt.Errorf("%s: %w", calendar.FormatDate(monday), labor.ErrWeekStartNotMonday)
	}

	store, err := labor.Fetch(ctx, s.upstream, "stores", func(ctx context.Context) (*labor.Store, error) {
		return s.sources.Stores.FindByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	week := calendar.WeekWindow(monday)
	data, err := s.fetchPeriod(ctx, id, week)
	if err != nil {
		return nil, err
	}

	// ソースが期間外の売上を返しても、全ての集計が同じ集合を見るように一度だけ絞り込みます。
	sales := transactionsIn(data.transactions, week)

	buckets, err := Aggregate(AggregateInput{
		WeekStart:    monday,
		Hours:        s.settings.Hours,
		Transactions: sales,
		Shifts:       data.shifts,
		ClockEvents:  data.events,
		Threshold:    s.threshold(store),
		Now:          s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	byCategory := RevenueByCategory(sales)
	attribution := s.engine.Attribute(ctx, AttributionInput{
		RevenueByCategory: byCategory,
		Mappings:          data.mappings,
		Staff:             s.activeStaff(data, week),
	})

	report := &WeeklyInsightReport{
		StoreID:            id,
		WeekIdentifier:     calendar.WeekIdentifier(monday),
		WeekStart:          monday,
		OpeningTime:        s.settings.Hours.Opening(),
		ClosingTime:        s.settings.Hours.Closing(),
		TotalRevenue:       decimal.Zero,
		RevenueByCategory:  byCategory,
		RevenueByDay:       make(map[string]decimal.Decimal, calendar.DaysPerWeek),
		RevenueByJobTitle:  attribution.RevenueByJobTitle,
		RevenueByStaffName: attribution.RevenueByStaffName,
		HourlyBuckets:      buckets,
		Issues:             attribution.Issues,
	}

	for _, day := range week.Days() {
		report.RevenueByDay[strings.ToUpper(day.Weekday().String())] = decimal.Zero
	}
	for _, tx := range sales {
		report.TotalRevenue = report.TotalRevenue.Add(tx.Amount)
		day := strings.ToUpper(tx.OccurredAt.In(s.settings.Location).Weekday().String())
		report.RevenueByDay[day] = report.RevenueByDay[day].Add(tx.Amount)
	}

	return report, nil
}

// ContributionBreakdown は period の職種別・スタッフ別売上を読み取り専用トランザクション内で計算します。
func (s *Service) ContributionBreakdown(ctx context.Context, storeID string, period calendar.Window) (*ContributionBreakdown, error) {
	id, err := labor.NormalizeStoreID(storeID)
	if err != nil {
		return nil, err
	}
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", labor.ErrInvalidPeriod, err)
	}

	// 失敗したトランザクションは以降のクエリを受け付けないため、再試行はトランザクション全体の単位で行います。
	var result *ContributionBreakdown
	if err := s.upstream.Call(ctx, "contribution_breakdown", func(ctx context.Context) error {
		return s.tx.WithinReadOnly(ctx, func(txCtx context.Context) (err error) {
			result, err = s.breakdownInSnapshot(txCtx, id, period)
			return err
		})
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) breakdownInSnapshot(ctx context.Context, id string, period calendar.Window) (*ContributionBreakdown, error) {
	if _, err := readOnce(ctx, "stores", func(ctx context.Context) (*labor.Store, error) {
		return s.sources.Stores.FindByID(ctx, id)
	}); err != nil {
		return nil, err
	}

	data, err := s.fetchPeriodSequential(ctx, id, period)
	if err != nil {
		return nil, err
	}

	byCategory := RevenueByCategory(transactionsIn(data.transactions, period))
	attribution := s.engine.Attribute(ctx, AttributionInput{
		RevenueByCategory: byCategory,
		Mappings:          data.mappings,
		Staff:             s.activeStaff(data, period),
	})

	return &ContributionBreakdown{
		StoreID:            id,
		Period:             period,
		Policy:             s.engine.Policy(),
		RevenueByCategory:  byCategory,
		RevenueByJobTitle:  attribution.RevenueByJobTitle,
		RevenueByStaffName: attribution.RevenueByStaffName,
		Issues:             attribution.Issues,
	}, nil
}

type periodData struct {
	staff        []*labor.Staff
	shifts       []*labor.ScheduledShift
	events       []*labor.ClockEvent
	transactions []*labor.SalesTransaction
	mappings     []*labor.ContributionMapping
}

// fetchPeriod は外部ソースを並行に読み取ります。いずれかが失敗した場合は部分結果を返しません。
func (s *Service) fetchPeriod(ctx context.Context, storeID string, window calendar.Window) (*periodData, error) {
	var data periodData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.staff, err = labor.Fetch(gctx, s.upstream, "staff", func(ctx context.Context) ([]*labor.Staff, error) {
			return s.sources.Staff.ListByStore(ctx, storeID)
		})
		return err
	})
	g.Go(func() (err error) {
		data.shifts, err = labor.Fetch(gctx, s.upstream, "scheduled_shifts", func(ctx context.Context) ([]*labor.ScheduledShift, error) {
			return s.sources.Shifts.ShiftsForStore(ctx, storeID, window)
		})
		return err
	})
	g.Go(func() (err error) {
		data.events, err = labor.Fetch(gctx, s.upstream, "clock_events", func(ctx context.Context) ([]*labor.ClockEvent, error) {
			return s.sources.ClockEvents.ClockEventsForStore(ctx, storeID, window)
		})
		return err
	})
	g.Go(func() (err error) {
		data.transactions, err = labor.Fetch(gctx, s.upstream, "sales_transactions", func(ctx context.Context) ([]*labor.SalesTransaction, error) {
			return s.sources.Sales.TransactionsForStore(ctx, storeID, window)
		})
		return err
	})
	g.Go(func() (err error) {
		data.mappings, err = labor.Fetch(gctx, s.upstream, "contribution_mappings", func(ctx context.Context) ([]*labor.ContributionMapping, error) {
			return s.sources.Contributions.ActiveMappings(ctx, storeID)
		})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.reportStaleOpenEvents(ctx, storeID, data.events)
	return &data, nil
}

// fetchPeriodSequential はトランザクション内で使うため、同一コネクション上で順に読み取ります。
// 各読み取りは再試行しません。
func (s *Service) fetchPeriodSequential(ctx context.Context, storeID string, window calendar.Window) (*periodData, error) {
	var (
		data periodData
		err  error
	)

	if data.mappings, err = readOnce(ctx, "contribution_mappings", func(ctx context.Context) ([]*labor.ContributionMapping, error) {
		return s.sources.Contributions.ActiveMappings(ctx, storeID)
	}); err != nil {
		return nil, err
	}
	if data.transactions, err = readOnce(ctx, "sales_transactions", func(ctx context.Context) ([]*labor.SalesTransaction, error) {
		return s.sources.Sales.TransactionsForStore(ctx, storeID, window)
	}); err != nil {
		return nil, err
	}
	if data.staff, err = readOnce(ctx, "staff", func(ctx context.Context) ([]*labor.Staff, error) {
		return s.sources.Staff.ListByStore(ctx, storeID)
	}); err != nil {
		return nil, err
	}
	if data.shifts, err = readOnce(ctx, "scheduled_shifts", func(ctx context.Context) ([]*labor.ScheduledShift, error) {
		return s.sources.Shifts.ShiftsForStore(ctx, storeID, window)
	}); err != nil {
		return nil, err
	}
	if data.events, err = readOnce(ctx, "clock_events", func(ctx context.Context) ([]*labor.ClockEvent, error) {
		return s.sources.ClockEvents.ClockEventsForStore(ctx, storeID, window)
	}); err != nil {
		return nil, err
	}

	s.reportStaleOpenEvents(ctx, storeID, data.events)
	return &data, nil
}

// transactionsIn は window 内に発生した売上だけを返します。
func transactionsIn(txs []*labor.SalesTransaction, window calendar.Window) []*labor.SalesTransaction {
	out := make([]*labor.SalesTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx != nil && window.Contains(tx.OccurredAt) {
			out = append(out, tx)
		}
	}
	return out
}

// readOnce は再試行せずに 1 回だけ読み取り、エラーにソース名を付けます。
func readOnce[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		return v, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// activeStaff は期間内にシフトまたは出退勤のあるスタッフと、その実勤務分数を返します。
func (s *Service) activeStaff(data *periodData, window calendar.Window) []StaffMember {
	worked := make(map[string]int64)
	active := make(map[string]bool)

	for _, shift := range data.shifts {
		if shift == nil {
			continue
		}
		active[shift.StaffID] = true
	}
	for _, e := range data.events {
		if e == nil {
			continue
		}
		active[e.StaffID] = true
		if !e.Complete() {
			continue
		}
		start, end := e.StartTime, *e.EndTime
		if start.Before(window.Start) {
			start = window.Start
		}
		if end.After(window.End) {
			end = window.End
		}
		if end.After(start) {
			worked[e.StaffID] += int64(math.Round(end.Sub(start).Minutes()))
		}
	}

	members := make([]StaffMember, 0, len(active))
	for _, st := range data.staff {
		if st == nil || !active[st.ID] {
			continue
		}
		members = append(members, StaffMember{
			ID:            st.ID,
			Name:          st.Name,
			JobTitle:      st.JobTitle,
			WorkedMinutes: worked[st.ID],
		})
	}
	return members
}

func (s *Service) threshold(store *labor.Store) decimal.Decimal {
	if store != nil && store.RevenuePerLabourHourThreshold != nil {
		return *store.RevenuePerLabourHourThreshold
	}
	return s.settings.Threshold
}

func (s *Service) reportStaleOpenEvents(ctx context.Context, storeID string, events []*labor.ClockEvent) {
	_, stale := labor.LatestOpenEvents(events)
	for _, e := range stale {
		s.logger.WarnContext(ctx, "multiple open clock events for staff; older event ignored",
			slog.String("store_id", storeID),
			slog.String("staff_id", e.StaffID),
			slog.String("clock_event_id", e.ID),
			slog.Time("start_time", e.StartTime),
		)
	}
}
