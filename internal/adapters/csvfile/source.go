package csvfile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/shopspring/decimal"
)

// Source は CSV エクスポートのディレクトリを読み込み、エンジンのコラボレーターとして提供します。
// 読み込みは Open 時に一度だけ行い、以降は不変です。
type Source struct {
	stores        map[string]*labor.Store
	staff         []*labor.Staff
	staffStore    map[string]string
	shifts        []*labor.ScheduledShift
	events        []*labor.ClockEvent
	sales         []*labor.SalesTransaction
	contributions []*labor.ContributionMapping
	logger        *slog.Logger
}

var (
	_ labor.StoreRepository        = (*Source)(nil)
	_ labor.StaffRepository        = (*Source)(nil)
	_ labor.ShiftRepository        = (*Source)(nil)
	_ labor.ClockEventRepository   = (*Source)(nil)
	_ labor.SalesRepository        = (*Source)(nil)
	_ labor.ContributionRepository = (*Source)(nil)
)

// Open は dir 配下の CSV を読み込みます。タイムゾーンのない時刻は loc で解釈します。
// 時刻が欠けた行や解析できない行は WARN を出力してゼロ時刻のまま取り込み、後段で不正データとして扱います。
func Open(dir string, loc *time.Location, logger *slog.Logger) (*Source, error) {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Source{stores: map[string]*labor.Store{}, staffStore: map[string]string{}, logger: logger}
	loaders := []func(string, *time.Location) error{
		s.loadStores,
		s.loadStaff,
		s.loadShifts,
		s.loadClockEvents,
		s.loadSales,
		s.loadContributions,
	}
	for _, load := range loaders {
		if err := load(dir, loc); err != nil {
			return nil, err
		}
	}

	logger.Debug("csv source loaded",
		slog.String("dir", dir),
		slog.Int("stores", len(s.stores)),
		slog.Int("staff", len(s.staff)),
		slog.Int("shifts", len(s.shifts)),
		slog.Int("clock_events", len(s.events)),
		slog.Int("sales", len(s.sales)),
		slog.Int("contributions", len(s.contributions)),
	)
	return s, nil
}

// Sources は全リポジトリをこの Source で埋めた labor.Sources を返します。
func (s *Source) Sources() labor.Sources {
	return labor.Sources{
		Stores:        s,
		Staff:         s,
		Shifts:        s,
		ClockEvents:   s,
		Sales:         s,
		Contributions: s,
	}
}

func (s *Source) loadStores(dir string, _ *time.Location) error {
	records, err := readRecords(dir, StoresFile, "id", "name")
	if err != nil {
		return err
	}
	for _, r := range records {
		store := &labor.Store{ID: r.get("id"), Name: r.get("name")}
		if raw := r.get("revenue_per_labour_hour_threshold"); raw != "" {
			threshold, err := parseDecimal(raw)
			if err != nil {
				return r.errorf("threshold %q", raw)
			}
			store.RevenuePerLabourHourThreshold = &threshold
		}
		s.stores[store.ID] = store
	}
	return nil
}

func (s *Source) loadStaff(dir string, _ *time.Location) error {
	records, err := readRecords(dir, StaffFile, "id", "store_id", "name", "job_title")
	if err != nil {
		return err
	}
	for _, r := range records {
		member := &labor.Staff{
			ID:        r.get("id"),
			StoreID:   r.get("store_id"),
			Name:      r.get("name"),
			JobTitle:  r.get("job_title"),
			JobAreaID: r.get("job_area_id"),
		}
		s.staff = append(s.staff, member)
		s.staffStore[member.ID] = member.StoreID
	}
	return nil
}

func (s *Source) loadShifts(dir string, loc *time.Location) error {
	records, err := readRecords(dir, ShiftsFile, "id", "staff_id", "start_time", "end_time")
	if err != nil {
		return err
	}
	for _, r := range records {
		start := s.lenientTime(r, "start_time", loc)
		end := s.lenientTime(r, "end_time", loc)
		s.shifts = append(s.shifts, &labor.ScheduledShift{
			ID:        r.get("id"),
			StaffID:   r.get("staff_id"),
			JobAreaID: r.get("job_area_id"),
			StartTime: start,
			EndTime:   end,
			Published: parseBool(r.get("published"), true),
		})
	}
	return nil
}

func (s *Source) loadClockEvents(dir string, loc *time.Location) error {
	records, err := readRecords(dir, ClockEventsFile, "id", "staff_id", "start_time")
	if err != nil {
		return err
	}
	for _, r := range records {
		start := s.lenientTime(r, "start_time", loc)
		event := &labor.ClockEvent{ID: r.get("id"), StaffID: r.get("staff_id"), StartTime: start}
		if r.get("end_time") != "" {
			// 解析できない退勤はゼロ時刻として保持し、勤務中ではなく不完全な記録として扱います。
			end := s.lenientTime(r, "end_time", loc)
			event.EndTime = &end
		}
		s.events = append(s.events, event)
	}
	return nil
}

// lenientTime は時刻列を解析します。解析できない場合は行を捨てずにゼロ時刻を返します。
func (s *Source) lenientTime(r record, column string, loc *time.Location) time.Time {
	raw := r.get(column)
	t, err := parseTime(raw, loc)
	if err != nil {
		s.logger.Warn("unparseable timestamp; row kept as malformed",
			slog.String("file", r.file),
			slog.Int("line", r.line),
			slog.String("column", column),
			slog.String("value", raw),
		)
		return time.Time{}
	}
	return t
}

func (s *Source) loadSales(dir string, loc *time.Location) error {
	records, err := readRecords(dir, SalesFile, "id", "store_id", "occurred_at", "amount", "category")
	if err != nil {
		return err
	}
	for _, r := range records {
		occurred, err := parseTime(r.get("occurred_at"), loc)
		if err != nil || occurred.IsZero() {
			return r.errorf("occurred_at %q", r.get("occurred_at"))
		}
		amount, err := parseDecimal(r.get("amount"))
		if err != nil {
			return r.errorf("amount %q", r.get("amount"))
		}
		s.sales = append(s.sales, &labor.SalesTransaction{
			ID:         r.get("id"),
			StoreID:    r.get("store_id"),
			OccurredAt: occurred,
			Amount:     amount,
			Category:   r.get("category"),
			StaffID:    r.get("staff_id"),
		})
	}
	return nil
}

func (s *Source) loadContributions(dir string, _ *time.Location) error {
	records, err := readRecords(dir, ContributionsFile, "id", "store_id", "job_title", "category", "percentage")
	if err != nil {
		return err
	}
	for _, r := range records {
		if !parseBool(r.get("active"), true) {
			continue
		}
		pct, err := parseDecimal(r.get("percentage"))
		if err != nil {
			// 範囲外と同様に後段で除外させるため、解析できない値はゼロとして渡します。
			pct = decimal.Zero
		}
		s.contributions = append(s.contributions, &labor.ContributionMapping{
			ID:         r.get("id"),
			StoreID:    r.get("store_id"),
			JobTitle:   r.get("job_title"),
			Category:   r.get("category"),
			Percentage: pct,
		})
	}
	return nil
}

// FindByID は店舗を返します。
func (s *Source) FindByID(ctx context.Context, id string) (*labor.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store, ok := s.stores[id]
	if !ok {
		return nil, fmt.Errorf("id=%s: %w", id, labor.ErrStoreNotFound)
	}
	copied := *store
	return &copied, nil
}

// ListByStore は店舗に所属するスタッフを返します。
func (s *Source) ListByStore(ctx context.Context, storeID string) ([]*labor.Staff, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*labor.Staff
	for _, member := range s.staff {
		if member.StoreID == storeID {
			copied := *member
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ShiftsForStaff は開始時刻がウィンドウ内の予定シフトを返します。
func (s *Source) ShiftsForStaff(ctx context.Context, staffID string, window calendar.Window) ([]*labor.ScheduledShift, error) {
	return s.filterShifts(ctx, window, func(sh *labor.ScheduledShift) bool { return sh.StaffID == staffID })
}

// ShiftsForStore は店舗のスタッフの予定シフトを返します。
func (s *Source) ShiftsForStore(ctx context.Context, storeID string, window calendar.Window) ([]*labor.ScheduledShift, error) {
	return s.filterShifts(ctx, window, func(sh *labor.ScheduledShift) bool { return s.staffStore[sh.StaffID] == storeID })
}

func (s *Source) filterShifts(ctx context.Context, window calendar.Window, keep func(*labor.ScheduledShift) bool) ([]*labor.ScheduledShift, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*labor.ScheduledShift
	for _, sh := range s.shifts {
		if !keep(sh) {
			continue
		}
		// 開始時刻のない不正なシフトは日付で絞り込めないため常に含めます。
		if sh.StartTime.IsZero() || inWindow(sh.StartTime, window) {
			copied := *sh
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ClockEventsForStaff はウィンドウと重なる出退勤記録を返します。
func (s *Source) ClockEventsForStaff(ctx context.Context, staffID string, window calendar.Window) ([]*labor.ClockEvent, error) {
	return s.filterEvents(ctx, window, func(e *labor.ClockEvent) bool { return e.StaffID == staffID })
}

// ClockEventsForStore は店舗のスタッフの出退勤記録を返します。
func (s *Source) ClockEventsForStore(ctx context.Context, storeID string, window calendar.Window) ([]*labor.ClockEvent, error) {
	return s.filterEvents(ctx, window, func(e *labor.ClockEvent) bool { return s.staffStore[e.StaffID] == storeID })
}

func (s *Source) filterEvents(ctx context.Context, window calendar.Window, keep func(*labor.ClockEvent) bool) ([]*labor.ClockEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*labor.ClockEvent
	for _, e := range s.events {
		if !keep(e) || !e.StartTime.Before(window.End) {
			continue
		}
		if e.EndTime != nil && !e.EndTime.IsZero() && !e.EndTime.After(window.Start) {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	return out, nil
}

// TransactionsForStore はウィンドウ内の売上を返します。
func (s *Source) TransactionsForStore(ctx context.Context, storeID string, window calendar.Window) ([]*labor.SalesTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*labor.SalesTransaction
	for _, tx := range s.sales {
		if tx.StoreID == storeID && inWindow(tx.OccurredAt, window) {
			copied := *tx
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ActiveMappings は店舗の有効な貢献率設定を返します。
func (s *Source) ActiveMappings(ctx context.Context, storeID string) ([]*labor.ContributionMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*labor.ContributionMapping
	for _, m := range s.contributions {
		if m.StoreID == storeID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}
