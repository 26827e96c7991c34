package reconcile

import (
	"math"
	"sort"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
)

// Status は予定シフトの照合結果です。
type Status string

const (
	StatusMatched   Status = "MATCHED"
	StatusUnmatched Status = "UNMATCHED"
)

// ComparisonResult は 1 件の予定シフトと、照合された出退勤記録 (最大 1 件) の組です。
// リクエストごとに再計算され、保存されません。
type ComparisonResult struct {
	Shift      *labor.ScheduledShift
	ClockEvent *labor.ClockEvent
	Status     Status
	// VarianceMinutes は実績終了 - 予定終了 (分) です。未照合の場合は nil です。
	VarianceMinutes *int64
}

// Matched は出退勤記録と照合済みかどうかを返します。
func (r ComparisonResult) Matched() bool {
	return r.Status == StatusMatched && r.ClockEvent != nil
}

// MatchPolicy は同日の候補から照合する出退勤記録を選びます。
// 候補がない、または選ばない場合は -1 を返します。
type MatchPolicy interface {
	Select(shift *labor.ScheduledShift, candidates []*labor.ClockEvent) int
}

// NearestStartPolicy は予定開始との差の絶対値が最小の記録を選びます。同差の場合は先に出勤した記録です。
type NearestStartPolicy struct{}

func (NearestStartPolicy) Select(shift *labor.ScheduledShift, candidates []*labor.ClockEvent) int {
	best := -1
	var bestDiff time.Duration
	for i, c := range candidates {
		diff := c.StartTime.Sub(shift.StartTime)
		if diff < 0 {
			diff = -diff
		}
		if best < 0 || diff < bestDiff || (diff == bestDiff && c.StartTime.Before(candidates[best].StartTime)) {
			best, bestDiff = i, diff
		}
	}
	return best
}

// Reconciler は予定シフトと出退勤記録を照合します。
type Reconciler interface {
	Reconcile(shifts []*labor.ScheduledShift, events []*labor.ClockEvent) []ComparisonResult
}

// Matcher は出退勤記録を (スタッフ, 現地日付) で索引し、予定開始の昇順に照合します。
// 1 件の出退勤記録は最初に照合されたシフトだけが使います。
type Matcher struct {
	policy MatchPolicy
	loc    *time.Location
}

var _ Reconciler = (*Matcher)(nil)

// NewMatcher は Matcher を生成します。policy が nil の場合は NearestStartPolicy を使います。
func NewMatcher(policy MatchPolicy, loc *time.Location) *Matcher {
	if policy == nil {
		policy = NearestStartPolicy{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Matcher{policy: policy, loc: loc}
}

type dayKey struct {
	staffID string
	date    string
}

// Reconcile は予定シフト 1 件につき 1 件の ComparisonResult を予定開始の昇順で返します。
// 退勤打刻のない記録や時刻が不正な記録は照合対象にならず、対応するシフトは UNMATCHED になります。
func (m *Matcher) Reconcile(shifts []*labor.ScheduledShift, events []*labor.ClockEvent) []ComparisonResult {
	index := make(map[dayKey][]*labor.ClockEvent)
	for _, e := range events {
		if !e.Complete() {
			continue
		}
		key := m.keyOf(e.StaffID, e.StartTime)
		index[key] = append(index[key], e)
	}

	ordered := make([]*labor.ScheduledShift, 0, len(shifts))
	for _, s := range shifts {
		if s != nil {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Malformed() != b.Malformed() {
			return !a.Malformed()
		}
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		return a.ID < b.ID
	})

	results := make([]ComparisonResult, 0, len(ordered))
	for _, shift := range ordered {
		result := ComparisonResult{Shift: shift, Status: StatusUnmatched}
		if shift.Malformed() {
			results = append(results, result)
			continue
		}

		key := m.keyOf(shift.StaffID, shift.StartTime)
		candidates := index[key]
		if i := m.policy.Select(shift, candidates); i >= 0 && i < len(candidates) {
			event := candidates[i]
			index[key] = append(candidates[:i:i], candidates[i+1:]...)

			variance := Variance(shift, event)
			result.ClockEvent = event
			result.Status = StatusMatched
			result.VarianceMinutes = &variance
		}
		results = append(results, result)
	}
	return results
}

func (m *Matcher) keyOf(staffID string, t time.Time) dayKey {
	return dayKey{staffID: staffID, date: calendar.FormatDate(t.In(m.loc))}
}

// Variance は実績終了と予定終了の差を分単位に丸めて返します。正の値は予定より長く働いたことを表します。
func Variance(shift *labor.ScheduledShift, event *labor.ClockEvent) int64 {
	return int64(math.Round(event.EndTime.Sub(shift.EndTime).Minutes()))
}

func minutes(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Round(d.Minutes()))
}
