package calendar

import (
	"fmt"
	"time"
)

// Window は半開区間 [Start, End) の時間範囲です。
type Window struct {
	Start time.Time
	End   time.Time
}

// WeekWindow は monday から 7 日間のウィンドウを返します。
func WeekWindow(monday time.Time) Window {
	start := StartOfDay(monday)
	return Window{Start: start, End: start.AddDate(0, 0, DaysPerWeek)}
}

// Validate は Start < End であることを確認します。
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("window bounds must be set: %w", ErrInvalidDate)
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("window start %s must be before end %s: %w", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), ErrInvalidDate)
	}
	return nil
}

// Contains は t が [Start, End) に含まれるかを返します。
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Overlaps は [start, end) がウィンドウと重なるかを返します。
func (w Window) Overlaps(start, end time.Time) bool {
	return start.Before(w.End) && end.After(w.Start)
}

// Days はウィンドウ内の各日の 0 時を昇順で返します。
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := StartOfDay(w.Start); d.Before(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
