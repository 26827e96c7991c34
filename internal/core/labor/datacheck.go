package labor

import "sort"

// LatestOpenEvents はスタッフごとに最新の未退勤記録だけを残し、それ以外の未退勤記録を stale として返します。
// 同一スタッフに複数の未退勤記録があるのはデータ品質上の問題で、呼び出し側で警告を記録します。
func LatestOpenEvents(events []*ClockEvent) (kept []*ClockEvent, stale []*ClockEvent) {
	latest := make(map[string]*ClockEvent)
	for _, e := range events {
		if !e.Open() || e.StartTime.IsZero() {
			continue
		}
		if cur, ok := latest[e.StaffID]; !ok || e.StartTime.After(cur.StartTime) {
			latest[e.StaffID] = e
		}
	}

	kept = make([]*ClockEvent, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		if e.Open() && !e.StartTime.IsZero() && latest[e.StaffID] != e {
			stale = append(stale, e)
			continue
		}
		kept = append(kept, e)
	}

	sort.SliceStable(stale, func(i, j int) bool {
		return stale[i].StartTime.Before(stale[j].StartTime)
	})
	return kept, stale
}
