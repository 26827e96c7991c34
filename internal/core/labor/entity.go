package labor

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store は店舗エンティティです。
type Store struct {
	ID   string
	Name string
	// RevenuePerLabourHourThreshold が設定されている場合、設定値の閾値より優先されます。
	RevenuePerLabourHourThreshold *decimal.Decimal
}

// Staff は店舗に所属するスタッフです。
type Staff struct {
	ID        string
	StoreID   string
	Name      string
	JobTitle  string
	JobAreaID string
}

// ScheduledShift はロスター上の予定シフトです。
type ScheduledShift struct {
	ID        string
	StaffID   string
	JobAreaID string
	StartTime time.Time
	EndTime   time.Time
	Published bool
}

// Malformed は開始・終了時刻が欠落しているか逆転している場合に true を返します。
func (s *ScheduledShift) Malformed() bool {
	return s == nil || s.StartTime.IsZero() || s.EndTime.IsZero() || s.EndTime.Before(s.StartTime)
}

// Duration は予定シフトの長さを返します。不正なシフトは 0 です。
func (s *ScheduledShift) Duration() time.Duration {
	if s.Malformed() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// ClockEvent は実績の出退勤記録です。EndTime が nil の場合は勤務中です。
type ClockEvent struct {
	ID        string
	StaffID   string
	StartTime time.Time
	EndTime   *time.Time
}

// Open は退勤打刻がまだない場合に true を返します。
func (e *ClockEvent) Open() bool {
	return e != nil && e.EndTime == nil
}

// Complete は出勤・退勤の両方が揃い、順序が正しい場合に true を返します。
func (e *ClockEvent) Complete() bool {
	if e == nil || e.StartTime.IsZero() || e.EndTime == nil || e.EndTime.IsZero() {
		return false
	}
	return !e.EndTime.Before(e.StartTime)
}

// SalesTransaction は外部 POS から取り込んだ売上です。
type SalesTransaction struct {
	ID         string
	StoreID    string
	OccurredAt time.Time
	Amount     decimal.Decimal
	Category   string
	StaffID    string
}

// ContributionMapping は職種とカテゴリの貢献率 (0, 100] の設定です。
type ContributionMapping struct {
	ID         string
	StoreID    string
	JobTitle   string
	Category   string
	Percentage decimal.Decimal
}
