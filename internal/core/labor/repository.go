package labor

import (
	"context"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
)

// StoreRepository は店舗の参照元です。存在しない場合は ErrStoreNotFound を返します。
//
//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=repository.go
type StoreRepository interface {
	FindByID(ctx context.Context, id string) (*Store, error)
}

// StaffRepository はスタッフの参照元です。
type StaffRepository interface {
	ListByStore(ctx context.Context, storeID string) ([]*Staff, error)
}

// ShiftRepository は予定シフトの参照元です。ウィンドウは開始時刻で絞り込みます。
type ShiftRepository interface {
	ShiftsForStaff(ctx context.Context, staffID string, window calendar.Window) ([]*ScheduledShift, error)
	ShiftsForStore(ctx context.Context, storeID string, window calendar.Window) ([]*ScheduledShift, error)
}

// ClockEventRepository は出退勤記録の参照元です。ウィンドウと重なる記録を返します。
type ClockEventRepository interface {
	ClockEventsForStaff(ctx context.Context, staffID string, window calendar.Window) ([]*ClockEvent, error)
	ClockEventsForStore(ctx context.Context, storeID string, window calendar.Window) ([]*ClockEvent, error)
}

// SalesRepository は売上の参照元です。
type SalesRepository interface {
	TransactionsForStore(ctx context.Context, storeID string, window calendar.Window) ([]*SalesTransaction, error)
}

// ContributionRepository は有効な貢献率設定の参照元です。
type ContributionRepository interface {
	ActiveMappings(ctx context.Context, storeID string) ([]*ContributionMapping, error)
}

// Sources はエンジンが読み取るすべての外部コラボレーターをまとめたものです。
type Sources struct {
	Stores        StoreRepository
	Staff         StaffRepository
	Shifts        ShiftRepository
	ClockEvents   ClockEventRepository
	Sales         SalesRepository
	Contributions ContributionRepository
}
