package labor

import (
	"errors"
	"fmt"
)

// エラー分類。呼び出し側は errors.Is でこれらを判定します。
var (
	ErrInvalidInput        = errors.New("labor: invalid input")
	ErrNotFound            = errors.New("labor: not found")
	ErrUpstreamUnavailable = errors.New("labor: upstream unavailable")
	ErrDataInconsistent    = errors.New("labor: data inconsistent")
)

var (
	ErrInvalidStoreID     = fmt.Errorf("invalid store id: %w", ErrInvalidInput)
	ErrInvalidStaffID     = fmt.Errorf("invalid staff id: %w", ErrInvalidInput)
	ErrWeekStartNotMonday = fmt.Errorf("week start must be a monday: %w", ErrInvalidInput)
	ErrInvalidPeriod      = fmt.Errorf("invalid period: %w", ErrInvalidInput)
	ErrInvalidPolicy      = fmt.Errorf("unknown attribution policy: %w", ErrInvalidInput)
	ErrStoreNotFound      = fmt.Errorf("store: %w", ErrNotFound)
	ErrStaffNotFound      = fmt.Errorf("staff: %w", ErrNotFound)
	ErrDuplicateMapping   = fmt.Errorf("duplicate contribution mapping: %w", ErrDataInconsistent)
	ErrMappingOutOfRange  = fmt.Errorf("contribution percentage out of range: %w", ErrDataInconsistent)
)
