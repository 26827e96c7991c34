package labor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// SystemClock は実時間の Clock を返します。
func SystemClock() Clock {
	return realClock{}
}

// NormalizeStoreID は店舗 ID を検証し正規化した値を返します。
func NormalizeStoreID(raw string) (string, error) {
	id, err := normalizeUUID(raw)
	if err != nil {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidStoreID)
	}
	return id, nil
}

// NormalizeStaffID はスタッフ ID を検証し正規化した値を返します。
func NormalizeStaffID(raw string) (string, error) {
	id, err := normalizeUUID(raw)
	if err != nil {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidStaffID)
	}
	return id, nil
}

func normalizeUUID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty id")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}
