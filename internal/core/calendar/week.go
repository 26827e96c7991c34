package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout はグルーピングキーなどに使う日付のみの表現です。
	DateLayout = "2006-01-02"
	// DaysPerWeek は ISO 週の日数です。
	DaysPerWeek = 7
)

var (
	ErrInvalidWeekIdentifier = errors.New("calendar: invalid week identifier")
	ErrNotMonday             = errors.New("calendar: date is not a monday")
	ErrInvalidDate           = errors.New("calendar: invalid date")
)

var weekIdentifierPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// MondayOf は date を含む ISO 週の月曜日 (date のロケーションにおける 0 時) を返します。
// 日曜日は前週の 7 日目として扱います。
func MondayOf(date time.Time) time.Time {
	day := StartOfDay(date)
	offset := (int(day.Weekday()) + 6) % DaysPerWeek
	return day.AddDate(0, 0, -offset)
}

// StartOfDay は date のロケーションにおける同日 0 時を返します。
func StartOfDay(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location())
}

// DateIn は date の年月日をそのまま loc の 0 時として解釈し直します。
func DateIn(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return StartOfDay(date)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// IsMonday は date が月曜日かどうかを返します。時刻部分は問いません。
func IsMonday(date time.Time) bool {
	return !date.IsZero() && date.Weekday() == time.Monday
}

// WeekdayIndex は月曜日を 0、日曜日を 6 とする曜日番号を返します。
func WeekdayIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % DaysPerWeek
}

// WeekIdentifier は date を含む ISO 週を YYYY-Www 形式で返します。
func WeekIdentifier(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// DateOfWeekIdentifier は YYYY-Www 形式の識別子に対応する月曜日を loc の 0 時で返します。
func DateOfWeekIdentifier(identifier string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	match := weekIdentifierPattern.FindStringSubmatch(strings.TrimSpace(identifier))
	if match == nil {
		return time.Time{}, fmt.Errorf("%q: %w", identifier, ErrInvalidWeekIdentifier)
	}

	year, _ := strconv.Atoi(match[1])
	week, _ := strconv.Atoi(match[2])
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("%q: week out of range: %w", identifier, ErrInvalidWeekIdentifier)
	}

	// 1 月 4 日は常に ISO 第 1 週に含まれる。
	firstMonday := MondayOf(time.Date(year, time.January, 4, 0, 0, 0, 0, loc))
	monday := firstMonday.AddDate(0, 0, (week-1)*DaysPerWeek)

	if gotYear, gotWeek := monday.ISOWeek(); gotYear != year || gotWeek != week {
		return time.Time{}, fmt.Errorf("%q: year has no such week: %w", identifier, ErrInvalidWeekIdentifier)
	}

	return monday, nil
}

// ParseWeekStart は YYYY-Www もしくは YYYY-MM-DD (月曜日) を週の開始日に変換します。
func ParseWeekStart(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	trimmed := strings.TrimSpace(raw)
	if strings.Contains(trimmed, "-W") {
		return DateOfWeekIdentifier(trimmed, loc)
	}

	date, err := time.ParseInLocation(DateLayout, trimmed, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", raw, ErrInvalidDate)
	}
	if !IsMonday(date) {
		return time.Time{}, fmt.Errorf("%s: %w", trimmed, ErrNotMonday)
	}
	return date, nil
}

// FormatDate は日付のみの表現を返します。
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}
