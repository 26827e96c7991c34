package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/shopspring/decimal"
)

// ファイル名はディレクトリ内で固定です。
const (
	StoresFile        = "stores.csv"
	StaffFile         = "staff.csv"
	ShiftsFile        = "shifts.csv"
	ClockEventsFile   = "clock_events.csv"
	SalesFile         = "sales.csv"
	ContributionsFile = "contributions.csv"
)

// localLayout はタイムゾーンを持たない時刻表記です。店舗の現地時刻として解釈します。
const localLayout = "2006-01-02 15:04"

// record はヘッダー名で列を引ける 1 行です。
type record struct {
	file   string
	line   int
	header map[string]int
	values []string
}

func (r record) get(column string) string {
	idx, ok := r.header[column]
	if !ok || idx >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[idx])
}

func (r record) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s: %w", r.file, r.line, fmt.Sprintf(format, args...), labor.ErrDataInconsistent)
}

// readRecords はヘッダー付き CSV を読みます。ファイルが存在しない場合は空として扱います。
func readRecords(dir, name string, required ...string) ([]record, error) {
	path := filepath.Join(dir, name)
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	header := make(map[string]int, len(head))
	for i, column := range head {
		header[strings.ToLower(strings.TrimSpace(column))] = i
	}
	for _, column := range required {
		if _, ok := header[column]; !ok {
			return nil, fmt.Errorf("%s: missing column %q: %w", name, column, labor.ErrDataInconsistent)
		}
	}

	var records []record
	for line := 2; ; line++ {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record from %s: %w", path, err)
		}
		records = append(records, record{file: name, line: line, header: header, values: values})
	}
	return records, nil
}

// parseTime は RFC3339 もしくは現地時刻の "YYYY-MM-DD HH:MM" を受け付けます。空文字はゼロ値です。
func parseTime(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localLayout, raw, loc)
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func parseBool(raw string, fallback bool) bool {
	switch strings.ToLower(raw) {
	case "true", "t", "yes", "y", "1":
		return true
	case "false", "f", "no", "n", "0":
		return false
	default:
		return fallback
	}
}

func inWindow(t time.Time, w calendar.Window) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
