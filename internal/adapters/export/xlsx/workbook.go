package xlsx

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/insight"
	"github.com/ogurasousui/codex-labor-insights/internal/core/reconcile"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// シート名
const (
	VarianceSheet    = "Variance"
	HeatmapSheet     = "Heatmap"
	AttributionSheet = "Attribution"
)

const clockLayout = "15:04"

var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Exporter はレポートを Excel ブックとして書き出します。時刻は loc で表示します。
type Exporter struct {
	loc *time.Location
}

// NewExporter は Exporter を生成します。
func NewExporter(loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{loc: loc}
}

type styles struct {
	header        int
	money         int
	underutilised int
	noData        int
	flagged       int
	total         int
}

// Write は与えられたレポートのシートだけを含むブックを w に書き出します。
// comparison と insights はどちらか一方が nil でも構いません。
func (e *Exporter) Write(w io.Writer, comparison *reconcile.WeeklyComparisonReport, insights *insight.WeeklyInsightReport) error {
	if comparison == nil && insights == nil {
		return fmt.Errorf("xlsx: nothing to export")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	var sheets []string
	if comparison != nil {
		sheets = append(sheets, VarianceSheet)
	}
	if insights != nil {
		sheets = append(sheets, HeatmapSheet, AttributionSheet)
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheets[0]); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	for _, name := range sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: create sheet %s: %w", name, err)
		}
	}

	if comparison != nil {
		if err := e.writeVariance(f, st, comparison); err != nil {
			return err
		}
	}
	if insights != nil {
		if err := e.writeHeatmap(f, st, insights); err != nil {
			return err
		}
		if err := writeAttribution(f, st, insights); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	defs := []struct {
		target *int
		style  *excelize.Style
	}{
		{&st.header, &excelize.Style{Font: &excelize.Font{Bold: true}, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}}}},
		{&st.money, &excelize.Style{NumFmt: 2}},
		{&st.underutilised, &excelize.Style{NumFmt: 2, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#F4CCCC"}}}},
		{&st.noData, &excelize.Style{Font: &excelize.Font{Color: "#999999"}, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#EEEEEE"}}}},
		{&st.flagged, &excelize.Style{Font: &excelize.Font{Color: "#C00000", Bold: true}}},
		{&st.total, &excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 2}},
	}
	for _, def := range defs {
		id, err := f.NewStyle(def.style)
		if err != nil {
			return styles{}, fmt.Errorf("xlsx: create style: %w", err)
		}
		*def.target = id
	}
	return st, nil
}

func (e *Exporter) writeVariance(f *excelize.File, st styles, r *reconcile.WeeklyComparisonReport) error {
	sheet := VarianceSheet
	header := []any{"Date", "Day", "Staff", "Scheduled start", "Scheduled end", "Actual start", "Actual end", "Status", "Variance (min)", "Published", "Sales"}
	if err := setRow(f, sheet, 1, header, st.header); err != nil {
		return err
	}

	row := 2
	for _, day := range r.Days {
		for _, line := range day.Lines {
			values := []any{
				day.Date,
				line.DayOfWeek,
				line.StaffName,
				e.clock(&line.ScheduledStart),
				e.clock(&line.ScheduledEnd),
				e.clock(line.ActualStart),
				e.clock(line.ActualEnd),
				string(line.Status),
				nil,
				line.Published,
				nil,
			}
			if line.VarianceMinutes != nil {
				values[8] = *line.VarianceMinutes
			}
			style := 0
			if line.OutOfTolerance {
				style = st.flagged
			}
			if err := setRow(f, sheet, row, values, style); err != nil {
				return err
			}
			row++
		}

		subtotal := []any{day.Date, "", "Day total", "", "", "", "", "", day.VarianceMinutes, "", amount(day.Sales)}
		if err := setRow(f, sheet, row, subtotal, st.total); err != nil {
			return err
		}
		row++
	}

	totals := [][]any{
		{"Week", r.WeekIdentifier},
		{"Scheduled minutes", r.TotalScheduledMinutes},
		{"Actual minutes", r.TotalActualMinutes},
		{"Variance minutes", r.TotalVarianceMinutes},
		{"Matched", r.MatchedCount},
		{"Unmatched", r.UnmatchedCount},
	}
	row++
	for _, values := range totals {
		if err := setRow(f, sheet, row, values, 0); err != nil {
			return err
		}
		row++
	}

	if err := f.SetColWidth(sheet, "A", "K", 14); err != nil {
		return fmt.Errorf("xlsx: set column width: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// writeHeatmap は時間帯 x 曜日の売上表と人数表を書き出します。
func (e *Exporter) writeHeatmap(f *excelize.File, st styles, r *insight.WeeklyInsightReport) error {
	sheet := HeatmapSheet
	byKey := make(map[[2]int]insight.HourlyBucket, len(r.HourlyBuckets))
	hours := map[int]bool{}
	for _, b := range r.HourlyBuckets {
		byKey[[2]int{b.Weekday, b.Hour}] = b
		hours[b.Hour] = true
	}
	ordered := make([]int, 0, len(hours))
	for h := range hours {
		ordered = append(ordered, h)
	}
	sort.Ints(ordered)

	title := fmt.Sprintf("%s (%s) %s-%s", r.WeekIdentifier, calendar.FormatDate(r.WeekStart), r.OpeningTime, r.ClosingTime)
	if err := setRow(f, sheet, 1, []any{title}, st.header); err != nil {
		return err
	}

	row := 3
	blocks := []struct {
		label string
		value func(insight.HourlyBucket) any
	}{
		{"Revenue", func(b insight.HourlyBucket) any { return amount(b.TotalRevenue) }},
		{"Active staff", func(b insight.HourlyBucket) any { return b.ActiveStaffCount }},
	}
	for _, block := range blocks {
		if err := setRow(f, sheet, row, append([]any{block.label}, toAny(weekdayLabels)...), st.header); err != nil {
			return err
		}
		row++
		for _, hour := range ordered {
			if err := setRow(f, sheet, row, []any{fmt.Sprintf("%02d:00", hour)}, 0); err != nil {
				return err
			}
			for day := 0; day < calendar.DaysPerWeek; day++ {
				b, ok := byKey[[2]int{day, hour}]
				if !ok {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(day+2, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, block.value(b)); err != nil {
					return fmt.Errorf("xlsx: set %s!%s: %w", sheet, cell, err)
				}
				style := st.money
				switch {
				case b.Underutilised:
					style = st.underutilised
				case b.NoData():
					style = st.noData
				}
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return fmt.Errorf("xlsx: style %s!%s: %w", sheet, cell, err)
				}
			}
			row++
		}
		row++
	}

	return f.SetColWidth(sheet, "A", "H", 12)
}

func writeAttribution(f *excelize.File, st styles, r *insight.WeeklyInsightReport) error {
	sheet := AttributionSheet
	sections := []struct {
		label  string
		values map[string]decimal.Decimal
	}{
		{"Category", r.RevenueByCategory},
		{"Day", r.RevenueByDay},
		{"Job title", r.RevenueByJobTitle},
		{"Staff", r.RevenueByStaffName},
	}

	if err := setRow(f, sheet, 1, []any{"Total revenue", amount(r.TotalRevenue)}, st.total); err != nil {
		return err
	}
	row := 3
	for _, section := range sections {
		if err := setRow(f, sheet, row, []any{section.label, "Revenue"}, st.header); err != nil {
			return err
		}
		row++
		for _, key := range rankedKeys(section.values) {
			if err := setRow(f, sheet, row, []any{key, amount(section.values[key])}, 0); err != nil {
				return err
			}
			cell, _ := excelize.CoordinatesToCellName(2, row)
			if err := f.SetCellStyle(sheet, cell, cell, st.money); err != nil {
				return err
			}
			row++
		}
		row++
	}

	if len(r.Issues) > 0 {
		if err := setRow(f, sheet, row, []any{"Excluded mapping", "Job title", "Category", "Reason"}, st.header); err != nil {
			return err
		}
		row++
		for _, issue := range r.Issues {
			if err := setRow(f, sheet, row, []any{issue.RecordID, issue.JobTitle, issue.Category, issue.Reason}, 0); err != nil {
				return err
			}
			row++
		}
	}

	return f.SetColWidth(sheet, "A", "D", 18)
}

func setRow(f *excelize.File, sheet string, row int, values []any, style int) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: write %s row %d: %w", sheet, row, err)
	}
	if style == 0 || len(values) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, last, style)
}

// rankedKeys は金額の降順、同額は名前順に並べます。
func rankedKeys(values map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := values[keys[i]].Cmp(values[keys[j]]); c != 0 {
			return c > 0
		}
		return keys[i] < keys[j]
	})
	return keys
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func (e *Exporter) clock(t *time.Time) any {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(e.loc).Format(clockLayout)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
