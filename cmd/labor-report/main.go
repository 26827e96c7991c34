package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/codex-labor-insights/internal/adapters/csvfile"
	"github.com/ogurasousui/codex-labor-insights/internal/adapters/export/xlsx"
	"github.com/ogurasousui/codex-labor-insights/internal/adapters/grpc/handler"
	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/insight"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/ogurasousui/codex-labor-insights/internal/core/reconcile"
	"github.com/ogurasousui/codex-labor-insights/internal/platform/config"
	"github.com/ogurasousui/codex-labor-insights/internal/platform/logging"
)

// labor-report は CSV エクスポートのディレクトリからレポートを作成します。
//
//	labor-report -dir assets/csv/demo -store <uuid> -week 2026-W09 -report reconcile
//	labor-report -dir exports -store <uuid> -week 2026-02-23 -report all -format xlsx -out week09.xlsx
//	labor-report -dir exports -store <uuid> -report breakdown -from 2026-02-01 -to 2026-02-28
func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("labor-report: %v", err)
	}
}

type options struct {
	dir        string
	storeID    string
	week       string
	from       string
	to         string
	report     string
	format     string
	out        string
	timezone   string
	hours      string
	policy     string
	threshold  string
	tolerance  int64
	logLevel   string
	configPath string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("labor-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.dir, "dir", "assets/csv/demo", "directory containing the CSV exports")
	fs.StringVar(&o.storeID, "store", "", "store id (required)")
	fs.StringVar(&o.week, "week", "", "week as YYYY-Www or a Monday date YYYY-MM-DD")
	fs.StringVar(&o.from, "from", "", "first date of the breakdown period (YYYY-MM-DD)")
	fs.StringVar(&o.to, "to", "", "last date of the breakdown period, inclusive (YYYY-MM-DD)")
	fs.StringVar(&o.report, "report", "reconcile", "reconcile | insights | breakdown | all")
	fs.StringVar(&o.format, "format", "json", "json | xlsx")
	fs.StringVar(&o.out, "out", "", "output file (required for xlsx, stdout for json when empty)")
	fs.StringVar(&o.configPath, "config", "", "optional config file providing the insights defaults")
	fs.StringVar(&o.timezone, "tz", "", "store timezone (IANA name)")
	fs.StringVar(&o.hours, "hours", "", "reportable hours as first-last, e.g. 6-14")
	fs.StringVar(&o.policy, "policy", "", "staff attribution policy: hours_weighted | equal")
	fs.StringVar(&o.threshold, "threshold", "", "underutilisation threshold (revenue per staff member)")
	fs.Int64Var(&o.tolerance, "tolerance", -1, "variance tolerance in minutes; 0 flags any variance (default from -config, else 15)")
	fs.StringVar(&o.logLevel, "log-level", "warn", "debug | info | warn | error")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.storeID == "" {
		fs.Usage()
		return options{}, fmt.Errorf("-store is required")
	}
	switch o.report {
	case "reconcile", "insights", "all":
		if o.week == "" {
			return options{}, fmt.Errorf("-week is required for the %s report", o.report)
		}
	case "breakdown":
		if o.from == "" || o.to == "" {
			return options{}, fmt.Errorf("-from and -to are required for the breakdown report")
		}
	default:
		return options{}, fmt.Errorf("unsupported report %q", o.report)
	}
	switch o.format {
	case "json":
	case "xlsx":
		if o.out == "" {
			return options{}, fmt.Errorf("-out is required for xlsx output")
		}
		if o.report == "breakdown" {
			return options{}, fmt.Errorf("xlsx output supports the reconcile, insights and all reports")
		}
	default:
		return options{}, fmt.Errorf("unsupported format %q", o.format)
	}
	return o, nil
}

// settings は設定ファイル (任意) を既定値とし、フラグで上書きします。
func (o options) settings() (config.InsightsConfig, error) {
	var ins config.InsightsConfig
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return ins, err
		}
		ins = cfg.Insights
	}

	if o.timezone != "" {
		ins.Timezone = o.timezone
	}
	if o.hours != "" {
		first, last, ok := strings.Cut(o.hours, "-")
		f, errFirst := strconv.Atoi(strings.TrimSpace(first))
		l, errLast := strconv.Atoi(strings.TrimSpace(last))
		if !ok || errFirst != nil || errLast != nil {
			return ins, fmt.Errorf("-hours %q must look like 6-14", o.hours)
		}
		ins.ReportableHours = config.ReportableHours{First: f, Last: l}
	}
	if o.policy != "" {
		ins.AttributionPolicy = o.policy
	}
	if o.threshold != "" {
		ins.UnderutilisedThresholdRaw = o.threshold
	}
	if o.tolerance >= 0 {
		tolerance := o.tolerance
		ins.VarianceToleranceMinutes = &tolerance
	}

	if err := ins.Normalize(); err != nil {
		return ins, err
	}
	return ins, nil
}

type output struct {
	Reconcile *reconcile.WeeklyComparisonReport
	Insights  *insight.WeeklyInsightReport
	Breakdown *insight.ContributionBreakdown
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	ins, err := o.settings()
	if err != nil {
		return err
	}
	policy, err := insight.ParsePolicy(ins.AttributionPolicy)
	if err != nil {
		return err
	}

	logger := logging.New(config.LoggingConfig{Level: o.logLevel, Format: "text"}, stderr)
	loc := ins.Location

	src, err := csvfile.Open(o.dir, loc, logger)
	if err != nil {
		return err
	}

	upstream := labor.NewUpstream(0, time.Millisecond, logger)
	hours := insight.HourRange{First: ins.ReportableHours.First, Last: ins.ReportableHours.Last}
	insightSvc := insight.NewService(src.Sources(), insight.Settings{
		Location:  loc,
		Hours:     hours,
		Threshold: ins.UnderutilisedThreshold,
		Policy:    policy,
	}, upstream, nil, nil, logger)
	reconcileSvc := reconcile.NewService(src.Sources(), reconcile.Settings{
		Location:         loc,
		Hours:            hours,
		ToleranceMinutes: ins.VarianceToleranceMinutes,
	}, nil, upstream, logger)

	var out output
	if o.report == "breakdown" {
		period, err := parsePeriod(o.from, o.to, loc)
		if err != nil {
			return err
		}
		if out.Breakdown, err = insightSvc.ContributionBreakdown(ctx, o.storeID, period); err != nil {
			return err
		}
	} else {
		monday, err := calendar.ParseWeekStart(o.week, loc)
		if err != nil {
			return err
		}
		if o.report == "reconcile" || o.report == "all" {
			if out.Reconcile, err = reconcileSvc.ReconcileWeek(ctx, o.storeID, monday); err != nil {
				return err
			}
		}
		if o.report == "insights" || o.report == "all" {
			if out.Insights, err = insightSvc.WeeklyInsights(ctx, o.storeID, monday); err != nil {
				return err
			}
		}
	}

	if o.format == "xlsx" {
		return writeWorkbook(o.out, loc, out)
	}
	return writeJSON(o.out, stdout, loc, out)
}

func parsePeriod(from, to string, loc *time.Location) (calendar.Window, error) {
	start, err := time.ParseInLocation(calendar.DateLayout, from, loc)
	if err != nil {
		return calendar.Window{}, fmt.Errorf("-from %q: %w", from, labor.ErrInvalidPeriod)
	}
	end, err := time.ParseInLocation(calendar.DateLayout, to, loc)
	if err != nil {
		return calendar.Window{}, fmt.Errorf("-to %q: %w", to, labor.ErrInvalidPeriod)
	}
	return calendar.Window{Start: start, End: end.AddDate(0, 0, 1)}, nil
}

func writeJSON(path string, stdout io.Writer, loc *time.Location, out output) error {
	body := map[string]any{}
	if out.Reconcile != nil {
		body["reconcile"] = handler.ComparisonReportToMap(out.Reconcile, loc)
	}
	if out.Insights != nil {
		body["insights"] = handler.InsightReportToMap(out.Insights, loc)
	}
	if out.Breakdown != nil {
		body["breakdown"] = handler.BreakdownToMap(out.Breakdown, loc)
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate JSON report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeWorkbook(path string, loc *time.Location, out output) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return xlsx.NewExporter(loc).Write(file, out.Reconcile, out.Insights)
}
