package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ogurasousui/codex-labor-insights/internal/core/calendar"
	"github.com/ogurasousui/codex-labor-insights/internal/core/insight"
	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/ogurasousui/codex-labor-insights/internal/core/reconcile"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// LaborGrpcHandler は LaborIntelligenceService の gRPC 実装です。
type LaborGrpcHandler struct {
	reconcile reconcile.UseCase
	insights  insight.UseCase
	loc       *time.Location
	logger    *slog.Logger
}

var _ LaborServiceServer = (*LaborGrpcHandler)(nil)

// NewLaborGrpcHandler は LaborGrpcHandler を生成します。loc は日付の解釈と出力に使う店舗の現地時刻です。
func NewLaborGrpcHandler(rec reconcile.UseCase, ins insight.UseCase, loc *time.Location, logger *slog.Logger) *LaborGrpcHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LaborGrpcHandler{reconcile: rec, insights: ins, loc: loc, logger: logger}
}

// ReconcileWeek は {store_id, week} を受け取り、週次の予定・実績比較を返します。
// week は YYYY-Www もしくは月曜日の YYYY-MM-DD です。
func (h *LaborGrpcHandler) ReconcileWeek(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	weekStart, err := h.weekStart(req)
	if err != nil {
		return nil, toStatusError(err)
	}

	report, err := h.reconcile.ReconcileWeek(ctx, stringField(req, "store_id"), weekStart)
	if err != nil {
		return nil, toStatusError(err)
	}

	return h.respond(ctx, ComparisonReportToMap(report, h.loc))
}

// WeeklyInsights は {store_id, week} を受け取り、週次の売上・人員インサイトを返します。
func (h *LaborGrpcHandler) WeeklyInsights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	weekStart, err := h.weekStart(req)
	if err != nil {
		return nil, toStatusError(err)
	}

	report, err := h.insights.WeeklyInsights(ctx, stringField(req, "store_id"), weekStart)
	if err != nil {
		return nil, toStatusError(err)
	}

	return h.respond(ctx, InsightReportToMap(report, h.loc))
}

// ContributionBreakdown は {store_id, from, to} を受け取ります。from と to は両端を含む YYYY-MM-DD です。
func (h *LaborGrpcHandler) ContributionBreakdown(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	period, err := h.period(stringField(req, "from"), stringField(req, "to"))
	if err != nil {
		return nil, toStatusError(err)
	}

	result, err := h.insights.ContributionBreakdown(ctx, stringField(req, "store_id"), period)
	if err != nil {
		return nil, toStatusError(err)
	}

	return h.respond(ctx, BreakdownToMap(result, h.loc))
}

func (h *LaborGrpcHandler) respond(ctx context.Context, body map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(body)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode response", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

func (h *LaborGrpcHandler) weekStart(req *structpb.Struct) (time.Time, error) {
	raw := stringField(req, "week")
	if raw == "" {
		raw = stringField(req, "week_start")
	}
	if raw == "" {
		return time.Time{}, fmt.Errorf("week is required: %w", labor.ErrInvalidInput)
	}

	monday, err := calendar.ParseWeekStart(raw, h.loc)
	if err != nil {
		if errors.Is(err, calendar.ErrNotMonday) {
			return time.Time{}, fmt.Errorf("%w: %w", labor.ErrWeekStartNotMonday, err)
		}
		return time.Time{}, fmt.Errorf("%w: %w", labor.ErrInvalidInput, err)
	}
	return monday, nil
}

func (h *LaborGrpcHandler) period(from, to string) (calendar.Window, error) {
	start, err := time.ParseInLocation(calendar.DateLayout, strings.TrimSpace(from), h.loc)
	if err != nil {
		return calendar.Window{}, fmt.Errorf("from %q: %w", from, labor.ErrInvalidPeriod)
	}
	end, err := time.ParseInLocation(calendar.DateLayout, strings.TrimSpace(to), h.loc)
	if err != nil {
		return calendar.Window{}, fmt.Errorf("to %q: %w", to, labor.ErrInvalidPeriod)
	}
	return calendar.Window{Start: start, End: end.AddDate(0, 0, 1)}, nil
}

func stringField(req *structpb.Struct, name string) string {
	v, ok := req.GetFields()[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}
