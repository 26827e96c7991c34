package insight

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ogurasousui/codex-labor-insights/internal/core/labor"
	"github.com/shopspring/decimal"
)

// Policy は職種売上をスタッフへ配分する方式です。
type Policy string

const (
	// PolicyHoursWeighted は期間内の実勤務時間に比例して配分します。
	// 同職種の誰にも勤務実績がない場合は均等配分に切り替えます。
	PolicyHoursWeighted Policy = "hours_weighted"
	// PolicyEqual は職種の保有者で均等に配分します。
	PolicyEqual Policy = "equal"
)

// UncategorizedCategory はカテゴリ不明の売上を集計するキーです。
const UncategorizedCategory = "Uncategorized"

var hundred = decimal.NewFromInt(100)

// ParsePolicy は設定値から Policy を返します。空文字は PolicyHoursWeighted です。
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyHoursWeighted:
		return PolicyHoursWeighted, nil
	case PolicyEqual:
		return PolicyEqual, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, labor.ErrInvalidPolicy)
	}
}

// StaffMember は期間内にその職種を担当したスタッフです。
type StaffMember struct {
	ID            string
	Name          string
	JobTitle      string
	WorkedMinutes int64
}

// DisplayName は集計キーとして使う名前を返します。
func (m StaffMember) DisplayName() string {
	if name := strings.TrimSpace(m.Name); name != "" {
		return name
	}
	return m.ID
}

// DataIssue は計算から除外したレコードの記録です。
type DataIssue struct {
	RecordID string
	JobTitle string
	Category string
	Reason   string
}

// AttributionInput は Attribute の入力です。
type AttributionInput struct {
	RevenueByCategory map[string]decimal.Decimal
	Mappings          []*labor.ContributionMapping
	Staff             []StaffMember
}

// Attribution は職種別・スタッフ別の売上配分結果です。
type Attribution struct {
	RevenueByJobTitle  map[string]decimal.Decimal
	RevenueByStaffName map[string]decimal.Decimal
	Issues             []DataIssue
}

// Engine は貢献率設定に従ってカテゴリ売上を職種とスタッフに配分します。
type Engine struct {
	policy Policy
	logger *slog.Logger
}

// NewEngine は Engine を生成します。
func NewEngine(policy Policy, logger *slog.Logger) *Engine {
	if policy == "" {
		policy = PolicyHoursWeighted
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{policy: policy, logger: logger}
}

// Policy は適用中の配分方式を返します。
func (e *Engine) Policy() Policy {
	return e.policy
}

// Attribute は各設定 (職種, カテゴリ, 率) について カテゴリ売上 x 率 / 100 を職種に積み上げ、
// 職種の保有者へ配分します。カテゴリごとの率の合計は 100% である必要はありません。
func (e *Engine) Attribute(ctx context.Context, in AttributionInput) Attribution {
	mappings, issues := e.validMappings(ctx, in.Mappings)

	byTitle := make(map[string]decimal.Decimal)
	for _, m := range mappings {
		amount := in.RevenueByCategory[m.Category].Mul(m.Percentage).Div(hundred)
		byTitle[m.JobTitle] = byTitle[m.JobTitle].Add(amount)
	}

	holders := make(map[string][]StaffMember)
	for _, member := range in.Staff {
		title := strings.TrimSpace(member.JobTitle)
		if title == "" {
			continue
		}
		holders[title] = append(holders[title], member)
	}

	byStaff := make(map[string]decimal.Decimal)
	members := make(map[string]StaffMember, len(in.Staff))
	for _, title := range sortedKeys(byTitle) {
		if len(holders[title]) == 0 {
			e.logger.DebugContext(ctx, "job title has no active staff; staff-level attribution skipped",
				slog.String("job_title", title))
			continue
		}
		for _, m := range holders[title] {
			members[m.ID] = m
		}
		for id, share := range e.split(byTitle[title], holders[title]) {
			byStaff[id] = byStaff[id].Add(share)
		}
	}

	result := Attribution{
		RevenueByJobTitle:  make(map[string]decimal.Decimal, len(byTitle)),
		RevenueByStaffName: byDisplayName(byStaff, members),
		Issues:             issues,
	}
	for title, amount := range byTitle {
		result.RevenueByJobTitle[title] = amount.Round(2)
	}
	return result
}

// split は amount を小数点以下 2 桁で members に配分し、スタッフ ID ごとの額を返します。
// 端数は ID 順で最後のスタッフに寄せ、配分の合計が amount.Round(2) と一致するようにします。
func (e *Engine) split(amount decimal.Decimal, members []StaffMember) map[string]decimal.Decimal {
	var totalMinutes int64
	for _, m := range members {
		if m.WorkedMinutes > 0 {
			totalMinutes += m.WorkedMinutes
		}
	}

	weighted := e.policy == PolicyHoursWeighted && totalMinutes > 0
	recipients := make([]StaffMember, 0, len(members))
	for _, m := range members {
		if !weighted || m.WorkedMinutes > 0 {
			recipients = append(recipients, m)
		}
	}
	sort.SliceStable(recipients, func(i, j int) bool { return recipients[i].ID < recipients[j].ID })

	shares := make(map[string]decimal.Decimal, len(recipients))
	remaining := amount.Round(2)
	for i, m := range recipients {
		var share decimal.Decimal
		switch {
		case i == len(recipients)-1:
			share = remaining
		case weighted:
			share = amount.Mul(decimal.NewFromInt(m.WorkedMinutes)).DivRound(decimal.NewFromInt(totalMinutes), 2)
		default:
			share = amount.DivRound(decimal.NewFromInt(int64(len(recipients))), 2)
		}
		remaining = remaining.Sub(share)
		shares[m.ID] = shares[m.ID].Add(share)
	}
	return shares
}

// byDisplayName はスタッフ ID ごとの額を表示名のキーに置き換えます。
// 同名の別スタッフは合算せず、名前に ID を添えて区別します。
func byDisplayName(byID map[string]decimal.Decimal, members map[string]StaffMember) map[string]decimal.Decimal {
	holders := make(map[string]int, len(byID))
	for id := range byID {
		holders[members[id].displayNameOr(id)]++
	}

	out := make(map[string]decimal.Decimal, len(byID))
	for id, amount := range byID {
		name := members[id].displayNameOr(id)
		if holders[name] > 1 {
			name = fmt.Sprintf("%s (%s)", name, id)
		}
		out[name] = out[name].Add(amount)
	}
	return out
}

func (m StaffMember) displayNameOr(id string) string {
	if m.ID == "" {
		return id
	}
	return m.DisplayName()
}

type mappingKey struct {
	jobTitle string
	category string
}

// validMappings は同一 (職種, カテゴリ) の重複と範囲外の率を除外します。
// 重複している組はどちらが正しいか判断できないため、すべて除外します。
func (e *Engine) validMappings(ctx context.Context, in []*labor.ContributionMapping) ([]*labor.ContributionMapping, []DataIssue) {
	grouped := make(map[mappingKey][]*labor.ContributionMapping)
	order := make([]mappingKey, 0, len(in))
	for _, m := range in {
		if m == nil {
			continue
		}
		key := mappingKey{jobTitle: strings.TrimSpace(m.JobTitle), category: strings.TrimSpace(m.Category)}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], m)
	}

	var (
		valid  []*labor.ContributionMapping
		issues []DataIssue
	)
	for _, key := range order {
		group := grouped[key]
		if len(group) > 1 {
			for _, m := range group {
				issues = append(issues, e.reject(ctx, m, labor.ErrDuplicateMapping))
			}
			continue
		}

		m := group[0]
		if key.jobTitle == "" || key.category == "" || !m.Percentage.IsPositive() || m.Percentage.GreaterThan(hundred) {
			issues = append(issues, e.reject(ctx, m, labor.ErrMappingOutOfRange))
			continue
		}
		valid = append(valid, &labor.ContributionMapping{
			ID:         m.ID,
			StoreID:    m.StoreID,
			JobTitle:   key.jobTitle,
			Category:   key.category,
			Percentage: m.Percentage,
		})
	}
	return valid, issues
}

func (e *Engine) reject(ctx context.Context, m *labor.ContributionMapping, reason error) DataIssue {
	e.logger.WarnContext(ctx, "contribution mapping excluded",
		slog.String("mapping_id", m.ID),
		slog.String("store_id", m.StoreID),
		slog.String("job_title", m.JobTitle),
		slog.String("category", m.Category),
		slog.String("percentage", m.Percentage.String()),
		slog.Any("error", reason),
	)
	return DataIssue{RecordID: m.ID, JobTitle: m.JobTitle, Category: m.Category, Reason: reason.Error()}
}

// RevenueByCategory は売上をカテゴリごとに合計します。
func RevenueByCategory(txs []*labor.SalesTransaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		category := strings.TrimSpace(tx.Category)
		if category == "" {
			category = UncategorizedCategory
		}
		totals[category] = totals[category].Add(tx.Amount)
	}
	return totals
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
