package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Insights InsightsConfig `yaml:"insights"`
	Upstream UpstreamConfig `yaml:"upstream"`
}

// ServerConfig は gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr        string        `yaml:"listen_addr"`
	RequestTimeout    time.Duration `yaml:"-"`
	RequestTimeoutRaw string        `yaml:"request_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// LoggingConfig はログ出力の設定です。
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReportableHours はレポート対象の時間帯 (両端を含む) です。
type ReportableHours struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

// InsightsConfig は集計と配分の設定です。
type InsightsConfig struct {
	Timezone                  string          `yaml:"timezone"`
	Location                  *time.Location  `yaml:"-"`
	ReportableHours           ReportableHours `yaml:"reportable_hours"`
	UnderutilisedThreshold    decimal.Decimal `yaml:"-"`
	UnderutilisedThresholdRaw string          `yaml:"underutilised_threshold"`
	AttributionPolicy         string          `yaml:"attribution_policy"`
	VarianceToleranceMinutes  *int64          `yaml:"variance_tolerance_minutes"`
}

// ToleranceMinutes は差異の許容範囲 (分) を返します。未設定の場合は 15 分です。0 は差異を一切許容しません。
func (i InsightsConfig) ToleranceMinutes() int64 {
	if i.VarianceToleranceMinutes == nil {
		return 15
	}
	return *i.VarianceToleranceMinutes
}

// UpstreamConfig は外部コラボレーター呼び出しの再試行設定です。
type UpstreamConfig struct {
	MaxRetries        *int          `yaml:"max_retries"`
	InitialBackoff    time.Duration `yaml:"-"`
	InitialBackoffRaw string        `yaml:"initial_backoff"`
}

// Retries は再試行回数を返します。未設定の場合は 1 回です。
func (u UpstreamConfig) Retries() int {
	if u.MaxRetries == nil {
		return 1
	}
	return *u.MaxRetries
}

// Load は指定されたパスから設定ファイルを読み込みます。${VAR} 形式の参照は環境変数で展開します。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandEnv は ${VAR} だけを展開します。$ 単体はそのまま残します。
func expandEnv(raw string) string {
	var b strings.Builder
	for {
		start := strings.Index(raw, "${")
		if start < 0 {
			b.WriteString(raw)
			return b.String()
		}
		end := strings.Index(raw[start:], "}")
		if end < 0 {
			b.WriteString(raw)
			return b.String()
		}
		b.WriteString(raw[:start])
		b.WriteString(os.Getenv(raw[start+2 : start+end]))
		raw = raw[start+end+1:]
	}
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}
	timeout, err := parseDurationAllowEmpty(c.Server.RequestTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.request_timeout: %w", err)
	}
	c.Server.RequestTimeout = timeout

	db := &c.Database
	if err := db.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Logging.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Insights.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Upstream.validateAndNormalize(); err != nil {
		return err
	}

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (l *LoggingConfig) validateAndNormalize() error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	switch l.Level {
	case "":
		l.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level %q is not supported", l.Level)
	}

	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	switch l.Format {
	case "":
		l.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("config: logging.format %q is not supported", l.Format)
	}
	return nil
}

// Normalize は既定値を補完して検証します。設定ファイルを使わずに組み立てた場合に呼び出します。
func (i *InsightsConfig) Normalize() error {
	return i.validateAndNormalize()
}

func (i *InsightsConfig) validateAndNormalize() error {
	if i.Timezone == "" {
		i.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(i.Timezone)
	if err != nil {
		return fmt.Errorf("config: insights.timezone: %w", err)
	}
	i.Location = loc

	h := i.ReportableHours
	if h.First == 0 && h.Last == 0 {
		i.ReportableHours = ReportableHours{First: 0, Last: 23}
	} else if h.First < 0 || h.Last > 23 || h.First > h.Last {
		return fmt.Errorf("config: insights.reportable_hours %d-%d must be within 0..23 and first <= last", h.First, h.Last)
	}

	raw := strings.TrimSpace(i.UnderutilisedThresholdRaw)
	if raw == "" {
		raw = "0"
	}
	threshold, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("config: insights.underutilised_threshold: %w", err)
	}
	if threshold.IsNegative() {
		return fmt.Errorf("config: insights.underutilised_threshold must not be negative")
	}
	i.UnderutilisedThreshold = threshold

	i.AttributionPolicy = strings.ToLower(strings.TrimSpace(i.AttributionPolicy))
	if i.AttributionPolicy == "" {
		i.AttributionPolicy = "hours_weighted"
	}

	if i.VarianceToleranceMinutes != nil && *i.VarianceToleranceMinutes < 0 {
		return fmt.Errorf("config: insights.variance_tolerance_minutes must not be negative")
	}
	return nil
}

func (u *UpstreamConfig) validateAndNormalize() error {
	if u.MaxRetries != nil && *u.MaxRetries < 0 {
		return fmt.Errorf("config: upstream.max_retries must not be negative")
	}
	backoff, err := parseDurationAllowEmpty(u.InitialBackoffRaw)
	if err != nil {
		return fmt.Errorf("config: upstream.initial_backoff: %w", err)
	}
	if backoff == 0 {
		backoff = 100 * time.Millisecond
	}
	u.InitialBackoff = backoff
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。ユーザー名とパスワードはエスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
