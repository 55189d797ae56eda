package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server      ServerConfig              `mapstructure:"server"`      // 服务器配置
	Database    DatabaseConfig            `mapstructure:"database"`    // 数据库配置
	Sync        SyncConfig                `mapstructure:"sync"`        // 采集调度配置
	Aggregation AggregationConfig         `mapstructure:"aggregation"` // 聚合与保留策略配置
	Export      ExportConfig              `mapstructure:"export"`      // 导出配置
	Platforms   map[string]PlatformConfig `mapstructure:"platforms"`   // 多平台独立配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig 数据库配置（sqlite 单文件库 或 postgres）
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`            // sqlite/postgres
	Path            string        `mapstructure:"path"`              // sqlite 数据库文件路径
	DSN             string        `mapstructure:"dsn"`               // postgres 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// SyncConfig 采集调度配置
type SyncConfig struct {
	Cron             string   `mapstructure:"cron"`              // 全局采集+聚合 Cron表达式
	EnabledPlatforms []string `mapstructure:"enabled_platforms"` // 启用的平台列表
}

// AggregationConfig 聚合与保留策略配置
type AggregationConfig struct {
	HourlyLookbackHours int `mapstructure:"hourly_lookback_hours"` // 小时桶回看窗口（默认48）
	RawRetentionDays    int `mapstructure:"raw_retention_days"`    // 原始样本保留天数（默认7）
	HourlyRetentionDays int `mapstructure:"hourly_retention_days"` // 小时表保留天数（默认14）
}

// ExportConfig 导出配置
type ExportConfig struct {
	OutputDir     string `mapstructure:"output_dir"`     // JSON输出目录
	LatestDays    int    `mapstructure:"latest_days"`    // latest_kpis 覆盖天数（默认7）
	WeeklyWindow  int    `mapstructure:"weekly_window"`  // 周表导出窗口（默认12周）
	MonthlyWindow int    `mapstructure:"monthly_window"` // 月表导出窗口（默认12月）
}

// PlatformConfig 单个平台的独立配置
type PlatformConfig struct {
	BaseURL      string  `mapstructure:"base_url"`      // API基础地址
	AuthURL      string  `mapstructure:"auth_url"`      // OAuth2 token地址（Twitch/IGDB用）
	Timeout      int     `mapstructure:"timeout"`       // 请求超时（秒）
	RetryCount   int     `mapstructure:"retry_count"`   // 重试次数
	RetryDelay   float64 `mapstructure:"retry_delay"`   // 重试基础延迟（秒，指数退避）
	RequestDelay float64 `mapstructure:"request_delay"` // 相邻请求间隔（秒，限速用）
	ClientID     string  `mapstructure:"client_id"`     // OAuth2 Client ID（Twitch/IGDB共用Twitch凭证）
	ClientSecret string  `mapstructure:"client_secret"` // OAuth2 Client Secret
	Proxy        string  `mapstructure:"proxy"`         // 代理地址
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	// 4. 凭证校验必须在任何网络/数据库操作之前完成
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	// Twitch 与 IGDB 共用同一组 Twitch 开发者凭证
	for _, name := range []string{"twitch", "igdb"} {
		p, ok := cfg.Platforms[name]
		if !ok {
			continue
		}
		if v := os.Getenv("TWITCH_CLIENT_ID"); v != "" {
			p.ClientID = v
		}
		if v := os.Getenv("TWITCH_CLIENT_SECRET"); v != "" {
			p.ClientSecret = v
		}
		cfg.Platforms[name] = p
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Aggregation.HourlyLookbackHours <= 0 {
		cfg.Aggregation.HourlyLookbackHours = 48
	}
	if cfg.Aggregation.RawRetentionDays <= 0 {
		cfg.Aggregation.RawRetentionDays = 7
	}
	if cfg.Aggregation.HourlyRetentionDays <= 0 {
		cfg.Aggregation.HourlyRetentionDays = 14
	}
	if cfg.Export.LatestDays <= 0 {
		cfg.Export.LatestDays = 7
	}
	if cfg.Export.WeeklyWindow <= 0 {
		cfg.Export.WeeklyWindow = 12
	}
	if cfg.Export.MonthlyWindow <= 0 {
		cfg.Export.MonthlyWindow = 12
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "data/exports"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "data/gaming.db"
	}
}

// Validate 启动期校验：启用了需要凭证的平台但没配凭证，直接失败并给出可操作的提示
func (c *Config) Validate() error {
	for _, name := range c.Sync.EnabledPlatforms {
		if name != "twitch" && name != "igdb" {
			continue
		}
		p, ok := c.Platforms[name]
		if !ok {
			return fmt.Errorf("平台%s已启用但缺少 platforms.%s 配置段", name, name)
		}
		if p.ClientID == "" || p.ClientSecret == "" {
			return fmt.Errorf(
				"平台%s缺少凭证：请在 .env 中设置 TWITCH_CLIENT_ID / TWITCH_CLIENT_SECRET（申请地址 https://dev.twitch.tv/console）",
				name,
			)
		}
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.driver=postgres 但未设置 DSN（config.yaml 或 DATABASE_DSN）")
	}
	return nil
}

// PlatformEnabled 判断平台是否在启用列表中
func (c *Config) PlatformEnabled(name string) bool {
	for _, p := range c.Sync.EnabledPlatforms {
		if p == name {
			return true
		}
	}
	return false
}
