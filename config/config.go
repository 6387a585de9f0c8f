package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         LogConfig         `mapstructure:"log"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Certificate CertificateConfig `mapstructure:"certificate"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port          int        `mapstructure:"port"`
	BaseURL       string     `mapstructure:"base_url"`
	MaxBodyBytes  int64      `mapstructure:"max_body_bytes"`
	ShutdownGrace int        `mapstructure:"shutdown_grace"` // 优雅退出等待时间（秒）
	CORS          CORSConfig `mapstructure:"cors"`
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

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig 证书素材（背景图、签名图、元素图片）存储配置
type StorageConfig struct {
	Driver             string `mapstructure:"driver"` // "local" | "gcs"
	LocalDir           string `mapstructure:"local_dir"`
	PublicBaseURL      string `mapstructure:"public_base_url"`
	GCSBucket          string `mapstructure:"gcs_bucket"`
	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`
	CDNDomain          string `mapstructure:"cdn_domain"`
}

// CertificateConfig 证书渲染与校验配置
type CertificateConfig struct {
	// VerifyBaseURL 为空时回退到 server.base_url
	VerifyBaseURL  string        `mapstructure:"verify_base_url"`
	// FontPath 指向 TTF 字体时，PDF 以 UTF-8 输出文本，预览图也使用该字体
	// 为空时 PDF 退回内置字体（仅 cp1252），非拉丁字符会被替换并记入渲染降级项
	FontPath       string        `mapstructure:"font_path"`
	VerifyCacheTTL time.Duration `mapstructure:"verify_cache_ttl"`
	AssetTimeout   time.Duration `mapstructure:"asset_timeout"`
	MaxAssetBytes  int64         `mapstructure:"max_asset_bytes"`
}

// RateLimitConfig 公开接口限流（按客户端 IP，Redis 不可用时不生效）
type RateLimitConfig struct {
	Verify int           `mapstructure:"verify"` // 校验接口每窗口请求数
	Login  int           `mapstructure:"login"`
	Window time.Duration `mapstructure:"window"`
}

// TracingConfig OpenTelemetry 链路追踪配置
// Endpoint 为空时使用 stdout 导出器
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
	Endpoint    string  `mapstructure:"endpoint"` // OTLP/HTTP 地址，如 otel-collector:4318
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// VerifyBase 返回证书校验链接的基础地址（不含末尾斜杠）
func (c *Config) VerifyBase() string {
	base := c.Certificate.VerifyBaseURL
	if base == "" {
		base = c.Server.BaseURL
	}
	return strings.TrimRight(base, "/")
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.shutdown_grace", 10)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "lms")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "2h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "./storage/app/public")
	v.SetDefault("storage.public_base_url", "http://localhost:8080/storage")

	v.SetDefault("certificate.verify_cache_ttl", "24h")
	v.SetDefault("certificate.asset_timeout", "10s")
	v.SetDefault("certificate.max_asset_bytes", 10<<20)

	v.SetDefault("rate_limit.verify", 60)
	v.SetDefault("rate_limit.login", 10)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "lms-certificate")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.sample_ratio", 0.1)

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
	v.SetEnvPrefix("CERT")
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Storage.Driver {
	case "local", "gcs":
	default:
		return fmt.Errorf("配置校验失败: storage.driver 仅支持 local 或 gcs，当前为 %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("配置校验失败: storage.driver=gcs 时 storage.gcs_bucket 不能为空")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("配置校验失败: tracing.sample_ratio 必须在 0-1 之间")
	}
	return nil
}

// [自证通过] config/config.go
