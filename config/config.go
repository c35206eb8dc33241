package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	CheckIn  CheckInConfig  `mapstructure:"checkin"`
	Cron     CronConfig     `mapstructure:"cron"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port      int        `mapstructure:"port"`
	BaseURL   string     `mapstructure:"base_url"`
	BodyLimit int64      `mapstructure:"body_limit"` // 字节
	CORS      CORSConfig `mapstructure:"cors"`
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
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分钟
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
	Sampling    bool     `mapstructure:"sampling"`
}

// StorageConfig 对象存储（阿里云 OSS）与图片处理配置
type StorageConfig struct {
	Endpoint        string  `mapstructure:"endpoint"`
	AccessKeyID     string  `mapstructure:"access_key_id"`
	AccessKeySecret string  `mapstructure:"access_key_secret"`
	Bucket          string  `mapstructure:"bucket"`
	PublicBase      string  `mapstructure:"public_base"`
	Prefix          string  `mapstructure:"prefix"`
	LocalDir        string  `mapstructure:"local_dir"` // 未配置 OSS 时的本地目录
	MaxUploadSize   int64   `mapstructure:"max_upload_size"`
	ImageMaxWidth   int     `mapstructure:"image_max_width"`
	ImageMaxHeight  int     `mapstructure:"image_max_height"`
	WebPQuality     float32 `mapstructure:"webp_quality"`
}

// Enabled 是否配置了 OSS
func (c *StorageConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// PreviewConfig 实时预览同步配置
type PreviewConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	MinInterval   time.Duration `mapstructure:"min_interval"`
	ForceInterval time.Duration `mapstructure:"force_interval"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
}

// CheckInConfig 签到码配置
type CheckInConfig struct {
	CodeLength      int           `mapstructure:"code_length"`
	DefaultValidity time.Duration `mapstructure:"default_validity"`
}

// CronConfig 定时任务配置
type CronConfig struct {
	CheckInSweep  string `mapstructure:"checkin_sweep"`
	PreviewReaper string `mapstructure:"preview_reaper"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > .env > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.body_limit", 10<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "mentor_hub")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Shanghai")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.sampling", true)

	v.SetDefault("storage.prefix", "uploads")
	v.SetDefault("storage.local_dir", "./data")
	v.SetDefault("storage.max_upload_size", 5<<20)
	v.SetDefault("storage.image_max_width", 1600)
	v.SetDefault("storage.image_max_height", 1600)
	v.SetDefault("storage.webp_quality", 80)

	v.SetDefault("preview.debounce", "300ms")
	v.SetDefault("preview.min_interval", "100ms")
	v.SetDefault("preview.force_interval", "2s")
	v.SetDefault("preview.idle_timeout", "30m")

	v.SetDefault("checkin.code_length", 6)
	v.SetDefault("checkin.default_validity", "2h")

	v.SetDefault("cron.checkin_sweep", "@every 5m")
	v.SetDefault("cron.preview_reaper", "@every 1m")

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
	v.SetEnvPrefix("MENTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
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
	if c.Preview.Debounce <= 0 || c.Preview.MinInterval <= 0 || c.Preview.ForceInterval <= 0 {
		return fmt.Errorf("配置校验失败: preview 时间参数必须为正数")
	}
	if c.CheckIn.CodeLength < 6 || c.CheckIn.CodeLength > 12 {
		return fmt.Errorf("配置校验失败: checkin.code_length 必须在 6-12 之间")
	}
	return nil
}
