package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构
// 设计说明:使用Viper管理配置,支持YAML文件、环境变量覆盖、默认值
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Lock      LockConfig      `mapstructure:"lock"`
	MQ        MQConfig        `mapstructure:"mq"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// 存储驱动
const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

// StorageConfig 存储选择
// memory驱动用于本地开发和演示,不依赖MySQL/Redis
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // mysql | memory
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN 生成MySQL连接字符串
// 格式:user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
// 注意:loc参数需要URL编码(Asia/Shanghai → Asia%2FShanghai)
func (d DatabaseConfig) DSN() string {
	loc := url.QueryEscape(d.Loc)
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, d.ParseTime, loc)
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 返回Redis地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpire  time.Duration `mapstructure:"access_token_expire"`
	RefreshTokenExpire time.Duration `mapstructure:"refresh_token_expire"`
}

type LogConfig struct {
	Level        string `mapstructure:"level"`  // debug | info | warn | error
	Format       string `mapstructure:"format"` // console | json
	Output       string `mapstructure:"output"` // stdout | stderr | /path/to/file
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// 锁驱动
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// LockConfig 结算锁配置
// local:进程内互斥锁(单实例);redis:分布式锁(多实例部署)
type LockConfig struct {
	Driver     string        `mapstructure:"driver"`      // local | redis
	TTL        time.Duration `mapstructure:"ttl"`         // 分布式锁过期时间,需大于一次结算耗时
	RetryDelay time.Duration `mapstructure:"retry_delay"` // 获取失败后的重试间隔
	WaitTime   time.Duration `mapstructure:"wait_time"`   // 最长等待时间,超时返回ErrLockTimeout
}

// MQConfig 事件发布配置
type MQConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	Exchange     string        `mapstructure:"exchange"`
	ExchangeType string        `mapstructure:"exchange_type"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`  // 半开状态允许的请求数
	Interval     time.Duration `mapstructure:"interval"`      // 关闭状态计数清零周期
	Timeout      time.Duration `mapstructure:"timeout"`       // 打开状态持续时间
	FailureRatio float64       `mapstructure:"failure_ratio"` // 触发熔断的失败率
	MinRequests  uint32        `mapstructure:"min_requests"`  // 计算失败率的最少请求数
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"` // OTLP gRPC地址,如localhost:4317
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Insecure    bool    `mapstructure:"insecure"` // 不启用TLS(本地Collector)
}

// MetricsConfig 监控指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RecommendConfig 推荐配置
type RecommendConfig struct {
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// RateLimitConfig 结算接口限流(按用户令牌桶)
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// AdminConfig 启动时确保存在的管理员账号,Email为空时跳过
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Nickname string `mapstructure:"nickname"`
}

// EnvPrefix 环境变量前缀
const EnvPrefix = "BOOKSHELF"

// Load 加载配置文件
// 支持:
// 1. 默认加载config/config.yaml
// 2. 通过环境变量BOOKSHELF_ENV指定环境(如config.prod.yaml)
// 3. 环境变量覆盖(如BOOKSHELF_DATABASE_PASSWORD → database.password)
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 环境特定配置(如config.prod.yaml)
	if env := os.Getenv(EnvPrefix + "_ENV"); env != "" {
		v.SetConfigName("config." + env)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return unmarshal(v)
}

// LoadFile 从指定路径加载配置(命令行-config参数)
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// 环境变量绑定,key中的"."替换为"_"
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults 默认值,配置文件中缺省的字段使用这里的值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("storage.driver", StorageMySQL)

	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.loc", "Local")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("jwt.access_token_expire", 2*time.Hour)
	v.SetDefault("jwt.refresh_token_expire", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("lock.driver", LockLocal)
	v.SetDefault("lock.ttl", 10*time.Second)
	v.SetDefault("lock.retry_delay", 50*time.Millisecond)
	v.SetDefault("lock.wait_time", 5*time.Second)

	v.SetDefault("mq.exchange", "bookshelf.events")
	v.SetDefault("mq.exchange_type", "topic")
	v.SetDefault("mq.breaker.max_requests", 1)
	v.SetDefault("mq.breaker.interval", time.Minute)
	v.SetDefault("mq.breaker.timeout", 30*time.Second)
	v.SetDefault("mq.breaker.failure_ratio", 0.6)
	v.SetDefault("mq.breaker.min_requests", 5)

	v.SetDefault("tracing.service_name", "bookshelf")
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("recommend.default_limit", 10)
	v.SetDefault("recommend.max_limit", 50)
	v.SetDefault("recommend.cache_enabled", true)
	v.SetDefault("recommend.cache_ttl", 5*time.Minute)

	v.SetDefault("ratelimit.rps", 2)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.nickname", "admin")
}

// validate 配置校验
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的服务端口: %d", cfg.Server.Port)
	}

	switch cfg.Storage.Driver {
	case StorageMySQL, StorageMemory:
	default:
		return fmt.Errorf("无效的存储驱动: %s", cfg.Storage.Driver)
	}

	switch cfg.Lock.Driver {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("无效的锁驱动: %s", cfg.Lock.Driver)
	}
	if cfg.Lock.Driver == LockRedis && cfg.Storage.Driver == StorageMemory {
		return fmt.Errorf("memory存储不支持redis锁")
	}

	if cfg.JWT.Secret == "" {
		return fmt.Errorf("JWT密钥不能为空")
	}
	if cfg.JWT.Secret == "your-secret-key-change-in-production" && cfg.Server.Mode == "release" {
		return fmt.Errorf("生产环境必须修改JWT密钥")
	}

	if cfg.Recommend.DefaultLimit <= 0 || cfg.Recommend.MaxLimit < cfg.Recommend.DefaultLimit {
		return fmt.Errorf("无效的推荐数量配置: default=%d max=%d", cfg.Recommend.DefaultLimit, cfg.Recommend.MaxLimit)
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("采样率必须在0-1之间: %v", cfg.Tracing.SampleRatio)
	}

	if cfg.Admin.Email != "" && cfg.Admin.Password == "" {
		return fmt.Errorf("管理员密码不能为空")
	}

	return nil
}
