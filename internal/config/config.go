package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Quiz      QuizConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	WebSocket WebSocketConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MigrationsPath: путь к SQL-миграциям в формате source URL golang-migrate
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс

	// KeyPrefix: префикс ключей кеша
	KeyPrefix string `mapstructure:"key_prefix"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	ExpirationHrs     int    `mapstructure:"expirationHrs"`
	WSTicketExpirySec int    `mapstructure:"wsTicketExpirySec"` // Время жизни тикета для WebSocket в секундах
}

// QuizConfig содержит настройки прохождения теста
type QuizConfig struct {
	// MaxWriteAttempts: сколько раз повторять цикл чтение-переход-запись при конфликте версий
	MaxWriteAttempts int `mapstructure:"max_write_attempts"`
	// RetryBackoffMs: базовая пауза между попытками
	RetryBackoffMs int `mapstructure:"retry_backoff_ms"`
	// PersistTimeoutMs: ограничение на запись прогресса, не зависящее от отмены запроса
	PersistTimeoutMs int `mapstructure:"persist_timeout_ms"`
	// CatalogCacheTTLSec: время жизни кешированного каталога тем
	CatalogCacheTTLSec int `mapstructure:"catalog_cache_ttl_sec"`
}

// CORSConfig содержит список разрешённых источников
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RateLimitConfig содержит лимиты для эндпоинтов аутентификации
type RateLimitConfig struct {
	AuthMaxRequests int `mapstructure:"auth_max_requests"`
	AuthWindowSec   int `mapstructure:"auth_window_sec"`
}

// WebSocketConfig содержит настройки WebSocket-подсистемы
type WebSocketConfig struct {
	Cluster ClusterConfig
	Limits  LimitsConfig
}

// ClusterConfig содержит настройки кластеризации
type ClusterConfig struct {
	Enabled          bool
	InstanceID       string `mapstructure:"instance_id"`
	BroadcastChannel string `mapstructure:"broadcast_channel"`
}

// LimitsConfig содержит настройки ограничений соединения
type LimitsConfig struct {
	MaxMessageSize   int `mapstructure:"max_message_size"`
	WriteWait        int `mapstructure:"write_wait"` // секунды
	PongWait         int `mapstructure:"pong_wait"`  // секунды
	ClientSendBuffer int `mapstructure:"client_send_buffer"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RetryBackoff возвращает базовую паузу между попытками записи
func (q QuizConfig) RetryBackoff() time.Duration {
	return time.Duration(q.RetryBackoffMs) * time.Millisecond
}

// PersistTimeout возвращает ограничение времени на запись прогресса
func (q QuizConfig) PersistTimeout() time.Duration {
	return time.Duration(q.PersistTimeoutMs) * time.Millisecond
}

// CatalogCacheTTL возвращает время жизни кеша каталога тем
func (q QuizConfig) CatalogCacheTTL() time.Duration {
	return time.Duration(q.CatalogCacheTTLSec) * time.Second
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readTimeout", 10)
	vip.SetDefault("server.writeTimeout", 10)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.key_prefix", "mastery")

	// Время жизни токена совпадает с прежней версией сервиса: 5 часов
	vip.SetDefault("jwt.expirationHrs", 5)
	vip.SetDefault("jwt.wsTicketExpirySec", 60)

	vip.SetDefault("quiz.max_write_attempts", 5)
	vip.SetDefault("quiz.retry_backoff_ms", 10)
	vip.SetDefault("quiz.persist_timeout_ms", 5000)
	vip.SetDefault("quiz.catalog_cache_ttl_sec", 300)

	vip.SetDefault("rate_limit.auth_max_requests", 5)
	vip.SetDefault("rate_limit.auth_window_sec", 60)

	vip.SetDefault("websocket.cluster.broadcast_channel", "mastery:progress:broadcast")
	vip.SetDefault("websocket.limits.max_message_size", 512)
	vip.SetDefault("websocket.limits.write_wait", 10)
	vip.SetDefault("websocket.limits.pong_wait", 60)
	vip.SetDefault("websocket.limits.client_send_buffer", 64)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)

	// Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")
	vip.BindEnv("jwt.wsTicketExpirySec", "JWT_WSTICKETEXPIRYSEC")

	vip.BindEnv("quiz.max_write_attempts", "QUIZ_MAX_WRITE_ATTEMPTS")

	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("cors.allow_origins", "CORS_ALLOW_ORIGINS")

	vip.BindEnv("websocket.cluster.enabled", "WEBSOCKET_CLUSTER_ENABLED")
	vip.BindEnv("websocket.cluster.instance_id", "WEBSOCKET_INSTANCE_ID")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: значения придут из окружения и умолчаний
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Списки из окружения приходят одной строкой через запятую
	cfg.Redis.Addrs = splitList(cfg.Redis.Addrs)
	cfg.CORS.AllowOrigins = splitList(cfg.CORS.AllowOrigins)

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s (mode %s)", cfg.Redis.Addr, cfg.Redis.Mode)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Quiz Max Write Attempts: %d", cfg.Quiz.MaxWriteAttempts)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Websocket Cluster Enabled: %t", cfg.WebSocket.Cluster.Enabled)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required in config (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Quiz.MaxWriteAttempts < 1 {
		return fmt.Errorf("quiz.max_write_attempts must be at least 1, got %d", c.Quiz.MaxWriteAttempts)
	}
	if os.Getenv("GIN_MODE") == "release" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
