package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ServiceConfig points at the learninghouse service API.
type ServiceConfig struct {
	BaseURL          string
	Timeout          time.Duration
	BreakerRequests  uint32
	BreakerInterval  time.Duration
	BreakerTimeout   time.Duration
	UnprotectedPaths []string
}

type SessionConfig struct {
	// Backend is "memory" or "redis".
	Backend        string
	ID             string
	IdleTTL        time.Duration
	SealingSecret  string
	RefreshFailure string
	RevokeTimeout  time.Duration
	LoginRoute     string
	LandingRoute   string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type QueueConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	SigningSecret string
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	BucketResults string
	UseSSL        bool
	Region        string
}

type RetrainSchedule struct {
	Brain string
	Spec  string
}

type JobsConfig struct {
	SessionWatch string
	ModePoll     string
	Retrain      []RetrainSchedule
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Service          ServiceConfig
	Session          SessionConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Queue            QueueConfig
	Storage          StorageConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

type WorkerConfig struct {
	Environment string
	Service     ServiceConfig
	APIKey      string
	Postgres    PostgresConfig
	Redis       RedisConfig
	Queue       QueueConfig
	Storage     StorageConfig
	Logging     LoggingConfig
}

type LoggingConfig struct {
	Level string
}

func Load() (*AppConfig, error) {
	v := newViper("console", "LEARNINGHOUSE_CONSOLE")
	setDefaults(v)

	var cfg AppConfig
	if err := read(v, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadWorker() (*WorkerConfig, error) {
	v := newViper("worker", "LEARNINGHOUSE_WORKER")
	setWorkerDefaults(v)

	var cfg WorkerConfig
	if err := read(v, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper(name string, envPrefix string) *viper.Viper {
	// A local .env file fills in variables that are not already set.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func read(v *viper.Viper, out any) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if err := v.Unmarshal(out, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func setServiceDefaults(v *viper.Viper) {
	v.SetDefault("service.baseurl", "http://localhost:5000/api")
	v.SetDefault("service.timeout", "30s")
	v.SetDefault("service.breakerrequests", 5)
	v.SetDefault("service.breakerinterval", "10s")
	v.SetDefault("service.breakertimeout", "5s")
	v.SetDefault("service.unprotectedpaths", []string{"/auth/token", "/mode", "/versions"})
}

func setQueueDefaults(v *viper.Viper) {
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("queue.stream", "learninghouse:jobs")
	v.SetDefault("queue.group", "learninghouse-workers")
	v.SetDefault("queue.consumer", "worker-1")
	v.SetDefault("queue.claiminterval", "30s")

	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("storage.bucketresults", "learninghouse-results")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", 4200)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "0s") // session stream is long lived
	v.SetDefault("http.idletimeout", "60s")

	setServiceDefaults(v)
	setQueueDefaults(v)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.id", "console")
	v.SetDefault("session.idlettl", "8h")
	v.SetDefault("session.refreshfailure", "logout")
	v.SetDefault("session.revoketimeout", "5s")
	v.SetDefault("session.loginroute", "/auth")
	v.SetDefault("session.landingroute", "/brains/prediction")

	v.SetDefault("jobs.sessionwatch", "*/30 * * * * *")
	v.SetDefault("jobs.modepoll", "0 */5 * * * *")
}

func setWorkerDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	setServiceDefaults(v)
	setQueueDefaults(v)
	v.SetDefault("logging.level", "info")
}
