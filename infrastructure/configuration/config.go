package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"omnipost/infrastructure/logger"

	"github.com/spf13/viper"
)

const appDirName = "OmniPost"

type Config struct {
	App         App         `json:"app"`
	OAuth       OAuth       `json:"oauth"`
	Publish     Publish     `json:"publish"`
	Store       Store       `json:"store"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Logger      Logger      `json:"logger"`
	Browser     Browser     `json:"browser"`
	Metrics     Metrics     `json:"metrics"`
}

type App struct {
	Port         int      `json:"port"`
	SecretKey    string   `json:"secretKey"`
	AllowOrigins []string `json:"allowOrigins"`
}

// OAuth holds the connection flow settings shared by every provider.
type OAuth struct {
	// RedirectURI must match what is registered with every provider app.
	RedirectURI     string        `json:"redirectURI"`
	SessionTTL      time.Duration `json:"sessionTTL"`
	HTTPTimeout     time.Duration `json:"httpTimeout"`
	CredentialsFile string        `json:"credentialsFile"`
}

type Publish struct {
	AttemptTimeout time.Duration `json:"attemptTimeout"`
	Concurrency    int           `json:"concurrency"`
}

// Store selects the snapshot backend: file, postgres, mssql, mysql, mongo or redis.
type Store struct {
	Driver  string `json:"driver"`
	DataDir string `json:"dataDir"`
	File    string `json:"file"`
	Key     string `json:"key"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
	DB       int    `json:"db"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

type Browser struct {
	Enabled bool `json:"enabled"`
}

type Metrics struct {
	Enabled bool `json:"enabled"`
}

var C Config

func init() {
	Reload()
}

// Reload re-reads the config file and environment into C. Call it after loading env files.
func Reload() {
	LoadConfig()
	initApp(&C)
	initStore(&C)
	logger.Configure(C.Logger.Format, C.Logger.Level)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", 8765)
	v.SetDefault("app.allowOrigins", []string{"http://localhost:4200", "http://localhost:5173", "http://localhost:8765"})
	v.SetDefault("oauth.redirectURI", "http://localhost:8765/callback")
	v.SetDefault("oauth.sessionTTL", "10m")
	v.SetDefault("oauth.httpTimeout", "15s")
	v.SetDefault("publish.attemptTimeout", "10s")
	v.SetDefault("publish.concurrency", 4)
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.file", "store.json")
	v.SetDefault("store.key", "omnipost:snapshot")
	v.SetDefault("pubsub.topic", "omnipost-posts")
	v.SetDefault("serviceBus.queue", "omnipost-posts")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.level", "info")
	v.SetDefault("browser.enabled", true)
	v.SetDefault("metrics.enabled", true)
}

func LoadConfig() {
	name := getConfig()
	v := viper.GetViper()
	setDefaults(v)
	v.SetConfigName(name)
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	v.AddConfigPath("../../")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().WithField("config", name).Debug("Config file not found, using defaults")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := v.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
	logger.GetLogger().WithField("config", name).Debug("Config set up successfully")
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 8765
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 8765
	}
	if C.OAuth.SessionTTL <= 0 {
		C.OAuth.SessionTTL = 10 * time.Minute
	}
	if C.OAuth.HTTPTimeout <= 0 {
		C.OAuth.HTTPTimeout = 15 * time.Second
	}
	if C.Publish.AttemptTimeout <= 0 {
		C.Publish.AttemptTimeout = 10 * time.Second
	}
	if C.Publish.Concurrency <= 0 {
		C.Publish.Concurrency = 1
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Debug("App.SecretKey not set; local API runs without token authentication")
	}
}

func initStore(C *Config) {
	if v := os.Getenv("OMNIPOST_DATA_DIR"); v != "" {
		C.Store.DataDir = v
	}
	if C.Store.DataDir == "" {
		C.Store.DataDir = DefaultDataDir()
	}
	if C.OAuth.CredentialsFile == "" {
		C.OAuth.CredentialsFile = filepath.Join(C.Store.DataDir, "oauth_credentials.json")
	}
	if !filepath.IsAbs(C.Store.File) {
		C.Store.File = filepath.Join(C.Store.DataDir, C.Store.File)
	}
}

// DefaultDataDir is the per-user application data directory.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, appDirName)
}
