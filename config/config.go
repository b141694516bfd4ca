package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Address     string   `mapstructure:"address"`
		HTTPPort    string   `mapstructure:"http_port"`
		WebOrigin   string   `mapstructure:"web_origin"`
		CORSOrigins []string `mapstructure:"cors_origins"`
		Timezone    string   `mapstructure:"timezone"`
	} `mapstructure:"server"`

	Logging struct {
		Level  string `mapstructure:"level"`  // trace|debug|info|warning|error|fatal
		Format string `mapstructure:"format"` // text|json
		File   string `mapstructure:"file"`   // prefix of the log file, empty = stdout only
	} `mapstructure:"logs"`

	Database struct {
		Driver   string `mapstructure:"driver"` // postgres | mysql | sqlite
		DSN      string `mapstructure:"dsn"`
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Session struct {
		TTL           time.Duration `mapstructure:"ttl"`
		SeenThrottle  time.Duration `mapstructure:"seen_throttle"`
		LoginAttempts int64         `mapstructure:"login_attempts"`
		LoginWindow   time.Duration `mapstructure:"login_window"`
	} `mapstructure:"session"`

	Storage struct {
		Backend string `mapstructure:"backend"` // local | s3 | minio
		Dir     string `mapstructure:"dir"`
		S3      struct {
			Region string `mapstructure:"region"`
			Bucket string `mapstructure:"bucket"`
		} `mapstructure:"s3"`
		MinIO struct {
			Endpoint  string `mapstructure:"endpoint"`
			AccessKey string `mapstructure:"access_key"`
			SecretKey string `mapstructure:"secret_key"`
			Bucket    string `mapstructure:"bucket"`
			UseSSL    bool   `mapstructure:"use_ssl"`
		} `mapstructure:"minio"`
	} `mapstructure:"storage"`

	Terms struct {
		OutputDir string `mapstructure:"output_dir"`
		// revenda -> .docx template
		Templates       map[string]string `mapstructure:"templates"`
		ReturnTemplates map[string]string `mapstructure:"return_templates"`
	} `mapstructure:"terms"`

	Bootstrap struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"bootstrap"`
}

// Location resolves Server.Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Server.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DatabaseDSN returns Database.DSN or builds one from the discrete
// host/user/... settings.
func (c *Config) DatabaseDSN() string {
	db := c.Database
	if db.DSN != "" {
		return db.DSN
	}
	switch db.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			db.Host, db.User, db.Password, db.Name, db.Port)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=Local",
			db.User, db.Password, db.Host, db.Port, db.Name)
	default:
		return "inventory.db"
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", "3001")
	v.SetDefault("server.web_origin", "http://localhost:5173")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.timezone", "America/Bahia")

	v.SetDefault("logs.level", "info")
	v.SetDefault("logs.format", "text")
	v.SetDefault("logs.file", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "inventario")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.seen_throttle", "5m")
	v.SetDefault("session.login_attempts", 5)
	v.SetDefault("session.login_window", "15m")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.dir", "anexos")
	v.SetDefault("storage.s3.region", "sa-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", "")
	v.SetDefault("storage.minio.use_ssl", false)

	v.SetDefault("terms.output_dir", "termos")
	v.SetDefault("terms.templates", map[string]string{})
	v.SetDefault("terms.return_templates", map[string]string{})

	v.SetDefault("bootstrap.username", "admin")
	v.SetDefault("bootstrap.password", "")
}

// Load reads .env, then config.yaml (optional, CONFIG_FILE overrides the
// search path), then the environment. DATABASE_DRIVER overrides
// database.driver and so on.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// names kept from the first deployment
	_ = v.BindEnv("server.http_port", "SERVER_HTTP_PORT", "PORT")
	_ = v.BindEnv("database.host", "DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.port", "DATABASE_PORT", "DB_PORT")
	_ = v.BindEnv("database.user", "DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", "DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("database.name", "DATABASE_NAME", "DB_NAME")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "inventario"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func validate(c *Config) error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver: %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case "local":
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return errors.New("storage.dir must not be empty")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket must be set")
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return errors.New("storage.minio.endpoint and storage.minio.bucket must be set")
		}
	default:
		return fmt.Errorf("unsupported storage.backend: %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	return nil
}
