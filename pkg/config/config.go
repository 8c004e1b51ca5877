package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "verba"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "VERBA_DB_DSN"
	EnvDBHost = "VERBA_DB_HOST"
	EnvDBUser = "VERBA_DB_USER"
	EnvDBName = "VERBA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Verification  VerificationConfig
	SMTP          SMTPConfig
	Media         MediaConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"VERBA_APP_ENV" required:"true"`
	Port         string   `envconfig:"VERBA_APP_PORT" default:"3001"`
	LogLevel     string   `envconfig:"VERBA_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"VERBA_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"VERBA_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VERBA_DB_DSN"`
	Driver string `envconfig:"VERBA_DB_DRIVER" default:"postgres"`

	// SQLitePath backs the sqlite driver for single-node deployments.
	SQLitePath string `envconfig:"VERBA_DB_SQLITE_PATH" default:"verba-store.sqlite"`

	LegacyHost     string `envconfig:"VERBA_DB_HOST"`
	LegacyPort     int    `envconfig:"VERBA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VERBA_DB_USER"`
	LegacyPassword string `envconfig:"VERBA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VERBA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VERBA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VERBA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VERBA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VERBA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VERBA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"VERBA_REDIS_URL"`
	Address      string        `envconfig:"VERBA_REDIS_ADDR"`
	Password     string        `envconfig:"VERBA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VERBA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VERBA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VERBA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VERBA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VERBA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VERBA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret           string `envconfig:"VERBA_JWT_SECRET" required:"true"`
	Issuer           string `envconfig:"VERBA_JWT_ISSUER" required:"true"`
	AdminTTLMinutes  int    `envconfig:"VERBA_JWT_ADMIN_TTL_MINUTES" default:"480"`
	CustomerTTLHours int    `envconfig:"VERBA_JWT_CUSTOMER_TTL_HOURS" default:"24"`
}

// AdminTTL returns the admin session lifetime.
func (j JWTConfig) AdminTTL() time.Duration {
	return time.Duration(j.AdminTTLMinutes) * time.Minute
}

// CustomerTTL returns the customer session lifetime.
func (j JWTConfig) CustomerTTL() time.Duration {
	return time.Duration(j.CustomerTTLHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VERBA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VERBA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VERBA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VERBA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VERBA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	CodeRequestWindow     time.Duration `envconfig:"VERBA_RATE_LIMIT_CODE_REQUEST_WINDOW" default:"1m"`
	CodeRequestEmailLimit int           `envconfig:"VERBA_RATE_LIMIT_CODE_REQUEST_EMAIL_LIMIT" default:"3"`
	CodeRequestIPLimit    int           `envconfig:"VERBA_RATE_LIMIT_CODE_REQUEST_IP_LIMIT" default:"10"`
	CodeVerifyWindow      time.Duration `envconfig:"VERBA_RATE_LIMIT_CODE_VERIFY_WINDOW" default:"1m"`
	CodeVerifyEmailLimit  int           `envconfig:"VERBA_RATE_LIMIT_CODE_VERIFY_EMAIL_LIMIT" default:"5"`
	CodeVerifyIPLimit     int           `envconfig:"VERBA_RATE_LIMIT_CODE_VERIFY_IP_LIMIT" default:"20"`
	LoginWindow           time.Duration `envconfig:"VERBA_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit       int           `envconfig:"VERBA_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"VERBA_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type VerificationConfig struct {
	CodeTTL time.Duration `envconfig:"VERBA_VERIFICATION_CODE_TTL" default:"10m"`
}

type SMTPConfig struct {
	Host       string `envconfig:"VERBA_SMTP_HOST"`
	Port       int    `envconfig:"VERBA_SMTP_PORT" default:"587"`
	User       string `envconfig:"VERBA_SMTP_USER"`
	Password   string `envconfig:"VERBA_SMTP_PASSWORD"`
	From       string `envconfig:"VERBA_SMTP_FROM"`
	AdminEmail string `envconfig:"VERBA_ADMIN_EMAIL"`
}

// Enabled reports whether SMTP delivery is configured; otherwise the noop
// mailer is used and codes are only logged.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type MediaConfig struct {
	UploadDir   string `envconfig:"VERBA_MEDIA_UPLOAD_DIR" default:"uploads"`
	MaxUploadMB int    `envconfig:"VERBA_MEDIA_MAX_UPLOAD_MB" default:"10"`
	MaxImages   int    `envconfig:"VERBA_MEDIA_MAX_IMAGES" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"VERBA_AUTO_MIGRATE" default:"false"`
	AllowRegister bool `envconfig:"VERBA_ALLOW_ADMIN_REGISTER" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.IsSQLite() {
		if db.SQLitePath == "" {
			return fmt.Errorf("VERBA_DB_SQLITE_PATH is required for the sqlite driver")
		}
		return nil
	}

	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
