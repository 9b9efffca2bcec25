package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Backend      BackendConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	Payments     PaymentsConfig
	Catalog      CatalogConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var err error
	if _, parseErr := url.ParseRequestURI(c.Backend.BaseURL); parseErr != nil {
		err = multierr.Append(err, fmt.Errorf("%s must be an absolute url: %w", EnvBackendBaseURL, parseErr))
	}
	if c.Backend.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvBackendTimeout))
	}
	if c.Cart.TTL < 0 {
		err = multierr.Append(err, fmt.Errorf("%s cannot be negative", EnvCartTTL))
	}
	if c.Checkout.DraftTTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvCheckoutDraftTTL))
	}
	if c.JWT.Secret != "" && c.JWT.Issuer == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required when %s is set", EnvJWTIssuer, EnvJWTSecret))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"AGROSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"AGROSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGROSTORE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"AGROSTORE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"AGROSTORE_LOG_WARN_STACK" default:"false"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `envconfig:"AGROSTORE_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AGROSTORE_DB_DSN"`
	Driver string `envconfig:"AGROSTORE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"AGROSTORE_DB_HOST"`
	Port     int    `envconfig:"AGROSTORE_DB_PORT" default:"5432"`
	User     string `envconfig:"AGROSTORE_DB_USER"`
	Password string `envconfig:"AGROSTORE_DB_PASSWORD"`
	Name     string `envconfig:"AGROSTORE_DB_NAME"`
	SSLMode  string `envconfig:"AGROSTORE_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"AGROSTORE_SQLITE_PATH" default:"agrostore.db"`

	MaxOpenConns    int           `envconfig:"AGROSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGROSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGROSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGROSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery logs statements slower than this at warn; zero disables.
	SlowQuery time.Duration `envconfig:"AGROSTORE_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGROSTORE_REDIS_URL"`
	Address      string        `envconfig:"AGROSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"AGROSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGROSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGROSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGROSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGROSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGROSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGROSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies tokens minted by the storefront backend. An empty
// secret disables shopper authentication and every request is a guest.
type JWTConfig struct {
	Secret string `envconfig:"AGROSTORE_JWT_SECRET"`
	Issuer string `envconfig:"AGROSTORE_JWT_ISSUER"`
}

func (j JWTConfig) Enabled() bool {
	return strings.TrimSpace(j.Secret) != ""
}

type BackendConfig struct {
	BaseURL string        `envconfig:"AGROSTORE_BACKEND_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"AGROSTORE_BACKEND_API_KEY"`
	Timeout time.Duration `envconfig:"AGROSTORE_BACKEND_TIMEOUT" default:"10s"`
	// Channel tags every order created through this service.
	Channel             string        `envconfig:"AGROSTORE_BACKEND_ORDER_CHANNEL" default:"web"`
	BreakerMaxFailures  uint32        `envconfig:"AGROSTORE_BACKEND_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenInterval time.Duration `envconfig:"AGROSTORE_BACKEND_BREAKER_OPEN_INTERVAL" default:"30s"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"AGROSTORE_CART_TTL" default:"720h"`
}

type CheckoutConfig struct {
	DraftTTL time.Duration `envconfig:"AGROSTORE_CHECKOUT_DRAFT_TTL" default:"2h"`
}

// PaymentsConfig holds the payment discount table and the transfer
// destination accounts in their compact env form; see paymentmethods.ParsePolicy.
type PaymentsConfig struct {
	Discounts        string `envconfig:"AGROSTORE_PAYMENT_DISCOUNTS" default:"cash:1:0,mercadopago:2:0,transfer:3:10"`
	TransferAccounts string `envconfig:"AGROSTORE_TRANSFER_ACCOUNTS"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"AGROSTORE_CATALOG_CACHE_TTL" default:"5m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AGROSTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// RateLimitConfig throttles order submission per client IP and per cart
// session inside a fixed window. A zero limit disables that counter.
type RateLimitConfig struct {
	SubmitWindow       time.Duration `envconfig:"AGROSTORE_RATE_LIMIT_SUBMIT_WINDOW" default:"10m"`
	SubmitIPLimit      int           `envconfig:"AGROSTORE_RATE_LIMIT_SUBMIT_IP_LIMIT" default:"30"`
	SubmitSessionLimit int           `envconfig:"AGROSTORE_RATE_LIMIT_SUBMIT_SESSION_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGROSTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGROSTORE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
