package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Modos de conexión con el servicio autoritativo de catálogo y ventas.
const (
	UpstreamHTTP     = "http"     // API REST del backend del kiosco
	UpstreamPostgres = "postgres" // acceso directo a la base del kiosco
)

// Backends de persistencia del carrito.
const (
	CartStoreMemory = "memory"
	CartStoreRedis  = "redis"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	JWT      JWTConfig
	Upstream UpstreamConfig
	DB       DBConfig
	Cart     CartConfig
	Redis    RedisConfig
	Watcher  WatcherConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	Timezone string // zona horaria del kiosco para "ventas de hoy" (vacío = local del proceso)
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig configuración de JWT. El secreto es el mismo con el que firma el backend del kiosco.
type JWTConfig struct {
	Secret string
	Issuer string
}

// UpstreamConfig servicio externo de catálogo y ventas.
type UpstreamConfig struct {
	Mode         string // http | postgres
	BaseURL      string // ej. http://localhost:8080/api
	ServiceToken string // token usado por el vigilante de stock (sin sesión de usuario)

	// Circuit breaker del cliente HTTP
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	Migrate     bool   // aplicar migraciones embebidas al iniciar
	MaxConns    int    // 0 = valor por defecto del pool
	Timezone    string // zona de la sesión SQL; se completa con APP_TIMEZONE
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// CartConfig persistencia de los carritos de cada caja.
type CartConfig struct {
	Store string        // memory | redis
	TTL   time.Duration // vida de un carrito abandonado en redis

	// SubmitLockTTL vida máxima de la marca de cobro en vuelo en redis. Debe superar lo que
	// tarda el backend en confirmar una venta.
	SubmitLockTTL time.Duration
}

// RedisConfig conexión a Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WatcherConfig vigilante de stock bajo.
type WatcherConfig struct {
	Interval time.Duration
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, UPSTREAM_BASE_URL, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "kiosco-pos"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Timezone: getString(v, "APP_TIMEZONE", ""),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8090),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
			Issuer: getString(v, "JWT_ISSUER", "kiosco-la-madrina"),
		},
		Upstream: UpstreamConfig{
			Mode:               strings.ToLower(getString(v, "UPSTREAM_MODE", UpstreamHTTP)),
			BaseURL:            strings.TrimRight(getString(v, "UPSTREAM_BASE_URL", "http://localhost:8080/api"), "/"),
			ServiceToken:       getString(v, "UPSTREAM_SERVICE_TOKEN", ""),
			BreakerMaxFailures: uint32(getInt(v, "BREAKER_MAX_FAILURES", 5)),
			BreakerOpenTimeout: time.Duration(getInt(v, "BREAKER_OPEN_SECONDS", 30)) * time.Second,
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "kiosco"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			Migrate:     getBool(v, "DB_MIGRATE", false),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 0),
		},
		Cart: CartConfig{
			Store: strings.ToLower(getString(v, "CART_STORE", CartStoreMemory)),
			TTL:   time.Duration(getInt(v, "CART_TTL_MINUTES", 720)) * time.Minute,

			SubmitLockTTL: time.Duration(getInt(v, "CART_SUBMIT_LOCK_TTL_SECONDS", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Watcher: WatcherConfig{
			Interval: time.Duration(getInt(v, "STOCK_WATCH_INTERVAL_SECONDS", 30)) * time.Second,
		},
	}

	cfg.DB.Timezone = cfg.App.Timezone

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Upstream.Mode {
	case UpstreamHTTP:
		if c.Upstream.BaseURL == "" {
			return fmt.Errorf("config: UPSTREAM_BASE_URL requerido en modo http")
		}
	case UpstreamPostgres:
	default:
		return fmt.Errorf("config: UPSTREAM_MODE inválido %q (http|postgres)", c.Upstream.Mode)
	}
	switch c.Cart.Store {
	case CartStoreMemory, CartStoreRedis:
	default:
		return fmt.Errorf("config: CART_STORE inválido %q (memory|redis)", c.Cart.Store)
	}
	if c.Watcher.Interval <= 0 {
		return fmt.Errorf("config: STOCK_WATCH_INTERVAL_SECONDS debe ser positivo")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
