// config предоставляет структуру конфигурации travel-api и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Константы окружения.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Auth     AuthConfig    `yaml:"auth"`
	Cookies  CookieConfig  `yaml:"cookies"`
	Routes   RoutesConfig  `yaml:"routes"`
	Web      WebConfig     `yaml:"web"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и проверки токенов.
// Секреты access и refresh обязаны различаться: это гарантирует,
// что токен одной роли никогда не пройдёт проверку как токен другой.
type AuthConfig struct {
	AccessSecret       string        `yaml:"access_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	RefreshSecret      string        `yaml:"refresh_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer             string        `yaml:"issuer" env:"TOKEN_ISSUER" env-default:"travel-api"`
	BcryptCost         int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
	RenewalDedupWindow time.Duration `yaml:"renewal_dedup_window" env:"RENEWAL_DEDUP_WINDOW" env-default:"10s"`
}

// CookieConfig — имена и атрибуты cookie сессии.
// Secure не задаётся явно: он включается в окружении prod (см. Config.SecureCookies).
type CookieConfig struct {
	AccessName  string `yaml:"access_name" env:"COOKIE_ACCESS_NAME" env-default:"access_token"`
	RefreshName string `yaml:"refresh_name" env:"COOKIE_REFRESH_NAME" env-default:"refresh_token"`
	Domain      string `yaml:"domain" env:"COOKIE_DOMAIN"`
}

// RoutesConfig — классификация путей для Request Gate.
type RoutesConfig struct {
	Public        []string `yaml:"public" env:"ROUTES_PUBLIC" env-default:"/,/explore,/about,/offline,/api/auth/login,/api/auth/register,/api/auth/refresh,/api/auth/logout"`
	AuthOnly      []string `yaml:"auth_only" env:"ROUTES_AUTH_ONLY" env-default:"/login,/register"`
	AssetPrefixes []string `yaml:"asset_prefixes" env:"ROUTES_ASSET_PREFIXES" env-default:"/_next,/static,/icons"`
	APIPrefix     string   `yaml:"api_prefix" env:"ROUTES_API_PREFIX" env-default:"/api"`
	LoginPath     string   `yaml:"login_path" env:"ROUTES_LOGIN_PATH" env-default:"/login"`
	LandingPath   string   `yaml:"landing_path" env:"ROUTES_LANDING_PATH" env-default:"/trips"`
}

// WebConfig — адрес веб-фронтенда, которому проксируются страницы.
// Пустое значение отключает проксирование (страницы отдают 404).
type WebConfig struct {
	UpstreamURL string `yaml:"upstream_url" env:"WEB_UPSTREAM_URL"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// RedisConfig — кэш дедупликации продлений. Пустой URL — in-memory кэш.
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"travel:renew:"`
}

// SecureCookies сообщает, нужно ли выставлять cookie с атрибутом Secure.
func (c *Config) SecureCookies() bool {
	return c.Env == EnvProd
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		loaded *Config
		err    error
	)

	switch {
	case path != "":
		loaded, err = tryRead(path)
	case os.Getenv("CONFIG_PATH") != "":
		loaded, err = tryRead(os.Getenv("CONFIG_PATH"))
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			loaded, err = tryRead("local.yaml")
			break
		}

		if envErr := cleanenv.ReadEnv(&cfg); envErr != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", envErr)
		}
		loaded = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := loaded.validate(); err != nil {
		return nil, err
	}

	return loaded, nil
}

// validate проверяет инварианты, которые cleanenv выразить не может.
func (c *Config) validate() error {
	switch {
	case c.Auth.AccessSecret == c.Auth.RefreshSecret:
		return errors.New("config: access and refresh secrets must differ")
	case c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0:
		return errors.New("config: token ttl must be positive")
	case c.Auth.AccessTokenTTL >= c.Auth.RefreshTokenTTL:
		return errors.New("config: access token ttl must be shorter than refresh token ttl")
	case c.Routes.LoginPath == "" || c.Routes.LandingPath == "":
		return errors.New("config: login and landing paths are required")
	}

	return nil
}
