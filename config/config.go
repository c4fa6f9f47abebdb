package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio.
type Config struct {
	Scanner    ScannerConfig    `yaml:"scanner"`
	Settlement SettlementConfig `yaml:"settlement"`
	OddsAPI    OddsAPIConfig    `yaml:"odds_api"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Server     ServerConfig     `yaml:"server"`
	Notify     NotifyConfig     `yaml:"notify"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Log        LogConfig        `yaml:"log"`
}

// ScannerConfig controla el pipeline de scan.
type ScannerConfig struct {
	IntervalSeconds int      `yaml:"interval_seconds"`
	Hours           float64  `yaml:"hours"`  // ventana de commence desde ahora
	EVMin           *float64 `yaml:"ev_min"` // nil = default; 0 es un valor válido
	Region          string   `yaml:"region"`
	Market          string   `yaml:"market"`
	SharpSources    []string `yaml:"sharp_sources"`
	SportPrefixes   []string `yaml:"sport_prefixes"`
	Workers         int      `yaml:"workers"`
}

// SettlementConfig controla el pipeline de liquidación.
type SettlementConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	LookaheadHours  float64 `yaml:"lookahead_hours"`
	BatchSize       int     `yaml:"batch_size"`
	MaxEvents       int     `yaml:"max_events"`
	DaysFrom        int     `yaml:"days_from"`
}

// OddsAPIConfig contiene el acceso a The Odds API.
type OddsAPIConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSec     float64 `yaml:"rate_per_sec"`
}

// StorageConfig controla dónde se persisten los picks.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	DSN    string `yaml:"dsn"`    // ruta SQLite (o ":memory:") o DSN de Postgres
}

// RedisConfig activa el lock distribuido entre instancias.
type RedisConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Addr           string `yaml:"addr"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

// ServerConfig controla la API HTTP.
type ServerConfig struct {
	Enabled     *bool    `yaml:"enabled"`
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	MCPEnabled  *bool    `yaml:"mcp_enabled"`
}

// NotifyConfig controla los canales de notificación.
type NotifyConfig struct {
	Console  *bool          `yaml:"console"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig son las credenciales del bot.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// ArchiveConfig controla el archivo S3 de picks liquidados.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // MinIO / R2
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un archivo YAML inexistente no es error: quedan env + defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rechaza combinaciones que harían fallar al servicio en runtime.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config.Validate: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("config.Validate: storage.dsn required for %s", c.Storage.Driver)
	}
	if c.Scanner.Market != "h2h" {
		return fmt.Errorf("config.Validate: unsupported market %q", c.Scanner.Market)
	}
	if ev := c.EVMin(); ev < 0 || ev >= 1 {
		return fmt.Errorf("config.Validate: scanner.ev_min must be in [0, 1), got %v", ev)
	}
	if c.Scanner.Hours <= 0 {
		return fmt.Errorf("config.Validate: scanner.hours must be positive, got %v", c.Scanner.Hours)
	}
	if c.Notify.Telegram.Enabled && (c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == 0) {
		return errors.New("config.Validate: telegram enabled without bot_token or chat_id")
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return errors.New("config.Validate: archive enabled without bucket")
	}
	return nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// SettleInterval devuelve el intervalo de liquidación.
func (c *Config) SettleInterval() time.Duration {
	return time.Duration(c.Settlement.IntervalSeconds) * time.Second
}

// ScanWindow es la ventana de commence del scan.
func (c *Config) ScanWindow() time.Duration {
	return time.Duration(c.Scanner.Hours * float64(time.Hour))
}

// SettleLookahead es el margen sobre ahora con el que se buscan eventos a liquidar.
func (c *Config) SettleLookahead() time.Duration {
	return time.Duration(c.Settlement.LookaheadHours * float64(time.Hour))
}

// EVMin devuelve el umbral de EV configurado.
func (c *Config) EVMin() float64 {
	if c.Scanner.EVMin == nil {
		return defaultEVMin
	}
	return *c.Scanner.EVMin
}

// LockTTL es la duración máxima de un lock de ejecución.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Redis.LockTTLSeconds) * time.Second
}

// OddsAPITimeout es el timeout HTTP contra The Odds API.
func (c *Config) OddsAPITimeout() time.Duration {
	return time.Duration(c.OddsAPI.TimeoutSeconds) * time.Second
}

// ServerEnabled indica si se sirve la API HTTP en modo servicio.
func (c *Config) ServerEnabled() bool { return c.Server.Enabled == nil || *c.Server.Enabled }

// MCPEnabled indica si se monta el endpoint /mcp.
func (c *Config) MCPEnabled() bool { return c.Server.MCPEnabled == nil || *c.Server.MCPEnabled }

// ConsoleEnabled indica si se imprimen los picks en stdout.
func (c *Config) ConsoleEnabled() bool { return c.Notify.Console == nil || *c.Notify.Console }

const defaultEVMin = 0.03

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ODDS_API_KEY"); v != "" {
		cfg.OddsAPI.APIKey = v
	}
	if v := os.Getenv("HOURS"); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config.Load: HOURS: %w", err)
		}
		cfg.Scanner.Hours = h
	}
	if v := os.Getenv("EV_MIN"); v != "" {
		ev, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config.Load: EV_MIN: %w", err)
		}
		cfg.Scanner.EVMin = &ev
	}
	if v := os.Getenv("REGION"); v != "" {
		cfg.Scanner.Region = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config.Load: TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Notify.Telegram.ChatID = id
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 600
	}
	if cfg.Scanner.Hours == 0 {
		cfg.Scanner.Hours = 4
	}
	if cfg.Scanner.Region == "" {
		cfg.Scanner.Region = "eu"
	}
	if cfg.Scanner.Market == "" {
		cfg.Scanner.Market = "h2h"
	}
	if len(cfg.Scanner.SportPrefixes) == 0 {
		cfg.Scanner.SportPrefixes = []string{"tennis_", "soccer_"}
	}
	// sharp_sources vacío: el dominio usa su lista por defecto

	if cfg.Settlement.IntervalSeconds <= 0 {
		cfg.Settlement.IntervalSeconds = 300
	}
	if cfg.Settlement.LookaheadHours <= 0 {
		cfg.Settlement.LookaheadHours = 6
	}
	if cfg.Settlement.BatchSize <= 0 {
		cfg.Settlement.BatchSize = 25
	}
	if cfg.Settlement.MaxEvents <= 0 {
		cfg.Settlement.MaxEvents = 200
	}
	if cfg.Settlement.DaysFrom <= 0 {
		cfg.Settlement.DaysFrom = 3
	}

	if cfg.OddsAPI.BaseURL == "" {
		cfg.OddsAPI.BaseURL = "https://api.the-odds-api.com"
	}
	if cfg.OddsAPI.TimeoutSeconds <= 0 {
		cfg.OddsAPI.TimeoutSeconds = 15
	}
	if cfg.OddsAPI.RatePerSec <= 0 {
		cfg.OddsAPI.RatePerSec = 5
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver == "sqlite" {
		cfg.Storage.DSN = "picks.db"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.LockTTLSeconds <= 0 {
		cfg.Redis.LockTTLSeconds = 600
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "picks/"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
