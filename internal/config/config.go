package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"codeduel"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Matchmaking Matchmaking
	Leaderboard Leaderboard
	AI          AI
	Executor    Executor
	CORS        CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// Redis holds cache configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret      string        `env:"JWT_SECRET,notEmpty"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"168h"`
}

// Matchmaking groups head-to-head gameplay settings.
type Matchmaking struct {
	RankedWinPoints   int           `env:"RANKED_WIN_POINTS" envDefault:"50"`
	RankedLossPoints  int           `env:"RANKED_LOSS_POINTS" envDefault:"20"`
	FallbackProblemID string        `env:"FALLBACK_PROBLEM_ID" envDefault:"1"`
	SettlementTimeout time.Duration `env:"SETTLEMENT_TIMEOUT" envDefault:"10s"`
	CatalogTimeout    time.Duration `env:"CATALOG_TIMEOUT" envDefault:"3s"`
}

// Leaderboard governs the ranked leaderboard.
type Leaderboard struct {
	Key        string `env:"LEADERBOARD_KEY" envDefault:"leaderboard:ranked"`
	DefaultTop int    `env:"LEADERBOARD_DEFAULT_TOP" envDefault:"10"`
}

// AI configures the driver-code generator.
type AI struct {
	GeneratorURL string        `env:"AI_GENERATOR_URL" envDefault:"https://api.groq.com/openai/v1/chat/completions"`
	GeneratorKey string        `env:"GROQ_API_KEY" envDefault:""`
	Model        string        `env:"AI_MODEL" envDefault:"llama-3.3-70b-versatile"`
	HTTPTimeout  time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"30s"`
	MaxAttempts  int           `env:"AI_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay   time.Duration `env:"AI_RETRY_DELAY" envDefault:"3s"`
}

// Executor configures the remote code execution sandbox.
type Executor struct {
	URL         string        `env:"PISTON_URL" envDefault:"https://emkc.org/api/v2/piston/execute"`
	HTTPTimeout time.Duration `env:"PISTON_HTTP_TIMEOUT" envDefault:"20s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
