// Package config reads process configuration from the environment and
// opens infrastructure connections.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	MongoURI            string `env:"MONGO_URI"`
	MongoDB             string `env:"MONGO_DB" envDefault:"intervue"`
	MongoForceTLSConfig bool   `env:"MONGO_FORCE_TLS_CONFIG"`
	MongoInsecureTLS    bool   `env:"MONGO_INSECURE_TLS"`

	PostgresURI string `env:"POSTGRES_URI"`

	RedisAddr string `env:"REDIS_ADDR"`
	RedisURI  string `env:"REDIS_URI"`
	RedisURL  string `env:"REDIS_URL"`

	JWTSecret   string        `env:"JWT_SECRET"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"intervue"`
	JWTAudience string        `env:"JWT_AUDIENCE"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"24h"`

	// LLMProvider is one of groq, openai, vertex.
	LLMProvider    string        `env:"LLM_PROVIDER" envDefault:"groq"`
	GroqAPIKey     string        `env:"GROQ_API_KEY"`
	GroqBaseURL    string        `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel      string        `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel    string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	LLMTemperature float32       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	LLMMaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"1200"`
	LLMCallTimeout time.Duration `env:"LLM_CALL_TIMEOUT" envDefault:"30s"`
	LLMMaxRetries  int           `env:"LLM_MAX_RETRIES" envDefault:"2"`

	VertexProjectID string `env:"VERTEX_PROJECT_ID"`
	VertexLocation  string `env:"VERTEX_LOCATION" envDefault:"us-central1"`
	VertexModel     string `env:"VERTEX_MODEL" envDefault:"gemini-1.5-flash"`

	STTEnabled bool   `env:"STT_ENABLED"`
	GCSBucket  string `env:"GCS_BUCKET"`

	TurnLockTTL          time.Duration `env:"TURN_LOCK_TTL" envDefault:"2m"`
	AnalysisWorkers      int           `env:"ANALYSIS_WORKERS" envDefault:"2"`
	AnalysisStream       string        `env:"ANALYSIS_STREAM" envDefault:"analysis:stream"`
	AnalysisGroup        string        `env:"ANALYSIS_GROUP" envDefault:"analysis-workers"`
	AnalysisTimeout      time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"60s"`
	ShortAnswerThreshold int           `env:"SHORT_ANSWER_THRESHOLD" envDefault:"30"`
	DecisionWindow       int           `env:"DECISION_WINDOW" envDefault:"12"`
	QuestionCacheTTL     time.Duration `env:"QUESTION_CACHE_TTL" envDefault:"24h"`

	MaxUploadMB           int64         `env:"MAX_UPLOAD_MB" envDefault:"50"`
	WSAllowedOrigins      []string      `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

func (c Config) IsDev() bool {
	e := strings.ToLower(c.AppEnv)
	return e == "dev" || e == "development"
}

// RedisTarget returns the first of REDIS_ADDR, REDIS_URI, REDIS_URL.
func (c Config) RedisTarget() string {
	for _, v := range []string{c.RedisAddr, c.RedisURI, c.RedisURL} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }
