// internal/config/config.go
//
// Runtime configuration. Every setting is a flag whose value may also come
// from the environment (flag "db-type" ← env DB_TYPE); an explicit flag
// wins over the environment, which wins over the default. main loads a
// .env file first so local development can keep these in one place.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Bind     string
	Port     int
	LogLevel string
	Env      string

	DBType      string
	DBPath      string
	DatabaseURL string

	ContentSource   string
	MongoURL        string
	MongoDatabase   string
	MongoCollection string

	Variant       string
	MaxGuesses    int
	RolloverHours int
	DailySalt     string
	LaunchDate    string

	AnswersFile string
	AllowedFile string
	PromptsFile string

	EmbedProvider  string
	OllamaEndpoint string
	OllamaModel    string
	GenAIAPIKey    string
	GenAIModel     string

	ImageBaseURL string
	SiteURL      string

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string

	GAMeasurementID string
	GAAPISecret     string

	GuessRate  float64
	GuessBurst int

	S3Bucket  string
	AWSRegion string
}

const devJWTSecret = "dev_secret_change_me"

// Bind registers every setting on fs and seeds unset flags from the
// environment.
func Bind(fs *pflag.FlagSet, cfg *Config) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 5175, "port to listen on (env: PORT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "zerolog level (env: LOG_LEVEL)")
	fs.StringVar(&cfg.Env, "app-env", "development", "development or production (env: APP_ENV)")

	fs.StringVar(&cfg.DBType, "db-type", "sqlite", "session store backend: sqlite or postgres (env: DB_TYPE)")
	fs.StringVar(&cfg.DBPath, "db-path", "./data/charades.db", "sqlite database file (env: DB_PATH)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres connection string (env: DATABASE_URL)")

	fs.StringVar(&cfg.ContentSource, "content-source", "mongo", "round source: mongo or memory (env: CONTENT_SOURCE)")
	fs.StringVar(&cfg.MongoURL, "mongo-url", "", "MongoDB connection string (env: MONGO_URL)")
	fs.StringVar(&cfg.MongoDatabase, "mongo-database", "production", "MongoDB database (env: MONGO_DATABASE)")
	fs.StringVar(&cfg.MongoCollection, "mongo-collection", "charades", "MongoDB rounds collection (env: MONGO_COLLECTION)")

	fs.StringVar(&cfg.Variant, "variant", "similarity", "scoring variant: similarity or exact (env: VARIANT)")
	fs.IntVar(&cfg.MaxGuesses, "max-guesses", 5, "guesses per round (env: MAX_GUESSES)")
	fs.IntVar(&cfg.RolloverHours, "rollover-hours", 4, "UTC hour a new round starts (env: ROLLOVER_HOURS)")
	fs.StringVar(&cfg.DailySalt, "daily-salt", "", "salt for generated round schedules (env: DAILY_SALT)")
	fs.StringVar(&cfg.LaunchDate, "launch-date", "2022-08-01", "date of round 1, YYYY-MM-DD (env: LAUNCH_DATE)")

	fs.StringVar(&cfg.AnswersFile, "words-answers-file", "", "exact-variant answers list (env: WORDS_ANSWERS_FILE)")
	fs.StringVar(&cfg.AllowedFile, "words-allowed-file", "", "exact-variant allowed guesses (env: WORDS_ALLOWED_FILE)")
	fs.StringVar(&cfg.PromptsFile, "prompts-file", "", "prompts for generated rounds (env: PROMPTS_FILE)")

	fs.StringVar(&cfg.EmbedProvider, "embed-provider", "ollama", "embedding engine: ollama or genai (env: EMBED_PROVIDER)")
	fs.StringVar(&cfg.OllamaEndpoint, "ollama-endpoint", "http://localhost:11434", "Ollama base URL (env: OLLAMA_ENDPOINT)")
	fs.StringVar(&cfg.OllamaModel, "ollama-model", "all-minilm", "Ollama embedding model (env: OLLAMA_MODEL)")
	fs.StringVar(&cfg.GenAIAPIKey, "genai-api-key", "", "Gemini API key (env: GENAI_API_KEY)")
	fs.StringVar(&cfg.GenAIModel, "genai-model", "gemini-embedding-001", "Gemini embedding model (env: GENAI_MODEL)")

	fs.StringVar(&cfg.ImageBaseURL, "image-base-url", "https://images.charades.ai", "round image host (env: IMAGE_BASE_URL)")
	fs.StringVar(&cfg.SiteURL, "site-url", "https://charades.ai", "public site URL used in share links (env: SITE_URL)")

	fs.StringVar(&cfg.JWTSecret, "jwt-secret", devJWTSecret, "account token signing secret (env: JWT_SECRET)")
	fs.IntVar(&cfg.JWTExpiresDays, "jwt-expires-days", 14, "account token lifetime in days (env: JWT_EXPIRES_DAYS)")
	fs.StringVar(&cfg.CookieName, "cookie-name", "charades_token", "auth cookie name (env: COOKIE_NAME)")
	fs.StringVar(&cfg.ClientOrigin, "client-origin", "http://localhost:5173", "CORS origin allowed to send credentials (env: CLIENT_ORIGIN)")

	fs.StringVar(&cfg.GAMeasurementID, "ga-measurement-id", "", "GA4 measurement id (env: GA_MEASUREMENT_ID)")
	fs.StringVar(&cfg.GAAPISecret, "ga-api-secret", "", "GA4 Measurement Protocol secret (env: GA_API_SECRET)")

	fs.Float64Var(&cfg.GuessRate, "guess-rate", 2, "guesses per second allowed per player (env: GUESS_RATE)")
	fs.IntVar(&cfg.GuessBurst, "guess-burst", 5, "guess burst size per player (env: GUESS_BURST)")

	fs.StringVar(&cfg.S3Bucket, "s3-bucket", "charades.ai", "image bucket checked by rounds check (env: S3_BUCKET)")
	fs.StringVar(&cfg.AWSRegion, "aws-region", "us-east-2", "image bucket region (env: AWS_REGION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// Production reports whether APP_ENV is production.
func (c *Config) Production() bool { return strings.EqualFold(c.Env, "production") }

// Rollover is the round start offset from UTC midnight.
func (c *Config) Rollover() time.Duration { return time.Duration(c.RolloverHours) * time.Hour }

// Launch parses LaunchDate.
func (c *Config) Launch() (time.Time, error) {
	return time.ParseInLocation("2006-01-02", c.LaunchDate, time.UTC)
}

// JWTTTL is the account token lifetime.
func (c *Config) JWTTTL() time.Duration { return time.Duration(c.JWTExpiresDays) * 24 * time.Hour }

// Addr is the listen address.
func (c *Config) Addr() string { return fmt.Sprintf("%s:%d", c.Bind, c.Port) }

// Validate checks settings used by every command.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port))
	}
	switch strings.ToLower(c.DBType) {
	case "sqlite", "sqlite3":
	case "postgres", "postgresql":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("--database-url is required when --db-type=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported --db-type %q", c.DBType))
	}
	switch c.ContentSource {
	case "mongo":
		if c.MongoURL == "" {
			errs = append(errs, errors.New("--mongo-url is required when --content-source=mongo"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported --content-source %q", c.ContentSource))
	}
	if c.Variant != "similarity" && c.Variant != "exact" {
		errs = append(errs, fmt.Errorf("unsupported --variant %q", c.Variant))
	}
	if c.Variant == "similarity" {
		switch c.EmbedProvider {
		case "ollama":
		case "genai":
			if c.GenAIAPIKey == "" {
				errs = append(errs, errors.New("--genai-api-key is required when --embed-provider=genai"))
			}
		default:
			errs = append(errs, fmt.Errorf("unsupported --embed-provider %q", c.EmbedProvider))
		}
	}
	if c.MaxGuesses < 1 {
		errs = append(errs, fmt.Errorf("--max-guesses must be positive: %d", c.MaxGuesses))
	}
	if c.RolloverHours < 0 || c.RolloverHours > 23 {
		errs = append(errs, fmt.Errorf("--rollover-hours must be 0-23: %d", c.RolloverHours))
	}
	if _, err := c.Launch(); err != nil {
		errs = append(errs, fmt.Errorf("--launch-date: %w", err))
	}
	if c.JWTExpiresDays < 1 {
		errs = append(errs, fmt.Errorf("--jwt-expires-days must be positive: %d", c.JWTExpiresDays))
	}
	if c.Production() && c.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("--jwt-secret must be set in production"))
	}
	if c.GuessRate <= 0 || c.GuessBurst < 1 {
		errs = append(errs, errors.New("--guess-rate and --guess-burst must be positive"))
	}
	return errors.Join(errs...)
}
