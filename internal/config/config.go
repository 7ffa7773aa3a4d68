package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration required by the API process.
//
// Values come from defaults, an optional YAML file (voice-agent.yaml), and
// environment variables, in increasing precedence. Keys map to env vars by
// upper-casing and replacing dots: db.sslmode -> DB_SSLMODE.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Log          LogConfig          `mapstructure:"log"`
	DB           DBConfig           `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Twilio       TwilioConfig       `mapstructure:"twilio"`
	Audio        AudioConfig        `mapstructure:"audio"`
	ElevenLabs   ElevenLabsConfig   `mapstructure:"elevenlabs"`
	Gemini       GeminiConfig       `mapstructure:"gemini"`
	Synth        SynthConfig        `mapstructure:"synth"`
	Conversation ConversationConfig `mapstructure:"conversation"`

	// Voices overrides the voice catalog: "female_hi" -> provider voice id.
	Voices map[string]string `mapstructure:"voices"`
}

type AppConfig struct {
	Env  string `mapstructure:"env"`
	Port int    `mapstructure:"port"`

	// PublicURL is the externally reachable base URL used in webhook and
	// audio URLs handed to the telephony provider.
	PublicURL       string        `mapstructure:"public_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`

	ValidateSignatures bool `mapstructure:"validate_signatures"`

	// GatherTimeout is how long Twilio waits for speech to start.
	GatherTimeout time.Duration `mapstructure:"gather_timeout"`
	// SayVoice is used when audio synthesis fell back to Twilio <Say>.
	SayVoice string `mapstructure:"say_voice"`
}

type AudioConfig struct {
	TokenSecret string        `mapstructure:"token_secret"`
	TokenIssuer string        `mapstructure:"token_issuer"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

type ElevenLabsConfig struct {
	APIKey       string `mapstructure:"api_key"`
	WSBaseURL    string `mapstructure:"ws_base_url"`
	ModelID      string `mapstructure:"model_id"`
	OutputFormat string `mapstructure:"output_format"`
}

type GeminiConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SynthConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	Grace           time.Duration `mapstructure:"grace"`
	Capacity        int           `mapstructure:"capacity"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`

	// MaxConcurrent caps provider calls across the fleet. Zero disables.
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	CapKey        string `mapstructure:"cap_key"`
}

type ConversationConfig struct {
	DefaultLanguage        string        `mapstructure:"default_language"`
	MinLanguageConfidence  float64       `mapstructure:"min_language_confidence"`
	MinSpeechConfidence    float64       `mapstructure:"min_speech_confidence"`
	MaxConsecutiveSilences int           `mapstructure:"max_consecutive_silences"`
	MaxAppendAttempts      int           `mapstructure:"max_append_attempts"`
	RetryBackoff           time.Duration `mapstructure:"retry_backoff"`

	// TurnTimeout bounds provider work per webhook. Twilio gives up on a
	// webhook after 15s.
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.public_url", "")
	v.SetDefault("app.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "json")

	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "")
	v.SetDefault("db.sslmode", "")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.validate_signatures", true)
	v.SetDefault("twilio.gather_timeout", 5*time.Second)
	v.SetDefault("twilio.say_voice", "")

	v.SetDefault("audio.token_secret", "")
	v.SetDefault("audio.token_issuer", "voice-agent")
	v.SetDefault("audio.token_ttl", 10*time.Minute)

	v.SetDefault("elevenlabs.api_key", "")
	v.SetDefault("elevenlabs.ws_base_url", "wss://api.elevenlabs.io/v1/text-to-speech/{voice_id}/stream-input")
	v.SetDefault("elevenlabs.model_id", "eleven_flash_v2_5")
	v.SetDefault("elevenlabs.output_format", "mp3_44100_128")

	v.SetDefault("gemini.enabled", false)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.timeout", 3*time.Second)

	v.SetDefault("synth.cache_ttl", 24*time.Hour)
	v.SetDefault("synth.grace", 15*time.Minute)
	v.SetDefault("synth.capacity", 10000)
	v.SetDefault("synth.provider_timeout", 5*time.Second)
	v.SetDefault("synth.max_concurrent", 0)
	v.SetDefault("synth.cap_key", "voice-agent:synth:inflight")

	v.SetDefault("conversation.default_language", "en")
	v.SetDefault("conversation.min_language_confidence", 0.6)
	v.SetDefault("conversation.min_speech_confidence", 0.3)
	v.SetDefault("conversation.max_consecutive_silences", 2)
	v.SetDefault("conversation.max_append_attempts", 64)
	v.SetDefault("conversation.retry_backoff", 150*time.Millisecond)
	v.SetDefault("conversation.turn_timeout", 10*time.Second)
}

// Load reads configuration. If configFile is empty the standard search path
// applies: ./voice-agent.yaml, ./configs/voice-agent.yaml,
// /etc/voice-agent/voice-agent.yaml. A missing file is not an error.
func Load(configFile string) (Config, error) {
	c, err := read(configFile)
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadDatabase reads configuration but only validates the database section.
// Migrations run without the API's secrets.
func LoadDatabase(configFile string) (Config, error) {
	c, err := read(configFile)
	if err != nil {
		return Config{}, err
	}
	if err := joinErrors(c.validateDB()); err != nil {
		return Config{}, err
	}
	return c, nil
}

func read(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("voice-agent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/voice-agent")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	return c, nil
}

// Validate reports every problem at once and fills environment-dependent
// defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if u, err := url.Parse(c.App.PublicURL); c.App.PublicURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("APP_PUBLIC_URL must be an absolute URL, got %q", c.App.PublicURL))
	}
	if c.App.ShutdownTimeout <= 0 {
		c.App.ShutdownTimeout = 10 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
		if c.App.Env == "local" || c.App.Env == "dev" {
			c.Log.Level = "debug"
		}
	}
	if !isValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format))
	}

	errs = append(errs, c.validateDB()...)

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Audio.TokenSecret == "" {
		errs = append(errs, errors.New("AUDIO_TOKEN_SECRET is required"))
	}
	if c.Audio.TokenTTL <= 0 {
		c.Audio.TokenTTL = 10 * time.Minute
	}

	if c.Twilio.ValidateSignatures && c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required when TWILIO_VALIDATE_SIGNATURES is set"))
	}
	if c.IsProduction() && !c.Twilio.ValidateSignatures {
		errs = append(errs, errors.New("TWILIO_VALIDATE_SIGNATURES cannot be disabled in production"))
	}
	if c.Twilio.GatherTimeout <= 0 {
		c.Twilio.GatherTimeout = 5 * time.Second
	}

	if c.IsProduction() && c.ElevenLabs.APIKey == "" {
		errs = append(errs, errors.New("ELEVENLABS_API_KEY is required in production"))
	}
	if c.Gemini.Enabled && c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required when GEMINI_ENABLED is set"))
	}

	if c.Synth.CacheTTL <= 0 {
		errs = append(errs, errors.New("SYNTH_CACHE_TTL must be positive"))
	}
	if c.Synth.Capacity <= 0 {
		errs = append(errs, errors.New("SYNTH_CAPACITY must be positive"))
	}
	if c.Synth.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("SYNTH_PROVIDER_TIMEOUT must be positive"))
	}
	if c.Synth.MaxConcurrent < 0 {
		errs = append(errs, errors.New("SYNTH_MAX_CONCURRENT must not be negative"))
	}

	cc := c.Conversation
	if cc.DefaultLanguage == "" {
		errs = append(errs, errors.New("CONVERSATION_DEFAULT_LANGUAGE is required"))
	}
	if cc.MinLanguageConfidence < 0 || cc.MinLanguageConfidence > 1 {
		errs = append(errs, fmt.Errorf("CONVERSATION_MIN_LANGUAGE_CONFIDENCE must be within [0,1], got %v", cc.MinLanguageConfidence))
	}
	if cc.MinSpeechConfidence < 0 || cc.MinSpeechConfidence > 1 {
		errs = append(errs, fmt.Errorf("CONVERSATION_MIN_SPEECH_CONFIDENCE must be within [0,1], got %v", cc.MinSpeechConfidence))
	}
	if cc.MaxConsecutiveSilences < 1 {
		errs = append(errs, errors.New("CONVERSATION_MAX_CONSECUTIVE_SILENCES must be at least 1"))
	}
	if cc.TurnTimeout <= 0 || cc.TurnTimeout >= 15*time.Second {
		errs = append(errs, fmt.Errorf("CONVERSATION_TURN_TIMEOUT must be within (0s, 15s), got %v", cc.TurnTimeout))
	}

	return joinErrors(errs)
}

func (c *Config) validateDB() []error {
	var errs []error
	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
