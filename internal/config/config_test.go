package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(env string) Config {
	return Config{
		App:          AppConfig{Env: env, Port: 8080, PublicURL: "https://agent.example.com"},
		Log:          LogConfig{Format: "json"},
		DB:           DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voice"},
		Redis:        RedisConfig{Host: "localhost", Port: 6379},
		Twilio:       TwilioConfig{AuthToken: "tok", ValidateSignatures: true},
		Audio:        AudioConfig{TokenSecret: "secret"},
		ElevenLabs:   ElevenLabsConfig{APIKey: "xi"},
		Synth:        SynthConfig{CacheTTL: time.Hour, Capacity: 10, ProviderTimeout: time.Second},
		Conversation: ConversationConfig{DefaultLanguage: "en", MinLanguageConfidence: 0.6, MaxConsecutiveSilences: 2, TurnTimeout: 10 * time.Second},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"APP_ENV", "DB_HOST", "REDIS_HOST", "AUDIO_TOKEN_SECRET", "APP_PUBLIC_URL"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %v", want, err)
		}
	}
}

func TestValidate_ProductionRequiresSSLModeAndSignatures(t *testing.T) {
	c := validConfig("production")
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "DB_SSLMODE") {
		t.Fatalf("expected error for production without DB_SSLMODE, got %v", err)
	}

	c = validConfig("production")
	c.DB.SSLMode = "require"
	c.Twilio.ValidateSignatures = false
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for disabled signature validation")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validConfig("local")
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode default to persist, got %q", c.DB.SSLMode)
	}
	if c.Log.Level != "debug" {
		t.Fatalf("expected debug logging locally, got %q", c.Log.Level)
	}
	if c.Audio.TokenTTL != 10*time.Minute {
		t.Fatalf("expected audio token ttl default")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voice-agent.yaml")
	yaml := `
app:
  env: dev
  port: 9090
  public_url: https://agent.example.com
db:
  host: db.internal
  user: voice
  name: voice
redis:
  host: redis.internal
audio:
  token_secret: from-file
voices:
  female_hi: custom-voice
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("APP_PORT", "7070")
	t.Setenv("TWILIO_VALIDATE_SIGNATURES", "false")
	t.Setenv("CONVERSATION_MIN_SPEECH_CONFIDENCE", "0.5")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 7070 {
		t.Fatalf("expected env to override port, got %d", c.App.Port)
	}
	if c.DB.Host != "db.internal" || c.DB.Port != 5432 {
		t.Fatalf("unexpected db config: %+v", c.DB)
	}
	if c.Conversation.MinSpeechConfidence != 0.5 {
		t.Fatalf("expected env float, got %v", c.Conversation.MinSpeechConfidence)
	}
	if c.Conversation.TurnTimeout != 10*time.Second {
		t.Fatalf("expected default turn timeout, got %v", c.Conversation.TurnTimeout)
	}
	if c.Synth.CacheTTL != 24*time.Hour {
		t.Fatalf("expected default cache ttl, got %v", c.Synth.CacheTTL)
	}
	if c.Voices["female_hi"] != "custom-voice" {
		t.Fatalf("expected voice override, got %v", c.Voices)
	}
}

func TestLoadDatabase_IgnoresAPISecrets(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "voice")
	t.Setenv("DB_NAME", "voice")

	c, err := LoadDatabase("")
	if err != nil {
		t.Fatalf("expected database-only load to succeed, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode default, got %q", c.DB.SSLMode)
	}
	if _, err := Load(""); err == nil {
		t.Fatalf("expected full load to require api settings")
	}
}

func TestValidate_TurnTimeoutFitsWebhookLimit(t *testing.T) {
	c := validConfig("local")
	c.Conversation.TurnTimeout = 20 * time.Second
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "CONVERSATION_TURN_TIMEOUT") {
		t.Fatalf("expected turn timeout error, got %v", err)
	}
}
