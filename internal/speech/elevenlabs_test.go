package speech

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voice-agent/internal/config"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeElevenLabs struct {
	t        *testing.T
	frames   []map[string]any
	received chan []map[string]any
}

func (f *fakeElevenLabs) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("xi-api-key") != "key" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	up := websocket.Upgrader{}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var got []map[string]any
	for i := 0; i < 3; i++ {
		var m map[string]any
		if err := conn.ReadJSON(&m); err != nil {
			return
		}
		got = append(got, m)
	}
	got = append(got, map[string]any{"model_id": r.URL.Query().Get("model_id"), "path": r.URL.Path})
	f.received <- got

	for _, fr := range f.frames {
		if err := conn.WriteJSON(fr); err != nil {
			return
		}
	}
}

func newFake(t *testing.T, frames ...map[string]any) (*fakeElevenLabs, string) {
	f := &fakeElevenLabs{t: t, frames: frames, received: make(chan []map[string]any, 1)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/text-to-speech/{voice_id}/stream-input"
	return f, base
}

func TestElevenLabs_CollectsAudioUntilFinal(t *testing.T) {
	f, base := newFake(t,
		map[string]any{"audio": base64.StdEncoding.EncodeToString([]byte("abc"))},
		map[string]any{"audio": base64.StdEncoding.EncodeToString([]byte("def"))},
		map[string]any{"isFinal": true},
	)
	p, err := NewElevenLabs(ElevenLabsConfig{APIKey: "key", WSBaseURL: base})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	audio, err := p.Synthesize(ctx, Request{Text: "Hello there", VoiceID: "voice-1", Settings: PresetCalm.Settings()})
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), audio.Data)
	assert.Equal(t, "audio/mpeg", audio.ContentType)
	assert.Equal(t, 128000, audio.BitRate)

	got := <-f.received
	require.Len(t, got, 4)
	settings, ok := got[0]["voice_settings"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.8, settings["stability"])
	assert.Equal(t, "Hello there ", got[1]["text"])
	assert.Equal(t, true, got[1]["flush"])
	assert.Equal(t, "", got[2]["text"])
	assert.Equal(t, elevenLabsDefaultModel, got[3]["model_id"])
	assert.Equal(t, "/v1/text-to-speech/voice-1/stream-input", got[3]["path"])
}

func TestElevenLabs_ServerErrorFails(t *testing.T) {
	_, base := newFake(t, map[string]any{"error": "quota exceeded"})
	p, err := NewElevenLabs(ElevenLabsConfig{APIKey: "key", WSBaseURL: base})
	require.NoError(t, err)

	_, err = p.Synthesize(context.Background(), Request{Text: "hi", VoiceID: "v"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestElevenLabs_RejectsEmptyInput(t *testing.T) {
	p, err := NewElevenLabs(ElevenLabsConfig{APIKey: "key"})
	require.NoError(t, err)
	_, err = p.Synthesize(context.Background(), Request{Text: "  ", VoiceID: "v"})
	assert.Error(t, err)

	_, err = NewElevenLabs(ElevenLabsConfig{})
	assert.Error(t, err)
}

func TestFormatInfo(t *testing.T) {
	ct, br := formatInfo("mp3_22050_32")
	assert.Equal(t, "audio/mpeg", ct)
	assert.Equal(t, 32000, br)
	ct, _ = formatInfo("ulaw_8000")
	assert.Equal(t, "audio/basic", ct)
}

func TestCatalog_PrefersLanguageSpecificVoice(t *testing.T) {
	c := NewCatalog(map[string]string{"female_hi": "hindi-voice", "robot": ""})
	assert.Equal(t, "hindi-voice", c.VoiceID("Female", "hi"))
	assert.Equal(t, DefaultFemaleVoice, c.VoiceID("female", "en"))
	assert.Equal(t, DefaultMaleVoice, c.VoiceID("male", "ta"))
	assert.Equal(t, DefaultFemaleVoice, c.VoiceID("robot", "en"))
}

func TestPresetSettingsFallBackToNeutral(t *testing.T) {
	assert.Equal(t, PresetNeutral.Settings(), Preset("unknown").Settings())
	assert.NotEqual(t, PresetNeutral.Settings(), PresetCalm.Settings())
}

func TestElevenLabs_URLFromLoadedConfig(t *testing.T) {
	for k, v := range map[string]string{
		"APP_ENV":            "local",
		"APP_PUBLIC_URL":     "https://agent.example.com",
		"DB_HOST":            "localhost",
		"DB_USER":            "voice",
		"DB_NAME":            "voice",
		"REDIS_HOST":         "localhost",
		"AUDIO_TOKEN_SECRET": "secret",
		"TWILIO_AUTH_TOKEN":  "tok",
	} {
		t.Setenv(k, v)
	}
	cfg, err := config.Load("")
	require.NoError(t, err)

	e, err := NewElevenLabs(ElevenLabsConfig{
		APIKey:       "key",
		WSBaseURL:    cfg.ElevenLabs.WSBaseURL,
		ModelID:      cfg.ElevenLabs.ModelID,
		OutputFormat: cfg.ElevenLabs.OutputFormat,
	})
	require.NoError(t, err)
	got, err := e.url("voice-1")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.elevenlabs.io/v1/text-to-speech/voice-1/stream-input?model_id=eleven_flash_v2_5&output_format=mp3_44100_128", got)
}

func TestElevenLabs_BareHostGetsStreamPath(t *testing.T) {
	e, err := NewElevenLabs(ElevenLabsConfig{APIKey: "key", WSBaseURL: "wss://eu.elevenlabs.example/"})
	require.NoError(t, err)
	got, err := e.url("v 2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "wss://eu.elevenlabs.example/v1/text-to-speech/v%202/stream-input?"), got)
}
