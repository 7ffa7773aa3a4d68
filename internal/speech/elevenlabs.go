package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

const (
	elevenLabsStreamPath    = "/v1/text-to-speech/{voice_id}/stream-input"
	elevenLabsDefaultWSBase = "wss://api.elevenlabs.io" + elevenLabsStreamPath
	elevenLabsDefaultModel  = "eleven_flash_v2_5"
	elevenLabsDefaultFormat = "mp3_44100_128"
)

type ElevenLabsConfig struct {
	APIKey       string
	WSBaseURL    string
	ModelID      string
	OutputFormat string
}

// ElevenLabs synthesizes a whole utterance over the stream-input WebSocket.
type ElevenLabs struct {
	cfg    ElevenLabsConfig
	dialer *websocket.Dialer
}

func NewElevenLabs(cfg ElevenLabsConfig) (*ElevenLabs, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("speech: elevenlabs api key is required")
	}
	cfg.WSBaseURL = strings.TrimSpace(cfg.WSBaseURL)
	switch {
	case cfg.WSBaseURL == "":
		cfg.WSBaseURL = elevenLabsDefaultWSBase
	case !strings.Contains(cfg.WSBaseURL, "{voice_id}"):
		// A bare host gets the stream-input path.
		cfg.WSBaseURL = strings.TrimRight(cfg.WSBaseURL, "/") + elevenLabsStreamPath
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = elevenLabsDefaultModel
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = elevenLabsDefaultFormat
	}
	return &ElevenLabs{cfg: cfg, dialer: websocket.DefaultDialer}, nil
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

type elevenLabsFrame struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, req Request) (Audio, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Audio{}, errors.New("speech: text is required")
	}
	if strings.TrimSpace(req.VoiceID) == "" {
		return Audio{}, errors.New("speech: voice id is required")
	}
	wsURL, err := e.url(req.VoiceID)
	if err != nil {
		return Audio{}, err
	}

	header := http.Header{}
	header.Set("xi-api-key", e.cfg.APIKey)
	conn, _, err := e.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return Audio{}, fmt.Errorf("speech: elevenlabs dial: %w", err)
	}
	defer conn.Close()

	// Unblock reads and writes when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
		_ = conn.SetWriteDeadline(dl)
	}

	msgs := []map[string]any{
		{"text": " ", "voice_settings": req.Settings},
		{"text": text + " ", "flush": true},
		{"text": ""},
	}
	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			return Audio{}, e.ctxErr(ctx, fmt.Errorf("speech: elevenlabs write: %w", err))
		}
	}

	var out []byte
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure && len(out) > 0 {
				break
			}
			return Audio{}, e.ctxErr(ctx, fmt.Errorf("speech: elevenlabs read: %w", err))
		}
		var f elevenLabsFrame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		if f.Error != "" {
			return Audio{}, fmt.Errorf("speech: elevenlabs: %s", f.Error)
		}
		if f.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(f.Audio)
			if err != nil {
				return Audio{}, fmt.Errorf("speech: elevenlabs audio frame: %w", err)
			}
			out = append(out, chunk...)
		}
		if f.IsFinal {
			break
		}
	}
	if len(out) == 0 {
		return Audio{}, ErrEmptyAudio
	}

	ct, br := formatInfo(e.cfg.OutputFormat)
	return Audio{Data: out, ContentType: ct, BitRate: br}, nil
}

func (e *ElevenLabs) ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (e *ElevenLabs) url(voiceID string) (string, error) {
	base := strings.ReplaceAll(e.cfg.WSBaseURL, "{voice_id}", url.PathEscape(voiceID))
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("speech: invalid elevenlabs ws url: %w", err)
	}
	q := u.Query()
	if q.Get("model_id") == "" {
		q.Set("model_id", e.cfg.ModelID)
	}
	if q.Get("output_format") == "" {
		q.Set("output_format", e.cfg.OutputFormat)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// formatInfo maps an ElevenLabs output format such as mp3_44100_128 to a MIME
// type and bit rate.
func formatInfo(format string) (string, int) {
	parts := strings.Split(format, "_")
	switch parts[0] {
	case "mp3":
		br := 0
		if len(parts) == 3 {
			if kbps, err := strconv.Atoi(parts[2]); err == nil {
				br = kbps * 1000
			}
		}
		return "audio/mpeg", br
	case "ulaw":
		return "audio/basic", 64000
	case "pcm":
		if len(parts) == 2 {
			if hz, err := strconv.Atoi(parts[1]); err == nil {
				return "audio/L16;rate=" + parts[1], hz * 16
			}
		}
		return "audio/L16", 0
	default:
		return "application/octet-stream", 0
	}
}
