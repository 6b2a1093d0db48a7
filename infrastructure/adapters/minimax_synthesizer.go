package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/config"
	"github.com/tbui88/pdf-tts/domain"
)

type timberWeight struct {
	VoiceID string `json:"voice_id"`
	Weight  int    `json:"weight"`
}

type miniMaxRequest struct {
	Text          string         `json:"text"`
	VoiceID       string         `json:"voice_id"`
	Speed         float64        `json:"speed"`
	Vol           float64        `json:"vol"`
	Pitch         int            `json:"pitch"`
	TimberWeights []timberWeight `json:"timber_weights"`
}

// miniMaxResponse covers the JSON shapes the service answers with when it
// does not return raw audio: a downloadable URL or inline base64.
type miniMaxResponse struct {
	AudioFile string `json:"audio_file"`
	AudioData string `json:"audio_data"`
}

type miniMaxSynthesizer struct {
	fetcher ContentFetcher
	cfg     *config.MiniMaxConfig
	logger  outbound.LoggerPort
}

// NewMiniMaxSynthesizer synthesizes speech through the MiniMax t2a_v2
// endpoint. Failures are classified into transient (rate limit, timeout,
// server fault) and permanent (auth, bad input) via domain.SynthesisError.
func NewMiniMaxSynthesizer(fetcher ContentFetcher, cfg *config.MiniMaxConfig, logger outbound.LoggerPort) outbound.SpeechSynthesizerPort {
	return &miniMaxSynthesizer{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
}

func (m *miniMaxSynthesizer) Synthesize(ctx context.Context, req outbound.SynthesizeSpeechRequest) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = m.cfg.DefaultVoiceID
	}

	httpReq, err := m.buildRequest(callCtx, req.Text, voiceID)
	if err != nil {
		return nil, &domain.SynthesisError{Transient: false, Reason: "failed to build request", Err: err}
	}

	res, err := m.fetcher.FetchContent(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, classifyStatus(res.StatusCode, res.Body)
	}

	if strings.Contains(res.ContentType, "audio") {
		return res.Body, nil
	}

	return m.decodeJSONAudio(callCtx, res.Body)
}

func (m *miniMaxSynthesizer) buildRequest(ctx context.Context, text string, voiceID string) (*http.Request, error) {
	payload := miniMaxRequest{
		Text:          text,
		VoiceID:       voiceID,
		Speed:         m.cfg.Speed,
		Vol:           m.cfg.Volume,
		Pitch:         m.cfg.Pitch,
		TimberWeights: []timberWeight{{VoiceID: voiceID, Weight: 1}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.ApiUrl, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.cfg.ApiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if m.cfg.GroupID != "" {
		httpReq.Header.Set("X-GroupId", m.cfg.GroupID)
	}

	return httpReq, nil
}

// decodeJSONAudio handles the non-audio response bodies: a URL to fetch
// or inline base64 audio.
func (m *miniMaxSynthesizer) decodeJSONAudio(ctx context.Context, body []byte) ([]byte, error) {
	var parsed miniMaxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &domain.SynthesisError{Transient: false, Reason: "unexpected response format", Err: err}
	}

	switch {
	case parsed.AudioFile != "":
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.AudioFile, nil)
		if err != nil {
			return nil, &domain.SynthesisError{Transient: false, Reason: "bad audio file url", Err: err}
		}
		res, err := m.fetcher.FetchContent(httpReq)
		if err != nil {
			return nil, classifyTransportError(err)
		}
		if res.StatusCode != http.StatusOK {
			return nil, classifyStatus(res.StatusCode, res.Body)
		}
		return res.Body, nil

	case parsed.AudioData != "":
		data, err := base64.StdEncoding.DecodeString(parsed.AudioData)
		if err != nil {
			return nil, &domain.SynthesisError{Transient: false, Reason: "invalid base64 audio", Err: err}
		}
		return data, nil

	default:
		return nil, &domain.SynthesisError{Transient: false, Reason: "response carries no audio"}
	}
}

// classifyTransportError treats timeouts and connection faults as
// transient; they are indistinguishable from server-side hiccups.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &domain.SynthesisError{Transient: true, Reason: "request did not complete", Err: err}
}

func classifyStatus(status int, body []byte) error {
	reason := fmt.Sprintf("service returned %d: %s", status, truncate(string(body), 200))
	switch {
	case status == http.StatusTooManyRequests:
		return &domain.SynthesisError{StatusCode: status, Transient: true, Reason: reason}
	case status >= 500:
		return &domain.SynthesisError{StatusCode: status, Transient: true, Reason: reason}
	default:
		return &domain.SynthesisError{StatusCode: status, Transient: false, Reason: reason}
	}
}

// truncate cuts on a rune boundary so a multi-byte sequence is never
// split mid-character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
