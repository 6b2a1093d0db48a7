package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/config"
	"github.com/tbui88/pdf-tts/domain"
)

func minimaxConfig(url string) *config.MiniMaxConfig {
	return &config.MiniMaxConfig{
		ApiUrl:         url,
		ApiKey:         "test-key",
		GroupID:        "group-7",
		DefaultVoiceID: "default-voice",
		Speed:          1.0,
		Volume:         1.0,
		Pitch:          0,
		RequestTimeout: 5 * time.Second,
	}
}

func newMiniMax(t *testing.T, handler http.HandlerFunc) outbound.SpeechSynthesizerPort {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewMiniMaxSynthesizer(NewContentFetcher(nopLogger{}), minimaxConfig(server.URL), nopLogger{})
}

func TestMiniMaxSynthesizer_RawAudioResponse(t *testing.T) {
	audio := []byte{0xFF, 0xFB, 0x90, 0x00, 0x01, 0x02}
	var got miniMaxRequest

	synth := newMiniMax(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if group := r.Header.Get("X-GroupId"); group != "group-7" {
			t.Errorf("X-GroupId = %q", group)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error("bad request payload:", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	})

	data, err := synth.Synthesize(context.Background(), outbound.SynthesizeSpeechRequest{
		Text:    "hello world",
		VoiceID: "voice-9",
	})
	if err != nil {
		t.Fatal("synthesize failed:", err)
	}
	if string(data) != string(audio) {
		t.Error("returned audio does not match response body")
	}
	if got.Text != "hello world" || got.VoiceID != "voice-9" {
		t.Errorf("request payload text=%q voice=%q", got.Text, got.VoiceID)
	}
	if len(got.TimberWeights) != 1 || got.TimberWeights[0].VoiceID != "voice-9" {
		t.Errorf("timber_weights = %+v", got.TimberWeights)
	}
}

func TestMiniMaxSynthesizer_EmptyVoiceFallsBackToDefault(t *testing.T) {
	var got miniMaxRequest
	synth := newMiniMax(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte{0xFF, 0xFB})
	})

	if _, err := synth.Synthesize(context.Background(), outbound.SynthesizeSpeechRequest{Text: "hi"}); err != nil {
		t.Fatal("synthesize failed:", err)
	}
	if got.VoiceID != "default-voice" {
		t.Errorf("voice_id = %q, want the configured default", got.VoiceID)
	}
}

func TestMiniMaxSynthesizer_Base64AudioResponse(t *testing.T) {
	audio := []byte{0xFF, 0xFB, 0xAA, 0xBB}
	synth := newMiniMax(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"audio_data": base64.StdEncoding.EncodeToString(audio),
		})
	})

	data, err := synth.Synthesize(context.Background(), outbound.SynthesizeSpeechRequest{Text: "hi"})
	if err != nil {
		t.Fatal("synthesize failed:", err)
	}
	if string(data) != string(audio) {
		t.Error("decoded audio does not match")
	}
}

func TestMiniMaxSynthesizer_AudioFileURLResponse(t *testing.T) {
	audio := []byte{0xFF, 0xFB, 0x01}
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"audio_file": server.URL + "/download",
		})
	})

	synth := NewMiniMaxSynthesizer(NewContentFetcher(nopLogger{}), minimaxConfig(server.URL), nopLogger{})

	data, err := synth.Synthesize(context.Background(), outbound.SynthesizeSpeechRequest{Text: "hi"})
	if err != nil {
		t.Fatal("synthesize failed:", err)
	}
	if string(data) != string(audio) {
		t.Error("fetched audio does not match")
	}
}

func TestMiniMaxSynthesizer_ErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limit is transient", http.StatusTooManyRequests, true},
		{"server fault is transient", http.StatusServiceUnavailable, true},
		{"bad request is permanent", http.StatusBadRequest, false},
		{"auth failure is permanent", http.StatusUnauthorized, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			synth := newMiniMax(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte("nope"))
			})

			_, err := synth.Synthesize(context.Background(), outbound.SynthesizeSpeechRequest{Text: "hi"})
			if err == nil {
				t.Fatal("no error for status", tc.status)
			}
			var synthErr *domain.SynthesisError
			if !errors.As(err, &synthErr) {
				t.Fatalf("err = %T, want *domain.SynthesisError", err)
			}
			if synthErr.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", synthErr.StatusCode, tc.status)
			}
			if domain.IsTransient(err) != tc.transient {
				t.Errorf("IsTransient = %v, want %v", !tc.transient, tc.transient)
			}
		})
	}
}

func TestMiniMaxSynthesizer_ConnectionRefusedIsTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	synth := NewMiniMaxSynthesizer(NewContentFetcher(nopLogger{}), minimaxConfig(url), nopLogger{})

	_, err := synth.Synthesize(context.Background(), outbound.SynthesizeSpeechRequest{Text: "hi"})
	if err == nil {
		t.Fatal("no error against a closed server")
	}
	if !domain.IsTransient(err) {
		t.Error("transport failure classified as permanent")
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"abcdefgh", 4, "abcd..."},
		{"限流中限流中", 4, "限..."},
		{"限流中", 0, "..."},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.n)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tc.in, tc.n)
		}
	}
}

func TestMiniMaxSynthesizer_ResponseWithoutAudioIsPermanent(t *testing.T) {
	synth := newMiniMax(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"trace_id":"abc"}`))
	})

	_, err := synth.Synthesize(context.Background(), outbound.SynthesizeSpeechRequest{Text: "hi"})
	if err == nil {
		t.Fatal("no error for a response without audio")
	}
	if domain.IsTransient(err) {
		t.Error("missing audio classified as transient")
	}
}
