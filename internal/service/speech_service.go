package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/lshigami/vivavoce/config"
	"github.com/lshigami/vivavoce/internal/interview"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

// ErrNoAudio is returned for an empty recording.
var ErrNoAudio = errors.New("no audio captured")

// TimedPlayback stands in for text to speech: it finishes after a fixed
// delay, or earlier when ctx ends.
type TimedPlayback struct {
	Duration time.Duration
}

func NewPlayback(cfg *config.Config) interview.Playback {
	return TimedPlayback{Duration: cfg.Interview.PlaybackDuration}
}

func (p TimedPlayback) Play(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to play")
	}
	if p.Duration <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MockTranscriber returns a canned transcription for any non-empty recording.
type MockTranscriber struct {
	Text string
}

func (t MockTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", ErrNoAudio
	}
	if t.Text == "" {
		return CannedTranscription, nil
	}
	return t.Text, nil
}

// recognizer is the part of *speech.Client the transcriber uses.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

// GoogleTranscriber sends recordings to Google Cloud Speech-to-Text.
type GoogleTranscriber struct {
	client       recognizer
	languageCode string
	sampleRate   int32
}

func NewGoogleTranscriber(ctx context.Context, cfg config.Speech) (*GoogleTranscriber, *speech.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		log.Info().Str("path", cfg.CredentialsPath).Msg("Using Google credentials file")
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	} else {
		log.Info().Msg("Using GOOGLE_APPLICATION_CREDENTIALS for Google Speech authentication")
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Google Speech client: %w", err)
	}
	return newGoogleTranscriber(client, cfg), client, nil
}

func newGoogleTranscriber(client recognizer, cfg config.Speech) *GoogleTranscriber {
	rate := int32(cfg.SampleRate)
	if rate <= 0 {
		rate = 16000
	}
	lang := cfg.Language
	if lang == "" {
		lang = "en-US"
	}
	return &GoogleTranscriber{client: client, languageCode: lang, sampleRate: rate}
}

func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoAudio
	}
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            t.sampleRate,
			LanguageCode:               t.languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	start := time.Now()
	resp, err := t.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("google speech recognition failed: %w", err)
	}

	var sb strings.Builder
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			sb.WriteString(alts[0].GetTranscript())
			sb.WriteString(" ")
		}
	}
	text := strings.TrimSpace(sb.String())
	log.Debug().Dur("latency", time.Since(start)).Int("chars", len(text)).Msg("Google speech recognition completed")
	return text, nil
}

// NewTranscriber picks the speech to text backend named by TRANSCRIBER. The
// Google client is closed when the application stops.
func NewTranscriber(lc fx.Lifecycle, cfg *config.Config) (interview.Transcriber, error) {
	switch cfg.Speech.Transcriber {
	case "", "mock":
		return MockTranscriber{}, nil
	case "google":
		transcriber, client, err := NewGoogleTranscriber(context.Background(), cfg.Speech)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return transcriber, nil
	default:
		return nil, fmt.Errorf("unsupported transcriber %q", cfg.Speech.Transcriber)
	}
}
