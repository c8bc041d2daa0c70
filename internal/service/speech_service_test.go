package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/lshigami/vivavoce/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	req  *speechpb.RecognizeRequest
	resp *speechpb.RecognizeResponse
	err  error
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.RecognizeRequest, _ ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestMockTranscriber(t *testing.T) {
	text, err := MockTranscriber{}.Transcribe(context.Background(), []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, CannedTranscription, text)

	text, err = MockTranscriber{Text: "hello"}.Transcribe(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = MockTranscriber{}.Transcribe(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAudio)
}

func TestTimedPlayback(t *testing.T) {
	assert.NoError(t, TimedPlayback{}.Play(context.Background(), "question"))
	assert.NoError(t, TimedPlayback{Duration: time.Millisecond}.Play(context.Background(), "question"))
	assert.Error(t, TimedPlayback{}.Play(context.Background(), "  "))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, TimedPlayback{Duration: time.Hour}.Play(ctx, "question"), context.Canceled)
}

func TestGoogleTranscriber(t *testing.T) {
	rec := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "Machine learning"}, {Transcript: "machine earning"}}},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "finds patterns."}}},
			{},
		},
	}}
	tr := newGoogleTranscriber(rec, config.Speech{})

	text, err := tr.Transcribe(context.Background(), []byte{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "Machine learning finds patterns.", text)
	require.NotNil(t, rec.req)
	assert.Equal(t, "en-US", rec.req.GetConfig().GetLanguageCode())
	assert.Equal(t, int32(16000), rec.req.GetConfig().GetSampleRateHertz())
	assert.Equal(t, []byte{0, 1, 2, 3}, rec.req.GetAudio().GetContent())

	_, err = tr.Transcribe(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAudio)

	boom := errors.New("quota")
	_, err = newGoogleTranscriber(&fakeRecognizer{err: boom}, config.Speech{Language: "fr-FR", SampleRate: 8000}).Transcribe(context.Background(), []byte{1})
	assert.ErrorIs(t, err, boom)
}
