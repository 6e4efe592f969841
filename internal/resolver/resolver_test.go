package resolver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ytaudio/internal/cookies"
	"ytaudio/internal/extractor"
	"ytaudio/internal/logger"
	"ytaudio/pkg/models"
)

type fakeExtractor struct {
	info *extractor.Info
	err  error

	requests    []extractor.Request
	fileExisted []bool
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(ctx context.Context, req extractor.Request) (*extractor.Info, error) {
	f.requests = append(f.requests, req)
	_, statErr := os.Stat(req.CookieFile)
	f.fileExisted = append(f.fileExisted, statErr == nil)
	return f.info, f.err
}

func audio(id string, abr float64) models.Rendition {
	return models.Rendition{FormatID: id, URL: "https://media/" + id, Ext: "m4a", ACodec: "mp4a.40.2", VCodec: "none", ABR: abr}
}

func newTestResolver(t *testing.T, ex extractor.Extractor) *Resolver {
	return New(ex, cookies.NewSynthesizer("", t.TempDir()), "")
}

func TestSelectBestAudio(t *testing.T) {
	best, err := SelectBestAudio([]models.Rendition{audio("a", 64), audio("b", 128), audio("c", 96)})
	require.NoError(t, err)
	assert.Equal(t, "b", best.FormatID)
}

func TestSelectBestAudio_TieKeepsFirst(t *testing.T) {
	best, err := SelectBestAudio([]models.Rendition{audio("first", 128), audio("second", 128)})
	require.NoError(t, err)
	assert.Equal(t, "first", best.FormatID)
}

func TestSelectBestAudio_SkipsVideo(t *testing.T) {
	muxed := audio("18", 500)
	muxed.VCodec = "avc1.42001E"
	noAudio := audio("sb0", 900)
	noAudio.ACodec = "none"

	best, err := SelectBestAudio([]models.Rendition{muxed, noAudio, audio("140", 129)})
	require.NoError(t, err)
	assert.Equal(t, "140", best.FormatID)
}

func TestSelectBestAudio_UnknownVideoCodecNotEligible(t *testing.T) {
	unreportedAudio := models.Rendition{FormatID: "audio", URL: "https://media/audio", ACodec: "", VCodec: "none", ABR: 128}
	unreportedVideo := models.Rendition{FormatID: "maybe-muxed", URL: "https://media/muxed", ACodec: "mp4a.40.2", VCodec: "", ABR: 192}

	best, err := SelectBestAudio([]models.Rendition{unreportedAudio, unreportedVideo})
	require.NoError(t, err)
	assert.Equal(t, "audio", best.FormatID)
}

func TestSelectBestAudio_NoneEligible(t *testing.T) {
	video := models.Rendition{FormatID: "137", ACodec: "none", VCodec: "avc1"}
	_, err := SelectBestAudio([]models.Rendition{video})
	assert.ErrorIs(t, err, ErrNoAudioStream)

	_, err = SelectBestAudio(nil)
	assert.ErrorIs(t, err, ErrNoAudioStream)
}

func TestIsAudioEligible(t *testing.T) {
	assert.True(t, IsAudioEligible(models.Rendition{ACodec: "opus", VCodec: "none"}))
	assert.True(t, IsAudioEligible(models.Rendition{ACodec: "", VCodec: "none"}))
	assert.False(t, IsAudioEligible(models.Rendition{ACodec: "opus"}))
	assert.False(t, IsAudioEligible(models.Rendition{ACodec: "none", VCodec: "none"}))
	assert.False(t, IsAudioEligible(models.Rendition{ACodec: "opus", VCodec: "vp9"}))
}

func TestResolve_Playback(t *testing.T) {
	ex := &fakeExtractor{info: &extractor.Info{
		ID:         "dQw4w9WgXcQ",
		Title:      "Never Gonna Give You Up",
		Thumbnail:  "https://i.ytimg.com/x.jpg",
		Renditions: []models.Rendition{audio("a", 64), audio("b", 128), audio("c", 96)},
	}}
	r := newTestResolver(t, ex)

	got, err := r.Resolve(context.Background(), "dQw4w9WgXcQ", models.ModePlayback)
	require.NoError(t, err)

	assert.Equal(t, "https://media/b", got.URL)
	assert.Equal(t, "Never Gonna Give You Up", got.Title)
	assert.Equal(t, "https://i.ytimg.com/x.jpg", got.Thumbnail)
	assert.Equal(t, "audio/mp4", got.ContentType)
	assert.Equal(t, 128.0, got.ABR)

	require.Len(t, ex.requests, 1)
	req := ex.requests[0]
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", req.VideoURL)
	assert.Equal(t, FormatPreference, req.Format)
	assert.Equal(t, DefaultUserAgent, req.Headers["User-Agent"])
	assert.True(t, req.NoCheckCertificates)
	assert.True(t, ex.fileExisted[0])
	assert.NoFileExists(t, req.CookieFile)
}

func TestResolve_DefaultTitles(t *testing.T) {
	ex := &fakeExtractor{info: &extractor.Info{Renditions: []models.Rendition{audio("a", 64)}}}
	r := newTestResolver(t, ex)

	got, err := r.Resolve(context.Background(), "dQw4w9WgXcQ", models.ModePlayback)
	require.NoError(t, err)
	assert.Equal(t, "Unknown Title", got.Title)

	got, err = r.Resolve(context.Background(), "dQw4w9WgXcQ", models.ModeDownload)
	require.NoError(t, err)
	assert.Equal(t, "audio", got.Title)
}

func TestResolve_FreshCookiesEachCall(t *testing.T) {
	ex := &fakeExtractor{info: &extractor.Info{Renditions: []models.Rendition{audio("a", 64)}}}
	r := newTestResolver(t, ex)

	for i := 0; i < 2; i++ {
		_, err := r.Resolve(context.Background(), "dQw4w9WgXcQ", models.ModeDownload)
		require.NoError(t, err)
	}
	require.Len(t, ex.requests, 2)
	assert.NotEqual(t, ex.requests[0].CookieFile, ex.requests[1].CookieFile)
}

func TestResolve_Errors(t *testing.T) {
	videoOnly := models.Rendition{FormatID: "137", URL: "https://media/137", ACodec: "none", VCodec: "avc1"}
	noURL := audio("a", 64)
	noURL.URL = ""

	tests := []struct {
		name string
		ex   *fakeExtractor
		want error
	}{
		{"extractor error", &fakeExtractor{err: errors.New("Sign in to confirm you're not a bot")}, ErrExtractionFailed},
		{"empty result", &fakeExtractor{}, ErrExtractionFailed},
		{"video only", &fakeExtractor{info: &extractor.Info{Renditions: []models.Rendition{videoOnly}}}, ErrNoAudioStream},
		{"missing url", &fakeExtractor{info: &extractor.Info{Renditions: []models.Rendition{noURL}}}, ErrNoAudioURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.ex)
			got, err := r.Resolve(context.Background(), "dQw4w9WgXcQ", models.ModePlayback)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.want)

			require.Len(t, tt.ex.requests, 1)
			assert.NoFileExists(t, tt.ex.requests[0].CookieFile, "cookie file removed on failure")
		})
	}
}

func TestResolve_CookieWriteFailure(t *testing.T) {
	ex := &fakeExtractor{}
	r := New(ex, cookies.NewSynthesizer("", filepath.Join(t.TempDir(), "missing")), "")

	_, err := r.Resolve(context.Background(), "dQw4w9WgXcQ", models.ModePlayback)
	assert.ErrorIs(t, err, cookies.ErrWrite)
	assert.Empty(t, ex.requests)
}

func TestResolve_LogsCookieSource(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetDebugMode(true)
	t.Cleanup(func() {
		logger.SetDebugMode(false)
		logger.SetOutput(os.Stdout)
	})

	ex := &fakeExtractor{info: &extractor.Info{Renditions: []models.Rendition{audio("a", 64)}}}

	_, err := newTestResolver(t, ex).Resolve(context.Background(), "dQw4w9WgXcQ", models.ModePlayback)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Using 6 placeholder cookies")

	buf.Reset()
	operator := New(ex, cookies.NewSynthesizer("# Netscape HTTP Cookie File\n", t.TempDir()), "")
	_, err = operator.Resolve(context.Background(), "dQw4w9WgXcQ", models.ModePlayback)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Using operator cookies")
}
