package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"ytaudio/internal/logger"
	"ytaudio/pkg/models"
)

type YtDlp struct {
	executable string
}

// NewYtDlp returns the yt-dlp backend. An empty path uses yt-dlp from $PATH.
func NewYtDlp(executable string) *YtDlp {
	return &YtDlp{executable: executable}
}

func (y *YtDlp) Name() string { return "yt-dlp" }

// ytDlpJSON matches the subset of `yt-dlp -J` output we consume.
type ytDlpJSON struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Thumbnail string        `json:"thumbnail"`
	URL       string        `json:"url"`
	Ext       string        `json:"ext"`
	ACodec    string        `json:"acodec"`
	VCodec    string        `json:"vcodec"`
	ABR       flexFloat     `json:"abr"`
	Formats   []ytDlpFormat `json:"formats"`
}

type ytDlpFormat struct {
	FormatID string    `json:"format_id"`
	URL      string    `json:"url"`
	Ext      string    `json:"ext"`
	ACodec   string    `json:"acodec"`
	VCodec   string    `json:"vcodec"`
	ABR      flexFloat `json:"abr"`
}

// command builds the yt-dlp invocation for req. The returned args go after
// the flags and end with the video URL.
func (y *YtDlp) command(req Request) (*ytdlp.Command, []string) {
	cmd := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings()

	if y.executable != "" {
		cmd = cmd.SetExecutable(y.executable)
	}
	if req.Format != "" {
		cmd = cmd.Format(req.Format)
	}
	if req.NoCheckCertificates {
		cmd = cmd.NoCheckCertificates()
	}
	if req.CookieFile != "" {
		cmd = cmd.Cookies(req.CookieFile)
	}

	return cmd, append(headerArgs(req.Headers), req.VideoURL)
}

// headerArgs renders one --add-headers pair per header, sorted by name.
// The builder's AddHeaders keeps only the last value, so headers are passed raw.
func headerArgs(headers map[string]string) []string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, 2*len(keys)+1)
	for _, k := range keys {
		args = append(args, "--add-headers", k+":"+headers[k])
	}
	return args
}

func (y *YtDlp) Extract(ctx context.Context, req Request) (*Info, error) {
	start := time.Now()
	cmd, args := y.command(req)
	res, err := cmd.Run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp error: %w", err)
	}
	if res == nil || strings.TrimSpace(res.Stdout) == "" {
		return nil, ErrEmptyResult
	}
	logger.Debug("yt-dlp finished for %s in %v", req.VideoURL, time.Since(start))

	return parseYtDlpJSON([]byte(res.Stdout))
}

func parseYtDlpJSON(data []byte) (*Info, error) {
	var raw ytDlpJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}
	if raw.ID == "" && len(raw.Formats) == 0 && raw.URL == "" {
		return nil, ErrEmptyResult
	}

	info := &Info{
		ID:         raw.ID,
		Title:      raw.Title,
		Thumbnail:  raw.Thumbnail,
		Renditions: make([]models.Rendition, 0, len(raw.Formats)),
	}
	for _, f := range raw.Formats {
		info.Renditions = append(info.Renditions, models.Rendition{
			FormatID: f.FormatID,
			URL:      f.URL,
			Ext:      f.Ext,
			ACodec:   f.ACodec,
			VCodec:   f.VCodec,
			ABR:      float64(f.ABR),
		})
	}

	// Single-format extractors put the stream on the top level only.
	if len(raw.Formats) == 0 && raw.URL != "" {
		info.Renditions = append(info.Renditions, models.Rendition{
			FormatID: "default",
			URL:      raw.URL,
			Ext:      raw.Ext,
			ACodec:   raw.ACodec,
			VCodec:   raw.VCodec,
			ABR:      float64(raw.ABR),
		})
	}

	return info, nil
}
